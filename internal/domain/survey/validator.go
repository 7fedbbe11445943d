package survey

import "strings"

// Validate reports whether raw is an acceptable reply to q. It has no side
// effects.
func Validate(q Question, raw string) bool {
	if !q.MultiSelect {
		return q.HasOption(strings.ToUpper(strings.TrimSpace(raw)))
	}

	tokens := selectionTokens(raw)
	if len(tokens) == 0 || len(tokens) > q.MaxSelections {
		return false
	}
	for _, token := range tokens {
		if !q.HasOption(token) {
			return false
		}
	}
	return true
}

// Normalize returns the stored form of raw: the upper-cased code for
// single-select questions, the de-duplicated comma-joined codes otherwise.
// Normalize(q, Normalize(q, x)) == Normalize(q, x).
func Normalize(q Question, raw string) string {
	if !q.MultiSelect {
		return strings.ToUpper(strings.TrimSpace(raw))
	}
	return strings.Join(selectionTokens(raw), ",")
}

// ContainsExit reports whether a normalized answer selects the exit code.
func ContainsExit(q Question, normalized string, exitCode string) bool {
	if !q.MultiSelect {
		return normalized == exitCode
	}
	for _, token := range strings.Split(normalized, ",") {
		if token == exitCode {
			return true
		}
	}
	return false
}

// selectionTokens splits a multi-select reply on commas, trims and upper-cases
// every token, drops empties and keeps the first occurrence of each code.
func selectionTokens(raw string) []string {
	parts := strings.Split(raw, ",")
	tokens := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		token := strings.ToUpper(strings.TrimSpace(part))
		if token == "" {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}
	return tokens
}
