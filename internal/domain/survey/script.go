// Package survey holds the static conversation script: the ordered questions,
// the message catalog, answer validation and trigger matching.
package survey

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidScript = errors.New("invalid survey script")

//go:embed script.yaml
var defaultScript []byte

// Picker chooses an index in [0, n). Production code uses rand.Intn; tests pass
// a deterministic picker.
type Picker func(n int) int

func RandomPicker(n int) int {
	return rand.Intn(n)
}

func FirstPicker(int) int {
	return 0
}

type Question struct {
	Key           string   `yaml:"key"`
	Prompt        string   `yaml:"prompt"`
	Options       []string `yaml:"options"`
	MultiSelect   bool     `yaml:"multi_select"`
	MaxSelections int      `yaml:"max_selections"`
}

func (q Question) HasOption(code string) bool {
	return slices.Contains(q.Options, code)
}

type Triggers struct {
	Phrases      []string `yaml:"phrases"`
	Keywords     []string `yaml:"keywords"`
	KeywordMatch string   `yaml:"keyword_match"`
}

type OptIn struct {
	Prompt  string `yaml:"prompt"`
	Accept  string `yaml:"accept"`
	Decline string `yaml:"decline"`
	Goodbye string `yaml:"goodbye"`
}

type Messages struct {
	Confirmations []string   `yaml:"confirmations"`
	Fillers       [][]string `yaml:"fillers"`
	Completion    []string   `yaml:"completion"`
	Analyzing     string     `yaml:"analyzing"`
	Approvals     []string   `yaml:"approvals"`
	Farewell      string     `yaml:"farewell"`
	InvalidSingle string     `yaml:"invalid_single"`
	InvalidMulti  string     `yaml:"invalid_multi"`
	Wait          string     `yaml:"wait"`
	Retry         string     `yaml:"retry"`
}

// Script is the full, immutable conversation definition.
type Script struct {
	ExitCode  string     `yaml:"exit_code"`
	GroupLink string     `yaml:"group_link"`
	Triggers  Triggers   `yaml:"triggers"`
	OptIn     *OptIn     `yaml:"opt_in"`
	Questions []Question `yaml:"questions"`
	Messages  Messages   `yaml:"messages"`
}

// Load reads the script at path, or the embedded default when path is empty.
func Load(path string) (*Script, error) {
	if path == "" {
		return Parse(defaultScript)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Script) applyDefaults() {
	if s.ExitCode == "" {
		s.ExitCode = "S"
	}
	s.ExitCode = strings.ToUpper(s.ExitCode)
	if s.Triggers.KeywordMatch == "" {
		s.Triggers.KeywordMatch = KeywordMatchAny
	}
	for i := range s.Questions {
		for j, option := range s.Questions[i].Options {
			s.Questions[i].Options[j] = strings.ToUpper(strings.TrimSpace(option))
		}
	}
	if s.OptIn != nil {
		s.OptIn.Accept = strings.ToUpper(s.OptIn.Accept)
		s.OptIn.Decline = strings.ToUpper(s.OptIn.Decline)
	}
}

func (s *Script) Validate() error {
	if len(s.Questions) == 0 {
		return fmt.Errorf("%w: no questions defined", ErrInvalidScript)
	}
	if len(s.Triggers.Phrases) == 0 && len(s.Triggers.Keywords) == 0 {
		return fmt.Errorf("%w: no trigger phrases or keywords defined", ErrInvalidScript)
	}
	if s.Triggers.KeywordMatch != KeywordMatchAny && s.Triggers.KeywordMatch != KeywordMatchAll {
		return fmt.Errorf("%w: keyword_match must be %q or %q", ErrInvalidScript, KeywordMatchAny, KeywordMatchAll)
	}

	keys := make(map[string]struct{}, len(s.Questions))
	for i, q := range s.Questions {
		if q.Key == "" {
			return fmt.Errorf("%w: question %d has no key", ErrInvalidScript, i)
		}
		if _, dup := keys[q.Key]; dup {
			return fmt.Errorf("%w: duplicate question key %q", ErrInvalidScript, q.Key)
		}
		keys[q.Key] = struct{}{}

		if !q.HasOption(s.ExitCode) {
			return fmt.Errorf("%w: question %q does not offer the exit code %q", ErrInvalidScript, q.Key, s.ExitCode)
		}
		for _, option := range q.Options {
			if len([]rune(option)) != 1 {
				return fmt.Errorf("%w: question %q has option %q, options must be single letters", ErrInvalidScript, q.Key, option)
			}
		}
		if q.MultiSelect && q.MaxSelections < 1 {
			return fmt.Errorf("%w: multi-select question %q needs max_selections >= 1", ErrInvalidScript, q.Key)
		}
	}

	if s.OptIn != nil {
		if s.OptIn.Prompt == "" || s.OptIn.Accept == "" || s.OptIn.Decline == "" {
			return fmt.Errorf("%w: opt_in needs prompt, accept and decline", ErrInvalidScript)
		}
		if s.OptIn.Accept == s.OptIn.Decline {
			return fmt.Errorf("%w: opt_in accept and decline must differ", ErrInvalidScript)
		}
	}

	if len(s.Messages.Fillers) > len(s.Questions) {
		return fmt.Errorf("%w: %d filler groups for %d questions", ErrInvalidScript, len(s.Messages.Fillers), len(s.Questions))
	}
	if len(s.Messages.Approvals) == 0 {
		return fmt.Errorf("%w: at least one approval message is required", ErrInvalidScript)
	}
	return nil
}

func (s *Script) QuestionCount() int {
	return len(s.Questions)
}

func (s *Script) Question(step int) (Question, bool) {
	if step < 0 || step >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[step], true
}

// FillerFor returns the transition message sent after the question at step was
// answered. Steps without a filler group yield false.
func (s *Script) FillerFor(step int, pick Picker) (string, bool) {
	if step < 0 || step >= len(s.Messages.Fillers) {
		return "", false
	}
	return Pick(s.Messages.Fillers[step], pick)
}

// Render fills the {name} and {group_link} placeholders.
func (s *Script) Render(text, name string) string {
	return strings.NewReplacer("{name}", name, "{group_link}", s.GroupLink).Replace(text)
}

// InvalidAnswer explains which replies q accepts.
func (s *Script) InvalidAnswer(q Question) string {
	if q.MultiSelect {
		example := q.Options
		if len(example) > q.MaxSelections {
			example = example[:q.MaxSelections]
		}
		return strings.NewReplacer(
			"{max}", fmt.Sprint(q.MaxSelections),
			"{example}", strings.Join(example, ","),
			"{options}", strings.Join(q.Options, ", "),
		).Replace(s.Messages.InvalidMulti)
	}
	return strings.NewReplacer("{options}", strings.Join(q.Options, ", ")).Replace(s.Messages.InvalidSingle)
}

// InvalidOptIn explains the accepted opt-in replies.
func (s *Script) InvalidOptIn() string {
	options := []string{s.OptIn.Accept, s.OptIn.Decline}
	return strings.NewReplacer("{options}", strings.Join(options, ", ")).Replace(s.Messages.InvalidSingle)
}

// Pick selects one variant. An empty list yields false.
func Pick(variants []string, pick Picker) (string, bool) {
	if len(variants) == 0 {
		return "", false
	}
	if pick == nil {
		pick = RandomPicker
	}
	i := pick(len(variants))
	if i < 0 || i >= len(variants) {
		i = 0
	}
	return variants[i], true
}
