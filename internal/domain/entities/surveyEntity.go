package entities

import "time"

// CompletedSurvey is handed to every sink once a contact answers the last question.
type CompletedSurvey struct {
	ID          string    `json:"id"`
	ContactID   string    `json:"contact_id"`
	Name        string    `json:"nome"`
	Answers     []Answer  `json:"answers"`
	CompletedAt time.Time `json:"completed_at"`
}

func (s CompletedSurvey) AnswerFor(key string) string {
	for _, a := range s.Answers {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}
