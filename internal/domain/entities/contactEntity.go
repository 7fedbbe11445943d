package entities

import (
	"errors"
	"time"
)

var ErrContactNotFound = errors.New("contact not found")

type LifecycleState string

const (
	StateInactive      LifecycleState = "inactive"
	StateAwaitingOptIn LifecycleState = "awaiting_opt_in"
	StateActive        LifecycleState = "active"
)

// Answer is one recorded reply. Answers are kept as an ordered list so the
// question order survives every storage backend.
type Answer struct {
	Key   string `json:"key" bson:"key"`
	Value string `json:"value" bson:"value"`
}

// Contact is the conversation record of one WhatsApp user.
type Contact struct {
	ID        string         `json:"id" bson:"id"`
	Name      string         `json:"nome" bson:"nome"`
	State     LifecycleState `json:"state" bson:"state"`
	Step      *int           `json:"step,omitempty" bson:"step,omitempty"`
	Answers   []Answer       `json:"answers" bson:"answers"`
	UpdatedAt time.Time      `json:"updatedAt" bson:"updated_at"`
}

func NewContact(id string) Contact {
	return Contact{ID: id, State: StateInactive, Answers: []Answer{}}
}

func (c Contact) AnswerFor(key string) (string, bool) {
	for _, a := range c.Answers {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

func (c *Contact) SetAnswer(key, value string) {
	for i := range c.Answers {
		if c.Answers[i].Key == key {
			c.Answers[i].Value = value
			return
		}
	}
	c.Answers = append(c.Answers, Answer{Key: key, Value: value})
}

func (c *Contact) SetStep(step int) {
	c.Step = &step
}

// Reset returns the contact to the idle state with a fresh answer set.
func (c *Contact) Reset() {
	c.State = StateInactive
	c.Step = nil
	c.Answers = []Answer{}
}

// Clone deep-copies the record so callers never share the answers slice or the
// step pointer with a repository.
func (c Contact) Clone() Contact {
	out := c
	out.Answers = make([]Answer, len(c.Answers))
	copy(out.Answers, c.Answers)
	if c.Step != nil {
		step := *c.Step
		out.Step = &step
	}
	return out
}
