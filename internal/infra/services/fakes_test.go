package services

import (
	"context"
	"errors"
	"sync"

	"survey-bot/internal/domain/entities"
)

const testScript = `
triggers:
  phrases: ["quero participar"]
  keywords: ["comunidade de elite"]
questions:
  - key: q1
    prompt: "Primeira?"
    options: [A, B, S]
  - key: q2
    prompt: "Segunda?"
    options: [A, B, C, S]
    multi_select: true
    max_selections: 2
messages:
  confirmations: ["ok"]
  fillers:
    - ["depois da primeira, {name}"]
  completion: ["fim"]
  analyzing: "analisando"
  approvals: ["aprovada {name}"]
  farewell: "tchau {name}"
  invalid_single: "use {options}"
  invalid_multi: "até {max}: {example}"
  wait: "aguarde"
  retry: "erro"
`

const testOptIn = `
opt_in:
  prompt: "Oi {name}, topa? A ou B"
  accept: a
  decline: b
  goodbye: "até logo {name}"
`

type memoryRepository struct {
	mu       sync.Mutex
	contacts map[string]entities.Contact
	writes   []entities.Contact
	saveErr  error
	// failAt makes only the failAt-th Save call fail when set.
	failAt int
	saves  int
	// saveGate, when set, holds every Save until it is closed.
	saveGate chan struct{}
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{contacts: make(map[string]entities.Contact)}
}

func (r *memoryRepository) Find(_ context.Context, id string) (entities.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok {
		return entities.Contact{}, entities.ErrContactNotFound
	}
	return c.Clone(), nil
}

func (r *memoryRepository) Save(_ context.Context, contact entities.Contact) error {
	if r.saveGate != nil {
		<-r.saveGate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	if r.failAt > 0 && r.saves == r.failAt {
		return errors.New("disk full")
	}
	r.contacts[contact.ID] = contact.Clone()
	r.writes = append(r.writes, contact.Clone())
	return nil
}

func (r *memoryRepository) FindAll(_ context.Context) ([]entities.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.Contact, 0, len(r.contacts))
	for _, c := range r.contacts {
		out = append(out, c.Clone())
	}
	return out, nil
}

func (r *memoryRepository) ResetAll(_ context.Context) (int, error) {
	return 0, errors.New("not implemented")
}

func (r *memoryRepository) put(c entities.Contact) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contacts[c.ID] = c.Clone()
}

func (r *memoryRepository) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.writes)
}

func (r *memoryRepository) writesSince(n int) []entities.Contact {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entities.Contact(nil), r.writes[n:]...)
}

type recordingPublisher struct {
	mu      sync.Mutex
	surveys []entities.CompletedSurvey
}

func (p *recordingPublisher) Publish(_ context.Context, survey entities.CompletedSurvey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.surveys = append(p.surveys, survey)
}

func (p *recordingPublisher) published() []entities.CompletedSurvey {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entities.CompletedSurvey(nil), p.surveys...)
}

type sentMessage struct {
	To   string
	Text string
}

type fakeProvider struct {
	mu      sync.Mutex
	sent    []sentMessage
	typing  int
	sendErr error
}

func (p *fakeProvider) SendTextMessage(_ context.Context, to, message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return p.sendErr
	}
	p.sent = append(p.sent, sentMessage{To: to, Text: message})
	return nil
}

func (p *fakeProvider) SimulateTyping(_ context.Context, _, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.typing++
	return nil
}

func (p *fakeProvider) messages() []sentMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]sentMessage(nil), p.sent...)
}

func (p *fakeProvider) typingCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.typing
}

func (p *fakeProvider) texts() []string {
	var out []string
	for _, m := range p.messages() {
		out = append(out, m.Text)
	}
	return out
}
