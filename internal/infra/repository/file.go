package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"survey-bot/internal/domain/entities"
	domainrepo "survey-bot/internal/domain/interfaces/repository"
)

type fileSnapshot struct {
	Contacts []entities.Contact `json:"contacts"`
}

// FileRepository keeps every contact in memory and rewrites the whole JSON
// document after each mutation. The document is read once when the repository
// is opened.
type FileRepository struct {
	mu       sync.RWMutex
	path     string
	order    []string
	contacts map[string]entities.Contact
}

var _ domainrepo.ContactRepository = (*FileRepository)(nil)

func NewFileRepository(path string) (*FileRepository, error) {
	r := &FileRepository{
		path:     path,
		contacts: make(map[string]entities.Contact),
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRepository) Find(_ context.Context, id string) (entities.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	contact, ok := r.contacts[id]
	if !ok {
		return entities.Contact{}, entities.ErrContactNotFound
	}
	return contact.Clone(), nil
}

// Save persists the record. On a failed write the in-memory state is rolled
// back so memory and disk never disagree.
func (r *FileRepository) Save(_ context.Context, contact entities.Contact) error {
	if contact.ID == "" {
		return fmt.Errorf("contact id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	previous, existed := r.contacts[contact.ID]
	r.contacts[contact.ID] = contact.Clone()
	if !existed {
		r.order = append(r.order, contact.ID)
	}

	if err := r.persistLocked(); err != nil {
		if existed {
			r.contacts[contact.ID] = previous
		} else {
			delete(r.contacts, contact.ID)
			r.order = r.order[:len(r.order)-1]
		}
		return err
	}
	return nil
}

func (r *FileRepository) FindAll(_ context.Context) ([]entities.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entities.Contact, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.contacts[id].Clone())
	}
	return out, nil
}

func (r *FileRepository) ResetAll(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := make(map[string]entities.Contact, len(r.contacts))
	reset := 0
	for id, contact := range r.contacts {
		previous[id] = contact
		if contact.State == entities.StateInactive && contact.Step == nil && len(contact.Answers) == 0 {
			continue
		}
		contact = contact.Clone()
		contact.Reset()
		r.contacts[id] = contact
		reset++
	}
	if reset == 0 {
		return 0, nil
	}

	if err := r.persistLocked(); err != nil {
		r.contacts = previous
		return 0, err
	}
	return reset, nil
}

func (r *FileRepository) load() error {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return r.persistLocked()
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", r.path, err)
	}
	if len(data) == 0 {
		return nil
	}

	var snapshot fileSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("failed to decode %s: %w", r.path, err)
	}
	for _, contact := range snapshot.Contacts {
		if contact.ID == "" {
			continue
		}
		if contact.Answers == nil {
			contact.Answers = []entities.Answer{}
		}
		if contact.State == "" {
			contact.State = entities.StateInactive
		}
		if _, dup := r.contacts[contact.ID]; !dup {
			r.order = append(r.order, contact.ID)
		}
		r.contacts[contact.ID] = contact
	}
	return nil
}

// persistLocked writes the snapshot to a temp file and renames it over the
// document, so a crash leaves either the old or the new version on disk.
func (r *FileRepository) persistLocked() error {
	snapshot := fileSnapshot{Contacts: make([]entities.Contact, 0, len(r.order))}
	for _, id := range r.order {
		snapshot.Contacts = append(snapshot.Contacts, r.contacts[id])
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode contacts: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write contacts: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync contacts: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", r.path, err)
	}
	return nil
}
