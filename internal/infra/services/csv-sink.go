package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"survey-bot/internal/domain/entities"
	"survey-bot/internal/util"
)

// CSVSink appends one row per completed survey: name, phone, one column per
// question key, completion date.
type CSVSink struct {
	Path string
	Keys []string

	mu sync.Mutex
}

func NewCSVSink(path string, keys []string) *CSVSink {
	return &CSVSink{Path: path, Keys: keys}
}

func (s *CSVSink) Name() string {
	return "csv"
}

func (s *CSVSink) Record(_ context.Context, survey entities.CompletedSurvey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	file, err := os.OpenFile(s.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.Path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(s.row(survey)); err != nil {
		return fmt.Errorf("failed to write csv row: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv row: %w", err)
	}
	return file.Sync()
}

func (s *CSVSink) row(survey entities.CompletedSurvey) []string {
	name := survey.Name
	if name == "" {
		name = "Sem nome"
	}
	phone := "Sem telefone"
	if survey.ContactID != "" {
		phone = util.FormatPhoneCSV(survey.ContactID)
	}

	row := make([]string, 0, len(s.Keys)+3)
	row = append(row, name, phone)
	for _, key := range s.Keys {
		row = append(row, survey.AnswerFor(key))
	}
	return append(row, util.FormatDateBR(survey.CompletedAt))
}
