package services

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "modernc.org/sqlite"

	"survey-bot/internal/domain/entities"
	"survey-bot/internal/util"
)

const sqliteTable = "respostas_bot"

var columnName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// SQLiteSink stores completed surveys in a local respostas_bot table with one
// column per question key.
type SQLiteSink struct {
	db     *sql.DB
	keys   []string
	insert string
}

func NewSQLiteSink(ctx context.Context, path string, keys []string) (*SQLiteSink, error) {
	for _, key := range keys {
		if !columnName.MatchString(key) {
			return nil, fmt.Errorf("question key %q cannot be used as a column name", key)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteSink{db: db, keys: keys}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	columns := append([]string{"id", "contact_id", "nome", "telefone"}, keys...)
	columns = append(columns, "datahora")
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	s.insert = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", sqliteTable, strings.Join(columns, ", "), placeholders)
	return s, nil
}

func (s *SQLiteSink) initSchema(ctx context.Context) error {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", sqliteTable)
	b.WriteString("\tid TEXT PRIMARY KEY,\n\tcontact_id TEXT NOT NULL,\n\tnome TEXT NOT NULL,\n\ttelefone TEXT NOT NULL,\n")
	for _, key := range s.keys {
		fmt.Fprintf(&b, "\t%s TEXT NOT NULL DEFAULT '',\n", key)
	}
	b.WriteString("\tdatahora TEXT NOT NULL,\n\tcreated_at DATETIME DEFAULT CURRENT_TIMESTAMP\n)")

	statements := []string{
		"PRAGMA journal_mode = WAL",
		b.String(),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_contact ON %s(contact_id)", sqliteTable, sqliteTable),
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteSink) Name() string {
	return "sqlite"
}

func (s *SQLiteSink) Record(ctx context.Context, survey entities.CompletedSurvey) error {
	args := []any{survey.ID, survey.ContactID, util.CapitalizeName(survey.Name), util.FormatPhoneDisplay(survey.ContactID)}
	for _, key := range s.keys {
		args = append(args, util.UpperAnswers(survey.AnswerFor(key)))
	}
	args = append(args, util.FormatDateTimeBR(survey.CompletedAt))

	if _, err := s.db.ExecContext(ctx, s.insert, args...); err != nil {
		return fmt.Errorf("failed to insert survey %s: %w", survey.ID, err)
	}
	return nil
}

// Count returns the number of stored surveys.
func (s *SQLiteSink) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", sqliteTable)).Scan(&n)
	return n, err
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
