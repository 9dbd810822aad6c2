package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vxl-labs/glasscore/internal/config"
	"github.com/vxl-labs/glasscore/internal/models"
)

// PostgresStore is the relational store named by spec §6. Embeddings are
// kept as raw little-endian float32 bytes — similarity is never computed
// here, only in the Recognition Worker's in-memory gallery cache.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema creates the tables named by spec §6 if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS faces (
			person_id TEXT PRIMARY KEY,
			embedding BYTEA NOT NULL,
			count INT NOT NULL DEFAULT 1,
			recap TEXT,
			socials JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS summaries (
			id UUID PRIMARY KEY,
			person_id TEXT NOT NULL REFERENCES faces(person_id) ON DELETE CASCADE ON UPDATE CASCADE,
			text TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS person_memories (
			id UUID PRIMARY KEY,
			person_id TEXT NOT NULL REFERENCES faces(person_id) ON DELETE CASCADE ON UPDATE CASCADE,
			text TEXT NOT NULL,
			context TEXT,
			conversation_id TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS todos (
			id UUID PRIMARY KEY,
			description TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			person_id TEXT REFERENCES faces(person_id) ON DELETE SET NULL ON UPDATE CASCADE,
			conversation_id TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			completed_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS summaries_person_id_idx ON summaries(person_id)`,
		`CREATE INDEX IF NOT EXISTS todos_conversation_id_idx ON todos(conversation_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// --- Gallery (faces) ---

// ListGallery loads every gallery entry, used to populate the in-memory
// cache the Recognition Worker matches against (spec §4.2 step 4).
func (s *PostgresStore) ListGallery(ctx context.Context) ([]models.GalleryEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT person_id, embedding, count, COALESCE(recap, ''), created_at, updated_at FROM faces`)
	if err != nil {
		return nil, fmt.Errorf("list gallery: %w", err)
	}
	defer rows.Close()

	var out []models.GalleryEntry
	for rows.Next() {
		var g models.GalleryEntry
		var raw []byte
		if err := rows.Scan(&g.PersonID, &raw, &g.Count, &g.Recap, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan gallery entry: %w", err)
		}
		g.Embedding = models.FaceEmbeddingFromBytes(raw)
		out = append(out, g)
	}
	return out, rows.Err()
}

// InsertPerson persists a brand-new PersonId at count=1 (spec §4.2 step 5).
func (s *PostgresStore) InsertPerson(ctx context.Context, personID string, embedding []float32) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO faces (person_id, embedding, count) VALUES ($1, $2, 1)
		 ON CONFLICT (person_id) DO NOTHING`,
		personID, models.FaceEmbeddingBytes(embedding))
	if err != nil {
		return fmt.Errorf("insert person: %w", err)
	}
	return nil
}

// UpdateCentroid persists the folded running-average embedding and count —
// the single final-fold write spec §4.2 step 6 / §8 property 3 allows.
func (s *PostgresStore) UpdateCentroid(ctx context.Context, personID string, embedding []float32, count int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE faces SET embedding = $1, count = $2, updated_at = now() WHERE person_id = $3`,
		models.FaceEmbeddingBytes(embedding), count, personID)
	if err != nil {
		return fmt.Errorf("update centroid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("person %s not found", personID)
	}
	return nil
}

func (s *PostgresStore) GetPerson(ctx context.Context, personID string) (*models.GalleryEntry, error) {
	var g models.GalleryEntry
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT person_id, embedding, count, COALESCE(recap, ''), created_at, updated_at FROM faces WHERE person_id = $1`,
		personID,
	).Scan(&g.PersonID, &raw, &g.Count, &g.Recap, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get person: %w", err)
	}
	g.Embedding = models.FaceEmbeddingFromBytes(raw)
	return &g, nil
}

// UpdateRecap writes the person's Recap field (spec §4.4 step 1d).
func (s *PostgresStore) UpdateRecap(ctx context.Context, personID, recap string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE faces SET recap = $1, updated_at = now() WHERE person_id = $2`, recap, personID)
	if err != nil {
		return fmt.Errorf("update recap: %w", err)
	}
	return nil
}

// RenamePerson changes a PersonId's primary key in place, cascading to every
// referencing table. Called by the glasses WebSocket's change_name op (spec
// §6), the agent's update_name tool, and the admin API's person PATCH.
func (s *PostgresStore) RenamePerson(ctx context.Context, oldID, newID string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE faces SET person_id = $1, updated_at = now() WHERE person_id = $2`, newID, oldID)
	if err != nil {
		return fmt.Errorf("rename person: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("person %s not found", oldID)
	}
	return nil
}

// FindByName resolves a PersonId by its current value, used for the
// change_name fallback ("the person whose stored name equals person_name").
func (s *PostgresStore) FindByName(ctx context.Context, name string) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx, `SELECT person_id FROM faces WHERE person_id = $1`, name).Scan(&id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("find by name: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) UpdateSocials(ctx context.Context, personID string, socials []byte) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE faces SET socials = $1, updated_at = now() WHERE person_id = $2`, socials, personID)
	if err != nil {
		return fmt.Errorf("update socials: %w", err)
	}
	return nil
}

// --- Summaries ---

func (s *PostgresStore) AddSummary(ctx context.Context, id, personID, text string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO summaries (id, person_id, text) VALUES ($1, $2, $3)`, id, personID, text)
	if err != nil {
		return fmt.Errorf("add summary: %w", err)
	}
	return nil
}

// ListSummaries returns a person's summaries most-recent-first, the order
// spec §4.4 step 4 feeds into the recap synthesis prompt.
func (s *PostgresStore) ListSummaries(ctx context.Context, personID string) ([]models.Summary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, person_id, text, created_at FROM summaries WHERE person_id = $1 ORDER BY created_at DESC`,
		personID)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var out []models.Summary
	for rows.Next() {
		var sm models.Summary
		if err := rows.Scan(&sm.ID, &sm.PersonID, &sm.Text, &sm.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

// --- Person memories ---

func (s *PostgresStore) AddPersonMemory(ctx context.Context, m models.PersonMemory) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO person_memories (id, person_id, text, context, conversation_id) VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.PersonID, m.Text, m.Context, m.ConversationID)
	if err != nil {
		return fmt.Errorf("add person memory: %w", err)
	}
	return nil
}

// ListPersonMemories returns a person's standing notes most-recent-first,
// the form the agent's memory tool recalls before answering a question
// about them.
func (s *PostgresStore) ListPersonMemories(ctx context.Context, personID string) ([]models.PersonMemory, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, person_id, text, context, conversation_id, created_at FROM person_memories WHERE person_id = $1 ORDER BY created_at DESC`,
		personID)
	if err != nil {
		return nil, fmt.Errorf("list person memories: %w", err)
	}
	defer rows.Close()

	var out []models.PersonMemory
	for rows.Next() {
		var m models.PersonMemory
		if err := rows.Scan(&m.ID, &m.PersonID, &m.Text, &m.Context, &m.ConversationID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan person memory: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// --- Todos ---

func (s *PostgresStore) AddTodo(ctx context.Context, t models.Todo) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO todos (id, description, status, person_id, conversation_id) VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.Description, t.Status, nullableText(t.PersonID), t.ConversationID)
	if err != nil {
		return fmt.Errorf("add todo: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListTodos(ctx context.Context, conversationID string) ([]models.Todo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, description, status, COALESCE(person_id, ''), COALESCE(conversation_id, ''), created_at, completed_at
		 FROM todos WHERE conversation_id = $1 ORDER BY created_at DESC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	var out []models.Todo
	for rows.Next() {
		var t models.Todo
		if err := rows.Scan(&t.ID, &t.Description, &t.Status, &t.PersonID, &t.ConversationID, &t.CreatedAt, &t.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CompleteTodo(ctx context.Context, id string) error {
	now := time.Now()
	tag, err := s.pool.Exec(ctx,
		`UPDATE todos SET status = $1, completed_at = $2 WHERE id = $3`, models.TodoStatusCompleted, now, id)
	if err != nil {
		return fmt.Errorf("complete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("todo %s not found", id)
	}
	return nil
}

func (s *PostgresStore) DeleteTodo(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return nil
}

func nullableText(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
