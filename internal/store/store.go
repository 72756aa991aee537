// Package store implements the shared persistent state for Corral.
//
// It uses SQLite as the single source of truth for agent identity, the
// task graph, advisory file claims, project context, and the knowledge
// index (chunks + embeddings) that backs retrieval.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ─── Types ───────────────────────────────────────────────────────────────────

// Agent statuses.
const (
	AgentCreated    = "created"
	AgentActive     = "active"
	AgentIdle       = "idle"
	AgentTerminated = "terminated"
)

// Task statuses.
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
	TaskCancelled  = "cancelled"
	TaskFailed     = "failed"
)

// Claim modes.
const (
	ClaimEditing   = "editing"
	ClaimReading   = "reading"
	ClaimReviewing = "reviewing"
	ClaimReleased  = "released"
)

// Agent is a registered worker process. The token authenticates every
// tool call the agent makes; agent_id is immutable after creation.
type Agent struct {
	ID               string   `json:"agent_id"`
	Token            string   `json:"-"`
	Capabilities     []string `json:"capabilities"`
	Status           string   `json:"status"`
	CurrentTask      *string  `json:"current_task,omitempty"`
	WorkingDirectory string   `json:"working_directory"`
	Color            string   `json:"color,omitempty"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`
}

// Task is a node in the task graph. ChildTasks mirrors each child's
// ParentTask; DependsOn lists task ids that must complete first.
type Task struct {
	ID          string   `json:"task_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	AssignedTo  *string  `json:"assigned_to,omitempty"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	ParentTask  *string  `json:"parent_task,omitempty"`
	ChildTasks  []string `json:"child_tasks"`
	DependsOn   []string `json:"depends_on_tasks"`
	Notes       []string `json:"notes"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// Claim records which agent holds a file and in what mode.
type Claim struct {
	Filepath  string `json:"filepath"`
	HolderID  string `json:"holder_agent_id"`
	Mode      string `json:"mode"`
	UpdatedAt string `json:"updated_at"`
}

// ContextEntry is a row of the small key/value project knowledge store.
type ContextEntry struct {
	Key         string `json:"context_key"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
	LastUpdated string `json:"last_updated"`
}

// Chunk is an indexed unit of knowledge text.
type Chunk struct {
	ID         int64  `json:"chunk_id"`
	Text       string `json:"chunk_text"`
	SourceType string `json:"source_type"`
	SourceRef  string `json:"source_ref"`
}

// ScoredChunk is a chunk with its vector distance to a query embedding.
type ScoredChunk struct {
	Chunk
	Distance float64 `json:"distance"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds store configuration.
type Config struct {
	DataDir string
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{DataDir: filepath.Join(home, ".corral")}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the shared persistent state engine backed by SQLite.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New creates a Store with the given configuration. It creates the data
// directory if needed, opens SQLite with WAL mode, and runs migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "corral.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	// SQLite pragmas: WAL for concurrent readers, busy_timeout so
	// competing agent writes queue instead of erroring.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("store: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS agents (
			agent_id          TEXT PRIMARY KEY,
			token             TEXT NOT NULL UNIQUE,
			capabilities_json TEXT NOT NULL DEFAULT '[]',
			status            TEXT NOT NULL DEFAULT 'created',
			current_task      TEXT,
			working_directory TEXT NOT NULL DEFAULT '',
			color             TEXT NOT NULL DEFAULT '',
			created_at        TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at        TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_agents_status ON agents(status);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_agents_token ON agents(token);

		CREATE TABLE IF NOT EXISTS tasks (
			task_id               TEXT PRIMARY KEY,
			title                 TEXT NOT NULL,
			description           TEXT NOT NULL DEFAULT '',
			assigned_to           TEXT,
			status                TEXT NOT NULL DEFAULT 'pending',
			priority              TEXT NOT NULL DEFAULT 'medium',
			parent_task           TEXT,
			child_tasks_json      TEXT NOT NULL DEFAULT '[]',
			depends_on_tasks_json TEXT NOT NULL DEFAULT '[]',
			notes_json            TEXT NOT NULL DEFAULT '[]',
			created_at            TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at            TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_tasks_assigned ON tasks(assigned_to);
		CREATE INDEX IF NOT EXISTS idx_tasks_status   ON tasks(status);
		CREATE INDEX IF NOT EXISTS idx_tasks_created  ON tasks(created_at DESC);

		CREATE TABLE IF NOT EXISTS file_claims (
			filepath        TEXT PRIMARY KEY,
			holder_agent_id TEXT NOT NULL,
			mode            TEXT NOT NULL,
			updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_claims_holder ON file_claims(holder_agent_id);

		CREATE TABLE IF NOT EXISTS project_context (
			context_key  TEXT PRIMARY KEY,
			value        TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			last_updated TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS rag_chunks (
			chunk_id    INTEGER PRIMARY KEY AUTOINCREMENT,
			chunk_text  TEXT NOT NULL,
			source_type TEXT NOT NULL DEFAULT '',
			source_ref  TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS rag_embeddings (
			chunk_id  INTEGER PRIMARY KEY,
			embedding BLOB NOT NULL,
			FOREIGN KEY (chunk_id) REFERENCES rag_chunks(chunk_id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS rag_meta (
			meta_key   TEXT PRIMARY KEY,
			meta_value TEXT NOT NULL
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	return nil
}

// now returns the current UTC time in SQLite's datetime('now') format.
func now() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05")
}
