package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// ─── Agent registry ──────────────────────────────────────────────────────────

// agentColumns is the SELECT list shared by every agent read.
const agentColumns = `agent_id, token, capabilities_json, status, current_task,
	working_directory, color, created_at, updated_at`

// agentMutableFields is the allow-list for UpdateAgentField. agent_id
// and token are immutable; timestamps are stamped by the store.
var agentMutableFields = map[string]bool{
	"status":            true,
	"current_task":      true,
	"working_directory": true,
	"color":             true,
	"capabilities":      true,
}

// CreateAgent registers a new agent and returns it along with its
// freshly generated secret token. Fails with ErrDuplicateAgent when the
// id is already taken; the existing agent's token is untouched.
func (s *Store) CreateAgent(id string, capabilities []string, workdir string) (*Agent, string, error) {
	if id == "" {
		return nil, "", fmt.Errorf("store: create agent: empty agent id")
	}

	var existing string
	err := s.db.QueryRow(`SELECT agent_id FROM agents WHERE agent_id = ?`, id).Scan(&existing)
	if err == nil {
		return nil, "", fmt.Errorf("store: create agent %q: %w", id, ErrDuplicateAgent)
	}
	if err != sql.ErrNoRows {
		return nil, "", fmt.Errorf("store: create agent %q: %w", id, err)
	}

	token := uuid.NewString()
	if _, err := s.db.Exec(
		`INSERT INTO agents (agent_id, token, capabilities_json, status, working_directory)
		 VALUES (?, ?, ?, ?, ?)`,
		id, token, encodeList(capabilities), AgentCreated, workdir,
	); err != nil {
		return nil, "", fmt.Errorf("store: create agent %q: %w", id, err)
	}

	agent, err := s.GetAgent(id)
	if err != nil {
		return nil, "", err
	}
	return agent, token, nil
}

// GetAgent retrieves an agent by id.
func (s *Store) GetAgent(id string) (*Agent, error) {
	row := s.db.QueryRow(`SELECT `+agentColumns+` FROM agents WHERE agent_id = ?`, id)
	agent, err := scanAgent(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("store: agent %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get agent %q: %w", id, err)
	}
	return agent, nil
}

// GetAgentByToken authenticates a token, returning the agent it belongs
// to. Every mutating tool call resolves its caller through this lookup.
func (s *Store) GetAgentByToken(token string) (*Agent, error) {
	row := s.db.QueryRow(`SELECT `+agentColumns+` FROM agents WHERE token = ?`, token)
	agent, err := scanAgent(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("store: agent token: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get agent by token: %w", err)
	}
	return agent, nil
}

// ListActiveAgents returns all non-terminated agents, oldest first.
// Terminated rows are retained for audit but excluded here.
func (s *Store) ListActiveAgents() ([]Agent, error) {
	rows, err := s.db.Query(
		`SELECT `+agentColumns+` FROM agents WHERE status != ? ORDER BY created_at`,
		AgentTerminated,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list active agents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var agents []Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list active agents: %w", err)
		}
		agents = append(agents, *agent)
	}
	return agents, rows.Err()
}

// UpdateAgentField sets a single mutable field on an agent and stamps
// updated_at. Fields outside the allow-list are rejected; a missing
// agent surfaces as ErrNotFound.
func (s *Store) UpdateAgentField(id, field, value string) error {
	if !agentMutableFields[field] {
		return fmt.Errorf("store: update agent %q: field %q is not updatable", id, field)
	}

	column := field
	arg := value
	switch field {
	case "capabilities":
		// Value arrives as a JSON list; round-trip it through the list
		// codec so a malformed blob degrades instead of persisting.
		column = "capabilities_json"
		arg = encodeList(decodeList(value, "capabilities"))
	case "current_task":
		if value == "" {
			res, err := s.db.Exec(
				`UPDATE agents SET current_task = NULL, updated_at = ? WHERE agent_id = ?`,
				now(), id,
			)
			return checkAgentUpdate(res, err, id)
		}
	}

	res, err := s.db.Exec(
		`UPDATE agents SET `+column+` = ?, updated_at = ? WHERE agent_id = ?`,
		arg, now(), id,
	)
	return checkAgentUpdate(res, err, id)
}

func checkAgentUpdate(res sql.Result, err error, id string) error {
	if err != nil {
		return fmt.Errorf("store: update agent %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update agent %q: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("store: update agent %q: %w", id, ErrNotFound)
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanAgent(row scanner) (*Agent, error) {
	var a Agent
	var capsJSON string
	if err := row.Scan(
		&a.ID, &a.Token, &capsJSON, &a.Status, &a.CurrentTask,
		&a.WorkingDirectory, &a.Color, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.Capabilities = decodeList(capsJSON, "capabilities")
	return &a, nil
}
