// Package db persists escalation rules and the call turn log in MySQL.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kaphack/voicecall-assistant/internal/core"
)

type Config struct {
	User     string
	Password string
	Host     string
	Port     int
	Name     string
}

// DSN renders the go-sql-driver connection string.
func (c Config) DSN() string {
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	mc.DBName = c.Name
	mc.ParseTime = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

type Repository struct {
	db *sql.DB
}

func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) initSchema(ctx context.Context) error {
	log.Info().Str("component", "db").Msg("initializing schema")
	queryRules := `
	CREATE TABLE IF NOT EXISTS rules (
		id VARCHAR(36) PRIMARY KEY,
		name TEXT NOT NULL,
		conditions JSON NOT NULL,
		action TEXT NOT NULL
	);
	`
	if _, err := r.db.ExecContext(ctx, queryRules); err != nil {
		return fmt.Errorf("failed to create rules table: %w", err)
	}

	queryTurns := `
	CREATE TABLE IF NOT EXISTS call_turns (
		id VARCHAR(36) PRIMARY KEY,
		call_id VARCHAR(255) NOT NULL,
		user_text TEXT,
		ai_text TEXT,
		language VARCHAR(16),
		intent VARCHAR(32),
		stage VARCHAR(32),
		should_escalate BOOLEAN NOT NULL DEFAULT FALSE,
		abusive BOOLEAN NOT NULL DEFAULT FALSE,
		goodbye BOOLEAN NOT NULL DEFAULT FALSE,
		timestamp BIGINT,
		INDEX idx_call_turns_call (call_id, timestamp)
	);
	`
	if _, err := r.db.ExecContext(ctx, queryTurns); err != nil {
		return fmt.Errorf("failed to create call_turns table: %w", err)
	}
	return nil
}

// RecordTurn stores a completed turn, assigning an id when it has none.
func (r *Repository) RecordTurn(ctx context.Context, turn core.Turn) error {
	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	query := `INSERT INTO call_turns
		(id, call_id, user_text, ai_text, language, intent, stage, should_escalate, abusive, goodbye, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		turn.ID, turn.CallID, turn.UserText, turn.AIText, string(turn.Language), string(turn.Intent),
		turn.Stage, turn.ShouldEscalate, turn.Abusive, turn.Goodbye, turn.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to save turn: %w", err)
	}
	return nil
}

// CallTurns returns a call's turns oldest first.
func (r *Repository) CallTurns(ctx context.Context, callID string) ([]core.Turn, error) {
	query := `SELECT id, call_id, user_text, ai_text, language, intent, stage, should_escalate, abusive, goodbye, timestamp
		FROM call_turns WHERE call_id = ? ORDER BY timestamp, id`
	rows, err := r.db.QueryContext(ctx, query, callID)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	turns := []core.Turn{}
	for rows.Next() {
		var t core.Turn
		var lang, in string
		if err := rows.Scan(&t.ID, &t.CallID, &t.UserText, &t.AIText, &lang, &in,
			&t.Stage, &t.ShouldEscalate, &t.Abusive, &t.Goodbye, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		t.Language = core.Language(lang)
		t.Intent = core.Intent(in)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read turns: %w", err)
	}
	return turns, nil
}

func (r *Repository) CreateRule(ctx context.Context, name string, conditions []core.Condition, action string) (*core.Rule, error) {
	id := uuid.New().String()
	condBytes, err := json.Marshal(conditions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal conditions: %w", err)
	}

	query := `INSERT INTO rules (id, name, conditions, action) VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, id, name, condBytes, action); err != nil {
		return nil, fmt.Errorf("failed to insert rule: %w", err)
	}

	return &core.Rule{
		ID:         id,
		Name:       name,
		Conditions: json.RawMessage(condBytes),
		Action:     action,
	}, nil
}

// GetAllRules loads every rule. Rows with unreadable conditions are
// skipped and logged.
func (r *Repository) GetAllRules(ctx context.Context) ([]core.ParsedRule, error) {
	query := `SELECT id, name, conditions, action FROM rules`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var rules []core.ParsedRule
	for rows.Next() {
		var rule core.Rule
		var condBytes []byte
		if err := rows.Scan(&rule.ID, &rule.Name, &condBytes, &rule.Action); err != nil {
			log.Warn().Err(err).Str("component", "db").Msg("failed to scan rule")
			continue
		}
		parsed, err := ParseRule(rule, condBytes)
		if err != nil {
			log.Warn().Err(err).Str("component", "db").Str("rule_id", rule.ID).Msg("skipping rule")
			continue
		}
		rules = append(rules, parsed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}
	return rules, nil
}

// ParseRule decodes and validates stored rule conditions.
func ParseRule(rule core.Rule, conditions []byte) (core.ParsedRule, error) {
	rule.Conditions = json.RawMessage(conditions)
	var parsed []core.Condition
	if err := json.Unmarshal(conditions, &parsed); err != nil {
		return core.ParsedRule{}, fmt.Errorf("failed to unmarshal conditions for rule %s: %w", rule.ID, err)
	}
	for _, c := range parsed {
		if err := c.Validate(); err != nil {
			return core.ParsedRule{}, fmt.Errorf("rule %s: %w", rule.ID, err)
		}
	}
	return core.ParsedRule{Rule: rule, ParsedConditions: parsed}, nil
}
