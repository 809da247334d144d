// Package ledger provides an append-only history of commands sent to the controller.
package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Outcome is the result of a recorded command
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// Entry represents a single command in the ledger
type Entry struct {
	ID        int64
	RequestID string
	Outcome   Outcome
	Timestamp time.Time
	Host      string
	Command   string
	Target    string
	Payload   map[string]any
	Error     string
}

// Ledger provides append-only command logging
type Ledger struct {
	db *sql.DB
}

// New creates a new Ledger using the provided database connection
func New(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Record appends the outcome of a command. cmdErr nil means completed.
// Returns the request ID assigned to the entry.
func (l *Ledger) Record(host, command, target string, payload map[string]any, cmdErr error) (string, error) {
	entry := Entry{
		RequestID: uuid.NewString(),
		Outcome:   OutcomeCompleted,
		Host:      host,
		Command:   command,
		Target:    target,
		Payload:   payload,
	}
	if cmdErr != nil {
		entry.Outcome = OutcomeFailed
		entry.Error = cmdErr.Error()
	}

	if err := l.Append(&entry); err != nil {
		return "", err
	}
	return entry.RequestID, nil
}

// Append adds a new entry to the ledger
func (l *Ledger) Append(entry *Entry) error {
	var payloadJSON []byte
	var err error

	if entry.Payload != nil {
		payloadJSON, err = json.Marshal(entry.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
	}
	if entry.RequestID == "" {
		entry.RequestID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	result, err := l.db.Exec(`
		INSERT INTO command_ledger (request_id, outcome, timestamp, host, command, target, payload, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.RequestID, string(entry.Outcome), entry.Timestamp.Unix(), entry.Host, entry.Command,
		entry.Target, string(payloadJSON), entry.Error)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	entry.ID, _ = result.LastInsertId()
	return nil
}

// Recent returns the latest entries, newest first
func (l *Ledger) Recent(limit int) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, request_id, outcome, timestamp, host, command, target, payload, error
		FROM command_ledger
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return l.scanEntries(rows)
}

// ForTarget returns the latest entries for one device, group or scene
func (l *Ledger) ForTarget(target string, limit int) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, request_id, outcome, timestamp, host, command, target, payload, error
		FROM command_ledger
		WHERE target = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, target, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return l.scanEntries(rows)
}

// DeleteOlderThan removes entries older than the specified duration (retention policy)
func (l *Ledger) DeleteOlderThan(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).Unix()
	result, err := l.db.Exec(`
		DELETE FROM command_ledger WHERE timestamp < ?
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (l *Ledger) scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		var entry Entry
		var outcome string
		var payloadStr, target, errStr sql.NullString
		var timestamp int64

		err := rows.Scan(
			&entry.ID, &entry.RequestID, &outcome, &timestamp, &entry.Host, &entry.Command,
			&target, &payloadStr, &errStr,
		)
		if err != nil {
			return nil, err
		}

		entry.Outcome = Outcome(outcome)
		entry.Timestamp = time.Unix(timestamp, 0).UTC()
		entry.Target = target.String
		entry.Error = errStr.String

		if payloadStr.Valid && payloadStr.String != "" {
			entry.Payload = make(map[string]any)
			if err := json.Unmarshal([]byte(payloadStr.String), &entry.Payload); err != nil {
				return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
			}
		}

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
