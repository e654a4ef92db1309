package domain

import (
	"encoding/json"
	"time"
)

// AuditLog is one row of the ledger's compliance trail. Every state change
// of an account, journal entry or float account writes one inside the same
// database transaction as the change itself.
type AuditLog struct {
	ID           string
	UserID       string
	Action       string
	ResourceType string // one of the AggregateType values
	ResourceID   string
	RequestID    string
	BeforeState  JSON
	AfterState   JSON
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
}

// JSON holds a snapshot of a resource as stored in the audit trail.
type JSON map[string]any

type AuditAction string

const (
	AuditActionAccountCreate AuditAction = "account.create"
	AuditActionAccountEnsure AuditAction = "account.ensure"

	AuditActionJournalDraft   AuditAction = "journal.draft"
	AuditActionJournalPost    AuditAction = "journal.post"
	AuditActionJournalReverse AuditAction = "journal.reverse"
	AuditActionJournalDiscard AuditAction = "journal.discard"

	AuditActionFloatUpdate AuditAction = "float.update"
	AuditActionFloatSync   AuditAction = "float.sync"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// MarshalState snapshots v through its JSON form. A value that cannot be
// encoded is recorded as an error marker rather than dropped.
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": err.Error()}
	}

	var state JSON
	if err := json.Unmarshal(raw, &state); err != nil {
		// scalars and slices do not decode into a map
		return JSON{"value": json.RawMessage(raw)}
	}
	return state
}

// AuditFilter narrows an audit trail query. Empty fields match everything.
type AuditFilter struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	Limit        int
	Offset       int
}
