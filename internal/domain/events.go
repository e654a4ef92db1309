package domain

import "time"

// Event types
const (
	EventTypeAccountCreated  = "account.created"
	EventTypeJournalDrafted  = "journal.drafted"
	EventTypeJournalPosted   = "journal.posted"
	EventTypeJournalReversed = "journal.reversed"
	EventTypeFloatSynced     = "float.synced"
)

// Aggregate types
const (
	AggregateTypeAccount      = "gl_account"
	AggregateTypeJournalEntry = "journal_entry"
	AggregateTypeFloatAccount = "float_account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// JournalPostedPayload builds the payload of a journal.posted event.
func JournalPostedPayload(e *JournalEntry) map[string]any {
	debits, credits := e.Totals()
	lines := make([]map[string]any, 0, len(e.Lines))
	for _, l := range e.Lines {
		lines = append(lines, map[string]any{
			"account_id":   l.AccountID,
			"account_code": l.AccountCode,
			"debit":        l.Debit.StringFixed(MinorUnitPlaces),
			"credit":       l.Credit.StringFixed(MinorUnitPlaces),
		})
	}

	payload := map[string]any{
		"entry_id":         e.ID,
		"transaction_id":   e.TransactionID,
		"transaction_type": string(e.TransactionType),
		"date":             e.Date.Format(time.RFC3339),
		"total_debits":     debits.StringFixed(MinorUnitPlaces),
		"total_credits":    credits.StringFixed(MinorUnitPlaces),
		"lines":            lines,
	}
	if e.PostedBy != nil {
		payload["posted_by"] = *e.PostedBy
	}
	if e.ReversesEntryID != nil {
		payload["reverses_entry_id"] = *e.ReversesEntryID
	}
	return payload
}
