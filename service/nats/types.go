package nats

import (
	"time"

	"github.com/brojonat/ledgerdump/service/report"
)

// RowEvent is a report row published to NATS.
// This is published to the subject "ledger.txns.{ledger_id}" in JetStream.
type RowEvent struct {
	// Ledger the row was read from
	LedgerID string `json:"ledger_id"`

	// Canonical row columns
	report.Row

	// Metadata
	PublishedAt time.Time `json:"published_at"`
}

// FromRow converts a report row to a RowEvent for publishing.
func FromRow(ledgerID string, row report.Row) *RowEvent {
	return &RowEvent{
		LedgerID:    ledgerID,
		Row:         row,
		PublishedAt: time.Now().UTC(),
	}
}

// Subject returns the subject rows of ledgerID are published to.
func Subject(ledgerID string) string {
	return SubjectPrefix + ledgerID
}
