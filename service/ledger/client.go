package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aviate-labs/agent-go/principal"
	"github.com/brojonat/ledgerdump/service/metrics"
)

// GetTransactionsMethod is the ledger's transaction listing query.
const GetTransactionsMethod = "get_transactions"

// LedgerClient is an interface for the ledger queries we need.
// This allows us to mock the transport in tests without hitting a real replica.
type LedgerClient interface {
	// GetTransactions queries the ledger canister itself.
	GetTransactions(
		ctx context.Context,
		ledger principal.Principal,
		req TransactionsRequest,
	) (*TransactionsResponse, error)

	// GetArchivedTransactions queries the archive named by an ArchiveDelegation.
	GetArchivedTransactions(
		ctx context.Context,
		callback ArchiveCallback,
		req TransactionsRequest,
	) (*TransactionsResponse, error)
}

// Entry is one raw transaction together with its absolute position in the ledger.
type Entry struct {
	Index uint64
	Raw   RawTransaction
}

// Client provides read-only access to a ledger's transaction log.
// It wraps a LedgerClient with pagination and archive delegation handling.
// Calls are strictly sequential; nothing is retained between calls.
type Client struct {
	lc      LedgerClient
	ledger  principal.Principal
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewClient creates a new ledger client.
// If metrics is nil, no metrics will be recorded.
func NewClient(lc LedgerClient, ledger principal.Principal, m *metrics.Metrics, logger *slog.Logger) *Client {
	return &Client{
		lc:      lc,
		ledger:  ledger,
		logger:  logger,
		metrics: m,
	}
}

// Length returns the total number of transactions the ledger reports.
func (c *Client) Length(ctx context.Context) (uint64, error) {
	req := TransactionsRequest{Start: 0, Length: 1}
	resp, err := c.query(ctx, c.ledger, GetTransactionsMethod, "ledger", func() (*TransactionsResponse, error) {
		return c.lc.GetTransactions(ctx, c.ledger, req)
	})
	if err != nil {
		return 0, err
	}
	return resp.LogLength, nil
}

// FetchRange walks the transactions in [start, start+length) and calls fn for
// each one in ledger order.
//
// Archived ranges are fetched first, in the order the ledger lists them, then
// the ledger's own slice. Indexes start at start and advance by one per record
// regardless of which reply carried it. If the ledger returns fewer records
// than requested, fewer entries are produced.
//
// Any query failure aborts the walk. A non-nil error from fn also stops the
// walk and is returned unchanged.
func (c *Client) FetchRange(ctx context.Context, start, length uint64, fn func(Entry) error) error {
	req := TransactionsRequest{Start: start, Length: length}
	resp, err := c.query(ctx, c.ledger, GetTransactionsMethod, "ledger", func() (*TransactionsResponse, error) {
		return c.lc.GetTransactions(ctx, c.ledger, req)
	})
	if err != nil {
		return err
	}

	c.logger.DebugContext(ctx, "fetched ledger page",
		"ledger", c.ledger.String(),
		"start", start,
		"length", length,
		"log_length", resp.LogLength,
		"transactions", len(resp.Transactions),
		"archived_ranges", len(resp.ArchivedTransactions),
	)

	idx := start
	for _, archived := range resp.ArchivedTransactions {
		canister := archived.Callback.Canister.String()
		c.metrics.RecordDelegation(canister)

		sub, err := c.query(ctx, archived.Callback.Canister, archived.Callback.Method, "archive", func() (*TransactionsResponse, error) {
			return c.lc.GetArchivedTransactions(ctx, archived.Callback, TransactionsRequest{
				Start:  archived.Start,
				Length: archived.Length,
			})
		})
		if err != nil {
			return err
		}
		if len(sub.ArchivedTransactions) > 0 {
			return &QueryError{
				Canister: canister,
				Method:   archived.Callback.Method,
				Err:      fmt.Errorf("%w: %d ranges", ErrNestedDelegation, len(sub.ArchivedTransactions)),
			}
		}

		c.logger.DebugContext(ctx, "fetched archived range",
			"archive", canister,
			"method", archived.Callback.Method,
			"start", archived.Start,
			"length", archived.Length,
			"transactions", len(sub.Transactions),
		)

		for _, raw := range sub.Transactions {
			if err := fn(Entry{Index: idx, Raw: raw}); err != nil {
				return err
			}
			idx++
		}
	}

	for _, raw := range resp.Transactions {
		if err := fn(Entry{Index: idx, Raw: raw}); err != nil {
			return err
		}
		idx++
	}

	return nil
}

// query runs a single remote call, recording metrics and wrapping failures
// with the endpoint that was attempted.
func (c *Client) query(
	ctx context.Context,
	canister principal.Principal,
	method string,
	source string,
	call func() (*TransactionsResponse, error),
) (*TransactionsResponse, error) {
	target := canister.String()

	start := time.Now()
	resp, err := call()
	if err == nil && resp == nil {
		err = errors.New("empty response")
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.Timer(start, func(d float64) {
		c.metrics.RecordQuery(method, status, target, d)
	})()

	if err != nil {
		c.logger.ErrorContext(ctx, "ledger query failed",
			"canister", target,
			"method", method,
			"error", err,
		)
		return nil, &QueryError{Canister: target, Method: method, Err: err}
	}

	c.metrics.RecordReplySize(source, len(resp.Transactions))
	return resp, nil
}
