package ledger

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/aviate-labs/agent-go/principal"
	"github.com/stretchr/testify/require"
)

const (
	testLedgerID  = "zfcdd-tqaaa-aaaaq-aaaga-cai"
	testArchiveID = "qjdve-lqaaa-aaaaa-aaaeq-cai"
	testOwnerID   = "ryjl3-tyaaa-aaaaa-aaaba-cai"
)

func mustPrincipal(t *testing.T, text string) principal.Principal {
	t.Helper()
	p, err := principal.Decode(text)
	require.NoError(t, err)
	return p
}

// archiveCall records one GetArchivedTransactions invocation.
type archiveCall struct {
	Canister string
	Method   string
	Req      TransactionsRequest
}

// mockLedgerClient implements LedgerClient for testing.
// It's behavior-focused: we set what it should return and record the calls made.
type mockLedgerClient struct {
	response  *TransactionsResponse
	archives   map[uint64]*TransactionsResponse // keyed by Start of the delegated range
	err        error
	archiveErr error

	ledgerRequests []TransactionsRequest
	archiveCalls   []archiveCall
}

func (m *mockLedgerClient) GetTransactions(
	ctx context.Context,
	ledger principal.Principal,
	req TransactionsRequest,
) (*TransactionsResponse, error) {
	m.ledgerRequests = append(m.ledgerRequests, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *mockLedgerClient) GetArchivedTransactions(
	ctx context.Context,
	callback ArchiveCallback,
	req TransactionsRequest,
) (*TransactionsResponse, error) {
	m.archiveCalls = append(m.archiveCalls, archiveCall{
		Canister: callback.Canister.String(),
		Method:   callback.Method,
		Req:      req,
	})
	if m.archiveErr != nil {
		return nil, m.archiveErr
	}
	resp, ok := m.archives[req.Start]
	if !ok {
		return &TransactionsResponse{}, nil
	}
	return resp, nil
}

func newTestClient(t *testing.T, mock *mockLedgerClient) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(mock, mustPrincipal(t, testLedgerID), nil, logger)
}

func rawMint(t *testing.T, ts uint64, amount int64) RawTransaction {
	return RawTransaction{
		Kind:      string(KindMint),
		Timestamp: ts,
		Mint: &RawMint{
			To:     Account{Owner: mustPrincipal(t, testOwnerID)},
			Amount: big.NewInt(amount),
		},
	}
}

func rawTransfer(t *testing.T, ts uint64, amount int64) RawTransaction {
	return RawTransaction{
		Kind:      string(KindTransfer),
		Timestamp: ts,
		Transfer: &RawTransfer{
			From:   Account{Owner: mustPrincipal(t, testOwnerID)},
			To:     Account{Owner: mustPrincipal(t, testLedgerID)},
			Amount: big.NewInt(amount),
			Fee:    big.NewInt(10_000),
		},
	}
}
