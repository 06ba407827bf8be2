package ledger

import (
	"context"
	"fmt"
	"math/big"
	"net/url"

	"github.com/aviate-labs/agent-go"
	"github.com/aviate-labs/agent-go/candid/idl"
	"github.com/aviate-labs/agent-go/principal"
)

// agentClient adapts an agent-go Agent to our LedgerClient interface.
// Queries are sent with the anonymous identity.
type agentClient struct {
	agent *agent.Agent
}

// NewAgentClient creates a LedgerClient that talks to the replica at icURL,
// e.g. https://ic0.app.
func NewAgentClient(icURL string) (LedgerClient, error) {
	u, err := url.Parse(icURL)
	if err != nil {
		return nil, fmt.Errorf("invalid replica url %q: %w", icURL, err)
	}
	a, err := agent.New(agent.Config{
		ClientConfig: &agent.ClientConfig{Host: u},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	return &agentClient{agent: a}, nil
}

// The agent's query call is synchronous and takes no context; ctx is only
// checked before the call is issued.

func (c *agentClient) GetTransactions(
	ctx context.Context,
	ledger principal.Principal,
	req TransactionsRequest,
) (*TransactionsResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out candidGetTransactionsResponse
	if err := c.agent.Query(ledger, GetTransactionsMethod, []any{newCandidRequest(req)}, []any{&out}); err != nil {
		return nil, err
	}
	return out.toDomain()
}

func (c *agentClient) GetArchivedTransactions(
	ctx context.Context,
	callback ArchiveCallback,
	req TransactionsRequest,
) (*TransactionsResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out candidTransactionRange
	if err := c.agent.Query(callback.Canister, callback.Method, []any{newCandidRequest(req)}, []any{&out}); err != nil {
		return nil, err
	}
	txs, err := convertTransactions(out.Transactions)
	if err != nil {
		return nil, err
	}
	return &TransactionsResponse{Transactions: txs}, nil
}

// Candid shapes of the ICRC-1 ledger and archive interfaces.

type candidRequest struct {
	Start  idl.Nat `ic:"start"`
	Length idl.Nat `ic:"length"`
}

func newCandidRequest(req TransactionsRequest) candidRequest {
	return candidRequest{
		Start:  idl.NewNat(req.Start),
		Length: idl.NewNat(req.Length),
	}
}

type candidAccount struct {
	Owner      principal.Principal `ic:"owner"`
	Subaccount *[]byte             `ic:"subaccount,omitempty"`
}

type candidBurn struct {
	From          candidAccount `ic:"from"`
	Amount        idl.Nat       `ic:"amount"`
	Memo          *[]byte       `ic:"memo,omitempty"`
	CreatedAtTime *uint64       `ic:"created_at_time,omitempty"`
}

type candidMint struct {
	To            candidAccount `ic:"to"`
	Amount        idl.Nat       `ic:"amount"`
	Memo          *[]byte       `ic:"memo,omitempty"`
	CreatedAtTime *uint64       `ic:"created_at_time,omitempty"`
}

type candidTransfer struct {
	From          candidAccount `ic:"from"`
	To            candidAccount `ic:"to"`
	Amount        idl.Nat       `ic:"amount"`
	Fee           *idl.Nat      `ic:"fee,omitempty"`
	Memo          *[]byte       `ic:"memo,omitempty"`
	CreatedAtTime *uint64       `ic:"created_at_time,omitempty"`
}

// candidApprove is decoded so that newer ledgers still parse; approvals are
// not a reportable kind and surface as unknown kinds downstream.
type candidApprove struct {
	From              candidAccount `ic:"from"`
	Spender           candidAccount `ic:"spender"`
	Amount            idl.Nat       `ic:"amount"`
	ExpectedAllowance *idl.Nat      `ic:"expected_allowance,omitempty"`
	ExpiresAt         *uint64       `ic:"expires_at,omitempty"`
	Fee               *idl.Nat      `ic:"fee,omitempty"`
	Memo              *[]byte       `ic:"memo,omitempty"`
	CreatedAtTime     *uint64       `ic:"created_at_time,omitempty"`
}

type candidTransaction struct {
	Kind      string          `ic:"kind"`
	Timestamp uint64          `ic:"timestamp"`
	Burn      *candidBurn     `ic:"burn,omitempty"`
	Mint      *candidMint     `ic:"mint,omitempty"`
	Transfer  *candidTransfer `ic:"transfer,omitempty"`
	Approve   *candidApprove  `ic:"approve,omitempty"`
}

type candidArchivedRange struct {
	Callback idl.PrincipalMethod `ic:"callback"`
	Start    idl.Nat             `ic:"start"`
	Length   idl.Nat             `ic:"length"`
}

type candidGetTransactionsResponse struct {
	LogLength            idl.Nat               `ic:"log_length"`
	FirstIndex           idl.Nat               `ic:"first_index"`
	Transactions         []candidTransaction   `ic:"transactions"`
	ArchivedTransactions []candidArchivedRange `ic:"archived_transactions"`
}

type candidTransactionRange struct {
	Transactions []candidTransaction `ic:"transactions"`
}

func (r candidGetTransactionsResponse) toDomain() (*TransactionsResponse, error) {
	logLength, err := natToUint64("log_length", r.LogLength)
	if err != nil {
		return nil, err
	}
	firstIndex, err := natToUint64("first_index", r.FirstIndex)
	if err != nil {
		return nil, err
	}
	txs, err := convertTransactions(r.Transactions)
	if err != nil {
		return nil, err
	}

	archived := make([]ArchiveDelegation, 0, len(r.ArchivedTransactions))
	for _, a := range r.ArchivedTransactions {
		start, err := natToUint64("archived start", a.Start)
		if err != nil {
			return nil, err
		}
		length, err := natToUint64("archived length", a.Length)
		if err != nil {
			return nil, err
		}
		archived = append(archived, ArchiveDelegation{
			Callback: ArchiveCallback{
				Canister: a.Callback.Principal,
				Method:   a.Callback.Method,
			},
			Start:  start,
			Length: length,
		})
	}

	return &TransactionsResponse{
		LogLength:            logLength,
		FirstIndex:           firstIndex,
		Transactions:         txs,
		ArchivedTransactions: archived,
	}, nil
}

func convertTransactions(in []candidTransaction) ([]RawTransaction, error) {
	out := make([]RawTransaction, 0, len(in))
	for i, tx := range in {
		raw, err := tx.toRaw()
		if err != nil {
			return nil, fmt.Errorf("failed to decode transaction %d of reply: %w", i, err)
		}
		out = append(out, raw)
	}
	return out, nil
}

func (t candidTransaction) toRaw() (RawTransaction, error) {
	raw := RawTransaction{
		Kind:      t.Kind,
		Timestamp: t.Timestamp,
	}

	if t.Burn != nil {
		from, err := t.Burn.From.toDomain()
		if err != nil {
			return raw, err
		}
		raw.Burn = &RawBurn{
			From:          from,
			Amount:        t.Burn.Amount.BigInt(),
			Memo:          optBytes(t.Burn.Memo),
			CreatedAtTime: t.Burn.CreatedAtTime,
		}
	}

	if t.Mint != nil {
		to, err := t.Mint.To.toDomain()
		if err != nil {
			return raw, err
		}
		raw.Mint = &RawMint{
			To:            to,
			Amount:        t.Mint.Amount.BigInt(),
			Memo:          optBytes(t.Mint.Memo),
			CreatedAtTime: t.Mint.CreatedAtTime,
		}
	}

	if t.Transfer != nil {
		from, err := t.Transfer.From.toDomain()
		if err != nil {
			return raw, err
		}
		to, err := t.Transfer.To.toDomain()
		if err != nil {
			return raw, err
		}
		var fee *big.Int
		if t.Transfer.Fee != nil {
			fee = t.Transfer.Fee.BigInt()
		}
		raw.Transfer = &RawTransfer{
			From:          from,
			To:            to,
			Amount:        t.Transfer.Amount.BigInt(),
			Fee:           fee,
			Memo:          optBytes(t.Transfer.Memo),
			CreatedAtTime: t.Transfer.CreatedAtTime,
		}
	}

	return raw, nil
}

func (a candidAccount) toDomain() (Account, error) {
	acc := Account{Owner: a.Owner}
	if a.Subaccount != nil {
		if len(*a.Subaccount) != SubaccountLength {
			return acc, fmt.Errorf("subaccount of %s has %d bytes, want %d",
				a.Owner.String(), len(*a.Subaccount), SubaccountLength)
		}
		var sub Subaccount
		copy(sub[:], *a.Subaccount)
		acc.Subaccount = &sub
	}
	return acc, nil
}

func optBytes(b *[]byte) []byte {
	if b == nil {
		return nil
	}
	// Present but empty stays distinguishable from absent.
	return append([]byte{}, *b...)
}

func natToUint64(field string, n idl.Nat) (uint64, error) {
	v := n.BigInt()
	if !v.IsUint64() {
		return 0, fmt.Errorf("%s %s does not fit in 64 bits", field, v.String())
	}
	return v.Uint64(), nil
}
