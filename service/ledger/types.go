package ledger

import (
	"bytes"
	"math/big"

	"github.com/aviate-labs/agent-go/principal"
)

// Kind is the wire discriminator of a transaction.
type Kind string

const (
	KindBurn     Kind = "burn"
	KindMint     Kind = "mint"
	KindTransfer Kind = "transfer"
)

// SubaccountLength is the fixed size of a subaccount in bytes.
const SubaccountLength = 32

// Subaccount distinguishes multiple balances held by the same owner.
type Subaccount [SubaccountLength]byte

// Account identifies a ledger holder.
// A nil Subaccount is equivalent to the all-zero subaccount.
type Account struct {
	Owner      principal.Principal
	Subaccount *Subaccount
}

// Equal reports whether two accounts name the same holder.
func (a Account) Equal(b Account) bool {
	return bytes.Equal(a.Owner.Raw, b.Owner.Raw) && a.effectiveSubaccount() == b.effectiveSubaccount()
}

func (a Account) effectiveSubaccount() Subaccount {
	if a.Subaccount == nil {
		return Subaccount{}
	}
	return *a.Subaccount
}

// Transaction is one of Burn, Mint or Transfer.
// This is our domain model, independent of the wire format; values are
// built by Normalize and are not modified afterwards.
type Transaction interface {
	Kind() Kind
	Fields() Common
}

// Common holds the fields every transaction variant carries.
type Common struct {
	Timestamp     uint64   // nanoseconds since the Unix epoch
	Amount        *big.Int // never nil
	Memo          []byte   // nil when absent
	CreatedAtTime *uint64  // nanoseconds since the Unix epoch, nil when absent
}

// Burn destroys Amount tokens held by From.
type Burn struct {
	Common
	From Account
}

// Mint creates Amount tokens for To.
type Mint struct {
	Common
	To Account
}

// Transfer moves Amount tokens from From to To.
type Transfer struct {
	Common
	From Account
	To   Account
	Fee  *big.Int // nil when absent
}

func (Burn) Kind() Kind     { return KindBurn }
func (Mint) Kind() Kind     { return KindMint }
func (Transfer) Kind() Kind { return KindTransfer }

func (b Burn) Fields() Common     { return b.Common }
func (m Mint) Fields() Common     { return m.Common }
func (t Transfer) Fields() Common { return t.Common }

// Wire records. These mirror the ledger's get_transactions interface after
// Candid decoding; see adapter.go for the actual decoding.

// TransactionsRequest asks for Length transactions starting at Start.
type TransactionsRequest struct {
	Start  uint64
	Length uint64
}

// TransactionsResponse is a decoded get_transactions reply.
// Archive replies only ever populate Transactions.
type TransactionsResponse struct {
	LogLength            uint64
	FirstIndex           uint64
	Transactions         []RawTransaction
	ArchivedTransactions []ArchiveDelegation
}

// ArchiveCallback names the canister and method that serve an archived range.
type ArchiveCallback struct {
	Canister principal.Principal
	Method   string
}

// ArchiveDelegation is a sub-range of a request that must be fetched from an archive.
type ArchiveDelegation struct {
	Callback ArchiveCallback
	Start    uint64
	Length   uint64
}

// RawTransaction is a transaction as the ledger returns it: a kind string
// plus three independently optional payloads.
type RawTransaction struct {
	Kind      string
	Timestamp uint64
	Burn      *RawBurn
	Mint      *RawMint
	Transfer  *RawTransfer
}

// RawBurn is the burn payload of a RawTransaction.
type RawBurn struct {
	From          Account
	Amount        *big.Int
	Memo          []byte
	CreatedAtTime *uint64
}

// RawMint is the mint payload of a RawTransaction.
type RawMint struct {
	To            Account
	Amount        *big.Int
	Memo          []byte
	CreatedAtTime *uint64
}

// RawTransfer is the transfer payload of a RawTransaction.
type RawTransfer struct {
	From          Account
	To            Account
	Amount        *big.Int
	Fee           *big.Int
	Memo          []byte
	CreatedAtTime *uint64
}
