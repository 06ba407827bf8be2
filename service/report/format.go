package report

import (
	"encoding/hex"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/brojonat/ledgerdump/service/ledger"
)

// Header is the first line of pipe-delimited output.
const Header = "block index|kind|datetime|from|to|amount|fee|memo|created_at_time"

// Delimiter separates columns in a row. No column value can contain it.
const Delimiter = "|"

// timestampLayout is RFC 3339 with millisecond precision and a numeric offset,
// so UTC renders as "+00:00" rather than "Z".
const timestampLayout = "2006-01-02T15:04:05.000-07:00"

// Row is the flat, canonical rendering of one transaction.
type Row struct {
	Index         uint64 `json:"block_index"`
	Kind          string `json:"kind"`
	Datetime      string `json:"datetime"`
	From          string `json:"from"`
	To            string `json:"to"`
	Amount        string `json:"amount"`
	Fee           string `json:"fee"`
	Memo          string `json:"memo"`
	CreatedAtTime string `json:"created_at_time"`
}

// NewRow renders tx at ledger position index.
func NewRow(index uint64, tx ledger.Transaction) Row {
	c := tx.Fields()
	row := Row{
		Index:    index,
		Kind:     string(tx.Kind()),
		Datetime: TimestampString(c.Timestamp),
		Amount:   natString(c.Amount),
		Memo:     HexUpper(c.Memo),
	}
	if c.CreatedAtTime != nil {
		row.CreatedAtTime = TimestampString(*c.CreatedAtTime)
	}

	switch t := tx.(type) {
	case ledger.Burn:
		row.From = AccountString(t.From)
	case ledger.Mint:
		row.To = AccountString(t.To)
	case ledger.Transfer:
		row.From = AccountString(t.From)
		row.To = AccountString(t.To)
		if t.Fee != nil {
			row.Fee = natString(t.Fee)
		}
	}

	return row
}

// FormatRow renders tx at ledger position index as a pipe-delimited line.
func FormatRow(index uint64, tx ledger.Transaction) string {
	return NewRow(index, tx).String()
}

// String joins the columns in header order.
func (r Row) String() string {
	return strings.Join([]string{
		strconv.FormatUint(r.Index, 10),
		r.Kind,
		r.Datetime,
		r.From,
		r.To,
		r.Amount,
		r.Fee,
		r.Memo,
		r.CreatedAtTime,
	}, Delimiter)
}

// Map returns the row as a generic object, the shape jq filters operate on.
func (r Row) Map() map[string]any {
	var index any = new(big.Int).SetUint64(r.Index)
	if r.Index <= math.MaxInt {
		index = int(r.Index)
	}
	return map[string]any{
		"block_index":     index,
		"kind":            r.Kind,
		"datetime":        r.Datetime,
		"from":            r.From,
		"to":              r.To,
		"amount":          r.Amount,
		"fee":             r.Fee,
		"memo":            r.Memo,
		"created_at_time": r.CreatedAtTime,
	}
}

// AccountString renders an account as its owner, a space, and the subaccount
// in uppercase hex. Without a subaccount the result ends in the space.
func AccountString(a ledger.Account) string {
	sub := ""
	if a.Subaccount != nil {
		sub = HexUpper(a.Subaccount[:])
	}
	return a.Owner.String() + " " + sub
}

// HexUpper renders b as uppercase hex, two digits per byte.
func HexUpper(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}

// TimestampString renders nanoseconds since the Unix epoch as a UTC RFC 3339
// string with millisecond precision, e.g. 1970-01-01T00:00:00.000+00:00.
// Sub-millisecond digits are truncated.
func TimestampString(ns uint64) string {
	secs := int64(ns / uint64(time.Second))
	nsecs := int64(ns % uint64(time.Second))
	return time.Unix(secs, nsecs).UTC().Format(timestampLayout)
}

func natString(n *big.Int) string {
	if n == nil {
		return "0"
	}
	return n.String()
}
