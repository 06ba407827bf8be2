package ledger

import "math/big"

// Normalize converts a raw ledger record into a Transaction.
// The returned value shares no memory with raw.
//
// An unrecognized kind yields an *UnknownKindError. A known kind whose payload
// is absent yields a *MissingPayloadError; both are per-record failures.
func Normalize(raw RawTransaction) (Transaction, error) {
	switch Kind(raw.Kind) {
	case KindBurn:
		if raw.Burn == nil {
			return nil, &MissingPayloadError{Kind: KindBurn}
		}
		b := raw.Burn
		return Burn{
			Common: newCommon(raw.Timestamp, b.Amount, b.Memo, b.CreatedAtTime),
			From:   copyAccount(b.From),
		}, nil

	case KindMint:
		if raw.Mint == nil {
			return nil, &MissingPayloadError{Kind: KindMint}
		}
		m := raw.Mint
		return Mint{
			Common: newCommon(raw.Timestamp, m.Amount, m.Memo, m.CreatedAtTime),
			To:     copyAccount(m.To),
		}, nil

	case KindTransfer:
		if raw.Transfer == nil {
			return nil, &MissingPayloadError{Kind: KindTransfer}
		}
		t := raw.Transfer
		tx := Transfer{
			Common: newCommon(raw.Timestamp, t.Amount, t.Memo, t.CreatedAtTime),
			From:   copyAccount(t.From),
			To:     copyAccount(t.To),
		}
		if t.Fee != nil {
			tx.Fee = new(big.Int).Set(t.Fee)
		}
		return tx, nil

	default:
		return nil, &UnknownKindError{Kind: raw.Kind}
	}
}

func newCommon(timestamp uint64, amount *big.Int, memo []byte, createdAt *uint64) Common {
	c := Common{
		Timestamp: timestamp,
		Amount:    new(big.Int),
	}
	if amount != nil {
		c.Amount.Set(amount)
	}
	if memo != nil {
		c.Memo = append([]byte{}, memo...)
	}
	if createdAt != nil {
		v := *createdAt
		c.CreatedAtTime = &v
	}
	return c
}

func copyAccount(a Account) Account {
	out := Account{
		Owner: a.Owner,
	}
	if a.Owner.Raw != nil {
		out.Owner.Raw = append([]byte{}, a.Owner.Raw...)
	}
	if a.Subaccount != nil {
		sub := *a.Subaccount
		out.Subaccount = &sub
	}
	return out
}
