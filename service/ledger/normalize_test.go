package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Burn(t *testing.T) {
	created := uint64(1_700_000_000_000_000_000)
	sub := Subaccount{31: 1}
	raw := RawTransaction{
		Kind:      "burn",
		Timestamp: 42,
		Burn: &RawBurn{
			From:          Account{Owner: mustPrincipal(t, testOwnerID), Subaccount: &sub},
			Amount:        big.NewInt(500),
			Memo:          []byte{0xde, 0xad},
			CreatedAtTime: &created,
		},
	}

	tx, err := Normalize(raw)

	require.NoError(t, err)
	burn, ok := tx.(Burn)
	require.True(t, ok, "expected Burn, got %T", tx)
	assert.Equal(t, KindBurn, burn.Kind())
	assert.Equal(t, uint64(42), burn.Timestamp)
	assert.Equal(t, "500", burn.Amount.String())
	assert.Equal(t, []byte{0xde, 0xad}, burn.Memo)
	require.NotNil(t, burn.CreatedAtTime)
	assert.Equal(t, created, *burn.CreatedAtTime)
	assert.True(t, burn.From.Equal(raw.Burn.From))
}

func TestNormalize_Mint(t *testing.T) {
	raw := rawMint(t, 7, 1000)

	tx, err := Normalize(raw)

	require.NoError(t, err)
	mint, ok := tx.(Mint)
	require.True(t, ok, "expected Mint, got %T", tx)
	assert.Equal(t, KindMint, mint.Kind())
	assert.Equal(t, uint64(7), mint.Fields().Timestamp)
	assert.Equal(t, "1000", mint.Amount.String())
	assert.Nil(t, mint.Memo)
	assert.Nil(t, mint.CreatedAtTime)
	assert.Equal(t, testOwnerID, mint.To.Owner.String())
}

func TestNormalize_Transfer(t *testing.T) {
	raw := rawTransfer(t, 9, 250)

	tx, err := Normalize(raw)

	require.NoError(t, err)
	transfer, ok := tx.(Transfer)
	require.True(t, ok, "expected Transfer, got %T", tx)
	assert.Equal(t, KindTransfer, transfer.Kind())
	assert.Equal(t, "250", transfer.Amount.String())
	require.NotNil(t, transfer.Fee)
	assert.Equal(t, "10000", transfer.Fee.String())
	assert.Equal(t, testOwnerID, transfer.From.Owner.String())
	assert.Equal(t, testLedgerID, transfer.To.Owner.String())
}

func TestNormalize_TransferWithoutFee(t *testing.T) {
	raw := rawTransfer(t, 9, 250)
	raw.Transfer.Fee = nil

	tx, err := Normalize(raw)

	require.NoError(t, err)
	assert.Nil(t, tx.(Transfer).Fee)
}

func TestNormalize_UnknownKind(t *testing.T) {
	tx, err := Normalize(RawTransaction{Kind: "approve", Timestamp: 1})

	assert.Nil(t, tx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownKind)

	var kindErr *UnknownKindError
	require.ErrorAs(t, err, &kindErr)
	assert.Equal(t, "approve", kindErr.Kind)
	assert.Equal(t, "unknown kind approve", err.Error())
}

func TestNormalize_KindIsCaseSensitive(t *testing.T) {
	_, err := Normalize(RawTransaction{Kind: "Mint", Mint: rawMint(t, 1, 1).Mint})

	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestNormalize_MissingPayload(t *testing.T) {
	tests := []struct {
		name string
		raw  RawTransaction
		kind Kind
	}{
		{
			name: "burn without burn payload",
			raw:  RawTransaction{Kind: "burn", Mint: rawMint(t, 1, 1).Mint},
			kind: KindBurn,
		},
		{
			name: "mint without mint payload",
			raw:  RawTransaction{Kind: "mint"},
			kind: KindMint,
		},
		{
			name: "transfer without transfer payload",
			raw:  RawTransaction{Kind: "transfer", Mint: rawMint(t, 1, 1).Mint},
			kind: KindTransfer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := Normalize(tt.raw)

			assert.Nil(t, tx)
			assert.ErrorIs(t, err, ErrMissingPayload)
			var payloadErr *MissingPayloadError
			require.ErrorAs(t, err, &payloadErr)
			assert.Equal(t, tt.kind, payloadErr.Kind)
		})
	}
}

func TestNormalize_DoesNotAliasInput(t *testing.T) {
	sub := Subaccount{0: 7}
	raw := RawTransaction{
		Kind: "burn",
		Burn: &RawBurn{
			From:   Account{Owner: mustPrincipal(t, testOwnerID), Subaccount: &sub},
			Amount: big.NewInt(1),
			Memo:   []byte{1, 2, 3},
		},
	}

	tx, err := Normalize(raw)
	require.NoError(t, err)

	raw.Burn.Memo[0] = 0xff
	raw.Burn.Amount.SetInt64(99)
	sub[0] = 0

	burn := tx.(Burn)
	assert.Equal(t, []byte{1, 2, 3}, burn.Memo)
	assert.Equal(t, "1", burn.Amount.String())
	assert.Equal(t, byte(7), burn.From.Subaccount[0])
}

func TestNormalize_NilAmountBecomesZero(t *testing.T) {
	raw := rawMint(t, 1, 0)
	raw.Mint.Amount = nil

	tx, err := Normalize(raw)

	require.NoError(t, err)
	assert.Equal(t, "0", tx.Fields().Amount.String())
}

func TestAccountEqual(t *testing.T) {
	owner := mustPrincipal(t, testOwnerID)
	other := mustPrincipal(t, testLedgerID)
	zero := Subaccount{}
	one := Subaccount{31: 1}

	tests := []struct {
		name  string
		a, b  Account
		equal bool
	}{
		{"same owner no subaccount", Account{Owner: owner}, Account{Owner: owner}, true},
		{"absent equals zero subaccount", Account{Owner: owner}, Account{Owner: owner, Subaccount: &zero}, true},
		{"different subaccount", Account{Owner: owner, Subaccount: &one}, Account{Owner: owner}, false},
		{"different owner", Account{Owner: owner}, Account{Owner: other}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, tt.a.Equal(tt.b))
			assert.Equal(t, tt.equal, tt.b.Equal(tt.a))
		})
	}
}
