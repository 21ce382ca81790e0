package events

import (
	"math/big"

	"potlottery/core/types"
)

const (
	// TypeTokenTransfer is emitted for every ledger balance movement.
	TypeTokenTransfer = "token.transfer"
	// TypeTokenApproval is emitted when an owner sets a spender allowance.
	TypeTokenApproval = "token.approval"
	// TypeTokenMint is emitted when new supply is credited to an account.
	TypeTokenMint = "token.mint"
)

type TokenTransfer struct {
	Symbol  string
	Spender [20]byte
	From    [20]byte
	To      [20]byte
	Amount  *big.Int
}

func (TokenTransfer) EventType() string { return TypeTokenTransfer }

func (e TokenTransfer) Event() *types.Event {
	attrs := map[string]string{
		"symbol": e.Symbol,
		"from":   formatAddress(e.From),
		"to":     formatAddress(e.To),
		"amount": formatAmount(e.Amount),
	}
	if e.Spender != ([20]byte{}) && e.Spender != e.From {
		attrs["spender"] = formatAddress(e.Spender)
	}
	return &types.Event{Type: TypeTokenTransfer, Attributes: attrs}
}

type TokenApproval struct {
	Symbol  string
	Owner   [20]byte
	Spender [20]byte
	Amount  *big.Int
}

func (TokenApproval) EventType() string { return TypeTokenApproval }

func (e TokenApproval) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenApproval,
		Attributes: map[string]string{
			"symbol":  e.Symbol,
			"owner":   formatAddress(e.Owner),
			"spender": formatAddress(e.Spender),
			"amount":  formatAmount(e.Amount),
		},
	}
}

type TokenMint struct {
	Symbol    string
	To        [20]byte
	Amount    *big.Int
	NewSupply *big.Int
	MintedAt  int64
}

func (TokenMint) EventType() string { return TypeTokenMint }

func (e TokenMint) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenMint,
		Attributes: map[string]string{
			"symbol":   e.Symbol,
			"to":       formatAddress(e.To),
			"amount":   formatAmount(e.Amount),
			"supply":   formatAmount(e.NewSupply),
			"mintedAt": intToString(e.MintedAt),
		},
	}
}
