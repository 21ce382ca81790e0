package token

import (
	"math/big"

	"github.com/holiman/uint256"

	"potlottery/core/events"
	"potlottery/native/common"
)

func toU256(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

func (e *Engine) balance(addr Identity) (*uint256.Int, error) {
	raw, err := e.state.TokenBalance(addr)
	if err != nil {
		return nil, err
	}
	return toU256(raw)
}

// BalanceOf returns the balance held by addr.
func (e *Engine) BalanceOf(addr Identity) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	bal, err := e.balance(addr)
	if err != nil {
		return nil, err
	}
	return bal.ToBig(), nil
}

// TotalSupply returns the amount minted so far.
func (e *Engine) TotalSupply() (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	supply, err := e.state.TokenSupply()
	if err != nil {
		return nil, err
	}
	if supply == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(supply), nil
}

// Allowance returns how much spender may still move out of owner's balance.
func (e *Engine) Allowance(owner, spender Identity) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	allowance, err := e.state.TokenAllowance(owner, spender)
	if err != nil {
		return nil, err
	}
	if allowance == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(allowance), nil
}

// Approve sets spender's allowance over owner's balance, replacing any
// previous value.
func (e *Engine) Approve(owner, spender Identity, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if owner == (Identity{}) || spender == (Identity{}) {
		return ErrInvalidAddress
	}
	amt, err := toU256(amount)
	if err != nil {
		return err
	}
	if err := e.state.PutTokenAllowance(owner, spender, amt.ToBig()); err != nil {
		return err
	}
	e.emit(events.TokenApproval{Symbol: e.symbol, Owner: owner, Spender: spender, Amount: amt.ToBig()})
	return nil
}

// Transfer moves amount from one account to another. A zero amount is a
// valid no-op transfer.
func (e *Engine) Transfer(from, to Identity, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	return e.move(from, from, to, amount)
}

// TransferFrom moves amount out of from on behalf of spender, consuming
// spender's allowance. The maximum allowance is never consumed.
func (e *Engine) TransferFrom(spender, from, to Identity, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	amt, err := toU256(amount)
	if err != nil {
		return err
	}
	rawAllowance, err := e.state.TokenAllowance(from, spender)
	if err != nil {
		return err
	}
	allowance, err := toU256(rawAllowance)
	if err != nil {
		return err
	}
	if allowance.Lt(amt) {
		return ErrInsufficientAllowance
	}
	bal, err := e.balance(from)
	if err != nil {
		return err
	}
	if bal.Lt(amt) {
		return ErrInsufficientBalance
	}
	if !allowance.Eq(maxAllowance) {
		remaining := new(uint256.Int).Sub(allowance, amt)
		if err := e.state.PutTokenAllowance(from, spender, remaining.ToBig()); err != nil {
			return err
		}
	}
	return e.move(spender, from, to, amt.ToBig())
}

func (e *Engine) move(spender, from, to Identity, amount *big.Int) error {
	if from == (Identity{}) || to == (Identity{}) {
		return ErrInvalidAddress
	}
	amt, err := toU256(amount)
	if err != nil {
		return err
	}
	fromBal, err := e.balance(from)
	if err != nil {
		return err
	}
	if fromBal.Lt(amt) {
		return ErrInsufficientBalance
	}
	if from != to {
		toBal, err := e.balance(to)
		if err != nil {
			return err
		}
		credited, overflow := new(uint256.Int).AddOverflow(toBal, amt)
		if overflow {
			return ErrOverflow
		}
		debited := new(uint256.Int).Sub(fromBal, amt)
		if err := e.state.PutTokenBalance(from, debited.ToBig()); err != nil {
			return err
		}
		if err := e.state.PutTokenBalance(to, credited.ToBig()); err != nil {
			return err
		}
	}
	e.emit(events.TokenTransfer{Symbol: e.symbol, Spender: spender, From: from, To: to, Amount: amt.ToBig()})
	return nil
}

// Mint credits amount of new supply to to.
func (e *Engine) Mint(to Identity, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if to == (Identity{}) {
		return ErrInvalidAddress
	}
	amt, err := toU256(amount)
	if err != nil {
		return err
	}
	if amt.IsZero() {
		return ErrInvalidAmount
	}
	rawSupply, err := e.state.TokenSupply()
	if err != nil {
		return err
	}
	supply, err := toU256(rawSupply)
	if err != nil {
		return err
	}
	nextSupply, overflow := new(uint256.Int).AddOverflow(supply, amt)
	if overflow {
		return ErrOverflow
	}
	bal, err := e.balance(to)
	if err != nil {
		return err
	}
	nextBal := new(uint256.Int).Add(bal, amt)
	if err := e.state.PutTokenBalance(to, nextBal.ToBig()); err != nil {
		return err
	}
	if err := e.state.PutTokenSupply(nextSupply.ToBig()); err != nil {
		return err
	}
	e.emit(events.TokenMint{Symbol: e.symbol, To: to, Amount: amt.ToBig(), NewSupply: nextSupply.ToBig(), MintedAt: e.now()})
	return nil
}

// Faucet mints amount to to when self-service minting is enabled and the
// recipient's quota for the current epoch allows it.
func (e *Engine) Faucet(to Identity, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if !e.faucetEnabled {
		return ErrFaucetDisabled
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	prev, _, err := e.state.TokenFaucetUsage(to)
	if err != nil {
		return err
	}
	next, err := common.CheckQuota(e.faucetQuota, e.faucetQuota.Epoch(e.now()), prev, 1, amount)
	if err != nil {
		return err
	}
	if err := e.Mint(to, amount); err != nil {
		return err
	}
	return e.state.PutTokenFaucetUsage(to, next)
}
