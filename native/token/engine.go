package token

import (
	"errors"
	"math/big"
	"time"

	"github.com/holiman/uint256"

	"potlottery/core/events"
	"potlottery/native/common"
)

// Identity is the 20-byte account identifier.
type Identity = [20]byte

// DefaultSymbol is the ticker used when none is configured.
const DefaultSymbol = "LOT"

var (
	ErrInsufficientBalance   = errors.New("token: insufficient balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	ErrInvalidAmount         = errors.New("token: invalid amount")
	ErrInvalidAddress        = errors.New("token: invalid address")
	ErrFaucetDisabled        = errors.New("token: faucet disabled")
	ErrOverflow              = errors.New("token: arithmetic overflow")
	errNilState              = errors.New("token engine: state not configured")
)

// maxAllowance is treated as unlimited and never decremented.
var maxAllowance = new(uint256.Int).SetAllOne()

type engineState interface {
	TokenBalance(addr Identity) (*big.Int, error)
	PutTokenBalance(addr Identity, amount *big.Int) error
	TokenAllowance(owner, spender Identity) (*big.Int, error)
	PutTokenAllowance(owner, spender Identity, amount *big.Int) error
	TokenSupply() (*big.Int, error)
	PutTokenSupply(*big.Int) error
	TokenFaucetUsage(addr Identity) (common.QuotaNow, bool, error)
	PutTokenFaucetUsage(addr Identity, usage common.QuotaNow) error
}

// Engine is a fungible token ledger with ERC-20 style allowances.
type Engine struct {
	state         engineState
	emitter       events.Emitter
	nowFn         func() int64
	symbol        string
	faucetEnabled bool
	faucetQuota   common.Quota
}

// NewEngine creates a token engine with a no-op emitter.
func NewEngine(symbol string) *Engine {
	if symbol == "" {
		symbol = DefaultSymbol
	}
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
		symbol:  symbol,
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the unix-seconds clock.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetFaucet enables self-service minting bounded by quota.
func (e *Engine) SetFaucet(enabled bool, quota common.Quota) {
	e.faucetEnabled = enabled
	e.faucetQuota = quota
}

// Symbol returns the token ticker.
func (e *Engine) Symbol() string { return e.symbol }

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return nil
}
