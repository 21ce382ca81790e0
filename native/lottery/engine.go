package lottery

import (
	"errors"
	"math/big"
	"sync/atomic"
	"time"

	"potlottery/core/events"
	"potlottery/core/types"
	"potlottery/crypto"
)

// ModuleName names the lottery's escrow account.
const ModuleName = "lottery"

type engineState interface {
	LotteryParams() (*Params, bool, error)
	PutLotteryParams(*Params) error
	LotteryManagers() ([]Identity, error)
	PutLotteryManagers([]Identity) error
	LotteryRound() (*Round, bool, error)
	PutLotteryRound(*Round) error
	LotteryFees() (*big.Int, error)
	PutLotteryFees(*big.Int) error
	LotteryLastDraw() (int64, error)
	PutLotteryLastDraw(int64) error
}

// snapshotter is implemented by state backends that can roll back every write
// made since a checkpoint, including ledger writes sharing the same backend.
type snapshotter interface {
	Snapshot() int
	RevertToSnapshot(int) error
}

// Ledger is the fungible token ledger the lottery settles against. The
// lottery account must be approved by buyers before BuyTickets.
type Ledger interface {
	BalanceOf(id Identity) (*big.Int, error)
	Allowance(owner, spender Identity) (*big.Int, error)
	TransferFrom(spender, from, to Identity, amount *big.Int) error
	Transfer(from, to Identity, amount *big.Int) error
}

// Engine is the lottery state machine: access control, ticket book, draw and
// fee vault. Mutating calls are not safe for concurrent use; the host must
// serialize them. Overlapping calls fail with ErrReentrant.
type Engine struct {
	state       engineState
	ledger      Ledger
	source      RandomnessSource
	emitter     events.Emitter
	nowFn       func() int64
	owner       Identity
	account     Identity
	cooldown    time.Duration
	feeBps      uint32
	maxManagers int

	inFlight atomic.Bool
	pending  []*types.Event
	undo     []func() error
}

// NewEngine constructs a lottery owned by owner. The owner cannot change for
// the lifetime of the lottery.
func NewEngine(owner Identity, ledger Ledger, source RandomnessSource) (*Engine, error) {
	if owner == (Identity{}) {
		return nil, ErrInvalidArgument
	}
	if source == nil {
		source = CryptoSource{}
	}
	return &Engine{
		ledger:      ledger,
		source:      source,
		emitter:     events.NoopEmitter{},
		nowFn:       func() int64 { return time.Now().Unix() },
		owner:       owner,
		account:     crypto.ModuleAddress(ModuleName).Array(),
		cooldown:    DefaultCooldown,
		feeBps:      DefaultFeeBps,
		maxManagers: MaxManagers,
	}, nil
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetLedger swaps the token ledger.
func (e *Engine) SetLedger(ledger Ledger) { e.ledger = ledger }

// SetRandomness swaps the randomness source. Nil restores CryptoSource.
func (e *Engine) SetRandomness(source RandomnessSource) {
	if source == nil {
		e.source = CryptoSource{}
		return
	}
	e.source = source
}

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the unix-seconds clock. Primarily intended for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetAccount overrides the account holding ticket proceeds.
func (e *Engine) SetAccount(account Identity) error {
	if account == (Identity{}) {
		return ErrInvalidArgument
	}
	e.account = account
	return nil
}

// SetCooldown configures the minimum spacing between draws.
func (e *Engine) SetCooldown(d time.Duration) error {
	if d < MinCooldown {
		return ErrInvalidArgument
	}
	e.cooldown = d
	return nil
}

// SetFeeBps configures the retained share of each pot in basis points.
func (e *Engine) SetFeeBps(bps uint32) error {
	if bps > bpsDenominator {
		return ErrInvalidArgument
	}
	e.feeBps = bps
	return nil
}

// SetMaxManagers lowers the manager capacity. It never exceeds MaxManagers.
func (e *Engine) SetMaxManagers(n int) error {
	if n < 0 || n > MaxManagers {
		return ErrInvalidArgument
	}
	e.maxManagers = n
	return nil
}

// Owner returns the immutable owner identity.
func (e *Engine) Owner() Identity { return e.owner }

// Account returns the identity holding ticket proceeds and unpaid fees.
func (e *Engine) Account() Identity { return e.account }

// Cooldown returns the configured draw spacing.
func (e *Engine) Cooldown() time.Duration { return e.cooldown }

// FeeBps returns the configured fee share.
func (e *Engine) FeeBps() uint32 { return e.feeBps }

// Initialize records the owner and the starting ticket price. Calling it on
// state that already holds lottery parameters is a no-op as long as the owner
// matches.
func (e *Engine) Initialize(price *big.Int) error {
	return e.run(func() error {
		params, ok, err := e.state.LotteryParams()
		if err != nil {
			return err
		}
		if ok {
			if params.Owner != e.owner {
				return ErrUnauthorized
			}
			return nil
		}
		if price == nil {
			price = DefaultTicketPrice
		}
		if price.Sign() <= 0 {
			return ErrInvalidArgument
		}
		if _, err := toU256(price); err != nil {
			return err
		}
		if err := e.state.PutLotteryParams(&Params{Owner: e.owner, TicketPrice: new(big.Int).Set(price)}); err != nil {
			return err
		}
		if err := e.state.PutLotteryRound(NewRound(1)); err != nil {
			return err
		}
		return e.state.PutLotteryFees(big.NewInt(0))
	})
}

// run executes a mutating operation with the in-flight guard held. State
// writes are ordered before ledger calls. On failure a snapshotting backend
// reverts every write; any other backend replays the restore steps recorded
// with onFailure. Events are only emitted once the operation succeeded.
func (e *Engine) run(fn func() error) (err error) {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if !e.inFlight.CompareAndSwap(false, true) {
		return ErrReentrant
	}
	defer e.inFlight.Store(false)
	e.pending = e.pending[:0]
	e.undo = e.undo[:0]

	snap, canRevert := e.state.(snapshotter)
	var id int
	if canRevert {
		id = snap.Snapshot()
	}
	if err = fn(); err != nil {
		e.pending = e.pending[:0]
		if canRevert {
			e.undo = e.undo[:0]
			if revertErr := snap.RevertToSnapshot(id); revertErr != nil {
				return errors.Join(err, revertErr)
			}
			return err
		}
		for i := len(e.undo) - 1; i >= 0; i-- {
			if restoreErr := e.undo[i](); restoreErr != nil {
				err = errors.Join(err, restoreErr)
			}
		}
		e.undo = e.undo[:0]
		return err
	}
	for _, evt := range e.pending {
		e.emitter.Emit(WrapEvent(evt))
	}
	e.pending = e.pending[:0]
	e.undo = e.undo[:0]
	return nil
}

// onFailure records a step restoring state written by the running operation.
func (e *Engine) onFailure(restore func() error) {
	e.undo = append(e.undo, restore)
}

// view runs a read-only operation; it still refuses to observe a half-applied
// mutation.
func (e *Engine) view(fn func() error) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if e.inFlight.Load() {
		return ErrReentrant
	}
	return fn()
}

func (e *Engine) emit(evt *types.Event) {
	if evt == nil {
		return
	}
	e.pending = append(e.pending, evt)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) requireLedger() error {
	if e.ledger == nil {
		return errNilLedger
	}
	return nil
}

func (e *Engine) loadParams() (*Params, error) {
	params, ok, err := e.state.LotteryParams()
	if err != nil {
		return nil, err
	}
	if !ok || params == nil {
		return &Params{Owner: e.owner, TicketPrice: new(big.Int).Set(DefaultTicketPrice)}, nil
	}
	if params.TicketPrice == nil || params.TicketPrice.Sign() <= 0 {
		params.TicketPrice = new(big.Int).Set(DefaultTicketPrice)
	}
	return params, nil
}

func (e *Engine) loadRound() (*Round, error) {
	round, ok, err := e.state.LotteryRound()
	if err != nil {
		return nil, err
	}
	if !ok || round == nil {
		return NewRound(1), nil
	}
	if round.Pot == nil {
		round.Pot = big.NewInt(0)
	}
	return round, nil
}

func (e *Engine) loadFees() (*big.Int, error) {
	fees, err := e.state.LotteryFees()
	if err != nil {
		return nil, err
	}
	if fees == nil {
		return big.NewInt(0), nil
	}
	return fees, nil
}
