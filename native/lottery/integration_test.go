package lottery_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"potlottery/core/state"
	"potlottery/native/lottery"
	"potlottery/native/token"
	"potlottery/storage"
)

type harness struct {
	db      *storage.MemDB
	state   *state.Manager
	ledger  *token.Engine
	lottery *lottery.Engine
}

func newHarness(t *testing.T, db *storage.MemDB) *harness {
	t.Helper()
	mgr := state.NewManager(db)
	ledger := token.NewEngine("LOT")
	ledger.SetState(mgr)
	seed, err := lottery.NewBeaconSource([]byte("integration"))
	require.NoError(t, err)
	engine, err := lottery.NewEngine(lottery.Identity{0xA0}, ledger, seed)
	require.NoError(t, err)
	engine.SetState(mgr)
	require.NoError(t, engine.Initialize(big.NewInt(20)))
	return &harness{db: db, state: mgr, ledger: ledger, lottery: engine}
}

func TestScenarioAgainstTokenLedger(t *testing.T) {
	h := newHarness(t, storage.NewMemDB())
	owner := lottery.Identity{0xA0}
	player := lottery.Identity{0x01}

	require.NoError(t, h.ledger.Mint(player, big.NewInt(40)))
	require.NoError(t, h.ledger.Approve(player, h.lottery.Account(), big.NewInt(40)))
	require.NoError(t, h.lottery.BuyTickets(player, 2))

	result, err := h.lottery.Draw(owner)
	require.NoError(t, err)
	require.Equal(t, player, result.Winner)
	require.Equal(t, "38", result.Prize.String())
	require.Equal(t, "2", result.Fee.String())

	withdrawn, err := h.lottery.OwnerWithdraw(owner, owner)
	require.NoError(t, err)
	require.Equal(t, "2", withdrawn.String())

	bal, err := h.ledger.BalanceOf(player)
	require.NoError(t, err)
	require.Equal(t, "38", bal.String())
	bal, err = h.ledger.BalanceOf(owner)
	require.NoError(t, err)
	require.Equal(t, "2", bal.String())
	bal, err = h.ledger.BalanceOf(h.lottery.Account())
	require.NoError(t, err)
	require.Zero(t, bal.Sign())
}

func TestFailedPurchaseRevertsLedgerWrites(t *testing.T) {
	h := newHarness(t, storage.NewMemDB())
	player := lottery.Identity{0x01}
	require.NoError(t, h.ledger.Mint(player, big.NewInt(10)))
	require.NoError(t, h.ledger.Approve(player, h.lottery.Account(), big.NewInt(100)))
	require.NoError(t, h.state.Commit())

	err := h.lottery.BuyTickets(player, 1)
	require.ErrorIs(t, err, token.ErrInsufficientBalance)
	require.Zero(t, h.state.Dirty())

	allowance, err := h.ledger.Allowance(player, h.lottery.Account())
	require.NoError(t, err)
	require.Equal(t, "100", allowance.String())
}

func TestCommittedStateSurvivesReload(t *testing.T) {
	db := storage.NewMemDB()
	h := newHarness(t, db)
	player := lottery.Identity{0x01}
	require.NoError(t, h.ledger.Mint(player, big.NewInt(60)))
	require.NoError(t, h.ledger.Approve(player, h.lottery.Account(), big.NewInt(60)))
	require.NoError(t, h.lottery.BuyTickets(player, 3))
	require.NoError(t, h.state.Commit())

	reloaded := newHarness(t, db)
	count, err := reloaded.lottery.Tickets(player)
	require.NoError(t, err)
	require.Equal(t, uint64(3), count)
	prize, err := reloaded.lottery.PrizeTotal()
	require.NoError(t, err)
	require.Equal(t, "57", prize.String())
}
