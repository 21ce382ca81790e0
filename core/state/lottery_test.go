package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"potlottery/native/common"
	"potlottery/native/lottery"
	"potlottery/storage"
)

func TestLotteryRecords(t *testing.T) {
	db := storage.NewMemDB()
	mgr := NewManager(db)

	_, ok, err := mgr.LotteryParams()
	require.NoError(t, err)
	require.False(t, ok)

	owner := lottery.Identity{0xAA}
	require.NoError(t, mgr.PutLotteryParams(&lottery.Params{Owner: owner, TicketPrice: big.NewInt(20)}))
	require.NoError(t, mgr.PutLotteryManagers([]lottery.Identity{{0x01}, {0x02}}))

	round := lottery.NewRound(3)
	round.Entries = append(round.Entries, lottery.Entry{Holder: lottery.Identity{0x05}, Tickets: 4})
	round.Total = 4
	round.Pot = big.NewInt(80)
	require.NoError(t, mgr.PutLotteryRound(round))
	require.NoError(t, mgr.PutLotteryFees(big.NewInt(9)))
	require.NoError(t, mgr.PutLotteryLastDraw(1_700_000_000))
	require.NoError(t, mgr.Commit())

	reloaded := NewManager(db)
	params, ok, err := reloaded.LotteryParams()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, owner, params.Owner)
	require.Equal(t, 0, params.TicketPrice.Cmp(big.NewInt(20)))

	managers, err := reloaded.LotteryManagers()
	require.NoError(t, err)
	require.Equal(t, []lottery.Identity{{0x01}, {0x02}}, managers)

	got, ok, err := reloaded.LotteryRound()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(3), got.Number)
	require.Equal(t, uint64(4), got.Total)
	require.Equal(t, uint64(4), got.TicketsOf(lottery.Identity{0x05}))
	require.Equal(t, 0, got.Pot.Cmp(big.NewInt(80)))

	fees, err := reloaded.LotteryFees()
	require.NoError(t, err)
	require.Equal(t, 0, fees.Cmp(big.NewInt(9)))

	last, err := reloaded.LotteryLastDraw()
	require.NoError(t, err)
	require.Equal(t, int64(1_700_000_000), last)
}

func TestLotteryDefaultsWhenEmpty(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())

	managers, err := mgr.LotteryManagers()
	require.NoError(t, err)
	require.Empty(t, managers)

	fees, err := mgr.LotteryFees()
	require.NoError(t, err)
	require.Zero(t, fees.Sign())

	last, err := mgr.LotteryLastDraw()
	require.NoError(t, err)
	require.Zero(t, last)
}

func TestTokenRecords(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	owner, spender := [20]byte{1}, [20]byte{2}

	require.NoError(t, mgr.PutTokenBalance(owner, big.NewInt(100)))
	require.NoError(t, mgr.PutTokenAllowance(owner, spender, big.NewInt(40)))
	require.NoError(t, mgr.PutTokenSupply(big.NewInt(100)))
	require.NoError(t, mgr.PutTokenFaucetUsage(owner, common.QuotaNow{ReqCount: 2, Amount: big.NewInt(10), EpochID: 7}))

	bal, err := mgr.TokenBalance(owner)
	require.NoError(t, err)
	require.Equal(t, 0, bal.Cmp(big.NewInt(100)))

	allowance, err := mgr.TokenAllowance(owner, spender)
	require.NoError(t, err)
	require.Equal(t, 0, allowance.Cmp(big.NewInt(40)))

	reverse, err := mgr.TokenAllowance(spender, owner)
	require.NoError(t, err)
	require.Zero(t, reverse.Sign())

	usage, ok, err := mgr.TokenFaucetUsage(owner)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(2), usage.ReqCount)
	require.Equal(t, uint64(7), usage.EpochID)
	require.Equal(t, 0, usage.Amount.Cmp(big.NewInt(10)))

	require.NoError(t, mgr.PutTokenBalance(owner, big.NewInt(0)))
	bal, err = mgr.TokenBalance(owner)
	require.NoError(t, err)
	require.Zero(t, bal.Sign())
}
