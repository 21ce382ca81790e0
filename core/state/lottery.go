package state

import (
	"math/big"

	"potlottery/native/lottery"
)

type storedRound struct {
	Number  uint64
	Entries []lottery.Entry
	Total   uint64
	Pot     *big.Int
}

// LotteryParams returns the persisted lottery configuration.
func (m *Manager) LotteryParams() (*lottery.Params, bool, error) {
	var params lottery.Params
	ok, err := m.KVGet(lotteryParamsKeyBytes, &params)
	if err != nil || !ok {
		return nil, false, err
	}
	if params.TicketPrice == nil {
		params.TicketPrice = big.NewInt(0)
	}
	return &params, true, nil
}

// PutLotteryParams persists the lottery configuration.
func (m *Manager) PutLotteryParams(params *lottery.Params) error {
	if params == nil {
		return m.KVDelete(lotteryParamsKeyBytes)
	}
	return m.KVPut(lotteryParamsKeyBytes, params.Clone())
}

// LotteryManagers returns the manager set in appointment order.
func (m *Manager) LotteryManagers() ([]lottery.Identity, error) {
	var managers []lottery.Identity
	ok, err := m.KVGet(lotteryManagersKeyBytes, &managers)
	if err != nil {
		return nil, err
	}
	if !ok || managers == nil {
		return []lottery.Identity{}, nil
	}
	return managers, nil
}

// PutLotteryManagers replaces the manager set.
func (m *Manager) PutLotteryManagers(managers []lottery.Identity) error {
	if managers == nil {
		managers = []lottery.Identity{}
	}
	return m.KVPut(lotteryManagersKeyBytes, managers)
}

// LotteryRound returns the open round.
func (m *Manager) LotteryRound() (*lottery.Round, bool, error) {
	var stored storedRound
	ok, err := m.KVGet(lotteryRoundKeyBytes, &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	round := &lottery.Round{Number: stored.Number, Entries: stored.Entries, Total: stored.Total, Pot: stored.Pot}
	if round.Entries == nil {
		round.Entries = []lottery.Entry{}
	}
	if round.Pot == nil {
		round.Pot = big.NewInt(0)
	}
	return round, true, nil
}

// PutLotteryRound persists the open round.
func (m *Manager) PutLotteryRound(round *lottery.Round) error {
	if round == nil {
		return m.KVDelete(lotteryRoundKeyBytes)
	}
	return m.KVPut(lotteryRoundKeyBytes, storedRound{
		Number:  round.Number,
		Entries: round.Entries,
		Total:   round.Total,
		Pot:     round.Pot,
	})
}

// LotteryFees returns the fee vault balance.
func (m *Manager) LotteryFees() (*big.Int, error) {
	fees := new(big.Int)
	if _, err := m.KVGet(lotteryFeesKeyBytes, fees); err != nil {
		return nil, err
	}
	return fees, nil
}

// PutLotteryFees overwrites the fee vault balance.
func (m *Manager) PutLotteryFees(amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	return m.KVPut(lotteryFeesKeyBytes, amount)
}

// LotteryLastDraw returns the unix time of the last settled draw, zero when
// none happened yet.
func (m *Manager) LotteryLastDraw() (int64, error) {
	var ts uint64
	if _, err := m.KVGet(lotteryLastDrawKeyBytes, &ts); err != nil {
		return 0, err
	}
	return int64(ts), nil
}

// PutLotteryLastDraw records the unix time of the last settled draw.
func (m *Manager) PutLotteryLastDraw(ts int64) error {
	if ts < 0 {
		ts = 0
	}
	return m.KVPut(lotteryLastDrawKeyBytes, uint64(ts))
}
