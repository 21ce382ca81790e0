package lottery

import (
	"math/big"

	"github.com/google/uuid"
)

// Draw selects a winner weighted by tickets held, pays out the pot less the
// retained fee and opens the next round. Owner or manager only. Draws are
// spaced by the configured cooldown; the first draw is never gated.
func (e *Engine) Draw(caller Identity) (*DrawResult, error) {
	var result *DrawResult
	err := e.run(func() error {
		if err := e.requireOwnerOrManager(caller); err != nil {
			return err
		}
		if err := e.requireLedger(); err != nil {
			return err
		}
		round, err := e.loadRound()
		if err != nil {
			return err
		}
		if round.Total == 0 {
			return ErrEmptyRound
		}
		now := e.now()
		last, err := e.state.LotteryLastDraw()
		if err != nil {
			return err
		}
		if last != 0 && now-last < int64(e.cooldown.Seconds()) {
			return ErrRateLimited
		}

		if seeder, ok := e.source.(RoundSeeder); ok {
			seeder.SeedRound(round.Number)
		}
		r, err := e.source.Next(round.Total)
		if err != nil {
			return err
		}
		if r >= round.Total {
			return ErrRandomness
		}
		winner, ok := selectWinner(round.Entries, r)
		if !ok {
			return ErrRandomness
		}

		pot := cloneBig(round.Pot)
		prize, fee, err := splitPot(pot, e.feeBps)
		if err != nil {
			return err
		}
		fees, err := e.loadFees()
		if err != nil {
			return err
		}
		nextFees, err := addAmount(fees, fee)
		if err != nil {
			return err
		}
		if err := e.state.PutLotteryFees(nextFees); err != nil {
			return err
		}
		e.onFailure(func() error { return e.state.PutLotteryFees(fees) })
		if err := e.state.PutLotteryRound(NewRound(round.Number + 1)); err != nil {
			return err
		}
		e.onFailure(func() error { return e.state.PutLotteryRound(round) })
		if err := e.state.PutLotteryLastDraw(now); err != nil {
			return err
		}
		e.onFailure(func() error { return e.state.PutLotteryLastDraw(last) })
		if err := e.ledger.Transfer(e.account, winner.Holder, prize); err != nil {
			return err
		}
		result = &DrawResult{
			ID:      uuid.New(),
			Round:   round.Number,
			Winner:  winner.Holder,
			Tickets: winner.Tickets,
			Total:   round.Total,
			Random:  r,
			Pot:     pot,
			Prize:   prize,
			Fee:     fee,
			DrawnAt: now,
		}
		e.emit(DrawSettledEvent(result))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// selectWinner walks entries in order and returns the first whose cumulative
// ticket count exceeds r.
func selectWinner(entries []Entry, r uint64) (Entry, bool) {
	var cumulative uint64
	for _, entry := range entries {
		cumulative += entry.Tickets
		if cumulative > r {
			return entry, true
		}
	}
	return Entry{}, false
}

// PrizeTotal returns what the winner of the open round would receive now.
func (e *Engine) PrizeTotal() (*big.Int, error) {
	var prize *big.Int
	err := e.view(func() error {
		round, err := e.loadRound()
		if err != nil {
			return err
		}
		prize, _, err = splitPot(round.Pot, e.feeBps)
		return err
	})
	return prize, err
}

// LastDraw returns the unix time of the previous successful draw, zero when
// no draw has happened.
func (e *Engine) LastDraw() (int64, error) {
	var last int64
	err := e.view(func() error {
		var err error
		last, err = e.state.LotteryLastDraw()
		return err
	})
	return last, err
}
