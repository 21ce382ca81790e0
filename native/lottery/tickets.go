package lottery

import "math/big"

// TicketPrice returns the price of a single ticket.
func (e *Engine) TicketPrice() (*big.Int, error) {
	var price *big.Int
	err := e.view(func() error {
		params, err := e.loadParams()
		if err != nil {
			return err
		}
		price = cloneBig(params.TicketPrice)
		return nil
	})
	return price, err
}

// SetTicketPrice changes the price applied to subsequent purchases. Tickets
// already sold keep the amount that was paid for them. Owner only.
func (e *Engine) SetTicketPrice(caller Identity, price *big.Int) error {
	return e.run(func() error {
		if err := e.requireOwner(caller); err != nil {
			return err
		}
		if price == nil || price.Sign() <= 0 {
			return ErrInvalidArgument
		}
		if _, err := toU256(price); err != nil {
			return err
		}
		params, err := e.loadParams()
		if err != nil {
			return err
		}
		previous := params.TicketPrice
		params.TicketPrice = new(big.Int).Set(price)
		if err := e.state.PutLotteryParams(params); err != nil {
			return err
		}
		e.emit(PriceUpdatedEvent(previous, price))
		return nil
	})
}

// BuyTickets purchases count tickets for caller, pulling count*price from the
// caller through the ledger allowance granted to the lottery account. The round
// is written before the ledger is called and restored if the ledger refuses.
// Ledger errors are returned unchanged.
func (e *Engine) BuyTickets(caller Identity, count uint64) error {
	return e.run(func() error {
		if caller == (Identity{}) || count == 0 {
			return ErrInvalidArgument
		}
		if err := e.requireLedger(); err != nil {
			return err
		}
		params, err := e.loadParams()
		if err != nil {
			return err
		}
		round, err := e.loadRound()
		if err != nil {
			return err
		}
		cost, err := ticketCost(count, params.TicketPrice)
		if err != nil {
			return err
		}
		total, err := addTickets(round.Total, count)
		if err != nil {
			return err
		}
		held, err := addTickets(round.TicketsOf(caller), count)
		if err != nil {
			return err
		}
		pot, err := addAmount(round.Pot, cost)
		if err != nil {
			return err
		}
		previous := round.Clone()
		round.credit(caller, count)
		round.Total = total
		round.Pot = pot
		if err := e.state.PutLotteryRound(round); err != nil {
			return err
		}
		e.onFailure(func() error { return e.state.PutLotteryRound(previous) })
		if err := e.ledger.TransferFrom(e.account, caller, e.account, cost); err != nil {
			return err
		}
		e.emit(TicketsPurchasedEvent(round.Number, caller, count, held, total, cost))
		return nil
	})
}

// Tickets returns the number of tickets caller holds in the open round.
func (e *Engine) Tickets(caller Identity) (uint64, error) {
	var count uint64
	err := e.view(func() error {
		round, err := e.loadRound()
		if err != nil {
			return err
		}
		count = round.TicketsOf(caller)
		return nil
	})
	return count, err
}

// Round returns a copy of the open round. It exposes every participant's
// holdings and is therefore restricted to the owner and managers.
func (e *Engine) Round(caller Identity) (*Round, error) {
	var out *Round
	err := e.view(func() error {
		if err := e.requireOwnerOrManager(caller); err != nil {
			return err
		}
		round, err := e.loadRound()
		if err != nil {
			return err
		}
		out = round.Clone()
		return nil
	})
	return out, err
}
