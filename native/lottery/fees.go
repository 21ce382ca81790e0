package lottery

import "math/big"

// FeeTotal returns the fees retained from settled draws and not yet
// withdrawn. Owner only.
func (e *Engine) FeeTotal(caller Identity) (*big.Int, error) {
	var total *big.Int
	err := e.view(func() error {
		if err := e.requireOwner(caller); err != nil {
			return err
		}
		fees, err := e.loadFees()
		if err != nil {
			return err
		}
		total = cloneBig(fees)
		return nil
	})
	return total, err
}

// OwnerWithdraw transfers the whole fee balance to recipient and returns the
// amount moved. An empty vault transfers zero. Owner only.
func (e *Engine) OwnerWithdraw(caller, recipient Identity) (*big.Int, error) {
	var amount *big.Int
	err := e.run(func() error {
		if err := e.requireOwner(caller); err != nil {
			return err
		}
		if recipient == (Identity{}) {
			return ErrInvalidArgument
		}
		if err := e.requireLedger(); err != nil {
			return err
		}
		fees, err := e.loadFees()
		if err != nil {
			return err
		}
		if err := e.state.PutLotteryFees(big.NewInt(0)); err != nil {
			return err
		}
		e.onFailure(func() error { return e.state.PutLotteryFees(fees) })
		if err := e.ledger.Transfer(e.account, recipient, fees); err != nil {
			return err
		}
		amount = cloneBig(fees)
		e.emit(FeesWithdrawnEvent(caller, recipient, fees))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}
