package lottery

import (
	"math/big"

	"github.com/holiman/uint256"
)

func toU256(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, ErrInvalidArgument
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// ticketCost returns count*price, failing on 256-bit overflow.
func ticketCost(count uint64, price *big.Int) (*big.Int, error) {
	p, err := toU256(price)
	if err != nil {
		return nil, err
	}
	cost, overflow := new(uint256.Int).MulOverflow(p, uint256.NewInt(count))
	if overflow {
		return nil, ErrOverflow
	}
	return cost.ToBig(), nil
}

func addAmount(a, b *big.Int) (*big.Int, error) {
	x, err := toU256(a)
	if err != nil {
		return nil, err
	}
	y, err := toU256(b)
	if err != nil {
		return nil, err
	}
	sum, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return sum.ToBig(), nil
}

func addTickets(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}

// splitPot divides pot into the winner's prize, floor(pot*(10000-bps)/10000),
// and the retained fee, pot-prize.
func splitPot(pot *big.Int, feeBps uint32) (prize, fee *big.Int, err error) {
	if feeBps > bpsDenominator {
		return nil, nil, ErrInvalidArgument
	}
	p, err := toU256(pot)
	if err != nil {
		return nil, nil, err
	}
	share := uint256.NewInt(uint64(bpsDenominator - feeBps))
	prizeU, overflow := new(uint256.Int).MulDivOverflow(p, share, uint256.NewInt(bpsDenominator))
	if overflow {
		return nil, nil, ErrOverflow
	}
	feeU := new(uint256.Int).Sub(p, prizeU)
	return prizeU.ToBig(), feeU.ToBig(), nil
}
