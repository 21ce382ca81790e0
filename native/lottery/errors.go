package lottery

import (
	"errors"

	"potlottery/native/token"
)

var (
	ErrUnauthorized    = errors.New("lottery: unauthorized")
	ErrInvalidArgument = errors.New("lottery: invalid argument")
	ErrTooManyManagers = errors.New("lottery: too many managers")
	ErrRateLimited     = errors.New("lottery: draw cooldown active")
	ErrEmptyRound      = errors.New("lottery: no tickets")
	ErrNotFound        = errors.New("lottery: not found")
	ErrOverflow        = errors.New("lottery: arithmetic overflow")
	ErrReentrant       = errors.New("lottery: operation already in flight")
	ErrRandomness      = errors.New("lottery: randomness source out of range")
	ErrNilState        = errors.New("lottery: state not configured")
	errNilLedger       = errors.New("lottery: ledger not configured")
)

// Reason maps an error returned by the engine or its ledger to a stable,
// machine-readable code. Unknown errors map to "internal".
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrTooManyManagers):
		return "too_many_managers"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrEmptyRound):
		return "empty_round"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrOverflow):
		return "overflow"
	case errors.Is(err, ErrReentrant):
		return "reentrant"
	case errors.Is(err, ErrRandomness):
		return "randomness"
	case errors.Is(err, token.ErrInsufficientAllowance):
		return "insufficient_allowance"
	case errors.Is(err, token.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, token.ErrInvalidAmount):
		return "invalid_argument"
	default:
		return "internal"
	}
}
