package rpc

import (
	"errors"
	"net/http"

	"potlottery/native/common"
	"potlottery/native/lottery"
	"potlottery/native/token"
)

type reasonData struct {
	Reason string `json:"reason"`
}

// toRPCError classifies an engine or ledger failure.
func toRPCError(err error) *RPCError {
	if err == nil {
		return nil
	}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	switch {
	case errors.Is(err, token.ErrFaucetDisabled):
		return newError(http.StatusForbidden, codeForbidden, err.Error(), reasonData{Reason: "faucet_disabled"})
	case errors.Is(err, common.ErrQuotaRequestsExceeded), errors.Is(err, common.ErrQuotaAmountExceeded):
		return newError(http.StatusTooManyRequests, codeRateLimited, err.Error(), reasonData{Reason: "quota_exceeded"})
	case errors.Is(err, token.ErrInvalidAddress):
		return newError(http.StatusBadRequest, codeInvalidParams, err.Error(), reasonData{Reason: "invalid_argument"})
	}

	reason := lottery.Reason(err)
	status, code := http.StatusInternalServerError, codeServerError
	switch reason {
	case "unauthorized":
		status, code = http.StatusForbidden, codeForbidden
	case "invalid_argument", "overflow":
		status, code = http.StatusBadRequest, codeInvalidParams
	case "too_many_managers", "reentrant":
		status, code = http.StatusConflict, codeConflict
	case "not_found":
		status, code = http.StatusNotFound, codeNotFound
	case "rate_limited":
		status, code = http.StatusTooManyRequests, codeDrawCooldown
	case "empty_round":
		status, code = http.StatusConflict, codeEmptyRound
	case "insufficient_allowance", "insufficient_balance":
		status, code = http.StatusPaymentRequired, codeLedger
	}
	message := err.Error()
	if reason == "internal" {
		message = "internal error"
	}
	return newError(status, code, message, reasonData{Reason: reason})
}
