package rpc

import (
	"context"
	"encoding/json"
	"math/big"
	"strings"

	"potlottery/crypto"
	"potlottery/native/lottery"
)

type handlerFunc func(*call) (interface{}, *RPCError)

type method struct {
	public  bool
	handler handlerFunc
}

type call struct {
	ctx    context.Context
	caller lottery.Identity
	params []json.RawMessage
}

// decode unmarshals the first positional parameter into dst. Missing params
// leave dst untouched.
func (c *call) decode(dst interface{}) *RPCError {
	if len(c.params) == 0 {
		return nil
	}
	if len(c.params) > 1 {
		return invalidParams("expected a single params object")
	}
	if err := json.Unmarshal(c.params[0], dst); err != nil {
		return invalidParams("invalid params: " + err.Error())
	}
	return nil
}

func (s *Server) methodTable() map[string]method {
	return map[string]method{
		"lottery_buyTickets":     {handler: s.handleBuyTickets},
		"lottery_draw":           {handler: s.handleDraw},
		"lottery_setTicketPrice": {handler: s.handleSetTicketPrice},
		"lottery_addManager":     {handler: s.handleAddManager},
		"lottery_removeManager":  {handler: s.handleRemoveManager},
		"lottery_ownerWithdraw":  {handler: s.handleOwnerWithdraw},
		"lottery_getTickets":     {handler: s.handleGetTickets},
		"lottery_getTicketPrice": {public: true, handler: s.handleGetTicketPrice},
		"lottery_getPrizeTotal":  {public: true, handler: s.handleGetPrizeTotal},
		"lottery_isOwner":        {handler: s.handleIsOwner},
		"lottery_isManager":      {handler: s.handleIsManager},
		"lottery_listManagers":   {handler: s.handleListManagers},
		"lottery_getFeeTotal":    {handler: s.handleGetFeeTotal},
		"lottery_getRound":       {handler: s.handleGetRound},
		"lottery_listDraws":      {public: true, handler: s.handleListDraws},
		"token_mint":             {handler: s.handleTokenMint},
		"token_approve":          {handler: s.handleTokenApprove},
		"token_transfer":         {handler: s.handleTokenTransfer},
		"token_balanceOf":        {public: true, handler: s.handleTokenBalanceOf},
		"token_allowance":        {public: true, handler: s.handleTokenAllowance},
	}
}

func parseAmount(value, field string) (*big.Int, *RPCError) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, invalidParams(field + " is required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, invalidParams(field + " must be a base-10 integer")
	}
	if amount.Sign() < 0 {
		return nil, invalidParams(field + " must not be negative")
	}
	return amount, nil
}

func parseIdentity(value, field string) (lottery.Identity, *RPCError) {
	if strings.TrimSpace(value) == "" {
		return lottery.Identity{}, invalidParams(field + " is required")
	}
	addr, err := crypto.DecodeAddress(value)
	if err != nil {
		return lottery.Identity{}, invalidParams("invalid " + field + ": " + err.Error())
	}
	return addr.Array(), nil
}

func formatIdentity(id lottery.Identity) string {
	return crypto.AddressFromArray(id).String()
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
