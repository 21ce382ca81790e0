package rpc

import (
	"math/big"
)

type mintParams struct {
	Amount string `json:"amount"`
}

type approveParams struct {
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

type transferParams struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type balanceParams struct {
	Address string `json:"address"`
}

type allowanceParams struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
}

func (s *Server) handleTokenMint(c *call) (interface{}, *RPCError) {
	var params mintParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	amount, rpcErr := parseAmount(params.Amount, "amount")
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.mutate("token_mint", func() error {
		return s.deps.Token.Faucet(c.caller, amount)
	}); err != nil {
		return nil, err
	}
	return s.balanceResult(c.caller)
}

func (s *Server) handleTokenApprove(c *call) (interface{}, *RPCError) {
	var params approveParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	spender, rpcErr := parseIdentity(params.Spender, "spender")
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseAmount(params.Amount, "amount")
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.mutate("token_approve", func() error {
		return s.deps.Token.Approve(c.caller, spender, amount)
	}); err != nil {
		return nil, err
	}
	return map[string]string{"allowance": amount.String()}, nil
}

func (s *Server) handleTokenTransfer(c *call) (interface{}, *RPCError) {
	var params transferParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	to, rpcErr := parseIdentity(params.To, "to")
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseAmount(params.Amount, "amount")
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.mutate("token_transfer", func() error {
		return s.deps.Token.Transfer(c.caller, to, amount)
	}); err != nil {
		return nil, err
	}
	return s.balanceResult(c.caller)
}

func (s *Server) handleTokenBalanceOf(c *call) (interface{}, *RPCError) {
	var params balanceParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	addr, rpcErr := parseIdentity(params.Address, "address")
	if rpcErr != nil {
		return nil, rpcErr
	}
	return s.balanceResult(addr)
}

func (s *Server) balanceResult(addr [20]byte) (interface{}, *RPCError) {
	var balance *big.Int
	if err := s.read(func() error {
		var err error
		balance, err = s.deps.Token.BalanceOf(addr)
		return err
	}); err != nil {
		return nil, err
	}
	return map[string]string{
		"address": formatIdentity(addr),
		"balance": formatAmount(balance),
		"symbol":  s.deps.Token.Symbol(),
	}, nil
}

func (s *Server) handleTokenAllowance(c *call) (interface{}, *RPCError) {
	var params allowanceParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	owner, rpcErr := parseIdentity(params.Owner, "owner")
	if rpcErr != nil {
		return nil, rpcErr
	}
	spender, rpcErr := parseIdentity(params.Spender, "spender")
	if rpcErr != nil {
		return nil, rpcErr
	}
	var allowance *big.Int
	if err := s.read(func() error {
		var err error
		allowance, err = s.deps.Token.Allowance(owner, spender)
		return err
	}); err != nil {
		return nil, err
	}
	return map[string]string{"allowance": formatAmount(allowance)}, nil
}
