package rpc

import (
	"math/big"
	"net/http"

	"potlottery/native/lottery"
	"potlottery/observability/metrics"
	"potlottery/services/history"
)

const (
	defaultDrawLimit = 20
	maxDrawLimit     = 500
)

type buyTicketsParams struct {
	Count uint64 `json:"count"`
}

type priceParams struct {
	Price string `json:"price"`
}

type managerParams struct {
	Address string `json:"address"`
}

type withdrawParams struct {
	To string `json:"to"`
}

type listDrawsParams struct {
	Limit int `json:"limit"`
}

type drawResult struct {
	ID      string `json:"id"`
	Round   uint64 `json:"round"`
	Winner  string `json:"winner"`
	Tickets uint64 `json:"tickets"`
	Total   uint64 `json:"totalTickets"`
	Pot     string `json:"pot"`
	Prize   string `json:"prize"`
	Fee     string `json:"fee"`
	DrawnAt int64  `json:"drawnAt"`
}

type roundEntry struct {
	Holder  string `json:"holder"`
	Tickets uint64 `json:"tickets"`
}

type roundResult struct {
	Number  uint64       `json:"number"`
	Entries []roundEntry `json:"entries"`
	Total   uint64       `json:"totalTickets"`
	Pot     string       `json:"pot"`
}

// mutate runs fn through the executor and records failures by reason.
func (s *Server) mutate(op string, fn func() error) *RPCError {
	if err := s.deps.Executor.Apply(fn); err != nil {
		reason := lottery.Reason(err)
		metrics.Lottery().RecordFailure(op, reason)
		if reason == "internal" {
			s.logger.Error("lottery operation failed", "op", op, "error", err)
		}
		return toRPCError(err)
	}
	return nil
}

func (s *Server) read(fn func() error) *RPCError {
	if err := s.deps.Executor.View(fn); err != nil {
		return toRPCError(err)
	}
	return nil
}

// refreshGauges publishes the open pot and retained fees.
func (s *Server) refreshGauges() {
	st := s.deps.Executor.State()
	_ = s.deps.Executor.View(func() error {
		if round, ok, err := st.LotteryRound(); err == nil {
			pot := big.NewInt(0)
			if ok && round.Pot != nil {
				pot = round.Pot
			}
			metrics.Lottery().SetPot(pot)
		}
		if fees, err := st.LotteryFees(); err == nil {
			metrics.Lottery().SetFeeBalance(fees)
		}
		return nil
	})
}

func (s *Server) handleBuyTickets(c *call) (interface{}, *RPCError) {
	var params buyTicketsParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	if params.Count == 0 {
		return nil, invalidParams("count must be positive")
	}
	if err := s.mutate("buy_tickets", func() error {
		return s.deps.Lottery.BuyTickets(c.caller, params.Count)
	}); err != nil {
		return nil, err
	}
	metrics.Lottery().ObserveTickets(params.Count)
	s.refreshGauges()
	var held uint64
	if err := s.read(func() error {
		var err error
		held, err = s.deps.Lottery.Tickets(c.caller)
		return err
	}); err != nil {
		return nil, err
	}
	return map[string]uint64{"tickets": held}, nil
}

func (s *Server) handleDraw(c *call) (interface{}, *RPCError) {
	var result *lottery.DrawResult
	if err := s.mutate("draw", func() error {
		var err error
		result, err = s.deps.Lottery.Draw(c.caller)
		return err
	}); err != nil {
		return nil, err
	}
	metrics.Lottery().ObserveDraw(result.Prize, result.DrawnAt)
	s.refreshGauges()
	s.logger.Info("draw settled",
		"round", result.Round,
		"winner", formatIdentity(result.Winner),
		"prize", result.Prize.String(),
		"fee", result.Fee.String())
	return drawResultFrom(result), nil
}

func drawResultFrom(result *lottery.DrawResult) drawResult {
	return drawResult{
		ID:      result.ID.String(),
		Round:   result.Round,
		Winner:  formatIdentity(result.Winner),
		Tickets: result.Tickets,
		Total:   result.Total,
		Pot:     formatAmount(result.Pot),
		Prize:   formatAmount(result.Prize),
		Fee:     formatAmount(result.Fee),
		DrawnAt: result.DrawnAt,
	}
}

func (s *Server) handleSetTicketPrice(c *call) (interface{}, *RPCError) {
	var params priceParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	price, rpcErr := parseAmount(params.Price, "price")
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.mutate("set_price", func() error {
		return s.deps.Lottery.SetTicketPrice(c.caller, price)
	}); err != nil {
		return nil, err
	}
	return map[string]string{"price": price.String()}, nil
}

func (s *Server) handleAddManager(c *call) (interface{}, *RPCError) {
	return s.changeManager(c, "add_manager", s.deps.Lottery.AddManager)
}

func (s *Server) handleRemoveManager(c *call) (interface{}, *RPCError) {
	return s.changeManager(c, "remove_manager", s.deps.Lottery.RemoveManager)
}

func (s *Server) changeManager(c *call, op string, fn func(caller, id lottery.Identity) error) (interface{}, *RPCError) {
	var params managerParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	id, rpcErr := parseIdentity(params.Address, "address")
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.mutate(op, func() error { return fn(c.caller, id) }); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

func (s *Server) handleOwnerWithdraw(c *call) (interface{}, *RPCError) {
	var params withdrawParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	recipient, rpcErr := parseIdentity(params.To, "to")
	if rpcErr != nil {
		return nil, rpcErr
	}
	var amount *big.Int
	if err := s.mutate("withdraw", func() error {
		var err error
		amount, err = s.deps.Lottery.OwnerWithdraw(c.caller, recipient)
		return err
	}); err != nil {
		return nil, err
	}
	s.refreshGauges()
	return map[string]string{"amount": formatAmount(amount)}, nil
}

func (s *Server) handleGetTickets(c *call) (interface{}, *RPCError) {
	var held uint64
	if err := s.read(func() error {
		var err error
		held, err = s.deps.Lottery.Tickets(c.caller)
		return err
	}); err != nil {
		return nil, err
	}
	return map[string]uint64{"tickets": held}, nil
}

func (s *Server) handleGetTicketPrice(*call) (interface{}, *RPCError) {
	var price *big.Int
	if err := s.read(func() error {
		var err error
		price, err = s.deps.Lottery.TicketPrice()
		return err
	}); err != nil {
		return nil, err
	}
	return map[string]string{"price": formatAmount(price)}, nil
}

func (s *Server) handleGetPrizeTotal(*call) (interface{}, *RPCError) {
	var prize *big.Int
	if err := s.read(func() error {
		var err error
		prize, err = s.deps.Lottery.PrizeTotal()
		return err
	}); err != nil {
		return nil, err
	}
	return map[string]string{"prize": formatAmount(prize)}, nil
}

func (s *Server) handleIsOwner(c *call) (interface{}, *RPCError) {
	return map[string]bool{"owner": s.deps.Lottery.IsOwner(c.caller)}, nil
}

func (s *Server) handleIsManager(c *call) (interface{}, *RPCError) {
	var member bool
	if err := s.read(func() error {
		var err error
		member, err = s.deps.Lottery.IsManager(c.caller)
		return err
	}); err != nil {
		return nil, err
	}
	return map[string]bool{"manager": member}, nil
}

func (s *Server) handleListManagers(c *call) (interface{}, *RPCError) {
	var managers []lottery.Identity
	if err := s.read(func() error {
		var err error
		managers, err = s.deps.Lottery.ListManagers(c.caller)
		return err
	}); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(managers))
	for _, id := range managers {
		out = append(out, formatIdentity(id))
	}
	return map[string][]string{"managers": out}, nil
}

func (s *Server) handleGetFeeTotal(c *call) (interface{}, *RPCError) {
	var fees *big.Int
	if err := s.read(func() error {
		var err error
		fees, err = s.deps.Lottery.FeeTotal(c.caller)
		return err
	}); err != nil {
		return nil, err
	}
	return map[string]string{"fees": formatAmount(fees)}, nil
}

func (s *Server) handleGetRound(c *call) (interface{}, *RPCError) {
	var round *lottery.Round
	if err := s.read(func() error {
		var err error
		round, err = s.deps.Lottery.Round(c.caller)
		return err
	}); err != nil {
		return nil, err
	}
	out := roundResult{
		Number:  round.Number,
		Entries: make([]roundEntry, 0, len(round.Entries)),
		Total:   round.Total,
		Pot:     formatAmount(round.Pot),
	}
	for _, entry := range round.Entries {
		out.Entries = append(out.Entries, roundEntry{Holder: formatIdentity(entry.Holder), Tickets: entry.Tickets})
	}
	return out, nil
}

func (s *Server) handleListDraws(c *call) (interface{}, *RPCError) {
	var params listDrawsParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	limit := params.Limit
	switch {
	case limit < 0:
		return nil, invalidParams("limit must not be negative")
	case limit == 0:
		limit = defaultDrawLimit
	case limit > maxDrawLimit:
		limit = maxDrawLimit
	}
	if s.deps.History == nil {
		return map[string][]history.Draw{"draws": {}}, nil
	}
	draws, err := s.deps.History.ListDraws(c.ctx, limit)
	if err != nil {
		s.logger.Error("list draws failed", "error", err)
		return nil, newError(http.StatusInternalServerError, codeServerError, "history unavailable", nil)
	}
	if draws == nil {
		draws = []history.Draw{}
	}
	return map[string][]history.Draw{"draws": draws}, nil
}
