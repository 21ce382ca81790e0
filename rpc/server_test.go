package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"potlottery/core"
	"potlottery/core/events"
	"potlottery/core/state"
	"potlottery/core/types"
	"potlottery/crypto"
	"potlottery/native/common"
	"potlottery/native/lottery"
	"potlottery/native/token"
	"potlottery/storage"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var (
	ownerID  = lottery.Identity{0xA0}
	playerID = lottery.Identity{0x01}
)

type rpcEnv struct {
	srv     *httptest.Server
	auth    AuthConfig
	lottery *lottery.Engine
}

type rpcReply struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
	status int
}

func newRPCEnv(t *testing.T, limit RateLimitConfig) *rpcEnv {
	t.Helper()
	mgr := state.NewManager(storage.NewMemDB())
	bus := events.NewBus()
	exec := core.NewExecutor(mgr, bus)

	ledger := token.NewEngine("LOT")
	ledger.SetState(mgr)
	ledger.SetEmitter(bus)
	ledger.SetFaucet(true, common.Quota{MaxRequestsPerEpoch: 10, MaxAmountPerEpoch: big.NewInt(1_000), EpochSeconds: 3600})

	source, err := lottery.NewBeaconSource([]byte("rpc-test"))
	require.NoError(t, err)
	engine, err := lottery.NewEngine(ownerID, ledger, source)
	require.NoError(t, err)
	engine.SetState(mgr)
	engine.SetEmitter(bus)
	require.NoError(t, exec.Apply(func() error { return engine.Initialize(big.NewInt(20)) }))

	auth := AuthConfig{HMACSecret: testSecret, Issuer: "potlottery", Audience: "lottery-rpc"}
	server, err := NewServer(Deps{Executor: exec, Lottery: engine, Token: ledger, Bus: bus}, ServerConfig{Auth: auth, RateLimit: limit})
	require.NoError(t, err)
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)
	return &rpcEnv{srv: srv, auth: auth, lottery: engine}
}

func (e *rpcEnv) token(t *testing.T, id lottery.Identity) string {
	t.Helper()
	tok, err := IssueToken(e.auth, crypto.AddressFromArray(id), time.Hour, time.Now())
	require.NoError(t, err)
	return tok
}

func (e *rpcEnv) call(t *testing.T, bearer, method string, params interface{}) rpcReply {
	t.Helper()
	req := map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": method}
	if params != nil {
		req["params"] = []interface{}{params}
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	return e.post(t, bearer, body)
}

func (e *rpcEnv) post(t *testing.T, bearer string, body []byte) rpcReply {
	t.Helper()
	httpReq, err := http.NewRequest(http.MethodPost, e.srv.URL+"/", bytes.NewReader(body))
	require.NoError(t, err)
	httpReq.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := e.srv.Client().Do(httpReq)
	require.NoError(t, err)
	defer resp.Body.Close()
	var reply rpcReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
	reply.status = resp.StatusCode
	return reply
}

func decodeResult(t *testing.T, reply rpcReply, out interface{}) {
	t.Helper()
	require.Nil(t, reply.Error, "unexpected rpc error: %+v", reply.Error)
	require.NoError(t, json.Unmarshal(reply.Result, out))
}

func errorReason(t *testing.T, reply rpcReply) string {
	t.Helper()
	require.NotNil(t, reply.Error)
	data, ok := reply.Error.Data.(map[string]interface{})
	require.True(t, ok, "missing error data: %+v", reply.Error)
	reason, _ := data["reason"].(string)
	return reason
}

func TestScenarioOverJSONRPC(t *testing.T) {
	env := newRPCEnv(t, RateLimitConfig{})
	player := env.token(t, playerID)
	owner := env.token(t, ownerID)
	lotteryAddr := crypto.AddressFromArray(env.lottery.Account()).String()

	var balance map[string]string
	decodeResult(t, env.call(t, player, "token_mint", map[string]string{"amount": "40"}), &balance)
	require.Equal(t, "40", balance["balance"])

	decodeResult(t, env.call(t, player, "token_approve", map[string]string{"spender": lotteryAddr, "amount": "40"}), &balance)

	var tickets map[string]uint64
	decodeResult(t, env.call(t, player, "lottery_buyTickets", map[string]uint64{"count": 2}), &tickets)
	require.Equal(t, uint64(2), tickets["tickets"])

	var prize map[string]string
	decodeResult(t, env.call(t, "", "lottery_getPrizeTotal", nil), &prize)
	require.Equal(t, "38", prize["prize"])

	var draw drawResult
	decodeResult(t, env.call(t, owner, "lottery_draw", nil), &draw)
	require.Equal(t, crypto.AddressFromArray(playerID).String(), draw.Winner)
	require.Equal(t, "40", draw.Pot)
	require.Equal(t, "38", draw.Prize)
	require.Equal(t, "2", draw.Fee)
	require.NotEmpty(t, draw.ID)

	var fees map[string]string
	decodeResult(t, env.call(t, owner, "lottery_getFeeTotal", nil), &fees)
	require.Equal(t, "2", fees["fees"])

	var withdrawn map[string]string
	ownerAddr := crypto.AddressFromArray(ownerID).String()
	decodeResult(t, env.call(t, owner, "lottery_ownerWithdraw", map[string]string{"to": ownerAddr}), &withdrawn)
	require.Equal(t, "2", withdrawn["amount"])

	decodeResult(t, env.call(t, "", "token_balanceOf", map[string]string{"address": crypto.AddressFromArray(playerID).String()}), &balance)
	require.Equal(t, "38", balance["balance"])
	decodeResult(t, env.call(t, "", "token_balanceOf", map[string]string{"address": ownerAddr}), &balance)
	require.Equal(t, "2", balance["balance"])
}

func TestUnauthenticatedCallRejected(t *testing.T) {
	env := newRPCEnv(t, RateLimitConfig{})
	reply := env.call(t, "", "lottery_buyTickets", map[string]uint64{"count": 1})
	require.Equal(t, http.StatusUnauthorized, reply.status)
	require.Equal(t, codeUnauthorized, reply.Error.Code)

	reply = env.call(t, "not-a-token", "lottery_getTickets", nil)
	require.Equal(t, codeUnauthorized, reply.Error.Code)
}

func TestTokenFromOtherIssuerRejected(t *testing.T) {
	env := newRPCEnv(t, RateLimitConfig{})
	other := env.auth
	other.Issuer = "someone-else"
	tok, err := IssueToken(other, crypto.AddressFromArray(playerID), time.Hour, time.Now())
	require.NoError(t, err)
	reply := env.call(t, tok, "lottery_getTickets", nil)
	require.Equal(t, codeUnauthorized, reply.Error.Code)
}

func TestRoleFailuresCarryReason(t *testing.T) {
	env := newRPCEnv(t, RateLimitConfig{})
	player := env.token(t, playerID)

	reply := env.call(t, player, "lottery_draw", nil)
	require.Equal(t, http.StatusForbidden, reply.status)
	require.Equal(t, codeForbidden, reply.Error.Code)
	require.Equal(t, "unauthorized", errorReason(t, reply))

	reply = env.call(t, player, "lottery_setTicketPrice", map[string]string{"price": "5"})
	require.Equal(t, "unauthorized", errorReason(t, reply))
}

func TestDrawOnEmptyRound(t *testing.T) {
	env := newRPCEnv(t, RateLimitConfig{})
	reply := env.call(t, env.token(t, ownerID), "lottery_draw", nil)
	require.Equal(t, codeEmptyRound, reply.Error.Code)
	require.Equal(t, "empty_round", errorReason(t, reply))
}

func TestBuyWithoutAllowance(t *testing.T) {
	env := newRPCEnv(t, RateLimitConfig{})
	player := env.token(t, playerID)
	var balance map[string]string
	decodeResult(t, env.call(t, player, "token_mint", map[string]string{"amount": "40"}), &balance)

	reply := env.call(t, player, "lottery_buyTickets", map[string]uint64{"count": 1})
	require.Equal(t, codeLedger, reply.Error.Code)
	require.Equal(t, "insufficient_allowance", errorReason(t, reply))

	decodeResult(t, env.call(t, "", "token_balanceOf", map[string]string{"address": crypto.AddressFromArray(playerID).String()}), &balance)
	require.Equal(t, "40", balance["balance"])
}

func TestManagerLifecycle(t *testing.T) {
	env := newRPCEnv(t, RateLimitConfig{})
	owner := env.token(t, ownerID)
	managerAddr := crypto.AddressFromArray(playerID).String()

	var ok map[string]bool
	decodeResult(t, env.call(t, owner, "lottery_addManager", map[string]string{"address": managerAddr}), &ok)

	var member map[string]bool
	decodeResult(t, env.call(t, env.token(t, playerID), "lottery_isManager", nil), &member)
	require.True(t, member["manager"])

	var listed map[string][]string
	decodeResult(t, env.call(t, owner, "lottery_listManagers", nil), &listed)
	require.Equal(t, []string{managerAddr}, listed["managers"])

	reply := env.call(t, owner, "lottery_addManager", map[string]string{"address": managerAddr})
	require.Equal(t, "invalid_argument", errorReason(t, reply))

	decodeResult(t, env.call(t, owner, "lottery_removeManager", map[string]string{"address": managerAddr}), &ok)
	reply = env.call(t, owner, "lottery_removeManager", map[string]string{"address": managerAddr})
	require.Equal(t, codeNotFound, reply.Error.Code)
}

func TestMalformedRequests(t *testing.T) {
	env := newRPCEnv(t, RateLimitConfig{})

	reply := env.post(t, "", []byte("{not json"))
	require.Equal(t, codeParseError, reply.Error.Code)

	reply = env.call(t, "", "lottery_unknown", nil)
	require.Equal(t, codeMethodNotFound, reply.Error.Code)

	reply = env.call(t, env.token(t, playerID), "lottery_buyTickets", map[string]uint64{"count": 0})
	require.Equal(t, codeInvalidParams, reply.Error.Code)

	reply = env.call(t, "", "token_balanceOf", map[string]string{"address": "bogus"})
	require.Equal(t, codeInvalidParams, reply.Error.Code)
	require.Equal(t, "invalid_argument", errorReason(t, reply))
}

func TestBuyNonPositiveCountCarriesReason(t *testing.T) {
	env := newRPCEnv(t, RateLimitConfig{})
	player := env.token(t, playerID)
	lotteryAddr := crypto.AddressFromArray(env.lottery.Account()).String()
	decodeResult(t, env.call(t, player, "token_mint", map[string]string{"amount": "40"}), new(map[string]string))
	decodeResult(t, env.call(t, player, "token_approve", map[string]string{"spender": lotteryAddr, "amount": "40"}), new(map[string]string))

	for _, count := range []int64{0, -1} {
		reply := env.call(t, player, "lottery_buyTickets", map[string]int64{"count": count})
		require.Equal(t, http.StatusBadRequest, reply.status, "count %d", count)
		require.Equal(t, codeInvalidParams, reply.Error.Code, "count %d", count)
		require.Equal(t, "invalid_argument", errorReason(t, reply), "count %d", count)
	}

	reply := env.call(t, player, "token_approve", map[string]string{"spender": lotteryAddr, "amount": "-5"})
	require.Equal(t, "invalid_argument", errorReason(t, reply))

	var tickets map[string]uint64
	decodeResult(t, env.call(t, player, "lottery_getTickets", nil), &tickets)
	require.Zero(t, tickets["tickets"])
	var balance map[string]string
	decodeResult(t, env.call(t, "", "token_balanceOf", map[string]string{"address": crypto.AddressFromArray(playerID).String()}), &balance)
	require.Equal(t, "40", balance["balance"])
}

func TestRateLimitPerCaller(t *testing.T) {
	env := newRPCEnv(t, RateLimitConfig{RequestsPerMinute: 1, Burst: 1})
	player := env.token(t, playerID)

	var tickets map[string]uint64
	decodeResult(t, env.call(t, player, "lottery_getTickets", nil), &tickets)

	reply := env.call(t, player, "lottery_getTickets", nil)
	require.Equal(t, http.StatusTooManyRequests, reply.status)
	require.Equal(t, codeRateLimited, reply.Error.Code)

	// Another caller has its own bucket.
	decodeResult(t, env.call(t, env.token(t, ownerID), "lottery_getTickets", nil), &tickets)
}

func TestListDrawsWithoutHistory(t *testing.T) {
	env := newRPCEnv(t, RateLimitConfig{})
	var out map[string][]json.RawMessage
	decodeResult(t, env.call(t, "", "lottery_listDraws", map[string]int{"limit": 5}), &out)
	require.Empty(t, out["draws"])
}

func TestHealthz(t *testing.T) {
	env := newRPCEnv(t, RateLimitConfig{})
	resp, err := env.srv.Client().Get(env.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEventStreamDeliversCommittedEvents(t *testing.T) {
	env := newRPCEnv(t, RateLimitConfig{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/ws/events?types=token.mint"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	var balance map[string]string
	decodeResult(t, env.call(t, env.token(t, playerID), "token_mint", map[string]string{"amount": "7"}), &balance)

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var evt types.Event
	require.NoError(t, json.Unmarshal(data, &evt))
	require.Equal(t, events.TypeTokenMint, evt.Type)
	require.Equal(t, "7", evt.Attributes["amount"])
}
