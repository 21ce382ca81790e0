package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"potlottery/config"
	"potlottery/crypto"
	"potlottery/rpc"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func fixedPass(value string) func() (string, error) {
	return func() (string, error) { return value, nil }
}

func TestApplyGlobalFlags(t *testing.T) {
	origEndpoint, origToken := rpcEndpoint, rpcAuthToken
	defer func() { rpcEndpoint, rpcAuthToken = origEndpoint, origToken }()

	rest, err := applyGlobalFlags([]string{"--rpc", "http://node:9", "call", "--token=abc", "lottery_draw"})
	require.NoError(t, err)
	require.Equal(t, []string{"call", "lottery_draw"}, rest)
	require.Equal(t, "http://node:9", rpcEndpoint)
	require.Equal(t, "abc", rpcAuthToken)

	_, err = applyGlobalFlags([]string{"--rpc"})
	require.Error(t, err)
}

func TestKeygenAndAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.json")
	var out bytes.Buffer
	require.NoError(t, keygen(path, fixedPass("secret"), &out))
	require.Contains(t, out.String(), "Address: lot1")

	var addrOut bytes.Buffer
	require.NoError(t, showAddress(path, fixedPass("secret"), &addrOut))
	require.Contains(t, out.String(), strings.TrimSpace(addrOut.String()))

	require.Error(t, keygen(path, fixedPass("secret"), io.Discard))
	require.Error(t, showAddress(path, fixedPass("wrong"), io.Discard))
}

func TestIssueTokenVerifiesWithDaemonAuth(t *testing.T) {
	t.Setenv(config.EnvAuthSecret, testSecret)
	addr := crypto.AddressFromArray([20]byte{7})

	var out bytes.Buffer
	require.NoError(t, issueToken(addr.String(), time.Hour, &out))

	defaults := config.Default().Auth
	auth, err := rpc.NewAuthenticator(rpc.AuthConfig{HMACSecret: testSecret, Issuer: defaults.Issuer, Audience: defaults.Audience})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(out.String()))
	id, err := auth.Authenticate(req)
	require.NoError(t, err)
	require.Equal(t, addr.Array(), id)
}

func TestIssueTokenRequiresSecret(t *testing.T) {
	t.Setenv(config.EnvAuthSecret, "")
	err := issueToken(crypto.AddressFromArray([20]byte{7}).String(), time.Hour, io.Discard)
	require.Error(t, err)
}

func TestCallRPC(t *testing.T) {
	var captured map[string]interface{}
	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		if captured["method"] == "lottery_draw" {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32031,"message":"lottery: no tickets","data":{"reason":"empty_round"}}}`))
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"tickets":2}}`))
	}))
	defer srv.Close()

	origEndpoint, origToken := rpcEndpoint, rpcAuthToken
	defer func() { rpcEndpoint, rpcAuthToken = origEndpoint, origToken }()
	rpcEndpoint, rpcAuthToken = srv.URL, "jwt"

	var out bytes.Buffer
	require.NoError(t, callRPC("lottery_buyTickets", `{"count":2}`, &out))
	require.Contains(t, out.String(), `"tickets": 2`)
	require.Equal(t, "Bearer jwt", authHeader)
	params, ok := captured["params"].([]interface{})
	require.True(t, ok)
	require.Len(t, params, 1)

	err := callRPC("lottery_draw", "", io.Discard)
	require.ErrorContains(t, err, "empty_round")

	require.Error(t, callRPC("lottery_buyTickets", "{bad", io.Discard))
}

func TestRunUnknownCommand(t *testing.T) {
	require.Error(t, run([]string{"frobnicate"}, io.Discard))
	require.NoError(t, run(nil, io.Discard))
}
