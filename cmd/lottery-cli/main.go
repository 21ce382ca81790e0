package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"potlottery/cmd/internal/passphrase"
	"potlottery/config"
	"potlottery/crypto"
	"potlottery/rpc"
)

const (
	keystorePassEnv = "LOTTERY_KEYSTORE_PASSPHRASE"
	rpcTokenEnv     = "LOTTERY_RPC_TOKEN"
)

var rpcEndpoint = defaultRPCEndpoint()
var rpcAuthToken = os.Getenv(rpcTokenEnv)

func main() {
	args, err := applyGlobalFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := run(args, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		printUsage(out)
		return nil
	}
	switch args[0] {
	case "keygen":
		path := "lottery.keystore"
		if len(args) > 1 {
			path = args[1]
		}
		return keygen(path, passphrase.NewSource(keystorePassEnv).Get, out)
	case "address":
		if len(args) < 2 {
			return errors.New("address requires a keystore path")
		}
		return showAddress(args[1], passphrase.NewSource(keystorePassEnv).Get, out)
	case "token":
		if len(args) < 2 {
			return errors.New("token requires a lottery address")
		}
		ttl := time.Hour
		if len(args) > 2 {
			parsed, err := time.ParseDuration(args[2])
			if err != nil {
				return fmt.Errorf("invalid ttl: %w", err)
			}
			ttl = parsed
		}
		return issueToken(args[1], ttl, out)
	case "call":
		if len(args) < 2 {
			return errors.New("call requires a method name")
		}
		params := ""
		if len(args) > 2 {
			params = args[2]
		}
		return callRPC(args[1], params, out)
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	default:
		printUsage(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func defaultRPCEndpoint() string {
	if v := strings.TrimSpace(os.Getenv("LOTTERY_RPC_URL")); v != "" {
		return v
	}
	return "http://localhost:8545"
}

func applyGlobalFlags(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--rpc" || arg == "--token":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value for %s", arg)
			}
			if arg == "--rpc" {
				rpcEndpoint = args[i+1]
			} else {
				rpcAuthToken = args[i+1]
			}
			i++
		case strings.HasPrefix(arg, "--rpc="):
			rpcEndpoint = strings.TrimPrefix(arg, "--rpc=")
		case strings.HasPrefix(arg, "--token="):
			rpcAuthToken = strings.TrimPrefix(arg, "--token=")
		default:
			out = append(out, arg)
		}
	}
	return out, nil
}

func keygen(path string, pass func() (string, error), out io.Writer) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists; refusing to overwrite", path)
	}
	secret, err := pass()
	if err != nil {
		return err
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return err
	}
	if err := crypto.SaveToKeystore(path, key, secret, false); err != nil {
		return fmt.Errorf("save keystore: %w", err)
	}
	fmt.Fprintf(out, "Saved encrypted key to %s\n", path)
	fmt.Fprintf(out, "Address: %s\n", key.PubKey().Address().String())
	return nil
}

func showAddress(path string, pass func() (string, error), out io.Writer) error {
	secret, err := pass()
	if err != nil {
		return err
	}
	key, err := crypto.LoadFromKeystore(path, secret)
	if err != nil {
		return fmt.Errorf("load keystore: %w", err)
	}
	fmt.Fprintln(out, key.PubKey().Address().String())
	return nil
}

// issueToken signs a bearer token with the daemon's shared secret.
func issueToken(address string, ttl time.Duration, out io.Writer) error {
	addr, err := crypto.DecodeAddress(address)
	if err != nil {
		return err
	}
	secret := os.Getenv(config.EnvAuthSecret)
	if strings.TrimSpace(secret) == "" {
		return fmt.Errorf("%s must be set to issue tokens", config.EnvAuthSecret)
	}
	defaults := config.Default().Auth
	issuer := envOr("LOTTERY_AUTH_ISSUER", defaults.Issuer)
	audience := envOr("LOTTERY_AUTH_AUDIENCE", defaults.Audience)
	token, err := rpc.IssueToken(rpc.AuthConfig{HMACSecret: secret, Issuer: issuer, Audience: audience}, addr, ttl, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func callRPC(method, params string, out io.Writer) error {
	payload := map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": method}
	if trimmed := strings.TrimSpace(params); trimmed != "" {
		if !json.Valid([]byte(trimmed)) {
			return errors.New("params must be a JSON object")
		}
		payload["params"] = []json.RawMessage{json.RawMessage(trimmed)}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, rpcEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := strings.TrimSpace(rpcAuthToken); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", rpcEndpoint, err)
	}
	defer resp.Body.Close()

	var decoded rpc.RPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode response (HTTP %d): %w", resp.StatusCode, err)
	}
	if decoded.Error != nil {
		return fmt.Errorf("rpc error %d: %s", decoded.Error.Code, describeErrorData(decoded.Error))
	}
	pretty, err := json.MarshalIndent(decoded.Result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(pretty))
	return nil
}

func describeErrorData(e *rpc.RPCError) string {
	if data, ok := e.Data.(map[string]interface{}); ok {
		if reason, ok := data["reason"].(string); ok && reason != "" {
			return e.Message + " (" + reason + ")"
		}
	}
	return e.Message
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "Usage: lottery-cli [--rpc URL] [--token JWT] <command> [arguments]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  keygen [path]               Generate an encrypted key (passphrase from "+keystorePassEnv+" or prompt)")
	fmt.Fprintln(out, "  address <keystore>          Print the address stored in a keystore")
	fmt.Fprintln(out, "  token <address> [ttl]       Issue a bearer token (needs "+config.EnvAuthSecret+")")
	fmt.Fprintln(out, "  call <method> [json-object] Invoke a JSON-RPC method, e.g. call lottery_buyTickets '{\"count\":2}'")
}
