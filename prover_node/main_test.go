package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"zk-sampler/prover"
	"zk-sampler/shared"
)

func newTestServer(t *testing.T, token string) (*httptest.Server, *node) {
	t.Helper()
	config := &ProverNodeConfig{
		ProveTimeout:        10 * time.Second,
		ProofCacheTTL:       time.Minute,
		ProofCacheSize:      8,
		MaxConcurrentProofs: 2,
		AuthToken:           token,
		Key:                 shared.ProverKeyConfig{Source: shared.KeySourceEphemeral},
	}
	logger := shared.WrapLogger("prover-node", zaptest.NewLogger(t))
	n, err := newNode(context.Background(), config, logger)
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}
	server := httptest.NewServer(setupRoutes(n))
	t.Cleanup(server.Close)
	return server, n
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(t, "")
	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "OK" {
		t.Errorf("Unexpected health response %d %q", resp.StatusCode, body)
	}
}

func TestInfo(t *testing.T) {
	server, n := newTestServer(t, "")
	resp, err := http.Get(server.URL + "/info")
	if err != nil {
		t.Fatalf("GET /info failed: %v", err)
	}
	defer resp.Body.Close()

	var info map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("Failed to decode info: %v", err)
	}
	if info["prover_address"] != n.address {
		t.Errorf("Expected prover address %s, got %v", n.address, info["prover_address"])
	}
	if info["verification_key"] != prover.VerificationKey() {
		t.Errorf("Unexpected verification key %v", info["verification_key"])
	}
}

func TestProveOverWebsocket(t *testing.T) {
	server, n := newTestServer(t, "secret")
	input, err := shared.MarshalInputRecord(&shared.InputRecord{
		Samples:    []int16{100, 200, -50, 0},
		SampleRate: 8000,
		Transforms: shared.TransformList{shared.Reverse()},
	})
	if err != nil {
		t.Fatalf("Failed to marshal input: %v", err)
	}

	t.Run("Authorized", func(t *testing.T) {
		remote, err := prover.NewRemoteHost(wsURL(server), "secret", zaptest.NewLogger(t))
		if err != nil {
			t.Fatalf("Failed to create remote host: %v", err)
		}
		result, err := remote.Prove(context.Background(), input)
		if err != nil {
			t.Fatalf("Prove failed: %v", err)
		}
		if result.ProverAddress.Hex() != n.address {
			t.Errorf("Expected prover %s, got %s", n.address, result.ProverAddress.Hex())
		}

		// second identical request is served from the cache
		if _, err := remote.Prove(context.Background(), input); err != nil {
			t.Fatalf("Second prove failed: %v", err)
		}
		if m := n.cache.Metrics(); m.CacheHits == 0 {
			t.Errorf("Expected a cache hit, metrics %+v", m)
		}
	})

	t.Run("Unauthorized", func(t *testing.T) {
		remote, _ := prover.NewRemoteHost(wsURL(server), "wrong", nil)
		if _, err := remote.Prove(context.Background(), input); !shared.IsProverError(err) {
			t.Fatalf("Expected ProverError, got %v", err)
		}
	})
}

func TestRequireTokenLogsRejection(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := shared.WrapLogger("prover-node", zap.New(core))
	handler := requireToken(logger, "secret", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, header := range []string{"", "Bearer wrong", "secret"} {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Authorization %q: expected 401, got %d", header, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for valid token, got %d", rec.Code)
	}

	security := logs.FilterField(zap.Bool("security_event", true))
	if security.Len() != 3 {
		t.Fatalf("Expected 3 security events, got %d", security.Len())
	}
	if security.All()[0].ContextMap()["remote_addr"] == "" {
		t.Error("Expected remote address on security event")
	}
}
