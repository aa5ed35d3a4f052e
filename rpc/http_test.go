package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v5"

	"gtonstaking/core/events"
	"gtonstaking/observability"
)

func injectClientIP(t *testing.T, srv *Server, req *http.Request) *http.Request {
	t.Helper()
	ip, err := srv.resolveClientIP(req)
	if err != nil {
		t.Fatalf("resolve client ip: %v", err)
	}
	ctx := context.WithValue(req.Context(), clientIPContextKey, ip)
	return req.WithContext(ctx)
}

func TestResolveClientIPRejectsUntrustedForwardedFor(t *testing.T) {
	server := newTestServer(t, nil, nil, ServerConfig{ProxyHeaders: ProxyHeadersConfig{XForwardedFor: ProxyHeaderModeSingle}})
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.5:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	if _, err := server.resolveClientIP(req); err == nil || !strings.Contains(err.Error(), "untrusted") {
		t.Fatalf("expected untrusted proxy error, got %v", err)
	}
}

func TestResolveClientIPTrustsConfiguredProxy(t *testing.T) {
	server := newTestServer(t, nil, nil, ServerConfig{
		TrustedProxies: []string{"10.0.0.5"},
		ProxyHeaders:   ProxyHeadersConfig{XForwardedFor: ProxyHeaderModeSingle},
	})
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.5:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	ip, err := server.resolveClientIP(req)
	if err != nil {
		t.Fatalf("resolve client ip: %v", err)
	}
	if ip != "203.0.113.9" {
		t.Fatalf("expected forwarded address, got %s", ip)
	}
}

func TestServerServeRejectsPlaintextWithoutAllowInsecure(t *testing.T) {
	server := newTestServer(t, nil, nil, ServerConfig{})
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	if err := server.Serve(listener); err == nil || !strings.Contains(err.Error(), "TLS is required") {
		t.Fatalf("expected TLS requirement error, got %v", err)
	}
}

func TestServerServeAllowsPlaintextOnLoopbackWhenExplicit(t *testing.T) {
	server := newTestServer(t, nil, nil, ServerConfig{AllowInsecure: true})
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()

	deadline := time.Now().Add(time.Second)
	for {
		server.serverMu.Lock()
		ready := server.httpServer != nil
		server.serverMu.Unlock()
		if ready {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not start listening before timeout")
		}
		time.Sleep(10 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			t.Fatalf("serve returned unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("serve did not return after shutdown")
	}
}

func TestHandleUnknownMethodReturnsMethodNotFound(t *testing.T) {
	server := newTestServer(t, nil, nil, ServerConfig{})
	body := []byte(`{"jsonrpc":"2.0","method":"staking_doesNotExist","params":[],"id":1}`)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.RemoteAddr = "127.0.0.1:5555"
	rec := httptest.NewRecorder()
	server.handle(rec, req)

	var resp RPCResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("expected method not found error, got %+v", resp.Error)
	}
}

func TestHandleRejectsOversizedBody(t *testing.T) {
	server := newTestServer(t, nil, nil, ServerConfig{})
	body := bytes.Repeat([]byte("a"), maxRequestBytes+1)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.RemoteAddr = "127.0.0.1:5555"
	rec := httptest.NewRecorder()
	server.handle(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestHandleBalanceOfIsUnauthenticated(t *testing.T) {
	owner := common.Address{0x01}
	holder := common.Address{0x02}
	pool := newTestPool(t, owner)
	server := newTestServer(t, pool, nil, ServerConfig{})

	params, _ := json.Marshal(addressParam{Address: bech32Of(holder)})
	body, _ := json.Marshal(RPCRequest{JSONRPC: jsonRPCVersion, Method: "staking_balanceOf", Params: []json.RawMessage{params}, ID: 1})
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.RemoteAddr = "127.0.0.1:5555"
	rec := httptest.NewRecorder()
	server.handle(rec, req)

	var resp RPCResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
}

func TestHandleMintRequiresAuth(t *testing.T) {
	owner := common.Address{0x01}
	pool := newTestPool(t, owner)
	server := newTestServer(t, pool, nil, ServerConfig{})

	params, _ := json.Marshal(mintParams{Caller: bech32Of(owner), Amount: "100"})
	body, _ := json.Marshal(RPCRequest{JSONRPC: jsonRPCVersion, Method: "staking_mint", Params: []json.RawMessage{params}, ID: 1})
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.RemoteAddr = "127.0.0.1:5555"
	rec := httptest.NewRecorder()
	server.handle(rec, req)

	var resp RPCResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized error, got %+v", resp.Error)
	}
}

func signTestJWT(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    "rpc-tests",
		Audience:  jwt.ClaimStrings{"unit-tests"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign test jwt: %v", err)
	}
	return signed
}

func TestHandleMintWithValidAuthSucceeds(t *testing.T) {
	owner := common.Address{0x01}
	pool, asset := newTestPoolWithAsset(t, owner)
	asset.creditCaller(owner, 1_000)
	emitter := events.NewBroadcastEmitter()
	server := newTestServer(t, pool, emitter, ServerConfig{})

	params, _ := json.Marshal(mintParams{Caller: bech32Of(owner), Amount: "100"})
	body, _ := json.Marshal(RPCRequest{JSONRPC: jsonRPCVersion, Method: "staking_mint", Params: []json.RawMessage{params}, ID: 1})
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.RemoteAddr = "127.0.0.1:5555"
	req.Header.Set("Authorization", "Bearer "+signTestJWT(t, owner.Hex()))
	rec := httptest.NewRecorder()
	server.handle(rec, req)

	var resp RPCResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	bal := pool.BalanceOf(owner)
	if bal.Dec() != "100" {
		t.Fatalf("expected balance 100, got %s", bal.Dec())
	}
}

func TestHandleMintRejectsReusedNonce(t *testing.T) {
	owner := common.Address{0x01}
	pool, asset := newTestPoolWithAsset(t, owner)
	asset.creditCaller(owner, 1_000)
	server := newTestServer(t, pool, nil, ServerConfig{})
	bearer := "Bearer " + signTestJWT(t, owner.Hex())

	nonce := uint64(1)
	ttl := int64(60)
	meta := callerMetadataParams{Nonce: &nonce, TTL: &ttl}

	send := func() *RPCResponse {
		params, _ := json.Marshal(mintParams{Caller: bech32Of(owner), Amount: "10", Meta: meta})
		body, _ := json.Marshal(RPCRequest{JSONRPC: jsonRPCVersion, Method: "staking_mint", Params: []json.RawMessage{params}, ID: 1})
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
		req.RemoteAddr = "127.0.0.1:5555"
		req.Header.Set("Authorization", bearer)
		rec := httptest.NewRecorder()
		server.handle(rec, req)
		var resp RPCResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		return &resp
	}

	if resp := send(); resp.Error != nil {
		t.Fatalf("first mint should succeed, got %+v", resp.Error)
	}
	if resp := send(); resp.Error == nil {
		t.Fatalf("expected replayed nonce to be rejected")
	}
}

func TestModuleMetricsHandlerServesPrometheusFormat(t *testing.T) {
	owner := common.Address{0x01}
	pool := newTestPool(t, owner)
	server := newTestServer(t, pool, nil, ServerConfig{})

	params, _ := json.Marshal(addressParam{Address: bech32Of(owner)})
	body, _ := json.Marshal(RPCRequest{JSONRPC: jsonRPCVersion, Method: "staking_balanceOf", Params: []json.RawMessage{params}, ID: 1})
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.RemoteAddr = "127.0.0.1:5555"
	rec := httptest.NewRecorder()
	server.handle(rec, req)

	metricsReq := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metricsRec := httptest.NewRecorder()
	observability.ModuleMetricsHandler().ServeHTTP(metricsRec, metricsReq)
	if metricsRec.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics handler, got %d", metricsRec.Code)
	}
	if !strings.Contains(metricsRec.Body.String(), "staking_module_requests_total") {
		t.Fatalf("expected staking module request counter in metrics output")
	}
}
