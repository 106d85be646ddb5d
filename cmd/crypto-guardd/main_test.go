package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/crypto-guard/internal/guard/config"
	"github.com/haukened/crypto-guard/internal/guard/domain"
	"github.com/haukened/crypto-guard/internal/guard/services/engine"
	"github.com/haukened/crypto-guard/internal/guard/services/walletguard"
)

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	t.Setenv("GUARD_HTTP_ADDR", "127.0.0.1:0")
	t.Setenv("GUARD_LOG_LEVEL", "error")
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func evaluate(t *testing.T, app *Application, raw string) domain.RiskResult {
	t.Helper()
	return app.checker.Check(raw)
}

func TestBuildApplication_Defaults(t *testing.T) {
	cfg := testConfig(t)
	app, err := buildApplication(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown() })

	assert.Nil(t, app.wallet)
	assert.Nil(t, app.store)
	assert.Equal(t, uint64(1), app.checker.Generation())

	res := evaluate(t, app, "https://metamask-bonus.xyz/claim")
	assert.Equal(t, domain.RiskBlock, res.Level)
	assert.Equal(t, "Known malicious domain", res.Reason)

	res = evaluate(t, app, "https://accounts.google.com/signin")
	assert.Equal(t, domain.RiskOK, res.Level)
}

func TestBuildApplication_ReferenceFileAndBlocklistDir(t *testing.T) {
	dir := t.TempDir()
	ref := filepath.Join(dir, "reference.yaml")
	require.NoError(t, os.WriteFile(ref, []byte(`
brands: [examplebank.com]
host_keywords: [prize]
path_keywords: [verify]
suspicious_tlds: [zip]
blocklist: [examplebank-login.com]
`), 0o600))
	lists := filepath.Join(dir, "lists")
	require.NoError(t, os.Mkdir(lists, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(lists, "extra.txt"), []byte("*.evil.test\n"), 0o600))

	t.Setenv("GUARD_REFERENCE_FILE", ref)
	t.Setenv("GUARD_BLOCKLIST_DIR", lists)
	cfg := testConfig(t)

	app, err := buildApplication(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown() })

	assert.Equal(t, domain.RiskBlock, evaluate(t, app, "https://examplebank-login.com/").Level)
	assert.Equal(t, domain.RiskBlock, evaluate(t, app, "https://cdn.evil.test/").Level)
	// built-in tables are replaced
	assert.NotEqual(t, "Known malicious domain", evaluate(t, app, "https://metamask-bonus.xyz/").Reason)

	res := evaluate(t, app, "https://examp1ebank.com/")
	assert.Equal(t, domain.RiskWarn, res.Level)
	assert.Equal(t, []string{"Domain looks like examplebank.com (possible typo-squat)"}, res.Details)
}

func TestBuildApplication_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T)
		wantErr string
	}{
		{
			name: "missing reference file",
			setup: func(t *testing.T) {
				t.Setenv("GUARD_REFERENCE_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
			},
			wantErr: "failed to build engine",
		},
		{
			name: "missing blocklist dir without store",
			setup: func(t *testing.T) {
				t.Setenv("GUARD_BLOCKLIST_DIR", filepath.Join(t.TempDir(), "nope"))
			},
			wantErr: "failed to load blocklist",
		},
		{
			name: "unopenable store",
			setup: func(t *testing.T) {
				t.Setenv("GUARD_BLOCKLIST_DB", filepath.Join(t.TempDir(), "missing", "dir", "db"))
			},
			wantErr: "failed to open blocklist store",
		},
		{
			name: "bad wallet upstream",
			setup: func(t *testing.T) {
				t.Setenv("GUARD_WALLET_UPSTREAM", "ftp://rpc.example")
			},
			wantErr: "failed to build wallet guard",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup(t)
			cfg := testConfig(t)
			_, err := buildApplication(context.Background(), cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplication_ReloadSwapsAndFallsBack(t *testing.T) {
	dir := t.TempDir()
	lists := filepath.Join(dir, "lists")
	require.NoError(t, os.Mkdir(lists, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(lists, "a.txt"), []byte("first.test\n"), 0o600))

	t.Setenv("GUARD_BLOCKLIST_DIR", lists)
	t.Setenv("GUARD_BLOCKLIST_DB", filepath.Join(dir, "blocklist.db"))
	cfg := testConfig(t)

	app, err := buildApplication(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown() })

	assert.Equal(t, domain.RiskBlock, evaluate(t, app, "https://first.test/").Level)
	assert.Equal(t, domain.RiskOK, evaluate(t, app, "https://second.test/").Level)

	require.NoError(t, os.WriteFile(filepath.Join(lists, "b.txt"), []byte("second.test\n"), 0o600))
	require.NoError(t, app.Reload(context.Background()))
	assert.Equal(t, uint64(2), app.checker.Generation())
	assert.Equal(t, domain.RiskBlock, evaluate(t, app, "https://second.test/").Level)

	// list directory gone: the stored snapshot keeps serving
	require.NoError(t, os.RemoveAll(lists))
	require.NoError(t, app.Reload(context.Background()))
	assert.Equal(t, uint64(3), app.checker.Generation())
	assert.Equal(t, domain.RiskBlock, evaluate(t, app, "https://first.test/").Level)
	assert.Equal(t, domain.RiskBlock, evaluate(t, app, "https://second.test/").Level)
}

func TestApplication_ReloadFailureKeepsSnapshot(t *testing.T) {
	dir := t.TempDir()
	ref := filepath.Join(dir, "reference.json")
	require.NoError(t, os.WriteFile(ref, []byte(`{
		"brands": ["examplebank.com"],
		"host_keywords": ["prize"],
		"path_keywords": ["verify"],
		"suspicious_tlds": ["zip"]
	}`), 0o600))
	t.Setenv("GUARD_REFERENCE_FILE", ref)
	cfg := testConfig(t)

	app, err := buildApplication(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown() })

	require.NoError(t, os.WriteFile(ref, []byte(`{"brands": []}`), 0o600))
	assert.Error(t, app.Reload(context.Background()))
	assert.Equal(t, uint64(1), app.checker.Generation())
	assert.Equal(t, domain.RiskWarn, evaluate(t, app, "https://prize-center.zip/").Level)
}

func TestApplication_RunServesHTTP(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req walletguard.Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(walletguard.Response{JSONRPC: "2.0", ID: req.ID, Result: json.RawMessage(`"0x1"`)})
	}))
	t.Cleanup(upstream.Close)
	t.Setenv("GUARD_WALLET_UPSTREAM", upstream.URL)
	cfg := testConfig(t)

	app, err := buildApplication(context.Background(), cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.Start(ctx))
	base := "http://" + app.transport.Address()

	resp, err := http.Get(base + "/v1/evaluate?url=https://binannce.com/login")
	require.NoError(t, err)
	var res domain.RiskResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	_ = resp.Body.Close()
	assert.Equal(t, domain.RiskBlock, res.Level)

	body := []byte(`{"jsonrpc":"2.0","id":9,"method":"personal_sign","params":["0xdead","0xbeef"]}`)
	resp, err = http.Post(base+"/v1/rpc", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	var rpcResp walletguard.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpcResp))
	_ = resp.Body.Close()
	require.NotNil(t, rpcResp.Error)
	assert.Equal(t, walletguard.CodeUserRejected, rpcResp.Error.Code)

	body = []byte(`{"jsonrpc":"2.0","id":10,"method":"eth_chainId"}`)
	resp, err = http.Post(base+"/v1/rpc", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpcResp))
	_ = resp.Body.Close()
	assert.Equal(t, json.RawMessage(`"0x1"`), rpcResp.Result)

	require.NoError(t, app.Shutdown())
}

func TestApplication_RunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	app, err := buildApplication(context.Background(), cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return app.transport.Address() != "127.0.0.1:0"
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("application did not stop")
	}
}

func TestScoringFromConfig(t *testing.T) {
	got := scoringFromConfig(config.DEFAULT_APP_CONFIG.Scoring)
	assert.Equal(t, engine.DefaultScoring(), got)
}
