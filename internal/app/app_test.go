package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vidfriends/client/internal/api"
	"github.com/vidfriends/client/internal/config"
	"github.com/vidfriends/client/internal/handlers"
	"github.com/vidfriends/client/internal/logging"
	"github.com/vidfriends/client/internal/repositories"
	"github.com/vidfriends/client/internal/session"
)

func testConfig(t *testing.T, baseURL string) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		APIBaseURL:     baseURL,
		RequestTimeout: 5 * time.Second,
		LogLevel:       "error",
		TokenStore:     config.StoreFile,
		TokenSlot:      "token",
		TokenDir:       filepath.Join(dir, "tokens"),
		SQLitePath:     filepath.Join(dir, "client.db"),
		Mock: config.MockServerConfig{
			JWTSecret:      "test-secret",
			TokenTTL:       time.Hour,
			DashboardLimit: 2,
			EmbedBaseURL:   "https://provider.example/embed",
			LoginPerMinute: 100,
			LoginBurst:     100,
			DemoEmail:      "test@test.com",
			DemoPassword:   "123456",
		},
	}
}

func newMockAPI(t *testing.T, mock config.MockServerConfig) *httptest.Server {
	t.Helper()
	deps, err := buildMockDependencies(context.Background(), mock, logging.Discard(), prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("build mock dependencies: %v", err)
	}
	srv := httptest.NewServer(handlers.NewRouter(deps))
	t.Cleanup(srv.Close)
	return srv
}

type result struct {
	stdout string
	stderr string
	err    error
}

func invoke(t *testing.T, cfg config.Config, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), cfg, args, strings.NewReader(stdin), &stdout, &stderr)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func TestClientCommandsEndToEnd(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.APIBaseURL = newMockAPI(t, cfg.Mock).URL

	if res := invoke(t, cfg, "", "status"); res.err != nil || strings.TrimSpace(res.stdout) != "anonymous" {
		t.Fatalf("expected anonymous status, got %q (%v)", res.stdout, res.err)
	}

	res := invoke(t, cfg, "", "login", "-email", "test@test.com", "-password", "123456")
	if res.err != nil {
		t.Fatalf("login: %v", res.err)
	}

	if res := invoke(t, cfg, "", "status"); strings.TrimSpace(res.stdout) != "authenticated" {
		t.Fatalf("expected session to survive the process, got %q", res.stdout)
	}

	res = invoke(t, cfg, "", "whoami")
	if res.err != nil || !strings.Contains(res.stdout, "test@test.com") {
		t.Fatalf("whoami: %q (%v)", res.stdout, res.err)
	}

	res = invoke(t, cfg, "", "dashboard")
	if res.err != nil {
		t.Fatalf("dashboard: %v", res.err)
	}
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "v1") || !strings.Contains(lines[1], "Intro") {
		t.Fatalf("unexpected dashboard output:\n%s", res.stdout)
	}

	res = invoke(t, cfg, "", "play", "v1")
	if res.err != nil || !strings.Contains(res.stdout, "https://provider.example/embed/xyz\n") {
		t.Fatalf("play: %q (%v)", res.stdout, res.err)
	}

	res = invoke(t, cfg, "", "play", "missing")
	if !errors.Is(res.err, api.ErrNotFound) {
		t.Fatalf("expected not found, got %v", res.err)
	}

	res = invoke(t, cfg, "", "home")
	if res.err != nil || !strings.Contains(res.stdout, "test@test.com") || !strings.Contains(res.stdout, "Intro") {
		t.Fatalf("home: %q (%v)", res.stdout, res.err)
	}

	for i := 0; i < 2; i++ {
		if res := invoke(t, cfg, "", "logout"); res.err != nil {
			t.Fatalf("logout %d: %v", i, res.err)
		}
	}

	res = invoke(t, cfg, "", "whoami")
	if !errors.Is(res.err, api.ErrAuth) || !strings.Contains(res.err.Error(), "not logged in") {
		t.Fatalf("expected not logged in auth error, got %v", res.err)
	}
}

func TestLoginReadsPasswordFromStdin(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.APIBaseURL = newMockAPI(t, cfg.Mock).URL

	res := invoke(t, cfg, "123456\n", "login", "-email", "test@test.com")
	if res.err != nil {
		t.Fatalf("login: %v", res.err)
	}
	if !strings.Contains(res.stderr, "Password:") {
		t.Fatalf("expected prompt on stderr, got %q", res.stderr)
	}
}

func TestLoginFailureKeepsSessionAnonymous(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.APIBaseURL = newMockAPI(t, cfg.Mock).URL

	res := invoke(t, cfg, "", "login", "-email", "bad@test.com", "-password", "wrong")
	if !errors.Is(res.err, api.ErrAuth) {
		t.Fatalf("expected auth error, got %v", res.err)
	}
	if strings.Contains(res.err.Error(), "session expired") {
		t.Fatalf("login failure must not read as an expired session: %v", res.err)
	}
	if _, err := os.Stat(filepath.Join(cfg.TokenDir, "token")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no token file, got %v", err)
	}

	res = invoke(t, cfg, "", "login", "-email", "test@test.com")
	if !errors.Is(res.err, ErrUsage) {
		t.Fatalf("expected usage error for missing password, got %v", res.err)
	}
}

func TestRejectedTokenLogsOut(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.APIBaseURL = newMockAPI(t, cfg.Mock).URL

	store, err := session.NewFileStore(cfg.TokenDir, cfg.TokenSlot)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	if err := store.Save(context.Background(), "forged-token"); err != nil {
		t.Fatalf("save: %v", err)
	}

	res := invoke(t, cfg, "", "dashboard")
	if !errors.Is(res.err, api.ErrAuth) || !strings.Contains(res.err.Error(), "session expired") {
		t.Fatalf("expected expired session error, got %v", res.err)
	}

	token, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if token != "" {
		t.Fatalf("expected rejected token to be cleared, got %q", token)
	}
}

func TestSignupWithAndWithoutToken(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.APIBaseURL = newMockAPI(t, cfg.Mock).URL

	res := invoke(t, cfg, "", "signup", "-name", "New", "-email", "new@test.com", "-password", "pw")
	if res.err != nil || !strings.Contains(res.stdout, "User created successfully") {
		t.Fatalf("signup: %q (%v)", res.stdout, res.err)
	}
	if res := invoke(t, cfg, "", "status"); strings.TrimSpace(res.stdout) != "anonymous" {
		t.Fatalf("expected signup without token to stay anonymous, got %q", res.stdout)
	}

	res = invoke(t, cfg, "", "signup", "-email", "new@test.com", "-password", "pw")
	if !errors.Is(res.err, api.ErrValidation) || !strings.Contains(res.err.Error(), "User already exists") {
		t.Fatalf("expected duplicate validation error, got %v", res.err)
	}

	tokenCfg := testConfig(t, "")
	tokenCfg.Mock.SignupIssuesToken = true
	tokenCfg.APIBaseURL = newMockAPI(t, tokenCfg.Mock).URL

	res = invoke(t, tokenCfg, "", "signup", "-email", "fresh@test.com", "-password", "pw")
	if res.err != nil || !strings.Contains(res.stdout, "logged in") {
		t.Fatalf("signup with token: %q (%v)", res.stdout, res.err)
	}
	if res := invoke(t, tokenCfg, "", "whoami"); res.err != nil || !strings.Contains(res.stdout, "fresh@test.com") {
		t.Fatalf("whoami after signup: %q (%v)", res.stdout, res.err)
	}
}

func TestMetricsFileWritten(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.APIBaseURL = newMockAPI(t, cfg.Mock).URL
	cfg.MetricsFile = filepath.Join(t.TempDir(), "client.prom")

	invoke(t, cfg, "", "dashboard")

	data, err := os.ReadFile(cfg.MetricsFile)
	if err != nil {
		t.Fatalf("read metrics file: %v", err)
	}
	if !strings.Contains(string(data), `vidfriends_client_calls_total{operation="dashboard",outcome="auth"} 1`) {
		t.Fatalf("unexpected metrics:\n%s", data)
	}
}

func TestUsageErrors(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")

	tests := [][]string{
		nil,
		{"frobnicate"},
		{"play"},
		{"migrate", "sideways"},
	}
	for _, args := range tests {
		if res := invoke(t, cfg, "", args...); !errors.Is(res.err, ErrUsage) {
			t.Fatalf("%v: expected usage error, got %v", args, res.err)
		}
	}

	if res := invoke(t, cfg, "", "help"); res.err != nil || !strings.Contains(res.stdout, "mock-server") {
		t.Fatalf("help: %q (%v)", res.stdout, res.err)
	}
}

func TestNetworkFailureSurfaces(t *testing.T) {
	srv := httptest.NewServer(nil)
	cfg := testConfig(t, srv.URL)
	srv.Close()

	res := invoke(t, cfg, "", "login", "-email", "a@b.c", "-password", "pw")
	if !errors.Is(res.err, api.ErrNetwork) {
		t.Fatalf("expected network error, got %v", res.err)
	}
}

func TestWatchRequiresFileStore(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.TokenStore = config.StoreMemory

	if res := invoke(t, cfg, "", "watch"); !errors.Is(res.err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", res.err)
	}
}

func TestBuildTokenStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "memory", mutate: func(c *config.Config) { c.TokenStore = config.StoreMemory }},
		{name: "file", mutate: func(c *config.Config) { c.TokenStore = config.StoreFile }},
		{name: "sqlite", mutate: func(c *config.Config) { c.TokenStore = config.StoreSQLite }},
		{name: "redis", mutate: func(c *config.Config) {
			c.TokenStore = config.StoreRedis
			c.Redis = config.RedisConfig{Addr: mr.Addr(), Prefix: "test"}
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t, "http://127.0.0.1:1")
			tc.mutate(&cfg)

			store, cleanup, err := buildTokenStore(ctx, cfg)
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			defer cleanup()

			if err := store.Save(ctx, "abc"); err != nil {
				t.Fatalf("save: %v", err)
			}
			token, err := store.Load(ctx)
			if err != nil || token != "abc" {
				t.Fatalf("load: %q (%v)", token, err)
			}
			if err := store.Clear(ctx); err != nil {
				t.Fatalf("clear: %v", err)
			}
		})
	}

	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.TokenStore = "keychain"
	if _, cleanup, err := buildTokenStore(ctx, cfg); err == nil {
		t.Fatal("expected error for unknown store")
	} else if cleanup == nil {
		t.Fatal("cleanup must never be nil")
	}
}

func TestBuildMockDependencies(t *testing.T) {
	mock := testConfig(t, "").Mock
	mock.JWTSecret = ""

	deps, err := buildMockDependencies(context.Background(), mock, logging.Discard(), prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if deps.Users == nil {
		t.Fatal("expected user repository to be configured")
	}
	if deps.Tokens == nil {
		t.Fatal("expected token manager to be configured")
	}
	if deps.Videos == nil {
		t.Fatal("expected video catalog to be configured")
	}
	if deps.LoginLimiter == nil {
		t.Fatal("expected login limiter to be configured")
	}
	if _, err := deps.Users.FindByEmail(context.Background(), "test@test.com"); err != nil {
		t.Fatalf("expected demo account to be seeded: %v", err)
	}

	mock.DemoPassword = ""
	if _, err := buildMockDependencies(context.Background(), mock, logging.Discard(), prometheus.NewRegistry()); err == nil {
		t.Fatal("expected error for demo account without password")
	}
}

func TestBuildMockDependenciesExtendsCatalog(t *testing.T) {
	ctx := context.Background()
	mock := testConfig(t, "").Mock
	mock.Catalog = []config.CatalogEntry{
		{ID: "v9", Title: "Extra", ProviderID: "abc123"},
		{ID: "v10", Title: "Hidden", ProviderID: "def456", Inactive: true},
	}

	deps, err := buildMockDependencies(ctx, mock, logging.Discard(), prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	video, err := deps.Videos.Find(ctx, "v9")
	if err != nil {
		t.Fatalf("expected configured video to be served: %v", err)
	}
	if video.ProviderID != "abc123" || video.Title != "Extra" {
		t.Fatalf("unexpected video %+v", video)
	}
	if _, err := deps.Videos.Find(ctx, "v10"); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected inactive configured video to be hidden, got %v", err)
	}

	mock.Catalog = []config.CatalogEntry{{ID: "v1", ProviderID: "dup"}}
	if _, err := buildMockDependencies(ctx, mock, logging.Discard(), prometheus.NewRegistry()); !errors.Is(err, repositories.ErrConflict) {
		t.Fatalf("expected conflict for duplicate catalog id, got %v", err)
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestMockServerStopsOnCancel(t *testing.T) {
	cfg := testConfig(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stdout := &lockedBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, cfg, []string{"mock-server", "-port", "0"}, strings.NewReader(""), stdout, io.Discard)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(stdout.String(), "listening on") {
		if time.Now().After(deadline) {
			t.Fatal("mock server did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("mock server did not stop")
	}
}
