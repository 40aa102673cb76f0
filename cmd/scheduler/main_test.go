package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/shift-scheduler/internal/config"
	"github.com/example/shift-scheduler/internal/logging"
)

var configEnv = []string{
	"BIND_ADDR", "DATABASE_DRIVER", "DATABASE_URL", "JWT_SECRET", "CORS_ORIGIN",
	"STATIC_DIR", "LOG_LEVEL", "LOG_FORMAT", "SHUTDOWN_TIMEOUT",
}

// setupEnv blanks every configuration variable and points the database at a
// fresh SQLite file.
func setupEnv(t *testing.T) string {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
	dbPath := filepath.Join(t.TempDir(), "scheduler.db")
	t.Setenv("DATABASE_URL", "file:"+dbPath)
	t.Setenv("JWT_SECRET", "cli-test-secret")
	return dbPath
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(&stdout, &stderr)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "absent.env")))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if stdout != "scheduler dev\n" {
		t.Fatalf("unexpected output %q", stdout)
	}
}

func TestMigrateCommand(t *testing.T) {
	setupEnv(t)

	stdout, stderr, err := execute(t, "migrate")
	if err != nil {
		t.Fatalf("migrate: %v\n%s", err, stderr)
	}
	if !strings.Contains(stdout, "schema version: 001") || !strings.Contains(stdout, "applied 001") {
		t.Fatalf("unexpected status output:\n%s", stdout)
	}
	if strings.Contains(stdout, "pending") {
		t.Fatalf("expected no pending migrations:\n%s", stdout)
	}
	if !strings.Contains(stderr, `"migrations_applied":1`) {
		t.Fatalf("expected first run to apply the schema, logs:\n%s", stderr)
	}

	_, stderr, err = execute(t, "migrate")
	if err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if !strings.Contains(stderr, `"migrations_applied":0`) {
		t.Fatalf("expected second run to be a no-op, logs:\n%s", stderr)
	}
}

func TestCommandsRequireConfiguration(t *testing.T) {
	setupEnv(t)
	t.Setenv("JWT_SECRET", "")

	for _, name := range []string{"serve", "migrate"} {
		_, _, err := execute(t, name)
		if err == nil || err.Error() != "missing required configuration: JWT_SECRET" {
			t.Fatalf("%s: expected missing JWT_SECRET, got %v", name, err)
		}
	}
}

func TestServerLifecycle(t *testing.T) {
	setupEnv(t)
	t.Setenv("STATIC_DIR", t.TempDir())

	cfg, err := config.Load(config.Options{EnvFile: filepath.Join(t.TempDir(), "absent.env")})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	logger := logging.New(io.Discard, slog.LevelInfo, logging.FormatJSON)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, err := newServer(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	defer srv.close()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- srv.run(ctx, listener) }()

	base := "http://" + listener.Addr().String()
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(base + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from healthz, got %d", resp.StatusCode)
	}

	resp, err = client.Post(base+"/api/auth/register", "application/json",
		strings.NewReader(`{"email":"first@example.com","password":"password1"}`))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	var body struct {
		Token string `json:"token"`
	}
	err = json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	if err != nil || resp.StatusCode != http.StatusOK || body.Token == "" {
		t.Fatalf("register: status %d, token %q, err %v", resp.StatusCode, body.Token, err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
