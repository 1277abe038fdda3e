package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/danicaoo/musicShop/internal/metrics"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGeneratePassword(t *testing.T) {
	valid := regexp.MustCompile(`^[a-zA-Z0-9!@#$%&*]+$`)
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		p, err := generatePassword(adminPasswordLength)
		if err != nil {
			t.Fatalf("generatePassword: %v", err)
		}
		if len(p) != adminPasswordLength {
			t.Errorf("len = %d, want %d", len(p), adminPasswordLength)
		}
		if !valid.MatchString(p) {
			t.Errorf("password %q has characters outside the charset", p)
		}
		seen[p] = true
	}
	if len(seen) < 2 {
		t.Error("passwords are not random")
	}
}

func TestInitSeedRollover(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.sqlite3")

	out, err := run(t, "--db", path, "init", "--user", "boss")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "Username: boss") || !strings.Contains(out, "Password: ") {
		t.Errorf("init output = %q", out)
	}

	if _, err := run(t, "--db", path, "init"); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("second init error = %v, want already exists", err)
	}

	out, err = run(t, "--db", path, "seed")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.Contains(out, "Recorded 40 sales (94 units)") {
		t.Errorf("seed output = %q", out)
	}

	out, err = run(t, "--db", path, "seed")
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if !strings.Contains(out, "nothing loaded") {
		t.Errorf("second seed output = %q", out)
	}

	before := testutil.ToFloat64(metrics.Rollovers)
	out, err = run(t, "--db", path, "rollover")
	if err != nil {
		t.Fatalf("rollover: %v", err)
	}
	if got := testutil.ToFloat64(metrics.Rollovers); got != before {
		t.Errorf("CLI rollover touched the server counter: %v -> %v", before, got)
	}
	if !strings.Contains(out, "updated for 2 inventories") {
		t.Errorf("rollover output = %q", out)
	}

	out, err = run(t, "--db", path, "rollover")
	if err != nil {
		t.Fatalf("second rollover: %v", err)
	}
	if !strings.Contains(out, "updated for 0 inventories") {
		t.Errorf("second rollover output = %q", out)
	}
}

func TestCommandsNeedExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.sqlite3")
	for _, name := range []string{"seed", "rollover"} {
		if _, err := run(t, "--db", path, name); err == nil || !strings.Contains(err.Error(), "run init first") {
			t.Errorf("%s error = %v, want missing database", name, err)
		}
	}
}

func TestInvalidLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.sqlite3")
	_, err := run(t, "--db", path, "--log-level", "loud", "init")
	if err == nil || !strings.Contains(err.Error(), "log.level") {
		t.Errorf("error = %v, want log.level validation error", err)
	}
}

// waitFor fails the test when fn does not return within a few seconds.
func waitFor(t *testing.T, fn func() error) error {
	t.Helper()
	result := make(chan error, 1)
	go func() { result <- fn() }()
	select {
	case err := <-result:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("server did not return")
		return nil
	}
}

func TestServeUntilSignalListenFailure(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer taken.Close()

	quit := make(chan os.Signal, 1)
	server := &http.Server{Addr: taken.Addr().String(), Handler: http.NotFoundHandler()}

	err = waitFor(t, func() error { return serveUntilSignal(server, quit, time.Second) })
	if err == nil || !strings.Contains(err.Error(), "serving") {
		t.Errorf("error = %v, want listen failure", err)
	}
	if _, ok := <-quit; ok {
		t.Error("quit channel should be closed after a listen failure")
	}
}

func TestServeUntilSignalShutsDown(t *testing.T) {
	quit := make(chan os.Signal, 1)
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	quit <- syscall.SIGTERM
	if err := waitFor(t, func() error { return serveUntilSignal(server, quit, time.Second) }); err != nil {
		t.Errorf("serveUntilSignal: %v", err)
	}
}
