package hubctl

import (
	"bytes"
	"strings"
	"testing"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := BuildRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestListCommand(t *testing.T) {
	srv := newFakeDaemon(t)
	out, err := runCommand(t, "--server", srv.URL, "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "mlx-community/demo") || !strings.Contains(out, "MiB") {
		t.Fatalf("out=%q", out)
	}
}

func TestSearchCommand(t *testing.T) {
	srv := newFakeDaemon(t)
	out, err := runCommand(t, "--server", srv.URL, "search", "--arch", "qwen")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "mlx-community/found-qwen") {
		t.Fatalf("out=%q", out)
	}
	if !strings.Contains(out, "12,345") {
		t.Fatalf("downloads not humanized: %q", out)
	}
}

func TestStatusCommand(t *testing.T) {
	srv := newFakeDaemon(t)
	out, err := runCommand(t, "--server", srv.URL, "status")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "ready") {
		t.Fatalf("out=%q", out)
	}
}

func TestRmCommand(t *testing.T) {
	srv := newFakeDaemon(t)
	out, err := runCommand(t, "--server", srv.URL, "rm", "mlx-community/demo")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "removed mlx-community/demo") {
		t.Fatalf("out=%q", out)
	}
}

func TestCleanupCommand(t *testing.T) {
	srv := newFakeDaemon(t)
	out, err := runCommand(t, "--server", srv.URL, "cleanup")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "mlx-community/half") {
		t.Fatalf("out=%q", out)
	}
}

func TestPullCommand(t *testing.T) {
	srv := newFakeDaemon(t)
	out, err := runCommand(t, "--server", srv.URL, "pull", "mlx-community/demo")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "downloaded to /cache/demo") {
		t.Fatalf("out=%q", out)
	}
}

func TestPullRequiresArg(t *testing.T) {
	if _, err := runCommand(t, "pull"); err == nil {
		t.Fatal("expected arg error")
	}
}
