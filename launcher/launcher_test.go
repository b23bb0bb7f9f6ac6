package launcher

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func writeStubExe(t *testing.T, script string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("stub executables use /bin/sh")
	}

	path := filepath.Join(t.TempDir(), "stub.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestStartAndWait(t *testing.T) {
	exe := writeStubExe(t, `exit 0`)

	p, err := Start(context.Background(), exe, "127.0.0.1", 50000)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.Wait(ctx); err != nil {
		t.Fatal(err)
	}

	if p.State() != Off {
		t.Errorf("expected state %q after exit, got %q", Off, p.State())
	}
}

func TestStartReceivesAddressArgs(t *testing.T) {
	out := filepath.Join(t.TempDir(), "args")
	exe := writeStubExe(t, `echo "$1 $2" > `+out)

	p, err := Start(context.Background(), exe, "127.0.0.1", 50123)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.Wait(ctx); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(b); got != "127.0.0.1 50123\n" {
		t.Errorf("expected address args, got %q", got)
	}
}

func TestStopKillsRunningProcess(t *testing.T) {
	exe := writeStubExe(t, `sleep 60`)

	p, err := Start(context.Background(), exe, "127.0.0.1", 50000)
	if err != nil {
		t.Fatal(err)
	}

	if p.State() != On {
		t.Fatalf("expected state %q, got %q", On, p.State())
	}

	// Stop returns the kill error, the process did not exit on its own.
	_ = p.Stop()

	if p.State() != Off {
		t.Errorf("expected state %q after stop, got %q", Off, p.State())
	}
}

func TestStartMissingExecutable(t *testing.T) {
	if _, err := Start(context.Background(), "/does/not/exist", "127.0.0.1", 50000); err == nil {
		t.Fatal("expected an error for a missing executable")
	}
}
