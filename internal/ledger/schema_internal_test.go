package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestOpenRejectsOtherSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.db.ExecContext(context.Background(), "PRAGMA user_version = 99"); err != nil {
		t.Fatalf("set user_version: %v", err)
	}
	_ = store.Close()

	if _, err := Open(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestBusyRecognizesOnlyContention(t *testing.T) {
	if busy(errors.New("database is locked")) {
		t.Fatal("plain errors are not sqlite contention")
	}
	if busy(nil) {
		t.Fatal("nil is not contention")
	}
}

func TestWithBusyRetryReturnsFirstSuccess(t *testing.T) {
	calls := 0
	got, err := withBusyRetry(context.Background(), func() (int, error) {
		calls++
		return 42, nil
	})
	if err != nil || got != 42 || calls != 1 {
		t.Fatalf("withBusyRetry = %d, %v after %d calls", got, err, calls)
	}
}
