package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "state", "store.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return map[string]Store{
		"memory": NewMemory(nil),
		"sqlite": db,
	}
}

func TestStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := s.Get(ctx, KeySessionToken); err != nil || ok {
				t.Fatalf("empty get = %v, %v", ok, err)
			}

			if err := s.Set(ctx, KeySessionToken, "T1"); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := s.Set(ctx, KeySessionToken, "T2"); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, ok, err := s.Get(ctx, KeySessionToken)
			if err != nil || !ok || got != "T2" {
				t.Fatalf("get = %q, %v, %v", got, ok, err)
			}

			if err := s.Delete(ctx, KeySessionToken, "unknown"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, ok, _ := s.Get(ctx, KeySessionToken); ok {
				t.Fatalf("expected key to be deleted")
			}
		})
	}
}

func TestStore_SetMany(t *testing.T) {
	ctx := context.Background()
	entries := map[string]string{
		KeySessionToken:    "T1",
		KeyTechnicianName:  "Jo",
		KeyTechnicianEmail: "a@b.com",
	}
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.SetMany(ctx, entries); err != nil {
				t.Fatalf("set many: %v", err)
			}
			got := make(map[string]string)
			for key := range entries {
				v, ok, err := s.Get(ctx, key)
				if err != nil || !ok {
					t.Fatalf("get %s: %v %v", key, ok, err)
				}
				got[key] = v
			}
			if diff := cmp.Diff(entries, got); diff != "" {
				t.Fatalf("entries mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStore_ClosedStoreErrors(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}
			if _, _, err := s.Get(ctx, "k"); !errors.Is(err, ErrStoreClosed) {
				t.Fatalf("get after close: %v", err)
			}
			if err := s.Set(ctx, "k", "v"); !errors.Is(err, ErrStoreClosed) {
				t.Fatalf("set after close: %v", err)
			}
		})
	}
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")

	first, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Set(ctx, KeyTechnicianName, "Jo"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		t.Fatalf("store file should be private, got %v", perm)
	}

	second, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	got, ok, err := second.Get(ctx, KeyTechnicianName)
	if err != nil || !ok || got != "Jo" {
		t.Fatalf("get after reopen = %q, %v, %v", got, ok, err)
	}
}

func TestOpenSQLite_RequiresPath(t *testing.T) {
	if _, err := OpenSQLite("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestMemory_WritesCounter(t *testing.T) {
	m := NewMemory(map[string]string{"a": "1"})
	if m.Writes() != 0 {
		t.Fatalf("seeding should not count as a write")
	}
	_ = m.Set(context.Background(), "b", "2")
	if m.Writes() != 1 {
		t.Fatalf("writes = %d", m.Writes())
	}
}
