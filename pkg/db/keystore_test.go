package db

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/yumyai/hlalocus/pkg/locus"
	"github.com/yumyai/hlalocus/pkg/model"
)

func openTestStore(t *testing.T) *KeyStore {
	t.Helper()
	ks, err := Open(filepath.Join(t.TempDir(), "db", "locus_key.db"))
	if err != nil {
		t.Fatalf("Failed to open keystore: %v", err)
	}
	t.Cleanup(func() { ks.Close() })
	return ks
}

func TestKeyStoreSaveLoad(t *testing.T) {
	ks := openTestStore(t)
	ctx := context.Background()

	first := locus.NewAssignments()
	_ = first.Insert("seq2", "HLA-B")
	_ = first.Insert("seq1", "HLA-A")
	if _, err := ks.Save(ctx, "refs.fofn", first); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	second := locus.NewAssignments()
	_ = second.Insert("seq1", "HLA-C")
	runID, err := ks.Save(ctx, "refs.fofn", second)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	got, gotRun, err := ks.Load(ctx, "refs.fofn")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if gotRun != runID {
		t.Errorf("Expected latest run %s, got %s", runID, gotRun)
	}
	if !reflect.DeepEqual(got.Map(), map[string]string{"seq1": "HLA-C"}) {
		t.Errorf("Unexpected assignments %v", got.Map())
	}
}

func TestKeyStoreKeepsOrder(t *testing.T) {
	ks := openTestStore(t)
	ctx := context.Background()

	a := locus.NewAssignments()
	for _, id := range []string{"c", "a", "b"} {
		_ = a.Insert(id, "HLA-A")
	}
	if _, err := ks.Save(ctx, "hits.m1", a); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	got, _, err := ks.Load(ctx, "hits.m1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var ids []string
	for id := range got.All() {
		ids = append(ids, id)
	}
	if !reflect.DeepEqual(ids, []string{"c", "a", "b"}) {
		t.Errorf("Unexpected order %v", ids)
	}
}

func TestKeyStoreDuplicateRows(t *testing.T) {
	ks := openTestStore(t)
	ctx := context.Background()

	a := locus.NewAssignments()
	_ = a.Insert("seq1", "HLA-A")
	runID, err := ks.Save(ctx, "key.txt", a)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// A second row for seq1 written behind the store's back.
	if _, err := ks.db.Exec(`INSERT INTO locus_keys (run_id, position, seq_id, locus) VALUES (?, 1, 'seq1', 'HLA-B')`, runID); err != nil {
		t.Fatalf("Failed to insert row: %v", err)
	}

	if _, _, err := ks.Load(ctx, "key.txt"); !errors.Is(err, model.ErrDuplicateAssignment) {
		t.Errorf("Expected ErrDuplicateAssignment, got %v", err)
	}
}

func TestKeyStoreMissingSource(t *testing.T) {
	ks := openTestStore(t)
	if _, _, err := ks.Load(context.Background(), "never-saved"); !errors.Is(err, ErrNoRun) {
		t.Errorf("Expected ErrNoRun, got %v", err)
	}
}

func TestRebind(t *testing.T) {
	pg := &KeyStore{postgres: true}
	if got := pg.rebind("SELECT a FROM t WHERE b = ? AND c = ?"); got != "SELECT a FROM t WHERE b = $1 AND c = $2" {
		t.Errorf("Unexpected postgres query %q", got)
	}
	lite := &KeyStore{}
	if got := lite.rebind("b = ?"); got != "b = ?" {
		t.Errorf("Unexpected sqlite query %q", got)
	}
}
