package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/untoldecay/tup/internal/types"
)

func setupTestDB(t *testing.T) *Storage {
	t.Helper()

	ctx := context.Background()
	store, err := New(ctx, filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestConfig(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	// Defaults are seeded at initialization.
	n, err := store.ConfigGetInt(ctx, "show_progress")
	if err != nil {
		t.Fatalf("ConfigGetInt failed: %v", err)
	}
	if n != 1 {
		t.Errorf("show_progress = %d, want 1", n)
	}

	got, err := store.ConfigGetString(ctx, "create_so", "make.so")
	if err != nil {
		t.Fatalf("ConfigGetString failed: %v", err)
	}
	if got != "make.so" {
		t.Errorf("missing key = %q, want default", got)
	}

	if err := store.SetConfig(ctx, "create_so", "rules.so"); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	got, err = store.ConfigGetString(ctx, "create_so", "make.so")
	if err != nil {
		t.Fatalf("ConfigGetString failed: %v", err)
	}
	if got != "rules.so" {
		t.Errorf("create_so = %q, want rules.so", got)
	}

	// Missing int key reads as zero.
	n, err = store.ConfigGetInt(ctx, "nope")
	if err != nil || n != 0 {
		t.Errorf("missing int = (%d, %v), want (0, nil)", n, err)
	}
}

func TestCreateAndLookupNode(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	id, err := store.CreateNode(ctx, 0, "f.c", types.TypeFile, types.FlagsModify)
	if err != nil {
		t.Fatalf("CreateNode failed: %v", err)
	}

	dbn, err := store.NodeByID(ctx, id)
	if err != nil {
		t.Fatalf("NodeByID failed: %v", err)
	}
	want := &types.DBNode{ID: id, Dir: 0, Name: "f.c", Type: types.TypeFile, Flags: types.FlagsModify}
	if diff := cmp.Diff(want, dbn); diff != "" {
		t.Errorf("node mismatch (-want +got):\n%s", diff)
	}

	if _, err := store.NodeByID(ctx, id+100); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("lookup of missing node: err = %v, want ErrNodeNotFound", err)
	}
}

func TestNodeByNamePrefersOriginal(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	first, err := store.CreateNode(ctx, 0, "cc", types.TypeCmd, types.FlagsModify)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateDupNode(ctx, "cc", types.TypeCmd, types.FlagsNone); err != nil {
		t.Fatalf("CreateDupNode failed: %v", err)
	}

	dbn, err := store.NodeByName(ctx, "cc")
	if err != nil {
		t.Fatalf("NodeByName failed: %v", err)
	}
	if dbn.ID != first {
		t.Errorf("NodeByName returned %d, want the original %d", dbn.ID, first)
	}
}

func TestSelectNodeByFlags(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	a, _ := store.CreateNode(ctx, 0, "a", types.TypeFile, types.FlagsModify)
	store.CreateNode(ctx, 0, "b", types.TypeFile, types.FlagsNone)
	c, _ := store.CreateNode(ctx, 0, "c", types.TypeFile, types.FlagsModify|types.FlagsDelete)

	var got []types.TupID
	err := store.SelectNodeByFlags(ctx, types.FlagsModify, func(dbn *types.DBNode) error {
		got = append(got, dbn.ID)
		return nil
	})
	if err != nil {
		t.Fatalf("SelectNodeByFlags failed: %v", err)
	}
	if diff := cmp.Diff([]types.TupID{a, c}, got); diff != "" {
		t.Errorf("flagged ids mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectCallbackMayWrite(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	dir, _ := store.CreateNode(ctx, 0, "src", types.TypeDir, types.FlagsCreate)
	cmd, _ := store.CreateNode(ctx, dir, "cc", types.TypeCmd, types.FlagsNone)

	// The create-phase pattern: the callback writes to the node
	// table while the flag query over that same table is dispatched.
	err := store.SelectNodeByFlags(ctx, types.FlagsCreate, func(dbn *types.DBNode) error {
		return store.SetCmdchildFlags(ctx, dbn.ID, types.FlagsDelete)
	})
	if err != nil {
		t.Fatalf("SelectNodeByFlags failed: %v", err)
	}

	dbn, err := store.NodeByID(ctx, cmd)
	if err != nil {
		t.Fatal(err)
	}
	if dbn.Flags != types.FlagsDelete {
		t.Errorf("command flags = %v, want delete", dbn.Flags)
	}
}

func TestLinks(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	f, _ := store.CreateNode(ctx, 0, "f.c", types.TypeFile, types.FlagsNone)
	cc, _ := store.CreateNode(ctx, 0, "cc", types.TypeCmd, types.FlagsNone)
	out, _ := store.CreateNode(ctx, 0, "f.o", types.TypeFile, types.FlagsNone)

	if err := store.AddLink(ctx, f, cc); err != nil {
		t.Fatal(err)
	}
	// Duplicates are absorbed.
	if err := store.AddLink(ctx, f, cc); err != nil {
		t.Fatal(err)
	}
	if err := store.AddCmdlink(ctx, cc, out); err != nil {
		t.Fatal(err)
	}

	var deps []types.TupID
	err := store.SelectNodeByLink(ctx, f, func(dbn *types.DBNode) error {
		deps = append(deps, dbn.ID)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]types.TupID{cc}, deps); diff != "" {
		t.Errorf("file-link deps mismatch (-want +got):\n%s", diff)
	}

	var outs []types.TupID
	err = store.SelectNodeByCmdlink(ctx, cc, func(dbn *types.DBNode) error {
		outs = append(outs, dbn.ID)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]types.TupID{out}, outs); diff != "" {
		t.Errorf("cmd-link deps mismatch (-want +got):\n%s", diff)
	}
}

func TestMoveCmdlink(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	old, _ := store.CreateNode(ctx, 0, "cc", types.TypeCmd, types.FlagsNone)
	out, _ := store.CreateNode(ctx, 0, "f.o", types.TypeFile, types.FlagsNone)
	if err := store.AddCmdlink(ctx, old, out); err != nil {
		t.Fatal(err)
	}
	fresh, err := store.CreateDupNode(ctx, "cc", types.TypeCmd, types.FlagsNone)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.MoveCmdlink(ctx, old, fresh); err != nil {
		t.Fatalf("MoveCmdlink failed: %v", err)
	}

	all, err := store.AllCmdlinks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []Link{{From: fresh, To: out}}
	if diff := cmp.Diff(want, all); diff != "" {
		t.Errorf("cmdlinks mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteNameFileRemovesLinks(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	f, _ := store.CreateNode(ctx, 0, "f.c", types.TypeFile, types.FlagsNone)
	cc, _ := store.CreateNode(ctx, 0, "cc", types.TypeCmd, types.FlagsNone)
	if err := store.AddLink(ctx, f, cc); err != nil {
		t.Fatal(err)
	}

	if err := store.DeleteNameFile(ctx, f); err != nil {
		t.Fatalf("DeleteNameFile failed: %v", err)
	}
	if _, err := store.NodeByID(ctx, f); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("node survived deletion (err=%v)", err)
	}
	links, err := store.AllLinks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 0 {
		t.Errorf("links survived deletion: %v", links)
	}
}

func TestSetCmdchildFlagsOnlyTouchesCommands(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	dir, _ := store.CreateNode(ctx, 0, "src", types.TypeDir, types.FlagsNone)
	cmd, _ := store.CreateNode(ctx, dir, "cc", types.TypeCmd, types.FlagsNone)
	file, _ := store.CreateNode(ctx, dir, "f.c", types.TypeFile, types.FlagsNone)
	other, _ := store.CreateNode(ctx, 0, "ld", types.TypeCmd, types.FlagsNone)

	if err := store.SetCmdchildFlags(ctx, dir, types.FlagsDelete); err != nil {
		t.Fatalf("SetCmdchildFlags failed: %v", err)
	}

	for _, tt := range []struct {
		id   types.TupID
		want types.Flags
	}{
		{cmd, types.FlagsDelete},
		{file, types.FlagsNone},
		{other, types.FlagsNone},
	} {
		dbn, err := store.NodeByID(ctx, tt.id)
		if err != nil {
			t.Fatal(err)
		}
		if dbn.Flags != tt.want {
			t.Errorf("node %d flags = %v, want %v", tt.id, dbn.Flags, tt.want)
		}
	}
}
