package favorites

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/danmuck/clipbridge/internal/testutil/testlog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", DefaultFile)
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateListRemove(t *testing.T) {
	testlog.Start(t)
	ctx := context.Background()
	s := openTestStore(t)

	a, err := s.Create(ctx, "first")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := s.Create(ctx, "second\nline")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.ID == b.ID {
		t.Fatalf("expected distinct ids, got %d", a.ID)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0] != a || list[1] != b {
		t.Fatalf("unexpected list: %+v", list)
	}

	if err := s.Remove(ctx, a.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	list, err = s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0] != b {
		t.Fatalf("unexpected list after remove: %+v", list)
	}
}

func TestRemoveMissingIsNoop(t *testing.T) {
	testlog.Start(t)
	ctx := context.Background()
	s := openTestStore(t)
	kept, err := s.Create(ctx, "kept")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Remove(ctx, kept.ID+404); err != nil {
		t.Fatalf("remove missing id: %v", err)
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0] != kept {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestCreateAcceptsEmpty(t *testing.T) {
	testlog.Start(t)
	fav, err := openTestStore(t).Create(context.Background(), "")
	if err != nil {
		t.Fatalf("create empty: %v", err)
	}
	if fav.ID == 0 || fav.Value != "" {
		t.Fatalf("unexpected favorite: %+v", fav)
	}
}

func TestReopenKeepsRows(t *testing.T) {
	testlog.Start(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), DefaultFile)

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Create(ctx, "kept"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Value != "kept" {
		t.Fatalf("unexpected rows after reopen: %+v", list)
	}
}
