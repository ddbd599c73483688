package bridge

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/clipbridge/internal/testutil/testlog"
)

func noop(context.Context, Args) (any, error) { return nil, nil }

func TestRegisterResolveAndDuplicate(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()

	if err := r.Register("copy_text", noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register("copy_text", noop); !errors.Is(err, ErrCommandExists) {
		t.Fatalf("expected ErrCommandExists, got %v", err)
	}
	if _, ok := r.Resolve("copy_text"); !ok {
		t.Fatalf("expected copy_text to resolve")
	}
	if _, ok := r.Resolve("paste_text"); ok {
		t.Fatalf("expected missing command to return ok=false")
	}
}

func TestRegisterRejectsBadNames(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	for _, name := range []string{"", "Copy", "copy-text", "_copy", "copy_", "copy__text", "copy text"} {
		if err := r.Register(name, noop); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("name %q: expected ErrInvalidName, got %v", name, err)
		}
	}
	if err := r.Register("copy_text", nil); !errors.Is(err, ErrNilHandler) {
		t.Fatalf("expected ErrNilHandler, got %v", err)
	}
}

func TestNamesSorted(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	_ = r.Register("remove_from_favorite", noop)
	_ = r.Register("copy_text", noop)
	_ = r.Register("get_fav_list", noop)

	want := []string{"copy_text", "get_fav_list", "remove_from_favorite"}
	if got := r.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("names mismatch: got=%v want=%v", got, want)
	}
}

func TestParseArgs(t *testing.T) {
	testlog.Start(t)

	args, err := ParseArgs([]byte(`{"value":"  padded\n","id":12}`))
	if err != nil {
		t.Fatalf("parse args: %v", err)
	}
	v, err := args.String("value")
	if err != nil || v != "  padded\n" {
		t.Fatalf("string arg: v=%q err=%v", v, err)
	}
	id, err := args.Int64("id")
	if err != nil || id != 12 {
		t.Fatalf("int arg: id=%d err=%v", id, err)
	}
	if _, err := args.String("id"); !errors.Is(err, ErrInvalidArgs) {
		t.Fatalf("expected type mismatch to be invalid args, got %v", err)
	}
	if _, err := args.String("missing"); !errors.Is(err, ErrInvalidArgs) {
		t.Fatalf("expected missing arg to be invalid args, got %v", err)
	}

	empty, err := ParseArgs(nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty args: %v %v", empty, err)
	}
	if _, err := ParseArgs([]byte(`["value"]`)); !errors.Is(err, ErrInvalidArgs) {
		t.Fatalf("expected array args to be rejected, got %v", err)
	}
}

func TestEmptyStringArgIsAllowed(t *testing.T) {
	testlog.Start(t)
	args, err := ParseArgs([]byte(`{"value":""}`))
	if err != nil {
		t.Fatalf("parse args: %v", err)
	}
	v, err := args.String("value")
	if err != nil || v != "" {
		t.Fatalf("expected empty string value, got v=%q err=%v", v, err)
	}
	args, _ = ParseArgs([]byte(`{"value":null}`))
	if _, err := args.String("value"); !errors.Is(err, ErrInvalidArgs) {
		t.Fatalf("expected null value to be invalid args, got %v", err)
	}
}
