package invoke

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/danmuck/clipbridge/internal/testutil/testlog"
)

type recordedCall struct {
	command string
	args    json.RawMessage
}

type mockInvoker struct {
	calls []recordedCall
	err   error
}

func (m *mockInvoker) Invoke(_ context.Context, command string, args any) (json.RawMessage, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	m.calls = append(m.calls, recordedCall{command: command, args: raw})
	if m.err != nil {
		return nil, m.err
	}
	return nil, nil
}

func TestCopyToClipboardIssuesOneCall(t *testing.T) {
	testlog.Start(t)
	m := &mockInvoker{}

	if err := CopyToClipboard(context.Background(), m, "hello"); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if len(m.calls) != 1 {
		t.Fatalf("expected exactly one call, got %d", len(m.calls))
	}
	if m.calls[0].command != "copy_text" {
		t.Fatalf("unexpected command: %q", m.calls[0].command)
	}
	if string(m.calls[0].args) != `{"value":"hello"}` {
		t.Fatalf("unexpected args: %s", m.calls[0].args)
	}
}

func TestCopyToClipboardPassesValueVerbatim(t *testing.T) {
	testlog.Start(t)
	for _, value := range []string{"", " leading and trailing ", "line1\r\nline2", "emoji 🚀 and \x00 nul", `"quoted" {json}`} {
		m := &mockInvoker{}
		if err := CopyToClipboard(context.Background(), m, value); err != nil {
			t.Fatalf("copy %q: %v", value, err)
		}
		var got CopyTextArgs
		if err := json.Unmarshal(m.calls[0].args, &got); err != nil {
			t.Fatalf("decode args: %v", err)
		}
		if got.Value != value {
			t.Fatalf("value changed: got=%q want=%q", got.Value, value)
		}
	}
}

func TestCopyToClipboardReturnsErrorUnmodified(t *testing.T) {
	testlog.Start(t)
	denied := errors.New("denied")
	m := &mockInvoker{err: denied}

	err := CopyToClipboard(context.Background(), m, "hello")
	if err != denied {
		t.Fatalf("expected the same error value, got %v", err)
	}
	if err.Error() != "denied" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if len(m.calls) != 1 {
		t.Fatalf("expected no retry, got %d calls", len(m.calls))
	}
}

func TestCopyToClipboardRejectsInvalidUTF8(t *testing.T) {
	testlog.Start(t)
	for _, value := range []string{"\xff", "ab\xffcd", "\xc3("} {
		m := &mockInvoker{}
		err := CopyToClipboard(context.Background(), m, value)
		if !errors.Is(err, ErrInvalidArgs) {
			t.Fatalf("copy %q: expected ErrInvalidArgs, got %v", value, err)
		}
		if len(m.calls) != 0 {
			t.Fatalf("copy %q: invalid value must not be sent, got %d calls", value, len(m.calls))
		}
	}
}

func TestBridgeErrorIs(t *testing.T) {
	testlog.Start(t)
	cases := map[string]error{
		"command_not_found":     ErrCommandNotFound,
		"invalid_args":          ErrInvalidArgs,
		"unauthorized":          ErrUnauthorized,
		"clipboard_unavailable": ErrClipboardUnavailable,
		"command_failed":        ErrCommandFailed,
		"something_new":         ErrCommandFailed,
	}
	for kind, want := range cases {
		err := error(&BridgeError{Command: "copy_text", Kind: kind, Message: "x"})
		if !errors.Is(err, want) {
			t.Fatalf("kind %q should match %v", kind, want)
		}
		if errors.Is(err, ErrBridgeUnavailable) {
			t.Fatalf("kind %q must not match ErrBridgeUnavailable", kind)
		}
	}
}
