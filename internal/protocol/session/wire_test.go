package session

import (
	"bytes"
	"math/rand"
	"testing"
	"time"

	"github.com/danmuck/clipbridge/internal/protocol/frame"
	"github.com/danmuck/clipbridge/internal/protocol/schema"
	"github.com/danmuck/clipbridge/internal/testutil/testlog"
)

func TestInvokeFrameRoundTrip(t *testing.T) {
	testlog.Start(t)

	in := Invoke{
		RequestID: "req-1",
		Command:   "copy_text",
		Args:      []byte(`{"value":"hello\nworld ✓"}`),
		AuthToken: "secret",
	}
	raw, err := EncodeInvokeFrame(42, in)
	if err != nil {
		t.Fatalf("encode invoke: %v", err)
	}
	fr, err := ReadFrame(bytes.NewReader(raw), frame.DefaultLimits())
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if fr.Header.MessageType != schema.MsgInvoke || fr.Header.MessageID != 42 {
		t.Fatalf("unexpected header: %+v", fr.Header)
	}
	out, err := DecodeInvokeFrame(fr)
	if err != nil {
		t.Fatalf("decode invoke: %v", err)
	}
	if out.RequestID != in.RequestID || out.Command != in.Command || out.AuthToken != in.AuthToken {
		t.Fatalf("invoke mismatch: in=%+v out=%+v", in, out)
	}
	if !bytes.Equal(out.Args, in.Args) {
		t.Fatalf("args mismatch: %s", out.Args)
	}
}

func TestInvokeFrameDefaultsEmptyArgs(t *testing.T) {
	testlog.Start(t)

	raw, err := EncodeInvokeFrame(1, Invoke{RequestID: "req-2", Command: "get_fav_list"})
	if err != nil {
		t.Fatalf("encode invoke: %v", err)
	}
	fr, err := ReadFrame(bytes.NewReader(raw), frame.DefaultLimits())
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if fr.Header.Flags&frame.FlagHasAuth != 0 {
		t.Fatalf("expected no auth flag")
	}
	out, err := DecodeInvokeFrame(fr)
	if err != nil {
		t.Fatalf("decode invoke: %v", err)
	}
	if string(out.Args) != "{}" {
		t.Fatalf("expected empty args object, got %s", out.Args)
	}
}

func TestInvokeRejectsInvalidArgs(t *testing.T) {
	testlog.Start(t)
	_, err := EncodeInvokeFrame(1, Invoke{RequestID: "r", Command: "copy_text", Args: []byte(`{"value":`)})
	if err == nil {
		t.Fatalf("expected invalid json args to be rejected")
	}
}

func TestResultFrameRoundTrip(t *testing.T) {
	testlog.Start(t)

	raw, err := EncodeResultFrame(7, Result{RequestID: "req-1", Payload: []byte(`[{"id":1}]`), TimestampMS: 1760000000000})
	if err != nil {
		t.Fatalf("encode result: %v", err)
	}
	fr, err := ReadFrame(bytes.NewReader(raw), frame.DefaultLimits())
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if fr.Header.Flags&frame.FlagIsResponse == 0 || fr.Header.Flags&frame.FlagIsError != 0 {
		t.Fatalf("unexpected flags: %d", fr.Header.Flags)
	}
	out, err := DecodeResultFrame(fr)
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if out.RequestID != "req-1" || string(out.Payload) != `[{"id":1}]` || out.TimestampMS != 1760000000000 {
		t.Fatalf("result mismatch: %+v", out)
	}
}

func TestResultFrameWithoutPayload(t *testing.T) {
	testlog.Start(t)

	raw, err := EncodeResultFrame(8, Result{RequestID: "req-3"})
	if err != nil {
		t.Fatalf("encode result: %v", err)
	}
	fr, err := ReadFrame(bytes.NewReader(raw), frame.DefaultLimits())
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	out, err := DecodeResultFrame(fr)
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if out.Payload != nil {
		t.Fatalf("expected nil payload, got %s", out.Payload)
	}
}

func TestFailureFrameRoundTrip(t *testing.T) {
	testlog.Start(t)

	in := Failure{RequestID: "req-1", Kind: "clipboard_unavailable", Message: "denied", TimestampMS: 1}
	raw, err := EncodeFailureFrame(9, in)
	if err != nil {
		t.Fatalf("encode failure: %v", err)
	}
	fr, err := ReadFrame(bytes.NewReader(raw), frame.DefaultLimits())
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if fr.Header.Flags&frame.FlagIsError == 0 {
		t.Fatalf("expected error flag")
	}
	if _, err := DecodeResultFrame(fr); err == nil {
		t.Fatalf("expected result decode of failure frame to fail")
	}
	out, err := DecodeFailureFrame(fr)
	if err != nil {
		t.Fatalf("decode failure: %v", err)
	}
	if out != in {
		t.Fatalf("failure mismatch: in=%+v out=%+v", in, out)
	}
}

func TestNextBackoffDelay(t *testing.T) {
	cfg := BackoffConfig{InitialDelay: 100 * time.Millisecond, Multiplier: 2, MaxDelay: 300 * time.Millisecond}
	if d := NextBackoffDelay(cfg, 1, nil); d != 100*time.Millisecond {
		t.Fatalf("attempt 1: %v", d)
	}
	if d := NextBackoffDelay(cfg, 2, nil); d != 200*time.Millisecond {
		t.Fatalf("attempt 2: %v", d)
	}
	if d := NextBackoffDelay(cfg, 5, nil); d != 300*time.Millisecond {
		t.Fatalf("attempt 5 should cap: %v", d)
	}

	cfg.Jitter = true
	rng := rand.New(rand.NewSource(1))
	for attempt := 1; attempt <= 4; attempt++ {
		d := NextBackoffDelay(cfg, attempt, rng)
		if d < 50*time.Millisecond || d > 450*time.Millisecond {
			t.Fatalf("jittered delay out of range: attempt=%d delay=%v", attempt, d)
		}
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{ReadTimeout: time.Second}.WithDefaults()
	def := DefaultConfig()
	if cfg.ReadTimeout != time.Second {
		t.Fatalf("explicit read timeout overwritten: %v", cfg.ReadTimeout)
	}
	if cfg.ConnectTimeout != def.ConnectTimeout || cfg.CallTimeout != def.CallTimeout {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Backoff != def.Backoff {
		t.Fatalf("backoff defaults not applied: %+v", cfg.Backoff)
	}
}
