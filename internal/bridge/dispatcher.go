package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danmuck/clipbridge/internal/auth"
	"github.com/danmuck/clipbridge/internal/observability"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	TransportSocket = "socket"
	TransportHTTP   = "http"

	unknownCommandLabel = "unknown"
)

// Call is one invocation as received by a transport.
type Call struct {
	Transport string
	RequestID string
	Command   string
	Args      json.RawMessage
	Token     string
}

// Dispatcher authenticates, resolves and runs calls against a Registry.
type Dispatcher struct {
	registry *Registry
	auth     auth.Validator
	logger   zerolog.Logger
}

func NewDispatcher(registry *Registry, validator auth.Validator) *Dispatcher {
	if validator == nil {
		validator = auth.Open{}
	}
	return &Dispatcher{
		registry: registry,
		auth:     validator,
		logger:   log.With().Str("component", "bridge").Logger(),
	}
}

func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch runs one call and returns the JSON encoded handler result.
// A nil payload means the command produced no value.
func (d *Dispatcher) Dispatch(ctx context.Context, call Call) (json.RawMessage, error) {
	start := time.Now()
	label := call.Command
	payload, err := d.dispatch(ctx, call, &label)
	observability.RecordInvocation(call.Transport, label, time.Since(start), err)

	evt := d.logger.Debug()
	if err != nil {
		evt = d.logger.Warn().Err(err).Str("kind", KindOf(err))
	}
	evt.Str("transport", call.Transport).
		Str("request_id", call.RequestID).
		Str("command", call.Command).
		Dur("elapsed", time.Since(start)).
		Msg("bridge dispatch")
	return payload, err
}

func (d *Dispatcher) dispatch(ctx context.Context, call Call, label *string) (json.RawMessage, error) {
	if err := d.auth.Validate(call.Token); err != nil {
		*label = unknownCommandLabel
		return nil, err
	}
	handler, ok := d.registry.Resolve(call.Command)
	if !ok {
		*label = unknownCommandLabel
		return nil, fmt.Errorf("%w: %q", ErrCommandNotFound, call.Command)
	}
	args, err := ParseArgs(call.Args)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := handler(ctx, args)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}
	payload, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("bridge: encode %s result: %w", call.Command, err)
	}
	return payload, nil
}
