package invoke

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/clipbridge/internal/protocol/frame"
	"github.com/danmuck/clipbridge/internal/protocol/schema"
	"github.com/danmuck/clipbridge/internal/protocol/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ClientConfig struct {
	Network   string
	Address   string
	AuthToken string
	Session   session.Config
	// MaxConnectAttempts bounds dial retries. Zero or less retries until ctx ends.
	MaxConnectAttempts int
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Network:            "unix",
		Session:            session.DefaultConfig(),
		MaxConnectAttempts: 3,
	}
}

// Client invokes host commands over one framed stream connection.
// Calls are serialized; the connection is dialed lazily and reused.
//
// A call that fails in transit is never re-sent. If the host closed the
// connection in the meantime, for example after its idle timeout, the next
// call fails with ErrBridgeUnavailable and the connection is dropped. The
// call after that dials again. Callers holding a Client across idle periods
// should treat ErrBridgeUnavailable as retryable at their own level.
type Client struct {
	cfg    ClientConfig
	rng    *rand.Rand
	logger zerolog.Logger

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	nextID uint64
	closed bool
}

var _ Invoker = (*Client)(nil)

func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, ErrAddressRequired
	}
	if strings.TrimSpace(cfg.Network) == "" {
		cfg.Network = "unix"
	}
	cfg.Session = cfg.Session.WithDefaults()
	return &Client{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: log.With().Str("component", "invoke").Str("addr", cfg.Address).Logger(),
	}, nil
}

// Invoke implements Invoker. Transport failures wrap ErrBridgeUnavailable and
// drop the connection; host failures are returned as *BridgeError.
func (c *Client) Invoke(ctx context.Context, command string, args any) (json.RawMessage, error) {
	rawArgs, err := encodeArgs(args)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClientClosed
	}
	if c.conn == nil {
		if err := c.connect(ctx); err != nil {
			return nil, err
		}
	}

	c.nextID++
	msgID := c.nextID
	requestID := uuid.NewString()
	raw, err := session.EncodeInvokeFrame(msgID, session.Invoke{
		RequestID: requestID,
		Command:   command,
		Args:      rawArgs,
		AuthToken: c.cfg.AuthToken,
	})
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(c.cfg.Session.CallTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn := c.conn
	if err := conn.SetDeadline(deadline); err != nil {
		c.dropConn()
		return nil, unavailable(err)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if _, err := conn.Write(raw); err != nil {
		c.dropConn()
		return nil, c.transportErr(ctx, err)
	}
	fr, err := session.ReadFrame(c.reader, frame.DefaultLimits())
	if err != nil {
		c.dropConn()
		return nil, c.transportErr(ctx, err)
	}
	if fr.Header.MessageID != msgID {
		c.dropConn()
		return nil, unavailable(fmt.Errorf("response message_id=%d want=%d", fr.Header.MessageID, msgID))
	}
	c.logger.Debug().Str("command", command).Str("request_id", requestID).Uint32("message_type", fr.Header.MessageType).Msg("invoke response")

	switch fr.Header.MessageType {
	case schema.MsgResult:
		res, err := session.DecodeResultFrame(fr)
		if err != nil {
			c.dropConn()
			return nil, unavailable(err)
		}
		if res.RequestID != requestID {
			c.dropConn()
			return nil, unavailable(fmt.Errorf("response request_id=%q want=%q", res.RequestID, requestID))
		}
		return res.Payload, nil
	case schema.MsgFailure:
		fail, err := session.DecodeFailureFrame(fr)
		if err != nil {
			c.dropConn()
			return nil, unavailable(err)
		}
		if fail.Kind == session.KindProtocol {
			c.dropConn()
		}
		return nil, &BridgeError{Command: command, Kind: fail.Kind, Message: fail.Message}
	default:
		c.dropConn()
		return nil, unavailable(fmt.Errorf("unexpected message_type=%d", fr.Header.MessageType))
	}
}

// Close releases the connection. Later calls return ErrClientClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.reader = nil
	return err
}

func (c *Client) connect(ctx context.Context) error {
	var attempt int
	for {
		attempt++
		dialer := net.Dialer{Timeout: c.cfg.Session.ConnectTimeout}
		conn, err := dialer.DialContext(ctx, c.cfg.Network, c.cfg.Address)
		if err == nil {
			c.conn = conn
			c.reader = bufio.NewReader(conn)
			return nil
		}
		c.logger.Debug().Err(err).Int("attempt", attempt).Msg("dial bridge")
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !c.shouldRetry(attempt) {
			return unavailable(err)
		}
		if err := c.sleepBackoff(ctx, attempt); err != nil {
			return err
		}
	}
}

func (c *Client) shouldRetry(attempt int) bool {
	if c.cfg.MaxConnectAttempts <= 0 {
		return true
	}
	return attempt < c.cfg.MaxConnectAttempts
}

func (c *Client) sleepBackoff(ctx context.Context, attempt int) error {
	delay := session.NextBackoffDelay(c.cfg.Session.Backoff, attempt, c.rng)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) dropConn() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = nil
	c.reader = nil
}

func (c *Client) transportErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return unavailable(fmt.Errorf("call timed out: %w", err))
	}
	return unavailable(err)
}

func encodeArgs(args any) (json.RawMessage, error) {
	switch v := args.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return v, nil
	case []byte:
		return json.RawMessage(v), nil
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("invoke: encode args: %w", err)
	}
	return raw, nil
}
