package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danmuck/clipbridge/internal/protocol/session"
	"github.com/google/uuid"
)

// HTTPClient invokes host commands through the daemon's HTTP transport.
type HTTPClient struct {
	BaseURL   string
	AuthToken string
	HTTP      *http.Client
}

var _ Invoker = (*HTTPClient)(nil)

func NewHTTPClient(baseURL, token string, timeout time.Duration) (*HTTPClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrAddressRequired
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	if timeout <= 0 {
		timeout = session.DefaultConfig().CallTimeout
	}
	return &HTTPClient{
		BaseURL:   baseURL,
		AuthToken: token,
		HTTP:      &http.Client{Timeout: timeout},
	}, nil
}

type httpEnvelope struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *HTTPClient) Invoke(ctx context.Context, command string, args any) (json.RawMessage, error) {
	rawArgs, err := encodeArgs(args)
	if err != nil {
		return nil, err
	}
	if len(rawArgs) == 0 {
		rawArgs = json.RawMessage(`{}`)
	}
	endpoint := c.BaseURL + "/invoke/" + url.PathEscape(command)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(rawArgs))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AuthToken)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, unavailable(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, unavailable(err)
	}
	var env httpEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, unavailable(fmt.Errorf("decode response status=%d: %w", resp.StatusCode, err))
	}
	if !env.OK {
		if env.Error == nil {
			return nil, unavailable(fmt.Errorf("failure response status=%d without error", resp.StatusCode))
		}
		return nil, &BridgeError{Command: command, Kind: env.Error.Kind, Message: env.Error.Message}
	}
	if len(env.Result) == 0 || bytes.Equal(env.Result, []byte("null")) {
		return nil, nil
	}
	return env.Result, nil
}
