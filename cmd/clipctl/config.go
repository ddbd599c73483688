package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/clipbridge/internal/config"
	"github.com/danmuck/clipbridge/internal/invoke"
)

const (
	transportSocket = "socket"
	transportHTTP   = "http"
)

// clipctl config.toml keys.
type fileConfig struct {
	Transport          string `toml:"transport"`
	Network            string `toml:"network"`
	Address            string `toml:"address"`
	HTTPAddr           string `toml:"http_addr"`
	AuthToken          string `toml:"auth_token"`
	CallTimeout        string `toml:"call_timeout"`
	MaxConnectAttempts int    `toml:"max_connect_attempts"`
}

type clientConfig struct {
	Transport string
	HTTPAddr  string
	Client    invoke.ClientConfig
}

func defaultClientConfig() clientConfig {
	client := invoke.DefaultClientConfig()
	client.Address = filepath.Join(config.DefaultDataDir(), "clipbridge.sock")
	return clientConfig{
		Transport: transportSocket,
		HTTPAddr:  "127.0.0.1:7341",
		Client:    client,
	}
}

// loadClientConfig overlays keys present in path onto the defaults. A missing file yields the defaults.
func loadClientConfig(path string) (clientConfig, error) {
	cfg := defaultClientConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return clientConfig{}, fmt.Errorf("load clipctl config: %w", err)
	}

	if meta.IsDefined("transport") {
		t := strings.ToLower(strings.TrimSpace(raw.Transport))
		if t != transportSocket && t != transportHTTP {
			return clientConfig{}, fmt.Errorf("transport must be %q or %q, got %q", transportSocket, transportHTTP, raw.Transport)
		}
		cfg.Transport = t
	}

	if meta.IsDefined("network") {
		cfg.Client.Network = strings.ToLower(strings.TrimSpace(raw.Network))
	}

	if meta.IsDefined("address") {
		cfg.Client.Address = strings.TrimSpace(raw.Address)
	}

	if meta.IsDefined("http_addr") {
		cfg.HTTPAddr = strings.TrimSpace(raw.HTTPAddr)
	}

	if meta.IsDefined("auth_token") {
		cfg.Client.AuthToken = strings.TrimSpace(raw.AuthToken)
	}

	if meta.IsDefined("call_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.CallTimeout))
		if err != nil {
			return clientConfig{}, fmt.Errorf("parse call_timeout: %w", err)
		}
		cfg.Client.Session.CallTimeout = d
	}

	if meta.IsDefined("max_connect_attempts") {
		cfg.Client.MaxConnectAttempts = raw.MaxConnectAttempts
	}

	return cfg, nil
}

func (c clientConfig) invoker() (invoke.Invoker, func() error, error) {
	if c.Transport == transportHTTP {
		hc, err := invoke.NewHTTPClient(c.HTTPAddr, c.Client.AuthToken, c.Client.Session.CallTimeout)
		if err != nil {
			return nil, nil, err
		}
		return hc, func() error { return nil }, nil
	}
	client, err := invoke.NewClient(c.Client)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}
