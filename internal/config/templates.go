package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const KindHost = "host"

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindHost, "clipbridged":
		return hostTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const hostTemplate = `name = "clipbridge"
network = "unix"
# address defaults to <data_dir>/clipbridge.sock for unix
address = ""
# empty disables the HTTP transport
http_addr = "127.0.0.1:7341"
cors_origins = ["tauri://localhost", "http://localhost:3000"]
# empty accepts every caller
auth_token = ""
# system | memory | command
clipboard = "system"
# used when clipboard = "command", e.g. ["wl-copy"] and ["wl-paste", "--no-newline"]
copy_command = []
paste_command = []
data_dir = ""
favorites = ""

[timeouts]
read = "10s"
write = "10s"
call = "15s"
idle = "5m"
`
