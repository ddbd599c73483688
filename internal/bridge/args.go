package bridge

import (
	"bytes"
	"encoding/json"
)

// Args holds the named arguments of one invocation, still JSON encoded.
type Args map[string]json.RawMessage

// ParseArgs decodes a JSON object. Empty input yields no arguments.
func ParseArgs(raw json.RawMessage) (Args, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Args{}, nil
	}
	if trimmed[0] != '{' {
		return nil, invalidArgs("arguments must be a json object")
	}
	var args Args
	if err := json.Unmarshal(trimmed, &args); err != nil {
		return nil, invalidArgs("decode arguments: %v", err)
	}
	if args == nil {
		args = Args{}
	}
	return args, nil
}

// String returns a required string argument verbatim.
func (a Args) String(name string) (string, error) {
	raw, ok := a[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", invalidArgs("missing argument %q", name)
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", invalidArgs("argument %q must be a string", name)
	}
	return v, nil
}

// Int64 returns a required integer argument.
func (a Args) Int64(name string) (int64, error) {
	raw, ok := a[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return 0, invalidArgs("missing argument %q", name)
	}
	var v int64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, invalidArgs("argument %q must be an integer", name)
	}
	return v, nil
}
