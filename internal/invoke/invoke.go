// Package invoke is the caller side of the clipbridge host bridge.
package invoke

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

const CmdCopyText = "copy_text"

// Invoker sends one named command with JSON encodable args and returns the
// raw result payload. A nil payload means the command returned nothing.
type Invoker interface {
	Invoke(ctx context.Context, command string, args any) (json.RawMessage, error)
}

// CopyTextArgs is the argument object of copy_text.
type CopyTextArgs struct {
	Value string `json:"value"`
}

// CopyToClipboard asks the host to place value on its clipboard. It issues
// exactly one copy_text call and returns the invoker's error unchanged.
// A value that is not valid UTF-8 is rejected with ErrInvalidArgs before any
// call is made, since JSON encoding would replace the bad bytes.
func CopyToClipboard(ctx context.Context, inv Invoker, value string) error {
	if !utf8.ValidString(value) {
		return fmt.Errorf("%w: value is not valid utf-8", ErrInvalidArgs)
	}
	_, err := inv.Invoke(ctx, CmdCopyText, CopyTextArgs{Value: value})
	return err
}
