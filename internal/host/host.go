// Package host implements the commands the clipbridge daemon exposes to callers.
package host

import (
	"context"
	"errors"
	"sync"

	"github.com/danmuck/clipbridge/internal/bridge"
	"github.com/danmuck/clipbridge/internal/clipboard"
	"github.com/danmuck/clipbridge/internal/favorites"
	"github.com/danmuck/clipbridge/internal/protocol/session"
	"github.com/rs/zerolog/log"
)

const (
	CmdCopyText           = "copy_text"
	CmdAddToFavorite      = "add_to_favorite"
	CmdGetFavList         = "get_fav_list"
	CmdRemoveFromFavorite = "remove_from_favorite"
)

// Deps are the host resources commands operate on. Favorites may be nil,
// in which case the favorites commands are not registered.
type Deps struct {
	Clipboard clipboard.Clipboard
	Favorites *favorites.Store
}

// Host owns command state shared across connections.
type Host struct {
	deps Deps

	mu          sync.Mutex
	lastWritten string
	hasWritten  bool
}

func New(deps Deps) *Host {
	return &Host{deps: deps}
}

// Install registers every available host command on r.
func Install(r *bridge.Registry, deps Deps) (*Host, error) {
	h := New(deps)
	if err := h.Install(r); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Host) Install(r *bridge.Registry) error {
	if h.deps.Clipboard == nil {
		return errors.New("host: clipboard backend required")
	}
	if err := r.Register(CmdCopyText, h.copyText); err != nil {
		return err
	}
	if h.deps.Favorites == nil {
		log.Warn().Msg("host: favorites store disabled")
		return nil
	}
	if err := r.Register(CmdAddToFavorite, h.addToFavorite); err != nil {
		return err
	}
	if err := r.Register(CmdGetFavList, h.getFavList); err != nil {
		return err
	}
	return r.Register(CmdRemoveFromFavorite, h.removeFromFavorite)
}

// lastWrite returns the last value this host placed on the clipboard.
func (h *Host) lastWrite() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastWritten, h.hasWritten
}

func (h *Host) copyText(_ context.Context, args bridge.Args) (any, error) {
	value, err := args.String("value")
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.deps.Clipboard.WriteText(value); err != nil {
		if errors.Is(err, clipboard.ErrUnavailable) {
			return nil, bridge.Fail(session.KindClipboardUnavailable, err)
		}
		return nil, err
	}
	h.lastWritten = value
	h.hasWritten = true
	log.Debug().Int("bytes", len(value)).Msg("host: clipboard written")
	return nil, nil
}

func (h *Host) addToFavorite(ctx context.Context, args bridge.Args) (any, error) {
	value, err := args.String("value")
	if err != nil {
		return nil, err
	}
	return h.deps.Favorites.Create(ctx, value)
}

func (h *Host) getFavList(ctx context.Context, _ bridge.Args) (any, error) {
	return h.deps.Favorites.List(ctx)
}

func (h *Host) removeFromFavorite(ctx context.Context, args bridge.Args) (any, error) {
	id, err := args.Int64("id")
	if err != nil {
		return nil, err
	}
	return nil, h.deps.Favorites.Remove(ctx, id)
}
