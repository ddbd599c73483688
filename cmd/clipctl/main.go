package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/danmuck/clipbridge/internal/favorites"
	"github.com/danmuck/clipbridge/internal/host"
	"github.com/danmuck/clipbridge/internal/invoke"
	"github.com/danmuck/clipbridge/internal/logging"
)

const usage = `usage: clipctl [-config path] [-http] <command>

commands:
  copy [text...]   copy text (or stdin when no text is given) to the host clipboard
  fav add <text>   pin a favorite
  fav list         list favorites
  fav rm <id>      remove a favorite
`

func main() {
	configPath := flag.String("config", "cmd/clipctl/config.toml", "clipctl config path")
	useHTTP := flag.Bool("http", false, "use the HTTP transport")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	logging.ConfigureRuntime("clipctl")
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *useHTTP, flag.Args(), os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "clipctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, useHTTP bool, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command\n%s", usage)
	}
	cfg, err := loadClientConfig(configPath)
	if err != nil {
		return err
	}
	if useHTTP {
		cfg.Transport = transportHTTP
	}
	inv, closeFn, err := cfg.invoker()
	if err != nil {
		return err
	}
	defer closeFn()
	return execute(ctx, inv, args, stdin, stdout)
}

func execute(ctx context.Context, inv invoke.Invoker, args []string, stdin io.Reader, stdout io.Writer) error {
	switch args[0] {
	case "copy":
		value, err := copyValue(args[1:], stdin)
		if err != nil {
			return err
		}
		return invoke.CopyToClipboard(ctx, inv, value)
	case "fav":
		return executeFav(ctx, inv, args[1:], stdout)
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func executeFav(ctx context.Context, inv invoke.Invoker, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("fav: missing subcommand\n%s", usage)
	}
	switch args[0] {
	case "add":
		if len(args) < 2 {
			return fmt.Errorf("fav add: missing text")
		}
		payload, err := inv.Invoke(ctx, host.CmdAddToFavorite, map[string]string{"value": strings.Join(args[1:], " ")})
		if err != nil {
			return err
		}
		var fav favorites.Favorite
		if err := json.Unmarshal(payload, &fav); err != nil {
			return fmt.Errorf("decode favorite: %w", err)
		}
		fmt.Fprintf(stdout, "%d\n", fav.ID)
		return nil
	case "list":
		payload, err := inv.Invoke(ctx, host.CmdGetFavList, nil)
		if err != nil {
			return err
		}
		var list []favorites.Favorite
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &list); err != nil {
				return fmt.Errorf("decode favorites: %w", err)
			}
		}
		for _, fav := range list {
			fmt.Fprintf(stdout, "%d\t%s\n", fav.ID, strconv.Quote(fav.Value))
		}
		return nil
	case "rm":
		if len(args) != 2 {
			return fmt.Errorf("fav rm: expected one id")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("fav rm: invalid id %q", args[1])
		}
		_, err = inv.Invoke(ctx, host.CmdRemoveFromFavorite, map[string]int64{"id": id})
		return err
	default:
		return fmt.Errorf("fav: unknown subcommand %q", args[0])
	}
}

// copyValue joins positional text with spaces, or reads stdin verbatim when none is given.
func copyValue(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}
