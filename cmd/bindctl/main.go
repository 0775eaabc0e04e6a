package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/danmuck/bindrpc/internal/client"
	"github.com/danmuck/bindrpc/internal/logging"
	"github.com/danmuck/bindrpc/internal/pack"
	"github.com/danmuck/bindrpc/internal/transport"
)

var errUsage = errors.New("usage: bindctl [-addr host:port] [-timeout d] [-retries n] handles | vars | sig <handle> | call <handle> [args...]")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "bindctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("bindctl", flag.ContinueOnError)
	addr := fs.String("addr", transport.DefaultConfig().Addr, "server address")
	timeout := fs.Duration("timeout", 10*time.Second, "per-command timeout")
	retries := fs.Int("retries", 0, "extra dial attempts with backoff")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return errUsage
	}

	logging.ConfigureRuntime()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	cfg := transport.Config{}
	if *retries > 0 {
		cfg.Redial = transport.DefaultBackoff()
		cfg.Redial.MaxAttempts = *retries + 1
	}
	c, err := client.Dial(ctx, *addr, cfg)
	if err != nil {
		return err
	}
	defer c.Close()
	return execute(ctx, c, rest, out)
}

func execute(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	switch args[0] {
	case "handles":
		handles, err := c.Handles(ctx)
		if err != nil {
			return err
		}
		for _, h := range handles {
			fmt.Fprintln(out, h)
		}
		return nil

	case "vars":
		vars, err := c.Vars(ctx)
		if err != nil {
			return err
		}
		for _, v := range vars {
			fmt.Fprintf(out, "%s\tget=%s\tset=%s\n", v.Name, orDash(v.Getter), orDash(v.Setter))
		}
		return nil

	case "sig":
		if len(args) != 2 {
			return errUsage
		}
		sig, err := c.Signature(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s%s\n", args[1], sig)
		return nil

	case "call":
		if len(args) < 2 {
			return errUsage
		}
		handle := args[1]
		sig, err := c.Signature(ctx, handle)
		if err != nil {
			return err
		}
		raw := args[2:]
		if len(raw) != len(sig.Args) {
			return fmt.Errorf("%w: %s%s takes %d, got %d", client.ErrArity, handle, sig, len(sig.Args), len(raw))
		}
		values := make([]any, len(raw))
		for i, s := range raw {
			if values[i], err = pack.ParseValue(sig.Args[i], s); err != nil {
				return fmt.Errorf("argument %d: %w", i, err)
			}
		}
		result, err := c.CallDynamic(ctx, handle, values...)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, pack.FormatValue(result))
		return nil
	}
	return fmt.Errorf("unknown command %q\n%w", strings.TrimSpace(args[0]), errUsage)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
