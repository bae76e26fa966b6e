package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/niksmo/shopcart/config"
	"github.com/niksmo/shopcart/internal/adapter/storage"
	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/service"
	"github.com/niksmo/shopcart/pkg/sigctx"
	"github.com/spf13/pflag"
)

const usage = `usage: cartctl [flags] <command>

commands:
  list      print the session cart
  total     print the cart total and item count
  add       add --title with --price (and optional --image)
  change    add --delta to the quantity of --title
  remove    remove --title
  clear     empty the cart
  tail      print cart events from the stream until interrupted

flags:
`

var (
	errUsage     = errors.New("invalid usage")
	errNoSession = errors.New("--session is required")
	errNoTitle   = errors.New("--title is required")
	errNoStream  = errors.New("broker.seed_brokers is empty")
	errZeroDelta = errors.New("--delta must not be zero")
)

type options struct {
	configPath string
	session    string
	title      string
	price      string
	image      string
	delta      int
	command    string
}

func main() {
	ctx, cancel := sigctx.NotifyContext()
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "cartctl:", err)
		os.Exit(2)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		return err
	}

	if opts.command == "tail" {
		if !cfg.StreamEnabled() {
			return errNoStream
		}
		return tail(ctx, cfg, stdout)
	}
	return runCartCommand(ctx, cfg, opts, stdout)
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := pflag.NewFlagSet("cartctl", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	defaultConfig := "./configs/config.yaml"
	if env, ok := os.LookupEnv("SHOPCART_CONFIG_FILE"); ok {
		defaultConfig = env
	}
	fs.StringVarP(&opts.configPath, "config", "c", defaultConfig, "config file")
	fs.StringVarP(&opts.session, "session", "s", "", "cart session id")
	fs.StringVarP(&opts.title, "title", "t", "", "product title")
	fs.StringVarP(&opts.price, "price", "p", "", "product price, e.g. \"₱1,250.00\"")
	fs.StringVar(&opts.image, "image", "", "product image url")
	fs.IntVarP(&opts.delta, "delta", "d", 0, "quantity change")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return opts, errUsage
	}
	opts.command = fs.Arg(0)
	return opts, nil
}

func runCartCommand(
	ctx context.Context, cfg config.Config, opts options, w io.Writer,
) error {
	if opts.session == "" {
		return errNoSession
	}

	kv, closeKV, err := storage.OpenKV(ctx, storage.OpenConfig{
		Driver:     cfg.Storage.Driver,
		Dir:        cfg.Storage.Dir,
		SQLitePath: cfg.Storage.SQLitePath,
		DSN:        cfg.Storage.DSN,
	})
	if err != nil {
		return err
	}
	defer closeKV()

	sessions := service.NewSessions(
		service.SessionsConfig{StorageKey: cfg.Storage.Key},
		service.SessionsDeps{
			Storage: storage.NewCartRepository(kv, domain.PHP),
		},
	)
	defer sessions.Close()

	s := sessions.Get(ctx, opts.session)

	switch opts.command {
	case "list":
		printCart(w, s.Store.Snapshot())
		return nil
	case "total":
		snap := s.Store.Snapshot()
		fmt.Fprintf(w, "Total: %s (%d items)\n", snap.Total, snap.ItemCount)
		return nil
	case "add":
		if opts.title == "" {
			return errNoTitle
		}
		if _, err := s.AddToCart(ctx, opts.title, opts.price, opts.image); err != nil {
			return err
		}
	case "change":
		if opts.title == "" {
			return errNoTitle
		}
		if opts.delta == 0 {
			return errZeroDelta
		}
		if _, _, err := s.ChangeQuantity(ctx, opts.title, opts.delta); err != nil {
			return err
		}
	case "remove":
		if opts.title == "" {
			return errNoTitle
		}
		if _, err := s.Remove(ctx, opts.title); err != nil {
			return err
		}
	case "clear":
		s.ClearCart(ctx)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, opts.command)
	}

	for _, n := range s.Notifier.Active() {
		fmt.Fprintln(w, n.Message)
	}
	return nil
}

func printCart(w io.Writer, snap service.CartSnapshot) {
	if len(snap.Items) == 0 {
		fmt.Fprintln(w, "Your cart is empty")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTITLE\tPRICE\tQTY\tSUBTOTAL")
	for i, li := range snap.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n",
			i, li.Title, li.UnitPrice, li.Quantity, li.Subtotal(),
		)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "Total: %s\n", snap.Total)
}
