package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/accesshq/access-console/internal/config"
	"github.com/accesshq/access-console/internal/store"
	"github.com/accesshq/access-console/pkg/accessapi"
	"github.com/accesshq/access-console/pkg/apiclient"
	"github.com/accesshq/access-console/pkg/httpclient"
)

const usageText = `Usage: accessctl <command> [args]

Commands:
  login [-token <token>]   store a bearer token (reads stdin when -token is absent)
  logout                   remove the stored token
  status                   report whether a token is stored
  pool <address>           fetch a stake pool
  stake <owner> <pool>     fetch a stake account
  bond <address>           fetch a bond account
  rewards <address>        fetch the rewards summary for a pool
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "accessctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usageText)
		return fmt.Errorf("missing command")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := store.NewStore(cfg.StorageType, cfg.BBoltPath, store.Options{
		SnapshotTTL:     cfg.SnapshotTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	command, rest := args[0], args[1:]
	switch command {
	case "login":
		return runLogin(cfg, st, rest)
	case "logout":
		if err := st.DeleteToken(); err != nil {
			return fmt.Errorf("remove token: %w", err)
		}
		fmt.Println("token removed")
		return nil
	case "status":
		return runStatus(cfg, st)
	case "pool":
		if len(rest) != 1 {
			return fmt.Errorf("usage: accessctl pool <address>")
		}
		pool, err := newAPI(cfg, st).StakePool(ctx, rest[0])
		if err != nil {
			return err
		}
		return printJSON(pool)
	case "stake":
		if len(rest) != 2 {
			return fmt.Errorf("usage: accessctl stake <owner> <pool>")
		}
		account, err := newAPI(cfg, st).StakeAccount(ctx, rest[0], rest[1])
		if err != nil {
			return err
		}
		return printJSON(account)
	case "bond":
		if len(rest) != 1 {
			return fmt.Errorf("usage: accessctl bond <address>")
		}
		bond, err := newAPI(cfg, st).Bond(ctx, rest[0])
		if err != nil {
			return err
		}
		return printJSON(bond)
	case "rewards":
		if len(rest) != 1 {
			return fmt.Errorf("usage: accessctl rewards <address>")
		}
		rewards, err := newAPI(cfg, st).PoolRewards(ctx, rest[0])
		if err != nil {
			return err
		}
		return printJSON(rewards)
	default:
		fmt.Fprint(os.Stderr, usageText)
		return fmt.Errorf("unknown command %q", command)
	}
}

func runLogin(cfg *config.Config, st store.Store, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	token := fs.String("token", "", "bearer token to store")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tok := strings.TrimSpace(*token)
	if tok == "" {
		fmt.Fprintln(os.Stderr, "paste token:")
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		if !scanner.Scan() {
			return fmt.Errorf("no token provided")
		}
		tok = strings.TrimSpace(scanner.Text())
	}
	if tok == "" {
		return fmt.Errorf("no token provided")
	}

	expiry := store.TokenExpiry(tok, cfg.TokenTTL, time.Now())
	if err := st.PutToken(tok, expiry); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	fmt.Printf("token stored (valid until %s)\n", expiry.Format(time.RFC3339))
	return nil
}

func runStatus(cfg *config.Config, st store.Store) error {
	_, ok, err := st.Token()
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	return printJSON(map[string]any{
		"api_base_url":  cfg.APIBaseURL,
		"authenticated": ok,
	})
}

func newAPI(cfg *config.Config, st store.Store) *accessapi.API {
	client := apiclient.New(cfg.APIBaseURL, httpclient.NewRestyClient(cfg.HTTPTimeout), st)
	return accessapi.New(client)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
