package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"github.com/matiasbeltran/feria/internal/api"
	"github.com/matiasbeltran/feria/internal/cli"
	"github.com/matiasbeltran/feria/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Local cache path: env var or default ~/.feria/feria.db
	dbPath := os.Getenv("FERIA_DB")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".feria", "feria.db")
	}

	db, err := store.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("opening local cache: %w", err)
	}
	defer db.Close()

	creds := store.NewCredentialRepo(db)
	returns := store.NewReturnRepo(db)

	cfg := api.LoadConfig()

	var observer api.Observer
	if cfg.LogHTTP {
		observer = api.NewLogObserver(os.Stderr)
	}

	client := api.NewClient(cfg, api.TokenSourceFunc(creds.Token), observer)
	client.SetAuthExpiredHook(func() {
		// A rejected token is useless; drop it so the next command asks
		// for a fresh login instead of failing the same way.
		_ = creds.Clear()
	})

	app := &cli.App{
		API:     client,
		Creds:   creds,
		Returns: returns,
		Config:  cfg,
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
		},
	}

	return cli.NewRootCmd(app).Execute()
}
