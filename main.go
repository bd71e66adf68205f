package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/nhle/pulse/internal/api"
	"github.com/nhle/pulse/internal/app"
	"github.com/nhle/pulse/internal/credential"
	"github.com/nhle/pulse/internal/logging"
	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/push"
	"github.com/nhle/pulse/internal/session"
	"github.com/nhle/pulse/internal/store"
	appsync "github.com/nhle/pulse/internal/sync"
)

// tokenCredentialKey is the keyring entry holding the API token.
const tokenCredentialKey = "api_token"

func main() {
	if len(os.Args) > 1 {
		if err := runCommand(os.Args[1:]); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// runCommand handles the non-TUI subcommands.
func runCommand(args []string) error {
	switch args[0] {
	case "auth":
		if len(args) != 2 {
			return fmt.Errorf("usage: pulse auth <token>")
		}
		if err := credential.Set(tokenCredentialKey, args[1]); err != nil {
			return err
		}
		fmt.Println("Token stored.")
		return nil

	case "logout":
		if err := credential.Delete(tokenCredentialKey); err != nil {
			return err
		}
		fmt.Println("Token removed.")
		return nil

	default:
		return fmt.Errorf("unknown command %q (try: auth, logout)", args[0])
	}
}

// run starts the TUI.
func run() error {
	cfg, err := model.LoadConfig(model.DefaultConfigPath())
	if err != nil {
		return err
	}
	if cfg.Server.BaseURL == "" {
		return fmt.Errorf("no server configured; set server.base_url in %s", model.DefaultConfigPath())
	}
	if cfg.Server.Username == "" {
		return fmt.Errorf("no username configured; set server.username in %s", model.DefaultConfigPath())
	}

	dataDir := model.DefaultDataDir()

	closeLog, err := logging.Setup(filepath.Join(dataDir, "pulse.log"), os.Getenv("PULSE_DEBUG") != "")
	if err != nil {
		return err
	}
	defer closeLog()

	token, err := resolveToken()
	if err != nil {
		return err
	}

	s, err := store.NewSQLiteStore(filepath.Join(dataDir, "cache.db"))
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer s.Close()

	client := api.NewClient(cfg.Server.BaseURL, token)
	sess := session.New(cfg.Server.Username, seedFollowing(client))
	defer sess.Close()

	poller := appsync.New(client, cfg.Server.PageSize, time.Duration(cfg.Server.PollIntervalSec)*time.Second)
	stream := push.NewStream(cfg.Server.BaseURL, token)

	root := app.New(client, s, sess, poller, stream, cfg.Server.PageSize)

	p := tea.NewProgram(root, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// resolveToken prefers the PULSE_TOKEN environment variable, falling back
// to the system keyring.
func resolveToken() (string, error) {
	if token := os.Getenv("PULSE_TOKEN"); token != "" {
		return token, nil
	}
	token, err := credential.Get(tokenCredentialKey)
	if err != nil {
		return "", fmt.Errorf("no API token found; run `pulse auth <token>` or set PULSE_TOKEN: %w", err)
	}
	return token, nil
}

// seedFollowing fetches the signed-in user's follow set for the session.
// A failure here only costs the initial derivation; the first profile
// fetch re-establishes authoritative state per subject.
func seedFollowing(client *api.Client) []string {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	following, err := client.ListFollowing(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("seeding follow set failed")
		return nil
	}
	return following
}
