package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/sparkinventory/spark-notify/internal/api"
	"github.com/sparkinventory/spark-notify/internal/app"
	"github.com/sparkinventory/spark-notify/internal/auth"
	"github.com/sparkinventory/spark-notify/internal/credential"
	"github.com/sparkinventory/spark-notify/internal/model"
	"github.com/sparkinventory/spark-notify/internal/notification"
	feedsync "github.com/sparkinventory/spark-notify/internal/sync"
)

func main() {
	loginFlag := flag.Bool("login", false, "sign in and store credentials in the system keyring")
	configPath := flag.String("config", model.DefaultConfigPath(), "path to the config file")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	timeout := time.Duration(cfg.Backend.TimeoutSec) * time.Second
	client := api.NewClient(cfg.Backend.BaseURL, timeout)

	if *loginFlag {
		if err := runLogin(client); err != nil {
			fmt.Fprintf(os.Stderr, "Login failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	authCtx, err := loadAuthContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\nRun spark-notify -login to sign in.\n", err)
		os.Exit(1)
	}

	if os.Getenv("SPARK_NOTIFY_DEBUG") != "" {
		f, err := tea.LogToFile("spark-notify-debug.log", "debug")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening debug log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	}

	fetcher := notification.NewFetcher(client)
	executor := notification.NewExecutor(client)
	session := notification.NewSession(client)
	poller := feedsync.New(fetcher, authCtx, cfg.Feed.PageSize)

	root := app.New(authCtx, poller, executor, session, *configPath, cfg)

	p := tea.NewProgram(root, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadAuthContext builds the auth context from the environment, falling
// back to the system keyring. Environment variables win so scripted use
// never touches the keyring.
func loadAuthContext() (auth.Context, error) {
	token := os.Getenv("SPARK_NOTIFY_TOKEN")
	tenantID := os.Getenv("SPARK_NOTIFY_TENANT")

	if token == "" {
		stored, err := credential.Get(credential.KeyAPIToken)
		if err != nil {
			return auth.Context{}, fmt.Errorf("no API token found: %w", err)
		}
		token = stored
	}
	if tenantID == "" {
		stored, err := credential.Get(credential.KeyTenantID)
		if err != nil {
			return auth.Context{}, fmt.Errorf("no tenant id found: %w", err)
		}
		tenantID = stored
	}

	authCtx := auth.Context{Token: token, TenantID: tenantID}
	if err := authCtx.Validate(); err != nil {
		return auth.Context{}, err
	}
	return authCtx, nil
}

// runLogin prompts for credentials, exchanges them for a session, and
// stores the token and tenant in the system keyring.
func runLogin(client *api.Client) error {
	var email, password string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&email),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&password),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), api.DefaultTimeout)
	defer cancel()

	session, err := auth.Login(ctx, client, email, password)
	if err != nil {
		return err
	}

	authCtx := session.Context()
	if authCtx.TenantID == "" {
		return fmt.Errorf("account %s has no tenants", session.Email)
	}

	if err := credential.Set(credential.KeyAPIToken, authCtx.Token); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	if err := credential.Set(credential.KeyTenantID, authCtx.TenantID); err != nil {
		return fmt.Errorf("storing tenant id: %w", err)
	}

	fmt.Printf("Signed in as %s (%s).\n", session.Name, session.Email)
	return nil
}
