package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"

	"github.com/pders01/ytspot/internal/config"
	"github.com/pders01/ytspot/internal/debuglog"
	"github.com/pders01/ytspot/internal/tracker"
)

// keyringService is the service name tokens are stored under. The account
// is the normalized tracker base URL, so several trackers can coexist.
const keyringService = "ytspot"

// resolveToken prefers a token from the config file or YTSPOT_TRACKER_TOKEN
// and falls back to the system keyring.
func resolveToken(cfg *config.Config) string {
	if cfg.Tracker.Token != "" {
		return cfg.Tracker.Token
	}
	if cfg.Tracker.BaseURL == "" {
		return ""
	}
	token, err := keyring.Get(keyringService, cfg.Tracker.BaseURL)
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			debuglog.Warnf("keyring lookup failed: %v", err)
		}
		return ""
	}
	return token
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the tracker API token in the system keyring",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set [token]",
	Short: "Store the API token (read from stdin when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Tracker.BaseURL == "" {
			return fmt.Errorf("%w: set tracker.base_url first", tracker.ErrNotConfigured)
		}

		var token string
		if len(args) == 1 {
			token = args[0]
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "Token for %s: ", cfg.Tracker.BaseURL)
			if token, err = readLine(cmd.InOrStdin()); err != nil {
				return err
			}
		}
		token = strings.TrimSpace(token)
		if token == "" {
			return errors.New("token must not be empty")
		}

		if err := keyring.Set(keyringService, cfg.Tracker.BaseURL, token); err != nil {
			return fmt.Errorf("storing token: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Token for %s stored in the system keyring\n", cfg.Tracker.BaseURL)
		return nil
	},
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored API token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Tracker.BaseURL == "" {
			return fmt.Errorf("%w: tracker.base_url is not set", tracker.ErrNotConfigured)
		}

		err = keyring.Delete(keyringService, cfg.Tracker.BaseURL)
		switch {
		case errors.Is(err, keyring.ErrNotFound):
			fmt.Fprintln(cmd.OutOrStdout(), "No token stored")
			return nil
		case err != nil:
			return fmt.Errorf("removing token: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Token for %s removed\n", cfg.Tracker.BaseURL)
		return nil
	},
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return strings.TrimSpace(line), nil
}
