package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the workspace session",
	Long: `Manage the workspace session.

Sessions ride on server-issued cookies; only their expiry metadata is
stored locally, in ~/.workbench/token_cache.json. The interactive UI and
the one-shot subcommands share the same session.

Subcommands:
  login     Sign in with ID and password
  logout    Sign out and clear the local session
  status    Show the current session and token horizon

Examples:
  workbench auth login --id hana
  workbench auth status
  workbench auth logout`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// authLoginCmd signs in and persists the session
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the workspace",
	Long: `Sign in to the workspace with your ID and password.

The session cookie is kept by the server; its expiry metadata is saved
locally so later runs can restore the session without prompting.

Examples:
  workbench auth login --id hana --password secret
  workbench auth login --id hana    (prompts for the password)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		password, _ := cmd.Flags().GetString("password")

		if id == "" {
			return fmt.Errorf("--id is required")
		}
		if password == "" {
			return fmt.Errorf("--password is required")
		}

		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		user, tokenInfo, err := app.client.Login(cmd.Context(), id, password)
		if err != nil {
			return err
		}
		app.store.SetUser(user, tokenInfo)

		fmt.Printf("Signed in as %s (%s)\n", user.Name, user.Role)
		if tokenInfo != nil {
			fmt.Printf("Access token valid until %s\n",
				tokenInfo.AccessExpiresAt.Local().Format(time.RFC1123))
		}
		return nil
	},
}

// authLogoutCmd signs out and clears the local session
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the local session",
	Long: `Sign out of the workspace.

The server session is ended (best effort) and the locally persisted
token metadata is removed. Signing out always succeeds locally even
when the server cannot be reached.

Examples:
  workbench auth logout`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.client.Logout(cmd.Context()); err != nil {
			app.logger.WithError(err).Warn("server logout failed")
		}
		app.store.ClearUser()

		fmt.Println("Signed out.")
		return nil
	},
}

// authStatusCmd shows the current session
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	Long: `Show the current session and the token expiry horizon.

Runs the same startup sequence as the interactive UI: restore persisted
metadata, refresh an expired access token when the refresh token still
allows it, and ask the server who the session belongs to.

Examples:
  workbench auth status`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.requireSession(cmd.Context()); err != nil {
			fmt.Println("Not signed in.")
			return err
		}

		fmt.Printf("Signed in as %s (%s)\n", app.store.UserName(), app.store.Role())
		if app.store.IsAdmin() {
			fmt.Println("Administrator privileges are active.")
		}

		if info := app.store.TokenInfo(); info != nil {
			fmt.Printf("Access token:  expires %s\n", info.AccessExpiresAt.Local().Format(time.RFC1123))
			fmt.Printf("Refresh token: expires %s\n", info.RefreshExpiresAt.Local().Format(time.RFC1123))
		} else {
			fmt.Println("Session is cookie-only; no expiry metadata cached.")
		}
		return nil
	},
}

func init() {
	authLoginCmd.Flags().String("id", "", "workspace user ID")
	authLoginCmd.Flags().String("password", "", "password")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}
