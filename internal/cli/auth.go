package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"stocksearch/internal/controller"
	"stocksearch/internal/models"
)

// addAuthCommands adds authentication commands.
func addAuthCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newLoginCmd(app))
	rootCmd.AddCommand(newSignupCmd(app))
	rootCmd.AddCommand(newLogoutCmd(app))
	rootCmd.AddCommand(newStatusCmd(app))
}

func newLoginCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session cookie",
		Example: `  stocksearch login
  stocksearch login -u alice -p s3cret`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			creds, err := readCredentials(cmd)
			if err != nil {
				return err
			}
			if err := app.Connect(cmd.Context()); err != nil {
				return err
			}
			defer app.Close()

			effect := app.Controller.Authenticate(cmd.Context(), creds)
			return reportEffect(output, effect, models.ViewSearch, fmt.Sprintf("✓ Logged in as %s", creds.Username))
		},
	}
	addCredentialFlags(cmd)
	return cmd
}

func newSignupCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "signup",
		Short:   "Create an account",
		Example: `  stocksearch signup -u bob -p hunter2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			creds, err := readCredentials(cmd)
			if err != nil {
				return err
			}
			if err := app.Connect(cmd.Context()); err != nil {
				return err
			}
			defer app.Close()

			effect := app.Controller.Register(cmd.Context(), creds)
			return reportEffect(output, effect, models.ViewLogin, "✓ Account created")
		},
	}
	addCredentialFlags(cmd)
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Connect(cmd.Context()); err != nil {
				return err
			}
			defer app.Close()

			effect := app.Controller.Logout(cmd.Context())
			return reportEffect(output, effect, models.ViewLogin, "✓ Logged out")
		},
	}
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a session is stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Connect(cmd.Context()); err != nil {
				return err
			}
			defer app.Close()

			info, err := app.Store.SessionInfo(cmd.Context(), app.Jar.Host())
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"api":         app.Config.API.BaseURL,
					"logged_in":   info.HasSession,
					"cookies":     info.CookieNames,
					"session_db":  app.Config.Session.DBPath,
					"cookie_host": info.Host,
				})
			}

			output.Printf("API:      %s\n", app.Config.API.BaseURL)
			if info.HasSession {
				output.Success("Session:  stored")
			} else {
				output.Warning("Session:  none (run 'stocksearch login')")
			}
			output.Printf("Cookies:  %s\n", FormatCookieNames(info.CookieNames))
			return nil
		},
	}
}

func addCredentialFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("username", "u", "", "username (prompted when omitted)")
	cmd.Flags().StringP("password", "p", "", "password (prompted when omitted)")
}

// readCredentials takes credentials from flags and prompts on the command's
// input for whatever is missing.
func readCredentials(cmd *cobra.Command) (models.Credentials, error) {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")

	reader := bufio.NewReader(cmd.InOrStdin())
	var err error
	if !cmd.Flags().Changed("username") {
		if username, err = prompt(cmd, reader, "Username: "); err != nil {
			return models.Credentials{}, err
		}
	}
	if !cmd.Flags().Changed("password") {
		if password, err = prompt(cmd, reader, "Password: "); err != nil {
			return models.Credentials{}, err
		}
	}
	return models.Credentials{Username: username, Password: password}, nil
}

func prompt(cmd *cobra.Command, reader *bufio.Reader, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// reportEffect prints the outcome of an auth action. Reaching want counts
// as success; anything else is reported and turned into an error.
func reportEffect(output *Output, effect controller.Effect, want models.View, success string) error {
	ok := effect.Navigate == want
	if output.IsJSON() {
		if err := output.JSON(map[string]interface{}{
			"ok":      ok,
			"message": effect.Alert,
		}); err != nil {
			return err
		}
		if !ok {
			return reported(effect.Alert)
		}
		return nil
	}

	if !ok {
		output.Error("%s", effect.Alert)
		return reported(effect.Alert)
	}
	output.Success("%s", success)
	if effect.Alert != "" {
		output.Info("%s", effect.Alert)
	}
	return nil
}
