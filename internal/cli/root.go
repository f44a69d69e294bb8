// Package cli provides the command-line interface for the stock search client.
package cli

import (
	"context"
	"errors"
	"net/url"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stocksearch/internal/api"
	"stocksearch/internal/config"
	"stocksearch/internal/controller"
	"stocksearch/internal/logging"
	"stocksearch/internal/security"
	"stocksearch/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-10-01"
)

// App holds the application dependencies. The session side (store, jar,
// client, controller) is opened on first use so that commands such as
// version and config never touch the database or the network.
type App struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Store      store.CookieStore
	Jar        *store.PersistentJar
	Client     *api.Client
	Audit      *security.AuditLogger
	Controller *controller.Controller
}

// reportedError is a failure the command has already shown to the user.
type reportedError struct{ msg string }

func (e *reportedError) Error() string { return e.msg }

func reported(msg string) error {
	return &reportedError{msg: msg}
}

// IsReported reports whether err was already printed by the command that
// returned it, so the caller only needs to set the exit status.
func IsReported(err error) bool {
	var re *reportedError
	return errors.As(err, &re)
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd() *cobra.Command {
	app := &App{Logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "stocksearch",
		Short: "Stock quote client with autocomplete",
		Long: `stocksearch is a terminal client for the stock quote backend.

Log in, look up opening prices by symbol and get symbol suggestions as you
type. The session cookie is kept between runs, so logging in once is enough.

Run 'stocksearch search' for the interactive client.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.load(cmd)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/stocksearch)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	addCoreCommands(rootCmd, app)
	addAuthCommands(rootCmd, app)
	addQuoteCommands(rootCmd, app)
	addHelpCommands(rootCmd)

	return rootCmd
}

func (app *App) load(cmd *cobra.Command) error {
	dir, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	app.Config = cfg
	app.Logger = logging.NewLoggerWithConfig(cfg.LogConfig())

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		app.Logger = app.Logger.Level(zerolog.DebugLevel)
	}
	cmd.SetContext(logging.WithLogger(cmd.Context(), app.Logger))
	return nil
}

// Connect opens the cookie store and builds the API client and controller
// on top of it. It is idempotent; callers pair it with Close.
func (app *App) Connect(ctx context.Context) error {
	if app.Controller != nil {
		return nil
	}

	base, err := url.Parse(app.Config.API.BaseURL)
	if err != nil {
		return err
	}
	st, err := store.NewSQLiteStore(app.Config.Session.DBPath)
	if err != nil {
		return err
	}
	jar, err := store.NewPersistentJar(ctx, st, base, app.Logger)
	if err != nil {
		st.Close()
		return err
	}
	client, err := api.New(app.Config.API.BaseURL,
		api.WithHTTPClient(api.NewHTTPClient(app.Config.API.Timeout, jar)),
		api.WithUserAgent("stocksearch/"+Version),
		api.WithLogger(app.Logger),
	)
	if err != nil {
		st.Close()
		return err
	}

	options := []controller.Option{
		controller.WithLogger(app.Logger),
		controller.WithMaxSuggestions(app.Config.UI.MaxSuggestions),
	}
	if app.Config.Session.Audit {
		audit, err := security.NewAuditLogger(security.AuditConfig{
			Path:       app.Config.Session.AuditPath,
			MaxSize:    app.Config.Logging.MaxSize,
			MaxBackups: app.Config.Logging.MaxBackups,
			MaxAge:     app.Config.Logging.MaxAge,
		})
		if err != nil {
			// The audit trail is best effort.
			app.Logger.Warn().Err(err).Msg("Audit trail disabled")
		} else {
			app.Audit = audit
			options = append(options, controller.WithAuditor(audit))
		}
	}

	app.Store = st
	app.Jar = jar
	app.Client = client
	app.Controller = controller.New(client, options...)
	app.Logger.Debug().Str("base_url", app.Config.API.BaseURL).Str("db", app.Config.Session.DBPath).Msg("Session opened")
	return nil
}

// Close releases the cookie store and the audit file.
func (app *App) Close() error {
	if app.Store == nil {
		return nil
	}
	err := app.Store.Close()
	if app.Audit != nil {
		if aerr := app.Audit.Close(); err == nil {
			err = aerr
		}
		app.Audit = nil
	}
	app.Store = nil
	app.Controller = nil
	return err
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("stocksearch v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate the client configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path := config.TemplatePath(app.Config.Dir)
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path})
			}
			output.Println(path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return reported(err.Error())
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("API")
	output.Printf("  Base URL:        %s\n", cfg.API.BaseURL)
	output.Printf("  Timeout:         %s\n", cfg.API.Timeout)
	output.Println()

	output.Bold("Session")
	output.Printf("  Database:        %s\n", cfg.Session.DBPath)
	output.Printf("  Audit:           %v\n", cfg.Session.Audit)
	output.Printf("  Audit Path:      %s\n", cfg.Session.AuditPath)
	output.Println()

	output.Bold("UI")
	output.Printf("  Color:           %v\n", cfg.UI.ColorEnabled)
	output.Printf("  Max Suggestions: %d\n", cfg.UI.MaxSuggestions)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Logging.Level)
	output.Printf("  Console:         %v\n", cfg.Logging.Console)
	output.Printf("  File:            %v\n", cfg.Logging.File)
	output.Printf("  File Path:       %s\n", cfg.Logging.FilePath)
}
