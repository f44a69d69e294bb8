package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stocksearch/internal/controller"
	apperrors "stocksearch/internal/errors"
	"stocksearch/internal/models"
	"stocksearch/internal/security"
	"stocksearch/internal/tui"
)

const descriptionWidth = 48

// addQuoteCommands adds the quote lookup commands.
func addQuoteCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newQuoteCmd(app))
	rootCmd.AddCommand(newSuggestCmd(app))
	rootCmd.AddCommand(newSearchCmd(app))
}

type quoteResult struct {
	Input     string   `json:"input"`
	Symbol    string   `json:"symbol,omitempty"`
	OpenPrice *float64 `json:"open_price,omitempty"`
	Error     string   `json:"error,omitempty"`
}

func newQuoteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quote SYMBOL [SYMBOL...]",
		Short: "Show the opening price of one or more symbols",
		Example: `  stocksearch quote AAPL
  stocksearch quote AAPL MSFT TSLA --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Connect(cmd.Context()); err != nil {
				return err
			}
			defer app.Close()

			page, steps := app.Controller.FetchQuotes(cmd.Context(), controller.SearchPage{}, args)

			failed := ""
			results := make([]quoteResult, 0, len(steps))
			for _, step := range steps {
				r := stepResult(step)
				if r.Error != "" && failed == "" {
					failed = r.Error
				}
				results = append(results, r)
			}

			if output.IsJSON() {
				if err := output.JSON(map[string]interface{}{
					"results": results,
					"history": page.History,
				}); err != nil {
					return err
				}
			} else {
				for _, step := range steps {
					renderStep(output, step)
				}
				if len(page.History) > 1 {
					output.Println()
					output.Bold("History")
					for _, entry := range page.History {
						output.Printf("  %s\n", entry)
					}
				}
			}

			if failed != "" {
				return reported(failed)
			}
			return nil
		},
	}
}

func stepResult(step controller.QuoteStep) quoteResult {
	r := quoteResult{Input: step.Input}
	switch {
	case step.Effect.Alert != "":
		r.Error = step.Effect.Alert
	case step.Result.Kind == controller.PanelQuote:
		price := step.Result.Quote.OpenPrice
		r.Symbol = step.Result.Quote.Symbol
		r.OpenPrice = &price
	default:
		r.Error = panelText(step.Result)
	}
	return r
}

func renderStep(output *Output, step controller.QuoteStep) {
	if step.Effect.Alert != "" {
		output.Warning("%s", step.Effect.Alert)
		return
	}
	switch step.Result.Kind {
	case controller.PanelQuote:
		output.Box(step.Result.Quote.Symbol, []string{
			"Opening Price: " + output.Green(models.FormatPrice(step.Result.Quote.OpenPrice)),
		})
	default:
		output.Error("%s: %s", step.Input, panelText(step.Result))
	}
}

func newSuggestCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest PREFIX",
		Short: "List symbols starting with a prefix",
		Example: `  stocksearch suggest TS
  stocksearch suggest TS --pick TSLA`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if _, err := security.ValidateSymbol(args[0]); err != nil {
				output.Error("%s", security.MsgSymbolRequired)
				return reported(security.MsgSymbolRequired)
			}
			if err := app.Connect(cmd.Context()); err != nil {
				return err
			}
			defer app.Close()

			page, err := app.Controller.FetchSuggestions(cmd.Context(), controller.SearchPage{}, args[0])
			if err != nil {
				msg := suggestionFailure(err)
				output.Error("%s", msg)
				return reported(msg)
			}

			if pick, _ := cmd.Flags().GetString("pick"); pick != "" {
				return pickSuggestion(cmd, app, output, page, pick)
			}

			if output.IsJSON() {
				suggestions := page.Suggestions
				if suggestions == nil {
					suggestions = []models.Suggestion{}
				}
				return output.JSON(suggestions)
			}
			if len(page.Suggestions) == 0 {
				output.Dim("No matching symbols")
				return nil
			}
			table := NewTable(output, "SYMBOL", "DESCRIPTION")
			for _, s := range page.Suggestions {
				table.AddRow(s.Symbol, Truncate(s.Description, descriptionWidth))
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().String("pick", "", "select this symbol from the suggestions and show its quote")
	return cmd
}

func suggestionFailure(err error) string {
	switch {
	case controller.IsSessionExpired(err):
		return controller.MsgSessionExpired
	case apperrors.Is(err, apperrors.ErrConnectionFailed):
		return controller.MsgQuoteUnreachable
	}
	return controller.MsgQuoteFailed
}

// pickSuggestion selects symbol from the suggestion list, the way clicking a
// row does in the interactive client.
func pickSuggestion(cmd *cobra.Command, app *App, output *Output, page controller.SearchPage, symbol string) error {
	var found string
	for _, s := range page.Suggestions {
		if strings.EqualFold(s.Symbol, symbol) {
			found = s.Symbol
			break
		}
	}
	if found == "" {
		msg := fmt.Sprintf("%s is not among the suggestions", symbol)
		output.Error("%s", msg)
		return reported(msg)
	}

	page, effect := app.Controller.SelectSuggestion(cmd.Context(), page, found)
	step := controller.QuoteStep{Input: found, Result: page.Result, Effect: effect}
	r := stepResult(step)
	if output.IsJSON() {
		if err := output.JSON(r); err != nil {
			return err
		}
	} else {
		renderStep(output, step)
	}
	if r.Error != "" {
		return reported(r.Error)
	}
	return nil
}

func newSearchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "search",
		Short: "Start the interactive client",
		Long: `Start the interactive client.

Suggestions appear while you type. Use the arrow keys and enter to pick one,
esc or a click elsewhere to dismiss them, ctrl+l to log out and ctrl+c to quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Connect(cmd.Context()); err != nil {
				return err
			}
			defer app.Close()

			start := models.ViewLogin
			info, err := app.Store.SessionInfo(cmd.Context(), app.Jar.Host())
			if err != nil {
				app.Logger.Warn().Err(err).Msg("Could not read stored session")
			} else if info.HasSession {
				start = models.ViewSearch
			}

			noColor, _ := cmd.Flags().GetBool("no-color")
			styles := tui.NewStyles(app.Config.UI.ColorEnabled && !noColor)
			return tui.Run(cmd.Context(), app.Controller, styles, start)
		},
	}
}
