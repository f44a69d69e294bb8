package cli

import (
	"github.com/spf13/cobra"
)

type helpEntry struct {
	cmd  string
	desc string
}

type helpCategory struct {
	name     string
	commands []helpEntry
}

var commandCategories = []helpCategory{
	{
		name: "Session",
		commands: []helpEntry{
			{"login", "Log in and store the session cookie"},
			{"signup", "Create an account"},
			{"logout", "End the session"},
			{"status", "Show whether a session is stored"},
		},
	},
	{
		name: "Quotes",
		commands: []helpEntry{
			{"quote <symbol...>", "Opening price of one or more symbols"},
			{"suggest <prefix>", "Symbols starting with a prefix"},
			{"search", "Interactive client with autocomplete"},
		},
	},
	{
		name: "Utilities",
		commands: []helpEntry{
			{"config show/path/validate", "Configuration"},
			{"commands", "List all commands"},
			{"examples", "Common workflows"},
			{"version", "Version information"},
		},
	},
}

var workflowExamples = []struct {
	title    string
	commands []string
}{
	{
		title: "First run",
		commands: []string{
			"stocksearch signup -u alice      # Create an account",
			"stocksearch login -u alice       # Password is prompted",
			"stocksearch status               # Check the stored session",
		},
	},
	{
		title: "Look up prices",
		commands: []string{
			"stocksearch quote AAPL           # Single symbol",
			"stocksearch quote AAPL MSFT TSLA # Several symbols, most recent first in history",
			"stocksearch suggest TS           # What starts with TS?",
			"stocksearch quote AAPL --json    # Machine readable",
		},
	},
	{
		title: "Interactive",
		commands: []string{
			"stocksearch search               # Type to get suggestions, enter to fetch",
		},
	},
	{
		title: "Another backend",
		commands: []string{
			"STOCKSEARCH_API_URL=http://quotes.internal:8000 stocksearch quote AAPL",
		},
	},
}

// addHelpCommands adds help and documentation commands.
func addHelpCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newCommandsCmd())
	rootCmd.AddCommand(newExamplesCmd())
}

func newCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List all commands by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("stocksearch commands")
			output.Println()
			for _, cat := range commandCategories {
				output.Bold("%s", cat.name)
				for _, c := range cat.commands {
					output.Printf("  %s %s\n", padRight(output.ColoredString(ColorCyan, c.cmd), 28), c.desc)
				}
				output.Println()
			}
			output.Dim("Use 'stocksearch help <command>' for detailed help on any command")
			return nil
		},
	}
}

func newExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show common workflow examples",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("Common Workflow Examples")
			output.Println()
			for _, ex := range workflowExamples {
				output.Bold("%s", ex.title)
				for _, c := range ex.commands {
					output.Printf("  %s\n", c)
				}
				output.Println()
			}
			return nil
		},
	}
}
