// Package cli defines the cobra command tree for trackmate.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/trackmate/internal/client"
	"github.com/evcraddock/trackmate/internal/db"
)

var flagFormat string

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tm",
		Short:         "Track sales and placement visits",
		Long:          "Record sales and placement visits with generated visit codes, browse the filtered dashboard, export it as CSV and log trip expenses.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")

	root.AddCommand(
		newServeCmd(),
		newVisitsCmd(),
		newVisitCmd(),
		newExportCmd(),
		newCodeCmd(),
		newExpensesCmd(),
		newExpenseCmd(),
		newConfigCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

// openDB opens the SQLite database at path, or the default path when empty.
func openDB(path string) (*sql.DB, error) {
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// newAPIClient creates an HTTP client for the trackmate API.
func newAPIClient() *client.Client {
	return client.New(getServerURL())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
