package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/V4T54L/grabbag/internal/adapter/repository/postgres"
	"github.com/V4T54L/grabbag/internal/pkg/config"
)

func newLogqCmd() *cobra.Command {
	var (
		dsn     string
		table   string
		columns []string
	)

	cmd := &cobra.Command{
		Use:   "logq [BASE] [CONNECTOR=CLAUSE]...",
		Short: "Query forwarded log records in PostgreSQL",
		Long: `Builds SELECT <columns> FROM <table> [WHERE ...] from the arguments and prints
each row as one JSON object per line.`,
		Example: `  grabbag logq "level = 'ERROR'" "or=level = 'CRITICAL'"
  grabbag logq --columns event_id,message`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if dsn == "" {
				dsn = cfg.PostgresURL
			}
			if dsn == "" {
				return errors.New("no PostgreSQL DSN: set POSTGRES_URL or pass --dsn")
			}
			if table == "" {
				table = cfg.PostgresTable
			}

			var base string
			if len(args) > 0 {
				base, args = args[0], args[1:]
			}
			preds, err := parsePredicateArgs(args)
			if err != nil {
				return err
			}

			db, err := openDB(dsn)
			if err != nil {
				return fmt.Errorf("failed to open postgres: %w", err)
			}
			defer db.Close()

			rows, err := postgres.NewReader(db, table).Query(cmd.Context(), columns, base, preds...)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, row := range rows {
				if err := enc.Encode(row); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "PostgreSQL connection string (defaults to POSTGRES_URL)")
	cmd.Flags().StringVar(&table, "table", "", "Log table (defaults to POSTGRES_TABLE)")
	cmd.Flags().StringSliceVar(&columns, "columns", postgres.DefaultColumns, "Columns to select")
	return cmd
}
