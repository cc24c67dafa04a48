package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/V4T54L/grabbag/internal/sqlclause"
)

func newSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select COLUMN...",
		Short: "Print a SELECT clause for the given columns",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := sqlclause.Select(args...)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
}

func newWhereCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "where BASE [CONNECTOR=CLAUSE]...",
		Short: "Print a WHERE clause joining BASE with AND/OR predicates in order",
		Example: `  grabbag where "MATER = 'Howdy Pardner'" "and=fog = 'low'" "or=LOCATION = 1"
  grabbag where "" "w_and=a = 1"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			preds, err := parsePredicateArgs(args[1:])
			if err != nil {
				return err
			}
			out, err := sqlclause.Where(args[0], preds...)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
}

// parsePredicateArgs turns "key=clause" arguments into predicates. Only the
// first '=' separates the key, so clauses may contain '='.
func parsePredicateArgs(args []string) ([]sqlclause.Predicate, error) {
	pairs := make([][2]string, 0, len(args))
	for _, arg := range args {
		key, clause, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("predicate %q must have the form CONNECTOR=CLAUSE", arg)
		}
		pairs = append(pairs, [2]string{key, clause})
	}
	return sqlclause.PredicatesFromPairs(pairs)
}
