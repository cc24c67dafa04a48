package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/V4T54L/grabbag/internal/filetime"
)

func newFiledateCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "filedate PATH...",
		Short: "Print the creation or modification date (YYYY-MM-DD) of files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := filetime.ParseMode(mode)
			if err != nil {
				return err
			}
			for _, path := range args {
				date, err := filetime.Date(path, m)
				if err != nil {
					return err
				}
				if len(args) == 1 {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), date)
				} else {
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", date, path)
				}
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "modified", "Timestamp to read: created or modified")
	return cmd
}
