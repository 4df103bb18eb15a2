package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSimilarCmd(factory servicesFactory) *cobra.Command {
	var user string
	var limit int

	cmd := &cobra.Command{
		Use:   "similar <bookmark-id>",
		Short: "List bookmarks close to an existing one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(user) == "" {
				return fmt.Errorf("--user is required")
			}
			svc, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.close()

			resp, err := svc.search.FindSimilar(cmd.Context(), user, args[0], limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "Owner of the source bookmark")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of results")
	return cmd
}
