package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEmbedCmd(factory servicesFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "embed <bookmark-id>...",
		Short: "Recompute stored embeddings synchronously, bypassing the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.close()

			for _, id := range args {
				if err := svc.embedder.EmbedByID(cmd.Context(), id); err != nil {
					return fmt.Errorf("embed %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "embedded %s\n", id)
			}
			return nil
		},
	}
}
