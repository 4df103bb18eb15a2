package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/bookmark-search/internal/core/usecase"
)

func newTranslateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "translate <query>",
		Short: "Print the BM25 expression a query is rewritten to",
		Long: `Print the lexical expression the keyword channel sends to the BM25 index.

Examples:
  searchctl translate 'rust and "async runtime"'
  searchctl translate 'c++ (templates)'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), usecase.TranslateLexicalQuery(strings.Join(args, " ")))
			return err
		},
	}
}
