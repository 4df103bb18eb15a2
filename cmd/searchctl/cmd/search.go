package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kirillkom/bookmark-search/internal/core/domain"
)

type searchOptions struct {
	user         string
	mode         string
	limit        int
	minimumScore float64
	domain       string
	from         string
	to           string
}

func newSearchCmd(factory servicesFactory) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a bookmark search as a user",
		Long: `Run a search through the same pipeline the API uses and print the JSON response.

Examples:
  searchctl search "rust async" --user 6f1c2a8e-3b7d-4c1e-9a55-0d2f8e4b7c10
  searchctl search "kubernetes operators" --user <id> --mode keyword --limit 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(opts.user) == "" {
				return fmt.Errorf("--user is required")
			}
			query, err := opts.toQuery(strings.Join(args, " "))
			if err != nil {
				return err
			}

			svc, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.close()

			resp, err := svc.search.Search(cmd.Context(), opts.user, query)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVarP(&opts.user, "user", "u", "", "Owner of the bookmarks to search")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "Retrieval mode: hybrid, vector, keyword (default: configured)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().Float64Var(&opts.minimumScore, "min-score", 0.5, "Minimum vector similarity")
	cmd.Flags().StringVar(&opts.domain, "domain", "", "Only bookmarks from this domain")
	cmd.Flags().StringVar(&opts.from, "from", "", "RFC 3339 lower bound on creation time")
	cmd.Flags().StringVar(&opts.to, "to", "", "RFC 3339 upper bound on creation time")

	return cmd
}

func (o searchOptions) toQuery(text string) (domain.SearchQuery, error) {
	mode, err := domain.ParseSearchMode(o.mode)
	if err != nil {
		return domain.SearchQuery{}, err
	}
	from, err := parseOptionalTime("--from", o.from)
	if err != nil {
		return domain.SearchQuery{}, err
	}
	to, err := parseOptionalTime("--to", o.to)
	if err != nil {
		return domain.SearchQuery{}, err
	}
	return domain.SearchQuery{
		Text:         text,
		Limit:        o.limit,
		MinimumScore: o.minimumScore,
		Filter:       domain.SearchFilter{FromDate: from, ToDate: to, Domain: o.domain},
		Mode:         mode,
	}, nil
}

func parseOptionalTime(flag, raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", flag, err)
	}
	return &parsed, nil
}
