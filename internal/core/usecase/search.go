package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/bookmark-search/internal/core/domain"
	"github.com/kirillkom/bookmark-search/internal/core/ports"
)

const (
	minQueryLength      = 2
	maxQueryLength      = 500
	maxResultLimit      = 100
	defaultSearchLimit  = 20
	defaultSimilarLimit = 10
)

type SearchConfig struct {
	DefaultMode              domain.SearchMode
	RRFK                     int
	MaxVectorResults         int
	MaxKeywordResults        int
	MinimumRRFScore          float64
	RerankEnabled            bool
	RerankCandidateLimit     int
	MinimumCrossEncoderScore float64
}

func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		DefaultMode:          domain.SearchModeHybrid,
		RRFK:                 defaultRRFK,
		MaxVectorResults:     50,
		MaxKeywordResults:    50,
		MinimumRRFScore:      0.015,
		RerankCandidateLimit: 20,
	}
}

func (c SearchConfig) normalize() SearchConfig {
	defaults := DefaultSearchConfig()
	if c.DefaultMode == "" {
		c.DefaultMode = defaults.DefaultMode
	}
	if c.RRFK <= 0 {
		c.RRFK = defaults.RRFK
	}
	if c.MaxVectorResults <= 0 {
		c.MaxVectorResults = defaults.MaxVectorResults
	}
	if c.MaxKeywordResults <= 0 {
		c.MaxKeywordResults = defaults.MaxKeywordResults
	}
	if c.RerankCandidateLimit <= 0 {
		c.RerankCandidateLimit = defaults.RerankCandidateLimit
	}
	return c
}

// SearchUseCase runs the retrieval pipeline for one of the three search modes and
// hydrates the ranked identifiers into bookmark records.
type SearchUseCase struct {
	vector    *VectorRetriever
	lexical   *LexicalRetriever
	bookmarks ports.BookmarkReader
	hybrid    hybridStrategy
	cfg       SearchConfig
	logger    *slog.Logger
}

// NewSearchUseCase wires the pipeline. encoder is only consulted when reranking is enabled.
func NewSearchUseCase(
	embedder ports.Embedder,
	vectorIndex ports.VectorIndex,
	lexicalIndex ports.LexicalIndex,
	bookmarks ports.BookmarkReader,
	encoder ports.CrossEncoder,
	embeddingDimensions int,
	cfg SearchConfig,
	logger *slog.Logger,
) *SearchUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.normalize()

	var hybrid hybridStrategy = plainHybrid{minimumRRFScore: cfg.MinimumRRFScore}
	if cfg.RerankEnabled && encoder != nil {
		hybrid = rerankedHybrid{
			minimumRRFScore:          cfg.MinimumRRFScore,
			candidateLimit:           cfg.RerankCandidateLimit,
			minimumCrossEncoderScore: cfg.MinimumCrossEncoderScore,
			reranker:                 NewCrossEncoderReranker(encoder),
			bookmarks:                bookmarks,
		}
	}

	return &SearchUseCase{
		vector:    NewVectorRetriever(embedder, vectorIndex, embeddingDimensions),
		lexical:   NewLexicalRetriever(lexicalIndex),
		bookmarks: bookmarks,
		hybrid:    hybrid,
		cfg:       cfg,
		logger:    logger,
	}
}

type modeOutcome struct {
	ranked       []domain.RankedResult
	known        map[string]domain.Bookmark
	vectorCount  int
	keywordCount int
}

func (uc *SearchUseCase) Search(ctx context.Context, userID string, query domain.SearchQuery) (*domain.SearchResponse, error) {
	start := time.Now()
	query, err := uc.validate(userID, query)
	if err != nil {
		return nil, err
	}

	var outcome modeOutcome
	switch query.Mode {
	case domain.SearchModeVector:
		outcome, err = uc.searchVector(ctx, userID, query)
	case domain.SearchModeKeyword:
		outcome, err = uc.searchKeyword(ctx, userID, query)
	default:
		outcome, err = uc.searchHybrid(ctx, userID, query)
	}
	if err != nil {
		return nil, err
	}

	items, err := uc.hydrate(ctx, userID, trimCandidates(outcome.ranked, query.Limit), outcome.known, query.Mode)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	uc.logger.Info(
		"search_completed",
		"mode", query.Mode,
		"results", len(items),
		"vector_candidates", outcome.vectorCount,
		"keyword_candidates", outcome.keywordCount,
		"duration_ms", elapsed.Milliseconds(),
	)

	return &domain.SearchResponse{
		Query:              query.Text,
		Results:            items,
		TotalResults:       len(items),
		ProcessingTimeMs:   elapsed.Milliseconds(),
		Mode:               query.Mode,
		VectorResultCount:  outcome.vectorCount,
		KeywordResultCount: outcome.keywordCount,
	}, nil
}

// FindSimilar anchors a vector-only search on the stored embedding of bookmarkID and
// leaves the source bookmark out of the results.
func (uc *SearchUseCase) FindSimilar(ctx context.Context, userID, bookmarkID string, limit int) (*domain.SearchResponse, error) {
	start := time.Now()
	if strings.TrimSpace(userID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "find similar", fmt.Errorf("user id is required"))
	}
	if strings.TrimSpace(bookmarkID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "find similar", fmt.Errorf("bookmark id is required"))
	}
	if limit == 0 {
		limit = defaultSimilarLimit
	}
	if limit < 1 || limit > maxResultLimit {
		return nil, domain.WrapError(domain.ErrInvalidInput, "find similar", fmt.Errorf("limit must be between 1 and %d", maxResultLimit))
	}

	source, err := uc.bookmarks.GetEmbedding(ctx, userID, bookmarkID)
	if err != nil {
		if domain.IsKind(err, domain.ErrBookmarkNotFound) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrRetrievalFailure, "load source bookmark", err)
	}
	if source == nil || !source.HasEmbedding() {
		return nil, domain.WrapError(domain.ErrBookmarkNotFound, "find similar", fmt.Errorf("bookmark %s has no embedding", bookmarkID))
	}

	hits, err := uc.vector.SearchByVector(ctx, ports.VectorQuery{
		UserID:    userID,
		Vector:    source.Embedding,
		Limit:     limit,
		ExcludeID: bookmarkID,
	}, 0)
	if err != nil {
		return nil, err
	}

	items, err := uc.hydrate(ctx, userID, channelResults(hits, domain.SearchModeVector), nil, domain.SearchModeVector)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	uc.logger.Info("similar_search_completed", "results", len(items), "duration_ms", elapsed.Milliseconds())

	return &domain.SearchResponse{
		Query:             "Similar to: " + source.Title,
		Results:           items,
		TotalResults:      len(items),
		ProcessingTimeMs:  elapsed.Milliseconds(),
		Mode:              domain.SearchModeVector,
		VectorResultCount: len(hits),
	}, nil
}

func (uc *SearchUseCase) validate(userID string, query domain.SearchQuery) (domain.SearchQuery, error) {
	const op = "validate search query"
	if strings.TrimSpace(userID) == "" {
		return query, domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("user id is required"))
	}

	query.Text = strings.TrimSpace(query.Text)
	if n := utf8.RuneCountInString(query.Text); n < minQueryLength || n > maxQueryLength {
		return query, domain.WrapError(domain.ErrInvalidInput, op,
			fmt.Errorf("query must be between %d and %d characters", minQueryLength, maxQueryLength))
	}
	if query.Limit == 0 {
		query.Limit = defaultSearchLimit
	}
	if query.Limit < 1 || query.Limit > maxResultLimit {
		return query, domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("limit must be between 1 and %d", maxResultLimit))
	}
	if query.MinimumScore < 0 || query.MinimumScore > 1 {
		return query, domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("minimum score must be between 0 and 1"))
	}
	if query.Filter.FromDate != nil && query.Filter.ToDate != nil && !query.Filter.FromDate.Before(*query.Filter.ToDate) {
		return query, domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("from date must be before to date"))
	}

	mode, err := domain.ParseSearchMode(string(query.Mode))
	if err != nil {
		return query, err
	}
	if mode == "" {
		mode = uc.cfg.DefaultMode
	}
	query.Mode = mode
	return query, nil
}

func (uc *SearchUseCase) searchVector(ctx context.Context, userID string, query domain.SearchQuery) (modeOutcome, error) {
	hits, err := uc.vector.Search(ctx, userID, query.Text, query.Limit, query.MinimumScore, query.Filter)
	if err != nil {
		return modeOutcome{}, err
	}
	return modeOutcome{ranked: channelResults(hits, domain.SearchModeVector), vectorCount: len(hits)}, nil
}

func (uc *SearchUseCase) searchKeyword(ctx context.Context, userID string, query domain.SearchQuery) (modeOutcome, error) {
	hits, err := uc.lexical.Search(ctx, userID, query.Text, query.Limit, query.Filter)
	if err != nil {
		return modeOutcome{}, err
	}
	return modeOutcome{ranked: channelResults(hits, domain.SearchModeKeyword), keywordCount: len(hits)}, nil
}

func (uc *SearchUseCase) searchHybrid(ctx context.Context, userID string, query domain.SearchQuery) (modeOutcome, error) {
	var vectorHits, lexicalHits []domain.RetrievalResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := uc.vector.Search(gctx, userID, query.Text, uc.cfg.MaxVectorResults, query.MinimumScore, query.Filter)
		if err != nil {
			return err
		}
		vectorHits = hits
		return nil
	})
	g.Go(func() error {
		hits, err := uc.lexical.Search(gctx, userID, query.Text, uc.cfg.MaxKeywordResults, query.Filter)
		if err != nil {
			return err
		}
		lexicalHits = hits
		return nil
	})
	if err := g.Wait(); err != nil {
		return modeOutcome{}, err
	}

	fused := FuseRRF(vectorHits, lexicalHits, uc.cfg.RRFK)
	ranked, known, err := uc.hybrid.refine(ctx, userID, query.Text, fused)
	if err != nil {
		return modeOutcome{}, err
	}
	return modeOutcome{
		ranked:       ranked,
		known:        known,
		vectorCount:  len(vectorHits),
		keywordCount: len(lexicalHits),
	}, nil
}

// channelResults wraps single-channel hits so they flow through the same hydration path.
func channelResults(hits []domain.RetrievalResult, mode domain.SearchMode) []domain.RankedResult {
	out := make([]domain.RankedResult, 0, len(hits))
	for _, hit := range hits {
		rank, score := hit.Rank, hit.Score
		result := domain.RankedResult{
			FusedResult:  domain.FusedResult{BookmarkID: hit.BookmarkID},
			ChannelScore: &score,
		}
		if mode == domain.SearchModeKeyword {
			result.LexicalRank, result.LexicalScore = &rank, &score
		} else {
			result.VectorRank, result.VectorScore = &rank, &score
		}
		out = append(out, result)
	}
	return out
}

// hydrate loads all ranked bookmarks in one batch, reusing known records, and drops
// identifiers that no longer resolve.
func (uc *SearchUseCase) hydrate(
	ctx context.Context,
	userID string,
	ranked []domain.RankedResult,
	known map[string]domain.Bookmark,
	mode domain.SearchMode,
) ([]domain.SearchResultItem, error) {
	records := make(map[string]domain.Bookmark, len(ranked))
	missing := make([]string, 0, len(ranked))
	for _, result := range ranked {
		if record, ok := known[result.BookmarkID]; ok {
			records[result.BookmarkID] = record
			continue
		}
		missing = append(missing, result.BookmarkID)
	}
	if len(missing) > 0 {
		fetched, err := uc.bookmarks.GetByIDs(ctx, userID, missing)
		if err != nil {
			return nil, domain.WrapError(domain.ErrRetrievalFailure, "hydrate bookmarks", err)
		}
		for id, record := range fetched {
			records[id] = record
		}
	}

	items := make([]domain.SearchResultItem, 0, len(ranked))
	for _, result := range ranked {
		record, ok := records[result.BookmarkID]
		if !ok {
			continue
		}
		item := domain.SearchResultItem{
			ID:                record.ID,
			URL:               record.URL,
			Title:             record.Title,
			Description:       record.Description,
			Domain:            record.Domain,
			FaviconURL:        record.FaviconURL,
			CreatedAt:         record.CreatedAt,
			SimilarityScore:   result.FinalScore(),
			VectorRank:        result.VectorRank,
			VectorScore:       result.VectorScore,
			KeywordRank:       result.LexicalRank,
			KeywordScore:      result.LexicalScore,
			CrossEncoderScore: result.CrossEncoderScore,
		}
		if mode == domain.SearchModeHybrid {
			rrf := result.RRFScore
			item.HybridScore = &rrf
		}
		items = append(items, item)
	}
	return items, nil
}
