package helpdesk

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/Caia-Tech/caia-tuner/internal/dataset"
	"github.com/Caia-Tech/caia-tuner/pkg/config"
	"github.com/Caia-Tech/caia-tuner/pkg/logging"
	"github.com/Caia-Tech/caia-tuner/pkg/ratelimit"
)

// checkpointEvery controls how often progress is persisted during a run
const checkpointEvery = 5

// Scraper walks the helpdesk site top-down: homepage, collections,
// article listings, article content.
type Scraper struct {
	client  *Client
	baseURL string
	logger  zerolog.Logger
}

// Options controls one scraping run
type Options struct {
	// Limit caps the number of articles scraped; 0 means no limit.
	Limit int
	// Resume skips articles recorded in the checkpoint.
	Resume bool
	// CheckpointPath enables progress persistence when non-empty.
	CheckpointPath string
}

// NewScraper builds a scraper with a fresh rate-limited client.
func NewScraper(cfg config.ScrapingConfig) *Scraper {
	delay := time.Duration(cfg.RequestDelaySeconds * float64(time.Second))
	host := cfg.BaseURL
	if parsed, err := url.Parse(cfg.BaseURL); err == nil && parsed.Host != "" {
		host = parsed.Host
	}
	return &Scraper{
		client:  NewClient(cfg, ratelimit.NewHostLimiter(delay)),
		baseURL: cfg.BaseURL,
		logger:  logging.GetScraperLogger(host),
	}
}

// Run scrapes the whole helpdesk and returns the collected articles.
// Failed articles are logged and skipped; the run fails only when the
// homepage or every collection is unreachable.
func (s *Scraper) Run(ctx context.Context, opts Options) ([]dataset.Article, error) {
	homepage, err := s.client.FetchPage(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("fetching homepage: %w", err)
	}

	collections, err := ExtractCollections(homepage, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing homepage: %w", err)
	}
	if len(collections) == 0 {
		return nil, fmt.Errorf("no collections found on %s", s.baseURL)
	}
	s.logger.Info().Int("collections", len(collections)).Msg("Discovered collections")

	refs, err := s.listArticles(ctx, collections)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int("articles", len(refs)).Msg("Discovered articles")

	cp := NewCheckpoint()
	if opts.CheckpointPath != "" && opts.Resume {
		cp, err = LoadCheckpoint(opts.CheckpointPath)
		if err != nil {
			return nil, err
		}
		s.logger.Info().Int("already_done", len(cp.DoneIDs)).Msg("Resuming from checkpoint")
	}
	cp.Collections = collections

	var articles []dataset.Article
	scraped := 0
	for _, ref := range refs {
		if opts.Limit > 0 && scraped >= opts.Limit {
			break
		}
		if opts.Resume && cp.IsDone(ref.ID) {
			continue
		}

		article, err := s.scrapeArticle(ctx, ref)
		if err != nil {
			if ctx.Err() != nil {
				return articles, ctx.Err()
			}
			s.logger.Error().Str("url", ref.URL).Err(err).Msg("Skipping article")
			continue
		}

		articles = append(articles, *article)
		cp.MarkDone(ref.ID)
		scraped++

		if opts.CheckpointPath != "" && scraped%checkpointEvery == 0 {
			if err := cp.Save(opts.CheckpointPath); err != nil {
				s.logger.Warn().Err(err).Msg("Failed to save checkpoint")
			}
		}
	}

	if opts.CheckpointPath != "" {
		if err := cp.Save(opts.CheckpointPath); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to save checkpoint")
		}
	}

	s.logger.Info().Int("scraped", len(articles)).Msg("Scraping completed")
	return articles, nil
}

// listArticles fetches every collection page and merges their article
// listings, deduplicating across collections by article ID.
func (s *Scraper) listArticles(ctx context.Context, collections []Collection) ([]ArticleRef, error) {
	seen := make(map[string]bool)
	var refs []ArticleRef
	failed := 0

	for _, coll := range collections {
		page, err := s.client.FetchPage(ctx, coll.URL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Error().Str("collection", coll.Name).Err(err).Msg("Skipping collection")
			failed++
			continue
		}

		collRefs, err := ExtractArticleRefs(page, s.baseURL, coll)
		if err != nil {
			s.logger.Error().Str("collection", coll.Name).Err(err).Msg("Failed to parse collection")
			failed++
			continue
		}

		added := 0
		for _, ref := range collRefs {
			if seen[ref.ID] {
				continue
			}
			seen[ref.ID] = true
			refs = append(refs, ref)
			added++
		}
		s.logger.Info().Str("collection", coll.Name).Int("articles", added).Msg("Listed collection")
	}

	if failed == len(collections) {
		return nil, fmt.Errorf("all %d collections failed", failed)
	}
	return refs, nil
}

func (s *Scraper) scrapeArticle(ctx context.Context, ref ArticleRef) (*dataset.Article, error) {
	page, err := s.client.FetchPage(ctx, ref.URL)
	if err != nil {
		return nil, err
	}

	article, err := ExtractArticle(page, s.baseURL, ref)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", ref.URL, err)
	}

	s.logger.Debug().
		Str("article_id", article.ArticleID).
		Str("title", article.Title).
		Int("words", article.Metadata.WordCount).
		Msg("Scraped article")
	return article, nil
}
