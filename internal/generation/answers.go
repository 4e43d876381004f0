package generation

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Caia-Tech/caia-tuner/internal/dataset"
)

// answerCheckpointEvery controls checkpoint frequency in sync mode
const answerCheckpointEvery = 10

// answerItem is one pending question bound to its source article
type answerItem struct {
	qaID         string
	question     string
	questionType string
	article      *dataset.Article
}

// BuildAnswerItems flattens question sets into the ordered work list for
// answer generation. QA IDs are "<article_id>_q<index>"; questions whose
// article is missing from the index are logged and skipped.
func (g *Generator) BuildAnswerItems(questions map[string]dataset.QuestionSet, articles map[string]*dataset.Article) []answerItem {
	articleIDs := make([]string, 0, len(questions))
	for id := range questions {
		articleIDs = append(articleIDs, id)
	}
	sort.Strings(articleIDs)

	var items []answerItem
	for _, articleID := range articleIDs {
		article, ok := articles[articleID]
		if !ok {
			g.logger.Warn().Str("article_id", articleID).Msg("Article not found for questions")
			continue
		}
		for i, q := range questions[articleID].Questions {
			qType := q.Type
			if qType == "" {
				qType = "unknown"
			}
			items = append(items, answerItem{
				qaID:         fmt.Sprintf("%s_q%d", articleID, i),
				question:     q.Question,
				questionType: qType,
				article:      article,
			})
		}
	}
	return items
}

// GenerateAnswers produces a Q&A pair for every generated question.
// Items that fail generation are logged and skipped.
func (g *Generator) GenerateAnswers(ctx context.Context, questions map[string]dataset.QuestionSet, articles map[string]*dataset.Article, opts Options) ([]dataset.QAPair, error) {
	items := g.BuildAnswerItems(questions, articles)
	g.logger.Info().Int("total", len(items)).Msg("Q&A pairs to generate")

	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
		g.logger.Info().Int("limit", opts.Limit).Msg("Limiting Q&A pairs")
	}

	var pairs []dataset.QAPair
	done := make(map[string]bool)
	if opts.Resume && opts.CheckpointPath != "" {
		cp, err := LoadCheckpoint(opts.CheckpointPath)
		if err != nil {
			return nil, err
		}
		if cp.Phase == PhaseAnswers && len(cp.QAPairs) > 0 {
			pairs = cp.QAPairs
			for _, qa := range pairs {
				done[qa.QAID] = true
			}
			g.logger.Info().Int("already_done", len(pairs)).Msg("Resuming from checkpoint")
		}
	}

	var pending []answerItem
	for _, item := range items {
		if !done[item.qaID] {
			pending = append(pending, item)
		}
	}
	g.logger.Info().Int("pending", len(pending)).Msg("Q&A pairs to process")
	if len(pending) == 0 {
		return pairs, nil
	}

	var err error
	if opts.Sync {
		pairs, err = g.answersSync(ctx, pending, pairs, opts)
	} else {
		pairs, err = g.answersBatch(ctx, pending, pairs, opts)
	}
	if err != nil {
		return nil, err
	}

	if opts.CheckpointPath != "" {
		cp := &Checkpoint{Phase: PhaseAnswersComplete, Processed: len(pairs)}
		if err := cp.Save(opts.CheckpointPath); err != nil {
			g.logger.Warn().Err(err).Msg("Failed to save checkpoint")
		}
	}

	return pairs, nil
}

func (g *Generator) answerPrompt(item answerItem) (string, error) {
	return g.prompts.AnswerPrompt(AnswerPromptData{
		Title:      item.article.Title,
		Collection: item.article.Collection,
		Content:    truncateRunes(item.article.Content.Markdown, g.gen.MaxContentChars),
		Question:   item.question,
	})
}

func (g *Generator) makePair(item answerItem, answer string) dataset.QAPair {
	return dataset.QAPair{
		QAID:         item.qaID,
		ArticleID:    item.article.ArticleID,
		Question:     item.question,
		Answer:       strings.TrimSpace(answer),
		QuestionType: item.questionType,
		Collection:   item.article.Collection,
	}
}

func (g *Generator) answersSync(ctx context.Context, pending []answerItem, pairs []dataset.QAPair, opts Options) ([]dataset.QAPair, error) {
	for _, item := range pending {
		prompt, err := g.answerPrompt(item)
		if err != nil {
			return nil, err
		}

		response, err := g.client.GenerateSingle(ctx, prompt,
			g.gen.TemperatureAnswers, g.gen.MaxTokensAnswers)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			g.logger.Error().Str("qa_id", item.qaID).Err(err).Msg("Answer generation failed")
			continue
		}

		pairs = append(pairs, g.makePair(item, response))

		if opts.CheckpointPath != "" && len(pairs)%answerCheckpointEvery == 0 {
			cp := &Checkpoint{Phase: PhaseAnswers, Processed: len(pairs), QAPairs: pairs}
			if err := cp.Save(opts.CheckpointPath); err != nil {
				g.logger.Warn().Err(err).Msg("Failed to save checkpoint")
			}
		}
	}
	return pairs, nil
}

func (g *Generator) answersBatch(ctx context.Context, pending []answerItem, pairs []dataset.QAPair, opts Options) ([]dataset.QAPair, error) {
	itemIndex := make(map[string]answerItem, len(pending))
	requests := make([]BatchRequest, 0, len(pending))
	for _, item := range pending {
		prompt, err := g.answerPrompt(item)
		if err != nil {
			return nil, err
		}
		requests = append(requests, BatchRequest{
			CustomID:    item.qaID,
			Prompt:      prompt,
			Temperature: g.gen.TemperatureAnswers,
			MaxTokens:   g.gen.MaxTokensAnswers,
		})
		itemIndex[item.qaID] = item
	}

	batchFile := opts.BatchFilePath
	if batchFile == "" {
		return nil, fmt.Errorf("batch mode requires a batch file path")
	}

	results, err := g.client.RunBatch(ctx, requests, batchFile)
	if err != nil {
		return nil, err
	}

	for _, res := range results {
		if res.Err != "" {
			g.logger.Error().Str("qa_id", res.CustomID).Str("error", res.Err).Msg("Batch request failed")
			continue
		}
		item, ok := itemIndex[res.CustomID]
		if !ok {
			g.logger.Warn().Str("qa_id", res.CustomID).Msg("Batch result for unknown item")
			continue
		}
		pairs = append(pairs, g.makePair(item, res.Content))
	}
	return pairs, nil
}
