package service

import (
	"context"
	"fmt"
	"strings"

	"VectorOps/internal/modules/ai/application/dto/respond"
	"VectorOps/internal/modules/ai/domain/entity"
	"VectorOps/pkg/util"
	"VectorOps/pkg/zlog"

	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

const (
	excerptRunes        = 800
	DefaultCompareQuery = "macro report"
)

// Completer 通用对话链；nil 表示没有可用的聊天模型
type Completer interface {
	Invoke(ctx context.Context, input string, history []*schema.Message) (string, error)
}

type AnswerService interface {
	// Answer 检索后让模型作答；模型失败时仍返回检索结果
	Answer(ctx context.Context, collection, query string, k int) (*respond.AnswerRespond, error)
	// Compare 分别检索两个集合并让模型比较；模型失败返回 ErrLLMUnavailable
	Compare(ctx context.Context, collectionA, collectionB, query string, k int) (*respond.CompareRespond, error)
}

type answerService struct {
	search SearchService
	chain  Completer
}

func NewAnswerService(search SearchService, chain Completer) AnswerService {
	return &answerService{search: search, chain: chain}
}

func (s *answerService) Answer(ctx context.Context, collection, query string, k int) (*respond.AnswerRespond, error) {
	results, err := s.search.Search(ctx, collection, query, k)
	if err != nil {
		return nil, err
	}
	out := &respond.AnswerRespond{SearchResults: results}

	if s.chain == nil {
		out.LLMError = entity.ErrLLMUnavailable.Error()
		return out, nil
	}

	prompt := fmt.Sprintf(
		"You are an expert on macro reports. A user asked: %s\n\n"+
			"Use the following excerpts from the %s collection to answer concisely:\n\n%s\n\n"+
			"Provide a short, actionable answer (2-4 sentences). If the excerpts do not contain enough information, say so.",
		query, collection, buildExcerpts(results, k, true))

	answer, err := s.chain.Invoke(ctx, prompt, nil)
	if err != nil {
		zlog.Warn("llm answer failed, returning search results only",
			zap.String("collection", collection), zap.Error(err))
		out.LLMError = err.Error()
		return out, nil
	}
	out.LLMAnswer = &answer
	return out, nil
}

func (s *answerService) Compare(ctx context.Context, collectionA, collectionB, query string, k int) (*respond.CompareRespond, error) {
	if strings.TrimSpace(query) == "" {
		query = DefaultCompareQuery
	}
	docsA, err := s.search.Search(ctx, collectionA, query, k)
	if err != nil {
		return nil, err
	}
	docsB, err := s.search.Search(ctx, collectionB, query, k)
	if err != nil {
		return nil, err
	}
	if s.chain == nil {
		return nil, entity.ErrLLMUnavailable
	}

	prompt := fmt.Sprintf(
		"Compare the reports in %[1]s and %[2]s.\n\n"+
			"=== %[1]s Excerpts ===\n%[3]s\n\n"+
			"=== %[2]s Excerpts ===\n%[4]s\n\n"+
			"Task:\n"+
			"- Identify the top 3 differences in macro themes between the two collections.\n"+
			"- Provide investor implications (2-3 short bullets).\n"+
			"- Give a concise recommendation (Buy/Hold/Avoid) and brief rationale.\n"+
			"Keep the response short and actionable.",
		collectionA, collectionB, buildExcerpts(docsA, k, false), buildExcerpts(docsB, k, false))

	comparison, err := s.chain.Invoke(ctx, prompt, nil)
	if err != nil {
		zlog.Error("llm compare failed",
			zap.String("collection_a", collectionA),
			zap.String("collection_b", collectionB),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", entity.ErrLLMUnavailable, err)
	}

	return &respond.CompareRespond{
		CollectionA: collectionA,
		CollectionB: collectionB,
		Query:       query,
		Comparison:  comparison,
		ASources:    docsA,
		BSources:    docsB,
	}, nil
}

func buildExcerpts(results []entity.SearchResult, k int, withSource bool) string {
	if len(results) == 0 {
		return "No excerpts available."
	}
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	parts := make([]string, 0, len(results))
	for i, r := range results {
		text := util.TruncateRunes(strings.TrimSpace(r.Text), excerptRunes)
		if withSource {
			parts = append(parts, fmt.Sprintf("Excerpt %d (source=%s):\n%s", i+1, sourceOf(r.Metadata), text))
			continue
		}
		parts = append(parts, fmt.Sprintf("Excerpt %d: %s", i+1, text))
	}
	return strings.Join(parts, "\n\n")
}

func sourceOf(meta entity.Metadata) string {
	for _, key := range []string{entity.MetaSource, "source_name"} {
		if v, ok := meta[key]; ok && v != nil {
			if s := fmt.Sprint(v); s != "" {
				return s
			}
		}
	}
	return "unknown"
}
