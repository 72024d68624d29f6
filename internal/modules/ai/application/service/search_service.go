package service

import (
	"context"

	"VectorOps/internal/modules/ai/domain/entity"
)

const (
	DefaultTopK = 3
	defaultMaxK = 50
)

type SearchService interface {
	Search(ctx context.Context, collection, query string, k int) ([]entity.SearchResult, error)
	Collections() []string
}

type searchService struct {
	store CollectionStore
	maxK  int
}

func NewSearchService(store CollectionStore, maxK int) SearchService {
	if maxK <= 0 {
		maxK = defaultMaxK
	}
	return &searchService{store: store, maxK: maxK}
}

// Search 未见过的集合会被创建并返回空列表；结果保持引擎给出的顺序
func (s *searchService) Search(ctx context.Context, collection, query string, k int) ([]entity.SearchResult, error) {
	if k < 1 {
		return nil, entity.Invalid("k must be >= 1, got %d", k)
	}
	if k > s.maxK {
		k = s.maxK
	}

	coll, err := s.store.GetOrCreate(ctx, collection)
	if err != nil {
		return nil, err
	}
	hits, err := coll.Similar(ctx, query, k)
	if err != nil {
		return nil, err
	}
	results, err := entity.NormalizeAll(hits)
	if err != nil {
		return nil, entity.NewEngineError("search", coll.Name(), err)
	}
	if results == nil {
		results = []entity.SearchResult{}
	}
	return results, nil
}

func (s *searchService) Collections() []string {
	return s.store.Names()
}
