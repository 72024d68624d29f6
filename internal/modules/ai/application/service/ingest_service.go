package service

import (
	"context"
	"strings"
	"time"

	"VectorOps/internal/modules/ai/domain/entity"
	"VectorOps/internal/modules/ai/domain/metadata"
	"VectorOps/pkg/util"
	"VectorOps/pkg/zlog"

	"go.uber.org/zap"
)

type IngestService interface {
	// IngestItems 尽力写入：text 为空的条目被丢弃并计入 Dropped
	IngestItems(ctx context.Context, collection string, items []entity.IngestItem) (*entity.IngestResult, error)
	// IngestText 切片后写入，id 由序号与内容哈希决定；空文本不触达引擎
	IngestText(ctx context.Context, collection, text, source string) (*entity.IngestResult, error)
	// IngestDocument 整段文本作为一条记录写入，不切片
	IngestDocument(ctx context.Context, collection, id, text string, meta any) (string, error)
}

type ingestService struct {
	store    CollectionStore
	splitter Splitter
	sink     EventSink
}

func NewIngestService(store CollectionStore, splitter Splitter, sink EventSink) IngestService {
	if sink == nil {
		sink = nopSink{}
	}
	return &ingestService{store: store, splitter: splitter, sink: sink}
}

func (s *ingestService) IngestItems(ctx context.Context, collection string, items []entity.IngestItem) (*entity.IngestResult, error) {
	name, err := s.store.Resolve(collection)
	if err != nil {
		return nil, err
	}
	res := &entity.IngestResult{Collection: name, IDs: []string{}}

	docs := make([]entity.Document, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Text) == "" {
			res.Dropped++
			continue
		}
		id := strings.TrimSpace(it.ID)
		if id == "" {
			id = util.GenerateUUID()
		}
		docs = append(docs, entity.Document{ID: id, Text: it.Text, Metadata: metadata.Sanitize(it.Metadata)})
	}
	if res.Dropped > 0 {
		zlog.Warn("ingest items dropped", zap.String("collection", name), zap.Int("dropped", res.Dropped))
	}
	if len(docs) == 0 {
		return res, nil
	}

	// 与引擎写入一致：重复 id 以最后一条为准
	docs = entity.DedupeByID(docs)
	if err := s.write(ctx, name, entity.IngestModeItems, docs); err != nil {
		return nil, err
	}
	res.IDs = idsOf(docs)
	res.Ingested = len(docs)
	return res, nil
}

func (s *ingestService) IngestText(ctx context.Context, collection, text, source string) (*entity.IngestResult, error) {
	name, err := s.store.Resolve(collection)
	if err != nil {
		return nil, err
	}
	res := &entity.IngestResult{Collection: name, IDs: []string{}}
	if strings.TrimSpace(text) == "" {
		return res, nil
	}

	chunks, err := s.splitter.SplitContext(ctx, text)
	if err != nil {
		return nil, entity.NewEngineError("split", name, err)
	}
	if len(chunks) == 0 {
		return res, nil
	}

	source = strings.TrimSpace(source)
	if source == "" {
		source = entity.DefaultSourceTag
	}
	docs := make([]entity.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = entity.Document{
			ID:   entity.ChunkID(i, c),
			Text: c,
			Metadata: entity.Metadata{
				entity.MetaChunkIndex: i,
				entity.MetaSource:     source,
			},
		}
	}

	if err := s.write(ctx, name, entity.IngestModeText, docs); err != nil {
		return nil, err
	}
	res.IDs = idsOf(docs)
	res.Ingested = len(docs)
	return res, nil
}

func (s *ingestService) IngestDocument(ctx context.Context, collection, id, text string, meta any) (string, error) {
	name, err := s.store.Resolve(collection)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", entity.Invalid("text must not be empty")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		id = util.GenerateUUID()
	}
	doc := entity.Document{ID: id, Text: text, Metadata: metadata.Sanitize(meta)}
	if err := s.write(ctx, name, entity.IngestModeDocument, []entity.Document{doc}); err != nil {
		return "", err
	}
	return id, nil
}

// write 一个批次一次 Upsert，成功后发事件
func (s *ingestService) write(ctx context.Context, name string, mode entity.IngestMode, docs []entity.Document) error {
	coll, err := s.store.GetOrCreate(ctx, name)
	if err != nil {
		return err
	}
	if err := coll.Add(ctx, docs); err != nil {
		zlog.Error("ingest failed",
			zap.String("collection", name),
			zap.String("mode", string(mode)),
			zap.Int("documents", len(docs)),
			zap.Error(err))
		return err
	}

	ids := idsOf(docs)
	zlog.Info("ingest completed",
		zap.String("collection", name),
		zap.String("mode", string(mode)),
		zap.Int("documents", len(docs)))
	s.sink.IngestCompleted(ctx, entity.IngestEvent{
		Collection: name,
		Mode:       mode,
		IDs:        ids,
		Count:      len(ids),
		At:         time.Now().UTC(),
	})
	return nil
}

func idsOf(docs []entity.Document) []string {
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids
}
