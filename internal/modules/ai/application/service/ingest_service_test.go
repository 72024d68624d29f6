package service

import (
	"context"
	"testing"

	"VectorOps/internal/modules/ai/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestItemsThenSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.ingest.IngestItems(ctx, "demo", []entity.IngestItem{
		{ID: "a", Text: "alpha doc", Metadata: map[string]any{"tags": []any{"x", "y"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Ingested)
	assert.Equal(t, []string{"a"}, res.IDs)

	results, err := f.search.Search(ctx, "demo", "alpha", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "alpha doc", results[0].Text)
	assert.Equal(t, "x, y", results[0].Metadata["tags"])
}

func TestIngestItemsDropsEmptyText(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.ingest.IngestItems(ctx, "demo", []entity.IngestItem{
		{Text: "kept one"},
		{ID: "blank", Text: "   "},
		{Text: ""},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Ingested)
	assert.Equal(t, 2, res.Dropped)
	require.Len(t, res.IDs, 1)
	assert.Len(t, res.IDs[0], 36)

	res, err = f.ingest.IngestItems(ctx, "demo", []entity.IngestItem{{Text: " "}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Ingested)
	assert.Equal(t, int32(1), f.engine.upserts.Load())
}

func TestIngestItemsDuplicateIDLastWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.ingest.IngestItems(ctx, "demo", []entity.IngestItem{
		{ID: "a", Text: "one"},
		{ID: "a", Text: "two"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Ingested)
	assert.Equal(t, []string{"a"}, res.IDs)

	coll, err := f.reg.GetOrCreate(ctx, "demo")
	require.NoError(t, err)
	n, err := coll.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.Ingested, n)

	results, err := f.search.Search(ctx, "demo", "two", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "two", results[0].Text)

	require.Len(t, f.sink.events, 1)
	assert.Equal(t, 1, f.sink.events[0].Count)
}

func TestIngestTextIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	text := longText(6)

	first, err := f.ingest.IngestText(ctx, "2023", text, "")
	require.NoError(t, err)
	require.Greater(t, first.Ingested, 1)
	for i, id := range first.IDs {
		assert.Regexp(t, `^chunk_\d+_[0-9a-f]{8}$`, id, i)
	}

	second, err := f.ingest.IngestText(ctx, "2023", text, "")
	require.NoError(t, err)
	assert.Equal(t, first.IDs, second.IDs)

	coll, err := f.reg.GetOrCreate(ctx, "2023")
	require.NoError(t, err)
	n, err := coll.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Ingested, n)

	results, err := f.search.Search(ctx, "2023", "inflation", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, entity.DefaultSourceTag, results[0].Metadata[entity.MetaSource])
}

func TestIngestTextEmptyIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, text := range []string{"", "   ", "\n\t"} {
		res, err := f.ingest.IngestText(ctx, "demo", text, "")
		require.NoError(t, err)
		assert.Equal(t, 0, res.Ingested)
		assert.Empty(t, res.IDs)
	}
	assert.Equal(t, int32(0), f.engine.opens.Load())
	assert.Equal(t, int32(0), f.engine.upserts.Load())
	assert.Empty(t, f.sink.events)
}

func TestIngestPublishesEvent(t *testing.T) {
	f := newFixture(t)
	_, err := f.ingest.IngestText(context.Background(), "", "short report", "upload.txt")
	require.NoError(t, err)

	require.Len(t, f.sink.events, 1)
	ev := f.sink.events[0]
	assert.Equal(t, "macro_reports", ev.Collection)
	assert.Equal(t, entity.IngestModeText, ev.Mode)
	assert.Equal(t, 1, ev.Count)
}

func TestIngestEngineFailureNamesCollection(t *testing.T) {
	f := newFixture(t)
	f.engine.upsertErr = errBoom

	_, err := f.ingest.IngestItems(context.Background(), "evil_items", []entity.IngestItem{{Text: "x"}})
	require.Error(t, err)
	var engErr *entity.EngineError
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, "evil_items", engErr.Collection)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "evil_items")
	assert.Empty(t, f.sink.events)
}

func TestIngestDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.ingest.IngestDocument(ctx, "macro_report_2024", "doc-1", "whole report", map[string]any{"pages": 3})
	require.NoError(t, err)
	assert.Equal(t, "doc-1", id)

	id, err = f.ingest.IngestDocument(ctx, "macro_report_2024", "", "another", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = f.ingest.IngestDocument(ctx, "macro_report_2024", "", " ", nil)
	assert.ErrorIs(t, err, entity.ErrInvalidArgument)
}

func TestIngestInvalidCollection(t *testing.T) {
	f := newFixture(t)
	_, err := f.ingest.IngestItems(context.Background(), "../x", []entity.IngestItem{{Text: "a"}})
	assert.ErrorIs(t, err, entity.ErrInvalidArgument)
}
