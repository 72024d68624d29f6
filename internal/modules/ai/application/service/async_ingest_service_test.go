package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"VectorOps/internal/modules/ai/domain/entity"
	"VectorOps/internal/modules/ai/infrastructure/mq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	msgs []mq.Message
	err  error
}

func (p *capturePublisher) Publish(ctx context.Context, msg mq.Message) (mq.PublishResult, error) {
	if p.err != nil {
		return mq.PublishResult{}, p.err
	}
	p.msgs = append(p.msgs, msg)
	return mq.PublishResult{}, nil
}

func (p *capturePublisher) Close() error { return nil }

func TestAsyncSubmit(t *testing.T) {
	f := newFixture(t)
	pub := &capturePublisher{}
	svc := NewAsyncIngestService(f.reg, pub, "vectorops.ingest.requests")
	require.True(t, svc.Enabled())

	req, err := svc.Submit(context.Background(), entity.IngestRequest{Mode: entity.IngestModeText, Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "macro_reports", req.Collection)
	assert.NotEmpty(t, req.RequestID)

	require.Len(t, pub.msgs, 1)
	var got entity.IngestRequest
	require.NoError(t, json.Unmarshal(pub.msgs[0].Value, &got))
	assert.Equal(t, req.RequestID, got.RequestID)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, int32(0), f.engine.opens.Load())
}

func TestAsyncSubmitValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewAsyncIngestService(f.reg, &capturePublisher{}, "t")
	ctx := context.Background()

	_, err := svc.Submit(ctx, entity.IngestRequest{Mode: entity.IngestModeItems})
	assert.ErrorIs(t, err, entity.ErrInvalidArgument)
	_, err = svc.Submit(ctx, entity.IngestRequest{Mode: entity.IngestModeText, Text: " "})
	assert.ErrorIs(t, err, entity.ErrInvalidArgument)
	_, err = svc.Submit(ctx, entity.IngestRequest{Mode: entity.IngestModeDocument, Text: "x"})
	assert.ErrorIs(t, err, entity.ErrInvalidArgument)

	_, err = NewAsyncIngestService(f.reg, nil, "").Submit(ctx, entity.IngestRequest{})
	assert.ErrorIs(t, err, ErrAsyncDisabled)

	failing := NewAsyncIngestService(f.reg, &capturePublisher{err: errors.New("down")}, "t")
	_, err = failing.Submit(ctx, entity.IngestRequest{Mode: entity.IngestModeText, Text: "x"})
	assert.Error(t, err)
}
