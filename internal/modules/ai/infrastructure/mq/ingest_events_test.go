package mq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"VectorOps/internal/modules/ai/domain/entity"
	"VectorOps/pkg/ws"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (p *recordingPublisher) Publish(ctx context.Context, msg Message) (PublishResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return PublishResult{}, p.err
	}
	p.msgs = append(p.msgs, msg)
	return PublishResult{Partition: 0, Offset: int64(len(p.msgs))}, nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestIngestNotifierPublishesAndBroadcasts(t *testing.T) {
	pub := &recordingPublisher{}
	hub := ws.NewHub()
	sub := ws.NewClient("reports", nil)
	hub.Register(sub)

	n := NewIngestNotifier(pub, "vectorops.ingest", hub)
	n.IngestCompleted(context.Background(), entity.IngestEvent{
		Collection: "reports",
		Mode:       entity.IngestModeText,
		IDs:        []string{"chunk_0_abcd1234"},
		Count:      1,
		At:         time.Unix(0, 0).UTC(),
	})

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "vectorops.ingest", pub.msgs[0].Topic)
	assert.Equal(t, []byte("reports"), pub.msgs[0].Key)
	assert.Equal(t, "text", pub.msgs[0].Headers["mode"])

	var ev entity.IngestEvent
	require.NoError(t, json.Unmarshal(<-sub.Messages(), &ev))
	assert.Equal(t, 1, ev.Count)
}

func TestIngestNotifierSwallowsPublishError(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	n := NewIngestNotifier(pub, "t", nil)
	assert.NotPanics(t, func() {
		n.IngestCompleted(context.Background(), entity.IngestEvent{Collection: "c"})
	})
}

func TestIngestNotifierWithoutTopic(t *testing.T) {
	pub := &recordingPublisher{}
	NewIngestNotifier(pub, "", nil).IngestCompleted(context.Background(), entity.IngestEvent{Collection: "c"})
	assert.Empty(t, pub.msgs)

	res, err := NopPublisher{}.Publish(context.Background(), Message{})
	require.NoError(t, err)
	assert.Equal(t, int32(-1), res.Partition)
}
