package kafka

import (
	"context"
	"errors"
	"testing"

	"VectorOps/internal/modules/ai/infrastructure/mq"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherSendsMessage(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"collection":"reports"}` {
			return errors.New("unexpected payload " + string(val))
		}
		return nil
	})

	pub := NewPublisherFromProducer(sp)
	_, err := pub.Publish(context.Background(), mq.Message{
		Topic:   "vectorops.ingest",
		Key:     []byte("reports"),
		Value:   []byte(`{"collection":"reports"}`),
		Headers: map[string]string{"mode": "items", " ": "skip"},
	})
	require.NoError(t, err)
	require.NoError(t, pub.Close())
}

func TestPublisherRejects(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	pub := NewPublisherFromProducer(sp)

	_, err := pub.Publish(context.Background(), mq.Message{Value: []byte("x")})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = pub.Publish(ctx, mq.Message{Topic: "t", Value: []byte("x")})
	assert.ErrorIs(t, err, context.Canceled)
	require.NoError(t, pub.Close())
}

func TestPublisherSendFailure(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	pub := NewPublisherFromProducer(sp)

	_, err := pub.Publish(context.Background(), mq.Message{Topic: "t", Value: []byte("x")})
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, pub.Close())
}

func TestToMessage(t *testing.T) {
	msg := toMessage(&sarama.ConsumerMessage{
		Topic: "t",
		Key:   []byte("k"),
		Value: []byte("v"),
		Headers: []*sarama.RecordHeader{
			{Key: []byte("mode"), Value: []byte("text")},
			nil,
			{Key: nil, Value: []byte("ignored")},
		},
	})
	assert.Equal(t, "t", msg.Topic)
	assert.Equal(t, []byte("v"), msg.Value)
	assert.Equal(t, map[string]string{"mode": "text"}, msg.Headers)
}

type fakeAdmin struct {
	sarama.ClusterAdmin
	existing map[string]sarama.TopicDetail
	created  []string
}

func (f *fakeAdmin) ListTopics() (map[string]sarama.TopicDetail, error) {
	return f.existing, nil
}

func (f *fakeAdmin) CreateTopic(topic string, detail *sarama.TopicDetail, validateOnly bool) error {
	f.created = append(f.created, topic)
	return nil
}

func TestEnsureTopics(t *testing.T) {
	admin := &fakeAdmin{existing: map[string]sarama.TopicDetail{"a": {}}}
	require.NoError(t, ensureTopics(admin, []string{"a", "b", " ", "c"}))
	assert.Equal(t, []string{"b", "c"}, admin.created)

	assert.Error(t, EnsureTopics(TopicAdminConfig{}, "x"))
	_, err := NewConsumer(ConsumerConfig{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)
	_, err = NewSaramaPublisher(PublisherConfig{})
	assert.Error(t, err)
}
