package kafka

import (
	"errors"
	"strings"

	"github.com/IBM/sarama"
)

type TopicAdminConfig struct {
	Brokers  []string
	ClientID string
}

// EnsureTopics 创建缺失的 topic，已存在的跳过
func EnsureTopics(cfg TopicAdminConfig, topics ...string) error {
	if len(cfg.Brokers) == 0 {
		return errors.New("kafka brokers is empty")
	}

	sc := sarama.NewConfig()
	sc.Version = sarama.V2_8_0_0
	sc.ClientID = strings.TrimSpace(cfg.ClientID)

	admin, err := sarama.NewClusterAdmin(cfg.Brokers, sc)
	if err != nil {
		return err
	}
	defer admin.Close()
	return ensureTopics(admin, topics)
}

func ensureTopics(admin sarama.ClusterAdmin, topics []string) error {
	existing, err := admin.ListTopics()
	if err != nil {
		return err
	}
	for _, topic := range topics {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			continue
		}
		if _, ok := existing[topic]; ok {
			continue
		}
		td := &sarama.TopicDetail{NumPartitions: 1, ReplicationFactor: 1}
		if err := admin.CreateTopic(topic, td, false); err != nil && !errors.Is(err, sarama.ErrTopicAlreadyExists) {
			return err
		}
	}
	return nil
}
