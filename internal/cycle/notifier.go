package cycle

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	sharedkafka "github.com/radieske/esports-ev-finder/internal/shared/kafka"
	"github.com/radieske/esports-ev-finder/pkg/contracts/events"
)

// Notifier publica os eventos que o ciclo gera. A implementação real manda
// pro Kafka; alertas também vão pro Pub/Sub do Redis que alimenta o hub
// WebSocket da API.
type Notifier interface {
	NotifyClosingLine(ctx context.Context, ev events.ClosingLineCaptured) error
	NotifyValueAlert(ctx context.Context, ev events.ValueAlert) error
}

// KafkaNotifier implementa Notifier sobre os writers Kafka e o client Redis.
type KafkaNotifier struct {
	closingWriter *sharedkafka.Writer
	alertWriter   *sharedkafka.Writer
	redis         *redis.Client
	pubSubChannel string
	logger        *zap.Logger
}

func NewKafkaNotifier(closingWriter, alertWriter *sharedkafka.Writer, redisClient *redis.Client, pubSubChannel string, logger *zap.Logger) *KafkaNotifier {
	return &KafkaNotifier{
		closingWriter: closingWriter,
		alertWriter:   alertWriter,
		redis:         redisClient,
		pubSubChannel: pubSubChannel,
		logger:        logger,
	}
}

func (n *KafkaNotifier) NotifyClosingLine(ctx context.Context, ev events.ClosingLineCaptured) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("erro ao serializar closing line: %w", err)
	}
	if err := sharedkafka.WriteJSON(ctx, n.closingWriter, ev.ReferenceID, payload); err != nil {
		return fmt.Errorf("erro ao publicar closing line: %w", err)
	}
	return nil
}

func (n *KafkaNotifier) NotifyValueAlert(ctx context.Context, ev events.ValueAlert) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("erro ao serializar alerta: %w", err)
	}
	if err := sharedkafka.WriteJSON(ctx, n.alertWriter, ev.ReferenceID, payload); err != nil {
		return fmt.Errorf("erro ao publicar alerta no kafka: %w", err)
	}
	// Pub/Sub é best-effort: sem assinante o alerta do Kafka ainda vale
	if err := n.redis.Publish(ctx, n.pubSubChannel, payload).Err(); err != nil {
		n.logger.Warn("erro ao publicar alerta no redis", zap.Error(err))
	}
	return nil
}
