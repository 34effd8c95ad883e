package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/esports-ev-finder/pkg/contracts/events"
)

// StartRedisSubscriber inicia uma goroutine que escuta o canal Redis Pub/Sub
// de alertas e repassa cada um pros clientes WebSocket conectados via Hub.
func StartRedisSubscriber(ctx context.Context, r *redis.Client, channel string, hub *Hub, logger *zap.Logger) {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg := <-ch:
				if msg == nil {
					continue
				}
				var alert events.ValueAlert
				if err := json.Unmarshal([]byte(msg.Payload), &alert); err != nil {
					logger.Warn("alerta ilegível no pub/sub", zap.Error(err))
					continue
				}
				hub.Broadcast(alert)
			}
		}
	}()
}
