package publisher

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/event-odds-gateway/internal/odds-gateway/dto"
)

// RedisBroadcaster replica o snapshot num canal Pub/Sub para assinantes ao
// vivo (dashboards, websockets de outros serviços). Best-effort: não há
// entrega garantida e nada aqui participa do cache de payloads, que é local.
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
	log     *zap.Logger
}

func NewRedisBroadcaster(client *redis.Client, channel string, log *zap.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, channel: channel, log: log}
}

// Mensagem publicada no canal
type broadcastMessage struct {
	EventID string           `json:"event_id"`
	Payload dto.OddsResponse `json:"payload"`
}

func (b *RedisBroadcaster) Publish(ctx context.Context, odds dto.OddsResponse) error {
	value, err := json.Marshal(broadcastMessage{EventID: odds.Event.EventID, Payload: odds})
	if err != nil {
		return err
	}

	if err := b.client.Publish(ctx, b.channel, value).Err(); err != nil {
		b.log.Warn("odds broadcast publish failed", zap.Error(err))
		return err
	}
	return nil
}
