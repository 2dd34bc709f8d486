package publisher

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/radieske/event-odds-gateway/internal/odds-gateway/dto"
	sharedkafka "github.com/radieske/event-odds-gateway/internal/shared/kafka"
	"github.com/radieske/event-odds-gateway/pkg/contracts/events"
)

// KafkaPublisher envia um snapshot canônico de odds para o tópico configurado
// após cada fetch+normalização bem-sucedido. A chave da mensagem é o event id,
// garantindo distribuição consistente por partição.
type KafkaPublisher struct {
	writer *sharedkafka.Writer
	log    *zap.Logger
}

func NewKafkaPublisher(brokers string, topic string, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: sharedkafka.NewWriter(brokers, topic),
		log:    log,
	}
}

// Publish serializa a resposta canônica dentro de um events.OddsSnapshot e
// envia para o tópico. Falha de publicação não afeta a resposta ao caller.
func (p *KafkaPublisher) Publish(ctx context.Context, odds dto.OddsResponse) error {
	payload, err := json.Marshal(odds)
	if err != nil {
		return err
	}

	source := ""
	if odds.Source != nil {
		source = *odds.Source
	}

	snapshot := events.OddsSnapshot{
		EventID:     odds.Event.EventID,
		Bookmakers:  len(odds.Event.Bookmakers),
		RetrievedAt: odds.RetrievedAt,
		Source:      source,
		Payload:     payload,
	}

	value, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	if err := sharedkafka.WriteJSON(ctx, p.writer, odds.Event.EventID, value); err != nil {
		p.log.Error("failed to publish odds snapshot", zap.Error(err))
		return err
	}

	p.log.Debug("published odds snapshot", zap.String("event_id", odds.Event.EventID))
	return nil
}

// Close finaliza o writer e libera recursos associados
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
