// Package events publica los eventos de fulfillment en Kafka. La publicación
// es fire-and-forget: el despacho ya quedó confirmado en base de datos y un
// broker caído no debe afectarlo.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/application/fulfillment"
	"github.com/Mark-Lasfar/mgzonapk-sub002/pkg/logger"
)

var _ fulfillment.Notifier = (*KafkaNotifier)(nil)

// KafkaNotifier publica FulfillmentEvent como JSON, con el OrderID como clave
// de partición para mantener el orden por pedido.
type KafkaNotifier struct {
	writer *kafka.Writer
	log    *logger.Logger
}

// NewKafkaNotifier construye el notificador contra los brokers dados.
func NewKafkaNotifier(brokers []string, topic string, log *logger.Logger) *KafkaNotifier {
	if log == nil {
		log = logger.Nop()
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 5 * time.Second,
	}
	return &KafkaNotifier{writer: writer, log: log}
}

// Notify publica el evento.
func (n *KafkaNotifier) Notify(ctx context.Context, event fulfillment.FulfillmentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serializar evento de fulfillment: %w", err)
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("publicar evento de fulfillment: %w", err)
	}

	n.log.Debug().
		Str("order_id", event.OrderID).
		Str("status", string(event.Status)).
		Msg("evento de fulfillment publicado")
	return nil
}

// Close cierra el writer subyacente.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

var _ fulfillment.Notifier = (*LogNotifier)(nil)

// LogNotifier notificador de respaldo para entornos sin Kafka: deja el evento
// en el log estructurado y nada más.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier construye el notificador de log.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &LogNotifier{log: log}
}

// Notify registra el evento en el log.
func (n *LogNotifier) Notify(_ context.Context, event fulfillment.FulfillmentEvent) error {
	n.log.Info().
		Str("order_id", event.OrderID).
		Str("seller_id", event.SellerID).
		Str("status", string(event.Status)).
		Int("shipments", len(event.Shipments)).
		Msg("evento de fulfillment")
	return nil
}
