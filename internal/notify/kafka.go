package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/calliza/cardmart/internal/domain"
)

// Kafka publishes delivery events keyed by order id.
type Kafka struct {
	writer *kafka.Writer
}

func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: 5 * time.Second,
		},
	}
}

type deliveryEvent struct {
	OrderID     string    `json:"order_id"`
	ProductID   string    `json:"product_id"`
	Amount      string    `json:"amount"`
	GatewayTxn  string    `json:"gateway_txn,omitempty"`
	DeliveredAt time.Time `json:"delivered_at"`
}

func (k *Kafka) OrderDelivered(ctx context.Context, order domain.Order) error {
	event := deliveryEvent{
		OrderID:   order.ID,
		ProductID: order.ProductID,
		Amount:    order.Amount.StringFixed(2),
	}
	if order.GatewayTxn != nil {
		event.GatewayTxn = *order.GatewayTxn
	}
	if order.DeliveredAt != nil {
		event.DeliveredAt = *order.DeliveredAt
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal delivery event: %w", err)
	}

	if err := k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(order.ID),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("publish delivery event: %w", err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
