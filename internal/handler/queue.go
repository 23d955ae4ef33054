package handler

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"

	"github.com/amits-library/library-service/internal/model"
)

const (
	BorrowEventCreated  = "borrow.created"
	BorrowEventReturned = "borrow.returned"
	BorrowEventDeleted  = "borrow.deleted"
)

// BorrowEvent is the message published on borrow lifecycle changes.
type BorrowEvent struct {
	Event     string    `json:"event"`
	BorrowID  string    `json:"borrowId"`
	BookID    string    `json:"bookId"`
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBorrowEvent(event string, borrow model.Borrow) BorrowEvent {
	return BorrowEvent{
		Event:     event,
		BorrowID:  borrow.ID,
		BookID:    borrow.BookID,
		Quantity:  borrow.Quantity,
		Timestamp: time.Now().UTC(),
	}
}

type Enqueuer interface {
	Enqueue(topic string, v any) error
}

// NewEnqueuer wraps producer; a nil producer yields a no-op enqueuer so the
// service runs without kafka.
func NewEnqueuer(producer sarama.SyncProducer) Enqueuer {
	if producer == nil {
		return noopEnqueuer{}
	}
	return &enqueuerImpl{
		producer: producer,
	}
}

type enqueuerImpl struct {
	producer sarama.SyncProducer
}

func (q *enqueuerImpl) Enqueue(topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{Topic: topic, Value: sarama.StringEncoder(data)}
	if _, _, err = q.producer.SendMessage(msg); err != nil {
		return err
	}
	return nil
}

type noopEnqueuer struct{}

func (noopEnqueuer) Enqueue(string, any) error { return nil }
