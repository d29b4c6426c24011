// Package notify pushes best-effort patient notifications on confirmed
// and cancelled transitions. Delivery failure never affects the
// committed status change; it is logged and dropped.
package notify

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"telehealth-api/internal/model"
)

// Message is the payload handed to the messaging provider.
type Message struct {
	Phone          string                  `json:"phone"`
	Template       string                  `json:"template"`
	AppointmentID  string                  `json:"appointment_id"`
	PatientName    string                  `json:"patient_name"`
	ProfessionalID string                  `json:"professional_id"`
	Date           string                  `json:"date"`
	TimeSlot       string                  `json:"time_slot"`
	Status         model.AppointmentStatus `json:"status"`
	AccessLink     string                  `json:"access_link,omitempty"`
}

type Notifier interface {
	AppointmentChanged(ctx context.Context, a *model.Appointment) error
	Close() error
}

const publishTimeout = 5 * time.Second

// Rabbit publishes to a durable queue, wrapped in a circuit breaker so
// a dead broker fails fast instead of stalling request goroutines.
type Rabbit struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
	cb    *gobreaker.CircuitBreaker
	log   *zap.Logger
}

func NewRabbit(amqpURL, queue string, log *zap.Logger) (*Rabbit, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	// idempotent declare
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "notify-publisher",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Rabbit{conn: conn, ch: ch, queue: queue, cb: cb, log: log}, nil
}

func (r *Rabbit) AppointmentChanged(ctx context.Context, a *model.Appointment) error {
	msg := Message{
		Phone:          a.PatientPhone,
		Template:       template(a.Status),
		AppointmentID:  a.ID,
		PatientName:    a.PatientName,
		ProfessionalID: a.ProfessionalID,
		Date:           a.Date,
		TimeSlot:       a.TimeSlot,
		Status:         a.Status,
	}
	if a.Status == model.StatusConfirmed {
		msg.AccessLink = a.AccessLink
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	_, err = r.cb.Execute(func() (any, error) {
		return nil, r.ch.PublishWithContext(ctx,
			"",      // default exchange
			r.queue, // routing key == queue name
			false, false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
			})
	})
	return err
}

func (r *Rabbit) Close() error {
	if r.ch != nil {
		if err := r.ch.Close(); err != nil {
			return err
		}
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func template(s model.AppointmentStatus) string {
	switch s {
	case model.StatusConfirmed:
		return "appointment_confirmed"
	case model.StatusCancelled:
		return "appointment_cancelled"
	}
	return "appointment_updated"
}

// Nop discards notifications; used in tests and when no broker is
// configured.
type Nop struct{}

func (Nop) AppointmentChanged(context.Context, *model.Appointment) error { return nil }
func (Nop) Close() error                                                 { return nil }
