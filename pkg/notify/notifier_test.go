package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingFields = map[string]string{
	"booking_id": "b1",
	"seats":      "1A, 1B",
	"amount":     "200.00",
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "amount: 200.00\nbooking_id: b1\nseats: 1A, 1B\n", PlainText(bookingFields))
	assert.Equal(t, "", PlainText(nil))
}

func TestLogNotifier(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	n := NewLogNotifier(logger)

	require.NoError(t, n.Send(context.Background(), "alice@example.com", "Booking confirmed", bookingFields))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "alice@example.com", entry.Data["to"])
	assert.Equal(t, "b1", entry.Data["field_booking_id"])
	assert.Equal(t, "log", n.Name())
}

func TestSMTPNotifier(t *testing.T) {
	t.Run("Missing Host", func(t *testing.T) {
		_, err := NewSMTPNotifier(SMTPConfig{FromEmail: "no-reply@example.com"})
		assert.Error(t, err)
	})

	t.Run("Success", func(t *testing.T) {
		n, err := NewSMTPNotifier(SMTPConfig{Host: "smtp.example.com", Username: "user", Password: "pass", FromEmail: "no-reply@example.com"})
		require.NoError(t, err)

		var gotAddr string
		var gotTo []string
		var gotMsg string
		n.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotTo, gotMsg = addr, to, string(msg)
			assert.NotNil(t, a)
			assert.Equal(t, "no-reply@example.com", from)
			return nil
		}

		require.NoError(t, n.Send(context.Background(), "alice@example.com", "Booking confirmed", bookingFields))
		assert.Equal(t, "smtp.example.com:587", gotAddr)
		assert.Equal(t, []string{"alice@example.com"}, gotTo)
		assert.Contains(t, gotMsg, "Subject: Booking confirmed\r\n")
		assert.Contains(t, gotMsg, "booking_id: b1\r\n")
	})

	t.Run("Delivery Failure", func(t *testing.T) {
		n, err := NewSMTPNotifier(SMTPConfig{Host: "smtp.example.com", FromEmail: "no-reply@example.com"})
		require.NoError(t, err)
		n.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
			return errors.New("connection refused")
		}

		err = n.Send(context.Background(), "alice@example.com", "Booking confirmed", bookingFields)
		assert.ErrorContains(t, err, "failed to send email")
	})

	t.Run("Header Line Breaks Flattened", func(t *testing.T) {
		n, err := NewSMTPNotifier(SMTPConfig{Host: "smtp.example.com", FromEmail: "no-reply@example.com"})
		require.NoError(t, err)

		var gotMsg string
		n.sendMail = func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
			gotMsg = string(msg)
			return nil
		}

		subject := "Booking confirmed: Night Express\r\nBcc: victim@example.com"
		require.NoError(t, n.Send(context.Background(), "alice@example.com", subject, bookingFields))
		assert.Contains(t, gotMsg, "Subject: Booking confirmed: Night Express  Bcc: victim@example.com\r\n")
		assert.NotContains(t, gotMsg, "\r\nBcc:")
	})

	t.Run("Empty Recipient", func(t *testing.T) {
		n, err := NewSMTPNotifier(SMTPConfig{Host: "smtp.example.com", FromEmail: "no-reply@example.com"})
		require.NoError(t, err)
		assert.Error(t, n.Send(context.Background(), " ", "Booking confirmed", bookingFields))
	})
}

type fakePublisher struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
	closed   bool
}

func (p *fakePublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	p.exchange, p.key, p.msg = exchange, key, msg
	return p.err
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

func TestAMQPNotifier(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		pub := &fakePublisher{}
		n := &AMQPNotifier{channel: pub, exchange: "bookings"}

		require.NoError(t, n.Send(context.Background(), "alice@example.com", "Booking confirmed", bookingFields))
		assert.Equal(t, "bookings", pub.exchange)
		assert.Equal(t, RoutingKey, pub.key)
		assert.Equal(t, "application/json", pub.msg.ContentType)
		assert.Equal(t, amqp.Persistent, pub.msg.DeliveryMode)

		var msg Message
		require.NoError(t, json.Unmarshal(pub.msg.Body, &msg))
		assert.Equal(t, "alice@example.com", msg.To)
		assert.Equal(t, "b1", msg.Fields["booking_id"])

		require.NoError(t, n.Close())
		assert.True(t, pub.closed)
	})

	t.Run("Publish Error", func(t *testing.T) {
		n := &AMQPNotifier{channel: &fakePublisher{err: errors.New("channel closed")}, exchange: "bookings"}
		err := n.Send(context.Background(), "alice@example.com", "Booking confirmed", bookingFields)
		assert.ErrorContains(t, err, "publish message")
	})
}

func TestKafkaNotifier(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		producer := mocks.NewSyncProducer(t, nil)
		producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
			var msg Message
			if err := json.Unmarshal(val, &msg); err != nil {
				return err
			}
			if msg.Subject != "Booking confirmed" || !strings.Contains(msg.Fields["seats"], "1B") {
				return errors.New("unexpected payload")
			}
			return nil
		})

		n := NewKafkaNotifier(producer, "booking-notifications")
		require.NoError(t, n.Send(context.Background(), "alice@example.com", "Booking confirmed", bookingFields))
		assert.Equal(t, "kafka", n.Name())
		require.NoError(t, n.Close())
	})

	t.Run("Broker Error", func(t *testing.T) {
		producer := mocks.NewSyncProducer(t, nil)
		producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

		n := NewKafkaNotifier(producer, "booking-notifications")
		err := n.Send(context.Background(), "alice@example.com", "Booking confirmed", bookingFields)
		assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
		require.NoError(t, n.Close())
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		producer := mocks.NewSyncProducer(t, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		n := NewKafkaNotifier(producer, "booking-notifications")
		assert.ErrorIs(t, n.Send(ctx, "alice@example.com", "Booking confirmed", bookingFields), context.Canceled)
		require.NoError(t, n.Close())
	})
}
