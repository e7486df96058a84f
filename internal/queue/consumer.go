package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Mailer delivers an OTP e-mail.
type Mailer interface {
	SendOTP(ctx context.Context, to string, otp int) error
}

// errPermanent marks a message that will never succeed; it is dropped
// instead of requeued.
var errPermanent = errors.New("permanent failure")

// StartOTPConsumer consumes otp.requested and hands every event to mailer.
// It reconnects with exponential backoff (1s up to 30s) and returns only
// when ctx is cancelled.
func StartOTPConsumer(ctx context.Context, url string, mailer Mailer, log *zap.Logger) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("otp-consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, mailer, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("otp-consumer: consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, mailer Mailer, log *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		log.Warn("otp-consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(otpQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(otpQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			err := handleMessage(ctx, d.Body, mailer)
			switch {
			case err == nil:
				_ = d.Ack(false)
			case errors.Is(err, errPermanent):
				log.Error("otp-consumer: dropping message", zap.Error(err))
				_ = d.Nack(false, false)
			default:
				// mail server trouble; let another attempt pick it up
				log.Warn("otp-consumer: delivery failed, requeueing", zap.Error(err))
				_ = d.Nack(false, !d.Redelivered)
			}
		}
	}
}

func handleMessage(ctx context.Context, body []byte, mailer Mailer) error {
	var ev OTPRequestedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: unmarshal: %v", errPermanent, err)
	}
	if ev.Email == "" || ev.OTP == 0 {
		return fmt.Errorf("%w: incomplete event", errPermanent)
	}
	if err := mailer.SendOTP(ctx, ev.Email, ev.OTP); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}
	return nil
}
