package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"online-shopping/internal/platform/rabbitmq"
	"online-shopping/internal/repository"
)

// errMalformedEvent marks deliveries that can never be stored and must not be requeued.
var errMalformedEvent = errors.New("malformed sold out event")

const requeueDelay = time.Second

// SoldOutEventWorker drains the sold-out queue into the sold_out_events table.
type SoldOutEventWorker struct {
	conn      *amqp.Connection
	repo      *repository.SoldOutEventRepository
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSoldOutEventWorker(conn *amqp.Connection, repo *repository.SoldOutEventRepository, queueName string) *SoldOutEventWorker {
	return &SoldOutEventWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
	}
}

func (w *SoldOutEventWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := ch.Qos(16, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.handle(workerCtx, d.Body); err != nil {
					requeue := shouldRequeue(err)
					log.Printf("sold out worker: %v (requeue=%t)", err, requeue)
					if requeue {
						// Back off so a database outage does not spin on redelivery.
						select {
						case <-workerCtx.Done():
						case <-time.After(requeueDelay):
						}
					}
					_ = d.Nack(false, requeue)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *SoldOutEventWorker) handle(ctx context.Context, body []byte) error {
	event, err := rabbitmq.DecodeSoldOutEvent(body)
	if err != nil {
		return fmt.Errorf("%w: %v", errMalformedEvent, err)
	}
	if event.MarkedAt.IsZero() {
		event.MarkedAt = time.Now()
	}
	event.ID = 0
	return w.repo.Create(ctx, &event)
}

func shouldRequeue(err error) bool {
	return !errors.Is(err, errMalformedEvent)
}

func (w *SoldOutEventWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
