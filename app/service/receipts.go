package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
)

const (
	defaultReceiptQueueSize    = 256
	defaultReceiptQueueTimeout = 30 * time.Second
)

type receiptJob struct {
	donation  entity.Donation
	requestID string
}

// ReceiptQueue mails receipts from a single background worker so webhook
// acknowledgements and verify calls never wait on SMTP.
type ReceiptQueue struct {
	sender  receiptSender
	jobs    chan receiptJob
	timeout time.Duration
	logger  logrus.FieldLogger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewReceiptQueue(sender receiptSender, size int, timeout time.Duration) *ReceiptQueue {
	if size <= 0 {
		size = defaultReceiptQueueSize
	}
	if timeout <= 0 {
		timeout = defaultReceiptQueueTimeout
	}
	q := &ReceiptQueue{
		sender:  sender,
		jobs:    make(chan receiptJob, size),
		timeout: timeout,
		logger:  factory.NewModuleLogger("receipt-queue"),
	}
	q.wg.Add(1)
	go q.run()
	return q
}

// Enqueue hands a copy of donation to the worker. It reports false when the
// queue is full or closed; the caller then decides whether to send inline.
func (q *ReceiptQueue) Enqueue(ctx context.Context, donation *entity.Donation) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}

	select {
	case q.jobs <- receiptJob{donation: *donation, requestID: factory.RequestIDFromContext(ctx)}:
		return true
	default:
		return false
	}
}

// Close stops accepting receipts and waits until the queued ones are sent.
func (q *ReceiptQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
}

func (q *ReceiptQueue) run() {
	defer q.wg.Done()
	for job := range q.jobs {
		q.deliver(job)
	}
}

func (q *ReceiptQueue) deliver(job receiptJob) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	if job.requestID != "" {
		ctx = factory.ContextWithRequestID(ctx, job.requestID)
	}

	donation := job.donation
	if err := q.sender.SendReceipt(ctx, &donation, false); err != nil {
		factory.LoggerFromContext(q.logger, ctx).WithError(err).WithField("order_id", donation.OrderID).Warn("Sending receipt email failed")
	}
}
