package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
	"github.com/vibast-solutions/ms-go-donations/app/provider"
)

const defaultPendingTimeout = time.Hour

// GetOrderStatus asks the gateway for the order and its latest payment. Nothing is written.
func (s *DonationService) GetOrderStatus(ctx context.Context, orderID string) (*provider.OrderStatus, error) {
	gateway, err := s.gatewayClient()
	if err != nil {
		return nil, err
	}
	return gateway.GetOrderStatus(ctx, orderID)
}

// VerifyPayment reconciles a single donation against the gateway.
func (s *DonationService) VerifyPayment(ctx context.Context, orderID string) (*entity.Donation, error) {
	donation, err := s.donationRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if donation == nil {
		return nil, ErrDonationNotFound
	}
	if _, err := s.reconcile(ctx, donation, "payment_verified"); err != nil {
		return nil, err
	}
	return donation, nil
}

// RunReconcileBatch back-fills pending donations whose webhook never arrived.
func (s *DonationService) RunReconcileBatch(ctx context.Context) (int64, error) {
	staleAfter := s.donationsCfg.ReconcileStaleAfter
	if staleAfter <= 0 {
		staleAfter = 15 * time.Minute
	}
	before := time.Now().UTC().Add(-staleAfter)

	items, err := s.donationRepo.ListStalePending(ctx, before, s.batchSize())
	if err != nil {
		return 0, err
	}

	var changed int64
	var firstErr error
	for _, donation := range items {
		if donation == nil {
			continue
		}
		ok, err := s.reconcile(ctx, donation, "payment_reconciled")
		if err != nil {
			if errors.Is(err, provider.ErrOrderNotFound) {
				continue
			}
			firstErr = keepFirstErr(firstErr, err)
			continue
		}
		if ok {
			changed++
		}
	}

	factory.LoggerFromContext(s.logger, ctx).WithFields(logrus.Fields{
		"checked": len(items),
		"changed": changed,
	}).Info("Reconcile batch finished")
	return changed, firstErr
}

// RunCleanupSweep fails every pending donation untouched for longer than the
// pending timeout. Running it repeatedly is harmless.
func (s *DonationService) RunCleanupSweep(ctx context.Context) (int64, error) {
	timeout := s.donationsCfg.PendingTimeout
	if timeout <= 0 {
		timeout = defaultPendingTimeout
	}
	now := time.Now().UTC()

	changed, err := s.donationRepo.FailStalePending(ctx, now.Add(-timeout), now)
	if err != nil {
		return 0, err
	}

	factory.LoggerFromContext(s.logger, ctx).WithField("failed", changed).Info("Cleanup sweep finished")
	return changed, nil
}

func (s *DonationService) reconcile(ctx context.Context, donation *entity.Donation, eventType string) (bool, error) {
	status, err := s.GetOrderStatus(ctx, donation.OrderID)
	if err != nil {
		return false, err
	}

	target := statusFromGateway(status)
	if target == "" {
		return false, nil
	}

	changed, err := s.applyGatewayOutcome(ctx, donation, statusChange{
		status:        target,
		paymentID:     status.PaymentID,
		paymentMethod: status.PaymentMethod,
		at:            status.PaymentTime,
		eventType:     eventType,
	})
	if err != nil {
		return false, err
	}
	if changed && target == entity.DonationStatusCompleted {
		s.sendReceipt(ctx, donation)
	}
	return changed, nil
}

// statusFromGateway returns "" while the gateway outcome is still open.
func statusFromGateway(status *provider.OrderStatus) entity.DonationStatus {
	orderStatus := strings.ToUpper(strings.TrimSpace(status.OrderStatus))
	paymentStatus := strings.ToUpper(strings.TrimSpace(status.PaymentStatus))

	switch {
	case orderStatus == "PAID", paymentStatus == "SUCCESS":
		return entity.DonationStatusCompleted
	case paymentStatus == "FAILED", paymentStatus == "CANCELLED",
		orderStatus == "EXPIRED", orderStatus == "TERMINATED":
		return entity.DonationStatusFailed
	default:
		return ""
	}
}

func keepFirstErr(current error, candidate error) error {
	if current != nil {
		return current
	}
	return candidate
}
