package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
	"github.com/vibast-solutions/ms-go-donations/app/provider"
	"github.com/vibast-solutions/ms-go-donations/app/types"
)

// HandleGatewayWebhook verifies and applies a gateway delivery. Any error other
// than a rejection or a missing donation means storage failed and the gateway
// should retry.
func (s *DonationService) HandleGatewayWebhook(ctx context.Context, req *types.GatewayWebhookRequest) (*entity.Donation, error) {
	gateway, err := s.gatewayClient()
	if err != nil {
		return nil, err
	}

	event, err := gateway.VerifyAndParseWebhook(ctx, req.Payload, req.Signature, req.Timestamp)
	if err != nil {
		s.persistRejectedWebhook(ctx, nil, req, "", fmt.Sprintf("webhook validation failed: %v", err))
		if errors.Is(err, provider.ErrInvalidSignature) {
			return nil, ErrWebhookRejected
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if event.OrderID == "" {
		s.persistRejectedWebhook(ctx, nil, req, event.EventType, "webhook payload has no order id")
		return nil, fmt.Errorf("%w: order id missing", ErrInvalidRequest)
	}

	logger := factory.LoggerFromContext(s.logger, ctx).WithFields(logrus.Fields{
		"order_id":   event.OrderID,
		"event_type": event.EventType,
	})

	donation, err := s.donationRepo.FindByOrderID(ctx, event.OrderID)
	if err != nil {
		return nil, err
	}
	if donation == nil {
		s.persistRejectedWebhook(ctx, nil, req, event.EventType, "donation not found for order id")
		return nil, ErrDonationNotFound
	}

	payload := string(req.Payload)
	switch event.EventType {
	case provider.EventPaymentSuccess:
		changed, err := s.applyGatewayOutcome(ctx, donation, statusChange{
			status:        entity.DonationStatusCompleted,
			paymentID:     event.PaymentID,
			paymentMethod: event.PaymentMethod,
			at:            event.PaymentTime,
			eventType:     event.EventType,
			payload:       &payload,
		})
		if err != nil {
			return nil, err
		}
		if changed {
			s.sendReceipt(ctx, donation)
		}
	case provider.EventPaymentFailed:
		if _, err := s.applyGatewayOutcome(ctx, donation, statusChange{
			status:        entity.DonationStatusFailed,
			paymentID:     event.PaymentID,
			paymentMethod: event.PaymentMethod,
			eventType:     event.EventType,
			payload:       &payload,
		}); err != nil {
			return nil, err
		}
	case provider.EventUserDropped:
		// The donor may still retry checkout, so the donation stays pending.
		s.recordEvent(ctx, donation, event.EventType, nil, &payload)
	default:
		logger.Info("Ignoring unhandled webhook type")
	}

	donationID := donation.ID
	err = s.webhookRepo.Create(ctx, &entity.WebhookLog{
		DonationID:  &donationID,
		Gateway:     gateway.Code(),
		EventType:   event.EventType,
		Signature:   req.Signature,
		PayloadJSON: payload,
		Status:      entity.WebhookLogProcessed,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	logger.WithField("payment_status", donation.PaymentStatus).Info("Webhook processed")
	return donation, nil
}

// applyGatewayOutcome moves pending donations to the gateway's outcome. A
// settled donation only changes when the gateway confirms payment for one the
// cleanup sweep failed; every other late or repeated delivery is acknowledged
// without change.
func (s *DonationService) applyGatewayOutcome(ctx context.Context, donation *entity.Donation, change statusChange) (bool, error) {
	if donation.PaymentStatus == entity.DonationStatusFailed && change.status == entity.DonationStatusCompleted {
		factory.LoggerFromContext(s.logger, ctx).WithField("order_id", donation.OrderID).Warn("Gateway confirmed payment for failed donation")
		return s.transition(ctx, donation, entity.DonationStatusFailed, change)
	}
	if donation.PaymentStatus != entity.DonationStatusPending {
		if donation.PaymentStatus != change.status {
			factory.LoggerFromContext(s.logger, ctx).WithFields(logrus.Fields{
				"order_id": donation.OrderID,
				"current":  donation.PaymentStatus,
				"incoming": change.status,
			}).Warn("Ignoring gateway outcome for settled donation")
		}
		return false, nil
	}
	return s.transition(ctx, donation, entity.DonationStatusPending, change)
}

func (s *DonationService) persistRejectedWebhook(ctx context.Context, donationID *string, req *types.GatewayWebhookRequest, eventType, reason string) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "webhook rejected"
	}
	trimmedErr := truncate(reason, 1024)
	if eventType == "" {
		eventType = "unknown"
	}

	err := s.webhookRepo.Create(ctx, &entity.WebhookLog{
		DonationID:  donationID,
		Gateway:     s.gateway,
		EventType:   eventType,
		Signature:   truncate(req.Signature, 255),
		PayloadJSON: string(req.Payload),
		Status:      entity.WebhookLogRejected,
		Error:       &trimmedErr,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		factory.LoggerFromContext(s.logger, ctx).WithError(err).Error("Persisting rejected webhook failed")
	}
	factory.LoggerFromContext(s.logger, ctx).WithField("reason", trimmedErr).Warn("Webhook rejected")
}
