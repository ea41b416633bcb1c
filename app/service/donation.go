package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
	"github.com/vibast-solutions/ms-go-donations/app/provider"
	"github.com/vibast-solutions/ms-go-donations/app/repository"
	"github.com/vibast-solutions/ms-go-donations/app/types"
	"github.com/vibast-solutions/ms-go-donations/config"
)

const defaultBatchSize = int32(100)

type userRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
}

type donationRepository interface {
	Create(ctx context.Context, donation *entity.Donation) error
	FindByID(ctx context.Context, id string) (*entity.Donation, error)
	FindByOrderID(ctx context.Context, orderID string) (*entity.Donation, error)
	UpdatePayment(ctx context.Context, donation *entity.Donation, expected entity.DonationStatus) error
	UpdateSessionID(ctx context.Context, id, sessionID string, now time.Time) error
	ListStalePending(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.Donation, error)
	FailStalePending(ctx context.Context, cutoff, now time.Time) (int64, error)
}

type donationEventRepository interface {
	Create(ctx context.Context, event *entity.DonationEvent) error
}

type webhookLogRepository interface {
	Create(ctx context.Context, log *entity.WebhookLog) error
}

type receiptSender interface {
	SendReceipt(ctx context.Context, donation *entity.Donation, force bool) error
}

type SubmitDonationResult struct {
	Donation         *entity.Donation
	PaymentSessionID string
	CheckoutURL      string
}

type DonationService struct {
	userRepo     userRepository
	donationRepo donationRepository
	eventRepo    donationEventRepository
	webhookRepo  webhookLogRepository
	providerReg  *provider.Registry
	receipts     receiptSender
	receiptQueue *ReceiptQueue
	donationsCfg config.DonationsConfig
	baseURL      string
	gateway      string
	logger       logrus.FieldLogger
}

func NewDonationService(
	userRepo userRepository,
	donationRepo donationRepository,
	eventRepo donationEventRepository,
	webhookRepo webhookLogRepository,
	providerReg *provider.Registry,
	receipts receiptSender,
	donationsCfg config.DonationsConfig,
	baseURL string,
) *DonationService {
	return &DonationService{
		userRepo:     userRepo,
		donationRepo: donationRepo,
		eventRepo:    eventRepo,
		webhookRepo:  webhookRepo,
		providerReg:  providerReg,
		receipts:     receipts,
		donationsCfg: donationsCfg,
		baseURL:      strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		gateway:      provider.CodeCashfree,
		logger:       factory.NewModuleLogger("donation-service"),
	}
}

// CreatePaymentSession opens a gateway order for a caller-chosen order id.
func (s *DonationService) CreatePaymentSession(ctx context.Context, req *types.CreatePaymentSessionRequest) (*provider.CreateOrderOutput, error) {
	gateway, err := s.gatewayClient()
	if err != nil {
		return nil, err
	}

	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = s.defaultReturnURL(req.OrderID)
	}
	notifyURL := req.NotifyURL
	if notifyURL == "" {
		notifyURL = s.defaultNotifyURL()
	}

	output, err := gateway.CreateOrder(ctx, &provider.CreateOrderInput{
		OrderID:  req.OrderID,
		Amount:   req.Amount,
		Currency: req.Currency,
		Customer: provider.Customer{
			ID:    req.CustomerID,
			Name:  req.CustomerName,
			Email: req.CustomerEmail,
			Phone: req.CustomerPhone,
		},
		ReturnURL: returnURL,
		NotifyURL: notifyURL,
		Note:      req.OrderNote,
	})
	if err != nil {
		return nil, err
	}

	donation, err := s.donationRepo.FindByOrderID(ctx, req.OrderID)
	if err != nil {
		factory.LoggerFromContext(s.logger, ctx).WithError(err).Warn("Lookup of donation for new session failed")
	} else if donation != nil {
		if err := s.donationRepo.UpdateSessionID(ctx, donation.ID, output.PaymentSessionID, time.Now().UTC()); err != nil {
			factory.LoggerFromContext(s.logger, ctx).WithError(err).Warn("Storing payment session id failed")
		}
	}

	return output, nil
}

// SubmitDonation records a pending donation for the donor and opens its gateway session.
func (s *DonationService) SubmitDonation(ctx context.Context, req *types.SubmitDonationRequest) (*SubmitDonationResult, error) {
	gateway, err := s.gatewayClient()
	if err != nil {
		return nil, err
	}

	user, err := s.findOrCreateUser(ctx, req)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	userID := user.ID
	donation := &entity.Donation{
		UserID:            &userID,
		OrderID:           newOrderID(now),
		Amount:            req.Amount.Round(2),
		Currency:          req.Currency,
		DonationType:      req.DonationType,
		IsAnonymous:       req.IsAnonymous,
		DedicationMessage: req.DedicationMessage,
		PaymentStatus:     entity.DonationStatusPending,
		PaymentGateway:    gateway.Code(),
		ReceiptNumber:     newReceiptNumber(now),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.donationRepo.Create(ctx, donation); err != nil {
		if errors.Is(err, repository.ErrDonationAlreadyExists) {
			return nil, ErrDuplicateOrder
		}
		return nil, err
	}

	s.recordEvent(ctx, donation, "donation_created", nil, nil)

	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = s.defaultReturnURL(donation.OrderID)
	}
	phone := req.Mobile
	output, err := gateway.CreateOrder(ctx, &provider.CreateOrderInput{
		OrderID:  donation.OrderID,
		Amount:   donation.Amount,
		Currency: donation.Currency,
		Customer: provider.Customer{
			ID:    user.ID,
			Name:  user.FullName,
			Email: user.Email,
			Phone: phone,
		},
		ReturnURL: returnURL,
		NotifyURL: s.defaultNotifyURL(),
		Note:      donation.DonationType,
	})
	if err != nil {
		if _, failErr := s.transition(ctx, donation, entity.DonationStatusPending, statusChange{
			status:    entity.DonationStatusFailed,
			eventType: "session_creation_failed",
		}); failErr != nil {
			factory.LoggerFromContext(s.logger, ctx).WithError(failErr).Warn("Marking donation failed after gateway error failed")
		}
		return nil, err
	}

	if err := s.donationRepo.UpdateSessionID(ctx, donation.ID, output.PaymentSessionID, time.Now().UTC()); err != nil {
		return nil, err
	}
	sessionID := output.PaymentSessionID
	donation.PaymentSessionID = &sessionID

	return &SubmitDonationResult{
		Donation:         donation,
		PaymentSessionID: sessionID,
		CheckoutURL:      s.baseURL + "/checkout/" + url.PathEscape(sessionID),
	}, nil
}

func (s *DonationService) GetDonation(ctx context.Context, id string) (*entity.Donation, error) {
	donation, err := s.donationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if donation == nil {
		return nil, ErrDonationNotFound
	}
	return donation, nil
}

// UpdateDonationStatus applies a manual status change. Allowed moves are
// pending to completed or failed, failed to completed and completed to refunded.
func (s *DonationService) UpdateDonationStatus(ctx context.Context, req *types.UpdateDonationStatusRequest) (*entity.Donation, error) {
	donation, err := s.GetDonation(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	target := entity.DonationStatus(req.Status)
	if !target.Valid() {
		return nil, ErrInvalidRequest
	}
	if donation.PaymentStatus == target {
		return donation, nil
	}
	if !canTransition(donation.PaymentStatus, target) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, donation.PaymentStatus, target)
	}

	changed, err := s.transition(ctx, donation, donation.PaymentStatus, statusChange{
		status:        target,
		paymentID:     req.PaymentID,
		paymentMethod: req.PaymentMethod,
		eventType:     "status_updated_manually",
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, fmt.Errorf("%w: donation changed concurrently", ErrInvalidStatusTransition)
	}

	if target == entity.DonationStatusCompleted {
		s.sendReceipt(ctx, donation)
	}
	return donation, nil
}

// ResendReceipt mails the receipt of a completed donation regardless of the receipts toggle.
func (s *DonationService) ResendReceipt(ctx context.Context, id string) (*entity.Donation, error) {
	donation, err := s.GetDonation(ctx, id)
	if err != nil {
		return nil, err
	}
	if donation.PaymentStatus != entity.DonationStatusCompleted {
		return nil, fmt.Errorf("%w: receipts exist only for completed donations", ErrInvalidRequest)
	}
	if s.receipts == nil {
		return nil, errors.New("receipt delivery is not configured")
	}
	if err := s.receipts.SendReceipt(ctx, donation, true); err != nil {
		return nil, err
	}
	return donation, nil
}

func (s *DonationService) findOrCreateUser(ctx context.Context, req *types.SubmitDonationRequest) (*entity.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	now := time.Now().UTC()
	mobile := req.Mobile
	user = &entity.User{
		Email:        req.Email,
		FullName:     req.FullName,
		Mobile:       &mobile,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		TaxID:        req.TaxID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if !errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, err
		}
		// Lost a race with a concurrent first donation for the same email.
		existing, findErr := s.userRepo.FindByEmail(ctx, req.Email)
		if findErr != nil {
			return nil, findErr
		}
		if existing == nil {
			return nil, err
		}
		return existing, nil
	}
	return user, nil
}

type statusChange struct {
	status        entity.DonationStatus
	paymentID     *string
	paymentMethod *string
	at            *time.Time
	eventType     string
	payload       *string
}

// transition moves donation from expected to change.status with a conditional
// update. It reports false without error when another writer got there first,
// in which case donation is refreshed from storage.
func (s *DonationService) transition(ctx context.Context, donation *entity.Donation, expected entity.DonationStatus, change statusChange) (bool, error) {
	now := time.Now().UTC()
	updated := *donation
	updated.PaymentStatus = change.status
	updated.UpdatedAt = now
	if change.paymentID != nil {
		updated.PaymentID = change.paymentID
	}
	if change.paymentMethod != nil {
		updated.PaymentMethod = change.paymentMethod
	}
	if change.status == entity.DonationStatusCompleted && updated.CompletedAt == nil {
		completedAt := now
		if change.at != nil {
			completedAt = change.at.UTC()
		}
		updated.CompletedAt = &completedAt
	}

	if err := s.donationRepo.UpdatePayment(ctx, &updated, expected); err != nil {
		switch {
		case errors.Is(err, repository.ErrStatusConflict):
			current, findErr := s.donationRepo.FindByID(ctx, donation.ID)
			if findErr != nil {
				return false, findErr
			}
			if current != nil {
				*donation = *current
			}
			return false, nil
		case errors.Is(err, repository.ErrDonationNotFound):
			return false, ErrDonationNotFound
		default:
			return false, err
		}
	}

	oldStatus := donation.PaymentStatus
	*donation = updated
	s.recordEvent(ctx, donation, change.eventType, &oldStatus, change.payload)
	return true, nil
}

func (s *DonationService) recordEvent(ctx context.Context, donation *entity.Donation, eventType string, oldStatus *entity.DonationStatus, payload *string) {
	err := s.eventRepo.Create(ctx, &entity.DonationEvent{
		DonationID:  donation.ID,
		EventType:   eventType,
		OldStatus:   oldStatus,
		NewStatus:   donation.PaymentStatus,
		PayloadJSON: payload,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		factory.LoggerFromContext(s.logger, ctx).WithError(err).WithField("donation_id", donation.ID).Warn("Recording donation event failed")
	}
}

// WithReceiptQueue moves automatic receipts onto q. Manual resends stay synchronous.
func (s *DonationService) WithReceiptQueue(q *ReceiptQueue) *DonationService {
	s.receiptQueue = q
	return s
}

func (s *DonationService) sendReceipt(ctx context.Context, donation *entity.Donation) {
	if s.receipts == nil {
		return
	}
	if s.receiptQueue != nil {
		if s.receiptQueue.Enqueue(ctx, donation) {
			return
		}
		factory.LoggerFromContext(s.logger, ctx).WithField("order_id", donation.OrderID).Warn("Receipt queue unavailable, sending inline")
	}
	if err := s.receipts.SendReceipt(ctx, donation, false); err != nil {
		factory.LoggerFromContext(s.logger, ctx).WithError(err).WithField("order_id", donation.OrderID).Warn("Sending receipt email failed")
	}
}

func (s *DonationService) gatewayClient() (provider.Provider, error) {
	gateway, err := s.providerReg.Get(s.gateway)
	if err != nil {
		if errors.Is(err, provider.ErrProviderNotSupported) {
			return nil, ErrProviderUnsupported
		}
		return nil, err
	}
	return gateway, nil
}

func (s *DonationService) defaultReturnURL(orderID string) string {
	return s.baseURL + "/donation/status?order_id=" + url.QueryEscape(orderID)
}

func (s *DonationService) defaultNotifyURL() string {
	return s.baseURL + "/api/webhooks/" + s.gateway
}

func (s *DonationService) batchSize() int32 {
	if s.donationsCfg.JobBatchSize > 0 {
		return s.donationsCfg.JobBatchSize
	}
	return defaultBatchSize
}

func canTransition(from, to entity.DonationStatus) bool {
	switch from {
	case entity.DonationStatusPending:
		return to == entity.DonationStatusCompleted || to == entity.DonationStatusFailed
	case entity.DonationStatusCompleted:
		return to == entity.DonationStatusRefunded
	case entity.DonationStatusFailed:
		return to == entity.DonationStatusCompleted
	default:
		return false
	}
}

func newOrderID(now time.Time) string {
	return fmt.Sprintf("DON_%d_%s", now.Unix(), randomHex(4))
}

func newReceiptNumber(now time.Time) string {
	return fmt.Sprintf("RCPT-%s-%s", now.Format("20060102"), strings.ToUpper(randomHex(4)))
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return strings.ReplaceAll(uuid.NewString(), "-", "")[:n*2]
	}
	return hex.EncodeToString(buf)
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max]
}
