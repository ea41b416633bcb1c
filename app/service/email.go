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
	"github.com/vibast-solutions/ms-go-donations/app/mailer"
)

var emailSettingKeys = []string{
	entity.EmailSettingReceiptsEnabled,
	entity.EmailSettingSenderName,
	entity.EmailSettingSenderEmail,
	entity.EmailSettingReceiptSubject,
	entity.EmailSettingAdminNotification,
}

type emailSettingRepository interface {
	List(ctx context.Context) ([]*entity.EmailSetting, error)
	Get(ctx context.Context, key string) (*entity.EmailSetting, error)
	Upsert(ctx context.Context, key, value string, updatedBy *string, now time.Time) error
}

type userFinder interface {
	FindByID(ctx context.Context, id string) (*entity.User, error)
}

type EmailDefaults struct {
	SenderName  string
	SenderEmail string
	TrustName   string
}

type EmailService struct {
	settingsRepo emailSettingRepository
	userRepo     userFinder
	mailer       mailer.Mailer
	defaults     EmailDefaults
	logger       logrus.FieldLogger
}

func NewEmailService(settingsRepo emailSettingRepository, userRepo userFinder, m mailer.Mailer, defaults EmailDefaults) *EmailService {
	if strings.TrimSpace(defaults.TrustName) == "" {
		defaults.TrustName = defaults.SenderName
	}
	return &EmailService{
		settingsRepo: settingsRepo,
		userRepo:     userRepo,
		mailer:       m,
		defaults:     defaults,
		logger:       factory.NewModuleLogger("email-service"),
	}
}

// ListSettings returns every known key, falling back to configured defaults for unset ones.
func (s *EmailService) ListSettings(ctx context.Context) ([]*entity.EmailSetting, error) {
	stored, err := s.settingsRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]*entity.EmailSetting, len(stored))
	for _, item := range stored {
		byKey[item.Key] = item
	}

	result := make([]*entity.EmailSetting, 0, len(emailSettingKeys))
	for _, key := range emailSettingKeys {
		if item, ok := byKey[key]; ok {
			result = append(result, item)
			continue
		}
		result = append(result, &entity.EmailSetting{Key: key, Value: s.defaultValue(key)})
	}
	return result, nil
}

func (s *EmailService) UpdateSettings(ctx context.Context, settings map[string]string, updatedBy string) ([]*entity.EmailSetting, error) {
	if len(settings) == 0 {
		return nil, ErrInvalidRequest
	}
	actor := normalizeEmail(updatedBy)
	var actorPtr *string
	if actor != "" {
		actorPtr = &actor
	}

	now := time.Now().UTC()
	for _, key := range emailSettingKeys {
		value, ok := settings[key]
		if !ok {
			continue
		}
		if key == entity.EmailSettingReceiptsEnabled {
			value = strings.ToLower(value)
			if value != "true" && value != "false" {
				return nil, fmt.Errorf("%w: %s must be true or false", ErrInvalidRequest, key)
			}
		}
		if err := s.settingsRepo.Upsert(ctx, key, value, actorPtr, now); err != nil {
			return nil, err
		}
	}

	return s.ListSettings(ctx)
}

// SendReceipt mails the donor receipt. Unless force is set it is skipped
// while receipt emails are disabled.
func (s *EmailService) SendReceipt(ctx context.Context, donation *entity.Donation, force bool) error {
	if !force {
		enabled, err := s.setting(ctx, entity.EmailSettingReceiptsEnabled)
		if err != nil {
			return err
		}
		if enabled != "true" {
			return nil
		}
	}
	if donation.UserID == nil {
		return errors.New("donation has no donor to send the receipt to")
	}

	user, err := s.userRepo.FindByID(ctx, *donation.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("donor not found")
	}

	completedAt := donation.UpdatedAt
	if donation.CompletedAt != nil {
		completedAt = *donation.CompletedAt
	}
	body, err := mailer.RenderReceipt(mailer.ReceiptData{
		DonorName:         user.FullName,
		ReceiptNumber:     donation.ReceiptNumber,
		OrderID:           donation.OrderID,
		Amount:            donation.Amount,
		Currency:          donation.Currency,
		DonationType:      donation.DonationType,
		PaymentID:         derefString(donation.PaymentID),
		PaymentMethod:     derefString(donation.PaymentMethod),
		DedicationMessage: derefString(donation.DedicationMessage),
		CompletedAt:       completedAt,
		TrustName:         s.defaults.TrustName,
	})
	if err != nil {
		return err
	}

	subject, err := s.setting(ctx, entity.EmailSettingReceiptSubject)
	if err != nil {
		return err
	}
	msg, err := s.newMessage(ctx, user.Email, subject+" "+donation.ReceiptNumber, body)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return err
	}

	s.notifyAdmin(ctx, donation, body)
	return nil
}

func (s *EmailService) SendTestEmail(ctx context.Context, to string) error {
	body, err := mailer.RenderTestEmail(s.defaults.TrustName)
	if err != nil {
		return err
	}
	msg, err := s.newMessage(ctx, to, "Test email from "+s.defaults.TrustName, body)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, msg)
}

func (s *EmailService) notifyAdmin(ctx context.Context, donation *entity.Donation, body string) {
	to, err := s.setting(ctx, entity.EmailSettingAdminNotification)
	if err != nil || strings.TrimSpace(to) == "" {
		return
	}
	msg, err := s.newMessage(ctx, to, "New donation "+donation.ReceiptNumber, body)
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		factory.LoggerFromContext(s.logger, ctx).WithError(err).Warn("Admin donation notification failed")
	}
}

func (s *EmailService) newMessage(ctx context.Context, to, subject, body string) (*mailer.Message, error) {
	fromName, err := s.setting(ctx, entity.EmailSettingSenderName)
	if err != nil {
		return nil, err
	}
	fromEmail, err := s.setting(ctx, entity.EmailSettingSenderEmail)
	if err != nil {
		return nil, err
	}
	return &mailer.Message{
		FromName:  fromName,
		FromEmail: fromEmail,
		To:        strings.TrimSpace(to),
		Subject:   strings.TrimSpace(subject),
		HTMLBody:  body,
	}, nil
}

func (s *EmailService) setting(ctx context.Context, key string) (string, error) {
	item, err := s.settingsRepo.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if item == nil {
		return s.defaultValue(key), nil
	}
	return item.Value, nil
}

func (s *EmailService) defaultValue(key string) string {
	switch key {
	case entity.EmailSettingReceiptsEnabled:
		return "true"
	case entity.EmailSettingSenderName:
		return s.defaults.SenderName
	case entity.EmailSettingSenderEmail:
		return s.defaults.SenderEmail
	case entity.EmailSettingReceiptSubject:
		return "Your donation receipt"
	default:
		return ""
	}
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
