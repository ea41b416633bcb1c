package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
	"github.com/vibast-solutions/ms-go-donations/app/repository"
	"github.com/vibast-solutions/ms-go-donations/app/types"
)

type adminRepository interface {
	Create(ctx context.Context, admin *entity.Admin) error
	FindActiveByEmail(ctx context.Context, email string) (*entity.Admin, error)
	List(ctx context.Context) ([]*entity.Admin, error)
}

type donationReportRepository interface {
	List(ctx context.Context, filter repository.DonationFilter) ([]*entity.Donation, error)
	Stats(ctx context.Context) (*repository.DonationStats, error)
}

type userCounter interface {
	Count(ctx context.Context) (int64, error)
}

type adminCache interface {
	Get(key string) (bool, bool)
	Set(key string, value bool)
	Delete(key string)
	Reset()
}

type Analytics struct {
	Stats      *repository.DonationStats
	TotalUsers int64
}

type AdminService struct {
	adminRepo    adminRepository
	donationRepo donationReportRepository
	userRepo     userCounter
	cache        adminCache
	logger       logrus.FieldLogger
}

func NewAdminService(adminRepo adminRepository, donationRepo donationReportRepository, userRepo userCounter, cache adminCache) *AdminService {
	return &AdminService{
		adminRepo:    adminRepo,
		donationRepo: donationRepo,
		userRepo:     userRepo,
		cache:        cache,
		logger:       factory.NewModuleLogger("admin-service"),
	}
}

// IsUserAdmin reports whether email belongs to an active admin. Both answers
// are cached; lookup errors are not.
func (s *AdminService) IsUserAdmin(ctx context.Context, email string) (bool, error) {
	key := normalizeEmail(email)
	if key == "" {
		return false, nil
	}
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	admin, err := s.adminRepo.FindActiveByEmail(ctx, key)
	if err != nil {
		return false, err
	}

	isAdmin := admin != nil
	s.cache.Set(key, isAdmin)
	return isAdmin, nil
}

// ResetCache forgets every cached admin lookup.
func (s *AdminService) ResetCache() {
	s.cache.Reset()
}

func (s *AdminService) ListAdmins(ctx context.Context) ([]*entity.Admin, error) {
	return s.adminRepo.List(ctx)
}

// CreateAdmin is reserved to active super admins.
func (s *AdminService) CreateAdmin(ctx context.Context, actorEmail string, req *types.CreateAdminRequest) (*entity.Admin, error) {
	actor, err := s.adminRepo.FindActiveByEmail(ctx, normalizeEmail(actorEmail))
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.Role != entity.AdminRoleSuperAdmin {
		return nil, ErrForbidden
	}

	now := time.Now().UTC()
	admin := &entity.Admin{
		Email:     normalizeEmail(req.Email),
		IsActive:  true,
		Role:      req.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrAdminAlreadyExists) {
			return nil, ErrAdminAlreadyExists
		}
		return nil, err
	}

	s.cache.Delete(admin.Email)
	factory.LoggerFromContext(s.logger, ctx).WithFields(logrus.Fields{
		"admin":      admin.Email,
		"role":       admin.Role,
		"created_by": actor.Email,
	}).Info("Admin created")
	return admin, nil
}

func (s *AdminService) ListDonations(ctx context.Context, req *types.ListDonationsRequest) ([]*entity.Donation, error) {
	return s.donationRepo.List(ctx, repository.DonationFilter{
		Status: entity.DonationStatus(req.Status),
		UserID: req.UserID,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
}

func (s *AdminService) Analytics(ctx context.Context) (*Analytics, error) {
	stats, err := s.donationRepo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Analytics{Stats: stats, TotalUsers: users}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
