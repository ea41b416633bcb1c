package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-donations/app/cache"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/repository"
	"github.com/vibast-solutions/ms-go-donations/app/types"
)

type serviceAdminRepo struct {
	admins  map[string]*entity.Admin
	lookups int
	findErr error
}

func newServiceAdminRepo(admins ...*entity.Admin) *serviceAdminRepo {
	repo := &serviceAdminRepo{admins: map[string]*entity.Admin{}}
	for _, item := range admins {
		repo.admins[item.Email] = item
	}
	return repo
}

func (r *serviceAdminRepo) Create(_ context.Context, admin *entity.Admin) error {
	if _, ok := r.admins[admin.Email]; ok {
		return repository.ErrAdminAlreadyExists
	}
	copyItem := *admin
	r.admins[admin.Email] = &copyItem
	return nil
}

func (r *serviceAdminRepo) FindActiveByEmail(_ context.Context, email string) (*entity.Admin, error) {
	r.lookups++
	if r.findErr != nil {
		return nil, r.findErr
	}
	item, ok := r.admins[email]
	if !ok || !item.IsActive {
		return nil, nil
	}
	copyItem := *item
	return &copyItem, nil
}

func (r *serviceAdminRepo) List(_ context.Context) ([]*entity.Admin, error) {
	items := make([]*entity.Admin, 0, len(r.admins))
	for _, item := range r.admins {
		items = append(items, item)
	}
	return items, nil
}

type serviceStatsRepo struct {
	*serviceDonationRepo
	stats *repository.DonationStats
}

func (r *serviceStatsRepo) Stats(context.Context) (*repository.DonationStats, error) {
	return r.stats, nil
}

func newAdminService(repo *serviceAdminRepo) *AdminService {
	return NewAdminService(repo, newServiceDonationRepo(), newServiceUserRepo(), cache.NewTTLCache[bool](16, time.Minute))
}

func TestIsUserAdminOnlyForActiveAdmins(t *testing.T) {
	repo := newServiceAdminRepo(
		&entity.Admin{Email: "priest@temple.org", IsActive: true, Role: entity.AdminRoleAdmin},
		&entity.Admin{Email: "former@temple.org", IsActive: false, Role: entity.AdminRoleAdmin},
	)
	svc := newAdminService(repo)

	cases := map[string]bool{
		"priest@temple.org":    true,
		" PRIEST@temple.org ":  true,
		"former@temple.org":    false,
		"stranger@example.com": false,
		"":                     false,
	}
	for email, want := range cases {
		got, err := svc.IsUserAdmin(context.Background(), email)
		if err != nil {
			t.Fatalf("is user admin failed for %q: %v", email, err)
		}
		if got != want {
			t.Fatalf("IsUserAdmin(%q) = %v, want %v", email, got, want)
		}
	}
}

func TestIsUserAdminCachesAnswers(t *testing.T) {
	repo := newServiceAdminRepo(&entity.Admin{Email: "priest@temple.org", IsActive: true, Role: entity.AdminRoleAdmin})
	svc := newAdminService(repo)

	for i := 0; i < 3; i++ {
		if ok, _ := svc.IsUserAdmin(context.Background(), "priest@temple.org"); !ok {
			t.Fatalf("expected admin")
		}
		if ok, _ := svc.IsUserAdmin(context.Background(), "stranger@example.com"); ok {
			t.Fatalf("expected non-admin")
		}
	}
	if repo.lookups != 2 {
		t.Fatalf("expected one lookup per email, got %d", repo.lookups)
	}

	svc.ResetCache()
	if _, err := svc.IsUserAdmin(context.Background(), "priest@temple.org"); err != nil {
		t.Fatalf("is user admin failed: %v", err)
	}
	if repo.lookups != 3 {
		t.Fatalf("expected lookup after cache reset, got %d", repo.lookups)
	}
}

func TestIsUserAdminDoesNotCacheErrors(t *testing.T) {
	repo := newServiceAdminRepo(&entity.Admin{Email: "priest@temple.org", IsActive: true, Role: entity.AdminRoleAdmin})
	repo.findErr = errors.New("db down")
	svc := newAdminService(repo)

	if _, err := svc.IsUserAdmin(context.Background(), "priest@temple.org"); err == nil {
		t.Fatalf("expected lookup error")
	}
	repo.findErr = nil
	ok, err := svc.IsUserAdmin(context.Background(), "priest@temple.org")
	if err != nil || !ok {
		t.Fatalf("expected admin after recovery, got %v %v", ok, err)
	}
}

func TestCreateAdminRequiresSuperAdmin(t *testing.T) {
	repo := newServiceAdminRepo(
		&entity.Admin{Email: "priest@temple.org", IsActive: true, Role: entity.AdminRoleAdmin},
		&entity.Admin{Email: "trustee@temple.org", IsActive: true, Role: entity.AdminRoleSuperAdmin},
	)
	svc := newAdminService(repo)
	req := &types.CreateAdminRequest{Email: "volunteer@temple.org", Role: entity.AdminRoleAdmin}

	if _, err := svc.CreateAdmin(context.Background(), "priest@temple.org", req); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// Prime a negative cache entry; creation must clear it.
	if ok, _ := svc.IsUserAdmin(context.Background(), "volunteer@temple.org"); ok {
		t.Fatalf("volunteer is not an admin yet")
	}

	admin, err := svc.CreateAdmin(context.Background(), "trustee@temple.org", req)
	if err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	if !admin.IsActive || admin.Role != entity.AdminRoleAdmin {
		t.Fatalf("unexpected admin: %+v", admin)
	}
	if ok, _ := svc.IsUserAdmin(context.Background(), "volunteer@temple.org"); !ok {
		t.Fatalf("expected new admin to be recognised")
	}

	if _, err := svc.CreateAdmin(context.Background(), "trustee@temple.org", req); !errors.Is(err, ErrAdminAlreadyExists) {
		t.Fatalf("expected ErrAdminAlreadyExists, got %v", err)
	}
}

func TestListDonationsAppliesFilter(t *testing.T) {
	donations := newServiceDonationRepo()
	now := time.Now().UTC()
	donations.seed(pendingDonation("DON_1_a", now))
	done := pendingDonation("DON_1_b", now.Add(time.Minute))
	done.PaymentStatus = entity.DonationStatusCompleted
	donations.seed(done)

	svc := NewAdminService(newServiceAdminRepo(), donations, newServiceUserRepo(), cache.NewTTLCache[bool](16, time.Minute))
	items, err := svc.ListDonations(context.Background(), &types.ListDonationsRequest{Status: "completed", Limit: 50})
	if err != nil {
		t.Fatalf("list donations failed: %v", err)
	}
	if len(items) != 1 || items[0].OrderID != "DON_1_b" {
		t.Fatalf("unexpected donations: %+v", items)
	}
}

func TestAnalyticsCombinesStatsAndUsers(t *testing.T) {
	users := newServiceUserRepo()
	_ = users.Create(context.Background(), &entity.User{Email: "a@example.com"})
	_ = users.Create(context.Background(), &entity.User{Email: "b@example.com"})
	stats := &repository.DonationStats{
		ByStatus:     []repository.StatusTotal{{Status: entity.DonationStatusCompleted, Count: 3, Amount: decimal.NewFromInt(1500)}},
		UniqueDonors: 2,
	}

	svc := NewAdminService(newServiceAdminRepo(), &serviceStatsRepo{serviceDonationRepo: newServiceDonationRepo(), stats: stats}, users, cache.NewTTLCache[bool](16, time.Minute))
	analytics, err := svc.Analytics(context.Background())
	if err != nil {
		t.Fatalf("analytics failed: %v", err)
	}
	if analytics.TotalUsers != 2 || analytics.Stats.UniqueDonors != 2 {
		t.Fatalf("unexpected analytics: %+v", analytics)
	}
}
