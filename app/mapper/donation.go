package mapper

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/provider"
	"github.com/vibast-solutions/ms-go-donations/app/repository"
	"github.com/vibast-solutions/ms-go-donations/app/types"
)

func DonationToResponse(item *entity.Donation) *types.DonationResponse {
	if item == nil {
		return nil
	}

	result := &types.DonationResponse{
		ID:                item.ID,
		UserID:            derefString(item.UserID),
		OrderID:           item.OrderID,
		Amount:            item.Amount.StringFixed(2),
		Currency:          item.Currency,
		DonationType:      item.DonationType,
		IsAnonymous:       item.IsAnonymous,
		DedicationMessage: derefString(item.DedicationMessage),
		PaymentStatus:     string(item.PaymentStatus),
		PaymentID:         derefString(item.PaymentID),
		PaymentGateway:    item.PaymentGateway,
		PaymentMethod:     derefString(item.PaymentMethod),
		ReceiptNumber:     item.ReceiptNumber,
		CreatedAt:         formatTime(item.CreatedAt),
		UpdatedAt:         formatTime(item.UpdatedAt),
		CompletedAt:       formatTimePtr(item.CompletedAt),
	}
	if item.User != nil {
		result.User = &types.UserResponse{
			ID:       item.User.ID,
			Email:    item.User.Email,
			FullName: item.User.FullName,
			Mobile:   derefString(item.User.Mobile),
			City:     derefString(item.User.City),
			Country:  derefString(item.User.Country),
		}
	}
	return result
}

func DonationsToResponse(items []*entity.Donation) []*types.DonationResponse {
	result := make([]*types.DonationResponse, 0, len(items))
	for _, item := range items {
		result = append(result, DonationToResponse(item))
	}
	return result
}

func OrderStatusToResponse(item *provider.OrderStatus) *types.OrderStatusResponse {
	if item == nil {
		return nil
	}
	return &types.OrderStatusResponse{
		Success:       true,
		OrderID:       item.OrderID,
		OrderStatus:   item.OrderStatus,
		PaymentStatus: item.PaymentStatus,
		PaymentID:     derefString(item.PaymentID),
		PaymentMethod: derefString(item.PaymentMethod),
		PaymentTime:   formatTimePtr(item.PaymentTime),
		OrderAmount:   item.OrderAmount.StringFixed(2),
		CreatedAt:     formatTimePtr(item.CreatedAt),
	}
}

func StatsToAnalytics(stats *repository.DonationStats, totalUsers int64) *types.AnalyticsResponse {
	result := &types.AnalyticsResponse{
		Success:         true,
		CompletedAmount: decimal.Zero.StringFixed(2),
		UniqueDonors:    stats.UniqueDonors,
		TotalUsers:      totalUsers,
		ByStatus:        make([]*types.StatusTotalResponse, 0, len(stats.ByStatus)),
		ByType:          make([]*types.TypeTotalResponse, 0, len(stats.ByType)),
	}

	for _, item := range stats.ByStatus {
		result.TotalDonations += item.Count
		if item.Status == entity.DonationStatusCompleted {
			result.CompletedAmount = item.Amount.StringFixed(2)
		}
		result.ByStatus = append(result.ByStatus, &types.StatusTotalResponse{
			Status: string(item.Status),
			Count:  item.Count,
			Amount: item.Amount.StringFixed(2),
		})
	}
	for _, item := range stats.ByType {
		result.ByType = append(result.ByType, &types.TypeTotalResponse{
			DonationType: item.DonationType,
			Count:        item.Count,
			Amount:       item.Amount.StringFixed(2),
		})
	}
	return result
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
