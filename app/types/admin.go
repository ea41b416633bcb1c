package types

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const HeaderAdminEmail = "X-Admin-Email"

type ListDonationsRequest struct {
	Status string `json:"status" validate:"omitempty,oneof=pending completed failed refunded"`
	UserID string `json:"user_id" validate:"omitempty,uuid"`
	Limit  int32  `json:"limit" validate:"gte=1,lte=500"`
	Offset int32  `json:"offset" validate:"gte=0"`
}

func NewListDonationsRequestFromContext(ctx echo.Context) (*ListDonationsRequest, error) {
	req := &ListDonationsRequest{
		Status: strings.ToLower(strings.TrimSpace(ctx.QueryParam("status"))),
		UserID: strings.TrimSpace(ctx.QueryParam("user_id")),
		Limit:  50,
	}

	if limitRaw := strings.TrimSpace(ctx.QueryParam("limit")); limitRaw != "" {
		limit, err := strconv.ParseInt(limitRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Limit = int32(limit)
	}
	if offsetRaw := strings.TrimSpace(ctx.QueryParam("offset")); offsetRaw != "" {
		offset, err := strconv.ParseInt(offsetRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Offset = int32(offset)
	}

	return req, nil
}

func (r *ListDonationsRequest) Validate() error {
	return validateStruct(r)
}

type UpdateDonationStatusRequest struct {
	ID            string  `json:"-" validate:"required,uuid"`
	Status        string  `json:"status" validate:"required,oneof=completed failed refunded"`
	PaymentID     *string `json:"payment_id,omitempty" validate:"omitempty,max=64"`
	PaymentMethod *string `json:"payment_method,omitempty" validate:"omitempty,max=64"`
}

func NewUpdateDonationStatusRequestFromContext(ctx echo.Context) (*UpdateDonationStatusRequest, error) {
	var body UpdateDonationStatusRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.ID = strings.TrimSpace(ctx.Param("id"))
	body.Status = strings.ToLower(strings.TrimSpace(body.Status))
	body.PaymentID = trimPtr(body.PaymentID)
	body.PaymentMethod = trimPtr(body.PaymentMethod)
	return &body, nil
}

func (r *UpdateDonationStatusRequest) Validate() error {
	return validateStruct(r)
}

type CreateAdminRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Role  string `json:"role" validate:"required,oneof=admin super_admin"`
}

func NewCreateAdminRequestFromContext(ctx echo.Context) (*CreateAdminRequest, error) {
	var body CreateAdminRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	body.Role = strings.ToLower(strings.TrimSpace(body.Role))
	if body.Role == "" {
		body.Role = "admin"
	}
	return &body, nil
}

func (r *CreateAdminRequest) Validate() error {
	return validateStruct(r)
}

type AdminResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	IsActive  bool   `json:"is_active"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

type AdminEnvelopeResponse struct {
	Success bool           `json:"success"`
	Admin   *AdminResponse `json:"admin"`
}

type ListAdminsResponse struct {
	Success bool             `json:"success"`
	Admins  []*AdminResponse `json:"admins"`
}

type StatusTotalResponse struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
	Amount string `json:"amount"`
}

type TypeTotalResponse struct {
	DonationType string `json:"donation_type"`
	Count        int64  `json:"count"`
	Amount       string `json:"amount"`
}

type AnalyticsResponse struct {
	Success         bool                   `json:"success"`
	TotalDonations  int64                  `json:"total_donations"`
	CompletedAmount string                 `json:"completed_amount"`
	UniqueDonors    int64                  `json:"unique_donors"`
	TotalUsers      int64                  `json:"total_users"`
	ByStatus        []*StatusTotalResponse `json:"by_status"`
	ByType          []*TypeTotalResponse   `json:"by_type"`
}

type EmailSettingResponse struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	UpdatedBy string `json:"updated_by,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type EmailSettingsResponse struct {
	Success  bool                    `json:"success"`
	Settings []*EmailSettingResponse `json:"settings"`
}

type UpdateEmailSettingsRequest struct {
	Settings map[string]string `json:"settings" validate:"required,min=1,dive,keys,oneof=receipt_emails_enabled sender_name sender_email receipt_subject admin_notification_email,endkeys,max=1000"`
}

func NewUpdateEmailSettingsRequestFromContext(ctx echo.Context) (*UpdateEmailSettingsRequest, error) {
	var body UpdateEmailSettingsRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	trimmed := make(map[string]string, len(body.Settings))
	for key, value := range body.Settings {
		trimmed[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	body.Settings = trimmed
	return &body, nil
}

func (r *UpdateEmailSettingsRequest) Validate() error {
	return validateStruct(r)
}

type TestEmailRequest struct {
	To string `json:"to" validate:"required,email"`
}

func NewTestEmailRequestFromContext(ctx echo.Context) (*TestEmailRequest, error) {
	var body TestEmailRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.To = strings.TrimSpace(body.To)
	return &body, nil
}

func (r *TestEmailRequest) Validate() error {
	return validateStruct(r)
}

type JobResultResponse struct {
	Success   bool   `json:"success"`
	Job       string `json:"job"`
	Processed int64  `json:"processed"`
}
