package service

import (
	"errors"

	"github.com/vibast-solutions/ms-go-donations/app/provider"
)

var (
	ErrInvalidRequest          = errors.New("invalid request")
	ErrDonationNotFound        = errors.New("donation not found")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrProviderUnsupported     = errors.New("provider is not supported")
	ErrWebhookRejected         = errors.New("webhook rejected")
	ErrForbidden               = errors.New("forbidden")
	ErrAdminAlreadyExists      = errors.New("admin already exists")

	// Gateway failures keep the provider sentinels so errors.Is works across layers.
	ErrDuplicateOrder    = provider.ErrDuplicateOrder
	ErrGatewayValidation = provider.ErrGatewayValidation
	ErrGatewayAuth       = provider.ErrGatewayAuth
	ErrGatewayFailure    = provider.ErrGatewayFailure
	ErrOrderNotFound     = provider.ErrOrderNotFound
)
