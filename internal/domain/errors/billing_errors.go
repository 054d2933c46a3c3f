package errors

import "errors"

var (
	// ErrProfileNotFound indicates the authenticated user has no profile row
	ErrProfileNotFound = errors.New("profile not found")

	// ErrCompanyNotFound indicates the company row does not exist
	ErrCompanyNotFound = errors.New("company not found")

	// ErrNoSubscription indicates the company never completed a checkout
	ErrNoSubscription = errors.New("no subscription found")

	// ErrInvalidSignature indicates the webhook payload failed signature verification
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrNotCompanyAdmin indicates the caller is not an admin of the target company
	ErrNotCompanyAdmin = errors.New("caller is not an admin of this company")

	// ErrSubscriptionMismatch indicates the subscription does not belong to the company
	ErrSubscriptionMismatch = errors.New("subscription does not belong to this company")
)
