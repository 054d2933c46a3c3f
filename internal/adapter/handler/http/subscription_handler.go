package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jetdesk/billing/internal/domain/entity"
	domainErrors "github.com/jetdesk/billing/internal/domain/errors"
	"github.com/jetdesk/billing/internal/middleware/auth"
	"github.com/jetdesk/billing/internal/usecase"
	apperrors "github.com/jetdesk/billing/pkg/errors"
)

type SubscriptionUsecase interface {
	CancelAtPeriodEnd(ctx context.Context, in usecase.CancelInput) (*entity.Subscription, error)
	GetDetails(ctx context.Context, userID string) (*entity.SubscriptionDetails, error)
	ListPayments(ctx context.Context, userID string, limit int) ([]*entity.Payment, error)
}

type SubscriptionHandler struct {
	logger        *zap.Logger
	subscriptions SubscriptionUsecase
}

func NewSubscriptionHandler(logger *zap.Logger, subscriptions SubscriptionUsecase) *SubscriptionHandler {
	return &SubscriptionHandler{
		logger:        logger,
		subscriptions: subscriptions,
	}
}

type CancelSubscriptionRequest struct {
	SubscriptionID string `json:"subscriptionId" validate:"required"`
	CompanyID      string `json:"companyId" validate:"required"`
}

type cancelledSubscription struct {
	ID                string    `json:"id"`
	Status            string    `json:"status"`
	CancelAtPeriodEnd bool      `json:"cancel_at_period_end"`
	CurrentPeriodEnd  time.Time `json:"current_period_end"`
}

// CancelSubscription sets the subscription to cancel at the end of the current period
func (h *SubscriptionHandler) CancelSubscription(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if user == nil {
		return err
	}

	var req CancelSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "Missing required fields",
			"details": validationDetails(err),
		})
	}

	sub, err := h.subscriptions.CancelAtPeriodEnd(c.Request().Context(), usecase.CancelInput{
		UserID:         user.UserID,
		SubscriptionID: req.SubscriptionID,
		CompanyID:      req.CompanyID,
	})
	if err != nil {
		status := statusOf(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Failed to cancel subscription",
				zap.String("company_id", req.CompanyID),
				zap.String("subscription_id", req.SubscriptionID),
				zap.Error(err))
		}
		return c.JSON(status, echo.Map{
			"error":   errorMessage(err),
			"details": errorDetails(err),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Subscription will be canceled at the end of the billing period",
		"subscription": cancelledSubscription{
			ID:                sub.ID,
			Status:            sub.Status,
			CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
			CurrentPeriodEnd:  sub.CurrentPeriodEnd,
		},
	})
}

// GetSubscription returns the caller's company subscription with its next invoice
func (h *SubscriptionHandler) GetSubscription(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if user == nil {
		return err
	}

	details, err := h.subscriptions.GetDetails(c.Request().Context(), user.UserID)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrNoSubscription):
			return c.JSON(http.StatusNotFound, echo.Map{
				"error":           "No subscription found",
				"hasSubscription": false,
			})
		case isNotFound(err):
			return c.JSON(http.StatusNotFound, echo.Map{"error": errorMessage(err)})
		}
		h.logger.Error("Failed to get subscription details",
			zap.String("user_id", user.UserID),
			zap.Error(err))
		return c.JSON(statusOf(err), echo.Map{"error": errorMessage(err)})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"hasSubscription": true,
		"subscription":    details.Subscription,
		"upcomingInvoice": details.UpcomingInvoice,
		"customerEmail":   details.CustomerEmail,
	})
}

// ListPayments returns the company's payment ledger, newest first
func (h *SubscriptionHandler) ListPayments(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if user == nil {
		return err
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be a non-negative integer"})
		}
	}

	payments, err := h.subscriptions.ListPayments(c.Request().Context(), user.UserID, limit)
	if err != nil {
		if apperrors.CodeOf(err) != apperrors.ErrNotFound {
			h.logger.Error("Failed to list payments",
				zap.String("user_id", user.UserID),
				zap.Error(err))
		}
		return c.JSON(statusOf(err), echo.Map{"error": errorMessage(err)})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"payments": payments,
		"count":    len(payments),
	})
}
