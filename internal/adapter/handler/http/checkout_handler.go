package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jetdesk/billing/internal/domain/entity"
	"github.com/jetdesk/billing/internal/middleware/auth"
	"github.com/jetdesk/billing/internal/usecase"
)

type CheckoutUsecase interface {
	CreateCheckoutSession(ctx context.Context, in usecase.CheckoutInput) (*entity.CheckoutSession, error)
}

type CheckoutHandler struct {
	logger   *zap.Logger
	checkout CheckoutUsecase
}

func NewCheckoutHandler(logger *zap.Logger, checkout CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{
		logger:   logger,
		checkout: checkout,
	}
}

// CreateCheckoutSession starts a hosted subscription checkout for the caller's company.
// Any failure other than a missing profile or company is reported as 400.
func (h *CheckoutHandler) CreateCheckoutSession(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if user == nil {
		return err
	}

	sess, err := h.checkout.CreateCheckoutSession(c.Request().Context(), usecase.CheckoutInput{
		UserID: user.UserID,
		Email:  user.Email,
		Origin: c.Request().Header.Get(echo.HeaderOrigin),
	})
	if err != nil {
		if isNotFound(err) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": errorMessage(err)})
		}
		h.logger.Error("Checkout session creation failed",
			zap.String("user_id", user.UserID),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, sess)
}
