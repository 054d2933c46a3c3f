package http

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// MaxWebhookBodyBytes caps the webhook payload read into memory.
const MaxWebhookBodyBytes = 1 << 20

const stripeSignatureHeader = "Stripe-Signature"

type WebhookUsecase interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type WebhookHandler struct {
	logger  *zap.Logger
	webhook WebhookUsecase
}

func NewWebhookHandler(logger *zap.Logger, webhook WebhookUsecase) *WebhookHandler {
	return &WebhookHandler{
		logger:  logger,
		webhook: webhook,
	}
}

// HandleStripeWebhook must see the raw body; nothing may parse it before signature verification.
func (h *WebhookHandler) HandleStripeWebhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, MaxWebhookBodyBytes+1))
	if err != nil {
		h.logger.Error("Error reading webhook body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error reading request body"})
	}
	if len(body) > MaxWebhookBodyBytes {
		h.logger.Warn("Webhook body too large", zap.Int("limit", MaxWebhookBodyBytes))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Request body too large"})
	}

	sig := c.Request().Header.Get(stripeSignatureHeader)
	if err := h.webhook.HandleWebhook(c.Request().Context(), body, sig); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
