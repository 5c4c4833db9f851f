package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kadik23/law-firm-web-app-sub002/internal/http/middleware"
	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/payments"
	"github.com/kadik23/law-firm-web-app-sub002/internal/shared/apperr"
)

type WebhookHandler struct {
	Logger     *slog.Logger
	Provider   payments.Provider
	WebhookSvc *payments.WebhookService
}

func NewWebhookHandler(logger *slog.Logger, p payments.Provider, svc *payments.WebhookService) *WebhookHandler {
	return &WebhookHandler{Logger: logger, Provider: p, WebhookSvc: svc}
}

// POST /webhooks/:provider
// Body is raw JSON; the signature header is verified by the provider
// adapter before anything touches the ledger.
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	ev, err := h.Provider.VerifyAndParseWebhook(c.Request.Header, body)
	if err != nil {
		// reject, never silently ignore: a spoofed settlement must not
		// look like a delivery problem on the processor side
		h.Logger.Warn("webhook rejected", "provider", h.Provider.Name(), "err", err)
		middleware.Fail(c, apperr.SecurityErr("Invalid signature or payload.", err))
		return
	}

	if err := h.WebhookSvc.Handle(c.Request.Context(), h.Provider.Name(), ev, body); err != nil {
		// the ledger was not updated; 500 so the processor retries
		h.Logger.Error("webhook apply failed", "event_id", ev.EventID, "type", ev.Type, "err", err)
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
