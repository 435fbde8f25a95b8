package handlers

import (
	"crypto/subtle"
	"log"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gin-gonic/gin"

	"taskcal/internal/services"
)

const telegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

type IntegrationsHandler struct {
	links         services.TelegramLinkService
	webhookSecret string
}

// NewIntegrationsHandler serves the Telegram webhook. When webhookSecret is
// set, updates without the matching secret header are rejected.
func NewIntegrationsHandler(links services.TelegramLinkService, webhookSecret string) *IntegrationsHandler {
	return &IntegrationsHandler{links: links, webhookSecret: webhookSecret}
}

// Webhook always answers 200 to accepted updates so Telegram does not retry
// them; handling failures are only logged.
func (h *IntegrationsHandler) Webhook(c *gin.Context) {
	if h.webhookSecret != "" {
		got := c.GetHeader(telegramSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.webhookSecret)) != 1 {
			log.Printf("[tg][webhook][deny] bad secret header")
			c.Status(http.StatusUnauthorized)
			return
		}
	}

	var up tgbotapi.Update
	if err := c.ShouldBindJSON(&up); err != nil {
		log.Printf("[tg][webhook] bind json error: %v", err)
		c.Status(http.StatusOK)
		return
	}
	if up.Message == nil || up.Message.Chat == nil {
		log.Printf("[tg][webhook] update %d has no message", up.UpdateID)
		c.Status(http.StatusOK)
		return
	}

	if err := h.links.HandleMessage(c.Request.Context(), up.Message.Chat.ID, up.Message.Text); err != nil {
		log.Printf("[tg][webhook][err] chatID=%d: %v", up.Message.Chat.ID, err)
	}
	c.Status(http.StatusOK)
}

// @Summary   Issue a Telegram link code
// @Tags      Integrations
// @Security  BearerAuth
// @Produce   json
// @Success   200  {object}  models.TelegramLink
// @Router    /integrations/telegram/link [post]
func (h *IntegrationsHandler) RequestTelegramLink(c *gin.Context) {
	sess, ok := mustSession(c, "tg][link")
	if !ok {
		return
	}
	link, err := h.links.RequestLink(c.Request.Context(), sess)
	if err != nil {
		respondError(c, "tg][link", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":       link.Code,
		"expires_at": link.ExpiresAt,
		"hint":       "Open the bot chat and send: /link " + link.Code,
	})
}
