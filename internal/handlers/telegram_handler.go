package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"lifeos/internal/logger"
	"lifeos/internal/notify"
	"lifeos/internal/services"
)

// TelegramHandler handles linking a Telegram chat to an account.
type TelegramHandler struct {
	telegramService services.TelegramServicer
	auditService    services.AuditServicer
	bot             notify.Sender
}

// NewTelegramHandler creates a new TelegramHandler. bot may be nil, in which
// case webhook deliveries are processed without a reply.
func NewTelegramHandler(telegramService services.TelegramServicer, auditService services.AuditServicer, bot notify.Sender) *TelegramHandler {
	return &TelegramHandler{
		telegramService: telegramService,
		auditService:    auditService,
		bot:             bot,
	}
}

// GetLink retrieves the user's Telegram link status
// @Summary     Get Telegram link status
// @Description Get the current Telegram link for the authenticated user
// @Tags        telegram
// @Produce     json
// @Success     200 {object} models.TelegramLink "Link information"
// @Failure     404 {object} ErrorResponse "Not linked"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /telegram/link [get]
// @Security    BearerAuth
func (h *TelegramHandler) GetLink(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	link, err := h.telegramService.GetLinkByUserID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"link": link})
}

// GenerateCode generates a new link code for the user
// @Summary     Generate link code
// @Description Generate a 6-character code to send to the bot as "/start CODE"
// @Tags        telegram
// @Produce     json
// @Success     200 {object} object "Link code and expiry"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /telegram/generate-code [post]
// @Security    BearerAuth
func (h *TelegramHandler) GenerateCode(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	link, err := h.telegramService.GenerateLinkCode(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "GENERATE_TELEGRAM_CODE", "telegram_link", link.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{
		"link_code":  link.LinkCode,
		"expires_at": link.LinkCodeExpiresAt,
	})
}

// Unlink unlinks the user's Telegram account
// @Summary     Unlink Telegram account
// @Description Stop push notifications by removing the Telegram link
// @Tags        telegram
// @Produce     json
// @Success     200 {object} MessageResponse "Success message"
// @Failure     404 {object} ErrorResponse "Not linked"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /telegram/unlink [delete]
// @Security    BearerAuth
func (h *TelegramHandler) Unlink(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.telegramService.UnlinkAccount(userID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UNLINK_TELEGRAM", "telegram_link", "", c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Telegram account unlinked successfully"})
}

// Webhook receives bot updates from Telegram. Only "/start CODE" is acted on.
// Telegram retries anything but a 2xx, so processing errors are logged and
// acknowledged.
// @Summary     Telegram webhook
// @Description Receives bot updates. "/start CODE" completes account linking.
// @Tags        telegram
// @Accept      json
// @Produce     json
// @Success     200 {object} object "Acknowledged"
// @Failure     401 {object} ErrorResponse "Bad secret token"
// @Router      /telegram/webhook [post]
// @Security    TelegramSecret
func (h *TelegramHandler) Webhook(c *gin.Context) {
	log := logger.Named("telegram")

	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		log.Warnw("Unparseable Telegram update", "error", err)
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() || msg.Command() != "start" {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	code := strings.ToLower(strings.TrimSpace(msg.CommandArguments()))
	if code == "" {
		h.reply(msg.Chat.ID, "Send /start followed by the code shown in the app to link your account.")
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	username := ""
	if msg.From != nil {
		username = msg.From.UserName
	}

	link, err := h.telegramService.CompleteLink(code, msg.Chat.ID, username)
	if err != nil {
		log.Infow("Telegram link attempt rejected", "chat_id", msg.Chat.ID, "error", err)
		h.reply(msg.Chat.ID, "That code is invalid or has expired. Generate a new one in the app.")
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	h.auditService.Log(link.UserID, "LINK_TELEGRAM", "telegram_link", link.ID, c.ClientIP(),
		map[string]any{"chat_id": msg.Chat.ID})
	h.reply(msg.Chat.ID, "Linked. Renewal reminders will arrive here.")

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *TelegramHandler) reply(chatID int64, text string) {
	if h.bot == nil {
		return
	}
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		logger.Named("telegram").Warnw("Failed to reply to Telegram chat", "chat_id", chatID, "error", err)
	}
}
