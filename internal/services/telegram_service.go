package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "lifeos/internal/errors"
	"lifeos/internal/models"
)

const (
	linkCodeLength = 6
	linkCodeExpiry = 15 * time.Minute
)

// telegramService links Telegram chats to users for push notifications.
type telegramService struct {
	db *gorm.DB
}

// NewTelegramService creates a new TelegramServicer.
func NewTelegramService(db *gorm.DB) TelegramServicer {
	return &telegramService{db: db}
}

// GetLinkByUserID retrieves a Telegram link by user ID
func (s *telegramService) GetLinkByUserID(userID string) (*models.TelegramLink, error) {
	var link models.TelegramLink
	if err := s.db.Where("user_id = ?", userID).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTelegramNotLinked
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &link, nil
}

// GenerateLinkCode issues a short-lived code the user sends to the bot as
// "/start <code>". An existing link keeps its chat until the code is used.
func (s *telegramService) GenerateLinkCode(userID string) (*models.TelegramLink, error) {
	code, err := generateRandomCode(linkCodeLength)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	expiresAt := time.Now().Add(linkCodeExpiry)

	var link models.TelegramLink
	err = s.db.Where("user_id = ?", userID).First(&link).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		link = models.TelegramLink{UserID: userID}
	case err != nil:
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	link.LinkCode = code
	link.LinkCodeExpiresAt = &expiresAt
	if err := s.db.Save(&link).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &link, nil
}

// CompleteLink binds the chat that sent a valid code to the code's owner.
func (s *telegramService) CompleteLink(linkCode string, chatID int64, username string) (*models.TelegramLink, error) {
	linkCode = strings.TrimSpace(linkCode)
	if linkCode == "" {
		return nil, apperrors.ErrInvalidLinkCode
	}

	var link models.TelegramLink
	if err := s.db.Where("link_code = ?", linkCode).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidLinkCode
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if link.LinkCodeExpiresAt == nil || time.Now().After(*link.LinkCodeExpiresAt) {
		return nil, apperrors.ErrInvalidLinkCode
	}

	var taken int64
	if err := s.db.Model(&models.TelegramLink{}).
		Where("chat_id = ? AND user_id <> ? AND is_active = ?", chatID, link.UserID, true).
		Count(&taken).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if taken > 0 {
		return nil, apperrors.ErrTelegramChatTaken
	}

	now := time.Now()
	link.ChatID = chatID
	link.TelegramUsername = username
	link.LinkCode = ""
	link.LinkCodeExpiresAt = nil
	link.IsActive = true
	link.LinkedAt = &now
	if err := s.db.Save(&link).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &link, nil
}

// UnlinkAccount removes the user's Telegram link.
func (s *telegramService) UnlinkAccount(userID string) error {
	result := s.db.Unscoped().Where("user_id = ?", userID).Delete(&models.TelegramLink{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrTelegramNotLinked
	}
	return nil
}

// ChatIDForUser returns the chat push notifications go to.
func (s *telegramService) ChatIDForUser(userID string) (int64, error) {
	var link models.TelegramLink
	if err := s.db.Where("user_id = ? AND is_active = ?", userID, true).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperrors.ErrTelegramNotLinked
		}
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return link.ChatID, nil
}

// generateRandomCode generates a random hex code of the given length
func generateRandomCode(length int) (string, error) {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes)[:length], nil
}
