package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"waggle/db"
	"waggle/models"

	"golang.org/x/crypto/argon2"
	"gorm.io/gorm"
)

type ProfileService struct{}

func NewProfileService() *ProfileService {
	return &ProfileService{}
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

func verifyPassword(stored, password string) bool {
	parts := strings.SplitN(stored, "$", 2)
	if len(parts) != 2 {
		return false
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return false
	}
	expected, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return subtle.ConstantTimeCompare(hash, expected) == 1
}

func (ps *ProfileService) Register(ctx context.Context, nickname, displayName, avatarURL, password string) (*models.Profile, error) {
	if nickname == "" || password == "" {
		return nil, &ValidationError{Reason: "nickname and password are required"}
	}
	if displayName == "" {
		displayName = nickname
	}

	var alreadyExists int64
	err := db.GetReadOnlyDB(ctx).Model(&models.Profile{}).
		Where("nickname = ?", nickname).
		Count(&alreadyExists).Error
	if err != nil {
		return nil, fmt.Errorf("error checking nickname: %w", err)
	}
	if alreadyExists > 0 {
		return nil, &ValidationError{Reason: "nickname is already taken"}
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	profile := models.Profile{
		Nickname:    nickname,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
		Password:    passwordHash,
	}
	if err := db.GetWriteDB(ctx).Create(&profile).Error; err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return &profile, nil
}

// Login verifies credentials and issues an opaque session token.
func (ps *ProfileService) Login(ctx context.Context, nickname, password string) (string, int64, error) {
	var profile models.Profile
	err := db.GetReadOnlyDB(ctx).Where("nickname = ?", nickname).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", 0, &PermissionError{Reason: "invalid credentials"}
	}
	if err != nil {
		return "", 0, fmt.Errorf("failed to load profile: %w", err)
	}

	if !verifyPassword(profile.Password, password) {
		return "", 0, &PermissionError{Reason: "invalid credentials"}
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", 0, fmt.Errorf("failed to generate token: %w", err)
	}
	token := hex.EncodeToString(raw)

	row := models.UserToken{UserID: profile.ID, Token: token}
	if err := db.GetWriteDB(ctx).Create(&row).Error; err != nil {
		return "", 0, fmt.Errorf("failed to store token: %w", err)
	}
	return token, profile.ID, nil
}

// Authenticate resolves a session token to a user id.
func (ps *ProfileService) Authenticate(ctx context.Context, token string) (int64, error) {
	var row models.UserToken
	err := db.GetReadOnlyDB(ctx).Where("token = ?", token).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, &PermissionError{Reason: "invalid token"}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up token: %w", err)
	}
	return row.UserID, nil
}

func (ps *ProfileService) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	var profile models.Profile
	err := db.GetReadOnlyDB(ctx).Where("id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "profile", ID: userID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &profile, nil
}

func (ps *ProfileService) Logout(ctx context.Context, token string) error {
	err := db.GetWriteDB(ctx).Where("token = ?", token).Delete(&models.UserToken{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
