package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sahilchouksey/reddit-scout-api/model"
	"github.com/sahilchouksey/reddit-scout-api/utils/crypto"
	"gorm.io/gorm"
)

// APIKeyService persists per-user Reddit credentials. Secret fields are
// encrypted before every write and decrypted only transiently for use.
type APIKeyService struct {
	db     *gorm.DB
	cipher *crypto.Cipher
}

// NewAPIKeyService creates a new API key service
func NewAPIKeyService(db *gorm.DB, cipher *crypto.Cipher) *APIKeyService {
	return &APIKeyService{db: db, cipher: cipher}
}

// DecryptedKeys carries plaintext credentials in process memory only. It is
// never serialized or logged.
type DecryptedKeys struct {
	ClientID       string
	ClientSecret   string
	RedditUsername string
	RedditPassword string
	UserAgent      string
	UpdatedAt      time.Time
}

// KeyFields is the writable credential set for an upsert. Empty string means
// "clear this field".
type KeyFields struct {
	ClientID       string
	ClientSecret   string
	RedditUsername string
	RedditPassword string
	UserAgent      string
}

// GetAPIKeys loads the most recently updated key record for a user and
// decrypts its secret fields. Returns nil when nothing is stored. A secret
// that fails to decrypt comes back empty - callers treat that as unusable.
func (s *APIKeyService) GetAPIKeys(ctx context.Context, userID uint) (*DecryptedKeys, error) {
	record, err := s.latestRecord(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get API keys: %w", err)
	}

	return &DecryptedKeys{
		ClientID:       record.RedditClientID,
		ClientSecret:   s.cipher.Decrypt(record.RedditClientSecretEncrypted),
		RedditUsername: s.cipher.Decrypt(record.RedditUsernameEncrypted),
		RedditPassword: s.cipher.Decrypt(record.RedditPasswordEncrypted),
		UserAgent:      record.RedditUserAgent,
		UpdatedAt:      record.UpdatedAt,
	}, nil
}

// HasKeys reports whether a user has a credential record with a client id and
// an encrypted secret present, without decrypting anything.
func (s *APIKeyService) HasKeys(ctx context.Context, userID uint) (bool, error) {
	record, err := s.latestRecord(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return record.HasCredentials(), nil
}

// UpsertAPIKeys encrypts secret fields and writes them to the user's single
// credential record, creating it on first save. Concurrent saves are
// last-write-wins; the record has a single owner so no row lock is taken.
func (s *APIKeyService) UpsertAPIKeys(ctx context.Context, userID uint, fields KeyFields) error {
	secretEnc, err := s.cipher.Encrypt(fields.ClientSecret)
	if err != nil {
		return fmt.Errorf("failed to encrypt client secret: %w", err)
	}
	usernameEnc, err := s.cipher.Encrypt(fields.RedditUsername)
	if err != nil {
		return fmt.Errorf("failed to encrypt reddit username: %w", err)
	}
	passwordEnc, err := s.cipher.Encrypt(fields.RedditPassword)
	if err != nil {
		return fmt.Errorf("failed to encrypt reddit password: %w", err)
	}

	userAgent := fields.UserAgent
	if userAgent == "" {
		userAgent = "RedditScoutPro/2.0"
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record model.UserAPIKey
		err := tx.Where("user_id = ?", userID).
			Order("updated_at DESC").
			First(&record).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			record = model.UserAPIKey{UserID: userID}
		}

		record.RedditClientID = fields.ClientID
		record.RedditClientSecretEncrypted = secretEnc
		record.RedditUsernameEncrypted = usernameEnc
		record.RedditPasswordEncrypted = passwordEnc
		record.RedditUserAgent = userAgent
		record.UpdatedAt = time.Now()

		return tx.Save(&record).Error
	})
}

// ClearAPIKeys overwrites every credential field with the empty value
func (s *APIKeyService) ClearAPIKeys(ctx context.Context, userID uint) error {
	return s.UpsertAPIKeys(ctx, userID, KeyFields{})
}

func (s *APIKeyService) latestRecord(ctx context.Context, userID uint) (*model.UserAPIKey, error) {
	var record model.UserAPIKey
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}
