package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"skillgap-backend/internal/shared/apperr"
)

const minAPIKeyLength = 10

var rolesRule = fmt.Sprintf("required,min=1,max=%d,dive,required,max=%d", MaxPreferredRoles, MaxRoleLength)

type Service struct {
	Repo     Repo
	Vault    *KeyVault
	validate *validator.Validate
}

func NewService(repo Repo, vault *KeyVault) *Service {
	return &Service{Repo: repo, Vault: vault, validate: validator.New()}
}

// SetPreferredRoles replaces the user's roles with 1 to 3 trimmed names, kept
// in submission order. Invalid input leaves stored roles untouched.
func (s *Service) SetPreferredRoles(ctx context.Context, userID string, roles []string) (RolesResult, error) {
	if len(roles) > MaxPreferredRoles {
		return RolesResult{}, apperr.Wrap(apperr.KindValidation, "Maximum 3 roles allowed", ErrTooManyRoles)
	}
	cleaned := make([]string, 0, len(roles))
	for _, role := range roles {
		cleaned = append(cleaned, strings.TrimSpace(role))
	}
	if err := s.validate.Var(cleaned, rolesRule); err != nil {
		return RolesResult{}, apperr.Wrap(apperr.KindValidation, fmt.Sprintf("Roles must be 1 to %d non-empty names of at most %d characters", MaxPreferredRoles, MaxRoleLength), errors.Join(ErrInvalidRole, err))
	}
	if err := s.Repo.ReplaceRoles(ctx, userID, cleaned); err != nil {
		return RolesResult{}, apperr.Wrap(apperr.KindPersistence, "Failed to save preferred roles", err)
	}
	return RolesResult{Inserted: cleaned, Count: len(cleaned)}, nil
}

// GetPreferredRoles returns the stored roles by priority, or an empty slice.
func (s *Service) GetPreferredRoles(ctx context.Context, userID string) ([]string, error) {
	roles, err := s.Repo.ListRoles(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "Failed to load preferred roles", err)
	}
	if roles == nil {
		roles = []string{}
	}
	return roles, nil
}

// SetAPIKey stores a verifiable hash, an encrypted copy and the display
// prefix. Only the prefix is returned.
func (s *Service) SetAPIKey(ctx context.Context, userID, apiKey string) (APIKeyResult, error) {
	apiKey = strings.TrimSpace(apiKey)
	if len(apiKey) < minAPIKeyLength {
		return APIKeyResult{}, apperr.Wrap(apperr.KindValidation, "Invalid API key format", ErrInvalidKey)
	}
	if s.Vault == nil {
		return APIKeyResult{}, apperr.New(apperr.KindInternal, "API key storage is not configured")
	}
	hash, err := s.Vault.Hash(apiKey)
	if err != nil {
		return APIKeyResult{}, apperr.Wrap(apperr.KindInternal, "Failed to secure API key", err)
	}
	encrypted, err := s.Vault.Encrypt(apiKey)
	if err != nil {
		return APIKeyResult{}, apperr.Wrap(apperr.KindInternal, "Failed to secure API key", err)
	}
	prefix := KeyPrefix(apiKey)
	created, err := s.Repo.UpsertAPIKey(ctx, APIKeyRecord{
		UserID:    userID,
		Provider:  ProviderGoogleAIStudio,
		Hash:      hash,
		Encrypted: encrypted,
		Prefix:    prefix,
		IsActive:  true,
	})
	if err != nil {
		return APIKeyResult{}, apperr.Wrap(apperr.KindPersistence, "Failed to save API key", err)
	}
	status := "updated"
	if created {
		status = "created"
	}
	return APIKeyResult{Status: status, Prefix: prefix}, nil
}

// APIKeyPrefix returns the stored display prefix, if any.
func (s *Service) APIKeyPrefix(ctx context.Context, userID string) (string, bool, error) {
	rec, err := s.Repo.GetActiveAPIKey(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperr.Wrap(apperr.KindPersistence, "Failed to load API key", err)
	}
	return rec.Prefix, true, nil
}

// ResolveAPIKey decrypts the user's active key. ok is false when none is
// stored.
func (s *Service) ResolveAPIKey(ctx context.Context, userID string) (key string, ok bool, err error) {
	rec, err := s.Repo.GetActiveAPIKey(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load api key: %w", err)
	}
	if s.Vault == nil {
		return "", false, errors.New("api key vault not configured")
	}
	plain, err := s.Vault.Decrypt(rec.Encrypted)
	if err != nil {
		return "", false, err
	}
	return plain, true, nil
}

// GetSkills returns the user's skills ordered by confidence, highest first.
func (s *Service) GetSkills(ctx context.Context, userID string) ([]Skill, error) {
	skills, err := s.Repo.ListSkills(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "Failed to load skills", err)
	}
	return skills, nil
}
