package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"creative_cure_backend/internal/common"
	"creative_cure_backend/internal/shared"

	"go.uber.org/zap"
)

// AvatarKeyPrefix is the blob-store folder that holds profile images.
const AvatarKeyPrefix = "profileImages/"

// MaxAvatarSize bounds avatar uploads (5 MiB).
const MaxAvatarSize = 5 << 20

var (
	validDays = map[string]bool{
		"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
		"friday": true, "saturday": true, "sunday": true,
	}
	slotPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// AvatarStore uploads a blob and returns its public download URL.
type AvatarStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// DisplayNameUpdater mirrors a name change into the auth provider.
type DisplayNameUpdater interface {
	UpdateDisplayName(ctx context.Context, uid, displayName string) error
}

// Service defines the account operations exposed to handlers.
type Service interface {
	shared.AccountService
	CreateAccount(ctx context.Context, account *shared.Account) error
	UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*shared.Account, error)
	UploadAvatar(ctx context.Context, id string, r io.Reader, size int64, contentType string) (*shared.Account, error)
}

// ServiceImplementation implements Service on top of a Repository.
type ServiceImplementation struct {
	repo    Repository
	avatars AvatarStore
	names   DisplayNameUpdater
	logger  *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates a new user service. names may be nil.
func NewService(repo Repository, avatars AvatarStore, names DisplayNameUpdater, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:    repo,
		avatars: avatars,
		names:   names,
		logger:  logger.Named("UserService"),
	}
}

// CreateAccount writes the account document for a freshly created provider user.
func (s *ServiceImplementation) CreateAccount(ctx context.Context, account *shared.Account) error {
	if account.ID == "" {
		return errors.New("account id is required")
	}
	if account.Role == "" {
		account.Role = common.RolePatient
	}
	if !common.IsKnownRole(account.Role) {
		return common.NewValidationAPIError(map[string]string{"Role": "The role field must be one of the following values: patient therapist."})
	}
	if err := s.repo.Create(ctx, account); err != nil {
		s.logger.Error("Failed to write account document", zap.String("userID", account.ID), zap.Error(err))
		if apiErr, ok := common.IsAPIError(err); ok {
			return apiErr
		}
		return common.ErrWriteFailed.WithDetails(err.Error())
	}
	s.logger.Info("Account created", zap.String("userID", account.ID), zap.String("role", account.Role))
	return nil
}

// GetAccount returns the account document for id.
func (s *ServiceImplementation) GetAccount(ctx context.Context, id string) (*shared.Account, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("read account %s: %w", id, err)
	}
	return account, nil
}

// ListAccountsByRole returns every account holding role.
func (s *ServiceImplementation) ListAccountsByRole(ctx context.Context, role string) ([]shared.Account, error) {
	accounts, err := s.repo.FindByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("list accounts with role %q: %w", role, err)
	}
	return accounts, nil
}

// UpdateProfile validates and applies a profile edit. Directory fields are
// reserved for therapists.
func (s *ServiceImplementation) UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*shared.Account, error) {
	current, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := ProfileChanges{
		Name:           trimmed(req.Name),
		Address:        trimmed(req.Address),
		Specialization: trimmed(req.Specialization),
		Description:    trimmed(req.Description),
		Availability:   req.Availability,
	}
	if changes.Empty() {
		return nil, common.ErrBadRequest.WithDetails("No profile fields were provided.")
	}

	fieldErrs := map[string]string{}
	if current.Role != common.RoleTherapist {
		if changes.Specialization != nil {
			fieldErrs["Specialization"] = "Only therapists can set a specialization."
		}
		if changes.Description != nil {
			fieldErrs["Description"] = "Only therapists can set a description."
		}
		if changes.Availability != nil {
			fieldErrs["Availability"] = "Only therapists can set availability."
		}
	} else if changes.Availability != nil {
		normalized, msg := normalizeAvailability(changes.Availability)
		if msg != "" {
			fieldErrs["Availability"] = msg
		}
		changes.Availability = normalized
	}
	if len(fieldErrs) > 0 {
		return nil, common.NewValidationAPIError(fieldErrs)
	}

	updated, err := s.repo.UpdateProfile(ctx, id, changes)
	if err != nil {
		s.logger.Error("Failed to update profile", zap.String("userID", id), zap.Error(err))
		if apiErr, ok := common.IsAPIError(err); ok {
			return nil, apiErr
		}
		return nil, common.ErrWriteFailed.WithDetails(err.Error())
	}

	if changes.Name != nil && s.names != nil {
		if err := s.names.UpdateDisplayName(ctx, id, *changes.Name); err != nil {
			s.logger.Warn("Display name not mirrored to auth provider", zap.String("userID", id), zap.Error(err))
		}
	}
	return updated, nil
}

// UploadAvatar stores the image under profileImages/<uid> and saves the download URL.
func (s *ServiceImplementation) UploadAvatar(ctx context.Context, id string, r io.Reader, size int64, contentType string) (*shared.Account, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, common.NewValidationAPIError(map[string]string{"Avatar": "The avatar must be an image."})
	}
	if size <= 0 || size > MaxAvatarSize {
		return nil, common.NewValidationAPIError(map[string]string{"Avatar": "The avatar must be between 1 byte and 5 MiB."})
	}
	if _, err := s.GetAccount(ctx, id); err != nil {
		return nil, err
	}

	url, err := s.avatars.Upload(ctx, AvatarKeyPrefix+id, r, size, contentType)
	if err != nil {
		s.logger.Error("Avatar upload failed", zap.String("userID", id), zap.Error(err))
		return nil, common.ErrWriteFailed.WithDetails(err.Error())
	}

	updated, err := s.repo.UpdateProfile(ctx, id, ProfileChanges{Image: &url})
	if err != nil {
		s.logger.Error("Failed to save avatar URL", zap.String("userID", id), zap.Error(err))
		return nil, common.ErrWriteFailed.WithDetails(err.Error())
	}
	s.logger.Info("Avatar updated", zap.String("userID", id), zap.String("url", url))
	return updated, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// normalizeAvailability lower-cases day names and checks every slot is HH:MM.
func normalizeAvailability(in map[string][]string) (map[string][]string, string) {
	out := make(map[string][]string, len(in))
	for day, slots := range in {
		key := strings.ToLower(strings.TrimSpace(day))
		if !validDays[key] {
			return nil, fmt.Sprintf("Unknown day %q.", day)
		}
		for _, slot := range slots {
			if !slotPattern.MatchString(slot) {
				return nil, fmt.Sprintf("Time slot %q on %s must use HH:MM.", slot, key)
			}
		}
		out[key] = append(out[key], slots...)
	}
	return out, ""
}
