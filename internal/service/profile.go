package service

import (
	"context"
	"log/slog"

	"github.com/ManakRaj-7/AnonVerse/internal/data"
	"github.com/ManakRaj-7/AnonVerse/internal/domain"
	domainerrors "github.com/ManakRaj-7/AnonVerse/internal/errors"
	"github.com/ManakRaj-7/AnonVerse/internal/normalize"
	"github.com/ManakRaj-7/AnonVerse/internal/tier"
	"github.com/ManakRaj-7/AnonVerse/internal/validation"
)

// UpdateProfileInput is the validated shape of a profile update. A nil Bio
// leaves the stored bio untouched; an empty string clears it.
type UpdateProfileInput struct {
	PenName string  `json:"pen_name" validate:"required,penname"`
	Bio     *string `json:"bio" validate:"omitempty,max=500"`
}

// ProfileService reads and updates poet profiles.
type ProfileService struct {
	data      data.Service
	sessions  *SessionStore
	validator *validation.Validator
	logger    *slog.Logger
}

// NewProfileService creates a profile service.
func NewProfileService(dataSvc data.Service, sessions *SessionStore, v *validation.Validator, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		data:      dataSvc,
		sessions:  sessions,
		validator: v,
		logger:    logger,
	}
}

// Get fetches a profile by ID.
func (s *ProfileService) Get(ctx context.Context, profileID string) (*domain.Identity, error) {
	if !tier.Allowed(s.sessions.Tier(), tier.ActionViewProfile) {
		return nil, domainerrors.Forbidden("sign in or continue as guest to view profiles")
	}

	rows, err := s.data.Select(ctx, data.Query{
		Table:   data.TableProfiles,
		Filters: []data.Filter{data.Eq("id", profileID)},
	})
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeFetchError, "profile fetch failed")
	}
	if len(rows) == 0 {
		return nil, domainerrors.NotFound("profile not found")
	}

	identity := identityFromRow(rows[0])
	return &identity, nil
}

// UpdateOwn updates the viewer's own profile and refreshes the cached
// identity so the rest of the client sees the change immediately.
func (s *ProfileService) UpdateOwn(ctx context.Context, input UpdateProfileInput) (*domain.Identity, error) {
	viewer := s.sessions.Viewer()
	if viewer == nil || !tier.Allowed(s.sessions.Tier(), tier.ActionEditProfile) {
		return nil, domainerrors.Forbidden("sign in to edit your profile")
	}

	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	pen := normalize.PenName(input.PenName)
	updated := *viewer
	updated.PenName = pen
	if input.Bio != nil {
		if *input.Bio == "" {
			updated.Bio = nil
		} else {
			bio := *input.Bio
			updated.Bio = &bio
		}
	}
	updated.Touch()

	patch := data.Row{
		"pen_name":     pen,
		"pen_name_key": normalize.PenNameKey(pen),
		"updated_at":   data.FormatTime(updated.UpdatedAt),
	}
	if input.Bio != nil {
		if *input.Bio == "" {
			patch["bio"] = nil
		} else {
			patch["bio"] = *input.Bio
		}
	}

	err := s.data.Update(ctx, data.TableProfiles, patch, data.Eq("id", viewer.ID))
	if err != nil {
		return nil, err
	}

	s.sessions.setViewer(&updated)
	s.logger.Info("Profile updated", "user_id", viewer.ID)

	snapshot := updated
	return &snapshot, nil
}
