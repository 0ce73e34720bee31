package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ManakRaj-7/AnonVerse/internal/data"
	"github.com/ManakRaj-7/AnonVerse/internal/domain"
	domainerrors "github.com/ManakRaj-7/AnonVerse/internal/errors"
	"github.com/ManakRaj-7/AnonVerse/internal/id"
	"github.com/ManakRaj-7/AnonVerse/internal/tier"
	"github.com/ManakRaj-7/AnonVerse/internal/validation"
)

// createPoemInput is the validated shape of a new poem.
type createPoemInput struct {
	Title   string `json:"title" validate:"required,max=120"`
	Content string `json:"content" validate:"required,max=8000"`
}

// PoemService publishes poems. Poems are immutable once created.
type PoemService struct {
	data      data.Service
	sessions  *SessionStore
	validator *validation.Validator
	logger    *slog.Logger
}

// NewPoemService creates a poem service.
func NewPoemService(dataSvc data.Service, sessions *SessionStore, v *validation.Validator, logger *slog.Logger) *PoemService {
	return &PoemService{
		data:      dataSvc,
		sessions:  sessions,
		validator: v,
		logger:    logger,
	}
}

// Create publishes a poem authored by the viewer. Authenticated only; title
// and content must be non-empty after trimming.
func (s *PoemService) Create(ctx context.Context, title, content string) (*domain.Poem, error) {
	viewer := s.sessions.Viewer()
	if viewer == nil || !tier.Allowed(s.sessions.Tier(), tier.ActionCreatePoem) {
		return nil, domainerrors.Forbidden("sign in to share poems")
	}

	input := createPoemInput{
		Title:   strings.TrimSpace(title),
		Content: strings.TrimSpace(content),
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	poemID, err := id.Generate(id.PrefixPoem)
	if err != nil {
		return nil, fmt.Errorf("generate poem ID: %w", err)
	}

	poem := domain.NewPoem(poemID, input.Title, input.Content, viewer.ID)
	err = s.data.Insert(ctx, data.TablePoems, data.Row{
		"id":         poem.ID,
		"title":      poem.Title,
		"content":    poem.Content,
		"author_id":  poem.AuthorID,
		"created_at": data.FormatTime(poem.CreatedAt),
		"updated_at": data.FormatTime(poem.UpdatedAt),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Poem published", "poem_id", poem.ID, "author_id", poem.AuthorID)
	return poem, nil
}
