package recipes

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/petermazzocco/recipe-api/internal/logger"
	"github.com/petermazzocco/recipe-api/models"
)

// ImageStore persists uploaded recipe images under opaque keys.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// ImageUpload is an image that has already been checked and normalized.
type ImageUpload struct {
	Data        []byte
	Ext         string
	ContentType string
}

// imageDir is where recipe images live inside the image store.
const imageDir = "uploads/recipe"

// NewImageKey builds a storage key from a fresh random identifier and ext.
// Nothing supplied by the client ends up in the key except the extension,
// and that is reduced to lowercase alphanumerics.
func NewImageKey(ext string) string {
	ext = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return -1
	}, ext)

	name := uuid.New().String()
	if ext != "" {
		name += "." + ext
	}
	return path.Join(imageDir, name)
}

type Service struct {
	repo   Repository
	images ImageStore
}

func NewService(repo Repository, images ImageStore) *Service {
	return &Service{repo: repo, images: images}
}

func (s *Service) ListRecipes(ctx context.Context, userID uint, f RecipeFilter) ([]models.Recipe, error) {
	return s.repo.ListRecipes(ctx, userID, f)
}

func (s *Service) GetRecipe(ctx context.Context, userID, id uint) (*models.Recipe, error) {
	return s.repo.GetRecipe(ctx, userID, id)
}

// CreateRecipe requires title, time and price.
func (s *Service) CreateRecipe(ctx context.Context, userID uint, in RecipeInput) (*models.Recipe, error) {
	if in.Title == nil || in.TimeMinutes == nil || in.Price == nil {
		return nil, fmt.Errorf("%w: title, time_minutes and price are required", ErrInvalidInput)
	}
	if err := checkInput(in); err != nil {
		return nil, err
	}

	r, err := s.repo.CreateRecipe(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	logger.Debug("recipe created", "user_id", userID, "recipe_id", r.ID, "tags", len(r.Tags), "ingredients", len(r.Ingredients))
	return r, nil
}

func (s *Service) UpdateRecipe(ctx context.Context, userID, id uint, in RecipeInput) (*models.Recipe, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	return s.repo.UpdateRecipe(ctx, userID, id, in)
}

// DeleteRecipe removes the recipe, then its image. A failure to remove the
// image is logged and otherwise ignored.
func (s *Service) DeleteRecipe(ctx context.Context, userID, id uint) error {
	r, err := s.repo.DeleteRecipe(ctx, userID, id)
	if err != nil {
		return err
	}
	s.dropImage(ctx, r.Image)
	return nil
}

// ReplaceImage stores up under a new key and points the recipe at it. The
// previous image is removed only once the recipe row has been updated, so a
// failed upload leaves the old one in place.
func (s *Service) ReplaceImage(ctx context.Context, userID, id uint, up ImageUpload) (*models.Recipe, error) {
	if _, err := s.repo.GetRecipe(ctx, userID, id); err != nil {
		return nil, err
	}

	key := NewImageKey(up.Ext)
	if err := s.images.Put(ctx, key, up.ContentType, up.Data); err != nil {
		return nil, fmt.Errorf("store recipe image: %w", err)
	}

	previous, err := s.repo.SetRecipeImage(ctx, userID, id, key)
	if err != nil {
		s.dropImage(ctx, key)
		return nil, err
	}
	s.dropImage(ctx, previous)

	return s.repo.GetRecipe(ctx, userID, id)
}

func (s *Service) dropImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		logger.Warn("failed to delete recipe image", "key", key, "error", err)
	}
}

func (s *Service) ListAttributes(ctx context.Context, kind Kind, userID uint, assignedOnly bool) ([]models.Attribute, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, kind)
	}
	return s.repo.ListAttributes(ctx, kind, userID, assignedOnly)
}

func (s *Service) GetAttribute(ctx context.Context, kind Kind, userID, id uint) (*models.Attribute, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, kind)
	}
	return s.repo.GetAttribute(ctx, kind, userID, id)
}

func (s *Service) RenameAttribute(ctx context.Context, kind Kind, userID, id uint, name string) (*models.Attribute, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, kind)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	return s.repo.RenameAttribute(ctx, kind, userID, id, name)
}

func (s *Service) DeleteAttribute(ctx context.Context, kind Kind, userID, id uint) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, kind)
	}
	return s.repo.DeleteAttribute(ctx, kind, userID, id)
}

func checkInput(in RecipeInput) error {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return fmt.Errorf("%w: title may not be blank", ErrInvalidInput)
	}
	if in.TimeMinutes != nil && *in.TimeMinutes < 0 {
		return fmt.Errorf("%w: time_minutes may not be negative", ErrInvalidInput)
	}
	if in.Price != nil && in.Price.IsNegative() {
		return fmt.Errorf("%w: price may not be negative", ErrInvalidInput)
	}
	for _, names := range [][]string{in.Tags, in.Ingredients} {
		for _, n := range names {
			if strings.TrimSpace(n) == "" {
				return fmt.Errorf("%w: nested name may not be blank", ErrInvalidInput)
			}
		}
	}
	return nil
}
