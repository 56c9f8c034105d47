package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"skillpath.app/backend/internal/model"
	"skillpath.app/backend/pkg/apperror"
)

type NoteFilter struct {
	ResourceID    *uuid.UUID
	FavoritesOnly bool
	Tag           string
}

type NoteRepository interface {
	Create(ctx context.Context, note *model.Note) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Note, error)
	FindByUser(ctx context.Context, userID uuid.UUID, filter NoteFilter) ([]model.Note, error)
	Update(ctx context.Context, note *model.Note) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type noteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) Create(ctx context.Context, note *model.Note) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *noteRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Note, error) {
	var note model.Note
	if err := r.db.WithContext(ctx).First(&note, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &note, nil
}

func (r *noteRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter NoteFilter) ([]model.Note, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.ResourceID != nil {
		query = query.Where("resource_id = ?", *filter.ResourceID)
	}
	if filter.FavoritesOnly {
		query = query.Where("is_favorite = ?", true)
	}
	if filter.Tag != "" {
		// Tags are stored as a JSON array
		query = query.Where("tags LIKE ?", "%\""+filter.Tag+"\"%")
	}

	var notes []model.Note
	err := query.Order("updated_at DESC").Find(&notes).Error
	return notes, err
}

func (r *noteRepository) Update(ctx context.Context, note *model.Note) error {
	return r.db.WithContext(ctx).Save(note).Error
}

func (r *noteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Note{}, "id = ?", id).Error
}

func (r *noteRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Note{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
