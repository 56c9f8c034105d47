package service

import (
	"context"
	"log"

	"github.com/google/uuid"
	"skillpath.app/backend/internal/model"
	"skillpath.app/backend/internal/repository"
	"skillpath.app/backend/pkg/apperror"
)

type CreateNoteInput struct {
	Title      string     `json:"title" binding:"required,max=200"`
	Content    string     `json:"content" binding:"required"`
	ResourceID *uuid.UUID `json:"resource_id"`
	Tags       []string   `json:"tags"`
	IsFavorite bool       `json:"is_favorite"`
}

type UpdateNoteInput struct {
	Title      *string   `json:"title" binding:"omitempty,max=200"`
	Content    *string   `json:"content"`
	Tags       *[]string `json:"tags"`
	IsFavorite *bool     `json:"is_favorite"`
}

type NoteService interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateNoteInput) (*model.Note, error)
	GetNote(ctx context.Context, userID, noteID uuid.UUID) (*model.Note, error)
	GetNotes(ctx context.Context, userID uuid.UUID, filter repository.NoteFilter) ([]model.Note, error)
	Update(ctx context.Context, userID, noteID uuid.UUID, input UpdateNoteInput) (*model.Note, error)
	Delete(ctx context.Context, userID, noteID uuid.UUID) error
}

type noteService struct {
	repo         repository.NoteRepository
	activityRepo repository.ActivityRepository
	gamification GamificationService
	search       SearchService
}

func NewNoteService(
	repo repository.NoteRepository,
	activityRepo repository.ActivityRepository,
	gamification GamificationService,
	search SearchService,
) NoteService {
	return &noteService{
		repo:         repo,
		activityRepo: activityRepo,
		gamification: gamification,
		search:       search,
	}
}

func (s *noteService) Create(ctx context.Context, userID uuid.UUID, input CreateNoteInput) (*model.Note, error) {
	note := &model.Note{
		UserID:     userID,
		ResourceID: input.ResourceID,
		Title:      input.Title,
		Content:    input.Content,
		Tags:       input.Tags,
		IsFavorite: input.IsFavorite,
	}

	if err := s.repo.Create(ctx, note); err != nil {
		return nil, err
	}

	activity := &model.UserActivity{
		UserID:       userID,
		ActivityType: model.ActivityNoteCreated,
		Details:      map[string]string{"note_id": note.ID.String(), "title": note.Title},
	}
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return nil, err
	}

	if _, err := s.gamification.AwardPoints(ctx, userID, pointsNoteCreated, model.PointCategoryLearning); err != nil {
		return nil, err
	}
	if _, err := s.gamification.CheckAchievements(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.search.IndexNote(note); err != nil {
		log.Printf("Failed to index note %s: %v", note.ID, err)
	}

	return note, nil
}

func (s *noteService) GetNote(ctx context.Context, userID, noteID uuid.UUID) (*model.Note, error) {
	note, err := s.repo.FindByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.UserID != userID {
		return nil, apperror.ErrForbidden
	}
	return note, nil
}

func (s *noteService) GetNotes(ctx context.Context, userID uuid.UUID, filter repository.NoteFilter) ([]model.Note, error) {
	return s.repo.FindByUser(ctx, userID, filter)
}

func (s *noteService) Update(ctx context.Context, userID, noteID uuid.UUID, input UpdateNoteInput) (*model.Note, error) {
	note, err := s.GetNote(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		note.Title = *input.Title
	}
	if input.Content != nil {
		note.Content = *input.Content
	}
	if input.Tags != nil {
		note.Tags = *input.Tags
	}
	if input.IsFavorite != nil {
		note.IsFavorite = *input.IsFavorite
	}

	if err := s.repo.Update(ctx, note); err != nil {
		return nil, err
	}

	if err := s.search.IndexNote(note); err != nil {
		log.Printf("Failed to reindex note %s: %v", note.ID, err)
	}

	return note, nil
}

func (s *noteService) Delete(ctx context.Context, userID, noteID uuid.UUID) error {
	note, err := s.GetNote(ctx, userID, noteID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, note.ID); err != nil {
		return err
	}

	if err := s.search.DeleteNote(note.ID.String()); err != nil {
		log.Printf("Failed to remove note %s from index: %v", note.ID, err)
	}

	return nil
}
