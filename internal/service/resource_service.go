package service

import (
	"context"
	"log"

	"github.com/google/uuid"
	"skillpath.app/backend/internal/model"
	"skillpath.app/backend/internal/repository"
	"skillpath.app/backend/pkg/apperror"
)

type CreateResourceInput struct {
	TopicID         uuid.UUID `json:"topic_id" binding:"required"`
	Title           string    `json:"title" binding:"required,max=200"`
	Description     *string   `json:"description"`
	ResourceType    string    `json:"resource_type" binding:"required,oneof=video article book course exercise other"`
	URL             *string   `json:"url" binding:"omitempty,url,max=500"`
	Content         *string   `json:"content"`
	DurationMinutes *int      `json:"duration_minutes" binding:"omitempty,min=0"`
	DifficultyLevel string    `json:"difficulty_level" binding:"omitempty,oneof=beginner intermediate advanced"`
}

type UpdateResourceInput struct {
	Title           *string `json:"title" binding:"omitempty,max=200"`
	Description     *string `json:"description"`
	ResourceType    *string `json:"resource_type" binding:"omitempty,oneof=video article book course exercise other"`
	URL             *string `json:"url" binding:"omitempty,url,max=500"`
	Content         *string `json:"content"`
	DurationMinutes *int    `json:"duration_minutes" binding:"omitempty,min=0"`
	DifficultyLevel *string `json:"difficulty_level" binding:"omitempty,oneof=beginner intermediate advanced"`
	IsCompleted     *bool   `json:"is_completed"`
}

type ResourceService interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateResourceInput) (*model.Resource, error)
	GetResource(ctx context.Context, userID, resourceID uuid.UUID) (*model.Resource, error)
	GetByTopic(ctx context.Context, userID, topicID uuid.UUID) ([]model.Resource, error)
	Update(ctx context.Context, userID, resourceID uuid.UUID, input UpdateResourceInput) (*model.Resource, error)
	Delete(ctx context.Context, userID, resourceID uuid.UUID) error
	MarkViewed(ctx context.Context, userID, resourceID uuid.UUID) (*model.Resource, error)
}

type resourceService struct {
	repo         repository.ResourceRepository
	pathRepo     repository.LearningPathRepository
	activityRepo repository.ActivityRepository
	gamification GamificationService
	search       SearchService
}

func NewResourceService(
	repo repository.ResourceRepository,
	pathRepo repository.LearningPathRepository,
	activityRepo repository.ActivityRepository,
	gamification GamificationService,
	search SearchService,
) ResourceService {
	return &resourceService{
		repo:         repo,
		pathRepo:     pathRepo,
		activityRepo: activityRepo,
		gamification: gamification,
		search:       search,
	}
}

// ownsTopic verifies a topic sits inside one of the user's learning paths.
func (s *resourceService) ownsTopic(ctx context.Context, userID, topicID uuid.UUID) error {
	topic, err := s.pathRepo.FindTopicByID(ctx, topicID)
	if err != nil {
		return err
	}
	path, err := s.pathRepo.FindByID(ctx, topic.LearningPathID)
	if err != nil {
		return err
	}
	if path.UserID != userID {
		return apperror.ErrForbidden
	}
	return nil
}

func (s *resourceService) Create(ctx context.Context, userID uuid.UUID, input CreateResourceInput) (*model.Resource, error) {
	if err := s.ownsTopic(ctx, userID, input.TopicID); err != nil {
		return nil, err
	}

	difficulty := input.DifficultyLevel
	if difficulty == "" {
		difficulty = "intermediate"
	}

	resource := &model.Resource{
		TopicID:         input.TopicID,
		Title:           input.Title,
		Description:     input.Description,
		ResourceType:    input.ResourceType,
		URL:             input.URL,
		Content:         input.Content,
		DurationMinutes: input.DurationMinutes,
		DifficultyLevel: difficulty,
	}

	if err := s.repo.Create(ctx, resource); err != nil {
		return nil, err
	}

	if err := s.search.IndexResource(resource); err != nil {
		log.Printf("Failed to index resource %s: %v", resource.ID, err)
	}

	return resource, nil
}

func (s *resourceService) GetResource(ctx context.Context, userID, resourceID uuid.UUID) (*model.Resource, error) {
	resource, err := s.repo.FindByID(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if err := s.ownsTopic(ctx, userID, resource.TopicID); err != nil {
		return nil, err
	}
	return resource, nil
}

func (s *resourceService) GetByTopic(ctx context.Context, userID, topicID uuid.UUID) ([]model.Resource, error) {
	if err := s.ownsTopic(ctx, userID, topicID); err != nil {
		return nil, err
	}
	return s.repo.FindByTopic(ctx, topicID)
}

func (s *resourceService) Update(ctx context.Context, userID, resourceID uuid.UUID, input UpdateResourceInput) (*model.Resource, error) {
	resource, err := s.GetResource(ctx, userID, resourceID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		resource.Title = *input.Title
	}
	if input.Description != nil {
		resource.Description = input.Description
	}
	if input.ResourceType != nil {
		resource.ResourceType = *input.ResourceType
	}
	if input.URL != nil {
		resource.URL = input.URL
	}
	if input.Content != nil {
		resource.Content = input.Content
	}
	if input.DurationMinutes != nil {
		resource.DurationMinutes = input.DurationMinutes
	}
	if input.DifficultyLevel != nil {
		resource.DifficultyLevel = *input.DifficultyLevel
	}
	if input.IsCompleted != nil {
		resource.IsCompleted = *input.IsCompleted
	}

	if err := s.repo.Update(ctx, resource); err != nil {
		return nil, err
	}

	if err := s.search.IndexResource(resource); err != nil {
		log.Printf("Failed to reindex resource %s: %v", resource.ID, err)
	}

	return resource, nil
}

func (s *resourceService) Delete(ctx context.Context, userID, resourceID uuid.UUID) error {
	resource, err := s.GetResource(ctx, userID, resourceID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, resource.ID); err != nil {
		return err
	}

	if err := s.search.DeleteResource(resource.ID.String()); err != nil {
		log.Printf("Failed to remove resource %s from index: %v", resource.ID, err)
	}

	return nil
}

// MarkViewed records a resource_viewed activity and awards learning points.
func (s *resourceService) MarkViewed(ctx context.Context, userID, resourceID uuid.UUID) (*model.Resource, error) {
	resource, err := s.GetResource(ctx, userID, resourceID)
	if err != nil {
		return nil, err
	}

	activity := &model.UserActivity{
		UserID:       userID,
		ActivityType: model.ActivityResourceViewed,
		Details:      map[string]string{"resource_id": resource.ID.String(), "title": resource.Title},
	}
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return nil, err
	}

	if _, err := s.gamification.AwardPoints(ctx, userID, pointsResourceViewed, model.PointCategoryLearning); err != nil {
		return nil, err
	}
	if _, err := s.gamification.CheckAchievements(ctx, userID); err != nil {
		return nil, err
	}

	return resource, nil
}
