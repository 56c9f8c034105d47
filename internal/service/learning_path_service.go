package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"skillpath.app/backend/internal/model"
	"skillpath.app/backend/internal/repository"
	"skillpath.app/backend/pkg/apperror"
)

// Point values for learning activity.
const (
	pointsLearningPathCompleted = 100
	pointsTopicCompleted        = 25
	pointsResourceViewed        = 10
	pointsNoteCreated           = 15
)

type CreateLearningPathInput struct {
	Title           string  `json:"title" binding:"required,max=200"`
	Description     *string `json:"description"`
	Subject         string  `json:"subject" binding:"required,max=100"`
	DifficultyLevel string  `json:"difficulty_level" binding:"omitempty,oneof=beginner intermediate advanced"`
	EstimatedHours  int     `json:"estimated_hours" binding:"omitempty,min=1"`
}

type UpdateLearningPathInput struct {
	Title           *string `json:"title" binding:"omitempty,max=200"`
	Description     *string `json:"description"`
	Subject         *string `json:"subject" binding:"omitempty,max=100"`
	DifficultyLevel *string `json:"difficulty_level" binding:"omitempty,oneof=beginner intermediate advanced"`
	EstimatedHours  *int    `json:"estimated_hours" binding:"omitempty,min=1"`
	IsActive        *bool   `json:"is_active"`
}

type CreateTopicInput struct {
	Title       string  `json:"title" binding:"required,max=200"`
	Description *string `json:"description"`
	OrderIndex  int     `json:"order_index"`
}

type LearningPathService interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateLearningPathInput) (*model.LearningPath, error)
	GetPaths(ctx context.Context, userID uuid.UUID, filter repository.LearningPathFilter) ([]model.LearningPath, error)
	GetPath(ctx context.Context, userID, pathID uuid.UUID) (*model.LearningPath, error)
	Update(ctx context.Context, userID, pathID uuid.UUID, input UpdateLearningPathInput) (*model.LearningPath, error)
	Delete(ctx context.Context, userID, pathID uuid.UUID) error
	AddTopic(ctx context.Context, userID, pathID uuid.UUID, input CreateTopicInput) (*model.Topic, error)
	CompleteTopic(ctx context.Context, userID, topicID uuid.UUID) (*model.LearningPath, error)
	ImportGenerated(ctx context.Context, userID uuid.UUID, generated *GeneratedLearningPath, subject, difficulty string) (*model.LearningPath, error)
}

type learningPathService struct {
	repo         repository.LearningPathRepository
	resourceRepo repository.ResourceRepository
	activityRepo repository.ActivityRepository
	gamification GamificationService
	search       SearchService
}

func NewLearningPathService(
	repo repository.LearningPathRepository,
	resourceRepo repository.ResourceRepository,
	activityRepo repository.ActivityRepository,
	gamification GamificationService,
	search SearchService,
) LearningPathService {
	return &learningPathService{
		repo:         repo,
		resourceRepo: resourceRepo,
		activityRepo: activityRepo,
		gamification: gamification,
		search:       search,
	}
}

func (s *learningPathService) Create(ctx context.Context, userID uuid.UUID, input CreateLearningPathInput) (*model.LearningPath, error) {
	difficulty := input.DifficultyLevel
	if difficulty == "" {
		difficulty = "beginner"
	}
	hours := input.EstimatedHours
	if hours == 0 {
		hours = 10
	}

	path := &model.LearningPath{
		UserID:          userID,
		Title:           input.Title,
		Description:     input.Description,
		Subject:         input.Subject,
		DifficultyLevel: difficulty,
		EstimatedHours:  hours,
		IsActive:        true,
	}

	if err := s.repo.Create(ctx, path); err != nil {
		return nil, err
	}

	if err := s.search.IndexLearningPath(path); err != nil {
		log.Printf("Failed to index learning path %s: %v", path.ID, err)
	}

	return path, nil
}

func (s *learningPathService) GetPaths(ctx context.Context, userID uuid.UUID, filter repository.LearningPathFilter) ([]model.LearningPath, error) {
	return s.repo.FindByUser(ctx, userID, filter)
}

func (s *learningPathService) GetPath(ctx context.Context, userID, pathID uuid.UUID) (*model.LearningPath, error) {
	path, err := s.repo.FindByID(ctx, pathID)
	if err != nil {
		return nil, err
	}
	if path.UserID != userID {
		return nil, apperror.ErrForbidden
	}
	return path, nil
}

func (s *learningPathService) Update(ctx context.Context, userID, pathID uuid.UUID, input UpdateLearningPathInput) (*model.LearningPath, error) {
	path, err := s.GetPath(ctx, userID, pathID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		path.Title = *input.Title
	}
	if input.Description != nil {
		path.Description = input.Description
	}
	if input.Subject != nil {
		path.Subject = *input.Subject
	}
	if input.DifficultyLevel != nil {
		path.DifficultyLevel = *input.DifficultyLevel
	}
	if input.EstimatedHours != nil {
		path.EstimatedHours = *input.EstimatedHours
	}
	if input.IsActive != nil {
		path.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, path); err != nil {
		return nil, err
	}

	if err := s.search.IndexLearningPath(path); err != nil {
		log.Printf("Failed to reindex learning path %s: %v", path.ID, err)
	}

	return path, nil
}

func (s *learningPathService) Delete(ctx context.Context, userID, pathID uuid.UUID) error {
	path, err := s.GetPath(ctx, userID, pathID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, path.ID); err != nil {
		return err
	}

	if err := s.search.DeleteLearningPath(path.ID.String()); err != nil {
		log.Printf("Failed to remove learning path %s from index: %v", path.ID, err)
	}

	return nil
}

func (s *learningPathService) AddTopic(ctx context.Context, userID, pathID uuid.UUID, input CreateTopicInput) (*model.Topic, error) {
	if _, err := s.GetPath(ctx, userID, pathID); err != nil {
		return nil, err
	}

	topic := &model.Topic{
		LearningPathID: pathID,
		Title:          input.Title,
		Description:    input.Description,
		OrderIndex:     input.OrderIndex,
	}

	if err := s.repo.CreateTopic(ctx, topic); err != nil {
		return nil, err
	}

	return topic, nil
}

// CompleteTopic marks a topic done and recomputes path progress. Completing
// the final topic completes the whole path, which logs the activity, awards
// points and advances the learning streak.
func (s *learningPathService) CompleteTopic(ctx context.Context, userID, topicID uuid.UUID) (*model.LearningPath, error) {
	topic, err := s.repo.FindTopicByID(ctx, topicID)
	if err != nil {
		return nil, err
	}

	path, err := s.GetPath(ctx, userID, topic.LearningPathID)
	if err != nil {
		return nil, err
	}

	if topic.IsCompleted {
		return path, nil
	}

	now := time.Now()
	topic.IsCompleted = true
	topic.CompletionDate = &now
	if err := s.repo.UpdateTopic(ctx, topic); err != nil {
		return nil, err
	}

	total, completed, err := s.repo.CountTopics(ctx, path.ID)
	if err != nil {
		return nil, err
	}

	if total > 0 {
		path.ProgressPercentage = float64(completed) / float64(total) * 100
	}
	pathCompleted := total > 0 && completed == total
	if err := s.repo.Update(ctx, path); err != nil {
		return nil, err
	}

	if _, err := s.gamification.AwardPoints(ctx, userID, pointsTopicCompleted, model.PointCategoryLearning); err != nil {
		return nil, err
	}

	if pathCompleted {
		activity := &model.UserActivity{
			UserID:       userID,
			ActivityType: model.ActivityLearningPathCompleted,
			Details:      map[string]string{"learning_path_id": path.ID.String(), "title": path.Title},
		}
		if err := s.activityRepo.Create(ctx, activity); err != nil {
			return nil, err
		}
		if _, err := s.gamification.AwardPoints(ctx, userID, pointsLearningPathCompleted, model.PointCategoryLearning); err != nil {
			return nil, err
		}
	}

	if _, err := s.gamification.TouchStreak(ctx, userID, now); err != nil {
		return nil, err
	}
	if _, err := s.gamification.CheckBadges(ctx, userID); err != nil {
		return nil, err
	}

	return path, nil
}

// ImportGenerated persists an AI-generated plan as a real learning path with
// topics and resources.
func (s *learningPathService) ImportGenerated(ctx context.Context, userID uuid.UUID, generated *GeneratedLearningPath, subject, difficulty string) (*model.LearningPath, error) {
	if generated == nil || generated.Title == "" {
		return nil, fmt.Errorf("generated learning path is empty: %w", apperror.ErrInvalidInput)
	}
	if difficulty == "" {
		difficulty = "beginner"
	}

	description := generated.Description
	path := &model.LearningPath{
		UserID:          userID,
		Title:           generated.Title,
		Description:     &description,
		Subject:         subject,
		DifficultyLevel: difficulty,
		EstimatedHours:  generated.EstimatedTotalHours,
		IsActive:        true,
	}
	if err := s.repo.Create(ctx, path); err != nil {
		return nil, err
	}

	for i, generatedTopic := range generated.Topics {
		topicDescription := generatedTopic.Description
		topic := &model.Topic{
			LearningPathID: path.ID,
			Title:          generatedTopic.Title,
			Description:    &topicDescription,
			OrderIndex:     i,
		}
		if err := s.repo.CreateTopic(ctx, topic); err != nil {
			return nil, err
		}

		for _, generatedResource := range generatedTopic.Resources {
			resourceDescription := generatedResource.Description
			minutes := generatedResource.EstimatedMinutes
			resource := &model.Resource{
				TopicID:         topic.ID,
				Title:           generatedResource.Title,
				Description:     &resourceDescription,
				ResourceType:    normalizeResourceType(generatedResource.Type),
				DurationMinutes: &minutes,
				DifficultyLevel: difficulty,
			}
			if err := s.resourceRepo.Create(ctx, resource); err != nil {
				return nil, err
			}
		}
	}

	if err := s.search.IndexLearningPath(path); err != nil {
		log.Printf("Failed to index learning path %s: %v", path.ID, err)
	}

	return s.repo.FindByID(ctx, path.ID)
}

func normalizeResourceType(resourceType string) string {
	switch resourceType {
	case "video", "article", "book", "course", "exercise":
		return resourceType
	default:
		return "other"
	}
}
