package service

import (
	"context"

	"github.com/google/uuid"
	"skillpath.app/backend/internal/model"
	"skillpath.app/backend/internal/repository"
)

type LogActivityInput struct {
	ActivityType string            `json:"activity_type" binding:"required"`
	Details      map[string]string `json:"activity_details"`
}

type ActivityPage struct {
	Activities []model.UserActivity `json:"activities"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PerPage    int                  `json:"per_page"`
}

type ActivityService interface {
	Log(ctx context.Context, userID uuid.UUID, input LogActivityInput) (*model.UserActivity, error)
	GetActivities(ctx context.Context, userID uuid.UUID, activityType string, page, perPage int) (*ActivityPage, error)
}

type activityService struct {
	repo repository.ActivityRepository
}

func NewActivityService(repo repository.ActivityRepository) ActivityService {
	return &activityService{repo: repo}
}

func (s *activityService) Log(ctx context.Context, userID uuid.UUID, input LogActivityInput) (*model.UserActivity, error) {
	activity := &model.UserActivity{
		UserID:       userID,
		ActivityType: input.ActivityType,
		Details:      input.Details,
	}
	if err := s.repo.Create(ctx, activity); err != nil {
		return nil, err
	}
	return activity, nil
}

func (s *activityService) GetActivities(ctx context.Context, userID uuid.UUID, activityType string, page, perPage int) (*ActivityPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}

	activities, total, err := s.repo.FindByUser(ctx, userID, activityType, perPage, (page-1)*perPage)
	if err != nil {
		return nil, err
	}

	return &ActivityPage{
		Activities: activities,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
	}, nil
}
