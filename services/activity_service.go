package services

import (
	"context"
	"log"
	"time"

	"github.com/sahilchouksey/reddit-scout-api/model"
	"gorm.io/gorm"
)

// ActivityService records the user activity audit trail. Failures are logged
// and swallowed - auditing never blocks the operation it describes.
type ActivityService struct {
	db *gorm.DB
}

// NewActivityService creates a new activity service
func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

// Record writes one activity row
func (s *ActivityService) Record(ctx context.Context, userID uint, activityType model.ActivityType, requestID, ipAddress, userAgent, metadata string) {
	activity := model.UserActivity{
		UserID:       userID,
		ActivityType: activityType,
		RequestID:    requestID,
		IPAddress:    ipAddress,
		UserAgent:    userAgent,
		Metadata:     metadata,
	}
	if err := s.db.WithContext(ctx).Create(&activity).Error; err != nil {
		log.Printf("Failed to record user activity: %v", err)
	}
}

// RecentForUser returns the newest activity rows for a user
func (s *ActivityService) RecentForUser(ctx context.Context, userID uint, limit int) ([]model.UserActivity, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	var activities []model.UserActivity
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&activities).Error
	return activities, err
}

// CountSince counts activities of a type across all users since a cutoff,
// used by the hourly aggregation job.
func (s *ActivityService) CountSince(ctx context.Context, activityType model.ActivityType, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.UserActivity{}).
		Where("activity_type = ? AND created_at >= ?", activityType, since).
		Count(&count).Error
	return count, err
}
