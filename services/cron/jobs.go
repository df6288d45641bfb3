package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/sahilchouksey/reddit-scout-api/model"
)

const (
	// activityRetention is how long user activity rows are kept
	activityRetention = 90 * 24 * time.Hour
	// cronLogRetention is how long cron job log rows are kept
	cronLogRetention = 30 * 24 * time.Hour
)

// CleanupExpiredSessions deletes all sessions whose expiry has passed.
// Runs hourly so stale tokens stop validating promptly even between requests.
func (m *CronManager) CleanupExpiredSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	jobName := "cleanup_expired_sessions"

	removed, err := m.auth.CleanupExpiredSessions(ctx)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to sweep sessions: %w", err))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Removed %d expired sessions", removed))
}

// CleanupResetTokens deletes expired and used password reset tokens
func (m *CronManager) CleanupResetTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	jobName := "cleanup_reset_tokens"

	removed, err := m.auth.CleanupExpiredResetTokens(ctx)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to purge reset tokens: %w", err))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Removed %d reset tokens", removed))
}

// AggregateActivity counts the last hour of logins, registrations and
// searches into the job log, giving operators an hourly usage pulse without
// a metrics stack.
func (m *CronManager) AggregateActivity() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	jobName := "aggregate_activity"
	since := time.Now().Add(-time.Hour)

	logins, err := m.activity.CountSince(ctx, model.ActivityTypeLogin, since)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to count logins: %w", err))
		return
	}
	registrations, err := m.activity.CountSince(ctx, model.ActivityTypeRegister, since)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to count registrations: %w", err))
		return
	}
	subredditSearches, err := m.activity.CountSince(ctx, model.ActivityTypeSubredditSearch, since)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to count subreddit searches: %w", err))
		return
	}
	postSearches, err := m.activity.CountSince(ctx, model.ActivityTypePostSearch, since)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to count post searches: %w", err))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf(
		"Last hour: %d logins, %d registrations, %d searches",
		logins, registrations, subredditSearches+postSearches,
	))
}

// CleanupOldData trims aged activity and cron log rows
func (m *CronManager) CleanupOldData() {
	jobName := "cleanup_old_data"

	activityCutoff := time.Now().Add(-activityRetention)
	activityResult := m.db.Unscoped().
		Where("created_at < ?", activityCutoff).
		Delete(&model.UserActivity{})
	if activityResult.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to delete old activity: %w", activityResult.Error))
		return
	}

	logCutoff := time.Now().Add(-cronLogRetention)
	logResult := m.db.Unscoped().
		Where("started_at < ? AND status != ?", logCutoff, "running").
		Delete(&model.CronJobLog{})
	if logResult.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to delete old cron logs: %w", logResult.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf(
		"Removed %d activity rows, %d cron log rows",
		activityResult.RowsAffected, logResult.RowsAffected,
	))
}
