package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/velvetqueue/velvetqueue/internal/models"
	"github.com/velvetqueue/velvetqueue/internal/repository"
	"github.com/velvetqueue/velvetqueue/internal/transfer"
)

type PostService interface {
	Create(ctx context.Context, pc *transfer.PostCreation) (int64, error)
	Get(ctx context.Context, postID int64) (*models.Post, error)
	List(ctx context.Context, status string) ([]*models.Post, error)
	Update(ctx context.Context, postID int64, pu *transfer.PostUpdate) (*models.Post, error)
	Schedule(ctx context.Context, postID int64, scheduledTime string) error
	Calendar(ctx context.Context, start, end time.Time, status string) ([]*models.Post, error)
}

type postService struct {
	pr repository.PostRepository
}

func NewPostService(pr repository.PostRepository) PostService {
	return &postService{pr: pr}
}

func (s *postService) Create(ctx context.Context, pc *transfer.PostCreation) (int64, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return 0, err
	}

	status := pc.Status
	if status == "" {
		status = models.PostStatusDraft
	}
	if status != models.PostStatusDraft && status != models.PostStatusScheduled {
		return 0, fmt.Errorf("invalid initial status %q: must be draft or scheduled", status)
	}

	if pc.Content == "" && len(pc.MediaAssets) == 0 {
		err := errors.New("post needs a caption or at least one media asset")
		slog.Info(err.Error())
		return 0, err
	}

	var scheduledTime *time.Time
	if pc.ScheduledTime != "" {
		t, err := parseScheduledTime(pc.ScheduledTime)
		if err != nil {
			return 0, err
		}
		scheduledTime = &t
	}
	if status == models.PostStatusScheduled {
		if scheduledTime == nil {
			return 0, errors.New("scheduled posts require scheduled_time")
		}
		if !scheduledTime.After(time.Now()) {
			return 0, errors.New("scheduled_time must be in the future")
		}
	}

	post := models.Post{
		Content:          pc.Content,
		MediaAssets:      pc.MediaAssets,
		Channels:         pc.Channels,
		PlatformSettings: pc.PlatformSettings,
		Status:           status,
		ScheduledTime:    scheduledTime,
	}

	postID, err := s.pr.Create(ctx, &post)
	if err != nil {
		return 0, fmt.Errorf("error creating post: %w", err)
	}

	return postID, nil
}

func (s *postService) Get(ctx context.Context, postID int64) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *postService) List(ctx context.Context, status string) ([]*models.Post, error) {
	if status == "" || status == "all" {
		return s.pr.ListAll(ctx)
	}

	if !models.IsValidPostStatus(status) {
		return nil, fmt.Errorf("unknown post status %q", status)
	}
	return s.pr.ListByStatus(ctx, status)
}

// Update edits draft content, media, channels or settings. Posts past the
// draft state are only mutated by the publishing pipeline.
func (s *postService) Update(ctx context.Context, postID int64, pu *transfer.PostUpdate) (*models.Post, error) {
	post, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.Status != models.PostStatusDraft {
		return nil, ErrNotEditable
	}

	fields := make(map[string]interface{})
	if pu.Content != nil {
		fields["content"] = *pu.Content
	}
	if pu.MediaAssets != nil {
		fields["media_assets"] = pq.Array(pu.MediaAssets)
	}
	if pu.Channels != nil {
		fields["channels"] = pq.Array(pu.Channels)
	}
	if pu.PlatformSettings != nil {
		settings, err := json.Marshal(pu.PlatformSettings)
		if err != nil {
			return nil, err
		}
		fields["platform_settings"] = settings
	}
	if pu.ScheduledTime != nil {
		t, err := parseScheduledTime(*pu.ScheduledTime)
		if err != nil {
			return nil, err
		}
		fields["scheduled_time"] = t
	}

	if err := s.pr.Update(ctx, postID, fields); err != nil {
		return nil, fmt.Errorf("error updating post: %w", err)
	}

	return s.Get(ctx, postID)
}

func (s *postService) Schedule(ctx context.Context, postID int64, scheduledTime string) error {
	t, err := parseScheduledTime(scheduledTime)
	if err != nil {
		return err
	}
	if !t.After(time.Now()) {
		return errors.New("scheduled_time must be in the future")
	}

	post, err := s.Get(ctx, postID)
	if err != nil {
		return err
	}

	ok, err := s.pr.Schedule(ctx, post.ID, t)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyPublishing
	}

	slog.Info("post scheduled", "post_id", postID, "scheduled_time", t)
	return nil
}

func (s *postService) Calendar(ctx context.Context, start, end time.Time, status string) ([]*models.Post, error) {
	var statuses []string
	switch status {
	case "", "all":
		statuses = []string{
			models.PostStatusScheduled,
			models.PostStatusPublishing,
			models.PostStatusPublished,
			models.PostStatusFailed,
		}
	default:
		if !models.IsValidPostStatus(status) {
			return nil, fmt.Errorf("unknown post status %q", status)
		}
		statuses = []string{status}
	}

	return s.pr.ListCalendar(ctx, start, end, statuses)
}

func parseScheduledTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		// Calendar UIs commonly send datetime-local values without a zone.
		t, err = time.Parse("2006-01-02T15:04", value)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid scheduled time format: %w", err)
		}
	}
	return t, nil
}
