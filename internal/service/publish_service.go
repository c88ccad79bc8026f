package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/velvetqueue/velvetqueue/internal/models"
	"github.com/velvetqueue/velvetqueue/internal/repository"
)

// PublishService drives a post through the publishing pipeline:
// claim -> resolve credentials -> host media -> create container ->
// processing wait -> publish -> record outcome.
//
// A single call is a single attempt. There are no automatic retries; a failed
// post stays failed until a caller explicitly publishes again or the user
// reschedules it.
type PublishService interface {
	// Publish claims the post (draft, scheduled or failed) and runs one
	// attempt. Returns the remote media id on success.
	Publish(ctx context.Context, postID int64) (string, error)
	// PublishClaimed runs one attempt for a post the scheduler has already
	// claimed into the publishing state.
	PublishClaimed(ctx context.Context, postID int64) (string, error)
}

type publishService struct {
	pr        repository.PostRepository
	ar        repository.AssetRepository
	cr        repository.ChannelRepository
	creds     CredentialResolver
	hosting   HostingService
	publisher Publisher
	wait      time.Duration
}

func NewPublishService(
	pr repository.PostRepository,
	ar repository.AssetRepository,
	cr repository.ChannelRepository,
	creds CredentialResolver,
	hosting HostingService,
	publisher Publisher,
	wait time.Duration) PublishService {
	return &publishService{
		pr:        pr,
		ar:        ar,
		cr:        cr,
		creds:     creds,
		hosting:   hosting,
		publisher: publisher,
		wait:      wait,
	}
}

func (s *publishService) Publish(ctx context.Context, postID int64) (string, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return "", err
	}
	if post == nil {
		return "", ErrPostNotFound
	}

	if post.Status == models.PostStatusPublished && post.RemoteMediaID != "" {
		slog.Warn("post already published, skipping", "post_id", post.ID, "media_id", post.RemoteMediaID)
		return post.RemoteMediaID, nil
	}

	claimable := []string{models.PostStatusDraft, models.PostStatusScheduled, models.PostStatusFailed}
	claimed, err := s.pr.Claim(ctx, postID, claimable)
	if err != nil {
		return "", err
	}
	if !claimed {
		return "", ErrAlreadyPublishing
	}

	return s.attempt(ctx, post)
}

func (s *publishService) PublishClaimed(ctx context.Context, postID int64) (string, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return "", err
	}
	if post == nil {
		return "", ErrPostNotFound
	}

	if post.Status == models.PostStatusPublished && post.RemoteMediaID != "" {
		return post.RemoteMediaID, nil
	}
	if post.Status != models.PostStatusPublishing {
		slog.Warn("post is not claimed for publishing, skipping", "post_id", post.ID, "status", post.Status)
		return "", ErrAlreadyPublishing
	}

	return s.attempt(ctx, post)
}

// attempt runs steps 2-8 of the pipeline for a post that already holds the
// publishing claim. Every failure is recorded on the post before it is
// returned.
func (s *publishService) attempt(ctx context.Context, post *models.Post) (string, error) {
	if err := s.checkChannels(ctx, post); err != nil {
		return "", s.fail(ctx, post.ID, err)
	}

	creds, err := s.creds.Resolve(ctx, models.PlatformInstagram)
	if err != nil {
		return "", s.fail(ctx, post.ID, err)
	}

	imageURL, err := s.resolveMedia(ctx, post)
	if err != nil {
		return "", s.fail(ctx, post.ID, err)
	}

	containerID, err := s.publisher.CreateContainer(ctx, creds, imageURL, post.Content)
	if err != nil {
		return "", s.fail(ctx, post.ID, err)
	}

	// Instagram needs time to ingest the media before the container can be
	// published. The wait is unconditional; container-ready status is not
	// polled.
	slog.Info("waiting for remote media processing", "post_id", post.ID, "wait", s.wait)
	select {
	case <-time.After(s.wait):
	case <-ctx.Done():
		return "", s.fail(ctx, post.ID, ctx.Err())
	}

	mediaID, err := s.publisher.PublishContainer(ctx, creds, containerID)
	if err != nil {
		return "", s.fail(ctx, post.ID, err)
	}

	if err := s.pr.MarkPublished(ctx, post.ID, mediaID); err != nil {
		slog.Error("post published remotely but status update failed", "post_id", post.ID, "error", err)
		return mediaID, err
	}

	slog.Info("post published", "post_id", post.ID, "media_id", mediaID)
	return mediaID, nil
}

// checkChannels verifies the post targets at least one active instagram
// channel. Posts without explicit channel targets fall through to the default
// instagram account; other platforms are accepted but not delivered remotely.
func (s *publishService) checkChannels(ctx context.Context, post *models.Post) error {
	if len(post.Channels) == 0 {
		return nil
	}

	channels, err := s.cr.ListByIDs(ctx, post.Channels)
	if err != nil {
		return err
	}
	for _, ch := range channels {
		if ch.Platform == models.PlatformInstagram && ch.IsActive {
			return nil
		}
		if ch.Platform != models.PlatformInstagram {
			slog.Info("skipping unsupported platform target", "post_id", post.ID, "platform", ch.Platform)
		}
	}
	return ErrNoChannel
}

// resolveMedia ensures every attached asset is publicly reachable and returns
// the hosted URL of the first one. A hosting failure on any asset aborts the
// whole attempt; there is no partial posting.
func (s *publishService) resolveMedia(ctx context.Context, post *models.Post) (string, error) {
	var imageURL string
	for i, assetID := range post.MediaAssets {
		asset, err := s.ar.GetByID(ctx, assetID)
		if err != nil {
			return "", err
		}
		if asset == nil {
			return "", fmt.Errorf("asset %d: %w", assetID, ErrAssetNotFound)
		}

		hosted, err := s.hosting.EnsurePublic(ctx, asset.FilePath)
		if err != nil {
			return "", err
		}
		if i == 0 {
			imageURL = hosted
		}
	}
	return imageURL, nil
}

// fail records the terminal failed status and last_error on the post, then
// returns the original error to the caller.
func (s *publishService) fail(ctx context.Context, postID int64, cause error) error {
	msg := truncate(cause.Error(), 1000)
	if err := s.pr.MarkFailed(ctx, postID, msg); err != nil {
		slog.Error("failed to record publish error", "post_id", postID, "error", err)
	}
	slog.Error("publish attempt failed", "post_id", postID, "error", cause)
	return cause
}
