package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/velvetqueue/velvetqueue/internal/models"
	"github.com/velvetqueue/velvetqueue/internal/repository"
	"github.com/velvetqueue/velvetqueue/internal/transfer"
)

type fakeCrudPostRepo struct {
	repository.PostRepository

	posts        map[int64]*models.Post
	nextID       int64
	created      *models.Post
	updated      map[string]interface{}
	scheduleOK   bool
	scheduled    *time.Time
	listAlled    bool
	listedStatus string
}

func newFakeCrudPostRepo(posts ...*models.Post) *fakeCrudPostRepo {
	m := make(map[int64]*models.Post, len(posts))
	for _, p := range posts {
		m[p.ID] = p
	}
	return &fakeCrudPostRepo{posts: m, nextID: 100, scheduleOK: true}
}

func (f *fakeCrudPostRepo) Create(ctx context.Context, post *models.Post) (int64, error) {
	f.nextID++
	post.ID = f.nextID
	f.created = post
	f.posts[post.ID] = post
	return post.ID, nil
}

func (f *fakeCrudPostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	return f.posts[id], nil
}

func (f *fakeCrudPostRepo) ListAll(ctx context.Context) ([]*models.Post, error) {
	f.listAlled = true
	return nil, nil
}

func (f *fakeCrudPostRepo) ListByStatus(ctx context.Context, status string) ([]*models.Post, error) {
	f.listedStatus = status
	return nil, nil
}

func (f *fakeCrudPostRepo) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	f.updated = fields
	return nil
}

func (f *fakeCrudPostRepo) Schedule(ctx context.Context, id int64, scheduledTime time.Time) (bool, error) {
	if !f.scheduleOK {
		return false, nil
	}
	f.scheduled = &scheduledTime
	if p, ok := f.posts[id]; ok {
		p.Status = models.PostStatusScheduled
		p.ScheduledTime = &scheduledTime
	}
	return true, nil
}

func TestCreateDraft(t *testing.T) {
	repo := newFakeCrudPostRepo()
	svc := NewPostService(repo)

	id, err := svc.Create(context.Background(), &transfer.PostCreation{Content: "Hello"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if id == 0 {
		t.Error("expected a post id")
	}
	if repo.created.Status != models.PostStatusDraft {
		t.Errorf("expected default status draft, got %q", repo.created.Status)
	}
}

func TestCreateScheduled(t *testing.T) {
	repo := newFakeCrudPostRepo()
	svc := NewPostService(repo)

	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	_, err := svc.Create(context.Background(), &transfer.PostCreation{
		Content:       "Hello",
		Status:        models.PostStatusScheduled,
		ScheduledTime: future,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if repo.created.Status != models.PostStatusScheduled {
		t.Errorf("expected status scheduled, got %q", repo.created.Status)
	}
	if repo.created.ScheduledTime == nil {
		t.Error("expected scheduled time recorded")
	}
}

func TestCreateRejectsInvalidInitialStatus(t *testing.T) {
	svc := NewPostService(newFakeCrudPostRepo())

	for _, status := range []string{models.PostStatusPublishing, models.PostStatusPublished, models.PostStatusFailed, "bogus"} {
		if _, err := svc.Create(context.Background(), &transfer.PostCreation{Content: "x", Status: status}); err == nil {
			t.Errorf("expected error for initial status %q", status)
		}
	}
}

func TestCreateRejectsEmptyPost(t *testing.T) {
	svc := NewPostService(newFakeCrudPostRepo())

	if _, err := svc.Create(context.Background(), &transfer.PostCreation{}); err == nil {
		t.Error("expected error for post with no caption and no media")
	}
}

func TestCreateAllowsMediaOnlyPost(t *testing.T) {
	svc := NewPostService(newFakeCrudPostRepo())

	if _, err := svc.Create(context.Background(), &transfer.PostCreation{MediaAssets: []int64{1}}); err != nil {
		t.Errorf("media-only post should be allowed: %v", err)
	}
}

func TestCreateScheduledRequiresFutureTime(t *testing.T) {
	svc := NewPostService(newFakeCrudPostRepo())

	_, err := svc.Create(context.Background(), &transfer.PostCreation{
		Content: "Hello",
		Status:  models.PostStatusScheduled,
	})
	if err == nil {
		t.Error("expected error for scheduled post without a time")
	}

	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	_, err = svc.Create(context.Background(), &transfer.PostCreation{
		Content:       "Hello",
		Status:        models.PostStatusScheduled,
		ScheduledTime: past,
	})
	if err == nil {
		t.Error("expected error for scheduled post with a past time")
	}
}

func TestGetNotFound(t *testing.T) {
	svc := NewPostService(newFakeCrudPostRepo())

	_, err := svc.Get(context.Background(), 42)
	if !errors.Is(err, ErrPostNotFound) {
		t.Errorf("expected ErrPostNotFound, got %v", err)
	}
}

func TestListAllStatuses(t *testing.T) {
	repo := newFakeCrudPostRepo()
	svc := NewPostService(repo)

	for _, status := range []string{"", "all"} {
		repo.listAlled = false
		if _, err := svc.List(context.Background(), status); err != nil {
			t.Fatalf("List(%q) returned error: %v", status, err)
		}
		if !repo.listAlled {
			t.Errorf("List(%q) should list every status", status)
		}
	}

	if _, err := svc.List(context.Background(), models.PostStatusDraft); err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if repo.listedStatus != models.PostStatusDraft {
		t.Errorf("expected status filter draft, got %q", repo.listedStatus)
	}

	if _, err := svc.List(context.Background(), "bogus"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestUpdateDraftOnly(t *testing.T) {
	repo := newFakeCrudPostRepo(
		&models.Post{ID: 1, Status: models.PostStatusDraft, Content: "old"},
		&models.Post{ID: 2, Status: models.PostStatusScheduled},
		&models.Post{ID: 3, Status: models.PostStatusPublished},
	)
	svc := NewPostService(repo)

	content := "new"
	if _, err := svc.Update(context.Background(), 1, &transfer.PostUpdate{Content: &content}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if repo.updated["content"] != "new" {
		t.Errorf("expected content update, got %v", repo.updated)
	}

	for _, id := range []int64{2, 3} {
		if _, err := svc.Update(context.Background(), id, &transfer.PostUpdate{Content: &content}); !errors.Is(err, ErrNotEditable) {
			t.Errorf("post %d: expected ErrNotEditable, got %v", id, err)
		}
	}
}

func TestScheduleMovesPost(t *testing.T) {
	repo := newFakeCrudPostRepo(&models.Post{ID: 1, Status: models.PostStatusDraft, Content: "x"})
	svc := NewPostService(repo)

	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	if err := svc.Schedule(context.Background(), 1, future); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}
	if repo.scheduled == nil {
		t.Fatal("expected repository schedule call")
	}
}

func TestScheduleRejectsPastTime(t *testing.T) {
	repo := newFakeCrudPostRepo(&models.Post{ID: 1, Status: models.PostStatusDraft})
	svc := NewPostService(repo)

	past := time.Now().Add(-time.Minute).UTC().Format(time.RFC3339)
	if err := svc.Schedule(context.Background(), 1, past); err == nil {
		t.Error("expected error for past scheduled time")
	}
}

func TestScheduleLosesToActivePipeline(t *testing.T) {
	repo := newFakeCrudPostRepo(&models.Post{ID: 1, Status: models.PostStatusPublishing})
	repo.scheduleOK = false
	svc := NewPostService(repo)

	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	if err := svc.Schedule(context.Background(), 1, future); !errors.Is(err, ErrAlreadyPublishing) {
		t.Errorf("expected ErrAlreadyPublishing, got %v", err)
	}
}

func TestParseScheduledTimeFormats(t *testing.T) {
	if _, err := parseScheduledTime("2026-09-01T10:30:00Z"); err != nil {
		t.Errorf("RFC3339 should parse: %v", err)
	}
	if _, err := parseScheduledTime("2026-09-01T10:30"); err != nil {
		t.Errorf("datetime-local should parse: %v", err)
	}
	if _, err := parseScheduledTime("next tuesday"); err == nil {
		t.Error("expected error for unparsable time")
	}
}
