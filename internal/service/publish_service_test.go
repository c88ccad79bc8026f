package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/velvetqueue/velvetqueue/internal/models"
	"github.com/velvetqueue/velvetqueue/internal/repository"
	"github.com/velvetqueue/velvetqueue/internal/transfer"
)

type fakePostRepo struct {
	repository.PostRepository

	mu    sync.Mutex
	posts map[int64]*models.Post
}

func newFakePostRepo(posts ...*models.Post) *fakePostRepo {
	m := make(map[int64]*models.Post, len(posts))
	for _, p := range posts {
		m[p.ID] = p
	}
	return &fakePostRepo{posts: m}
}

func (f *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakePostRepo) Claim(ctx context.Context, id int64, fromStatuses []string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return false, nil
	}
	for _, s := range fromStatuses {
		if p.Status == s {
			p.Status = models.PostStatusPublishing
			now := time.Now().UTC()
			p.LastAttemptAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePostRepo) MarkPublished(ctx context.Context, id int64, remoteMediaID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return errors.New("post not found")
	}
	p.Status = models.PostStatusPublished
	p.RemoteMediaID = remoteMediaID
	p.LastError = ""
	return nil
}

func (f *fakePostRepo) MarkFailed(ctx context.Context, id int64, lastError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return errors.New("post not found")
	}
	if p.Status == models.PostStatusPublished {
		return nil
	}
	p.Status = models.PostStatusFailed
	p.LastError = lastError
	return nil
}

func (f *fakePostRepo) get(id int64) *models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts[id]
}

type fakeAssetRepo struct {
	assets map[int64]*models.Asset
}

func (f *fakeAssetRepo) Create(ctx context.Context, asset *models.Asset) (int64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeAssetRepo) GetByID(ctx context.Context, id int64) (*models.Asset, error) {
	return f.assets[id], nil
}

func (f *fakeAssetRepo) List(ctx context.Context) ([]*models.Asset, error) {
	return nil, nil
}

type fakeChannelRepo struct {
	repository.ChannelRepository

	channels map[int64]*models.Channel
}

func (f *fakeChannelRepo) ListByIDs(ctx context.Context, ids []int64) ([]*models.Channel, error) {
	var out []*models.Channel
	for _, id := range ids {
		if ch, ok := f.channels[id]; ok {
			out = append(out, ch)
		}
	}
	return out, nil
}

type fakeResolver struct {
	creds *transfer.Credentials
	err   error
}

func (f *fakeResolver) Resolve(ctx context.Context, platform string) (*transfer.Credentials, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.creds, nil
}

type fakeHosting struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeHosting) EnsurePublic(ctx context.Context, mediaRef string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example.com/" + mediaRef, nil
}

type fakePublisher struct {
	mu           sync.Mutex
	createCalls  int
	publishCalls int
	lastImageURL string
	createErr    error
	publishErr   error
}

func (f *fakePublisher) CreateContainer(ctx context.Context, creds *transfer.Credentials, imageURL, caption string) (string, error) {
	f.mu.Lock()
	f.createCalls++
	f.lastImageURL = imageURL
	f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	return "container-1", nil
}

func (f *fakePublisher) PublishContainer(ctx context.Context, creds *transfer.Credentials, containerID string) (string, error) {
	f.mu.Lock()
	f.publishCalls++
	f.mu.Unlock()
	if f.publishErr != nil {
		return "", f.publishErr
	}
	return "media-1", nil
}

type publishFixture struct {
	posts     *fakePostRepo
	assets    *fakeAssetRepo
	channels  *fakeChannelRepo
	resolver  *fakeResolver
	hosting   *fakeHosting
	publisher *fakePublisher
	svc       PublishService
}

func newPublishFixture(posts ...*models.Post) *publishFixture {
	f := &publishFixture{
		posts:     newFakePostRepo(posts...),
		assets:    &fakeAssetRepo{assets: map[int64]*models.Asset{}},
		channels:  &fakeChannelRepo{channels: map[int64]*models.Channel{}},
		resolver:  &fakeResolver{creds: &transfer.Credentials{AccountID: "123", AccessToken: "token"}},
		hosting:   &fakeHosting{},
		publisher: &fakePublisher{},
	}
	f.svc = NewPublishService(f.posts, f.assets, f.channels, f.resolver, f.hosting, f.publisher, 0)
	return f
}

func TestPublishDraftWithoutMedia(t *testing.T) {
	fx := newPublishFixture(&models.Post{ID: 1, Content: "Hello world", Status: models.PostStatusDraft})

	mediaID, err := fx.svc.Publish(context.Background(), 1)
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if mediaID != "media-1" {
		t.Errorf("expected media id media-1, got %q", mediaID)
	}

	p := fx.posts.get(1)
	if p.Status != models.PostStatusPublished {
		t.Errorf("expected status published, got %q", p.Status)
	}
	if p.RemoteMediaID != "media-1" {
		t.Errorf("expected remote media id recorded, got %q", p.RemoteMediaID)
	}
	if p.LastError != "" {
		t.Errorf("expected empty last error, got %q", p.LastError)
	}
	if fx.hosting.calls != 0 {
		t.Errorf("expected no hosting calls for a caption-only post, got %d", fx.hosting.calls)
	}
}

func TestPublishWithMediaUsesHostedURL(t *testing.T) {
	fx := newPublishFixture(&models.Post{
		ID:          2,
		Content:     "With image",
		MediaAssets: []int64{10},
		Status:      models.PostStatusDraft,
	})
	fx.assets.assets[10] = &models.Asset{ID: 10, FilePath: "generated_images/a.jpg"}

	if _, err := fx.svc.Publish(context.Background(), 2); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if fx.hosting.calls != 1 {
		t.Errorf("expected 1 hosting call, got %d", fx.hosting.calls)
	}
	if fx.publisher.lastImageURL != "https://cdn.example.com/generated_images/a.jpg" {
		t.Errorf("unexpected image url: %q", fx.publisher.lastImageURL)
	}
}

func TestPublishExpiredTokenMarksFailed(t *testing.T) {
	fx := newPublishFixture(&models.Post{ID: 3, Content: "Hello", Status: models.PostStatusDraft})
	fx.publisher.createErr = &RemoteAPIError{
		Code:         190,
		Type:         "OAuthException",
		Message:      "Session has expired",
		TokenExpired: true,
	}

	_, err := fx.svc.Publish(context.Background(), 3)
	if err == nil {
		t.Fatal("expected error for expired token")
	}
	if !IsTokenExpired(err) {
		t.Errorf("expected token-expired error, got %v", err)
	}

	p := fx.posts.get(3)
	if p.Status != models.PostStatusFailed {
		t.Errorf("expected status failed, got %q", p.Status)
	}
	if !strings.Contains(strings.ToLower(p.LastError), "expired") {
		t.Errorf("expected last error to mention expiry, got %q", p.LastError)
	}
	if p.RemoteMediaID != "" {
		t.Errorf("expected no remote media id on failure, got %q", p.RemoteMediaID)
	}
}

func TestPublishNotFound(t *testing.T) {
	fx := newPublishFixture()

	_, err := fx.svc.Publish(context.Background(), 99)
	if !errors.Is(err, ErrPostNotFound) {
		t.Errorf("expected ErrPostNotFound, got %v", err)
	}
}

func TestPublishNoCredentials(t *testing.T) {
	fx := newPublishFixture(&models.Post{ID: 4, Content: "Hello", Status: models.PostStatusDraft})
	fx.resolver.err = ErrNoCredentials

	_, err := fx.svc.Publish(context.Background(), 4)
	if !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}

	p := fx.posts.get(4)
	if p.Status != models.PostStatusFailed {
		t.Errorf("expected status failed, got %q", p.Status)
	}
	if p.LastError == "" {
		t.Error("expected last error to be recorded")
	}
	if fx.publisher.createCalls != 0 {
		t.Errorf("expected no remote calls without credentials, got %d", fx.publisher.createCalls)
	}
}

func TestPublishHostingFailureAbortsBeforeRemoteCalls(t *testing.T) {
	fx := newPublishFixture(&models.Post{
		ID:          5,
		Content:     "Hello",
		MediaAssets: []int64{10},
		Status:      models.PostStatusDraft,
	})
	fx.assets.assets[10] = &models.Asset{ID: 10, FilePath: "missing.jpg"}
	fx.hosting.err = &HostingError{StatusCode: 400, Message: "invalid key"}

	_, err := fx.svc.Publish(context.Background(), 5)
	var hostErr *HostingError
	if !errors.As(err, &hostErr) {
		t.Fatalf("expected HostingError, got %v", err)
	}
	if fx.publisher.createCalls != 0 {
		t.Errorf("expected no container creation after hosting failure, got %d", fx.publisher.createCalls)
	}

	p := fx.posts.get(5)
	if p.Status != models.PostStatusFailed {
		t.Errorf("expected status failed, got %q", p.Status)
	}
	if p.LastError == "" {
		t.Error("expected last error to be recorded")
	}
}

func TestPublishUnsupportedChannelTargets(t *testing.T) {
	fx := newPublishFixture(&models.Post{
		ID:       6,
		Content:  "Hello",
		Channels: []int64{20},
		Status:   models.PostStatusDraft,
	})
	fx.channels.channels[20] = &models.Channel{ID: 20, Platform: models.PlatformLinkedin, IsActive: true}

	_, err := fx.svc.Publish(context.Background(), 6)
	if !errors.Is(err, ErrNoChannel) {
		t.Fatalf("expected ErrNoChannel, got %v", err)
	}
	if fx.publisher.createCalls != 0 {
		t.Errorf("expected no remote calls, got %d", fx.publisher.createCalls)
	}
}

func TestPublishAlreadyPublishedIsIdempotent(t *testing.T) {
	fx := newPublishFixture(&models.Post{
		ID:            7,
		Content:       "Hello",
		Status:        models.PostStatusPublished,
		RemoteMediaID: "media-old",
	})

	mediaID, err := fx.svc.Publish(context.Background(), 7)
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if mediaID != "media-old" {
		t.Errorf("expected existing media id, got %q", mediaID)
	}
	if fx.publisher.createCalls != 0 {
		t.Errorf("expected no remote calls for published post, got %d", fx.publisher.createCalls)
	}
}

func TestPublishConcurrentClaimsRunOnce(t *testing.T) {
	fx := newPublishFixture(&models.Post{ID: 8, Content: "Hello", Status: models.PostStatusScheduled})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.svc.Publish(context.Background(), 8)
		}(i)
	}
	wg.Wait()

	if fx.publisher.createCalls != 1 {
		t.Fatalf("expected exactly one publish attempt, got %d", fx.publisher.createCalls)
	}

	// The loser either loses the claim or, if it reads late enough, hits
	// the idempotent already-published path. Either way only one remote
	// attempt happened.
	for _, err := range errs {
		if err != nil && !errors.Is(err, ErrAlreadyPublishing) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if fx.posts.get(8).Status != models.PostStatusPublished {
		t.Errorf("expected status published, got %q", fx.posts.get(8).Status)
	}
}

func TestPublishClaimedRequiresClaim(t *testing.T) {
	fx := newPublishFixture(&models.Post{ID: 9, Content: "Hello", Status: models.PostStatusDraft})

	_, err := fx.svc.PublishClaimed(context.Background(), 9)
	if !errors.Is(err, ErrAlreadyPublishing) {
		t.Fatalf("expected ErrAlreadyPublishing for unclaimed post, got %v", err)
	}
	if fx.publisher.createCalls != 0 {
		t.Errorf("expected no remote calls, got %d", fx.publisher.createCalls)
	}
}

func TestPublishClaimedRunsAttempt(t *testing.T) {
	fx := newPublishFixture(&models.Post{ID: 10, Content: "Hello", Status: models.PostStatusPublishing})

	mediaID, err := fx.svc.PublishClaimed(context.Background(), 10)
	if err != nil {
		t.Fatalf("PublishClaimed returned error: %v", err)
	}
	if mediaID != "media-1" {
		t.Errorf("expected media id media-1, got %q", mediaID)
	}
	if fx.posts.get(10).Status != models.PostStatusPublished {
		t.Errorf("expected status published, got %q", fx.posts.get(10).Status)
	}
}

func TestPublishContainerFailureMarksFailed(t *testing.T) {
	fx := newPublishFixture(&models.Post{ID: 11, Content: "Hello", Status: models.PostStatusFailed})
	fx.publisher.publishErr = &RemoteAPIError{Code: 1, Message: "An unknown error occurred"}

	_, err := fx.svc.Publish(context.Background(), 11)
	if err == nil {
		t.Fatal("expected error from publish step")
	}

	p := fx.posts.get(11)
	if p.Status != models.PostStatusFailed {
		t.Errorf("expected status failed, got %q", p.Status)
	}
	if p.LastError == "" {
		t.Error("expected last error to be recorded")
	}
}

func TestPublishTruncatesLongErrors(t *testing.T) {
	fx := newPublishFixture(&models.Post{ID: 12, Content: "Hello", Status: models.PostStatusDraft})
	fx.publisher.createErr = errors.New(strings.Repeat("x", 5000))

	if _, err := fx.svc.Publish(context.Background(), 12); err == nil {
		t.Fatal("expected error")
	}

	p := fx.posts.get(12)
	if len(p.LastError) > 1000 {
		t.Errorf("expected last error capped at 1000 chars, got %d", len(p.LastError))
	}
	if p.LastError == "" {
		t.Error("expected last error to be recorded")
	}
}
