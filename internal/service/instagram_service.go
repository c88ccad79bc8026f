package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	config "github.com/velvetqueue/velvetqueue/configs"
	"github.com/velvetqueue/velvetqueue/internal/transfer"
)

// Publisher is the remote platform capability the state machine depends on:
// stage a media container, then publish it.
type Publisher interface {
	CreateContainer(ctx context.Context, creds *transfer.Credentials, imageURL, caption string) (string, error)
	PublishContainer(ctx context.Context, creds *transfer.Credentials, containerID string) (string, error)
}

type instagramPublisher struct {
	cfg     config.Config
	baseURL string
	client  *http.Client
}

func NewInstagramPublisher(cfg config.Config) Publisher {
	return &instagramPublisher{
		cfg:     cfg,
		baseURL: "https://graph.facebook.com",
		client:  &http.Client{Timeout: cfg.HTTPTimeoutDuration()},
	}
}

func (p *instagramPublisher) CreateContainer(ctx context.Context, creds *transfer.Credentials, imageURL, caption string) (string, error) {
	url := fmt.Sprintf("%s/%s/%s/media", p.baseURL, p.cfg.InstagramAPIVersion, creds.AccountID)

	payload := map[string]interface{}{
		"access_token": creds.AccessToken,
	}
	if imageURL != "" {
		payload["image_url"] = imageURL
	}
	if caption != "" {
		payload["caption"] = caption
	}

	id, err := p.post(ctx, url, payload)
	if err != nil {
		return "", err
	}

	slog.Info("created media container", "container_id", id)
	return id, nil
}

func (p *instagramPublisher) PublishContainer(ctx context.Context, creds *transfer.Credentials, containerID string) (string, error) {
	url := fmt.Sprintf("%s/%s/%s/media_publish", p.baseURL, p.cfg.InstagramAPIVersion, creds.AccountID)

	payload := map[string]interface{}{
		"creation_id":  containerID,
		"access_token": creds.AccessToken,
	}

	id, err := p.post(ctx, url, payload)
	if err != nil {
		return "", err
	}

	slog.Info("published media container", "container_id", containerID, "media_id", id)
	return id, nil
}

func (p *instagramPublisher) post(ctx context.Context, url string, payload map[string]interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", decodeGraphError(resp.StatusCode, respBody)
	}

	var result transfer.GraphMediaResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	if result.ID == "" {
		return "", &RemoteAPIError{Message: fmt.Sprintf("no id returned from Instagram: %s", truncate(string(respBody), 500))}
	}

	return result.ID, nil
}

// decodeGraphError turns a non-2xx Graph API response into a RemoteAPIError,
// flagging the expired-token condition (code 190 or an expiry message) so it
// can be surfaced distinctly.
func decodeGraphError(statusCode int, body []byte) error {
	var graphErr transfer.GraphErrorResponse
	if err := json.Unmarshal(body, &graphErr); err != nil || graphErr.Error.Message == "" {
		return &RemoteAPIError{
			Code:    statusCode,
			Message: truncate(string(body), 500),
		}
	}

	msg := strings.ToLower(graphErr.Error.Message)
	expired := graphErr.Error.Code == 190 ||
		strings.Contains(msg, "expired") ||
		strings.Contains(msg, "session has expired")

	return &RemoteAPIError{
		Code:         graphErr.Error.Code,
		Type:         graphErr.Error.Type,
		Message:      graphErr.Error.Message,
		TokenExpired: expired,
	}
}
