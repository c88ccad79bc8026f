package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	config "github.com/velvetqueue/velvetqueue/configs"
)

// HostingService guarantees that a media reference is fetchable by the remote
// publishing API. Already-public URLs pass through untouched; loopback URLs
// and bare local paths are either rewritten onto PUBLIC_BASE_URL or uploaded
// to the image hosting endpoint.
type HostingService interface {
	EnsurePublic(ctx context.Context, mediaRef string) (string, error)
}

type hostingService struct {
	cfg    config.Config
	client *http.Client
}

func NewHostingService(cfg config.Config) HostingService {
	return &hostingService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.HTTPTimeoutDuration()},
	}
}

func (s *hostingService) EnsurePublic(ctx context.Context, mediaRef string) (string, error) {
	if strings.HasPrefix(mediaRef, "http://") || strings.HasPrefix(mediaRef, "https://") {
		u, err := url.Parse(mediaRef)
		if err != nil {
			return "", &HostingError{Message: fmt.Sprintf("invalid media URL %q: %v", mediaRef, err)}
		}
		if !isLoopbackHost(u.Hostname()) {
			return mediaRef, nil
		}
		if base := s.publicBase(); base != "" {
			return base + u.Path, nil
		}
		// The URL points at this server; upload the underlying file instead.
		return s.upload(ctx, strings.TrimPrefix(u.Path, "/"))
	}

	if base := s.publicBase(); base != "" {
		cleanPath := strings.TrimPrefix(strings.TrimPrefix(mediaRef, "./"), "/")
		return base + "/" + filepath.ToSlash(cleanPath), nil
	}
	return s.upload(ctx, mediaRef)
}

// publicBase returns the configured public base URL when it is usable, that
// is set and not itself a loopback address.
func (s *hostingService) publicBase() string {
	base := strings.TrimSuffix(s.cfg.PublicBaseURL, "/")
	if base == "" {
		return ""
	}
	if u, err := url.Parse(base); err == nil && isLoopbackHost(u.Hostname()) {
		return ""
	}
	return base
}

func (s *hostingService) upload(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", &HostingError{Message: fmt.Sprintf("image file not found: %s", path)}
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("source", filepath.Base(path))
	if err != nil {
		return "", &HostingError{Message: err.Error()}
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", &HostingError{Message: err.Error()}
	}
	writer.WriteField("key", s.cfg.FreeimageAPIKey)
	writer.WriteField("format", "json")
	if err := writer.Close(); err != nil {
		return "", &HostingError{Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.FreeimageURL, &buf)
	if err != nil {
		return "", &HostingError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &HostingError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &HostingError{StatusCode: resp.StatusCode, Message: err.Error()}
	}

	var result struct {
		StatusCode int `json:"status_code"`
		Image      struct {
			URL string `json:"url"`
		} `json:"image"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &HostingError{StatusCode: resp.StatusCode, Message: truncate(string(body), 500)}
	}

	if resp.StatusCode != http.StatusOK || result.StatusCode != http.StatusOK {
		msg := result.Error.Message
		if msg == "" {
			msg = truncate(string(body), 500)
		}
		return "", &HostingError{StatusCode: resp.StatusCode, Message: msg}
	}
	if result.Image.URL == "" {
		return "", &HostingError{StatusCode: resp.StatusCode, Message: "hosting service did not return a URL"}
	}

	slog.Info("uploaded image to hosting service", "url", result.Image.URL)
	return result.Image.URL, nil
}

func isLoopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback() || ip.IsUnspecified() || ip.IsPrivate()
	}
	return false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
