package service

import (
	"context"
	"log/slog"
	"strings"

	config "github.com/velvetqueue/velvetqueue/configs"
	"github.com/velvetqueue/velvetqueue/internal/models"
	"github.com/velvetqueue/velvetqueue/internal/repository"
	"github.com/velvetqueue/velvetqueue/internal/transfer"
	"github.com/velvetqueue/velvetqueue/pkg/utils"
)

// CredentialResolver resolves the active credentials for a platform.
// Environment-supplied credentials win over the channels table; when the
// environment is used, the matching channel row is upserted so later reads
// stay consistent.
type CredentialResolver interface {
	Resolve(ctx context.Context, platform string) (*transfer.Credentials, error)
}

type credentialResolver struct {
	cfg config.Config
	cr  repository.ChannelRepository
}

func NewCredentialResolver(cfg config.Config, cr repository.ChannelRepository) CredentialResolver {
	return &credentialResolver{cfg: cfg, cr: cr}
}

func (s *credentialResolver) Resolve(ctx context.Context, platform string) (*transfer.Credentials, error) {
	if platform == models.PlatformInstagram {
		accountID := sanitizeCredential(s.cfg.InstagramUserID)
		token := sanitizeCredential(s.cfg.InstagramToken)
		if accountID != "" && token != "" {
			s.syncChannel(ctx, accountID, token)
			return &transfer.Credentials{AccountID: accountID, AccessToken: token}, nil
		}
	}

	ch, err := s.cr.GetActiveByPlatform(ctx, platform)
	if err != nil {
		return nil, err
	}
	if ch == nil || ch.AccountID == "" || ch.AccessToken == "" {
		return nil, ErrNoCredentials
	}

	token, err := utils.Decrypt(ch.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if token == "" {
		return nil, ErrNoCredentials
	}

	return &transfer.Credentials{AccountID: ch.AccountID, AccessToken: token}, nil
}

// syncChannel mirrors the environment credentials into the channels table.
// The upsert is opportunistic; a storage failure must not block the publish
// attempt that triggered it.
func (s *credentialResolver) syncChannel(ctx context.Context, accountID, token string) {
	encrypted, err := utils.Encrypt([]byte(token), []byte(s.cfg.SecretKey))
	if err != nil {
		slog.Info(err.Error())
		return
	}

	ch := &models.Channel{
		Platform:    models.PlatformInstagram,
		Name:        "Default Account",
		AccountID:   accountID,
		AccessToken: encrypted,
		IsActive:    true,
	}
	if _, err := s.cr.Upsert(ctx, ch); err != nil {
		slog.Info(err.Error())
	}
}

// sanitizeCredential strips whitespace and stray quoting that tends to leak
// in from .env files.
func sanitizeCredential(v string) string {
	return strings.Trim(strings.TrimSpace(v), `"'`)
}
