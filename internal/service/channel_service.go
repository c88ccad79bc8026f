package service

import (
	"context"
	"errors"
	"log/slog"

	config "github.com/velvetqueue/velvetqueue/configs"
	"github.com/velvetqueue/velvetqueue/internal/models"
	"github.com/velvetqueue/velvetqueue/internal/repository"
	"github.com/velvetqueue/velvetqueue/internal/transfer"
	"github.com/velvetqueue/velvetqueue/pkg/utils"
)

type ChannelService interface {
	List(ctx context.Context) ([]*models.Channel, error)
	Connect(ctx context.Context, req *transfer.ChannelConnect) (*models.Channel, error)
}

type channelService struct {
	cfg config.Config
	cr  repository.ChannelRepository
}

func NewChannelService(cfg config.Config, cr repository.ChannelRepository) ChannelService {
	return &channelService{cfg: cfg, cr: cr}
}

// List returns all connected channels. An empty table with instagram
// credentials in the environment seeds the default channel first, so fresh
// deployments show their connection without an explicit connect call.
func (s *channelService) List(ctx context.Context) ([]*models.Channel, error) {
	channels, err := s.cr.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(channels) > 0 {
		return channels, nil
	}

	accountID := sanitizeCredential(s.cfg.InstagramUserID)
	token := sanitizeCredential(s.cfg.InstagramToken)
	if accountID == "" || token == "" {
		return channels, nil
	}

	_, err = s.Connect(ctx, &transfer.ChannelConnect{
		Platform:    models.PlatformInstagram,
		Name:        "Default Account",
		AccountID:   accountID,
		AccessToken: token,
	})
	if err != nil {
		slog.Info(err.Error())
		return channels, nil
	}

	return s.cr.List(ctx)
}

func (s *channelService) Connect(ctx context.Context, req *transfer.ChannelConnect) (*models.Channel, error) {
	if req.Platform == "" || req.Name == "" {
		return nil, errors.New("platform and name are required")
	}
	if req.AccountID == "" || req.AccessToken == "" {
		return nil, errors.New("user_id and access_token are required")
	}

	encrypted, err := utils.Encrypt([]byte(req.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	ch := &models.Channel{
		Platform:    req.Platform,
		Name:        req.Name,
		AccountID:   req.AccountID,
		AccessToken: encrypted,
		IsActive:    true,
	}

	id, err := s.cr.Upsert(ctx, ch)
	if err != nil {
		return nil, err
	}
	ch.ID = id

	slog.Info("channel connected", "platform", ch.Platform, "name", ch.Name)
	return ch, nil
}
