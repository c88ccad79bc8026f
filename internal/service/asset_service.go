package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/h2non/filetype"
	gonanoid "github.com/matoous/go-nanoid/v2"

	config "github.com/velvetqueue/velvetqueue/configs"
	"github.com/velvetqueue/velvetqueue/internal/models"
	"github.com/velvetqueue/velvetqueue/internal/repository"
)

type AssetService interface {
	Upload(ctx context.Context, fileHeader *multipart.FileHeader) (*models.Asset, error)
	List(ctx context.Context) ([]*models.Asset, error)
	Get(ctx context.Context, assetID int64) (*models.Asset, error)
}

type assetService struct {
	cfg config.Config
	ar  repository.AssetRepository
	r2  *R2Service
}

func NewAssetService(cfg config.Config, ar repository.AssetRepository, r2 *R2Service) AssetService {
	return &assetService{cfg: cfg, ar: ar, r2: r2}
}

func (s *assetService) Upload(ctx context.Context, fileHeader *multipart.FileHeader) (*models.Asset, error) {
	if fileHeader == nil {
		return nil, errors.New("no file provided")
	}

	file, err := fileHeader.Open()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	kind, _ := filetype.Match(data)
	if kind == filetype.Unknown {
		return nil, errors.New("unsupported file type")
	}

	assetType := models.AssetTypeImage
	if kind.MIME.Type == "video" {
		assetType = models.AssetTypeVideo
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	fileName := fmt.Sprintf("upload_%s.%s", id, kind.Extension)

	filePath, err := s.store(ctx, fileName, data, kind.MIME.Value)
	if err != nil {
		return nil, err
	}

	asset := &models.Asset{
		FilePath:  filePath,
		AssetType: assetType,
		FileSize:  int64(len(data)),
	}
	assetID, err := s.ar.Create(ctx, asset)
	if err != nil {
		return nil, err
	}
	asset.ID = assetID

	slog.Info("asset uploaded", "asset_id", asset.ID, "path", asset.FilePath)
	return asset, nil
}

// store writes the file to R2 when configured, otherwise under the local
// media directory.
func (s *assetService) store(ctx context.Context, fileName string, data []byte, mime string) (string, error) {
	if s.r2 != nil && s.r2.Configured() {
		if err := s.r2.Upload(ctx, fileName, data, mime); err != nil {
			return "", err
		}
		return s.r2.PublicURL(fileName), nil
	}

	if err := os.MkdirAll(s.cfg.MediaDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.cfg.MediaDir, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (s *assetService) List(ctx context.Context) ([]*models.Asset, error) {
	return s.ar.List(ctx)
}

func (s *assetService) Get(ctx context.Context, assetID int64) (*models.Asset, error) {
	asset, err := s.ar.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, ErrAssetNotFound
	}
	return asset, nil
}
