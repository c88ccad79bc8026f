package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/velvetqueue/velvetqueue/internal/models"
)

type AssetRepository interface {
	Create(ctx context.Context, asset *models.Asset) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Asset, error)
	List(ctx context.Context) ([]*models.Asset, error)
}

type assetRepository struct {
	db *sql.DB
}

func NewAssetRepository(db *sql.DB) AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) Create(ctx context.Context, asset *models.Asset) (int64, error) {
	query := `
		INSERT INTO assets (file_path, asset_type, prompt, file_size)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, asset.FilePath, asset.AssetType, asset.Prompt, asset.FileSize).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *assetRepository) GetByID(ctx context.Context, id int64) (*models.Asset, error) {
	query := `SELECT id, file_path, asset_type, prompt, file_size, created_at FROM assets WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var asset models.Asset
	err := row.Scan(&asset.ID, &asset.FilePath, &asset.AssetType, &asset.Prompt, &asset.FileSize, &asset.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &asset, nil
}

func (r *assetRepository) List(ctx context.Context) ([]*models.Asset, error) {
	query := `SELECT id, file_path, asset_type, prompt, file_size, created_at FROM assets ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var assets []*models.Asset
	for rows.Next() {
		var asset models.Asset
		err := rows.Scan(&asset.ID, &asset.FilePath, &asset.AssetType, &asset.Prompt, &asset.FileSize, &asset.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		assets = append(assets, &asset)
	}
	return assets, rows.Err()
}
