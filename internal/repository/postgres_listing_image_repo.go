package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/fleamart/internal/model"
)

// PostgresListingImageRepo はPostgreSQLを使用した出品画像リポジトリ。
type PostgresListingImageRepo struct {
	db *sql.DB
}

// NewPostgresListingImageRepo はPostgresListingImageRepoを生成する。
func NewPostgresListingImageRepo(db *sql.DB) *PostgresListingImageRepo {
	return &PostgresListingImageRepo{db: db}
}

// Create は画像メタデータ行を作成する。
func (r *PostgresListingImageRepo) Create(ctx context.Context, image *model.ListingImage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO listing_images (id, listing_id, user_id, url, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		image.ID, image.ListingID, image.UserID, image.URL, image.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert listing image: %w", err)
	}
	return nil
}

// ListByListingID は指定出品の画像一覧をcreated_at昇順で返す。
func (r *PostgresListingImageRepo) ListByListingID(ctx context.Context, listingID string) ([]model.ListingImage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, listing_id, user_id, url, created_at
		 FROM listing_images
		 WHERE listing_id = $1
		 ORDER BY created_at ASC`,
		listingID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list listing images: %w", err)
	}
	defer rows.Close()

	var images []model.ListingImage
	for rows.Next() {
		var img model.ListingImage
		if err := rows.Scan(&img.ID, &img.ListingID, &img.UserID, &img.URL, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan listing image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate listing images: %w", err)
	}

	return images, nil
}

// DeleteByListingID は指定出品の画像メタデータ行を全て削除する。
// ストレージ上のファイル自体は削除しない。
func (r *PostgresListingImageRepo) DeleteByListingID(ctx context.Context, listingID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM listing_images WHERE listing_id = $1`,
		listingID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete listing images: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ListingImageRepository = (*PostgresListingImageRepo)(nil)
