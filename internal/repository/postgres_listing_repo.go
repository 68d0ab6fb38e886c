package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/hitoshi/fleamart/internal/model"
)

// psql はPostgreSQLプレースホルダ（$1, $2, ...）を使用するクエリビルダ。
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// listingDetailColumns は出品・所有者プロフィール結合クエリの選択カラム。
// listings↔profilesはuser_id経由の多対1で、プロフィール未作成の所有者も
// 許容するためLEFT JOINを使用する。
var listingDetailColumns = []string{
	"l.id", "l.user_id", "l.title", "l.description", "l.price", "l.currency",
	"l.category", "l.condition", "l.image_url", "l.created_at",
	"p.id", "p.username", "p.full_name", "p.avatar_url",
}

// PostgresListingRepo はPostgreSQLを使用した出品リポジトリ。
type PostgresListingRepo struct {
	db *sql.DB
}

// NewPostgresListingRepo はPostgresListingRepoを生成する。
func NewPostgresListingRepo(db *sql.DB) *PostgresListingRepo {
	return &PostgresListingRepo{db: db}
}

// Create は出品を作成する。ImageURLは未設定（NULL）で挿入される。
func (r *PostgresListingRepo) Create(ctx context.Context, listing *model.Listing) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO listings (id, user_id, title, description, price, currency, category, condition, image_url, created_at)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULL, $9)`,
		listing.ID, listing.UserID, listing.Title, listing.Description,
		listing.Price, listing.Currency, listing.Category, listing.Condition,
		listing.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert listing: %w", err)
	}
	return nil
}

// FindByID は指定IDの出品を取得する。見つからない場合はnilを返す。
func (r *PostgresListingRepo) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, description, price, currency, category, condition, image_url, created_at
		 FROM listings WHERE id = $1`,
		id,
	)

	listing, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}

	return listing, nil
}

// FindDetailByID は出品を所有者プロフィールと子画像と結合して取得する。
// 見つからない場合はnilを返す。
func (r *PostgresListingRepo) FindDetailByID(ctx context.Context, id string) (*model.ListingDetail, error) {
	query, args, err := psql.
		Select(listingDetailColumns...).
		From("listings l").
		LeftJoin("profiles p ON p.id = l.user_id").
		Where(sq.Eq{"l.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build listing detail query: %w", err)
	}

	row := r.db.QueryRowContext(ctx, query, args...)
	detail, err := scanListingDetail(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find listing detail: %w", err)
	}

	images, err := r.loadImages(ctx, []string{detail.ID})
	if err != nil {
		return nil, err
	}
	detail.Images = images[detail.ID]
	if detail.Images == nil {
		detail.Images = []model.ListingImage{}
	}

	return detail, nil
}

// List はフィルタ条件に合う出品を所有者プロフィールと子画像付きで
// created_at降順で返す。ゼロ値のフィルタフィールドは条件に含めない。
func (r *PostgresListingRepo) List(ctx context.Context, filter model.ListingFilter) ([]*model.ListingDetail, error) {
	builder := psql.
		Select(listingDetailColumns...).
		From("listings l").
		LeftJoin("profiles p ON p.id = l.user_id").
		OrderBy("l.created_at DESC")

	if filter.UserID != "" {
		builder = builder.Where(sq.Eq{"l.user_id": filter.UserID})
	}
	if filter.Category != "" {
		builder = builder.Where(sq.Eq{"l.category": filter.Category})
	}
	if filter.MaxPrice > 0 {
		builder = builder.Where(sq.LtOrEq{"l.price": filter.MaxPrice})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build listing list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer rows.Close()

	var details []*model.ListingDetail
	var ids []string
	for rows.Next() {
		detail, err := scanListingDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing row: %w", err)
		}
		detail.Images = []model.ListingImage{}
		details = append(details, detail)
		ids = append(ids, detail.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate listing rows: %w", err)
	}

	if len(ids) == 0 {
		return details, nil
	}

	images, err := r.loadImages(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, detail := range details {
		if imgs, ok := images[detail.ID]; ok {
			detail.Images = imgs
		}
	}

	return details, nil
}

// UpdateImageURL は出品のカバー画像URLを更新する。
func (r *PostgresListingRepo) UpdateImageURL(ctx context.Context, id, imageURL string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE listings SET image_url = $2 WHERE id = $1`,
		id, imageURL,
	)
	if err != nil {
		return fmt.Errorf("failed to update listing image_url: %w", err)
	}
	return nil
}

// DeleteByID は指定IDの出品を削除する。
func (r *PostgresListingRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM listings WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	return nil
}

// loadImages は複数の出品IDに対する子画像をまとめて取得し、出品IDごとに分類する。
func (r *PostgresListingRepo) loadImages(ctx context.Context, listingIDs []string) (map[string][]model.ListingImage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, listing_id, user_id, url, created_at
		 FROM listing_images
		 WHERE listing_id = ANY($1)
		 ORDER BY created_at ASC`,
		pq.Array(listingIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load listing images: %w", err)
	}
	defer rows.Close()

	images := make(map[string][]model.ListingImage)
	for rows.Next() {
		var img model.ListingImage
		if err := rows.Scan(&img.ID, &img.ListingID, &img.UserID, &img.URL, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan listing image: %w", err)
		}
		images[img.ListingID] = append(images[img.ListingID], img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate listing images: %w", err)
	}

	return images, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通スキャンインターフェース。
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanListing はlistings行をスキャンする。NULLカラムはゼロ値に変換する。
func scanListing(row rowScanner) (*model.Listing, error) {
	listing := &model.Listing{}
	var title, description, currency, category, condition, imageURL sql.NullString
	var price sql.NullFloat64

	err := row.Scan(&listing.ID, &listing.UserID, &title, &description, &price,
		&currency, &category, &condition, &imageURL, &listing.CreatedAt)
	if err != nil {
		return nil, err
	}

	listing.Title = title.String
	listing.Description = description.String
	listing.Price = price.Float64
	listing.Currency = currency.String
	listing.Category = category.String
	listing.Condition = condition.String
	listing.ImageURL = imageURL.String
	return listing, nil
}

// scanListingDetail はlistings行と所有者プロフィール抜粋をスキャンする。
// プロフィール未作成の所有者の場合はOwnerをnilにする。
func scanListingDetail(row rowScanner) (*model.ListingDetail, error) {
	detail := &model.ListingDetail{}
	var title, description, currency, category, condition, imageURL sql.NullString
	var price sql.NullFloat64
	var ownerID, ownerUsername, ownerFullName, ownerAvatarURL sql.NullString

	err := row.Scan(&detail.ID, &detail.UserID, &title, &description, &price,
		&currency, &category, &condition, &imageURL, &detail.CreatedAt,
		&ownerID, &ownerUsername, &ownerFullName, &ownerAvatarURL)
	if err != nil {
		return nil, err
	}

	detail.Title = title.String
	detail.Description = description.String
	detail.Price = price.Float64
	detail.Currency = currency.String
	detail.Category = category.String
	detail.Condition = condition.String
	detail.ImageURL = imageURL.String

	if ownerID.Valid {
		detail.Owner = &model.OwnerProfile{
			Username:  ownerUsername.String,
			FullName:  ownerFullName.String,
			AvatarURL: ownerAvatarURL.String,
		}
	}

	return detail, nil
}

// compile-time interface check
var _ ListingRepository = (*PostgresListingRepo)(nil)
