package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/fleamart/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用したプロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

// Upsert はユーザーIDをキーとした冪等なinsert-or-replaceを行い、保存後のレコードを返す。
func (r *PostgresProfileRepo) Upsert(ctx context.Context, profile *model.Profile) (*model.Profile, error) {
	stored := &model.Profile{}
	var avatarURL sql.NullString

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO profiles (id, username, full_name, bio, location, avatar_url, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
		 ON CONFLICT (id) DO UPDATE SET
		     username = EXCLUDED.username,
		     full_name = EXCLUDED.full_name,
		     bio = EXCLUDED.bio,
		     location = EXCLUDED.location,
		     avatar_url = EXCLUDED.avatar_url,
		     updated_at = EXCLUDED.updated_at
		 RETURNING id, username, full_name, bio, location, avatar_url, updated_at`,
		profile.ID, profile.Username, profile.FullName, profile.Bio,
		profile.Location, profile.AvatarURL, profile.UpdatedAt,
	).Scan(&stored.ID, &stored.Username, &stored.FullName, &stored.Bio,
		&stored.Location, &avatarURL, &stored.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}

	stored.AvatarURL = avatarURL.String
	return stored, nil
}

// FindByID は指定ユーザーIDのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByID(ctx context.Context, userID string) (*model.Profile, error) {
	profile := &model.Profile{}
	var avatarURL sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, full_name, bio, location, avatar_url, updated_at
		 FROM profiles WHERE id = $1`,
		userID,
	).Scan(&profile.ID, &profile.Username, &profile.FullName, &profile.Bio,
		&profile.Location, &avatarURL, &profile.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}

	profile.AvatarURL = avatarURL.String
	return profile, nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)
