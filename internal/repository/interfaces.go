// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/fleamart/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。メールアドレス重複時はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// UpdatePasswordHash は指定ユーザーのパスワードハッシュを更新する。
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// ProfileRepository はプロフィールデータの永続化インターフェース。
type ProfileRepository interface {
	// Upsert はユーザーIDをキーとした冪等なinsert-or-replaceを行い、
	// 保存後のレコードを返す。
	Upsert(ctx context.Context, profile *model.Profile) (*model.Profile, error)

	// FindByID は指定ユーザーIDのプロフィールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID string) (*model.Profile, error)
}

// ListingRepository は出品データの永続化インターフェース。
type ListingRepository interface {
	// Create は出品を作成する。ImageURLは未設定（NULL）で挿入される。
	Create(ctx context.Context, listing *model.Listing) error

	// FindByID は指定IDの出品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Listing, error)

	// FindDetailByID は出品を所有者プロフィールと子画像と結合して取得する。
	// 見つからない場合はnilを返す。
	FindDetailByID(ctx context.Context, id string) (*model.ListingDetail, error)

	// List はフィルタ条件に合う出品を所有者プロフィールと子画像付きで
	// created_at降順で返す。
	List(ctx context.Context, filter model.ListingFilter) ([]*model.ListingDetail, error)

	// UpdateImageURL は出品のカバー画像URLを更新する。
	UpdateImageURL(ctx context.Context, id, imageURL string) error

	// DeleteByID は指定IDの出品を削除する。
	DeleteByID(ctx context.Context, id string) error
}

// ListingImageRepository は出品画像メタデータの永続化インターフェース。
type ListingImageRepository interface {
	// Create は画像メタデータ行を作成する。
	Create(ctx context.Context, image *model.ListingImage) error

	// ListByListingID は指定出品の画像一覧をcreated_at昇順で返す。
	ListByListingID(ctx context.Context, listingID string) ([]model.ListingImage, error)

	// DeleteByListingID は指定出品の画像メタデータ行を全て削除する。
	// ストレージ上のファイル自体は削除しない。
	DeleteByListingID(ctx context.Context, listingID string) error
}

// ResetTokenRepository はパスワードリセットトークンの永続化インターフェース。
type ResetTokenRepository interface {
	// Create はトークンを作成する。
	Create(ctx context.Context, token *model.PasswordResetToken) error

	// Consume は有効なトークンを取得し同時に削除する（単回使用）。
	// 見つからない・期限切れの場合はnilを返す。
	Consume(ctx context.Context, token string) (*model.PasswordResetToken, error)
}
