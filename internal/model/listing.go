package model

import "time"

// Listing はマーケットプレイスの出品を表す。
// UserIDは作成後に変更されない所有者の外部キー。
// ImageURLはカバー画像のURLで、設定される場合は自身の子画像行のURLを参照する。
type Listing struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Price       float64
	Currency    string
	Category    string
	Condition   string
	ImageURL    string // カバー画像。空文字は未設定を表す。
	CreatedAt   time.Time
}

// ListingImage は出品に紐付く画像メタデータ行を表す。
// UserIDは親Listingの所有者の非正規化コピー。
type ListingImage struct {
	ID        string
	ListingID string
	UserID    string
	URL       string
	CreatedAt time.Time
}

// OwnerProfile は出品表示用の所有者プロフィール抜粋。
// listings↔profiles結合（user_id経由の多対1）の読み取り専用ビュー。
type OwnerProfile struct {
	Username  string
	FullName  string
	AvatarURL string
}

// ListingDetail は出品と所有者プロフィール、子画像を結合した集約。
// 一覧・詳細・作成後の再取得で返される形。
type ListingDetail struct {
	Listing
	Owner  *OwnerProfile // 結合を省略する照会ではnil
	Images []ListingImage
}

// ListingFilter は出品一覧の絞り込み条件を表す。
// ゼロ値のフィールドは条件として使用しない。
type ListingFilter struct {
	UserID   string
	Category string
	MaxPrice float64
}
