package model

import "time"

// Profile はユーザーが編集する公開プロフィールを表す。
// IDはIdentity側のユーザーIDと1:1で対応する安定した外部キー。
// 最初のアップサートで遅延作成され、所有者のみが変更できる。
type Profile struct {
	ID        string
	Username  string
	FullName  string
	Bio       string
	Location  string
	AvatarURL string
	UpdatedAt time.Time
}

// IsComplete はプロフィール必須項目（username）が設定済みかを返す。
// 未設定のユーザーはプロフィール設定画面へ誘導される。
func (p *Profile) IsComplete() bool {
	return p != nil && p.Username != ""
}
