// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// FullNameとUsernameはサインアップ時のメタデータとして保持され、
// 公開表示にはProfileの同名フィールドを使用する。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	Username     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
// アプリケーションはセッションをリードスルーキャッシュとして扱い、
// ローカルに永続化しない。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// PasswordResetToken はパスワードリセットの単回使用トークンを表す。
type PasswordResetToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// SessionEventType はセッション状態遷移の種別を表す。
type SessionEventType string

const (
	// SessionSignedIn はサインインまたはサインアップによるセッション発行を示す。
	SessionSignedIn SessionEventType = "SIGNED_IN"
	// SessionSignedOut はサインアウトによるセッション破棄を示す。
	SessionSignedOut SessionEventType = "SIGNED_OUT"
)

// SessionEvent はセッション状態遷移の通知を表す。
// サインアウト時はSessionがnilになる。
type SessionEvent struct {
	Type    SessionEventType
	UserID  string
	Session *Session
}
