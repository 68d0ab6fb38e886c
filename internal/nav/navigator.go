// Package nav はセッション状態とプロフィール充足度に基づく遷移先の決定を提供する。
package nav

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hitoshi/fleamart/internal/model"
	"github.com/hitoshi/fleamart/internal/repository"
)

// 遷移先パス。
const (
	PathHome         = "/"
	PathLogin        = "/login"
	PathProfile      = "/profile"
	PathProfileSetup = "/profile-setup"
)

// ナビゲーションに表示するアクションのセット。
// フロントエンドはこのキーをメニュー項目へマッピングする。
var (
	anonymousActions     = []string{"login", "signup"}
	authenticatedActions = []string{"sell", "wishlist", "profile", "logout"}
)

// State はナビゲーションの描画に必要な状態。
type State struct {
	Authenticated bool     `json:"authenticated"`
	DisplayName   string   `json:"display_name,omitempty"`
	Actions       []string `json:"actions"`
	Destination   string   `json:"destination"`
}

// CurrentUserFinder はセッションIDから現在のユーザーを取得するインターフェース。
// auth.Serviceが実装する。
type CurrentUserFinder interface {
	GetCurrentUser(ctx context.Context, sessionID string) *model.User
}

// Navigator は遷移先の決定を提供する。
type Navigator struct {
	users    CurrentUserFinder
	profiles repository.ProfileRepository
}

// NewNavigator はNavigatorを生成する。
func NewNavigator(users CurrentUserFinder, profiles repository.ProfileRepository) *Navigator {
	return &Navigator{users: users, profiles: profiles}
}

// State はセッション状態からナビゲーションの描画状態を組み立てる。
//   - 未認証: 匿名アクションセット、遷移先は/login
//   - 認証済みでプロフィール未設定（username空）: 遷移先は/profile-setup
//   - 認証済みでプロフィール設定済み: 遷移先は/profile
//
// 表示名はプロフィールのusername、未設定の場合はメールアドレスの
// ローカル部を使う。プロフィール取得の失敗は未設定と同じ扱いにする
// （描画状態の決定でエラーを返さない）。
func (n *Navigator) State(ctx context.Context, sessionID string) State {
	user := n.users.GetCurrentUser(ctx, sessionID)
	if user == nil {
		return State{
			Authenticated: false,
			Actions:       anonymousActions,
			Destination:   PathLogin,
		}
	}

	state := State{
		Authenticated: true,
		DisplayName:   emailLocalPart(user.Email),
		Actions:       authenticatedActions,
		Destination:   PathProfileSetup,
	}

	profile, err := n.profiles.FindByID(ctx, user.ID)
	if err != nil {
		slog.Warn("failed to load profile for navigation",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return state
	}
	if profile.IsComplete() {
		state.DisplayName = profile.Username
		state.Destination = PathProfile
	}
	return state
}

// Destination はセッション状態に応じた遷移先を返す。
func (n *Navigator) Destination(ctx context.Context, sessionID string) string {
	return n.State(ctx, sessionID).Destination
}

// AfterSignIn はログイン直後の遷移先を返す。
// プロフィールが設定済みなら/profile、未設定なら/profile-setup。
func (n *Navigator) AfterSignIn(ctx context.Context, userID string) string {
	profile, err := n.profiles.FindByID(ctx, userID)
	if err != nil {
		slog.Warn("failed to load profile for navigation",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return PathProfileSetup
	}
	if !profile.IsComplete() {
		return PathProfileSetup
	}
	return PathProfile
}

// AfterSignUp はサインアップ直後の遷移先を返す。
// 新規ユーザーはプロフィール未作成のため常にプロフィール設定画面へ誘導する。
func (n *Navigator) AfterSignUp() string {
	return PathProfileSetup
}

// AfterSignOut はログアウト直後の遷移先を返す。
func (n *Navigator) AfterSignOut() string {
	return PathHome
}

// emailLocalPart はメールアドレスの@より前の部分を返す。
// 区切りが見つからない場合はそのまま返す。
func emailLocalPart(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
