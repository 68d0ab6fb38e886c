package nav

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/hitoshi/fleamart/internal/model"
)

type mockUserFinder struct {
	user *model.User
}

func (m *mockUserFinder) GetCurrentUser(ctx context.Context, sessionID string) *model.User {
	return m.user
}

type mockProfileRepo struct {
	profile *model.Profile
	findErr error
}

func (m *mockProfileRepo) Upsert(ctx context.Context, profile *model.Profile) (*model.Profile, error) {
	return profile, nil
}

func (m *mockProfileRepo) FindByID(ctx context.Context, userID string) (*model.Profile, error) {
	return m.profile, m.findErr
}

func TestDestination(t *testing.T) {
	tests := []struct {
		name    string
		user    *model.User
		profile *model.Profile
		findErr error
		want    string
	}{
		{
			name: "未認証はログイン画面へ",
			user: nil,
			want: PathLogin,
		},
		{
			name: "プロフィール未作成はプロフィール設定画面へ",
			user: &model.User{ID: "u-1"},
			want: PathProfileSetup,
		},
		{
			name:    "username未設定はプロフィール設定画面へ",
			user:    &model.User{ID: "u-1"},
			profile: &model.Profile{ID: "u-1"},
			want:    PathProfileSetup,
		},
		{
			name:    "設定済みはプロフィール画面へ",
			user:    &model.User{ID: "u-1"},
			profile: &model.Profile{ID: "u-1", Username: "taro"},
			want:    PathProfile,
		},
		{
			name:    "プロフィール取得失敗は未設定と同じ扱い",
			user:    &model.User{ID: "u-1"},
			findErr: errors.New("db down"),
			want:    PathProfileSetup,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNavigator(
				&mockUserFinder{user: tt.user},
				&mockProfileRepo{profile: tt.profile, findErr: tt.findErr},
			)
			if got := n.Destination(context.Background(), "session-1"); got != tt.want {
				t.Errorf("Destination() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestState(t *testing.T) {
	tests := []struct {
		name    string
		user    *model.User
		profile *model.Profile
		findErr error
		want    State
	}{
		{
			name: "未認証は匿名アクションセット",
			user: nil,
			want: State{
				Authenticated: false,
				Actions:       []string{"login", "signup"},
				Destination:   PathLogin,
			},
		},
		{
			name:    "プロフィール設定済みはusernameを表示名にする",
			user:    &model.User{ID: "u-1", Email: "taro@example.com"},
			profile: &model.Profile{ID: "u-1", Username: "taro_yamada"},
			want: State{
				Authenticated: true,
				DisplayName:   "taro_yamada",
				Actions:       []string{"sell", "wishlist", "profile", "logout"},
				Destination:   PathProfile,
			},
		},
		{
			name: "username未設定はメールのローカル部を表示名にする",
			user: &model.User{ID: "u-1", Email: "taro@example.com"},
			want: State{
				Authenticated: true,
				DisplayName:   "taro",
				Actions:       []string{"sell", "wishlist", "profile", "logout"},
				Destination:   PathProfileSetup,
			},
		},
		{
			name:    "プロフィール取得失敗も未設定と同じ扱い",
			user:    &model.User{ID: "u-1", Email: "hanako@example.com"},
			findErr: errors.New("db down"),
			want: State{
				Authenticated: true,
				DisplayName:   "hanako",
				Actions:       []string{"sell", "wishlist", "profile", "logout"},
				Destination:   PathProfileSetup,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNavigator(
				&mockUserFinder{user: tt.user},
				&mockProfileRepo{profile: tt.profile, findErr: tt.findErr},
			)
			if got := n.State(context.Background(), "session-1"); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("State() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEmailLocalPart(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"taro@example.com", "taro"},
		{"taro.yamada@mail.example.co.jp", "taro.yamada"},
		{"no-at-sign", "no-at-sign"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := emailLocalPart(tt.email); got != tt.want {
			t.Errorf("emailLocalPart(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}

func TestAfterSignUp_AlwaysProfileSetup(t *testing.T) {
	n := NewNavigator(&mockUserFinder{}, &mockProfileRepo{})
	if got := n.AfterSignUp(); got != PathProfileSetup {
		t.Errorf("AfterSignUp() = %q, want %q", got, PathProfileSetup)
	}
}

func TestAfterSignOut_Home(t *testing.T) {
	n := NewNavigator(&mockUserFinder{}, &mockProfileRepo{})
	if got := n.AfterSignOut(); got != PathHome {
		t.Errorf("AfterSignOut() = %q, want %q", got, PathHome)
	}
}
