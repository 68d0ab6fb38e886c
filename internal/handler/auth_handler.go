package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/fleamart/internal/middleware"
	"github.com/hitoshi/fleamart/internal/model"
	"github.com/hitoshi/fleamart/internal/nav"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	SignUp(ctx context.Context, email, password, fullName string) (*model.User, *model.Session, error)
	SignIn(ctx context.Context, email, password string) (*model.User, *model.Session, error)
	SignOut(ctx context.Context, sessionID string) error
	ResetPassword(ctx context.Context, email string) error
	CompleteReset(ctx context.Context, token, newPassword string) error
	GetCurrentUser(ctx context.Context, sessionID string) *model.User
}

// NavigatorInterface はナビゲーション描画状態と認証後の遷移先決定のインターフェース。
type NavigatorInterface interface {
	State(ctx context.Context, sessionID string) nav.State
	AfterSignIn(ctx context.Context, userID string) string
	AfterSignUp() string
	AfterSignOut() string
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はパスワード認証関連のHTTPハンドラー。
// 状態変更系のエンドポイントは成功時に303 See Otherで遷移先へリダイレクトする。
type AuthHandler struct {
	service   AuthServiceInterface
	navigator NavigatorInterface
	config    AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, navigator NavigatorInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service:   service,
		navigator: navigator,
		config:    config,
	}
}

// signUpRequest はサインアップリクエストのボディ。
type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// signInRequest はログインリクエストのボディ。
type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// resetPasswordRequest はパスワードリセット申請のボディ。
type resetPasswordRequest struct {
	Email string `json:"email"`
}

// completeResetRequest はパスワードリセット完了のボディ。
type completeResetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// SignUp はアカウント作成を処理する。
// POST /auth/signup
// 成功時はセッションCookieを設定し、プロフィール設定画面へ303でリダイレクトする。
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteAPIError(w, invalidRequestError())
		return
	}

	_, session, err := h.service.SignUp(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, session.ID)
	http.Redirect(w, r, h.navigator.AfterSignUp(), http.StatusSeeOther)
}

// SignIn はログインを処理する。
// POST /auth/login
// 成功時はセッションCookieを設定し、プロフィール充足度に応じた遷移先へ
// 303でリダイレクトする（未設定: /profile-setup、設定済み: /profile）。
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteAPIError(w, invalidRequestError())
		return
	}

	user, session, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, session.ID)
	http.Redirect(w, r, h.navigator.AfterSignIn(r.Context(), user.ID), http.StatusSeeOther)
}

// SignOut はログアウトを処理する。
// POST /auth/logout
// セッション破棄に失敗してもCookieはクリアし、ホームへ303でリダイレクトする。
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionIDFromRequest(r)
	if sessionID != "" {
		if err := h.service.SignOut(r.Context(), sessionID); err != nil {
			slog.Error("failed to sign out", slog.String("error", err.Error()))
		}
	}

	h.clearSessionCookie(w)
	http.Redirect(w, r, h.navigator.AfterSignOut(), http.StatusSeeOther)
}

// ResetPassword はパスワードリセット申請を処理する。
// POST /auth/reset-password
// アカウント列挙を防ぐため、メールアドレスの登録有無に関わらず202を返す。
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteAPIError(w, invalidRequestError())
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Email); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]bool{"accepted": true})
}

// CompleteReset はパスワードリセットの完了を処理する。
// POST /auth/reset-password/complete
func (h *AuthHandler) CompleteReset(w http.ResponseWriter, r *http.Request) {
	var req completeResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteAPIError(w, invalidRequestError())
		return
	}

	if err := h.service.CompleteReset(r.Context(), req.Token, req.NewPassword); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionIDFromRequest(r)
	user := h.service.GetCurrentUser(r.Context(), sessionID)
	if user == nil {
		middleware.WriteAPIError(w, model.NewAuthRequiredError())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":        user.ID,
		"email":     user.Email,
		"full_name": user.FullName,
	})
}

// setSessionCookie はセッションCookieを設定する（HTTP Only）。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie はセッションCookieをクリアする。
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
