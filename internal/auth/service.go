// Package auth はパスワード認証、セッション管理、セッション状態遷移の通知を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/fleamart/internal/mail"
	"github.com/hitoshi/fleamart/internal/model"
	"github.com/hitoshi/fleamart/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int           // セッション有効期間（秒）
	ResetTokenTTL time.Duration // リセットトークン有効期間
	BaseURL       string        // リセットリンクのベースURL
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	sessRepo  repository.SessionRepository
	tokenRepo repository.ResetTokenRepository
	mailer    mail.Mailer
	notifier  *Notifier
	config    ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessRepo repository.SessionRepository,
	tokenRepo repository.ResetTokenRepository,
	mailer mail.Mailer,
	notifier *Notifier,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:  userRepo,
		sessRepo:  sessRepo,
		tokenRepo: tokenRepo,
		mailer:    mailer,
		notifier:  notifier,
		config:    config,
	}
}

// Notifier はセッション状態遷移の通知先を返す。
func (s *Service) Notifier() *Notifier {
	return s.notifier
}

// SignUp はアカウントを作成しセッションを発行する。
// full_nameはサインアップメタデータとして保持し、usernameの初期値にも使用する。
// メールアドレス・パスワードの形式検証に失敗した場合はvalidation分類のエラーを返す。
func (s *Service) SignUp(ctx context.Context, email, password, fullName string) (*model.User, *model.Session, error) {
	if !IsValidEmail(email) {
		return nil, nil, model.NewInvalidEmailError(email)
	}
	if err := ValidatePassword(password); err != nil {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("パスワードハッシュの生成に失敗しました: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
		Username:     fullName, // サインアップ時はfull_nameをusernameとして使用する
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, nil, model.NewEmailTakenError()
		}
		return nil, nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("セッションの作成に失敗しました: %w", err)
	}

	slog.Info("new user signed up",
		slog.String("user_id", user.ID),
		slog.String("email", email),
	)

	s.publish(model.SessionEvent{Type: model.SessionSignedIn, UserID: user.ID, Session: session})
	return user, session, nil
}

// SignIn はメールアドレスとパスワードで認証しセッションを発行する。
// ユーザー不在とパスワード不一致は区別せずINVALID_CREDENTIALSを返す。
func (s *Service) SignIn(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("セッションの作成に失敗しました: %w", err)
	}

	slog.Info("user signed in", slog.String("user_id", user.ID))

	s.publish(model.SessionEvent{Type: model.SessionSignedIn, UserID: user.ID, Session: session})
	return user, session, nil
}

// SignOut はセッションを破棄する。
// 既に無効なセッションIDでもエラーにしない（冪等）。
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	session, err := s.sessRepo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("セッションの検索に失敗しました: %w", err)
	}

	if err := s.sessRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("セッションの削除に失敗しました: %w", err)
	}

	if session != nil {
		slog.Info("user signed out", slog.String("user_id", session.UserID))
		s.publish(model.SessionEvent{Type: model.SessionSignedOut, UserID: session.UserID})
	}

	return nil
}

// ResetPassword はパスワードリセットメールの送信を開始する。
// アカウント列挙を防ぐため、未登録メールアドレスでもエラーを返さない
// （内部ではログのみ記録する）。
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil {
		slog.Info("password reset requested for unknown email")
		return nil
	}

	tokenValue, err := generateToken()
	if err != nil {
		return fmt.Errorf("リセットトークンの生成に失敗しました: %w", err)
	}

	now := time.Now()
	token := &model.PasswordResetToken{
		Token:     tokenValue,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.config.ResetTokenTTL),
		CreatedAt: now,
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return fmt.Errorf("リセットトークンの保存に失敗しました: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.config.BaseURL, tokenValue)
	if err := s.mailer.SendPasswordReset(user.Email, resetURL); err != nil {
		return fmt.Errorf("リセットメールの送信に失敗しました: %w", err)
	}

	slog.Info("password reset mail sent", slog.String("user_id", user.ID))
	return nil
}

// CompleteReset はリセットトークンを消費してパスワードを更新する。
// 成功時は当該ユーザーの全セッションを破棄する。
func (s *Service) CompleteReset(ctx context.Context, tokenValue, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	token, err := s.tokenRepo.Consume(ctx, tokenValue)
	if err != nil {
		return fmt.Errorf("リセットトークンの検証に失敗しました: %w", err)
	}
	if token == nil {
		return model.NewInvalidResetTokenError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("パスワードハッシュの生成に失敗しました: %w", err)
	}

	if err := s.userRepo.UpdatePasswordHash(ctx, token.UserID, string(hash)); err != nil {
		return fmt.Errorf("パスワードの更新に失敗しました: %w", err)
	}

	if err := s.sessRepo.DeleteByUserID(ctx, token.UserID); err != nil {
		return fmt.Errorf("セッションの破棄に失敗しました: %w", err)
	}

	slog.Info("password reset completed", slog.String("user_id", token.UserID))
	return nil
}

// GetCurrentUser はセッションIDから現在のユーザーを取得する。
// 呼び出し側にエラーを返さない: あらゆる内部失敗はnilに収束し、ログのみ記録する。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) *model.User {
	if sessionID == "" {
		return nil
	}

	session, err := s.sessRepo.FindByID(ctx, sessionID)
	if err != nil {
		slog.Warn("failed to find session", slog.String("error", err.Error()))
		return nil
	}
	if session == nil {
		return nil
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		slog.Warn("failed to find session user", slog.String("error", err.Error()))
		return nil
	}

	return user
}

// publish はNotifier未設定でも安全にイベントを配信する。
func (s *Service) publish(event model.SessionEvent) {
	if s.notifier != nil {
		s.notifier.Publish(event)
	}
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateToken は暗号的に安全な256ビットのランダムトークンを生成する。
// セッションIDとリセットトークンの両方に使用する。
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
