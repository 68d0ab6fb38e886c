// Package model はドメインモデルを定義する。
package model

import "fmt"

// ErrorKind はエラー分類を表す。
// ハンドラー層でのHTTPステータス変換とテストでの網羅的な分岐に使用する。
type ErrorKind string

const (
	// KindAuthRequired は認証が必須の操作で未認証だったことを示す。
	KindAuthRequired ErrorKind = "auth_required"
	// KindNotFound はプロフィール・出品が存在しないことを示す。
	KindNotFound ErrorKind = "not_found"
	// KindPermissionDenied は所有者以外による削除・更新の試行を示す。
	KindPermissionDenied ErrorKind = "permission_denied"
	// KindUpstreamFailure はストレージ・データベース呼び出しの失敗を示す。
	KindUpstreamFailure ErrorKind = "upstream_failure"
	// KindValidation は入力値の検証エラーを示す。
	KindValidation ErrorKind = "validation"
	// KindUnexpected は上記以外の予期しない失敗を示す。
	KindUnexpected ErrorKind = "unexpected_failure"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Kind     ErrorKind // エラー分類
	Code     string    // エラーコード
	Message  string    // エラーメッセージ
	Category string    // カテゴリ: auth, validation, profile, listing, storage, system
	Action   string    // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeAuthRequired       = "AUTH_REQUIRED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeInvalidEmail       = "INVALID_EMAIL"
	ErrCodeWeakPassword       = "WEAK_PASSWORD"
	ErrCodeInvalidResetToken  = "INVALID_RESET_TOKEN"
	ErrCodeProfileNotFound    = "PROFILE_NOT_FOUND"
	ErrCodeListingNotFound    = "LISTING_NOT_FOUND"
	ErrCodePermissionDenied   = "PERMISSION_DENIED"
	ErrCodeUploadFailed       = "UPLOAD_FAILED"
	ErrCodeImageMetaFailed    = "IMAGE_META_FAILED"
	ErrCodeUpstreamFailure    = "UPSTREAM_FAILURE"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewAuthRequiredError は未認証エラーを生成する。
func NewAuthRequiredError() *APIError {
	return &APIError{
		Kind:     KindAuthRequired,
		Code:     ErrCodeAuthRequired,
		Message:  "ログインが必要な操作です。",
		Category: "auth",
		Action:   "ログインしてから再度お試しください。",
	}
}

// NewInvalidCredentialsError はメールアドレスまたはパスワード不一致のエラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Kind:     KindAuthRequired,
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認してください。",
	}
}

// NewEmailTakenError は登録済みメールアドレスでのサインアップエラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Kind:     KindValidation,
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewInvalidEmailError は無効なメールアドレスのエラーを生成する。
func NewInvalidEmailError(email string) *APIError {
	return &APIError{
		Kind:     KindValidation,
		Code:     ErrCodeInvalidEmail,
		Message:  fmt.Sprintf("無効なメールアドレスです: %s", email),
		Category: "validation",
		Action:   "正しいメールアドレス形式で入力してください。",
	}
}

// NewWeakPasswordError はパスワード強度不足のエラーを生成する。
func NewWeakPasswordError(reason string) *APIError {
	return &APIError{
		Kind:     KindValidation,
		Code:     ErrCodeWeakPassword,
		Message:  fmt.Sprintf("パスワードが要件を満たしていません: %s", reason),
		Category: "validation",
		Action:   "8文字以上で大文字・小文字・数字を含めてください。",
	}
}

// NewInvalidResetTokenError は無効または期限切れのリセットトークンのエラーを生成する。
func NewInvalidResetTokenError() *APIError {
	return &APIError{
		Kind:     KindValidation,
		Code:     ErrCodeInvalidResetToken,
		Message:  "パスワードリセットトークンが無効または期限切れです。",
		Category: "auth",
		Action:   "パスワードリセットを再度申請してください。",
	}
}

// NewProfileNotFoundError はプロフィール未検出エラーを生成する。
func NewProfileNotFoundError(userID string) *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeProfileNotFound,
		Message:  fmt.Sprintf("指定されたプロフィールが見つかりません: %s", userID),
		Category: "profile",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewListingNotFoundError は出品未検出エラーを生成する。
func NewListingNotFoundError(listingID string) *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeListingNotFound,
		Message:  fmt.Sprintf("指定された出品が見つかりません: %s", listingID),
		Category: "listing",
		Action:   "出品IDを確認してください。",
	}
}

// NewPermissionDeniedError は所有者以外による操作のエラーを生成する。
func NewPermissionDeniedError() *APIError {
	return &APIError{
		Kind:     KindPermissionDenied,
		Code:     ErrCodePermissionDenied,
		Message:  "自分の出品のみ削除できます。",
		Category: "listing",
		Action:   "操作対象を確認してください。",
	}
}

// NewUploadFailedError は画像アップロード失敗のエラーを生成する。
func NewUploadFailedError(reason string) *APIError {
	return &APIError{
		Kind:     KindUpstreamFailure,
		Code:     ErrCodeUploadFailed,
		Message:  fmt.Sprintf("画像のアップロードに失敗しました: %s", reason),
		Category: "storage",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewImageMetaFailedError は画像メタデータ保存失敗のエラーを生成する。
func NewImageMetaFailedError(reason string) *APIError {
	return &APIError{
		Kind:     KindUpstreamFailure,
		Code:     ErrCodeImageMetaFailed,
		Message:  fmt.Sprintf("画像メタデータの保存に失敗しました: %s", reason),
		Category: "storage",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUpstreamFailureError はデータベース・ストレージ呼び出し失敗のエラーを生成する。
func NewUpstreamFailureError(reason string) *APIError {
	return &APIError{
		Kind:     KindUpstreamFailure,
		Code:     ErrCodeUpstreamFailure,
		Message:  fmt.Sprintf("外部ストアの呼び出しに失敗しました: %s", reason),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUnexpectedError は予期しない失敗のエラーを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewUnexpectedError() *APIError {
	return &APIError{
		Kind:     KindUnexpected,
		Code:     ErrCodeInternal,
		Message:  "予期しないエラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
