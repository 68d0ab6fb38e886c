package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/fleamart/internal/model"
)

// ErrorBody はエラーレスポンスの内訳。
type ErrorBody struct {
	Kind     string `json:"kind"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 原因カテゴリと対処方法を含む。
type ErrorResponseBody struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// statusForKind はエラー分類をHTTPステータスコードに変換する。
func statusForKind(kind model.ErrorKind) int {
	switch kind {
	case model.KindAuthRequired:
		return http.StatusUnauthorized
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindPermissionDenied:
		return http.StatusForbidden
	case model.KindValidation:
		return http.StatusBadRequest
	case model.KindUpstreamFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteAPIError はAPIErrorを統一フォーマットでレスポンスに書き込む。
// HTTPステータスはエラー分類から導出する。
func WriteAPIError(w http.ResponseWriter, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusForKind(apiErr.Kind))
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Success: false,
		Error: ErrorBody{
			Kind:     string(apiErr.Kind),
			Code:     apiErr.Code,
			Message:  apiErr.Message,
			Category: apiErr.Category,
			Action:   apiErr.Action,
		},
	})
}

// WriteError は任意のエラーを統一フォーマットで書き込む。
// APIError以外のエラーは詳細をログのみに記録し、
// ユーザーには一般的なメッセージを返す。
func WriteError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		WriteAPIError(w, apiErr)
		return
	}

	slog.Error("unexpected error", slog.String("error", err.Error()))
	WriteAPIError(w, model.NewUnexpectedError())
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteAPIError(w, model.NewUnexpectedError())
}
