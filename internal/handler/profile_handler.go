package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/fleamart/internal/middleware"
	"github.com/hitoshi/fleamart/internal/model"
	"github.com/hitoshi/fleamart/internal/profile"
)

// maxAvatarFormMemory はアバターのmultipartフォーム解析時にメモリに載せる上限。
const maxAvatarFormMemory = 10 << 20 // 10MiB

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	CreateOrUpdate(ctx context.Context, userID string, input profile.Input) (*model.Profile, error)
	Get(ctx context.Context, userID string) (*model.Profile, error)
	GetCurrent(ctx context.Context, userID string) (*model.Profile, error)
	UploadAvatar(ctx context.Context, userID, filename string, r io.Reader, size int64, contentType string) (string, error)
	ImportAvatarFromURL(ctx context.Context, userID, rawURL string) (string, error)
}

// ProfileHandler はプロフィール管理のHTTPハンドラー。
type ProfileHandler struct {
	service ProfileServiceInterface
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service ProfileServiceInterface) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// updateProfileRequest はプロフィール更新リクエストのボディ。
type updateProfileRequest struct {
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	Bio       string `json:"bio"`
	Location  string `json:"location"`
	AvatarURL string `json:"avatar_url"`
}

// importAvatarRequest はアバターURLインポートのボディ。
type importAvatarRequest struct {
	URL string `json:"url"`
}

// profileResponse はプロフィールのAPIレスポンス。
type profileResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	Bio       string `json:"bio"`
	Location  string `json:"location"`
	AvatarURL string `json:"avatar_url"`
	Complete  bool   `json:"complete"`
}

// Update はプロフィールの作成・更新を処理する。
// PUT /api/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteAPIError(w, model.NewAuthRequiredError())
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteAPIError(w, invalidRequestError())
		return
	}

	stored, err := h.service.CreateOrUpdate(r.Context(), userID, profile.Input{
		Username:  req.Username,
		FullName:  req.FullName,
		Bio:       req.Bio,
		Location:  req.Location,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(stored))
}

// GetCurrent は現在のユーザー自身のプロフィールを返す。
// GET /api/profile
// 未作成の場合は404ではなくnullを返す（初回ログイン直後は未作成が正常）。
func (h *ProfileHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteAPIError(w, model.NewAuthRequiredError())
		return
	}

	p, err := h.service.GetCurrent(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if p == nil {
		writeJSON(w, http.StatusOK, map[string]any{"profile": nil})
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

// Get は指定ユーザーの公開プロフィールを返す。
// GET /api/profiles/{id}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	p, err := h.service.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

// UploadAvatar はアバター画像のアップロードを処理する。
// POST /api/profile/avatar (multipart/form-data, フィールド名: avatar)
// アップロードのみを行い、プロフィール行は更新しない。
// 返されたURLをPUT /api/profileのavatar_urlに渡すのはクライアントの責務。
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteAPIError(w, model.NewAuthRequiredError())
		return
	}

	if err := r.ParseMultipartForm(maxAvatarFormMemory); err != nil {
		middleware.WriteAPIError(w, invalidRequestError())
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		middleware.WriteAPIError(w, invalidRequestError())
		return
	}
	defer file.Close()

	url, err := h.service.UploadAvatar(r.Context(), userID,
		header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"avatar_url": url})
}

// ImportAvatar は外部URLからのアバター取り込みを処理する。
// POST /api/profile/avatar/import
func (h *ProfileHandler) ImportAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteAPIError(w, model.NewAuthRequiredError())
		return
	}

	var req importAvatarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteAPIError(w, invalidRequestError())
		return
	}

	url, err := h.service.ImportAvatarFromURL(r.Context(), userID, req.URL)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"avatar_url": url})
}

// toProfileResponse はmodel.ProfileからAPIレスポンスに変換する。
func toProfileResponse(p *model.Profile) profileResponse {
	return profileResponse{
		ID:        p.ID,
		Username:  p.Username,
		FullName:  p.FullName,
		Bio:       p.Bio,
		Location:  p.Location,
		AvatarURL: p.AvatarURL,
		Complete:  p.IsComplete(),
	}
}
