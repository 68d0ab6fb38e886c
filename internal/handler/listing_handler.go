package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/fleamart/internal/listing"
	"github.com/hitoshi/fleamart/internal/middleware"
	"github.com/hitoshi/fleamart/internal/model"
)

// maxListingFormMemory は出品のmultipartフォーム解析時にメモリに載せる上限。
const maxListingFormMemory = 32 << 20 // 32MiB

// ListingServiceInterface は出品ハンドラーが必要とするサービスインターフェース。
type ListingServiceInterface interface {
	Create(ctx context.Context, userID string, input listing.Input, images []listing.ImageFile) (*model.ListingDetail, error)
	GetAll(ctx context.Context, filter model.ListingFilter) ([]*model.ListingDetail, error)
	GetByUser(ctx context.Context, userID string) ([]*model.ListingDetail, error)
	Get(ctx context.Context, id string) (*model.ListingDetail, error)
	Delete(ctx context.Context, id, userID string) error
}

// ListingHandler は出品管理のHTTPハンドラー。
type ListingHandler struct {
	service ListingServiceInterface
}

// NewListingHandler はListingHandlerを生成する。
func NewListingHandler(service ListingServiceInterface) *ListingHandler {
	return &ListingHandler{service: service}
}

// listingImageResponse は出品画像のAPIレスポンス。
type listingImageResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// ownerResponse は出品の所有者プロフィール抜粋のAPIレスポンス。
type ownerResponse struct {
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

// listingResponse は出品のAPIレスポンス。
type listingResponse struct {
	ID          string                 `json:"id"`
	UserID      string                 `json:"user_id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Price       float64                `json:"price"`
	Currency    string                 `json:"currency"`
	Category    string                 `json:"category"`
	Condition   string                 `json:"condition"`
	ImageURL    string                 `json:"image_url"`
	CreatedAt   string                 `json:"created_at"`
	Owner       *ownerResponse         `json:"owner,omitempty"`
	Images      []listingImageResponse `json:"images"`
}

// Create は出品作成を処理する。
// POST /api/listings (multipart/form-data)
// テキスト項目はフォームフィールド、画像は"images"フィールドの複数ファイルで受け取る。
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteAPIError(w, model.NewAuthRequiredError())
		return
	}

	if err := r.ParseMultipartForm(maxListingFormMemory); err != nil {
		middleware.WriteAPIError(w, invalidRequestError())
		return
	}

	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil || price < 0 {
		middleware.WriteAPIError(w, &model.APIError{
			Kind:     model.KindValidation,
			Code:     "INVALID_PRICE",
			Message:  "価格の形式が不正です。",
			Category: "validation",
			Action:   "0以上の数値を指定してください。",
		})
		return
	}

	input := listing.Input{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Price:       price,
		Currency:    r.FormValue("currency"),
		Category:    r.FormValue("category"),
		Condition:   r.FormValue("condition"),
	}

	var images []listing.ImageFile
	var closers []interface{ Close() error }
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["images"] {
			file, err := header.Open()
			if err != nil {
				middleware.WriteAPIError(w, invalidRequestError())
				return
			}
			closers = append(closers, file)
			images = append(images, listing.ImageFile{
				Filename:    header.Filename,
				Reader:      file,
				Size:        header.Size,
				ContentType: header.Header.Get("Content-Type"),
			})
		}
	}

	detail, err := h.service.Create(r.Context(), userID, input, images)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toListingResponse(detail))
}

// List は出品一覧を返す。
// GET /api/listings?user_id=&category=&max_price=
// 新着順で返す。クエリパラメータで絞り込みできる。
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := model.ListingFilter{
		UserID:   r.URL.Query().Get("user_id"),
		Category: r.URL.Query().Get("category"),
	}
	if raw := r.URL.Query().Get("max_price"); raw != "" {
		maxPrice, err := strconv.ParseFloat(raw, 64)
		if err != nil || maxPrice < 0 {
			middleware.WriteAPIError(w, invalidRequestError())
			return
		}
		filter.MaxPrice = maxPrice
	}

	details, err := h.service.GetAll(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toListingListResponse(details))
}

// ListMine は現在のユーザー自身の出品一覧を返す。
// GET /api/listings/mine
func (h *ListingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteAPIError(w, model.NewAuthRequiredError())
		return
	}

	details, err := h.service.GetByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toListingListResponse(details))
}

// Get は出品詳細を返す。
// GET /api/listings/{id}
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toListingResponse(detail))
}

// Delete は出品削除を処理する。所有者のみが削除できる。
// DELETE /api/listings/{id}
func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteAPIError(w, model.NewAuthRequiredError())
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toListingResponse はmodel.ListingDetailからAPIレスポンスに変換する。
func toListingResponse(d *model.ListingDetail) listingResponse {
	resp := listingResponse{
		ID:          d.ID,
		UserID:      d.UserID,
		Title:       d.Title,
		Description: d.Description,
		Price:       d.Price,
		Currency:    d.Currency,
		Category:    d.Category,
		Condition:   d.Condition,
		ImageURL:    d.ImageURL,
		CreatedAt:   d.CreatedAt.Format(time.RFC3339),
		Images:      make([]listingImageResponse, 0, len(d.Images)),
	}
	if d.Owner != nil {
		resp.Owner = &ownerResponse{
			Username:  d.Owner.Username,
			FullName:  d.Owner.FullName,
			AvatarURL: d.Owner.AvatarURL,
		}
	}
	for _, img := range d.Images {
		resp.Images = append(resp.Images, listingImageResponse{ID: img.ID, URL: img.URL})
	}
	return resp
}

// toListingListResponse は出品一覧のAPIレスポンスに変換する。
func toListingListResponse(details []*model.ListingDetail) map[string]any {
	listings := make([]listingResponse, 0, len(details))
	for _, d := range details {
		listings = append(listings, toListingResponse(d))
	}
	return map[string]any{"listings": listings}
}
