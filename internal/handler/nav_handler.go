package handler

import (
	"net/http"

	"github.com/hitoshi/fleamart/internal/middleware"
)

// NavHandler はナビゲーション描画状態のHTTPハンドラー。
type NavHandler struct {
	navigator NavigatorInterface
}

// NewNavHandler はNavHandlerを生成する。
func NewNavHandler(navigator NavigatorInterface) *NavHandler {
	return &NavHandler{navigator: navigator}
}

// State はナビゲーションの描画状態を返す。
// GET /api/nav
// 未認証でも呼び出せる（匿名アクションセットと遷移先/loginが返る）。
func (h *NavHandler) State(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionIDFromRequest(r)
	state := h.navigator.State(r.Context(), sessionID)
	writeJSON(w, http.StatusOK, state)
}
