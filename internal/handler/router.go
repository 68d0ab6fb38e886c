package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/fleamart/internal/middleware"
)

// HealthChecker はヘルスチェックでDB疎通を確認するためのインターフェース。
// *sql.DBが実装する。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker     HealthChecker
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 遷移先判定
	Navigator NavigatorInterface

	// プロフィール
	ProfileService ProfileServiceInterface

	// 出品
	ListingService ListingServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → SecurityHeaders → CSRFMiddleware → SessionMiddleware → RateLimitMiddleware(GeneralMiddleware)
//
// 認証ルート（/auth/*）と公開の読み取りルートはセッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORSとセキュリティヘッダーを最上位に適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	// Cookieセッション認証のため、状態変更メソッドにはCSRFトークンを要求する
	csrfConfig := middleware.CSRFConfig{
		CookieSecure: deps.AuthConfig.CookieSecure,
		CookieDomain: deps.AuthConfig.CookieDomain,
		CookieMaxAge: deps.AuthConfig.SessionMaxAge,
	}
	r.Use(middleware.NewCSRFMiddleware(csrfConfig))

	authHandler := NewAuthHandler(deps.AuthService, deps.Navigator, deps.AuthConfig)
	navHandler := NewNavHandler(deps.Navigator)
	profileHandler := NewProfileHandler(deps.ProfileService)
	listingHandler := NewListingHandler(deps.ListingService)

	// --- 認証不要のルート ---

	// ヘルスチェック（DB疎通を含む）
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.PingContext(req.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// 認証ルート
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.SignUp)
		r.Post("/login", authHandler.SignIn)
		r.Post("/logout", authHandler.SignOut)
		r.Post("/reset-password", authHandler.ResetPassword)
		r.Post("/reset-password/complete", authHandler.CompleteReset)
		r.Get("/me", authHandler.Me)
	})

	// CSRFトークン取得（フロントエンドが状態変更リクエスト前に呼び出す）
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(csrfConfig))

	// ナビゲーション描画状態（未認証でも呼び出せる）
	r.Get("/api/nav", navHandler.State)

	// 公開の読み取りルート（出品の閲覧と公開プロフィール）
	r.Get("/api/listings", listingHandler.List)
	r.Get("/api/listings/{id}", listingHandler.Get)
	r.Get("/api/profiles/{id}", profileHandler.Get)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// プロフィール管理
		r.Route("/api/profile", func(r chi.Router) {
			r.Get("/", profileHandler.GetCurrent)
			r.Put("/", profileHandler.Update)
			r.Post("/avatar", profileHandler.UploadAvatar)
			r.Post("/avatar/import", profileHandler.ImportAvatar)
		})

		// 出品管理
		// POST /api/listings - 出品作成（作成専用レート制限を追加）
		r.With(deps.RateLimiter.ListingCreateMiddleware()).Post("/api/listings", listingHandler.Create)
		r.Get("/api/listings/mine", listingHandler.ListMine)
		r.Delete("/api/listings/{id}", listingHandler.Delete)
	})

	return r
}
