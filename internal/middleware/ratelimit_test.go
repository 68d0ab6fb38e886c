package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testRateLimiterConfig(burst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:        rate.Limit(0.001), // テスト中は補充されない
		GeneralBurst:       burst,
		ListingCreateRate:  rate.Limit(0.001),
		ListingCreateBurst: burst,
		CleanupInterval:    time.Hour,
	}
}

func newRateLimitedHandler(mw func(next http.Handler) http.Handler) http.Handler {
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func doRateLimitedRequest(handler http.Handler, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/listings/mine", nil)
	if userID != "" {
		req = req.WithContext(ContextWithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGeneralMiddleware_AllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(3))
	defer rl.Stop()
	handler := newRateLimitedHandler(rl.GeneralMiddleware())

	for i := 0; i < 3; i++ {
		if rec := doRateLimitedRequest(handler, "user-1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
	}
}

func TestGeneralMiddleware_RejectsOverBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(2))
	defer rl.Stop()
	handler := newRateLimitedHandler(rl.GeneralMiddleware())

	doRateLimitedRequest(handler, "user-1")
	doRateLimitedRequest(handler, "user-1")

	rec := doRateLimitedRequest(handler, "user-1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header should be set")
	}
}

// TestGeneralMiddleware_LimitsPerUser はレート制限がユーザーごとに独立であることを検証する。
func TestGeneralMiddleware_LimitsPerUser(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1))
	defer rl.Stop()
	handler := newRateLimitedHandler(rl.GeneralMiddleware())

	if rec := doRateLimitedRequest(handler, "user-1"); rec.Code != http.StatusOK {
		t.Fatalf("user-1 first request: status = %d", rec.Code)
	}
	if rec := doRateLimitedRequest(handler, "user-1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("user-1 second request: status = %d, want 429", rec.Code)
	}
	// 別ユーザーは制限に掛からない
	if rec := doRateLimitedRequest(handler, "user-2"); rec.Code != http.StatusOK {
		t.Errorf("user-2 first request: status = %d, want 200", rec.Code)
	}

	if count := rl.GeneralLimiterCount(); count != 2 {
		t.Errorf("GeneralLimiterCount() = %d, want 2", count)
	}
}

func TestGeneralMiddleware_RequiresUserID(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(10))
	defer rl.Stop()
	handler := newRateLimitedHandler(rl.GeneralMiddleware())

	if rec := doRateLimitedRequest(handler, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// TestListingCreateMiddleware_IndependentOfGeneral は出品作成の制限が
// API全般の制限と独立にカウントされることを検証する。
func TestListingCreateMiddleware_IndependentOfGeneral(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1))
	defer rl.Stop()

	general := newRateLimitedHandler(rl.GeneralMiddleware())
	create := newRateLimitedHandler(rl.ListingCreateMiddleware())

	// API全般のバーストを使い切る
	doRateLimitedRequest(general, "user-1")
	if rec := doRateLimitedRequest(general, "user-1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("general second request: status = %d, want 429", rec.Code)
	}

	// 出品作成側はまだ許可される
	if rec := doRateLimitedRequest(create, "user-1"); rec.Code != http.StatusOK {
		t.Errorf("create request: status = %d, want 200", rec.Code)
	}
	if rec := doRateLimitedRequest(create, "user-1"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("create second request: status = %d, want 429", rec.Code)
	}
}

func TestDefaultRateLimiterConfig(t *testing.T) {
	config := DefaultRateLimiterConfig()

	if config.GeneralBurst != 120 {
		t.Errorf("GeneralBurst = %d, want 120", config.GeneralBurst)
	}
	if config.ListingCreateBurst != 10 {
		t.Errorf("ListingCreateBurst = %d, want 10", config.ListingCreateBurst)
	}
	// 120 req/min = 2 req/sec
	if config.GeneralRate != rate.Limit(2.0) {
		t.Errorf("GeneralRate = %v, want 2", config.GeneralRate)
	}
}
