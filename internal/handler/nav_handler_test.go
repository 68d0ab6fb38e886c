package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/hitoshi/fleamart/internal/middleware"
	"github.com/hitoshi/fleamart/internal/nav"
)

// TestNavState_Authenticated は認証済みセッションで表示名・アクションセット・
// 遷移先を含む描画状態が返ることを検証する。
func TestNavState_Authenticated(t *testing.T) {
	h := NewNavHandler(&mockNavigator{state: nav.State{
		Authenticated: true,
		DisplayName:   "taro",
		Actions:       []string{"sell", "wishlist", "profile", "logout"},
		Destination:   "/profile",
	}})

	req := httptest.NewRequest(http.MethodGet, "/api/nav", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "session-1"})
	rec := httptest.NewRecorder()

	h.State(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Authenticated bool     `json:"authenticated"`
		DisplayName   string   `json:"display_name"`
		Actions       []string `json:"actions"`
		Destination   string   `json:"destination"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if !resp.Authenticated {
		t.Error("authenticated = false, want true")
	}
	if resp.DisplayName != "taro" {
		t.Errorf("display_name = %q, want taro", resp.DisplayName)
	}
	if want := []string{"sell", "wishlist", "profile", "logout"}; !reflect.DeepEqual(resp.Actions, want) {
		t.Errorf("actions = %v, want %v", resp.Actions, want)
	}
	if resp.Destination != "/profile" {
		t.Errorf("destination = %q, want /profile", resp.Destination)
	}
}

// TestNavState_WithoutSession は未認証でも200で匿名アクションセットが返ることを検証する。
func TestNavState_WithoutSession(t *testing.T) {
	h := NewNavHandler(&mockNavigator{state: nav.State{
		Authenticated: false,
		Actions:       []string{"login", "signup"},
		Destination:   "/login",
	}})

	req := httptest.NewRequest(http.MethodGet, "/api/nav", nil)
	rec := httptest.NewRecorder()

	h.State(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Authenticated bool     `json:"authenticated"`
		Actions       []string `json:"actions"`
		Destination   string   `json:"destination"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Authenticated {
		t.Error("authenticated = true, want false")
	}
	if want := []string{"login", "signup"}; !reflect.DeepEqual(resp.Actions, want) {
		t.Errorf("actions = %v, want %v", resp.Actions, want)
	}
	if resp.Destination != "/login" {
		t.Errorf("destination = %q, want /login", resp.Destination)
	}
}
