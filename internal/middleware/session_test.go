package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/fleamart/internal/model"
)

type mockSessionFinder struct {
	sessions map[string]*model.Session
	findErr  error
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.sessions[id], nil
}

func newSessionTestHandler(finder SessionFinder) (http.Handler, *string) {
	var gotUserID string
	handler := NewSessionMiddleware(finder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFromContext(r.Context())
		if err == nil {
			gotUserID = userID
		}
		w.WriteHeader(http.StatusOK)
	}))
	return handler, &gotUserID
}

func TestSessionMiddleware_ValidSession_InjectsUserID(t *testing.T) {
	finder := &mockSessionFinder{sessions: map[string]*model.Session{
		"session-1": {ID: "session-1", UserID: "user-1"},
	}}
	handler, gotUserID := newSessionTestHandler(finder)

	req := httptest.NewRequest(http.MethodGet, "/api/listings/mine", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "session-1"})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if *gotUserID != "user-1" {
		t.Errorf("user ID in context = %q, want %q", *gotUserID, "user-1")
	}
}

func TestSessionMiddleware_Unauthenticated(t *testing.T) {
	tests := []struct {
		name   string
		cookie *http.Cookie
		finder *mockSessionFinder
	}{
		{
			name:   "Cookieなし",
			cookie: nil,
			finder: &mockSessionFinder{sessions: map[string]*model.Session{}},
		},
		{
			name:   "空のCookie値",
			cookie: &http.Cookie{Name: SessionCookieName, Value: ""},
			finder: &mockSessionFinder{sessions: map[string]*model.Session{}},
		},
		{
			name:   "未知のセッションID",
			cookie: &http.Cookie{Name: SessionCookieName, Value: "no-such-session"},
			finder: &mockSessionFinder{sessions: map[string]*model.Session{}},
		},
		{
			name:   "セッション検索の失敗",
			cookie: &http.Cookie{Name: SessionCookieName, Value: "session-1"},
			finder: &mockSessionFinder{findErr: errors.New("db down")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, gotUserID := newSessionTestHandler(tt.finder)

			req := httptest.NewRequest(http.MethodGet, "/api/listings/mine", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
			if *gotUserID != "" {
				t.Error("next handler should not receive a user ID")
			}

			var body ErrorResponseBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode error body: %v", err)
			}
			if body.Success {
				t.Error("success should be false")
			}
			if body.Error.Code != model.ErrCodeAuthRequired {
				t.Errorf("error code = %q, want %q", body.Error.Code, model.ErrCodeAuthRequired)
			}
		})
	}
}

func TestSessionIDFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/nav", nil)
	if got := SessionIDFromRequest(req); got != "" {
		t.Errorf("SessionIDFromRequest() = %q, want empty for missing cookie", got)
	}

	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "session-1"})
	if got := SessionIDFromRequest(req); got != "session-1" {
		t.Errorf("SessionIDFromRequest() = %q, want %q", got, "session-1")
	}
}

func TestUserIDFromContext(t *testing.T) {
	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for context without user ID")
	}

	ctx := ContextWithUserID(context.Background(), "user-1")
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		t.Fatalf("UserIDFromContext failed: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("userID = %q, want %q", userID, "user-1")
	}
}
