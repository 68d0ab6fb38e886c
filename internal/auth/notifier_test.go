package auth

import (
	"testing"

	"github.com/hitoshi/fleamart/internal/model"
)

func TestNotifier_PublishWithoutSubscribers(t *testing.T) {
	n := NewNotifier()

	// リスナーなしでもpanicしない
	n.Publish(model.SessionEvent{Type: model.SessionSignedIn, UserID: "u-1"})
}

func TestNotifier_DeliversToAllSubscribers(t *testing.T) {
	n := NewNotifier()

	var got1, got2 []model.SessionEvent
	n.Subscribe(func(e model.SessionEvent) { got1 = append(got1, e) })
	n.Subscribe(func(e model.SessionEvent) { got2 = append(got2, e) })

	n.Publish(model.SessionEvent{Type: model.SessionSignedIn, UserID: "u-1"})
	n.Publish(model.SessionEvent{Type: model.SessionSignedOut, UserID: "u-1"})

	for i, got := range [][]model.SessionEvent{got1, got2} {
		if len(got) != 2 {
			t.Fatalf("subscriber %d received %d events, want 2", i+1, len(got))
		}
		if got[0].Type != model.SessionSignedIn {
			t.Errorf("subscriber %d event[0].Type = %q, want %q", i+1, got[0].Type, model.SessionSignedIn)
		}
		if got[1].Type != model.SessionSignedOut {
			t.Errorf("subscriber %d event[1].Type = %q, want %q", i+1, got[1].Type, model.SessionSignedOut)
		}
	}
}

// TestNotifier_DeliversInSubscriptionOrder はリスナーが登録順に同期的に呼ばれることを検証する。
func TestNotifier_DeliversInSubscriptionOrder(t *testing.T) {
	n := NewNotifier()

	var order []int
	n.Subscribe(func(model.SessionEvent) { order = append(order, 1) })
	n.Subscribe(func(model.SessionEvent) { order = append(order, 2) })
	n.Subscribe(func(model.SessionEvent) { order = append(order, 3) })

	n.Publish(model.SessionEvent{Type: model.SessionSignedIn, UserID: "u-1"})

	if len(order) != 3 {
		t.Fatalf("received %d calls, want 3", len(order))
	}
	for i, v := range order {
		if v != i+1 {
			t.Errorf("order[%d] = %d, want %d", i, v, i+1)
		}
	}
}
