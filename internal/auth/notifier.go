package auth

import (
	"sync"

	"github.com/hitoshi/fleamart/internal/model"
)

// Notifier はセッション状態遷移のプロセス内通知を提供する。
// サインイン・サインアウトのたびに登録済みリスナーを登録順・同期的に呼び出す。
// 並列実行は行わないため、リスナー側のロックは不要。
type Notifier struct {
	mu   sync.RWMutex
	subs []func(model.SessionEvent)
}

// NewNotifier はNotifierを生成する。
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe はセッション状態遷移のリスナーを登録する。
// 登録解除は提供しない（プロセス寿命と同じ寿命を想定）。
func (n *Notifier) Subscribe(fn func(model.SessionEvent)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, fn)
}

// Publish は全リスナーへイベントを配信する。
func (n *Notifier) Publish(event model.SessionEvent) {
	n.mu.RLock()
	subs := make([]func(model.SessionEvent), len(n.subs))
	copy(subs, n.subs)
	n.mu.RUnlock()

	for _, fn := range subs {
		fn(event)
	}
}
