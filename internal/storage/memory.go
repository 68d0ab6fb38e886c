package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryStore はテスト用のインメモリObjectStore実装。
// アップロード・削除の呼び出し内容を検証できるよう、キーごとの内容と
// 操作順のキーリストを保持する。
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	uploads []string // アップロード順のキー記録

	// FailUploadAt は指定回数目（1始まり）のUploadを失敗させる。0で無効。
	FailUploadAt int
	// FailRemove はRemoveを常に失敗させる。
	FailRemove bool

	uploadCalls int
}

// NewMemoryStore はMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
	}
}

// Upload はオブジェクトをメモリに保存する。
func (s *MemoryStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploadCalls++
	if s.FailUploadAt > 0 && s.uploadCalls == s.FailUploadAt {
		return fmt.Errorf("simulated upload failure for %s", key)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read upload body: %w", err)
	}

	s.objects[key] = data
	s.uploads = append(s.uploads, key)
	return nil
}

// PublicURL はテスト用の決定的な公開URLを返す。
func (s *MemoryStore) PublicURL(key string) string {
	return "https://storage.test/listings-images/" + key
}

// Remove はオブジェクトをメモリから削除する。
func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailRemove {
		return fmt.Errorf("simulated remove failure for %s", key)
	}

	delete(s.objects, key)
	return nil
}

// Has は指定キーのオブジェクトが保存されているかを返す。
func (s *MemoryStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

// UploadedKeys はアップロード成功順のキーのコピーを返す。
func (s *MemoryStore) UploadedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, len(s.uploads))
	copy(keys, s.uploads)
	return keys
}

// Len は保存中のオブジェクト数を返す。
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// compile-time interface check
var _ ObjectStore = (*MemoryStore)(nil)
