package storage

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestListingImageKey(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filename string
		index    int
		want     string
	}{
		{
			name:     "jpeg拡張子",
			filename: "photo.jpg",
			index:    0,
			want:     fmt.Sprintf("listings/listing-1/user-1-%d-0.jpg", now.UnixMilli()),
		},
		{
			name:     "png拡張子と添付順",
			filename: "image.png",
			index:    2,
			want:     fmt.Sprintf("listings/listing-1/user-1-%d-2.png", now.UnixMilli()),
		},
		{
			name:     "拡張子なしはbinにフォールバック",
			filename: "noext",
			index:    1,
			want:     fmt.Sprintf("listings/listing-1/user-1-%d-1.bin", now.UnixMilli()),
		},
		{
			name:     "複数ドットは最後の拡張子を使う",
			filename: "archive.tar.gz",
			index:    0,
			want:     fmt.Sprintf("listings/listing-1/user-1-%d-0.gz", now.UnixMilli()),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ListingImageKey("listing-1", "user-1", now, tt.index, tt.filename)
			if got != tt.want {
				t.Errorf("ListingImageKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAvatarKey(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{
			name:     "png拡張子",
			filename: "avatar.png",
			want:     fmt.Sprintf("avatars/user-1-%d.png", now.UnixMilli()),
		},
		{
			name:     "拡張子なしはbinにフォールバック",
			filename: "avatar",
			want:     fmt.Sprintf("avatars/user-1-%d.bin", now.UnixMilli()),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AvatarKey("user-1", now, tt.filename)
			if got != tt.want {
				t.Errorf("AvatarKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestKey_TimestampDistinguishesReuploads は同一ユーザーの再アップロードが
// タイムスタンプで別キーになることを検証する。古いファイルは削除されないため、
// キーの衝突は上書き事故につながる。
func TestKey_TimestampDistinguishesReuploads(t *testing.T) {
	t1 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Millisecond)

	if AvatarKey("user-1", t1, "a.png") == AvatarKey("user-1", t2, "a.png") {
		t.Error("avatar keys for different timestamps should differ")
	}
	if ListingImageKey("l-1", "user-1", t1, 0, "a.jpg") == ListingImageKey("l-1", "user-1", t2, 0, "a.jpg") {
		t.Error("listing image keys for different timestamps should differ")
	}
}

func TestFileExt(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"photo.jpg", "jpg"},
		{"image.PNG", "PNG"},
		{"archive.tar.gz", "gz"},
		{"noext", "bin"},
		{"", "bin"},
		{".hidden", "hidden"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := fileExt(tt.filename); got != tt.want {
				t.Errorf("fileExt(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

// --- MemoryStore ---

func TestMemoryStore_UploadAndHas(t *testing.T) {
	store := NewMemoryStore()

	err := store.Upload(context.Background(), "listings/l-1/a.jpg", strings.NewReader("data"), 4, "image/jpeg")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if !store.Has("listings/l-1/a.jpg") {
		t.Error("Has should report the uploaded key")
	}
	if store.Has("listings/l-1/other.jpg") {
		t.Error("Has should not report an unknown key")
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestMemoryStore_FailUploadAt(t *testing.T) {
	store := NewMemoryStore()
	store.FailUploadAt = 2

	if err := store.Upload(context.Background(), "k1", strings.NewReader("a"), 1, "text/plain"); err != nil {
		t.Fatalf("first upload should succeed: %v", err)
	}
	if err := store.Upload(context.Background(), "k2", strings.NewReader("b"), 1, "text/plain"); err == nil {
		t.Fatal("second upload should fail")
	}
	if err := store.Upload(context.Background(), "k3", strings.NewReader("c"), 1, "text/plain"); err != nil {
		t.Fatalf("third upload should succeed: %v", err)
	}

	keys := store.UploadedKeys()
	if len(keys) != 2 || keys[0] != "k1" || keys[1] != "k3" {
		t.Errorf("UploadedKeys() = %v, want [k1 k3]", keys)
	}
}

func TestMemoryStore_Remove(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Upload(context.Background(), "k1", strings.NewReader("a"), 1, "text/plain"); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if err := store.Remove(context.Background(), "k1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if store.Has("k1") {
		t.Error("removed key should not exist")
	}

	// 存在しないキーの削除はエラーにならない
	if err := store.Remove(context.Background(), "no-such-key"); err != nil {
		t.Errorf("Remove of unknown key should be a no-op: %v", err)
	}
}

func TestMemoryStore_FailRemove(t *testing.T) {
	store := NewMemoryStore()
	store.FailRemove = true

	if err := store.Upload(context.Background(), "k1", strings.NewReader("a"), 1, "text/plain"); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if err := store.Remove(context.Background(), "k1"); err == nil {
		t.Fatal("Remove should fail when FailRemove is set")
	}
	if !store.Has("k1") {
		t.Error("key should remain after failed remove")
	}
}

func TestMemoryStore_PublicURL(t *testing.T) {
	store := NewMemoryStore()

	got := store.PublicURL("listings/l-1/a.jpg")
	want := "https://storage.test/listings-images/listings/l-1/a.jpg"
	if got != want {
		t.Errorf("PublicURL() = %q, want %q", got, want)
	}
}
