// Package storage はオブジェクトストレージへのアップロードと公開URL発行を提供する。
// 出品写真とアバターは単一バケットを共有し、キープレフィックスで区別する
// （listings/{listingId}/... と avatars/...）。
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// ObjectStore はオブジェクトストレージ操作のインターフェース。
// 大きなファイルをメモリに載せないようio.Readerでストリーミングする。
type ObjectStore interface {
	// Upload はキーで指定されるオブジェクトをアップロードする。
	// sizeはrから読み取るバイト数。
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// PublicURL はキーに対応する公開URLを返す。ネットワーク呼び出しは行わない。
	PublicURL(key string) string

	// Remove はキーで指定されるオブジェクトを削除する。
	Remove(ctx context.Context, key string) error
}

// ListingImageKey は出品画像のストレージキーを導出する。
// 形式: listings/{listingID}/{userID}-{unixミリ秒}-{index}.{拡張子}
// 出品ID・所有者ID・タイムスタンプ・添付順のインデックスで名前空間を分ける。
func ListingImageKey(listingID, userID string, now time.Time, index int, filename string) string {
	return fmt.Sprintf("listings/%s/%s-%d-%d.%s",
		listingID, userID, now.UnixMilli(), index, fileExt(filename))
}

// AvatarKey はアバター画像のストレージキーを導出する。
// 形式: avatars/{userID}-{unixミリ秒}.{拡張子}
// 以前のアバターファイルは削除されないため、再アップロードのたびに
// 孤児ファイルが蓄積する（既知の挙動）。
func AvatarKey(userID string, now time.Time, filename string) string {
	return fmt.Sprintf("avatars/%s-%d.%s", userID, now.UnixMilli(), fileExt(filename))
}

// fileExt はファイル名から拡張子（ドットなし）を取り出す。
// 拡張子がない場合は"bin"を返す。
func fileExt(filename string) string {
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	if ext == "" {
		return "bin"
	}
	return ext
}
