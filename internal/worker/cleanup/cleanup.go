// Package cleanup は期限切れ認証データの自動削除ジョブを提供する。
// 有効期限を超過したセッションとパスワードリセットトークンを
// 日次バッチで削除する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CleanupJob は期限切れのセッションとリセットトークンの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	db     Executor
	logger *slog.Logger
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(db Executor, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		db:     db,
		logger: logger,
	}
}

// Run は期限切れのセッションとリセットトークンを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deletedSessions, err := j.deleteExpired(ctx, "sessions")
	if err != nil {
		return err
	}

	deletedTokens, err := j.deleteExpired(ctx, "password_reset_tokens")
	if err != nil {
		return err
	}

	duration := time.Since(start)
	j.logger.Info("期限切れデータのクリーンアップジョブが完了しました",
		slog.Int64("deleted_sessions", deletedSessions),
		slog.Int64("deleted_reset_tokens", deletedTokens),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// deleteExpired は指定テーブルのexpires_atが過ぎた行を削除し、削除件数を返す。
// テーブル名は呼び出し側の定数のみ渡される。
func (j *CleanupJob) deleteExpired(ctx context.Context, table string) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at < now()`, table)
	result, err := j.db.ExecContext(ctx, query)
	if err != nil {
		j.logger.Error("期限切れデータの削除に失敗しました",
			slog.String("table", table),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("%sのクリーンアップの実行に失敗: %w", table, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("table", table),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	return deleted, nil
}
