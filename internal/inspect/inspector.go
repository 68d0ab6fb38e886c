// Package inspect は開発支援用のデータベーススキーマ照会機能を提供する。
// MCP (Model Context Protocol) のstdioサーバーとして公開され、
// publicスキーマのテーブル定義とサンプル行を返す。
package inspect

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// sampleRowLimit はquery_tableが返す最大行数。
const sampleRowLimit = 10

// Column はテーブルの1カラムの定義。
type Column struct {
	Name string `json:"column"`
	Type string `json:"type"`
}

// Inspector はpublicスキーマの照会を提供する。
type Inspector struct {
	db *sqlx.DB
}

// NewInspector はInspectorを生成する。
func NewInspector(db *sqlx.DB) *Inspector {
	return &Inspector{db: db}
}

// GetSchema はpublicスキーマの全テーブルのカラム定義を返す。
// information_schema.columnsをテーブル名・カラム順で読み取り、
// テーブル名をキーとしたマップに整形する。
func (i *Inspector) GetSchema(ctx context.Context) (map[string][]Column, error) {
	rows, err := i.db.QueryContext(ctx, `
		SELECT table_name, column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = 'public'
		ORDER BY table_name, ordinal_position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query information_schema: %w", err)
	}
	defer rows.Close()

	schema := make(map[string][]Column)
	for rows.Next() {
		var table, column, dataType string
		if err := rows.Scan(&table, &column, &dataType); err != nil {
			return nil, fmt.Errorf("failed to scan column row: %w", err)
		}
		schema[table] = append(schema[table], Column{Name: column, Type: dataType})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate column rows: %w", err)
	}

	return schema, nil
}

// QueryTable は指定テーブルの先頭10行を返す。
// テーブル名はpq.QuoteIdentifierでエスケープしてSQLに埋め込む
// （識別子はプレースホルダにできないため）。
// 存在しないテーブル名はデータベースのエラーがそのまま返る。
func (i *Inspector) QueryTable(ctx context.Context, table string) ([]map[string]any, error) {
	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", pq.QuoteIdentifier(table), sampleRowLimit)

	rows, err := i.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", table, err)
	}
	defer rows.Close()

	results := make([]map[string]any, 0, sampleRowLimit)
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		// driverは文字列カラムを[]byteで返すため、JSON化前にstringへ変換する
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return results, nil
}
