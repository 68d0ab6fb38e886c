package inspect

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer はスキーマ照会ツールを公開するMCPサーバーを生成する。
// 提供ツール:
//   - get_schema: publicスキーマの全テーブル定義を返す
//   - query_table: 指定テーブルの先頭10行を返す
func NewMCPServer(inspector *Inspector, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"fleamart-db-inspector",
		version,
		server.WithToolCapabilities(false),
	)

	getSchema := mcp.NewTool("get_schema",
		mcp.WithDescription("publicスキーマの全テーブルのカラム定義を取得する"),
	)
	s.AddTool(getSchema, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		schema, err := inspector.GetSchema(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to get schema: %v", err)), nil
		}
		return toolResultJSON(schema)
	})

	queryTable := mcp.NewTool("query_table",
		mcp.WithDescription("指定テーブルの先頭10行を取得する"),
		mcp.WithString("table",
			mcp.Required(),
			mcp.Description("照会するテーブル名"),
		),
	)
	s.AddTool(queryTable, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, err := req.RequireString("table")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		rows, err := inspector.QueryTable(ctx, table)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to query table: %v", err)), nil
		}
		return toolResultJSON(rows)
	})

	return s
}

// ServeStdio はMCPサーバーを標準入出力で起動する。
// クライアント切断まで処理をブロックする。
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// toolResultJSON は値をインデント付きJSONに整形してツール結果として返す。
func toolResultJSON(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
