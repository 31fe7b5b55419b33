package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/chat-timeline/internal"
	"github.com/spf13/cobra"
)

var (
	inspectFormat     string
	inspectSampleRows int
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect [database-path]",
	Short: "Inspect the session database",
	Long: `Inspect the schema and contents of the session database.

This command provides:
  • Database schema (tables, columns, types)
  • Row counts
  • Stored sessions with secrets redacted
  • Sample rows from other tables

Examples:
  chat-timeline inspect                         # Inspect the configured database
  chat-timeline inspect /path/to/sessions.db    # Inspect a specific file
  chat-timeline inspect --format json           # Machine-readable report`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var dbPath string
		if len(args) > 0 {
			dbPath = args[0]
		} else {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			dbPath = e.cfg.SessionDB
		}

		report, err := inspectDatabase(cmd.Context(), dbPath, inspectSampleRows)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch inspectFormat {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		case "text":
			printInspectReport(out, report)
			return nil
		default:
			return fmt.Errorf("unsupported format: %s (supported: text, json)", inspectFormat)
		}
	},
}

// InspectReport describes a session database
type InspectReport struct {
	Path     string          `json:"path"`
	Tables   []TableInfo     `json:"tables"`
	Sessions []StoredSession `json:"sessions"`
}

// TableInfo describes one table
type TableInfo struct {
	Name    string              `json:"name"`
	Rows    int                 `json:"rows"`
	Columns []ColumnInfo        `json:"columns"`
	Sample  []map[string]string `json:"sample,omitempty"`
}

// ColumnInfo describes one column
type ColumnInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"not_null"`
	PrimaryKey bool   `json:"primary_key"`
}

// StoredSession is a sessionKV row with secrets left out
type StoredSession struct {
	Key          string `json:"key"`
	ProviderKind string `json:"provider_kind,omitempty"`
	AccountID    string `json:"account_id,omitempty"`
	DataDir      string `json:"data_dir,omitempty"`
	HasSyncToken bool   `json:"has_sync_token"`
	Error        string `json:"error,omitempty"`
}

func inspectDatabase(ctx context.Context, dbPath string, sampleRows int) (*InspectReport, error) {
	db, err := internal.OpenDatabaseReadOnly(dbPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	tables, err := getTables(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}

	report := &InspectReport{Path: dbPath, Tables: []TableInfo{}, Sessions: []StoredSession{}}
	for _, name := range tables {
		info, err := inspectTable(ctx, db, name, sampleRows)
		if err != nil {
			internal.LogWarn("Error inspecting table %s: %v", name, err)
			continue
		}
		report.Tables = append(report.Tables, info)

		if name == "sessionKV" {
			report.Sessions, err = storedSessions(ctx, db)
			if err != nil {
				internal.LogWarn("Error reading sessions: %v", err)
			}
		}
	}
	return report, nil
}

func getTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type='table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			continue
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func inspectTable(ctx context.Context, db *sql.DB, tableName string, sampleRows int) (TableInfo, error) {
	info := TableInfo{Name: tableName}

	if err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %q", tableName)).Scan(&info.Rows); err != nil {
		return info, fmt.Errorf("failed to get row count: %w", err)
	}

	columns, err := getTableSchema(ctx, db, tableName)
	if err != nil {
		return info, fmt.Errorf("failed to get schema: %w", err)
	}
	info.Columns = columns

	// sessionKV values hold secrets; they are summarized separately.
	if tableName != "sessionKV" && info.Rows > 0 && sampleRows > 0 {
		info.Sample, err = sampleData(ctx, db, tableName, columns, sampleRows)
		if err != nil {
			internal.LogWarn("Error sampling %s: %v", tableName, err)
		}
	}
	return info, nil
}

func getTableSchema(ctx context.Context, db *sql.DB, tableName string) ([]ColumnInfo, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", tableName))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []ColumnInfo
	for rows.Next() {
		var col ColumnInfo
		var cid int
		var notNull, pk int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &defaultValue, &pk); err != nil {
			continue
		}
		col.NotNull = notNull == 1
		col.PrimaryKey = pk == 1
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func sampleData(ctx context.Context, db *sql.DB, tableName string, columns []ColumnInfo, limit int) ([]map[string]string, error) {
	colNames := make([]string, len(columns))
	for i, col := range columns {
		colNames[i] = fmt.Sprintf("%q", col.Name)
	}

	query := fmt.Sprintf("SELECT %s FROM %q LIMIT %d", strings.Join(colNames, ", "), tableName, limit)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sample []map[string]string
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return sample, err
		}

		row := make(map[string]string, len(columns))
		for i, col := range columns {
			if values[i] == nil {
				row[col.Name] = "<NULL>"
				continue
			}
			valStr := fmt.Sprintf("%v", values[i])
			if b, ok := values[i].([]byte); ok {
				valStr = string(b)
			}
			// Truncate long values
			if len(valStr) > 200 {
				valStr = valStr[:200] + "..."
			}
			// Show first line only for multi-line values
			if first, _, found := strings.Cut(valStr, "\n"); found {
				valStr = first + "..."
			}
			row[col.Name] = valStr
		}
		sample = append(sample, row)
	}
	return sample, rows.Err()
}

func storedSessions(ctx context.Context, db *sql.DB) ([]StoredSession, error) {
	pairs, err := internal.QuerySessionKV(ctx, db, "%")
	if err != nil {
		return nil, err
	}

	sessions := make([]StoredSession, 0, len(pairs))
	for _, pair := range pairs {
		s, err := internal.UnmarshalSession(pair.Key, []byte(pair.Value))
		if err != nil {
			sessions = append(sessions, StoredSession{Key: pair.Key, Error: err.Error()})
			continue
		}
		sessions = append(sessions, StoredSession{
			Key:          pair.Key,
			ProviderKind: s.ProviderKind,
			AccountID:    s.AccountID,
			DataDir:      s.Client.DataDir,
			HasSyncToken: s.SyncToken != nil,
		})
	}
	return sessions, nil
}

func printInspectReport(out io.Writer, report *InspectReport) {
	_, _ = fmt.Fprintf(out, "📋 Database: %s\n", report.Path)
	if len(report.Tables) == 0 {
		_, _ = fmt.Fprintln(out, "⚠️  No tables found in database")
		return
	}
	_, _ = fmt.Fprintf(out, "📊 Found %d table(s)\n\n", len(report.Tables))

	for _, t := range report.Tables {
		_, _ = fmt.Fprintf(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
		_, _ = fmt.Fprintf(out, "📦 Table: %s\n", t.Name)
		_, _ = fmt.Fprintf(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
		_, _ = fmt.Fprintf(out, "📊 Rows: %d\n\n", t.Rows)

		_, _ = fmt.Fprintf(out, "📐 Schema:\n")
		for _, col := range t.Columns {
			pk := ""
			if col.PrimaryKey {
				pk = " [PRIMARY KEY]"
			}
			notNull := ""
			if col.NotNull {
				notNull = " NOT NULL"
			}
			_, _ = fmt.Fprintf(out, "  • %s: %s%s%s\n", col.Name, col.Type, notNull, pk)
		}
		_, _ = fmt.Fprintln(out)

		for i, row := range t.Sample {
			_, _ = fmt.Fprintf(out, "  Row %d:\n", i+1)
			for _, col := range t.Columns {
				_, _ = fmt.Fprintf(out, "    %s: %s\n", col.Name, row[col.Name])
			}
		}
	}

	if len(report.Sessions) == 0 {
		return
	}
	_, _ = fmt.Fprintf(out, "\n🔑 Stored sessions (secrets redacted):\n")
	for _, s := range report.Sessions {
		if s.Error != "" {
			_, _ = fmt.Fprintf(out, "  • %s: %s\n", s.Key, errorStyle.Render(s.Error))
			continue
		}
		sync := "no sync token"
		if s.HasSyncToken {
			sync = "has sync token"
		}
		_, _ = fmt.Fprintf(out, "  • %s (%s, %s) data dir %s\n", s.Key, s.ProviderKind, sync, s.DataDir)
	}
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "text", "Output format (text, json)")
	inspectCmd.Flags().IntVar(&inspectSampleRows, "sample", 3, "Number of sample rows to show")
}
