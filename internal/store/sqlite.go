// パッケージ store は実行履歴の保存（SQLite）を提供する。
// 記録するのは実行単位（帳票×対象月）の成否と件数のみで、
// 抽出したデータ自体は保存しない（パイプラインは実行ごとに使い捨て）。
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/model"
)

// SQLite は *sql.DB の薄い包み。modernc.org/sqlite（純 Go 実装）を使う。
type SQLite struct {
	db *sql.DB
}

// OpenSQLite はデータベースを開き、自動マイグレーションを実行する。
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// migrate は建表を冪等に実行する。
func (s *SQLite) migrate() error {
	q := `CREATE TABLE IF NOT EXISTS runs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        report_key TEXT,
        label TEXT,
        month TEXT,
        ok INTEGER,
        status TEXT,
        error TEXT,
        rows INTEGER,
        dup_removed INTEGER,
        remote_path TEXT,
        created_at TIMESTAMP
    );`
	if _, err := s.db.Exec(q); err != nil {
		return fmt.Errorf("exec migrate: %w", err)
	}
	return nil
}

// Append は 1 実行単位の結果を追記する。
func (s *SQLite) Append(ctx context.Context, r model.RunRecord) error {
	created := r.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO runs(report_key, label, month, ok, status, error, rows, dup_removed, remote_path, created_at)
        VALUES(?,?,?,?,?,?,?,?,?,?)`,
		r.ReportKey, r.Label, r.Month, boolToInt(r.OK), r.Status, r.Error, r.Rows, r.DupRemoved, r.RemotePath, created)
	if err != nil {
		return fmt.Errorf("append run %s %s: %w", r.ReportKey, r.Month, err)
	}
	return nil
}

// Recent は新しい順に最大 limit 件の履歴を返す。
func (s *SQLite) Recent(ctx context.Context, limit int) ([]model.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, report_key, label, month, ok, status, COALESCE(error,''), rows, dup_removed, remote_path, created_at
        FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()
	var out []model.RunRecord
	for rows.Next() {
		var r model.RunRecord
		var ok int
		var createdAt sql.NullTime
		if err := rows.Scan(&r.ID, &r.ReportKey, &r.Label, &r.Month, &ok, &r.Status, &r.Error, &r.Rows, &r.DupRemoved, &r.RemotePath, &createdAt); err != nil {
			return nil, fmt.Errorf("scan runs: %w", err)
		}
		r.OK = ok != 0
		if createdAt.Valid {
			r.CreatedAt = createdAt.Time
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
