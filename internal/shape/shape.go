// パッケージ shape は抽出結果を下流の固定 CSV レイアウトへ整形する：
// - 売上 CSV：ヘッダー無し 3 列、更新日時は先頭行の 3 列目にのみ入る
// - KPI CSV：27 列のヘッダー付きテーブル
// どちらも UTF-8。列位置とスパースセルは下流の取り込み契約そのもの。
package shape

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/model"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/period"
)

// RunTimestamp は更新日時セルの値「YYYY/MM/DD HH:MM」（JST）を作る。
// 整形時に一度だけ読み、テストでは固定時刻を注入する。
func RunTimestamp(now time.Time) string {
	return now.In(period.JST).Format("2006/01/02 15:04")
}

// Revenue は売上 CSV を組み立てる。
// 1 行目のみ 3 列目に runTimestamp、以降の行の 3 列目は空（区切りは残す）。
// 値は数字とアカウント ID のみでクォートは不要なため、直接バイト列を組む。
func Revenue(rows []model.RevenueRow, runTimestamp string) []byte {
	var buf bytes.Buffer
	for i, r := range rows {
		buf.WriteString(r.Amount)
		buf.WriteByte(',')
		buf.WriteString(r.AccountID)
		buf.WriteByte(',')
		if i == 0 {
			buf.WriteString(runTimestamp)
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// ParseRevenue は Revenue の逆変換。往復テストと画面プレビューに使う。
// 戻り値の更新日時は先頭行の 3 列目から回収する。
func ParseRevenue(data []byte) ([]model.RevenueRow, string, error) {
	var rows []model.RevenueRow
	ts := ""
	for i, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if line == "" {
			continue
		}
		cols := strings.Split(line, ",")
		if len(cols) != 3 {
			return nil, "", fmt.Errorf("行 %d: 3 列ではありません: %q", i+1, line)
		}
		if i == 0 {
			ts = cols[2]
		}
		rows = append(rows, model.RevenueRow{Amount: cols[0], AccountID: cols[1]})
	}
	return rows, ts, nil
}

// KPI はヘッダー付きの KPI CSV を組み立てる。
func KPI(rows []model.KPIRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(model.KPIHeader); err != nil {
		return nil, fmt.Errorf("write kpi header: %w", err)
	}
	for i, r := range rows {
		if err := w.Write(r.Values()); err != nil {
			return nil, fmt.Errorf("write kpi row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush kpi csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Preview は生成した文書の先頭 n 行を画面表示用に返す。
func Preview(data []byte, n int) []string {
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return lines
}
