// パッケージ extract は半構造化 HTML から帳票データを抽出する：
// - 共通のテーブル探索と行走査（LocateTable / CellsOf）
// - 売上系（Standard / TotalPlusRows）と KPI（ページング + 重複排除）の 3 系統
// リモートのセレクタ依存はここと report の定義に閉じ込める。
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseDocument は HTML 文字列を goquery ドキュメントへ変換する。
func ParseDocument(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// LocateTable は対象テーブルを探す。セレクタ不一致のときは最初の table に
// フォールバックし、それも無ければ nil を返す（テーブル無し）。
func LocateTable(doc *goquery.Document, selector string) *goquery.Selection {
	if selector != "" {
		if t := doc.Find(selector).First(); t.Length() > 0 {
			return t
		}
	}
	if t := doc.Find("table").First(); t.Length() > 0 {
		return t
	}
	return nil
}

// WalkRows はヘッダー行（先頭 tr）を飛ばしてデータ行を順に渡す。
func WalkRows(table *goquery.Selection, fn func(row *goquery.Selection)) {
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		fn(row)
	})
}

// CellsOf は行内の td テキスト（トリム済み）を返す。
func CellsOf(row *goquery.Selection) []string {
	var cells []string
	row.Find("td").Each(func(_ int, td *goquery.Selection) {
		cells = append(cells, strings.TrimSpace(td.Text()))
	})
	return cells
}

// stripCommas は桁区切りカンマを除去する。
func stripCommas(s string) string {
	return strings.ReplaceAll(s, ",", "")
}

// isDigits は十進数字のみ（空でない）か判定する。
// 合計行や脚注行の「合計」「-」などを弾く妥当性ゲートに使う。
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
