// パッケージ report は帳票定義（静的レジストリ）を提供する：
// - 帳票キー/表示名/取得元 URL/出力ファイル名/構造種別
// - 対象月から取得 URL（クエリ付き）を組み立てるヘルパー
// リモートの HTML 構造に依存するセレクタもここへ集約し、
// 構造変更時の修正点を 1 箇所にする。
package report

import (
	"fmt"
	"net/url"

	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/period"
)

// Shape は帳票の構造種別。抽出と CSV 整形の規則を決める。
type Shape int

const (
	// ShapeStandard：固定 5 列以上の行テーブル（分配額 + アカウントID）
	ShapeStandard Shape = iota
	// ShapeTotalPlusRows：Standard + ページ内の合計金額を先頭行に合成
	ShapeTotalPlusRows
	// ShapeKPIPaginated：ページング付き 28 セル行の KPI テーブル
	ShapeKPIPaginated
)

// Spec は 1 帳票の静的定義。
type Spec struct {
	Key            string
	Label          string
	SourceURL      string
	OutputFilename string // 売上帳票の固定ファイル名（KPI は月ごとに生成）
	Shape          Shape
	TableSelector  string // 抽出対象テーブルの CSS セレクタ
	TotalSelector  string // ShapeTotalPlusRows の合計金額を含む要素
}

const organizerBase = "https://www.showroom-live.com/organizer"

var specs = []Spec{
	{
		Key:            "time_charge",
		Label:          "タイムチャージ",
		SourceURL:      organizerBase + "/show_rank_time_charge_hist_invoice_format",
		OutputFilename: "show_rank_time_charge_hist_invoice_format.csv",
		Shape:          ShapeStandard,
		TableSelector:  "table.common-table",
	},
	{
		Key:            "premium_live",
		Label:          "プレミアムライブ",
		SourceURL:      organizerBase + "/premium_live_hist_invoice_format",
		OutputFilename: "premium_live_hist_invoice_format.csv",
		Shape:          ShapeStandard,
		TableSelector:  "table.common-table",
	},
	{
		Key:            "room_sales",
		Label:          "ルーム売上",
		SourceURL:      organizerBase + "/room_sales_hist_invoice_format",
		OutputFilename: "room_sales_hist_invoice_format.csv",
		Shape:          ShapeTotalPlusRows,
		TableSelector:  "table.common-table",
		TotalSelector:  "div.payment-summary",
	},
	{
		Key:           "live_kpi",
		Label:         "配信KPI",
		SourceURL:     organizerBase + "/live_kpi_hist",
		Shape:         ShapeKPIPaginated,
		TableSelector: "table.kpi-table",
	},
}

// All は全帳票定義を返す。
func All() []Spec { return specs }

// Revenue は売上系（KPI 以外）の帳票定義を返す。
func Revenue() []Spec {
	var out []Spec
	for _, s := range specs {
		if s.Shape != ShapeKPIPaginated {
			out = append(out, s)
		}
	}
	return out
}

// KPI は配信 KPI の帳票定義を返す。
func KPI() Spec {
	for _, s := range specs {
		if s.Shape == ShapeKPIPaginated {
			return s
		}
	}
	panic("report: kpi spec missing")
}

// Get はキーで帳票定義を引く。
func Get(key string) (Spec, bool) {
	for _, s := range specs {
		if s.Key == key {
			return s, true
		}
	}
	return Spec{}, false
}

// FetchURL は対象月から取得 URL を組み立てる。
// 売上帳票は ?from=<月初 JST の UNIX 秒>、KPI は日付範囲 + ページ番号。
func (s Spec) FetchURL(p period.Period, page int) string {
	if s.Shape == ShapeKPIPaginated {
		from, to := p.DateRange()
		q := url.Values{}
		q.Set("from_date", from)
		q.Set("to_date", to)
		q.Set("page", fmt.Sprintf("%d", page))
		q.Set("room_id", "")
		return s.SourceURL + "?" + q.Encode()
	}
	return fmt.Sprintf("%s?from=%d", s.SourceURL, p.EpochSeconds())
}

// KPIFilename は KPI の月次出力ファイル名「YYYY-MM_all_all.csv」。
func KPIFilename(p period.Period) string {
	return p.FileMonth() + "_all_all.csv"
}
