package extract

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/logx"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/model"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/report"
)

// 売上テーブルの固定セル位置。
// 0: ルームID, 1: ルームURL, 2: ルーム名, 3: 分配額, 4: アカウントID
const (
	amountCol    = 3
	accountIDCol = 4
	minCells     = 5
)

// 「支払金額（税抜）：1,234,567円」形式から金額を取り出す。
var totalAmountRe = regexp.MustCompile(`支払金額（税抜）[:：]?\s*([0-9,]+)\s*円`)

// Standard はタイムチャージ/プレミアムライブ帳票の行を抽出する。
// 分配額がカンマ除去後に数字のみの行だけを採用し（合計行・脚注行を除外）、
// 採用行ゼロのときは番兵行 {0, dummy} を 1 行返す。
// 下流は空ファイルを受け付けないため、結果が空になることはない。
func Standard(doc *goquery.Document, spec report.Spec) []model.RevenueRow {
	rows := revenueRows(doc, spec)
	if len(rows) == 0 {
		logx.Warnf("%s: 有効な行がないため番兵行を出力します", spec.Label)
		rows = []model.RevenueRow{{Amount: "0", AccountID: "dummy"}}
	}
	return rows
}

// TotalPlusRows はルーム売上帳票を抽出する。ページ内の合計金額を先頭の
// 合成行 {合計, MKsoul} として置き、その後に各ルームの行を続ける。
// 合計パターンが一致しないときは 0 円として扱う。ルーム行ゼロは正常
// （合成行があるため空ファイルにはならない）。
func TotalPlusRows(doc *goquery.Document, spec report.Spec) []model.RevenueRow {
	total := totalAmount(doc, spec)
	rows := []model.RevenueRow{{Amount: total, AccountID: "MKsoul"}}
	return append(rows, revenueRows(doc, spec)...)
}

// revenueRows は共通の行走査：5 セル以上の行から分配額/アカウントIDを取り出す。
func revenueRows(doc *goquery.Document, spec report.Spec) []model.RevenueRow {
	table := LocateTable(doc, spec.TableSelector)
	if table == nil {
		logx.Warnf("%s: テーブルが見つかりません", spec.Label)
		return nil
	}
	var out []model.RevenueRow
	WalkRows(table, func(row *goquery.Selection) {
		cells := CellsOf(row)
		if len(cells) < minCells {
			return
		}
		amount := stripCommas(cells[amountCol])
		if !isDigits(amount) {
			return
		}
		out = append(out, model.RevenueRow{Amount: amount, AccountID: cells[accountIDCol]})
	})
	return out
}

// totalAmount は合計金額を要素テキスト（無ければ文書全体）から抽出する。
func totalAmount(doc *goquery.Document, spec report.Spec) string {
	text := ""
	if spec.TotalSelector != "" {
		text = doc.Find(spec.TotalSelector).First().Text()
	}
	if text == "" {
		text = doc.Text()
	}
	m := totalAmountRe.FindStringSubmatch(text)
	if m == nil {
		logx.Warnf("%s: 合計金額のパターンが一致しません。0 円として扱います", spec.Label)
		return "0"
	}
	return stripCommas(m[1])
}
