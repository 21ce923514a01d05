package extract

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/fetch"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/logx"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/model"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/report"
)

const (
	// maxKPIPages はページ取得の上限。リモート側の表示上限に合わせた固定値。
	maxKPIPages = 5
	// kpiPageSize は 1 ページの満杯行数。これ未満なら最終ページと判定する。
	kpiPageSize = 1000
	// kpiCellCount は KPI 行の生セル数。これ以外の行は黙って読み飛ばす。
	kpiCellCount = 28
)

// 「2025-10-01 20:00:00 (61分12秒)」形式の開始日時セルを分解する。
var liveTimeRe = regexp.MustCompile(`(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\s*[（(](\d+)分(\d+)秒[)）]`)

// StatusError は取得段階の失敗を抽出エラーとして持ち回るための型。
type StatusError struct {
	Status     fetch.Status
	HTTPStatus int
}

func (e *StatusError) Error() string {
	switch e.Status {
	case fetch.StatusAuthExpired:
		return "セッションが期限切れです。Cookie を更新してください"
	case fetch.StatusHTTPError:
		return fmt.Sprintf("HTTP エラー: status=%d", e.HTTPStatus)
	default:
		return "取得に失敗しました"
	}
}

// PageFetcher は KPI の 1 ページ分を取得する。ページ番号は 1 始まり。
type PageFetcher func(ctx context.Context, page int) (fetch.Result, error)

// KPIResult は全ページ走査後の抽出結果。
type KPIResult struct {
	Rows       []model.KPIRow
	DupRemoved int
	Pages      int
}

// KPI は最大 maxKPIPages ページを順に取得して行を集める。
// ページごとの停止条件（この順で判定）：
//  1. テーブル無し → 終了
//  2. ヘッダーのみ → 終了
//  3. 採用行が kpiPageSize 未満 → このページを含めて終了
//
// ページングは厳密に逐次（次ページ要否は当該ページの行数に依存するため）。
// 全ページ走査後に (アカウント, ルーム, 開始日時, 配信分数) で重複排除し、
// 先に現れた行を残す。
func KPI(ctx context.Context, spec report.Spec, fetchPage PageFetcher) (KPIResult, error) {
	var all []model.KPIRow
	pages := 0
	for page := 1; page <= maxKPIPages; page++ {
		res, err := fetchPage(ctx, page)
		if err != nil {
			return KPIResult{}, fmt.Errorf("KPI %d ページ目の取得: %w", page, err)
		}
		if res.Status != fetch.StatusOK {
			return KPIResult{}, &StatusError{Status: res.Status, HTTPStatus: res.HTTPStatus}
		}
		doc, err := ParseDocument(res.Body)
		if err != nil {
			return KPIResult{}, fmt.Errorf("KPI %d ページ目の解析: %w", page, err)
		}
		table := LocateTable(doc, spec.TableSelector)
		if table == nil {
			break
		}
		pages++
		accepted, dataRows := kpiPageRows(table)
		if dataRows == 0 {
			// ヘッダーのみ
			break
		}
		all = append(all, accepted...)
		if len(accepted) < kpiPageSize {
			break
		}
	}
	rows, removed := dedupKPI(all)
	if removed > 0 {
		logx.Infof("KPI: 重複 %d 行を除外しました", removed)
	}
	return KPIResult{Rows: rows, Pages: pages, DupRemoved: removed}, nil
}

// kpiPageRows は 1 ページ分のテーブルから行を抽出する。
// 戻り値はページ内の採用行と、ヘッダーを除くデータ行の総数。
func kpiPageRows(table *goquery.Selection) ([]model.KPIRow, int) {
	var out []model.KPIRow
	dataRows := 0
	WalkRows(table, func(row *goquery.Selection) {
		dataRows++
		if r, ok := parseKPIRow(row); ok {
			out = append(out, r)
		}
	})
	return out, dataRows
}

// parseKPIRow は 28 セルの KPI 行を 27 項目へ写像する。
// セル 0 はチェックボックス、27 は詳細リンクで出力には使わない。
func parseKPIRow(row *goquery.Selection) (model.KPIRow, bool) {
	tds := row.Find("td")
	if tds.Length() != kpiCellCount {
		// セル数が合わない行（小計・注記など）は妥当性ゲートで除外
		return model.KPIRow{}, false
	}
	text := func(i int) string { return strings.TrimSpace(tds.Eq(i).Text()) }
	num := func(i int) string { return stripCommas(text(i)) }
	start, minutes := splitLiveTime(text(4))
	r := model.KPIRow{
		AccountID:         linkText(tds.Eq(1)),
		RoomID:            linkText(tds.Eq(2)),
		RoomName:          roomName(tds.Eq(3)),
		LiveStartDatetime: start,
		LiveMinutes:       strconv.Itoa(minutes),
		ViewerUU:          num(5),
		ViewPV:            num(6),
		CommentNum:        num(7),
		CommentUU:         num(8),
		FirstCommentUU:    num(9),
		GiftNum:           num(10),
		GiftUU:            num(11),
		FirstGiftUU:       num(12),
		FreeGiftNum:       num(13),
		PaidGiftNum:       num(14),
		PaidGiftPoint:     num(15),
		FollowerIncrease:  num(16),
		FollowerTotal:     num(17),
		FirstFollowerUU:   num(18),
		RoomLevel:         num(19),
		ShowRank:          text(20),
		RankingPoint:      num(21),
		EventPoint:        num(22),
		VisitUU:           num(23),
		FollowerViewRate:  strings.TrimSuffix(text(24), "%"),
		AvgViewMinutes:    num(25),
		LiveCount:         num(26),
	}
	return r, true
}

// splitLiveTime は「開始日時 (X分Y秒)」を開始日時と分数に分ける。
// 秒が 30 以上なら 1 分繰り上げる。一致しなければ空文字と 0。
func splitLiveTime(s string) (string, int) {
	m := liveTimeRe.FindStringSubmatch(s)
	if m == nil {
		return "", 0
	}
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	if seconds >= 30 {
		minutes++
	}
	return m[1], minutes
}

// linkText はセル内のリンクテキストを優先し、無ければセルの生テキストを返す。
func linkText(td *goquery.Selection) string {
	if a := td.Find("a").First(); a.Length() > 0 {
		if t := strings.TrimSpace(a.Text()); t != "" {
			return t
		}
	}
	return strings.TrimSpace(td.Text())
}

// roomName はルーム名セルの入れ子要素を優先して読む。
func roomName(td *goquery.Selection) string {
	if sp := td.Find("span.room-name").First(); sp.Length() > 0 {
		if t := strings.TrimSpace(sp.Text()); t != "" {
			return t
		}
	}
	return strings.TrimSpace(td.Text())
}

// dedupKPI は複合キーで重複排除し、先に現れた行を残す。
func dedupKPI(rows []model.KPIRow) ([]model.KPIRow, int) {
	seen := make(map[string]bool, len(rows))
	out := make([]model.KPIRow, 0, len(rows))
	for _, r := range rows {
		k := r.DedupKey()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out, len(rows) - len(out)
}
