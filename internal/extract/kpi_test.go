package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/fetch"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/report"
)

// kpiRowHTML は 28 セルの KPI 行を組み立てる。
func kpiRowHTML(account, room, name, combined string) string {
	var b strings.Builder
	b.WriteString("<tr>")
	b.WriteString(`<td><input type="checkbox"></td>`)
	fmt.Fprintf(&b, `<td><a href="/u/%s">%s</a></td>`, account, account)
	fmt.Fprintf(&b, `<td><a href="/room/%s">%s</a></td>`, room, room)
	fmt.Fprintf(&b, `<td><span class="room-name">%s</span></td>`, name)
	fmt.Fprintf(&b, "<td>%s</td>", combined)
	// 5..18: 数値 14 項目
	for i := 0; i < 14; i++ {
		fmt.Fprintf(&b, "<td>%d,00%d</td>", i+1, i)
	}
	b.WriteString("<td>42</td>")      // 19: ルームレベル
	b.WriteString("<td>SS-5</td>")    // 20: SHOWランク
	b.WriteString("<td>9,999</td>")   // 21: ランキングポイント
	b.WriteString("<td>1,000</td>")   // 22: イベントポイント
	b.WriteString("<td>350</td>")     // 23: 来場者数
	b.WriteString("<td>12.5%</td>")   // 24: フォロワー視聴率
	b.WriteString("<td>8</td>")       // 25: 平均視聴分数
	b.WriteString("<td>3</td>")       // 26: 配信回数
	b.WriteString(`<td><a href="#">詳細</a></td>`) // 27: 詳細リンク
	b.WriteString("</tr>")
	return b.String()
}

func kpiPage(rows ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><table class="kpi-table"><tr>`)
	for i := 0; i < 28; i++ {
		fmt.Fprintf(&b, "<th>h%d</th>", i)
	}
	b.WriteString("</tr>")
	for _, r := range rows {
		b.WriteString(r)
	}
	b.WriteString("</table></body></html>")
	return b.String()
}

func pageFetcherFor(pages map[int]string, calls *int) PageFetcher {
	return func(_ context.Context, page int) (fetch.Result, error) {
		*calls++
		body, ok := pages[page]
		if !ok {
			return fetch.Result{Body: "<html><body></body></html>", Status: fetch.StatusOK, HTTPStatus: 200}, nil
		}
		return fetch.Result{Body: body, Status: fetch.StatusOK, HTTPStatus: 200}, nil
	}
}

func uniqueRows(prefix string, n int) []string {
	rows := make([]string, n)
	for i := 0; i < n; i++ {
		rows[i] = kpiRowHTML(
			fmt.Sprintf("%s-acct-%d", prefix, i),
			fmt.Sprintf("%s-room-%d", prefix, i),
			"部屋",
			"2025-10-01 20:00:00 (61分12秒)",
		)
	}
	return rows
}

func TestKPI_PaginationStopsAfterShortPage(t *testing.T) {
	pages := map[int]string{
		1: kpiPage(uniqueRows("p1", 1000)...),
		2: kpiPage(uniqueRows("p2", 1000)...),
		3: kpiPage(uniqueRows("p3", 400)...),
		4: kpiPage(uniqueRows("p4", 1000)...), // 到達してはいけない
	}
	calls := 0
	res, err := KPI(context.Background(), report.KPI(), pageFetcherFor(pages, &calls))
	if err != nil {
		t.Fatalf("kpi: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls=%d want=3", calls)
	}
	if res.Pages != 3 || len(res.Rows) != 2400 {
		t.Fatalf("pages=%d rows=%d", res.Pages, len(res.Rows))
	}
}

func TestKPI_MaxPages(t *testing.T) {
	pages := map[int]string{}
	for p := 1; p <= 7; p++ {
		pages[p] = kpiPage(uniqueRows(fmt.Sprintf("p%d", p), 1000)...)
	}
	calls := 0
	res, err := KPI(context.Background(), report.KPI(), pageFetcherFor(pages, &calls))
	if err != nil {
		t.Fatalf("kpi: %v", err)
	}
	if calls != 5 || res.Pages != 5 {
		t.Fatalf("calls=%d pages=%d want=5", calls, res.Pages)
	}
	if len(res.Rows) != 5000 {
		t.Fatalf("rows=%d want=5000", len(res.Rows))
	}
}

func TestKPI_HeaderOnlyStops(t *testing.T) {
	pages := map[int]string{1: kpiPage()}
	calls := 0
	res, err := KPI(context.Background(), report.KPI(), pageFetcherFor(pages, &calls))
	if err != nil {
		t.Fatalf("kpi: %v", err)
	}
	if calls != 1 || len(res.Rows) != 0 {
		t.Fatalf("calls=%d rows=%d", calls, len(res.Rows))
	}
}

func TestKPI_NoTableStops(t *testing.T) {
	calls := 0
	res, err := KPI(context.Background(), report.KPI(), pageFetcherFor(map[int]string{}, &calls))
	if err != nil {
		t.Fatalf("kpi: %v", err)
	}
	if calls != 1 || res.Pages != 0 || len(res.Rows) != 0 {
		t.Fatalf("calls=%d pages=%d rows=%d", calls, res.Pages, len(res.Rows))
	}
}

func TestKPI_AuthExpiredFailsRun(t *testing.T) {
	fetcher := func(_ context.Context, page int) (fetch.Result, error) {
		return fetch.Result{Status: fetch.StatusAuthExpired, HTTPStatus: 200}, nil
	}
	_, err := KPI(context.Background(), report.KPI(), fetcher)
	var se *StatusError
	if !errors.As(err, &se) || se.Status != fetch.StatusAuthExpired {
		t.Fatalf("err=%v", err)
	}
}

func TestKPI_DedupKeepsFirst(t *testing.T) {
	combined := "2025-10-01 20:00:00 (61分12秒)"
	first := kpiRowHTML("acct", "room", "最初の名前", combined)
	dup := kpiRowHTML("acct", "room", "あとの名前", combined)
	other := kpiRowHTML("acct2", "room2", "別の部屋", combined)
	pages := map[int]string{1: kpiPage(first, dup, other)}
	calls := 0
	res, err := KPI(context.Background(), report.KPI(), pageFetcherFor(pages, &calls))
	if err != nil {
		t.Fatalf("kpi: %v", err)
	}
	if len(res.Rows) != 2 || res.DupRemoved != 1 {
		t.Fatalf("rows=%d removed=%d", len(res.Rows), res.DupRemoved)
	}
	if res.Rows[0].RoomName != "最初の名前" {
		t.Fatalf("first occurrence not kept: %+v", res.Rows[0])
	}
}

func TestKPI_WrongCellCountSkipped(t *testing.T) {
	short := "<tr>" + strings.Repeat("<td>x</td>", 27) + "</tr>"
	good := kpiRowHTML("acct", "room", "部屋", "2025-10-01 20:00:00 (10分00秒)")
	pages := map[int]string{1: kpiPage(short, good)}
	calls := 0
	res, err := KPI(context.Background(), report.KPI(), pageFetcherFor(pages, &calls))
	if err != nil {
		t.Fatalf("kpi: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("rows=%d want=1", len(res.Rows))
	}
}

func TestParseKPIRow_Transforms(t *testing.T) {
	pages := map[int]string{1: kpiPage(kpiRowHTML("acct1", "room1", "お部屋", "2025-10-01 20:00:00 (61分30秒)"))}
	calls := 0
	res, err := KPI(context.Background(), report.KPI(), pageFetcherFor(pages, &calls))
	if err != nil {
		t.Fatalf("kpi: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("rows=%d", len(res.Rows))
	}
	r := res.Rows[0]
	if r.AccountID != "acct1" || r.RoomID != "room1" || r.RoomName != "お部屋" {
		t.Fatalf("ids=%+v", r)
	}
	if r.LiveStartDatetime != "2025-10-01 20:00:00" {
		t.Fatalf("start=%q", r.LiveStartDatetime)
	}
	// 30 秒は繰り上げ
	if r.LiveMinutes != "62" {
		t.Fatalf("minutes=%q want=62", r.LiveMinutes)
	}
	// 桁区切り除去（5 番目のセル = 1,000）
	if r.ViewerUU != "1000" {
		t.Fatalf("viewer=%q", r.ViewerUU)
	}
	// パーセント除去
	if r.FollowerViewRate != "12.5" {
		t.Fatalf("rate=%q", r.FollowerViewRate)
	}
	if r.ShowRank != "SS-5" || r.RoomLevel != "42" {
		t.Fatalf("rank=%q level=%q", r.ShowRank, r.RoomLevel)
	}
}

func TestSplitLiveTime(t *testing.T) {
	cases := []struct {
		in      string
		start   string
		minutes int
	}{
		{"2025-10-01 20:00:00 (61分12秒)", "2025-10-01 20:00:00", 61},
		{"2025-10-01 20:00:00 (61分30秒)", "2025-10-01 20:00:00", 62},
		{"2025-10-01 20:00:00 （5分59秒）", "2025-10-01 20:00:00", 6}, // 全角括弧
		{"配信なし", "", 0},
		{"", "", 0},
	}
	for _, c := range cases {
		start, minutes := splitLiveTime(c.in)
		if start != c.start || minutes != c.minutes {
			t.Fatalf("splitLiveTime(%q)=(%q,%d) want=(%q,%d)", c.in, start, minutes, c.start, c.minutes)
		}
	}
}
