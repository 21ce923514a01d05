// パッケージ period は対象月（請求期間）の計算を担当する：
// - 「今」と設定された下限年月から選択可能な月リストを生成
// - 月初 00:00:00 JST の UNIX タイムスタンプ（売上帳票のアドレス）
// - 月初〜月末の日付範囲（KPI 帳票のアドレス）
// タイムゾーンは必ず Location 付きで構築し、手動オフセット計算はしない。
package period

import (
	"fmt"
	"sort"
	"time"
)

// JST は日本標準時。サーバーがどの地域で動いても月境界を誤らないため、
// 日付操作は常にこの Location を通す。
var JST *time.Location

func init() {
	var err error
	JST, err = time.LoadLocation("Asia/Tokyo")
	if err != nil {
		panic(err)
	}
}

// Period は 1 つの対象月。帳票の種類に応じてタイムスタンプまたは
// 日付範囲のどちらかのアドレスを使う。
type Period struct {
	Year  int
	Month int
}

// Label は画面表示用の「YYYY年MM月分」。
func (p Period) Label() string {
	return fmt.Sprintf("%d年%02d月分", p.Year, p.Month)
}

// FileMonth は KPI ファイル名などに使う「YYYY-MM」。
func (p Period) FileMonth() string {
	return fmt.Sprintf("%d-%02d", p.Year, p.Month)
}

// EpochSeconds は月初 00:00:00 JST の UNIX 秒を返す。
// 例：2025-10 → 1759244400、2025-09 → 1756652400。
func (p Period) EpochSeconds() int64 {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, JST).Unix()
}

// DateRange は from=月初、to=月末（暦計算、閏年対応）を YYYY-MM-DD で返す。
func (p Period) DateRange() (from, to string) {
	first := time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, JST)
	// 翌月 0 日 = 当月末日。12 月→1 月の繰り越しは time.Date が処理する。
	last := time.Date(p.Year, time.Month(p.Month)+1, 0, 0, 0, 0, 0, JST)
	return first.Format("2006-01-02"), last.Format("2006-01-02")
}

// List は now を含む月から下限年月まで降順（新しい月が先頭）の Period 列を返す。
// 未来の月と下限より前の月は含めない。now が下限月なら要素は 1 つ。
func List(now time.Time, floorYear, floorMonth int) []Period {
	now = now.In(JST)
	cur := Period{Year: now.Year(), Month: int(now.Month())}
	floor := Period{Year: floorYear, Month: floorMonth}
	var out []Period
	for !before(cur, floor) {
		out = append(out, cur)
		cur = prev(cur)
	}
	return out
}

// SortAscending は古い月が先頭になるよう並べ替える（KPI の複数月実行用）。
func SortAscending(ps []Period) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Year != ps[j].Year {
			return ps[i].Year < ps[j].Year
		}
		return ps[i].Month < ps[j].Month
	})
}

// Parse は「YYYY-MM」形式を Period に変換する（フォーム値の復元用）。
func Parse(s string) (Period, error) {
	var y, m int
	if _, err := fmt.Sscanf(s, "%d-%d", &y, &m); err != nil {
		return Period{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	if m < 1 || m > 12 {
		return Period{}, fmt.Errorf("month out of range: %q", s)
	}
	return Period{Year: y, Month: m}, nil
}

func before(a, b Period) bool {
	if a.Year != b.Year {
		return a.Year < b.Year
	}
	return a.Month < b.Month
}

func prev(p Period) Period {
	if p.Month == 1 {
		return Period{Year: p.Year - 1, Month: 12}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}
