// パッケージ model は共有データモデル（抽出行/実行記録）を定義する。
package model

import "time"

// RevenueRow は売上帳票（タイムチャージ/プレミアムライブ/ルーム売上）の 1 行。
// Amount はカンマ除去済みの数字文字列のまま保持する（下流 CSV が文字列契約のため）。
type RevenueRow struct {
	Amount    string `json:"amount"`
	AccountID string `json:"account_id"`
}

// KPIRow は配信 KPI 帳票の 1 行（27 項目）。数値項目はカンマ除去済みの
// 数字文字列、率はパーセント記号除去済み。全て文字列のまま扱う。
type KPIRow struct {
	AccountID         string `json:"account_id"`
	RoomID            string `json:"room_id"`
	RoomName          string `json:"room_name"`
	LiveStartDatetime string `json:"live_start_datetime"`
	LiveMinutes       string `json:"live_minutes"`
	ViewerUU          string `json:"viewer_uu"`
	ViewPV            string `json:"view_pv"`
	CommentNum        string `json:"comment_num"`
	CommentUU         string `json:"comment_uu"`
	FirstCommentUU    string `json:"first_comment_uu"`
	GiftNum           string `json:"gift_num"`
	GiftUU            string `json:"gift_uu"`
	FirstGiftUU       string `json:"first_gift_uu"`
	FreeGiftNum       string `json:"free_gift_num"`
	PaidGiftNum       string `json:"paid_gift_num"`
	PaidGiftPoint     string `json:"paid_gift_point"`
	FollowerIncrease  string `json:"follower_increase"`
	FollowerTotal     string `json:"follower_total"`
	FirstFollowerUU   string `json:"first_follower_uu"`
	RoomLevel         string `json:"room_level"`
	ShowRank          string `json:"show_rank"`
	RankingPoint      string `json:"ranking_point"`
	EventPoint        string `json:"event_point"`
	VisitUU           string `json:"visit_uu"`
	FollowerViewRate  string `json:"follower_view_rate"`
	AvgViewMinutes    string `json:"avg_view_minutes"`
	LiveCount         string `json:"live_count"`
}

// KPIHeader は KPI CSV のヘッダー行（列順は KPIRow.Values と一致させること）。
var KPIHeader = []string{
	"アカウントID", "ルームID", "ルーム名", "配信開始日時", "配信時間(分)",
	"視聴会員数", "視聴PV", "コメント数", "コメント会員数", "初コメント会員数",
	"ギフト数", "ギフト会員数", "初ギフト会員数", "無料ギフト数", "有料ギフト数",
	"有料ギフトポイント", "フォロワー増加数", "累計フォロワー数", "初フォロー会員数",
	"ルームレベル", "SHOWランク", "ランキングポイント", "イベントポイント",
	"来場者数", "フォロワー視聴率(%)", "平均視聴分数", "配信回数",
}

// Values は CSV 出力順に値を並べる。
func (r KPIRow) Values() []string {
	return []string{
		r.AccountID, r.RoomID, r.RoomName, r.LiveStartDatetime, r.LiveMinutes,
		r.ViewerUU, r.ViewPV, r.CommentNum, r.CommentUU, r.FirstCommentUU,
		r.GiftNum, r.GiftUU, r.FirstGiftUU, r.FreeGiftNum, r.PaidGiftNum,
		r.PaidGiftPoint, r.FollowerIncrease, r.FollowerTotal, r.FirstFollowerUU,
		r.RoomLevel, r.ShowRank, r.RankingPoint, r.EventPoint,
		r.VisitUU, r.FollowerViewRate, r.AvgViewMinutes, r.LiveCount,
	}
}

// DedupKey は重複排除キー（アカウント×ルーム×開始日時×配信分数）。
func (r KPIRow) DedupKey() string {
	return r.AccountID + "|" + r.RoomID + "|" + r.LiveStartDatetime + "|" + r.LiveMinutes
}

// RunRecord は 1 実行単位（帳票×対象月）の結果記録。
type RunRecord struct {
	ID         int64     `json:"id"`
	ReportKey  string    `json:"report_key"`
	Label      string    `json:"label"`
	Month      string    `json:"month"` // YYYY-MM
	OK         bool      `json:"ok"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Rows       int       `json:"rows"`
	DupRemoved int       `json:"dup_removed"`
	RemotePath string    `json:"remote_path"`
	CreatedAt  time.Time `json:"created_at"`
}
