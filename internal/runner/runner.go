// パッケージ runner は主流程の編成を担当する：
// - 実行単位 =（帳票 × 対象月）で 取得→抽出→整形→アップロード を直列実行
// - 1 単位の失敗は記録して次へ進む（きょうだい単位を巻き込まない）
// - KPI の複数月実行は古い月から順に処理する
// リトライはどこにも無い。再実行は操作者の再トリガーのみ。
package runner

import (
	"context"
	"errors"
	"time"

	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/config"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/extract"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/fetch"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/logx"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/model"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/period"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/report"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/shape"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/upload"
)

// Uploader は転送先の抽象（テストで差し替える）。
type Uploader interface {
	Put(ctx context.Context, remotePath string, data []byte) error
}

// Recorder は実行履歴の追記先。nil なら記録しない。
type Recorder interface {
	Append(ctx context.Context, r model.RunRecord) error
}

// Unit は 1 実行単位の結果。画面表示と履歴記録の両方に使う。
type Unit struct {
	ReportKey  string
	Label      string
	Period     period.Period
	OK         bool
	Status     string
	Err        string
	Rows       int
	DupRemoved int
	RemotePath string
	Preview    []string
}

// Runner は編成実行器。設定/取得クライアント/転送先/履歴を保持する。
type Runner struct {
	cfg      *config.Config
	fetch    *fetch.Client
	uploader Uploader
	recorder Recorder
	// now はテストで固定時刻を注入するための時計
	now func() time.Time
}

// New は Runner を生成する。rec は nil 可。
func New(cfg *config.Config, cl *fetch.Client, up Uploader, rec Recorder) *Runner {
	return &Runner{cfg: cfg, fetch: cl, uploader: up, recorder: rec, now: time.Now}
}

// SetClock は整形時刻の時計を差し替える（テスト用）。
func (r *Runner) SetClock(now func() time.Time) { r.now = now }

// RunRevenue は選択された売上帳票を 1 対象月ぶん順に処理する。
func (r *Runner) RunRevenue(ctx context.Context, p period.Period, keys []string) []Unit {
	var units []Unit
	for _, key := range keys {
		spec, ok := report.Get(key)
		if !ok || spec.Shape == report.ShapeKPIPaginated {
			continue
		}
		u := r.runRevenueUnit(ctx, p, spec)
		r.record(ctx, u)
		units = append(units, u)
	}
	return units
}

// runRevenueUnit は売上帳票 1 単位：取得→抽出→整形→アップロード。
func (r *Runner) runRevenueUnit(ctx context.Context, p period.Period, spec report.Spec) Unit {
	u := Unit{ReportKey: spec.Key, Label: spec.Label, Period: p}
	logx.Infof("%s %s: 取得開始", spec.Label, p.Label())
	res, err := r.fetch.Get(ctx, spec.FetchURL(p, 0), r.cfg.AuthCookie)
	if err != nil {
		return failed(u, fetch.StatusTransportError.String(), err)
	}
	if res.Status != fetch.StatusOK {
		return failed(u, res.Status.String(), &extract.StatusError{Status: res.Status, HTTPStatus: res.HTTPStatus})
	}
	doc, err := extract.ParseDocument(res.Body)
	if err != nil {
		return failed(u, "parse_error", err)
	}
	var rows []model.RevenueRow
	switch spec.Shape {
	case report.ShapeTotalPlusRows:
		rows = extract.TotalPlusRows(doc, spec)
	default:
		rows = extract.Standard(doc, spec)
	}
	data := shape.Revenue(rows, shape.RunTimestamp(r.now()))
	u.Rows = len(rows)
	u.Preview = shape.Preview(data, 5)
	u.RemotePath = upload.Join(r.cfg.FTP.RevenuePath, spec.OutputFilename)
	if err := r.uploader.Put(ctx, u.RemotePath, data); err != nil {
		return failed(u, "upload_failure", err)
	}
	u.OK = true
	u.Status = "ok"
	logx.Infof("%s %s: %d 行をアップロードしました → %s", spec.Label, p.Label(), u.Rows, u.RemotePath)
	return u
}

// RunKPI は KPI 帳票を複数月ぶん処理する。月は昇順に並べ替えてから実行。
func (r *Runner) RunKPI(ctx context.Context, months []period.Period) []Unit {
	period.SortAscending(months)
	spec := report.KPI()
	var units []Unit
	for _, p := range months {
		u := r.runKPIUnit(ctx, p, spec)
		r.record(ctx, u)
		units = append(units, u)
	}
	return units
}

// runKPIUnit は KPI 1 か月分：ページング取得→抽出→整形→アップロード。
func (r *Runner) runKPIUnit(ctx context.Context, p period.Period, spec report.Spec) Unit {
	u := Unit{ReportKey: spec.Key, Label: spec.Label, Period: p}
	logx.Infof("%s %s: 取得開始", spec.Label, p.Label())
	cookie := r.cfg.KPICookie()
	result, err := extract.KPI(ctx, spec, func(ctx context.Context, page int) (fetch.Result, error) {
		return r.fetch.Get(ctx, spec.FetchURL(p, page), cookie)
	})
	if err != nil {
		var se *extract.StatusError
		if errors.As(err, &se) {
			return failed(u, se.Status.String(), err)
		}
		return failed(u, fetch.StatusTransportError.String(), err)
	}
	data, err := shape.KPI(result.Rows)
	if err != nil {
		return failed(u, "shape_error", err)
	}
	u.Rows = len(result.Rows)
	u.DupRemoved = result.DupRemoved
	u.Preview = shape.Preview(data, 5)
	u.RemotePath = upload.Join(r.cfg.FTP.KPIPath, report.KPIFilename(p))
	if err := r.uploader.Put(ctx, u.RemotePath, data); err != nil {
		return failed(u, "upload_failure", err)
	}
	u.OK = true
	u.Status = "ok"
	logx.Infof("%s %s: %d 行（重複除外 %d）をアップロードしました → %s",
		spec.Label, p.Label(), u.Rows, u.DupRemoved, u.RemotePath)
	return u
}

// record は履歴追記を試みる。履歴の失敗は単位の結果に影響させない。
func (r *Runner) record(ctx context.Context, u Unit) {
	if r.recorder == nil {
		return
	}
	rec := model.RunRecord{
		ReportKey:  u.ReportKey,
		Label:      u.Label,
		Month:      u.Period.FileMonth(),
		OK:         u.OK,
		Status:     u.Status,
		Error:      u.Err,
		Rows:       u.Rows,
		DupRemoved: u.DupRemoved,
		RemotePath: u.RemotePath,
		CreatedAt:  r.now(),
	}
	if err := r.recorder.Append(ctx, rec); err != nil {
		logx.Warnf("実行履歴の記録に失敗しました: %v", err)
	}
}

func failed(u Unit, status string, err error) Unit {
	u.OK = false
	u.Status = status
	if err != nil {
		u.Err = err.Error()
	}
	logx.Errorf("%s %s: 失敗 (%s): %v", u.Label, u.Period.Label(), status, err)
	return u
}
