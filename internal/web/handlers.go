package web

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/config"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/logx"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/period"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/report"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/runner"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/store"
)

// Handlers は画面ハンドラの依存をまとめる。
type Handlers struct {
	cfg    *config.Config
	runner *runner.Runner
	store  *store.SQLite
}

type monthOption struct {
	Value string // YYYY-MM
	Label string // YYYY年MM月分
}

type indexData struct {
	Months  []monthOption
	Reports []report.Spec
}

type resultData struct {
	Units []runner.Unit
}

// Index は対象月と帳票の選択フォームを表示する。
// 月の選択肢は新しい月が先頭で、売上用プルダウンは最新月を既定選択にする。
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	periods := period.List(time.Now(), h.cfg.Start.Year, h.cfg.Start.Month)
	data := indexData{Reports: report.Revenue()}
	for _, p := range periods {
		data.Months = append(data.Months, monthOption{Value: p.FileMonth(), Label: p.Label()})
	}
	renderTemplate(w, indexTmpl, data)
}

// Run は選択された単位を同期実行し、単位ごとの成否とプレビューを表示する。
func (h *Handlers) Run(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "フォームの解析に失敗しました", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	var units []runner.Unit

	// 売上帳票：1 か月 × 選択された帳票
	if keys := r.Form["reports"]; len(keys) > 0 {
		p, err := period.Parse(r.FormValue("revenue_month"))
		if err != nil {
			http.Error(w, "対象月が不正です", http.StatusBadRequest)
			return
		}
		units = append(units, h.runner.RunRevenue(ctx, p, keys)...)
	}

	// KPI 帳票：複数月可（runner 側で昇順に処理）
	if values := r.Form["kpi_months"]; len(values) > 0 {
		var months []period.Period
		for _, v := range values {
			p, err := period.Parse(v)
			if err != nil {
				http.Error(w, "KPI の対象月が不正です", http.StatusBadRequest)
				return
			}
			months = append(months, p)
		}
		units = append(units, h.runner.RunKPI(ctx, months)...)
	}

	if len(units) == 0 {
		http.Error(w, "帳票または対象月が選択されていません", http.StatusBadRequest)
		return
	}
	renderTemplate(w, resultTmpl, resultData{Units: units})
}

// History は実行履歴を JSON で返す。
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if h.store == nil {
		_ = json.NewEncoder(w).Encode([]any{})
		return
	}
	recs, err := h.store.Recent(r.Context(), 50)
	if err != nil {
		logx.Errorf("履歴の取得に失敗しました: %v", err)
		http.Error(w, "履歴の取得に失敗しました", http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(recs)
}

func renderTemplate(w http.ResponseWriter, t *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.Execute(w, data); err != nil {
		logx.Errorf("テンプレート描画に失敗しました: %v", err)
	}
}

var indexTmpl = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="ja">
<head><meta charset="utf-8"><title>売上・KPI アップロードツール</title></head>
<body>
<h1>ライバー売上・KPI 自動アップロードツール</h1>
<form method="post" action="/run">
  <h2>1. 売上帳票</h2>
  <p>対象月:
    <select name="revenue_month">
      {{range $i, $m := .Months}}<option value="{{$m.Value}}"{{if eq $i 0}} selected{{end}}>{{$m.Label}}</option>
      {{end}}
    </select>
  </p>
  <p>
    {{range .Reports}}<label><input type="checkbox" name="reports" value="{{.Key}}"> {{.Label}}</label>
    {{end}}
  </p>
  <h2>2. 配信KPI（複数月可）</h2>
  <p>
    {{range .Months}}<label><input type="checkbox" name="kpi_months" value="{{.Value}}"> {{.Label}}</label>
    {{end}}
  </p>
  <p><button type="submit">取得・整形・アップロードを実行</button></p>
</form>
<p><a href="/api/v1/history">実行履歴 (JSON)</a></p>
</body>
</html>
`))

var resultTmpl = template.Must(template.New("result").Parse(`<!doctype html>
<html lang="ja">
<head><meta charset="utf-8"><title>実行結果</title></head>
<body>
<h1>実行結果</h1>
{{range .Units}}
<section>
  <h2>{{.Label}} {{.Period.Label}} — {{if .OK}}成功{{else}}失敗{{end}}</h2>
  {{if .OK}}
  <p>行数: {{.Rows}}{{if .DupRemoved}}（重複除外 {{.DupRemoved}}）{{end}} / アップロード先: <code>{{.RemotePath}}</code></p>
  <pre>{{range .Preview}}{{.}}
{{end}}</pre>
  {{else}}
  <p>状態: {{.Status}}</p>
  <p>{{.Err}}</p>
  {{end}}
</section>
{{end}}
<p><a href="/">戻る</a></p>
</body>
</html>
`))
