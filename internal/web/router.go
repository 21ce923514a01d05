// パッケージ web は操作者向けの画面と実行トリガーを提供する：
// - GET /            対象月と帳票を選ぶフォーム
// - POST /run        選択した単位を同期実行して結果を表示
// - GET /api/v1/history 実行履歴の JSON
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/config"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/runner"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/store"
)

// NewRouter は chi ルーターを組み立てる。st は nil 可（履歴なし運用）。
func NewRouter(cfg *config.Config, run *runner.Runner, st *store.SQLite) http.Handler {
	h := &Handlers{cfg: cfg, runner: run, store: st}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", h.Index)
	r.Post("/run", h.Run)
	r.Get("/api/v1/history", h.History)

	return r
}
