// コマンドラインエントリ：
// - flags と settings.yaml を解析
// - ログ、取得クライアント、FTP、実行履歴 DB を初期化
// - 通常は操作フォームの Web サーバーを起動（-month 指定時は一括実行して終了）
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/config"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/fetch"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/logx"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/period"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/runner"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/store"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/upload"
	"github.com/masakikurihara-lgtm/sr-management-d-ud/internal/web"
)

func main() {
	var (
		configPath = flag.String("config", "settings.yaml", "path to settings.yaml")
		addr       = flag.String("addr", "", "listen address (overrides LISTEN)")
		month      = flag.String("month", "", "run once for YYYY-MM and exit (debug)")
		reports    = flag.String("reports", "time_charge,premium_live,room_sales", "comma-separated report keys for -month")
		withKPI    = flag.Bool("kpi", false, "include the KPI report in the -month run")
	)
	flag.Parse()

	// 1) 設定ロード（必須値の欠落はここで致命終了）
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// 2) ログ初期化：レベル/フォーマット/言語/色
	logx.Init(cfg.LogLevel, cfg.LogFormat, cfg.LogLocale, cfg.LogColor)

	// 3) 取得クライアントと FTP クライアント
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	cl := fetch.New(fetch.Options{Timeout: timeout, LoginMarkers: cfg.LoginMarkers})
	up := upload.New(cfg.FTP.Host, cfg.FTP.User, cfg.FTP.Password, timeout)

	// 4) 実行履歴 DB（開けなくても履歴なしで続行する）
	var st *store.SQLite
	if s, err := store.OpenSQLite(cfg.Database.DSN); err != nil {
		logx.Warnf("実行履歴 DB を開けません（履歴なしで続行）: %v", err)
	} else {
		st = s
		defer st.Close()
	}

	run := runner.New(cfg, cl, up, recorderOrNil(st))

	if *month != "" {
		// 5) デバッグ：指定月を一括実行して終了
		runOnce(run, *month, *reports, *withKPI)
		return
	}

	// 6) 操作フォームの Web サーバー
	listen := cfg.Listen
	if *addr != "" {
		listen = *addr
	}
	router := web.NewRouter(cfg, run, st)
	logx.Infof("操作フォームを起動します: http://localhost%s/", listen)
	if err := http.ListenAndServe(listen, router); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// runOnce は -month 指定時の一括実行。失敗単位があれば終了コード 1。
func runOnce(run *runner.Runner, month, reports string, withKPI bool) {
	p, err := period.Parse(month)
	if err != nil {
		log.Fatalf("parse -month: %v", err)
	}
	ctx := context.Background()
	var keys []string
	for _, k := range strings.Split(reports, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	units := run.RunRevenue(ctx, p, keys)
	if withKPI {
		units = append(units, run.RunKPI(ctx, []period.Period{p})...)
	}
	failed := 0
	for _, u := range units {
		if !u.OK {
			failed++
		}
	}
	logx.Infof("一括実行完了：%d 単位中 %d 単位が失敗", len(units), failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// recorderOrNil は *store.SQLite の nil をインターフェースの nil に落とす。
func recorderOrNil(st *store.SQLite) runner.Recorder {
	if st == nil {
		return nil
	}
	return st
}
