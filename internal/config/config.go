// パッケージ config はアプリ設定（settings.yaml）の読み込みと検証を担当し、
// 構造体 Config と既定値/必須チェックを提供する。
// 認証 Cookie や FTP 資格情報など、欠落すると起動できない値はここで落とす。
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// 現在必要な項目のみを保持する（KISS/YAGNI）。
type Config struct {
	AuthCookie    string   `yaml:"AUTH_COOKIE"`     // SHOWROOM オーガナイザーページ用 Cookie 文字列
	KPIAuthCookie string   `yaml:"KPI_AUTH_COOKIE"` // KPI 帳票専用 Cookie（空なら AUTH_COOKIE を使用）
	LoginMarkers  []string `yaml:"LOGIN_MARKERS"`   // ログインページ検出用の部分文字列
	FTP           FTP      `yaml:"FTP"`
	Start         Start    `yaml:"START"`
	Listen        string   `yaml:"LISTEN"`
	Database      Database `yaml:"DATABASE"`
	TimeoutSec    int      `yaml:"TIMEOUT_SEC"`
	LogLevel      string   `yaml:"LOG_LEVEL"`
	LogFormat     string   `yaml:"LOG_FORMAT"` // text|json|pretty
	LogLocale     string   `yaml:"LOG_LOCALE"` // ja-JP|en
	LogColor      string   `yaml:"LOG_COLOR"`  // auto|always|never
}

// FTP はアップロード先ファイルサーバーの接続情報とベースパス。
// RevenuePath は運用上フルパス（…/xxx.csv）で設定された時期があるため、
// 利用時にディレクトリへ正規化する前提とする。
type FTP struct {
	Host        string `yaml:"host"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	RevenuePath string `yaml:"revenue_path"`
	KPIPath     string `yaml:"kpi_path"`
}

// Start は対象月リストの下限（この年月より前は選択肢に出さない）。
type Start struct {
	Year  int `yaml:"year"`
	Month int `yaml:"month"`
}

type Database struct {
	DSN string `yaml:"dsn"` // ./runs.db
}

// KPICookie は KPI 帳票で使う Cookie を返す（専用指定がなければ共通を流用）。
func (c *Config) KPICookie() string {
	if strings.TrimSpace(c.KPIAuthCookie) != "" {
		return c.KPIAuthCookie
	}
	return c.AuthCookie
}

func Load(path string) (*Config, error) {
	// Load はファイルから YAML を読み込み Config へ変換し、基本検証と既定値設定を行う。
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	// Validate は必須チェックと既定値設定をまとめて行い、業務層に判定を散らさない。
	if strings.TrimSpace(c.AuthCookie) == "" {
		return errors.New("AUTH_COOKIE is required")
	}
	if strings.TrimSpace(c.FTP.Host) == "" {
		return errors.New("FTP.host is required")
	}
	if strings.TrimSpace(c.FTP.User) == "" {
		return errors.New("FTP.user is required")
	}
	if strings.TrimSpace(c.FTP.Password) == "" {
		return errors.New("FTP.password is required")
	}
	if strings.TrimSpace(c.FTP.RevenuePath) == "" {
		return errors.New("FTP.revenue_path is required")
	}
	if strings.TrimSpace(c.FTP.KPIPath) == "" {
		return errors.New("FTP.kpi_path is required")
	}
	if c.Start.Year == 0 {
		c.Start.Year = 2024
	}
	if c.Start.Month == 0 {
		c.Start.Month = 1
	}
	if c.Start.Month < 1 || c.Start.Month > 12 {
		return fmt.Errorf("START.month out of range: %d", c.Start.Month)
	}
	if len(c.LoginMarkers) == 0 {
		// ログイン誘導ページの既定マーカー。リモート側の文言変更に備え設定で上書き可能。
		c.LoginMarkers = []string{"ログイン", "新規会員登録", "/user/login"}
	}
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.Database.DSN == "" {
		c.Database.DSN = "./runs.db"
	}
	if c.TimeoutSec <= 0 {
		c.TimeoutSec = 30
	}
	if c.LogFormat == "" {
		c.LogFormat = "pretty"
	}
	if c.LogLocale == "" {
		c.LogLocale = "ja-JP"
	}
	if c.LogColor == "" {
		c.LogColor = "auto"
	}
	return nil
}
