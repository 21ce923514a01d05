// パッケージ fetch は認証付き HTTP 取得を担当する：
// - Cookie 文字列からリクエストヘッダーを構築（resty クライアント）
// - HTTP 200 でもログインページが返るリモート仕様に対応した期限切れ検出
// - 結果を OK / AuthExpired / HTTPError / TransportError に分類
// リトライはしない。失敗の扱いは呼び出し側（runner）の責務。
package fetch

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Status は取得結果の分類。
type Status int

const (
	StatusOK Status = iota
	StatusAuthExpired
	StatusHTTPError
	StatusTransportError
)

// String はログ/記録用の表記を返す。
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusAuthExpired:
		return "auth_expired"
	case StatusHTTPError:
		return "http_error"
	case StatusTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// ブラウザとして振る舞うための固定 User-Agent。
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/100.0.4896.127 Safari/537.36"

// リモートは日本語表示のときだけ抽出対象のレイアウトを返すため、
// 言語 Cookie は常に強制セットする。
const localeCookie = "lang=ja"

// Client は Cookie 認証付きの取得クライアント。
type Client struct {
	r       *resty.Client
	markers []string
}

// Options はクライアント構築パラメータ。
type Options struct {
	Timeout      time.Duration
	LoginMarkers []string          // 200 応答内に現れたらセッション切れと判定する部分文字列
	Transport    http.RoundTripper // テストで応答を差し替えるためのフック
}

// New はクライアントを生成する。タイムアウト既定は 30 秒。
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	r := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", userAgent).
		SetRetryCount(0)
	if opts.Transport != nil {
		r.SetTransport(opts.Transport)
	}
	return &Client{r: r, markers: opts.LoginMarkers}
}

// Result は取得結果。Status が OK のときだけ Body を使うこと。
type Result struct {
	Body       string
	Status     Status
	HTTPStatus int
}

// Get は URL を取得して分類済みの結果を返す。
// 戻り値の error はトランスポート障害（タイムアウト/DNS/切断）のときのみ非 nil。
func (c *Client) Get(ctx context.Context, url, cookieString string) (Result, error) {
	resp, err := c.r.R().
		SetContext(ctx).
		SetHeader("Cookie", BuildCookieHeader(cookieString)).
		Get(url)
	if err != nil {
		return Result{Status: StatusTransportError}, err
	}
	code := resp.StatusCode()
	body := string(resp.Body())
	if code < 200 || code >= 300 {
		return Result{Body: body, Status: StatusHTTPError, HTTPStatus: code}, nil
	}
	if ContainsLoginMarker(body, c.markers) {
		// リモートは 401/403 を返さず 200 のログインページで応答する
		return Result{Body: body, Status: StatusAuthExpired, HTTPStatus: code}, nil
	}
	return Result{Body: body, Status: StatusOK, HTTPStatus: code}, nil
}

// ContainsLoginMarker は本文にログイン誘導の目印が含まれるか調べる。
func ContainsLoginMarker(body string, markers []string) bool {
	for _, m := range markers {
		if m == "" {
			continue
		}
		if strings.Contains(body, m) {
			return true
		}
	}
	return false
}

// BuildCookieHeader は「name=value; name2=value2」形式の Cookie 文字列を整形する。
// - セミコロン区切りで分解し、「=」を含まない断片は捨てる
// - 言語 Cookie（lang）は常に ja で上書きする
func BuildCookieHeader(raw string) string {
	var pairs []string
	seenLang := false
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		eq := strings.Index(part, "=")
		if eq <= 0 {
			// 名前のない断片は不正として読み飛ばす
			continue
		}
		name := strings.TrimSpace(part[:eq])
		if name == "lang" {
			if seenLang {
				continue
			}
			seenLang = true
			pairs = append(pairs, localeCookie)
			continue
		}
		pairs = append(pairs, name+"="+strings.TrimSpace(part[eq+1:]))
	}
	if !seenLang {
		pairs = append(pairs, localeCookie)
	}
	return strings.Join(pairs, "; ")
}
