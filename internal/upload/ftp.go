// パッケージ upload は整形済み CSV のファイルサーバー転送を担当する。
// 1 ファイルごとに 接続→ログイン→STOR→切断 を完結させ、接続は使い回さない。
package upload

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
)

// Client は FTP 接続情報を保持する。資格情報は起動時の設定から渡される。
type Client struct {
	Host     string
	User     string
	Password string
	Timeout  time.Duration
}

// New はクライアントを生成する。タイムアウト既定は 30 秒。
func New(host, user, password string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{Host: host, User: user, Password: password, Timeout: timeout}
}

// Put はバイト列を remotePath へバイナリ STOR する。
// 既存ファイルは無条件に上書きされる（前回分の置き換えが仕様）。
func (c *Client) Put(ctx context.Context, remotePath string, data []byte) error {
	addr := c.Host
	if !strings.Contains(addr, ":") {
		addr += ":21"
	}
	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(c.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return fmt.Errorf("FTP 接続 %s: %w", addr, err)
	}
	defer conn.Quit()
	if err := conn.Login(c.User, c.Password); err != nil {
		return fmt.Errorf("FTP ログイン: %w", err)
	}
	if err := conn.Stor(remotePath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("FTP STOR %s: %w", remotePath, err)
	}
	return nil
}

// NormalizeDir はベースパスをディレクトリ形式に正規化する。
// 過去の運用でフルパス（…/xxx.csv）のまま設定されていた時期があるため、
// ファイル名で終わる値はその親ディレクトリへ落とす。
func NormalizeDir(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if strings.HasSuffix(strings.ToLower(p), ".csv") {
		p = path.Dir(p)
	}
	if p == "." {
		return "/"
	}
	return p
}

// Join はリモート（POSIX）パスを連結する。
func Join(dir, name string) string {
	return path.Join(NormalizeDir(dir), name)
}
