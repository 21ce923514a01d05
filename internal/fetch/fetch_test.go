package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestBuildCookieHeader(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		// 「=」のない断片は読み飛ばし、lang は常に ja で強制
		{"sid=abc; garbage; token=xyz", "sid=abc; token=xyz; lang=ja"},
		{"sid=abc; lang=en; token=xyz", "sid=abc; lang=ja; token=xyz"},
		{"", "lang=ja"},
		{"=novalue; a=1", "a=1; lang=ja"},
		{"lang=en; lang=fr", "lang=ja"},
	}
	for _, c := range cases {
		if got := BuildCookieHeader(c.in); got != c.want {
			t.Fatalf("BuildCookieHeader(%q)=%q want=%q", c.in, got, c.want)
		}
	}
}

func TestGet_OKSendsCookieAndUA(t *testing.T) {
	var gotCookie, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><table></table></html>"))
	}))
	defer srv.Close()

	cl := New(Options{Timeout: 2 * time.Second})
	res, err := cl.Get(context.Background(), srv.URL, "sid=abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if res.Status != StatusOK {
		t.Fatalf("status=%v want=ok", res.Status)
	}
	if !strings.Contains(gotCookie, "sid=abc") || !strings.Contains(gotCookie, "lang=ja") {
		t.Fatalf("cookie=%q", gotCookie)
	}
	if !strings.Contains(gotUA, "Mozilla/5.0") {
		t.Fatalf("user-agent=%q", gotUA)
	}
}

func TestGet_AuthExpiredOn200LoginPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><p>ログインしてください</p></html>"))
	}))
	defer srv.Close()

	cl := New(Options{Timeout: 2 * time.Second, LoginMarkers: []string{"ログイン", "/user/login"}})
	res, err := cl.Get(context.Background(), srv.URL, "sid=abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if res.Status != StatusAuthExpired {
		t.Fatalf("status=%v want=auth_expired", res.Status)
	}
}

func TestGet_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cl := New(Options{Timeout: 2 * time.Second})
	res, err := cl.Get(context.Background(), srv.URL, "")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if res.Status != StatusHTTPError || res.HTTPStatus != http.StatusBadGateway {
		t.Fatalf("status=%v http=%d", res.Status, res.HTTPStatus)
	}
}

func TestGet_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // 接続先を先に落とす

	cl := New(Options{Timeout: 1 * time.Second})
	res, err := cl.Get(context.Background(), url, "")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if res.Status != StatusTransportError {
		t.Fatalf("status=%v want=transport_error", res.Status)
	}
}

func TestStatusString(t *testing.T) {
	if StatusOK.String() != "ok" || StatusAuthExpired.String() != "auth_expired" {
		t.Fatal("unexpected status labels")
	}
}
