package csrf

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	require.NoError(t, err)
	b, err := GenerateToken()
	require.NoError(t, err)

	assert.Len(t, a, 44)
	assert.NotEqual(t, a, b)
}

func TestValidateToken(t *testing.T) {
	assert.True(t, ValidateToken("abc", "abc"))
	assert.False(t, ValidateToken("abc", "abd"))
	assert.False(t, ValidateToken("", ""))
	assert.False(t, ValidateToken("abc", ""))
}

func TestEnsureToken_ReusesCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "existing"})
	rec := httptest.NewRecorder()

	token := EnsureToken(rec, req, false)

	assert.Equal(t, "existing", token)
	assert.Empty(t, rec.Result().Cookies())
}

func TestEnsureToken_SetsCookie(t *testing.T) {
	rec := httptest.NewRecorder()

	token := EnsureToken(rec, httptest.NewRequest(http.MethodGet, "/", nil), true)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, token, cookies[0].Value)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)
}

func postForm(token, cookie string) *http.Request {
	form := url.Values{}
	if token != "" {
		form.Set(FormFieldName, token)
	}
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: cookie})
	}
	return req
}

func TestProtect(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	protected := Protect(Config{Logger: logger})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name string
		req  func() *http.Request
		want int
	}{
		{"get passes", func() *http.Request { return httptest.NewRequest(http.MethodGet, "/", nil) }, http.StatusNoContent},
		{"matching form token", func() *http.Request { return postForm("tok", "tok") }, http.StatusNoContent},
		{"mismatched form token", func() *http.Request { return postForm("other", "tok") }, http.StatusForbidden},
		{"missing cookie", func() *http.Request { return postForm("tok", "") }, http.StatusForbidden},
		{"missing token", func() *http.Request { return postForm("", "tok") }, http.StatusForbidden},
		{"query token ignored", func() *http.Request {
			req := postForm("", "tok")
			req.URL.RawQuery = "csrf_token=tok"
			return req
		}, http.StatusForbidden},
		{"header token", func() *http.Request {
			req := postForm("", "tok")
			req.Header.Set(HeaderName, "tok")
			return req
		}, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, tt.req())
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestProtect_BodyLimit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var downstream string
	protected := Protect(Config{Logger: logger, MaxBodyBytes: 1024})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downstream = r.PostFormValue("tenure")
		w.WriteHeader(http.StatusNoContent)
	}))

	large := func() *http.Request {
		form := url.Values{FormFieldName: {"tok"}, "tenure": {"12"}, "pad": {strings.Repeat("a", 4096)}}
		req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(&http.Cookie{Name: CookieName, Value: "tok"})
		return req
	}

	t.Run("declared length over limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, large())
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("unknown length over limit", func(t *testing.T) {
		req := large()
		req.ContentLength = -1
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("under limit reaches handler", func(t *testing.T) {
		req := postForm("tok", "tok")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("header token with form body", func(t *testing.T) {
		form := url.Values{"tenure": {"24"}}
		req := httptest.NewRequest(http.MethodPost, "/fields/tenure", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set(HeaderName, "tok")
		req.AddCookie(&http.Cookie{Name: CookieName, Value: "tok"})
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "24", downstream)
	})
}
