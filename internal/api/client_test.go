package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/circulab/marketplace-go/internal/auth"
	"github.com/circulab/marketplace-go/pkg/logger"
)

func newTestClient(t *testing.T, srv *httptest.Server, token string) *Client {
	t.Helper()
	c, err := NewClient(srv.URL, auth.NewMemoryStore(token), logger.NewNop())
	require.NoError(t, err)
	return c
}

func TestDoAttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "tok-abc")
	_, err := c.Do(context.Background(), http.MethodGet, "/suggestions", nil)
	require.NoError(t, err)
	require.Equal(t, "Bearer tok-abc", gotAuth)
}

func TestDoReadsTokenPerRequest(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	store := auth.NewMemoryStore("first")
	c, err := NewClient(srv.URL, store, logger.NewNop())
	require.NoError(t, err)

	_, err = c.Do(context.Background(), http.MethodGet, "/x", nil)
	require.NoError(t, err)
	require.Equal(t, "Bearer first", gotAuth)

	require.NoError(t, store.SetToken("second"))
	_, err = c.Do(context.Background(), http.MethodGet, "/x", nil)
	require.NoError(t, err)
	require.Equal(t, "Bearer second", gotAuth)
}

func TestDoSkipsBearerOnLogout(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "tok-abc")
	_, err := c.Do(context.Background(), http.MethodPost, "/logout", nil)
	require.NoError(t, err)
	require.Empty(t, gotAuth)
}

func TestDoTypedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limit exceeded","retry_after":30}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "tok")
	_, err := c.Do(context.Background(), http.MethodGet, "/x", nil)
	require.Error(t, err)

	apiErr, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	require.Equal(t, "rate limit exceeded", apiErr.Message())
	require.True(t, IsRateLimited(err))
	require.False(t, IsAuthError(err))
	// The body's retry_after wins over the header.
	require.Equal(t, float64(30), RetryAfterValue(err))
}

func TestErrorMessageFallback(t *testing.T) {
	e := &Error{Status: 500, Body: []byte("<html>oops</html>")}
	require.Equal(t, "Erreur réseau ou serveur", e.Message())

	withMessage := &Error{Status: 400, Body: []byte(`{"message":"champ requis"}`)}
	require.Equal(t, "champ requis", withMessage.Message())
}

func TestRetryAfterValueHeaderFallback(t *testing.T) {
	e := &Error{Status: 429, Body: []byte(`{"error":"slow down"}`), RetryAfter: "60"}
	require.Equal(t, "60", RetryAfterValue(e))

	bare := &Error{Status: 429}
	require.Nil(t, RetryAfterValue(bare))
}

func TestIsAuthError(t *testing.T) {
	require.True(t, IsAuthError(&Error{Status: http.StatusUnauthorized}))
	require.True(t, IsAuthError(&Error{Status: http.StatusForbidden}))
	require.False(t, IsAuthError(&Error{Status: http.StatusInternalServerError}))
	require.False(t, IsAuthError(context.Canceled))
	require.Equal(t, 0, StatusOf(context.Canceled))
}

func TestGetJSONDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"a"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "tok")
	v, err := c.GetJSON(context.Background(), "/x")
	require.NoError(t, err)
	obj, ok := v.(map[string]any)
	require.True(t, ok)
	require.Contains(t, obj, "data")
}

func TestDecodeJSONUndecodable(t *testing.T) {
	require.Nil(t, DecodeJSON([]byte("not json")))
	require.Nil(t, DecodeJSON(nil))
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("", auth.NewMemoryStore(""), logger.NewNop())
	require.Error(t, err)
	_, err = NewClient("http://localhost", nil, logger.NewNop())
	require.Error(t, err)
}

func TestDownloadBlobFilename(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/named":
			w.Header().Set("Content-Disposition", `attachment; filename="modele-import.csv"`)
			w.Write([]byte("type;nom\n"))
		default:
			w.Write([]byte("raw-bytes"))
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "tok")

	data, name, err := c.DownloadBlob(context.Background(), "/named")
	require.NoError(t, err)
	require.Equal(t, []byte("type;nom\n"), data)
	require.Equal(t, "modele-import.csv", name)

	_, name, err = c.DownloadBlob(context.Background(), "/anonymous")
	require.NoError(t, err)
	require.Equal(t, "export-"+time.Now().Format("2006-01-02"), name)
}

func TestUploadMultipart(t *testing.T) {
	var gotField, gotFilename, gotExtra string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("avatar")
		require.NoError(t, err)
		defer file.Close()
		gotField = "avatar"
		gotFilename = header.Filename
		buf, err := io.ReadAll(file)
		require.NoError(t, err)
		gotBody = buf
		gotExtra = r.FormValue("kind")
		w.Write([]byte(`{"avatar_url":"/media/x.png"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "tok")
	raw, err := c.Upload(context.Background(), "/upload", "avatar", "logo.png",
		bytes.NewReader([]byte("png-bytes")), map[string]string{"kind": "logo"})
	require.NoError(t, err)
	require.Contains(t, string(raw), "avatar_url")
	require.Equal(t, "avatar", gotField)
	require.Equal(t, "logo.png", gotFilename)
	require.Equal(t, []byte("png-bytes"), gotBody)
	require.Equal(t, "logo", gotExtra)
}
