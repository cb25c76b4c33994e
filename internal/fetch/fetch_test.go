package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>hello</html>"))
	}))
	defer srv.Close()

	resp, err := NewHTTPFetcher(0).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "text/html", resp.Header.Get("Content-Type"))
	assert.Equal(t, []byte("<html>hello</html>"), resp.Body)
}

func TestHTTPFetcher_StatusClassification(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrBlocked},
		{http.StatusForbidden, ErrBlocked},
		{http.StatusNotFound, ErrBlocked},
		{http.StatusInternalServerError, ErrFailed},
		{http.StatusTooManyRequests, ErrFailed},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		_, err := NewHTTPFetcher(0).Fetch(context.Background(), srv.URL)
		require.Error(t, err, "status %d", tc.status)
		assert.ErrorIs(t, err, tc.want, "status %d", tc.status)

		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, tc.status, statusErr.StatusCode)

		srv.Close()
	}
}

func TestHTTPFetcher_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewHTTPFetcher(0).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrFailed)
	assert.False(t, errors.Is(err, ErrBlocked))
}

func TestHTTPFetcher_EmptyURL(t *testing.T) {
	_, err := NewHTTPFetcher(0).Fetch(context.Background(), "")
	assert.ErrorIs(t, err, ErrFailed)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t,
		"https://example.com/...(redacted)",
		RedactURL("https://example.com/cal/feed.ics?token=abcd"))
	assert.Equal(t,
		"https://example.com/...(redacted)",
		RedactURL("https://example.com"))
	assert.Equal(t, "url://...(redacted)", RedactURL("not a url"))
}
