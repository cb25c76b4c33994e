package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkcal/internal/fetch"
	"linkcal/internal/llm"
)

// fakeSummarizer records its input and returns a canned reply.
type fakeSummarizer struct {
	gotText string
	reply   string
	err     error
}

func (f *fakeSummarizer) SummarizeToCalendarText(_ context.Context, text string) (string, error) {
	f.gotText = text
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

const eventPage = `<html>
<head><title>Events</title><style>body { color: red }</style></head>
<body>
<nav>Home | About</nav>
<script>trackVisitor();</script>
<h1>Upcoming Events</h1>
<p>Spring Concert on March 1st at the Main Hall.</p>
<footer>Copyright</footer>
</body>
</html>`

func TestWebsiteExtract_StripsAndDelegates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(eventPage))
	}))
	defer srv.Close()

	sum := &fakeSummarizer{reply: "BEGIN:VEVENT\nSUMMARY:Spring Concert\nEND:VEVENT"}
	e := NewWebsiteExtractor(fetch.NewHTTPFetcher(5*time.Second), sum, 12000)

	raw, err := e.Extract(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Contains(t, sum.gotText, "Spring Concert on March 1st")
	assert.NotContains(t, sum.gotText, "trackVisitor")
	assert.NotContains(t, sum.gotText, "Home | About")
	assert.NotContains(t, sum.gotText, "Copyright")

	assert.Equal(t, sum.reply, raw.Text)
	assert.Equal(t, WebsiteBaseName, raw.BaseName)
	assert.False(t, raw.Verbatim)
}

func TestWebsiteExtract_TruncatesBeforeSummarizing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(eventPage))
	}))
	defer srv.Close()

	sum := &fakeSummarizer{reply: "BEGIN:VEVENT\nEND:VEVENT"}
	e := NewWebsiteExtractor(fetch.NewHTTPFetcher(5*time.Second), sum, 10)

	_, err := e.Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, sum.gotText, 13) // 10 chars + "..."
}

func TestWebsiteExtract_BlockedStatusClassification(t *testing.T) {
	for _, status := range []int{401, 403, 404} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		e := NewWebsiteExtractor(fetch.NewHTTPFetcher(5*time.Second), &fakeSummarizer{}, 0)
		_, err := e.Extract(context.Background(), srv.URL)
		require.ErrorIs(t, err, fetch.ErrBlocked, "status %d", status)

		var statusErr *fetch.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, status, statusErr.StatusCode)

		srv.Close()
	}
}

func TestWebsiteExtract_GenericFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	e := NewWebsiteExtractor(fetch.NewHTTPFetcher(5*time.Second), &fakeSummarizer{}, 0)
	_, err := e.Extract(context.Background(), srv.URL)
	require.ErrorIs(t, err, fetch.ErrFailed)
	assert.NotErrorIs(t, err, fetch.ErrBlocked)
}

func TestWebsiteExtract_SummarizerUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(eventPage))
	}))
	defer srv.Close()

	sum := &fakeSummarizer{err: llm.ErrUnavailable}
	e := NewWebsiteExtractor(fetch.NewHTTPFetcher(5*time.Second), sum, 0)

	_, err := e.Extract(context.Background(), srv.URL)
	require.ErrorIs(t, err, llm.ErrUnavailable)
}
