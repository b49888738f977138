package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postingPage = `<html>
<head><title>Backend Engineer - Acme</title><script>var tracking = 1;</script></head>
<body>
	<nav>Jobs | About</nav>
	<div class="job-description">
		<h2>Backend Engineer</h2>
		<p>We need   strong Python skills.</p>
		<ul><li>Python</li><li>SQL</li></ul>
		<form class="application-form">Upload your CV</form>
	</div>
	<footer>Equal opportunity employer</footer>
</body>
</html>`

func TestJobPosting(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(postingPage))
	}))
	defer server.Close()

	posting, err := JobPosting(context.Background(), server.URL+"/jobs/42", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultUserAgent, userAgent)
	assert.Equal(t, BoardUnknown, posting.Board)
	assert.Equal(t, "Backend Engineer - Acme", posting.Title)
	assert.Equal(t, "Backend Engineer\nWe need strong Python skills.\nPython\nSQL", posting.Text)
	assert.NotContains(t, posting.Text, "Upload your CV")
	assert.NotContains(t, posting.Text, "tracking")
	assert.True(t, strings.HasSuffix(posting.FileName(), ".txt"))
}

func TestJobPosting_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/empty":
			_, _ = w.Write([]byte("<html><body><nav>only navigation</nav></body></html>"))
		}
	}))
	defer server.Close()

	tests := []struct {
		name       string
		url        string
		wantMsg    string
		wantStatus int
	}{
		{name: "invalid url", url: "not-a-valid-url", wantMsg: "invalid URL"},
		{name: "unsupported scheme", url: "ftp://example.com/job", wantMsg: "invalid URL"},
		{name: "not found", url: server.URL + "/missing", wantMsg: "HTTP status 404", wantStatus: http.StatusNotFound},
		{name: "no text", url: server.URL + "/empty", wantMsg: "page has no text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := JobPosting(context.Background(), tt.url, nil)
			require.Error(t, err)

			var fetchErr *Error
			require.ErrorAs(t, err, &fetchErr)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, tt.wantStatus, fetchErr.StatusCode)
		})
	}
}

func TestJobPosting_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(postingPage))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := JobPosting(ctx, server.URL, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractMainText_FallsBackToBody(t *testing.T) {
	title, text, err := ExtractMainText(`<html><body><header>Logo</header><p>Hiring a Go developer</p></body></html>`, []string{".nope"})
	require.NoError(t, err)
	assert.Empty(t, title)
	assert.Equal(t, "Hiring a Go developer", text)
}

func TestPostingFileName(t *testing.T) {
	assert.Equal(t, "boards.greenhouse.io.txt", (&Posting{URL: "https://boards.greenhouse.io/acme/jobs/1"}).FileName())
	assert.Equal(t, "job-posting.txt", (&Posting{URL: "::"}).FileName())
}
