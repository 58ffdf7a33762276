package annotate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"benchkeep/internal/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostComment(t *testing.T) {
	var gotPath, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		gotBody = payload["body"]

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"html_url":"https://github.com/o/r/commit/abc#commitcomment-1"}`))
	}))
	defer srv.Close()

	g := NewGitHub(Repo{Owner: "o", Name: "r"}, Options{BaseURL: srv.URL, Token: "ghp_secret"})
	url, err := g.PostComment(context.Background(), "abc", "# ⚠️ Performance Alert")
	require.NoError(t, err)

	assert.Equal(t, "https://github.com/o/r/commit/abc#commitcomment-1", url)
	assert.Equal(t, "/repos/o/r/commits/abc/comments", gotPath)
	assert.Equal(t, "Bearer ghp_secret", gotAuth)
	assert.Equal(t, "# ⚠️ Performance Alert", gotBody)
}

func TestPostCommentErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Resource not accessible by integration"}`))
	}))
	defer srv.Close()

	g := NewGitHub(Repo{Owner: "o", Name: "r"}, Options{BaseURL: srv.URL})
	_, err := g.PostComment(context.Background(), "abc", "body")
	require.Error(t, err)
	assert.True(t, errs.IsRemote(err))
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "Resource not accessible")
}

func TestPostCommentUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	g := NewGitHub(Repo{Owner: "o", Name: "r"}, Options{BaseURL: url})
	_, err := g.PostComment(context.Background(), "abc", "body")
	assert.True(t, errs.IsRemote(err))

	_, err = g.PostComment(context.Background(), "", "body")
	assert.True(t, errs.IsRemote(err))
}

func TestParseRepo(t *testing.T) {
	for in, want := range map[string]Repo{
		"octo/bench":                          {Owner: "octo", Name: "bench"},
		"https://github.com/octo/bench":       {Owner: "octo", Name: "bench"},
		"https://github.com/octo/bench.git":   {Owner: "octo", Name: "bench"},
		"git@github.com:octo/bench.git":       {Owner: "octo", Name: "bench"},
		"ssh://git@github.com/octo/bench.git": {Owner: "octo", Name: "bench"},
		"github.com/octo/bench/":              {Owner: "octo", Name: "bench"},
	} {
		got, err := ParseRepo(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "octo", "octo/bench/extra", "https://gitlab.com/octo/bench", "/local/path/remote.git"} {
		_, err := ParseRepo(in)
		assert.True(t, errs.IsConfig(err), in)
	}
}

func TestCommitURL(t *testing.T) {
	repo := Repo{Owner: "octo", Name: "bench"}
	assert.Equal(t, "https://github.com/octo/bench/commit/abc", CommitURL("", repo, "abc"))
	assert.Equal(t, "https://ghe.example.com/octo/bench/commit/abc", CommitURL("https://ghe.example.com/", repo, "abc"))
}
