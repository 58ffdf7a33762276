package git

import (
	"context"
	"strings"
	"time"

	"benchkeep/internal/errs"
	"benchkeep/internal/history"

	"github.com/pkg/errors"
)

const noreplySuffix = "@users.noreply.github.com"

// Revision describes ref: commit id, subject line, commit time and author.
// The URL is left empty; it depends on where the repository is hosted.
func (c *Client) Revision(ctx context.Context, repo, ref string) (history.Revision, error) {
	if ref == "" {
		ref = "HEAD"
	}

	out, err := c.output(ctx, repo, "log", "-1", "--format=%H%x00%s%x00%cI%x00%an%x00%ae", ref, "--")
	if err != nil {
		return history.Revision{}, errs.Vcs("log "+ref, err)
	}

	return parseRevision(out)
}

// parseRevision decodes the NUL-separated log line written by Revision.
func parseRevision(line string) (history.Revision, error) {
	fields := strings.Split(line, "\x00")
	if len(fields) != 5 {
		return history.Revision{}, errs.Parse("git log", errors.Errorf("expected 5 fields, got %d", len(fields)))
	}

	ts, err := time.Parse(time.RFC3339, fields[2])
	if err != nil {
		return history.Revision{}, errs.Parse("git log", errors.Wrap(err, "commit time"))
	}

	rev := history.Revision{
		ID:        fields[0],
		Message:   fields[1],
		Timestamp: ts.UTC(),
	}

	if name := fields[3]; name != "" {
		rev.Author = &history.Author{
			Name:     name,
			Email:    fields[4],
			Username: GitHubUsername(fields[4], name),
		}
	}

	return rev, nil
}

// GitHubUsername guesses a GitHub handle from an author. Noreply addresses
// ("user@" or "id+user@users.noreply.github.com") are authoritative;
// otherwise a name without spaces and at most 39 characters is used.
func GitHubUsername(email, name string) string {
	if strings.HasSuffix(email, noreplySuffix) {
		local := strings.TrimSuffix(email, noreplySuffix)
		if i := strings.Index(local, "+"); i >= 0 {
			return local[i+1:]
		}
		return local
	}

	if name != "" && !strings.Contains(name, " ") && len(name) <= 39 {
		return name
	}
	return ""
}
