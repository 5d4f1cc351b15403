// Package hub downloads model files from a HuggingFace-compatible hub into a
// local cache directory.
package hub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ttsloader/internal/common/fsutil"
	"ttsloader/internal/modelerr"
)

// DefaultEndpoint is the public HuggingFace hub.
const DefaultEndpoint = "https://huggingface.co"

// Client fetches files by repo id. Downloaded files are reused on later calls.
type Client struct {
	endpoint string
	token    string
	cacheDir string
	revision string
	http     *http.Client
	log      zerolog.Logger
}

type Option func(*Client)

func WithEndpoint(u string) Option { return func(c *Client) { c.endpoint = strings.TrimRight(u, "/") } }

// WithToken sets a bearer token for gated repositories.
func WithToken(tok string) Option { return func(c *Client) { c.token = tok } }

func WithRevision(rev string) Option { return func(c *Client) { c.revision = rev } }

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithLogger(l zerolog.Logger) Option { return func(c *Client) { c.log = l } }

// New returns a client caching into cacheDir.
func New(cacheDir string, opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		cacheDir: cacheDir,
		revision: "main",
		http:     &http.Client{Timeout: 30 * time.Minute},
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// repoSegment matches one part of a hub repo id.
var repoSegment = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,95}$`)

// ValidateRepoID accepts "name" or "owner/name" ids. ".." and "--" are
// rejected inside a part, since "--" encodes the separator in RepoDir.
func ValidateRepoID(repoID string) error {
	parts := strings.Split(repoID, "/")
	if len(parts) > 2 {
		return modelerr.Format(fmt.Sprintf("invalid repo id %q", repoID), nil)
	}
	for _, p := range parts {
		if !repoSegment.MatchString(p) || strings.Contains(p, "..") || strings.Contains(p, "--") {
			return modelerr.Format(fmt.Sprintf("invalid repo id %q", repoID), nil)
		}
	}
	return nil
}

// localPath maps file to its place under the repo directory and rejects
// names that would leave it.
func (c *Client) localPath(repoID, file string) (string, error) {
	invalid := modelerr.Format(fmt.Sprintf("invalid file name %q", file), nil)
	if strings.Contains(file, `\`) || path.IsAbs(file) {
		return "", invalid
	}
	clean := path.Clean(file)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", invalid
	}
	dir := c.RepoDir(repoID)
	dst := filepath.Join(dir, filepath.FromSlash(clean))
	rel, err := filepath.Rel(dir, dst)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", invalid
	}
	return dst, nil
}

// RepoDir is the local directory holding files of repoID.
func (c *Client) RepoDir(repoID string) string {
	return filepath.Join(c.cacheDir, strings.ReplaceAll(repoID, "/", "--"))
}

// Fetch returns the local path of file in repoID, downloading it when it is
// not cached yet. A missing repo or file yields a not-found error; gated,
// network and server failures yield download errors. Malformed repo ids and
// file names escaping the repo directory yield format errors.
func (c *Client) Fetch(ctx context.Context, repoID, file string) (string, error) {
	if repoID == "" || file == "" {
		return "", modelerr.NotFound("empty repo id or file name")
	}
	if err := ValidateRepoID(repoID); err != nil {
		return "", err
	}
	dst, err := c.localPath(repoID, file)
	if err != nil {
		return "", err
	}
	file = path.Clean(file)
	if fsutil.PathExists(dst) {
		c.log.Debug().Str("repo", repoID).Str("file", file).Msg("hub cache hit")
		return dst, nil
	}

	segs := strings.Split(file, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	u := c.endpoint + "/" + repoID + "/resolve/" + url.PathEscape(c.revision) + "/" + strings.Join(segs, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", modelerr.Download("build request", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", modelerr.Download(fmt.Sprintf("fetch %s/%s", repoID, file), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", modelerr.NotFound(fmt.Sprintf("%s/%s not found on hub", repoID, file))
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", modelerr.Download(fmt.Sprintf("%s is gated or private (status %d)", repoID, resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", modelerr.Download(fmt.Sprintf("fetch %s/%s: status %d: %s", repoID, file, resp.StatusCode, strings.TrimSpace(string(msg))), nil)
	}

	n, err := fsutil.AtomicWriteReader(dst, resp.Body, 0o644)
	if err != nil {
		return "", modelerr.Download(fmt.Sprintf("write %s", dst), err)
	}
	c.log.Info().Str("repo", repoID).Str("file", file).Int64("bytes", n).
		Dur("took", time.Since(start)).Msg("hub download complete")
	return dst, nil
}

// Snapshot fetches every file of repoID and returns the repo directory.
func (c *Client) Snapshot(ctx context.Context, repoID string, files []string) (string, error) {
	if repoID == "" {
		return "", modelerr.NotFound("empty repo id")
	}
	if err := ValidateRepoID(repoID); err != nil {
		return "", err
	}
	for _, f := range files {
		if _, err := c.Fetch(ctx, repoID, f); err != nil {
			return "", err
		}
	}
	return c.RepoDir(repoID), nil
}
