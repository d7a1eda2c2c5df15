package attach

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tOgg1/explode/internal/archive"
)

// countingDownloader serves canned bodies and counts fetches per URL.
type countingDownloader struct {
	mu      sync.Mutex
	fetches map[string]int
	bodies  map[string]string
	err     error
}

func (d *countingDownloader) Fetch(_ context.Context, url string) (io.ReadCloser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fetches == nil {
		d.fetches = make(map[string]int)
	}
	d.fetches[url]++
	if d.err != nil {
		return nil, d.err
	}
	return io.NopCloser(strings.NewReader(d.bodies[url])), nil
}

func (d *countingDownloader) count(url string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fetches[url]
}

func fileRef(id, ext, permalink, url string) *archive.FileRef {
	return &archive.FileRef{
		ID:            id,
		FileExtension: ext,
		PermalinkText: permalink,
		RemoteURL:     url,
	}
}

func TestRewriteReplacesPermalinkText(t *testing.T) {
	rw := NewRewriter(nil, false, 1)

	html, err := rw.Rewrite(context.Background(),
		`see <a href="https://example.com/p/F123">https://example.com/p/F123</a>`,
		[]*archive.FileRef{fileRef("F123", "png", "https://example.com/p/F123", "https://example.com/d/F123")},
		t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, `see <a href="files/F123.png">files/F123.png</a>`, html)
}

func TestRewriteDownloadsIntoCache(t *testing.T) {
	dl := &countingDownloader{bodies: map[string]string{"https://example.com/d/F123": "image-bytes"}}
	rw := NewRewriter(dl, true, 4)
	dest := t.TempDir()

	_, err := rw.Rewrite(context.Background(), "text",
		[]*archive.FileRef{fileRef("F123", "png", "", "https://example.com/d/F123")}, dest)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dest, FilesDirName, "F123.png"))
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))
	assert.Equal(t, 1, dl.count("https://example.com/d/F123"))
}

func TestRewriteSecondRunSkipsCachedFiles(t *testing.T) {
	dl := &countingDownloader{bodies: map[string]string{"https://example.com/d/F123": "image-bytes"}}
	rw := NewRewriter(dl, true, 4)
	dest := t.TempDir()
	refs := []*archive.FileRef{fileRef("F123", "png", "https://example.com/p/F123", "https://example.com/d/F123")}

	first, err := rw.Rewrite(context.Background(), "ref https://example.com/p/F123", refs, dest)
	require.NoError(t, err)

	second, err := rw.Rewrite(context.Background(), "ref https://example.com/p/F123", refs, dest)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, dl.count("https://example.com/d/F123"), "cached file must not be fetched again")
}

func TestRewriteSkipsDownloadWhenDisabled(t *testing.T) {
	dl := &countingDownloader{}
	rw := NewRewriter(dl, false, 4)
	dest := t.TempDir()

	html, err := rw.Rewrite(context.Background(), "ref https://example.com/p/F123",
		[]*archive.FileRef{fileRef("F123", "png", "https://example.com/p/F123", "https://example.com/d/F123")}, dest)
	require.NoError(t, err)

	assert.Equal(t, "ref files/F123.png", html, "links are rewritten even without downloading")
	assert.Equal(t, 0, dl.count("https://example.com/d/F123"))
	_, err = os.Stat(filepath.Join(dest, FilesDirName, "F123.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestRewriteReportsTransportError(t *testing.T) {
	dl := &countingDownloader{err: errors.New("connection refused")}
	rw := NewRewriter(dl, true, 4)

	_, err := rw.Rewrite(context.Background(), "text",
		[]*archive.FileRef{fileRef("F123", "png", "", "https://example.com/d/F123")}, t.TempDir())
	require.Error(t, err)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "https://example.com/d/F123", transportErr.URL)
}

func TestRewriteNoAttachmentsIsNoop(t *testing.T) {
	rw := NewRewriter(nil, true, 4)
	dest := t.TempDir()

	html, err := rw.Rewrite(context.Background(), "plain text", nil, dest)
	require.NoError(t, err)

	assert.Equal(t, "plain text", html)
	_, err = os.Stat(filepath.Join(dest, FilesDirName))
	assert.True(t, os.IsNotExist(err), "files dir is not created for attachment-free days")
}
