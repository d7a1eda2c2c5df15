// Package attach rewrites in-text file references to local cache paths and
// fetches the referenced files idempotently.
package attach

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tOgg1/explode/internal/archive"
)

// FilesDirName is the per-conversation attachment cache directory.
const FilesDirName = "files"

const (
	filesDirPerm  = 0o755
	cacheFilePerm = 0o644
)

// Downloader fetches remote attachment content.
type Downloader interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// HTTPDownloader fetches attachments over HTTP(S).
type HTTPDownloader struct {
	Client *http.Client
}

// Fetch streams the response body for url. Non-2xx responses are transport
// failures.
func (d *HTTPDownloader) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

// TransportError is a failed attachment fetch. It is fatal to the run.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StorageError is a failed directory or file creation. It is fatal to the
// current conversation's export but must not abort other conversations.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Rewriter rewrites attachment references and optionally downloads the
// referenced files into the conversation's files/ cache.
type Rewriter struct {
	downloader    Downloader
	download      bool
	maxConcurrent int
}

// NewRewriter creates a Rewriter. When download is false the downloader may
// be nil; links are rewritten either way.
func NewRewriter(downloader Downloader, download bool, maxConcurrent int) *Rewriter {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Rewriter{
		downloader:    downloader,
		download:      download,
		maxConcurrent: maxConcurrent,
	}
}

// Rewrite replaces every occurrence of each attachment's permalink text in
// html with its local cache path, and fetches each remote file exactly once.
// Fetches fan out concurrently and are joined before Rewrite returns, so the
// returned HTML is final only after all of the day's downloads settle.
func (rw *Rewriter) Rewrite(ctx context.Context, html string, attachments []*archive.FileRef, destDir string) (string, error) {
	if len(attachments) == 0 {
		return html, nil
	}

	filesDir := filepath.Join(destDir, FilesDirName)
	if err := os.MkdirAll(filesDir, filesDirPerm); err != nil {
		return "", &StorageError{Path: filesDir, Err: err}
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(rw.maxConcurrent)

	for _, attachment := range attachments {
		localName := attachment.LocalName()
		if attachment.PermalinkText != "" {
			html = strings.ReplaceAll(html, attachment.PermalinkText, FilesDirName+"/"+localName)
		}
		if !rw.download {
			continue
		}
		attachment := attachment
		group.Go(func() error {
			return rw.fetchOnce(ctx, attachment, filepath.Join(filesDir, localName))
		})
	}

	if err := group.Wait(); err != nil {
		return "", err
	}
	return html, nil
}

// fetchOnce streams the attachment into path unless the cache already holds
// it. The O_EXCL create is the idempotency check: losing the race or finding
// a previous run's file both mean the fetch is skipped.
func (rw *Rewriter) fetchOnce(ctx context.Context, attachment *archive.FileRef, path string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, cacheFilePerm)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}
		return &StorageError{Path: path, Err: err}
	}
	defer file.Close()

	body, err := rw.downloader.Fetch(ctx, attachment.RemoteURL)
	if err != nil {
		return &TransportError{URL: attachment.RemoteURL, Err: err}
	}
	defer body.Close()

	if _, err := io.Copy(file, body); err != nil {
		return &TransportError{URL: attachment.RemoteURL, Err: err}
	}
	if err := file.Close(); err != nil {
		return &StorageError{Path: path, Err: err}
	}
	return nil
}
