// Package fetch provides document retrieval behind the DocumentSource
// collaborator contract: given a document identifier, return the raw PDF
// bytes. Storage itself is an external concern; the sources here cover local
// paths, HTTP artifact stores, and an in-memory cache wrapper.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// maxDocumentBytes caps how much a source will read for one document.
const maxDocumentBytes = 256 << 20 // 256 MiB

// DocumentSource resolves a document identifier to raw PDF bytes.
type DocumentSource interface {
	GetPDF(ctx context.Context, documentID string) ([]byte, error)
}

// Error represents a document retrieval failure.
type Error struct {
	DocumentID string
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.DocumentID, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.DocumentID, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// FileSource reads documents from the local filesystem. Relative document
// ids resolve against BaseDir; absolute paths are used as-is.
type FileSource struct {
	BaseDir string
}

// NewFileSource creates a file-backed source rooted at baseDir. An empty
// baseDir resolves relative ids against the working directory.
func NewFileSource(baseDir string) *FileSource {
	return &FileSource{BaseDir: baseDir}
}

// GetPDF implements DocumentSource.
func (s *FileSource) GetPDF(_ context.Context, documentID string) ([]byte, error) {
	path := documentID
	if !filepath.IsAbs(path) && s.BaseDir != "" {
		path = filepath.Join(s.BaseDir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{DocumentID: documentID, Message: "failed to read document file", Cause: err}
	}
	return data, nil
}

// HTTPSource retrieves documents from an HTTP artifact store; the document
// id is the URL.
type HTTPSource struct {
	client *http.Client
}

// NewHTTPSource creates an HTTP-backed source. A zero timeout defaults to
// DefaultTimeout.
func NewHTTPSource(timeout time.Duration) *HTTPSource {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &HTTPSource{client: &http.Client{Timeout: timeout}}
}

// GetPDF implements DocumentSource.
func (s *HTTPSource) GetPDF(ctx context.Context, documentID string) ([]byte, error) {
	if !strings.HasPrefix(documentID, "http://") && !strings.HasPrefix(documentID, "https://") {
		return nil, &Error{DocumentID: documentID, Message: "document id is not an http(s) URL"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, documentID, nil)
	if err != nil {
		return nil, &Error{DocumentID: documentID, Message: "failed to build request", Cause: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &Error{DocumentID: documentID, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{DocumentID: documentID, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, &Error{DocumentID: documentID, Message: "failed to read response body", Cause: err}
	}
	return data, nil
}

// CachedSource memoizes another source. Re-audits of the same document
// (e.g. after a policy change) skip the second download.
type CachedSource struct {
	inner DocumentSource

	mu    sync.Mutex
	cache map[string][]byte
}

// NewCachedSource wraps a source with an in-memory cache.
func NewCachedSource(inner DocumentSource) *CachedSource {
	return &CachedSource{inner: inner, cache: make(map[string][]byte)}
}

// GetPDF implements DocumentSource.
func (s *CachedSource) GetPDF(ctx context.Context, documentID string) ([]byte, error) {
	s.mu.Lock()
	cached, ok := s.cache[documentID]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	data, err := s.inner.GetPDF(ctx, documentID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[documentID] = data
	s.mu.Unlock()
	return data, nil
}
