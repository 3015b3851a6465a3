package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.pdf"), []byte("%PDF-1.4 fake"), 0644))

	source := NewFileSource(dir)
	data, err := source.GetPDF(context.Background(), "doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 fake"), data)
}

func TestFileSource_Missing(t *testing.T) {
	source := NewFileSource(t.TempDir())
	_, err := source.GetPDF(context.Background(), "absent.pdf")
	require.Error(t, err)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "absent.pdf", fetchErr.DocumentID)
}

func TestHTTPSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.4 remote"))
	}))
	defer server.Close()

	data, err := NewHTTPSource(0).GetPDF(context.Background(), server.URL+"/doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 remote"), data)
}

func TestHTTPSource_RejectsNonURL(t *testing.T) {
	_, err := NewHTTPSource(0).GetPDF(context.Background(), "not-a-url")
	assert.Error(t, err)
}

func TestHTTPSource_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := NewHTTPSource(0).GetPDF(context.Background(), server.URL+"/gone.pdf")
	assert.Error(t, err)
}

type countingSource struct {
	calls atomic.Int32
}

func (s *countingSource) GetPDF(context.Context, string) ([]byte, error) {
	s.calls.Add(1)
	return []byte("%PDF-1.4 counted"), nil
}

func TestCachedSource(t *testing.T) {
	inner := &countingSource{}
	source := NewCachedSource(inner)

	for i := 0; i < 3; i++ {
		data, err := source.GetPDF(context.Background(), "doc-1")
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	}

	assert.Equal(t, int32(1), inner.calls.Load(), "repeat fetches hit the cache")
}
