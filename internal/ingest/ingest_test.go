package ingest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docqueue/internal/entity"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memRegistrar struct {
	mu   sync.Mutex
	docs map[string]entity.DocumentInput
}

func newMemRegistrar() *memRegistrar {
	return &memRegistrar{docs: map[string]entity.DocumentInput{}}
}

func (m *memRegistrar) Register(_ context.Context, in entity.DocumentInput) (*entity.Document, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := in.Reference + "|" + in.DocID
	_, exists := m.docs[key]
	if !exists {
		m.docs[key] = in
	}
	return &entity.Document{ID: int64(len(m.docs)), Reference: in.Reference, DocID: in.DocID}, !exists, nil
}

func (m *memRegistrar) inputs() []entity.DocumentInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.DocumentInput
	for _, in := range m.docs {
		out = append(out, in)
	}
	return out
}

func write(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestIngestPath(t *testing.T) {
	dir := t.TempDir()
	reg := newMemRegistrar()
	ing := NewFSIngestor(reg, quietLogger())
	ctx := context.Background()

	p := write(t, filepath.Join(dir, "02_Proposed-Site_Plan.pdf"), "%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	r, err := ing.IngestPath(ctx, "24/0100/FUL", p)
	require.NoError(t, err)
	assert.Len(t, r.DocID, 16)
	assert.Equal(t, r.HashHex[:16], r.DocID)
	assert.Equal(t, "application/pdf", r.MimeType)
	assert.False(t, r.Deduplicated)

	in := reg.inputs()[0]
	assert.Equal(t, "02 Proposed Site Plan", in.Title)
	assert.Equal(t, p, in.LocalPath)
	assert.Equal(t, r.HashHex, in.ContentHash)

	again, err := ing.IngestPath(ctx, "24/0100/FUL", p)
	require.NoError(t, err)
	assert.True(t, again.Deduplicated)

	_, err = ing.IngestPath(ctx, "24/0100/FUL", write(t, filepath.Join(dir, "form.docx"), "PK"))
	assert.Error(t, err)
	_, err = ing.IngestPath(ctx, "", p)
	assert.Error(t, err)
}

func TestIngestDirectory(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "plans", "elevations.pdf"), "%PDF-1.4 a")
	write(t, filepath.Join(root, "statement.txt"), "Planning statement")
	write(t, filepath.Join(root, "copy-of-statement.txt"), "Planning statement")
	write(t, filepath.Join(root, "notes.docx"), "PK")
	write(t, filepath.Join(root, ".cache", "thumb.png"), "x")

	reg := newMemRegistrar()
	results, stats, err := NewFSIngestor(reg, quietLogger()).IngestDirectory(context.Background(), "REF", root, true)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.EqualValues(t, 3, stats.Matched)
	assert.EqualValues(t, 3, stats.Succeeded)
	assert.EqualValues(t, 1, stats.Deduplicated)
	assert.Zero(t, stats.Failed)
	assert.Len(t, reg.inputs(), 2)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "Ground Floor Plan rev B", TitleFromFilename("/x/Ground_Floor-Plan rev.B.pdf"))
	assert.True(t, IsHidden("/a/.git"))
	assert.False(t, IsHidden("."))

	ref, ok := ReferenceForPath("/data/cases", "/data/cases/24-0100-FUL/plans/site.pdf")
	assert.True(t, ok)
	assert.Equal(t, "24-0100-FUL", ref)
	_, ok = ReferenceForPath("/data/cases", "/data/cases/loose.pdf")
	assert.False(t, ok)
	_, ok = ReferenceForPath("/data/cases", "/elsewhere/x/y.pdf")
	assert.False(t, ok)
}

func TestWatchAndIngest(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "CASE-1", "existing.pdf"), "%PDF-1.4 existing")
	reg := newMemRegistrar()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- WatchAndIngest(ctx, NewFSIngestor(reg, quietLogger()),
			WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 20 * time.Millisecond}, quietLogger())
	}()

	require.Eventually(t, func() bool { return len(reg.inputs()) == 1 }, 3*time.Second, 10*time.Millisecond)

	write(t, filepath.Join(root, "CASE-1", "site plan.png"), "\x89PNG\r\n\x1a\n")
	write(t, filepath.Join(root, "ignored.txt"), "no case dir")
	require.Eventually(t, func() bool { return len(reg.inputs()) == 2 }, 3*time.Second, 10*time.Millisecond)

	for _, in := range reg.inputs() {
		assert.Equal(t, "CASE-1", in.Reference)
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
