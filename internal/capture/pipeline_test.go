package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonote/notary-stream-service/internal/model"
	"go.uber.org/zap"
)

// fakeTranscoder copies input to output and remembers the payload it saw.
type fakeTranscoder struct {
	mu       sync.Mutex
	payloads [][]byte
	fail     bool
}

func (f *fakeTranscoder) Transcode(_ context.Context, inputPath, outputPath string) error {
	if f.fail {
		return errors.New("boom")
	}
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.payloads = append(f.payloads, data)
	f.mu.Unlock()
	return os.WriteFile(outputPath, data, 0o644)
}

// fakeStore records uploads.
type fakeStore struct {
	mu      sync.Mutex
	uploads []string
	fail    bool
}

func (f *fakeStore) Upload(_ context.Context, localPath, key string) (string, error) {
	if f.fail {
		return "", errors.New("upload refused")
	}
	// The local artifact must still exist while the upload runs.
	if _, err := os.Stat(localPath); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.uploads = append(f.uploads, key)
	f.mu.Unlock()
	return "https://bucket.example.com/" + key, nil
}

// fakeRecords collects recording rows.
type fakeRecords struct {
	mu   sync.Mutex
	rows []*model.Recording
}

func (f *fakeRecords) SaveArtifact(_ context.Context, rec *model.Recording) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, rec)
	return nil
}

func newTestPipeline(t *testing.T) (*Pipeline, *fakeTranscoder, *fakeStore, *fakeRecords) {
	t.Helper()
	tr := &fakeTranscoder{}
	st := &fakeStore{}
	rec := &fakeRecords{}
	p := NewPipeline(NewBuffer(), t.TempDir(), tr, zap.NewNop())
	p.SetObjectStore(st)
	p.SetArtifactRecorder(rec)
	return p, tr, st, rec
}

func wait(t *testing.T, job *Job) (*Artifact, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return job.Wait(ctx)
}

func TestPipelineFinalize(t *testing.T) {
	p, tr, st, rec := newTestPipeline(t)
	ctx := context.Background()

	p.WriteChunk(ctx, "vidA", []byte("b1"))
	p.WriteChunk(ctx, "vidA", []byte("b2"))
	p.WriteChunk(ctx, "vidA", []byte("b3"))

	art, err := wait(t, p.Finalize(ctx, "vidA"))
	require.NoError(t, err)
	require.NotNil(t, art)

	// Transcode must have seen the fragments concatenated in order.
	tr.mu.Lock()
	require.Len(t, tr.payloads, 1)
	assert.Equal(t, []byte("b1b2b3"), tr.payloads[0])
	tr.mu.Unlock()

	st.mu.Lock()
	require.Len(t, st.uploads, 1)
	assert.Equal(t, art.ObjectKey, st.uploads[0])
	st.mu.Unlock()

	assert.Equal(t, "vidA", art.StreamKey)
	assert.Contains(t, art.ObjectKey, "vidA-")
	assert.Contains(t, art.Location, art.ObjectKey)
	assert.Equal(t, int64(6), art.SizeBytes)

	rec.mu.Lock()
	require.Len(t, rec.rows, 1)
	assert.Equal(t, model.RecordingStatusUploaded, rec.rows[0].Status)
	assert.Equal(t, art.Location, rec.rows[0].Location)
	rec.mu.Unlock()

	// Buffer is cleared for the key.
	assert.Equal(t, 0, p.buf.Len("vidA"))
}

func TestPipelineEmptyStreamNoOp(t *testing.T) {
	p, tr, st, rec := newTestPipeline(t)

	art, err := wait(t, p.Finalize(context.Background(), "vidA"))
	require.NoError(t, err)
	assert.Nil(t, art)

	tr.mu.Lock()
	assert.Empty(t, tr.payloads)
	tr.mu.Unlock()
	st.mu.Lock()
	assert.Empty(t, st.uploads)
	st.mu.Unlock()
	rec.mu.Lock()
	assert.Empty(t, rec.rows)
	rec.mu.Unlock()
}

func TestPipelineTranscodeFailureSkipsUpload(t *testing.T) {
	p, tr, st, rec := newTestPipeline(t)
	tr.fail = true
	ctx := context.Background()

	p.WriteChunk(ctx, "vidA", []byte("b1"))
	_, err := wait(t, p.Finalize(ctx, "vidA"))
	require.Error(t, err)

	st.mu.Lock()
	assert.Empty(t, st.uploads)
	st.mu.Unlock()
	rec.mu.Lock()
	assert.Empty(t, rec.rows)
	rec.mu.Unlock()

	// The stream's buffered state stays cleared, no retry of the same bytes.
	assert.Equal(t, 0, p.buf.Len("vidA"))
}

func TestPipelineUploadFailureRecordsFailedRow(t *testing.T) {
	p, _, st, rec := newTestPipeline(t)
	st.fail = true
	ctx := context.Background()

	p.WriteChunk(ctx, "vidA", []byte("b1"))
	_, err := wait(t, p.Finalize(ctx, "vidA"))
	require.Error(t, err)

	rec.mu.Lock()
	require.Len(t, rec.rows, 1)
	assert.Equal(t, model.RecordingStatusFailed, rec.rows[0].Status)
	rec.mu.Unlock()
}

func TestPipelineNoStoreKeepsStoredStatus(t *testing.T) {
	tr := &fakeTranscoder{}
	rec := &fakeRecords{}
	p := NewPipeline(NewBuffer(), t.TempDir(), tr, zap.NewNop())
	p.SetArtifactRecorder(rec)
	ctx := context.Background()

	p.WriteChunk(ctx, "vidA", []byte("b1"))
	art, err := wait(t, p.Finalize(ctx, "vidA"))
	require.NoError(t, err)
	require.NotNil(t, art)
	assert.Empty(t, art.Location)

	rec.mu.Lock()
	require.Len(t, rec.rows, 1)
	assert.Equal(t, model.RecordingStatusStored, rec.rows[0].Status)
	rec.mu.Unlock()
}

func TestPipelineCleansUpLocalFiles(t *testing.T) {
	dir := t.TempDir()
	tr := &fakeTranscoder{}
	p := NewPipeline(NewBuffer(), dir, tr, zap.NewNop())
	p.SetObjectStore(&fakeStore{})
	ctx := context.Background()

	p.WriteChunk(ctx, "vidA", []byte("b1"))
	art, err := wait(t, p.Finalize(ctx, "vidA"))
	require.NoError(t, err)
	require.NotNil(t, art)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp and artifact files must be removed after upload")
}

func TestPipelineStreamsFailIndependently(t *testing.T) {
	p, tr, st, _ := newTestPipeline(t)
	ctx := context.Background()

	p.WriteChunk(ctx, "bad", []byte("x"))
	p.WriteChunk(ctx, "good", []byte("y"))

	tr.fail = true
	_, err := wait(t, p.Finalize(ctx, "bad"))
	require.Error(t, err)

	tr.fail = false
	art, err := wait(t, p.Finalize(ctx, "good"))
	require.NoError(t, err)
	require.NotNil(t, art)

	st.mu.Lock()
	assert.Len(t, st.uploads, 1)
	st.mu.Unlock()
}

func TestPipelineEndStream(t *testing.T) {
	p, tr, _, _ := newTestPipeline(t)
	ctx := context.Background()

	p.WriteChunk(ctx, "vidA", []byte("b1"))
	p.EndStream(ctx, "vidA")
	p.Drain(5 * time.Second)

	tr.mu.Lock()
	defer tr.mu.Unlock()
	require.Len(t, tr.payloads, 1)
	assert.Equal(t, []byte("b1"), tr.payloads[0])
}

func TestSanitizeKey(t *testing.T) {
	assert.Equal(t, "my-session_1.0", sanitizeKey("my-session_1.0"))
	assert.Equal(t, "a_b_c", sanitizeKey("a/b c"))
	assert.Equal(t, filepath.Base(sanitizeKey("../../etc/passwd")), sanitizeKey("../../etc/passwd"))
}
