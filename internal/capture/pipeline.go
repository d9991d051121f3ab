package capture

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tonote/notary-stream-service/internal/model"
	"go.uber.org/zap"
)

// Transcoder converts a raw capture payload into the final artifact file.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath, outputPath string) error
}

// ObjectStore uploads a local file under a key and returns its remote location.
type ObjectStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}

// ArtifactRecorder persists finalized-artifact metadata (optional).
type ArtifactRecorder interface {
	SaveArtifact(ctx context.Context, rec *model.Recording) error
}

// Artifact is the outcome of one successful finalize cycle.
type Artifact struct {
	StreamKey string
	ObjectKey string
	Location  string // empty when no object store is configured
	SizeBytes int64
}

// Job is one asynchronous finalize run for a stream key.
type Job struct {
	Key      string
	done     chan struct{}
	artifact *Artifact // nil when the buffer was empty
	err      error
}

// Wait blocks until the job finishes or ctx is cancelled. A nil artifact
// with a nil error means the stream had nothing buffered.
func (j *Job) Wait(ctx context.Context) (*Artifact, error) {
	select {
	case <-j.done:
		return j.artifact, j.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Pipeline drains stream buffers and turns them into durable artifacts:
// concatenate, transcode, upload, record metadata, clean up local files.
// Each finalize runs as its own job; failures never affect other streams.
type Pipeline struct {
	buf        *Buffer
	dir        string
	transcoder Transcoder
	store      ObjectStore      // optional
	records    ArtifactRecorder // optional
	log        *zap.Logger
	wg         sync.WaitGroup
}

// NewPipeline creates a pipeline writing under dir (created lazily).
func NewPipeline(buf *Buffer, dir string, t Transcoder, log *zap.Logger) *Pipeline {
	return &Pipeline{buf: buf, dir: dir, transcoder: t, log: log}
}

// SetObjectStore sets the optional upload target.
func (p *Pipeline) SetObjectStore(s ObjectStore) { p.store = s }

// SetArtifactRecorder sets the optional metadata sink.
func (p *Pipeline) SetArtifactRecorder(r ArtifactRecorder) { p.records = r }

// WriteChunk buffers one fragment for the stream key.
func (p *Pipeline) WriteChunk(_ context.Context, streamKey string, data []byte) {
	if streamKey == "" || len(data) == 0 {
		return
	}
	p.buf.Append(streamKey, data)
}

// EndStream starts a finalize job for the stream key, fire-and-forget.
func (p *Pipeline) EndStream(ctx context.Context, streamKey string) {
	p.Finalize(ctx, streamKey)
}

// Finalize drains the stream's buffer asynchronously and returns the job so
// callers can observe completion. An empty buffer finishes with no artifact.
func (p *Pipeline) Finalize(ctx context.Context, streamKey string) *Job {
	// A disconnect or shutdown must not abort a finalize already underway.
	ctx = context.WithoutCancel(ctx)
	job := &Job{Key: streamKey, done: make(chan struct{})}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(job.done)
		job.artifact, job.err = p.run(ctx, streamKey)
		if job.err != nil {
			p.log.Error("finalize failed",
				zap.String("stream_key", streamKey),
				zap.Error(job.err))
		}
	}()
	return job
}

// Drain waits up to timeout for in-flight finalize jobs to complete.
func (p *Pipeline) Drain(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		p.log.Warn("finalize drain timed out", zap.Duration("timeout", timeout))
	}
}

func (p *Pipeline) run(ctx context.Context, streamKey string) (*Artifact, error) {
	frags := p.buf.Drain(streamKey)
	if len(frags) == 0 {
		p.log.Debug("nothing buffered for stream", zap.String("stream_key", streamKey))
		return nil, nil
	}

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return nil, fmt.Errorf("capture dir: %w", err)
	}

	objectKey := fmt.Sprintf("%s-%d.mp4", sanitizeKey(streamKey), time.Now().UnixMilli())
	tempPath := filepath.Join(p.dir, "temp-"+objectKey)
	finalPath := filepath.Join(p.dir, objectKey)

	payload := bytes.Join(frags, nil)
	if err := os.WriteFile(tempPath, payload, 0o644); err != nil {
		return nil, fmt.Errorf("write payload: %w", err)
	}
	// Local files live exactly as long as the finalize cycle: they are
	// removed only after the upload attempt finishes, never on a timer.
	defer p.removeLocal(tempPath, finalPath)

	if err := p.transcoder.Transcode(ctx, tempPath, finalPath); err != nil {
		return nil, fmt.Errorf("transcode: %w", err)
	}

	info, err := os.Stat(finalPath)
	if err != nil {
		return nil, fmt.Errorf("stat artifact: %w", err)
	}

	art := &Artifact{StreamKey: streamKey, ObjectKey: objectKey, SizeBytes: info.Size()}
	status := model.RecordingStatusStored
	if p.store != nil {
		loc, err := p.store.Upload(ctx, finalPath, objectKey)
		if err != nil {
			p.saveRecord(ctx, art, model.RecordingStatusFailed)
			return nil, fmt.Errorf("upload: %w", err)
		}
		art.Location = loc
		status = model.RecordingStatusUploaded
		p.log.Info("artifact uploaded",
			zap.String("stream_key", streamKey),
			zap.String("object_key", objectKey),
			zap.String("location", loc))
	}
	p.saveRecord(ctx, art, status)
	return art, nil
}

func (p *Pipeline) saveRecord(ctx context.Context, art *Artifact, status string) {
	if p.records == nil {
		return
	}
	rec := &model.Recording{
		StreamKey: art.StreamKey,
		ObjectKey: art.ObjectKey,
		Location:  art.Location,
		Status:    status,
		SizeBytes: art.SizeBytes,
	}
	if err := p.records.SaveArtifact(ctx, rec); err != nil {
		p.log.Warn("saving recording metadata failed",
			zap.String("object_key", art.ObjectKey),
			zap.Error(err))
	}
}

func (p *Pipeline) removeLocal(paths ...string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			p.log.Warn("cleanup failed", zap.String("path", path), zap.Error(err))
		}
	}
}

// sanitizeKey keeps stream keys safe to use as file names.
func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, key)
}
