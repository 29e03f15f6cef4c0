package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/bookcontrol/internal/importer"
	"github.com/dgallion1/bookcontrol/internal/manuscript"
	"github.com/dgallion1/bookcontrol/internal/parser"
	"github.com/dgallion1/bookcontrol/internal/segment"
)

// Worker processes a single upload job.
type Worker struct {
	sink   importer.Sink
	ledger importer.Ledger
	policy segment.Policy
	stats  *Stats
	log    *slog.Logger

	backoff func(attempt int) time.Duration
}

func NewWorker(sink importer.Sink, ledger importer.Ledger, policy segment.Policy, stats *Stats, log *slog.Logger) *Worker {
	return &Worker{
		sink:    sink,
		ledger:  ledger,
		policy:  policy,
		stats:   stats,
		log:     log,
		backoff: Backoff,
	}
}

// Process runs parse, segment and store for a job. The job ends completed or
// failed; the uploaded bytes are released either way.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "book", job.Book, "filename", job.Filename)
	start := time.Now()
	defer job.SetFileData(nil)

	fail := func(phase string, err error) {
		log.Error("import failed", "phase", phase, "error", err)
		job.AddError(fmt.Sprintf("%s: %s", phase, err))
		job.SetStatus(StatusFailed, phase)
		if w.stats != nil {
			w.stats.RecordFailure()
		}
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	doc, err := parser.ParseBytes(job.FileData(), job.Filename)
	if err != nil {
		fail("parsing", err)
		return
	}
	job.SetParagraphs(len(doc.Paragraphs))

	// Phase 2: Segment
	job.SetStatus(StatusSegmenting, "segmenting")
	ch, err := segment.SegmentDocument(doc, w.policy)
	if err != nil {
		fail("segmenting", err)
		return
	}
	stamp := manuscript.NewStamp(doc.Meta, time.Now().UTC())
	job.SetChapter(ch, stamp)
	log.Info("segmented chapter", "chapter", ch.Title, "scenes", len(ch.Scenes))

	// Phase 3: Store
	if w.sink != nil {
		job.SetStatus(StatusStoring, "storing")
		if err := w.store(ctx, log, job, ch, stamp); err != nil {
			fail("storing", err)
			return
		}
	}
	if w.ledger != nil {
		if err := w.ledger.Record(ctx, ch, stamp); err != nil {
			log.Warn("ledger write failed", "error", err)
		}
	}

	elapsed := time.Since(start)
	if w.stats != nil {
		w.stats.RecordSuccess(elapsed.Milliseconds(), len(ch.Scenes))
	}
	job.SetStatus(StatusCompleted, "done")
	log.Info("import complete", "duration_ms", elapsed.Milliseconds())
}

// store hands the chapter to the sink, retrying transient failures.
func (w *Worker) store(ctx context.Context, log *slog.Logger, job *Job, ch *manuscript.Chapter, stamp manuscript.Stamp) error {
	var lastErr error
	for attempt := range MaxRetries {
		job.IncrStoreAttempts()
		lastErr = w.sink.SaveChapter(ctx, job.Book, ch, stamp)
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		log.Warn("retryable store error", "attempt", attempt, "error", lastErr)
		if attempt == MaxRetries-1 {
			break
		}
		select {
		case <-time.After(w.backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
