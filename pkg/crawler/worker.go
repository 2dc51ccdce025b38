package crawler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/olympedia-scraper/pkg/extract"
	"github.com/Sriram-PR/olympedia-scraper/pkg/fetch"
	"github.com/Sriram-PR/olympedia-scraper/pkg/metrics"
	"github.com/Sriram-PR/olympedia-scraper/pkg/models"
	"github.com/Sriram-PR/olympedia-scraper/pkg/storage"
	"github.com/Sriram-PR/olympedia-scraper/pkg/utils"
)

// EntityFetcher retrieves the document for one identifier
type EntityFetcher interface {
	FetchEntity(ctx context.Context, id int) (*fetch.Page, error)
}

// RecordSink appends completed records to the output
type RecordSink interface {
	Append(records []*models.Record) error
}

// Checkpointer persists the last attempted identifier
type Checkpointer interface {
	Save(id int) error
}

// Pacer sleeps between tasks
type Pacer interface {
	Wait(ctx context.Context) time.Duration
}

// Worker runs the per-identifier pipeline. It holds no state of its own: every
// shared resource is injected, so one Worker serves all tasks of a run.
type Worker struct {
	fetcher    EntityFetcher
	sink       RecordSink
	checkpoint Checkpointer
	ledger     storage.AttemptLedger // Optional
	pacer      Pacer                 // Optional
	log        *logrus.Entry
}

// NewWorker creates a Worker. ledger and pacer may be nil.
func NewWorker(
	fetcher EntityFetcher,
	sink RecordSink,
	checkpoint Checkpointer,
	ledger storage.AttemptLedger,
	pacer Pacer,
	log *logrus.Entry,
) *Worker {
	return &Worker{
		fetcher:    fetcher,
		sink:       sink,
		checkpoint: checkpoint,
		ledger:     ledger,
		pacer:      pacer,
		log:        log,
	}
}

// Process fetches, extracts and appends the record for id.
//
// It returns (true, nil) when a record was written, (false, nil) when the identifier
// is a miss (non-200 or network retries exhausted), and (false, err) when writing
// the record or the checkpoint failed. Whatever the outcome the checkpoint is saved
// and the politeness delay observed, except when ctx was cancelled before the
// identifier could be attempted.
func (w *Worker) Process(ctx context.Context, id int) (found bool, err error) {
	taskLog := w.log.WithField("athlete_id", id)
	startTime := time.Now()

	// Panics leave these at their initial values; the driver recovers them.
	status := models.AttemptStatusError
	errorType := "Internal_Panic"
	var name, contentHash string
	cancelled := false

	defer func() {
		if cancelled {
			taskLog.Debugf("Task abandoned: %v", err)
			return
		}

		if saveErr := w.checkpoint.Save(id); saveErr != nil {
			taskLog.Errorf("Failed to save checkpoint: %v", saveErr)
			if err == nil {
				err = saveErr
			}
			found = false
			status = models.AttemptStatusError
			errorType = utils.CategorizeError(saveErr)
		} else {
			metrics.SetCheckpoint(id)
		}

		if w.ledger != nil {
			entry := &models.AttemptEntry{
				Status:      status,
				ErrorType:   errorType,
				Name:        name,
				ContentHash: contentHash,
				LastAttempt: time.Now(),
			}
			if ledgerErr := w.ledger.RecordAttempt(id, entry); ledgerErr != nil {
				taskLog.Warnf("Failed to record attempt in ledger: %v", ledgerErr)
			}
		}

		metrics.ObserveAttempt(string(status))
		taskLog.WithFields(logrus.Fields{
			"status":   status.String(),
			"duration": time.Since(startTime).String(),
		}).Debug("Task finished")

		if w.pacer != nil {
			metrics.ObservePoliteness(w.pacer.Wait(ctx))
		}
	}()

	page, fetchErr := w.fetcher.FetchEntity(ctx, id)
	if fetchErr != nil {
		if isCancellation(ctx, fetchErr) {
			cancelled = true
			return false, fetchErr
		}
		status = models.AttemptStatusMiss
		errorType = utils.CategorizeError(fetchErr)
		taskLog.WithField("category", errorType).Debugf("Miss: %v", fetchErr)
		return false, nil
	}

	rec, events := extract.Entity(id, page.Doc)
	name = rec.Get(models.FieldName)
	contentHash = utils.CalculateStringSHA256(string(page.Body))

	if appendErr := w.sink.Append([]*models.Record{rec}); appendErr != nil {
		status = models.AttemptStatusError
		errorType = utils.CategorizeError(appendErr)
		return false, appendErr
	}
	metrics.ObserveRowsWritten(1)

	status = models.AttemptStatusFound
	errorType = ""
	taskLog.WithFields(logrus.Fields{"name": name, "events": len(events)}).Debug("Record written")
	return true, nil
}
