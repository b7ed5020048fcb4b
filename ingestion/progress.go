package ingestion

import "time"

// Event reports ingestion progress for one file. Events arrive before each
// batch starts, after each batch completes, and on batch failure.
type Event struct {
	File string

	// Batch bookkeeping.
	TotalChunks     int
	TotalBatches    int
	CurrentBatch    int
	ChunksProcessed int
	BatchSize       int

	// Set on batch completion.
	BatchCompleted  bool
	Duration        time.Duration
	ChunksPerSecond float64

	// Set on batch failure, together with the index of the failed batch.
	Err        error
	BatchIndex int
}

// ProgressFunc receives ingestion events. Callbacks run on the ingestion
// goroutine and should return quickly.
type ProgressFunc func(Event)

func (p *Pipeline) emit(progress ProgressFunc, event Event) {
	if progress != nil {
		progress(event)
	}
}
