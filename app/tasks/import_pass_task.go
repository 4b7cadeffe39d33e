package tasks

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wayspot-tools/contribtrack/app/processor"
)

// ImportPassTask runs one full email corpus pass for a source.
type ImportPassTask struct {
	Task
	processor *processor.Processor
}

func NewImportPassTask(sourceName string, proc *processor.Processor) *ImportPassTask {
	task := NewTask(TaskTypeImportPass, sourceName)
	// A failed pass is resumed by the next scheduled pass, not re-queued:
	// transient failures already retry indefinitely inside the iterator,
	// and a version failure would only re-alert.
	task.MaxRetries = 0

	return &ImportPassTask{
		Task:      task,
		processor: proc,
	}
}

func (t *ImportPassTask) Execute(ctx context.Context) error {
	summary, err := t.processor.Run(ctx, t.SourceName)
	if errors.Is(err, processor.ErrPassInFlight) {
		slog.Debug("Import pass already in flight, skipping", "source", t.SourceName)
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", "ImportPass",
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"total", summary.Total,
		"updated", summary.Updated,
		"unchanged", summary.Unchanged,
		"skipped", summary.Skipped,
		"ambiguous", summary.Ambiguous,
		"errors", summary.Errors)

	return nil
}
