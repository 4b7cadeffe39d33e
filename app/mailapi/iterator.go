package mailapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// RetryNotifier renders the countdown of a pending retry. Separate from the
// backoff state machine so the latter stays testable without any UI.
type RetryNotifier func(failures int, delay time.Duration)

// Iterator walks the remote corpus incrementally: it pages message ids with
// list() in large batches until a short page signals end-of-results, drops
// ids whose processing records are already final, then fetches raw bodies in
// small batches. Any transient failure of list/fetch/test enters an
// indefinite visible countdown-and-retry loop; the endpoint offers no way to
// classify errors, so there is deliberately no retry cap.
type Iterator struct {
	client     *Client
	since      string
	listBatch  int
	fetchBatch int
	exclude    map[string]bool
	backoff    Backoff
	onRetry    RetryNotifier

	// sleep is injectable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewIterator builds an iterator for one source. exclude holds message ids
// that must not be treated as new (already-final processing records).
func NewIterator(client *Client, source *Source, exclude map[string]bool, onRetry RetryNotifier) *Iterator {
	return &Iterator{
		client:     client,
		since:      source.Since,
		listBatch:  source.Settings.ListBatchSize,
		fetchBatch: source.Settings.FetchBatchSize,
		exclude:    exclude,
		onRetry:    onRetry,
		sleep:      sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retry runs op until it succeeds, waiting out the growing backoff delay
// between attempts. Only context cancellation breaks the loop.
func (it *Iterator) retry(ctx context.Context, op func() error) error {
	for {
		err := op()
		if err == nil {
			it.backoff.Reset()
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		delay := it.backoff.Fail()
		slog.Warn("Email source request failed, retrying", "failures", it.backoff.Failures(), "delay", delay.String(), "error", err)
		if it.onRetry != nil {
			it.onRetry(it.backoff.Failures(), delay)
		}
		if err := it.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// Verify performs the one-time credential/version check. A version below
// MinSupportedVersion returns ErrVersionUnsupported and the run must abort
// with no partial state; transient failures retry indefinitely.
func (it *Iterator) Verify(ctx context.Context) (int, error) {
	var version int
	err := it.retry(ctx, func() error {
		v, err := it.client.Test(ctx)
		if err != nil {
			return err
		}
		version = v
		return nil
	})
	if err != nil {
		return 0, err
	}

	if version < MinSupportedVersion {
		return version, fmt.Errorf("%w: got %d, need at least %d", ErrVersionUnsupported, version, MinSupportedVersion)
	}
	return version, nil
}

// ListNew pages through the corpus and returns the message ids that still
// need processing, in remote order. A page shorter than the batch size ends
// the search.
func (it *Iterator) ListNew(ctx context.Context) ([]string, error) {
	var newIDs []string
	offset := 0

	for {
		var page []string
		err := it.retry(ctx, func() error {
			ids, err := it.client.List(ctx, it.since, offset, it.listBatch)
			if err != nil {
				return err
			}
			page = ids
			return nil
		})
		if err != nil {
			return nil, err
		}

		for _, id := range page {
			if !it.exclude[id] {
				newIDs = append(newIDs, id)
			}
		}

		slog.Debug("Listed message ids", "offset", offset, "page", len(page), "new", len(newIDs))

		if len(page) < it.listBatch {
			return newIDs, nil
		}
		offset += len(page)
	}
}

// FetchBatches splits ids into fetch-sized batches.
func (it *Iterator) FetchBatches(ids []string) [][]string {
	var batches [][]string
	for len(ids) > 0 {
		n := it.fetchBatch
		if n > len(ids) {
			n = len(ids)
		}
		batches = append(batches, ids[:n])
		ids = ids[n:]
	}
	return batches
}

// Fetch retrieves raw bodies for one batch of ids. Ids absent from the
// returned map failed individually; the caller decides whether to record
// partial progress for them.
func (it *Iterator) Fetch(ctx context.Context, ids []string) (map[string]string, error) {
	var emails map[string]string
	err := it.retry(ctx, func() error {
		m, err := it.client.Fetch(ctx, ids)
		if err != nil {
			return err
		}
		emails = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return emails, nil
}
