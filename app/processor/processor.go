// Package processor drives the email corpus pass: list and fetch new
// emails, classify and resolve each one, bind it to a tracked contribution,
// and merge the derived timeline entries, recording a durable per-email
// outcome that makes repeated runs idempotent and resumable.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/wayspot-tools/contribtrack/app/cfg"
	"github.com/wayspot-tools/contribtrack/app/contrib"
	"github.com/wayspot-tools/contribtrack/app/database"
	"github.com/wayspot-tools/contribtrack/app/email"
	"github.com/wayspot-tools/contribtrack/app/history"
	"github.com/wayspot-tools/contribtrack/app/mailapi"
	"github.com/wayspot-tools/contribtrack/app/notify"
)

// ProcessingVersion is the current processing-logic version. Bumping it
// makes every previously recorded outcome stale, so the next full run
// revisits emails that template-table additions or bugfixes can now
// resolve, without reprocessing emails whose outcome is already final.
const ProcessingVersion = 3

// SettingCrashReports is the persisted opt-in flag for failure bundles.
const SettingCrashReports = "crash_reports_enabled"

// Summary is the per-pass running total reported once per completed pass.
type Summary struct {
	Source    string    `json:"source"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	Total     int       `json:"total"`
	Updated   int       `json:"updated"`
	Unchanged int       `json:"unchanged"`
	Skipped   int       `json:"skipped"`
	Ambiguous int       `json:"ambiguous"`
	Errors    int       `json:"errors"`
}

func (s *Summary) count(result contrib.ProcessingResult) {
	s.Total++
	switch result {
	case contrib.ResultSuccess:
		s.Updated++
	case contrib.ResultUnchanged:
		s.Unchanged++
	case contrib.ResultSkipped, contrib.ResultUnsupported:
		s.Skipped++
	case contrib.ResultAmbiguous:
		s.Ambiguous++
	case contrib.ResultFailure:
		s.Errors++
	}
}

// Processor owns the pipeline. One instance serializes all passes and all
// store writes through its gate.
type Processor struct {
	db         *database.DB
	sources    *mailapi.SourceCache
	httpClient *http.Client
	registry   *email.Registry
	classifier *email.Classifier
	notifier   notify.Notifier
	settings   *database.SettingsRepository
	crashes    *database.CrashReportRepository
	userAgent  string
	strict     bool
	gate       *Gate

	mu          sync.Mutex
	lastSummary *Summary
}

func New(db *database.DB, sources *mailapi.SourceCache, httpClient *http.Client, notifier notify.Notifier) *Processor {
	c := cfg.Get()
	registry := email.NewRegistry()

	return &Processor{
		db:         db,
		sources:    sources,
		httpClient: httpClient,
		registry:   registry,
		classifier: email.NewClassifier(registry),
		notifier:   notifier,
		settings:   database.NewSettingsRepository(db),
		crashes:    database.NewCrashReportRepository(db),
		userAgent:  c.UserAgent,
		strict:     c.StrictMode,
		gate:       NewGate(),
	}
}

// State returns the pass gate state.
func (p *Processor) State() PassState {
	return p.gate.State()
}

// LastSummary returns the most recent completed pass summary, or nil.
func (p *Processor) LastSummary() *Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSummary
}

// Run executes one full corpus pass for the named source. A second
// invocation while a pass is in flight fails with ErrPassInFlight.
func (p *Processor) Run(ctx context.Context, sourceName string) (*Summary, error) {
	if err := p.gate.Begin(ctx); err != nil {
		return nil, err
	}
	defer p.gate.Finish()

	source, err := p.sources.GetSource(sourceName)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Source: sourceName, Started: time.Now().UTC()}

	client := mailapi.NewClient(p.httpClient, source, p.userAgent)
	onRetry := func(failures int, delay time.Duration) {
		p.notifier.Notify(notify.Notification{
			Color:       notify.ColorDarkGray,
			Message:     fmt.Sprintf("Email source unreachable (attempt %d), retrying in %s", failures, delay),
			Dismissable: true,
		})
	}

	// The credential/version check runs before anything opens a store
	// connection: a fatal setup error must commit no partial state.
	iterator := mailapi.NewIterator(client, source, nil, onRetry)
	version, err := iterator.Verify(ctx)
	if err != nil {
		if errors.Is(err, mailapi.ErrVersionUnsupported) {
			p.notifier.Notify(notify.Notification{
				Color:   notify.ColorRed,
				Message: fmt.Sprintf("Email import aborted: %s", err),
			})
		}
		return nil, err
	}
	slog.Info("Email source verified", "source", sourceName, "version", version)

	err = database.WithStores(p.db, func(historyConn, emailConn *database.Conn) error {
		return p.runPass(ctx, client, source, onRetry, historyConn, emailConn, summary)
	})
	if err != nil {
		return nil, err
	}

	summary.Finished = time.Now().UTC()
	p.mu.Lock()
	p.lastSummary = summary
	p.mu.Unlock()

	p.notifySummary(summary)
	return summary, nil
}

func (p *Processor) runPass(ctx context.Context, client *mailapi.Client, source *mailapi.Source,
	onRetry mailapi.RetryNotifier, historyConn, emailConn *database.Conn, summary *Summary) error {

	historyRepo := database.NewHistoryRepository(historyConn)
	emailRepo := database.NewEmailRepository(emailConn)

	final, err := emailRepo.FinalIDs(source.Prefix, ProcessingVersion)
	if err != nil {
		return fmt.Errorf("failed to load processed ids: %w", err)
	}

	iterator := mailapi.NewIterator(client, source, final, onRetry)
	ids, err := iterator.ListNew(ctx)
	if err != nil {
		return err
	}
	slog.Info("Email listing complete", "source", source.Name, "new", len(ids), "known", len(final))

	if len(ids) == 0 {
		return nil
	}

	pool, err := loadPool(historyRepo)
	if err != nil {
		return err
	}

	crashReports, err := p.settings.GetBool(SettingCrashReports, false)
	if err != nil {
		slog.Warn("Failed to read crash report setting", "error", err)
	}

	for _, batch := range iterator.FetchBatches(ids) {
		raw, err := iterator.Fetch(ctx, batch)
		if err != nil {
			return err
		}

		for _, id := range batch {
			text, ok := raw[id]
			if !ok {
				// Per-email fetch failure: record it so the next run
				// retries, and keep going.
				summary.count(contrib.ResultFailure)
				p.record(emailRepo, id, contrib.ResultFailure)
				continue
			}

			result := p.processOne(id, text, pool, historyRepo, crashReports)
			summary.count(result)
			p.record(emailRepo, id, result)
		}

		// Commit both stores after every fetch batch so an interrupted
		// pass resumes where it stopped.
		historyConn.OnCommit(func() {
			slog.Debug("History store committed", "source", source.Name)
		})
		if err := historyConn.Commit(); err != nil {
			return err
		}
		if err := emailConn.Commit(); err != nil {
			return err
		}
	}

	return nil
}

func (p *Processor) record(repo *database.EmailRepository, id string, result contrib.ProcessingResult) {
	rec := &contrib.EmailProcessingRecord{
		ID:      id,
		TS:      time.Now().UTC().UnixMilli(),
		Result:  result,
		Version: ProcessingVersion,
	}
	if err := repo.Put(rec); err != nil {
		slog.Error("Failed to record email outcome", "id", id, "error", err)
	}
}

// pool is the in-memory view of every tracked contribution for one pass,
// shared so consecutive emails about the same entity see each other's
// merges before commit.
type pool struct {
	byID  map[string]*contrib.StoredContribution
	items []contrib.StoredContribution
}

func loadPool(repo *database.HistoryRepository) (*pool, error) {
	items, err := repo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load tracked contributions: %w", err)
	}

	pl := &pool{byID: make(map[string]*contrib.StoredContribution, len(items)), items: items}
	for i := range pl.items {
		pl.byID[pl.items[i].ID] = &pl.items[i]
	}
	return pl, nil
}

// processOne handles a single email end to end. It never lets an error
// escape: every outcome degrades to a recorded result for that one email.
func (p *Processor) processOne(id, raw string, pl *pool, historyRepo *database.HistoryRepository, crashReports bool) (result contrib.ProcessingResult) {
	var parsed *email.Email

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Email processing panicked", "id", id, "panic", r)
			result = contrib.ResultFailure
			if crashReports && parsed != nil {
				p.captureCrash(parsed, fmt.Sprintf("panic: %v\n%s", r, debug.Stack()))
			}
		}
	}()

	e, err := email.Parse(id, raw)
	if err != nil {
		slog.Warn("Failed to parse email", "id", id, "error", err)
		return contrib.ResultFailure
	}
	parsed = e

	class := p.classifier.Classify(parsed)
	if class.Type == email.TypeOther || class.Style == email.StylePogo {
		return contrib.ResultSkipped
	}
	if class.Type == email.TypeUnknown || class.Style == email.StyleUnknown {
		slog.Debug("No template for email", "id", id, "subject", parsed.Subject, "style", string(class.Style))
		return contrib.ResultUnsupported
	}

	entry := p.registry.Find(class.Style, parsed.Subject)
	if entry == nil {
		return contrib.ResultUnsupported
	}

	doc, err := parsed.Doc()
	if err != nil {
		// No parseable body: a template-table or parser fix may recover
		// this later.
		return contrib.ResultUnsupported
	}

	rc := &email.ResolveContext{Email: parsed, Doc: doc, Entry: entry, Strict: p.strict}

	identity, err := p.registry.ResolveIdentity(rc)
	if err != nil {
		if errors.Is(err, email.ErrUnsupported) {
			return contrib.ResultUnsupported
		}
		slog.Warn("Identity resolution failed", "id", id, "error", err)
		return contrib.ResultFailure
	}

	matched, err := history.Match(pl.items, entry.Type, identity)
	if err != nil {
		switch {
		case errors.Is(err, history.ErrAmbiguousMatch):
			slog.Warn("Email matches multiple contributions", "id", id, "error", err)
			return contrib.ResultAmbiguous
		default:
			slog.Warn("Email matches no contribution", "id", id, "error", err)
			return contrib.ResultFailure
		}
	}
	target := pl.byID[matched.ID]

	rc.History = target.StatusHistory
	status, err := p.registry.ResolveStatus(rc)
	if err != nil {
		switch {
		case errors.Is(err, email.ErrAmbiguousStatus):
			return contrib.ResultAmbiguous
		case errors.Is(err, email.ErrUnsupported):
			return contrib.ResultUnsupported
		default:
			slog.Warn("Status resolution failed", "id", id, "error", err)
			return contrib.ResultFailure
		}
	}

	newEntry, ok := timelineEntry(parsed, identity, status)
	if !ok {
		return contrib.ResultUnsupported
	}

	merged, changed := history.Merge(target.StatusHistory, []contrib.StatusHistoryEntry{newEntry})
	if !changed {
		return contrib.ResultUnchanged
	}

	target.StatusHistory = merged
	if err := historyRepo.Put(target); err != nil {
		slog.Error("Failed to persist merged timeline", "id", id, "contribution", target.ID, "error", err)
		return contrib.ResultFailure
	}

	slog.Info("Timeline updated from email", "id", id, "contribution", target.ID, "status", string(status))
	return contrib.ResultSuccess
}

// timelineEntry builds the history entry an email contributes. The Date
// header is the authoritative timestamp; without one, the prose submission
// date serves as a low-precision bare-date fallback.
func timelineEntry(e *email.Email, identity email.Identity, status contrib.Status) (contrib.StatusHistoryEntry, bool) {
	if !e.Date.IsZero() {
		return contrib.StatusHistoryEntry{
			Timestamp: e.Date.UnixMilli(),
			Status:    status,
			Verified:  true,
			Email:     e.ID,
		}, true
	}

	if len(identity.Dates) == 3 {
		return contrib.StatusHistoryEntry{
			Timestamp: identity.Dates[1].UnixMilli(),
			Status:    status,
			Email:     e.ID,
		}, true
	}

	return contrib.StatusHistoryEntry{}, false
}

func (p *Processor) captureCrash(e *email.Email, stack string) {
	report := database.CrashReport{
		CreatedAt:    time.Now().UTC(),
		MessageID:    e.ID,
		Stack:        stack,
		EmailExcerpt: email.RedactedExcerpt(e),
	}
	if err := p.crashes.Insert(report); err != nil {
		slog.Error("Failed to store crash report", "id", e.ID, "error", err)
	}
}

func (p *Processor) notifySummary(s *Summary) {
	color := notify.ColorGray
	switch {
	case s.Errors > 0:
		color = notify.ColorRed
	case s.Updated > 0:
		color = notify.ColorGreen
	}

	p.notifier.Notify(notify.Notification{
		Color: color,
		Message: fmt.Sprintf("Email import finished: %d updated, %d unchanged, %d skipped, %d ambiguous, %d errors",
			s.Updated, s.Unchanged, s.Skipped, s.Ambiguous, s.Errors),
		Dismissable: true,
	})
}
