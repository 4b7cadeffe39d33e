package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wayspot-tools/contribtrack/app/contrib"
	"github.com/wayspot-tools/contribtrack/app/database"
	"github.com/wayspot-tools/contribtrack/app/history"
	"github.com/wayspot-tools/contribtrack/app/notify"
)

// statusColor picks the notification color for a transition target.
func statusColor(status contrib.Status) notify.Color {
	switch status {
	case contrib.StatusAccepted:
		return notify.ColorGreen
	case contrib.StatusRejected:
		return notify.ColorRed
	case contrib.StatusDuplicate:
		return notify.ColorBrown
	case contrib.StatusVoting, contrib.StatusNianticReview:
		return notify.ColorBlue
	case contrib.StatusAppealed:
		return notify.ColorPurple
	case contrib.StatusUpgrade:
		return notify.ColorGold
	case contrib.StatusWithdrawn:
		return notify.ColorDarkGray
	default:
		return notify.ColorGray
	}
}

// ObserveSubmissions folds one intercepted manager snapshot into the store:
// unseen contributions are created, known ones are compared against their
// last stored status. Unchanged entities produce no writes.
func (p *Processor) ObserveSubmissions(ctx context.Context, subs []contrib.Contribution) (created, updated int, err error) {
	// A corpus pass owns the stores while running; take a writer turn
	// rather than interleaving transactions with it.
	if err := p.gate.Acquire(ctx); err != nil {
		return 0, 0, err
	}
	defer p.gate.Release()

	now := time.Now().UTC()

	err = database.WithStore(p.db, database.StoreHistory, func(conn *database.Conn) error {
		repo := database.NewHistoryRepository(conn)

		for _, sub := range subs {
			stored, err := repo.Get(sub.ID)
			if errors.Is(err, database.ErrKeyNotFound) {
				if err := repo.Put(contrib.NewStored(sub, now)); err != nil {
					return err
				}
				created++
				continue
			}
			if err != nil {
				return err
			}

			changed, transitions := history.ApplySnapshot(stored, sub, now)
			for _, tr := range transitions {
				p.notifyTransition(stored, tr)
			}
			if !changed {
				continue
			}
			if err := repo.Put(stored); err != nil {
				return err
			}
			updated++
		}

		return conn.Commit()
	})
	if err != nil {
		return 0, 0, err
	}

	return created, updated, nil
}

// ObserveAction records a host-app manual action (hold, release hold,
// appeal) whose response confirmed success, appending a verified entry
// immediately without waiting for the matching email.
func (p *Processor) ObserveAction(ctx context.Context, action history.ManualAction, id string) error {
	if err := p.gate.Acquire(ctx); err != nil {
		return err
	}
	defer p.gate.Release()

	now := time.Now().UTC()

	return database.WithStore(p.db, database.StoreHistory, func(conn *database.Conn) error {
		repo := database.NewHistoryRepository(conn)

		stored, err := repo.Get(id)
		if err != nil {
			return fmt.Errorf("action %s: %w", action, err)
		}

		changed, transition, ok := history.ApplyAction(stored, action, now)
		if !ok {
			return fmt.Errorf("unknown manual action %q", action)
		}
		p.notifyTransition(stored, transition)
		if !changed {
			return nil
		}

		if err := repo.Put(stored); err != nil {
			return err
		}
		return conn.Commit()
	})
}

func (p *Processor) notifyTransition(stored *contrib.StoredContribution, tr history.Transition) {
	if tr.Suppressed {
		return
	}

	message := fmt.Sprintf("%s is now %s", stored.Title, tr.To)
	if tr.Upgrade {
		message = fmt.Sprintf("%s has been upgraded", stored.Title)
	}

	p.notifier.Notify(notify.Notification{
		Color:       statusColor(tr.To),
		Message:     message,
		Dismissable: true,
	})
}

// Contributions returns every tracked contribution, waiting out an
// in-flight pass first.
func (p *Processor) Contributions(ctx context.Context) ([]contrib.StoredContribution, error) {
	if err := p.gate.WaitReady(ctx); err != nil {
		return nil, err
	}

	var items []contrib.StoredContribution
	err := database.WithStore(p.db, database.StoreHistory, func(conn *database.Conn) error {
		var err error
		items, err = database.NewHistoryRepository(conn).GetAll()
		return err
	})
	return items, err
}

// Contribution returns one tracked contribution with its timeline.
func (p *Processor) Contribution(ctx context.Context, id string) (*contrib.StoredContribution, error) {
	if err := p.gate.WaitReady(ctx); err != nil {
		return nil, err
	}

	var stored *contrib.StoredContribution
	err := database.WithStore(p.db, database.StoreHistory, func(conn *database.Conn) error {
		var err error
		stored, err = database.NewHistoryRepository(conn).Get(id)
		return err
	})
	return stored, err
}

// Stats aggregates store contents for the stats endpoint.
type Stats struct {
	Contributions int                              `json:"contributions"`
	ByType        map[contrib.Type]int             `json:"byType"`
	ByStatus      map[contrib.Status]int           `json:"byStatus"`
	Emails        int                              `json:"emails"`
	ByResult      map[contrib.ProcessingResult]int `json:"byResult"`
}

// CollectStats builds counts over both stores.
func (p *Processor) CollectStats(ctx context.Context) (*Stats, error) {
	if err := p.gate.WaitReady(ctx); err != nil {
		return nil, err
	}

	stats := &Stats{
		ByType:   make(map[contrib.Type]int),
		ByStatus: make(map[contrib.Status]int),
		ByResult: make(map[contrib.ProcessingResult]int),
	}

	err := database.WithStore(p.db, database.StoreHistory, func(conn *database.Conn) error {
		items, err := database.NewHistoryRepository(conn).GetAll()
		if err != nil {
			return err
		}
		stats.Contributions = len(items)
		for _, item := range items {
			stats.ByType[item.Type]++
			stats.ByStatus[item.Status]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = database.WithStore(p.db, database.StoreEmails, func(conn *database.Conn) error {
		records, err := database.NewEmailRepository(conn).GetAll()
		if err != nil {
			return err
		}
		stats.Emails = len(records)
		for _, rec := range records {
			stats.ByResult[rec.Result]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// CrashReportsEnabled reports the persisted opt-in flag.
func (p *Processor) CrashReportsEnabled() (bool, error) {
	return p.settings.GetBool(SettingCrashReports, false)
}

// SetCrashReports persists the revocable crash-report opt-in.
func (p *Processor) SetCrashReports(enabled bool) error {
	return p.settings.SetBool(SettingCrashReports, enabled)
}

// CrashReports returns the captured failure bundles.
func (p *Processor) CrashReports() ([]database.CrashReport, error) {
	return p.crashes.GetAll()
}
