// Package engine orchestrates portfolio mutations: seeding, imports, status
// changes, contact registration and the promise lifecycle. Every mutation
// writes an audit event. The engine holds no state of its own beyond the
// repository handle and an injectable clock.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"smartcollect/internal/assignment"
	"smartcollect/internal/config"
	"smartcollect/internal/demo"
	"smartcollect/internal/domain"
	"smartcollect/internal/importer"
	"smartcollect/internal/promises"
	"smartcollect/internal/repo"
	"smartcollect/internal/strategy"
)

// ErrInvalidTransition rejects promise operations outside the open state.
var ErrInvalidTransition = errors.New("invalid promise state transition")

type Engine struct {
	DB   *sql.DB
	Repo repo.Repo
	Now  func() time.Time
	Rand *rand.Rand
	// FetchDelay overrides the simulated remote feed latency; zero keeps
	// the feed's own default.
	FetchDelay time.Duration
}

func New(db *sql.DB) Engine {
	return Engine{
		DB:   db,
		Repo: repo.Repo{DB: db},
		Now:  time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) audit(ctx context.Context, evtType, actor, message string) error {
	return e.Repo.AppendAudit(ctx, domain.AuditEvent{
		ID:      uuid.New().String(),
		TS:      e.now().UTC().Format(time.RFC3339),
		Type:    evtType,
		Actor:   actor,
		Message: message,
	})
}

// Portfolio returns the stored accounts; a missing portfolio reads as empty.
func (e Engine) Portfolio(ctx context.Context) ([]domain.Account, error) {
	accounts, err := e.Repo.LoadPortfolio(ctx)
	if errors.Is(err, repo.ErrNotFound) {
		return []domain.Account{}, nil
	}
	return accounts, err
}

// SeedDemo replaces the portfolio with count generated accounts.
func (e Engine) SeedDemo(ctx context.Context, count int, actor string) ([]domain.Account, error) {
	accounts := demo.Generate(count, e.Rand)
	if err := e.Repo.SavePortfolio(ctx, accounts); err != nil {
		return nil, err
	}
	if err := e.audit(ctx, "portfolio.seeded", actor, fmt.Sprintf("Demo portfolio generated with %d accounts.", len(accounts))); err != nil {
		return nil, err
	}
	return accounts, nil
}

// ReplacePortfolio swaps in a new account collection wholesale.
func (e Engine) ReplacePortfolio(ctx context.Context, accounts []domain.Account, actor, source string) error {
	if err := e.Repo.SavePortfolio(ctx, accounts); err != nil {
		return err
	}
	return e.audit(ctx, "portfolio.replaced", actor, fmt.Sprintf("Portfolio replaced from %s (%d accounts).", source, len(accounts)))
}

// ResetPortfolio clears all stored accounts.
func (e Engine) ResetPortfolio(ctx context.Context, actor string) error {
	if err := e.Repo.ClearPortfolio(ctx); err != nil {
		return err
	}
	return e.audit(ctx, "portfolio.reset", actor, "Portfolio cleared.")
}

// SetStatus updates one account's workflow status. The new status is stored
// verbatim; recognized values get the canonical spelling via TrimSpace only.
func (e Engine) SetStatus(ctx context.Context, accountID, status, actor string) (domain.Account, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return domain.Account{}, errors.New("status is required")
	}
	a, err := e.Repo.UpdateAccount(ctx, accountID, func(a *domain.Account) error {
		a.Status = status
		return nil
	})
	if err != nil {
		return domain.Account{}, err
	}
	if err := e.audit(ctx, "account.status", actor, fmt.Sprintf("Status of %q changed to %q.", a.Name, status)); err != nil {
		return domain.Account{}, err
	}
	return a, nil
}

// RegisterContact appends an outreach event. A contact resets the no-contact
// counter, counts as an attempt, and clears a no-contact status back to open.
func (e Engine) RegisterContact(ctx context.Context, accountID, channel, note, actor string) (domain.Account, error) {
	if strings.TrimSpace(note) == "" {
		return domain.Account{}, errors.New("contact note is required")
	}
	if strings.TrimSpace(channel) == "" {
		channel = "WhatsApp"
	}
	contact := domain.Contact{
		ID:        uuid.New().String(),
		Timestamp: e.now().UTC().Format(time.RFC3339),
		Channel:   channel,
		Note:      strings.TrimSpace(note),
	}
	a, err := e.Repo.UpdateAccount(ctx, accountID, func(a *domain.Account) error {
		zero := 0
		a.NoContactDays = &zero
		a.ContactAttempts++
		a.Contacts = append(a.Contacts, contact)
		if a.Status == domain.StatusNoContact {
			a.Status = domain.StatusOpen
		}
		return nil
	})
	if err != nil {
		return domain.Account{}, err
	}
	if err := e.audit(ctx, "contact.registered", actor, fmt.Sprintf("Contact registered on %q via %s.", a.Name, channel)); err != nil {
		return domain.Account{}, err
	}
	return a, nil
}

// Distribute runs the assignment pipeline over the current portfolio with
// the configured operators and SLA thresholds.
func (e Engine) Distribute(ctx context.Context) (assignment.Result, error) {
	accounts, err := e.Portfolio(ctx)
	if err != nil {
		return assignment.Result{}, err
	}
	settings, err := e.Repo.LoadSettings(ctx)
	if err != nil {
		return assignment.Result{}, err
	}
	return assignment.Distribute(accounts, settings.Operators, settings.SLA), nil
}

// ApplyImport validates normalized rows and stores the valid ones as the new
// portfolio. Invalid rows are reported back, never silently dropped. The
// confirmed mapping is saved as the default for the next import.
func (e Engine) ApplyImport(ctx context.Context, rows []map[string]string, mapping importer.Mapping, actor string) (importer.Report, error) {
	normalized := importer.Normalize(rows, mapping)
	report := importer.Validate(normalized)
	if len(report.Valid) == 0 {
		return report, errors.New("no valid rows to import")
	}
	if err := e.Repo.SavePortfolio(ctx, report.Valid); err != nil {
		return report, err
	}
	if err := e.Repo.SaveMapping(ctx, mapping); err != nil {
		return report, err
	}
	if err := e.audit(ctx, "portfolio.imported", actor,
		fmt.Sprintf("Imported %d accounts (%d invalid rows skipped).", len(report.Valid), len(report.Invalid))); err != nil {
		return report, err
	}
	return report, nil
}

// FlatPromises returns the portfolio's promises as a sorted flat view with a
// summary, classified against the engine clock.
func (e Engine) FlatPromises(ctx context.Context) ([]promises.Flat, promises.Summary, error) {
	accounts, err := e.Portfolio(ctx)
	if err != nil {
		return nil, promises.Summary{}, err
	}
	today := e.now()
	flat := promises.Flatten(accounts, today)
	promises.Sort(flat)
	return flat, promises.Summarize(flat, today), nil
}

// SuggestMessage renders the configured template for an account's channel
// and tier, falling back to the built-in tier message when no template is
// configured.
func (e Engine) SuggestMessage(ctx context.Context, accountID, channel string) (string, error) {
	accounts, err := e.Portfolio(ctx)
	if err != nil {
		return "", err
	}
	settings, err := e.Repo.LoadSettings(ctx)
	if err != nil {
		return "", err
	}
	for _, a := range accounts {
		if a.ID != accountID {
			continue
		}
		ev := strategy.Evaluate(strategy.FromAccount(a))
		tpl := settings.Template(channel, ev.Tier)
		if tpl == "" {
			return strategy.BuildMessage(ev.Tier, a.Name, a.Amount), nil
		}
		return config.Render(tpl, map[string]any{
			"name":   strategy.FirstName(a.Name),
			"amount": strategy.FormatMoney(a.Amount),
			"days":   a.DaysOverdue,
		}), nil
	}
	return "", fmt.Errorf("account %s: %w", accountID, repo.ErrNotFound)
}
