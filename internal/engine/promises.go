package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"smartcollect/internal/domain"
	"smartcollect/internal/promises"
	"smartcollect/internal/repo"
	"smartcollect/internal/strategy"
)

// PromiseOptions carries the caller-supplied fields of a payment promise.
type PromiseOptions struct {
	Amount  float64
	Date    string
	Channel string
	Note    string
}

func (o PromiseOptions) validate() error {
	if o.Amount <= 0 {
		return errors.New("promised amount must be positive")
	}
	if _, err := promises.ParseDate(o.Date); err != nil {
		return fmt.Errorf("promised date: %w", err)
	}
	return nil
}

// CreatePromise attaches a new open promise to an account. Newest promises
// sit first in the account's list.
func (e Engine) CreatePromise(ctx context.Context, accountID string, opts PromiseOptions, actor string) (domain.Promise, error) {
	if err := opts.validate(); err != nil {
		return domain.Promise{}, err
	}
	p := domain.Promise{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Amount:    opts.Amount,
		Date:      opts.Date,
		Channel:   opts.Channel,
		Note:      strings.TrimSpace(opts.Note),
		Status:    domain.PromiseOpen,
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	_, err := e.Repo.UpdateAccount(ctx, accountID, func(a *domain.Account) error {
		a.Promises = append([]domain.Promise{p}, a.Promises...)
		return nil
	})
	if err != nil {
		return domain.Promise{}, err
	}
	if err := e.audit(ctx, "promise.created", actor,
		fmt.Sprintf("Promise created (%s) for %s.", strategy.FormatMoney(opts.Amount), opts.Date)); err != nil {
		return domain.Promise{}, err
	}
	return p, nil
}

// EditPromise updates amount/date/channel/note on an open promise. Edits on
// paid or canceled promises are rejected.
func (e Engine) EditPromise(ctx context.Context, promiseID string, opts PromiseOptions, actor string) (domain.Promise, error) {
	if err := opts.validate(); err != nil {
		return domain.Promise{}, err
	}
	return e.mutatePromise(ctx, promiseID, actor, "promise.edited",
		func(p *domain.Promise) (string, error) {
			if p.Status != domain.PromiseOpen {
				return "", fmt.Errorf("edit %s promise: %w", p.Status, ErrInvalidTransition)
			}
			p.Amount = opts.Amount
			p.Date = opts.Date
			p.Channel = opts.Channel
			p.Note = strings.TrimSpace(opts.Note)
			return fmt.Sprintf("Promise edited (%s) for %s.", strategy.FormatMoney(opts.Amount), opts.Date), nil
		})
}

// PayPromise marks an open promise paid. Terminal; records the payment time.
func (e Engine) PayPromise(ctx context.Context, promiseID, actor string) (domain.Promise, error) {
	paidAt := e.now().UTC().Format(time.RFC3339)
	return e.mutatePromise(ctx, promiseID, actor, "promise.paid",
		func(p *domain.Promise) (string, error) {
			if p.Status != domain.PromiseOpen {
				return "", fmt.Errorf("pay %s promise: %w", p.Status, ErrInvalidTransition)
			}
			p.Status = domain.PromisePaid
			p.PaidAt = &paidAt
			return fmt.Sprintf("Promise marked as paid (%s).", strategy.FormatMoney(p.Amount)), nil
		})
}

// CancelPromise cancels an open promise. Terminal.
func (e Engine) CancelPromise(ctx context.Context, promiseID, actor string) (domain.Promise, error) {
	return e.mutatePromise(ctx, promiseID, actor, "promise.canceled",
		func(p *domain.Promise) (string, error) {
			if p.Status != domain.PromiseOpen {
				return "", fmt.Errorf("cancel %s promise: %w", p.Status, ErrInvalidTransition)
			}
			p.Status = domain.PromiseCanceled
			return fmt.Sprintf("Promise canceled (%s).", strategy.FormatMoney(p.Amount)), nil
		})
}

// mutatePromise locates a promise by id across the portfolio, applies fn and
// persists the whole collection. fn returns the audit message.
func (e Engine) mutatePromise(ctx context.Context, promiseID, actor, evtType string, fn func(*domain.Promise) (string, error)) (domain.Promise, error) {
	accounts, err := e.Repo.LoadPortfolio(ctx)
	if err != nil {
		return domain.Promise{}, err
	}
	for ai := range accounts {
		for pi := range accounts[ai].Promises {
			p := &accounts[ai].Promises[pi]
			if p.ID != promiseID {
				continue
			}
			msg, err := fn(p)
			if err != nil {
				return domain.Promise{}, err
			}
			if p.AccountID == "" {
				p.AccountID = accounts[ai].ID
			}
			if err := e.Repo.SavePortfolio(ctx, accounts); err != nil {
				return domain.Promise{}, err
			}
			if err := e.audit(ctx, evtType, actor, fmt.Sprintf("%s (%s)", strings.TrimSuffix(msg, "."), accounts[ai].Name)); err != nil {
				return domain.Promise{}, err
			}
			return *p, nil
		}
	}
	return domain.Promise{}, fmt.Errorf("promise %s: %w", promiseID, repo.ErrNotFound)
}
