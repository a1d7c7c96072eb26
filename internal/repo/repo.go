// Package repo persists SmartCollect state as domain-keyed documents plus a
// capped audit-event table. Documents are replaced wholesale on every write
// (last writer wins), preserving the single-session read-modify-write
// contract the system is built around.
package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"smartcollect/internal/config"
	"smartcollect/internal/domain"
	"smartcollect/internal/importer"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// Logical document domains.
const (
	DomainPortfolio     = "portfolio"
	DomainSettings      = "settings"
	DomainImportMapping = "import_mapping"
)

// AuditCap bounds the audit log; the oldest entries are dropped first.
const AuditCap = 600

func (r Repo) loadDocument(ctx context.Context, dom string, out any) error {
	var payload string
	err := r.DB.QueryRowContext(ctx, `SELECT payload_json FROM documents WHERE domain=?`, dom).Scan(&payload)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("decode %s document: %w", dom, err)
	}
	return nil
}

func (r Repo) saveDocument(ctx context.Context, dom string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s document: %w", dom, err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = r.DB.ExecContext(ctx, `INSERT INTO documents(domain,payload_json,updated_at) VALUES (?,?,?)
ON CONFLICT(domain) DO UPDATE SET payload_json=excluded.payload_json, updated_at=excluded.updated_at`, dom, string(payload), now)
	return err
}

func (r Repo) deleteDocument(ctx context.Context, dom string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE domain=?`, dom)
	return err
}

// LoadPortfolio reads the whole account collection. ErrNotFound means no
// portfolio has been stored yet.
func (r Repo) LoadPortfolio(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	if err := r.loadDocument(ctx, DomainPortfolio, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// SavePortfolio replaces the whole account collection.
func (r Repo) SavePortfolio(ctx context.Context, accounts []domain.Account) error {
	if accounts == nil {
		accounts = []domain.Account{}
	}
	return r.saveDocument(ctx, DomainPortfolio, accounts)
}

// ClearPortfolio removes the stored portfolio.
func (r Repo) ClearPortfolio(ctx context.Context) error {
	return r.deleteDocument(ctx, DomainPortfolio)
}

// UpdateAccount applies fn to one account under the load-save cycle. The
// entire collection is rewritten, matching the store's replace semantics.
func (r Repo) UpdateAccount(ctx context.Context, id string, fn func(*domain.Account) error) (domain.Account, error) {
	accounts, err := r.LoadPortfolio(ctx)
	if err != nil {
		return domain.Account{}, err
	}
	idx := -1
	for i := range accounts {
		if accounts[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.Account{}, fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	if err := fn(&accounts[idx]); err != nil {
		return domain.Account{}, err
	}
	if err := r.SavePortfolio(ctx, accounts); err != nil {
		return domain.Account{}, err
	}
	return accounts[idx], nil
}

// LoadSettings returns the stored settings merged over defaults; a missing
// document yields the defaults.
func (r Repo) LoadSettings(ctx context.Context) (*config.Settings, error) {
	var saved config.Settings
	err := r.loadDocument(ctx, DomainSettings, &saved)
	if errors.Is(err, ErrNotFound) {
		return config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return config.Merge(&saved), nil
}

// SaveSettings replaces the settings document.
func (r Repo) SaveSettings(ctx context.Context, s *config.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return r.saveDocument(ctx, DomainSettings, s)
}

// LoadMapping returns the saved default import mapping, if any.
func (r Repo) LoadMapping(ctx context.Context) (importer.Mapping, error) {
	var m importer.Mapping
	if err := r.loadDocument(ctx, DomainImportMapping, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// SaveMapping stores the import mapping as the default for the next import.
func (r Repo) SaveMapping(ctx context.Context, m importer.Mapping) error {
	return r.saveDocument(ctx, DomainImportMapping, m)
}

// ClearMapping drops the saved import mapping.
func (r Repo) ClearMapping(ctx context.Context) error {
	return r.deleteDocument(ctx, DomainImportMapping)
}

// AppendAudit inserts an event and trims the log to AuditCap, oldest first.
func (r Repo) AppendAudit(ctx context.Context, ev domain.AuditEvent) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT INTO audit_events(id,ts,type,actor,message) VALUES (?,?,?,?,?)`,
		ev.ID, ev.TS, ev.Type, ev.Actor, ev.Message); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM audit_events WHERE seq NOT IN (
SELECT seq FROM audit_events ORDER BY seq DESC LIMIT ?)`, AuditCap); err != nil {
		return err
	}
	return tx.Commit()
}

// ListAudit returns up to limit events, newest first. limit <= 0 returns the
// whole retained log.
func (r Repo) ListAudit(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	if limit <= 0 || limit > AuditCap {
		limit = AuditCap
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT id,ts,type,actor,message FROM audit_events ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.AuditEvent
	for rows.Next() {
		var ev domain.AuditEvent
		if err := rows.Scan(&ev.ID, &ev.TS, &ev.Type, &ev.Actor, &ev.Message); err != nil {
			return nil, err
		}
		res = append(res, ev)
	}
	return res, rows.Err()
}

// ClearAudit wipes the audit log.
func (r Repo) ClearAudit(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM audit_events`)
	return err
}
