package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-bankfeed/core"
)

// InstitutionStore persists the institution catalogs the providers report.
// Rows are keyed (provider, external_id); Upsert refreshes name, logo, and
// country in place.
type InstitutionStore struct {
	db   *bun.DB
	repo repository.Repository[*institutionRecord]
}

func NewInstitutionStore(db *bun.DB) (*InstitutionStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*institutionRecord](db, institutionHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid institution repository wiring: %w", err)
		}
	}
	return &InstitutionStore{db: db, repo: repo}, nil
}

func (s *InstitutionStore) Get(ctx context.Context, provider core.ProviderID, id string) (core.Institution, error) {
	if s == nil || s.db == nil {
		return core.Institution{}, fmt.Errorf("sqlstore: institution store is not configured")
	}
	externalID := strings.TrimSpace(id)
	if externalID == "" {
		return core.Institution{}, fmt.Errorf("sqlstore: institution id is required")
	}

	record := &institutionRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.provider = ?", strings.TrimSpace(string(provider))).
		Where("?TableAlias.external_id = ?", externalID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.Institution{}, fmt.Errorf("sqlstore: institution %q not found for provider %q", externalID, provider)
		}
		return core.Institution{}, err
	}
	return record.toDomain(), nil
}

func (s *InstitutionStore) Upsert(ctx context.Context, institution core.Institution) (core.Institution, error) {
	if s == nil || s.db == nil {
		return core.Institution{}, fmt.Errorf("sqlstore: institution store is not configured")
	}
	externalID := strings.TrimSpace(institution.ID)
	providerID := strings.TrimSpace(string(institution.Provider))
	if externalID == "" || providerID == "" {
		return core.Institution{}, fmt.Errorf("sqlstore: institution id and provider are required")
	}
	now := time.Now().UTC()

	var out core.Institution
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := findInstitutionTx(ctx, tx, providerID, externalID)
		if err != nil {
			return err
		}
		if record == nil {
			record = newInstitutionRecord(institution, now)
			record.ID = uuid.NewString()
			if _, insertErr := tx.NewInsert().Model(record).Exec(ctx); insertErr != nil {
				if !isUniqueViolation(insertErr) {
					return insertErr
				}
				record, err = findInstitutionTx(ctx, tx, providerID, externalID)
				if err != nil {
					return err
				}
				if record == nil {
					return insertErr
				}
			} else {
				out = record.toDomain()
				return nil
			}
		}

		record.Name = strings.TrimSpace(institution.Name)
		record.Logo = strings.TrimSpace(institution.Logo)
		record.Country = strings.ToUpper(strings.TrimSpace(institution.Country))
		record.UpdatedAt = now
		if _, updateErr := tx.NewUpdate().
			Model(record).
			Column("name", "logo", "country", "updated_at").
			WherePK().
			Exec(ctx); updateErr != nil {
			return updateErr
		}
		out = record.toDomain()
		return nil
	})
	if err != nil {
		return core.Institution{}, err
	}
	return out, nil
}

func (s *InstitutionStore) ListByProvider(ctx context.Context, provider core.ProviderID) ([]core.Institution, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: institution store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("provider", "=", strings.TrimSpace(string(provider))),
		repository.OrderBy("name ASC"),
	)
	if err != nil {
		return nil, err
	}
	institutions := make([]core.Institution, 0, len(records))
	for _, record := range records {
		institutions = append(institutions, record.toDomain())
	}
	return institutions, nil
}

func findInstitutionTx(ctx context.Context, tx bun.Tx, providerID string, externalID string) (*institutionRecord, error) {
	record := &institutionRecord{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.provider = ?", providerID).
		Where("?TableAlias.external_id = ?", externalID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

func isUniqueViolation(err error) bool {
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}

var _ core.InstitutionStore = (*InstitutionStore)(nil)
