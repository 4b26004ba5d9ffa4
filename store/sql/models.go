package sqlstore

import (
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-bankfeed/core"
)

type institutionRecord struct {
	bun.BaseModel `bun:"table:bankfeed_institutions,alias:bi"`

	ID         string    `bun:"id,pk"`
	Provider   string    `bun:"provider,notnull"`
	ExternalID string    `bun:"external_id,notnull"`
	Name       string    `bun:"name,notnull"`
	Logo       string    `bun:"logo"`
	Country    string    `bun:"country"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func newInstitutionRecord(in core.Institution, now time.Time) *institutionRecord {
	return &institutionRecord{
		Provider:   strings.TrimSpace(string(in.Provider)),
		ExternalID: strings.TrimSpace(in.ID),
		Name:       strings.TrimSpace(in.Name),
		Logo:       strings.TrimSpace(in.Logo),
		Country:    strings.ToUpper(strings.TrimSpace(in.Country)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (r *institutionRecord) toDomain() core.Institution {
	if r == nil {
		return core.Institution{}
	}
	return core.Institution{
		ID:       strings.TrimSpace(r.ExternalID),
		Name:     strings.TrimSpace(r.Name),
		Logo:     strings.TrimSpace(r.Logo),
		Country:  strings.TrimSpace(r.Country),
		Provider: core.ProviderID(strings.TrimSpace(r.Provider)),
	}
}
