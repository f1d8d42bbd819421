package repositories

import (
	"context"

	"github.com/miciek335/vinted-listing-tracker/internal/entities"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const sqliteBatchSize = 500

type SeenSQLite struct {
	dbCtx *DbContext
}

func NewSeenSQLite(path string) (*SeenSQLite, error) {
	dbCtx, err := NewDbContext(path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	if err := dbCtx.Migrate(); err != nil {
		_ = dbCtx.Close()
		return nil, err
	}
	return &SeenSQLite{dbCtx: dbCtx}, nil
}

func (s *SeenSQLite) db(ctx context.Context) *gorm.DB {
	return s.dbCtx.DB.WithContext(ctx)
}

func (s *SeenSQLite) Load(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db(ctx).Model(&entities.SeenRecord{}).Order("listing_id").Pluck("listing_id", &ids).Error
	return ids, err
}

// Save inserts ids that are not stored yet; the set only ever grows.
func (s *SeenSQLite) Save(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	records := lo.Map(ids, func(id string, _ int) entities.SeenRecord {
		return entities.SeenRecord{ListingID: id}
	})

	return s.db(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(records, sqliteBatchSize).Error
	})
}

func (s *SeenSQLite) Close() error {
	return s.dbCtx.Close()
}
