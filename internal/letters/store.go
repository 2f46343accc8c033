package letters

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type letterSetRow struct {
	Letters  string `gorm:"primaryKey;size:7"`
	Pangrams string `gorm:"not null;default:''"`
}

func (letterSetRow) TableName() string { return "letter_sets" }

// Store keeps the letter corpus in Postgres.
type Store struct {
	db *gorm.DB
}

func OpenStore(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open letter store: %w", err)
	}
	return NewStore(db), nil
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&letterSetRow{})
}

// Seed inserts sets that are not stored yet.
func (s *Store) Seed(ctx context.Context, sets []Set) error {
	if len(sets) == 0 {
		return nil
	}
	rows := make([]letterSetRow, 0, len(sets))
	for _, set := range sets {
		if err := set.Validate(); err != nil {
			return err
		}
		rows = append(rows, letterSetRow{
			Letters:  set.String(),
			Pangrams: strings.Join(set.Pangrams, "|"),
		})
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

// Load returns every valid stored set and the number of rows skipped as
// malformed.
func (s *Store) Load(ctx context.Context) ([]Set, int, error) {
	var rows []letterSetRow
	if err := s.db.WithContext(ctx).Order("letters").Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("load letter sets: %w", err)
	}

	sets := make([]Set, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		set, err := Parse(row.Letters, row.Pangrams)
		if err != nil {
			skipped++
			continue
		}
		sets = append(sets, set)
	}
	return sets, skipped, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
