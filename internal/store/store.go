package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"station-billing-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	// Station registry. Stations are never deleted.
	ListStations(ctx context.Context) ([]model.Station, error)
	CreateStation(ctx context.Context, name string) (model.Station, error)
	RenameStation(ctx context.Context, id int64, name string) error
	SeedStations(ctx context.Context, count int) ([]model.Station, error)

	// Per-station engine snapshots, last-writer-wins.
	LoadSessionState(ctx context.Context, stationID int64) (*model.SessionState, error)
	SaveSessionState(ctx context.Context, state *model.SessionState) error

	// Ledger of completed sessions.
	AppendRecord(ctx context.Context, rec *model.SessionRecord) error
	ListRecords(ctx context.Context) ([]model.SessionRecord, error)
	DeleteRecord(ctx context.Context, id int64) error
	ResetLedger(ctx context.Context) error
	TotalRevenue(ctx context.Context) (float64, error)
}

// ErrStationNotFound is returned when an operation names an unknown station.
var ErrStationNotFound = errors.New("station not found")

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying connection for handlers that query directly.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// ListStations returns every station in creation order.
func (s *gormStore) ListStations(ctx context.Context) ([]model.Station, error) {
	var stations []model.Station
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&stations).Error; err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}
	return stations, nil
}

// CreateStation appends a new station. An empty name gets an auto-generated
// "Station N" display name; identifiers come from the sequence and are never
// reused even after renames.
func (s *gormStore) CreateStation(ctx context.Context, name string) (model.Station, error) {
	var station model.Station
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if name == "" {
			var count int64
			if err := tx.Model(&model.Station{}).Count(&count).Error; err != nil {
				return err
			}
			name = fmt.Sprintf("Station %d", count+1)
		}
		station = model.Station{Name: name}
		return tx.Create(&station).Error
	})
	if err != nil {
		return model.Station{}, fmt.Errorf("failed to create station: %w", err)
	}
	return station, nil
}

// RenameStation replaces a station's display name.
func (s *gormStore) RenameStation(ctx context.Context, id int64, name string) error {
	res := s.db.WithContext(ctx).Model(&model.Station{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return fmt.Errorf("failed to rename station %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStationNotFound
	}
	return nil
}

// SeedStations creates the initial fleet when the registry is empty. It is a
// no-op when any station already exists.
func (s *gormStore) SeedStations(ctx context.Context, count int) ([]model.Station, error) {
	var created []model.Station
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&model.Station{}).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}
		for i := 1; i <= count; i++ {
			station := model.Station{Name: fmt.Sprintf("Station %d", i)}
			if err := tx.Create(&station).Error; err != nil {
				return err
			}
			created = append(created, station)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seed stations: %w", err)
	}
	return created, nil
}

// LoadSessionState returns the persisted snapshot for a station, or nil when
// none has been written yet.
func (s *gormStore) LoadSessionState(ctx context.Context, stationID int64) (*model.SessionState, error) {
	var state model.SessionState
	err := s.db.WithContext(ctx).First(&state, "station_id = ?", stationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session state for station %d: %w", stationID, err)
	}
	return &state, nil
}

// SaveSessionState writes the full snapshot for a station. A later snapshot
// fully supersedes an earlier one for the same station.
func (s *gormStore) SaveSessionState(ctx context.Context, state *model.SessionState) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "station_id"}},
		UpdateAll: true,
	}).Create(state).Error
	if err != nil {
		return fmt.Errorf("failed to save session state for station %d: %w", state.StationID, err)
	}
	return nil
}

// AppendRecord adds a completed session to the ledger.
func (s *gormStore) AppendRecord(ctx context.Context, rec *model.SessionRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to append session record for station %d: %w", rec.StationID, err)
	}
	return nil
}

// ListRecords returns the ledger newest first.
func (s *gormStore) ListRecords(ctx context.Context) ([]model.SessionRecord, error) {
	var records []model.SessionRecord
	if err := s.db.WithContext(ctx).Order("ended_at DESC, id DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list session records: %w", err)
	}
	return records, nil
}

// DeleteRecord removes one ledger record. Deleting an id that is not present
// is a no-op, so repeated deletes are safe.
func (s *gormStore) DeleteRecord(ctx context.Context, id int64) error {
	if err := s.db.WithContext(ctx).Delete(&model.SessionRecord{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete session record %d: %w", id, err)
	}
	return nil
}

// ResetLedger clears every record.
func (s *gormStore) ResetLedger(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&model.SessionRecord{}).Error; err != nil {
		return fmt.Errorf("failed to reset ledger: %w", err)
	}
	return nil
}

// TotalRevenue folds the cost column over the current records. It is computed
// on demand rather than maintained as a counter, so deletions are reflected
// immediately.
func (s *gormStore) TotalRevenue(ctx context.Context) (float64, error) {
	var total float64
	err := s.db.WithContext(ctx).
		Model(&model.SessionRecord{}).
		Select("COALESCE(SUM(total_cost), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute total revenue: %w", err)
	}
	return total, nil
}
