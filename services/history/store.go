package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"potlottery/core/events"
	"potlottery/core/types"
	"potlottery/native/lottery"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	subscriberBuffer = 256
)

// Store records settled draws and fee sweeps observed on the event bus.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open connects to the configured database and migrates the schema.
func Open(driver, dsn string, logger *slog.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite, "":
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("history: unsupported driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", driver, err)
	}
	store, err := New(db, logger)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB, logger *slog.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("history: database required")
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("history: migrate: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger.With("component", "history")}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Run consumes bus events until ctx is cancelled.
func (s *Store) Run(ctx context.Context, bus *events.Bus) {
	updates, cancel := bus.Subscribe(subscriberBuffer)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-updates:
			if !ok {
				return
			}
			if err := s.Record(ctx, evt); err != nil {
				s.logger.Error("record event failed", "type", evt.Type, "error", err)
			}
		}
	}
}

// Record persists the event when it is a draw or withdrawal. Other events are
// ignored. Replayed draws are deduplicated by id.
func (s *Store) Record(ctx context.Context, evt *types.Event) error {
	if evt == nil {
		return nil
	}
	switch evt.Type {
	case lottery.EventTypeDrawSettled:
		record, err := drawFromEvent(evt)
		if err != nil {
			return err
		}
		return s.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&record).Error
	case lottery.EventTypeFeesWithdrawn:
		record := Withdrawal{
			Owner:     evt.Attributes["owner"],
			Recipient: evt.Attributes["to"],
			Amount:    evt.Attributes["amount"],
		}
		return s.db.WithContext(ctx).Create(&record).Error
	default:
		return nil
	}
}

// ListDraws returns up to limit draws, most recent first.
func (s *Store) ListDraws(ctx context.Context, limit int) ([]Draw, error) {
	var records []DrawRecord
	if err := s.db.WithContext(ctx).Order("round desc").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]Draw, 0, len(records))
	for _, record := range records {
		out = append(out, record.view())
	}
	return out, nil
}

// ListWithdrawals returns up to limit fee sweeps, most recent first.
func (s *Store) ListWithdrawals(ctx context.Context, limit int) ([]Withdrawal, error) {
	var records []Withdrawal
	err := s.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&records).Error
	return records, err
}

func drawFromEvent(evt *types.Event) (DrawRecord, error) {
	attrs := evt.Attributes
	id, err := uuid.Parse(attrs["id"])
	if err != nil {
		return DrawRecord{}, fmt.Errorf("history: draw id: %w", err)
	}
	var nums [4]uint64
	for i, key := range []string{"round", "tickets", "total", "random"} {
		nums[i], err = strconv.ParseUint(attrs[key], 10, 64)
		if err != nil {
			return DrawRecord{}, fmt.Errorf("history: draw %s: %w", key, err)
		}
	}
	drawnAt, err := strconv.ParseInt(attrs["drawnAt"], 10, 64)
	if err != nil {
		return DrawRecord{}, fmt.Errorf("history: draw time: %w", err)
	}
	return DrawRecord{
		ID:           id,
		Round:        nums[0],
		Winner:       attrs["winner"],
		Tickets:      nums[1],
		TotalTickets: nums[2],
		Random:       nums[3],
		Pot:          attrs["pot"],
		Prize:        attrs["prize"],
		Fee:          attrs["fee"],
		DrawnAt:      time.Unix(drawnAt, 0).UTC(),
	}, nil
}
