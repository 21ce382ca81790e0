package history

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DrawRecord persists one settled draw.
type DrawRecord struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Round        uint64    `gorm:"index"`
	Winner       string    `gorm:"index;size:64"`
	Tickets      uint64
	TotalTickets uint64
	Random       uint64
	Pot          string `gorm:"size:80"`
	Prize        string `gorm:"size:80"`
	Fee          string `gorm:"size:80"`
	DrawnAt      time.Time `gorm:"index"`
	CreatedAt    time.Time
}

// Withdrawal persists one fee sweep.
type Withdrawal struct {
	ID        uint   `gorm:"primaryKey"`
	Owner     string `gorm:"size:64"`
	Recipient string `gorm:"index;size:64"`
	Amount    string `gorm:"size:80"`
	CreatedAt time.Time
}

// Draw is the public view of a settled draw.
type Draw struct {
	ID           string    `json:"id"`
	Round        uint64    `json:"round"`
	Winner       string    `json:"winner"`
	Tickets      uint64    `json:"tickets"`
	TotalTickets uint64    `json:"totalTickets"`
	Pot          string    `json:"pot"`
	Prize        string    `json:"prize"`
	Fee          string    `json:"fee"`
	DrawnAt      time.Time `json:"drawnAt"`
}

func (r DrawRecord) view() Draw {
	return Draw{
		ID:           r.ID.String(),
		Round:        r.Round,
		Winner:       r.Winner,
		Tickets:      r.Tickets,
		TotalTickets: r.TotalTickets,
		Pot:          r.Pot,
		Prize:        r.Prize,
		Fee:          r.Fee,
		DrawnAt:      r.DrawnAt.UTC(),
	}
}

// AutoMigrate performs all schema migrations for the history store.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&DrawRecord{}, &Withdrawal{})
}
