package lottery

import (
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Identity is the 20-byte account identifier shared with the token ledger.
type Identity = [20]byte

const (
	// DefaultFeeBps is the fraction of each pot retained by the fee vault.
	DefaultFeeBps uint32 = 500
	// DefaultCooldown is the minimum spacing between two successful draws.
	DefaultCooldown = 5 * time.Minute
	// MinCooldown is the smallest cooldown the engine accepts.
	MinCooldown = time.Second
	// MaxManagers bounds the manager set.
	MaxManagers = 2

	bpsDenominator = 10_000
)

// DefaultTicketPrice is 20 whole tokens at 18 decimals.
var DefaultTicketPrice = new(big.Int).Mul(big.NewInt(20), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// Params captures the persisted, owner-controlled configuration.
type Params struct {
	Owner       Identity
	TicketPrice *big.Int
}

// Clone returns a deep copy of the parameters.
func (p *Params) Clone() *Params {
	if p == nil {
		return nil
	}
	return &Params{Owner: p.Owner, TicketPrice: cloneBig(p.TicketPrice)}
}

// Entry records the tickets held by one participant in the current round.
type Entry struct {
	Holder  Identity
	Tickets uint64
}

// Round is the open ticket book. Entries are kept in first-purchase order,
// which is the walk order used for winner selection.
type Round struct {
	Number  uint64
	Entries []Entry
	Total   uint64
	Pot     *big.Int
}

// NewRound returns an empty round with the supplied sequence number.
func NewRound(number uint64) *Round {
	return &Round{Number: number, Entries: []Entry{}, Pot: big.NewInt(0)}
}

// Clone returns a deep copy of the round.
func (r *Round) Clone() *Round {
	if r == nil {
		return nil
	}
	entries := make([]Entry, len(r.Entries))
	copy(entries, r.Entries)
	return &Round{Number: r.Number, Entries: entries, Total: r.Total, Pot: cloneBig(r.Pot)}
}

// TicketsOf returns the count held by holder.
func (r *Round) TicketsOf(holder Identity) uint64 {
	if r == nil {
		return 0
	}
	for _, entry := range r.Entries {
		if entry.Holder == holder {
			return entry.Tickets
		}
	}
	return 0
}

func (r *Round) credit(holder Identity, tickets uint64) {
	for i := range r.Entries {
		if r.Entries[i].Holder == holder {
			r.Entries[i].Tickets += tickets
			return
		}
	}
	r.Entries = append(r.Entries, Entry{Holder: holder, Tickets: tickets})
}

// DrawResult describes a settled draw.
type DrawResult struct {
	ID      uuid.UUID
	Round   uint64
	Winner  Identity
	Tickets uint64
	Total   uint64
	Random  uint64
	Pot     *big.Int
	Prize   *big.Int
	Fee     *big.Int
	DrawnAt int64
}

// Clone returns a deep copy of the result.
func (d *DrawResult) Clone() *DrawResult {
	if d == nil {
		return nil
	}
	clone := *d
	clone.Pot = cloneBig(d.Pot)
	clone.Prize = cloneBig(d.Prize)
	clone.Fee = cloneBig(d.Fee)
	return &clone
}

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
