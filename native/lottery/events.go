package lottery

import (
	"math/big"
	"strconv"

	"potlottery/core/events"
	"potlottery/core/types"
	"potlottery/crypto"
)

const (
	// EventTypeTicketsPurchased is emitted after a successful ticket purchase.
	EventTypeTicketsPurchased = "lottery.tickets.purchased"
	// EventTypeDrawSettled is emitted once a winner has been paid.
	EventTypeDrawSettled = "lottery.draw.settled"
	// EventTypeFeesWithdrawn is emitted when the owner sweeps the fee vault.
	EventTypeFeesWithdrawn = "lottery.fees.withdrawn"
	// EventTypeManagerAdded is emitted when the owner appoints a manager.
	EventTypeManagerAdded = "lottery.manager.added"
	// EventTypeManagerRemoved is emitted when the owner revokes a manager.
	EventTypeManagerRemoved = "lottery.manager.removed"
	// EventTypePriceUpdated is emitted when the ticket price changes.
	EventTypePriceUpdated = "lottery.price.updated"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func formatIdentity(id Identity) string {
	return crypto.AddressFromArray(id).String()
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }

// TicketsPurchasedEvent describes a purchase of count tickets for cost.
func TicketsPurchasedEvent(round uint64, buyer Identity, count, held, total uint64, cost *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeTicketsPurchased,
		Attributes: map[string]string{
			"round": formatUint(round),
			"buyer": formatIdentity(buyer),
			"count": formatUint(count),
			"held":  formatUint(held),
			"total": formatUint(total),
			"cost":  formatAmount(cost),
		},
	}
}

// DrawSettledEvent renders a settled draw.
func DrawSettledEvent(result *DrawResult) *types.Event {
	if result == nil {
		return nil
	}
	return &types.Event{
		Type: EventTypeDrawSettled,
		Attributes: map[string]string{
			"id":      result.ID.String(),
			"round":   formatUint(result.Round),
			"winner":  formatIdentity(result.Winner),
			"tickets": formatUint(result.Tickets),
			"total":   formatUint(result.Total),
			"random":  formatUint(result.Random),
			"pot":     formatAmount(result.Pot),
			"prize":   formatAmount(result.Prize),
			"fee":     formatAmount(result.Fee),
			"drawnAt": strconv.FormatInt(result.DrawnAt, 10),
		},
	}
}

// FeesWithdrawnEvent describes a fee sweep to recipient.
func FeesWithdrawnEvent(owner, recipient Identity, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeFeesWithdrawn,
		Attributes: map[string]string{
			"owner":  formatIdentity(owner),
			"to":     formatIdentity(recipient),
			"amount": formatAmount(amount),
		},
	}
}

// ManagerChangedEvent describes a manager appointment or revocation.
func ManagerChangedEvent(eventType string, manager Identity, size int) *types.Event {
	return &types.Event{
		Type: eventType,
		Attributes: map[string]string{
			"manager": formatIdentity(manager),
			"size":    strconv.Itoa(size),
		},
	}
}

// PriceUpdatedEvent describes a ticket price change.
func PriceUpdatedEvent(previous, next *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypePriceUpdated,
		Attributes: map[string]string{
			"previous": formatAmount(previous),
			"price":    formatAmount(next),
		},
	}
}
