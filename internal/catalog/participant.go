// Copyright (c) 2026 Comiket Bot. All rights reserved.

package catalog

import (
	"time"

	"github.com/comiketbot/comiket/pkg/slice"
)

// Participant represents one Discord user known to the bot. The Discord id
// is the business key; the display name is a mutable convenience copy.
type Participant struct {
	ID          string    `json:"id"`
	DiscordID   int64     `json:"discord_id"`
	Name        string    `json:"name"`
	LastUpdated time.Time `json:"last_updated"`
}

// ParticipantWithReservations is a Participant plus their resolved
// reservation list.
//
// Like [ItemWithReservations] it is a read snapshot, not a live handle.
type ParticipantWithReservations struct {
	Participant
	Reservations []ItemReservation `json:"reservations"`
}

// HasReserved reports whether the participant currently holds a reservation
// on the given item. Linear scan; reservation lists are tens of entries at
// most.
func (p *ParticipantWithReservations) HasReserved(itemID string) bool {
	for _, r := range p.Reservations {
		if r.Item.ID == itemID {
			return true
		}
	}
	return false
}

// TotalPriceYen sums the yen prices of all reserved items.
func (p *ParticipantWithReservations) TotalPriceYen() int {
	return slice.Reduce(p.Reservations, 0, func(total int, r ItemReservation) int {
		return total + r.Item.PriceYen
	})
}
