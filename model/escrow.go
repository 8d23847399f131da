package model

import (
	"encoding/json"
)

// Escrow status values. The only valid transition is Funded -> Released; a
// released escrow can never be re-funded or re-released.
const (
	StatusFunded   = "FUNDED"
	StatusReleased = "RELEASED"
)

type Escrow struct {
	ID            int64                  `json:"-"`
	EscrowID      int64                  `json:"escrow_id"`
	Address       string                 `json:"address"`
	ReservationID string                 `json:"reservation_id"`
	GuestID       string                 `json:"guest_id"`
	HostID        string                 `json:"host_id"`
	Amount        int64                  `json:"amount"`
	PlatformFee   int64                  `json:"platform_fee"`
	Status        string                 `json:"status"`
	CreatedAt     int64                  `json:"created_at"`
	ReleaseDate   int64                  `json:"release_date"`
	MetaData      map[string]interface{} `json:"meta_data,omitempty"`
}

// HostAmount is the net owed to the host at release: the gross deposit minus
// the platform fee recorded at creation. The fee is never recomputed.
func (escrow *Escrow) HostAmount() int64 {
	return escrow.Amount - escrow.PlatformFee
}

func (escrow *Escrow) ToJSON() ([]byte, error) {
	return json.Marshal(escrow)
}
