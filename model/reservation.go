package model

import (
	"encoding/json"
)

// Reservation status values.
const (
	ReservationPending   = "PENDING"
	ReservationConfirmed = "CONFIRMED"
	ReservationCancelled = "CANCELLED"
	ReservationCompleted = "COMPLETED"
)

// Payment status values on a reservation, tracked separately from the
// reservation status itself.
const (
	PaymentPending  = "PENDING"
	PaymentPaid     = "PAID"
	PaymentRefunded = "REFUNDED"
	PaymentFailed   = "FAILED"
)

// Reservation is a read-only input to the escrow subsystem. It is created once
// by the guest and never mutated by an escrow operation.
type Reservation struct {
	ID            int64                  `json:"-"`
	ReservationID int64                  `json:"reservation_id"`
	Address       string                 `json:"address"`
	GuestID       string                 `json:"guest_id"`
	HostID        string                 `json:"host_id"`
	ListingID     string                 `json:"listing_id"`
	StartDate     int64                  `json:"start_date"`
	EndDate       int64                  `json:"end_date"`
	GuestCount    int                    `json:"guest_count"`
	TotalNights   int                    `json:"total_nights"`
	PricePerNight int64                  `json:"price_per_night"`
	TotalPrice    int64                  `json:"total_price"`
	Status        string                 `json:"status"`
	PaymentStatus string                 `json:"payment_status"`
	CreatedAt     int64                  `json:"created_at"`
	MetaData      map[string]interface{} `json:"meta_data,omitempty"`
}

func (reservation *Reservation) ToJSON() ([]byte, error) {
	return json.Marshal(reservation)
}
