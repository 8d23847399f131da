package model

import "time"

type Host struct {
	ID             int64                  `json:"-"`
	Address        string                 `json:"address"`
	Author         string                 `json:"author"`
	Name           string                 `json:"name"`
	Email          string                 `json:"email"`
	Image          string                 `json:"image"`
	HashedPassword string                 `json:"-"`
	ListingCount   int64                  `json:"listing_count"`
	CreatedAt      time.Time              `json:"created_at"`
	MetaData       map[string]interface{} `json:"meta_data,omitempty"`
}

type Guest struct {
	ID               int64                  `json:"-"`
	Address          string                 `json:"address"`
	Author           string                 `json:"author"`
	Name             string                 `json:"name"`
	Email            string                 `json:"email"`
	Image            string                 `json:"image"`
	HashedPassword   string                 `json:"-"`
	PhoneNumber      string                 `json:"phone_number"`
	ReservationCount int64                  `json:"reservation_count"`
	CreatedAt        time.Time              `json:"created_at"`
	MetaData         map[string]interface{} `json:"meta_data,omitempty"`
}

type Listing struct {
	ID            int64                  `json:"-"`
	ListingID     int64                  `json:"listing_id"`
	Address       string                 `json:"address"`
	HostID        string                 `json:"host_id"`
	Title         string                 `json:"title"`
	Description   string                 `json:"description"`
	ImageURL      string                 `json:"image_url"`
	Category      string                 `json:"category"`
	RoomCount     int                    `json:"room_count"`
	BathroomCount int                    `json:"bathroom_count"`
	GuestCapacity int                    `json:"guest_capacity"`
	CountryCode   string                 `json:"country_code"`
	TotalBookings int64                  `json:"total_bookings"`
	IsActive      bool                   `json:"is_active"`
	PricePerNight int64                  `json:"price_per_night"`
	CreatedAt     time.Time              `json:"created_at"`
	MetaData      map[string]interface{} `json:"meta_data,omitempty"`
}
