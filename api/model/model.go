/*
Copyright 2024 Perch Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package model

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"

	"github.com/perchstay/perch/model"
)

// CreateHost is the request body for registering a host.
type CreateHost struct {
	Author   string                 `json:"author"`
	Name     string                 `json:"name"`
	Email    string                 `json:"email"`
	Image    string                 `json:"image"`
	Password string                 `json:"password"`
	MetaData map[string]interface{} `json:"meta_data"`
}

// CreateGuest is the request body for registering a guest.
type CreateGuest struct {
	Author      string                 `json:"author"`
	Name        string                 `json:"name"`
	Email       string                 `json:"email"`
	Image       string                 `json:"image"`
	Password    string                 `json:"password"`
	PhoneNumber string                 `json:"phone_number"`
	MetaData    map[string]interface{} `json:"meta_data"`
}

// CreateListing is the request body for publishing a listing. PricePerNight is
// a decimal in major units; Precision converts it to the integer minor units
// stored on the listing (e.g. 100 for a two-decimal currency).
type CreateListing struct {
	HostID        string                 `json:"host_id"`
	Title         string                 `json:"title"`
	Description   string                 `json:"description"`
	Image         string                 `json:"image"`
	Category      string                 `json:"category"`
	RoomCount     int                    `json:"room_count"`
	BathroomCount int                    `json:"bathroom_count"`
	GuestCapacity int                    `json:"guest_capacity"`
	CountryCode   string                 `json:"country_code"`
	PricePerNight decimal.Decimal        `json:"price_per_night"`
	Precision     int64                  `json:"precision"`
	MetaData      map[string]interface{} `json:"meta_data"`
}

// CreateReservation is the request body for booking a stay.
type CreateReservation struct {
	ReservationID int64                  `json:"reservation_id"`
	GuestID       string                 `json:"guest_id"`
	ListingID     string                 `json:"listing_id"`
	StartDate     int64                  `json:"start_date"`
	EndDate       int64                  `json:"end_date"`
	GuestCount    int                    `json:"guest_count"`
	MetaData      map[string]interface{} `json:"meta_data"`
}

// FundEscrow is the request body for funding a payment escrow. Amount is a
// decimal in major units converted with Precision, same as listing prices.
type FundEscrow struct {
	ReservationID  string                 `json:"reservation_id"`
	EscrowID       int64                  `json:"escrow_id"`
	Amount         decimal.Decimal        `json:"amount"`
	Precision      int64                  `json:"precision"`
	ReleaseDate    int64                  `json:"release_date"`
	GuestAuthority string                 `json:"guest_authority"`
	MetaData       map[string]interface{} `json:"meta_data"`
}

// ReleaseEscrow is the request body for releasing a funded escrow to the host.
type ReleaseEscrow struct {
	Authority string `json:"authority"`
}

// MarkReservationPaid is the request body for confirming a reservation's
// payment.
type MarkReservationPaid struct {
	Authority string `json:"authority"`
}

// CreateBalance is the request body for provisioning a balance directly.
type CreateBalance struct {
	Indicator string                 `json:"indicator"`
	Currency  string                 `json:"currency"`
	MetaData  map[string]interface{} `json:"meta_data"`
}

func (h *CreateHost) ValidateCreateHost() error {
	return validation.ValidateStruct(h,
		validation.Field(&h.Author, validation.Required),
		validation.Field(&h.Email, validation.When(h.Email != "", is.EmailFormat)),
	)
}

func (g *CreateGuest) ValidateCreateGuest() error {
	return validation.ValidateStruct(g,
		validation.Field(&g.Author, validation.Required),
		validation.Field(&g.Email, validation.When(g.Email != "", is.EmailFormat)),
	)
}

func (l *CreateListing) ValidateCreateListing() error {
	return validation.ValidateStruct(l,
		validation.Field(&l.HostID, validation.Required),
		validation.Field(&l.Title, validation.Required),
		validation.Field(&l.GuestCapacity, validation.Min(1)),
		validation.Field(&l.PricePerNight, validation.Required, validation.By(positiveDecimal)),
	)
}

func (r *CreateReservation) ValidateCreateReservation() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ReservationID, validation.Required),
		validation.Field(&r.GuestID, validation.Required),
		validation.Field(&r.ListingID, validation.Required),
		validation.Field(&r.StartDate, validation.Required),
		validation.Field(&r.EndDate, validation.Required),
		validation.Field(&r.GuestCount, validation.Min(1)),
	)
}

func (f *FundEscrow) ValidateFundEscrow() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.ReservationID, validation.Required),
		validation.Field(&f.EscrowID, validation.Required),
		validation.Field(&f.Amount, validation.Required, validation.By(positiveDecimal)),
		validation.Field(&f.GuestAuthority, validation.Required),
	)
}

func (r *ReleaseEscrow) ValidateReleaseEscrow() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Authority, validation.Required),
	)
}

func (m *MarkReservationPaid) ValidateMarkReservationPaid() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.Authority, validation.Required),
	)
}

func (b *CreateBalance) ValidateCreateBalance() error {
	return validation.ValidateStruct(b,
		validation.Field(&b.Indicator, validation.Required),
		validation.Field(&b.Currency, validation.Required),
	)
}

func positiveDecimal(value interface{}) error {
	d, ok := value.(decimal.Decimal)
	if !ok {
		return errors.New("invalid decimal value")
	}
	if !d.IsPositive() {
		return errors.New("must be a positive decimal")
	}
	return nil
}

// toMinorUnits converts a major-unit decimal to integer minor units. A zero
// precision means the amount is already in minor units.
func toMinorUnits(amount decimal.Decimal, precision int64) int64 {
	if precision <= 1 {
		return amount.IntPart()
	}
	return amount.Mul(decimal.NewFromInt(precision)).IntPart()
}

func (h *CreateHost) ToHost() model.Host {
	return model.Host{Author: h.Author, Name: h.Name, Email: h.Email, Image: h.Image, MetaData: h.MetaData}
}

func (g *CreateGuest) ToGuest() model.Guest {
	return model.Guest{Author: g.Author, Name: g.Name, Email: g.Email, Image: g.Image, PhoneNumber: g.PhoneNumber, MetaData: g.MetaData}
}

func (l *CreateListing) ToListing() model.Listing {
	return model.Listing{
		HostID:        l.HostID,
		Title:         l.Title,
		Description:   l.Description,
		ImageURL:      l.Image,
		Category:      l.Category,
		RoomCount:     l.RoomCount,
		BathroomCount: l.BathroomCount,
		GuestCapacity: l.GuestCapacity,
		CountryCode:   l.CountryCode,
		PricePerNight: toMinorUnits(l.PricePerNight, l.Precision),
		MetaData:      l.MetaData,
	}
}

func (b *CreateBalance) ToBalance() model.Balance {
	return model.Balance{Indicator: b.Indicator, Currency: b.Currency, MetaData: b.MetaData}
}
