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

package perch

import (
	"context"
	"fmt"
	"time"

	"github.com/perchstay/perch/config"
	"github.com/perchstay/perch/internal/apierror"
	"github.com/perchstay/perch/internal/notification"
	"github.com/perchstay/perch/internal/search"
	"github.com/perchstay/perch/model"
)

const secondsPerNight = 86400

// ReservationRequest carries the inputs for booking a stay.
type ReservationRequest struct {
	ReservationID int64
	GuestID       string
	ListingID     string
	StartDate     int64
	EndDate       int64
	GuestCount    int
	MetaData      map[string]interface{}
}

// CreateReservation books a listing for a guest. The total price is the
// listing's nightly price times the number of nights; the reservation starts
// out pending with payment pending until the platform marks it paid.
func (p *Perch) CreateReservation(ctx context.Context, req ReservationRequest) (model.Reservation, error) {
	ctx, span := tracer.Start(ctx, "Creating reservation")
	defer span.End()

	if req.EndDate <= req.StartDate {
		return model.Reservation{}, apierror.NewAPIError(apierror.ErrInvalidInput, "Reservation end date must be after start date", nil)
	}
	if req.GuestCount <= 0 {
		return model.Reservation{}, apierror.NewAPIError(apierror.ErrInvalidInput, "Guest count must be positive", nil)
	}

	guest, err := p.datasource.GetGuest(ctx, req.GuestID)
	if err != nil {
		return model.Reservation{}, err
	}
	listing, err := p.datasource.GetListing(ctx, req.ListingID)
	if err != nil {
		return model.Reservation{}, err
	}
	if !listing.IsActive {
		return model.Reservation{}, apierror.NewAPIError(apierror.ErrInvalidState, "Listing is not active", nil)
	}
	if req.GuestCount > listing.GuestCapacity {
		return model.Reservation{}, apierror.NewAPIError(apierror.ErrInvalidInput, "Guest count exceeds listing capacity", nil)
	}

	totalNights := int((req.EndDate - req.StartDate) / secondsPerNight)
	if totalNights < 1 {
		totalNights = 1
	}

	reservation := model.Reservation{
		ReservationID: req.ReservationID,
		Address:       model.ReservationAddress(guest.Address, req.ReservationID),
		GuestID:       guest.Address,
		HostID:        listing.HostID,
		ListingID:     listing.Address,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		GuestCount:    req.GuestCount,
		TotalNights:   totalNights,
		PricePerNight: listing.PricePerNight,
		TotalPrice:    listing.PricePerNight * int64(totalNights),
		Status:        model.ReservationPending,
		PaymentStatus: model.PaymentPending,
		CreatedAt:     time.Now().Unix(),
		MetaData:      req.MetaData,
	}

	created, err := p.datasource.CreateReservation(ctx, reservation)
	if err != nil {
		return model.Reservation{}, err
	}

	go func() {
		if err := p.queue.queueIndexData(created.Address, search.CollectionReservations, created); err != nil {
			notification.NotifyError(err)
		}
		if err := SendWebhook(NewWebhook{Event: EventReservationCreated, Payload: created}); err != nil {
			notification.NotifyError(err)
		}
	}()

	return created, nil
}

// MarkReservationPaid confirms a reservation and records its payment as
// settled. Only the platform authority may call it; the escrow path never
// touches reservation state, so confirming a paid booking is an explicit
// back-office step. Cancelled and completed reservations are left alone.
func (p *Perch) MarkReservationPaid(ctx context.Context, address, authority string) (*model.Reservation, error) {
	ctx, span := tracer.Start(ctx, "Marking reservation paid")
	defer span.End()

	conf, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	if authority != conf.Platform.Authority {
		return nil, apierror.NewAPIError(apierror.ErrUnauthorized, "Only the platform authority can mark a reservation paid", nil)
	}

	reservation, err := p.datasource.GetReservation(ctx, address)
	if err != nil {
		return nil, err
	}
	if reservation.Status != model.ReservationPending && reservation.Status != model.ReservationConfirmed {
		return nil, apierror.NewAPIError(apierror.ErrInvalidState, fmt.Sprintf("Reservation is %s and cannot be marked paid", reservation.Status), nil)
	}
	if reservation.PaymentStatus == model.PaymentPaid {
		return reservation, nil
	}

	if err := p.datasource.UpdateReservationPayment(ctx, reservation.Address, model.ReservationConfirmed, model.PaymentPaid); err != nil {
		return nil, logAndRecordError(span, "error marking reservation paid: ", err)
	}
	reservation.Status = model.ReservationConfirmed
	reservation.PaymentStatus = model.PaymentPaid

	go func() {
		if err := p.queue.queueIndexData(reservation.Address, search.CollectionReservations, reservation); err != nil {
			notification.NotifyError(err)
		}
		if err := SendWebhook(NewWebhook{Event: EventReservationPaid, Payload: reservation}); err != nil {
			notification.NotifyError(err)
		}
	}()

	return reservation, nil
}

// GetReservation retrieves a reservation by its derived address.
func (p *Perch) GetReservation(ctx context.Context, address string) (*model.Reservation, error) {
	return p.datasource.GetReservation(ctx, address)
}

// GetReservationsByGuest lists a guest's reservations.
func (p *Perch) GetReservationsByGuest(ctx context.Context, guestAddress string) ([]*model.Reservation, error) {
	return p.datasource.GetReservationsByGuest(ctx, guestAddress)
}
