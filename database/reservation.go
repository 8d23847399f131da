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

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"

	"github.com/perchstay/perch/internal/apierror"
	"github.com/perchstay/perch/model"
)

const reservationColumns = `reservation_id, address, guest_id, host_id, listing_id, start_date, end_date, guest_count, total_nights, price_per_night, total_price, status, payment_status, created_at, meta_data`

// CreateReservation inserts a new reservation and bumps the listing's booking
// counter in the same transaction.
func (d Datasource) CreateReservation(ctx context.Context, rsv model.Reservation) (model.Reservation, error) {
	ctx, span := otel.Tracer("reservation.database").Start(ctx, "Saving reservation to db")
	defer span.End()

	metaDataJSON, err := json.Marshal(rsv.MetaData)
	if err != nil {
		return model.Reservation{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return model.Reservation{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reservations (reservation_id, address, guest_id, host_id, listing_id, start_date, end_date, guest_count, total_nights, price_per_night, total_price, status, payment_status, created_at, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, rsv.ReservationID, rsv.Address, rsv.GuestID, rsv.HostID, rsv.ListingID, rsv.StartDate, rsv.EndDate,
		rsv.GuestCount, rsv.TotalNights, rsv.PricePerNight, rsv.TotalPrice, rsv.Status, rsv.PaymentStatus, rsv.CreatedAt, metaDataJSON)
	if err != nil {
		pqErr, ok := err.(*pq.Error)
		if ok {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return model.Reservation{}, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Reservation with address '%s' already exists", rsv.Address), err)
			case "foreign_key_violation":
				return model.Reservation{}, apierror.NewAPIError(apierror.ErrBadRequest, "Invalid guest, host or listing ID", err)
			default:
				return model.Reservation{}, apierror.NewAPIError(apierror.ErrInternalServer, "Database error occurred", err)
			}
		}
		return model.Reservation{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create reservation", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE listings SET total_bookings = total_bookings + 1 WHERE address = $1
	`, rsv.ListingID)
	if err != nil {
		return model.Reservation{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update listing bookings", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE guests SET reservation_count = reservation_count + 1 WHERE address = $1
	`, rsv.GuestID)
	if err != nil {
		return model.Reservation{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update guest reservations", err)
	}

	if err := tx.Commit(); err != nil {
		return model.Reservation{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}

	return rsv, nil
}

// GetReservation retrieves a reservation by its derived address.
func (d Datasource) GetReservation(ctx context.Context, address string) (*model.Reservation, error) {
	ctx, span := otel.Tracer("reservation.database").Start(ctx, "Getting reservation from db")
	defer span.End()

	row := d.Conn.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE address = $1`, address)

	rsv := &model.Reservation{}
	metaDataJSON := []byte{}
	err := row.Scan(&rsv.ReservationID, &rsv.Address, &rsv.GuestID, &rsv.HostID, &rsv.ListingID,
		&rsv.StartDate, &rsv.EndDate, &rsv.GuestCount, &rsv.TotalNights, &rsv.PricePerNight,
		&rsv.TotalPrice, &rsv.Status, &rsv.PaymentStatus, &rsv.CreatedAt, &metaDataJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Reservation with address '%s' not found", address), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan reservation data", err)
	}
	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &rsv.MetaData); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal metadata", err)
		}
	}
	return rsv, nil
}

// GetReservationsByGuest lists a guest's reservations, newest first.
func (d Datasource) GetReservationsByGuest(ctx context.Context, guestAddress string) ([]*model.Reservation, error) {
	ctx, span := otel.Tracer("reservation.database").Start(ctx, "Fetching reservations by guest")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+reservationColumns+` FROM reservations WHERE guest_id = $1 ORDER BY created_at DESC
	`, guestAddress)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to fetch reservations", err)
	}
	defer rows.Close()

	reservations := []*model.Reservation{}
	for rows.Next() {
		rsv := &model.Reservation{}
		metaDataJSON := []byte{}
		err := rows.Scan(&rsv.ReservationID, &rsv.Address, &rsv.GuestID, &rsv.HostID, &rsv.ListingID,
			&rsv.StartDate, &rsv.EndDate, &rsv.GuestCount, &rsv.TotalNights, &rsv.PricePerNight,
			&rsv.TotalPrice, &rsv.Status, &rsv.PaymentStatus, &rsv.CreatedAt, &metaDataJSON)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan reservation data", err)
		}
		if len(metaDataJSON) > 0 {
			if err := json.Unmarshal(metaDataJSON, &rsv.MetaData); err != nil {
				return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal metadata", err)
			}
		}
		reservations = append(reservations, rsv)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error iterating reservations", err)
	}
	return reservations, nil
}

// UpdateReservationPayment records a payment state change on a reservation.
func (d Datasource) UpdateReservationPayment(ctx context.Context, address, status, paymentStatus string) error {
	ctx, span := otel.Tracer("reservation.database").Start(ctx, "Updating reservation payment status")
	defer span.End()

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE reservations SET status = $2, payment_status = $3 WHERE address = $1
	`, address, status, paymentStatus)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update reservation", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Reservation with address '%s' not found", address), nil)
	}
	return nil
}
