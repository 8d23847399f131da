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
	"time"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"

	"github.com/perchstay/perch/internal/apierror"
	"github.com/perchstay/perch/model"
)

// FundEscrow persists a new escrow together with the deposit transfer and the
// balance movements in one database transaction. A duplicate escrow address
// trips the unique constraint and surfaces as a conflict, so the same
// (reservation, escrow_id) pair can never be funded twice.
func (d Datasource) FundEscrow(ctx context.Context, esc *model.Escrow, transfer *model.Transfer, source, destination *model.Balance) (*model.Escrow, error) {
	ctx, span := otel.Tracer("escrow.database").Start(ctx, "Saving escrow to db")
	defer span.End()

	metaDataJSON, err := json.Marshal(esc.MetaData)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	tx, err := d.Conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelDefault})
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO escrows (escrow_id, address, reservation_id, guest_id, host_id, amount, platform_fee, status, created_at, release_date, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, esc.EscrowID, esc.Address, esc.ReservationID, esc.GuestID, esc.HostID, esc.Amount, esc.PlatformFee, esc.Status, esc.CreatedAt, esc.ReleaseDate, metaDataJSON)
	if err != nil {
		pqErr, ok := err.(*pq.Error)
		if ok {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return nil, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Escrow with address '%s' already exists", esc.Address), err)
			case "foreign_key_violation":
				return nil, apierror.NewAPIError(apierror.ErrBadRequest, "Invalid reservation ID", err)
			default:
				return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Database error occurred", err)
			}
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create escrow", err)
	}

	if err := updateBalance(ctx, tx, source); err != nil {
		return nil, err
	}
	if err := updateBalance(ctx, tx, destination); err != nil {
		return nil, err
	}

	if err := saveTransfer(ctx, tx, transfer); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}

	return esc, nil
}

// ReleaseEscrow flips an escrow from FUNDED to RELEASED and pays out the host
// in one transaction. The status flip is a compare-and-swap on the current
// status, so a concurrent or repeated release finds zero rows and fails
// without moving value twice.
func (d Datasource) ReleaseEscrow(ctx context.Context, escrowAddress string, transfer *model.Transfer, source, destination *model.Balance) (*model.Escrow, error) {
	ctx, span := otel.Tracer("escrow.database").Start(ctx, "Releasing escrow in db")
	defer span.End()

	tx, err := d.Conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelDefault})
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	result, err := tx.ExecContext(ctx, `
		UPDATE escrows SET status = $2 WHERE address = $1 AND status = $3
	`, escrowAddress, model.StatusReleased, model.StatusFunded)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update escrow status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		var status string
		err := tx.QueryRowContext(ctx, `SELECT status FROM escrows WHERE address = $1`, escrowAddress).Scan(&status)
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Escrow with address '%s' not found", escrowAddress), err)
		}
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check escrow status", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInvalidState, fmt.Sprintf("Escrow with address '%s' is in status '%s', expected '%s'", escrowAddress, status, model.StatusFunded), nil)
	}

	if err := updateBalance(ctx, tx, source); err != nil {
		return nil, err
	}
	if err := updateBalance(ctx, tx, destination); err != nil {
		return nil, err
	}

	if err := saveTransfer(ctx, tx, transfer); err != nil {
		return nil, err
	}

	esc, err := scanEscrowTx(ctx, tx, escrowAddress)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}

	return esc, nil
}

func saveTransfer(ctx context.Context, tx *sql.Tx, transfer *model.Transfer) error {
	metaDataJSON, err := json.Marshal(transfer.MetaData)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	transfer.CreatedAt = time.Now()
	transfer.Hash = transfer.HashTransfer()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transfers (transfer_id, source, destination, amount, fee, currency, escrow_address, reason, hash, created_at, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, transfer.TransferID, transfer.Source, transfer.Destination, transfer.Amount, transfer.Fee, transfer.Currency, transfer.EscrowAddress, transfer.Reason, transfer.Hash, transfer.CreatedAt, metaDataJSON)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrTransferFailed, "Failed to record transfer", err)
	}
	return nil
}

const escrowColumns = `escrow_id, address, reservation_id, guest_id, host_id, amount, platform_fee, status, created_at, release_date, meta_data`

func scanEscrow(row *sql.Row) (*model.Escrow, error) {
	esc := &model.Escrow{}
	metaDataJSON := []byte{}

	err := row.Scan(&esc.EscrowID, &esc.Address, &esc.ReservationID, &esc.GuestID, &esc.HostID,
		&esc.Amount, &esc.PlatformFee, &esc.Status, &esc.CreatedAt, &esc.ReleaseDate, &metaDataJSON)
	if err != nil {
		return nil, err
	}

	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &esc.MetaData); err != nil {
			return nil, err
		}
	}
	return esc, nil
}

func scanEscrowTx(ctx context.Context, tx *sql.Tx, address string) (*model.Escrow, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+escrowColumns+` FROM escrows WHERE address = $1`, address)
	esc, err := scanEscrow(row)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan escrow data", err)
	}
	return esc, nil
}

// GetEscrow retrieves an escrow by its derived address.
func (d Datasource) GetEscrow(ctx context.Context, address string) (*model.Escrow, error) {
	ctx, span := otel.Tracer("escrow.database").Start(ctx, "Getting escrow from db")
	defer span.End()

	row := d.Conn.QueryRowContext(ctx, `SELECT `+escrowColumns+` FROM escrows WHERE address = $1`, address)
	esc, err := scanEscrow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Escrow with address '%s' not found", address), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan escrow data", err)
	}
	return esc, nil
}

// GetEscrowsByReservation lists every escrow funded against a reservation.
func (d Datasource) GetEscrowsByReservation(ctx context.Context, reservationAddress string) ([]*model.Escrow, error) {
	ctx, span := otel.Tracer("escrow.database").Start(ctx, "Fetching escrows by reservation")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+escrowColumns+` FROM escrows WHERE reservation_id = $1 ORDER BY escrow_id ASC
	`, reservationAddress)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to fetch escrows", err)
	}
	defer rows.Close()

	return collectEscrows(rows)
}

// GetAllEscrows retrieves escrows with limit/offset pagination.
func (d Datasource) GetAllEscrows(ctx context.Context, limit, offset int) ([]*model.Escrow, error) {
	ctx, span := otel.Tracer("escrow.database").Start(ctx, "Fetching all escrows with pagination")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+escrowColumns+` FROM escrows ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to fetch escrows", err)
	}
	defer rows.Close()

	return collectEscrows(rows)
}

func collectEscrows(rows *sql.Rows) ([]*model.Escrow, error) {
	escrows := []*model.Escrow{}
	for rows.Next() {
		esc := &model.Escrow{}
		metaDataJSON := []byte{}
		err := rows.Scan(&esc.EscrowID, &esc.Address, &esc.ReservationID, &esc.GuestID, &esc.HostID,
			&esc.Amount, &esc.PlatformFee, &esc.Status, &esc.CreatedAt, &esc.ReleaseDate, &metaDataJSON)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan escrow data", err)
		}
		if len(metaDataJSON) > 0 {
			if err := json.Unmarshal(metaDataJSON, &esc.MetaData); err != nil {
				return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal metadata", err)
			}
		}
		escrows = append(escrows, esc)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error iterating escrows", err)
	}
	return escrows, nil
}
