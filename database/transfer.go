package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/perchstay/perch/internal/apierror"
	"github.com/perchstay/perch/model"
)

const transferColumns = `transfer_id, source, destination, amount, fee, currency, escrow_address, reason, hash, created_at, meta_data`

func scanTransferRow(scan func(dest ...interface{}) error) (*model.Transfer, error) {
	transfer := &model.Transfer{}
	metaDataJSON := []byte{}
	err := scan(&transfer.TransferID, &transfer.Source, &transfer.Destination, &transfer.Amount,
		&transfer.Fee, &transfer.Currency, &transfer.EscrowAddress, &transfer.Reason, &transfer.Hash,
		&transfer.CreatedAt, &metaDataJSON)
	if err != nil {
		return nil, err
	}
	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &transfer.MetaData); err != nil {
			return nil, err
		}
	}
	return transfer, nil
}

// GetTransfer retrieves a transfer by its ID.
func (d Datasource) GetTransfer(ctx context.Context, transferID string) (*model.Transfer, error) {
	row := d.Conn.QueryRowContext(ctx, `SELECT `+transferColumns+` FROM transfers WHERE transfer_id = $1`, transferID)
	transfer, err := scanTransferRow(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Transfer with ID '%s' not found", transferID), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan transfer data", err)
	}
	return transfer, nil
}

// GetTransfersByEscrow lists every transfer recorded against an escrow, in
// insertion order. A released escrow has two: the deposit and the payout.
func (d Datasource) GetTransfersByEscrow(ctx context.Context, escrowAddress string) ([]*model.Transfer, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+transferColumns+` FROM transfers WHERE escrow_address = $1 ORDER BY created_at ASC
	`, escrowAddress)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to fetch transfers", err)
	}
	defer rows.Close()

	transfers := []*model.Transfer{}
	for rows.Next() {
		transfer, err := scanTransferRow(rows.Scan)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan transfer data", err)
		}
		transfers = append(transfers, transfer)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error iterating transfers", err)
	}
	return transfers, nil
}
