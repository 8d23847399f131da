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
	"math/big"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/perchstay/perch/internal/apierror"
	"github.com/perchstay/perch/model"
)

// CreateBalance inserts a new balance record. The (indicator, currency) pair
// is unique, so creating a second treasury or party balance for the same
// currency fails with a conflict.
func (d Datasource) CreateBalance(balance model.Balance) (model.Balance, error) {
	metaDataJSON, err := json.Marshal(balance.MetaData)
	if err != nil {
		return model.Balance{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	balance.BalanceID = model.GenerateUUIDWithSuffix("bln")
	balance.CreatedAt = time.Now()
	balance.InitializeBalanceFields()

	var indicator interface{} = balance.Indicator
	if balance.Indicator == "" {
		indicator = nil
	}

	_, err = d.Conn.Exec(`
		INSERT INTO balances (balance_id, balance, credit_balance, debit_balance, currency, indicator, created_at, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, balance.BalanceID, balance.Balance.Int64(), balance.CreditBalance.Int64(), balance.DebitBalance.Int64(), balance.Currency, indicator, balance.CreatedAt, &metaDataJSON)

	if err != nil {
		pqErr, ok := err.(*pq.Error)
		if ok {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return model.Balance{}, apierror.NewAPIError(apierror.ErrConflict, "Balance with this indicator already exists", err)
			default:
				return model.Balance{}, apierror.NewAPIError(apierror.ErrInternalServer, "Database error occurred", err)
			}
		}
		return model.Balance{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create balance", err)
	}

	return balance, nil
}

// GetBalanceByIDLite retrieves a balance by its unique ID without metadata.
func (d Datasource) GetBalanceByIDLite(id string) (*model.Balance, error) {
	var balance model.Balance
	var balanceValue, creditBalanceValue, debitBalanceValue int64
	var indicator sql.NullString

	row := d.Conn.QueryRow(`
	   SELECT balance_id, indicator, currency, balance, credit_balance, debit_balance, created_at, version
	   FROM balances
	   WHERE balance_id = $1
	`, id)

	err := row.Scan(
		&balance.BalanceID,
		&indicator,
		&balance.Currency,
		&balanceValue,
		&creditBalanceValue,
		&debitBalanceValue,
		&balance.CreatedAt,
		&balance.Version,
	)

	if indicator.Valid {
		balance.Indicator = indicator.String
	}

	if err != nil {
		logrus.Errorf("balance lite error %v", err)
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Balance with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan balance data", err)
	}

	balance.Balance = big.NewInt(balanceValue)
	balance.CreditBalance = big.NewInt(creditBalanceValue)
	balance.DebitBalance = big.NewInt(debitBalanceValue)

	return &balance, nil
}

// GetBalanceByIndicator retrieves a balance by its indicator and currency.
func (d Datasource) GetBalanceByIndicator(indicator, currency string) (*model.Balance, error) {
	var balance model.Balance
	var balanceValue, creditBalanceValue, debitBalanceValue int64

	row := d.Conn.QueryRow(`
	   SELECT balance_id, indicator, currency, balance, credit_balance, debit_balance, created_at, version
	   FROM balances
	   WHERE indicator = $1 AND currency = $2
	`, indicator, currency)

	err := row.Scan(
		&balance.BalanceID,
		&balance.Indicator,
		&balance.Currency,
		&balanceValue,
		&creditBalanceValue,
		&debitBalanceValue,
		&balance.CreatedAt,
		&balance.Version,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Balance with indicator '%s' not found", indicator), err)
		}
		return nil, err
	}

	balance.Balance = big.NewInt(balanceValue)
	balance.CreditBalance = big.NewInt(creditBalanceValue)
	balance.DebitBalance = big.NewInt(debitBalanceValue)

	return &balance, nil
}

// UpdateBalances updates both sides of a transfer in a single transaction.
func (d Datasource) UpdateBalances(ctx context.Context, sourceBalance, destinationBalance *model.Balance) error {
	tx, err := d.Conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelDefault})
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}

	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if err := updateBalance(ctx, tx, sourceBalance); err != nil {
		return err
	}

	if err := updateBalance(ctx, tx, destinationBalance); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}

	return nil
}

// updateBalance persists a balance mutation with optimistic locking. The
// version column guards against concurrent writers; zero rows affected means
// another transaction got there first.
func updateBalance(ctx context.Context, tx *sql.Tx, balance *model.Balance) error {
	metaDataJSON, err := json.Marshal(balance.MetaData)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	query := `
        UPDATE balances
        SET balance = $2, credit_balance = $3, debit_balance = $4, currency = $5, meta_data = $6, version = version + 1
        WHERE balance_id = $1 AND version = $7
    `

	result, err := tx.ExecContext(ctx, query,
		balance.BalanceID, balance.Balance.Int64(), balance.CreditBalance.Int64(),
		balance.DebitBalance.Int64(), balance.Currency, metaDataJSON, balance.Version)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update balance", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Optimistic locking failure: balance with ID '%s' may have been updated or deleted by another transaction", balance.BalanceID), nil)
	}

	balance.Version++

	return nil
}
