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
	"math/big"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/perchstay/perch/internal/apierror"
	"github.com/perchstay/perch/model"
)

func TestCreateBalance_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	balance := model.Balance{
		Balance:       big.NewInt(1000),
		CreditBalance: big.NewInt(500),
		DebitBalance:  big.NewInt(500),
		Currency:      "PERCH",
		Indicator:     "@guest_1",
		MetaData: map[string]interface{}{
			"key": "value",
		},
	}

	mock.ExpectExec("INSERT INTO balances").
		WithArgs(sqlmock.AnyArg(), balance.Balance.Int64(), balance.CreditBalance.Int64(), balance.DebitBalance.Int64(), balance.Currency, balance.Indicator, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	createdBalance, err := ds.CreateBalance(balance)
	assert.NoError(t, err)
	assert.NotEmpty(t, createdBalance.BalanceID)
	assert.WithinDuration(t, time.Now(), createdBalance.CreatedAt, time.Second)
}

func TestCreateBalance_UniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	balance := model.Balance{
		Currency:  "PERCH",
		Indicator: "@guest_1",
	}

	mock.ExpectExec("INSERT INTO balances").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err = ds.CreateBalance(balance)
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrConflict, apiErr.Code)
}

func TestGetBalanceByIndicator(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	rows := sqlmock.NewRows([]string{"balance_id", "indicator", "currency", "balance", "credit_balance", "debit_balance", "created_at", "version"}).
		AddRow("bln_1", "@PlatformTreasury", "PERCH", 10000, 10000, 0, time.Now(), 3)

	mock.ExpectQuery("SELECT balance_id, indicator, currency, balance, credit_balance, debit_balance, created_at, version").
		WithArgs("@PlatformTreasury", "PERCH").
		WillReturnRows(rows)

	balance, err := ds.GetBalanceByIndicator("@PlatformTreasury", "PERCH")
	assert.NoError(t, err)
	assert.Equal(t, "bln_1", balance.BalanceID)
	assert.Equal(t, big.NewInt(10000), balance.Balance)
	assert.Equal(t, int64(3), balance.Version)
}

func TestGetBalanceByIndicator_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectQuery("SELECT balance_id, indicator, currency, balance, credit_balance, debit_balance, created_at, version").
		WithArgs("@missing", "PERCH").
		WillReturnRows(sqlmock.NewRows([]string{"balance_id"}))

	_, err = ds.GetBalanceByIndicator("@missing", "PERCH")
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrNotFound, apiErr.Code)
}

func TestUpdateBalances_OptimisticLockFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	source := &model.Balance{
		BalanceID:     "bln_src",
		Balance:       big.NewInt(-500),
		CreditBalance: big.NewInt(0),
		DebitBalance:  big.NewInt(500),
		Currency:      "PERCH",
		Version:       2,
	}
	destination := &model.Balance{
		BalanceID:     "bln_dst",
		Balance:       big.NewInt(500),
		CreditBalance: big.NewInt(500),
		DebitBalance:  big.NewInt(0),
		Currency:      "PERCH",
		Version:       1,
	}

	mock.ExpectBegin()
	// Stale version: no rows match, the whole transaction rolls back.
	mock.ExpectExec("UPDATE balances").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = ds.UpdateBalances(context.Background(), source, destination)
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrConflict, apiErr.Code)
}

func TestUpdateBalances_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	source := &model.Balance{
		BalanceID:     "bln_src",
		Balance:       big.NewInt(-500),
		CreditBalance: big.NewInt(0),
		DebitBalance:  big.NewInt(500),
		Currency:      "PERCH",
		Version:       0,
	}
	destination := &model.Balance{
		BalanceID:     "bln_dst",
		Balance:       big.NewInt(500),
		CreditBalance: big.NewInt(500),
		DebitBalance:  big.NewInt(0),
		Currency:      "PERCH",
		Version:       0,
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE balances").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE balances").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = ds.UpdateBalances(context.Background(), source, destination)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), source.Version)
	assert.Equal(t, int64(1), destination.Version)
}
