package model

import (
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBalance_AddCredit(t *testing.T) {
	balance := &Balance{}
	balance.addCredit(300)
	assert.Equal(t, big.NewInt(300), balance.CreditBalance)
}

func TestBalance_AddDebit(t *testing.T) {
	balance := &Balance{}
	balance.addDebit(300)
	assert.Equal(t, big.NewInt(300), balance.DebitBalance)
}

func TestBalance_ComputeBalance(t *testing.T) {
	balance := &Balance{
		CreditBalance: big.NewInt(1000),
		DebitBalance:  big.NewInt(400),
	}
	balance.computeBalance()
	assert.Equal(t, big.NewInt(600), balance.Balance)
}

func TestApplyTransfer(t *testing.T) {
	source := &Balance{
		Balance:       big.NewInt(1000),
		CreditBalance: big.NewInt(1000),
		DebitBalance:  big.NewInt(0),
	}
	destination := &Balance{}

	transfer := &Transfer{Amount: 500, Fee: 0, Currency: "PERCH"}
	err := ApplyTransfer(transfer, source, destination)
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(500), source.Balance)
	assert.Equal(t, big.NewInt(500), destination.Balance)
}

func TestApplyTransfer_SubstrateFee(t *testing.T) {
	source := &Balance{
		Balance:       big.NewInt(1000),
		CreditBalance: big.NewInt(1000),
		DebitBalance:  big.NewInt(0),
	}
	destination := &Balance{}

	// source is debited the gross; destination nets gross minus the fee
	transfer := &Transfer{Amount: 1000, Fee: 50, Currency: "PERCH"}
	err := ApplyTransfer(transfer, source, destination)
	assert.NoError(t, err)
	// big.Int zero values can differ in internal representation, so compare
	// with Cmp rather than deep equality.
	assert.Zero(t, source.Balance.Cmp(big.NewInt(0)))
	assert.Equal(t, big.NewInt(950), destination.Balance)
}

func TestApplyTransfer_InsufficientFunds(t *testing.T) {
	source := &Balance{
		Balance:       big.NewInt(100),
		CreditBalance: big.NewInt(100),
		DebitBalance:  big.NewInt(0),
	}
	destination := &Balance{}

	transfer := &Transfer{Amount: 500, Currency: "PERCH"}
	err := ApplyTransfer(transfer, source, destination)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	// nothing moved
	assert.Equal(t, big.NewInt(100), source.Balance)
	assert.Nil(t, destination.Balance)
}

func TestApplyTransfer_RejectsNonPositiveAmount(t *testing.T) {
	source := &Balance{Balance: big.NewInt(100)}
	destination := &Balance{}

	transfer := &Transfer{Amount: 0, Currency: "PERCH"}
	err := ApplyTransfer(transfer, source, destination)
	assert.Error(t, err)
}

func TestTransfer_HashTransfer(t *testing.T) {
	transfer := &Transfer{
		Amount:      1000,
		Currency:    "PERCH",
		Source:      "bln_source",
		Destination: "bln_dest",
		Reason:      ReasonEscrowFunding,
	}
	data := "1000PERCHbln_sourcebln_destescrow_funding"
	expectedHash := sha256.Sum256([]byte(data))
	assert.Equal(t, hex.EncodeToString(expectedHash[:]), transfer.HashTransfer())
}
