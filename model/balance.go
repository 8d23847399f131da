package model

import (
	"math/big"
	"time"
)

// Balance is a token balance on the value-transfer substrate. Guests, hosts
// and the platform treasury each hold one per currency.
type Balance struct {
	ID            int64                  `json:"-"`
	BalanceID     string                 `json:"balance_id"`
	Indicator     string                 `json:"indicator"`
	Balance       *big.Int               `json:"balance"`
	CreditBalance *big.Int               `json:"credit_balance"`
	DebitBalance  *big.Int               `json:"debit_balance"`
	Currency      string                 `json:"currency"`
	Version       int64                  `json:"version"`
	CreatedAt     time.Time              `json:"created_at"`
	MetaData      map[string]interface{} `json:"meta_data,omitempty"`
}

// InitializeBalanceFields initializes all the fields of the Balance struct that might be nil.
// This ensures that all balance-related fields have valid *big.Int values for further operations.
func (balance *Balance) InitializeBalanceFields() {
	if balance.DebitBalance == nil {
		balance.DebitBalance = big.NewInt(0)
	}
	if balance.CreditBalance == nil {
		balance.CreditBalance = big.NewInt(0)
	}
	if balance.Balance == nil {
		balance.Balance = big.NewInt(0)
	}
}

// addCredit adds the specified amount to the credit balance.
func (balance *Balance) addCredit(amount int64) {
	balance.InitializeBalanceFields()
	balance.CreditBalance.Add(balance.CreditBalance, Int64ToBigInt(amount))
}

// addDebit adds the specified amount to the debit balance.
func (balance *Balance) addDebit(amount int64) {
	balance.InitializeBalanceFields()
	balance.DebitBalance.Add(balance.DebitBalance, Int64ToBigInt(amount))
}

// computeBalance recomputes the net balance from credits and debits.
func (balance *Balance) computeBalance() {
	balance.InitializeBalanceFields()
	balance.Balance.Sub(balance.CreditBalance, balance.DebitBalance)
}

// canProcessTransfer checks that the source balance covers the gross transfer
// amount. There is no overdraft on the substrate.
func canProcessTransfer(transfer *Transfer, sourceBalance *Balance) error {
	sourceBalance.InitializeBalanceFields()
	if sourceBalance.Balance.Cmp(Int64ToBigInt(transfer.Amount)) < 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyTransfer applies a transfer to the source and destination balances in
// memory. The source is debited the gross amount; the destination is credited
// the gross amount minus the substrate's own transfer fee, which the transfer
// carries in its Fee field. Persisting both balances together with the
// transfer record is the datasource's job.
func ApplyTransfer(transfer *Transfer, source, destination *Balance) error {
	if err := transfer.validate(); err != nil {
		return err
	}
	if err := canProcessTransfer(transfer, source); err != nil {
		return err
	}

	source.InitializeBalanceFields()
	destination.InitializeBalanceFields()

	source.addDebit(transfer.Amount)
	source.computeBalance()

	destination.addCredit(transfer.Amount - transfer.Fee)
	destination.computeBalance()
	return nil
}
