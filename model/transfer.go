package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Transfer reasons recorded on the substrate ledger.
const (
	ReasonEscrowFunding = "escrow_funding"
	ReasonEscrowRelease = "escrow_release"
)

// Transfer is a single movement of value on the substrate. Amount is the gross
// units leaving the source; Fee is the substrate's own in-flight fee deducted
// before the destination is credited.
type Transfer struct {
	ID            int64                  `json:"-"`
	TransferID    string                 `json:"transfer_id"`
	Source        string                 `json:"source"`
	Destination   string                 `json:"destination"`
	Amount        int64                  `json:"amount"`
	Fee           int64                  `json:"fee"`
	Currency      string                 `json:"currency"`
	EscrowAddress string                 `json:"escrow_address,omitempty"`
	Reason        string                 `json:"reason"`
	Hash          string                 `json:"hash"`
	CreatedAt     time.Time              `json:"created_at"`
	MetaData      map[string]interface{} `json:"meta_data,omitempty"`
}

// HashTransfer generates a SHA-256 hash of the transfer's relevant fields.
// This ensures the integrity of the transfer by creating a unique hash from its details.
func (transfer *Transfer) HashTransfer() string {
	data := fmt.Sprintf("%d%s%s%s%s", transfer.Amount, transfer.Currency, transfer.Source, transfer.Destination, transfer.Reason)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// validate checks if the transfer is valid (e.g., ensuring positive amount).
func (transfer *Transfer) validate() error {
	if transfer.Amount <= 0 {
		return errors.New("transfer amount must be positive")
	}
	if transfer.Fee < 0 || transfer.Fee > transfer.Amount {
		return errors.New("transfer fee must be between zero and the transfer amount")
	}
	return nil
}

func (transfer *Transfer) ToJSON() ([]byte, error) {
	return json.Marshal(transfer)
}
