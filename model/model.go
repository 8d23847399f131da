package model

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// Namespace tags for address derivation. Each record type gets its own tag so
// two record types can never collide on the same seeds.
const (
	EscrowSeed      = "escrow"
	ReservationSeed = "reservation"
	HostSeed        = "host"
	GuestSeed       = "guest"
	ListingSeed     = "listing"
)

// FeeDenominator is the basis-point denominator: 10000 bps = 100%.
const FeeDenominator = 10000

// ErrInsufficientFunds is returned when a transfer would overdraw its source
// balance. The service layer maps it onto the API error taxonomy.
var ErrInsufficientFunds = errors.New("insufficient funds in source balance")

// GenerateUUIDWithSuffix generates a UUID with a given module name as a suffix.
// This is useful for creating unique identifiers with context-specific prefixes.
func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New()
	uuidStr := id.String()
	idWithSuffix := fmt.Sprintf("%s_%s", module, uuidStr)
	return idWithSuffix
}

// Int64ToBigInt converts an int64 value to a *big.Int.
// This is useful for handling large numbers in computations such as financial transactions.
func Int64ToBigInt(value int64) *big.Int {
	return big.NewInt(value)
}

// deriveAddress hashes a namespace tag together with its seed bytes into a
// deterministic storage address. Identical inputs always produce the same
// address; any differing seed produces a different one.
func deriveAddress(tag string, seeds ...[]byte) string {
	h := sha256.New()
	h.Write([]byte(tag))
	for _, seed := range seeds {
		h.Write(seed)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// uint64LE encodes a caller-supplied numeric id the way the record store keys
// it: 8 bytes, little-endian.
func uint64LE(id int64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(id))
	return buf
}

// EscrowAddress derives the storage address of a payment escrow from the
// reservation it funds and the caller-supplied escrow id. Collisions on the
// same (reservation, id) pair are the caller's responsibility to avoid.
func EscrowAddress(reservationAddress string, escrowID int64) string {
	return deriveAddress(EscrowSeed, []byte(reservationAddress), uint64LE(escrowID))
}

// ReservationAddress derives the storage address of a reservation from the
// guest that created it and the guest's reservation counter.
func ReservationAddress(guestAddress string, reservationID int64) string {
	return deriveAddress(ReservationSeed, []byte(guestAddress), uint64LE(reservationID))
}

// HostAddress derives the storage address of a host record from its author id.
func HostAddress(author string) string {
	return deriveAddress(HostSeed, []byte(author))
}

// GuestAddress derives the storage address of a guest record from its author id.
func GuestAddress(author string) string {
	return deriveAddress(GuestSeed, []byte(author))
}

// ListingAddress derives the storage address of a listing from its host and
// the host's listing counter.
func ListingAddress(hostAddress string, listingID int64) string {
	return deriveAddress(ListingSeed, []byte(hostAddress), uint64LE(listingID))
}

// ComputePlatformFee computes the platform's cut of a deposit in integer
// arithmetic. The result is floor(amount * feeBps / 10000); truncation is the
// defined rounding policy, so 450 at 500bps yields 22, not 23.
func ComputePlatformFee(amount, feeBps int64) int64 {
	fee := new(big.Int).Mul(big.NewInt(amount), big.NewInt(feeBps))
	fee.Quo(fee, big.NewInt(FeeDenominator))
	return fee.Int64()
}

// TransferFee computes the substrate's own in-flight fee for a transfer of
// amount, truncated like the platform fee and capped at maxFee when a cap is
// configured. This fee is independent of, and compounds with, the platform fee.
func TransferFee(amount, feeBps, maxFee int64) int64 {
	fee := ComputePlatformFee(amount, feeBps)
	if maxFee > 0 && fee > maxFee {
		return maxFee
	}
	return fee
}

// GrossUpForTransferFee returns the amount that must be sent so the recipient
// nets the requested amount after the substrate deducts its transfer fee of
// feeBps, capped at maxFee like the fee itself. For a 5% fee the outbound
// transfer is net * 10000 / 9500; once the cap binds the fee is a flat
// maxFee, so the gross-up collapses to net + maxFee.
func GrossUpForTransferFee(net, feeBps, maxFee int64) int64 {
	if feeBps <= 0 || feeBps >= FeeDenominator {
		return net
	}
	gross := new(big.Int).Mul(big.NewInt(net), big.NewInt(FeeDenominator))
	gross.Quo(gross, big.NewInt(FeeDenominator-feeBps))
	if maxFee > 0 && ComputePlatformFee(gross.Int64(), feeBps) > maxFee {
		return net + maxFee
	}
	return gross.Int64()
}
