package model

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUUIDWithSuffix(t *testing.T) {
	module := "esc"
	id := GenerateUUIDWithSuffix(module)
	assert.Contains(t, id, module+"_")
}

func TestInt64ToBigInt(t *testing.T) {
	value := int64(123456789)
	bigIntValue := Int64ToBigInt(value)
	expected := big.NewInt(value)
	assert.Equal(t, expected, bigIntValue)
}

func TestComputePlatformFee(t *testing.T) {
	tests := []struct {
		amount int64
		feeBps int64
		want   int64
	}{
		{100, 500, 5},
		{1000, 500, 50},
		{450, 500, 22}, // 22.5 truncates, never rounds up
		{0, 500, 0},
		{1, 500, 0},
		{19, 500, 0},
		{20, 500, 1},
		{1000, 0, 0},
		{1000, 10000, 1000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ComputePlatformFee(tt.amount, tt.feeBps), "amount=%d feeBps=%d", tt.amount, tt.feeBps)
	}
}

func TestTransferFee_Cap(t *testing.T) {
	assert.Equal(t, int64(50), TransferFee(1000, 500, 0))
	assert.Equal(t, int64(50), TransferFee(1000, 500, 100))
	assert.Equal(t, int64(25), TransferFee(1000, 500, 25))
}

func TestGrossUpForTransferFee(t *testing.T) {
	// 950 net at a 5% in-flight fee needs a gross of 1000.
	assert.Equal(t, int64(1000), GrossUpForTransferFee(950, 500, 0))
	assert.Equal(t, int64(950), GrossUpForTransferFee(950, 0, 0))
	// fee at or above 100% cannot be grossed up; the net passes through
	assert.Equal(t, int64(950), GrossUpForTransferFee(950, 10000, 0))
}

func TestGrossUpForTransferFee_CapBinds(t *testing.T) {
	// Uncapped the gross would be 10526 with a 526 fee; a 400 cap flattens
	// the fee, so net + cap is exactly enough.
	gross := GrossUpForTransferFee(10000, 500, 400)
	assert.Equal(t, int64(10400), gross)
	assert.Equal(t, int64(10000), gross-TransferFee(gross, 500, 400))

	// A cap that never binds leaves the ratio gross-up untouched.
	assert.Equal(t, int64(1000), GrossUpForTransferFee(950, 500, 400))
}

func TestEscrowAddress_Deterministic(t *testing.T) {
	reservation := ReservationAddress(GuestAddress("guest-author"), 1)

	first := EscrowAddress(reservation, 42)
	second := EscrowAddress(reservation, 42)
	assert.Equal(t, first, second)
}

func TestEscrowAddress_DiffersByInputs(t *testing.T) {
	reservationA := ReservationAddress(GuestAddress("guest-author"), 1)
	reservationB := ReservationAddress(GuestAddress("guest-author"), 2)

	assert.NotEqual(t, EscrowAddress(reservationA, 42), EscrowAddress(reservationA, 43))
	assert.NotEqual(t, EscrowAddress(reservationA, 42), EscrowAddress(reservationB, 42))
}

func TestAddressNamespaces(t *testing.T) {
	// Same seed under different tags must never collide.
	assert.NotEqual(t, HostAddress("author"), GuestAddress("author"))
}

func TestEscrowHostAmount(t *testing.T) {
	escrow := &Escrow{Amount: 1000, PlatformFee: 50}
	assert.Equal(t, int64(950), escrow.HostAmount())
}
