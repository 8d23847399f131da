package database

import (
	"context"

	"github.com/perchstay/perch/model"
)

// IDataSource is the storage surface used by the service layer.
type IDataSource interface {
	escrow
	balance
	reservation
	stay
	transfer
}

type escrow interface {
	FundEscrow(ctx context.Context, esc *model.Escrow, transfer *model.Transfer, source, destination *model.Balance) (*model.Escrow, error)
	ReleaseEscrow(ctx context.Context, escrowAddress string, transfer *model.Transfer, source, destination *model.Balance) (*model.Escrow, error)
	GetEscrow(ctx context.Context, address string) (*model.Escrow, error)
	GetEscrowsByReservation(ctx context.Context, reservationAddress string) ([]*model.Escrow, error)
	GetAllEscrows(ctx context.Context, limit, offset int) ([]*model.Escrow, error)
}

type balance interface {
	CreateBalance(blc model.Balance) (model.Balance, error)
	GetBalanceByIDLite(id string) (*model.Balance, error)
	GetBalanceByIndicator(indicator, currency string) (*model.Balance, error)
	UpdateBalances(ctx context.Context, sourceBalance, destinationBalance *model.Balance) error
}

type reservation interface {
	CreateReservation(ctx context.Context, rsv model.Reservation) (model.Reservation, error)
	GetReservation(ctx context.Context, address string) (*model.Reservation, error)
	GetReservationsByGuest(ctx context.Context, guestAddress string) ([]*model.Reservation, error)
	UpdateReservationPayment(ctx context.Context, address, status, paymentStatus string) error
}

type stay interface {
	CreateHost(ctx context.Context, host model.Host) (model.Host, error)
	GetHost(ctx context.Context, address string) (*model.Host, error)
	CreateGuest(ctx context.Context, guest model.Guest) (model.Guest, error)
	GetGuest(ctx context.Context, address string) (*model.Guest, error)
	CreateListing(ctx context.Context, listing model.Listing) (model.Listing, error)
	GetListing(ctx context.Context, address string) (*model.Listing, error)
	GetListingsByHost(ctx context.Context, hostAddress string) ([]*model.Listing, error)
	GetAllListings(ctx context.Context, limit, offset int) ([]*model.Listing, error)
}

type transfer interface {
	GetTransfer(ctx context.Context, transferID string) (*model.Transfer, error)
	GetTransfersByEscrow(ctx context.Context, escrowAddress string) ([]*model.Transfer, error)
}
