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

package perch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/perchstay/perch/config"
	"github.com/perchstay/perch/internal/apierror"
	redlock "github.com/perchstay/perch/internal/lock"
	"github.com/perchstay/perch/internal/notification"
	"github.com/perchstay/perch/internal/search"
	"github.com/perchstay/perch/model"
)

var tracer = otel.Tracer("Escrow service")

const lockDuration = 30 * time.Second

func logAndRecordError(span trace.Span, msg string, err error) error {
	span.RecordError(err)
	logrus.Error(msg, err)
	return err
}

// EscrowRequest carries the inputs for funding a new escrow against a
// reservation.
type EscrowRequest struct {
	ReservationID  string
	EscrowID       int64
	Amount         int64
	ReleaseDate    int64
	GuestAuthority string
	MetaData       map[string]interface{}
}

// CreateEscrow funds a new payment escrow for a reservation. The depositor
// must be the reservation's guest; the deposit moves the full amount from the
// guest's balance into the platform treasury, with the platform fee computed
// up front and frozen on the escrow record. The escrow address is derived
// from the reservation and the caller-chosen escrow ID, so funding the same
// pair twice conflicts. The reservation itself is only read, never written;
// marking it paid is a separate operation.
func (p *Perch) CreateEscrow(ctx context.Context, req EscrowRequest) (*model.Escrow, error) {
	ctx, span := tracer.Start(ctx, "Creating escrow")
	defer span.End()

	conf, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	if req.Amount <= 0 {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Escrow amount must be positive", nil)
	}

	reservation, err := p.datasource.GetReservation(ctx, req.ReservationID)
	if err != nil {
		return nil, err
	}

	guest, err := p.datasource.GetGuest(ctx, reservation.GuestID)
	if err != nil {
		return nil, err
	}
	if guest.Author != req.GuestAuthority {
		return nil, apierror.NewAPIError(apierror.ErrUnauthorized, "Only the reservation's guest can fund this escrow", nil)
	}

	address := model.EscrowAddress(reservation.Address, req.EscrowID)
	platformFee := model.ComputePlatformFee(req.Amount, conf.Platform.FeeRateBps)

	locker := redlock.NewLocker(p.redis, fmt.Sprintf("balance:%s", guest.Address), model.GenerateUUIDWithSuffix("loc"))
	if err := locker.WaitLock(ctx, lockDuration, lockDuration); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to acquire lock", err)
	}
	defer func() {
		if err := locker.Unlock(ctx); err != nil {
			logrus.Error("failed to release lock", err)
		}
	}()

	guestBalance, err := p.getOrCreateBalanceByIndicator(ctx, guest.Address, conf.Platform.Currency)
	if err != nil {
		return nil, err
	}
	treasuryBalance, err := p.getOrCreateBalanceByIndicator(ctx, conf.Platform.TreasuryIndicator, conf.Platform.Currency)
	if err != nil {
		return nil, err
	}

	transfer := &model.Transfer{
		TransferID:    model.GenerateUUIDWithSuffix("trf"),
		Source:        guestBalance.BalanceID,
		Destination:   treasuryBalance.BalanceID,
		Amount:        req.Amount,
		Fee:           model.TransferFee(req.Amount, conf.Platform.TransferFeeBps, conf.Platform.MaxFee),
		Currency:      conf.Platform.Currency,
		EscrowAddress: address,
		Reason:        model.ReasonEscrowFunding,
	}

	if err := model.ApplyTransfer(transfer, guestBalance, treasuryBalance); err != nil {
		if errors.Is(err, model.ErrInsufficientFunds) {
			return nil, apierror.NewAPIError(apierror.ErrInsufficientFunds, "Guest balance cannot cover the deposit", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrTransferFailed, "Failed to apply transfer", err)
	}

	escrow := &model.Escrow{
		EscrowID:      req.EscrowID,
		Address:       address,
		ReservationID: reservation.Address,
		GuestID:       reservation.GuestID,
		HostID:        reservation.HostID,
		Amount:        req.Amount,
		PlatformFee:   platformFee,
		Status:        model.StatusFunded,
		CreatedAt:     time.Now().Unix(),
		ReleaseDate:   req.ReleaseDate,
		MetaData:      req.MetaData,
	}

	created, err := p.datasource.FundEscrow(ctx, escrow, transfer, guestBalance, treasuryBalance)
	if err != nil {
		return nil, logAndRecordError(span, "error funding escrow: ", err)
	}

	p.postEscrowActions(ctx, created, EventEscrowFunded)
	return created, nil
}

// ReleaseEscrow pays out a funded escrow to the host. Only the platform
// authority may release. The payout is the escrow amount minus the frozen
// platform fee, grossed up so the substrate's own transfer fee lands on the
// treasury rather than shorting the host. The release date is advisory and
// not enforced here.
func (p *Perch) ReleaseEscrow(ctx context.Context, escrowAddress, authority string) (*model.Escrow, error) {
	ctx, span := tracer.Start(ctx, "Releasing escrow")
	defer span.End()

	conf, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	if authority != conf.Platform.Authority {
		return nil, apierror.NewAPIError(apierror.ErrUnauthorized, "Only the platform authority can release an escrow", nil)
	}

	escrow, err := p.datasource.GetEscrow(ctx, escrowAddress)
	if err != nil {
		return nil, err
	}
	if escrow.Status != model.StatusFunded {
		return nil, apierror.NewAPIError(apierror.ErrInvalidState, fmt.Sprintf("Escrow is in status '%s', expected '%s'", escrow.Status, model.StatusFunded), nil)
	}

	locker := redlock.NewLocker(p.redis, fmt.Sprintf("escrow:%s", escrowAddress), model.GenerateUUIDWithSuffix("loc"))
	if err := locker.WaitLock(ctx, lockDuration, lockDuration); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to acquire lock", err)
	}
	defer func() {
		if err := locker.Unlock(ctx); err != nil {
			logrus.Error("failed to release lock", err)
		}
	}()

	treasuryBalance, err := p.getOrCreateBalanceByIndicator(ctx, conf.Platform.TreasuryIndicator, conf.Platform.Currency)
	if err != nil {
		return nil, err
	}
	hostBalance, err := p.getOrCreateBalanceByIndicator(ctx, escrow.HostID, conf.Platform.Currency)
	if err != nil {
		return nil, err
	}

	hostNet := escrow.HostAmount()
	transferAmount := model.GrossUpForTransferFee(hostNet, conf.Platform.TransferFeeBps, conf.Platform.MaxFee)

	transfer := &model.Transfer{
		TransferID:    model.GenerateUUIDWithSuffix("trf"),
		Source:        treasuryBalance.BalanceID,
		Destination:   hostBalance.BalanceID,
		Amount:        transferAmount,
		Fee:           model.TransferFee(transferAmount, conf.Platform.TransferFeeBps, conf.Platform.MaxFee),
		Currency:      conf.Platform.Currency,
		EscrowAddress: escrow.Address,
		Reason:        model.ReasonEscrowRelease,
	}

	if err := model.ApplyTransfer(transfer, treasuryBalance, hostBalance); err != nil {
		if errors.Is(err, model.ErrInsufficientFunds) {
			return nil, apierror.NewAPIError(apierror.ErrTransferFailed, "Treasury cannot cover the payout", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrTransferFailed, "Failed to apply transfer", err)
	}

	released, err := p.datasource.ReleaseEscrow(ctx, escrowAddress, transfer, treasuryBalance, hostBalance)
	if err != nil {
		return nil, logAndRecordError(span, "error releasing escrow: ", err)
	}

	p.postEscrowActions(ctx, released, EventEscrowReleased)
	return released, nil
}

// GetEscrow retrieves an escrow by its derived address.
func (p *Perch) GetEscrow(ctx context.Context, address string) (*model.Escrow, error) {
	return p.datasource.GetEscrow(ctx, address)
}

// GetEscrowsByReservation lists all escrows funded against a reservation.
func (p *Perch) GetEscrowsByReservation(ctx context.Context, reservationAddress string) ([]*model.Escrow, error) {
	return p.datasource.GetEscrowsByReservation(ctx, reservationAddress)
}

// GetAllEscrows lists escrows with pagination.
func (p *Perch) GetAllEscrows(ctx context.Context, limit, offset int) ([]*model.Escrow, error) {
	return p.datasource.GetAllEscrows(ctx, limit, offset)
}

func (p *Perch) postEscrowActions(_ context.Context, escrow *model.Escrow, event string) {
	go func() {
		err := p.queue.queueIndexData(escrow.Address, search.CollectionEscrows, escrow)
		if err != nil {
			notification.NotifyError(err)
		}
		err = SendWebhook(NewWebhook{
			Event:   event,
			Payload: escrow,
		})
		if err != nil {
			notification.NotifyError(err)
		}
	}()
}
