package perch

import (
	"context"
	"log"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perchstay/perch/config"
	"github.com/perchstay/perch/database"
	"github.com/perchstay/perch/internal/apierror"
	"github.com/perchstay/perch/model"
)

func newTestPerch(t *testing.T) (*Perch, sqlmock.Sqlmock) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	config.MockConfig(&config.Configuration{
		Redis: config.RedisConfig{Dns: mr.Addr()},
		Platform: config.PlatformConfig{
			Authority:  "platform-admin",
			FeeRateBps: 500,
		},
	})

	db, mock, err := sqlmock.New()
	if err != nil {
		log.Printf("an error '%s' was not expected when opening a stub database Connection", err)
	}
	datasource := &database.Datasource{Conn: db}

	p, err := NewPerch(datasource)
	require.NoError(t, err)
	return p, mock
}

func reservationRows(address, guestID, hostID string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"reservation_id", "address", "guest_id", "host_id", "listing_id", "start_date", "end_date", "guest_count", "total_nights", "price_per_night", "total_price", "status", "payment_status", "created_at", "meta_data"}).
		AddRow(7, address, guestID, hostID, "lst_address", time.Now().Unix(), time.Now().Add(72*time.Hour).Unix(), 2, 3, 25000, 75000, model.ReservationPending, model.PaymentPending, time.Now().Unix(), []byte(`{}`))
}

func guestRows(address, author string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"address", "author", "name", "email", "image_url", "phone_number", "reservation_count", "created_at", "meta_data"}).
		AddRow(address, author, "Ada", "ada@example.com", "", "", 1, time.Now(), []byte(`{}`))
}

func balanceRows(balanceID, indicator string, amount int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"balance_id", "indicator", "currency", "balance", "credit_balance", "debit_balance", "created_at", "version"}).
		AddRow(balanceID, indicator, "PERCH", amount, amount, 0, time.Now(), 0)
}

func TestCreateEscrow(t *testing.T) {
	p, mock := newTestPerch(t)

	guestAddress := model.GuestAddress("ada")
	reservationAddress := model.ReservationAddress(guestAddress, 7)
	hostAddress := model.HostAddress("bob")

	mock.ExpectQuery("SELECT .* FROM reservations WHERE address = \\$1").
		WithArgs(reservationAddress).
		WillReturnRows(reservationRows(reservationAddress, guestAddress, hostAddress))
	mock.ExpectQuery("FROM guests WHERE address").
		WithArgs(guestAddress).
		WillReturnRows(guestRows(guestAddress, "ada"))
	mock.ExpectQuery("SELECT balance_id, indicator").
		WithArgs(guestAddress, "PERCH").
		WillReturnRows(balanceRows("bln_guest", guestAddress, 200000))
	mock.ExpectQuery("SELECT balance_id, indicator").
		WithArgs(config.DefaultTreasuryIndicator, "PERCH").
		WillReturnRows(balanceRows("bln_treasury", config.DefaultTreasuryIndicator, 0))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO escrows").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE balances").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE balances").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO transfers").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	escrow, err := p.CreateEscrow(context.Background(), EscrowRequest{
		ReservationID:  reservationAddress,
		EscrowID:       1,
		Amount:         100000,
		ReleaseDate:    time.Now().Add(72 * time.Hour).Unix(),
		GuestAuthority: "ada",
	})
	assert.NoError(t, err)
	assert.Equal(t, model.StatusFunded, escrow.Status)
	assert.Equal(t, int64(5000), escrow.PlatformFee)
	assert.Equal(t, int64(95000), escrow.HostAmount())
	assert.Equal(t, model.EscrowAddress(reservationAddress, 1), escrow.Address)

	// Funding only reads the reservation. The commit above is the last
	// statement the datasource may issue; a reservation UPDATE here would
	// surface as an unexpected call.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEscrow_WrongGuest(t *testing.T) {
	p, mock := newTestPerch(t)

	guestAddress := model.GuestAddress("ada")
	reservationAddress := model.ReservationAddress(guestAddress, 7)

	mock.ExpectQuery("SELECT .* FROM reservations WHERE address = \\$1").
		WillReturnRows(reservationRows(reservationAddress, guestAddress, model.HostAddress("bob")))
	mock.ExpectQuery("FROM guests WHERE address").
		WillReturnRows(guestRows(guestAddress, "ada"))

	_, err := p.CreateEscrow(context.Background(), EscrowRequest{
		ReservationID:  reservationAddress,
		EscrowID:       1,
		Amount:         100000,
		GuestAuthority: "mallory",
	})
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrUnauthorized, apiErr.Code)
}

func TestCreateEscrow_InsufficientFunds(t *testing.T) {
	p, mock := newTestPerch(t)

	guestAddress := model.GuestAddress("ada")
	reservationAddress := model.ReservationAddress(guestAddress, 7)

	mock.ExpectQuery("SELECT .* FROM reservations WHERE address = \\$1").
		WillReturnRows(reservationRows(reservationAddress, guestAddress, model.HostAddress("bob")))
	mock.ExpectQuery("FROM guests WHERE address").
		WillReturnRows(guestRows(guestAddress, "ada"))
	mock.ExpectQuery("SELECT balance_id, indicator").
		WillReturnRows(balanceRows("bln_guest", guestAddress, 1000))
	mock.ExpectQuery("SELECT balance_id, indicator").
		WillReturnRows(balanceRows("bln_treasury", config.DefaultTreasuryIndicator, 0))

	_, err := p.CreateEscrow(context.Background(), EscrowRequest{
		ReservationID:  reservationAddress,
		EscrowID:       1,
		Amount:         100000,
		GuestAuthority: "ada",
	})
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrInsufficientFunds, apiErr.Code)
}

func TestCreateEscrow_RejectsNonPositiveAmount(t *testing.T) {
	p, _ := newTestPerch(t)

	_, err := p.CreateEscrow(context.Background(), EscrowRequest{
		ReservationID:  "rsv_address",
		EscrowID:       1,
		Amount:         0,
		GuestAuthority: "ada",
	})
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrInvalidInput, apiErr.Code)
}

func escrowRow(address string, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"escrow_id", "address", "reservation_id", "guest_id", "host_id", "amount", "platform_fee", "status", "created_at", "release_date", "meta_data"}).
		AddRow(1, address, "rsv_address", "gst_address", "hst_address", 100000, 5000, status, time.Now().Unix(), time.Now().Add(72*time.Hour).Unix(), []byte(`{}`))
}

func TestReleaseEscrow(t *testing.T) {
	p, mock := newTestPerch(t)

	address := model.EscrowAddress("rsv_address", 1)

	mock.ExpectQuery("SELECT .* FROM escrows WHERE address = \\$1").
		WithArgs(address).
		WillReturnRows(escrowRow(address, model.StatusFunded))
	mock.ExpectQuery("SELECT balance_id, indicator").
		WithArgs(config.DefaultTreasuryIndicator, "PERCH").
		WillReturnRows(balanceRows("bln_treasury", config.DefaultTreasuryIndicator, 100000))
	mock.ExpectQuery("SELECT balance_id, indicator").
		WithArgs("hst_address", "PERCH").
		WillReturnRows(balanceRows("bln_host", "hst_address", 0))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE escrows SET status").
		WithArgs(address, model.StatusReleased, model.StatusFunded).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE balances").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE balances").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO transfers").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT escrow_id, address").
		WithArgs(address).
		WillReturnRows(escrowRow(address, model.StatusReleased))
	mock.ExpectCommit()

	released, err := p.ReleaseEscrow(context.Background(), address, "platform-admin")
	assert.NoError(t, err)
	assert.Equal(t, model.StatusReleased, released.Status)
}

func TestReleaseEscrow_WrongAuthority(t *testing.T) {
	p, _ := newTestPerch(t)

	_, err := p.ReleaseEscrow(context.Background(), "escrow_address", "mallory")
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrUnauthorized, apiErr.Code)
}

func TestReleaseEscrow_AlreadyReleased(t *testing.T) {
	p, mock := newTestPerch(t)

	address := model.EscrowAddress("rsv_address", 1)

	mock.ExpectQuery("SELECT .* FROM escrows WHERE address = \\$1").
		WithArgs(address).
		WillReturnRows(escrowRow(address, model.StatusReleased))

	_, err := p.ReleaseEscrow(context.Background(), address, "platform-admin")
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrInvalidState, apiErr.Code)
}

func TestMockPerchOverridesGetEscrow(t *testing.T) {
	p, _ := newTestPerch(t)

	address := model.EscrowAddress("rsv_address", 9)
	m := &MockPerch{
		Perch: *p,
		mockGetEscrow: func(addr string) (*model.Escrow, error) {
			return &model.Escrow{Address: addr, Status: model.StatusFunded}, nil
		},
	}

	esc, err := m.GetEscrow(address)
	require.NoError(t, err)
	assert.Equal(t, address, esc.Address)
	assert.Equal(t, model.StatusFunded, esc.Status)
}
