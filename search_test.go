package perch

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

// The search index host is empty in tests, so SearchListings always takes the
// fuzzy fallback over stored listings.
func TestSearchListings_FuzzyFallback(t *testing.T) {
	p, mock := newTestPerch(t)

	rows := sqlmock.NewRows([]string{"listing_id", "address", "host_id", "title", "description", "image_url", "category", "room_count", "bathroom_count", "guest_capacity", "country_code", "total_bookings", "is_active", "price_per_night", "created_at", "meta_data"}).
		AddRow(1, "lst_1", "hst_address", "Cozy Cabin by the Lake", "", "", "cabin", 2, 1, 4, "US", 0, true, 25000, time.Now(), []byte(`{}`)).
		AddRow(2, "lst_2", "hst_address", "Cosy Cabine", "", "", "cabin", 2, 1, 4, "US", 0, true, 30000, time.Now(), []byte(`{}`)).
		AddRow(3, "lst_3", "hst_address", "Downtown Penthouse With a View", "", "", "apartment", 3, 2, 6, "US", 0, true, 90000, time.Now(), []byte(`{}`))

	mock.ExpectQuery("FROM listings ORDER BY created_at DESC LIMIT").
		WithArgs(500, 0).
		WillReturnRows(rows)

	listings, err := p.SearchListings(context.Background(), "cozy cabin", 10)
	assert.NoError(t, err)
	assert.Len(t, listings, 2)
	// Substring matches rank ahead of edit-distance matches.
	assert.Equal(t, "Cozy Cabin by the Lake", listings[0].Title)
	assert.Equal(t, "Cosy Cabine", listings[1].Title)
}

func TestSearchListings_LimitApplied(t *testing.T) {
	p, mock := newTestPerch(t)

	rows := sqlmock.NewRows([]string{"listing_id", "address", "host_id", "title", "description", "image_url", "category", "room_count", "bathroom_count", "guest_capacity", "country_code", "total_bookings", "is_active", "price_per_night", "created_at", "meta_data"}).
		AddRow(1, "lst_1", "hst_address", "Beach House", "", "", "house", 4, 2, 8, "US", 0, true, 40000, time.Now(), []byte(`{}`)).
		AddRow(2, "lst_2", "hst_address", "Beach House Deluxe", "", "", "house", 5, 3, 10, "US", 0, true, 60000, time.Now(), []byte(`{}`))

	mock.ExpectQuery("FROM listings ORDER BY created_at DESC LIMIT").
		WithArgs(500, 0).
		WillReturnRows(rows)

	listings, err := p.SearchListings(context.Background(), "beach house", 1)
	assert.NoError(t, err)
	assert.Len(t, listings, 1)
}

func TestSearchListings_NoMatch(t *testing.T) {
	p, mock := newTestPerch(t)

	rows := sqlmock.NewRows([]string{"listing_id", "address", "host_id", "title", "description", "image_url", "category", "room_count", "bathroom_count", "guest_capacity", "country_code", "total_bookings", "is_active", "price_per_night", "created_at", "meta_data"}).
		AddRow(1, "lst_1", "hst_address", "Downtown Penthouse With a View", "", "", "apartment", 3, 2, 6, "US", 0, true, 90000, time.Now(), []byte(`{}`))

	mock.ExpectQuery("FROM listings ORDER BY created_at DESC LIMIT").
		WithArgs(500, 0).
		WillReturnRows(rows)

	listings, err := p.SearchListings(context.Background(), "mountain chalet retreat", 10)
	assert.NoError(t, err)
	assert.Len(t, listings, 0)
}
