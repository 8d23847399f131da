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
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"

	"github.com/perchstay/perch/internal/apierror"
	"github.com/perchstay/perch/model"
)

func mapStayInsertError(err error, entity string) error {
	pqErr, ok := err.(*pq.Error)
	if ok {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("%s already exists", entity), err)
		case "foreign_key_violation":
			return apierror.NewAPIError(apierror.ErrBadRequest, fmt.Sprintf("Invalid reference for %s", entity), err)
		default:
			return apierror.NewAPIError(apierror.ErrInternalServer, "Database error occurred", err)
		}
	}
	return apierror.NewAPIError(apierror.ErrInternalServer, fmt.Sprintf("Failed to create %s", entity), err)
}

// CreateHost registers a host profile. The address is derived from the
// author identity, so registering the same author twice conflicts.
func (d Datasource) CreateHost(ctx context.Context, host model.Host) (model.Host, error) {
	metaDataJSON, err := json.Marshal(host.MetaData)
	if err != nil {
		return model.Host{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	host.CreatedAt = time.Now()

	_, err = d.Conn.ExecContext(ctx, `
		INSERT INTO hosts (address, author, name, email, image_url, hashed_password, listing_count, created_at, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, host.Address, host.Author, host.Name, host.Email, host.Image, host.HashedPassword, host.ListingCount, host.CreatedAt, metaDataJSON)
	if err != nil {
		return model.Host{}, mapStayInsertError(err, "Host")
	}
	return host, nil
}

// GetHost retrieves a host by its derived address.
func (d Datasource) GetHost(ctx context.Context, address string) (*model.Host, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT address, author, name, email, image_url, listing_count, created_at, meta_data
		FROM hosts WHERE address = $1
	`, address)

	host := &model.Host{}
	metaDataJSON := []byte{}
	err := row.Scan(&host.Address, &host.Author, &host.Name, &host.Email, &host.Image, &host.ListingCount, &host.CreatedAt, &metaDataJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Host with address '%s' not found", address), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan host data", err)
	}
	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &host.MetaData); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal metadata", err)
		}
	}
	return host, nil
}

// CreateGuest registers a guest profile.
func (d Datasource) CreateGuest(ctx context.Context, guest model.Guest) (model.Guest, error) {
	metaDataJSON, err := json.Marshal(guest.MetaData)
	if err != nil {
		return model.Guest{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	guest.CreatedAt = time.Now()

	_, err = d.Conn.ExecContext(ctx, `
		INSERT INTO guests (address, author, name, email, image_url, hashed_password, phone_number, reservation_count, created_at, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, guest.Address, guest.Author, guest.Name, guest.Email, guest.Image, guest.HashedPassword, guest.PhoneNumber, guest.ReservationCount, guest.CreatedAt, metaDataJSON)
	if err != nil {
		return model.Guest{}, mapStayInsertError(err, "Guest")
	}
	return guest, nil
}

// GetGuest retrieves a guest by its derived address.
func (d Datasource) GetGuest(ctx context.Context, address string) (*model.Guest, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT address, author, name, email, image_url, phone_number, reservation_count, created_at, meta_data
		FROM guests WHERE address = $1
	`, address)

	guest := &model.Guest{}
	metaDataJSON := []byte{}
	err := row.Scan(&guest.Address, &guest.Author, &guest.Name, &guest.Email, &guest.Image, &guest.PhoneNumber, &guest.ReservationCount, &guest.CreatedAt, &metaDataJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Guest with address '%s' not found", address), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan guest data", err)
	}
	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &guest.MetaData); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal metadata", err)
		}
	}
	return guest, nil
}

// CreateListing inserts a listing and bumps the host's listing counter in the
// same transaction. The counter only ever moves forward.
func (d Datasource) CreateListing(ctx context.Context, listing model.Listing) (model.Listing, error) {
	metaDataJSON, err := json.Marshal(listing.MetaData)
	if err != nil {
		return model.Listing{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	listing.CreatedAt = time.Now()

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return model.Listing{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO listings (listing_id, address, host_id, title, description, image_url, category, room_count, bathroom_count, guest_capacity, country_code, is_active, price_per_night, created_at, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, listing.ListingID, listing.Address, listing.HostID, listing.Title, listing.Description, listing.ImageURL,
		listing.Category, listing.RoomCount, listing.BathroomCount, listing.GuestCapacity, listing.CountryCode,
		listing.IsActive, listing.PricePerNight, listing.CreatedAt, metaDataJSON)
	if err != nil {
		return model.Listing{}, mapStayInsertError(err, "Listing")
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE hosts SET listing_count = listing_count + 1 WHERE address = $1
	`, listing.HostID)
	if err != nil {
		return model.Listing{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update host listing count", err)
	}

	if err := tx.Commit(); err != nil {
		return model.Listing{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}

	return listing, nil
}

const listingColumns = `listing_id, address, host_id, title, description, image_url, category, room_count, bathroom_count, guest_capacity, country_code, total_bookings, is_active, price_per_night, created_at, meta_data`

func scanListingRow(scan func(dest ...interface{}) error) (*model.Listing, error) {
	listing := &model.Listing{}
	metaDataJSON := []byte{}
	err := scan(&listing.ListingID, &listing.Address, &listing.HostID, &listing.Title, &listing.Description,
		&listing.ImageURL, &listing.Category, &listing.RoomCount, &listing.BathroomCount, &listing.GuestCapacity,
		&listing.CountryCode, &listing.TotalBookings, &listing.IsActive, &listing.PricePerNight, &listing.CreatedAt, &metaDataJSON)
	if err != nil {
		return nil, err
	}
	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &listing.MetaData); err != nil {
			return nil, err
		}
	}
	return listing, nil
}

// GetListing retrieves a listing by its derived address.
func (d Datasource) GetListing(ctx context.Context, address string) (*model.Listing, error) {
	row := d.Conn.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE address = $1`, address)
	listing, err := scanListingRow(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Listing with address '%s' not found", address), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan listing data", err)
	}
	return listing, nil
}

// GetListingsByHost lists a host's listings, newest first.
func (d Datasource) GetListingsByHost(ctx context.Context, hostAddress string) ([]*model.Listing, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+listingColumns+` FROM listings WHERE host_id = $1 ORDER BY created_at DESC
	`, hostAddress)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to fetch listings", err)
	}
	defer rows.Close()
	return collectListings(rows)
}

// GetAllListings retrieves listings with limit/offset pagination. Pages are
// cached briefly since the fuzzy search fallback scans them repeatedly.
func (d Datasource) GetAllListings(ctx context.Context, limit, offset int) ([]*model.Listing, error) {
	cacheKey := fmt.Sprintf("listings:paginated:%d:%d", limit, offset)

	var listings []*model.Listing
	if d.Cache != nil {
		err := d.Cache.Get(ctx, cacheKey, &listings)
		if err == nil && len(listings) > 0 {
			return listings, nil
		}
	}

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+listingColumns+` FROM listings ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to fetch listings", err)
	}
	defer rows.Close()

	listings, err = collectListings(rows)
	if err != nil {
		return nil, err
	}

	if d.Cache != nil && len(listings) > 0 {
		if err := d.Cache.Set(ctx, cacheKey, listings, 5*time.Minute); err != nil {
			log.Printf("Failed to cache listings: %v", err)
		}
	}

	return listings, nil
}

func collectListings(rows *sql.Rows) ([]*model.Listing, error) {
	listings := []*model.Listing{}
	for rows.Next() {
		listing, err := scanListingRow(rows.Scan)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan listing data", err)
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error iterating listings", err)
	}
	return listings, nil
}
