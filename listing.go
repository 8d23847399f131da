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

	"github.com/perchstay/perch/internal/apierror"
	"github.com/perchstay/perch/internal/notification"
	"github.com/perchstay/perch/internal/search"
	"github.com/perchstay/perch/model"
)

// CreateListing publishes a listing under a host. The listing ID is the
// host's next sequence number; the address is derived from the host address
// and that ID.
func (p *Perch) CreateListing(ctx context.Context, listing model.Listing) (model.Listing, error) {
	if listing.Title == "" {
		return model.Listing{}, apierror.NewAPIError(apierror.ErrInvalidInput, "Listing title is required", nil)
	}
	if listing.PricePerNight <= 0 {
		return model.Listing{}, apierror.NewAPIError(apierror.ErrInvalidInput, "Listing price must be positive", nil)
	}

	host, err := p.datasource.GetHost(ctx, listing.HostID)
	if err != nil {
		return model.Listing{}, err
	}

	listing.ListingID = host.ListingCount + 1
	listing.Address = model.ListingAddress(host.Address, listing.ListingID)
	listing.IsActive = true

	created, err := p.datasource.CreateListing(ctx, listing)
	if err != nil {
		return model.Listing{}, err
	}

	go func() {
		if err := p.queue.queueIndexData(created.Address, search.CollectionListings, created); err != nil {
			notification.NotifyError(err)
		}
	}()

	return created, nil
}

// GetListing retrieves a listing by its derived address.
func (p *Perch) GetListing(ctx context.Context, address string) (*model.Listing, error) {
	return p.datasource.GetListing(ctx, address)
}

// GetListingsByHost lists a host's listings.
func (p *Perch) GetListingsByHost(ctx context.Context, hostAddress string) ([]*model.Listing, error) {
	return p.datasource.GetListingsByHost(ctx, hostAddress)
}

// GetAllListings lists listings with pagination.
func (p *Perch) GetAllListings(ctx context.Context, limit, offset int) ([]*model.Listing, error) {
	return p.datasource.GetAllListings(ctx, limit, offset)
}
