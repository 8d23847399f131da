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

	"golang.org/x/crypto/bcrypt"

	"github.com/perchstay/perch/internal/apierror"
	"github.com/perchstay/perch/model"
)

// CreateGuest registers a guest profile.
func (p *Perch) CreateGuest(ctx context.Context, guest model.Guest, password string) (model.Guest, error) {
	if guest.Author == "" {
		return model.Guest{}, apierror.NewAPIError(apierror.ErrInvalidInput, "Guest author is required", nil)
	}

	if password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return model.Guest{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to hash password", err)
		}
		guest.HashedPassword = string(hashed)
	}

	guest.Address = model.GuestAddress(guest.Author)
	return p.datasource.CreateGuest(ctx, guest)
}

// GetGuest retrieves a guest by its derived address.
func (p *Perch) GetGuest(ctx context.Context, address string) (*model.Guest, error) {
	return p.datasource.GetGuest(ctx, address)
}
