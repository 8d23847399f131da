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

// CreateHost registers a host profile. The host address is derived from the
// author identity, so the same author cannot register twice.
func (p *Perch) CreateHost(ctx context.Context, host model.Host, password string) (model.Host, error) {
	if host.Author == "" {
		return model.Host{}, apierror.NewAPIError(apierror.ErrInvalidInput, "Host author is required", nil)
	}

	if password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return model.Host{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to hash password", err)
		}
		host.HashedPassword = string(hashed)
	}

	host.Address = model.HostAddress(host.Author)
	return p.datasource.CreateHost(ctx, host)
}

// GetHost retrieves a host by its derived address.
func (p *Perch) GetHost(ctx context.Context, address string) (*model.Host, error) {
	return p.datasource.GetHost(ctx, address)
}
