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
	"github.com/perchstay/perch/model"
)

// CreateBalance creates a new balance for the given indicator.
func (p *Perch) CreateBalance(ctx context.Context, balance model.Balance) (model.Balance, error) {
	return p.datasource.CreateBalance(balance)
}

// GetBalanceByIndicator looks up a balance by its indicator and currency.
func (p *Perch) GetBalanceByIndicator(ctx context.Context, indicator, currency string) (*model.Balance, error) {
	return p.datasource.GetBalanceByIndicator(indicator, currency)
}

// getOrCreateBalanceByIndicator returns the balance for an indicator,
// creating an empty one on first use. Guests and hosts get a balance lazily
// the first time value moves through them.
func (p *Perch) getOrCreateBalanceByIndicator(ctx context.Context, indicator, currency string) (*model.Balance, error) {
	balance, err := p.datasource.GetBalanceByIndicator(indicator, currency)
	if err == nil {
		return balance, nil
	}
	apiErr, ok := err.(apierror.APIError)
	if !ok || apiErr.Code != apierror.ErrNotFound {
		return nil, err
	}

	created, err := p.datasource.CreateBalance(model.Balance{
		Indicator: indicator,
		Currency:  currency,
	})
	if err != nil {
		return nil, err
	}
	created.InitializeBalanceFields()
	return &created, nil
}
