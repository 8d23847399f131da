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

	"github.com/perchstay/perch/model"
)

// GetTransfer retrieves a single transfer by its ID.
func (p *Perch) GetTransfer(ctx context.Context, transferID string) (*model.Transfer, error) {
	return p.datasource.GetTransfer(ctx, transferID)
}

// GetTransfersByEscrow lists the transfers recorded against an escrow, oldest
// first. A released escrow has two: the funding leg and the release leg.
func (p *Perch) GetTransfersByEscrow(ctx context.Context, escrowAddress string) ([]*model.Transfer, error) {
	return p.datasource.GetTransfersByEscrow(ctx, escrowAddress)
}
