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

type MockPerch struct {
	Perch
	mockGetEscrow func(string) (*model.Escrow, error)
}

func (m *MockPerch) GetEscrow(address string) (*model.Escrow, error) {
	if m.mockGetEscrow != nil {
		return m.mockGetEscrow(address)
	}
	return m.Perch.GetEscrow(context.Background(), address)
}
