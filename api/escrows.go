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
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/perchstay/perch"
	model2 "github.com/perchstay/perch/api/model"
	"github.com/perchstay/perch/internal/apierror"
)

func (a Api) FundEscrow(c *gin.Context) {
	var newEscrow model2.FundEscrow
	if err := c.ShouldBindJSON(&newEscrow); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := newEscrow.ValidateFundEscrow(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	amount := newEscrow.Amount
	if newEscrow.Precision > 1 {
		amount = amount.Mul(decimal.NewFromInt(newEscrow.Precision))
	}

	resp, err := a.perch.CreateEscrow(c.Request.Context(), perch.EscrowRequest{
		ReservationID:  newEscrow.ReservationID,
		EscrowID:       newEscrow.EscrowID,
		Amount:         amount.IntPart(),
		ReleaseDate:    newEscrow.ReleaseDate,
		GuestAuthority: newEscrow.GuestAuthority,
		MetaData:       newEscrow.MetaData,
	})
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (a Api) ReleaseEscrow(c *gin.Context) {
	address, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass the escrow address in the route /:id"})
		return
	}

	var release model2.ReleaseEscrow
	if err := c.ShouldBindJSON(&release); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := release.ValidateReleaseEscrow(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.perch.ReleaseEscrow(c.Request.Context(), address, release.Authority)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) GetEscrow(c *gin.Context) {
	address, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass the escrow address in the route /:id"})
		return
	}

	resp, err := a.perch.GetEscrow(c.Request.Context(), address)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) GetEscrowsByReservation(c *gin.Context) {
	address, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass the reservation address in the route /:id"})
		return
	}

	resp, err := a.perch.GetEscrowsByReservation(c.Request.Context(), address)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) GetAllEscrows(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
		return
	}

	resp, err := a.perch.GetAllEscrows(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) GetTransfersByEscrow(c *gin.Context) {
	address, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass the escrow address in the route /:id"})
		return
	}

	resp, err := a.perch.GetTransfersByEscrow(c.Request.Context(), address)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}
