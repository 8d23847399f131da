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

	"github.com/gin-gonic/gin"

	model2 "github.com/perchstay/perch/api/model"
	"github.com/perchstay/perch/internal/apierror"
)

func (a Api) CreateBalance(c *gin.Context) {
	var newBalance model2.CreateBalance
	if err := c.ShouldBindJSON(&newBalance); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := newBalance.ValidateCreateBalance(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.perch.CreateBalance(c.Request.Context(), newBalance.ToBalance())
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (a Api) GetBalanceByIndicator(c *gin.Context) {
	indicator, passed := c.Params.Get("indicator")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "indicator is required. pass indicator in the route /:indicator/:currency"})
		return
	}
	currency, passed := c.Params.Get("currency")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "currency is required. pass currency in the route /:indicator/:currency"})
		return
	}

	resp, err := a.perch.GetBalanceByIndicator(c.Request.Context(), indicator, currency)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}
