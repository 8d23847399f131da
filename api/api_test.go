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
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perchstay/perch"
	"github.com/perchstay/perch/config"
	"github.com/perchstay/perch/database"
	"github.com/perchstay/perch/model"
)

type TestRequest struct {
	Payload  io.Reader
	Router   *gin.Engine
	Response interface{}
	Method   string
	Route    string
	Header   map[string]string
}

func SetUpTestRequest(s TestRequest) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(s.Method, s.Route, s.Payload)
	for key, value := range s.Header {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	s.Router.ServeHTTP(resp, req)

	err := json.NewDecoder(resp.Body).Decode(&s.Response)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func setupRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	config.MockConfig(&config.Configuration{
		Redis: config.RedisConfig{Dns: mr.Addr()},
		Platform: config.PlatformConfig{
			Authority:  "platform-admin",
			FeeRateBps: 500,
		},
	})

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	datasource := &database.Datasource{Conn: db}

	newPerch, err := perch.NewPerch(datasource)
	require.NoError(t, err)
	router := NewAPI(newPerch).Router()

	return router, mock
}

func TestCreateHostAPI(t *testing.T) {
	router, mock := setupRouter(t)

	mock.ExpectExec("INSERT INTO hosts").
		WillReturnResult(sqlmock.NewResult(1, 1))

	payload, err := json.Marshal(map[string]interface{}{
		"author": "bob",
		"name":   "Bob",
		"email":  "bob@example.com",
	})
	require.NoError(t, err)

	var response model.Host
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  bytes.NewBuffer(payload),
		Router:   router,
		Response: &response,
		Method:   http.MethodPost,
		Route:    "/hosts",
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Code)
}

func TestCreateHostAPI_MissingAuthor(t *testing.T) {
	router, _ := setupRouter(t)

	payload, err := json.Marshal(map[string]interface{}{
		"name": "Bob",
	})
	require.NoError(t, err)

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  bytes.NewBuffer(payload),
		Router:   router,
		Response: &response,
		Method:   http.MethodPost,
		Route:    "/hosts",
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetEscrowAPI(t *testing.T) {
	router, mock := setupRouter(t)

	address := model.EscrowAddress("rsv_address", 1)
	rows := sqlmock.NewRows([]string{"escrow_id", "address", "reservation_id", "guest_id", "host_id", "amount", "platform_fee", "status", "created_at", "release_date", "meta_data"}).
		AddRow(1, address, "rsv_address", "gst_address", "hst_address", 100000, 5000, model.StatusFunded, time.Now().Unix(), time.Now().Unix(), []byte(`{}`))

	mock.ExpectQuery("SELECT escrow_id, address").
		WithArgs(address).
		WillReturnRows(rows)

	var response model.Escrow
	resp, err := SetUpTestRequest(TestRequest{
		Router:   router,
		Response: &response,
		Method:   http.MethodGet,
		Route:    "/escrows/" + address,
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, address, response.Address)
	assert.Equal(t, model.StatusFunded, response.Status)
}

func TestGetEscrowAPI_NotFound(t *testing.T) {
	router, mock := setupRouter(t)

	mock.ExpectQuery("SELECT escrow_id, address").
		WillReturnRows(sqlmock.NewRows([]string{"escrow_id"}))

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Router:   router,
		Response: &response,
		Method:   http.MethodGet,
		Route:    "/escrows/missing_address",
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestReleaseEscrowAPI_WrongAuthority(t *testing.T) {
	router, _ := setupRouter(t)

	payload, err := json.Marshal(map[string]interface{}{
		"authority": "mallory",
	})
	require.NoError(t, err)

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  bytes.NewBuffer(payload),
		Router:   router,
		Response: &response,
		Method:   http.MethodPost,
		Route:    "/escrows/some_address/release",
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestFundEscrowAPI_InvalidPayload(t *testing.T) {
	router, _ := setupRouter(t)

	payload, err := json.Marshal(map[string]interface{}{
		"escrow_id": 1,
		"amount":    "100.00",
	})
	require.NoError(t, err)

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  bytes.NewBuffer(payload),
		Router:   router,
		Response: &response,
		Method:   http.MethodPost,
		Route:    "/escrows",
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
