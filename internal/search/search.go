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

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/typesense/typesense-go/typesense"
	"github.com/typesense/typesense-go/typesense/api"
	"github.com/wacul/ptr"
)

const (
	CollectionListings     = "listings"
	CollectionReservations = "reservations"
	CollectionEscrows      = "escrows"
)

// CollectionConfig holds the schema and normalization rules for a collection.
type CollectionConfig struct {
	Schema     *api.CollectionSchema
	IDField    string
	TimeFields []string
}

var collectionConfigs map[string]CollectionConfig

func init() {
	collectionConfigs = map[string]CollectionConfig{
		CollectionListings: {
			Schema:     getListingSchema(),
			IDField:    "address",
			TimeFields: []string{"created_at"},
		},
		CollectionReservations: {
			Schema:     getReservationSchema(),
			IDField:    "address",
			TimeFields: []string{"created_at"},
		},
		CollectionEscrows: {
			Schema:     getEscrowSchema(),
			IDField:    "address",
			TimeFields: []string{"created_at", "release_date"},
		},
	}
}

func getListingSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: CollectionListings,
		Fields: []api.Field{
			{Name: "address", Type: "string"},
			{Name: "host_id", Type: "string", Facet: ptr.Bool(true)},
			{Name: "title", Type: "string"},
			{Name: "description", Type: "string", Optional: ptr.Bool(true)},
			{Name: "category", Type: "string", Facet: ptr.Bool(true), Optional: ptr.Bool(true)},
			{Name: "country_code", Type: "string", Facet: ptr.Bool(true), Optional: ptr.Bool(true)},
			{Name: "guest_capacity", Type: "int32", Optional: ptr.Bool(true)},
			{Name: "price_per_night", Type: "int64", Optional: ptr.Bool(true)},
			{Name: "total_bookings", Type: "int64", Optional: ptr.Bool(true)},
			{Name: "is_active", Type: "bool", Optional: ptr.Bool(true)},
			{Name: "created_at", Type: "int64", Optional: ptr.Bool(true)},
		},
		DefaultSortingField: ptr.String("created_at"),
	}
}

func getReservationSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: CollectionReservations,
		Fields: []api.Field{
			{Name: "address", Type: "string"},
			{Name: "guest_id", Type: "string", Facet: ptr.Bool(true)},
			{Name: "host_id", Type: "string", Facet: ptr.Bool(true)},
			{Name: "listing_id", Type: "string", Facet: ptr.Bool(true)},
			{Name: "status", Type: "string", Facet: ptr.Bool(true)},
			{Name: "payment_status", Type: "string", Facet: ptr.Bool(true)},
			{Name: "total_price", Type: "int64", Optional: ptr.Bool(true)},
			{Name: "created_at", Type: "int64", Optional: ptr.Bool(true)},
		},
		DefaultSortingField: ptr.String("created_at"),
	}
}

func getEscrowSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: CollectionEscrows,
		Fields: []api.Field{
			{Name: "address", Type: "string"},
			{Name: "reservation_id", Type: "string", Facet: ptr.Bool(true)},
			{Name: "guest_id", Type: "string", Facet: ptr.Bool(true)},
			{Name: "host_id", Type: "string", Facet: ptr.Bool(true)},
			{Name: "status", Type: "string", Facet: ptr.Bool(true)},
			{Name: "amount", Type: "int64", Optional: ptr.Bool(true)},
			{Name: "platform_fee", Type: "int64", Optional: ptr.Bool(true)},
			{Name: "created_at", Type: "int64", Optional: ptr.Bool(true)},
			{Name: "release_date", Type: "int64", Optional: ptr.Bool(true)},
		},
		DefaultSortingField: ptr.String("created_at"),
	}
}

// TypesenseClient wraps the Typesense client.
type TypesenseClient struct {
	Client *typesense.Client
}

func NewTypesenseClient(apiKey string, hosts []string) *TypesenseClient {
	client := typesense.NewClient(
		typesense.WithServer(hosts[0]),
		typesense.WithAPIKey(apiKey),
		typesense.WithConnectionTimeout(5*time.Second),
		typesense.WithCircuitBreakerMaxRequests(50),
		typesense.WithCircuitBreakerInterval(2*time.Minute),
		typesense.WithCircuitBreakerTimeout(1*time.Minute),
	)
	return &TypesenseClient{Client: client}
}

// EnsureCollectionsExist creates any missing collections.
func (t *TypesenseClient) EnsureCollectionsExist(ctx context.Context) error {
	for name, config := range collectionConfigs {
		if _, err := t.CreateCollection(ctx, config.Schema); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
	}
	return nil
}

// CreateCollection creates a collection; an existing collection is not an error.
func (t *TypesenseClient) CreateCollection(ctx context.Context, schema *api.CollectionSchema) (*api.CollectionResponse, error) {
	resp, err := t.Client.Collections().Create(ctx, schema)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return nil, nil
		}
		return nil, err
	}
	return resp, nil
}

// Search runs a search query against a collection.
func (t *TypesenseClient) Search(ctx context.Context, collection string, searchParams *api.SearchCollectionParams) (*api.SearchResult, error) {
	return t.Client.Collection(collection).Documents().Search(ctx, searchParams)
}

// HandleNotification normalizes and upserts a changed record into its collection.
func (t *TypesenseClient) HandleNotification(ctx context.Context, collection string, data map[string]interface{}) error {
	config, ok := collectionConfigs[collection]
	if !ok {
		return fmt.Errorf("unknown collection: %s", collection)
	}

	normalizeTimeFields(config, data)
	ensureDocumentID(config, data)

	return t.upsertDocument(ctx, collection, data)
}

// JSON round-trips can leave time fields as RFC3339 strings or floats;
// Typesense wants int64 epoch seconds.
func normalizeTimeFields(config CollectionConfig, data map[string]interface{}) {
	for _, field := range config.TimeFields {
		switch v := data[field].(type) {
		case string:
			if parsed, err := time.Parse(time.RFC3339, v); err == nil {
				data[field] = parsed.Unix()
			}
		case float64:
			data[field] = int64(v)
		}
	}
}

func ensureDocumentID(config CollectionConfig, data map[string]interface{}) {
	if id, ok := data[config.IDField].(string); ok {
		data["id"] = id
	}
}

func (t *TypesenseClient) upsertDocument(ctx context.Context, collection string, data map[string]interface{}) error {
	_, err := t.Client.Collection(collection).Documents().Upsert(ctx, data)
	return err
}

// ToDocument converts a model object into the map form Typesense expects.
func ToDocument(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}
