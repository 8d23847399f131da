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
	"embed"

	"github.com/redis/go-redis/v9"
	"github.com/typesense/typesense-go/typesense/api"

	"github.com/perchstay/perch/config"
	"github.com/perchstay/perch/database"
	redis_db "github.com/perchstay/perch/internal/redis-db"
	"github.com/perchstay/perch/internal/search"
)

// Perch is the payment-escrow service for the stay marketplace. It owns the
// datasource, the task queue, the search index and the redis client used for
// distributed locks.
type Perch struct {
	queue      *Queue
	search     *search.TypesenseClient
	redis      redis.UniversalClient
	datasource database.IDataSource
}

//go:embed sql/*.sql
var SQLFiles embed.FS

// NewPerch initializes the service with the provided datasource.
func NewPerch(db database.IDataSource) (*Perch, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis_db.NewRedisClient([]string{configuration.Redis.Dns}, configuration.Redis.SkipTLSVerify)
	if err != nil {
		return nil, err
	}
	newQueue := NewQueue(configuration)
	newSearch := search.NewTypesenseClient(configuration.TypeSenseKey, []string{configuration.TypeSense.Dns})

	return &Perch{datasource: db, queue: newQueue, redis: redisClient.Client(), search: newSearch}, nil
}

// Search runs a query against the given search collection.
func (p *Perch) Search(collection string, query *api.SearchCollectionParams) (interface{}, error) {
	return p.search.Search(context.Background(), collection, query)
}
