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
	"encoding/json"
	"sort"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"github.com/texttheater/golang-levenshtein/levenshtein"
	"github.com/typesense/typesense-go/typesense/api"
	"github.com/wacul/ptr"

	"github.com/perchstay/perch/internal/search"
	"github.com/perchstay/perch/model"
)

// maxTitleDistance bounds how fuzzy the fallback title match may be.
const maxTitleDistance = 5

// SearchListings finds listings matching a free-text query. The search index
// answers when it is reachable; otherwise the query falls back to a
// typo-tolerant scan over stored listings ranked by edit distance.
func (p *Perch) SearchListings(ctx context.Context, query string, limit int) ([]*model.Listing, error) {
	if limit <= 0 {
		limit = 20
	}

	result, err := p.search.Search(ctx, search.CollectionListings, &api.SearchCollectionParams{
		Q:       query,
		QueryBy: "title,description,category",
		PerPage: ptr.Int(limit),
	})
	if err == nil && result.Hits != nil {
		return hitsToListings(*result.Hits), nil
	}
	if err != nil {
		logrus.Warnf("search index unavailable, falling back to fuzzy scan: %v", err)
	}

	return p.fuzzyListingScan(ctx, query, limit)
}

func hitsToListings(hits []api.SearchResultHit) []*model.Listing {
	listings := make([]*model.Listing, 0, len(hits))
	for _, hit := range hits {
		if hit.Document == nil {
			continue
		}
		raw, err := json.Marshal(*hit.Document)
		if err != nil {
			continue
		}
		listing := &model.Listing{}
		if err := json.Unmarshal(raw, listing); err != nil {
			continue
		}
		listings = append(listings, listing)
	}
	return listings
}

// fuzzyListingScan ranks stored listings by edit distance between the query
// and the listing title.
func (p *Perch) fuzzyListingScan(ctx context.Context, query string, limit int) ([]*model.Listing, error) {
	candidates, err := p.datasource.GetAllListings(ctx, 500, 0)
	if err != nil {
		return nil, err
	}

	type scored struct {
		listing  *model.Listing
		distance int
	}

	q := strings.ToLower(query)
	matches := []scored{}
	for _, listing := range candidates {
		title := strings.ToLower(listing.Title)
		if strings.Contains(title, q) {
			matches = append(matches, scored{listing, 0})
			continue
		}
		distance := levenshtein.DistanceForStrings([]rune(q), []rune(title), levenshtein.DefaultOptions)
		if distance <= maxTitleDistance {
			matches = append(matches, scored{listing, distance})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	listings := make([]*model.Listing, 0, limit)
	for _, m := range matches {
		if len(listings) == limit {
			break
		}
		listings = append(listings, m.listing)
	}
	return listings, nil
}

// ProcessIndexData handles a queued indexing task by upserting the document
// into its search collection.
func (p *Perch) ProcessIndexData(ctx context.Context, task *asynq.Task) error {
	var payload struct {
		Collection string                 `json:"collection"`
		Payload    map[string]interface{} `json:"payload"`
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}
	return p.search.HandleNotification(ctx, payload.Collection, payload.Payload)
}

// EnsureSearchCollections creates the search collections if they don't exist.
func (p *Perch) EnsureSearchCollections(ctx context.Context) error {
	return p.search.EnsureCollectionsExist(ctx)
}
