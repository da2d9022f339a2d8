// Package catalog fronts the core service's read endpoints with the
// cache-aside layer. Every method owns its cache key; keys encode every
// parameter that affects the result so distinct requests never alias, and
// item-scoped keys share the "items:{id}" prefix so a single pattern
// sweeps them all.
package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/seafood-tracker/mobile-bff/internal/cache"
)

const (
	searchTTL    = 30 * time.Minute
	itemTTL      = 30 * time.Minute
	dashboardTTL = 30 * time.Minute
	marketsTTL   = time.Hour
)

// CoreClient is the slice of the upstream client this service needs.
type CoreClient interface {
	GetCore(ctx context.Context, path string, dest any) error
}

type Service struct {
	client CoreClient
	cache  *cache.Aside

	now func() time.Time
}

func New(client CoreClient, aside *cache.Aside) *Service {
	return NewWithTimeFunc(client, aside, time.Now)
}

func NewWithTimeFunc(client CoreClient, aside *cache.Aside, now func() time.Time) *Service {
	return &Service{
		client: client,
		cache:  aside,

		now: now,
	}
}

// Search returns the catalog items matching a free-text query.
func (s *Service) Search(ctx context.Context, query string) ([]Item, error) {
	key := "items:search:" + query

	return cache.GetOrSet(ctx, s.cache, key, searchTTL, func(ctx context.Context) ([]Item, error) {
		var out struct {
			Items []Item `json:"items"`
		}
		if err := s.client.GetCore(ctx, "/items?query="+url.QueryEscape(query), &out); err != nil {
			return nil, err
		}
		return out.Items, nil
	})
}

// GetItem returns a single catalog item by id.
func (s *Service) GetItem(ctx context.Context, id int) (Item, error) {
	key := fmt.Sprintf("items:%d", id)

	return cache.GetOrSet(ctx, s.cache, key, itemTTL, func(ctx context.Context) (Item, error) {
		var item Item
		if err := s.client.GetCore(ctx, fmt.Sprintf("/items/%d", id), &item); err != nil {
			return Item{}, err
		}
		return item, nil
	})
}

// GetDashboard returns the dashboard aggregate for an item. An empty date
// defaults to the current UTC date, so the cache key rolls over at
// midnight and yesterday's aggregate ages out on its own.
func (s *Service) GetDashboard(ctx context.Context, id int, date string) (Dashboard, error) {
	dateStr := date
	if dateStr == "" {
		dateStr = s.now().UTC().Format("2006-01-02")
	}
	key := fmt.Sprintf("items:%d:dashboard:%s", id, strings.ReplaceAll(dateStr, "-", ""))

	return cache.GetOrSet(ctx, s.cache, key, dashboardTTL, func(ctx context.Context) (Dashboard, error) {
		path := fmt.Sprintf("/items/%d/dashboard", id)
		if date != "" {
			path += "?date=" + url.QueryEscape(date)
		}

		var dashboard Dashboard
		if err := s.client.GetCore(ctx, path, &dashboard); err != nil {
			return Dashboard{}, err
		}
		return dashboard, nil
	})
}

// Markets returns the list of market descriptors.
func (s *Service) Markets(ctx context.Context) ([]Market, error) {
	return cache.GetOrSet(ctx, s.cache, "markets:list", marketsTTL, func(ctx context.Context) ([]Market, error) {
		var markets []Market
		if err := s.client.GetCore(ctx, "/markets", &markets); err != nil {
			return nil, err
		}
		return markets, nil
	})
}

// InvalidateItem sweeps every cached entry scoped to an item: the item
// itself and all of its dashboard dates. Search results are left to age
// out since they cannot be attributed to a single item. The pattern is
// anchored with a colon so invalidating item 7 never touches item 77.
func (s *Service) InvalidateItem(ctx context.Context, id int) {
	s.cache.Delete(ctx, fmt.Sprintf("items:%d", id))
	s.cache.DeletePattern(ctx, fmt.Sprintf("items:%d:*", id))
}
