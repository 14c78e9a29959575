package names

import (
	"context"
	"strconv"

	"github.com/erni27/imcache"
	"github.com/mrasu/egholdings/catalog/errs"
	"github.com/mrasu/egholdings/catalog/idl"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// AvailableStatus is the copy status name patrons can borrow from.
const AvailableStatus = "Available"

// LocationFetcher retrieves the shelving location record with the given id.
type LocationFetcher func(ctx context.Context, id int64) (*idl.Record, error)

// Cache resolves copy statuses and shelving locations to display names.
// Statuses are loaded once; locations are fetched on first use and kept for
// the lifetime of the cache. It is not safe for concurrent use.
type Cache struct {
	schema *idl.Schema
	fetch  LocationFetcher
	logger zerolog.Logger

	statuses    map[int64]string
	availableID *int64
	locations   *imcache.Cache[int64, string]
}

func New(schema *idl.Schema, fetch LocationFetcher, logger zerolog.Logger) *Cache {
	return &Cache{
		schema:    schema,
		fetch:     fetch,
		logger:    logger,
		statuses:  map[int64]string{},
		locations: imcache.New[int64, string](),
	}
}

// LoadStatuses stores every copy status record. It fails when none of them
// could be decoded, since holdings are meaningless without statuses.
func (c *Cache) LoadStatuses(records []*idl.Record) error {
	for _, rec := range records {
		ccs := c.schema.Object(rec)
		id, ok := ccs.Int("id")
		if !ok {
			c.logger.Warn().Interface("values", rec.Values).Msg("copy status without id")
			continue
		}
		name, ok := ccs.String("name")
		if !ok {
			c.logger.Warn().Int64("status", id).Msg("copy status without name")
			continue
		}
		c.statuses[id] = name

		if name == AvailableStatus && (c.availableID == nil || id < *c.availableID) {
			available := id
			c.availableID = &available
		}
	}

	if len(c.statuses) == 0 {
		return errs.StatusesUnavailable("load statuses", errors.New("server returned no copy statuses"))
	}
	c.logger.Debug().Int("count", len(c.statuses)).Msg("loaded copy statuses")
	return nil
}

// StatusName never fetches: an unknown id stays unknown for the session.
func (c *Cache) StatusName(id int64) (string, bool) {
	name, ok := c.statuses[id]
	return name, ok
}

func (c *Cache) AvailableStatusID() (int64, bool) {
	if c.availableID == nil {
		return 0, false
	}
	return *c.availableID, true
}

// LocationName returns the name of a shelving location, fetching it the first
// time. A failed fetch is not cached; the id is returned as text with ok=false.
func (c *Cache) LocationName(ctx context.Context, id int64) (string, bool) {
	if name, ok := c.locations.Get(id); ok {
		return name, true
	}

	fallback := strconv.FormatInt(id, 10)
	if c.fetch == nil {
		return fallback, false
	}
	rec, err := c.fetch(ctx, id)
	if err != nil {
		c.logger.Warn().Err(err).Int64("location", id).Msg("failed to fetch shelving location")
		return fallback, false
	}
	name, ok := c.schema.Object(rec).String("name")
	if !ok {
		c.logger.Warn().Int64("location", id).Msg("shelving location without name")
		return fallback, false
	}

	c.locations.Set(id, name, imcache.WithNoExpiration())
	return name, true
}
