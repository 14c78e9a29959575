package catalog

import (
	"bytes"
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/mrasu/egholdings/catalog/errs"
	"github.com/mrasu/egholdings/catalog/gateway"
	"github.com/mrasu/egholdings/catalog/idl"
	"github.com/mrasu/egholdings/catalog/names"
	"github.com/mrasu/egholdings/catalog/orgunit"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Connection is one session with an Evergreen server. It owns the schema,
// the name cache and the org unit index, none of which are safe for
// concurrent use.
type Connection struct {
	config    Config
	transport gateway.Transport
	logger    zerolog.Logger

	schema   *idl.Schema
	names    *names.Cache
	orgUnits orgunit.Index
}

// Connect discovers the schema, loads copy statuses and indexes the org tree,
// in that order. Missing schema or statuses abort the session; a missing org
// tree only leaves owning libraries unnamed.
func Connect(ctx context.Context, config Config, opts ...Option) (*Connection, error) {
	c := &Connection{
		config:   config,
		logger:   log.Logger,
		orgUnits: orgunit.Index{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.config.Timeout == 0 {
		c.config.Timeout = DefaultTimeout
	}
	if len(c.config.Classes) == 0 {
		c.config.Classes = idl.DefaultClasses
	}
	if c.transport == nil {
		if c.config.BaseURL == "" {
			return nil, errors.New("neither a server URL nor a transport is given")
		}
		c.transport = gateway.NewClient(c.config.BaseURL, &http.Client{Timeout: c.config.Timeout})
	}
	c.logger = c.logger.With().Str("session", uuid.New().String()).Logger()

	if c.schema == nil {
		s, err := c.fetchSchema(ctx)
		if err != nil {
			return nil, err
		}
		c.schema = s
	}
	c.names = names.New(c.schema, c.fetchLocation, c.logger)

	if err := c.fetchStatuses(ctx); err != nil {
		return nil, err
	}

	if err := c.fetchOrgTree(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("org tree unavailable, owning libraries stay numeric")
	}

	c.logger.Info().Str("server", c.config.BaseURL).Int("org_units", len(c.orgUnits)).Msg("connected")
	return c, nil
}

func (c *Connection) fetchSchema(ctx context.Context) (*idl.Schema, error) {
	bs, err := c.transport.Fetch(ctx, gateway.IDLRequest())
	if err != nil {
		return nil, errs.SchemaUnavailable("fetch IDL", err)
	}
	return idl.Parse(bytes.NewReader(bs), c.config.Classes...)
}

func (c *Connection) fetchStatuses(ctx context.Context) error {
	v, err := c.call(ctx, copyStatusesRequest())
	if err != nil {
		return errs.StatusesUnavailable("fetch statuses", err)
	}
	recs, ok := idl.Records(v)
	if !ok {
		return errs.StatusesUnavailable("fetch statuses", errors.Errorf("unexpected statuses payload: %v", v))
	}
	return c.names.LoadStatuses(recs)
}

func (c *Connection) fetchOrgTree(ctx context.Context) error {
	v, err := c.call(ctx, orgTreeRequest())
	if err != nil {
		return err
	}
	root, ok := v.(*idl.Record)
	if !ok {
		return errs.MalformedTree("fetch org tree", errors.Errorf("unexpected org tree payload: %v", v))
	}
	c.orgUnits = orgunit.Build(root, c.schema)
	return nil
}

func (c *Connection) fetchLocation(ctx context.Context, id int64) (*idl.Record, error) {
	v, err := c.call(ctx, copyLocationRequest(id))
	if err != nil {
		return nil, err
	}
	rec, ok := v.(*idl.Record)
	if !ok {
		return nil, errs.TransportFailure("fetch location", errors.Errorf("unexpected location payload: %v", v))
	}
	return rec, nil
}

// call fetches a gateway method and returns the first payload element.
func (c *Connection) call(ctx context.Context, req gateway.Request) (interface{}, error) {
	bs, err := c.transport.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	payload, err := gateway.DecodePayload(bs)
	if err != nil {
		return nil, errors.Wrap(err, req.Method())
	}
	v, ok := gateway.First(payload)
	if !ok {
		return nil, errs.TransportFailure(req.Method(), errors.New("empty payload"))
	}
	return v, nil
}

// GetHoldings fetches the copies of a bibliographic record with ids resolved
// to names and copies grouped by owning library.
func (c *Connection) GetHoldings(ctx context.Context, bibID int64, opts ...QueryOption) (*Status, error) {
	tree, err := c.copyTree(ctx, bibID, opts...)
	if err != nil {
		return nil, err
	}
	return DecodeStatus(tree, c.schema, WithResolution(ctx, c.Resolution())), nil
}

// GetRawHoldings is GetHoldings without name resolution.
func (c *Connection) GetRawHoldings(ctx context.Context, bibID int64, opts ...QueryOption) (*Status, error) {
	tree, err := c.copyTree(ctx, bibID, opts...)
	if err != nil {
		return nil, err
	}
	var sopts []StatusOption
	if id, ok := c.names.AvailableStatusID(); ok {
		sopts = append(sopts, WithAvailableStatus(id))
	}
	return DecodeStatus(tree, c.schema, sopts...), nil
}

func (c *Connection) copyTree(ctx context.Context, bibID int64, opts ...QueryOption) ([]interface{}, error) {
	req := c.CopyTreeRequest(bibID, opts...)
	v, err := c.call(ctx, req)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return []interface{}{}, nil
	}
	tree, ok := v.([]interface{})
	if !ok {
		return nil, errs.TransportFailure(req.Method(), errors.Errorf("unexpected copy tree payload: %v", v))
	}
	c.logger.Debug().Int64("bib", bibID).Int("call_numbers", len(tree)).Msg("fetched copy tree")
	return tree, nil
}

func (c *Connection) Resolution() *Resolution {
	return &Resolution{Names: c.names, OrgUnits: c.orgUnits}
}

// LocationName falls back to the id as text when the location cannot be fetched.
func (c *Connection) LocationName(ctx context.Context, id int64) string {
	name, _ := c.names.LocationName(ctx, id)
	return name
}

func (c *Connection) StatusName(id int64) (string, bool) {
	return c.names.StatusName(id)
}

func (c *Connection) OrgUnitName(id int64) (string, bool) {
	return c.orgUnits.Name(id)
}

func (c *Connection) OrgUnits() orgunit.Index {
	return c.orgUnits
}

func (c *Connection) Schema() *idl.Schema {
	return c.schema
}
