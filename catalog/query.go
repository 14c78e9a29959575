package catalog

import (
	"strconv"

	"github.com/mrasu/egholdings/catalog/gateway"
)

const (
	catService    = "open-ils.cat"
	actorService  = "open-ils.actor"
	circService   = "open-ils.circ"
	searchService = "open-ils.search"

	copyTreeMethod       = "open-ils.cat.asset.copy_tree.retrieve"
	globalCopyTreeMethod = "open-ils.cat.asset.copy_tree.global.retrieve"
	orgTreeMethod        = "open-ils.actor.org_tree.retrieve"
	copyLocationMethod   = "open-ils.circ.copy_location.retrieve"
	copyStatusesMethod   = "open-ils.search.config.copy_status.retrieve.all"

	// copy tree methods take an auth token first but do not check it
	authPlaceholder = "auth_token_not_needed_for_this_call"
)

type query struct {
	orgUnit     *int64
	descendants bool
}

type QueryOption func(*query)

// AtOrgUnit limits holdings to copies owned by one org unit.
func AtOrgUnit(id int64) QueryOption {
	return func(q *query) {
		q.orgUnit = &id
	}
}

// IncludingDescendants widens AtOrgUnit to the unit and everything below it.
func IncludingDescendants() QueryOption {
	return func(q *query) {
		q.descendants = true
	}
}

func (c *Connection) CopyTreeRequest(bibID int64, opts ...QueryOption) gateway.Request {
	q := &query{}
	for _, opt := range opts {
		opt(q)
	}

	bib := strconv.FormatInt(bibID, 10)
	if q.orgUnit == nil {
		return gateway.MethodRequest(catService, globalCopyTreeMethod, authPlaceholder, bib)
	}

	ids := []int64{*q.orgUnit}
	if q.descendants {
		if expanded := c.orgUnits.WithDescendants(*q.orgUnit); len(expanded) > 0 {
			ids = expanded
		}
	}
	params := []string{authPlaceholder, bib}
	for _, id := range ids {
		params = append(params, strconv.FormatInt(id, 10))
	}
	return gateway.MethodRequest(catService, copyTreeMethod, params...)
}

func orgTreeRequest() gateway.Request {
	return gateway.MethodRequest(actorService, orgTreeMethod)
}

func copyStatusesRequest() gateway.Request {
	return gateway.MethodRequest(searchService, copyStatusesMethod)
}

func copyLocationRequest(id int64) gateway.Request {
	return gateway.MethodRequest(circService, copyLocationMethod, strconv.FormatInt(id, 10))
}
