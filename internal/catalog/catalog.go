// internal/catalog/catalog.go
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"autoease/internal/models"
)

// Catalog is an immutable, validated set of stations. It is safe to share
// between any number of sessions without locking.
type Catalog struct {
	stations []models.Station
	byID     map[string]int
}

// New validates the stations and builds a catalog. Ids must be non-empty
// and unique; unknown car types or services are rejected.
func New(stations []models.Station) (*Catalog, error) {
	c := &Catalog{
		stations: make([]models.Station, 0, len(stations)),
		byID:     make(map[string]int, len(stations)),
	}

	for i, st := range stations {
		id := strings.TrimSpace(st.ID)
		if id == "" {
			return nil, fmt.Errorf("station at index %d has an empty id", i)
		}
		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("duplicate station id %q", id)
		}
		for _, svc := range st.ServicesOffered {
			if !svc.Valid() {
				return nil, fmt.Errorf("station %q offers unknown service %q", id, svc)
			}
		}
		for _, ct := range st.CarTypesSupported {
			if !ct.Valid() {
				return nil, fmt.Errorf("station %q supports unknown car type %q", id, ct)
			}
		}
		if st.ReviewCount < 0 {
			return nil, fmt.Errorf("station %q has a negative review count", id)
		}

		cp := st.Clone()
		cp.ID = id
		c.byID[id] = len(c.stations)
		c.stations = append(c.stations, cp)
	}

	return c, nil
}

// MustNew is New for literal catalogs known to be valid.
func MustNew(stations []models.Station) *Catalog {
	c, err := New(stations)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.stations)
}

// Stations returns a copy of every station in catalog order.
func (c *Catalog) Stations() []models.Station {
	if c == nil {
		return nil
	}
	out := make([]models.Station, len(c.stations))
	for i, st := range c.stations {
		out[i] = st.Clone()
	}
	return out
}

func (c *Catalog) Lookup(id string) (models.Station, bool) {
	if c == nil {
		return models.Station{}, false
	}
	idx, ok := c.byID[id]
	if !ok {
		return models.Station{}, false
	}
	return c.stations[idx].Clone(), true
}

// Eligible returns the stations that both support carType and offer service,
// in catalog order.
func (c *Catalog) Eligible(carType models.CarType, service models.Service) []models.Station {
	if c == nil {
		return nil
	}
	out := []models.Station{}
	for _, st := range c.stations {
		if st.Supports(carType, service) {
			out = append(out, st.Clone())
		}
	}
	return out
}

// IDs returns the sorted station ids, used for cache fingerprints.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, 0, len(c.stations))
	for _, st := range c.stations {
		ids = append(ids, st.ID)
	}
	sort.Strings(ids)
	return ids
}
