// internal/availability/generator.go
package availability

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"

	"autoease/internal/catalog"
	apperrors "autoease/internal/common/errors"
	"autoease/internal/common/logger"
	"autoease/internal/common/metrics"
	"autoease/internal/models"
)

// MaxLoadCap bounds the simulated station load so routine services always
// keep more than 70% of the day.
const MaxLoadCap = 0.3

// Generator derives bookable slots from business hours, service complexity
// and a simulated per-station load. Output depends only on the seed and its
// inputs.
type Generator struct {
	hours   BusinessHours
	seed    int64
	maxLoad float64
	logger  logger.Logger
}

func NewGenerator(hours BusinessHours, seed int64, maxLoad float64, log logger.Logger) *Generator {
	if hours == nil {
		hours = DefaultSchedule()
	}
	maxLoad = math.Max(0, math.Min(maxLoad, MaxLoadCap))
	return &Generator{
		hours:   hours,
		seed:    seed,
		maxLoad: maxLoad,
		logger:  log.WithFields(map[string]interface{}{"component": "availability"}),
	}
}

// Availability returns the open slots for a station and service.
func (g *Generator) Availability(ctx context.Context, stationID string, service models.Service, cat *catalog.Catalog) ([]models.TimeSlot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st, ok := cat.Lookup(stationID)
	if !ok {
		return nil, apperrors.NewStationNotFoundError(stationID)
	}
	if !st.OffersService(service) {
		return nil, apperrors.NewServiceUnsupportedError(stationID, service.String())
	}

	base := dedupe(g.hours.Slots())
	if len(base) == 0 {
		g.logger.Warn("business hours produced no slots", map[string]interface{}{"stationId": stationID})
		return []models.TimeSlot{}, nil
	}

	window := len(base)
	complexity := "routine"
	if service.IsComplex() {
		window = max(1, len(base)/2)
		complexity = "complex"
	}
	candidates := base[:window]

	drop := int(math.Floor(float64(window) * g.StationLoad(stationID)))
	slots := g.openSlots(candidates, drop, stationID, service)

	metrics.AvailabilitySlots.WithLabelValues(complexity).Observe(float64(len(slots)))
	g.logger.Debug("availability generated", map[string]interface{}{
		"stationId": stationID,
		"service":   service,
		"window":    window,
		"dropped":   drop,
		"slots":     len(slots),
	})
	return slots, nil
}

// StationLoad is the simulated busyness of a station in [0, maxLoad).
func (g *Generator) StationLoad(stationID string) float64 {
	const buckets = 10000
	return float64(g.hash(stationID)%buckets) / buckets * g.maxLoad
}

// openSlots drops the busy candidates but never returns an empty list; the
// fallback slot always comes from candidates.
func (g *Generator) openSlots(candidates []models.TimeSlot, drop int, stationID string, service models.Service) []models.TimeSlot {
	slots := g.removeBusy(candidates, drop, stationID, service)
	if len(slots) == 0 && len(candidates) > 0 {
		idx := g.hash(stationID, service.String()) % uint64(len(candidates))
		slots = []models.TimeSlot{candidates[idx]}
	}
	return slots
}

func (g *Generator) removeBusy(candidates []models.TimeSlot, drop int, stationID string, service models.Service) []models.TimeSlot {
	if drop <= 0 {
		out := make([]models.TimeSlot, len(candidates))
		copy(out, candidates)
		return out
	}

	type scored struct {
		idx  int
		hash uint64
	}
	order := make([]scored, len(candidates))
	for i, slot := range candidates {
		order[i] = scored{idx: i, hash: g.hash(stationID, service.String(), string(slot))}
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].hash != order[j].hash {
			return order[i].hash < order[j].hash
		}
		return order[i].idx < order[j].idx
	})

	busy := make(map[int]bool, drop)
	for _, s := range order[:min(drop, len(order))] {
		busy[s.idx] = true
	}

	out := make([]models.TimeSlot, 0, len(candidates)-len(busy))
	for i, slot := range candidates {
		if !busy[i] {
			out = append(out, slot)
		}
	}
	return out
}

func (g *Generator) hash(parts ...string) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d", g.seed)
	for _, p := range parts {
		fmt.Fprintf(h, "|%s", p)
	}
	return h.Sum64()
}

func dedupe(slots []models.TimeSlot) []models.TimeSlot {
	seen := make(map[models.TimeSlot]bool, len(slots))
	out := make([]models.TimeSlot, 0, len(slots))
	for _, s := range slots {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
