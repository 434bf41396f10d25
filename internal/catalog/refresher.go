// internal/catalog/refresher.go
package catalog

import (
	"context"
	"sync/atomic"
	"time"

	"autoease/internal/common/logger"

	"github.com/robfig/cron/v3"
)

// Holder publishes the current catalog. Readers take a snapshot with
// Current and keep using it; a reload never mutates a published catalog.
type Holder struct {
	current atomic.Pointer[Catalog]
}

func NewHolder(c *Catalog) *Holder {
	h := &Holder{}
	h.current.Store(c)
	return h
}

func (h *Holder) Current() *Catalog {
	return h.current.Load()
}

func (h *Holder) Swap(c *Catalog) {
	h.current.Store(c)
}

// Refresher reloads the catalog from its source on a cron schedule. A failed
// reload keeps the previous catalog in place.
type Refresher struct {
	source  Source
	holder  *Holder
	logger  logger.Logger
	timeout time.Duration
	cron    *cron.Cron
}

func NewRefresher(source Source, holder *Holder, log logger.Logger) *Refresher {
	return &Refresher{
		source:  source,
		holder:  holder,
		logger:  log.WithFields(map[string]interface{}{"component": "catalog-refresher", "source": source.Name()}),
		timeout: 30 * time.Second,
		cron:    cron.New(),
	}
}

// Refresh performs one reload immediately.
func (r *Refresher) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	c, err := Build(ctx, r.source, r.logger)
	if err != nil {
		r.logger.Error("catalog refresh failed, keeping previous catalog", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}

	r.holder.Swap(c)
	return nil
}

// Start schedules Refresh with a standard five-field cron spec. An empty
// spec leaves the catalog static.
func (r *Refresher) Start(schedule string) error {
	if schedule == "" {
		return nil
	}

	if _, err := r.cron.AddFunc(schedule, func() {
		_ = r.Refresh(context.Background())
	}); err != nil {
		return err
	}

	r.cron.Start()
	r.logger.Info("catalog refresh scheduled", map[string]interface{}{"schedule": schedule})
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
}
