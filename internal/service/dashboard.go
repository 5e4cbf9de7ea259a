package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/andresuchdata/invpulse/internal/cache"
	"github.com/andresuchdata/invpulse/internal/domain"
	"github.com/andresuchdata/invpulse/internal/inventory"
	"github.com/andresuchdata/invpulse/internal/sheet"
)

const (
	SourceUpload = "upload"

	defaultFetchTimeout = 2 * time.Minute
)

var (
	// ErrNoSnapshot is returned while no spreadsheet has been loaded.
	ErrNoSnapshot = errors.New("no inventory loaded")
	// ErrEmptyUpload is returned for a load without rows; the current
	// snapshot stays in place.
	ErrEmptyUpload = errors.New("upload contains no rows")
	// ErrSuperseded is returned when a newer load or a reset finished first.
	ErrSuperseded = errors.New("load superseded by a newer one")
)

// Dashboard owns the current inventory snapshot. Every load builds a new
// snapshot off-lock and publishes it whole; loads are ticketed in start
// order and a load that finishes after a newer one is discarded.
type Dashboard struct {
	reconciler   *inventory.Reconciler
	cache        cache.MetricsCache
	now          func() time.Time
	fetchTimeout time.Duration

	tickets atomic.Uint64
	remote  singleflight.Group

	mu        sync.RWMutex
	current   *domain.Snapshot
	published uint64
}

type Option func(*Dashboard)

// WithFetchTimeout bounds a remote download shared by concurrent loads.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(d *Dashboard) {
		if timeout > 0 {
			d.fetchTimeout = timeout
		}
	}
}

// WithClock replaces time.Now for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) {
		if now != nil {
			d.now = now
		}
	}
}

func NewDashboard(reconciler *inventory.Reconciler, metricsCache cache.MetricsCache, opts ...Option) *Dashboard {
	if reconciler == nil {
		reconciler = inventory.NewReconciler()
	}
	if metricsCache == nil {
		metricsCache = cache.NewNoopMetricsCache()
	}
	d := &Dashboard{
		reconciler:   reconciler,
		cache:        metricsCache,
		now:          time.Now,
		fetchTimeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type loadMeta struct {
	source   string
	fileName string
	period   domain.Period
	cacheKey string
}

// Upload publishes already decoded rows, e.g. a JSON payload.
func (d *Dashboard) Upload(ctx context.Context, source string, rows []inventory.RawRow) (*domain.Snapshot, error) {
	if source == "" {
		source = SourceUpload
	}
	p, _ := PeriodFromRows(rows)
	return d.load(ctx, d.tickets.Add(1), rows, loadMeta{source: source, period: p})
}

// LoadFile decodes a .csv or .xlsx file and publishes its rows.
func (d *Dashboard) LoadFile(ctx context.Context, name string, data []byte) (*domain.Snapshot, error) {
	return d.loadBytes(ctx, d.tickets.Add(1), SourceUpload, name, data)
}

// LoadRemote fetches one spreadsheet from src and publishes it. Concurrent
// requests for the same file through the same scope share a download.
func (d *Dashboard) LoadRemote(ctx context.Context, src domain.FileSource, ref string) (*domain.Snapshot, error) {
	ticket := d.tickets.Add(1)
	name := domain.SourceName(src)
	f, err := d.fetch(ctx, src, "ref="+ref, func(ctx context.Context) (*domain.RemoteFile, error) {
		return src.Fetch(ctx, ref)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s from %s: %w", ref, name, err)
	}
	return d.loadBytes(ctx, ticket, name, f.Name, f.Data)
}

// LoadLatest publishes the most recently modified spreadsheet of src.
func (d *Dashboard) LoadLatest(ctx context.Context, src domain.FileSource) (*domain.Snapshot, error) {
	ticket := d.tickets.Add(1)
	name := domain.SourceName(src)
	f, err := d.fetch(ctx, src, "latest", func(ctx context.Context) (*domain.RemoteFile, error) {
		return src.Latest(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch latest from %s: %w", name, err)
	}
	return d.loadBytes(ctx, ticket, name, f.Name, f.Data)
}

// fetch runs fn once per scope and target. The shared download is detached
// from any single caller; a caller that gives up only stops waiting.
func (d *Dashboard) fetch(ctx context.Context, src domain.FileSource, target string, fn func(context.Context) (*domain.RemoteFile, error)) (*domain.RemoteFile, error) {
	scope, ok := domain.FetchScope(src)
	if !ok {
		return fn(ctx)
	}

	key := scope + "|" + target
	ch := d.remote.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.fetchTimeout)
		defer cancel()
		return fn(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			log.Debug().Str("key", key).Msg("dashboard: shared remote fetch")
		}
		return res.Val.(*domain.RemoteFile), nil
	}
}

func (d *Dashboard) loadBytes(ctx context.Context, ticket uint64, source, name string, data []byte) (*domain.Snapshot, error) {
	rows, err := sheet.Decode(name, data)
	if errors.Is(err, sheet.ErrEmptyFile) {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyUpload)
	}
	if err != nil {
		return nil, err
	}
	return d.load(ctx, ticket, rows, loadMeta{
		source:   source,
		fileName: name,
		period:   detectPeriod(name, rows),
		cacheKey: cache.MetricsKey(data, d.reconciler.Margin()),
	})
}

func (d *Dashboard) load(ctx context.Context, ticket uint64, rows []inventory.RawRow, meta loadMeta) (*domain.Snapshot, error) {
	if len(rows) == 0 {
		log.Warn().Str("source", meta.source).Msg("dashboard: ignoring load without rows")
		return nil, ErrEmptyUpload
	}

	start := d.now()
	products := d.reconciler.Reconcile(inventory.Normalize(rows))

	snap := &domain.Snapshot{
		Version:    ticket,
		Source:     meta.source,
		FileName:   meta.fileName,
		Period:     meta.period,
		LoadedAt:   start,
		Products:   products,
		Metrics:    d.metrics(ctx, meta.cacheKey, products),
		LowStock:   len(inventory.LowStockItems(products)),
		Overstock:  len(inventory.OverstockItems(products)),
		Categories: categories(products),
	}

	if err := d.publish(snap); err != nil {
		return nil, err
	}

	log.Info().
		Uint64("version", snap.Version).
		Str("source", snap.Source).
		Str("file", snap.FileName).
		Int("products", len(products)).
		Int("low_stock", snap.LowStock).
		Int("overstock", snap.Overstock).
		Dur("took", d.now().Sub(start)).
		Msg("dashboard: snapshot published")
	return snap, nil
}

// metrics is cache-aside on the file digest; ids are regenerated on every
// load so only the aggregate is cached.
func (d *Dashboard) metrics(ctx context.Context, key string, products []inventory.Product) inventory.Metrics {
	if key == "" {
		return inventory.CalculateMetrics(products)
	}

	if m, ok, err := d.cache.GetMetrics(ctx, key); err == nil && ok {
		return m
	} else if err != nil {
		log.Warn().Err(err).Msg("dashboard: cache get metrics failed")
	}

	m := inventory.CalculateMetrics(products)
	if err := d.cache.SetMetrics(ctx, key, m); err != nil {
		log.Warn().Err(err).Msg("dashboard: cache set metrics failed")
	}
	return m
}

func (d *Dashboard) publish(snap *domain.Snapshot) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if snap.Version <= d.published {
		log.Debug().
			Uint64("version", snap.Version).
			Uint64("published", d.published).
			Msg("dashboard: discarding stale load")
		return ErrSuperseded
	}
	d.current = snap
	d.published = snap.Version
	return nil
}

// Reset drops the current snapshot. Loads already in flight are discarded.
func (d *Dashboard) Reset(ctx context.Context) {
	ticket := d.tickets.Add(1)

	d.mu.Lock()
	d.current = nil
	d.published = max(d.published, ticket)
	d.mu.Unlock()

	if err := d.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("dashboard: cache invalidate failed")
	}
	log.Info().Msg("dashboard: snapshot cleared")
}

// Snapshot returns the published snapshot. It must not be modified.
func (d *Dashboard) Snapshot() (*domain.Snapshot, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.current == nil {
		return nil, ErrNoSnapshot
	}
	return d.current, nil
}

func (d *Dashboard) products() []inventory.Product {
	snap, err := d.Snapshot()
	if err != nil {
		return nil
	}
	return snap.Products
}

// Metrics returns the current aggregate, or the zero metrics when nothing
// is loaded.
func (d *Dashboard) Metrics() inventory.Metrics {
	snap, err := d.Snapshot()
	if err != nil {
		return inventory.DefaultMetrics()
	}
	return snap.Metrics
}

func (d *Dashboard) LowStockItems() []inventory.Product {
	return inventory.CloneProducts(inventory.LowStockItems(d.products()))
}

func (d *Dashboard) OverstockItems() []inventory.Product {
	return inventory.CloneProducts(inventory.OverstockItems(d.products()))
}

// Products returns one page of products matching filter and the number of
// matches across all pages.
func (d *Dashboard) Products(filter domain.ProductFilter) ([]inventory.Product, int) {
	filter = filter.Normalize()

	matched := make([]inventory.Product, 0)
	for _, p := range d.products() {
		if matchesFilter(p, filter) {
			matched = append(matched, p)
		}
	}

	total := len(matched)
	start := min(filter.Offset(), total)
	end := min(start+filter.PageSize, total)
	return inventory.CloneProducts(matched[start:end]), total
}

func matchesFilter(p inventory.Product, f domain.ProductFilter) bool {
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.Query != "" &&
		!strings.Contains(strings.ToLower(p.Name), f.Query) &&
		!strings.Contains(strings.ToLower(p.SKU), f.Query) {
		return false
	}
	return f.Status == domain.StatusAny || StatusOf(p) == f.Status
}

// StatusOf buckets a product. Out of stock wins over low stock.
func StatusOf(p inventory.Product) domain.StockStatus {
	switch {
	case inventory.ToNumber(p.WH, -1) == 0:
		return domain.StatusOutOfStock
	case inventory.IsLowStock(p):
		return domain.StatusLowStock
	case inventory.IsOverstock(p):
		return domain.StatusOverstock
	default:
		return domain.StatusHealthy
	}
}

func categories(products []inventory.Product) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, p := range products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out
}
