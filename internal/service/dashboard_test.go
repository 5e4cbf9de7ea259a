package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andresuchdata/invpulse/internal/domain"
	"github.com/andresuchdata/invpulse/internal/inventory"
)

const stockCSV = `SKU,Product Name,Category,PASD,Lead Time,WH,CT Target Inventory
LOW-A,Lavender Soap,Bath,10,5,20,
OVER-B,Olive Oil,Kitchen,,,100,10
OOS-C,Bath Salt,Bath,,,0,
OK-D,Tea Towel,Kitchen,,,10,
`

var fixedNow = time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)

type memCache struct {
	data          map[string]inventory.Metrics
	gets, sets    int
	invalidations int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string]inventory.Metrics)}
}

func (c *memCache) GetMetrics(ctx context.Context, key string) (inventory.Metrics, bool, error) {
	c.gets++
	m, ok := c.data[key]
	return m, ok, nil
}

func (c *memCache) SetMetrics(ctx context.Context, key string, m inventory.Metrics) error {
	c.sets++
	c.data[key] = m
	return nil
}

func (c *memCache) InvalidateAll(ctx context.Context) error {
	c.invalidations++
	c.data = make(map[string]inventory.Metrics)
	return nil
}

type fakeSource struct {
	files   map[string][]byte
	latest  string
	fetches int
}

func (s *fakeSource) Fetch(ctx context.Context, ref string) (*domain.RemoteFile, error) {
	s.fetches++
	data, ok := s.files[ref]
	if !ok {
		return nil, errors.New("not found")
	}
	return &domain.RemoteFile{ID: ref, Name: ref, Data: data}, nil
}

func (s *fakeSource) Latest(ctx context.Context) (*domain.RemoteFile, error) {
	if s.latest == "" {
		return nil, domain.ErrNoRemoteFile
	}
	return s.Fetch(ctx, s.latest)
}

func (s *fakeSource) SourceName() string { return "fake" }

func newTestDashboard(c *memCache) *Dashboard {
	if c == nil {
		return NewDashboard(nil, nil, WithClock(func() time.Time { return fixedNow }))
	}
	return NewDashboard(nil, c, WithClock(func() time.Time { return fixedNow }))
}

func loadStock(t *testing.T, d *Dashboard) *domain.Snapshot {
	t.Helper()
	snap, err := d.LoadFile(context.Background(), "stock 05-03-2024.csv", []byte(stockCSV))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	return snap
}

func TestLoadFilePublishesSnapshot(t *testing.T) {
	d := newTestDashboard(nil)
	snap := loadStock(t, d)

	if snap.Version != 1 || snap.Source != SourceUpload || snap.FileName != "stock 05-03-2024.csv" {
		t.Errorf("snapshot header = %+v", snap.Summary())
	}
	if !snap.LoadedAt.Equal(fixedNow) {
		t.Errorf("loadedAt = %v", snap.LoadedAt)
	}
	if len(snap.Products) != 4 || snap.LowStock != 1 || snap.Overstock != 1 {
		t.Errorf("products=%d low=%d over=%d", len(snap.Products), snap.LowStock, snap.Overstock)
	}
	if snap.Metrics.TotalProducts != 4 || snap.Metrics.OutOfStockItems != 1 {
		t.Errorf("metrics = %+v", snap.Metrics)
	}
	if want := (domain.Period{Day: 5, Month: 3, Year: 2024, Label: "March 2024"}); snap.Period != want {
		t.Errorf("period = %+v, want %+v", snap.Period, want)
	}
	if len(snap.Categories) != 2 || snap.Categories[0] != "Bath" || snap.Categories[1] != "Kitchen" {
		t.Errorf("categories = %v", snap.Categories)
	}

	got, err := d.Snapshot()
	if err != nil || got != snap {
		t.Errorf("Snapshot() = %v, %v", got, err)
	}
}

func TestEmptyLoadKeepsSnapshot(t *testing.T) {
	d := newTestDashboard(nil)
	before := loadStock(t, d)

	if _, err := d.Upload(context.Background(), "", nil); !errors.Is(err, ErrEmptyUpload) {
		t.Errorf("Upload(nil) err = %v", err)
	}
	if _, err := d.LoadFile(context.Background(), "empty.csv", []byte("SKU,WH\n")); !errors.Is(err, ErrEmptyUpload) {
		t.Errorf("LoadFile(header only) err = %v", err)
	}

	after, err := d.Snapshot()
	if err != nil || after != before {
		t.Errorf("snapshot replaced by empty load")
	}
}

func TestUploadRows(t *testing.T) {
	d := newTestDashboard(nil)
	rows := []inventory.RawRow{
		inventory.NewRawRow("sku", "A", "month", "February 2024", "wh", 3),
		inventory.NewRawRow("sku", "B", "wh", 0),
	}

	snap, err := d.Upload(context.Background(), "api", rows)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Source != "api" || len(snap.Products) != 2 {
		t.Errorf("snapshot = %+v", snap.Summary())
	}
	if snap.Period.Label != "February 2024" || snap.Period.Month != 2 || snap.Period.Year != 2024 {
		t.Errorf("period = %+v", snap.Period)
	}
	if snap.Categories[0] != inventory.DefaultCategory {
		t.Errorf("categories = %v", snap.Categories)
	}
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	d := newTestDashboard(nil)
	stale := d.tickets.Add(1)

	fresh := loadStock(t, d)

	rows := []inventory.RawRow{inventory.NewRawRow("sku", "OLD")}
	if _, err := d.load(context.Background(), stale, rows, loadMeta{source: "old"}); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("stale load err = %v", err)
	}
	if got, _ := d.Snapshot(); got != fresh {
		t.Errorf("stale load replaced the newer snapshot")
	}
}

func TestReset(t *testing.T) {
	c := newMemCache()
	d := newTestDashboard(c)
	inFlight := d.tickets.Add(1)
	loadStock(t, d)

	d.Reset(context.Background())

	if _, err := d.Snapshot(); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("Snapshot after reset err = %v", err)
	}
	if m := d.Metrics(); m != inventory.DefaultMetrics() {
		t.Errorf("metrics after reset = %+v", m)
	}
	if items := d.LowStockItems(); len(items) != 0 {
		t.Errorf("low stock after reset = %d", len(items))
	}
	if c.invalidations != 1 {
		t.Errorf("cache invalidations = %d", c.invalidations)
	}

	rows := []inventory.RawRow{inventory.NewRawRow("sku", "LATE")}
	if _, err := d.load(context.Background(), inFlight, rows, loadMeta{}); !errors.Is(err, ErrSuperseded) {
		t.Errorf("load started before reset err = %v", err)
	}

	snap := loadStock(t, d)
	if snap.Version <= inFlight {
		t.Errorf("version after reset = %d", snap.Version)
	}
}

func TestMetricsCacheAside(t *testing.T) {
	c := newMemCache()
	d := newTestDashboard(c)

	first := loadStock(t, d)
	if c.gets != 1 || c.sets != 1 {
		t.Fatalf("gets=%d sets=%d after first load", c.gets, c.sets)
	}

	for k := range c.data {
		c.data[k] = inventory.Metrics{TotalProducts: 999}
	}
	second := loadStock(t, d)
	if second.Metrics.TotalProducts != 999 {
		t.Errorf("cached metrics not used: %+v", second.Metrics)
	}
	if c.sets != 1 {
		t.Errorf("sets = %d, want no rewrite on hit", c.sets)
	}
	if first.Products[0].ID == second.Products[0].ID {
		t.Errorf("product ids must regenerate on every load")
	}

	// Row uploads have no file digest and bypass the cache.
	if _, err := d.Upload(context.Background(), "", []inventory.RawRow{inventory.NewRawRow("sku", "A")}); err != nil {
		t.Fatal(err)
	}
	if c.gets != 2 {
		t.Errorf("gets = %d, want row upload to skip the cache", c.gets)
	}
}

func TestProductsFilter(t *testing.T) {
	d := newTestDashboard(nil)

	if items, total := d.Products(domain.ProductFilter{}); len(items) != 0 || total != 0 {
		t.Errorf("products before load = %d/%d", len(items), total)
	}

	loadStock(t, d)

	tests := []struct {
		name   string
		filter domain.ProductFilter
		skus   []string
		total  int
	}{
		{"all", domain.ProductFilter{}, []string{"LOW-A", "OVER-B", "OOS-C", "OK-D"}, 4},
		{"category", domain.ProductFilter{Category: " bath "}, []string{"LOW-A", "OOS-C"}, 2},
		{"name query", domain.ProductFilter{Query: "OIL"}, []string{"OVER-B"}, 1},
		{"sku query", domain.ProductFilter{Query: "oos"}, []string{"OOS-C"}, 1},
		{"low stock", domain.ProductFilter{Status: domain.StatusLowStock}, []string{"LOW-A"}, 1},
		{"overstock", domain.ProductFilter{Status: domain.StatusOverstock}, []string{"OVER-B"}, 1},
		{"out of stock", domain.ProductFilter{Status: domain.StatusOutOfStock}, []string{"OOS-C"}, 1},
		{"healthy", domain.ProductFilter{Status: domain.StatusHealthy}, []string{"OK-D"}, 1},
		{"second page", domain.ProductFilter{Page: 2, PageSize: 3}, []string{"OK-D"}, 4},
		{"past the end", domain.ProductFilter{Page: 9, PageSize: 3}, nil, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total := d.Products(tt.filter)
			if total != tt.total {
				t.Errorf("total = %d, want %d", total, tt.total)
			}
			if len(items) != len(tt.skus) {
				t.Fatalf("got %d items, want %v", len(items), tt.skus)
			}
			for i, sku := range tt.skus {
				if items[i].SKU != sku {
					t.Errorf("items[%d] = %s, want %s", i, items[i].SKU, sku)
				}
			}
		})
	}
}

func TestFilteredListsAreCopies(t *testing.T) {
	d := newTestDashboard(nil)
	snap := loadStock(t, d)

	low := d.LowStockItems()
	if len(low) != 1 || low[0].SKU != "LOW-A" {
		t.Fatalf("low stock = %v", low)
	}
	low[0].SKU = "MUTATED"
	if snap.Products[0].SKU != "LOW-A" {
		t.Errorf("caller mutation leaked into the snapshot")
	}

	over := d.OverstockItems()
	if len(over) != 1 || over[0].SKU != "OVER-B" {
		t.Errorf("overstock = %v", over)
	}
}

func TestLoadRemote(t *testing.T) {
	src := &fakeSource{files: map[string][]byte{"may 01.05.24.csv": []byte(stockCSV)}}
	d := newTestDashboard(nil)

	snap, err := d.LoadRemote(context.Background(), src, "may 01.05.24.csv")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Source != "fake" || snap.Period.Label != "May 2024" {
		t.Errorf("snapshot = %+v", snap.Summary())
	}

	if _, err := d.LoadRemote(context.Background(), src, "missing.csv"); err == nil {
		t.Errorf("expected fetch error")
	}

	if _, err := d.LoadLatest(context.Background(), src); !errors.Is(err, domain.ErrNoRemoteFile) {
		t.Errorf("LoadLatest err = %v, want ErrNoRemoteFile", err)
	}

	src.latest = "may 01.05.24.csv"
	snap, err = d.LoadLatest(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	if snap.FileName != "may 01.05.24.csv" || src.fetches != 3 {
		t.Errorf("file=%q fetches=%d", snap.FileName, src.fetches)
	}
}

func TestLoadFileRejectsUnsupportedFormat(t *testing.T) {
	d := newTestDashboard(nil)
	if _, err := d.LoadFile(context.Background(), "legacy.xls", []byte{0xD0, 0xCF}); err == nil {
		t.Errorf("expected error for .xls")
	}
	if _, err := d.Snapshot(); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("failed load must not publish")
	}
}

func TestStatusOf(t *testing.T) {
	products := inventory.Normalize([]inventory.RawRow{
		inventory.NewRawRow("wh", 0, "pasd", 10, "lead time", 5),
		inventory.NewRawRow("wh", "n/a"),
		inventory.NewRawRow(),
	})
	want := []domain.StockStatus{domain.StatusOutOfStock, domain.StatusHealthy, domain.StatusHealthy}
	for i, p := range products {
		if got := StatusOf(p); got != want[i] {
			t.Errorf("StatusOf(#%d) = %s, want %s", i, got, want[i])
		}
	}
}

// scopedSource serves one file and can hold its download until released.
type scopedSource struct {
	scope   string
	file    string
	sku     string
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
	once    sync.Once
}

func newScopedSource(scope, file, sku string, blocking bool) *scopedSource {
	s := &scopedSource{scope: scope, file: file, sku: sku, started: make(chan struct{})}
	if blocking {
		s.release = make(chan struct{})
	}
	return s
}

func (s *scopedSource) Fetch(ctx context.Context, ref string) (*domain.RemoteFile, error) {
	return s.Latest(ctx)
}

func (s *scopedSource) Latest(ctx context.Context) (*domain.RemoteFile, error) {
	s.calls.Add(1)
	s.once.Do(func() { close(s.started) })
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &domain.RemoteFile{ID: s.file, Name: s.file, Data: []byte("SKU,WH\n" + s.sku + ",5\n")}, nil
}

func (s *scopedSource) SourceName() string { return "drive" }
func (s *scopedSource) FetchScope() string { return s.scope }

func TestLoadLatestDoesNotShareAcrossScopes(t *testing.T) {
	d := newTestDashboard(nil)
	folderA := newScopedSource("drive:sa|folder=A", "folderA.csv", "A-ONLY", true)
	folderB := newScopedSource("drive:sa|folder=B", "folderB.csv", "B-ONLY", false)

	errA := make(chan error, 1)
	go func() {
		_, err := d.LoadLatest(context.Background(), folderA)
		errA <- err
	}()
	<-folderA.started

	snap, err := d.LoadLatest(context.Background(), folderB)
	if err != nil {
		t.Fatalf("LoadLatest(folderB): %v", err)
	}
	if snap.FileName != "folderB.csv" || snap.Products[0].SKU != "B-ONLY" {
		t.Errorf("folder B loaded %q with sku %q", snap.FileName, snap.Products[0].SKU)
	}
	if folderB.calls.Load() != 1 {
		t.Errorf("folder B downloads = %d, want 1", folderB.calls.Load())
	}

	close(folderA.release)
	if err := <-errA; !errors.Is(err, ErrSuperseded) {
		t.Errorf("older folder A load err = %v, want ErrSuperseded", err)
	}
	if cur, _ := d.Snapshot(); cur.FileName != "folderB.csv" {
		t.Errorf("published %q, want folderB.csv", cur.FileName)
	}
}

func TestLoadLatestSharesDownloadWithinScope(t *testing.T) {
	d := newTestDashboard(nil)
	src := newScopedSource("drive:sa|folder=A", "folderA.csv", "A-ONLY", true)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	errFirst := make(chan error, 1)
	go func() {
		_, err := d.LoadLatest(firstCtx, src)
		errFirst <- err
	}()
	<-src.started

	type result struct {
		snap *domain.Snapshot
		err  error
	}
	second := make(chan result, 1)
	go func() {
		snap, err := d.LoadLatest(context.Background(), src)
		second <- result{snap, err}
	}()
	// Give the second load time to join the download in flight.
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	if err := <-errFirst; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled load err = %v, want context.Canceled", err)
	}

	close(src.release)
	res := <-second
	if res.err != nil {
		t.Fatalf("second load: %v", res.err)
	}
	if res.snap.FileName != "folderA.csv" {
		t.Errorf("file = %q", res.snap.FileName)
	}
	if got := src.calls.Load(); got != 1 {
		t.Errorf("downloads = %d, want 1 shared download", got)
	}
}

func TestLoadLatestWithoutScopeIsNotShared(t *testing.T) {
	d := newTestDashboard(nil)
	src := &fakeSource{files: map[string][]byte{"a.csv": []byte(stockCSV)}, latest: "a.csv"}

	for range 2 {
		if _, err := d.LoadLatest(context.Background(), src); err != nil {
			t.Fatal(err)
		}
	}
	if src.fetches != 2 {
		t.Errorf("fetches = %d, want 2", src.fetches)
	}
}
