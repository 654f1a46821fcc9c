package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/byshoes/byshoes/internal/crawler"
	"github.com/byshoes/byshoes/internal/domain"
	domproduct "github.com/byshoes/byshoes/internal/domain/product"
)

// --- Mocks ---

type mockVersions struct {
	version int
	err     error
}

func (m mockVersions) MaxVersion(context.Context) (int, error) { return m.version, m.err }

type mockWriter struct {
	batches     [][]domproduct.Product
	insertFn    func(ctx context.Context, products []domproduct.Product) error
	completed   []int
	completeErr error
}

func (m *mockWriter) Complete(_ context.Context, version int) error {
	if m.completeErr != nil {
		return m.completeErr
	}
	m.completed = append(m.completed, version)
	return nil
}

func (m *mockWriter) Insert(ctx context.Context, products []domproduct.Product) error {
	if m.insertFn != nil {
		if err := m.insertFn(ctx, products); err != nil {
			return err
		}
	}
	m.batches = append(m.batches, products)
	return nil
}

func (m *mockWriter) stored() []domproduct.Product {
	var out []domproduct.Product
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}

type mockCrawler struct {
	site domproduct.Site
	res  crawler.Result
	err  error
}

func (m mockCrawler) Site() domproduct.Site { return m.site }

func (m mockCrawler) Crawl(context.Context) (crawler.Result, error) { return m.res, m.err }

func valid(article string) domproduct.Product {
	return domproduct.Product{
		Title:         "Sneaker " + article,
		Price:         100,
		Article:       article,
		Category:      []domproduct.Category{{ID: "obuv", Name: "обувь"}},
		Specification: domproduct.Specification{Sex: domproduct.Female},
	}
}

func newTestService(versions mockVersions, w *mockWriter, crawlers ...Crawler) *Service {
	s := New(versions, w, crawlers...)
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

// --- Tests ---

func TestRun_StampsNextVersion(t *testing.T) {
	w := &mockWriter{}
	c := mockCrawler{site: domproduct.SiteAllstars, res: crawler.Result{
		Products: []domproduct.Product{valid("a"), valid("b")},
	}}

	report, err := newTestService(mockVersions{version: 4}, w, c).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Version != 5 {
		t.Errorf("version = %d, want 5", report.Version)
	}
	got := w.stored()
	if len(got) != 2 {
		t.Fatalf("stored %d records, want 2", len(got))
	}
	for i, p := range got {
		if p.ID != fmt.Sprintf("id-%d", i+1) {
			t.Errorf("record %d id = %q", i, p.ID)
		}
		if p.Version != 5 || p.Site != domproduct.SiteAllstars || p.Parsed.IsZero() {
			t.Errorf("record %d not stamped: %+v", i, p)
		}
		if p.Specification.Color != domproduct.UnknownColor {
			t.Errorf("record %d not normalized: color %q", i, p.Specification.Color)
		}
	}
}

func TestRun_EmptyStoreStartsAtOne(t *testing.T) {
	w := &mockWriter{}
	c := mockCrawler{site: domproduct.SiteMultisports, res: crawler.Result{Products: []domproduct.Product{valid("a")}}}

	report, err := newTestService(mockVersions{}, w, c).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Version != 1 || w.stored()[0].Version != 1 {
		t.Errorf("expected version 1, got report %d", report.Version)
	}
}

func TestRun_SkipsInvalidRecords(t *testing.T) {
	records := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "records"}, []string{"site", "result"})
	bad := valid("bad")
	bad.Price = 0
	w := &mockWriter{}
	c := mockCrawler{site: domproduct.SiteAllstars, res: crawler.Result{
		Products: []domproduct.Product{valid("a"), bad, valid("c")},
		Skipped:  1,
	}}

	report, err := newTestService(mockVersions{version: 1}, w, c).WithMetrics(records).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	site := report.Sites[0]
	if site.Stored != 2 || site.Skipped != 2 {
		t.Errorf("stored=%d skipped=%d, want 2 and 2", site.Stored, site.Skipped)
	}
	if got := testutil.ToFloat64(records.WithLabelValues("allstars", "stored")); got != 2 {
		t.Errorf("stored metric = %v", got)
	}
	if got := testutil.ToFloat64(records.WithLabelValues("allstars", "skipped")); got != 2 {
		t.Errorf("skipped metric = %v", got)
	}
}

func TestRun_Batches(t *testing.T) {
	w := &mockWriter{}
	var products []domproduct.Product
	for i := range 5 {
		products = append(products, valid(fmt.Sprint(i)))
	}
	c := mockCrawler{site: domproduct.SiteAllstars, res: crawler.Result{Products: products}}

	if _, err := newTestService(mockVersions{}, w, c).WithBatchSize(2).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	sizes := make([]int, len(w.batches))
	for i, b := range w.batches {
		sizes[i] = len(b)
	}
	if fmt.Sprint(sizes) != "[2 2 1]" {
		t.Errorf("batch sizes = %v, want [2 2 1]", sizes)
	}
}

func TestRun_FailingSiteDoesNotStopOthers(t *testing.T) {
	w := &mockWriter{}
	broken := mockCrawler{site: domproduct.SiteMultisports, err: fmt.Errorf("listing: %w", domain.ErrFetchFailed)}
	ok := mockCrawler{site: domproduct.SiteAllstars, res: crawler.Result{Products: []domproduct.Product{valid("a")}}}

	report, err := newTestService(mockVersions{version: 2}, w, broken, ok).Run(context.Background())
	if !errors.Is(err, domain.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
	if len(w.stored()) != 1 || w.stored()[0].Site != domproduct.SiteAllstars {
		t.Errorf("healthy site not stored: %+v", w.stored())
	}
	failed := report.Failed()
	if len(failed) != 1 || failed[0] != domproduct.SiteMultisports {
		t.Errorf("failed sites = %v", failed)
	}
	if diff := cmp.Diff([]int{3}, w.completed); diff != "" {
		t.Errorf("completed versions mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_InsertError(t *testing.T) {
	w := &mockWriter{insertFn: func(context.Context, []domproduct.Product) error {
		return errors.New("write concern")
	}}
	c := mockCrawler{site: domproduct.SiteAllstars, res: crawler.Result{Products: []domproduct.Product{valid("a")}}}

	report, err := newTestService(mockVersions{}, w, c).Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if report.Sites[0].Stored != 0 {
		t.Errorf("stored = %d, want 0", report.Sites[0].Stored)
	}
}

func TestRun_VersionError(t *testing.T) {
	w := &mockWriter{}
	_, err := newTestService(mockVersions{err: errors.New("down")}, w).Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(w.batches) != 0 {
		t.Error("nothing should be stored without a version")
	}
	if len(w.completed) != 0 {
		t.Error("no version should be completed")
	}
}

func TestRun_CompletesVersionAfterAllSites(t *testing.T) {
	w := &mockWriter{}
	first := mockCrawler{site: domproduct.SiteMultisports, res: crawler.Result{Products: []domproduct.Product{valid("a")}}}
	second := mockCrawler{site: domproduct.SiteAllstars, res: crawler.Result{Products: []domproduct.Product{valid("b")}}}
	w.insertFn = func(context.Context, []domproduct.Product) error {
		if len(w.completed) != 0 {
			t.Error("version completed before every site was stored")
		}
		return nil
	}

	if _, err := newTestService(mockVersions{version: 6}, w, first, second).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]int{7}, w.completed); diff != "" {
		t.Errorf("completed versions mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_CancelledRunIsNotCompleted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := &mockWriter{insertFn: func(context.Context, []domproduct.Product) error {
		cancel()
		return nil
	}}
	c := mockCrawler{site: domproduct.SiteAllstars, res: crawler.Result{Products: []domproduct.Product{valid("a")}}}

	_, err := newTestService(mockVersions{}, w, c).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(w.completed) != 0 {
		t.Errorf("cancelled run marked complete: %v", w.completed)
	}
}

func TestRun_CompleteError(t *testing.T) {
	w := &mockWriter{completeErr: errors.New("write concern")}
	c := mockCrawler{site: domproduct.SiteAllstars, res: crawler.Result{Products: []domproduct.Product{valid("a")}}}

	report, err := newTestService(mockVersions{}, w, c).Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if report.Sites[0].Stored != 1 || len(report.Failed()) != 0 {
		t.Errorf("site report = %+v", report.Sites[0])
	}
}
