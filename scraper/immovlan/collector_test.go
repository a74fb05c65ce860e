package immovlan

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"immo-harvester/models"
)

// pagedServer serves catalog pages from pages[region][page-1]; pages past
// the end are empty.
func pagedServer(t *testing.T, pages map[string][][]string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		region := r.URL.Query().Get("provinces")
		page := 1
		if p := r.URL.Query().Get("page"); p != "" {
			page, _ = strconv.Atoi(p)
		}
		var links []string
		if rp := pages[region]; page-1 < len(rp) {
			links = rp[page-1]
		}
		fmt.Fprint(w, cardPage(links...))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestCollectStopsAtFirstEmptyPage(t *testing.T) {
	srv, hits := pagedServer(t, map[string][][]string{
		"brussels": {detailLinks("b", 30)},
	})
	c := testCatalog(t, srv.URL, "brussels")
	s := newTestScraper(t, testConfig(), c, 1)

	res := s.Collect(context.Background(), Partition(c)[0], s.discovery.For(0))

	assert.Len(t, res.URLs, 30)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, OutcomeExhausted, res.Outcome)
	assert.False(t, res.Outcome.Abandoned())
	assert.NoError(t, res.Err)
	assert.Equal(t, int64(2), hits.Load())
	assert.Equal(t, srv.URL+"/en/detail/apartment/for-sale/1000/brussels/b0", res.URLs[0])
}

func TestCollectFirstPageHasNoPageParameter(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.Query().Get("page"))
		n := len(seen)
		mu.Unlock()
		if n == 1 {
			fmt.Fprint(w, cardPage(detailLinks("p", 2)...))
			return
		}
		fmt.Fprint(w, cardPage())
	}))
	defer srv.Close()

	c := testCatalog(t, srv.URL, "namur")
	s := newTestScraper(t, testConfig(), c, 1)
	s.Collect(context.Background(), Partition(c)[0], s.discovery.For(0))

	assert.Equal(t, []string{"", "2"}, seen)
}

func TestCollectRetriesRateLimitedPage(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		switch {
		case n == 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case r.URL.Query().Get("page") == "":
			fmt.Fprint(w, cardPage(detailLinks("r", 5)...))
		default:
			fmt.Fprint(w, cardPage())
		}
	}))
	defer srv.Close()

	c := testCatalog(t, srv.URL, "limburg")
	s := newTestScraper(t, testConfig(), c, 1)

	res := s.Collect(context.Background(), Partition(c)[0], s.discovery.For(0))

	assert.Len(t, res.URLs, 5)
	assert.Equal(t, 1, res.RateLimitRetries)
	assert.Equal(t, OutcomeExhausted, res.Outcome)
	assert.Equal(t, int64(3), hits.Load())
}

func TestCollectRateLimitRetryCap(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.RateLimitMaxRetries = 2
	c := testCatalog(t, srv.URL, "hainaut")
	s := newTestScraper(t, cfg, c, 1)

	res := s.Collect(context.Background(), Partition(c)[0], s.discovery.For(0))

	assert.Equal(t, OutcomeHTTPStatus, res.Outcome)
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	assert.Equal(t, 2, res.RateLimitRetries)
	assert.Equal(t, int64(3), hits.Load())
	assert.Empty(t, res.URLs)
}

func TestCollectKeepsPartialResultsOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "" {
			fmt.Fprint(w, cardPage(detailLinks("e", 12)...))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testCatalog(t, srv.URL, "antwerp")
	s := newTestScraper(t, testConfig(), c, 1)

	res := s.Collect(context.Background(), Partition(c)[0], s.discovery.For(0))

	assert.Len(t, res.URLs, 12)
	assert.Equal(t, OutcomeHTTPStatus, res.Outcome)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.True(t, res.Outcome.Abandoned())
	assert.Error(t, res.Err)
}

func TestCollectHonoursPageCeiling(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		fmt.Fprint(w, cardPage(detailLinks(fmt.Sprintf("c%d-", n), 3)...))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxPages = 4
	c := testCatalog(t, srv.URL, "luxembourg")
	s := newTestScraper(t, cfg, c, 1)

	res := s.Collect(context.Background(), Partition(c)[0], s.discovery.For(0))

	assert.Equal(t, OutcomePageCeiling, res.Outcome)
	assert.Equal(t, 4, res.Pages)
	assert.Len(t, res.URLs, 12)
	assert.Equal(t, int64(4), hits.Load())
}

func TestCollectDropsProjectLinks(t *testing.T) {
	srv, _ := pagedServer(t, map[string][][]string{
		"liege": {{
			"/en/detail/house/for-sale/4000/liege/a1",
			"/en/projectdetail/9876-residence-meuse",
			"/en/detail/house/for-sale/4000/liege/a2",
			"/en/detail/house/for-sale/4000/liege/a1",
		}},
	})
	c := testCatalog(t, srv.URL, "liege")
	s := newTestScraper(t, testConfig(), c, 1)

	res := s.Collect(context.Background(), Partition(c)[0], s.discovery.For(0))

	assert.Equal(t, []string{
		srv.URL + "/en/detail/house/for-sale/4000/liege/a1",
		srv.URL + "/en/detail/house/for-sale/4000/liege/a2",
	}, res.URLs)
	assert.Equal(t, 1, res.ProjectsFiltered)
	assert.Equal(t, 3, res.LinksSeen)
}

func TestCollectProjectOnlyPageDoesNotEndPagination(t *testing.T) {
	srv, hits := pagedServer(t, map[string][][]string{
		"namur": {
			{"/en/projectdetail/1-a", "/en/projectdetail/2-b"},
			{"/en/detail/house/for-sale/5000/namur/n1"},
		},
	})
	c := testCatalog(t, srv.URL, "namur")
	s := newTestScraper(t, testConfig(), c, 1)

	res := s.Collect(context.Background(), Partition(c)[0], s.discovery.For(0))

	assert.Len(t, res.URLs, 1)
	assert.Equal(t, 2, res.ProjectsFiltered)
	assert.Equal(t, int64(3), hits.Load())
}

func TestCollectNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := testCatalog(t, base, "brussels")
	s := newTestScraper(t, testConfig(), c, 1)

	res := s.Collect(context.Background(), Partition(c)[0], s.discovery.For(0))

	assert.Equal(t, OutcomeNetworkError, res.Outcome)
	assert.Error(t, res.Err)
	assert.Zero(t, res.Pages)
}

func TestCollectStopsWhenCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.RateLimitCooldown = 0
	c := testCatalog(t, srv.URL, "brussels")
	s := newTestScraper(t, cfg, c, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := s.Collect(ctx, Partition(c)[0], s.discovery.For(0))
	assert.Equal(t, OutcomeCancelled, res.Outcome)
}

func TestDiscoverAllDedupesAcrossSubQueries(t *testing.T) {
	shared := detailLinks("shared", 5)
	srv, _ := pagedServer(t, map[string][][]string{
		"brussels": {append(detailLinks("bx", 10), shared...)},
		"antwerp":  {append(shared, detailLinks("an", 7)...)},
		"namur":    {},
	})
	c := testCatalog(t, srv.URL, "brussels", "antwerp", "namur")
	s := newTestScraper(t, testConfig(), c, 3)

	res := s.DiscoverAll(context.Background(), Partition(c))

	require.Len(t, res.URLs, 22)
	for i := 1; i < len(res.URLs); i++ {
		assert.Less(t, res.URLs[i-1], res.URLs[i], "URLs must be sorted and unique")
	}
	assert.Equal(t, models.DiscoveryStats{
		SubQueries: 3,
		Completed:  3,
		Pages:      5,
		LinksSeen:  27,
		Duplicates: 5,
	}, res.Stats)
}

func TestDiscoverAllKeepsGoingWhenOneSubQueryFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		region := r.URL.Query().Get("provinces")
		if region == "hainaut" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if r.URL.Query().Get("page") == "" {
			fmt.Fprint(w, cardPage(detailLinks(region, 4)...))
			return
		}
		fmt.Fprint(w, cardPage())
	}))
	defer srv.Close()

	c := testCatalog(t, srv.URL, "brussels", "hainaut", "namur")
	s := newTestScraper(t, testConfig(), c, 2)

	res := s.DiscoverAll(context.Background(), Partition(c))

	assert.Len(t, res.URLs, 8)
	assert.Equal(t, 2, res.Stats.Completed)
	assert.Equal(t, 1, res.Stats.Abandoned)
	require.Len(t, res.Abandoned, 1)
	assert.Equal(t, "hainaut", res.Abandoned[0].Query.Region)
}
