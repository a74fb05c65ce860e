package immovlan

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"immo-harvester/models"
)

func TestExtractAllDropsFailuresAndDuplicates(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch {
		case strings.HasSuffix(r.URL.Path, "/missing"):
			http.NotFound(w, r)
		case strings.HasSuffix(r.URL.Path, "/broken"):
			w.WriteHeader(http.StatusBadGateway)
		default:
			fmt.Fprint(w, detailPage("€ 199.000", "Mons", infoRow{"Number of bedrooms", "2"}))
		}
	}))
	defer srv.Close()

	c := testCatalog(t, srv.URL)
	s := newTestScraper(t, testConfig(), c, 3)

	base := srv.URL + "/en/detail/apartment/for-sale/7000/mons/"
	urls := []string{base + "a", base + "b", base + "missing", base + "a", base + "c", base + "broken"}

	res := s.ExtractAll(context.Background(), urls)

	assert.Equal(t, models.ExtractionStats{Scheduled: 5, Duplicates: 1, Succeeded: 3, Failed: 2}, res.Stats)
	assert.Equal(t, int64(5), hits.Load())
	require.Len(t, res.Records, 3)

	var got []string
	for _, rec := range res.Records {
		got = append(got, rec.SourceURL)
		assert.Equal(t, models.IntValue(199000), rec.PriceEUR)
		assert.Equal(t, models.StringValue("Apartment"), rec.PropertyType)
		assert.Equal(t, models.IntValue(2), rec.NumRooms)
	}
	sort.Strings(got)
	assert.Equal(t, []string{base + "a", base + "b", base + "c"}, got)
}

func TestExtractAllEmptyInput(t *testing.T) {
	c := testCatalog(t, "http://127.0.0.1:1")
	s := newTestScraper(t, testConfig(), c, 2)

	res := s.ExtractAll(context.Background(), nil)
	assert.Empty(t, res.Records)
	assert.Zero(t, res.Stats.Scheduled)
}
