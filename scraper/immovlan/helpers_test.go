package immovlan

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"immo-harvester/config"
	"immo-harvester/models"
	"immo-harvester/utils"
)

func testConfig() *config.Config {
	return &config.Config{
		MaxPages:          50,
		RequestTimeout:    5 * time.Second,
		RateLimitCooldown: 5 * time.Millisecond,
		NullMarker:        "None",
	}
}

func testLogger() *utils.Logger {
	return utils.NewLoggerTo(io.Discard, "error")
}

// testCatalog returns the default catalog pointed at baseURL with one price
// bracket per region.
func testCatalog(t *testing.T, baseURL string, regions ...string) *config.Catalog {
	t.Helper()
	c, err := config.LoadCatalog("")
	require.NoError(t, err)
	c.BaseURL = baseURL + "/en/real-estate"
	if len(regions) > 0 {
		c.Regions = regions
	}
	c.PriceBrackets = []models.PriceBracket{{Min: 0, Max: 500000}}
	return c
}

func newTestScraper(t *testing.T, cfg *config.Config, c *config.Catalog, workers int) *Scraper {
	t.Helper()
	pool, err := NewHTTPSessionPool(workers, cfg.RequestTimeout, c.Headers, 0)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return New(cfg, c, testLogger(), pool, pool)
}

// cardPage renders a catalog page with one listing card per href.
func cardPage(hrefs ...string) string {
	var sb strings.Builder
	sb.WriteString("<html><body><main>")
	for _, h := range hrefs {
		fmt.Fprintf(&sb, `<article class="card"><h2 class="card-title"><a href="%s">Listing</a></h2></article>`, h)
	}
	sb.WriteString("</main></body></html>")
	return sb.String()
}

// detailLinks returns n distinct relative detail links tagged with prefix.
func detailLinks(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("/en/detail/apartment/for-sale/1000/brussels/%s%d", prefix, i)
	}
	return out
}
