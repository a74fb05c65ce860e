package immovlan

import (
	"immo-harvester/config"
	"immo-harvester/utils"
)

// Scraper runs the two harvest stages against immovlan.be. Discovery and
// extraction each get their own session pool; the pool size is the number of
// concurrent workers of that stage.
type Scraper struct {
	cfg        *config.Config
	catalog    *config.Catalog
	logger     *utils.Logger
	discovery  *SessionPool
	extraction *SessionPool
}

// New creates a Scraper. Either pool may be nil when its stage is not run.
func New(cfg *config.Config, catalog *config.Catalog, logger *utils.Logger, discovery, extraction *SessionPool) *Scraper {
	return &Scraper{
		cfg:        cfg,
		catalog:    catalog,
		logger:     logger,
		discovery:  discovery,
		extraction: extraction,
	}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
