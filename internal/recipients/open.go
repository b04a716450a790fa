package recipients

import (
	"context"
	"fmt"

	"github.com/ryan-gang/outreach-send/internal/config"
)

// Open returns the store selected by STORE_PROVIDER.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Provider {
	case config.StoreSheets:
		return OpenSheets(ctx, cfg)
	case config.StoreCSV:
		return NewCSVStore(cfg.CSVPath), nil
	}
	return nil, fmt.Errorf("unknown store provider %q", cfg.Provider)
}
