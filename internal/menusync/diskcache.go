package menusync

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// DiskCache persists one CachedMenu JSON file per shop id. Writes are
// atomic (temp file + rename) so a concurrent reader never observes a
// partial file. Any read failure is a cache miss, never an error.
type DiskCache struct {
	dir    string
	logger *zap.Logger
}

// NewDiskCache creates the cache directory if needed.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create menu cache dir: %w", err)
	}
	return &DiskCache{dir: dir, logger: util.GetLogger()}, nil
}

// Load reads the cached menu for a shop. Missing or corrupt files report a
// miss.
func (d *DiskCache) Load(shopID string) (*models.CachedMenu, bool) {
	data, err := os.ReadFile(d.path(shopID))
	if err != nil {
		return nil, false
	}

	var cached models.CachedMenu
	if err := json.Unmarshal(data, &cached); err != nil {
		d.logger.Warn("Discarding corrupt menu cache file",
			zap.String("shop_id", shopID),
			zap.Error(err))
		return nil, false
	}

	return &cached, true
}

// Store writes the cached menu atomically.
func (d *DiskCache) Store(shopID string, cached *models.CachedMenu) error {
	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal cached menu: %w", err)
	}

	tmp, err := os.CreateTemp(d.dir, "menu-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}

	if err := os.Rename(tmp.Name(), d.path(shopID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to commit cache file: %w", err)
	}

	return nil
}

// Remove deletes a shop's cache file. Missing files are fine.
func (d *DiskCache) Remove(shopID string) {
	_ = os.Remove(d.path(shopID))
}

func (d *DiskCache) path(shopID string) string {
	// Shop ids come from the storefront catalog but must not escape the
	// cache directory.
	safe := strings.ReplaceAll(shopID, string(os.PathSeparator), "_")
	return filepath.Join(d.dir, safe+".json")
}
