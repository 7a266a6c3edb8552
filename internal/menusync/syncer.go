package menusync

import (
	"context"
	"sync"
	"time"

	"storefront-service/internal/catalog"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// DefaultMenuTTL is the age past which a cached menu is considered stale
// and silently refreshed.
const DefaultMenuTTL = 30 * time.Minute

// EventSink receives menu lifecycle events. Satisfied by
// *broker.EventPublisher; may be nil when eventing is disabled.
type EventSink interface {
	PublishMenuRefreshed(ctx context.Context, event *models.MenuRefreshedEvent) error
}

// AdapterSource resolves the catalog adapter for a shop. Satisfied by
// *catalog.Factory.
type AdapterSource interface {
	ForShop(shop models.ShopIdentity) (catalog.Adapter, error)
}

// shopState is the per-shop sync triple. It starts empty, not loading, no
// error, and is created lazily on first access.
type shopState struct {
	categories []models.MenuCategory
	fetchedAt  time.Time
	isLoading  bool
	errMsg     string
}

// Syncer decides, per shop, whether a menu is served from memory, disk, or
// the network, and keeps all three tiers in agreement. State mutation is
// serialized by a mutex; a background refresh racing a foreground fetch is
// allowed. Both always install fully-formed snapshots, so the race only
// picks which valid snapshot wins.
type Syncer struct {
	adapters AdapterSource
	disk     *DiskCache
	events   EventSink
	ttl      time.Duration
	logger   *zap.Logger

	mu    sync.Mutex
	shops map[string]*shopState

	now func() time.Time
}

// NewSyncer creates a synchronizer. A zero ttl means DefaultMenuTTL; events
// may be nil.
func NewSyncer(adapters AdapterSource, disk *DiskCache, events EventSink, ttl time.Duration) *Syncer {
	if ttl <= 0 {
		ttl = DefaultMenuTTL
	}
	return &Syncer{
		adapters: adapters,
		disk:     disk,
		events:   events,
		ttl:      ttl,
		logger:   util.GetLogger(),
		shops:    make(map[string]*shopState),
		now:      time.Now,
	}
}

// state returns the shop's state, creating it on first access. Caller
// holds the lock.
func (s *Syncer) state(shopID string) *shopState {
	st, ok := s.shops[shopID]
	if !ok {
		st = &shopState{}
		s.shops[shopID] = st
	}
	return st
}

// Snapshot returns the shop's current {categories, isLoading, errorMessage}
// triple. The category slice is shared but never mutated in place; writers
// always install a fresh slice.
func (s *Syncer) Snapshot(shopID string) models.MenuSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(shopID)
	return models.MenuSnapshot{
		Categories:   st.categories,
		IsLoading:    st.isLoading,
		ErrorMessage: st.errMsg,
	}
}

// PrimeMenu makes the shop's menu available with the cheapest tier that can
// serve it:
//
//  1. memory hit: return immediately and refresh silently in the background;
//  2. disk hit: install the cached menu, refreshing silently if it is stale;
//  3. miss: fetch synchronously before returning.
func (s *Syncer) PrimeMenu(ctx context.Context, shop models.ShopIdentity) error {
	s.mu.Lock()
	st := s.state(shop.ID)

	if len(st.categories) > 0 {
		s.mu.Unlock()
		util.MenuCacheHitsTotal.WithLabelValues("memory").Inc()
		go s.backgroundRefresh(shop)
		return nil
	}

	if cached, ok := s.disk.Load(shop.ID); ok {
		st.categories = cached.Categories
		st.fetchedAt = time.Unix(cached.Timestamp, 0)
		st.isLoading = false
		st.errMsg = ""
		stale := s.now().Sub(st.fetchedAt) > s.ttl
		s.mu.Unlock()

		util.MenuCacheHitsTotal.WithLabelValues("disk").Inc()
		if stale {
			go s.backgroundRefresh(shop)
		}
		return nil
	}

	s.mu.Unlock()
	return s.fetchMenuData(ctx, shop)
}

// Refresh performs a foreground fetch, surfacing any failure in the shop's
// error state.
func (s *Syncer) Refresh(ctx context.Context, shop models.ShopIdentity) error {
	return s.fetchMenuData(ctx, shop)
}

// fetchMenuData is the foreground path: loading flag visible, failure
// recorded as the shop's error message, previously held categories kept.
func (s *Syncer) fetchMenuData(ctx context.Context, shop models.ShopIdentity) error {
	s.mu.Lock()
	st := s.state(shop.ID)
	st.isLoading = true
	st.errMsg = ""
	s.mu.Unlock()

	categories, err := s.fetch(ctx, shop)

	s.mu.Lock()
	st = s.state(shop.ID)
	st.isLoading = false
	if err != nil {
		st.errMsg = err.Error()
		s.mu.Unlock()
		return err
	}
	st.categories = categories
	st.fetchedAt = s.now()
	st.errMsg = ""
	s.mu.Unlock()

	s.persistAndAnnounce(shop, categories)
	return nil
}

// backgroundRefresh is the silent path: on success the in-memory snapshot
// is replaced atomically and the disk tier rewritten; on failure the
// currently displayed categories stay untouched and only a log line and a
// metric record the attempt.
func (s *Syncer) backgroundRefresh(shop models.ShopIdentity) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	categories, err := s.fetch(ctx, shop)
	if err != nil {
		util.MenuBackgroundRefreshes.WithLabelValues("failure").Inc()
		s.logger.Warn("Background menu refresh failed, keeping stale menu",
			zap.String("shop_id", shop.ID),
			zap.Error(err))
		return
	}

	s.mu.Lock()
	st := s.state(shop.ID)
	st.categories = categories
	st.fetchedAt = s.now()
	st.errMsg = ""
	s.mu.Unlock()

	util.MenuBackgroundRefreshes.WithLabelValues("success").Inc()
	s.persistAndAnnounce(shop, categories)
}

func (s *Syncer) fetch(ctx context.Context, shop models.ShopIdentity) ([]models.MenuCategory, error) {
	adapter, err := s.adapters.ForShop(shop)
	if err != nil {
		return nil, err
	}
	return adapter.FetchMenu(ctx, shop)
}

func (s *Syncer) persistAndAnnounce(shop models.ShopIdentity, categories []models.MenuCategory) {
	cached := &models.CachedMenu{
		Categories: categories,
		Timestamp:  s.now().Unix(),
	}
	if err := s.disk.Store(shop.ID, cached); err != nil {
		s.logger.Error("Failed to persist menu to disk",
			zap.String("shop_id", shop.ID),
			zap.Error(err))
	}

	if s.events == nil {
		return
	}

	items := 0
	for _, c := range categories {
		items += len(c.Items)
	}
	event := &models.MenuRefreshedEvent{
		ShopID:        shop.ID,
		Provider:      shop.Provider,
		CategoryCount: len(categories),
		ItemCount:     items,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.events.PublishMenuRefreshed(ctx, event); err != nil {
		s.logger.Error("Failed to publish MenuRefreshed event",
			zap.String("shop_id", shop.ID),
			zap.Error(err))
	}
}
