package credentials

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// DefaultTTL is how long a fetched credential bundle stays valid in the
// cache before a read forces a refetch.
const DefaultTTL = 30 * time.Minute

// Error kinds. Transport failures from the underlying http.Client are
// returned wrapped, so errors.Is(err, ErrTransport) holds for them too.
var (
	ErrBadEndpoint = errors.New("credentials: invalid endpoint configuration")
	ErrTransport   = errors.New("credentials: transport failure")
	ErrDecode      = errors.New("credentials: malformed credential response")
)

// StatusError reports a non-2xx response from the credential endpoint.
type StatusError struct {
	Provider models.Provider
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("credentials: %s endpoint returned status %d", e.Provider, e.Code)
}

type cacheEntry struct {
	creds     models.Credentials
	fetchedAt time.Time
}

type cacheKey struct {
	merchantID string
	provider   models.Provider
}

// Broker fetches short-lived POS credentials and caches them per
// (merchant, provider) pair. Reads share the lock; writes are exclusive.
type Broker struct {
	endpoints map[models.Provider]string
	client    *http.Client
	ttl       time.Duration
	logger    *zap.Logger

	mu    sync.RWMutex
	cache map[cacheKey]cacheEntry

	now func() time.Time
}

// NewBroker creates a broker backed by the given per-provider
// credential-issuing endpoints. A zero ttl means DefaultTTL.
func NewBroker(squareEndpoint, cloverEndpoint string, ttl time.Duration) *Broker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Broker{
		endpoints: map[models.Provider]string{
			models.ProviderSquare: squareEndpoint,
			models.ProviderClover: cloverEndpoint,
		},
		client: &http.Client{Timeout: 15 * time.Second},
		ttl:    ttl,
		logger: util.GetLogger(),
		cache:  make(map[cacheKey]cacheEntry),
		now:    time.Now,
	}
}

// GetCredentials returns cached credentials for the merchant when the entry
// is younger than the TTL, otherwise fetches a fresh bundle from the
// issuing endpoint. An expired entry is evicted before the refetch, so a
// failed refetch cannot resurrect stale credentials.
func (b *Broker) GetCredentials(ctx context.Context, merchantID string, provider models.Provider) (*models.Credentials, error) {
	ctx, span := util.StartSpan(ctx, "Broker.GetCredentials")
	defer span.End()

	key := cacheKey{merchantID: merchantID, provider: provider}

	b.mu.RLock()
	entry, ok := b.cache[key]
	b.mu.RUnlock()

	if ok {
		if b.now().Sub(entry.fetchedAt) < b.ttl {
			util.CredentialCacheHitsTotal.WithLabelValues(string(provider)).Inc()
			creds := entry.creds
			return &creds, nil
		}
		b.evict(key, entry.fetchedAt)
	}

	creds, err := b.fetch(ctx, merchantID, provider)
	if err != nil {
		util.CredentialFetchFailures.WithLabelValues(string(provider), failureReason(err)).Inc()
		return nil, err
	}

	b.mu.Lock()
	b.cache[key] = cacheEntry{creds: *creds, fetchedAt: b.now()}
	b.mu.Unlock()

	return creds, nil
}

// Evict drops any cached entry for the pair. Callers use it after a
// provider rejects a token, before retrying.
func (b *Broker) Evict(merchantID string, provider models.Provider) {
	b.mu.Lock()
	delete(b.cache, cacheKey{merchantID: merchantID, provider: provider})
	b.mu.Unlock()
}

// Clear empties the cache.
func (b *Broker) Clear() {
	b.mu.Lock()
	b.cache = make(map[cacheKey]cacheEntry)
	b.mu.Unlock()
}

// evict removes the entry only if it still holds the observed timestamp,
// so a concurrent refresh that already stored fresh credentials is kept.
func (b *Broker) evict(key cacheKey, fetchedAt time.Time) {
	b.mu.Lock()
	if cur, ok := b.cache[key]; ok && cur.fetchedAt.Equal(fetchedAt) {
		delete(b.cache, key)
	}
	b.mu.Unlock()
}

func (b *Broker) fetch(ctx context.Context, merchantID string, provider models.Provider) (*models.Credentials, error) {
	endpoint, ok := b.endpoints[provider]
	if !ok || endpoint == "" {
		return nil, fmt.Errorf("%w: no endpoint for provider %q", ErrBadEndpoint, provider)
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadEndpoint, endpoint)
	}

	util.CredentialFetchesTotal.WithLabelValues(string(provider)).Inc()

	body, err := json.Marshal(map[string]string{"merchantId": merchantID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credential request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadEndpoint, endpoint)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Provider: provider, Code: resp.StatusCode}
	}

	creds, err := decodeCredentials(resp.Body, provider)
	if err != nil {
		b.logger.Error("Credential response failed to decode",
			zap.String("provider", string(provider)),
			zap.String("merchant_id", merchantID),
			zap.Error(err))
		return nil, err
	}

	return creds, nil
}

// squareTokenResponse mirrors {"tokens":{"oauth_token","merchantId","refreshToken"}}.
type squareTokenResponse struct {
	Tokens *struct {
		OAuthToken   string `json:"oauth_token"`
		MerchantID   string `json:"merchantId"`
		RefreshToken string `json:"refreshToken"`
	} `json:"tokens"`
}

// cloverCredentialResponse mirrors {"credentials":{"accessToken","merchantId"}}.
type cloverCredentialResponse struct {
	Credentials *struct {
		AccessToken string `json:"accessToken"`
		MerchantID  string `json:"merchantId"`
		LocationID  string `json:"locationId"`
	} `json:"credentials"`
}

func decodeCredentials(r io.Reader, provider models.Provider) (*models.Credentials, error) {
	switch provider {
	case models.ProviderSquare:
		var payload squareTokenResponse
		if err := json.NewDecoder(r).Decode(&payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		t := payload.Tokens
		if t == nil || t.OAuthToken == "" || t.MerchantID == "" || t.RefreshToken == "" {
			return nil, fmt.Errorf("%w: missing required token fields", ErrDecode)
		}
		return &models.Credentials{
			AccessToken:  t.OAuthToken,
			MerchantID:   t.MerchantID,
			RefreshToken: t.RefreshToken,
		}, nil

	case models.ProviderClover:
		var payload cloverCredentialResponse
		if err := json.NewDecoder(r).Decode(&payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		c := payload.Credentials
		if c == nil || c.AccessToken == "" || c.MerchantID == "" {
			return nil, fmt.Errorf("%w: missing required credential fields", ErrDecode)
		}
		return &models.Credentials{
			AccessToken: c.AccessToken,
			MerchantID:  c.MerchantID,
			LocationID:  c.LocationID,
		}, nil

	default:
		return nil, fmt.Errorf("%w: unsupported provider %q", ErrBadEndpoint, provider)
	}
}

func failureReason(err error) string {
	var statusErr *StatusError
	switch {
	case errors.Is(err, ErrBadEndpoint):
		return "config"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.As(err, &statusErr):
		return "http_status"
	default:
		return "transport"
	}
}
