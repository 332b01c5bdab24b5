package airports

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"billete/internal/storage"
)

// Lookup answers for airports the local layers do not know.
type Lookup interface {
	Lookup(ctx context.Context, code string) (storage.Airport, error)
}

// HTTPLookup queries GET <base>/<CODE>, which answers
// {"name": "...", "tz": "..."} or 404.
type HTTPLookup struct {
	base   string
	client *http.Client
}

// NewHTTPLookup creates a lookup against base. A zero timeout means 3s.
func NewHTTPLookup(base string, timeout time.Duration) *HTTPLookup {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPLookup{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

type lookupResponse struct {
	Name string `json:"name"`
	TZ   string `json:"tz"`
}

// Lookup returns storage.ErrNotFound for unknown codes.
func (l *HTTPLookup) Lookup(ctx context.Context, code string) (storage.Airport, error) {
	code = storage.NormalizeCode(code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.base+"/"+url.PathEscape(code), nil)
	if err != nil {
		return storage.Airport{}, fmt.Errorf("lookup %s: %w", code, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return storage.Airport{}, fmt.Errorf("lookup %s: %w", code, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return storage.Airport{}, storage.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return storage.Airport{}, fmt.Errorf("lookup %s: status %d", code, resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return storage.Airport{}, fmt.Errorf("lookup %s: decode: %w", code, err)
	}
	if body.Name == "" && body.TZ == "" {
		return storage.Airport{}, storage.ErrNotFound
	}
	if body.TZ != "" {
		if _, err := time.LoadLocation(body.TZ); err != nil {
			return storage.Airport{}, fmt.Errorf("lookup %s: zone %q: %w", code, body.TZ, err)
		}
	}
	return storage.Airport{Code: code, Name: body.Name, Timezone: body.TZ}, nil
}
