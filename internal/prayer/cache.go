package prayer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/formday/formday/internal/constants"
	"github.com/formday/formday/internal/database"
	"github.com/formday/formday/internal/logging"
	appsignals "github.com/formday/formday/internal/signals"
	"github.com/formday/formday/internal/store"
)

// Options configures the prayer data service
type Options struct {
	// BaseURL of the timings API, e.g. https://api.aladhan.com
	BaseURL string
	City    string
	Country string
	// Method selects the calculation method the API should use
	Method int
	// Client is the HTTP client used for fetches; nil means a default
	// client with a 30 second timeout.
	Client *http.Client
}

// Service caches full years of prayer timings and resolves per-date
// lookups against the cache. A year, once cached, is trusted
// indefinitely: prayer timings for a past calendar year never change.
type Service struct {
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
	city    string
	country string
	method  int

	cache       *store.Value[map[int]YearlyData]
	lastFetched *store.Value[int64]

	// now is swapped out in tests
	now func() time.Time
}

// apiEnvelope is the timings API response wrapper
type apiEnvelope struct {
	Code   int             `json:"code"`
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// NewService creates the prayer data service with its cache slots bound
// to the given store.
func NewService(kv *database.KVStore, opts Options) *Service {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Service{
		logger:      logging.GetLogger("prayer-cache"),
		client:      client,
		baseURL:     opts.BaseURL,
		city:        opts.City,
		country:     opts.Country,
		method:      opts.Method,
		cache:       store.New(kv, constants.KeyPrayerCache, map[int]YearlyData{}),
		lastFetched: store.New(kv, constants.KeyPrayerFetched, int64(0)),
		now:         time.Now,
	}
}

// Hydrate loads the cached years from durable storage
func (s *Service) Hydrate() error {
	var errs *multierror.Error
	errs = multierror.Append(errs, s.cache.Hydrate())
	errs = multierror.Append(errs, s.lastFetched.Hydrate())
	return errs.ErrorOrNil()
}

// Loading reports whether the cache is still waiting for hydration
func (s *Service) Loading() bool {
	return s.cache.Loading() || s.lastFetched.Loading()
}

// Slots exposes the service's slots for store-watcher registration
func (s *Service) Slots() []store.Slot {
	return []store.Slot{s.cache, s.lastFetched}
}

// HasYear reports whether a full year is already cached
func (s *Service) HasYear(year int) bool {
	data, ok := s.cache.Get()[year]
	return ok && len(data) > 0
}

// EnsureYear fetches a year of timings unless it is already cached
func (s *Service) EnsureYear(ctx context.Context, year int) error {
	if s.HasYear(year) {
		s.logger.Debug().Int("year", year).Msg("Year already cached, skipping fetch")
		return nil
	}
	return s.FetchYear(ctx, year)
}

// FetchYear requests a full year of prayer timings and stores it in the
// cache keyed by year. On any failure the previous cache content is
// left untouched.
func (s *Service) FetchYear(ctx context.Context, year int) error {
	query := url.Values{}
	query.Set("city", s.city)
	query.Set("country", s.country)
	query.Set("method", strconv.Itoa(s.method))
	endpoint := fmt.Sprintf("%s/v1/calendarByCity/%d?%s", s.baseURL, year, query.Encode())

	logger := s.logger.With().Int("year", year).Str("city", s.city).Str("country", s.country).Logger()
	logger.Info().Msg("Fetching prayer timings")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to build prayer timings request")
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to fetch prayer timings")
		return fmt.Errorf("failed to fetch prayer timings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Error().Int("status", resp.StatusCode).Msg("Prayer timings request rejected")
		return fmt.Errorf("prayer timings request returned status %d", resp.StatusCode)
	}

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		logger.Error().Err(err).Msg("Failed to decode prayer timings response")
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if envelope.Code != http.StatusOK || len(envelope.Data) == 0 {
		logger.Error().Int("code", envelope.Code).Str("status", envelope.Status).Msg("Prayer timings response not usable")
		return fmt.Errorf("prayer timings response code %d", envelope.Code)
	}

	var yearData YearlyData
	if err := json.Unmarshal(envelope.Data, &yearData); err != nil {
		logger.Error().Err(err).Msg("Failed to parse prayer timings payload")
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	s.cache.Update(func(prev map[int]YearlyData) map[int]YearlyData {
		prev[year] = yearData
		return prev
	})
	s.lastFetched.Update(func(int64) int64 { return s.now().UnixMilli() })
	appsignals.EmitPrayerCacheUpdated(ctx, year)

	logger.Info().Int("months", len(yearData)).Msg("Prayer timings cached")
	return nil
}

// DataForDate resolves a date against the cache. The month key is the
// 1-based month as a decimal string; days are stored 0-indexed, so
// day-of-month is shifted down by one. Returns nil when the year or day
// is not cached.
func (s *Service) DataForDate(date time.Time) *Data {
	yearData, ok := s.cache.Get()[date.Year()]
	if !ok {
		return nil
	}
	month := strconv.Itoa(int(date.Month()))
	days, ok := yearData[month]
	if !ok {
		return nil
	}
	index := date.Day() - 1
	if index < 0 || index >= len(days) {
		return nil
	}
	day := days[index]
	return &day
}

// TodayData resolves today against the cache
func (s *Service) TodayData() *Data {
	return s.DataForDate(s.now())
}

// LastFetched returns the time of the last successful fetch, zero when
// nothing was fetched yet.
func (s *Service) LastFetched() time.Time {
	millis := s.lastFetched.Get()
	if millis == 0 {
		return time.Time{}
	}
	return time.UnixMilli(millis)
}
