package notify

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/formday/formday/internal/constants"
	"github.com/formday/formday/internal/database"
	"github.com/formday/formday/internal/logging"
	"github.com/formday/formday/internal/prayer"
	appsignals "github.com/formday/formday/internal/signals"
)

// Reminders are appended to the notification body, one picked at random
var Reminders = []string{
	"Take a moment to disconnect and reconnect with your Creator.",
	"Success calls! Come to prayer, come to success.",
	"A few minutes for your soul, a lifetime of peace.",
	"The best of deeds is the prayer at its proper time.",
	"Pause your busy day for a spiritual recharge.",
}

// SchedulerOptions configures the prayer notification scheduler
type SchedulerOptions struct {
	// PollInterval between prayer checks
	PollInterval time.Duration
	// Debounce is the minimum gap between two executed checks
	Debounce time.Duration
	// Window is how far ahead of a prayer the alert fires
	Window time.Duration
	// Now and Intn are injection points for tests; nil means the real
	// clock and math/rand.
	Now  func() time.Time
	Intn func(n int) int
}

// Scheduler polls the cached prayer timings and fires at most one
// notification per prayer per day when a prayer falls inside the
// upcoming window.
type Scheduler struct {
	logger     zerolog.Logger
	prayers    *prayer.Service
	dispatcher *Dispatcher
	permission *PermissionStore
	kv         *database.KVStore

	pollInterval time.Duration
	debounce     time.Duration
	window       time.Duration
	now          func() time.Time
	intn         func(n int) int

	// lastCheck carries the unix-millis stamp of the last executed
	// check, shared between the ticker goroutine and CheckNow callers.
	lastCheck *atomic.Int64
	purgeOnce sync.Once

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler wires the scheduler to its collaborators
func NewScheduler(prayers *prayer.Service, dispatcher *Dispatcher, permission *PermissionStore, kv *database.KVStore, opts SchedulerOptions) *Scheduler {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	intn := opts.Intn
	if intn == nil {
		intn = rand.Intn
	}
	return &Scheduler{
		logger:       logging.GetLogger("prayer-scheduler"),
		prayers:      prayers,
		dispatcher:   dispatcher,
		permission:   permission,
		kv:           kv,
		pollInterval: opts.PollInterval,
		debounce:     opts.Debounce,
		window:       opts.Window,
		now:          now,
		intn:         intn,
		lastCheck:    atomic.NewInt64(0),
	}
}

// Start runs one immediate check and then polls on the configured
// interval until the context is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.logger.Info().
		Dur("poll_interval", s.pollInterval).
		Dur("window", s.window).
		Msg("Starting prayer notification scheduler")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		s.CheckNow(runCtx)
		for {
			select {
			case <-runCtx.Done():
				s.logger.Info().Msg("Prayer notification scheduler stopped")
				return
			case <-ticker.C:
				s.CheckNow(runCtx)
			}
		}
	}()
}

// Stop cancels the polling loop and waits for it to exit
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// CheckNow executes a single prayer check. Calls arriving within the
// debounce interval of the previous executed check are skipped, which
// guards against overlapping timers.
func (s *Scheduler) CheckNow(ctx context.Context) {
	now := s.now()

	last := s.lastCheck.Load()
	if last != 0 && now.UnixMilli()-last < s.debounce.Milliseconds() {
		s.logger.Debug().Msg("Check debounced")
		return
	}
	s.lastCheck.Store(now.UnixMilli())

	// Stale flags from previous days are collected once per activation,
	// before any gate: flags must not linger while permission is revoked
	// or the cache is cold.
	s.purgeOnce.Do(func() {
		if err := s.purgeStaleFlags(ctx, now.Format(prayer.ReadableDateLayout)); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to purge stale notification flags")
		}
	})

	if s.permission.Current() != PermissionGranted {
		s.logger.Debug().Str("permission", string(s.permission.Current())).Msg("Notification permission not granted, skipping check")
		return
	}

	today := s.prayers.DataForDate(now)
	if today == nil {
		s.logger.Debug().Msg("No prayer timings cached for today, skipping check")
		return
	}

	for _, prayerName := range prayer.AlertedPrayers {
		raw, ok := today.Timings[prayerName]
		if !ok || raw == "" {
			continue
		}

		prayerTime, err := prayer.ParseTime(raw, now)
		if err != nil {
			// Self-healing: the next tick recomputes from scratch
			s.logger.Error().Err(err).Str("prayer", prayerName).Msg("Failed to parse prayer time, skipping this tick")
			continue
		}

		until := prayerTime.Sub(now)
		if until <= 0 || until > s.window {
			continue
		}

		flagKey := dedupeKey(today.Date.Readable, prayerName)
		if _, exists, err := s.kv.Get(flagKey); err != nil {
			s.logger.Error().Err(err).Str("prayer", prayerName).Msg("Failed to read dedupe flag, skipping")
			continue
		} else if exists {
			continue
		}

		minutes := int(math.Ceil(until.Minutes()))
		reminder := Reminders[s.intn(len(Reminders))]
		notification := Notification{
			Title: fmt.Sprintf("Upcoming Prayer: %s", prayerName),
			Body:  fmt.Sprintf("%s is in %d minutes. %s", prayerName, minutes, reminder),
			Tag:   fmt.Sprintf("prayer-%s", prayerName),
		}

		if err := s.dispatcher.Dispatch(ctx, notification); err != nil {
			s.logger.Error().Err(err).Str("prayer", prayerName).Msg("Failed to dispatch prayer notification")
		} else {
			appsignals.EmitNotificationSent(ctx, prayerName, today.Date.Readable)
		}

		// The flag is set even after a failed dispatch: one attempt per
		// prayer per day, never a retry storm.
		if err := s.kv.Set(flagKey, []byte("true")); err != nil {
			s.logger.Error().Err(err).Str("prayer", prayerName).Msg("Failed to persist dedupe flag")
		}
	}
}

// purgeStaleFlags removes dedupe flags whose embedded date is not
// today's readable date. The batch is deleted in one transaction.
func (s *Scheduler) purgeStaleFlags(ctx context.Context, todayReadable string) error {
	keys, err := s.kv.Keys(constants.NotifiedKeyPrefix)
	if err != nil {
		return fmt.Errorf("failed to list notification flags: %w", err)
	}

	var stale []string
	for _, key := range keys {
		if strings.HasPrefix(key, constants.NotifiedKeyPrefix+todayReadable+"-") {
			continue
		}
		stale = append(stale, key)
	}
	if len(stale) == 0 {
		return nil
	}

	if err := s.kv.DeleteKeys(ctx, stale); err != nil {
		return fmt.Errorf("failed to delete stale notification flags: %w", err)
	}
	s.logger.Info().Int("removed", len(stale)).Msg("Purged stale notification flags")
	return nil
}

// dedupeKey builds the per-(date, prayer) flag key
func dedupeKey(readableDate, prayerName string) string {
	return fmt.Sprintf("%s%s-%s", constants.NotifiedKeyPrefix, readableDate, prayerName)
}
