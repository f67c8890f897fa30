package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formday/formday/internal/constants"
	"github.com/formday/formday/internal/database"
	"github.com/formday/formday/internal/prayer"
)

func setupTestKV(t *testing.T) *database.KVStore {
	t.Helper()

	db, err := database.New(database.NewDefaultOptions(filepath.Join(t.TempDir(), "notify-test.db")))
	require.NoError(t, err)
	require.NoError(t, db.MigrateDatabase())
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	kv, err := database.NewKVStore(db)
	require.NoError(t, err)
	return kv
}

// seedPrayerCache writes a cache document covering exactly the given day
// with the given timings, padding the month so the day lands on its
// 0-indexed slot.
func seedPrayerCache(t *testing.T, kv *database.KVStore, day time.Time, timings prayer.Timings) {
	t.Helper()

	days := make([]prayer.Data, day.Day())
	for i := range days {
		date := time.Date(day.Year(), day.Month(), i+1, 0, 0, 0, 0, day.Location())
		days[i] = prayer.Data{
			Timings: timings,
			Date:    prayer.Date{Readable: date.Format("02 Jan 2006")},
		}
	}

	cache := map[int]prayer.YearlyData{
		day.Year(): {fmt.Sprintf("%d", int(day.Month())): days},
	}
	raw, err := json.Marshal(cache)
	require.NoError(t, err)
	require.NoError(t, kv.Set(constants.KeyPrayerCache, raw))
}

type schedulerFixture struct {
	kv        *database.KVStore
	scheduler *Scheduler
	recorder  *recorderNotifier
	now       time.Time
}

// checkDay is a Monday morning with Fajr seven minutes out
var checkDay = time.Date(2025, 1, 6, 5, 45, 0, 0, time.Local)

func newSchedulerFixture(t *testing.T, grant bool, timings prayer.Timings) *schedulerFixture {
	t.Helper()

	kv := setupTestKV(t)
	seedPrayerCache(t, kv, checkDay, timings)

	prayers := prayer.NewService(kv, prayer.Options{BaseURL: "http://unused.invalid"})
	require.NoError(t, prayers.Hydrate())

	permission := NewPermissionStore(kv)
	require.NoError(t, permission.Hydrate())
	if grant {
		permission.Request()
	}

	recorder := &recorderNotifier{name: "recorder"}
	scheduler := NewScheduler(prayers, NewDispatcher(recorder), permission, kv, SchedulerOptions{
		PollInterval: time.Hour,
		Debounce:     0,
		Window:       10 * time.Minute,
		Now:          func() time.Time { return checkDay },
		Intn:         func(int) int { return 0 },
	})

	return &schedulerFixture{kv: kv, scheduler: scheduler, recorder: recorder, now: checkDay}
}

func TestCheckFiresOnceForPrayerInWindow(t *testing.T) {
	f := newSchedulerFixture(t, true, prayer.Timings{prayer.Fajr: "05:52 (GMT)"})

	ctx := context.Background()
	f.scheduler.CheckNow(ctx)
	f.scheduler.CheckNow(ctx)
	f.scheduler.CheckNow(ctx)

	require.Len(t, f.recorder.sent, 1)
	n := f.recorder.sent[0]
	assert.Equal(t, "Upcoming Prayer: Fajr", n.Title)
	assert.Equal(t, "Fajr is in 7 minutes. "+Reminders[0], n.Body)
	assert.Equal(t, "prayer-Fajr", n.Tag)

	// The dedupe flag is persisted under the readable date
	_, exists, err := f.kv.Get("notified-06 Jan 2025-Fajr")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCheckSkipsWithoutPermission(t *testing.T) {
	f := newSchedulerFixture(t, false, prayer.Timings{prayer.Fajr: "05:52 (GMT)"})

	f.scheduler.CheckNow(context.Background())
	assert.Empty(t, f.recorder.sent)

	keys, err := f.kv.Keys(constants.NotifiedKeyPrefix)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestCheckWindowBounds(t *testing.T) {
	f := newSchedulerFixture(t, true, prayer.Timings{
		prayer.Fajr:    "05:40 (GMT)", // already past
		prayer.Dhuhr:   "05:45 (GMT)", // exactly now, not upcoming
		prayer.Asr:     "05:55 (GMT)", // inside the window
		prayer.Maghrib: "05:56 (GMT)", // just beyond the 10 minute window
		prayer.Isha:    "18:20 (GMT)", // far out
	})

	f.scheduler.CheckNow(context.Background())

	require.Len(t, f.recorder.sent, 1)
	assert.Equal(t, "prayer-Asr", f.recorder.sent[0].Tag)
}

func TestCheckInclusiveWindowEdge(t *testing.T) {
	// Exactly ten minutes out still fires
	f := newSchedulerFixture(t, true, prayer.Timings{prayer.Fajr: "05:55 (GMT)"})

	f.scheduler.CheckNow(context.Background())
	require.Len(t, f.recorder.sent, 1)
	assert.Contains(t, f.recorder.sent[0].Body, "in 10 minutes")
}

func TestCheckSkipsSunrise(t *testing.T) {
	f := newSchedulerFixture(t, true, prayer.Timings{prayer.Sunrise: "05:50 (GMT)"})

	f.scheduler.CheckNow(context.Background())
	assert.Empty(t, f.recorder.sent)
}

func TestCheckSkipsUnparseableTiming(t *testing.T) {
	f := newSchedulerFixture(t, true, prayer.Timings{
		prayer.Fajr:  "garbage",
		prayer.Dhuhr: "05:50 (GMT)",
	})

	f.scheduler.CheckNow(context.Background())

	require.Len(t, f.recorder.sent, 1)
	assert.Equal(t, "prayer-Dhuhr", f.recorder.sent[0].Tag)

	// No flag for the prayer that could not be parsed
	_, exists, err := f.kv.Get("notified-06 Jan 2025-Fajr")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCheckSkipsWithoutCachedTimings(t *testing.T) {
	kv := setupTestKV(t)

	prayers := prayer.NewService(kv, prayer.Options{BaseURL: "http://unused.invalid"})
	require.NoError(t, prayers.Hydrate())

	permission := NewPermissionStore(kv)
	require.NoError(t, permission.Hydrate())
	permission.Request()

	recorder := &recorderNotifier{name: "recorder"}
	scheduler := NewScheduler(prayers, NewDispatcher(recorder), permission, kv, SchedulerOptions{
		Window: 10 * time.Minute,
		Now:    func() time.Time { return checkDay },
	})

	scheduler.CheckNow(context.Background())
	assert.Empty(t, recorder.sent)
}

func TestFlagSetEvenWhenDispatchFails(t *testing.T) {
	f := newSchedulerFixture(t, true, prayer.Timings{prayer.Fajr: "05:52 (GMT)"})
	f.recorder.fail = true

	ctx := context.Background()
	f.scheduler.CheckNow(ctx)

	// One attempt per prayer per day, even after a failed delivery
	_, exists, err := f.kv.Get("notified-06 Jan 2025-Fajr")
	require.NoError(t, err)
	assert.True(t, exists)

	f.recorder.fail = false
	f.scheduler.CheckNow(ctx)
	assert.Empty(t, f.recorder.sent)
}

func TestDebounceSkipsRapidChecks(t *testing.T) {
	f := newSchedulerFixture(t, true, prayer.Timings{prayer.Fajr: "05:52 (GMT)"})
	f.scheduler.debounce = 20 * time.Second

	ctx := context.Background()
	f.scheduler.CheckNow(ctx)
	require.Len(t, f.recorder.sent, 1)

	// Remove the flag: a second check would fire again were it executed
	require.NoError(t, f.kv.Delete("notified-06 Jan 2025-Fajr"))
	f.scheduler.CheckNow(ctx)
	assert.Len(t, f.recorder.sent, 1)
}

func TestStaleFlagsPurgedOnFirstCheck(t *testing.T) {
	f := newSchedulerFixture(t, true, prayer.Timings{prayer.Isha: "18:20 (GMT)"})

	require.NoError(t, f.kv.Set("notified-05 Jan 2025-Fajr", []byte("true")))
	require.NoError(t, f.kv.Set("notified-05 Jan 2025-Isha", []byte("true")))
	require.NoError(t, f.kv.Set("notified-06 Jan 2025-Fajr", []byte("true")))

	f.scheduler.CheckNow(context.Background())

	keys, err := f.kv.Keys(constants.NotifiedKeyPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{"notified-06 Jan 2025-Fajr"}, keys)
}

func TestStaleFlagsPurgedWithoutPermission(t *testing.T) {
	// The purge runs before the permission gate: revoked notifications
	// must not leave old flags behind forever.
	f := newSchedulerFixture(t, false, prayer.Timings{prayer.Isha: "18:20 (GMT)"})

	require.NoError(t, f.kv.Set("notified-05 Jan 2025-Fajr", []byte("true")))
	require.NoError(t, f.kv.Set("notified-06 Jan 2025-Fajr", []byte("true")))

	f.scheduler.CheckNow(context.Background())
	assert.Empty(t, f.recorder.sent)

	keys, err := f.kv.Keys(constants.NotifiedKeyPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{"notified-06 Jan 2025-Fajr"}, keys)
}

func TestStaleFlagsPurgedWithColdCache(t *testing.T) {
	kv := setupTestKV(t)
	require.NoError(t, kv.Set("notified-05 Jan 2025-Fajr", []byte("true")))

	prayers := prayer.NewService(kv, prayer.Options{BaseURL: "http://unused.invalid"})
	require.NoError(t, prayers.Hydrate())

	permission := NewPermissionStore(kv)
	require.NoError(t, permission.Hydrate())
	permission.Request()

	recorder := &recorderNotifier{name: "recorder"}
	scheduler := NewScheduler(prayers, NewDispatcher(recorder), permission, kv, SchedulerOptions{
		Window: 10 * time.Minute,
		Now:    func() time.Time { return checkDay },
	})

	scheduler.CheckNow(context.Background())
	assert.Empty(t, recorder.sent)

	keys, err := kv.Keys(constants.NotifiedKeyPrefix)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestReminderSelectionUsesInjectedSource(t *testing.T) {
	f := newSchedulerFixture(t, true, prayer.Timings{prayer.Fajr: "05:52 (GMT)"})
	f.scheduler.intn = func(n int) int { return n - 1 }

	f.scheduler.CheckNow(context.Background())
	require.Len(t, f.recorder.sent, 1)
	assert.Contains(t, f.recorder.sent[0].Body, Reminders[len(Reminders)-1])
}

func TestPermissionLifecycle(t *testing.T) {
	kv := setupTestKV(t)
	p := NewPermissionStore(kv)
	require.NoError(t, p.Hydrate())

	assert.Equal(t, PermissionDefault, p.Current())
	assert.Equal(t, PermissionGranted, p.Request())
	assert.Equal(t, PermissionGranted, p.Current())

	p.Deny()
	assert.Equal(t, PermissionDenied, p.Current())

	// A standing denial is sticky until reset
	assert.Equal(t, PermissionDenied, p.Request())

	p.Reset()
	assert.Equal(t, PermissionDefault, p.Current())
	assert.Equal(t, PermissionGranted, p.Request())
}

func TestPermissionPersists(t *testing.T) {
	kv := setupTestKV(t)

	first := NewPermissionStore(kv)
	require.NoError(t, first.Hydrate())
	first.Deny()

	second := NewPermissionStore(kv)
	require.NoError(t, second.Hydrate())
	assert.Equal(t, PermissionDenied, second.Current())
}
