package signals

import (
	"context"

	"github.com/maniartech/signals"
)

// SlotChangedData describes a change to a persisted slot
type SlotChangedData struct {
	Key string
	// External is true when the change was adopted from another process
	// writing the shared state file, rather than made locally.
	External bool
}

// PrayerCacheUpdatedData describes a freshly cached year of prayer timings
type PrayerCacheUpdatedData struct {
	Year int
}

// NotificationSentData describes a dispatched prayer notification
type NotificationSentData struct {
	Prayer string
	Date   string
}

// Signal definitions using generics
var SlotChanged = signals.New[SlotChangedData]()
var PrayerCacheUpdated = signals.New[PrayerCacheUpdatedData]()
var NotificationSent = signals.New[NotificationSentData]()

// EmitSlotChanged emits a signal when a persisted slot changes value
func EmitSlotChanged(ctx context.Context, key string, external bool) {
	SlotChanged.Emit(ctx, SlotChangedData{Key: key, External: external})
}

// EmitPrayerCacheUpdated emits a signal when a year of prayer timings is cached
func EmitPrayerCacheUpdated(ctx context.Context, year int) {
	PrayerCacheUpdated.Emit(ctx, PrayerCacheUpdatedData{Year: year})
}

// EmitNotificationSent emits a signal when a prayer notification is dispatched
func EmitNotificationSent(ctx context.Context, prayer, date string) {
	NotificationSent.Emit(ctx, NotificationSentData{Prayer: prayer, Date: date})
}

// OnSlotChanged registers a handler for slot change events
func OnSlotChanged(handler func(ctx context.Context, data SlotChangedData), key ...string) {
	if len(key) > 0 {
		SlotChanged.AddListener(handler, key[0])
	} else {
		SlotChanged.AddListener(handler)
	}
}

// OnPrayerCacheUpdated registers a handler for prayer cache updates
func OnPrayerCacheUpdated(handler func(ctx context.Context, data PrayerCacheUpdatedData), key ...string) {
	if len(key) > 0 {
		PrayerCacheUpdated.AddListener(handler, key[0])
	} else {
		PrayerCacheUpdated.AddListener(handler)
	}
}

// OnNotificationSent registers a handler for dispatched notifications
func OnNotificationSent(handler func(ctx context.Context, data NotificationSentData), key ...string) {
	if len(key) > 0 {
		NotificationSent.AddListener(handler, key[0])
	} else {
		NotificationSent.AddListener(handler)
	}
}
