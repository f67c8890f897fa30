package constants

// AppName is the canonical application name used in logs and notifications
const AppName = "Formday"

// Storage slot keys. Each key addresses one JSON document in the kv table.
const (
	KeyDayRecords       = "formday-records"
	KeyWeeklyPlan       = "formday-weekly-plan"
	KeyWorkoutTemplates = "formday-workout-templates"
	KeyMealTemplates    = "formday-meal-templates"
	KeyProfile          = "formday-profile"
	KeyPrayerCache      = "prayers-cache"
	KeyPrayerFetched    = "prayers-last-fetched"
	KeyNotifyPermission = "notify-permission"
)

// NotifiedKeyPrefix prefixes the per-(date, prayer) dedupe flags,
// e.g. "notified-06 Jan 2025-Fajr".
const NotifiedKeyPrefix = "notified-"
