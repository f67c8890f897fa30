package fitness

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/formday/formday/internal/constants"
	"github.com/formday/formday/internal/database"
	"github.com/formday/formday/internal/logging"
	"github.com/formday/formday/internal/store"
)

// Engine derives and mutates day records from the weekly templates. It
// owns one persisted slot per logical concern: the records-by-date map,
// the weekly plan, the two template lists and the user profile.
type Engine struct {
	logger zerolog.Logger

	records          *store.Value[map[string]DayRecord]
	plan             *store.Value[WeeklyPlan]
	workoutTemplates *store.Value[[]WorkoutTemplate]
	mealTemplates    *store.Value[[]MealTemplate]
	profile          *store.Value[UserProfile]

	// newID is swapped out in tests for deterministic identifiers
	newID func() string
}

// NewEngine creates the engine with its slots bound to the given store.
// Slots start on their stock defaults until Hydrate runs.
func NewEngine(kv *database.KVStore) *Engine {
	return &Engine{
		logger:           logging.GetLogger("fitness-engine"),
		records:          store.New(kv, constants.KeyDayRecords, map[string]DayRecord{}),
		plan:             store.New(kv, constants.KeyWeeklyPlan, DefaultWeeklyPlan()),
		workoutTemplates: store.New(kv, constants.KeyWorkoutTemplates, DefaultWorkoutTemplates()),
		mealTemplates:    store.New(kv, constants.KeyMealTemplates, DefaultMealTemplates()),
		profile:          store.New(kv, constants.KeyProfile, UserProfile{}),
		newID:            uuid.NewString,
	}
}

// Hydrate loads every slot from durable storage. Failures are combined;
// a partially hydrated engine stays usable on defaults.
func (e *Engine) Hydrate() error {
	var errs *multierror.Error
	errs = multierror.Append(errs, e.records.Hydrate())
	errs = multierror.Append(errs, e.plan.Hydrate())
	errs = multierror.Append(errs, e.workoutTemplates.Hydrate())
	errs = multierror.Append(errs, e.mealTemplates.Hydrate())
	errs = multierror.Append(errs, e.profile.Hydrate())
	return errs.ErrorOrNil()
}

// Loading reports whether any slot is still waiting for hydration
func (e *Engine) Loading() bool {
	return e.records.Loading() ||
		e.plan.Loading() ||
		e.workoutTemplates.Loading() ||
		e.mealTemplates.Loading() ||
		e.profile.Loading()
}

// Slots exposes the engine's slots for store-watcher registration
func (e *Engine) Slots() []store.Slot {
	return []store.Slot{e.records, e.plan, e.workoutTemplates, e.mealTemplates, e.profile}
}

// GetDayRecord returns the record for a date, or nil when none exists
func (e *Engine) GetDayRecord(date time.Time) *DayRecord {
	records := e.records.Get()
	if record, ok := records[DateString(date)]; ok {
		return &record
	}
	return nil
}

// GetTodayRecord returns today's record, or nil when none exists
func (e *Engine) GetTodayRecord() *DayRecord {
	return e.GetDayRecord(time.Now())
}

// GetDayType maps a date's weekday through the weekly plan
func (e *Engine) GetDayType(date time.Time) DayType {
	return e.plan.Get().DayTypeFor(DayOfWeek(date))
}

// WorkoutTemplateForDay returns the first workout template bound to the
// date's weekday, or nil when none matches.
func (e *Engine) WorkoutTemplateForDay(date time.Time) *WorkoutTemplate {
	weekday := DayOfWeek(date)
	for _, t := range e.workoutTemplates.Get() {
		if t.DayOfWeek == weekday {
			return &t
		}
	}
	return nil
}

// MealTemplateForDay returns the first meal template bound to the
// date's weekday. Unlike workouts, meals fall back to the first
// template in the list, so every day gets a meal plan as long as any
// template exists.
func (e *Engine) MealTemplateForDay(date time.Time) *MealTemplate {
	weekday := DayOfWeek(date)
	templates := e.mealTemplates.Get()
	for _, t := range templates {
		if t.DayOfWeek == weekday {
			return &t
		}
	}
	if len(templates) > 0 {
		return &templates[0]
	}
	return nil
}

// CreateDayRecord builds and persists the record for a date by
// snapshotting the applicable templates into independently mutable
// instances with fresh identifiers. Calling it again for the same date
// overwrites the previous record with a new snapshot; callers are
// expected to check GetDayRecord first.
func (e *Engine) CreateDayRecord(date time.Time) DayRecord {
	dateString := DateString(date)
	dayType := e.GetDayType(date)
	workoutTemplate := e.WorkoutTemplateForDay(date)
	mealTemplate := e.MealTemplateForDay(date)

	record := DayRecord{
		Date:     dateString,
		DayType:  dayType,
		Workouts: []Workout{},
		Meals:    []Meal{},
	}

	if workoutTemplate != nil && dayType == DayTypeWorkout {
		workout := Workout{
			ID:        e.newID(),
			Name:      workoutTemplate.Name,
			Exercises: make([]Exercise, 0, len(workoutTemplate.Exercises)),
		}
		for _, blueprint := range workoutTemplate.Exercises {
			workout.Exercises = append(workout.Exercises, Exercise{
				ID:     e.newID(),
				Name:   blueprint.Name,
				Sets:   blueprint.Sets,
				Reps:   blueprint.Reps,
				Mins:   blueprint.Mins,
				Weight: blueprint.Weight,
			})
		}
		record.Workouts = append(record.Workouts, workout)
	}

	if mealTemplate != nil {
		for _, blueprint := range mealTemplate.Meals {
			record.Meals = append(record.Meals, Meal{
				ID:          e.newID(),
				Name:        blueprint.Name,
				Description: blueprint.Description,
				Calories:    blueprint.Calories,
			})
		}
	}

	e.records.Update(func(prev map[string]DayRecord) map[string]DayRecord {
		prev[dateString] = record
		return prev
	})

	e.logger.Info().
		Str("date", dateString).
		Str("day_type", string(dayType)).
		Int("workouts", len(record.Workouts)).
		Int("meals", len(record.Meals)).
		Msg("Day record created")
	return record
}

// UpdateDayRecord applies a mutation to the record for a date. When no
// record exists yet, the mutation runs against an empty rest-day
// scaffold for that date.
func (e *Engine) UpdateDayRecord(date time.Time, mutate func(record DayRecord) DayRecord) {
	dateString := DateString(date)
	e.records.Update(func(prev map[string]DayRecord) map[string]DayRecord {
		record, ok := prev[dateString]
		if !ok {
			record = DayRecord{
				Date:     dateString,
				DayType:  DayTypeRest,
				Workouts: []Workout{},
				Meals:    []Meal{},
			}
		}
		prev[dateString] = mutate(record)
		return prev
	})
}

// ToggleExercise flips the completed flag of one exercise. Without an
// existing record for the date the call is a warned no-op: creating the
// record first is the caller's responsibility.
func (e *Engine) ToggleExercise(date time.Time, workoutID, exerciseID string) {
	dateString := DateString(date)
	e.records.Update(func(prev map[string]DayRecord) map[string]DayRecord {
		record, ok := prev[dateString]
		if !ok {
			e.logger.Warn().Str("date", dateString).Msg("ToggleExercise: no record for date, create it first")
			return prev
		}
		for wi := range record.Workouts {
			if record.Workouts[wi].ID != workoutID {
				continue
			}
			for ei := range record.Workouts[wi].Exercises {
				if record.Workouts[wi].Exercises[ei].ID == exerciseID {
					record.Workouts[wi].Exercises[ei].Completed = !record.Workouts[wi].Exercises[ei].Completed
				}
			}
		}
		prev[dateString] = record
		return prev
	})
}

// ToggleMeal flips the completed flag of one meal. Without an existing
// record for the date the call is a warned no-op.
func (e *Engine) ToggleMeal(date time.Time, mealID string) {
	dateString := DateString(date)
	e.records.Update(func(prev map[string]DayRecord) map[string]DayRecord {
		record, ok := prev[dateString]
		if !ok {
			e.logger.Warn().Str("date", dateString).Msg("ToggleMeal: no record for date, create it first")
			return prev
		}
		for mi := range record.Meals {
			if record.Meals[mi].ID == mealID {
				record.Meals[mi].Completed = !record.Meals[mi].Completed
			}
		}
		prev[dateString] = record
		return prev
	})
}

// GetRecordsInRange scans day by day from start to end inclusive and
// collects the dates that already have a record. Missing days are
// skipped, never synthesized.
func (e *Engine) GetRecordsInRange(start, end time.Time) []DayRecord {
	records := e.records.Get()
	var result []DayRecord
	for current := start; !current.After(end); current = current.AddDate(0, 0, 1) {
		if record, ok := records[DateString(current)]; ok {
			result = append(result, record)
		}
	}
	return result
}

// WeeklyPlan returns the current weekly plan
func (e *Engine) WeeklyPlan() WeeklyPlan {
	return e.plan.Get()
}

// SetWeeklyPlan replaces the weekly plan
func (e *Engine) SetWeeklyPlan(plan WeeklyPlan) {
	e.plan.Update(func(WeeklyPlan) WeeklyPlan { return plan })
}

// WorkoutTemplates returns the current workout template list
func (e *Engine) WorkoutTemplates() []WorkoutTemplate {
	return e.workoutTemplates.Get()
}

// SetWorkoutTemplates replaces the workout template list
func (e *Engine) SetWorkoutTemplates(templates []WorkoutTemplate) {
	e.workoutTemplates.Update(func([]WorkoutTemplate) []WorkoutTemplate { return templates })
}

// MealTemplates returns the current meal template list
func (e *Engine) MealTemplates() []MealTemplate {
	return e.mealTemplates.Get()
}

// SetMealTemplates replaces the meal template list
func (e *Engine) SetMealTemplates(templates []MealTemplate) {
	e.mealTemplates.Update(func([]MealTemplate) []MealTemplate { return templates })
}

// Profile returns the current user profile
func (e *Engine) Profile() UserProfile {
	return e.profile.Get()
}

// SetProfile replaces the user profile
func (e *Engine) SetProfile(profile UserProfile) {
	e.profile.Update(func(UserProfile) UserProfile { return profile })
}
