package fitness

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DayType classifies a calendar day in the weekly plan
type DayType string

const (
	DayTypeWorkout DayType = "workout"
	DayTypeRest    DayType = "rest"
)

// DateLayout is the canonical YYYY-MM-DD form used as the day record key
const DateLayout = "2006-01-02"

// Exercise is one exercise inside a workout. The numeric attributes are
// all independently optional.
type Exercise struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Sets      *int     `json:"sets,omitempty"`
	Reps      *int     `json:"reps,omitempty"`
	Mins      *int     `json:"mins,omitempty"`
	Weight    *float64 `json:"weight,omitempty"`
	Completed bool     `json:"completed"`
}

// Workout is a named group of exercises inside a day record
type Workout struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Exercises []Exercise `json:"exercises"`
	Completed bool       `json:"completed"`
}

// Meal is one meal inside a day record
type Meal struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Calories    *int   `json:"calories,omitempty"`
	Completed   bool   `json:"completed"`
}

// DayRecord is the concrete snapshot of one calendar day's plan.
// Once created it is never re-derived: template edits do not alter it.
type DayRecord struct {
	Date     string    `json:"date"`
	DayType  DayType   `json:"dayType"`
	Workouts []Workout `json:"workouts"`
	Meals    []Meal    `json:"meals"`
	Notes    string    `json:"notes,omitempty"`
}

// WeeklyPlan maps each weekday to a day type
type WeeklyPlan struct {
	Monday    DayType `json:"monday"`
	Tuesday   DayType `json:"tuesday"`
	Wednesday DayType `json:"wednesday"`
	Thursday  DayType `json:"thursday"`
	Friday    DayType `json:"friday"`
	Saturday  DayType `json:"saturday"`
	Sunday    DayType `json:"sunday"`
}

// DayTypeFor returns the plan entry for a lowercase weekday name.
// Unknown names count as rest days.
func (p WeeklyPlan) DayTypeFor(weekday string) DayType {
	switch weekday {
	case "monday":
		return p.Monday
	case "tuesday":
		return p.Tuesday
	case "wednesday":
		return p.Wednesday
	case "thursday":
		return p.Thursday
	case "friday":
		return p.Friday
	case "saturday":
		return p.Saturday
	case "sunday":
		return p.Sunday
	default:
		return DayTypeRest
	}
}

// ExerciseBlueprint is an exercise inside a workout template: no
// completion state, and the identifier is optional.
type ExerciseBlueprint struct {
	ID     string   `json:"id,omitempty"`
	Name   string   `json:"name"`
	Sets   *int     `json:"sets,omitempty"`
	Reps   *int     `json:"reps,omitempty"`
	Mins   *int     `json:"mins,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
}

// WorkoutTemplate is a per-weekday workout blueprint
type WorkoutTemplate struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	DayOfWeek string              `json:"dayOfWeek"`
	Exercises []ExerciseBlueprint `json:"exercises"`
}

// MealBlueprint is a meal inside a meal template
type MealBlueprint struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Calories    *int   `json:"calories,omitempty"`
}

// MealTemplate is a per-weekday meal blueprint
type MealTemplate struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	DayOfWeek string          `json:"dayOfWeek"`
	Meals     []MealBlueprint `json:"meals"`
}

// UserProfile holds the user's identity. No validation is applied.
type UserProfile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DateString canonicalizes a time to its YYYY-MM-DD day key
func DateString(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a canonical YYYY-MM-DD day key into the local
// midnight of that day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// DayOfWeek returns the lowercase weekday name for a date
func DayOfWeek(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}

// FormatDateDisplay renders a date the way the UI shows it, e.g. "Mon, Jan 6"
func FormatDateDisplay(t time.Time) string {
	return t.Format("Mon, Jan 2")
}

// CalculateWorkoutCompletion returns the rounded percentage of
// completed exercises across all workouts of a day. Days without
// exercises count as zero.
func CalculateWorkoutCompletion(workouts []Workout) int {
	total := 0
	completed := 0
	for _, w := range workouts {
		total += len(w.Exercises)
		for _, e := range w.Exercises {
			if e.Completed {
				completed++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// CalculateMealCompletion returns the rounded percentage of completed
// meals. Days without meals count as zero.
func CalculateMealCompletion(meals []Meal) int {
	if len(meals) == 0 {
		return 0
	}
	completed := 0
	for _, m := range meals {
		if m.Completed {
			completed++
		}
	}
	return int(math.Round(float64(completed) / float64(len(meals)) * 100))
}
