package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formday/formday/internal/fitness"
)

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]string
	decodeData(t, rec, &status)
	assert.Equal(t, "ok", status["status"])
}

func TestGetDayWithoutRecord(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodGet, "/api/day/2025-01-06", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeError(t, rec), "2025-01-06")
}

func TestGetDayInvalidDate(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodGet, "/api/day/yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateDay(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodPost, "/api/day/2025-01-06", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var record fitness.DayRecord
	decodeData(t, rec, &record)
	assert.Equal(t, "2025-01-06", record.Date)
	assert.Equal(t, fitness.DayTypeWorkout, record.DayType)
	require.Len(t, record.Workouts, 1)
	assert.Len(t, record.Meals, 4)
}

func TestCreateDayIsGuarded(t *testing.T) {
	env := newTestEnv(t, "")

	first := env.do(t, http.MethodPost, "/api/day/2025-01-06", nil)
	require.Equal(t, http.StatusCreated, first.Code)
	var created fitness.DayRecord
	decodeData(t, first, &created)

	// A second create returns the existing record, identifiers intact
	second := env.do(t, http.MethodPost, "/api/day/2025-01-06", nil)
	require.Equal(t, http.StatusOK, second.Code)
	var existing fitness.DayRecord
	decodeData(t, second, &existing)
	assert.Equal(t, created.Workouts[0].ID, existing.Workouts[0].ID)
}

func TestToggleExerciseEndpoint(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodPost, "/api/day/2025-01-06", nil)
	var record fitness.DayRecord
	decodeData(t, rec, &record)

	body := map[string]string{
		"workoutId":  record.Workouts[0].ID,
		"exerciseId": record.Workouts[0].Exercises[2].ID,
	}
	rec = env.do(t, http.MethodPost, "/api/day/2025-01-06/exercise", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated fitness.DayRecord
	decodeData(t, rec, &updated)
	assert.True(t, updated.Workouts[0].Exercises[2].Completed)
	assert.False(t, updated.Workouts[0].Exercises[0].Completed)
}

func TestToggleExerciseWithoutRecord(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodPost, "/api/day/2025-01-06/exercise", map[string]string{
		"workoutId":  "w",
		"exerciseId": "e",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestToggleExerciseValidation(t *testing.T) {
	env := newTestEnv(t, "")
	env.do(t, http.MethodPost, "/api/day/2025-01-06", nil)

	rec := env.do(t, http.MethodPost, "/api/day/2025-01-06/exercise", map[string]string{"workoutId": "w"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown fields are rejected
	rec = env.do(t, http.MethodPost, "/api/day/2025-01-06/exercise", map[string]string{
		"workoutId":  "w",
		"exerciseId": "e",
		"bogus":      "x",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToggleMealEndpoint(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodPost, "/api/day/2025-01-06", nil)
	var record fitness.DayRecord
	decodeData(t, rec, &record)

	rec = env.do(t, http.MethodPost, "/api/day/2025-01-06/meal", map[string]string{
		"mealId": record.Meals[0].ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated fitness.DayRecord
	decodeData(t, rec, &updated)
	assert.True(t, updated.Meals[0].Completed)
}

func TestToggleMealWithoutRecord(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodPost, "/api/day/2025-01-06/meal", map[string]string{"mealId": "m"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}
