package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formday/formday/internal/fitness"
)

func TestGetPlanReturnsDefaults(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodGet, "/api/plan", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var plan fitness.WeeklyPlan
	decodeData(t, rec, &plan)
	assert.Equal(t, fitness.DayTypeWorkout, plan.Monday)
	assert.Equal(t, fitness.DayTypeRest, plan.Sunday)
}

func TestPutPlanRoundTrip(t *testing.T) {
	env := newTestEnv(t, "")

	plan := fitness.DefaultWeeklyPlan()
	plan.Saturday = fitness.DayTypeWorkout
	rec := env.do(t, http.MethodPut, "/api/plan", plan)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/plan", nil)
	var stored fitness.WeeklyPlan
	decodeData(t, rec, &stored)
	assert.Equal(t, fitness.DayTypeWorkout, stored.Saturday)
}

func TestPutWorkoutTemplates(t *testing.T) {
	env := newTestEnv(t, "")

	templates := []fitness.WorkoutTemplate{{
		ID:        "custom",
		Name:      "Custom Day",
		DayOfWeek: "wednesday",
		Exercises: []fitness.ExerciseBlueprint{{Name: "Rowing"}},
	}}
	rec := env.do(t, http.MethodPut, "/api/templates/workout", templates)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/templates/workout", nil)
	var stored []fitness.WorkoutTemplate
	decodeData(t, rec, &stored)
	require.Len(t, stored, 1)
	assert.Equal(t, "custom", stored[0].ID)
}

func TestPutMealTemplates(t *testing.T) {
	env := newTestEnv(t, "")

	templates := []fitness.MealTemplate{{
		ID:        "cutting",
		Name:      "Cutting Day",
		DayOfWeek: "monday",
		Meals:     []fitness.MealBlueprint{{Name: "Salad"}},
	}}
	rec := env.do(t, http.MethodPut, "/api/templates/meal", templates)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/templates/meal", nil)
	var stored []fitness.MealTemplate
	decodeData(t, rec, &stored)
	require.Len(t, stored, 1)
	assert.Equal(t, "cutting", stored[0].ID)
}

func TestProfileRoundTrip(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodPut, "/api/profile", fitness.UserProfile{
		Name:  "Sam",
		Email: "sam@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/profile", nil)
	var stored fitness.UserProfile
	decodeData(t, rec, &stored)
	assert.Equal(t, "Sam", stored.Name)
	assert.Equal(t, "sam@example.com", stored.Email)
}

func TestPutPlanRejectsMalformedBody(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodPut, "/api/plan", map[string]string{"monday": "workout", "bogus": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
