package handlers

import (
	"net/http"

	"github.com/formday/formday/internal/fitness"
)

// AnalyticsHandler serves completion statistics over a date range
type AnalyticsHandler struct {
	*BaseHandler
	engine *fitness.Engine
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(base *BaseHandler, engine *fitness.Engine) *AnalyticsHandler {
	return &AnalyticsHandler{BaseHandler: base, engine: engine}
}

// RegisterRoutes sets up the analytics routes
func (h *AnalyticsHandler) RegisterRoutes() {
	h.Mux.HandleFunc("GET /api/analytics", h.handleRange)
}

// dayStats is one day's derived completion metrics
type dayStats struct {
	Date              string          `json:"date"`
	DayType           fitness.DayType `json:"dayType"`
	WorkoutCompletion int             `json:"workoutCompletion"`
	MealCompletion    int             `json:"mealCompletion"`
}

// rangeStats aggregates a range of recorded days
type rangeStats struct {
	Days                 []dayStats `json:"days"`
	RecordedDays         int        `json:"recordedDays"`
	AvgWorkoutCompletion int        `json:"avgWorkoutCompletion"`
	AvgMealCompletion    int        `json:"avgMealCompletion"`
}

func (h *AnalyticsHandler) handleRange(w http.ResponseWriter, r *http.Request) {
	start, err := fitness.ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid start date")
		return
	}
	end, err := fitness.ParseDate(r.URL.Query().Get("end"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid end date")
		return
	}
	if end.Before(start) {
		h.RespondError(w, http.StatusBadRequest, "end date precedes start date")
		return
	}

	records := h.engine.GetRecordsInRange(start, end)
	stats := rangeStats{Days: make([]dayStats, 0, len(records)), RecordedDays: len(records)}

	workoutSum := 0
	mealSum := 0
	for _, record := range records {
		day := dayStats{
			Date:              record.Date,
			DayType:           record.DayType,
			WorkoutCompletion: fitness.CalculateWorkoutCompletion(record.Workouts),
			MealCompletion:    fitness.CalculateMealCompletion(record.Meals),
		}
		workoutSum += day.WorkoutCompletion
		mealSum += day.MealCompletion
		stats.Days = append(stats.Days, day)
	}
	if len(records) > 0 {
		stats.AvgWorkoutCompletion = workoutSum / len(records)
		stats.AvgMealCompletion = mealSum / len(records)
	}

	h.RespondJSON(w, http.StatusOK, stats)
}
