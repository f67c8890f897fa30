package handlers

import (
	"net/http"
	"time"

	"github.com/formday/formday/internal/fitness"
)

// DayHandler serves day records: lookup, creation and completion toggles
type DayHandler struct {
	*BaseHandler
	engine *fitness.Engine
}

// NewDayHandler creates a new day record handler
func NewDayHandler(base *BaseHandler, engine *fitness.Engine) *DayHandler {
	return &DayHandler{BaseHandler: base, engine: engine}
}

// RegisterRoutes sets up the day record routes
func (h *DayHandler) RegisterRoutes() {
	h.Mux.HandleFunc("GET /api/day/{date}", h.handleGet)
	h.Mux.HandleFunc("POST /api/day/{date}", h.handleCreate)
	h.Mux.HandleFunc("POST /api/day/{date}/exercise", h.handleToggleExercise)
	h.Mux.HandleFunc("POST /api/day/{date}/meal", h.handleToggleMeal)
}

// dateParam parses the {date} path value; a nil error means date is valid
func (h *DayHandler) dateParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	date, err := fitness.ParseDate(r.PathValue("date"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid date: %s", r.PathValue("date"))
		return time.Time{}, false
	}
	return date, true
}

func (h *DayHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	record := h.engine.GetDayRecord(date)
	if record == nil {
		h.RespondError(w, http.StatusNotFound, "no record for %s", fitness.DateString(date))
		return
	}
	h.RespondJSON(w, http.StatusOK, record)
}

// handleCreate creates the day record from the applicable templates.
// Creation is guarded here: an existing record is returned untouched
// rather than overwritten with fresh identifiers.
func (h *DayHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	if existing := h.engine.GetDayRecord(date); existing != nil {
		h.RespondJSON(w, http.StatusOK, existing)
		return
	}

	record := h.engine.CreateDayRecord(date)
	h.RespondJSON(w, http.StatusCreated, record)
}

type toggleExerciseRequest struct {
	WorkoutID  string `json:"workoutId"`
	ExerciseID string `json:"exerciseId"`
}

func (h *DayHandler) handleToggleExercise(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	var req toggleExerciseRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "%s", err)
		return
	}
	if req.WorkoutID == "" || req.ExerciseID == "" {
		h.RespondError(w, http.StatusBadRequest, "workoutId and exerciseId are required")
		return
	}

	if h.engine.GetDayRecord(date) == nil {
		h.RespondError(w, http.StatusConflict, "no record for %s, create it first", fitness.DateString(date))
		return
	}

	h.engine.ToggleExercise(date, req.WorkoutID, req.ExerciseID)
	h.RespondJSON(w, http.StatusOK, h.engine.GetDayRecord(date))
}

type toggleMealRequest struct {
	MealID string `json:"mealId"`
}

func (h *DayHandler) handleToggleMeal(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	var req toggleMealRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "%s", err)
		return
	}
	if req.MealID == "" {
		h.RespondError(w, http.StatusBadRequest, "mealId is required")
		return
	}

	if h.engine.GetDayRecord(date) == nil {
		h.RespondError(w, http.StatusConflict, "no record for %s, create it first", fitness.DateString(date))
		return
	}

	h.engine.ToggleMeal(date, req.MealID)
	h.RespondJSON(w, http.StatusOK, h.engine.GetDayRecord(date))
}
