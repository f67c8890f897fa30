package handlers

import (
	"net/http"

	"github.com/formday/formday/internal/fitness"
)

// PlanHandler serves the weekly plan, the template lists and the profile
type PlanHandler struct {
	*BaseHandler
	engine *fitness.Engine
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(base *BaseHandler, engine *fitness.Engine) *PlanHandler {
	return &PlanHandler{BaseHandler: base, engine: engine}
}

// RegisterRoutes sets up the plan, template and profile routes
func (h *PlanHandler) RegisterRoutes() {
	h.Mux.HandleFunc("GET /api/plan", h.handleGetPlan)
	h.Mux.HandleFunc("PUT /api/plan", h.handlePutPlan)
	h.Mux.HandleFunc("GET /api/templates/workout", h.handleGetWorkoutTemplates)
	h.Mux.HandleFunc("PUT /api/templates/workout", h.handlePutWorkoutTemplates)
	h.Mux.HandleFunc("GET /api/templates/meal", h.handleGetMealTemplates)
	h.Mux.HandleFunc("PUT /api/templates/meal", h.handlePutMealTemplates)
	h.Mux.HandleFunc("GET /api/profile", h.handleGetProfile)
	h.Mux.HandleFunc("PUT /api/profile", h.handlePutProfile)
}

func (h *PlanHandler) handleGetPlan(w http.ResponseWriter, _ *http.Request) {
	h.RespondJSON(w, http.StatusOK, h.engine.WeeklyPlan())
}

func (h *PlanHandler) handlePutPlan(w http.ResponseWriter, r *http.Request) {
	var plan fitness.WeeklyPlan
	if err := h.DecodeJSON(r, &plan); err != nil {
		h.RespondError(w, http.StatusBadRequest, "%s", err)
		return
	}
	h.engine.SetWeeklyPlan(plan)
	h.RespondJSON(w, http.StatusOK, plan)
}

func (h *PlanHandler) handleGetWorkoutTemplates(w http.ResponseWriter, _ *http.Request) {
	h.RespondJSON(w, http.StatusOK, h.engine.WorkoutTemplates())
}

func (h *PlanHandler) handlePutWorkoutTemplates(w http.ResponseWriter, r *http.Request) {
	var templates []fitness.WorkoutTemplate
	if err := h.DecodeJSON(r, &templates); err != nil {
		h.RespondError(w, http.StatusBadRequest, "%s", err)
		return
	}
	h.engine.SetWorkoutTemplates(templates)
	h.RespondJSON(w, http.StatusOK, templates)
}

func (h *PlanHandler) handleGetMealTemplates(w http.ResponseWriter, _ *http.Request) {
	h.RespondJSON(w, http.StatusOK, h.engine.MealTemplates())
}

func (h *PlanHandler) handlePutMealTemplates(w http.ResponseWriter, r *http.Request) {
	var templates []fitness.MealTemplate
	if err := h.DecodeJSON(r, &templates); err != nil {
		h.RespondError(w, http.StatusBadRequest, "%s", err)
		return
	}
	h.engine.SetMealTemplates(templates)
	h.RespondJSON(w, http.StatusOK, templates)
}

func (h *PlanHandler) handleGetProfile(w http.ResponseWriter, _ *http.Request) {
	h.RespondJSON(w, http.StatusOK, h.engine.Profile())
}

func (h *PlanHandler) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var profile fitness.UserProfile
	if err := h.DecodeJSON(r, &profile); err != nil {
		h.RespondError(w, http.StatusBadRequest, "%s", err)
		return
	}
	h.engine.SetProfile(profile)
	h.RespondJSON(w, http.StatusOK, profile)
}
