package fitness

func intPtr(v int) *int { return &v }

// DefaultWeeklyPlan is the stock plan a new profile starts with
func DefaultWeeklyPlan() WeeklyPlan {
	return WeeklyPlan{
		Monday:    DayTypeWorkout,
		Tuesday:   DayTypeWorkout,
		Wednesday: DayTypeRest,
		Thursday:  DayTypeWorkout,
		Friday:    DayTypeWorkout,
		Saturday:  DayTypeRest,
		Sunday:    DayTypeRest,
	}
}

// DefaultWorkoutTemplates is the stock push/pull/legs/upper split
func DefaultWorkoutTemplates() []WorkoutTemplate {
	return []WorkoutTemplate{
		{
			ID:        "default-push-day",
			Name:      "PUSH (chest / shoulders / triceps)",
			DayOfWeek: "monday",
			Exercises: []ExerciseBlueprint{
				{ID: "push-0", Name: "Incline Stairs (warm-up)", Sets: intPtr(1), Mins: intPtr(15)},
				{ID: "push-1", Name: "Bench Press or Push-ups", Sets: intPtr(4), Reps: intPtr(10)},
				{ID: "push-2", Name: "Incline Dumbbell Press", Sets: intPtr(3), Reps: intPtr(10)},
				{ID: "push-3", Name: "Shoulder Press (DB or machine)", Sets: intPtr(3), Reps: intPtr(10)},
				{ID: "push-4", Name: "Lateral Raises", Sets: intPtr(3), Reps: intPtr(15)},
				{ID: "push-5", Name: "Triceps Pushdowns or Dips", Sets: intPtr(3), Reps: intPtr(12)},
			},
		},
		{
			ID:        "default-pull-day",
			Name:      "PULL (back / biceps)",
			DayOfWeek: "tuesday",
			Exercises: []ExerciseBlueprint{
				{ID: "pull-0", Name: "Incline Stairs (warm-up)", Sets: intPtr(1), Mins: intPtr(15)},
				{ID: "pull-1", Name: "Lat Pulldown or Pull-ups", Sets: intPtr(4), Reps: intPtr(10)},
				{ID: "pull-2", Name: "Seated Row or Barbell Row", Sets: intPtr(3), Reps: intPtr(10)},
				{ID: "pull-3", Name: "Face Pulls", Sets: intPtr(3), Reps: intPtr(15)},
				{ID: "pull-4", Name: "Dumbbell Curls", Sets: intPtr(3), Reps: intPtr(12)},
				{ID: "pull-5", Name: "Hammer Curls", Sets: intPtr(2), Reps: intPtr(12)},
			},
		},
		{
			ID:        "default-legs-day",
			Name:      "LEGS",
			DayOfWeek: "thursday",
			Exercises: []ExerciseBlueprint{
				{ID: "legs-0", Name: "Incline Stairs (warm-up)", Sets: intPtr(1), Mins: intPtr(15)},
				{ID: "legs-1", Name: "Squats or Leg Press", Sets: intPtr(4), Reps: intPtr(10)},
				{ID: "legs-2", Name: "Romanian Deadlifts", Sets: intPtr(3), Reps: intPtr(10)},
				{ID: "legs-3", Name: "Walking Lunges", Sets: intPtr(3), Reps: intPtr(10)},
				{ID: "legs-4", Name: "Leg Curls", Sets: intPtr(3), Reps: intPtr(12)},
				{ID: "legs-5", Name: "Standing Calf Raises", Sets: intPtr(4), Reps: intPtr(15)},
			},
		},
		{
			ID:        "default-upper-body",
			Name:      "UPPER (full upper)",
			DayOfWeek: "friday",
			Exercises: []ExerciseBlueprint{
				{ID: "upper-0", Name: "Incline Stairs (warm-up)", Sets: intPtr(1), Mins: intPtr(15)},
				{ID: "upper-1", Name: "Incline Bench or Push-ups", Sets: intPtr(3), Reps: intPtr(10)},
				{ID: "upper-2", Name: "Pull-ups or Lat Pulldown", Sets: intPtr(3), Reps: intPtr(10)},
				{ID: "upper-3", Name: "Dumbbell Shoulder Press", Sets: intPtr(3), Reps: intPtr(10)},
				{ID: "upper-4", Name: "Chest Fly or Cable Fly", Sets: intPtr(2), Reps: intPtr(12)},
				{ID: "upper-5", Name: "EZ-Bar Curl", Sets: intPtr(2), Reps: intPtr(12)},
				{ID: "upper-6", Name: "Triceps Pushdowns", Sets: intPtr(2), Reps: intPtr(12)},
			},
		},
	}
}

// DefaultMealTemplates is the stock standard-day meal plan
func DefaultMealTemplates() []MealTemplate {
	return []MealTemplate{
		{
			ID:        "default-standard-day",
			Name:      "Standard Day",
			DayOfWeek: "monday",
			Meals: []MealBlueprint{
				{Name: "Breakfast", Description: "Oatmeal with protein", Calories: intPtr(450)},
				{Name: "Lunch", Description: "Chicken & rice bowl", Calories: intPtr(650)},
				{Name: "Snack", Description: "Greek yogurt & nuts", Calories: intPtr(300)},
				{Name: "Dinner", Description: "Salmon with vegetables", Calories: intPtr(600)},
			},
		},
	}
}
