package domain

// CategoryForGoals maps a profile to the primary catalog category used for
// plan selection. Every input resolves: lose_weight wins, otherwise the
// fitness level decides, and anything unrecognised lands on beginner.
func CategoryForGoals(goals []string, level FitnessLevel) Category {
	for _, g := range goals {
		if g == GoalLoseWeight {
			return CategoryWeightLoss
		}
	}
	switch level {
	case LevelIntermediate:
		return CategoryIntermediate
	case LevelAdvanced:
		return CategoryAdvanced
	default:
		return CategoryBeginner
	}
}

// CandidateCategories is the category set queried for a profile's plan pool.
// CategoryFree is always included as filler.
func CandidateCategories(goals []string, level FitnessLevel) []Category {
	primary := CategoryForGoals(goals, level)
	cats := []Category{primary}
	if primary == CategoryWeightLoss {
		cats = append(cats, CategoryForGoals(nil, level))
	}
	return append(cats, CategoryFree)
}

// IntensityForLevel maps a fitness level to catalog intensity.
func IntensityForLevel(level FitnessLevel) Intensity {
	switch level {
	case LevelIntermediate:
		return IntensityModerate
	case LevelAdvanced:
		return IntensityIntense
	default:
		return IntensityLight
	}
}

// MinimumStepsForLevel is the floor for a plan's starting step target.
func MinimumStepsForLevel(level FitnessLevel) int {
	switch level {
	case LevelIntermediate:
		return 7500
	case LevelAdvanced:
		return 10000
	default:
		return 5000
	}
}
