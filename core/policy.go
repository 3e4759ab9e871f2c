package core

import "math"

// StreakBonus is one tier of the consecutive-day bonus ladder. Tiers are
// non-overlapping: only the highest tier the streak reaches applies.
type StreakBonus struct {
	MinDays int     `json:"min_days"`
	Bonus   float64 `json:"bonus"`
}

// RetentionBonus rewards high recall rates on spaced repetition.
type RetentionBonus struct {
	MinRate float64 `json:"min_rate"`
	Bonus   float64 `json:"bonus"`
}

// Policy holds every scoring coefficient: base-point tables, quantity
// scaling bounds, CEFR and difficulty multipliers, flat bonuses, and the
// level threshold ladder. Deployments tune it via config; DefaultPolicy
// carries the stock coefficients.
type Policy struct {
	// BasePoints is keyed by (activity type, CEFR level). An event without a
	// level, or with a level missing from the table, scores as the type's
	// lowest tier.
	BasePoints map[ActivityType]map[CEFRLevel]float64 `json:"base_points"`

	// LevelMultipliers scale effort by CEFR tier; higher tiers yield more
	// points per unit effort.
	LevelMultipliers map[CEFRLevel]float64 `json:"level_multipliers"`

	// DifficultyMultipliers apply when the event grades its batch.
	DifficultyMultipliers map[Difficulty]float64 `json:"difficulty_multipliers"`

	// Quantity scaling: units above the floor earn QuantityUnitBonus each,
	// capped at the type's QuantityCap entry. The cap bounds single-batch
	// farming; a type absent from the map earns no bonus units, like a
	// missing floor.
	QuantityFloor     map[ActivityType]int `json:"quantity_floor"`
	QuantityCap       map[ActivityType]int `json:"quantity_cap"`
	QuantityUnitBonus float64              `json:"quantity_unit_bonus"`

	MasteryBonus float64 `json:"mastery_bonus"`

	// StreakBonuses must be sorted by MinDays descending.
	StreakBonuses []StreakBonus `json:"streak_bonuses"`

	// RetentionBonuses must be sorted by MinRate descending.
	RetentionBonuses []RetentionBonus `json:"retention_bonuses"`

	// Session bonus: per-minute credit for timed practice, capped.
	SessionUnitBonus  float64 `json:"session_unit_bonus"`
	SessionCapMinutes int     `json:"session_cap_minutes"`

	// LevelThresholds is the ascending cumulative-points ladder; index i is
	// the threshold for level i+1. The first entry must be 0.
	LevelThresholds []int64 `json:"level_thresholds"`
}

// DefaultPolicy returns the stock scoring coefficients.
func DefaultPolicy() Policy {
	return Policy{
		BasePoints: map[ActivityType]map[CEFRLevel]float64{
			ActivityAIVocabGeneration: {
				CEFRA1: 15, CEFRA2: 20, CEFRB1: 25, CEFRB2: 30, CEFRC1: 40, CEFRC2: 50,
			},
			ActivityAIPronunciation: {
				CEFRA1: 10, CEFRA2: 15, CEFRB1: 20, CEFRB2: 25, CEFRC1: 30, CEFRC2: 35,
			},
			ActivityFlashcardReview: {
				CEFRA1: 10, CEFRA2: 12, CEFRB1: 15, CEFRB2: 18, CEFRC1: 22, CEFRC2: 26,
			},
			ActivitySpacedRepetition: {
				CEFRA1: 8, CEFRA2: 10, CEFRB1: 12, CEFRB2: 15, CEFRC1: 18, CEFRC2: 21,
			},
			ActivityChatTurn: {
				CEFRA1: 3, CEFRA2: 4, CEFRB1: 5, CEFRB2: 6, CEFRC1: 8, CEFRC2: 10,
			},
		},
		LevelMultipliers: map[CEFRLevel]float64{
			CEFRA1: 1.0, CEFRA2: 1.2, CEFRB1: 1.5, CEFRB2: 1.8, CEFRC1: 2.0, CEFRC2: 2.2,
		},
		DifficultyMultipliers: map[Difficulty]float64{
			DifficultyEasy: 1.0, DifficultyMedium: 1.2, DifficultyHard: 1.5, DifficultyExpert: 2.0,
		},
		QuantityFloor: map[ActivityType]int{
			ActivityAIVocabGeneration: 10,
			ActivityAIPronunciation:   0,
			ActivityFlashcardReview:   10,
			ActivitySpacedRepetition:  10,
			ActivityChatTurn:          1,
		},
		QuantityCap: map[ActivityType]int{
			ActivityAIVocabGeneration: 20,
			ActivityAIPronunciation:   20,
			ActivityFlashcardReview:   20,
			ActivitySpacedRepetition:  20,
			ActivityChatTurn:          20,
		},
		QuantityUnitBonus: 0.5,
		MasteryBonus:      25,
		StreakBonuses: []StreakBonus{
			{MinDays: 30, Bonus: 100},
			{MinDays: 7, Bonus: 30},
		},
		RetentionBonuses: []RetentionBonus{
			{MinRate: 0.8, Bonus: 15},
			{MinRate: 0.6, Bonus: 10},
		},
		SessionUnitBonus:  0.5,
		SessionCapMinutes: 30,
		LevelThresholds:   []int64{0, 100, 300, 600, 1000, 1500, 2200, 3000, 4000, 5000},
	}
}

// Score computes the award for one event given the learner's current streak
// (already advanced for this event's day). The pipeline is base points ->
// quantity scaling -> multipliers -> flat bonuses -> round -> clamp at zero.
func (p Policy) Score(e ActivityEvent, streakDays int) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	base := p.basePoints(e.Type, e.Level)

	floor := p.QuantityFloor[e.Type]
	units := e.Quantity - floor
	if units < 0 {
		units = 0
	}
	if limit := p.QuantityCap[e.Type]; units > limit {
		units = limit
	}
	amount := base + float64(units)*p.QuantityUnitBonus

	if m, ok := p.LevelMultipliers[e.Level]; ok {
		amount *= m
	}
	if e.Difficulty != "" {
		if m, ok := p.DifficultyMultipliers[e.Difficulty]; ok {
			amount *= m
		}
	}

	if e.MasteryAchieved {
		amount += p.MasteryBonus
	}
	for _, t := range p.StreakBonuses {
		if streakDays >= t.MinDays {
			amount += t.Bonus
			break
		}
	}
	for _, t := range p.RetentionBonuses {
		if e.RetentionRate >= t.MinRate && e.RetentionRate > 0 {
			amount += t.Bonus
			break
		}
	}
	if e.SessionMinutes > 0 {
		minutes := e.SessionMinutes
		if minutes > p.SessionCapMinutes {
			minutes = p.SessionCapMinutes
		}
		amount += float64(minutes) * p.SessionUnitBonus
	}

	points := int64(math.Round(amount))
	if points < 0 {
		points = 0
	}
	return points, nil
}

// basePoints resolves the table entry, falling back to the type's lowest
// tier when the level is absent or unknown.
func (p Policy) basePoints(t ActivityType, l CEFRLevel) float64 {
	table := p.BasePoints[t]
	if table == nil {
		return 0
	}
	if v, ok := table[l]; ok {
		return v
	}
	for _, tier := range CEFRLevels {
		if v, ok := table[tier]; ok {
			return v
		}
	}
	return 0
}

// LevelFor derives the discrete level from cumulative points: the largest
// tier whose threshold does not exceed the total. Levels are 1-based and it
// is recomputed on every award, never incrementally patched.
func (p Policy) LevelFor(total int64) int {
	level := 1
	for i, threshold := range p.LevelThresholds {
		if total >= threshold {
			level = i + 1
		} else {
			break
		}
	}
	return level
}

// NextLevelThreshold returns the cumulative points needed for the level
// after the given one. ok is false at the top of the ladder.
func (p Policy) NextLevelThreshold(level int) (int64, bool) {
	if level < 1 || level >= len(p.LevelThresholds) {
		return 0, false
	}
	return p.LevelThresholds[level], true
}
