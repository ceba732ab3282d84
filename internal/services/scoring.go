package services

import (
	"encoding/json"
	"math"
	"sort"

	"gorm.io/datatypes"

	"github.com/blueberry-insights/talentflow/internal/models"
)

// Score levels bucketing the global motivations score.
const (
	ScoreLevelVeryLow      = "very_low"
	ScoreLevelLow          = "low"
	ScoreLevelModerateLow  = "moderate_low"
	ScoreLevelModerateHigh = "moderate_high"
	ScoreLevelHigh         = "high"
)

// Scale bounds applied when a question omits them, and the max-score
// fallback used when scorable questions disagree on their bounds. The
// fallback is an inherited compatibility choice.
const (
	defaultScaleMin       = 1.0
	defaultScaleMax       = 5.0
	heterogeneousMaxScore = 5.0
)

// ScoreResult is the persisted scoring breakdown for a motivations test.
type ScoreResult struct {
	Dimensions map[string]float64 `json:"dimensions"`
	Global     float64            `json:"global"`
	Level      string             `json:"level"`
}

// marshal renders the result as the JSON payload stored on the submission.
func (r *ScoreResult) marshal() (datatypes.JSON, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(payload), nil
}

// Scorecard carries the three score fields patched onto a submission.
// All fields are nil when the test is not scorable.
type Scorecard struct {
	NumericScore *float64
	MaxScore     *float64
	Result       *ScoreResult
}

// ComputeMotivationsScore derives per-dimension and global scores from a
// submission's answers. Pure and deterministic: no clock, no randomness, no
// I/O. Only scale questions carrying a dimension code are scorable; answered
// values are clamped into the question's bounds and reflected around the
// scale for reversed questions. Dimensions weigh equally in the global mean
// regardless of how many questions each contains.
func ComputeMotivationsScore(test *models.Test, questions []models.Question, answers []models.Answer) Scorecard {
	if test == nil || test.Type != models.TestTypeMotivations {
		return Scorecard{}
	}

	answered := make(map[string]float64, len(answers))
	for _, answer := range answers {
		if answer.ValueNumber != nil {
			answered[answer.QuestionID] = *answer.ValueNumber
		}
	}

	type bounds struct{ min, max float64 }
	byDimension := make(map[string][]float64)
	var scorableSpan *bounds
	homogeneous := true
	sawScorable := false

	for _, question := range questions {
		if question.Kind != models.QuestionKindScale || question.DimensionCode == "" {
			continue
		}

		min := defaultScaleMin
		if question.MinValue != nil {
			min = *question.MinValue
		}
		max := defaultScaleMax
		if question.MaxValue != nil {
			max = *question.MaxValue
		}

		sawScorable = true
		if scorableSpan == nil {
			scorableSpan = &bounds{min: min, max: max}
		} else if scorableSpan.min != min || scorableSpan.max != max {
			homogeneous = false
		}

		// Degenerate or non-finite scales cannot produce a meaningful value.
		if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) || max <= min {
			continue
		}

		value, ok := answered[question.ID]
		if !ok {
			continue
		}

		value = math.Min(math.Max(value, min), max)
		if question.IsReversed {
			value = min + max - value
		}

		byDimension[question.DimensionCode] = append(byDimension[question.DimensionCode], value)
	}

	if len(byDimension) == 0 {
		return Scorecard{}
	}

	dimensions := make(map[string]float64, len(byDimension))
	codes := make([]string, 0, len(byDimension))
	for code := range byDimension {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var globalSum float64
	for _, code := range codes {
		values := byDimension[code]
		var sum float64
		for _, value := range values {
			sum += value
		}
		mean := round2(sum / float64(len(values)))
		dimensions[code] = mean
		globalSum += mean
	}

	global := round2(globalSum / float64(len(codes)))

	maxScore := heterogeneousMaxScore
	if sawScorable && homogeneous && scorableSpan != nil {
		maxScore = scorableSpan.max
	}

	return Scorecard{
		NumericScore: &global,
		MaxScore:     &maxScore,
		Result: &ScoreResult{
			Dimensions: dimensions,
			Global:     global,
			Level:      scoreLevel(global),
		},
	}
}

// scoreLevel buckets a global score: <2 very_low; [2,3) low; [3,3.5)
// moderate_low; [3.5,4] moderate_high; >4 high.
func scoreLevel(global float64) string {
	switch {
	case global < 2:
		return ScoreLevelVeryLow
	case global < 3:
		return ScoreLevelLow
	case global < 3.5:
		return ScoreLevelModerateLow
	case global <= 4:
		return ScoreLevelModerateHigh
	default:
		return ScoreLevelHigh
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
