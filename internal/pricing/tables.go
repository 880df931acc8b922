package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/polkiloo/paperdesk/internal/domain/model"
)

// Per-word rates in USD.
var baseRates = map[model.AcademicLevel]decimal.Decimal{
	model.LevelHighSchool:    decimal.New(8, -2),
	model.LevelCollege:       decimal.New(10, -2),
	model.LevelUndergraduate: decimal.New(12, -2),
	model.LevelMasters:       decimal.New(15, -2),
	model.LevelPhD:           decimal.New(18, -2),
}

var urgencyMultipliers = map[model.Urgency]decimal.Decimal{
	model.Urgency24h: decimal.New(20, -1),
	model.Urgency48h: decimal.New(17, -1),
	model.Urgency3d:  decimal.New(15, -1),
	model.Urgency5d:  decimal.New(13, -1),
	model.Urgency7d:  decimal.New(10, -1),
	model.Urgency14d: decimal.New(9, -1),
	model.Urgency30d: decimal.New(85, -2),
}

var paperMultipliers = map[model.PaperType]decimal.Decimal{
	model.PaperEssay:        decimal.New(100, -2),
	model.PaperResearch:     decimal.New(110, -2),
	model.PaperThesis:       decimal.New(130, -2),
	model.PaperDissertation: decimal.New(150, -2),
	model.PaperCaseStudy:    decimal.New(110, -2),
	model.PaperLabReport:    decimal.New(115, -2),
	model.PaperPresentation: decimal.New(90, -2),
	model.PaperCoursework:   decimal.New(105, -2),
	model.PaperAssignment:   decimal.New(100, -2),
	model.PaperOther:        decimal.New(100, -2),
}

// Surcharge added per cited source, as a fraction of the price.
var sourceSurcharge = decimal.New(1, -2)

var one = decimal.NewFromInt(1)

// BaseRate returns the per-word rate for level and whether the level is priced.
func BaseRate(level model.AcademicLevel) (decimal.Decimal, bool) {
	r, ok := baseRates[level]
	return r, ok
}

// UrgencyMultiplier returns the factor for a deadline bucket, 1.0 when unknown.
func UrgencyMultiplier(u model.Urgency) decimal.Decimal {
	if m, ok := urgencyMultipliers[u]; ok {
		return m
	}
	return one
}

// PaperMultiplier returns the factor for a paper type, 1.0 when unknown.
func PaperMultiplier(p model.PaperType) decimal.Decimal {
	if m, ok := paperMultipliers[p]; ok {
		return m
	}
	return one
}
