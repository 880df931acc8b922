// Package pricing is the single source of truth for order prices. The intake
// form, the quote API and the checkout all call into it.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/polkiloo/paperdesk/internal/domain/model"
)

// Input is the order configuration a price depends on.
type Input struct {
	AcademicLevel model.AcademicLevel
	WordCount     int
	Urgency       model.Urgency
	PaperType     model.PaperType
	SourceCount   int
}

// Breakdown lists the factors that produced a price.
type Breakdown struct {
	BaseRate          decimal.Decimal
	WordCount         int
	UrgencyMultiplier decimal.Decimal
	PaperMultiplier   decimal.Decimal
	SourceFactor      decimal.Decimal
	Total             decimal.Decimal
}

// Calculate returns the price in USD rounded to cents.
//
// Orders under the minimum word count and orders with an unknown academic
// level cost zero: they are not yet valid orders.
func Calculate(in Input) decimal.Decimal {
	return Explain(in).Total
}

// Explain computes the price along with each factor.
func Explain(in Input) Breakdown {
	sources := in.SourceCount
	if sources < 0 {
		sources = 0
	}

	rate, priced := BaseRate(in.AcademicLevel)
	b := Breakdown{
		BaseRate:          rate,
		WordCount:         in.WordCount,
		UrgencyMultiplier: UrgencyMultiplier(in.Urgency),
		PaperMultiplier:   PaperMultiplier(in.PaperType),
		SourceFactor:      one.Add(sourceSurcharge.Mul(decimal.NewFromInt(int64(sources)))),
		Total:             decimal.Zero,
	}

	if !priced || in.WordCount < model.MinWordCount {
		return b
	}

	b.Total = rate.
		Mul(decimal.NewFromInt(int64(in.WordCount))).
		Mul(b.UrgencyMultiplier).
		Mul(b.PaperMultiplier).
		Mul(b.SourceFactor).
		Round(2)
	return b
}
