package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polkiloo/paperdesk/internal/domain/model"
)

func TestCalculateExamples(t *testing.T) {
	cases := []struct {
		name string
		in   Input
		want string
	}{
		{
			name: "college one week",
			in:   Input{AcademicLevel: model.LevelCollege, WordCount: 1000, Urgency: model.Urgency7d, PaperType: model.PaperEssay},
			want: "100.00",
		},
		{
			name: "phd twenty four hours",
			in:   Input{AcademicLevel: model.LevelPhD, WordCount: 500, Urgency: model.Urgency24h, PaperType: model.PaperEssay},
			want: "180.00",
		},
		{
			name: "below minimum",
			in:   Input{AcademicLevel: model.LevelPhD, WordCount: 200, Urgency: model.Urgency24h, PaperType: model.PaperDissertation, SourceCount: 10},
			want: "0.00",
		},
		{
			name: "sources and paper type",
			in:   Input{AcademicLevel: model.LevelMasters, WordCount: 2000, Urgency: model.Urgency14d, PaperType: model.PaperThesis, SourceCount: 5},
			// 0.15 * 2000 * 0.9 * 1.3 * 1.05
			want: "368.55",
		},
		{
			name: "rounded to cents",
			in:   Input{AcademicLevel: model.LevelHighSchool, WordCount: 333, Urgency: model.Urgency30d, PaperType: model.PaperLabReport, SourceCount: 1},
			// 0.08 * 333 * 0.85 * 1.15 * 1.01 = 26.3030...
			want: "26.30",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Calculate(tc.in).StringFixed(2))
		})
	}
}

func TestCalculateZeroBelowMinimumWordCount(t *testing.T) {
	for words := -1; words < model.MinWordCount; words += 37 {
		for _, level := range model.AcademicLevels() {
			got := Calculate(Input{AcademicLevel: level, WordCount: words, Urgency: model.Urgency24h, PaperType: model.PaperThesis})
			require.True(t, got.IsZero(), "words=%d level=%s got %s", words, level, got)
		}
	}
}

func TestCalculateMonotonicInWordCount(t *testing.T) {
	for _, level := range model.AcademicLevels() {
		for _, u := range model.Urgencies() {
			prev := Calculate(Input{AcademicLevel: level, WordCount: model.MinWordCount, Urgency: u, PaperType: model.PaperEssay})
			for words := model.MinWordCount + 1; words <= 5000; words += 97 {
				got := Calculate(Input{AcademicLevel: level, WordCount: words, Urgency: u, PaperType: model.PaperEssay})
				require.True(t, got.GreaterThanOrEqual(prev), "level=%s urgency=%s words=%d", level, u, words)
				prev = got
			}
		}
	}
}

func TestCalculateIncreasesAsDeadlineShortens(t *testing.T) {
	buckets := model.Urgencies()
	for i := 1; i < len(buckets); i++ {
		shorter := Calculate(Input{AcademicLevel: model.LevelCollege, WordCount: 1000, Urgency: buckets[i-1], PaperType: model.PaperEssay})
		longer := Calculate(Input{AcademicLevel: model.LevelCollege, WordCount: 1000, Urgency: buckets[i], PaperType: model.PaperEssay})
		assert.True(t, shorter.GreaterThan(longer), "%s should cost more than %s", buckets[i-1], buckets[i])
	}
}

func TestCalculateUnknownKeys(t *testing.T) {
	base := Input{AcademicLevel: model.LevelCollege, WordCount: 1000, Urgency: model.Urgency7d, PaperType: model.PaperEssay}

	unknownLevel := base
	unknownLevel.AcademicLevel = "kindergarten"
	assert.True(t, Calculate(unknownLevel).IsZero(), "unknown level is not priceable")

	unknownUrgency := base
	unknownUrgency.Urgency = "6h"
	assert.Equal(t, "100.00", Calculate(unknownUrgency).StringFixed(2), "unknown urgency uses 1.0")

	unknownPaper := base
	unknownPaper.PaperType = "poem"
	assert.Equal(t, "100.00", Calculate(unknownPaper).StringFixed(2), "unknown paper type uses 1.0")
}

func TestCalculateNegativeSourcesIgnored(t *testing.T) {
	in := Input{AcademicLevel: model.LevelCollege, WordCount: 1000, Urgency: model.Urgency7d, PaperType: model.PaperEssay, SourceCount: -4}
	assert.Equal(t, "100.00", Calculate(in).StringFixed(2))
}

func TestExplainListsFactors(t *testing.T) {
	b := Explain(Input{AcademicLevel: model.LevelPhD, WordCount: 500, Urgency: model.Urgency24h, PaperType: model.PaperResearch, SourceCount: 3})

	assert.Equal(t, "0.18", b.BaseRate.String())
	assert.Equal(t, 500, b.WordCount)
	assert.Equal(t, "2", b.UrgencyMultiplier.String())
	assert.Equal(t, "1.1", b.PaperMultiplier.String())
	assert.Equal(t, "1.03", b.SourceFactor.String())
	// 0.18 * 500 * 2 * 1.1 * 1.03
	assert.Equal(t, "203.94", b.Total.StringFixed(2))
}
