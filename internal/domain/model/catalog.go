package model

import (
	"fmt"
	"time"
)

// PaperType enumerates the kinds of deliverables a client can order.
type PaperType string

const (
	PaperEssay        PaperType = "essay"
	PaperResearch     PaperType = "research_paper"
	PaperThesis       PaperType = "thesis"
	PaperDissertation PaperType = "dissertation"
	PaperCaseStudy    PaperType = "case_study"
	PaperLabReport    PaperType = "lab_report"
	PaperPresentation PaperType = "presentation"
	PaperCoursework   PaperType = "coursework"
	PaperAssignment   PaperType = "assignment"
	PaperOther        PaperType = "other"
)

var paperLabels = map[PaperType]string{
	PaperEssay:        "Essay",
	PaperResearch:     "Research Paper",
	PaperThesis:       "Thesis",
	PaperDissertation: "Dissertation",
	PaperCaseStudy:    "Case Study",
	PaperLabReport:    "Lab Report",
	PaperPresentation: "Presentation",
	PaperCoursework:   "Coursework",
	PaperAssignment:   "Assignment",
	PaperOther:        "Other",
}

// Valid reports whether p is a known paper type.
func (p PaperType) Valid() bool {
	_, ok := paperLabels[p]
	return ok
}

// Label returns the display name of the paper type.
func (p PaperType) Label() string {
	if l, ok := paperLabels[p]; ok {
		return l
	}
	return string(p)
}

// AcademicLevel selects the base per-word rate.
type AcademicLevel string

const (
	LevelHighSchool    AcademicLevel = "high_school"
	LevelCollege       AcademicLevel = "college"
	LevelUndergraduate AcademicLevel = "undergraduate"
	LevelMasters       AcademicLevel = "masters"
	LevelPhD           AcademicLevel = "phd"
)

var levelLabels = map[AcademicLevel]string{
	LevelHighSchool:    "High School",
	LevelCollege:       "College",
	LevelUndergraduate: "Undergraduate",
	LevelMasters:       "Masters",
	LevelPhD:           "PhD",
}

// Valid reports whether l is a known academic level.
func (l AcademicLevel) Valid() bool {
	_, ok := levelLabels[l]
	return ok
}

// Label returns the display name of the academic level.
func (l AcademicLevel) Label() string {
	if v, ok := levelLabels[l]; ok {
		return v
	}
	return string(l)
}

// Urgency is a deadline window chosen by the client.
type Urgency string

const (
	Urgency24h Urgency = "24h"
	Urgency48h Urgency = "48h"
	Urgency3d  Urgency = "3d"
	Urgency5d  Urgency = "5d"
	Urgency7d  Urgency = "7d"
	Urgency14d Urgency = "14d"
	Urgency30d Urgency = "30d"
)

type urgencyInfo struct {
	days  int
	label string
}

var urgencies = map[Urgency]urgencyInfo{
	Urgency24h: {1, "24 Hours"},
	Urgency48h: {2, "48 Hours"},
	Urgency3d:  {3, "3 Days"},
	Urgency5d:  {5, "5 Days"},
	Urgency7d:  {7, "1 Week"},
	Urgency14d: {14, "2 Weeks"},
	Urgency30d: {30, "1 Month+"},
}

// urgentThresholdDays is the widest window still flagged as urgent.
const urgentThresholdDays = 2

// Valid reports whether u is a known urgency bucket.
func (u Urgency) Valid() bool {
	_, ok := urgencies[u]
	return ok
}

// Label returns the display name of the bucket.
func (u Urgency) Label() string {
	if v, ok := urgencies[u]; ok {
		return v.label
	}
	return string(u)
}

// Days returns the deadline offset in days, zero for unknown buckets.
func (u Urgency) Days() int {
	return urgencies[u].days
}

// Urgent reports whether the bucket is two days or shorter.
func (u Urgency) Urgent() bool {
	d := u.Days()
	return d > 0 && d <= urgentThresholdDays
}

// Deadline returns the due time for an order placed at from.
func (u Urgency) Deadline(from time.Time) time.Time {
	return from.AddDate(0, 0, u.Days())
}

// PaperTypes lists all known paper types in display order.
func PaperTypes() []PaperType {
	return []PaperType{
		PaperEssay, PaperResearch, PaperThesis, PaperDissertation, PaperCaseStudy,
		PaperLabReport, PaperPresentation, PaperCoursework, PaperAssignment, PaperOther,
	}
}

// AcademicLevels lists all known levels from lowest to highest.
func AcademicLevels() []AcademicLevel {
	return []AcademicLevel{LevelHighSchool, LevelCollege, LevelUndergraduate, LevelMasters, LevelPhD}
}

// Urgencies lists buckets from the shortest window to the longest.
func Urgencies() []Urgency {
	return []Urgency{Urgency24h, Urgency48h, Urgency3d, Urgency5d, Urgency7d, Urgency14d, Urgency30d}
}

// Describe renders the payment description shown to the buyer, e.g. "Essay, College, 1000 words, 1 Week".
func Describe(paper PaperType, level AcademicLevel, words int, urgency Urgency) string {
	return fmt.Sprintf("%s, %s, %d words, %s", paper.Label(), level.Label(), words, urgency.Label())
}
