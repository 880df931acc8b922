package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DraftRequest is the order form as submitted by the client.
type DraftRequest struct {
	PaperType     string `json:"paper_type" form:"paper_type"`
	AcademicLevel string `json:"academic_level" form:"academic_level"`
	Subject       string `json:"subject" form:"subject"`
	Urgency       string `json:"urgency" form:"urgency"`
	Topic         string `json:"topic" form:"topic"`
	Description   string `json:"description" form:"description"`
	WordCount     int    `json:"word_count" form:"word_count"`
	SourceCount   int    `json:"source_count" form:"source_count"`
}

// QuoteResponse shows the price with its factors and any form problems.
type QuoteResponse struct {
	Price             decimal.Decimal   `json:"price"`
	Currency          string            `json:"currency"`
	BaseRate          decimal.Decimal   `json:"base_rate"`
	UrgencyMultiplier decimal.Decimal   `json:"urgency_multiplier"`
	PaperMultiplier   decimal.Decimal   `json:"paper_multiplier"`
	SourceFactor      decimal.Decimal   `json:"source_factor"`
	Description       string            `json:"description"`
	Valid             bool              `json:"valid"`
	Errors            map[string]string `json:"errors,omitempty"`
}

// CatalogOption is one selectable value.
type CatalogOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// UrgencyOption is a deadline bucket.
type UrgencyOption struct {
	Value  string `json:"value"`
	Label  string `json:"label"`
	Days   int    `json:"days"`
	Urgent bool   `json:"urgent"`
}

// CatalogResponse lists the order form choices.
type CatalogResponse struct {
	PaperTypes     []CatalogOption `json:"paper_types"`
	AcademicLevels []CatalogOption `json:"academic_levels"`
	Urgencies      []UrgencyOption `json:"urgencies"`
	MinWordCount   int             `json:"min_word_count"`
}

// OrderResponse describes an order on a dashboard.
type OrderResponse struct {
	ID            string               `json:"id"`
	UserID        string               `json:"user_id"`
	WriterID      string               `json:"writer_id,omitempty"`
	PaperType     string               `json:"paper_type"`
	AcademicLevel string               `json:"academic_level"`
	Subject       string               `json:"subject"`
	Topic         string               `json:"topic"`
	Instructions  string               `json:"instructions"`
	WordCount     int                  `json:"word_count"`
	SourceCount   int                  `json:"source_count"`
	Urgency       string               `json:"urgency"`
	Urgent        bool                 `json:"urgent"`
	Price         decimal.Decimal      `json:"price"`
	Currency      string               `json:"currency"`
	Deadline      time.Time            `json:"deadline"`
	Status        string               `json:"status"`
	Attachments   []AttachmentResponse `json:"attachments,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// AttachmentResponse describes an uploaded file.
type AttachmentResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}
