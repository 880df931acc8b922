package orderform

import (
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/paperdesk/internal/domain/model"
	"github.com/polkiloo/paperdesk/internal/pricing"
)

// Draft is the order being composed by a client.
type Draft struct {
	PaperType     model.PaperType     `json:"paper_type"`
	AcademicLevel model.AcademicLevel `json:"academic_level"`
	Subject       string              `json:"subject"`
	Urgency       model.Urgency       `json:"urgency"`
	Topic         string              `json:"topic"`
	Description   string              `json:"description"`
	WordCount     int                 `json:"word_count"`
	SourceCount   int                 `json:"source_count"`
}

// PricingInput projects the draft onto the fields the price depends on.
func (d Draft) PricingInput() pricing.Input {
	return pricing.Input{
		AcademicLevel: d.AcademicLevel,
		WordCount:     d.WordCount,
		Urgency:       d.Urgency,
		PaperType:     d.PaperType,
		SourceCount:   d.SourceCount,
	}
}

// Controller holds the mutable state of one draft order. It is safe for
// concurrent use.
type Controller struct {
	mu    sync.RWMutex
	draft Draft
}

// New constructs a Controller seeded with the given draft.
func New(initial Draft) *Controller {
	return &Controller{draft: initial}
}

func (c *Controller) update(fn func(d *Draft)) {
	c.mu.Lock()
	fn(&c.draft)
	c.mu.Unlock()
}

func (c *Controller) SetPaperType(p model.PaperType) { c.update(func(d *Draft) { d.PaperType = p }) }

func (c *Controller) SetAcademicLevel(l model.AcademicLevel) {
	c.update(func(d *Draft) { d.AcademicLevel = l })
}

func (c *Controller) SetSubject(s string) { c.update(func(d *Draft) { d.Subject = s }) }

func (c *Controller) SetUrgency(u model.Urgency) { c.update(func(d *Draft) { d.Urgency = u }) }

func (c *Controller) SetTopic(s string) { c.update(func(d *Draft) { d.Topic = s }) }

func (c *Controller) SetDescription(s string) { c.update(func(d *Draft) { d.Description = s }) }

func (c *Controller) SetWordCount(n int) { c.update(func(d *Draft) { d.WordCount = n }) }

func (c *Controller) SetSourceCount(n int) { c.update(func(d *Draft) { d.SourceCount = n }) }

// Apply replaces the whole draft.
func (c *Controller) Apply(d Draft) { c.update(func(cur *Draft) { *cur = d }) }

// Draft returns a copy of the current state.
func (c *Controller) Draft() Draft {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.draft
}

// Price recomputes the price from the current fields.
func (c *Controller) Price() decimal.Decimal {
	return pricing.Calculate(c.Draft().PricingInput())
}

// Validate returns field-level problems. An empty map means the draft may
// advance to checkout.
func (c *Controller) Validate() Errors {
	return validateDraft(c.Draft())
}

// CanAdvance reports whether every rule passes.
func (c *Controller) CanAdvance() bool {
	return len(c.Validate()) == 0
}

// Submit freezes the draft for checkout. Text fields are trimmed.
func (c *Controller) Submit() (Draft, decimal.Decimal, error) {
	d := c.Draft()
	if errs := validateDraft(d); len(errs) > 0 {
		return Draft{}, decimal.Zero, errs
	}
	d.Subject = strings.TrimSpace(d.Subject)
	d.Topic = strings.TrimSpace(d.Topic)
	d.Description = strings.TrimSpace(d.Description)
	return d, pricing.Calculate(d.PricingInput()), nil
}
