package lead

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/edulead/core"
	"github.com/trezcool/edulead/core/scoring"
)

// Statuses
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusQualified = "qualified"
	StatusConverted = "converted"
)

var Statuses = []string{StatusNew, StatusContacted, StatusQualified, StatusConverted}

type Lead struct {
	ID          int                `json:"id"`
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Phone       string             `json:"phone,omitempty"`
	Age         *int               `json:"age,omitempty"`
	Location    string             `json:"location,omitempty"`
	Interest    string             `json:"interest"`
	DegreeLevel string             `json:"degree_level,omitempty"`
	Timeline    string             `json:"timeline,omitempty"`
	Comments    string             `json:"comments,omitempty"`
	Score       int                `json:"score"`
	Quality     string             `json:"quality"`
	Status      string             `json:"status"`
	Prediction  scoring.Prediction `json:"prediction"`
	CRMSynced   bool               `json:"crm_synced"`
	CRMID       *string            `json:"crm_id"`
	CreatedAt   time.Time          `json:"created_at"` // UTC
	UpdatedAt   time.Time          `json:"updated_at"` // UTC
}

// NewLead contains the information submitted through the public form.
// Scoring, status and CRM fields are never taken from the submitter.
type NewLead struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone"`
	Age         *int   `json:"age" validate:"omitempty,min=0,max=120"`
	Location    string `json:"location"`
	Interest    string `json:"interest" validate:"required"`
	DegreeLevel string `json:"degree_level"`
	Timeline    string `json:"timeline"`
	Comments    string `json:"comments"`
}

func (nl *NewLead) Clean() {
	nl.Name = core.CleanString(nl.Name)
	nl.Email = core.CleanString(nl.Email, true /* lower */)
	nl.Phone = core.CleanString(nl.Phone)
	nl.Location = core.CleanString(nl.Location)
	nl.Interest = core.CleanString(nl.Interest)
	nl.DegreeLevel = core.CleanString(nl.DegreeLevel)
	nl.Timeline = core.CleanString(nl.Timeline)
	nl.Comments = core.CleanString(nl.Comments)
}

func (nl *NewLead) Validate(validate *validator.Validate) error {
	nl.Clean()
	return validate.Struct(nl)
}

func (nl NewLead) ScoringInput() scoring.Input {
	return scoring.Input{
		Age:         nl.Age,
		Location:    nl.Location,
		Interest:    nl.Interest,
		DegreeLevel: nl.DegreeLevel,
		Timeline:    nl.Timeline,
		Comments:    nl.Comments,
	}
}

// ScoreRequest is a score preview request: nothing gets stored.
type ScoreRequest struct {
	Age         *int   `json:"age" validate:"omitempty,min=0,max=120"`
	Location    string `json:"location"`
	Interest    string `json:"interest" validate:"required"`
	DegreeLevel string `json:"degree_level"`
	Timeline    string `json:"timeline"`
	Comments    string `json:"comments"`
}

func (sr *ScoreRequest) Validate(validate *validator.Validate) error {
	sr.Interest = core.CleanString(sr.Interest)
	return validate.Struct(sr)
}

func (sr ScoreRequest) ScoringInput() scoring.Input {
	return scoring.Input{
		Age:         sr.Age,
		Location:    sr.Location,
		Interest:    sr.Interest,
		DegreeLevel: sr.DegreeLevel,
		Timeline:    sr.Timeline,
		Comments:    sr.Comments,
	}
}

// UpdateStatus defines the status change of an existing Lead.
// Any status may follow any other.
type UpdateStatus struct {
	Status string `json:"status" validate:"required,leadstatus"`
}

func (us *UpdateStatus) Validate(validate *validator.Validate) error {
	us.Status = core.CleanString(us.Status, true /* lower */)
	return validate.Struct(us)
}

type QueryFilter struct {
	Quality string `query:"quality"`
	Status  string `query:"status"`
	Search  string `query:"search"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Quality == "" && qf.Status == "" && qf.Search == ""
}

func (qf *QueryFilter) Clean() {
	qf.Quality = core.CleanString(qf.Quality, true /* lower */)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.Search = core.CleanString(qf.Search)
}

type Stats struct {
	Total          int            `json:"total"`
	ByQuality      map[string]int `json:"by_quality"`
	ByStatus       map[string]int `json:"by_status"`
	ConversionRate float64        `json:"conversion_rate"` // percent, 1 decimal
}
