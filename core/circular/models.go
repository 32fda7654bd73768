package circular

import (
	"time"

	"github.com/trezcool/shule/core"
)

// Audiences a circular may address.
const (
	AudienceAll      = "all"
	AudienceTeachers = "teachers"
	AudienceStudents = "students"
)

// Circular is a school-scoped announcement; it is the resource behind the
// "communication" feature.
type Circular struct {
	ID        string    `json:"id"`
	SchoolID  string    `json:"school_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Audience  string    `json:"audience"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewCircular contains information needed to create a new Circular.
type NewCircular struct {
	Title    string `json:"title" validate:"required"`
	Body     string `json:"body" validate:"required"`
	Audience string `json:"audience" validate:"omitempty,oneof=all teachers students"`
}

func (nc *NewCircular) Validate() error {
	nc.Title = core.CleanString(nc.Title)
	nc.Body = core.CleanString(nc.Body)
	if nc.Audience == "" {
		nc.Audience = AudienceAll
	}
	return core.Validate.Struct(nc)
}

// UpdateCircular defines what information may be provided to modify an existing Circular.
type UpdateCircular struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Audience string `json:"audience" validate:"omitempty,oneof=all teachers students"`
}

func (uc *UpdateCircular) Validate(orig Circular) error {
	title := core.CleanString(uc.Title)
	if title != "" {
		uc.Title = title
	} else {
		uc.Title = orig.Title
	}

	body := core.CleanString(uc.Body)
	if body != "" {
		uc.Body = body
	} else {
		uc.Body = orig.Body
	}

	if uc.Audience == "" {
		uc.Audience = orig.Audience
	}
	return core.Validate.Struct(uc)
}

type QueryFilter struct {
	SchoolID string `query:"school_id"`
	Audience string `query:"audience"`
}
