package model

import "time"

type DesignStatus string

const (
	DesignPending  DesignStatus = "pending"
	DesignApproved DesignStatus = "approved"
	DesignRejected DesignStatus = "rejected"
)

func (s DesignStatus) Valid() bool {
	return s == DesignPending || s == DesignApproved || s == DesignRejected
}

// CanTransitionTo reports whether a review may move a design from s to next.
// Only pending designs can be reviewed and a review always lands on a
// terminal status.
func (s DesignStatus) CanTransitionTo(next DesignStatus) bool {
	return s == DesignPending && (next == DesignApproved || next == DesignRejected)
}

type FixCategory string

const (
	FixColor      FixCategory = "color"
	FixTypography FixCategory = "typography"
	FixLayout     FixCategory = "layout"
)

func (c FixCategory) Valid() bool {
	return c == FixColor || c == FixTypography || c == FixLayout
}

// FixAction is the machine-applicable half of a Fix.
type FixAction struct {
	Action        string `json:"action" validate:"required"`
	TargetElement string `json:"target_element" validate:"required"`
	Property      string `json:"property" validate:"required"`
	NewValue      string `json:"new_value" validate:"required"`
}

// Fix is a structured suggestion to bring a design closer to its fingerprint.
type Fix struct {
	Description string      `json:"description" validate:"required"`
	Category    FixCategory `json:"type" validate:"required,oneof=color typography layout"`
	Details     FixAction   `json:"details"`
}

// Design is one submitted artifact together with its analysis and review.
type Design struct {
	ID                    string       `db:"id" json:"id"`
	ProjectID             string       `db:"project_id" json:"project_id"`
	AccountID             string       `db:"account_id" json:"account_id"`
	SubmitterName         string       `db:"submitter_name" json:"submitter_name"`
	OriginalImageKey      string       `db:"original_image_key" json:"-"`
	DesignContext         string       `db:"design_context" json:"design_context"`
	ComplianceScore       int          `db:"compliance_score" json:"compliance_score"`
	Feedback              string       `db:"feedback" json:"feedback"`
	SuggestedFixes        []Fix        `db:"suggested_fixes" json:"suggested_fixes"`
	Status                DesignStatus `db:"status" json:"status"`
	ManagerFeedback       string       `db:"manager_feedback" json:"manager_feedback,omitempty"`
	Notes                 string       `db:"notes" json:"notes,omitempty"`
	Tags                  []string     `db:"tags" json:"tags"`
	PeerFeedbackRequested bool         `db:"peer_feedback_requested" json:"peer_feedback_requested"`
	CreatedAt             time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time    `db:"updated_at" json:"updated_at"`
}

// DesignAnnotations are the submitter's personal, status-independent edits.
// Nil fields are left unchanged.
type DesignAnnotations struct {
	Notes                 *string
	Tags                  *[]string
	PeerFeedbackRequested *bool
}

func (a DesignAnnotations) IsEmpty() bool {
	return a.Notes == nil && a.Tags == nil && a.PeerFeedbackRequested == nil
}

// Apply copies the set fields onto d.
func (a DesignAnnotations) Apply(d *Design) {
	if a.Notes != nil {
		d.Notes = *a.Notes
	}
	if a.Tags != nil {
		d.Tags = *a.Tags
	}
	if a.PeerFeedbackRequested != nil {
		d.PeerFeedbackRequested = *a.PeerFeedbackRequested
	}
}
