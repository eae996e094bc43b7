package domain

import "time"

// ContactSubject is a closed enumeration of contact form subjects.
type ContactSubject string

const (
	SubjectPrayer         ContactSubject = "prayer"
	SubjectSalvation      ContactSubject = "salvation"
	SubjectMinistry       ContactSubject = "ministry"
	SubjectCounseling     ContactSubject = "counseling"
	SubjectChurchPlanting ContactSubject = "church-planting"
	SubjectGeneral        ContactSubject = "general"
	SubjectOther          ContactSubject = "other"
)

// IsValid checks whether the subject is a member of the closed set.
func (s ContactSubject) IsValid() bool {
	switch s {
	case SubjectPrayer, SubjectSalvation, SubjectMinistry, SubjectCounseling,
		SubjectChurchPlanting, SubjectGeneral, SubjectOther:
		return true
	}
	return false
}

// ContactStatus tracks moderation progress of a submission.
type ContactStatus string

const (
	ContactPending   ContactStatus = "pending"
	ContactRead      ContactStatus = "read"
	ContactResponded ContactStatus = "responded"
	ContactArchived  ContactStatus = "archived"
)

// IsValid checks whether the status is a member of the closed set.
func (s ContactStatus) IsValid() bool {
	switch s {
	case ContactPending, ContactRead, ContactResponded, ContactArchived:
		return true
	}
	return false
}

// Contact is a single contact form submission.
type Contact struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone,omitempty"`
	Subject      ContactSubject `json:"subject"`
	Message      string         `json:"message"`
	Status       ContactStatus  `json:"status"`
	IPAddress    string         `json:"ipAddress,omitempty"`
	UserAgent    string         `json:"userAgent,omitempty"`
	RespondedBy  string         `json:"respondedBy,omitempty"`
	ResponseNote string         `json:"responseNote,omitempty"`
	RespondedAt  *time.Time     `json:"respondedAt,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// ContactStats aggregates submission counts for the admin dashboard.
type ContactStats struct {
	Total     int            `json:"total"`
	Pending   int            `json:"pending"`
	Read      int            `json:"read"`
	Responded int            `json:"responded"`
	Archived  int            `json:"archived"`
	LastWeek  int            `json:"lastWeek"`
	BySubject map[string]int `json:"bySubject"`
}
