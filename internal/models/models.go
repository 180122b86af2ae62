package models

import (
	"time"
)

// Role is the account type a party signed up with.
type Role string

const (
	RoleJobSeeker Role = "jobseeker"
	RoleEmployer  Role = "employer"
)

func (r Role) Valid() bool {
	return r == RoleJobSeeker || r == RoleEmployer
}

// User is an authenticated party. The display name, email and phone are
// copied onto jobs and applications when those are created.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	Phone        string    `json:"phone"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// JobPosting is an employer's listing for a short-term job.
//
// ApplicantsCount tracks the number of live applications referencing the
// posting. It only moves through atomic +1/-1 updates and never drops below 0.
//
// DateTime is the scheduled date/time as the employer typed it; it is a
// display string, not a timestamp.
type JobPosting struct {
	ID              string      `json:"id"`
	EmployerID      string      `json:"employer_id"`
	EmployerName    string      `json:"employer_name"`
	EmployerEmail   string      `json:"employer_email"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Category        string      `json:"category"`
	PaymentType     PaymentType `json:"payment_type"`
	Amount          float64     `json:"amount"`
	Location        string      `json:"location"`
	DateTime        string      `json:"date_time"`
	Requirements    string      `json:"requirements"`
	Status          JobStatus   `json:"status"`
	ApplicantsCount int         `json:"applicants_count"`
	IsActive        bool        `json:"is_active"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// JobFilter narrows a job listing. Zero values mean "any".
type JobFilter struct {
	EmployerID string
	Status     JobStatus
	Category   string
}

// Application is a job seeker's request to be hired for a JobPosting.
//
// At most one Application exists per (JobID, ApplicantID); cancelling
// deletes the row.
type Application struct {
	ID               string            `json:"id"`
	JobID            string            `json:"job_id"`
	JobTitle         string            `json:"job_title"`
	EmployerID       string            `json:"employer_id"`
	EmployerName     string            `json:"employer_name"`
	EmployerEmail    string            `json:"employer_email"`
	ApplicantID      string            `json:"applicant_id"`
	ApplicantName    string            `json:"applicant_name"`
	ApplicantEmail   string            `json:"applicant_email"`
	ApplicantPhone   string            `json:"applicant_phone"`
	Status           ApplicationStatus `json:"status"`
	Message          string            `json:"message"`
	CoverLetter      string            `json:"cover_letter"`
	IsRead           bool              `json:"is_read"`
	NotificationSent bool              `json:"notification_sent"`
	SubmittedAt      time.Time         `json:"submitted_at"`
	RespondedAt      *time.Time        `json:"responded_at,omitempty"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	ReviewedAt       *time.Time        `json:"reviewed_at,omitempty"`
}

// ApplicationFilter narrows an application listing. Zero values mean "any".
type ApplicationFilter struct {
	JobID       string
	EmployerID  string
	ApplicantID string
	Status      ApplicationStatus
}

// StatusChange is a compare-and-set on an application's status. It only
// applies when the stored status still equals From.
type StatusChange struct {
	ApplicationID string
	From          ApplicationStatus
	To            ApplicationStatus
	At            time.Time
}

// ParticipantInfo is the per-participant display metadata on a Conversation.
type ParticipantInfo struct {
	Name        string `json:"name"`
	AccountType Role   `json:"account_type"`
}

// Conversation is a two-party chat thread scoped to one
// (job seeker, employer, job) triple. Its ID is derived from that triple,
// see ConversationID.
type Conversation struct {
	ID                  string                     `json:"id"`
	Participants        []string                   `json:"participants"`
	ParticipantDetails  map[string]ParticipantInfo `json:"participant_details"`
	JobID               string                     `json:"job_id"`
	JobTitle            string                     `json:"job_title"`
	ApplicationID       string                     `json:"application_id"`
	LastMessage         string                     `json:"last_message"`
	LastMessageAt       time.Time                  `json:"last_message_at"`
	LastMessageSenderID string                     `json:"last_message_sender_id"`
	UnreadCount         map[string]int             `json:"unread_count"`
	CreatedAt           time.Time                  `json:"created_at"`
	UpdatedAt           time.Time                  `json:"updated_at"`
}

// HasParticipant reports whether userID is one of the two parties.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// MessageType distinguishes user-authored text from messages the
// conversation-creation step writes itself.
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeSystem MessageType = "system"
)

// SystemSenderID is the sender of every system message.
const SystemSenderID = "system"

// Message is a single append-only entry in a Conversation. Messages are
// ordered by CreatedAt ascending; only Read is ever updated.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id"`
	SenderID       string      `json:"sender_id"`
	SenderName     string      `json:"sender_name"`
	Body           string      `json:"body"`
	Type           MessageType `json:"type"`
	Read           bool        `json:"read"`
	CreatedAt      time.Time   `json:"created_at"`
}

// JobCompletion is a job seeker's end-of-job report and the employer's
// review of it. There is exactly one per Application.
type JobCompletion struct {
	ID                 string        `json:"id"`
	ApplicationID      string        `json:"application_id"`
	JobID              string        `json:"job_id"`
	JobTitle           string        `json:"job_title"`
	JobSeekerID        string        `json:"job_seeker_id"`
	JobSeekerName      string        `json:"job_seeker_name"`
	EmployerID         string        `json:"employer_id"`
	EmployerName       string        `json:"employer_name"`
	IsCompleted        bool          `json:"is_completed"`
	HasIssues          bool          `json:"has_issues"`
	Concerns           string        `json:"concerns"`
	AdditionalNotes    string        `json:"additional_notes"`
	WorkPhotoURL       string        `json:"work_photo_url"`
	SubmittedAt        time.Time     `json:"submitted_at"`
	ReviewedByEmployer bool          `json:"reviewed_by_employer"`
	EmployerFeedback   string        `json:"employer_feedback"`
	EmployerRating     float64       `json:"employer_rating"`
	PaymentMethod      PaymentMethod `json:"payment_method"`
	PaymentReleased    bool          `json:"payment_released"`
	ReviewedAt         *time.Time    `json:"reviewed_at,omitempty"`
}

// CompletionReview is the employer's one-time review of a JobCompletion.
type CompletionReview struct {
	Rating          float64
	Feedback        string
	PaymentMethod   PaymentMethod
	PaymentReleased bool
	ReviewedAt      time.Time
}

// SeekerStats aggregates a job seeker's reviewed completions.
type SeekerStats struct {
	JobSeekerID   string  `json:"job_seeker_id"`
	JobsCompleted int     `json:"jobs_completed"`
	ReviewCount   int     `json:"review_count"`
	AverageRating float64 `json:"average_rating"`
}

// EmployerStats summarises an employer's postings.
type EmployerStats struct {
	EmployerID      string `json:"employer_id"`
	TotalJobs       int    `json:"total_jobs"`
	OpenJobs        int    `json:"open_jobs"`
	CompletedJobs   int    `json:"completed_jobs"`
	TotalApplicants int    `json:"total_applicants"`
}
