package models

import (
	"fmt"
	"strings"
)

// ApplicationStatus is the lifecycle state of an Application.
//
//	Pending   --accept-->   Accepted
//	Pending   --reject-->   Rejected   (terminal)
//	Pending   --cancel-->   (deleted)
//	Accepted  --cancel-->   (deleted)
//	Accepted  --complete--> Completed
//	Completed --review-->   Reviewed   (terminal)
type ApplicationStatus string

const (
	StatusPending   ApplicationStatus = "Pending"
	StatusAccepted  ApplicationStatus = "Accepted"
	StatusRejected  ApplicationStatus = "Rejected"
	StatusCompleted ApplicationStatus = "Completed"
	StatusReviewed  ApplicationStatus = "Reviewed"

	// StatusWithdrawn is what a cancel transitions to. It is never stored:
	// a withdrawn application is deleted.
	StatusWithdrawn ApplicationStatus = "Withdrawn"
)

// Action is a trigger in the application state machine.
type Action string

const (
	ActionAccept   Action = "accept"
	ActionReject   Action = "reject"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
	ActionReview   Action = "review"
)

var transitions = map[ApplicationStatus]map[Action]ApplicationStatus{
	StatusPending: {
		ActionAccept: StatusAccepted,
		ActionReject: StatusRejected,
		ActionCancel: StatusWithdrawn,
	},
	StatusAccepted: {
		ActionComplete: StatusCompleted,
		ActionCancel:   StatusWithdrawn,
	},
	StatusCompleted: {
		ActionReview: StatusReviewed,
	},
}

// TransitionError is returned by Next when the action is not defined for
// the current status.
type TransitionError struct {
	From   ApplicationStatus
	Action Action
}

func (e *TransitionError) Error() string {
	if e.From.Terminal() {
		return fmt.Sprintf("application is %s and cannot %s", e.From, e.Action)
	}
	return fmt.Sprintf("cannot %s an application that is %s", e.Action, e.From)
}

// Next returns the status an application moves to when action is applied.
func (s ApplicationStatus) Next(action Action) (ApplicationStatus, error) {
	next, ok := transitions[s][action]
	if !ok {
		return s, &TransitionError{From: s, Action: action}
	}
	return next, nil
}

// Terminal reports whether no transition leaves s.
func (s ApplicationStatus) Terminal() bool {
	return s == StatusRejected || s == StatusReviewed
}

// Valid reports whether s is a status that can be stored.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCompleted, StatusReviewed:
		return true
	}
	return false
}

// ParseApplicationStatus accepts any casing ("accepted", "ACCEPTED").
func ParseApplicationStatus(raw string) (ApplicationStatus, bool) {
	for _, s := range []ApplicationStatus{StatusPending, StatusAccepted, StatusRejected, StatusCompleted, StatusReviewed} {
		if strings.EqualFold(raw, string(s)) {
			return s, true
		}
	}
	return "", false
}

// JobStatus is the state of a JobPosting. Employers toggle Open/Closed;
// InProgress and Completed follow the application workflow.
type JobStatus string

const (
	JobOpen       JobStatus = "Open"
	JobClosed     JobStatus = "Closed"
	JobInProgress JobStatus = "InProgress"
	JobCompleted  JobStatus = "Completed"
)

func (s JobStatus) Valid() bool {
	switch s {
	case JobOpen, JobClosed, JobInProgress, JobCompleted:
		return true
	}
	return false
}

// PaymentType is how a job's Amount is quoted.
type PaymentType string

const (
	PaymentHourly     PaymentType = "Hourly"
	PaymentDaily      PaymentType = "Daily"
	PaymentWeekly     PaymentType = "Weekly"
	PaymentMonthly    PaymentType = "Monthly"
	PaymentFixedPrice PaymentType = "FixedPrice"
)

func (p PaymentType) Valid() bool {
	switch p {
	case PaymentHourly, PaymentDaily, PaymentWeekly, PaymentMonthly, PaymentFixedPrice:
		return true
	}
	return false
}

// PaymentMethod is how the employer paid for a completed job.
type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "Cash"
	PaymentGCash PaymentMethod = "GCash"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentGCash
}

// ConversationIDSeparator must not appear in party or job ids, or two
// different triples could derive the same id. Store-assigned ids are
// UUIDs, which only contain hex digits and '-'.
const ConversationIDSeparator = "_"

// ConversationID derives the id of the conversation between a job seeker
// and an employer about one job. The order of the arguments matters: the
// job seeker always comes first.
func ConversationID(jobSeekerID, employerID, jobID string) string {
	return strings.Join([]string{jobSeekerID, employerID, jobID}, ConversationIDSeparator)
}
