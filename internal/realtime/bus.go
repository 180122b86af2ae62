// Package realtime fans out "something changed" notifications and turns
// them into live, full-result-set snapshot streams.
//
// Notifications carry no payload. A subscriber that hears one simply
// reloads its query, so a lost or coalesced notification costs at most a
// stale view until the next one.
package realtime

import (
	"context"
)

// Bus delivers change notifications per topic.
type Bus interface {
	// Publish notifies every listener of any of the topics.
	Publish(ctx context.Context, topics ...string) error

	// Listen opens a listener on topics. The caller must Close it.
	Listen(ctx context.Context, topics ...string) (Listener, error)
}

// Listener receives coalesced notifications: several publishes between
// two reads of C show up as a single value.
type Listener interface {
	C() <-chan struct{}
	Close() error
}

const (
	TopicJobs = "jobs"
)

func TopicEmployerApplications(employerID string) string {
	return "applications:employer:" + employerID
}

func TopicApplicantApplications(applicantID string) string {
	return "applications:applicant:" + applicantID
}

func TopicUserConversations(userID string) string {
	return "conversations:user:" + userID
}

func TopicMessages(conversationID string) string {
	return "messages:" + conversationID
}

// notify does a non-blocking send on a 1-buffered channel. A full buffer
// already means "reload pending", so dropping is correct.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
