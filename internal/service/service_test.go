package service

import (
	"context"
	"testing"
	"time"

	"github.com/lalith-99/questboard/internal/apperr"
	"github.com/lalith-99/questboard/internal/auth"
	"github.com/lalith-99/questboard/internal/models"
	"github.com/lalith-99/questboard/internal/realtime"
	"github.com/lalith-99/questboard/internal/repository/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type harness struct {
	*Services
	deps   Deps
	stores *memory.Stores
	bus    *realtime.MemoryBus

	seeker   models.User
	seeker2  models.User
	employer models.User
	other    models.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	stores := memory.New()
	bus := realtime.NewMemoryBus()
	payments, err := NewPaymentPolicy([]string{"GCash"})
	require.NoError(t, err)

	deps := Deps{
		Users:         stores.Users,
		Jobs:          stores.Jobs,
		Applications:  stores.Applications,
		Conversations: stores.Conversations,
		Messages:      stores.Messages,
		Completions:   stores.Completions,
		Bus:           bus,
		Identity:      auth.ContextIdentity{},
		Payments:      payments,
		Logger:        zaptest.NewLogger(t),
	}
	h := &harness{
		deps:     deps,
		stores:   stores,
		bus:      bus,
		Services: New(deps),
	}
	h.seeker = h.addUser(t, "seeker-1", "Sam Seeker", models.RoleJobSeeker)
	h.seeker2 = h.addUser(t, "seeker-2", "Sky Seeker", models.RoleJobSeeker)
	h.employer = h.addUser(t, "employer-1", "Erin Employer", models.RoleEmployer)
	h.other = h.addUser(t, "employer-2", "Olly Other", models.RoleEmployer)
	return h
}

func (h *harness) addUser(t *testing.T, id, name string, role models.Role) models.User {
	t.Helper()
	u, err := h.stores.Users.Create(context.Background(), models.User{
		ID:          id,
		Email:       id + "@example.com",
		DisplayName: name,
		Phone:       "0917",
		Role:        role,
	})
	require.NoError(t, err)
	return *u
}

func as(u models.User) context.Context {
	return auth.WithIdentity(context.Background(), auth.Identity{UserID: u.ID, Role: u.Role, Email: u.Email})
}

func validJob() JobInput {
	return JobInput{
		Title:       "Paint the fence",
		Description: "Two coats, white",
		Category:    "Home",
		PaymentType: models.PaymentDaily,
		Amount:      800,
		Location:    "Quezon City",
		DateTime:    "Sat 9:00 AM",
	}
}

func (h *harness) postJob(t *testing.T) *models.JobPosting {
	t.Helper()
	return h.postJobAs(t, h.employer, validJob().Title)
}

func (h *harness) postJobAs(t *testing.T, employer models.User, title string) *models.JobPosting {
	t.Helper()
	in := validJob()
	in.Title = title
	job, err := h.Jobs.CreateJob(as(employer), in)
	require.NoError(t, err)
	return job
}

func (h *harness) apply(t *testing.T, seeker models.User, jobID string) *models.Application {
	t.Helper()
	app, err := h.Applications.Apply(as(seeker), jobID, ApplyInput{Message: "I can do it"})
	require.NoError(t, err)
	return app
}

func (h *harness) jobCount(t *testing.T, jobID string) int {
	t.Helper()
	job, err := h.stores.Jobs.GetByID(context.Background(), jobID)
	require.NoError(t, err)
	require.NotNil(t, job)
	return job.ApplicantsCount
}

func requireKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperr.KindOf(err), "error: %v", err)
}

func receive[T any](t *testing.T, sub *realtime.Subscription[T]) realtime.Snapshot[T] {
	t.Helper()
	select {
	case snap, ok := <-sub.Snapshots():
		require.True(t, ok)
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return realtime.Snapshot[T]{}
	}
}
