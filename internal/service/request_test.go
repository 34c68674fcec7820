package service_test

import (
	"testing"

	"student_rideshare/internal/domain"
	"student_rideshare/internal/service"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestCreateRequest(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")

	req, err := f.requests.Create(f.ctx, owner.ID, service.CreateRequestInput{
		From:       "  Library ",
		To:         "Airport",
		Date:       tomorrow(),
		Time:       "7:05 PM",
		CarType:    "suv",
		MaxPersons: 4,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, "Library", req.From)
	assert.Equal(t, "19:05", req.Time)
	assert.Equal(t, domain.CarSUV, req.CarType)
	assert.Equal(t, 1, req.CurrentOccupancy)
	assert.Equal(t, domain.RequestActive, req.Status)
	require.NotNil(t, req.User)
	assert.Equal(t, owner.Email, req.User.Email)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RequestsCreated))
}

func TestCreateRequest_SingleSeatIsCompleted(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")

	req := f.request(t, owner.ID, 1)
	assert.Equal(t, domain.RequestCompleted, req.Status)
	f.assertConsistent(t, req.ID)
}

func TestCreateRequest_Validation(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	valid := service.CreateRequestInput{
		From: "A", To: "B", Date: tomorrow(), Time: "10:00", CarType: "Any", MaxPersons: 2,
	}

	tests := []struct {
		name   string
		mutate func(*service.CreateRequestInput)
		kind   error
	}{
		{"zero capacity", func(in *service.CreateRequestInput) { in.MaxPersons = 0 }, domain.ErrValidation},
		{"negative capacity", func(in *service.CreateRequestInput) { in.MaxPersons = -2 }, domain.ErrValidation},
		{"bad date", func(in *service.CreateRequestInput) { in.Date = "2025-02-30" }, domain.ErrValidation},
		{"bad time", func(in *service.CreateRequestInput) { in.Time = "25:00" }, domain.ErrValidation},
		{"unknown car", func(in *service.CreateRequestInput) { in.CarType = "Bus" }, domain.ErrValidation},
		{"blank from", func(in *service.CreateRequestInput) { in.From = "  " }, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := f.requests.Create(f.ctx, owner.ID, in)
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	_, err := f.requests.Create(f.ctx, "nobody", valid)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCancelRequest(t *testing.T) {
	f := newFixture(t)
	owner, other := f.user(t, "owner"), f.user(t, "other")
	req := f.request(t, owner.ID, 3)

	_, err := f.requests.Cancel(f.ctx, req.ID, other.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.requests.Cancel(f.ctx, req.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestCancelled, got.Status)

	got, err = f.requests.Cancel(f.ctx, req.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestCancelled, got.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RequestsCancelled))

	_, err = f.requests.Cancel(f.ctx, "missing", owner.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCancelRequest_CompletedIsRefused(t *testing.T) {
	f := newFixture(t)
	owner, a := f.user(t, "owner"), f.user(t, "alice")
	req := f.request(t, owner.ID, 2)
	_, err := f.votes.CastVote(f.ctx, req.ID, a.ID, domain.VoteAccepted, nil)
	require.NoError(t, err)

	_, err = f.requests.Cancel(f.ctx, req.ID, owner.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, domain.RequestCompleted, f.reload(t, req.ID).Status)
}

func TestCancelRequest_KeepsAcceptedVotes(t *testing.T) {
	f := newFixture(t)
	owner, a := f.user(t, "owner"), f.user(t, "alice")
	req := f.request(t, owner.ID, 3)
	_, err := f.votes.CastVote(f.ctx, req.ID, a.ID, domain.VoteAccepted, nil)
	require.NoError(t, err)

	_, err = f.requests.Cancel(f.ctx, req.ID, owner.ID)
	require.NoError(t, err)

	votes, err := f.votes.MyVotes(f.ctx, a.ID, domain.VoteAccepted)
	require.NoError(t, err)
	assert.Len(t, votes, 1)
	assert.Equal(t, 2, f.reload(t, req.ID).CurrentOccupancy)
}

func TestUpdateRequest(t *testing.T) {
	f := newFixture(t)
	owner, other := f.user(t, "owner"), f.user(t, "other")
	req := f.request(t, owner.ID, 4)

	got, err := f.requests.Update(f.ctx, req.ID, owner.ID, service.UpdateRequestInput{
		To:      ptr("Old Town"),
		Time:    ptr("09:15:00"),
		CarType: ptr("traveller"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Old Town", got.To)
	assert.Equal(t, "09:15", got.Time)
	assert.Equal(t, domain.CarTraveller, got.CarType)
	assert.Equal(t, "North Campus", got.From)

	_, err = f.requests.Update(f.ctx, req.ID, other.ID, service.UpdateRequestInput{To: ptr("X")})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.requests.Update(f.ctx, req.ID, owner.ID, service.UpdateRequestInput{Status: ptr("completed")})
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	_, err = f.requests.Update(f.ctx, req.ID, owner.ID, service.UpdateRequestInput{Status: ptr("cancelled"), To: ptr("Y")})
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	got, err = f.requests.Update(f.ctx, req.ID, owner.ID, service.UpdateRequestInput{Status: ptr("cancelled")})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestCancelled, got.Status)

	_, err = f.requests.Update(f.ctx, req.ID, owner.ID, service.UpdateRequestInput{To: ptr("Z")})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestUpdateRequest_MaxPersons(t *testing.T) {
	f := newFixture(t)
	owner, a, b := f.user(t, "owner"), f.user(t, "alice"), f.user(t, "bob")
	req := f.request(t, owner.ID, 5)
	for _, v := range []*domain.User{a, b} {
		_, err := f.votes.CastVote(f.ctx, req.ID, v.ID, domain.VoteAccepted, nil)
		require.NoError(t, err)
	}

	_, err := f.requests.Update(f.ctx, req.ID, owner.ID, service.UpdateRequestInput{MaxPersons: ptr(2)})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 5, f.reload(t, req.ID).MaxPersons)

	_, err = f.requests.Update(f.ctx, req.ID, owner.ID, service.UpdateRequestInput{MaxPersons: ptr(0)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := f.requests.Update(f.ctx, req.ID, owner.ID, service.UpdateRequestInput{MaxPersons: ptr(4)})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestActive, got.Status)
	assert.Len(t, got.Votes, 2)

	got, err = f.requests.Update(f.ctx, req.ID, owner.ID, service.UpdateRequestInput{MaxPersons: ptr(3)})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestCompleted, got.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Completions))
	f.assertConsistent(t, req.ID)
}
