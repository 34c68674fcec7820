package service_test

import (
	"context"
	"testing"
	"time"

	"student_rideshare/internal/db"
	"student_rideshare/internal/db/dbtest"
	"student_rideshare/internal/domain"
	"student_rideshare/internal/metrics"
	"student_rideshare/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	ctx      context.Context
	gw       *db.Gateway
	metrics  *metrics.Metrics
	requests *service.RequestService
	votes    *service.VoteService
	queries  *service.QueryService
	users    *service.UserService
	sweeper  *service.Sweeper
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithCache(t, nil)
}

func newFixtureWithCache(t *testing.T, cache service.Cache) *fixture {
	t.Helper()
	gw := dbtest.New(t)
	m := metrics.New()
	return &fixture{
		ctx:      context.Background(),
		gw:       gw,
		metrics:  m,
		requests: service.NewRequestService(gw, cache, m),
		votes:    service.NewVoteService(gw, cache, m),
		queries:  service.NewQueryService(gw, cache),
		users:    service.NewUserService(gw, cache),
		sweeper:  service.NewSweeper(gw, cache, m, 24*time.Hour, time.Hour),
	}
}

func (f *fixture) user(t *testing.T, name string) *domain.User {
	t.Helper()
	u, err := f.gw.EnsureUser(f.ctx, domain.User{
		Name:  name,
		Email: name + "@campus.test",
		Phone: "555-" + name,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) admin(t *testing.T, name string) *domain.User {
	t.Helper()
	u, err := f.gw.EnsureUser(f.ctx, domain.User{
		Name:  name,
		Email: name + "@campus.test",
		Role:  domain.RoleAdmin,
	})
	require.NoError(t, err)
	return u
}

func tomorrow() string {
	return time.Now().AddDate(0, 0, 1).Format(domain.DateLayout)
}

func (f *fixture) request(t *testing.T, ownerID string, maxPersons int) *domain.Request {
	t.Helper()
	req, err := f.requests.Create(f.ctx, ownerID, service.CreateRequestInput{
		From:       "North Campus",
		To:         "Central Station",
		Date:       tomorrow(),
		Time:       "08:30",
		CarType:    "Sedan",
		MaxPersons: maxPersons,
	})
	require.NoError(t, err)
	return req
}

func (f *fixture) reload(t *testing.T, id string) domain.Request {
	t.Helper()
	var req domain.Request
	require.NoError(t, f.gw.View(f.ctx, func(tx *gorm.DB) error {
		return tx.First(&req, "id = ?", id).Error
	}))
	return req
}

// exec runs a raw adjustment that bypasses the services
func (f *fixture) exec(t *testing.T, fn func(tx *gorm.DB) error) {
	t.Helper()
	require.NoError(t, f.gw.Transaction(f.ctx, fn))
}

// assertConsistent checks the occupancy invariants of a request at rest.
// A completed request is usually full, but a withdrawal after completion
// leaves it completed below capacity, so fullness is not asserted.
func (f *fixture) assertConsistent(t *testing.T, id string) {
	t.Helper()
	req := f.reload(t, id)

	var accepted int64
	require.NoError(t, f.gw.View(f.ctx, func(tx *gorm.DB) error {
		return tx.Model(&domain.Vote{}).
			Where("request_id = ? AND status = ?", id, domain.VoteAccepted).
			Count(&accepted).Error
	}))

	assert.GreaterOrEqual(t, req.CurrentOccupancy, 1)
	assert.LessOrEqual(t, req.CurrentOccupancy, req.MaxPersons)
	assert.EqualValues(t, accepted+1, req.CurrentOccupancy, "occupancy must be owner plus accepted votes")
}
