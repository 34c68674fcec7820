package service

import (
	"context"
	"testing"

	"student_rideshare/internal/db/dbtest"
	"student_rideshare/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAdjustOccupancy_Guards(t *testing.T) {
	ctx := context.Background()
	gw := dbtest.New(t)
	owner, err := gw.EnsureUser(ctx, domain.User{Name: "owner", Email: "owner@campus.test"})
	require.NoError(t, err)

	seed := func(occupancy, max int, status domain.RequestStatus) string {
		req := domain.Request{
			UserID: owner.ID, From: "A", To: "B", Date: "2030-01-01", Time: "08:00",
			CarType: domain.CarAny, MaxPersons: max, CurrentOccupancy: occupancy, Status: status,
		}
		require.NoError(t, gw.Transaction(ctx, func(tx *gorm.DB) error { return tx.Create(&req).Error }))
		return req.ID
	}
	adjust := func(id string, delta int) error {
		return gw.Transaction(ctx, func(tx *gorm.DB) error { return adjustOccupancy(tx, id, delta) })
	}
	occupancy := func(id string) int {
		var req domain.Request
		require.NoError(t, gw.View(ctx, func(db *gorm.DB) error { return db.First(&req, "id = ?", id).Error }))
		return req.CurrentOccupancy
	}

	tests := []struct {
		name      string
		occupancy int
		max       int
		status    domain.RequestStatus
		delta     int
		kind      error
		want      int
	}{
		{"take a free seat", 1, 3, domain.RequestActive, 1, nil, 2},
		{"no seat left", 3, 3, domain.RequestActive, 1, domain.ErrConflict, 3},
		{"release a seat", 2, 3, domain.RequestActive, -1, nil, 1},
		{"owner seat is never released", 1, 3, domain.RequestActive, -1, domain.ErrConflict, 1},
		{"inactive request", 1, 3, domain.RequestCancelled, 1, domain.ErrInvalidState, 1},
		{"zero delta writes nothing", 3, 3, domain.RequestCompleted, 0, nil, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := seed(tt.occupancy, tt.max, tt.status)
			err := adjust(id, tt.delta)
			if tt.kind == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.kind)
			}
			assert.Equal(t, tt.want, occupancy(id))
		})
	}
}
