package grpc

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/Additional-Code/oficina/pkg/errorbank"
)

type flakyDB struct{ down atomic.Bool }

func (f *flakyDB) Ping(context.Context) error {
	if f.down.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func TestToStatus(t *testing.T) {
	assert.NoError(t, toStatus(nil))

	st, ok := status.FromError(toStatus(errorbank.NotFound("service order not found")))
	require.True(t, ok)
	assert.Equal(t, codes.NotFound, st.Code())
	assert.Equal(t, "service order not found", st.Message())

	st, _ = status.FromError(toStatus(errorbank.Unprocessable("insufficient stock")))
	assert.Equal(t, codes.FailedPrecondition, st.Code())

	st, _ = status.FromError(toStatus(errors.New("boom")))
	assert.Equal(t, codes.Internal, st.Code())

	original := status.Error(codes.Unavailable, "draining")
	assert.Equal(t, original, toStatus(original))
}

func TestWatchHealth_FollowsDatabase(t *testing.T) {
	hs := health.NewServer()
	db := &flakyDB{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go watchHealth(ctx, hs, db, 5*time.Millisecond, zap.NewNop())

	check := func() healthpb.HealthCheckResponse_ServingStatus {
		resp, err := hs.Check(context.Background(), &healthpb.HealthCheckRequest{})
		if err != nil {
			return healthpb.HealthCheckResponse_UNKNOWN
		}
		return resp.Status
	}

	assert.Eventually(t, func() bool { return check() == healthpb.HealthCheckResponse_SERVING }, time.Second, 5*time.Millisecond)
	db.down.Store(true)
	assert.Eventually(t, func() bool { return check() == healthpb.HealthCheckResponse_NOT_SERVING }, time.Second, 5*time.Millisecond)
	db.down.Store(false)
	assert.Eventually(t, func() bool { return check() == healthpb.HealthCheckResponse_SERVING }, time.Second, 5*time.Millisecond)
}
