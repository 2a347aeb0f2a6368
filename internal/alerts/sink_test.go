package alerts

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horizon-mentorship/backend/internal/models"
	"github.com/horizon-mentorship/backend/pkg/queue"
)

func newTestSink(t *testing.T) (*Sink, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSink(queue.NewQueue(client, nil), "slot-manager", nil), mr
}

func TestPoolExhaustedEnqueuesAlert(t *testing.T) {
	sink, mr := newTestSink(t)
	group := &models.Group{ID: uuid.New(), Name: "Team Orion"}

	sink.PoolExhausted(context.Background(), group)
	sink.PoolExhausted(context.Background(), group)

	// Every exhausted attempt alerts; there is no debounce.
	jobs, err := mr.List(queue.QueueNotifications)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	var job queue.Job
	require.NoError(t, json.Unmarshal([]byte(jobs[0]), &job))
	assert.Equal(t, queue.JobTypeNotification, job.Type)

	var payload queue.NotificationPayload
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, "slot-manager", payload.RecipientRole)
	assert.Contains(t, payload.Subject, "exhausted")
	assert.Contains(t, payload.Body, group.Name)
	assert.Contains(t, payload.Body, group.ID.String())
}

func TestPoolExhaustedSwallowsEnqueueFailure(t *testing.T) {
	sink, mr := newTestSink(t)
	mr.Close()

	// Redis being down must not panic or surface an error to the allocator.
	sink.PoolExhausted(context.Background(), &models.Group{ID: uuid.New(), Name: "Team Vega"})
}
