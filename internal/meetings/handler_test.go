package meetings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horizon-mentorship/backend/internal/middleware"
	"github.com/horizon-mentorship/backend/internal/models"
	"github.com/horizon-mentorship/backend/internal/provider"
)

type fakeGroupReader struct {
	groups  map[uuid.UUID]*models.Group
	members map[uuid.UUID]bool
}

func (f *fakeGroupReader) GetByID(_ context.Context, id uuid.UUID) (*models.Group, error) {
	return f.groups[id], nil
}

func (f *fakeGroupReader) IsMember(_ context.Context, _, userID uuid.UUID) (bool, error) {
	return f.members[userID], nil
}

type fakeHistoryReader struct {
	records []models.MeetingHistory
}

func (f *fakeHistoryReader) ListByGroup(_ context.Context, groupID uuid.UUID) ([]models.MeetingHistory, error) {
	var out []models.MeetingHistory
	for _, r := range f.records {
		if r.GroupID == groupID {
			out = append(out, r)
		}
	}
	return out, nil
}

type handlerFixture struct {
	*serviceFixture
	router *gin.Engine
	group  *models.Group
	userID uuid.UUID
}

func newHandlerFixture(t *testing.T, slots []models.MeetingSlot) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fx := newFixture(slots)
	group := &models.Group{ID: uuid.New(), Name: "Team Orion"}
	userID := uuid.New()

	groupReader := &fakeGroupReader{
		groups:  map[uuid.UUID]*models.Group{group.ID: group},
		members: map[uuid.UUID]bool{userID: true},
	}
	historyReader := &fakeHistoryReader{records: []models.MeetingHistory{
		{MeetingID: "m-past", GroupID: group.ID, StartedAt: time.Now().Add(-24 * time.Hour)},
	}}
	handler := NewHandler(fx.svc, groupReader, historyReader, nil)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Next()
	})
	router.POST("/groups/:id/meeting/join", handler.Join)
	router.GET("/groups/:id/meeting/history", handler.History)
	router.POST("/cron/reclaim", handler.Reclaim)

	return &handlerFixture{serviceFixture: fx, router: router, group: group, userID: userID}
}

func (h *handlerFixture) do(method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	h.router.ServeHTTP(w, req)
	return w
}

func TestHandlerJoinReturnsLink(t *testing.T) {
	fx := newHandlerFixture(t, []models.MeetingSlot{freeSlot(1, time.Hour)})

	w := fx.do(http.MethodPost, "/groups/"+fx.group.ID.String()+"/meeting/join")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), fx.slots.get(1).JoinLink)
	assert.Contains(t, w.Body.String(), `"available":true`)
}

func TestHandlerJoinExhaustedPool(t *testing.T) {
	other := uuid.New()
	fx := newHandlerFixture(t, []models.MeetingSlot{boundSlot(1, other, 10*time.Minute)})
	fx.provider.statuses[fx.slots.get(1).MeetingID] = provider.StatusStarted

	w := fx.do(http.MethodPost, "/groups/"+fx.group.ID.String()+"/meeting/join")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"available":false`)
	assert.Contains(t, w.Body.String(), "please retry shortly")
	assert.Equal(t, 1, fx.notifier.calls)
}

func TestHandlerJoinRejectsBadGroupID(t *testing.T) {
	fx := newHandlerFixture(t, nil)

	w := fx.do(http.MethodPost, "/groups/not-a-uuid/meeting/join")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerJoinUnknownGroup(t *testing.T) {
	fx := newHandlerFixture(t, nil)

	w := fx.do(http.MethodPost, "/groups/"+uuid.New().String()+"/meeting/join")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlerJoinNonMember(t *testing.T) {
	fx := newHandlerFixture(t, []models.MeetingSlot{freeSlot(1, time.Hour)})
	// Revoke membership for every user.
	fx.router = gin.New()
	outsider := uuid.New()
	groupReader := &fakeGroupReader{
		groups:  map[uuid.UUID]*models.Group{fx.group.ID: fx.group},
		members: map[uuid.UUID]bool{},
	}
	handler := NewHandler(fx.svc, groupReader, &fakeHistoryReader{}, nil)
	fx.router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, outsider)
		c.Next()
	})
	fx.router.POST("/groups/:id/meeting/join", handler.Join)

	w := fx.do(http.MethodPost, "/groups/"+fx.group.ID.String()+"/meeting/join")
	assert.Equal(t, http.StatusForbidden, w.Code)
	// Authorization failed before any allocation happened.
	assert.Nil(t, fx.slots.get(1).GroupID)
}

func TestHandlerHistory(t *testing.T) {
	fx := newHandlerFixture(t, nil)

	w := fx.do(http.MethodGet, "/groups/"+fx.group.ID.String()+"/meeting/history")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "m-past")
}

func TestHandlerReclaim(t *testing.T) {
	gone := uuid.New()
	fx := newHandlerFixture(t, []models.MeetingSlot{boundSlot(1, gone, 10*time.Minute)})

	w := fx.do(http.MethodPost, "/cron/reclaim")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"freed":1`)
	assert.Nil(t, fx.slots.get(1).GroupID)
}
