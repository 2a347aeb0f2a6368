package meetings

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/horizon-mentorship/backend/internal/middleware"
	"github.com/horizon-mentorship/backend/internal/models"
	"github.com/horizon-mentorship/backend/pkg/response"
)

// GroupReader looks up groups and membership for authorization.
type GroupReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error)
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
}

// HistoryReader lists a group's past meeting usage.
type HistoryReader interface {
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.MeetingHistory, error)
}

// Handler exposes the slot allocator over HTTP.
type Handler struct {
	svc     *Service
	groups  GroupReader
	history HistoryReader
	logger  *zap.Logger
}

// NewHandler creates a meetings handler.
func NewHandler(svc *Service, groups GroupReader, history HistoryReader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, groups: groups, history: history, logger: logger}
}

// Join handles POST /groups/:id/meeting/join. Only group members may join.
// A null join_link with available=false means every slot is busy and the
// user should retry shortly; it is not an error.
func (h *Handler) Join(c *gin.Context) {
	group, ok := h.authorizedGroup(c)
	if !ok {
		return
	}

	link, available, err := h.svc.Join(c.Request.Context(), group)
	if err != nil {
		h.logger.Error("join failed", zap.Error(err), zap.String("group_id", group.ID.String()))
		response.Internal(c, "temporary error, please retry")
		return
	}
	if !available {
		response.OK(c, gin.H{
			"join_link": nil,
			"available": false,
			"message":   "meeting slots are all busy, please retry shortly",
		})
		return
	}
	response.OK(c, gin.H{"join_link": link, "available": true})
}

// History handles GET /groups/:id/meeting/history.
func (h *Handler) History(c *gin.Context) {
	group, ok := h.authorizedGroup(c)
	if !ok {
		return
	}

	records, err := h.history.ListByGroup(c.Request.Context(), group.ID)
	if err != nil {
		h.logger.Error("list history failed", zap.Error(err), zap.String("group_id", group.ID.String()))
		response.Internal(c, "temporary error, please retry")
		return
	}
	response.OK(c, gin.H{"history": records})
}

// Reclaim handles POST /cron/reclaim: one reclamation pass over all bound
// slots, for external cron or operators. Admin only.
func (h *Handler) Reclaim(c *gin.Context) {
	freed, err := h.svc.Reclaim(c.Request.Context())
	if err != nil {
		h.logger.Error("reclaim failed", zap.Error(err))
		response.Internal(c, "reclaim failed")
		return
	}
	response.OK(c, gin.H{"freed": freed})
}

func (h *Handler) authorizedGroup(c *gin.Context) (*models.Group, bool) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid group id")
		return nil, false
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	group, err := h.groups.GetByID(c.Request.Context(), groupID)
	if err != nil {
		h.logger.Error("get group failed", zap.Error(err), zap.String("group_id", groupID.String()))
		response.Internal(c, "temporary error, please retry")
		return nil, false
	}
	if group == nil {
		response.NotFound(c, "group not found")
		return nil, false
	}

	member, err := h.groups.IsMember(c.Request.Context(), groupID, userID)
	if err != nil {
		h.logger.Error("membership check failed", zap.Error(err), zap.String("group_id", groupID.String()))
		response.Internal(c, "temporary error, please retry")
		return nil, false
	}
	if !member {
		response.Forbidden(c, "not a member of this group")
		return nil, false
	}
	return group, true
}
