package commands

import (
	"context"

	"go.uber.org/zap"

	"meetmap-backend/application/ports"
	"meetmap-backend/infrastructure/locking"
	"meetmap-backend/pkg/utils"
)

// ResetMeetingCommand purges a meeting's entire graph state.
type ResetMeetingCommand struct {
	MeetingID string `json:"meeting_id" validate:"required"`
}

// Validate checks the command's fields.
func (c ResetMeetingCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// ResetMeetingHandler deletes all nodes, clusters, and memberships for
// a meeting. The next access recreates the root lazily.
type ResetMeetingHandler struct {
	locker *locking.TenantLocker
	graph  ports.GraphStore
	logger *zap.Logger
}

// NewResetMeetingHandler creates the reset handler.
func NewResetMeetingHandler(locker *locking.TenantLocker, graphStore ports.GraphStore, logger *zap.Logger) *ResetMeetingHandler {
	return &ResetMeetingHandler{
		locker: locker,
		graph:  graphStore,
		logger: logger,
	}
}

// Handle executes the reset.
func (h *ResetMeetingHandler) Handle(ctx context.Context, cmd ResetMeetingCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	h.locker.Lock(cmd.MeetingID)
	defer h.locker.Unlock(cmd.MeetingID)

	if err := h.graph.Reset(ctx, cmd.MeetingID); err != nil {
		return err
	}

	h.logger.Info("meeting reset", zap.String("meetingID", cmd.MeetingID))
	return nil
}
