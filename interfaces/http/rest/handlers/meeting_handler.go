// Package handlers implements the REST endpoints over the graph
// engine.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"meetmap-backend/application/commands"
	"meetmap-backend/application/ports"
	"meetmap-backend/application/queries"
	"meetmap-backend/application/services"
	"meetmap-backend/pkg/common"
	apperrors "meetmap-backend/pkg/errors"
)

// MeetingHandler serves the per-meeting transcript, graph, and
// analytics endpoints.
type MeetingHandler struct {
	processChunk *commands.ProcessChunkHandler
	resetMeeting *commands.ResetMeetingHandler
	graphData    *queries.GetGraphDataHandler
	queryEngine  *services.QueryEngine
	graph        ports.GraphStore
	logger       *zap.Logger
}

// NewMeetingHandler creates the handler.
func NewMeetingHandler(
	processChunk *commands.ProcessChunkHandler,
	resetMeeting *commands.ResetMeetingHandler,
	graphData *queries.GetGraphDataHandler,
	queryEngine *services.QueryEngine,
	graphStore ports.GraphStore,
	logger *zap.Logger,
) *MeetingHandler {
	return &MeetingHandler{
		processChunk: processChunk,
		resetMeeting: resetMeeting,
		graphData:    graphData,
		queryEngine:  queryEngine,
		graph:        graphStore,
		logger:       logger,
	}
}

type transcriptRequest struct {
	ChunkID   string  `json:"chunk_id"`
	Text      string  `json:"text"`
	Speaker   string  `json:"speaker"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// ProcessTranscript handles POST /meetings/{meetingID}/transcript.
func (h *MeetingHandler) ProcessTranscript(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "meetingID")

	var req transcriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON")
		return
	}

	result, err := h.processChunk.Handle(r.Context(), commands.ProcessChunkCommand{
		MeetingID: meetingID,
		ChunkID:   req.ChunkID,
		Text:      req.Text,
		Speaker:   req.Speaker,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			common.RespondAppError(w, err)
		} else {
			common.RespondError(w, http.StatusBadRequest, "INVALID_COMMAND", err.Error())
		}
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// GetGraph handles GET /meetings/{meetingID}/graph.
func (h *MeetingHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "meetingID")

	result, err := h.graphData.Handle(r.Context(), queries.GetGraphDataQuery{MeetingID: meetingID})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// GetPath handles GET /meetings/{meetingID}/nodes/{nodeID}/path.
func (h *MeetingHandler) GetPath(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "meetingID")
	nodeID := chi.URLParam(r, "nodeID")

	result, err := h.queryEngine.PathToRoot(r.Context(), meetingID, nodeID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// GetDownwardPaths handles GET
// /meetings/{meetingID}/nodes/{nodeID}/downward-paths.
func (h *MeetingHandler) GetDownwardPaths(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "meetingID")
	nodeID := chi.URLParam(r, "nodeID")

	if !h.nodeExists(w, r, meetingID, nodeID) {
		return
	}
	result, err := h.queryEngine.DownwardPaths(r.Context(), meetingID, nodeID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// GetMaturity handles GET /meetings/{meetingID}/nodes/{nodeID}/maturity.
func (h *MeetingHandler) GetMaturity(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "meetingID")
	nodeID := chi.URLParam(r, "nodeID")

	// existence is checked here so a missing node is distinguishable
	// from one with a zero score
	if !h.nodeExists(w, r, meetingID, nodeID) {
		return
	}
	result, err := h.queryEngine.Maturity(r.Context(), meetingID, nodeID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// GetInfluence handles GET /meetings/{meetingID}/nodes/{nodeID}/influence.
func (h *MeetingHandler) GetInfluence(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "meetingID")
	nodeID := chi.URLParam(r, "nodeID")

	if !h.nodeExists(w, r, meetingID, nodeID) {
		return
	}
	result, err := h.queryEngine.Influence(r.Context(), meetingID, nodeID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// ResetMeeting handles DELETE /meetings/{meetingID}.
func (h *MeetingHandler) ResetMeeting(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "meetingID")

	err := h.resetMeeting.Handle(r.Context(), commands.ResetMeetingCommand{MeetingID: meetingID})
	if err != nil {
		if apperrors.IsAppError(err) {
			common.RespondAppError(w, err)
		} else {
			common.RespondError(w, http.StatusBadRequest, "INVALID_COMMAND", err.Error())
		}
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *MeetingHandler) nodeExists(w http.ResponseWriter, r *http.Request, meetingID, nodeID string) bool {
	if _, err := h.graph.GetNode(r.Context(), meetingID, nodeID); err != nil {
		common.RespondAppError(w, err)
		return false
	}
	return true
}
