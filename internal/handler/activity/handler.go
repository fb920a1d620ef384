package activity

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/bookshelf/backend/internal/service/activity"
	"github.com/zhouzirui/bookshelf/backend/pkg/utils"
)

// Handler exposes recent requests per user.
type Handler struct {
	recorder activity.Recorder
	log      *zap.Logger
}

// New creates the activity handler.
func New(recorder activity.Recorder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{recorder: recorder, log: logger.Named("activity")}
}

// RegisterRoutes mounts the activity routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/activity/{username}", h.handleRecent)
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	entries, err := h.recorder.Recent(r.Context(), username)
	if err != nil {
		h.log.Error("failed to read activity", zap.String("username", username), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to read activity")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string][]activity.Entry{"activity": entries})
}
