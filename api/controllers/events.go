package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/talentmatch-backend/api/responses"
	"github.com/angelmondragon/talentmatch-backend/api/validators"
	"github.com/angelmondragon/talentmatch-backend/pkg/db/models"
	"github.com/angelmondragon/talentmatch-backend/pkg/enums"
	"github.com/angelmondragon/talentmatch-backend/pkg/logger"
	"github.com/angelmondragon/talentmatch-backend/pkg/pagination"
)

// EventHistoryService pages through a target's assignment event log.
type EventHistoryService interface {
	History(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.AssignmentEvent, *pagination.Cursor, error)
}

type eventListResponse struct {
	Items      []models.AssignmentEvent `json:"items"`
	NextCursor string                   `json:"nextCursor,omitempty"`
}

// TargetEvents returns the audit trail for a target, newest first.
func TargetEvents(svc EventHistoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetType, targetID, err := parseTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor, err := parseCursorParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, next, err := svc.History(r.Context(), targetType, targetID, limit, cursor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp := eventListResponse{Items: items}
		if next != nil {
			resp.NextCursor = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, resp)
	}
}
