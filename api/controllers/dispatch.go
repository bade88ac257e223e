package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/talentmatch-backend/api/responses"
	"github.com/angelmondragon/talentmatch-backend/api/validators"
	"github.com/angelmondragon/talentmatch-backend/pkg/db/models"
	"github.com/angelmondragon/talentmatch-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/talentmatch-backend/pkg/errors"
	"github.com/angelmondragon/talentmatch-backend/pkg/logger"
	"github.com/angelmondragon/talentmatch-backend/pkg/pagination"
)

// DispatchService is the engine surface the target controllers need.
type DispatchService interface {
	EnableAutoAssign(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID, actorID *uuid.UUID) error
	DisableAutoAssign(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID, actorID *uuid.UUID) error
	CurrentQueue(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID, limit int, cursor *pagination.Cursor) (*models.AutoAssignQueueEntry, []models.AutoAssignQueueEntry, *pagination.Cursor, error)
}

type autoAssignToggleRequest struct {
	ActorID *uuid.UUID `json:"actorId"`
}

func parseTarget(r *http.Request) (enums.TargetType, uuid.UUID, error) {
	targetType, err := enums.ParseTargetType(chi.URLParam(r, "targetType"))
	if err != nil {
		return "", uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target type")
	}
	targetID, err := uuid.Parse(chi.URLParam(r, "targetId"))
	if err != nil {
		return "", uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target id")
	}
	return targetType, targetID, nil
}

func decodeToggleActor(r *http.Request) (*uuid.UUID, error) {
	if r.Body == nil || r.ContentLength == 0 {
		return nil, nil
	}
	var req autoAssignToggleRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		return nil, err
	}
	return req.ActorID, nil
}

// EnableAutoAssign flips the target's flag on and kicks off the first offer.
func EnableAutoAssign(svc DispatchService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetType, targetID, err := parseTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := decodeToggleActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.EnableAutoAssign(r.Context(), targetType, targetID, actorID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"autoAssignEnabled": true})
	}
}

// DisableAutoAssign flips the flag off and cancels any open offer.
func DisableAutoAssign(svc DispatchService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetType, targetID, err := parseTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := decodeToggleActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DisableAutoAssign(r.Context(), targetType, targetID, actorID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"autoAssignEnabled": false})
	}
}

type targetQueueResponse struct {
	Current    *models.AutoAssignQueueEntry  `json:"current"`
	History    []models.AutoAssignQueueEntry `json:"history"`
	NextCursor string                        `json:"nextCursor,omitempty"`
}

// TargetQueue returns the open entry plus the paginated offer history for a
// target.
func TargetQueue(svc DispatchService, logg *logger.Logger) http.HandlerFunc {
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
		current, history, next, err := svc.CurrentQueue(r.Context(), targetType, targetID, limit, cursor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp := targetQueueResponse{Current: current, History: history}
		if next != nil {
			resp.NextCursor = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, resp)
	}
}

func parseCursorParam(r *http.Request) (*pagination.Cursor, error) {
	raw := r.URL.Query().Get("cursor")
	if raw == "" {
		return nil, nil
	}
	cursor, err := pagination.ParseCursor(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return cursor, nil
}
