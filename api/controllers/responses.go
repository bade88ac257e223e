package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/talentmatch-backend/api/responses"
	"github.com/angelmondragon/talentmatch-backend/api/validators"
	responsesvc "github.com/angelmondragon/talentmatch-backend/internal/responses"
	pkgerrors "github.com/angelmondragon/talentmatch-backend/pkg/errors"
	"github.com/angelmondragon/talentmatch-backend/pkg/logger"
	"github.com/angelmondragon/talentmatch-backend/pkg/types"
)

// ResponseRecorder records a freelancer's answer to an offer.
type ResponseRecorder interface {
	Record(ctx context.Context, input responsesvc.RecordInput) error
}

type queueEntryResponseRequest struct {
	FreelancerID uuid.UUID     `json:"freelancerId" validate:"required"`
	Decision     string        `json:"decision" validate:"required,oneof=accept decline"`
	ActorID      *uuid.UUID    `json:"actorId"`
	ReasonCode   *string       `json:"reasonCode"`
	ReasonLabel  *string       `json:"reasonLabel"`
	Notes        *string       `json:"notes"`
	Metadata     types.JSONMap `json:"metadata"`
}

// RecordQueueEntryResponse accepts or declines one offer. A response is final;
// a second submission for the same entry is rejected.
func RecordQueueEntryResponse(svc ResponseRecorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entryID, err := uuid.Parse(chi.URLParam(r, "entryId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid entry id"))
			return
		}

		var req queueEntryResponseRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := responsesvc.RecordInput{
			EntryID:      entryID,
			FreelancerID: req.FreelancerID,
			Decision:     responsesvc.Decision(req.Decision),
			ActorID:      req.FreelancerID,
			ReasonCode:   req.ReasonCode,
			ReasonLabel:  req.ReasonLabel,
			Metadata:     req.Metadata,
		}
		if req.Notes != nil {
			trimmed := validators.SanitizeString(*req.Notes, 2000)
			input.Notes = &trimmed
		}
		if req.ActorID != nil {
			input.ActorID = *req.ActorID
			input.Delegated = *req.ActorID != req.FreelancerID
		}

		if err := svc.Record(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "recorded"})
	}
}
