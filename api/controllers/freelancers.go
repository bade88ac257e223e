package controllers

import (
	"context"
	"net/http"
	"time"

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

// OfferReader lists a freelancer's own queue entries.
type OfferReader interface {
	FreelancerOffers(ctx context.Context, freelancerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.AutoAssignQueueEntry, *pagination.Cursor, error)
}

// PreferenceService reads and writes freelancer availability rules.
type PreferenceService interface {
	GetPreference(ctx context.Context, freelancerID uuid.UUID) (models.FreelancerPreference, error)
	UpdatePreference(ctx context.Context, pref models.FreelancerPreference) (models.FreelancerPreference, error)
}

func parseFreelancerID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "freelancerId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid freelancer id")
	}
	return id, nil
}

type offerListResponse struct {
	Items      []models.AutoAssignQueueEntry `json:"items"`
	NextCursor string                        `json:"nextCursor,omitempty"`
}

// FreelancerOffers returns the freelancer's offers, newest first.
func FreelancerOffers(svc OfferReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		freelancerID, err := parseFreelancerID(r)
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
		items, next, err := svc.FreelancerOffers(r.Context(), freelancerID, limit, cursor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp := offerListResponse{Items: items}
		if next != nil {
			resp.NextCursor = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, resp)
	}
}

// FreelancerPreferences returns the stored preference row or the defaults.
func FreelancerPreferences(svc PreferenceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		freelancerID, err := parseFreelancerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pref, err := svc.GetPreference(r.Context(), freelancerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pref)
	}
}

type preferenceUpdateRequest struct {
	AvailabilityStatus  string     `json:"availabilityStatus" validate:"required"`
	AvailabilityMode    string     `json:"availabilityMode" validate:"required"`
	Timezone            string     `json:"timezone"`
	DailyMatchLimit     *int       `json:"dailyMatchLimit"`
	AutoAcceptThreshold *float64   `json:"autoAcceptThreshold"`
	QuietHoursStart     *string    `json:"quietHoursStart"`
	QuietHoursEnd       *string    `json:"quietHoursEnd"`
	SnoozedUntil        *time.Time `json:"snoozedUntil"`
	NotifyInApp         *bool      `json:"notifyInApp"`
	NotifyEmail         *bool      `json:"notifyEmail"`
	NotifySMS           *bool      `json:"notifySms"`
	EscalationContact   *string    `json:"escalationContact"`
}

// UpdateFreelancerPreferences replaces the freelancer's availability rules.
func UpdateFreelancerPreferences(svc PreferenceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		freelancerID, err := parseFreelancerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req preferenceUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pref := models.FreelancerPreference{
			FreelancerID:        freelancerID,
			AvailabilityStatus:  enums.AvailabilityStatus(req.AvailabilityStatus),
			AvailabilityMode:    enums.AvailabilityMode(req.AvailabilityMode),
			Timezone:            validators.SanitizeString(req.Timezone, 64),
			DailyMatchLimit:     req.DailyMatchLimit,
			AutoAcceptThreshold: req.AutoAcceptThreshold,
			QuietHoursStart:     req.QuietHoursStart,
			QuietHoursEnd:       req.QuietHoursEnd,
			SnoozedUntil:        req.SnoozedUntil,
			NotifyInApp:         true,
			NotifyEmail:         true,
			EscalationContact:   req.EscalationContact,
		}
		if req.NotifyInApp != nil {
			pref.NotifyInApp = *req.NotifyInApp
		}
		if req.NotifyEmail != nil {
			pref.NotifyEmail = *req.NotifyEmail
		}
		if req.NotifySMS != nil {
			pref.NotifySMS = *req.NotifySMS
		}

		saved, err := svc.UpdatePreference(r.Context(), pref)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, saved)
	}
}
