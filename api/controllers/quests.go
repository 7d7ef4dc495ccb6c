package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/hearthapp/hearthledger-backend/api/responses"
	"github.com/hearthapp/hearthledger-backend/api/validators"
	"github.com/hearthapp/hearthledger-backend/internal/households"
	"github.com/hearthapp/hearthledger-backend/internal/quests"
	"github.com/hearthapp/hearthledger-backend/pkg/db/models"
	pkgerrors "github.com/hearthapp/hearthledger-backend/pkg/errors"
	"github.com/hearthapp/hearthledger-backend/pkg/logger"
)

type updateProgressRequest struct {
	Progress int `json:"progress" validate:"gte=0"`
}

// QuestCatalog lists every quest in the catalog.
func QuestCatalog(svc quests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.ListCatalog(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, questsFromModels(rows))
	}
}

// QuestListMine lists the caller's quest instances in the household.
func QuestListMine(svc quests.Service, hhSvc households.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		member, err := memberScope(r, hhSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListMine(r.Context(), member.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, memberQuestsFromModels(rows))
	}
}

// QuestBadges lists the badges the caller has earned in the household.
func QuestBadges(svc quests.Service, hhSvc households.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		member, err := memberScope(r, hhSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListBadges(r.Context(), member.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, badgesFromModels(rows))
	}
}

// QuestAssign starts a fresh in-progress instance for the caller.
func QuestAssign(svc quests.Service, hhSvc households.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		member, questID, err := questScope(r, hhSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mq, err := svc.Assign(r.Context(), member.ID, questID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, memberQuestFromModel(mq))
	}
}

// QuestUpdateProgress sets the caller's progress on a quest instance.
func QuestUpdateProgress(svc quests.Service, hhSvc households.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		member, questID, err := questScope(r, hhSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateProgressRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ok, err := svc.UpdateProgress(r.Context(), member.ID, questID, body.Progress)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "no active quest instance"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"updated": true})
	}
}

// QuestComplete forces the completed transition for one-shot quests.
func QuestComplete(svc quests.Service, hhSvc households.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		member, questID, err := questScope(r, hhSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ok, err := svc.Complete(r.Context(), member.ID, questID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "no active quest instance"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"completed": true})
	}
}

// QuestClaim grants the XP reward exactly once per completed instance.
func QuestClaim(svc quests.Service, hhSvc households.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		member, questID, err := questScope(r, hhSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		claimed, err := svc.Claim(r.Context(), member.ID, questID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !claimed {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "quest is not claimable"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"claimed": true})
	}
}

// memberScope resolves the caller's member record from the household route param.
func memberScope(r *http.Request, hhSvc households.Service) (*models.HouseholdMember, error) {
	userID, err := callerUserID(r)
	if err != nil {
		return nil, err
	}
	householdID, err := validators.ParseUUIDParam(r, "householdId")
	if err != nil {
		return nil, err
	}
	return requireMembership(r.Context(), hhSvc, userID, householdID)
}

// questScope is memberScope plus the quest route param.
func questScope(r *http.Request, hhSvc households.Service) (*models.HouseholdMember, uuid.UUID, error) {
	member, err := memberScope(r, hhSvc)
	if err != nil {
		return nil, uuid.Nil, err
	}
	questID, err := validators.ParseUUIDParam(r, "questId")
	if err != nil {
		return nil, uuid.Nil, err
	}
	return member, questID, nil
}
