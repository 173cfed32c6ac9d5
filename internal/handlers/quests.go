package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/questlog-app/questlog-backend/internal/middleware"
	"github.com/questlog-app/questlog-backend/internal/models"
	"github.com/questlog-app/questlog-backend/internal/services"
)

// QuestRequest is the create/update payload.
type QuestRequest struct {
	QuestName        string `json:"quest_name"`
	Description      string `json:"description"`
	Duration         string `json:"duration"`
	CheckinFrequency string `json:"checkin_frequency"`
	CheckinTime      string `json:"time"`
	IconID           int    `json:"icon_id"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	CategoryID       int    `json:"category_id"`
	Status           string `json:"status"`
}

func (req *QuestRequest) toQuest() *models.Quest {
	return &models.Quest{
		QuestName:        req.QuestName,
		Description:      req.Description,
		Duration:         req.Duration,
		CheckinFrequency: req.CheckinFrequency,
		CheckinTime:      req.CheckinTime,
		IconID:           req.IconID,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		CategoryID:       req.CategoryID,
		Status:           models.QuestStatus(req.Status),
	}
}

func writeMembershipError(w http.ResponseWriter, err error, context string) {
	switch {
	case errors.Is(err, services.ErrForbidden):
		writeError(w, http.StatusForbidden, "Not allowed")
	case errors.Is(err, services.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "Membership already exists")
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	default:
		writeInternalError(w, err, context)
	}
}

// CreateQuest creates a quest and its owner membership row atomically.
func CreateQuest(w http.ResponseWriter, r *http.Request) {
	var req QuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.QuestName) == "" {
		writeError(w, http.StatusBadRequest, "quest_name is required")
		return
	}

	callerID, _ := middleware.UserIDFromContext(r.Context())
	quest, err := services.CreateQuest(callerID, req.toQuest())
	if err != nil {
		writeInternalError(w, err, "quest create failed")
		return
	}
	writeJSON(w, http.StatusCreated, quest)
}

// GetQuests lists all quests.
func GetQuests(w http.ResponseWriter, r *http.Request) {
	quests, err := services.GetQuests()
	if err != nil {
		writeInternalError(w, err, "quest list failed")
		return
	}
	writeJSON(w, http.StatusOK, quests)
}

// GetQuest fetches one quest by ID.
func GetQuest(w http.ResponseWriter, r *http.Request) {
	quest, err := services.GetQuestByID(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Quest not found")
			return
		}
		writeInternalError(w, err, "quest fetch failed")
		return
	}
	writeJSON(w, http.StatusOK, quest)
}

// UpdateQuest updates quest fields; owner only.
func UpdateQuest(w http.ResponseWriter, r *http.Request) {
	var req QuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.QuestName) == "" || req.Status == "" {
		writeError(w, http.StatusBadRequest, "quest_name and status are required")
		return
	}

	callerID, _ := middleware.UserIDFromContext(r.Context())
	quest, err := services.UpdateQuest(callerID, chi.URLParam(r, "id"), req.toQuest())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			writeError(w, http.StatusForbidden, "Only the quest owner can update it")
		case errors.Is(err, services.ErrNotFound):
			writeError(w, http.StatusNotFound, "Quest not found")
		default:
			writeInternalError(w, err, "quest update failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, quest)
}

// DeleteQuest removes a quest; owner only.
func DeleteQuest(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.UserIDFromContext(r.Context())
	if err := services.DeleteQuest(callerID, chi.URLParam(r, "id")); err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			writeError(w, http.StatusForbidden, "Only the quest owner can delete it")
		case errors.Is(err, services.ErrNotFound):
			writeError(w, http.StatusNotFound, "Quest not found")
		default:
			writeInternalError(w, err, "quest delete failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Quest deleted successfully"})
}

// StartQuest lets the caller join a quest directly as an active participant.
func StartQuest(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.UserIDFromContext(r.Context())
	m, err := services.JoinQuest(callerID, chi.URLParam(r, "id"))
	if err != nil {
		writeMembershipError(w, err, "quest join failed")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// RequestJoinQuest creates a pending join request for the caller.
func RequestJoinQuest(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.UserIDFromContext(r.Context())
	m, err := services.RequestJoin(callerID, chi.URLParam(r, "id"))
	if err != nil {
		writeMembershipError(w, err, "quest join request failed")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// InviteToQuest invites another user; caller must already be a member.
func InviteToQuest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReceiverID string `json:"receiverId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReceiverID == "" {
		writeError(w, http.StatusBadRequest, "receiverId is required")
		return
	}

	callerID, _ := middleware.UserIDFromContext(r.Context())
	m, err := services.Invite(callerID, chi.URLParam(r, "id"), req.ReceiverID)
	if err != nil {
		writeMembershipError(w, err, "quest invite failed")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// ApproveInvite transitions the caller's invited row to active.
func ApproveInvite(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.UserIDFromContext(r.Context())
	m, err := services.AcceptInvite(callerID, chi.URLParam(r, "id"))
	if err != nil {
		writeMembershipError(w, err, "quest invite accept failed")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ApproveJoinRequest transitions a pending request to active; owner only.
func ApproveJoinRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	callerID, _ := middleware.UserIDFromContext(r.Context())
	m, err := services.ApproveRequest(callerID, chi.URLParam(r, "id"), req.UserID)
	if err != nil {
		writeMembershipError(w, err, "quest request approve failed")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// DeclineInvite deletes the caller's own invited row.
func DeclineInvite(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.UserIDFromContext(r.Context())
	if err := services.DeclineInvite(callerID, chi.URLParam(r, "id")); err != nil {
		writeMembershipError(w, err, "quest invite decline failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Invite declined"})
}

// DeleteJoinRequest lets the owner reject a pending join request.
func DeleteJoinRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	callerID, _ := middleware.UserIDFromContext(r.Context())
	if err := services.DeleteRequest(callerID, chi.URLParam(r, "id"), req.UserID); err != nil {
		writeMembershipError(w, err, "quest request delete failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Request removed"})
}

// RemoveQuestMember lets the owner remove a participant.
func RemoveQuestMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	callerID, _ := middleware.UserIDFromContext(r.Context())
	if err := services.RemoveMember(callerID, chi.URLParam(r, "id"), req.UserID); err != nil {
		writeMembershipError(w, err, "quest member remove failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Member removed"})
}

// GetQuestOwner returns the quest owner's public identity.
func GetQuestOwner(w http.ResponseWriter, r *http.Request) {
	owner, err := services.GetQuestOwner(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Quest owner not found")
			return
		}
		writeInternalError(w, err, "quest owner fetch failed")
		return
	}
	writeJSON(w, http.StatusOK, owner)
}

// GetQuestUsers returns the quest's participants.
func GetQuestUsers(w http.ResponseWriter, r *http.Request) {
	participants, err := services.GetQuestParticipants(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Quest not found")
			return
		}
		writeInternalError(w, err, "quest participants fetch failed")
		return
	}
	if len(participants) == 0 {
		writeError(w, http.StatusNotFound, "No participants found for this quest")
		return
	}
	writeJSON(w, http.StatusOK, participants)
}

// GetQuestMessages returns a quest's chat history (REST fallback).
func GetQuestMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := services.LoadQuestMessages(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Quest not found")
			return
		}
		writeInternalError(w, err, "quest messages fetch failed")
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// PostQuestMessage appends a chat message over REST.
func PostQuestMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MessageText string `json:"message_text"`
		UserID      string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		strings.TrimSpace(req.MessageText) == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "message_text and user_id are required")
		return
	}

	msg, err := services.SaveQuestMessage(r.Context(), chi.URLParam(r, "id"), req.UserID, req.MessageText)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Quest not found")
			return
		}
		writeInternalError(w, err, "quest message store failed")
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}
