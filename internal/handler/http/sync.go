// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ivan Karpovich

package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ikarpovich/study-sync/internal/app"
	"github.com/ikarpovich/study-sync/internal/logger"
	"github.com/ikarpovich/study-sync/internal/utils"
	"github.com/ikarpovich/study-sync/models"
)

func (h *Handler) push(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.push").Msg("no user ID was given")
		http.Error(w, app.MsgNoUserIDProvided, http.StatusBadRequest)
		return
	}

	var batch models.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		log.Err(err).Str("func", "*Handler.push").Msg("Invalid JSON was passed")
		http.Error(w, app.MsgInvalidJSON, http.StatusBadRequest)
		return
	}

	response, err := h.services.SyncService.Push(ctx, userID, batch)
	if err != nil {
		log.Err(err).Str("func", "*Handler.push").Msg("error pushing batch")
		http.Error(w, app.MsgErrorPushingBatch, statusFromError(err))
		return
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

func (h *Handler) pull(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.pull").Msg("no user ID was given")
		http.Error(w, app.MsgNoUserIDProvided, http.StatusBadRequest)
		return
	}

	// absent ?since= means a full pull from version zero
	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			log.Err(err).Str("func", "*Handler.pull").Str("since", raw).Msg("invalid since parameter")
			http.Error(w, app.MsgInvalidSinceParameter, http.StatusBadRequest)
			return
		}
		since = parsed
	}

	response, err := h.services.SyncService.Pull(ctx, userID, since)
	if err != nil {
		log.Err(err).Str("func", "*Handler.pull").Msg("error pulling changes")
		http.Error(w, app.MsgErrorPullingChanges, statusFromError(err))
		return
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.status").Msg("no user ID was given")
		http.Error(w, app.MsgNoUserIDProvided, http.StatusBadRequest)
		return
	}

	response, err := h.services.SyncService.Status(ctx, userID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.status").Msg("error getting sync status")
		http.Error(w, app.MsgErrorGettingSyncStatus, statusFromError(err))
		return
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

// health is probed by clients deciding between the local and cloud endpoint.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, map[string]string{"status": "healthy"}, http.StatusOK)
}
