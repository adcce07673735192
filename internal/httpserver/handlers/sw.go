package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/tellsiddh/collections/internal/assetcache"
	"github.com/tellsiddh/collections/internal/httpserver/deps"
	"github.com/tellsiddh/collections/internal/logger"
)

const maxWorkerBody = 64 << 10

type clickRequest struct {
	Action string `json:"action"`
}

type messageResponse struct {
	ShareTarget bool `json:"shareTarget"`
}

// Push delivers a push message. 201 carries the shown notification, 204
// means the message was empty and nothing was shown.
func Push(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWorkerBody))
		if err != nil {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "push payload too large")
			return
		}

		note, err := d.Notifier.Push(r.Context(), payload)
		if err != nil {
			d.Logger.Warn("push rejected", logger.Error(err))
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		if note == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusCreated, note)
	}
}

// NotificationClick handles a click on a shown notification.
func NotificationClick(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req clickRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWorkerBody)).Decode(&req); err != nil && err != io.EOF {
				writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
		}

		res, err := d.Notifier.Click(r.Context(), req.Action)
		if err != nil {
			d.Logger.Error("notification click failed", logger.Error(err))
			writeJSONError(w, http.StatusInternalServerError, "failed to open app window")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// Message receives a message posted to the worker.
func Message(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var msg assetcache.Message
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWorkerBody)).Decode(&msg); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		share, err := d.Messenger.Handle(r.Context(), msg)
		if err != nil {
			d.Logger.Error("message handling failed", logger.Error(err))
			writeJSONError(w, http.StatusInternalServerError, "failed to handle message")
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{ShareTarget: share})
	}
}

// CacheStatus reports the asset cache generations and cached entries.
func CacheStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := d.Worker.Status(r.Context())
		if err != nil {
			d.Logger.Error("failed to read asset cache status", logger.Error(err))
			writeJSONError(w, http.StatusInternalServerError, "asset cache unavailable")
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}
