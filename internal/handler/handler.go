// Package handler exposes the services over HTTP using the {ok, data, meta}
// JSON envelope.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"coffee-pos/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing useful left to tell the client.
		return
	}
}

// writeData wraps data in the success envelope.
func writeData(w http.ResponseWriter, status int, data any, meta *model.PageMeta) {
	writeJSON(w, status, model.Response{OK: true, Data: data, Meta: meta})
}

// writeError maps err to a status and writes the failure envelope. Errors that
// are not domain errors are logged and reported as INTERNAL_ERROR without
// their text.
func writeError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var de *model.DomainError
	if !errors.As(err, &de) {
		logger.Error().Err(err).Msg("handler error")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.ErrCodeInternalError,
			Message: model.ErrInternal.Message,
		})
		return
	}

	status := statusFor(de.Code)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("code", de.Code).Msg("handler error")
	} else {
		logger.Debug().Str("code", de.Code).Str("message", de.Message).Int("status", status).Msg("request rejected")
	}
	writeJSON(w, status, model.ErrorResponse{Error: de.Code, Message: de.Message})
}

// writeLookupError is writeError for single-resource routes, where a missing
// product is a 404 rather than a bad cart line.
func writeLookupError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	if errors.Is(err, model.ErrProductNotFound) {
		writeJSON(w, http.StatusNotFound, model.ErrorResponse{
			Error:   model.ErrCodeProductNotFound,
			Message: model.ErrProductNotFound.Message,
		})
		return
	}
	writeError(w, err, logger)
}

func statusFor(code string) int {
	switch code {
	case model.ErrCodeOrderNotFound,
		model.ErrCodeIngredientNotFound,
		model.ErrCodeSupplierNotFound,
		model.ErrCodePromotionNotFound,
		model.ErrCodeNotFound:
		return http.StatusNotFound
	case model.ErrCodeDuplicateCode, model.ErrCodeIngredientInUse:
		return http.StatusConflict
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case model.ErrCodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// decodeJSON reads a single JSON document from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return model.ErrInvalidJSON.Withf("Request body is empty")
		}
		return model.ErrInvalidJSON.Withf("Request body is not valid JSON: %v", err)
	}
	if dec.More() {
		return model.ErrInvalidJSON.Withf("Request body must contain a single JSON document")
	}
	return nil
}

// pathInt64 parses a positive integer path value.
func pathInt64(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, model.ErrInvalidID.Withf("Invalid %s %q", name, raw)
	}
	return id, nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.PathValue(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, model.ErrInvalidID.Withf("Invalid %s %q", name, raw)
	}
	return id, nil
}

// listParams reads page, limit and q. Clamping is left to the services.
func listParams(r *http.Request) (model.ListParams, error) {
	q := r.URL.Query()

	page, err := queryInt(q.Get("page"), "page")
	if err != nil {
		return model.ListParams{}, err
	}
	limit, err := queryInt(q.Get("limit"), "limit")
	if err != nil {
		return model.ListParams{}, err
	}

	return model.ListParams{Page: page, Limit: limit, Query: strings.TrimSpace(q.Get("q"))}, nil
}

func queryInt(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.ErrValidation.Withf("%s must be a number", name)
	}
	return n, nil
}

func deleted(id any) map[string]any {
	return map[string]any{"id": id, "deleted": true}
}
