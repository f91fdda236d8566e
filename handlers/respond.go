package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"taskflow/models"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string           `json:"error"`
	Kind  models.ErrorKind `json:"kind"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("Error encoding response:", err)
	}
}

func statusFor(kind models.ErrorKind) int {
	switch kind {
	case models.KindValidation:
		return http.StatusBadRequest
	case models.KindAuth:
		return http.StatusUnauthorized
	case models.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeError renders err as {"error", "kind"}. Untyped errors are logged and
// reported as a generic storage failure.
func writeError(w http.ResponseWriter, err error) {
	var typed *models.Error
	if !errors.As(err, &typed) {
		log.Println("Unhandled error:", err)
		typed = models.StorageError(err)
	}
	writeJSON(w, statusFor(typed.Kind), errorBody{Error: typed.Message, Kind: typed.Kind})
}

// readBody returns the raw request body, capped at maxBodyBytes.
func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, models.ValidationError("Unable to read request body")
	}
	if len(body) > maxBodyBytes {
		return nil, models.ValidationError("Request body too large")
	}
	return body, nil
}

func decodeJSON(r *http.Request, v any) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return models.ValidationError("Invalid JSON body")
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, models.ValidationError("Invalid %s", name)
	}
	return id, nil
}
