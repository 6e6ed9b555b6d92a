package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	errorsmod "cosmossdk.io/errors"

	"rwdledger/native/rewards"
	"rwdledger/services/rewardsd/journal"
)

type errorBody struct {
	Code      uint32 `json:"code,omitempty"`
	Codespace string `json:"codespace"`
	Error     string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Codespace: "http", Error: msg})
}

// statusFor maps engine error kinds onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, rewards.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, rewards.ErrGlobalFrozen),
		errors.Is(err, rewards.ErrMintFrozen),
		errors.Is(err, rewards.ErrBurnFrozen),
		errors.Is(err, rewards.ErrTransferFrozen):
		return http.StatusLocked
	case errors.Is(err, rewards.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, rewards.ErrBpsOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, rewards.ErrOperationNotAllowed),
		errors.Is(err, rewards.ErrRecipientNotWhitelisted),
		errors.Is(err, rewards.ErrIsNotCurrentlyTransferring):
		return http.StatusConflict
	case errors.Is(err, journal.ErrNonceReplayed):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {code, codespace, error}. Errors outside the
// rewards codespace are reported without internal detail.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if rewards.Code(err) != 0 {
		codespace, code, msg := rewardsInfo(err)
		writeJSON(w, status, errorBody{Code: code, Codespace: codespace, Error: msg})
		return
	}
	if errors.Is(err, journal.ErrNonceReplayed) {
		writeJSON(w, status, errorBody{Codespace: "journal", Error: err.Error()})
		return
	}
	writeJSON(w, status, errorBody{Codespace: "internal", Error: http.StatusText(status)})
}

func rewardsInfo(err error) (string, uint32, string) {
	return errorsmod.ABCIInfo(err, false)
}
