package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"rwdledger/core/events"
	"rwdledger/crypto"
	"rwdledger/native/rewards"
)

// signedRequest authenticates the envelope of a write request and consumes
// its nonce. The nonce is spent even when the operation later fails.
func (s *Server) signedRequest(w http.ResponseWriter, r *http.Request, out interface{}) ([20]byte, bool) {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	var env Envelope
	if err := dec.Decode(&env); err != nil {
		badRequest(w, fmt.Sprintf("invalid envelope: %v", err))
		return [20]byte{}, false
	}
	caller, err := env.Verify(r.Method, r.URL.Path)
	if err != nil {
		s.metrics.RecordThrottle("signature")
		writeJSON(w, http.StatusUnauthorized, errorBody{Codespace: "http", Error: err.Error()})
		return [20]byte{}, false
	}
	payload := json.NewDecoder(bytes.NewReader(env.Payload))
	payload.DisallowUnknownFields()
	if err := payload.Decode(out); err != nil {
		badRequest(w, fmt.Sprintf("invalid payload: %v", err))
		return [20]byte{}, false
	}
	if err := s.journal.ConsumeNonce(r.Context(), crypto.Bech32(caller), env.Nonce, r.Method, r.URL.Path); err != nil {
		writeError(w, err)
		return [20]byte{}, false
	}
	return caller, true
}

func (s *Server) fail(r *http.Request, operation string, err error) {
	level := slog.LevelInfo
	if rewards.Code(err) == 0 {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, "rewards request rejected",
		slog.String("operation", operation),
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
}

func (s *Server) handleInitializeToken(w http.ResponseWriter, r *http.Request) {
	var req InitializeTokenRequest
	caller, ok := s.signedRequest(w, r, &req)
	if !ok {
		return
	}
	var cfg *rewards.TokenConfig
	err := s.runtime.Execute(r.Context(), "initialize_token", func(e *rewards.Engine) error {
		var err error
		cfg, err = e.InitializeToken(caller, rewards.TokenArgs{
			Name:     req.Name,
			Symbol:   req.Symbol,
			URI:      req.URI,
			Decimals: req.Decimals,
		})
		return err
	})
	if err != nil {
		s.fail(r, "initialize_token", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTokenResponse(cfg, 0))
}

func (s *Server) handleInitializeFees(w http.ResponseWriter, r *http.Request) {
	var req InitializeFeesRequest
	caller, ok := s.signedRequest(w, r, &req)
	if !ok {
		return
	}
	collector, err := parseAddress("feeCollector", req.FeeCollector)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var schedule *rewards.FeeSchedule
	err = s.runtime.Execute(r.Context(), "initialize_fees", func(e *rewards.Engine) error {
		var err error
		schedule, err = e.InitializeFees(caller, rewards.FeeSchedule{
			MintFeeBps:       req.MintFeeBps,
			TransferFeeBps:   req.TransferFeeBps,
			RedemptionFeeBps: req.RedemptionFeeBps,
			FeeCollector:     collector,
		})
		return err
	})
	if err != nil {
		s.fail(r, "initialize_fees", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newFeesResponse(schedule))
}

func (s *Server) handleUpdateFees(w http.ResponseWriter, r *http.Request) {
	var req UpdateFeesRequest
	caller, ok := s.signedRequest(w, r, &req)
	if !ok {
		return
	}
	patch, err := req.patch()
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if patch.Empty() {
		badRequest(w, "fee update must set at least one field")
		return
	}
	var schedule *rewards.FeeSchedule
	err = s.runtime.Execute(r.Context(), "update_fees", func(e *rewards.Engine) error {
		var err error
		schedule, err = e.UpdateFees(caller, patch)
		return err
	})
	if err != nil {
		s.fail(r, "update_fees", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newFeesResponse(schedule))
}

func (s *Server) handleInitializeFreeze(w http.ResponseWriter, r *http.Request) {
	var req struct{}
	caller, ok := s.signedRequest(w, r, &req)
	if !ok {
		return
	}
	var freeze *rewards.FreezeState
	err := s.runtime.Execute(r.Context(), "initialize_freeze", func(e *rewards.Engine) error {
		var err error
		freeze, err = e.InitializeFreeze(caller)
		return err
	})
	if err != nil {
		s.fail(r, "initialize_freeze", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newFreezeResponse(freeze))
}

func (s *Server) handleFreeze(freeze bool) http.HandlerFunc {
	operation := "unfreeze"
	if freeze {
		operation = "freeze"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req FreezeRequest
		caller, ok := s.signedRequest(w, r, &req)
		if !ok {
			return
		}
		target, err := rewards.ParseFreezeTarget(req.Target)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		var state *rewards.FreezeState
		err = s.runtime.Execute(r.Context(), operation, func(e *rewards.Engine) error {
			var err error
			state, err = e.ToggleFreeze(caller, target, freeze)
			return err
		})
		if err != nil {
			s.fail(r, operation, err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newFreezeResponse(state))
	}
}

func (s *Server) writeEvent(w http.ResponseWriter, evt events.Event) {
	rendered := events.Render(evt)
	writeJSON(w, http.StatusOK, EventResponse{Type: rendered.Type, Attributes: rendered.Attributes})
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	caller, ok := s.signedRequest(w, r, &req)
	if !ok {
		return
	}
	var evt *rewards.MintEvent
	err := s.runtime.Execute(r.Context(), "mint", func(e *rewards.Engine) error {
		var err error
		evt, err = e.Mint(caller, req.Amount)
		return err
	})
	if err != nil {
		s.fail(r, "mint", err)
		writeError(w, err)
		return
	}
	s.writeEvent(w, evt)
}

func (s *Server) handleBurn(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	caller, ok := s.signedRequest(w, r, &req)
	if !ok {
		return
	}
	var evt *rewards.BurnEvent
	err := s.runtime.Execute(r.Context(), "burn", func(e *rewards.Engine) error {
		var err error
		evt, err = e.Burn(caller, req.Amount)
		return err
	})
	if err != nil {
		s.fail(r, "burn", err)
		writeError(w, err)
		return
	}
	s.writeEvent(w, evt)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	caller, ok := s.signedRequest(w, r, &req)
	if !ok {
		return
	}
	recipient, err := parseAddress("recipient", req.Recipient)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var evt *rewards.TransferEvent
	err = s.runtime.Execute(r.Context(), "transfer", func(e *rewards.Engine) error {
		var err error
		evt, err = e.Transfer(caller, recipient, req.Amount)
		return err
	})
	if err != nil {
		s.fail(r, "transfer", err)
		writeError(w, err)
		return
	}
	s.writeEvent(w, evt)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	err := s.runtime.View(r.Context(), func(e *rewards.Engine) error {
		_, err := e.FreezeState()
		return err
	})
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var (
		cfg    *rewards.TokenConfig
		supply uint64
	)
	err := s.runtime.View(r.Context(), func(e *rewards.Engine) error {
		var err error
		if cfg, err = e.TokenConfig(); err != nil {
			return err
		}
		supply, err = e.Supply()
		return err
	})
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTokenResponse(cfg, supply))
}

func (s *Server) handleFees(w http.ResponseWriter, r *http.Request) {
	var schedule *rewards.FeeSchedule
	err := s.runtime.View(r.Context(), func(e *rewards.Engine) error {
		var err error
		schedule, err = e.Fees()
		return err
	})
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newFeesResponse(schedule))
}

func (s *Server) handleFreezeState(w http.ResponseWriter, r *http.Request) {
	var freeze *rewards.FreezeState
	err := s.runtime.View(r.Context(), func(e *rewards.Engine) error {
		var err error
		freeze, err = e.FreezeState()
		return err
	})
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newFreezeResponse(freeze))
}

func (s *Server) handleVault(w http.ResponseWriter, r *http.Request) {
	var vault *rewards.VaultInfo
	err := s.runtime.View(r.Context(), func(e *rewards.Engine) error {
		var err error
		vault, err = e.Vault()
		return err
	})
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VaultResponse{
		Address:   bech32OrEmpty(vault.Address),
		Authority: bech32OrEmpty(vault.Authority),
		Mint:      bech32OrEmpty(vault.Mint),
		Balance:   strconv.FormatUint(vault.Balance, 10),
	})
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	owner, err := parseAddress("owner", chi.URLParam(r, "owner"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var view *rewards.AccountView
	err = s.runtime.View(r.Context(), func(e *rewards.Engine) error {
		var err error
		view, err = e.Account(owner)
		return err
	})
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AccountResponse{
		Owner:             crypto.Bech32(view.Owner),
		RewardAccount:     crypto.Bech32(view.RewardAccount),
		RewardBalance:     strconv.FormatUint(view.RewardBalance, 10),
		CollateralAccount: crypto.Bech32(view.CollateralAccount),
		CollateralBalance: strconv.FormatUint(view.CollateralBalance, 10),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var (
		after uint64
		limit int
		err   error
	)
	if raw := strings.TrimSpace(query.Get("after")); raw != "" {
		if after, err = strconv.ParseUint(raw, 10, 64); err != nil {
			badRequest(w, "after must be an unsigned integer")
			return
		}
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			badRequest(w, "limit must be a non-negative integer")
			return
		}
	}
	entries, err := s.journal.List(r.Context(), after, limit, query.Get("type"))
	if err != nil {
		s.logger.Error("list events failed", slog.Any("error", err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": entries})
}

// writeQueryError reports an uninitialised record as 404.
func writeQueryError(w http.ResponseWriter, err error) {
	if errors.Is(err, rewards.ErrOperationNotAllowed) {
		codespace, code, msg := rewardsInfo(err)
		writeJSON(w, http.StatusNotFound, errorBody{Code: code, Codespace: codespace, Error: msg})
		return
	}
	writeError(w, err)
}
