package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"upscaler/internal/domain"
)

type registerRequest struct {
	AccountKey  int64  `json:"account_key"`
	ReferrerKey *int64 `json:"referrer_key,omitempty"`
}

type registerResponse struct {
	Created          bool `json:"created"`
	ReferrerCredited bool `json:"referrer_credited"`
}

// Register creates the account on first contact. The chat bot calls this on
// /start, passing the referral key when the user followed a referral link.
func (a *App) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.AccountKey == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "account_key required")
		return
	}

	reg, err := a.Ledger.RegisterIfAbsent(r.Context(), req.AccountKey, req.ReferrerKey)
	if err != nil {
		a.Logger.Error().Err(err).Int64("account_key", req.AccountKey).Msg("api: register failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to register account")
		return
	}

	if reg.ReferrerCredited && req.ReferrerKey != nil && a.Notifier != nil && a.Notifier.Configured() {
		if err := a.Notifier.SendMessage(r.Context(), *req.ReferrerKey,
			"Someone used your referral link! You earned 1 free credit."); err != nil {
			a.Logger.Warn().Err(err).Int64("referrer_key", *req.ReferrerKey).Msg("api: referrer notice failed")
		}
	}

	a.json(w, http.StatusOK, registerResponse(reg))
}

// Balance reports the account's credit counters.
func (a *App) Balance(w http.ResponseWriter, r *http.Request) {
	accountKey, ok := a.accountKeyParam(w, r)
	if !ok {
		return
	}
	balance, err := a.Ledger.Balance(r.Context(), accountKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "account is not registered")
			return
		}
		a.Logger.Error().Err(err).Int64("account_key", accountKey).Msg("api: balance lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load balance")
		return
	}
	a.json(w, http.StatusOK, balance)
}

// Referrals reports how many accounts registered through this account's
// referral link.
func (a *App) Referrals(w http.ResponseWriter, r *http.Request) {
	accountKey, ok := a.accountKeyParam(w, r)
	if !ok {
		return
	}
	count, err := a.Ledger.ReferralCount(r.Context(), accountKey)
	if err != nil {
		a.Logger.Error().Err(err).Int64("account_key", accountKey).Msg("api: referral count failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load referral count")
		return
	}
	a.json(w, http.StatusOK, map[string]int{"referrals": count})
}

type creditRequest struct {
	Amount int `json:"amount"`
}

// AddCredits adds purchased vip credits. The payment collaborator calls this
// after a successful invoice.
func (a *App) AddCredits(w http.ResponseWriter, r *http.Request) {
	accountKey, ok := a.accountKeyParam(w, r)
	if !ok {
		return
	}
	var req creditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	if err := a.Ledger.IncrementVip(r.Context(), accountKey, req.Amount); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			a.error(w, http.StatusBadRequest, "bad_request", "amount must be positive")
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "not_found", "account is not registered")
		default:
			a.Logger.Error().Err(err).Int64("account_key", accountKey).Msg("api: add credits failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to add credits")
		}
		return
	}

	a.Logger.Info().Int64("account_key", accountKey).Int("amount", req.Amount).Msg("api: vip credits added")
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) accountKeyParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	accountKey, err := strconv.ParseInt(chi.URLParam(r, "account_key"), 10, 64)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid account key")
		return 0, false
	}
	return accountKey, true
}
