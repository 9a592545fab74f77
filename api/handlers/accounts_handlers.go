package handlers

import (
	"errors"
	"net/http"
	"strings"

	"stocwatch/core/auth"
	"stocwatch/core/store"
	"stocwatch/core/utils"
)

type AccountsHandler struct {
	accounts store.AccountsStore
	logger   *utils.Logger
}

func NewAccountsHandler(as store.AccountsStore, logger *utils.Logger) *AccountsHandler {
	return &AccountsHandler{accounts: as, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AccountsHandler) LoginSTOC(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil || req.Username == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "username and password are required")
		return
	}
	acct, err := h.accounts.GetSTOCByUsername(r.Context(), req.Username)
	if err != nil {
		h.serverError(w, "stoc login", err)
		return
	}
	if acct == nil || !auth.CheckPassword(acct.PasswordHash, req.Password) {
		writeMessage(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	writeMessage(w, http.StatusOK, "login successful")
}

func (h *AccountsHandler) LoginStore(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil || req.Username == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "username and password are required")
		return
	}
	acct, err := h.accounts.GetStoreByUsername(r.Context(), req.Username)
	if err != nil {
		h.serverError(w, "store login", err)
		return
	}
	if acct == nil || !auth.CheckPassword(acct.PasswordHash, req.Password) {
		writeMessage(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "login successful", "store_id": acct.ID})
}

type registerStoreRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	StoreName     string `json:"store_name"`
	StoreLocation string `json:"store_location"`
	StoreContact  string `json:"store_contact"`
	StoreAddress  string `json:"store_address"`
	LiveURL       string `json:"live_url"`
}

func (h *AccountsHandler) RegisterStore(w http.ResponseWriter, r *http.Request) {
	var req registerStoreRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" || strings.TrimSpace(req.StoreName) == "" {
		writeMessage(w, http.StatusBadRequest, "username, password and store_name are required")
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.serverError(w, "hash password", err)
		return
	}
	acct := &store.StoreAccount{
		Username:      strings.TrimSpace(req.Username),
		PasswordHash:  hash,
		StoreName:     strings.TrimSpace(req.StoreName),
		StoreLocation: strings.TrimSpace(req.StoreLocation),
		StoreContact:  strings.TrimSpace(req.StoreContact),
		StoreAddress:  strings.TrimSpace(req.StoreAddress),
		LiveURL:       strings.TrimSpace(req.LiveURL),
	}
	if _, err := h.accounts.CreateStore(r.Context(), acct); err != nil {
		if errors.Is(err, store.ErrDuplicateAccount) {
			writeMessage(w, http.StatusBadRequest, "store with the same username, name and address already exists")
			return
		}
		h.serverError(w, "register store", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "account registered", "store_id": acct.ID})
}

type registerSTOCRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Contact  string `json:"stoc_contact"`
	Email    string `json:"stoc_email"`
	Location string `json:"stoc_location"`
}

func (h *AccountsHandler) RegisterSTOC(w http.ResponseWriter, r *http.Request) {
	var req registerSTOCRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" ||
		strings.TrimSpace(req.Contact) == "" || strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Location) == "" {
		writeMessage(w, http.StatusBadRequest, "all fields are required")
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.serverError(w, "hash password", err)
		return
	}
	acct := &store.STOCAccount{
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: hash,
		Contact:      strings.TrimSpace(req.Contact),
		Email:        strings.TrimSpace(req.Email),
		Location:     strings.TrimSpace(req.Location),
	}
	if _, err := h.accounts.CreateSTOC(r.Context(), acct); err != nil {
		if errors.Is(err, store.ErrDuplicateAccount) {
			writeMessage(w, http.StatusBadRequest, "username or email already exists")
			return
		}
		h.serverError(w, "register stoc account", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "account registered", "stoc_id": acct.ID})
}

func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	party, ok := pathParty(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "unknown party")
		return
	}
	switch party {
	case store.PartySTOC:
		items, err := h.accounts.ListSTOC(r.Context())
		if err != nil {
			h.serverError(w, "list stoc accounts", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	default:
		items, err := h.accounts.ListStore(r.Context())
		if err != nil {
			h.serverError(w, "list store accounts", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	party, ok := pathParty(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "unknown party")
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var err error
	if party == store.PartySTOC {
		err = h.accounts.DeleteSTOC(r.Context(), id)
	} else {
		err = h.accounts.DeleteStore(r.Context(), id)
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "account not found")
		return
	case err != nil:
		h.serverError(w, "delete account", err)
		return
	}
	writeMessage(w, http.StatusOK, "account deleted")
}

// VerifyAdmin checks a submitted password against every account of the
// party. Knowing any account password of the party unlocks destructive
// actions; there is no separate admin role.
func (h *AccountsHandler) VerifyAdmin(w http.ResponseWriter, r *http.Request) {
	party, ok := pathParty(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "unknown party")
		return
	}
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"valid": false, "message": "password required"})
		return
	}
	hashes, err := h.accounts.PasswordHashes(r.Context(), party)
	if err != nil {
		h.serverError(w, "verify admin password", err)
		return
	}
	for _, hash := range hashes {
		if auth.CheckPassword(hash, req.Password) {
			writeJSON(w, http.StatusOK, map[string]any{"valid": true})
			return
		}
	}
	writeJSON(w, http.StatusUnauthorized, map[string]any{"valid": false, "message": "incorrect password"})
}

func (h *AccountsHandler) StoreProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "storeID")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "missing store ID")
		return
	}
	acct, err := h.accounts.GetStoreAccount(r.Context(), id)
	if err != nil {
		h.serverError(w, "store profile", err)
		return
	}
	if acct == nil {
		writeMessage(w, http.StatusNotFound, "store not found")
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (h *AccountsHandler) LiveStream(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "storeID")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "missing store ID")
		return
	}
	acct, err := h.accounts.GetStoreAccount(r.Context(), id)
	if err != nil {
		h.serverError(w, "live stream url", err)
		return
	}
	if acct == nil || strings.TrimSpace(acct.LiveURL) == "" {
		writeMessage(w, http.StatusNotFound, "live stream not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"live_url": acct.LiveURL})
}

func (h *AccountsHandler) serverError(w http.ResponseWriter, op string, err error) {
	if h.logger != nil {
		h.logger.Errorf("%s: %v", op, err)
	}
	writeMessage(w, http.StatusInternalServerError, "internal server error")
}
