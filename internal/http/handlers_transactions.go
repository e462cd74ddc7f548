package http

import (
	"net/http"
	"strings"

	"walletbook/internal/core"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	uid, err := requireUID(r)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	transactions, err := s.transactions.ListByUser(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if transactions == nil {
		transactions = []core.Transaction{}
	}
	writeSuccess(w, http.StatusOK, transactions)
}

// handleSaveTransaction creates a transaction when the payload has no id,
// edits it otherwise. The wallet effect is applied or reconciled by the
// service before the document write.
func (s *Server) handleSaveTransaction(w http.ResponseWriter, r *http.Request) {
	var in core.TransactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	in.Category = sanitizeInput(in.Category)
	if in.Description != nil {
		cleaned := sanitizeInput(*in.Description)
		in.Description = &cleaned
	}

	tx, err := s.transactions.CreateOrUpdate(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateStats(tx.UID)
	status := http.StatusOK
	if in.ID == "" {
		status = http.StatusCreated
	}
	writeSuccess(w, status, tx)
}

// handleDeleteTransaction reverts the transaction's effect on its wallet
// and removes the document. The walletId query parameter names the wallet
// to credit back.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	walletID := strings.TrimSpace(r.URL.Query().Get("walletId"))
	if walletID == "" {
		writeFailure(w, http.StatusBadRequest, "missing walletId parameter")
		return
	}

	tx, err := s.transactions.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.transactions.Delete(r.Context(), id, walletID); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateStats(tx.UID)
	writeSuccess(w, http.StatusOK, map[string]string{"id": id})
}
