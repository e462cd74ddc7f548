package http

import (
	"net/http"

	"walletbook/internal/core"
)

func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	uid, err := requireUID(r)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	wallets, err := s.wallets.List(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if wallets == nil {
		wallets = []core.Wallet{}
	}
	writeSuccess(w, http.StatusOK, wallets)
}

func (s *Server) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := s.wallets.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, wallet)
}

// handleSaveWallet creates a wallet when the payload has no id, edits
// name and image otherwise.
func (s *Server) handleSaveWallet(w http.ResponseWriter, r *http.Request) {
	var in core.WalletInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	in.Name = sanitizeInput(in.Name)

	wallet, err := s.wallets.CreateOrUpdate(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateStats(wallet.UID)
	status := http.StatusOK
	if in.ID == "" {
		status = http.StatusCreated
	}
	writeSuccess(w, status, wallet)
}

// handleDeleteWallet removes the wallet and all transactions that
// reference it.
func (s *Server) handleDeleteWallet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	wallet, err := s.wallets.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.wallets.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateStats(wallet.UID)
	writeSuccess(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) handleWalletTransactions(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, err := s.wallets.Get(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	transactions, err := s.transactions.ListByWallet(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if transactions == nil {
		transactions = []core.Transaction{}
	}
	writeSuccess(w, http.StatusOK, transactions)
}
