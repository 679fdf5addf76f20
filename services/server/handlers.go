/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ufsp-labs/fabric-settlement/pkg/utils/errors"
	"github.com/ufsp-labs/fabric-settlement/settlement"
)

type createSettlementRequest struct {
	TransactionID string `json:"transactionId"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type invocationRequest struct {
	Function string   `json:"function"`
	Args     []string `json:"args"`
}

type invocationResponse struct {
	Result json.RawMessage `json:"result"`
}

func (s *Server) createSettlement(w http.ResponseWriter, r *http.Request) {
	var req createSettlementRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	rec, err := s.settlements.Create(r.Context(), req.TransactionID, req.Amount, req.Currency)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) getSettlement(w http.ResponseWriter, r *http.Request) {
	rec, err := s.settlements.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) listSettlements(w http.ResponseWriter, r *http.Request) {
	recs, err := s.settlements.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if recs == nil {
		recs = []settlement.Settlement{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) updateSettlementStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	rec, err := s.settlements.UpdateStatus(r.Context(), mux.Vars(r)["id"], settlement.Status(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) submitContract(w http.ResponseWriter, r *http.Request) {
	var req invocationRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := s.invoker.Submit(req.Function, req.Args...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, invocationResponse{Result: rawResult(result)})
}

func (s *Server) queryContract(w http.ResponseWriter, r *http.Request) {
	var req invocationRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := s.invoker.Evaluate(req.Function, req.Args...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invocationResponse{Result: rawResult(result)})
}

func (s *Server) getAsset(w http.ResponseWriter, r *http.Request) {
	result, err := s.invoker.Evaluate("ReadAsset", mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invocationResponse{Result: rawResult(result)})
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req invocationRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := s.invoker.Submit("CreateTransaction", req.Args...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, invocationResponse{Result: rawResult(result)})
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	result, err := s.invoker.Evaluate("ReadTransaction", mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invocationResponse{Result: rawResult(result)})
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	result, err := s.invoker.Evaluate("ListTransactions")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invocationResponse{Result: rawResult(result)})
}

// updateTransactionStatus speaks the legacy three state model
// (PENDING/COMPLETED/FAILED). The transition is checked locally with the
// legacy table before the chaincode is called.
func (s *Server) updateTransactionStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	id := mux.Vars(r)["id"]

	raw, err := s.invoker.Evaluate("ReadTransaction", id)
	if err != nil {
		writeError(w, err)
		return
	}
	var current struct {
		Status settlement.Status `json:"status"`
	}
	if err := json.Unmarshal(raw, &current); err != nil {
		writeError(w, errors.Wrapf(err, "failed to decode transaction [%s]", id))
		return
	}
	to := settlement.Status(req.Status)
	if !s.txMachine.IsValidTransition(current.Status, to) {
		writeError(w, &settlement.TransitionError{
			From:   current.Status,
			To:     to,
			Reason: s.txMachine.ReasonIfInvalid(current.Status, to),
		})
		return
	}
	result, err := s.invoker.Submit("UpdateTransactionStatus", id, string(to))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invocationResponse{Result: rawResult(result)})
}

func decode(r *http.Request, into interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return errors.Validationf("malformed request body: %s", err)
	}
	return nil
}

// rawResult keeps JSON payloads inline and falls back to a JSON string
// for opaque chaincode output.
func rawResult(result []byte) json.RawMessage {
	if len(result) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(result) {
		return json.RawMessage(result)
	}
	quoted, _ := json.Marshal(string(result))
	return json.RawMessage(quoted)
}
