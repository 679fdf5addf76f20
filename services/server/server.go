/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package server is the HTTP adapter over the settlement service and the
// chaincode invoker. Handlers stay thin: decode, delegate, map the error
// taxonomy to status codes.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ufsp-labs/fabric-settlement/platform/common/services/logging"
	"github.com/ufsp-labs/fabric-settlement/settlement"
)

var logger = logging.MustGetLogger("settlement-sdk.server")

// Settlements is the slice of the settlement service the adapter uses.
type Settlements interface {
	Create(ctx context.Context, transactionID, amount, currency string) (settlement.Settlement, error)
	Get(ctx context.Context, id string) (settlement.Settlement, error)
	UpdateStatus(ctx context.Context, id string, to settlement.Status) (settlement.Settlement, error)
	List(ctx context.Context) ([]settlement.Settlement, error)
}

// Liveness reports whether the gateway behind the invoker is up.
type Liveness interface {
	IsConnected() bool
	User() string
}

// Server serves the settlement, contract and transaction routes.
type Server struct {
	router      *mux.Router
	settlements Settlements
	invoker     settlement.Invoker
	txMachine   *settlement.StateMachine
	liveness    Liveness
	metrics     *metrics
}

func New(settlements Settlements, invoker settlement.Invoker, liveness Liveness) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		settlements: settlements,
		invoker:     invoker,
		txMachine:   settlement.NewTransactionStateMachine(),
		liveness:    liveness,
		metrics:     newMetrics(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.instrument)

	s.router.HandleFunc("/settlements", s.createSettlement).Methods(http.MethodPost)
	s.router.HandleFunc("/settlements", s.listSettlements).Methods(http.MethodGet)
	s.router.HandleFunc("/settlements/{id}", s.getSettlement).Methods(http.MethodGet)
	s.router.HandleFunc("/settlements/{id}/status", s.updateSettlementStatus).Methods(http.MethodPut)

	s.router.HandleFunc("/contracts", s.submitContract).Methods(http.MethodPost)
	s.router.HandleFunc("/contracts/query", s.queryContract).Methods(http.MethodPost)
	s.router.HandleFunc("/contracts/{id}", s.getAsset).Methods(http.MethodGet)

	s.router.HandleFunc("/transactions", s.createTransaction).Methods(http.MethodPost)
	s.router.HandleFunc("/transactions", s.listTransactions).Methods(http.MethodGet)
	s.router.HandleFunc("/transactions/{id}", s.getTransaction).Methods(http.MethodGet)
	s.router.HandleFunc("/transactions/{id}/status", s.updateTransactionStatus).Methods(http.MethodPut)

	s.router.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.handler()).Methods(http.MethodGet)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// instrument logs every request and feeds the prometheus counters. The
// route template is used as the metric label so ids do not explode the
// cardinality.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		elapsed := time.Since(start)
		s.metrics.observe(route, r.Method, rec.code, elapsed)
		logger.Infof("%s %s -> %d [%s]", r.Method, r.URL.Path, rec.code, elapsed)
	})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	type health struct {
		Status  string `json:"status"`
		Gateway string `json:"gateway"`
		User    string `json:"user,omitempty"`
	}
	if s.liveness == nil || !s.liveness.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, health{Status: "down", Gateway: "disconnected"})
		return
	}
	writeJSON(w, http.StatusOK, health{Status: "up", Gateway: "connected", User: s.liveness.User()})
}
