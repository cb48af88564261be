/*
Copyright the food-gateway authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package rest maps the gateway HTTP routes to chaincode queries and
// transactions and relays the ledger results back to the caller.
package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/pkg/errors"

	"github.com/zjucst/food-gateway/pkg/ledger"
	"github.com/zjucst/food-gateway/pkg/metrics"
)

var logger = logging.NewLogger("foodgw/rest")

// ErrorHeader carries the failure category of an unsuccessful request
const ErrorHeader = "X-Gateway-Error"

const badRequestKind = "BadRequest"

// Handler serves the gateway routes
type Handler struct {
	client       ledger.Client
	metrics      *metrics.Provider
	maxBodyBytes int64
}

// NewHandler returns a Handler issuing requests through client
func NewHandler(client ledger.Client, m *metrics.Provider, maxBodyBytes int64) *Handler {
	return &Handler{client: client, metrics: m, maxBodyBytes: maxBodyBytes}
}

// Register adds the route table to router
func (h *Handler) Register(router *mux.Router) {
	for _, rt := range routes {
		router.HandleFunc(rt.path, h.serve(rt)).Methods(rt.methods...).Name(rt.name)
	}
}

func (h *Handler) serve(rt route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h.metrics.RequestsReceived.With(metrics.RouteLabel, rt.name, metrics.FcnLabel, rt.fcn).Add(1)
		defer func() {
			h.metrics.RequestDuration.With(metrics.RouteLabel, rt.name, metrics.FcnLabel, rt.fcn).Observe(time.Since(start).Seconds())
		}()

		in, err := h.input(w, r, rt)
		if err != nil {
			h.badRequest(w, rt, err)
			return
		}
		args, err := rt.args(in)
		if err != nil {
			h.badRequest(w, rt, err)
			return
		}

		request := ledger.Request{Fcn: rt.fcn, Args: args}
		logger.Debugf("%s %s -> %s%q", r.Method, r.URL.Path, rt.fcn, args)

		if rt.invoke {
			h.invoke(w, r, rt, request)
			return
		}
		h.query(w, r, rt, request)
	}
}

func (h *Handler) input(w http.ResponseWriter, r *http.Request, rt route) (*input, error) {
	in := &input{query: queryParams(r), path: pathParams(r), body: params{}}
	if rt.hasBody {
		body, err := bodyParams(w, r, h.maxBodyBytes)
		if err != nil {
			return nil, err
		}
		in.body = body
	}
	return in, nil
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request, rt route, request ledger.Request) {
	result, err := h.client.Query(r.Context(), request)
	if err != nil {
		h.failure(w, rt, err)
		return
	}
	writeText(w, http.StatusOK, result.String())
}

func (h *Handler) invoke(w http.ResponseWriter, r *http.Request, rt route, request ledger.Request) {
	result, err := h.client.Invoke(r.Context(), request)
	if err != nil {
		h.failure(w, rt, err)
		return
	}

	if rt.relay == relayJSON {
		writeJSON(w, http.StatusOK, result)
		return
	}
	writeText(w, http.StatusOK, result.Status)
}

func (h *Handler) badRequest(w http.ResponseWriter, rt route, err error) {
	logger.Warnf("bad request for %s: %s", rt.name, err)
	h.metrics.RequestsFailed.With(metrics.RouteLabel, rt.name, metrics.FcnLabel, rt.fcn, metrics.KindLabel, badRequestKind).Add(1)

	w.Header().Set(ErrorHeader, badRequestKind)
	writeText(w, http.StatusBadRequest, errors.Cause(err).Error())
}

func (h *Handler) failure(w http.ResponseWriter, rt route, err error) {
	kind := ledger.KindOf(err)
	logger.Errorf("%s failed: %s", rt.fcn, err)
	h.metrics.RequestsFailed.With(metrics.RouteLabel, rt.name, metrics.FcnLabel, rt.fcn, metrics.KindLabel, kind.String()).Add(1)

	w.Header().Set(ErrorHeader, kind.String())
	code := StatusCode(kind)
	if code == http.StatusNoContent {
		w.WriteHeader(code)
		return
	}
	writeText(w, code, ledger.LegacyMessage(err))
}

// StatusCode returns the HTTP status reported for a failure kind
func StatusCode(kind ledger.Kind) int {
	switch kind {
	case ledger.BadProposal:
		return http.StatusBadRequest
	case ledger.CommitInvalid:
		return http.StatusConflict
	case ledger.CommitTimeout:
		return http.StatusGatewayTimeout
	case ledger.EmptyQueryResult:
		return http.StatusNoContent
	case ledger.BroadcastFailed, ledger.QueryFailed, ledger.MalformedResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	if _, err := w.Write([]byte(body)); err != nil {
		logger.Warnf("Failed writing response: %s", err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		w.Header().Set(ErrorHeader, ledger.Unknown.String())
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(body); err != nil {
		logger.Warnf("Failed writing response: %s", err)
	}
}
