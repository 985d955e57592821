package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"i4.energy/across/gsmat/gsm"
	"i4.energy/across/gsmat/modem"
)

// Device is the part of *modem.Modem the server uses.
type Device interface {
	SendSMS(ctx context.Context, recipient, message string) (int, error)
	Dial(ctx context.Context, number string) error
	Hangup(ctx context.Context) error
	Status(ctx context.Context) (modem.Status, error)
	Signal(ctx context.Context) (gsm.Signal, error)
	HTTP(ctx context.Context, p gsm.HTTPParams) (gsm.HTTPResponse, error)
}

// Server handles incoming HTTP requests for interacting with the
// configured modem instance
type Server struct {
	Logger *slog.Logger
	Modem  Device
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sms", s.handleSMS)
	mux.HandleFunc("POST /call", s.handleCall)
	mux.HandleFunc("POST /hangup", s.handleHangup)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /http", s.handleHTTP)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	s.sendJSON(w, ErrorResponse{Message: message}, statusCode)
}

func (s *Server) sendJSON(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// statusCode maps a modem error to an HTTP status.
func statusCode(err error) int {
	switch {
	case errors.Is(err, gsm.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, gsm.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, gsm.ErrBusy),
		errors.Is(err, gsm.ErrSimNotReady),
		errors.Is(err, gsm.ErrNetworkNotRegistered),
		errors.Is(err, gsm.ErrNetworkSearching),
		errors.Is(err, gsm.ErrNetworkRegistrationDenied),
		errors.Is(err, gsm.ErrNetworkError),
		errors.Is(err, modem.ErrLoopNotRunning):
		return http.StatusServiceUnavailable
	case errors.Is(err, gsm.ErrModem):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// handleSMS processes incoming HTTP POST requests to send SMS messages
func (s *Server) handleSMS(w http.ResponseWriter, r *http.Request) {
	type SMSRequest struct {
		To      string `json:"to"`
		Message string `json:"message"`
	}

	var req SMSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.To == "" || req.Message == "" {
		s.sendError(w, "both 'to' and 'message' fields are required", http.StatusBadRequest)
		return
	}

	ref, err := s.Modem.SendSMS(r.Context(), req.To, req.Message)
	if err != nil {
		s.Logger.Error("Failed to send SMS", "error", err, "to", req.To)
		s.sendError(w, err.Error(), statusCode(err))
		return
	}

	s.Logger.Info("SMS sent successfully", "to", req.To, "message_length", len(req.Message), "reference", ref)
	s.sendJSON(w, map[string]int{"reference": ref}, http.StatusOK)
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Number string `json:"number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Number == "" {
		s.sendError(w, "'number' field is required", http.StatusBadRequest)
		return
	}

	if err := s.Modem.Dial(r.Context(), req.Number); err != nil {
		s.Logger.Error("Failed to dial", "error", err, "number", req.Number)
		s.sendError(w, err.Error(), statusCode(err))
		return
	}
	s.Logger.Info("Call started", "number", req.Number)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleHangup(w http.ResponseWriter, r *http.Request) {
	if err := s.Modem.Hangup(r.Context()); err != nil {
		s.Logger.Error("Failed to hang up", "error", err)
		s.sendError(w, err.Error(), statusCode(err))
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	type StatusResponse struct {
		SIM       string `json:"sim"`
		Network   string `json:"network"`
		IP        string `json:"ip,omitempty"`
		Active    string `json:"active"`
		SignalDBm *int   `json:"signal_dbm,omitempty"`
		Dropped   int64  `json:"dropped_events"`
	}

	st, err := s.Modem.Status(r.Context())
	if err != nil {
		s.sendError(w, err.Error(), statusCode(err))
		return
	}
	resp := StatusResponse{
		SIM:     st.SIM.String(),
		Network: st.Network.String(),
		IP:      st.IP,
		Active:  st.Active.String(),
		Dropped: st.Dropped,
	}
	// Signal quality is best effort; the channel may be in use.
	if sig, err := s.Modem.Signal(r.Context()); err != nil {
		s.Logger.Warn("Failed to query signal", "error", err)
	} else if dbm, ok := sig.DBm(); ok {
		resp.SignalDBm = &dbm
	}
	s.sendJSON(w, resp, http.StatusOK)
}

var httpMethods = map[string]gsm.HTTPMethod{
	http.MethodGet:  gsm.HTTPGet,
	http.MethodPost: gsm.HTTPPost,
	http.MethodHead: gsm.HTTPHead,
}

// handleHTTP performs an HTTP request through the modem's own HTTP client.
func (s *Server) handleHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method      string `json:"method"`
		URL         string `json:"url"`
		ContentType string `json:"content_type"`
		Body        string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	method, ok := httpMethods[strings.ToUpper(req.Method)]
	if !ok {
		s.sendError(w, "method must be GET, POST or HEAD", http.StatusBadRequest)
		return
	}

	resp, err := s.Modem.HTTP(r.Context(), gsm.HTTPParams{
		Method:      method,
		URL:         req.URL,
		ContentType: req.ContentType,
		Body:        []byte(req.Body),
	})
	if err != nil {
		s.Logger.Error("HTTP request failed", "error", err, "url", req.URL)
		s.sendError(w, err.Error(), statusCode(err))
		return
	}

	type HTTPResponse struct {
		Status int    `json:"status"`
		Body   string `json:"body"`
	}
	s.sendJSON(w, HTTPResponse{Status: resp.Status, Body: string(resp.Body)}, http.StatusOK)
}
