package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/huangsam/shiptalkers/core"
	"github.com/huangsam/shiptalkers/internal/contract"
	"github.com/huangsam/shiptalkers/schema"
	"go.uber.org/zap"
)

// kindBadRequest marks request validation failures.
const kindBadRequest = "bad_request"

// reportRequestBody is the JSON body of POST /api/v1/reports.
type reportRequestBody struct {
	Username  string `json:"username"`
	Trigger   string `json:"trigger"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// errorBody is returned for every failed request.
type errorBody struct {
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}

// reportResponse is the report with presentation fields filled in.
type reportResponse struct {
	*schema.Report
	Card schema.EnrichedReportCard `json:"card"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var body reportRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, kindBadRequest, "request body must be a JSON object")
		return
	}
	body.Username = strings.TrimSpace(body.Username)
	if body.Username == "" {
		respondError(w, http.StatusBadRequest, kindBadRequest, "username is required")
		return
	}

	ctx := core.WithRequestSource(core.WithSuppressHeader(r.Context()), core.SourceHTTP)
	report, err := s.svc.Report(ctx, schema.ReportRequest{
		Username:  body.Username,
		Trigger:   body.Trigger,
		AvatarURL: body.AvatarURL,
	})
	if err != nil {
		kind := contract.FailureKind(err)
		s.log.Warn("Report request failed",
			zap.String("username", body.Username),
			zap.String("error_kind", kind),
			zap.Error(err),
		)
		respondError(w, statusForKind(kind), kind, core.UserMessage(err))
		return
	}

	respondJSON(w, http.StatusOK, reportResponse{
		Report: report,
		Card:   schema.EnrichReportCard(report.Card),
	})
}

// statusForKind maps a failure kind to an HTTP status.
func statusForKind(kind string) int {
	switch kind {
	case contract.KindNotFound:
		return http.StatusNotFound
	case contract.KindUpstream, contract.KindSchema:
		return http.StatusBadGateway
	case contract.KindDivisionByZero:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes an error JSON response.
func respondError(w http.ResponseWriter, status int, kind, message string) {
	respondJSON(w, status, errorBody{ErrorKind: kind, Message: message})
}
