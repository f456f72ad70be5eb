package api

import (
	"errors"
	"net/http"
	"strings"

	"agencyboard/internal/webhooks"
)

func (s *Server) handleMeeting(w http.ResponseWriter, r *http.Request) {
	var body MeetingRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.ClientName) == "" || body.StartsAt.IsZero() {
		s.writeError(w, http.StatusBadRequest, ErrorResponse{Error: "clientName and startsAt are required"})
		return
	}
	resp, err := s.hooks.ScheduleMeeting(r.Context(), webhooks.MeetingRequest{
		RecordID:        body.RecordID,
		ClientName:      body.ClientName,
		Email:           body.Email,
		Phone:           body.Phone,
		StartsAt:        body.StartsAt,
		DurationMinutes: body.DurationMinutes,
		Notes:           body.Notes,
		RequestedBy:     actorOf(r).Name(),
	})
	s.writeWebhook(w, r, resp, err)
}

func (s *Server) handleContract(w http.ResponseWriter, r *http.Request) {
	var body ContractRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.ClientName) == "" {
		s.writeError(w, http.StatusBadRequest, ErrorResponse{Error: "clientName is required"})
		return
	}
	resp, err := s.hooks.GenerateContract(r.Context(), webhooks.ContractRequest{
		RecordID:    body.RecordID,
		ClientName:  body.ClientName,
		Document:    body.Document,
		Email:       body.Email,
		AmountCents: body.AmountCents,
		Template:    body.Template,
		RequestedBy: actorOf(r).Name(),
	})
	s.writeWebhook(w, r, resp, err)
}

func (s *Server) writeWebhook(w http.ResponseWriter, r *http.Request, resp webhooks.Response, err error) {
	if err != nil {
		if errors.Is(err, webhooks.ErrDisabled) {
			s.fail(w, r, err)
			return
		}
		s.writeError(w, http.StatusBadGateway, ErrorResponse{Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, WebhookResponse{Link: resp.Link, Status: resp.StatusCode, Raw: resp.Raw})
}
