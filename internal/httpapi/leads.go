package httpapi

import (
	"context"
	"net/http"
	"strings"

	"keai-site/pkg/keai"
)

// leadPayload carries one consultation form submission.
type leadPayload struct {
	Company        string   `json:"company"`
	RegistrationNo string   `json:"registrationNo"`
	Representative string   `json:"representative"`
	Phone          string   `json:"phone"`
	Email          string   `json:"email"`
	Industry       string   `json:"industry"`
	FoundedYear    string   `json:"foundedYear"`
	CallWindow     string   `json:"callWindow"`
	FundingScale   string   `json:"fundingScale"`
	FundingTypes   []string `json:"fundingTypes"`
	Inquiry        string   `json:"inquiry"`
}

// leadUpdatePayload carries the only patchable lead fields.
type leadUpdatePayload struct {
	Status *string `json:"status"`
	Memo   *string `json:"memo"`
}

func (s *Server) handleLeads(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.leadsGet(w, r)
	case http.MethodPost:
		s.leadsCreate(w, r)
	case http.MethodPut:
		s.leadsUpdate(w, r)
	default:
		s.methodNotAllowed(w)
	}
}

func (s *Server) leadsGet(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("id"); id != "" {
		lead, err := s.leads.GetByID(r.Context(), id)
		if err != nil {
			s.failErr(w, r, err)
			return
		}

		s.respond(w, http.StatusOK, struct {
			Success bool      `json:"success"`
			Lead    keai.Lead `json:"lead"`
		}{true, lead})
		return
	}

	leads, err := s.leads.List(r.Context())
	if err != nil {
		s.failErr(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, struct {
		Success bool        `json:"success"`
		Leads   []keai.Lead `json:"leads"`
	}{true, leads})
}

func (s *Server) leadsCreate(w http.ResponseWriter, r *http.Request) {
	var payload leadPayload
	if err := decodeBody(r, &payload); err != nil {
		s.failErr(w, r, err)
		return
	}
	if strings.TrimSpace(payload.Company) == "" {
		s.failErr(w, r, keai.NewValidationError("company"))
		return
	}
	if strings.TrimSpace(payload.Phone) == "" {
		s.failErr(w, r, keai.NewValidationError("phone"))
		return
	}

	created, err := s.leads.Create(r.Context(), keai.LeadDraft{
		Company:        payload.Company,
		RegistrationNo: payload.RegistrationNo,
		Representative: payload.Representative,
		Phone:          payload.Phone,
		Email:          payload.Email,
		Industry:       payload.Industry,
		FoundedYear:    payload.FoundedYear,
		CallWindow:     payload.CallWindow,
		FundingScale:   payload.FundingScale,
		FundingTypes:   payload.FundingTypes,
		Inquiry:        payload.Inquiry,
	})
	if err != nil {
		s.failErr(w, r, err)
		return
	}

	// The response never waits for the operator notification.
	if s.notifier != nil {
		s.detach("lead notification", func(ctx context.Context) {
			s.notifier.NotifyLead(ctx, created)
		})
	}

	s.respond(w, http.StatusCreated, struct {
		Success bool      `json:"success"`
		Lead    keai.Lead `json:"lead"`
	}{true, created})
}

func (s *Server) leadsUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		s.failErr(w, r, keai.NewValidationError("id"))
		return
	}

	var payload leadUpdatePayload
	if err := decodeBody(r, &payload); err != nil {
		s.failErr(w, r, err)
		return
	}

	updated, err := s.leads.Update(r.Context(), id, keai.LeadUpdate{
		Status: payload.Status,
		Memo:   payload.Memo,
	})
	if err != nil {
		s.failErr(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, struct {
		Success bool      `json:"success"`
		Lead    keai.Lead `json:"lead"`
	}{true, updated})
}
