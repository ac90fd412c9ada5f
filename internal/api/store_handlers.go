package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/canvass/internal/model"
	"github.com/sells-group/canvass/internal/store"
)

type companiesResponse struct {
	Companies []model.Company `json:"companies"`
	Selected  string          `json:"selected"`
}

type noteRequest struct {
	Text string `json:"text"`
}

func (s *Server) listCompanies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, companiesResponse{
		Companies: s.state.Companies(),
		Selected:  s.state.SelectedCompany(),
	})
}

func (s *Server) createCompany(w http.ResponseWriter, r *http.Request) {
	var c model.Company
	if err := decode(w, r, &c); err != nil {
		writeError(w, err)
		return
	}
	created, err := s.state.AddCompany(r.Context(), c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) selectCompany(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.state.SelectCompany(r.Context(), req.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteCompany(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "companyID")
	if err := s.state.RemoveCompany(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	s.cache.Invalidate(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listBusinesses(w http.ResponseWriter, r *http.Request) {
	var out []model.Business
	if company := r.URL.Query().Get("company"); company != "" {
		out = s.state.ListByCompany(company)
	} else {
		out = s.state.List()
	}
	if out == nil {
		out = []model.Business{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createBusiness(w http.ResponseWriter, r *http.Request) {
	var b model.Business
	if err := decode(w, r, &b); err != nil {
		writeError(w, err)
		return
	}
	if b.CompanyID == "" {
		b.CompanyID = s.state.SelectedCompany()
	}
	created, err := s.state.Add(r.Context(), b)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) getBusiness(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "businessID")
	b, ok := s.state.FindByID(id)
	if !ok {
		writeError(w, eris.Wrapf(store.ErrNotFound, "business %s", id))
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) updateBusiness(w http.ResponseWriter, r *http.Request) {
	var patch model.BusinessPatch
	if err := decode(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}
	b, err := s.state.Update(r.Context(), chi.URLParam(r, "businessID"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) deleteBusiness(w http.ResponseWriter, r *http.Request) {
	if err := s.state.Remove(r.Context(), chi.URLParam(r, "businessID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	b, err := s.state.AddNote(r.Context(), chi.URLParam(r, "businessID"), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) addActivity(w http.ResponseWriter, r *http.Request) {
	var a model.Activity
	if err := decode(w, r, &a); err != nil {
		writeError(w, err)
		return
	}
	b, err := s.state.AddActivity(r.Context(), chi.URLParam(r, "businessID"), a)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}
