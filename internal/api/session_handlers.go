package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/canvass/internal/geo"
	"github.com/sells-group/canvass/internal/geolocate"
	"github.com/sells-group/canvass/internal/model"
	"github.com/sells-group/canvass/internal/render"
	"github.com/sells-group/canvass/internal/store"
	"github.com/sells-group/canvass/internal/viewport"
)

type sessionResponse struct {
	ID       string         `json:"id"`
	Center   geo.Coordinate `json:"center"`
	Zoom     int            `json:"zoom"`
	Located  bool           `json:"located"`
	Fallback string         `json:"fallback_reason,omitempty"`
}

type idRequest struct {
	ID string `json:"id"`
}

type businessRef struct {
	BusinessID string `json:"business_id"`
}

type zoomRequest struct {
	Zoom float64 `json:"zoom"`
}

type handledResponse struct {
	Handled bool `json:"handled"`
}

// withSession resolves the session and runs fn under its lock.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*Session)) {
	sess, err := s.sessions.get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	fn(sess)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	ctx := geolocate.WithClientIP(r.Context(), clientIP(r))
	sess, res := s.sessions.create(ctx, s.state, s.cache, s.bounds, s.provider, s.fallback)
	resp := sessionResponse{ID: sess.ID, Center: res.Center, Zoom: res.Zoom, Located: res.Located}
	if res.Err != nil {
		resp.Fallback = res.Err.Error()
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if !s.sessions.remove(id) {
		writeError(w, eris.Wrapf(errSessionNotFound, "session %s", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) frame(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session) {
		writeJSON(w, http.StatusOK, sess.Map.Render())
	})
}

func (s *Server) scene(w http.ResponseWriter, r *http.Request) {
	adapter := render.ByName(r.URL.Query().Get("backend"))
	s.withSession(w, r, func(sess *Session) {
		writeJSON(w, http.StatusOK, adapter.Render(sess.Map.Render()))
	})
}

func (s *Server) markerEvent(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.withSession(w, r, func(sess *Session) {
		writeJSON(w, http.StatusOK, handledResponse{Handled: sess.Map.MarkerPressed(req.ID)})
	})
}

func (s *Server) mapEvent(w http.ResponseWriter, r *http.Request) {
	var at geo.Coordinate
	if err := decode(w, r, &at); err != nil {
		writeError(w, err)
		return
	}
	s.withSession(w, r, func(sess *Session) {
		b, err := sess.Map.AddPin(r.Context(), at)
		if err != nil {
			writeError(w, err)
			return
		}
		if b.ID == "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusCreated, b)
	})
}

func (s *Server) zoomEvent(w http.ResponseWriter, r *http.Request) {
	var req zoomRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.withSession(w, r, func(sess *Session) {
		sess.Map.ZoomChanged(viewport.RoundZoom(req.Zoom))
		writeJSON(w, http.StatusOK, sess.Map.Viewport().View())
	})
}

func (s *Server) moveEndEvent(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session) {
		sess.Map.InteractionEnded()
		writeJSON(w, http.StatusOK, sess.Map.Viewport().View())
	})
}

func (s *Server) bridgeEvent(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, eris.Wrap(errBadRequest, "read bridge message"))
		return
	}
	if !json.Valid(raw) {
		writeError(w, eris.Wrap(errBadRequest, "bridge message is not JSON"))
		return
	}
	s.withSession(w, r, func(sess *Session) {
		if err := render.Dispatch(r.Context(), raw, sess.Map); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Server) viewBusiness(w http.ResponseWriter, r *http.Request) {
	var req businessRef
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.withSession(w, r, func(sess *Session) {
		if !sess.List.View(req.BusinessID) {
			writeError(w, eris.Wrapf(store.ErrNotFound, "business %s", req.BusinessID))
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})
}

func (s *Server) editBusiness(w http.ResponseWriter, r *http.Request) {
	var req businessRef
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.withSession(w, r, func(sess *Session) {
		sess.Map.Edit(req.BusinessID)
		w.WriteHeader(http.StatusAccepted)
	})
}

func (s *Server) selected(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session) {
		b, ok := sess.Map.Selected()
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, b)
	})
}

func (s *Server) selectBusiness(w http.ResponseWriter, r *http.Request) {
	var req businessRef
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.withSession(w, r, func(sess *Session) {
		if !sess.Map.Select(req.BusinessID) {
			writeError(w, eris.Wrapf(store.ErrNotFound, "business %s", req.BusinessID))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Server) clearSelection(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session) {
		sess.Map.ClearSelection()
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Server) deleteFromMap(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session) {
		if err := sess.Map.Delete(r.Context(), chi.URLParam(r, "businessID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session) {
		writeJSON(w, http.StatusOK, sess.List.Refresh(r.URL.Query().Get("q")))
	})
}

func (s *Server) startEdit(w http.ResponseWriter, r *http.Request) {
	var req businessRef
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.withSession(w, r, func(sess *Session) {
		target, ok := sess.List.StartEdit(req.BusinessID)
		if !ok {
			writeError(w, eris.Wrapf(store.ErrNotFound, "business %s not in list", req.BusinessID))
			return
		}
		writeJSON(w, http.StatusOK, target)
	})
}

func (s *Server) saveEdit(w http.ResponseWriter, r *http.Request) {
	var patch model.BusinessPatch
	if err := decode(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}
	s.withSession(w, r, func(sess *Session) {
		if _, ok := sess.List.Editing(); !ok {
			writeError(w, eris.Wrap(errBadRequest, "no business being edited"))
			return
		}
		b, err := sess.List.SaveEdit(r.Context(), patch)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	})
}

func (s *Server) cancelEdit(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session) {
		sess.List.CancelEdit()
		w.WriteHeader(http.StatusNoContent)
	})
}
