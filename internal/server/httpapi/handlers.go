package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/barangayconnect/internal/logging"
	"github.com/dmitrijs2005/barangayconnect/internal/server/metrics"
	"github.com/dmitrijs2005/barangayconnect/internal/server/users"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds request bodies; registration carries a base64 photo.
const maxBodyBytes = 16 << 20

type Handler struct {
	users   *users.Service
	metrics *metrics.Metrics
	secret  []byte
	logger  logging.Logger
}

func NewHandler(us *users.Service, m *metrics.Metrics, secret []byte, l logging.Logger) *Handler {
	return &Handler{users: us, metrics: m, secret: secret, logger: l.With("module", "httpapi")}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailResponse{Detail: detail})
}

// writeError sends business errors as they are and hides everything else
// behind a 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ue *users.Error
	if errors.As(err, &ue) {
		writeDetail(w, ue.Status, ue.Detail)
		return
	}
	h.logger.Error(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", requestIDFrom(r.Context()),
		"error", err,
	)
	writeDetail(w, http.StatusInternalServerError, "Internal server error")
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusBadRequest, "Invalid user id")
		return 0, false
	}
	return id, true
}

func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in users.Input
	if !decode(w, r, &in) {
		return
	}
	u, err := h.users.Register(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if !decode(w, r, &in) {
		return
	}
	res, err := h.users.Login(r.Context(), in.Contact, in.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := toUserResponse(res.User)
	out.AccessToken = res.AccessToken
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	var in users.Input
	if !decode(w, r, &in) {
		return
	}
	u, err := h.users.Update(r.Context(), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	all, err := h.users.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]userResponse, 0, len(all))
	for _, u := range all {
		out = append(out, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	var in statusRequest
	if !decode(w, r, &in) {
		return
	}
	u, err := h.users.SetStatus(r.Context(), id, in.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if c := claimsFrom(r.Context()); c != nil {
		h.logger.Info(r.Context(), "review decision", "reviewer_id", c.UserID, "user_id", id, "status", u.Status)
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "User deleted successfully"})
}
