package server

import (
	"net/http"

	"github.com/playperu/spottheball/internal/access"
)

// AdminLoginRequest is the request body for POST /admin/login.
type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func handleAdminLogin(svc *access.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminLoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		grant, err := svc.AdminLogin(r.Context(), req.Username, req.Password)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, grant)
	}
}
