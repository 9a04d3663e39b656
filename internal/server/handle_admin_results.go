package server

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/spottheball/internal/lifecycle"
	"github.com/playperu/spottheball/internal/winner"
)

// FinalResultRequest is the body for PATCH /admin/competitions/{id}/final-result.
type FinalResultRequest struct {
	FinalJudgeX *float64 `json:"finalJudgeX"`
	FinalJudgeY *float64 `json:"finalJudgeY"`
}

// coordinate turns a missing value into NaN so it fails range validation.
func coordinate(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func handleAdminSetFinalResult(svc *lifecycle.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FinalResultRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		c, err := svc.SetFinalJudgePoint(r.Context(), chi.URLParam(r, "id"), lifecycle.JudgePointInput{
			X: coordinate(req.FinalJudgeX),
			Y: coordinate(req.FinalJudgeY),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		remaining, err := svc.RemainingSlots(r.Context(), c)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, competitionView(c, remaining))
	}
}

func handleAdminComputeWinner(svc *winner.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.ComputeWinners(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, res)
	}
}

func handleAdminGetWinners(svc *winner.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Result(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, res)
	}
}

func handleAdminLockResult(svc *lifecycle.Service, winners *winner.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := svc.LockResults(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		res, err := winners.Result(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, res)
	}
}

func handleAdminExport(svc *winner.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		rows, err := svc.ExportResultRows(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="competition-%s-results.csv"`, id))
		w.WriteHeader(http.StatusOK)
		if err := winner.WriteCSV(w, rows); err != nil {
			logger.Error("writing export", "competition_id", id, "error", err)
		}
	}
}
