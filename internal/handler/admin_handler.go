package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/vbarros/obraprime-crm-go/internal/domain"
	"github.com/vbarros/obraprime-crm-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Admin Handlers
// ============================================================

func adminUsersHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/users")
		defer span.End()

		reports, err := svc.UserReports(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, reports)
	}
}

func adminAccessLogHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/access-log")
		defer span.End()

		log, err := svc.AccessLog(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, log)
	}
}

func adminShareLogHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/share-log")
		defer span.End()

		log, err := svc.ShareLog(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, log)
	}
}

func adminStatsHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/stats")
		defer span.End()

		stats, err := svc.Stats(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

type setUserStatusRequest struct {
	Status domain.UserStatus `json:"status"`
}

func adminSetUserStatusHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/admin/users/{userId}/status")
		defer span.End()

		var req setUserStatusRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, err := svc.SetUserStatus(ctx, chi.URLParam(r, "userId"), req.Status)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

// adminUsersCSVHandler exports the user report as CSV for offline analysis.
func adminUsersCSVHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/users/export")
		defer span.End()

		reports, err := svc.UserReports(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="usuarios-%s.csv"`, time.Now().Format("2006-01-02")))

		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"Nome", "E-mail", "Telefone", "Perfil", "Status", "Acessos", "Compartilhamentos", "Último Acesso"})
		for _, rep := range reports {
			lastAccess := ""
			if !rep.LastAccess.IsZero() {
				lastAccess = rep.LastAccess.Format(time.RFC3339)
			}
			_ = cw.Write([]string{
				rep.Name,
				rep.Email,
				rep.Phone,
				string(rep.Role),
				string(rep.Status),
				strconv.Itoa(rep.TotalAccesses),
				strconv.Itoa(rep.TotalShares),
				lastAccess,
			})
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			logger.Error("csv export write failed", zap.Error(err))
		}
	}
}

func adminBackupHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/backup")
		defer span.End()

		backup, err := svc.Backup(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="backup-%s.json"`, time.Now().Format("2006-01-02")))
		writeJSON(w, http.StatusOK, backup)
	}
}

func adminRestoreHandler(svc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/restore")
		defer span.End()

		var backup domain.Backup
		if err := decodeBody(r, &backup); err != nil {
			writeError(w, http.StatusBadRequest, "invalid backup file")
			return
		}

		if err := svc.Restore(ctx, &backup); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Backup restaurado com sucesso"})
	}
}
