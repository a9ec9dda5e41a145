package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vbarros/obraprime-crm-go/internal/domain"
	"github.com/vbarros/obraprime-crm-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var adminTracer = otel.Tracer("service/admin")

// AdminService backs the administration dashboard: user reports, the raw
// access and share logs, aggregate stats, account blocking and full
// backup/restore of every collection.
type AdminService struct {
	users        port.UserStore
	logs         port.LogStore
	clients      port.ClientStore
	primaryAdmin string
	logger       *zap.Logger
}

// NewAdminService creates a new AdminService. primaryAdmin is the email of
// the account that can never be blocked.
func NewAdminService(users port.UserStore, logs port.LogStore, clients port.ClientStore, primaryAdmin string, logger *zap.Logger) *AdminService {
	return &AdminService{
		users:        users,
		logs:         logs,
		clients:      clients,
		primaryAdmin: strings.ToLower(strings.TrimSpace(primaryAdmin)),
		logger:       logger,
	}
}

// UserReports joins every user with its access and share counts, most
// recent users first.
func (s *AdminService) UserReports(ctx context.Context) ([]domain.UserReport, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.UserReports")
	defer span.End()

	users, err := s.users.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	accessLog, err := s.logs.LoadAccessLog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load access log: %w", err)
	}
	shareLog, err := s.logs.LoadShareLog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load share log: %w", err)
	}

	accesses := make(map[string]int, len(users))
	lastAccess := make(map[string]time.Time, len(users))
	for _, ev := range accessLog {
		accesses[ev.UserID]++
		if ev.Timestamp.After(lastAccess[ev.UserID]) {
			lastAccess[ev.UserID] = ev.Timestamp
		}
	}
	shares := make(map[string]int, len(users))
	for _, ev := range shareLog {
		shares[ev.UserID]++
	}

	reports := make([]domain.UserReport, 0, len(users))
	for _, u := range users {
		u.PasswordHash = ""
		reports = append(reports, domain.UserReport{
			User:          u,
			TotalAccesses: accesses[u.ID],
			TotalShares:   shares[u.ID],
			LastAccess:    lastAccess[u.ID],
		})
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

// AccessLog returns the access log, newest first.
func (s *AdminService) AccessLog(ctx context.Context) ([]domain.AccessEvent, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.AccessLog")
	defer span.End()

	log, err := s.logs.LoadAccessLog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load access log: %w", err)
	}
	sort.SliceStable(log, func(i, j int) bool { return log[i].Timestamp.After(log[j].Timestamp) })
	return log, nil
}

// ShareLog returns the share log, newest first.
func (s *AdminService) ShareLog(ctx context.Context) ([]domain.ShareEvent, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.ShareLog")
	defer span.End()

	log, err := s.logs.LoadShareLog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load share log: %w", err)
	}
	sort.SliceStable(log, func(i, j int) bool { return log[i].Timestamp.After(log[j].Timestamp) })
	return log, nil
}

// Stats aggregates the dashboard counters.
func (s *AdminService) Stats(ctx context.Context) (*domain.AdminStats, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.Stats")
	defer span.End()

	users, err := s.users.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	clients, err := s.clients.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	accessLog, err := s.logs.LoadAccessLog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load access log: %w", err)
	}
	shareLog, err := s.logs.LoadShareLog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load share log: %w", err)
	}

	stats := &domain.AdminStats{
		TotalUsers:    len(users),
		TotalClients:  len(clients),
		TotalAccesses: len(accessLog),
		TotalShares:   len(shareLog),
	}
	for _, u := range users {
		if u.Status == domain.UserBlocked {
			stats.BlockedUsers++
		} else {
			stats.ActiveUsers++
		}
	}
	return stats, nil
}

// SetUserStatus blocks or unblocks an account. The primary admin account
// cannot be blocked.
func (s *AdminService) SetUserStatus(ctx context.Context, userID string, status domain.UserStatus) (*domain.User, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.SetUserStatus")
	defer span.End()

	if status != domain.UserActive && status != domain.UserBlocked {
		return nil, &domain.ErrValidation{Field: "status", Message: "status deve ser active ou blocked"}
	}

	users, err := s.users.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	for i := range users {
		if users[i].ID != userID {
			continue
		}
		if status == domain.UserBlocked && s.primaryAdmin != "" && strings.EqualFold(users[i].Email, s.primaryAdmin) {
			return nil, &domain.ErrForbidden{Action: "bloquear o administrador principal"}
		}
		users[i].Status = status
		if err := s.users.SaveUsers(ctx, users); err != nil {
			return nil, fmt.Errorf("save users: %w", err)
		}
		s.logger.Info("user status changed",
			zap.String("user_id", userID),
			zap.String("status", string(status)),
		)
		u := users[i]
		u.PasswordHash = ""
		return &u, nil
	}
	return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
}

// Backup snapshots every collection into one document.
func (s *AdminService) Backup(ctx context.Context) (*domain.Backup, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.Backup")
	defer span.End()

	users, err := s.users.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	clients, err := s.clients.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	accessLog, err := s.logs.LoadAccessLog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load access log: %w", err)
	}
	shareLog, err := s.logs.LoadShareLog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load share log: %w", err)
	}

	return &domain.Backup{
		Timestamp: time.Now(),
		Users:     users,
		Clients:   clients,
		AccessLog: accessLog,
		ShareLog:  shareLog,
	}, nil
}

// Restore replaces every collection wholesale with the backup's contents.
// There is no merging; whatever the backup carries wins.
func (s *AdminService) Restore(ctx context.Context, b *domain.Backup) error {
	ctx, span := adminTracer.Start(ctx, "AdminService.Restore")
	defer span.End()

	if b == nil || (len(b.Users) == 0 && len(b.Clients) == 0) {
		return &domain.ErrValidation{Field: "backup", Message: "arquivo de backup vazio ou inválido"}
	}

	if err := s.users.SaveUsers(ctx, b.Users); err != nil {
		return fmt.Errorf("restore users: %w", err)
	}
	if err := s.clients.Save(ctx, b.Clients); err != nil {
		return fmt.Errorf("restore clients: %w", err)
	}
	if err := s.logs.ReplaceAccessLog(ctx, b.AccessLog); err != nil {
		return fmt.Errorf("restore access log: %w", err)
	}
	if err := s.logs.ReplaceShareLog(ctx, b.ShareLog); err != nil {
		return fmt.Errorf("restore share log: %w", err)
	}

	s.logger.Info("backup restored",
		zap.Int("users", len(b.Users)),
		zap.Int("clients", len(b.Clients)),
		zap.Time("backup_timestamp", b.Timestamp),
	)
	return nil
}
