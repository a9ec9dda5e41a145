package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vbarros/obraprime-crm-go/internal/domain"
	"github.com/vbarros/obraprime-crm-go/internal/infra/snapshot"
	"github.com/vbarros/obraprime-crm-go/internal/service"

	"go.uber.org/zap"
)

func newAdminFixture(t *testing.T) (*service.AdminService, *service.AuthService, *snapshot.Memory) {
	t.Helper()
	store := snapshot.NewMemory()
	authSvc := service.NewAuthService(store, store, "test-secret", 15*time.Minute, 24*time.Hour, []string{"chefe@example.com"}, zap.NewNop())
	adminSvc := service.NewAdminService(store, store, store, "chefe@example.com", zap.NewNop())
	return adminSvc, authSvc, store
}

func TestUserReports_JoinsLogs(t *testing.T) {
	adminSvc, authSvc, _ := newAdminFixture(t)
	ctx := context.Background()

	resp := register(t, authSvc, "João", "joao@example.com", "senha-forte")
	if _, err := authSvc.Login(ctx, &domain.LoginRequest{Email: "joao@example.com", Password: "senha-forte"}, "agent"); err != nil {
		t.Fatal(err)
	}
	if err := authSvc.RecordShare(ctx, resp.UserID, domain.ShareNative); err != nil {
		t.Fatal(err)
	}

	reports, err := adminSvc.UserReports(ctx)
	if err != nil {
		t.Fatalf("user reports: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("reports = %d, want 1", len(reports))
	}
	rep := reports[0]
	// Register + login events.
	if rep.TotalAccesses != 2 || rep.TotalShares != 1 {
		t.Errorf("report = %+v", rep)
	}
	if rep.PasswordHash != "" {
		t.Error("password hash must not leak into reports")
	}
	if rep.LastAccess.IsZero() {
		t.Error("last access missing")
	}
}

func TestStats(t *testing.T) {
	adminSvc, authSvc, store := newAdminFixture(t)
	ctx := context.Background()

	register(t, authSvc, "João", "joao@example.com", "senha-forte")
	register(t, authSvc, "Chefe", "chefe@example.com", "senha-forte")
	if err := store.Save(ctx, []domain.Client{{ID: "c-1", TradeName: "Acme"}}); err != nil {
		t.Fatal(err)
	}

	stats, err := adminSvc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalUsers != 2 || stats.ActiveUsers != 2 || stats.BlockedUsers != 0 {
		t.Errorf("user counters = %+v", stats)
	}
	if stats.TotalClients != 1 {
		t.Errorf("total clients = %d", stats.TotalClients)
	}
	if stats.TotalAccesses != 2 {
		t.Errorf("total accesses = %d", stats.TotalAccesses)
	}
}

func TestSetUserStatus_BlockAndUnblock(t *testing.T) {
	adminSvc, authSvc, _ := newAdminFixture(t)
	ctx := context.Background()

	resp := register(t, authSvc, "João", "joao@example.com", "senha-forte")

	blocked, err := adminSvc.SetUserStatus(ctx, resp.UserID, domain.UserBlocked)
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if blocked.Status != domain.UserBlocked {
		t.Errorf("status = %q", blocked.Status)
	}

	// Login is now refused.
	_, err = authSvc.Login(ctx, &domain.LoginRequest{Email: "joao@example.com", Password: "senha-forte"}, "agent")
	var accountBlocked *domain.ErrAccountBlocked
	if !errors.As(err, &accountBlocked) {
		t.Fatalf("expected blocked login, got %v", err)
	}

	if _, err := adminSvc.SetUserStatus(ctx, resp.UserID, domain.UserActive); err != nil {
		t.Fatalf("unblock: %v", err)
	}
	if _, err := authSvc.Login(ctx, &domain.LoginRequest{Email: "joao@example.com", Password: "senha-forte"}, "agent"); err != nil {
		t.Fatalf("login after unblock: %v", err)
	}
}

func TestSetUserStatus_PrimaryAdminProtected(t *testing.T) {
	adminSvc, authSvc, _ := newAdminFixture(t)
	ctx := context.Background()

	resp := register(t, authSvc, "Chefe", "chefe@example.com", "senha-forte")

	_, err := adminSvc.SetUserStatus(ctx, resp.UserID, domain.UserBlocked)
	var forbidden *domain.ErrForbidden
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected forbidden for primary admin, got %v", err)
	}
	if forbidden.Action == "" {
		t.Error("forbidden action should name the refused operation")
	}
}

func TestSetUserStatus_UnknownUser(t *testing.T) {
	adminSvc, _, _ := newAdminFixture(t)

	_, err := adminSvc.SetUserStatus(context.Background(), "ghost", domain.UserBlocked)
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBackupAndRestore_RoundTrip(t *testing.T) {
	adminSvc, authSvc, store := newAdminFixture(t)
	ctx := context.Background()

	register(t, authSvc, "João", "joao@example.com", "senha-forte")
	if err := store.Save(ctx, []domain.Client{{ID: "c-1", TradeName: "Acme"}}); err != nil {
		t.Fatal(err)
	}

	backup, err := adminSvc.Backup(ctx)
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	if len(backup.Users) != 1 || len(backup.Clients) != 1 || len(backup.AccessLog) != 1 {
		t.Fatalf("backup = %+v", backup)
	}

	// Wipe everything, then restore.
	if err := store.Save(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveUsers(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if err := store.ReplaceAccessLog(ctx, nil); err != nil {
		t.Fatal(err)
	}

	if err := adminSvc.Restore(ctx, backup); err != nil {
		t.Fatalf("restore: %v", err)
	}

	clients, _ := store.Load(ctx)
	users, _ := store.LoadUsers(ctx)
	log, _ := store.LoadAccessLog(ctx)
	if len(clients) != 1 || len(users) != 1 || len(log) != 1 {
		t.Errorf("after restore: clients=%d users=%d log=%d", len(clients), len(users), len(log))
	}
}

func TestRestore_RejectsEmptyBackup(t *testing.T) {
	adminSvc, _, _ := newAdminFixture(t)

	var validation *domain.ErrValidation
	if err := adminSvc.Restore(context.Background(), &domain.Backup{}); !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
