package services

import (
	"context"
	"testing"

	"github.com/apimgr/tripplanner/src/database"
	"github.com/apimgr/tripplanner/src/server/model"
)

func setupAdminService(t *testing.T, env *testEnv) *AdminService {
	t.Helper()

	return NewAdminService(
		env.users,
		env.trips,
		env.cities,
		env.activities,
		&database.DB{DB: env.db},
		NewWebSocketHub(env.logger),
		NewCatalogCache(),
		env.logger,
	)
}

func TestAdminSelfProtection(t *testing.T) {
	env := setupEnv(t)
	admin := env.createAdmin(t, "root@example.com")
	svc := setupAdminService(t, env)
	ctx := context.Background()

	demote := models.RoleUser
	_, err := svc.UpdateUser(ctx, admin, admin.ID, AdminUserUpdate{Role: &demote})
	expectCode(t, err, models.ErrSelfDemote)

	err = svc.DeleteUser(ctx, admin, admin.ID)
	expectCode(t, err, models.ErrSelfDelete)

	// Other accounts are fair game
	victim := env.createUser(t, "victim@example.com")
	promote := models.RoleAdmin
	updated, err := svc.UpdateUser(ctx, admin, victim.ID, AdminUserUpdate{Role: &promote})
	if err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	if !updated.IsAdmin() {
		t.Error("Expected promotion to admin")
	}

	if err := svc.DeleteUser(ctx, admin, victim.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	_, err = env.users.GetByID(ctx, victim.ID)
	expectCode(t, err, models.ErrUserNotFound)
}

func TestAdminUpdateUserUnknownRole(t *testing.T) {
	env := setupEnv(t)
	admin := env.createAdmin(t, "root2@example.com")
	user := env.createUser(t, "plain@example.com")
	svc := setupAdminService(t, env)

	role := "superuser"
	_, err := svc.UpdateUser(context.Background(), admin, user.ID, AdminUserUpdate{Role: &role})
	expectCode(t, err, models.ErrInvalidInput)
}

func TestAdminDashboard(t *testing.T) {
	env := setupEnv(t)
	env.createAdmin(t, "dash-admin@example.com")
	user := env.createUser(t, "dash-user@example.com")
	env.createTrip(t, user, "Dash Trip")
	svc := setupAdminService(t, env)

	dash, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if dash.Users.Total != 2 {
		t.Errorf("Expected 2 users, got %d", dash.Users.Total)
	}
	if dash.Users.Admins != 1 {
		t.Errorf("Expected 1 admin, got %d", dash.Users.Admins)
	}
	if dash.Trips.Total != 1 {
		t.Errorf("Expected 1 trip, got %d", dash.Trips.Total)
	}
	if dash.Trips.ByStatus[models.StatusPlanning] != 1 {
		t.Errorf("Expected 1 planning trip, got %d", dash.Trips.ByStatus[models.StatusPlanning])
	}
}

func TestAdminListUsers(t *testing.T) {
	env := setupEnv(t)
	env.createUser(t, "lister-one@example.com")
	env.createUser(t, "lister-two@example.com")
	env.createUser(t, "elsewhere@example.com")
	svc := setupAdminService(t, env)

	users, total, err := svc.ListUsers(context.Background(), "lister", "", "", 50, 0)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if total != 2 || len(users) != 2 {
		t.Errorf("Expected 2 matching users, got %d/%d", len(users), total)
	}
}
