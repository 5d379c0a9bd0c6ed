package services

import (
	"context"
	"runtime"
	"time"

	"github.com/apimgr/tripplanner/src/database"
	"github.com/apimgr/tripplanner/src/server/model"
	"github.com/apimgr/tripplanner/src/utils"
)

// UserOverview is the user block of the admin dashboard
type UserOverview struct {
	Total      int `json:"total"`
	Admins     int `json:"admins"`
	ActiveWeek int `json:"active_week"`
	NewWeek    int `json:"new_week"`
}

// TripOverview is the trip block of the admin dashboard
type TripOverview struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
	Public   int            `json:"public"`
}

// Dashboard bundles the admin landing-page aggregates
type Dashboard struct {
	Users             UserOverview          `json:"users"`
	Trips             TripOverview          `json:"trips"`
	PopularCities     []*models.City        `json:"popular_cities"`
	PopularActivities []*models.Activity    `json:"popular_activities"`
	RecentUsers       []*models.User        `json:"recent_users"`
	RecentTrips       []*models.TripSummary `json:"recent_trips"`
}

// UserAnalytics is the admin user-growth report
type UserAnalytics struct {
	Total         int                 `json:"total"`
	Active30Days  int                 `json:"active_30_days"`
	New30Days     int                 `json:"new_30_days"`
	GrowthByMonth []models.MonthCount `json:"growth_by_month"`
	ByDay         []models.DayCount   `json:"by_day"`
}

// TripAnalytics is the admin trip report
type TripAnalytics struct {
	Total           int                 `json:"total"`
	ByStatus        map[string]int      `json:"by_status"`
	Public          int                 `json:"public"`
	Completed       int                 `json:"completed"`
	AverageDuration float64             `json:"average_duration_days"`
	ByMonth         []models.MonthCount `json:"by_month"`
	ByDay           []models.DayCount   `json:"by_day"`
	Budgets         *models.BudgetStats `json:"budgets"`
}

// DatabaseHealth is the connection-pool snapshot
type DatabaseHealth struct {
	Status string `json:"status"`
	Open   int    `json:"open_connections"`
	InUse  int    `json:"in_use"`
	Idle   int    `json:"idle"`
}

// SystemHealth is the admin system snapshot
type SystemHealth struct {
	Status     string         `json:"status"`
	Uptime     string         `json:"uptime"`
	GoVersion  string         `json:"go_version"`
	Goroutines int            `json:"goroutines"`
	Database   DatabaseHealth `json:"database"`
	Rooms      int            `json:"websocket_rooms"`
	Sessions   int            `json:"websocket_sessions"`
	CacheItems int            `json:"cache_items"`
}

// AdminUserUpdate carries the fields an admin may change on any account
type AdminUserUpdate struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
}

// AdminService implements the admin dashboard, user and trip management
// and analytics. Route-level admin enforcement happens in middleware;
// the self-protection rules live here.
type AdminService struct {
	users      *models.UserModel
	trips      *models.TripModel
	cities     *models.CityModel
	activities *models.ActivityModel
	db         *database.DB
	hub        *WebSocketHub
	catalog    *CatalogCache
	logger     *utils.Logger
	startedAt  time.Time
}

// NewAdminService creates the admin service
func NewAdminService(users *models.UserModel, trips *models.TripModel, cities *models.CityModel, activities *models.ActivityModel, db *database.DB, hub *WebSocketHub, catalog *CatalogCache, logger *utils.Logger) *AdminService {
	return &AdminService{
		users:      users,
		trips:      trips,
		cities:     cities,
		activities: activities,
		db:         db,
		hub:        hub,
		catalog:    catalog,
		logger:     logger,
		startedAt:  time.Now(),
	}
}

// Dashboard builds the admin landing-page aggregates
func (s *AdminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	dash := &Dashboard{}

	var err error
	if dash.Users, err = s.userOverview(ctx); err != nil {
		return nil, err
	}
	if dash.Trips, err = s.tripOverview(ctx); err != nil {
		return nil, err
	}
	if dash.PopularCities, err = s.cities.Popular(ctx, 5); err != nil {
		return nil, err
	}
	if dash.PopularActivities, err = s.activities.Popular(ctx, 5); err != nil {
		return nil, err
	}
	if dash.RecentUsers, err = s.users.Recent(ctx, 5); err != nil {
		return nil, err
	}
	if dash.RecentTrips, err = s.trips.AdminList(ctx, "", "", "created_at", "desc", 5, 0); err != nil {
		return nil, err
	}
	return dash, nil
}

func (s *AdminService) userOverview(ctx context.Context) (UserOverview, error) {
	var overview UserOverview
	var err error

	if overview.Total, err = s.users.Count(ctx, ""); err != nil {
		return overview, err
	}
	if overview.Admins, err = s.users.CountByRole(ctx, "admin"); err != nil {
		return overview, err
	}
	if overview.ActiveWeek, err = s.users.CountActiveSince(ctx, 7); err != nil {
		return overview, err
	}
	if overview.NewWeek, err = s.users.CountNewSince(ctx, 7); err != nil {
		return overview, err
	}
	return overview, nil
}

func (s *AdminService) tripOverview(ctx context.Context) (TripOverview, error) {
	overview := TripOverview{ByStatus: map[string]int{}}
	var err error

	if overview.Total, err = s.trips.Count(ctx, "", ""); err != nil {
		return overview, err
	}
	for _, status := range models.TripStatuses {
		if overview.ByStatus[status], err = s.trips.CountByStatus(ctx, status); err != nil {
			return overview, err
		}
	}
	if overview.Public, err = s.trips.CountPublic(ctx); err != nil {
		return overview, err
	}
	return overview, nil
}

// ListUsers returns a page of accounts for the admin panel
func (s *AdminService) ListUsers(ctx context.Context, search, sortBy, order string, limit, offset int) ([]*models.User, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.users.List(ctx, search, sortBy, order, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.users.Count(ctx, search)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// GetUser returns one account
func (s *AdminService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateUser changes an account's name, email or role. Admins cannot
// demote themselves.
func (s *AdminService) UpdateUser(ctx context.Context, caller *models.User, id int64, update AdminUserUpdate) (*models.User, error) {
	if update.Role != nil {
		if *update.Role != models.RoleUser && *update.Role != models.RoleAdmin {
			return nil, models.ErrInvalidInput.WithMessage("unknown role: %s", *update.Role)
		}
		if id == caller.ID && *update.Role != models.RoleAdmin {
			return nil, models.ErrSelfDemote
		}
	}

	if update.Email != nil {
		normalized := utils.NormalizeEmail(*update.Email)
		if err := utils.ValidateEmail(normalized); err != nil {
			return nil, models.ErrInvalidEmail
		}
		update.Email = &normalized
	}

	if update.FullName != nil || update.Email != nil {
		if err := s.users.UpdateProfile(ctx, id, update.FullName, update.Email); err != nil {
			return nil, err
		}
	}
	if update.Role != nil {
		if err := s.users.UpdateRole(ctx, id, *update.Role); err != nil {
			return nil, err
		}
	}

	return s.users.GetByID(ctx, id)
}

// DeleteUser removes an account and everything it owns. Admins cannot
// delete themselves.
func (s *AdminService) DeleteUser(ctx context.Context, caller *models.User, id int64) error {
	if id == caller.ID {
		return models.ErrSelfDelete
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Admin %d deleted user %d", caller.ID, id)
	return nil
}

// ListTrips returns a page of trips across all owners
func (s *AdminService) ListTrips(ctx context.Context, search, status, sortBy, order string, limit, offset int) ([]*models.TripSummary, int, error) {
	if status != "" && !models.ValidStatus(status) {
		return nil, 0, models.ErrInvalidStatus.WithMessage("unknown status: %s", status)
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	trips, err := s.trips.AdminList(ctx, search, status, sortBy, order, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.trips.Count(ctx, search, status)
	if err != nil {
		return nil, 0, err
	}
	return trips, total, nil
}

// UserAnalytics builds the account growth report
func (s *AdminService) UserAnalytics(ctx context.Context) (*UserAnalytics, error) {
	report := &UserAnalytics{}

	var err error
	if report.Total, err = s.users.Count(ctx, ""); err != nil {
		return nil, err
	}
	if report.Active30Days, err = s.users.CountActiveSince(ctx, 30); err != nil {
		return nil, err
	}
	if report.New30Days, err = s.users.CountNewSince(ctx, 30); err != nil {
		return nil, err
	}
	if report.GrowthByMonth, err = s.users.GrowthByMonth(ctx, 12); err != nil {
		return nil, err
	}
	if report.ByDay, err = s.users.RegistrationsByDay(ctx, 30); err != nil {
		return nil, err
	}
	return report, nil
}

// TripAnalytics builds the trip activity report
func (s *AdminService) TripAnalytics(ctx context.Context) (*TripAnalytics, error) {
	report := &TripAnalytics{ByStatus: map[string]int{}}

	var err error
	if report.Total, err = s.trips.Count(ctx, "", ""); err != nil {
		return nil, err
	}
	for _, status := range models.TripStatuses {
		if report.ByStatus[status], err = s.trips.CountByStatus(ctx, status); err != nil {
			return nil, err
		}
	}
	report.Completed = report.ByStatus[models.StatusCompleted]
	if report.Public, err = s.trips.CountPublic(ctx); err != nil {
		return nil, err
	}
	if report.AverageDuration, err = s.trips.AverageDurationDays(ctx); err != nil {
		return nil, err
	}
	if report.ByMonth, err = s.trips.TripsByMonth(ctx, 12); err != nil {
		return nil, err
	}
	if report.ByDay, err = s.trips.CreationsByDay(ctx, 30); err != nil {
		return nil, err
	}
	if report.Budgets, err = s.trips.BudgetStatistics(ctx); err != nil {
		return nil, err
	}
	return report, nil
}

// SystemHealth snapshots process, pool, hub and cache state
func (s *AdminService) SystemHealth(ctx context.Context) *SystemHealth {
	health := &SystemHealth{
		Status:     "ok",
		Uptime:     time.Since(s.startedAt).Round(time.Second).String(),
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
		Rooms:      s.hub.RoomCount(),
		Sessions:   s.hub.SessionCount(),
		CacheItems: s.catalog.ItemCount(),
	}

	if s.db == nil {
		health.Database.Status = "unconfigured"
		health.Status = "degraded"
		return health
	}

	stats := s.db.Stats()
	health.Database = DatabaseHealth{
		Status: "ok",
		Open:   stats.OpenConnections,
		InUse:  stats.InUse,
		Idle:   stats.Idle,
	}
	if err := database.PingWithTimeout(s.db.DB); err != nil {
		health.Database.Status = "unreachable"
		health.Status = "degraded"
	}
	return health
}

// SystemLogs tails one of the application log files
func (s *AdminService) SystemLogs(name string, lines int) ([]string, error) {
	if name == "" {
		name = "server"
	}
	if lines <= 0 {
		lines = 100
	}
	if lines > 1000 {
		lines = 1000
	}

	tail, err := s.logger.TailLog(name, lines)
	if err != nil {
		return nil, models.ErrInvalidInput.WithMessage("%s", err.Error())
	}
	return tail, nil
}
