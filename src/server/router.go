// Package server assembles the HTTP router from the handlers,
// middleware and domain services
package server

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/apimgr/tripplanner/src/config"
	"github.com/apimgr/tripplanner/src/database"
	"github.com/apimgr/tripplanner/src/server/handler"
	"github.com/apimgr/tripplanner/src/server/middleware"
	"github.com/apimgr/tripplanner/src/server/model"
	"github.com/apimgr/tripplanner/src/server/service"
	"github.com/apimgr/tripplanner/src/utils"
)

// Deps bundles everything the router needs. The database may be nil:
// the server then answers health checks while every data route fails
// with 503.
type Deps struct {
	Config  *config.Config
	DB      *database.DB
	Logger  *utils.Logger
	Version string

	Users      *models.UserModel
	Cities     *models.CityModel
	Activities *models.ActivityModel

	Tokens    *services.TokenService
	Auth      *services.AuthService
	Trips     *services.TripService
	Itinerary *services.ItineraryService
	Admin     *services.AdminService
	Catalog   *services.CatalogCache
	Hub       *services.WebSocketHub
	Bus       *services.EventBus
}

// NewRouter builds the gin engine with the full API surface
func NewRouter(d Deps) *gin.Engine {
	switch d.Config.Mode {
	case config.ModeDevelopment:
		gin.SetMode(gin.DebugMode)
	case config.ModeTest:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.AccessLogger(d.Logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.GlobalRateLimit())
	router.Use(middleware.BodySizeLimit(d.Config.Uploads.MaxSize))
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws"})))
	router.Use(corsMiddleware(d.Config.CORS))

	authHandler := handler.NewAuthHandler(d.Auth, d.Logger)
	tripHandler := handler.NewTripHandler(d.Trips, d.Logger)
	itineraryHandler := handler.NewItineraryHandler(d.Itinerary, d.Logger)
	cityHandler := handler.NewCityHandler(d.Cities, d.Trips, d.Catalog, d.Logger)
	activityHandler := handler.NewActivityHandler(d.Activities, d.Itinerary, d.Catalog, d.Logger)
	adminHandler := handler.NewAdminHandler(d.Admin, d.Trips, d.Cities, d.Activities, d.Logger)
	uploadHandler := handler.NewUploadHandler(d.Users, d.Trips, d.Config.Uploads, d.Logger)
	wsHandler := handler.NewWebSocketHandler(d.Hub, d.Logger)
	healthHandler := handler.NewHealthHandler(d.DB, d.Version)

	router.GET("/healthz", healthHandler.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAuth := middleware.RequireAuth(d.Tokens, d.Users)
	requireAdmin := middleware.RequireAdmin()
	requireDB := middleware.RequireDatabase(d.DB)

	router.GET("/ws", requireDB, requireAuth, wsHandler.Connect)

	api := router.Group("/api", requireDB)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", middleware.AuthRateLimit(), authHandler.Signup)
			auth.POST("/login", middleware.AuthRateLimit(), authHandler.Login)
			auth.POST("/refresh", middleware.AuthRateLimit(), authHandler.Refresh)
			auth.POST("/forgot-password", middleware.AuthRateLimit(), authHandler.ForgotPassword)
			auth.POST("/reset-password", middleware.AuthRateLimit(), authHandler.ResetPassword)
			auth.POST("/logout", authHandler.Logout)

			auth.GET("/profile", requireAuth, authHandler.Profile)
			auth.PUT("/profile", requireAuth, authHandler.UpdateProfile)
			auth.POST("/change-password", requireAuth, authHandler.ChangePassword)
			auth.GET("/verify", requireAuth, authHandler.Verify)
		}

		trips := api.Group("/trips")
		{
			// The shared view is anonymous and must be declared before
			// the :id routes so "shared" is not parsed as a trip id
			trips.GET("/shared/:publicUrl", tripHandler.GetShared)

			trips.GET("", requireAuth, tripHandler.List)
			trips.POST("", requireAuth, tripHandler.Create)
			trips.GET("/:id", requireAuth, tripHandler.Get)
			trips.PUT("/:id", requireAuth, tripHandler.Update)
			trips.DELETE("/:id", requireAuth, tripHandler.Delete)
			trips.POST("/:id/share", requireAuth, tripHandler.Share)
			trips.GET("/:id/stats", requireAuth, tripHandler.Stats)
			trips.GET("/:id/summary", requireAuth, tripHandler.Summary)
			trips.GET("/:id/cost-breakdown", requireAuth, tripHandler.CostBreakdown)
			trips.POST("/:id/cover", requireAuth, uploadHandler.TripCover)

			trips.GET("/:id/cities", requireAuth, tripHandler.ListCities)
			trips.PUT("/:id/cities/:cityId", requireAuth, tripHandler.UpdateCityDates)

			trips.GET("/:id/itinerary", requireAuth, itineraryHandler.ListForTrip)
			trips.POST("/:id/itinerary", requireAuth, itineraryHandler.CreateForTrip)
			trips.PUT("/:id/itinerary/reorder", requireAuth, itineraryHandler.Reorder)
		}

		itinerary := api.Group("/itinerary", requireAuth)
		{
			itinerary.GET("/:id", itineraryHandler.Get)
			itinerary.PUT("/:id", itineraryHandler.Update)
			itinerary.DELETE("/:id", itineraryHandler.Delete)
		}

		cities := api.Group("/cities")
		{
			cities.GET("/search", cityHandler.Search)
			cities.GET("/popular", cityHandler.Popular)
			cities.GET("/countries", cityHandler.Countries)
			cities.GET("/:id", cityHandler.Get)

			cities.POST("", requireAuth, requireAdmin, cityHandler.Create)
			cities.PUT("/:id", requireAuth, requireAdmin, cityHandler.Update)
			cities.DELETE("/:id", requireAuth, requireAdmin, cityHandler.Delete)

			cities.POST("/:id/add-to-trip", requireAuth, cityHandler.AddToTrip)
			cities.DELETE("/:id/remove-from-trip/:tripId", requireAuth, cityHandler.RemoveFromTrip)
		}

		activities := api.Group("/activities")
		{
			activities.GET("/search", activityHandler.Search)
			activities.GET("/popular", activityHandler.Popular)
			activities.GET("/categories", activityHandler.Categories)
			activities.GET("/:id", activityHandler.Get)
			activities.POST("/for-cities", activityHandler.ForCities)

			activities.POST("", requireAuth, requireAdmin, activityHandler.Create)
			activities.PUT("/:id", requireAuth, requireAdmin, activityHandler.Update)
			activities.DELETE("/:id", requireAuth, requireAdmin, activityHandler.Delete)

			activities.POST("/:id/add-to-trip", requireAuth, activityHandler.AddToTrip)
		}

		upload := api.Group("/upload", requireAuth)
		{
			upload.POST("/avatar", uploadHandler.Avatar)
		}

		admin := api.Group("/admin", middleware.AdminRateLimit(), requireAuth, requireAdmin)
		{
			admin.GET("/dashboard", adminHandler.Dashboard)

			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/users/:id", adminHandler.GetUser)
			admin.PUT("/users/:id", adminHandler.UpdateUser)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)

			admin.GET("/trips", adminHandler.ListTrips)
			admin.DELETE("/trips/:id", adminHandler.DeleteTrip)
			admin.PUT("/trips/:id/feature", adminHandler.FeatureTrip)

			admin.GET("/cities", adminHandler.ListCities)
			admin.GET("/activities", adminHandler.ListActivities)

			admin.GET("/analytics/users", adminHandler.UserAnalytics)
			admin.GET("/analytics/trips", adminHandler.TripAnalytics)

			admin.GET("/system/health", adminHandler.SystemHealth)
			admin.GET("/system/logs", adminHandler.SystemLogs)
		}
	}

	return router
}

// corsMiddleware builds the CORS policy from CORS_ORIGIN. "*" allows
// any origin without credentials; a concrete origin list allows
// credentialed requests from exactly those origins.
func corsMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: true,
	}

	origin := cfg.Origin
	if origin == "" || origin == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = splitOrigins(origin)
	}

	return cors.New(corsConfig)
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
