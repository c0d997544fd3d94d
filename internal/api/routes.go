package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"fitplanhub/server/internal/domain"
	"fitplanhub/server/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRoutes wires every endpoint onto the router. staticDir is where the
// SPA shell and its assets live.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	staticDir string,
	authService service.AuthService,
	accountService service.AccountService,
	planService service.PlanService,
	subscriptionService service.SubscriptionService,
) {

	authHandler := NewAuthHandler(authService, accountService)
	accountHandler := NewAccountHandler(accountService)
	planHandler := NewPlanHandler(planService, accountService)
	subscriptionHandler := NewSubscriptionHandler(subscriptionService, accountService)

	authMiddleware := AuthMiddleware(jwtSecret)
	optionalAuth := OptionalAuthMiddleware(jwtSecret)
	trainerOnly := RoleMiddleware(domain.RoleTrainer)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// --- Accounts ---
	accounts := router.Group("/api/accounts")
	{
		accounts.POST("/register/", authHandler.Register)
		accounts.POST("/login/", authHandler.Login)

		// Public trainer directory; an optional token adds the viewer's
		// follow state to the detail response.
		accounts.GET("/trainers/", optionalAuth, accountHandler.ListTrainers)
		accounts.GET("/trainers/:id/", optionalAuth, accountHandler.GetTrainer)

		accountsAuth := accounts.Group("", authMiddleware)
		{
			accountsAuth.GET("/profile/", accountHandler.GetProfile)
			accountsAuth.PUT("/profile/", accountHandler.UpdateProfile)
			accountsAuth.POST("/profile/picture-upload/", accountHandler.RequestPictureUpload)
			accountsAuth.PUT("/trainer-profile/", trainerOnly, accountHandler.UpdateTrainerProfile)

			accountsAuth.POST("/follow/:id/", accountHandler.Follow)
			accountsAuth.DELETE("/follow/:id/", accountHandler.Unfollow)
			accountsAuth.GET("/following/", accountHandler.ListFollowing)
		}
	}

	// --- Token pair (bare obtain/refresh) ---
	token := router.Group("/api/token")
	{
		token.POST("/", authHandler.ObtainToken)
		token.POST("/refresh/", authHandler.RefreshToken)
	}

	// --- Plans ---
	plans := router.Group("/api/plans")
	{
		// Catalog is public; the shape of each item depends on the viewer.
		plans.GET("/", optionalAuth, planHandler.ListPlans)

		plansAuth := plans.Group("", authMiddleware)
		{
			plansAuth.GET("/feed/", planHandler.Feed)
			plansAuth.GET("/subscriptions/", subscriptionHandler.ListSubscriptions)
			plansAuth.GET("/progress/", subscriptionHandler.Progress)

			trainer := plansAuth.Group("/trainer", trainerOnly)
			{
				trainer.GET("/plans/", planHandler.ListTrainerPlans)
				trainer.POST("/plans/", planHandler.CreatePlan)
				trainer.PUT("/plans/:id/", planHandler.UpdatePlan)
				trainer.DELETE("/plans/:id/", planHandler.DeletePlan)

				trainer.POST("/plans/:id/days/", planHandler.AddPlanDay)
				trainer.PUT("/plans/:id/days/:dayId/", planHandler.UpdatePlanDay)
				trainer.DELETE("/plans/:id/days/:dayId/", planHandler.DeletePlanDay)

				trainer.GET("/stats/", planHandler.TrainerStats)
			}

			plansAuth.POST("/:id/subscribe/", subscriptionHandler.Subscribe)
			plansAuth.POST("/:id/unsubscribe/", subscriptionHandler.Unsubscribe)
			plansAuth.GET("/:id/days/", planHandler.ListPlanDays)
		}

		plans.GET("/:id/", optionalAuth, planHandler.GetPlan)
	}

	// --- SPA shell ---
	// Anything that isn't an API route falls through to the single-page
	// app, which does its own client-side routing.
	router.Static("/static", filepath.Join(staticDir, "static"))
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.File(filepath.Join(staticDir, "spa.html"))
	})
}
