package router

import (
	"github.com/gin-gonic/gin"

	"claimintake/internal/auth"
	"claimintake/internal/handler"
	"claimintake/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	verifier middleware.TokenVerifier,
	corsOrigins []string,
	intakeH *handler.IntakeHandler,
	claimH *handler.ClaimHandler,
	profileH *handler.ProfileHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(corsOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")
	v1.GET("/claim-types", profileH.List)

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.Auth(verifier))

	// Intake drafts
	drafts := protected.Group("/drafts")
	drafts.POST("", intakeH.Start)
	drafts.GET("/:id", intakeH.Get)
	drafts.DELETE("/:id", intakeH.Cancel)
	drafts.PUT("/:id/fields/:name", intakeH.SetField)
	drafts.POST("/:id/evidence", intakeH.AttachEvidence)
	drafts.POST("/:id/policy-document", intakeH.AttachPolicyDocument)
	drafts.POST("/:id/fetch", intakeH.RetryFetch)
	drafts.POST("/:id/advance", intakeH.Advance)
	drafts.POST("/:id/back", intakeH.Back)
	drafts.POST("/:id/submit", intakeH.Submit)

	// Submitted claims, claimant view
	claims := protected.Group("/claims")
	claims.GET("", claimH.ListMine)
	claims.GET("/:id", claimH.GetMine)

	// Adjuster review
	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(auth.RoleAdjuster))
	admin.GET("/claims", claimH.ListForReview)
	admin.GET("/claims/:id", claimH.Get)
	admin.PUT("/claims/:id/review", claimH.Review)

	return r
}
