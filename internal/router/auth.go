package router

import "github.com/gin-gonic/gin"

func (r *Router) authRoutes(version *gin.RouterGroup) {
	auth := version.Group("/auth")
	{
		// Credential-guessing surfaces get the stricter auth limit
		authLimit := r.limiter.Limit("auth", r.config.RateLimit.AuthRequest, r.config.RateLimit.AuthDuration)

		auth.POST("/register", r.authHandler.Register)
		auth.POST("/login", authLimit, r.authHandler.Login)
		auth.POST("/verify-email", r.authHandler.VerifyEmail)
		auth.POST("/resend-verification", r.authHandler.ResendVerification)
		auth.POST("/send-otp", authLimit, r.authHandler.SendOtp)
		auth.POST("/verify-otp", r.authHandler.VerifyOtp)
		auth.POST("/forgot-password", authLimit, r.authHandler.ForgotPassword)
		auth.POST("/reset-password", r.authHandler.ResetPassword)
		auth.POST("/refresh-token", r.authHandler.Refresh)
		auth.POST("/logout", r.authHandler.Logout)

		// Protected routes (JWT authentication required)
		protected := auth.Group("")
		protected.Use(r.jwtMw.RequireAuth())
		{
			protected.GET("/profile", r.userHandler.Profile)
			protected.PATCH("/change-password", r.authHandler.ChangePassword)
			protected.POST("/logout-all", r.authHandler.LogoutAll)
		}
	}
}
