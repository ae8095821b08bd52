package http

import (
	"embed"
	"html/template"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	appsvc "online-shopping/internal/app"
	"online-shopping/internal/bootstrap"
	"online-shopping/internal/cache"
	"online-shopping/internal/platform/rabbitmq"
	"online-shopping/internal/repository"
	"online-shopping/internal/transport/http/handler"
	"online-shopping/internal/transport/http/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	if err := router.SetTrustedProxies(app.Config.App.TrustedProxies); err != nil {
		log.Printf("set trusted proxies failed, trusting none: %v", err)
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Logger(), gin.Recovery())
	router.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	var (
		revocations appsvc.SessionRevocations
		listCache   appsvc.PostListCache
		publisher   appsvc.SoldOutPublisher
	)
	if app.Redis != nil {
		revocations = cache.NewSessionRevocations(app.Redis)
		listCache = cache.NewPostListCache(app.Redis, time.Duration(app.Config.Redis.PostListTTLSeconds)*time.Second)
	}
	if app.MQConn != nil {
		publisher = rabbitmq.NewSoldOutPublisher(app.MQConn, app.Config.RabbitMQ.SoldOutQueue)
	}

	userRepo := repository.NewUserRepository(app.DB)
	cardRepo := repository.NewCreditCardRepository(app.DB)
	postRepo := repository.NewPostRepository(app.DB)

	authService := appsvc.NewAuthService(
		userRepo,
		revocations,
		app.Config.Auth.SessionSecret,
		time.Duration(app.Config.Auth.SessionExpireMinute)*time.Minute,
		app.Config.Auth.BcryptCost,
	)
	paymentService := appsvc.NewPaymentService(cardRepo)
	blogService := appsvc.NewBlogService(postRepo, listCache, publisher)

	cookie := middleware.SessionCookie{
		Name:   app.Config.Auth.CookieName,
		Secure: app.Config.Auth.CookieSecure,
	}
	authHandler := handler.NewAuthHandler(authService, cookie)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	blogHandler := handler.NewBlogHandler(blogService)
	healthHandler := handler.NewHealthHandler(app)

	router.GET("/healthz", healthHandler.Check)

	router.Use(middleware.LoadIdentity(authService, cookie))
	limiter := middleware.NewRateLimiter(app.Config.RateLimit.AuthPerMinute, app.Config.RateLimit.AuthBurst)

	authGroup := router.Group("/auth")
	authGroup.GET("/register", authHandler.RegisterPage)
	authGroup.POST("/register", limiter.Middleware(), authHandler.Register)
	authGroup.GET("/login", authHandler.LoginPage)
	authGroup.POST("/login", limiter.Middleware(), authHandler.Login)
	authGroup.GET("/logout", authHandler.Logout)
	authGroup.GET("/credit_card", middleware.RequireUser(paymentHandler.CreditCardPage))
	authGroup.POST("/credit_card", middleware.RequireUser(paymentHandler.SaveCreditCard))
	authGroup.GET("/payment", middleware.RequireUser(paymentHandler.Payment))
	authGroup.POST("/payment", middleware.RequireUser(paymentHandler.ConfirmPayment))

	router.GET("/", blogHandler.Index)
	router.POST("/", blogHandler.IndexSubmit)
	router.GET("/create", middleware.RequireUser(blogHandler.CreatePage))
	router.POST("/create", middleware.RequireUser(blogHandler.Create))
	router.GET("/:id/update", middleware.RequireUser(blogHandler.UpdatePage))
	router.POST("/:id/update", middleware.RequireUser(blogHandler.Update))
	router.POST("/:id/delete", middleware.RequireUser(blogHandler.Delete))

	return router
}
