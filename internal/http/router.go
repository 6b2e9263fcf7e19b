package http

import (
	"log/slog"

	"github.com/geocoder89/contactkeeper/internal/auth"
	"github.com/geocoder89/contactkeeper/internal/cache"
	"github.com/geocoder89/contactkeeper/internal/config"
	"github.com/geocoder89/contactkeeper/internal/http/handlers"
	"github.com/geocoder89/contactkeeper/internal/http/middlewares"
	"github.com/geocoder89/contactkeeper/internal/observability"
	"github.com/geocoder89/contactkeeper/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps carries everything the router wires into handlers.
// Lists, Prom, Gatherer and Checks are optional.
type Deps struct {
	Log      *slog.Logger
	Config   config.Config
	Store    *store.Store
	Tokens   *auth.Manager
	Lists    cache.ContactLists
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Checks   []handlers.ReadinessCheck
}

func NewRouter(d Deps) *gin.Engine {
	if !d.Config.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())

	if d.Config.OTLPEndpoint != "" {
		r.Use(otelgin.Middleware(d.Config.ServiceName))
	}

	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Config.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(d.Config.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// health
	checks := append([]handlers.ReadinessCheck{{Name: "store", Ping: d.Store.Ping}}, d.Checks...)
	h := handlers.NewHealthHandler(d.Log, checks...)

	r.GET("/", handlers.Welcome)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	// Wire up handlers
	usersHandler := handlers.NewUsersHandler(d.Store.Users, d.Store.Users, d.Tokens, d.Log)
	authHandler := handlers.NewAuthHandler(d.Store.Users, d.Tokens, d.Log)

	var contactsHandler *handlers.ContactsHandler
	if d.Lists != nil {
		contactsHandler = handlers.NewContactsHandlerWithCache(d.Store.Contacts, d.Lists, d.Log)
	} else {
		contactsHandler = handlers.NewContactsHandler(d.Store.Contacts, d.Log)
	}

	authMW := middlewares.NewAuthMiddleware(d.Tokens, d.Config.AuthHeader)

	api := r.Group("/api/v1")

	api.POST("/users", usersHandler.Register)
	api.POST("/auth", authHandler.Login)
	api.GET("/auth", authMW.RequireAuth(), authHandler.Me)

	contacts := api.Group("/contacts", authMW.RequireAuth())
	{
		contacts.GET("", contactsHandler.ListContacts)
		contacts.POST("", contactsHandler.CreateContact)
		contacts.GET("/:id", contactsHandler.GetContactByID)
		contacts.PUT("/:id", contactsHandler.UpdateContact)
		contacts.DELETE("/:id", contactsHandler.DeleteContact)
	}

	return r
}
