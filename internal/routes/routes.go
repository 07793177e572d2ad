package routes

import (
	"time"

	"github.com/Ivgeniay/formflow/internal/config"
	"github.com/Ivgeniay/formflow/internal/handlers"
	"github.com/Ivgeniay/formflow/internal/hub"
	"github.com/Ivgeniay/formflow/internal/middleware"
	"github.com/Ivgeniay/formflow/internal/revocation"
	"github.com/Ivgeniay/formflow/internal/services"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	Health   *handlers.HealthHandler
	Template *handlers.TemplateHandler
	Form     *handlers.FormHandler
	Tag      *handlers.TagHandler
	Topic    *handlers.TopicHandler
	User     *handlers.UserHandler
	Admin    *handlers.AdminHandler
	Social   *handlers.SocialHandler
	Search   *handlers.SearchHandler
	ApiToken *handlers.ApiTokenHandler
}

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	h Handlers,
	activityHub *hub.Hub,
	apiTokens *services.ApiTokenService,
	revocations revocation.Store,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)

	// Auth — public, stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/google", h.Auth.GoogleSignIn)
	auth.Post("/refresh", h.Auth.Refresh)

	jwt := middleware.JWTProtected(cfg)
	guard := middleware.RevocationGuard(revocations)
	admin := middleware.AdminRequired(db)

	api.Post("/auth/logout", jwt, guard, h.Auth.Logout)

	// Public browse
	api.Get("/template", h.Template.ListPublished)
	api.Get("/tag", h.Tag.List)
	api.Get("/tag/autocomplete", h.Tag.Autocomplete)
	api.Get("/topic", h.Topic.List)
	api.Get("/search", h.Search.Search)
	api.Get("/template/:id/comments", h.Social.ListComments)
	api.Get("/template/:id/likes", h.Social.LikeCount)

	// Templates
	tmpl := api.Group("/template", jwt, guard)
	tmpl.Post("/", h.Template.Create)
	tmpl.Get("/mine", h.Template.ListMine)
	tmpl.Post("/bulk/archive", h.Template.BulkArchive)
	tmpl.Post("/bulk/unarchive", h.Template.BulkUnarchive)
	tmpl.Post("/bulk/delete", h.Template.BulkDelete)
	tmpl.Get("/:id", h.Template.Get)
	tmpl.Put("/:id", h.Template.Update)
	tmpl.Delete("/:id", h.Template.Delete)
	tmpl.Post("/:id/version", h.Template.CreateNewVersion)
	tmpl.Post("/:id/publish", h.Template.Publish)
	tmpl.Post("/:id/unpublish", h.Template.Unpublish)
	tmpl.Post("/:id/archive", h.Template.Archive)
	tmpl.Post("/:id/unarchive", h.Template.Unarchive)
	tmpl.Post("/:id/allowed-users", h.Template.AddAllowedUser)
	tmpl.Delete("/:id/allowed-users/:userId", h.Template.RemoveAllowedUser)
	tmpl.Get("/:id/forms", h.Form.ListByTemplate)

	// Forms
	form := api.Group("/form", jwt, guard)
	form.Post("/", h.Form.Submit)
	form.Get("/mine", h.Form.ListMine)
	form.Get("/:id", h.Form.Get)
	form.Put("/:id", h.Form.Update)
	form.Delete("/:id", h.Form.Delete)

	// Comments and likes mutate through the hub only.
	api.Post("/comment", jwt, guard, h.Social.UseHub)
	api.Delete("/comment/:id", jwt, guard, h.Social.DeleteComment)
	api.Post("/like", jwt, guard, h.Social.UseHub)

	// User profile, contacts, subscriptions, settings
	user := api.Group("/user", jwt, guard)
	user.Get("/me", h.User.Me)
	user.Put("/me", h.User.UpdateProfile)
	user.Get("/contacts", h.User.ListContacts)
	user.Post("/contacts", h.User.AddContact)
	user.Put("/contacts/:id/primary", h.User.SetPrimaryContact)
	user.Delete("/contacts/:id", h.User.DeleteContact)
	user.Get("/subscriptions", h.User.ListSubscriptions)
	user.Post("/subscriptions/:id", h.User.Subscribe)
	user.Delete("/subscriptions/:id", h.User.Unsubscribe)
	user.Get("/settings", h.User.GetSettings)
	user.Put("/settings", h.User.UpdateSettings)
	user.Get("/themes", h.User.ListThemes)
	user.Get("/languages", h.User.ListLanguages)

	// Personal API tokens
	apiToken := api.Group("/apitoken", jwt, guard)
	apiToken.Post("/", h.ApiToken.Create)
	apiToken.Get("/", h.ApiToken.Get)
	apiToken.Delete("/", h.ApiToken.Revoke)

	// Integration surface authenticated by API token
	integration := api.Group("/integration", middleware.APITokenRequired(apiTokens))
	integration.Get("/template/mine", h.Template.ListMine)
	integration.Get("/template/:id/forms", h.Form.ListByTemplate)

	// Admin panel
	adm := api.Group("/admin", jwt, guard, admin)
	adm.Get("/users", h.Admin.ListUsers)
	adm.Post("/users/:id/block", h.Admin.BlockUser)
	adm.Post("/users/:id/unblock", h.Admin.UnblockUser)
	adm.Put("/users/:id/role", h.Admin.SetRole)
	adm.Delete("/users/:id", h.Admin.DeleteUser)
	adm.Post("/templates/purge", h.Admin.HardDeleteTemplates)
	adm.Post("/tags/:id/recalculate", h.Admin.RecalculateTag)
	adm.Post("/search/reindex", h.Admin.ReindexAll)
	adm.Post("/topic", h.Topic.Create)
	adm.Put("/topic/:id", h.Topic.Update)
	adm.Delete("/topic/:id", h.Topic.Delete)
	adm.Post("/themes", h.Admin.CreateTheme)
	adm.Put("/themes/:id/default", h.Admin.SetDefaultTheme)
	adm.Delete("/themes/:id", h.Admin.DeleteTheme)
	adm.Post("/languages", h.Admin.CreateLanguage)
	adm.Put("/languages/:id/default", h.Admin.SetDefaultLanguage)
	adm.Delete("/languages/:id", h.Admin.DeleteLanguage)

	// Real-time activity hub
	app.Get("/ws/activity", hub.Upgrade(cfg, db), websocket.New(activityHub.Handler))
}
