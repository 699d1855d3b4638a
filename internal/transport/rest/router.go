package rest

import (
	"log/slog"

	"github.com/frahmantamala/asset-inventory/internal"
	"github.com/frahmantamala/asset-inventory/internal/activity"
	"github.com/frahmantamala/asset-inventory/internal/asset"
	"github.com/frahmantamala/asset-inventory/internal/auth"
	"github.com/frahmantamala/asset-inventory/internal/credential"
	"github.com/frahmantamala/asset-inventory/internal/lifecycle"
	"github.com/frahmantamala/asset-inventory/internal/location"
	"github.com/frahmantamala/asset-inventory/internal/permission"
	"github.com/frahmantamala/asset-inventory/internal/transport/middleware"
	"github.com/frahmantamala/asset-inventory/internal/transport/swagger"
	"github.com/frahmantamala/asset-inventory/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/jmoiron/sqlx"
)

// Handlers groups every HTTP handler the API mounts.
type Handlers struct {
	Auth                *auth.Handler
	User                *user.Handler
	Permission          *permission.Handler
	Location            *location.Handler
	Asset               *asset.Handler
	AssetLifecycle      *lifecycle.Handler
	Credential          *credential.Handler
	CredentialLifecycle *lifecycle.Handler
	Activity            *activity.Handler

	// ActivityQueue is reported by /health when set.
	ActivityQueue QueueStats
}

func RegisterAllRoutes(router *chi.Mux, db *sqlx.DB, h Handlers, authz *permission.Authorization, doc *swagger.Document, cfg internal.ServerConfig, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db, h.ActivityQueue)

	// Apply global middleware
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(nil))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", doc.ServeHTTP)
	router.Handle("/swagger/*", swagger.Handler())

	router.Route(doc.BasePath(), func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(middleware.PrincipalContext)

			registerAdminRoutes(pr, h, authz)
			registerLocationRoutes(pr, h.Location, authz)
			registerAssetRoutes(pr, h.Asset, h.AssetLifecycle, authz)
			registerCredentialRoutes(pr, h.Credential, h.CredentialLifecycle, authz)

			pr.With(authz.Require(permission.ActivityView)).Get("/activity", h.Activity.List)
		})
	})
}

func registerAdminRoutes(r chi.Router, h Handlers, authz *permission.Authorization) {
	r.Route("/users", func(ur chi.Router) {
		ur.Get("/me", h.User.GetCurrentUser)
		ur.With(authz.Require(permission.UsersView)).Get("/", h.User.GetUsers)
		ur.With(authz.Require(permission.UsersManage)).Post("/", h.User.CreateUser)

		ur.Route("/{id}", func(ir chi.Router) {
			ir.Group(func(mr chi.Router) {
				mr.Use(authz.Require(permission.UsersManage))
				mr.Patch("/status", h.User.UpdateUserStatus)
				mr.Delete("/", h.User.DeleteUser)
			})

			ir.Group(func(rr chi.Router) {
				rr.Use(authz.Require(permission.RolesManage))
				rr.Post("/roles", h.Permission.AssignRole)
				rr.Delete("/roles/{roleID}", h.Permission.UnassignRole)
			})

			ir.Group(func(gr chi.Router) {
				gr.Use(authz.Require(permission.PermissionsManage))
				gr.Post("/permissions", h.Permission.GrantUserPermission)
				gr.Delete("/permissions/{key}", h.Permission.RevokeUserPermission)
			})

			ir.With(authz.Require(permission.UsersView, permission.PermissionsManage)).
				Get("/authorize", h.Permission.CheckAuthorization)
		})
	})

	r.Route("/permissions", func(pr chi.Router) {
		pr.With(authz.Require(permission.PermissionsManage, permission.RolesManage)).Get("/", h.Permission.ListPermissions)
		pr.With(authz.Require(permission.PermissionsManage)).Put("/", h.Permission.UpsertPermission)
	})

	r.Route("/roles", func(rr chi.Router) {
		rr.Use(authz.Require(permission.RolesManage))
		rr.Get("/", h.Permission.ListRoles)
		rr.Post("/", h.Permission.CreateRole)
		rr.Get("/{id}", h.Permission.GetRole)
		rr.Post("/{id}/permissions", h.Permission.GrantRolePermission)
		rr.Delete("/{id}/permissions/{key}", h.Permission.RevokeRolePermission)
	})
}

func registerLocationRoutes(r chi.Router, h *location.Handler, authz *permission.Authorization) {
	r.Route("/locations", func(lr chi.Router) {
		lr.With(authz.Require(permission.LocationsView)).Get("/", h.GetLocations)
		lr.With(authz.Require(permission.LocationsView)).Get("/{id}", h.GetLocation)
		lr.With(authz.Require(permission.LocationsManage)).Post("/", h.CreateLocation)
	})
}

func registerAssetRoutes(r chi.Router, h *asset.Handler, lc *lifecycle.Handler, authz *permission.Authorization) {
	r.Route("/assets", func(ar chi.Router) {
		ar.With(authz.Require(permission.AssetsView)).Get("/", h.GetAssets)
		ar.With(authz.Require(permission.AssetsCreate)).Post("/", h.CreateAsset)

		ar.Route("/{id}", func(ir chi.Router) {
			ir.With(authz.Require(permission.AssetsView)).Get("/", h.GetAsset)
			ir.With(authz.Require(permission.AssetsView)).Get("/history", lc.History)
			ir.With(authz.Require(permission.AssetsUpdate)).Patch("/", h.UpdateAsset)
			ir.With(authz.Require(permission.AssetsDelete)).Delete("/", lc.Delete)
			ir.With(authz.Require(permission.AssetsDelete)).Post("/restore", lc.Restore)
			ir.With(authz.Require(permission.AssetsCheckout)).Post("/checkout", lc.Checkout)
			ir.With(authz.Require(permission.AssetsCheckin)).Post("/checkin", lc.Checkin)
		})
	})
}

func registerCredentialRoutes(r chi.Router, h *credential.Handler, lc *lifecycle.Handler, authz *permission.Authorization) {
	r.Route("/credentials", func(cr chi.Router) {
		cr.With(authz.Require(permission.CredentialsView)).Get("/", h.GetCredentials)
		cr.With(authz.Require(permission.CredentialsCreate)).Post("/", h.CreateCredential)

		cr.Route("/{id}", func(ir chi.Router) {
			ir.With(authz.Require(permission.CredentialsView)).Get("/", h.GetCredential)
			ir.With(authz.Require(permission.CredentialsView)).Get("/holders", lc.Holders)
			ir.With(authz.Require(permission.CredentialsView)).Get("/history", lc.History)
			ir.With(authz.Require(permission.CredentialsUpdate)).Patch("/", h.UpdateCredential)
			ir.With(authz.Require(permission.CredentialsDelete)).Delete("/", lc.Delete)
			ir.With(authz.Require(permission.CredentialsDelete)).Post("/restore", lc.Restore)
			ir.With(authz.Require(permission.CredentialsCheckout)).Post("/checkout", lc.Checkout)
			ir.With(authz.Require(permission.CredentialsCheckin)).Post("/checkin", lc.Checkin)
			ir.With(authz.Require(permission.CredentialsReveal)).Post("/reveal", h.RevealSecret)
		})
	})
}
