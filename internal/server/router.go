// Package server assembles the HTTP router.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/petermazzocco/recipe-api/internal/auth"
	"github.com/petermazzocco/recipe-api/internal/config"
	"github.com/petermazzocco/recipe-api/internal/handlers"
	"github.com/petermazzocco/recipe-api/internal/httputil"
	"github.com/petermazzocco/recipe-api/internal/images"
	"github.com/petermazzocco/recipe-api/internal/recipes"
	"github.com/petermazzocco/recipe-api/internal/users"
)

// Deps is everything the routes need.
type Deps struct {
	Config  *config.Config
	Users   *users.Service
	Recipes *recipes.Service
	Tokens  auth.TokenStore
	Images  images.Processor
	URLs    handlers.ImageURLer
	// MediaRoot, when set, is served under /media/.
	MediaRoot string
	// Ping reports database health for /healthz. Nil means always healthy.
	Ping func(context.Context) error
	// OAuth mounts the /auth routes.
	OAuth bool
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if origins := d.Config.Server.AllowedOrigins; len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) { httputil.NotFound(w) })
	r.MethodNotAllowed(httputil.MethodNotAllowed)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ping != nil {
			if err := d.Ping(r.Context()); err != nil {
				httputil.Error(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		httputil.OK(w, map[string]string{"status": "ok"})
	})

	if d.MediaRoot != "" {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(d.MediaRoot))))
	}

	// User auth
	if d.OAuth {
		r.Get("/auth/{provider}", handlers.BeginAuthHandler)
		r.Get("/auth/{provider}/callback", func(w http.ResponseWriter, r *http.Request) {
			handlers.UserLoginHandler(w, r, d.Users, d.Tokens)
		})
	}

	r.Route("/user", func(r chi.Router) {
		r.Post("/create", func(w http.ResponseWriter, r *http.Request) {
			handlers.CreateUserHandler(w, r, d.Users)
		})
		r.With(httprate.Limit(
			d.Config.RateLimit.TokenPerMinute,
			1*time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
			httprate.WithLimitHandler(tooManyRequests),
		)).Post("/token", func(w http.ResponseWriter, r *http.Request) {
			handlers.CreateTokenHandler(w, r, d.Users, d.Tokens)
		})

		// A subrouter authenticates before method matching, so anonymous
		// callers get 401 rather than 405.
		r.Route("/me", func(r chi.Router) {
			r.Use(auth.UserMiddleware(d.Tokens, d.Users))
			r.Get("/", handlers.GetUserHandler)
			r.Put("/", func(w http.ResponseWriter, r *http.Request) {
				handlers.UpdateUserHandler(w, r, d.Users)
			})
			r.Patch("/", func(w http.ResponseWriter, r *http.Request) {
				handlers.UpdateUserHandler(w, r, d.Users)
			})
		})
		r.With(auth.UserMiddleware(d.Tokens, d.Users)).Post("/logout", func(w http.ResponseWriter, r *http.Request) {
			handlers.LogoutHandler(w, r, d.Tokens)
		})
	})

	// Available API routes for authenticated users
	r.Route("/recipe", func(r chi.Router) {
		r.Use(auth.UserMiddleware(d.Tokens, d.Users))
		r.Use(httprate.Limit(
			d.Config.RateLimit.APIPerMinute,
			1*time.Minute,
			httprate.WithKeyFuncs(keyByUser),
			httprate.WithLimitHandler(tooManyRequests),
		))

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				handlers.ListRecipesHandler(w, r, d.Recipes)
			})
			r.Post("/", func(w http.ResponseWriter, r *http.Request) {
				handlers.CreateRecipeHandler(w, r, d.Recipes, d.URLs)
			})
			r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
				handlers.GetRecipeHandler(w, r, d.Recipes, d.URLs)
			})
			r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
				handlers.UpdateRecipeHandler(w, r, d.Recipes, d.URLs)
			})
			r.Patch("/{id}", func(w http.ResponseWriter, r *http.Request) {
				handlers.UpdateRecipeHandler(w, r, d.Recipes, d.URLs)
			})
			r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
				handlers.DeleteRecipeHandler(w, r, d.Recipes)
			})
			r.Post("/{id}/upload-image", func(w http.ResponseWriter, r *http.Request) {
				handlers.UploadRecipeImageHandler(w, r, d.Recipes, d.Images, d.URLs)
			})
		})

		attributeRoutes(r, "/tags", d.Recipes, recipes.KindTag)
		attributeRoutes(r, "/ingredients", d.Recipes, recipes.KindIngredient)
	})

	return r
}

func attributeRoutes(r chi.Router, pattern string, svc *recipes.Service, kind recipes.Kind) {
	r.Route(pattern, func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			handlers.ListAttributesHandler(w, r, svc, kind)
		})
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			handlers.GetAttributeHandler(w, r, svc, kind)
		})
		r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
			handlers.UpdateAttributeHandler(w, r, svc, kind)
		})
		r.Patch("/{id}", func(w http.ResponseWriter, r *http.Request) {
			handlers.UpdateAttributeHandler(w, r, svc, kind)
		})
		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			handlers.DeleteAttributeHandler(w, r, svc, kind)
		})
	})
}

// keyByUser limits per account. It runs after UserMiddleware, so the user
// is always there.
func keyByUser(r *http.Request) (string, error) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		return httprate.KeyByIP(r)
	}
	return "user:" + strconv.FormatUint(uint64(u.ID), 10), nil
}

func tooManyRequests(w http.ResponseWriter, r *http.Request) {
	httputil.Error(w, http.StatusTooManyRequests, "request was throttled")
}
