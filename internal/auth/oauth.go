package auth

import (
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"

	"github.com/petermazzocco/recipe-api/internal/config"
)

// SetupOAuth registers the Google provider and gives gothic a cookie store
// for its state. Sign-in ends with a regular API token, so the session only
// lives for the length of the redirect dance.
func SetupOAuth(cfg config.OAuthConfig) {
	goth.UseProviders(google.New(cfg.GoogleKey, cfg.GoogleSecret, cfg.CallbackURL, "email", "profile"))

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.MaxAge(15 * 60)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.SecureCookie
	gothic.Store = store
}
