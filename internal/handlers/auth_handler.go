package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/joshua-takyi/eventgate/internal/config"
	"github.com/joshua-takyi/eventgate/internal/helpers"
	"github.com/joshua-takyi/eventgate/internal/models"
	"github.com/joshua-takyi/eventgate/internal/services"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

func Register(u *services.UserService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		user, err := u.Register(c.Request.Context(), req.Name, req.Email, req.Password, req.Role)
		if err != nil {
			respondError(c, err)
			return
		}

		token, err := helpers.GenerateToken(cfg.JWTSecret, user.ID.Hex(), user.Email, user.Role)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, models.SuccessResponse(authResponse{
			Token: token,
			User:  user.Public(),
		}, "account created"))
	}
}

func Login(u *services.UserService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		user, err := u.Authenticate(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}

		token, err := helpers.GenerateToken(cfg.JWTSecret, user.ID.Hex(), user.Email, user.Role)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(authResponse{
			Token: token,
			User:  user.Public(),
		}, ""))
	}
}

func googleOAuthConfig(cfg *config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleCallbackURL,
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint:     google.Endpoint,
	}
}

// GoogleAuth kicks off the OAuth dance: random state in a short-lived
// cookie, redirect to Google's consent screen.
func GoogleAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := uuid.NewString()
		c.SetCookie("oauth_state", state, 600, "/", "", cfg.IsProduction(), true)
		c.Redirect(http.StatusTemporaryRedirect, googleOAuthConfig(cfg).AuthCodeURL(state))
	}
}

type googleProfile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleCallback exchanges the code, resolves or creates the local user,
// and hands the SPA a token via redirect.
func GoogleCallback(u *services.UserService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		failure := fmt.Sprintf("%s/login?error=authentication_failed", cfg.FrontendURL)

		state, err := c.Cookie("oauth_state")
		if err != nil || state == "" || state != c.Query("state") {
			c.Redirect(http.StatusTemporaryRedirect, failure)
			return
		}

		conf := googleOAuthConfig(cfg)
		tok, err := conf.Exchange(c.Request.Context(), c.Query("code"))
		if err != nil {
			c.Redirect(http.StatusTemporaryRedirect, failure)
			return
		}

		resp, err := conf.Client(c.Request.Context(), tok).Get("https://www.googleapis.com/oauth2/v2/userinfo")
		if err != nil {
			c.Redirect(http.StatusTemporaryRedirect, failure)
			return
		}
		defer resp.Body.Close()

		var profile googleProfile
		if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
			c.Redirect(http.StatusTemporaryRedirect, failure)
			return
		}

		user, err := u.FindOrCreateGoogleUser(c.Request.Context(), profile.ID, profile.Email, profile.Name, profile.Picture)
		if err != nil {
			c.Redirect(http.StatusTemporaryRedirect, failure)
			return
		}

		token, err := helpers.GenerateToken(cfg.JWTSecret, user.ID.Hex(), user.Email, user.Role)
		if err != nil {
			c.Redirect(http.StatusTemporaryRedirect, failure)
			return
		}

		c.Redirect(http.StatusTemporaryRedirect,
			fmt.Sprintf("%s/auth/google/callback?token=%s", cfg.FrontendURL, token))
	}
}

func GetCurrentUser(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			return
		}

		user, err := u.GetUser(c.Request.Context(), claims.ObjectID())
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(user.Public(), ""))
	}
}
