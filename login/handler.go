package login

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"fundfinder-backend/accounts"
)

type UserStore interface {
	Create(ctx context.Context, name, email, passwordHash string) (*accounts.User, error)
	GetByEmail(ctx context.Context, email string) (*accounts.User, error)
	GetByID(ctx context.Context, id string) (*accounts.User, error)
}

type WelcomeSender interface {
	SendWelcome(to, name string) error
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember"`
}

type RegisterPayload struct {
	Name     string `json:"name" validate:"required,max=150"`
	Email    string `json:"email" validate:"required,email,max=191"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type Handler struct {
	users    UserStore
	sessions *Sessions
	mailer   WelcomeSender
	validate *validator.Validate
	secure   bool
	log      zerolog.Logger
}

func NewHandler(users UserStore, sessions *Sessions, mailer WelcomeSender, secureCookies bool, logger zerolog.Logger) *Handler {
	return &Handler{
		users:    users,
		sessions: sessions,
		mailer:   mailer,
		validate: validator.New(),
		secure:   secureCookies,
		log:      logger.With().Str("service", "login").Logger(),
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/register", h.register)
	r.POST("/login", h.login)
	r.POST("/logout", h.logout)
	r.GET("/session", RequireUser(), h.session)
	r.POST("/refresh", RequireUser(), h.refresh)
}

func (h *Handler) register(c *gin.Context) {
	var p RegisterPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	p.Email = strings.TrimSpace(strings.ToLower(p.Email))
	p.Name = strings.TrimSpace(p.Name)
	if err := h.validate.Struct(p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, a valid email and a password of at least 8 characters are required"})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user"})
		return
	}
	u, err := h.users.Create(c.Request.Context(), p.Name, p.Email, string(hash))
	if errors.Is(err, accounts.ErrEmailTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user"})
		return
	}
	if h.mailer != nil {
		if err := h.mailer.SendWelcome(u.Email, u.Name); err != nil {
			h.log.Warn().Err(err).Str("user_id", u.ID).Msg("welcome email failed")
		}
	}
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

func (h *Handler) login(c *gin.Context) {
	var creds Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	creds.Email = strings.TrimSpace(strings.ToLower(creds.Email))
	if err := h.validate.Struct(creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	u, err := h.users.GetByEmail(c.Request.Context(), creds.Email)
	if err != nil && !errors.Is(err, accounts.ErrNotFound) {
		h.log.Error().Err(err).Msg("load user for login")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(creds.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	sess, err := h.sessions.Issue(u.ID, creds.Remember)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	h.setCookie(c, sess)
	c.JSON(http.StatusOK, gin.H{"token": sess.Token, "user": u, "expires_at": sess.ExpiresAt.Unix(), "remember": sess.Remember})
}

func (h *Handler) logout(c *gin.Context) {
	sess := sessionOf(c)
	if sess == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no active session"})
		return
	}
	h.sessions.Revoke(sess)
	c.SetCookie(CookieName, "", -1, "/", "", h.secure, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) session(c *gin.Context) {
	u, err := h.users.GetByID(c.Request.Context(), UserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	sess := sessionOf(c)
	c.JSON(http.StatusOK, gin.H{"token": sess.Token, "user": u, "expires_at": sess.ExpiresAt.Unix()})
}

func (h *Handler) refresh(c *gin.Context) {
	next, err := h.sessions.Refresh(sessionOf(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not refresh session"})
		return
	}
	h.setCookie(c, next)
	c.JSON(http.StatusOK, gin.H{"token": next.Token, "expires_at": next.ExpiresAt.Unix(), "remember": next.Remember})
}

func (h *Handler) setCookie(c *gin.Context, sess *Session) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, sess.Token, maxAge, "/", "", h.secure, true)
}
