package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/questboard/internal/apperr"
	"github.com/lalith-99/questboard/internal/auth"
	"github.com/lalith-99/questboard/internal/models"
	"github.com/lalith-99/questboard/internal/repository"
	"github.com/lalith-99/questboard/internal/validation"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles signup and login, the only public endpoints. They
// don't go through AuthMiddleware because the caller has no token yet.
type AuthHandler struct {
	userRepo  repository.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	logger    *zap.Logger
}

func NewAuthHandler(userRepo repository.UserRepository, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

type signupRequest struct {
	Email       string      `json:"email" validate:"required,email"`
	Password    string      `json:"password" validate:"required,min=6,max=72"`
	DisplayName string      `json:"display_name" validate:"notblank,max=100"`
	Phone       string      `json:"phone" validate:"max=30"`
	Role        models.Role `json:"role" validate:"oneof=jobseeker employer"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// authResponse is what both signup and login return. The client sends
// the token back as "Authorization: Bearer <token>".
type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Signup handles POST /v1/auth/signup
//
// Flow:
//  1. Bind and validate the request body (email, password, display name, role).
//  2. Hash the password with bcrypt. The plain text never reaches storage.
//  3. Insert the user. A taken email comes back as 409 EMAIL_ALREADY_EXISTS.
//  4. Return a token straight away so the client doesn't need a second
//     round trip to log in.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	if err := validation.Struct(req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	// bcrypt salts every hash, so equal passwords never share a hash.
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, h.logger, apperr.New(apperr.KindInternal, "INTERNAL", "signup failed").Wrap(err))
		return
	}

	user, err := h.userRepo.Create(c.Request.Context(), models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		Phone:        req.Phone,
		Role:         req.Role,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			respondError(c, h.logger, apperr.ErrEmailAlreadyExists)
			return
		}
		respondError(c, h.logger, apperr.Transient(err))
		return
	}

	h.logger.Info("user signed up", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	h.respondWithToken(c, http.StatusCreated, user)
}

// Login handles POST /v1/auth/login
//
// An unknown email and a wrong password get the same 401 response, so the
// endpoint can't be used to find out which emails have accounts.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	user, err := h.userRepo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, h.logger, apperr.Transient(err))
		return
	}

	// One answer for unknown email and wrong password, so the endpoint
	// does not reveal which emails are registered.
	invalid := apperr.New(apperr.KindNotAuthenticated, "INVALID_CREDENTIALS", "invalid email or password")
	if user == nil {
		respondError(c, h.logger, invalid)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respondError(c, h.logger, invalid)
		return
	}

	h.respondWithToken(c, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, err := auth.GenerateToken(user.ID, user.Role, user.Email, h.jwtSecret, h.tokenTTL)
	if err != nil {
		respondError(c, h.logger, apperr.New(apperr.KindInternal, "INTERNAL", "could not issue token").Wrap(err))
		return
	}
	c.JSON(status, authResponse{Token: token, User: user})
}
