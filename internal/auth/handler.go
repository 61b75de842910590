package auth

import (
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/juju/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"gaughar-backend/internal/apperr"
	"gaughar-backend/internal/models"
	"gaughar-backend/internal/store"
	"gaughar-backend/internal/web"
)

type RegisterRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Address  string `json:"address"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

const minPasswordLength = 8

// Handlers serves the identity endpoints.
type Handlers struct {
	db     *gorm.DB
	issuer *TokenIssuer
	logger *zap.Logger
}

func NewHandlers(db *gorm.DB, issuer *TokenIssuer, logger *zap.Logger) *Handlers {
	return &Handlers{db: db, issuer: issuer, logger: logger}
}

func (r *RegisterRequest) validate() error {
	verr := apperr.NewValidationError()
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	r.FullName = strings.TrimSpace(r.FullName)

	if r.FullName == "" {
		verr.AddField("full_name", "Full name is required.")
	} else if len(r.FullName) > 100 {
		verr.AddField("full_name", "Full name must be at most 100 characters.")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil || r.Email == "" {
		verr.AddField("email", "A valid email address is required.")
	}
	if len(r.Password) < minPasswordLength {
		verr.AddField("password", "Password must be at least 8 characters.")
	}
	if len(r.Address) > 255 {
		verr.AddField("address", "Address must be at most 255 characters.")
	}
	return verr.OrNil()
}

// POST /api/auth/register
func (h *Handlers) Register() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := web.ParseBody(c, &body); err != nil {
			return err
		}
		if err := body.validate(); err != nil {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return errors.Annotate(err, "hashing password")
		}

		user := models.User{
			ID:           uuid.NewString(),
			Email:        body.Email,
			FullName:     body.FullName,
			Address:      strings.TrimSpace(body.Address),
			PasswordHash: string(hash),
		}
		if err := h.db.WithContext(c.UserContext()).Create(&user).Error; err != nil {
			if store.IsDuplicate(err) {
				return apperr.FieldError("email", "Email is already registered.")
			}
			return errors.Annotate(err, "creating user")
		}
		h.logger.Info("user registered", zap.String("user_id", user.ID))

		token, err := h.issuer.GenerateToken(&user)
		if err != nil {
			return errors.Trace(err)
		}
		return c.Status(fiber.StatusCreated).JSON(TokenResponse{Token: token, User: &user})
	}
}

// POST /api/auth/login
func (h *Handlers) Login() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := web.ParseBody(c, &body); err != nil {
			return err
		}
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var user models.User
		err := h.db.WithContext(c.UserContext()).Where("email = ?", body.Email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
		} else if err != nil {
			return errors.Trace(err)
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
		}

		token, err := h.issuer.GenerateToken(&user)
		if err != nil {
			return errors.Trace(err)
		}
		return c.JSON(TokenResponse{Token: token, User: &user})
	}
}

// GET /api/auth/me
func (h *Handlers) Me() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := UserID(c)
		if err != nil {
			return err
		}
		var user models.User
		err = h.db.WithContext(c.UserContext()).First(&user, "id = ?", userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "Account no longer exists")
		} else if err != nil {
			return errors.Trace(err)
		}
		return c.JSON(user)
	}
}
