package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/cppla/diceraja/accounts"
	"github.com/cppla/diceraja/config"
	"github.com/cppla/diceraja/middleware"
	"github.com/cppla/diceraja/models"
	"github.com/cppla/diceraja/utils"
)

// AuthController handles registration, login and session endpoints for users and gamers.
type AuthController struct {
	db  *gorm.DB
	cfg config.AppConfig
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB, cfg config.AppConfig) *AuthController {
	return &AuthController{db: db, cfg: cfg}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required,len=10,numeric"`
	Password string `json:"password" binding:"required,min=6"`
	State    string `json:"state" binding:"required"`
	City     string `json:"city" binding:"required"`
}

type registerGamerRequest struct {
	registerRequest
	Group          string `json:"group" binding:"required,oneof=groupA groupB"`
	TermsAccepted  bool   `json:"termsAccepted"`
	PolicyAccepted bool   `json:"policyAccepted"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Register creates a standard user account and returns a session token.
func (a *AuthController) Register(ctx *gin.Context) {
	var req registerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, validationMessage(err))
		return
	}
	if !utils.RegistrationDailyLimitCheck(ctx.ClientIP()) {
		utils.Error(ctx, http.StatusTooManyRequests, "Too many registrations from this address today")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "Server Error")
		return
	}

	user := models.User{
		Name:         utils.Sanitize(req.Name),
		Email:        normalizeEmail(req.Email),
		Phone:        req.Phone,
		PasswordHash: hash,
		State:        utils.Sanitize(req.State),
		City:         utils.Sanitize(req.City),
		Role:         models.RoleUser,
		IsActive:     true,
	}
	if err := a.db.WithContext(ctx.Request.Context()).Create(&user).Error; err != nil {
		a.createFailed(ctx, err)
		return
	}
	utils.RegistrationDailyIncrement(ctx.ClientIP())

	a.sendToken(ctx, http.StatusCreated, user.ID, user.Name, user.Email, user.Role)
}

// RegisterGamer creates a gamer membership. Terms and policy must both be accepted.
func (a *AuthController) RegisterGamer(ctx *gin.Context) {
	var req registerGamerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, validationMessage(err))
		return
	}
	if !req.TermsAccepted || !req.PolicyAccepted {
		utils.Error(ctx, http.StatusBadRequest, "You must accept the terms and policy to register as a gamer")
		return
	}
	if !utils.RegistrationDailyLimitCheck(ctx.ClientIP()) {
		utils.Error(ctx, http.StatusTooManyRequests, "Too many registrations from this address today")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "Server Error")
		return
	}

	now := time.Now()
	gamer := models.Gamer{
		Name:           utils.Sanitize(req.Name),
		Email:          normalizeEmail(req.Email),
		Phone:          req.Phone,
		PasswordHash:   hash,
		State:          utils.Sanitize(req.State),
		City:           utils.Sanitize(req.City),
		Role:           models.RoleGamer,
		Group:          req.Group,
		TermsAccepted:  true,
		PolicyAccepted: true,
		JoiningFees:    a.cfg.GamerJoiningFee,
		JoiningDate:    now,
		ExpiryDate:     now.AddDate(0, 0, a.cfg.GamerMembershipDays),
		IsActive:       true,
	}
	if err := a.db.WithContext(ctx.Request.Context()).Create(&gamer).Error; err != nil {
		a.createFailed(ctx, err)
		return
	}
	utils.RegistrationDailyIncrement(ctx.ClientIP())

	a.sendToken(ctx, http.StatusCreated, gamer.ID, gamer.Name, gamer.Email, gamer.Role)
}

// Login checks credentials against the users table, or the gamers table when role is "gamer".
func (a *AuthController) Login(ctx *gin.Context) {
	var req loginRequest
	_ = ctx.ShouldBindJSON(&req)
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		utils.Error(ctx, http.StatusBadRequest, "Please provide an email and password")
		return
	}

	db := a.db.WithContext(ctx.Request.Context())
	var (
		id                     uint
		name, hash, role, mail string
	)

	if req.Role == models.RoleGamer {
		var g models.Gamer
		if err := db.Where("email = ?", email).First(&g).Error; err != nil {
			a.lookupFailed(ctx, err)
			return
		}
		if !g.IsActive || g.Expired(time.Now()) {
			utils.Error(ctx, http.StatusUnauthorized, "Your gamer account has expired")
			return
		}
		id, name, hash, role, mail = g.ID, g.Name, g.PasswordHash, g.Role, g.Email
	} else {
		var u models.User
		if err := db.Where("email = ?", email).First(&u).Error; err != nil {
			a.lookupFailed(ctx, err)
			return
		}
		id, name, hash, role, mail = u.ID, u.Name, u.PasswordHash, u.Role, u.Email
	}

	if !utils.CheckPassword(hash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	a.sendToken(ctx, http.StatusOK, id, name, mail, role)
}

// Me returns the full record of the authenticated account.
func (a *AuthController) Me(ctx *gin.Context) {
	account, ok := middleware.CurrentAccount(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}

	db := a.db.WithContext(ctx.Request.Context())
	var (
		record interface{}
		err    error
	)
	switch account.Kind {
	case accounts.KindGamer:
		var g models.Gamer
		err = db.First(&g, account.ID).Error
		record = g
	default:
		var u models.User
		err = db.First(&u, account.ID).Error
		record = u
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, "Account not found")
			return
		}
		utils.Sugar.Errorw("load account failed", "account", account.ID, "err", err)
		utils.Error(ctx, http.StatusInternalServerError, "Server Error")
		return
	}

	utils.Success(ctx, record)
}

// Logout revokes the presented token until it would have expired.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	if v, ok := ctx.Get(middleware.ContextTokenClaimsKey); ok && token != "" {
		if claims, ok := v.(*utils.Claims); ok && claims.ExpiresAt != nil {
			utils.BlacklistToken(token, claims.ExpiresAt.Time)
		}
	}
	utils.Success(ctx, gin.H{})
}

func (a *AuthController) sendToken(ctx *gin.Context, status int, id uint, name, email, role string) {
	token, err := utils.GenerateToken(id, role, a.cfg.JWTExpiry())
	if err != nil {
		utils.Sugar.Errorw("sign token failed", "id", id, "err", err)
		utils.Error(ctx, http.StatusInternalServerError, "Server Error")
		return
	}

	ctx.JSON(status, gin.H{
		"success": true,
		"token":   token,
		"user": gin.H{
			"id":    id,
			"name":  name,
			"email": email,
			"role":  role,
		},
	})
}

func (a *AuthController) createFailed(ctx *gin.Context, err error) {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		utils.Error(ctx, http.StatusBadRequest, "Duplicate field value entered")
		return
	}
	utils.Sugar.Errorw("create account failed", "err", err)
	utils.Error(ctx, http.StatusInternalServerError, "Server Error")
}

func (a *AuthController) lookupFailed(ctx *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	utils.Sugar.Errorw("login lookup failed", "err", err)
	utils.Error(ctx, http.StatusInternalServerError, "Server Error")
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// validationMessage turns the first binding failure into a user-facing sentence.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request payload"
	}
	fe := verrs[0]
	switch fe.Field() {
	case "Name":
		if fe.Tag() == "max" {
			return "Name cannot be more than 50 characters"
		}
		return "Please provide a name"
	case "Email":
		if fe.Tag() == "email" {
			return "Please provide a valid email"
		}
		return "Please provide an email"
	case "Phone":
		if fe.Tag() == "required" {
			return "Please provide a phone number"
		}
		return "Phone number must be 10 digits"
	case "Password":
		if fe.Tag() == "min" {
			return "Password must be at least 6 characters"
		}
		return "Please provide a password"
	case "State":
		return "Please provide a state"
	case "City":
		return "Please provide a city"
	case "Group":
		return "Please select a group"
	}
	return "Invalid request payload"
}
