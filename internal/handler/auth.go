package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/smartattend/smart-attend/internal/config"
	"github.com/smartattend/smart-attend/internal/middleware"
	"github.com/smartattend/smart-attend/internal/model"
	"github.com/smartattend/smart-attend/internal/repository"
	"github.com/smartattend/smart-attend/internal/utils"
)

// AuthHandler bundles dependencies for signup, login and logout.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Tokens TokenStore
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type signupReq struct {
	Username   string `json:"username" form:"username"`
	Email      string `json:"email" form:"email"`
	Password   string `json:"password" form:"password"`
	Department string `json:"department" form:"department"`
	RollNumber string `json:"roll_number" form:"roll_number"` // student signup only
	Subject    string `json:"subject" form:"subject"`         // teacher signup only
}

type loginReq struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	Role     string `json:"role" form:"role"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type userPart struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// SignupStudentForm describes the student signup fields for GET callers.
func (h *AuthHandler) SignupStudentForm(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"role":   model.RoleStudent,
		"fields": []string{"username", "email", "roll_number", "department", "password"},
	})
}

// SignupTeacherForm describes the teacher signup fields for GET callers.
func (h *AuthHandler) SignupTeacherForm(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"role":   model.RoleTeacher,
		"fields": []string{"username", "email", "subject", "department", "password"},
	})
}

// SignupStudent creates a student account and logs it in immediately.
func (h *AuthHandler) SignupStudent(c echo.Context) error {
	return h.signup(c, model.RoleStudent)
}

// SignupTeacher creates a teacher account and logs it in immediately.
func (h *AuthHandler) SignupTeacher(c echo.Context) error {
	return h.signup(c, model.RoleTeacher)
}

// signup is shared by both roles; role decides which role-specific field is
// kept.  The role is fixed here for the lifetime of the account.
func (h *AuthHandler) signup(c echo.Context, role string) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	u := model.User{
		Username:   req.Username,
		Email:      req.Email,
		Role:       role,
		Department: strings.TrimSpace(req.Department),
	}
	switch role {
	case model.RoleStudent:
		u.RollNumber = strings.TrimSpace(req.RollNumber)
	case model.RoleTeacher:
		u.Subject = strings.TrimSpace(req.Subject)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, u, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrUsernameExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	resp, err := h.issueTokens(ctx, c, uid, req.Username, role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusCreated, resp)
}

// LoginForm describes the login fields for GET callers.
func (h *AuthHandler) LoginForm(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"fields": []string{"username", "password", "role"},
	})
}

// Login verifies credentials and requires the submitted role to match the
// stored one; a teacher cannot log in through the student toggle and vice
// versa.  On success the access token is also set as a cookie so that QR
// links opened in a browser carry authentication.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials or role mismatch."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) || u.Role != strings.ToLower(strings.TrimSpace(req.Role)) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials or role mismatch."})
	}

	resp, err := h.issueTokens(ctx, c, u.ID, u.Username, u.Role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

// Refresh exchanges a valid refresh token for a fresh access token.  The
// refresh token itself is not rotated; it stays usable until it expires or
// the user logs out.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Tokens.ValidateRefresh(ctx, utils.HashRefreshRaw(req.RefreshToken))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessCookie,
		Value:    access.Token,
		Path:     "/",
		Expires:  access.Exp,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, echo.Map{
		"user":   userPart{ID: u.ID, Username: u.Username, Role: u.Role},
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout revokes all refresh tokens for the current user, clears the access
// cookie and bounces to the login page.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if uid := middleware.CurrentUserID(c); uid != 0 {
		_ = h.Tokens.RevokeAllForUser(ctx, uid)
	}
	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return c.Redirect(http.StatusSeeOther, "/login/")
}

// Me returns the authenticated identity, mostly for client debugging.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": middleware.CurrentUserID(c),
		"role":    middleware.CurrentRole(c),
	})
}

func (h *AuthHandler) issueTokens(ctx context.Context, c echo.Context, uid uint64, username, role string) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, uid, role, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, uid, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessCookie,
		Value:    access.Token,
		Path:     "/",
		Expires:  access.Exp,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return authResp{
		User:    userPart{ID: uid, Username: username, Role: role},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	}, nil
}
