package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/skills-directory/internal/forms"
	"github.com/ignatzorin/skills-directory/internal/http/middleware"
	"github.com/ignatzorin/skills-directory/internal/service"
)

// PasswordChangeDonePath: страница после успешной смены пароля.
const PasswordChangeDonePath = "/accounts/password_change/done/"

// Accounts: операции с учётными записями.
type Accounts interface {
	Register(ctx context.Context, in service.RegisterInput, meta service.SessionMeta) (*service.AuthResult, error)
	Login(ctx context.Context, in service.LoginInput, meta service.SessionMeta) (*service.AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
	ChangePassword(ctx context.Context, userID uuid.UUID, currentRefreshToken, oldPassword, newPassword string) error
}

// AccountHandler обслуживает регистрацию, вход, выход и смену пароля.
type AccountHandler struct {
	accounts     Accounts
	secureCookie bool
}

// NewAccountHandler создаёт хэндлер аккаунтов.
func NewAccountHandler(accounts Accounts, secureCookie bool) *AccountHandler {
	return &AccountHandler{accounts: accounts, secureCookie: secureCookie}
}

// CreateAccountPage обрабатывает GET /accounts/create_account/.
func (h *AccountHandler) CreateAccountPage(c *gin.Context) {
	h.renderForm(c, http.StatusOK, "account_creation", &forms.AccountCreationForm{}, forms.Errors{})
}

// CreateAccount обрабатывает POST /accounts/create_account/.
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var form forms.AccountCreationForm
	errs := forms.Bind(c, &form)
	if errs.Any() {
		h.renderForm(c, http.StatusBadRequest, "account_creation", &form, errs)
		return
	}

	res, err := h.accounts.Register(c.Request.Context(), service.RegisterInput{
		Username:  form.Username,
		Email:     form.Email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Password:  form.Password1,
	}, middleware.SessionMetaFrom(c))
	if err != nil {
		if errs.AddError(err) {
			h.renderForm(c, http.StatusBadRequest, "account_creation", &form, errs)
			return
		}
		fail(c, err)
		return
	}

	middleware.SetSessionCookies(c, res.TokenPair, h.secureCookie)
	c.Redirect(http.StatusFound, "/")
}

// LoginPage обрабатывает GET /accounts/login/. Вошедших пользователей сразу уводит дальше.
func (h *AccountHandler) LoginPage(c *gin.Context) {
	next := c.Query("redirect")
	if next == "" {
		next = c.Query("next")
	}

	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, safeRedirect(next))
		return
	}

	h.renderForm(c, http.StatusOK, "login", &forms.LoginForm{Redirect: next}, forms.Errors{})
}

// Login обрабатывает POST /accounts/login/.
func (h *AccountHandler) Login(c *gin.Context) {
	var form forms.LoginForm
	errs := forms.Bind(c, &form)
	if errs.Any() {
		h.renderForm(c, http.StatusBadRequest, "login", &form, errs)
		return
	}

	res, err := h.accounts.Login(c.Request.Context(), service.LoginInput{
		Username: form.Username,
		Password: form.Password,
	}, middleware.SessionMetaFrom(c))
	if err != nil {
		if errs.AddError(err) {
			form.Password = ""
			h.renderForm(c, http.StatusBadRequest, "login", &form, errs)
			return
		}
		fail(c, err)
		return
	}

	// старую сессию этого браузера закрываем, чтобы она не висела до истечения
	if old := middleware.CurrentRefreshToken(c); old != "" {
		_ = h.accounts.Logout(c.Request.Context(), old)
	}

	middleware.SetSessionCookies(c, res.TokenPair, h.secureCookie)
	c.Redirect(http.StatusFound, safeRedirect(form.Redirect))
}

// Logout обрабатывает GET и POST /accounts/logout/.
func (h *AccountHandler) Logout(c *gin.Context) {
	refresh := middleware.CurrentRefreshToken(c)
	if err := h.accounts.Logout(c.Request.Context(), refresh); err != nil {
		fail(c, err)
		return
	}

	middleware.ClearSessionCookies(c, h.secureCookie)
	c.Redirect(http.StatusFound, "/")
}

// PasswordChangePage обрабатывает GET /accounts/password_change/.
func (h *AccountHandler) PasswordChangePage(c *gin.Context) {
	h.renderForm(c, http.StatusOK, "password_change", nil, forms.Errors{})
}

// PasswordChange обрабатывает POST /accounts/password_change/.
func (h *AccountHandler) PasswordChange(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var form forms.PasswordChangeForm
	errs := forms.Bind(c, &form)
	if errs.Any() {
		h.renderForm(c, http.StatusBadRequest, "password_change", nil, errs)
		return
	}

	refresh := middleware.CurrentRefreshToken(c)
	err := h.accounts.ChangePassword(c.Request.Context(), user.ID, refresh, form.OldPassword, form.NewPassword1)
	if err != nil {
		if errs.AddError(err) {
			h.renderForm(c, http.StatusBadRequest, "password_change", nil, errs)
			return
		}
		fail(c, err)
		return
	}

	c.Redirect(http.StatusFound, PasswordChangeDonePath)
}

// PasswordChangeDone обрабатывает GET /accounts/password_change/done/.
func (h *AccountHandler) PasswordChangeDone(c *gin.Context) {
	render(c, http.StatusOK, "password_change_done", gin.H{
		"SearchForm": newSearchBox("", false),
	})
}

// renderForm рисует страницу формы. Поиск в шапке не перехватывает фокус.
func (h *AccountHandler) renderForm(c *gin.Context, status int, page string, form any, errs forms.Errors) {
	render(c, status, page, gin.H{
		"SearchForm": newSearchBox("", false),
		"Form":       form,
		"Errors":     errs,
	})
}
