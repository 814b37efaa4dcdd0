package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	userapp "videotube/internal/application"
	"videotube/pkg/apperr"
	"videotube/pkg/helpers"
	"videotube/pkg/response"
	"videotube/pkg/validation"
)

type UserHandler struct {
	Svc     *userapp.Service
	Logger  *logrus.Logger
	Cookies *helpers.CookieManager
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"` // username or email
	Password   string `json:"password" binding:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,pwd"`
}

type updateAccountRequest struct {
	FullName string `json:"fullname" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

// Register handles POST /users/register (multipart form). The uploaded
// files are spooled to temp paths which are removed on every exit path.
func (h *UserHandler) Register(c *gin.Context) {
	in := userapp.RegisterInput{
		Username: c.PostForm("username"),
		Email:    c.PostForm("email"),
		FullName: c.PostForm("fullname"),
		Password: c.PostForm("password"),
	}

	avatarPath, cleanupAvatar, err := h.saveUpload(c, "avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "could not read avatar upload", nil)
		return
	}
	defer cleanupAvatar()
	in.AvatarPath = avatarPath

	coverPath, cleanupCover, err := h.saveUpload(c, "coverImage")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "could not read cover image upload", nil)
		return
	}
	defer cleanupCover()
	in.CoverImagePath = coverPath

	created, err := h.Svc.Register(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, created, "user registered successfully", nil)
}

// saveUpload spools a multipart file to a temp path. A missing file is not
// an error here; required-file rules belong to the workflow.
func (h *UserHandler) saveUpload(c *gin.Context, field string) (string, func(), error) {
	noop := func() {}
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", noop, nil
		}
		return "", noop, err
	}
	dst := filepath.Join(os.TempDir(), uuid.NewString()+filepath.Ext(fh.Filename))
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return "", noop, err
	}
	return dst, func() { _ = os.Remove(dst) }, nil
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, pair, err := h.Svc.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, u, "login successful", map[string]any{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
}

func (h *UserHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie("refresh_token")
	if err != nil || refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, _, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, map[string]any{"refreshed": true}, "token refreshed", map[string]any{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
}

func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.Svc.Logout(c.Request.Context(), c.GetString("userID")); err != nil {
		h.fail(c, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ChangePassword(c.Request.Context(), c.GetString("userID"), req.OldPassword, req.NewPassword); err != nil {
		h.fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"changed": true}, "password updated", nil)
}

func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.Svc.CurrentUser(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "profile", nil)
}

func (h *UserHandler) UpdateAccount(c *gin.Context) {
	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateAccount(c.Request.Context(), c.GetString("userID"), req.FullName, req.Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "account updated", nil)
}

func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	path, cleanup, err := h.saveUpload(c, "avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "could not read avatar upload", nil)
		return
	}
	defer cleanup()
	u, err := h.Svc.UpdateAvatar(c.Request.Context(), c.GetString("userID"), path)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "avatar updated", nil)
}

func (h *UserHandler) UpdateCoverImage(c *gin.Context) {
	path, cleanup, err := h.saveUpload(c, "coverImage")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "could not read cover image upload", nil)
		return
	}
	defer cleanup()
	u, err := h.Svc.UpdateCoverImage(c.Request.Context(), c.GetString("userID"), path)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "cover image updated", nil)
}

func (h *UserHandler) WatchHistory(c *gin.Context) {
	entries, err := h.Svc.WatchHistory(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, entries, "watch history", nil)
}

func (h *UserHandler) AddWatchEntry(c *gin.Context) {
	if err := h.Svc.AddWatchEntry(c.Request.Context(), c.GetString("userID"), c.Param("videoID")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success[any](c, http.StatusCreated, map[string]any{"recorded": true}, "watch entry recorded", nil)
}

func (h *UserHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.SearchUsers(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", nil)
}

// fail maps workflow errors onto the response envelope. Typed apperr
// messages pass through verbatim; everything else is a 500.
func (h *UserHandler) fail(c *gin.Context, err error) {
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae):
		response.Error[any](c, ae.Status, ae.Message, nil)
	case errors.Is(err, userapp.ErrInvalidCredentials):
		response.Error[any](c, http.StatusUnauthorized, "invalid credentials", nil)
	case errors.Is(err, userapp.ErrUserNotFound):
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
	default:
		if h.Logger != nil {
			h.Logger.WithError(err).Error("request failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
	}
}
