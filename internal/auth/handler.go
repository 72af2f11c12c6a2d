package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatherhall/backend/internal/models"
	"github.com/gatherhall/backend/pkg/response"
	"github.com/gatherhall/backend/pkg/storage"
	"github.com/gatherhall/backend/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"required"`
	Phone    string `json:"phone"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// AvatarUploadRequest is the body for POST /me/avatar-upload-url.
type AvatarUploadRequest struct {
	Filename string `json:"filename" binding:"required"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo   *Repository
	jwt    *JWTService
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates an auth handler. s3 may be nil when avatar storage is disabled.
func NewHandler(repo *Repository, jwt *JWTService, s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, s3: s3, logger: logger}
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if _, err := h.repo.GetByEmail(c.Request.Context(), req.Email); err == nil {
		response.BadRequest(c, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user, err := h.repo.Create(c.Request.Context(), req.Email, hash, req.FullName, models.RoleMember, req.Phone)
	if err != nil {
		h.logger.Error("create user failed", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Me handles GET /me. Returns the authenticated user's profile.
func (h *Handler) Me(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)
	user, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}
	response.OK(c, user.ToPublic())
}

// List handles GET /users. Admin only; used to pick cohosts.
func (h *Handler) List(c *gin.Context) {
	users, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list users failed", zap.Error(err))
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, users)
}

// AvatarUploadURL handles POST /me/avatar-upload-url. Returns a pre-signed
// PUT URL and records the resulting avatar URL on the profile.
func (h *Handler) AvatarUploadURL(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "avatar storage not configured")
		return
	}
	var req AvatarUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	contentType, ok := storage.ValidateAvatarFilename(req.Filename)
	if !ok {
		response.BadRequest(c, "unsupported avatar file type")
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	key := storage.AvatarKey(userID.String(), req.Filename)
	uploadURL, err := h.s3.GeneratePresignedUploadURL(c.Request.Context(), key, contentType)
	if err != nil {
		h.logger.Error("presign avatar upload failed", zap.Error(err), zap.String("user_id", userID.String()))
		response.Internal(c, "failed to generate upload url")
		return
	}

	avatarURL := h.s3.ObjectURL(key)
	if err := h.repo.UpdateAvatarURL(c.Request.Context(), userID, avatarURL); err != nil {
		h.logger.Error("update avatar url failed", zap.Error(err), zap.String("user_id", userID.String()))
		response.Internal(c, "failed to save avatar url")
		return
	}

	response.OK(c, gin.H{
		"upload_url": uploadURL,
		"avatar_url": avatarURL,
		"expires_in": int(h.s3.PresignExpire().Seconds()),
	})
}

// AvatarUpload handles POST /me/avatar. Accepts a multipart upload for
// deployments where the bucket does not allow browser PUTs; replaces and
// removes the previous avatar object.
func (h *Handler) AvatarUpload(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "avatar storage not configured")
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	if file.Size > storage.MaxAvatarFileSize {
		response.BadRequest(c, "avatar exceeds 5MB limit")
		return
	}
	contentType, ok := storage.ValidateAvatarFilename(file.Filename)
	if !ok {
		response.BadRequest(c, "unsupported avatar file type")
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	user, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}

	src, err := file.Open()
	if err != nil {
		response.Internal(c, "failed to read upload")
		return
	}
	defer src.Close()

	key := storage.AvatarKey(userID.String(), file.Filename)
	avatarURL, err := h.s3.Upload(c.Request.Context(), key, contentType, src)
	if err != nil {
		h.logger.Error("avatar upload failed", zap.Error(err), zap.String("user_id", userID.String()))
		response.Internal(c, "failed to upload avatar")
		return
	}
	if err := h.repo.UpdateAvatarURL(c.Request.Context(), userID, avatarURL); err != nil {
		h.logger.Error("update avatar url failed", zap.Error(err), zap.String("user_id", userID.String()))
		response.Internal(c, "failed to save avatar url")
		return
	}

	if user.AvatarURL != "" && user.AvatarURL != avatarURL {
		if oldKey := h.s3.KeyFromURL(user.AvatarURL); oldKey != "" {
			if err := h.s3.DeleteObject(c.Request.Context(), oldKey); err != nil {
				h.logger.Warn("delete old avatar failed", zap.Error(err), zap.String("key", oldKey))
			}
		}
	}

	response.OK(c, gin.H{"avatar_url": avatarURL})
}
