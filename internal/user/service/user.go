package service

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/digitora/marketplace-backend/internal/pkg/response"
	"github.com/digitora/marketplace-backend/internal/user/biz"
)

type UserService struct {
	useCase *biz.UserUseCase
	logger  *zap.Logger
}

func NewUserService(useCase *biz.UserUseCase, logger *zap.Logger) *UserService {
	return &UserService{
		useCase: useCase,
		logger:  logger,
	}
}

// UserResponse 用户响应
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// RegisterRequest 注册请求体
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest 登录请求体
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register 注册用户
func (s *UserService) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid parameters")
		return
	}

	user, err := s.useCase.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.logger.Warn("registration failed", zap.String("email", req.Email), zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Created(c, toUserResponse(user))
}

// Login 登录
func (s *UserService) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid parameters")
		return
	}

	user, token, err := s.useCase.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.logger.Warn("login failed", zap.String("email", req.Email), zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"user":         toUserResponse(user),
		"access_token": token,
	})
}

// Me 查询当前用户
func (s *UserService) Me(c *gin.Context) {
	userID := c.GetString("user_id")

	user, err := s.useCase.GetUser(c.Request.Context(), userID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, toUserResponse(user))
}

// Get 查询用户公开信息
func (s *UserService) Get(c *gin.Context) {
	user, err := s.useCase.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, toUserResponse(user))
}

func toUserResponse(u *biz.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
