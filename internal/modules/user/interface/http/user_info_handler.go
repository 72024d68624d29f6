package handler

import (
	jwtMiddleware "VectorOps/internal/middleware/jwt"
	"VectorOps/internal/modules/user/application/dto/request"
	"VectorOps/internal/modules/user/application/dto/respond"
	"VectorOps/internal/modules/user/application/service"
	"VectorOps/pkg/back"
	"VectorOps/pkg/xerr"
	"VectorOps/pkg/zlog"

	"github.com/gin-gonic/gin"
)

type UserInfoHandler struct {
	svc service.UserInfoService
}

func NewUserInfoHandler(svc service.UserInfoService) *UserInfoHandler {
	return &UserInfoHandler{svc: svc}
}

func (h *UserInfoHandler) Create(c *gin.Context) {
	var req request.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	msg, data, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		back.Result(c, nil, err)
		return
	}
	back.Created(c, msg, data)
}

func (h *UserInfoHandler) List(c *gin.Context) {
	data, err := h.svc.List(c.Request.Context())
	back.Result(c, data, err)
}

func (h *UserInfoHandler) UsernamesStory(c *gin.Context) {
	data, err := h.svc.UsernamesStory(c.Request.Context())
	back.Result(c, data, err)
}

// Token 表单或 JSON 登录，签发 bearer token
func (h *UserInfoHandler) Token(c *gin.Context) {
	var req request.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.svc.Login(c.Request.Context(), req)
	back.Result(c, data, err)
}

func (h *UserInfoHandler) Logout(c *gin.Context) {
	tok, ok := jwtMiddleware.BearerToken(c)
	if !ok {
		back.Error(c, xerr.Unauthorized, "missing or invalid authorization header")
		return
	}
	if err := h.svc.Logout(c.Request.Context(), tok); err != nil {
		back.Result(c, nil, err)
		return
	}
	back.Success(c, respond.MessageRespond{Message: "Logged out"})
}

func (h *UserInfoHandler) Me(c *gin.Context) {
	data, err := h.svc.Me(c.Request.Context(), c.GetString(jwtMiddleware.CtxUUID))
	back.Result(c, data, err)
}
