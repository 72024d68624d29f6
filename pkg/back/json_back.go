package back

import (
	"net/http"

	"VectorOps/pkg/xerr"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Result 统一返回入口
func Result(c *gin.Context, data interface{}, err error) {
	if err == nil {
		Success(c, data)
		return
	}

	// 判断是否为自定义错误（允许被 %w 包裹）
	if e, ok := xerr.As(err); ok {
		Error(c, e.Code, e.Message)
		return
	}

	// 默认为系统错误
	Error(c, xerr.ErrServerError.Code, xerr.ErrServerError.Message)
}

// Success 成功返回
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    xerr.OK,
		Message: "Success",
		Data:    data,
	})
}

// Created 资源创建成功
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    xerr.Created,
		Message: message,
		Data:    data,
	})
}

// Accepted 请求已接收，异步处理
func Accepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, Response{
		Code:    xerr.Accepted,
		Message: "Accepted",
		Data:    data,
	})
}

// Error 错误返回，HTTP 状态码与业务码保持一致
func Error(c *gin.Context, code int, message string) {
	c.JSON(statusOf(code), Response{
		Code:    code,
		Message: message,
	})
}

// ErrorWithData 错误返回并附带部分结果
func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(statusOf(code), Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

func statusOf(code int) int {
	if code >= 100 && code <= 599 {
		return code
	}
	return http.StatusOK
}
