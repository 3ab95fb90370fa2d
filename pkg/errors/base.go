package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// OK is the code carried by every successful response.
var OK = Register(New(0, http.StatusOK, codes.OK, "Success", "成功"))

// 通用错误，服务代码 00
var (
	ErrInvalidParam    = Register(New(MakeCode(ServiceCommon, CategoryRequest, 1), http.StatusBadRequest, codes.InvalidArgument, "Invalid parameter", "参数无效"))
	ErrRequestTooLarge = Register(New(MakeCode(ServiceCommon, CategoryRequest, 5), http.StatusRequestEntityTooLarge, codes.InvalidArgument, "Request entity too large", "请求体过大"))
	ErrRouteNotFound   = Register(New(MakeCode(ServiceCommon, CategoryResource, 0), http.StatusNotFound, codes.NotFound, "Route not found", "路由不存在"))
	ErrInternal        = Register(New(MakeCode(ServiceCommon, CategoryInternal, 0), http.StatusInternalServerError, codes.Internal, "Internal server error", "服务器内部错误"))
)

// ErrCacheUnavailable 缓存组件不可用（服务代码 11）。
var ErrCacheUnavailable = Register(New(MakeCode(ServiceInfraCache, CategoryCache, 0), http.StatusServiceUnavailable, codes.Unavailable, "Cache unavailable", "缓存不可用"))
