package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// CodePair는 에러 코드별 HTTP 상태와 gRPC 코드 쌍입니다
type CodePair struct {
	HTTPStatus int
	GRPCCode   codes.Code
}

var codeMapping = map[string]CodePair{
	ErrInternal:         {http.StatusInternalServerError, codes.Internal},
	ErrNotFound:         {http.StatusNotFound, codes.NotFound},
	ErrInvalidArgument:  {http.StatusBadRequest, codes.InvalidArgument},
	ErrUnauthenticated:  {http.StatusUnauthorized, codes.Unauthenticated},
	ErrUnauthorized:     {http.StatusForbidden, codes.PermissionDenied},
	ErrConflict:         {http.StatusConflict, codes.AlreadyExists},
	ErrUpstreamProvider: {http.StatusInternalServerError, codes.Unavailable},
	ErrPersistence:      {http.StatusInternalServerError, codes.Internal},
}

// GetCodeMapping은 에러 코드에 대응하는 HTTP 상태와 gRPC 코드를 반환합니다.
// 알 수 없는 코드는 Internal로 취급합니다.
func GetCodeMapping(code string) (int, codes.Code) {
	if pair, ok := codeMapping[code]; ok {
		return pair.HTTPStatus, pair.GRPCCode
	}
	return http.StatusInternalServerError, codes.Internal
}

// IsClientError는 호출자 책임인 에러 코드인지 확인합니다 (4xx 계열)
func IsClientError(code string) bool {
	status, _ := GetCodeMapping(code)
	return status >= 400 && status < 500
}
