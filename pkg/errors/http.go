package errors

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ToHTTPStatus는 에러 코드를 HTTP 상태 코드로 변환합니다
func ToHTTPStatus(code string) int {
	httpStatus, _ := GetCodeMapping(code)
	return httpStatus
}

// StatusOf는 에러에 대응하는 HTTP 상태 코드를 반환합니다
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var he *echo.HTTPError
	if As(err, &he) {
		return he.Code
	}
	return ToHTTPStatus(CodeOf(err))
}

// ToHTTPError는 에러를 Echo HTTP 에러로 변환합니다
func ToHTTPError(err error) *echo.HTTPError {
	if err == nil {
		return nil
	}

	var he *echo.HTTPError
	if As(err, &he) {
		return he
	}

	var appErr *AppError
	if As(err, &appErr) {
		return echo.NewHTTPError(ToHTTPStatus(appErr.Code()), appErr.Error())
	}

	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
