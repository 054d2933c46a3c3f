package errors

// 공통 에러 코드
const (
	ErrInternal        = "INTERNAL"
	ErrNotFound        = "NOT_FOUND"
	ErrInvalidArgument = "INVALID_ARGUMENT"
	ErrUnauthenticated = "UNAUTHENTICATED"
	ErrUnauthorized    = "UNAUTHORIZED"
	ErrConflict        = "CONFLICT"

	// 결제 프로바이더(Stripe) 호출 실패
	ErrUpstreamProvider = "UPSTREAM_PROVIDER"
	// 데이터베이스 쓰기/읽기 실패
	ErrPersistence = "PERSISTENCE"
)
