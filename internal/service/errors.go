package service

import (
	"errors"
	"fmt"

	"github.com/techstridesocial/ss-sub002/internal/model"

	"github.com/go-sql-driver/mysql"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	Conflict            = 409
	InternalServerError = 500
	BadGateway          = 502
)

var (
	ErrParamInvalid         = errors.New("invalid parameter")
	ErrPlatformUnsupported  = model.ErrPlatformUnsupported
	ErrProfileCacheNotFound = errors.New("profile cache entry not found")
	ErrPopulateInFlight     = errors.New("profile populate already in flight for this key")
	ErrExternalFetch        = errors.New("external profile fetch failed")
	ErrPersistence          = errors.New("profile cache persistence failed")
	ErrOperational          = errors.New("profile cache operation failed")
	UnExpectedError         = errors.New("unexpected error, please retry later")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:         BadRequest,
	ErrPlatformUnsupported:  BadRequest,
	ErrProfileCacheNotFound: NotFound,
	ErrPopulateInFlight:     Conflict,
	ErrExternalFetch:        BadGateway,
	ErrPersistence:          InternalServerError,
	ErrOperational:          InternalServerError,
	UnExpectedError:         InternalServerError,
}

// ExternalFetchError 外部服务调用失败或返回的报告不可用
type ExternalFetchError struct {
	ExternalUserID string
	Platform       model.Platform
	Err            error
}

func (e *ExternalFetchError) Error() string {
	return fmt.Sprintf("external fetch %s/%s: %v", e.Platform, e.ExternalUserID, e.Err)
}

func (e *ExternalFetchError) Unwrap() []error { return []error{ErrExternalFetch, e.Err} }

// PersistenceError 原子替换事务未能提交
type PersistenceError struct {
	SourceAccountRef string
	Platform         model.Platform
	Err              error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist profile cache %s/%s: %v", e.SourceAccountRef, e.Platform, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// OperationalError 其他意外错误，例如统计查询时数据库不可用
type OperationalError struct {
	Op  string
	Err error
}

func (e *OperationalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OperationalError) Unwrap() []error { return []error{ErrOperational, e.Err} }

// ResolveCode 返回错误对应的业务码，未登记的错误返回 false
func ResolveCode(err error) (int, bool) {
	if code, ok := ErrorMap[err]; ok {
		return code, true
	}
	for target, code := range ErrorMap {
		if errors.Is(err, target) {
			return code, true
		}
	}
	return 0, false
}

// mysqlErrNumber 提取 MySQL 错误码，用于日志
func mysqlErrNumber(err error) uint16 {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number
	}
	return 0
}
