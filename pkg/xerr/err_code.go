package xerr

import "net/http"

const (
	SERVER_COMMON_ERROR = 100001
	REQUEST_PARAM_ERROR = 100002
	DB_ERROR            = 100004

	ErrNotFound = 1300 // HTTP 404

	// 抽取管线错误，标签对外稳定
	FETCH_ORIGIN_FAILED   = 200001 // HTTP 502
	MIRROR_FAILED         = 200002 // HTTP 502
	FETCH_SUBSTACK_FAILED = 200003 // HTTP 502
	UNSUPPORTED_PROVIDER  = 200004 // HTTP 400
	SUMMARIZE_FAILED      = 200005 // HTTP 502
	INGEST_IN_PROGRESS    = 200006 // HTTP 409
)

var tags = map[int]string{
	SERVER_COMMON_ERROR:   "server_error",
	REQUEST_PARAM_ERROR:   "bad_request",
	DB_ERROR:              "db_error",
	ErrNotFound:           "not_found",
	FETCH_ORIGIN_FAILED:   "fetch_origin_failed",
	MIRROR_FAILED:         "mirror_failed",
	FETCH_SUBSTACK_FAILED: "fetch_substack_failed",
	UNSUPPORTED_PROVIDER:  "unsupported_provider",
	SUMMARIZE_FAILED:      "summarize_failed",
	INGEST_IN_PROGRESS:    "ingest_in_progress",
}

var statuses = map[int]int{
	SERVER_COMMON_ERROR:   http.StatusInternalServerError,
	REQUEST_PARAM_ERROR:   http.StatusBadRequest,
	DB_ERROR:              http.StatusInternalServerError,
	ErrNotFound:           http.StatusNotFound,
	FETCH_ORIGIN_FAILED:   http.StatusBadGateway,
	MIRROR_FAILED:         http.StatusBadGateway,
	FETCH_SUBSTACK_FAILED: http.StatusBadGateway,
	UNSUPPORTED_PROVIDER:  http.StatusBadRequest,
	SUMMARIZE_FAILED:      http.StatusBadGateway,
	INGEST_IN_PROGRESS:    http.StatusConflict,
}

// Tag 返回错误码对应的稳定字符串标签
func Tag(code int) string {
	if t, ok := tags[code]; ok {
		return t
	}
	return tags[SERVER_COMMON_ERROR]
}

// HTTPStatus 返回错误码对应的 HTTP 状态码
func HTTPStatus(code int) int {
	if s, ok := statuses[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}
