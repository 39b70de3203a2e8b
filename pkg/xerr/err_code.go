package xerr

const (
	SERVER_COMMON_ERROR = 100001
	REQUEST_PARAM_ERROR = 100002
	DB_ERROR            = 100004

	ErrInternalServer = 500 // HTTP 500

	ErrBadRequest       = 1000 // HTTP 400
	ErrInvalidInput     = 1001 // HTTP 400
	ErrMissingParameter = 1002 // HTTP 400
	ErrInvalidJSON      = 1003 // HTTP 400

	ErrNotFound         = 1300 // HTTP 404
	ErrResourceNotFound = 1301 // HTTP 404

	// 存储连接/查询失败，前端展示整页重试界面
	ErrStoreUnavailable = 1400 // HTTP 503

	// Webhook 非成功响应，表单内联展示响应体
	ErrWebhookFailed = 1500 // HTTP 502

	// 删除失败，选中与标记状态需要恢复
	ErrDeleteFailed = 1501 // HTTP 502

	// 同一行写作/重写互斥
	ErrJobConflict = 1600 // HTTP 409
)

// HTTPStatus 错误码到 HTTP 状态码的映射
func HTTPStatus(code int) int {
	switch code {
	case ErrBadRequest, ErrInvalidInput, ErrMissingParameter, ErrInvalidJSON, REQUEST_PARAM_ERROR:
		return 400
	case ErrNotFound, ErrResourceNotFound:
		return 404
	case ErrJobConflict:
		return 409
	case ErrWebhookFailed, ErrDeleteFailed:
		return 502
	case ErrStoreUnavailable:
		return 503
	default:
		return 500
	}
}
