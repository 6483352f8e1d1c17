package response

// AppError 处理器层错误：业务码、i18n 键、本地化消息与原始错误
type AppError struct {
	Code    int
	Key     string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ClientFault 4xx 类错误，记录为告警而非错误
func (e *AppError) ClientFault() bool {
	return e.Code >= 400 && e.Code < 500
}

// NewAppError 构造错误
func NewAppError(code int, key, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Key:     key,
		Message: message,
		Err:     err,
	}
}
