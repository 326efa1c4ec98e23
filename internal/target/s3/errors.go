package s3

import "fmt"

const (
	CodeInvalidConfig       = "E_INVALID_CONFIG"
	CodeUnsupportedFormat   = "E_UNSUPPORTED_FORMAT"
	CodeEncodeFailed        = "E_ENCODE_FAILED"
	CodeUploadFailed        = "E_UPLOAD_FAILED"
	CodeBucketNotFound      = "E_BUCKET_NOT_FOUND"
	CodePermissionDenied    = "E_PERMISSION_DENIED"
	CodeEndpointUnreachable = "E_ENDPOINT_UNREACHABLE"
	CodeTimeout             = "E_TIMEOUT"
)

// Error wraps S3-specific failures with retryability hints.
type Error struct {
	Code      string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error         { return e.Err }
func (e *Error) CodeValue() string     { return e.Code }
func (e *Error) RetryableStatus() bool { return e.Retryable }

func wrapError(code string, retryable bool, err error) *Error {
	return &Error{Code: code, Retryable: retryable, Err: err}
}
