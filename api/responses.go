package api

import (
	"io"

	"github.com/t2bot/media-converter/common"
)

type EmptyResponse struct{}

type DoNotCacheResponse struct {
	Payload interface{}
}

// DownloadResponse streams a file to the client instead of encoding JSON.
type DownloadResponse struct {
	ContentType       string
	Filename          string
	SizeBytes         int64
	Data              io.ReadCloser
	TargetDisposition string
}

type ErrorResponse struct {
	Code         string `json:"errcode"`
	Message      string `json:"error"`
	InternalCode string `json:"mc_errcode"`
}

func InternalServerError(message string) *ErrorResponse {
	return &ErrorResponse{common.ErrCodeUnknown, message, common.ErrCodeUnknown}
}

func MethodNotAllowed() *ErrorResponse {
	return &ErrorResponse{common.ErrCodeMethodNotAllowed, "Method Not Allowed", common.ErrCodeMethodNotAllowed}
}

func RateLimitReached() *ErrorResponse {
	return &ErrorResponse{common.ErrCodeRateLimitExceeded, common.ErrRateLimitExceeded.Error(), common.ErrCodeRateLimitExceeded}
}

func NotFoundError() *ErrorResponse {
	return &ErrorResponse{common.ErrCodeNotFound, "Not found", common.ErrCodeNotFound}
}

func ArtifactNotFound() *ErrorResponse {
	return &ErrorResponse{common.ErrCodeNotFound, common.ErrArtifactNotFound.Error(), common.ErrCodeNotFound}
}

func RequestTooLarge(message string) *ErrorResponse {
	return &ErrorResponse{common.ErrCodeMediaTooLarge, message, common.ErrCodeMediaTooLarge}
}

func BadRequest(message string) *ErrorResponse {
	return &ErrorResponse{common.ErrCodeBadRequest, message, common.ErrCodeBadRequest}
}
