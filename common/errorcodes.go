package common

const ErrCodeNotFound = "MC_NOT_FOUND"
const ErrCodeMediaTooLarge = "MC_MEDIA_TOO_LARGE"
const ErrCodeMethodNotAllowed = "MC_METHOD_NOT_ALLOWED"
const ErrCodeBadRequest = "MC_BAD_REQUEST"
const ErrCodeRateLimitExceeded = "MC_LIMIT_EXCEEDED"
const ErrCodeUnknown = "MC_UNKNOWN"
