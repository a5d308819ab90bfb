package webserver

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alioygur/is"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sebest/xff"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/media-converter/api"
	"github.com/t2bot/media-converter/common"
	"github.com/t2bot/media-converter/common/config"
	"github.com/t2bot/media-converter/common/rcontext"
	"github.com/t2bot/media-converter/metrics"
)

type handler struct {
	h          func(r *http.Request, ctx rcontext.RequestContext) interface{}
	action     string
	reqCounter *requestCounter
	config     func() *config.MainRepoConfig
	invalid    bool
}

func (h handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	cfg := h.config()

	var raddr string
	if cfg.General.TrustAnyForward {
		raddr = r.Header.Get("X-Forwarded-For")
	} else {
		raddr = xff.GetRemoteAddr(r)
	}
	if raddr == "" {
		raddr = r.RemoteAddr
	}

	host, _, err := net.SplitHostPort(raddr)
	if err != nil {
		host = raddr
	}
	r.RemoteAddr = host

	contextLog := logrus.WithFields(logrus.Fields{
		"method":        r.Method,
		"resource":      r.URL.Path,
		"contentType":   r.Header.Get("Content-Type"),
		"contentLength": r.ContentLength,
		"requestId":     h.reqCounter.GetNextId(),
		"remoteAddr":    r.RemoteAddr,
	})
	contextLog.Info("Received request")

	// Send CORS and other basic headers
	w.Header().Set("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Security-Policy", "sandbox; default-src 'none'; script-src 'none'; style-src 'unsafe-inline'; media-src 'self'; object-src 'self';")
	w.Header().Set("Server", "media-converter")

	rctx := rcontext.New(r.Context(), contextLog, cfg).WithRequest(r)
	r = r.WithContext(rctx)

	if h.invalid {
		metrics.InvalidHttpRequests.With(prometheus.Labels{
			"action": h.action,
			"method": r.Method,
		}).Inc()
	} else {
		metrics.HttpRequests.With(prometheus.Labels{
			"action": h.action,
			"method": r.Method,
		}).Inc()
	}

	res := h.h(r, rctx)
	if res == nil {
		res = &api.EmptyResponse{}
	}

	switch result := res.(type) {
	case *api.DoNotCacheResponse:
		w.Header().Set("Cache-Control", "no-store")
		res = result.Payload
	}

	contextLog.Info(fmt.Sprintf("Replying with result: %T %+v", res, res))

	statusCode := http.StatusOK
	switch result := res.(type) {
	case *api.ErrorResponse:
		switch result.InternalCode {
		case common.ErrCodeNotFound:
			statusCode = http.StatusNotFound
		case common.ErrCodeMediaTooLarge:
			statusCode = http.StatusRequestEntityTooLarge
		case common.ErrCodeBadRequest:
			statusCode = http.StatusBadRequest
		case common.ErrCodeMethodNotAllowed:
			statusCode = http.StatusMethodNotAllowed
		case common.ErrCodeRateLimitExceeded:
			statusCode = http.StatusTooManyRequests
		default: // Treat as unknown (a generic server error)
			statusCode = http.StatusInternalServerError
		}
	case *api.DownloadResponse:
		h.observe(r, http.StatusOK, start)

		w.Header().Set("Content-Type", result.ContentType)
		if result.SizeBytes > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(result.SizeBytes, 10))
		}
		w.Header().Set("Content-Disposition", contentDisposition(result, contextLog))
		defer result.Data.Close()
		writeResponseData(w, result.Data, result.SizeBytes, contextLog)
		return // Prevent sending conflicting responses
	}

	h.observe(r, statusCode, start)

	// Order is important: Set headers before sending responses
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	encoder := json.NewEncoder(w)
	if err = encoder.Encode(res); err != nil {
		contextLog.Warn("Failed to write response: ", err)
	}
}

func (h handler) observe(r *http.Request, statusCode int, start time.Time) {
	metrics.HttpResponses.With(prometheus.Labels{
		"action":     h.action,
		"method":     r.Method,
		"statusCode": strconv.Itoa(statusCode),
	}).Inc()
	metrics.HttpResponseTime.With(prometheus.Labels{
		"action": h.action,
		"method": r.Method,
	}).Observe(time.Since(start).Seconds())
}

func contentDisposition(result *api.DownloadResponse, log *logrus.Entry) string {
	disposition := result.TargetDisposition
	if disposition == "" {
		disposition = "inline"
	} else if disposition == "infer" {
		if strings.HasPrefix(result.ContentType, "image/") || strings.HasPrefix(result.ContentType, "audio/") {
			disposition = "inline"
		} else {
			disposition = "attachment"
		}
	}

	fname := result.Filename
	if fname == "" {
		exts, err := mime.ExtensionsByType(result.ContentType)
		if err != nil {
			log.Warn("Unexpected error inferring file extension: " + err.Error())
		}
		ext := ""
		if len(exts) > 0 {
			ext = exts[0]
		}
		fname = "file" + ext
	}
	if is.ASCII(fname) {
		return disposition + "; filename=" + url.QueryEscape(fname)
	}
	return disposition + "; filename*=utf-8''" + url.QueryEscape(fname)
}

// writeResponseData can only log failures: the status line has already gone out.
func writeResponseData(w http.ResponseWriter, s io.Reader, expectedBytes int64, log *logrus.Entry) {
	b, err := io.Copy(w, s)
	if err != nil {
		log.Error("Failed to stream response: ", err)
		return
	}
	if expectedBytes > 0 && b != expectedBytes {
		log.Errorf("Mismatched transfer size: expected %d bytes, sent %d", expectedBytes, b)
	}
}
