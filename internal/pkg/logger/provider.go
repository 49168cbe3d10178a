package logger

import (
	"bytes"
	"io"
	log "log/slog"
	"net/http"
	"time"
)

const bodyLogLimit = 1000

// ProviderTransport 记录对外部画像服务的每次调用
type ProviderTransport struct {
	Transport http.RoundTripper
}

func (t *ProviderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	next := t.Transport
	if next == nil {
		next = http.DefaultTransport
	}

	resp, err := next.RoundTrip(req)
	elapsed := time.Since(start)

	fields := []any{
		log.String("method", req.Method),
		log.String("url", req.URL.String()),
		log.Duration("latency", elapsed),
	}

	if err != nil {
		log.ErrorContext(req.Context(), "PROVIDER_REQUEST_ERROR", append(fields, log.Any("err", err))...)
		return nil, err
	}

	var resBody []byte
	if resp.Body != nil {
		resBody, _ = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewBuffer(resBody))
	}

	resStr := string(resBody)
	if len(resStr) > bodyLogLimit {
		resStr = resStr[:bodyLogLimit] + "...[truncated]"
	}
	fields = append(fields, log.Int("status", resp.StatusCode), log.String("res_body", resStr))

	if resp.StatusCode >= http.StatusBadRequest {
		log.WarnContext(req.Context(), "PROVIDER_REQUEST_FAILED", fields...)
	} else if elapsed > 2*time.Second {
		log.WarnContext(req.Context(), "PROVIDER_REQUEST_SLOW", fields...)
	} else {
		log.InfoContext(req.Context(), "PROVIDER_REQUEST", fields...)
	}

	return resp, nil
}
