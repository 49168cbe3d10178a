package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/techstridesocial/ss-sub002/internal/api/config"
	"github.com/techstridesocial/ss-sub002/internal/model"
	"github.com/techstridesocial/ss-sub002/internal/pkg/logger"
	"github.com/techstridesocial/ss-sub002/internal/pkg/util"

	"github.com/go-resty/resty/v2"
)

// ReportFetcher 外部画像服务，每个 2xx 响应消耗一个额度
type ReportFetcher interface {
	FetchReport(ctx context.Context, externalUserID string, platform model.Platform) (*Report, error)
}

// StatusError 传输层成功但返回非 2xx
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider responded with status %d", e.Code)
}

// ErrMetered 服务已返回 2xx，本次调用已计费
var ErrMetered = errors.New("provider call was metered")

// MeteredError 已计费的响应未通过边界校验
type MeteredError struct {
	Err error
}

func (e *MeteredError) Error() string { return e.Err.Error() }

func (e *MeteredError) Unwrap() []error { return []error{ErrMetered, e.Err} }

type Client struct {
	httpClient *resty.Client
}

func NewClient(cfg config.ProviderConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetTransport(&logger.ProviderTransport{Transport: http.DefaultTransport}).
		SetHeader("Accept", "application/json")
	if cfg.ApiKey != "" {
		client.SetAuthToken(cfg.ApiKey)
	}

	return &Client{httpClient: client}
}

// FetchReport 拉取完整画像报告，超时与重试由 http 客户端决定
func (c *Client) FetchReport(ctx context.Context, externalUserID string, platform model.Platform) (*Report, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"platform": platform.PathSegment(),
			"userId":   externalUserID,
		}).
		Get("/{platform}/profile/{userId}/report")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, &StatusError{Code: resp.StatusCode(), Body: util.Truncate(resp.String(), 512)}
	}

	report, err := ParseReport(resp.Body(), platform)
	if err != nil {
		return nil, &MeteredError{Err: err}
	}
	return report, nil
}
