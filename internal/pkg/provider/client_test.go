package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/techstridesocial/ss-sub002/internal/api/config"
	"github.com/techstridesocial/ss-sub002/internal/model"
)

const instagramReport = `{
  "profile": {
    "userId": "ig-1",
    "username": "alice",
    "fullName": "Alice",
    "followers": 1200,
    "following": 10,
    "engagementRate": 0.034,
    "avgLikes": 40,
    "postsCount": 12,
    "hashtags": [{"tag": "travel", "weight": 0.4}],
    "recentPosts": [{"id": "p1", "likes": 30, "created": "2026-02-01T10:00:00Z"}]
  },
  "audience": {
    "credibility": 0.82,
    "genders": [{"code": "FEMALE", "weight": 0.6}, {"code": "MALE", "weight": 0.4}]
  },
  "stats": {"avgReelsPlays": 2500, "followersGrowth30d": 0.02, "paidPostPerformance": 0.7}
}`

type seenRequest struct {
	path string
	auth string
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *seenRequest) {
	t.Helper()
	seen := &seenRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.path = r.URL.Path
		seen.auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestFetchReportSuccess(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, instagramReport)
	client := NewClient(config.ProviderConfig{BaseURL: srv.URL, ApiKey: "secret", Timeout: 5})

	report, err := client.FetchReport(context.Background(), "ig-1", model.PlatformInstagram)
	if err != nil {
		t.Fatalf("FetchReport err: %v", err)
	}
	if seen.path != "/instagram/profile/ig-1/report" {
		t.Errorf("path = %s", seen.path)
	}
	if seen.auth != "Bearer secret" {
		t.Errorf("Authorization = %q", seen.auth)
	}
	if report.Profile.Username != "alice" || report.Profile.Followers != 1200 {
		t.Errorf("unexpected profile: %+v", report.Profile)
	}
	if report.Audience == nil || report.Audience.CredibilityScore != 0.82 {
		t.Errorf("unexpected audience: %+v", report.Audience)
	}
	if report.Stats.Instagram == nil || report.Stats.Instagram.AvgReelsPlays != 2500 {
		t.Errorf("unexpected stats: %+v", report.Stats)
	}
	if report.Stats.TikTok != nil || report.Stats.YouTube != nil {
		t.Errorf("only the instagram variant may be set: %+v", report.Stats)
	}
}

func TestFetchReportMissingProfile(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"audience": {"credibility": 0.5}}`)
	client := NewClient(config.ProviderConfig{BaseURL: srv.URL, Timeout: 5})

	_, err := client.FetchReport(context.Background(), "u", model.PlatformTikTok)
	if !errors.Is(err, ErrProfileMissing) {
		t.Fatalf("err = %v, want ErrProfileMissing", err)
	}
	if !errors.Is(err, ErrMetered) {
		t.Fatalf("err = %v, a 2xx response must be reported as metered", err)
	}
}

func TestFetchReportStatusError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusTooManyRequests, `{"error": true, "message": "quota"}`)
	client := NewClient(config.ProviderConfig{BaseURL: srv.URL, Timeout: 5})

	_, err := client.FetchReport(context.Background(), "u", model.PlatformYouTube)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if statusErr.Code != http.StatusTooManyRequests {
		t.Errorf("code = %d", statusErr.Code)
	}
	if errors.Is(err, ErrMetered) {
		t.Errorf("non-2xx response must not be metered")
	}
}

func TestParseReportRejectsUnknownStatsField(t *testing.T) {
	body := `{"profile": {"userId": "t1", "username": "bob"}, "stats": {"avgShares": 1, "avgReelsPlays": 3}}`
	_, err := ParseReport([]byte(body), model.PlatformTikTok)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func TestParseReportValidatesProfile(t *testing.T) {
	cases := map[string]string{
		"missing username": `{"profile": {"userId": "t1"}}`,
		"negative count":   `{"profile": {"userId": "t1", "username": "bob", "followers": -1}}`,
		"rate above one":   `{"profile": {"userId": "t1", "username": "bob", "engagementRate": 1.5}}`,
		"not json":         `<html>`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseReport([]byte(body), model.PlatformTikTok); !errors.Is(err, ErrMalformed) {
				t.Fatalf("err = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestParseReportRejected(t *testing.T) {
	_, err := ParseReport([]byte(`{"error": true, "message": "account is private"}`), model.PlatformInstagram)
	if !errors.Is(err, ErrReportRejected) {
		t.Fatalf("err = %v, want ErrReportRejected", err)
	}
}

func TestParseReportWithoutStats(t *testing.T) {
	report, err := ParseReport([]byte(`{"profile": {"userId": "y1", "username": "carol"}}`), model.PlatformYouTube)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if report.Stats.Platform != model.PlatformYouTube || report.Stats.YouTube != nil {
		t.Fatalf("unexpected stats: %+v", report.Stats)
	}
	if report.Audience != nil {
		t.Fatalf("audience should be nil")
	}
}
