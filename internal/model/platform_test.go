package model

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizePlatform(t *testing.T) {
	cases := []struct {
		raw     string
		want    Platform
		wantErr bool
	}{
		{raw: "instagram", want: PlatformInstagram},
		{raw: "  TikTok ", want: PlatformTikTok},
		{raw: "YOUTUBE", want: PlatformYouTube},
		{raw: "twitter", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := NormalizePlatform(tc.raw)
		if tc.wantErr {
			if !errors.Is(err, ErrPlatformUnsupported) {
				t.Errorf("NormalizePlatform(%q) err = %v, want ErrPlatformUnsupported", tc.raw, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizePlatform(%q) unexpected err: %v", tc.raw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizePlatform(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestPlatformPathSegment(t *testing.T) {
	if got := PlatformTikTok.PathSegment(); got != "tiktok" {
		t.Fatalf("PathSegment() = %q", got)
	}
}

func TestPlatformStatsValidate(t *testing.T) {
	cases := []struct {
		name  string
		stats PlatformStats
		ok    bool
	}{
		{name: "empty", stats: PlatformStats{Platform: PlatformInstagram}, ok: true},
		{name: "matching variant", stats: PlatformStats{Platform: PlatformTikTok, TikTok: &TikTokStats{TotalLikes: 10}}, ok: true},
		{name: "wrong variant", stats: PlatformStats{Platform: PlatformYouTube, Instagram: &InstagramStats{}}},
		{name: "two variants", stats: PlatformStats{Platform: PlatformYouTube, YouTube: &YouTubeStats{}, TikTok: &TikTokStats{}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.stats.Validate()
			if tc.ok && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if !tc.ok && !errors.Is(err, ErrStatsVariant) {
				t.Fatalf("Validate() = %v, want ErrStatsVariant", err)
			}
		})
	}
}

func TestProfileCacheIsExpired(t *testing.T) {
	now := time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)
	p := &ProfileCache{ExpiresAt: now}
	if !p.IsExpired(now) {
		t.Fatal("entry expiring exactly now must be expired")
	}
	p.ExpiresAt = now.Add(time.Second)
	if p.IsExpired(now) {
		t.Fatal("entry expiring in the future must not be expired")
	}
}

func TestJSONColumnScan(t *testing.T) {
	var posts Posts
	if err := posts.Scan(`[{"id":"p1","likes":3}]`); err != nil {
		t.Fatalf("Scan(string) err: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != "p1" || posts[0].Likes != 3 {
		t.Fatalf("unexpected posts: %+v", posts)
	}

	var stats PlatformStats
	if err := stats.Scan([]byte(`{"platform":"TIKTOK","tiktok":{"avgShares":1.5}}`)); err != nil {
		t.Fatalf("Scan([]byte) err: %v", err)
	}
	if stats.TikTok == nil || stats.TikTok.AvgShares != 1.5 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	var dist Distribution
	if err := dist.Scan(nil); err != nil || dist != nil {
		t.Fatalf("Scan(nil) = %v, %v", dist, err)
	}
	if err := dist.Scan(42); err == nil {
		t.Fatal("Scan(int) should fail")
	}
}
