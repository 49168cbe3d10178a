package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/techstridesocial/ss-sub002/internal/model"
	"github.com/techstridesocial/ss-sub002/internal/service"

	"github.com/IBM/sarama"
)

type recordingPopulator struct {
	requests []service.PopulateRequest
}

func (r *recordingPopulator) Populate(_ context.Context, req service.PopulateRequest) *service.PopulateResult {
	r.requests = append(r.requests, req)
	return &service.PopulateResult{Success: true, CreditsUsed: 1}
}

type recordingCacheService struct {
	service.ProfileCacheService
	removed []string
	err     error
}

func (r *recordingCacheService) RemoveAccount(_ context.Context, sourceAccountRef string) error {
	r.removed = append(r.removed, sourceAccountRef)
	return r.err
}

func canal(eventType string, rows ...map[string]any) *CanalMessage {
	return &CanalMessage{Table: "social_accounts", Type: eventType, Data: rows}
}

func canalUpdate(row map[string]any, old map[string]any) *CanalMessage {
	msg := canal(CanalUpdate, row)
	msg.Old = []map[string]any{old}
	return msg
}

func TestAccountHandlerRoutesEvents(t *testing.T) {
	populator := &recordingPopulator{}
	cacheSvc := &recordingCacheService{}
	h := NewAccountHandler("social_accounts", populator, cacheSvc)
	ctx := context.Background()

	steps := []*CanalMessage{
		canal(CanalInsert, map[string]any{"id": "101", "external_user_id": "ig-101", "platform": "instagram", "status": "connected"}),
		canal(CanalInsert, map[string]any{"id": "102", "external_user_id": "ig-102", "platform": "instagram", "status": "pending"}),
		canal(CanalUpdate, map[string]any{"id": "103", "external_user_id": "tt-103", "platform": "tiktok", "status": "connected"}),
		// 未涉及 status 的更新不触发拉取
		canalUpdate(map[string]any{"id": "103", "external_user_id": "tt-103", "platform": "tiktok", "status": "connected"},
			map[string]any{"username": "old-name"}),
		canal(CanalUpdate, map[string]any{"id": "104", "external_user_id": "tt-104", "platform": "tiktok", "status": "DISCONNECTED"}),
		canal(CanalDelete, map[string]any{"id": float64(105), "platform": "youtube", "status": "connected"}),
		canal(CanalInsert, map[string]any{"external_user_id": "no-id", "status": "connected"}),
	}
	for _, msg := range steps {
		if err := h.handle(ctx, msg); err != nil {
			t.Fatalf("handle(%s): %v", msg.Type, err)
		}
	}

	if len(populator.requests) != 1 {
		t.Fatalf("populate requests = %+v, want only the connected insert", populator.requests)
	}
	req := populator.requests[0]
	if req.SourceAccountRef != "101" || req.ExternalUserID != "ig-101" || req.Platform != "instagram" || req.UpdateType != model.UpdateTypeInitial {
		t.Fatalf("populate request = %+v", req)
	}

	if len(cacheSvc.removed) != 2 || cacheSvc.removed[0] != "104" || cacheSvc.removed[1] != "105" {
		t.Fatalf("removed = %v, want [104 105]", cacheSvc.removed)
	}
}

func TestAccountHandlerPendingThenConnected(t *testing.T) {
	populator := &recordingPopulator{}
	cacheSvc := &recordingCacheService{}
	h := NewAccountHandler("social_accounts", populator, cacheSvc)
	ctx := context.Background()

	steps := []*CanalMessage{
		canal(CanalInsert, map[string]any{"id": "201", "external_user_id": "ig-201", "platform": "instagram", "status": "pending"}),
		canalUpdate(map[string]any{"id": "201", "external_user_id": "ig-201", "platform": "instagram", "status": "connected"},
			map[string]any{"status": "PENDING"}),
		canalUpdate(map[string]any{"id": "202", "external_user_id": "tt-202", "platform": "tiktok", "status": "connected"},
			map[string]any{"status": nil}),
		canalUpdate(map[string]any{"id": "203", "external_user_id": "tt-203", "platform": "tiktok", "status": "connected"},
			map[string]any{"status": "connected"}),
	}
	for _, msg := range steps {
		if err := h.handle(ctx, msg); err != nil {
			t.Fatalf("handle(%s): %v", msg.Type, err)
		}
	}

	if len(populator.requests) != 2 {
		t.Fatalf("populate requests = %+v, want 201 and 202", populator.requests)
	}
	for i, ref := range []string{"201", "202"} {
		req := populator.requests[i]
		if req.SourceAccountRef != ref || req.UpdateType != model.UpdateTypeInitial {
			t.Fatalf("populate request %d = %+v", i, req)
		}
	}
	if len(cacheSvc.removed) != 0 {
		t.Fatalf("removed = %v, want none", cacheSvc.removed)
	}
}

func TestAccountHandlerRemoveError(t *testing.T) {
	cacheSvc := &recordingCacheService{err: service.ErrOperational}
	h := NewAccountHandler("social_accounts", &recordingPopulator{}, cacheSvc)

	err := h.handle(context.Background(), canal(CanalDelete, map[string]any{"id": "9"}))
	if !errors.Is(err, service.ErrOperational) {
		t.Fatalf("err = %v, want wrapped ErrOperational", err)
	}
}

func TestToCanalMessage(t *testing.T) {
	msg := &sarama.ConsumerMessage{Value: []byte(`{"table":"social_accounts","type":"INSERT","data":[{"id":"1","status":"connected"}]}`)}
	got, err := ToCanalMessage(msg, "social_accounts")
	if err != nil {
		t.Fatalf("ToCanalMessage: %v", err)
	}
	if got.Type != CanalInsert || AnyToString(got.Data[0]["id"]) != "1" {
		t.Fatalf("message = %+v", got)
	}

	_, err = ToCanalMessage(msg, "users")
	if !errors.Is(err, ErrTableMismatch) {
		t.Fatalf("err = %v, want ErrTableMismatch", err)
	}

	empty := &sarama.ConsumerMessage{Value: []byte(`{"table":"social_accounts","type":"DELETE","data":[]}`)}
	if _, err = ToCanalMessage(empty, "social_accounts"); !errors.Is(err, ErrEmptyData) {
		t.Fatalf("err = %v, want ErrEmptyData", err)
	}

	broken := &sarama.ConsumerMessage{Value: []byte(`{`)}
	if _, err = ToCanalMessage(broken, "social_accounts"); err == nil {
		t.Fatal("broken json must fail")
	}
}

func TestAnyToString(t *testing.T) {
	cases := map[string]any{
		"":       nil,
		"abc":    " abc ",
		"42":     float64(42),
		"1.5":    1.5,
		"true":   true,
		"123456": int64(123456),
	}
	for want, in := range cases {
		if got := AnyToString(in); got != want {
			t.Errorf("AnyToString(%v) = %q, want %q", in, got, want)
		}
	}
}
