package kafka

import (
	"context"
	log "log/slog"
	"strings"

	"github.com/techstridesocial/ss-sub002/internal/model"
	"github.com/techstridesocial/ss-sub002/internal/pkg/consts"
	"github.com/techstridesocial/ss-sub002/internal/pkg/logger"
	"github.com/techstridesocial/ss-sub002/internal/service"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// AccountRow social_accounts 表中用到的字段
type AccountRow struct {
	SourceAccountRef string
	ExternalUserID   string
	Platform         string
	Status           string
}

func toAccountRow(data map[string]any) AccountRow {
	return AccountRow{
		SourceAccountRef: AnyToString(data["id"]),
		ExternalUserID:   AnyToString(data["external_user_id"]),
		Platform:         AnyToString(data["platform"]),
		Status:           strings.ToLower(AnyToString(data["status"])),
	}
}

// AccountHandler 账号接入时生成首份画像缓存，断开或删除时清理
type AccountHandler struct {
	table     string
	populator service.ProfilePopulator
	cacheSvc  service.ProfileCacheService
}

func NewAccountHandler(table string, populator service.ProfilePopulator, cacheSvc service.ProfileCacheService) *AccountHandler {
	return &AccountHandler{
		table:     table,
		populator: populator,
		cacheSvc:  cacheSvc,
	}
}

func (s *AccountHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("account consumer setup", "table", s.table)
	return nil
}

func (s *AccountHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("account consumer cleanup", "table", s.table)
	return nil
}

func (s *AccountHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	if err := pullMessageBatch(session, claim, s.logic); err != nil {
		log.Error("account consumer batch error", "err", err)
		return err
	}
	return nil
}

func (s *AccountHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	canalMsg, err := ToCanalMessage(msg, s.table)
	if err != nil {
		return err
	}
	ctx = context.WithValue(ctx, logger.TraceIDKey, "kafka-account-"+uuid.NewString())
	return s.handle(ctx, canalMsg)
}

func (s *AccountHandler) handle(ctx context.Context, canalMsg *CanalMessage) error {
	for i, data := range canalMsg.Data {
		row := toAccountRow(data)
		if row.SourceAccountRef == "" {
			log.WarnContext(ctx, "account event without id", "type", canalMsg.Type)
			continue
		}

		var err error
		switch canalMsg.Type {
		case CanalInsert:
			err = s.onConnected(ctx, row)
		case CanalUpdate:
			if row.Status != consts.AccountStatusConnected {
				err = s.onDisconnected(ctx, row)
			} else if becameConnected(canalMsg.Old, i) {
				err = s.onConnected(ctx, row)
			}
		case CanalDelete:
			err = s.onDisconnected(ctx, row)
		}
		if err != nil {
			return errors.WithMessagef(err, "account %s %s", row.SourceAccountRef, canalMsg.Type)
		}
	}
	return nil
}

// becameConnected old 中只包含被修改的列，status 不在其中说明状态未变
func becameConnected(old []map[string]any, i int) bool {
	if i >= len(old) {
		return false
	}
	prev, ok := old[i]["status"]
	if !ok {
		return false
	}
	return strings.ToLower(AnyToString(prev)) != consts.AccountStatusConnected
}

// onConnected 失败已记录在更新日志中，不重试以免重复消耗额度
func (s *AccountHandler) onConnected(ctx context.Context, row AccountRow) error {
	if row.Status != consts.AccountStatusConnected {
		return nil
	}
	res := s.populator.Populate(ctx, service.PopulateRequest{
		SourceAccountRef: row.SourceAccountRef,
		ExternalUserID:   row.ExternalUserID,
		Platform:         row.Platform,
		UpdateType:       model.UpdateTypeInitial,
		Reason:           "account connected",
	})
	if !res.Success {
		log.WarnContext(ctx, "initial profile populate failed",
			"source_account_ref", row.SourceAccountRef,
			"platform", row.Platform,
			"err", res.Error)
	}
	return nil
}

func (s *AccountHandler) onDisconnected(ctx context.Context, row AccountRow) error {
	if err := s.cacheSvc.RemoveAccount(ctx, row.SourceAccountRef); err != nil {
		return errors.Wrap(err, "remove cached profiles")
	}
	return nil
}
