package kafka

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	CanalInsert = "INSERT"
	CanalUpdate = "UPDATE"
	CanalDelete = "DELETE"
)

// CanalMessage Canal 推送到 Kafka 的 JSON 结构
type CanalMessage struct {
	ID       int64    `json:"id"`
	Database string   `json:"database"`
	Table    string   `json:"table"`
	PKNames  []string `json:"pkNames"`
	IsDDL    bool     `json:"isDdl"`
	Type     string   `json:"type"`
	ES       int64    `json:"es"`
	TS       int64    `json:"ts"`

	// 变更后的数据
	Data []map[string]any `json:"data"`

	// 变更前被修改的字段
	Old []map[string]any `json:"old"`
}

// AnyToString canal 的字段值都以字符串推送，数字类型兜底处理
func AnyToString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}
