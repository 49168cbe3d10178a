package consts

const (
	// CreditsPerReport 每次成功拉取画像报告消耗的额度
	CreditsPerReport = 1
)

const (
	// AccountStatusConnected 社交账号表中已连接的状态值
	AccountStatusConnected = "connected"
)
