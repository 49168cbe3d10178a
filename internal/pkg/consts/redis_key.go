package consts

const (
	ProfileCacheSnapshotKey = "profile:cache:snapshot:"
	// 快照版本号，每次失效时递增，回写前比对
	ProfileCacheSnapshotVersionKey = "profile:cache:snapshot:version:"
)

const (
	ProfileCachePopulateLock = "lock:profile:cache:populate:"
)
