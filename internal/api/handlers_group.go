package api

import "github.com/techstridesocial/ss-sub002/internal/api/handler"

type HandlersGroup struct {
	ProfileCacheHandler *handler.ProfileCacheHandler
}
