package db

import (
	"fmt"
	"sync"

	conf "github.com/teDdyMucho/groundstandard/pkg/config"

	"github.com/go-redis/redis/v8"
)

const GROUNDSTANDARD_RDB = "main"

var redisConn = make(map[string]*redis.Client)
var redisMutex sync.RWMutex

func GetRedisConn() *redis.Client {
	redisMutex.RLock()
	rdb, ok := redisConn[GROUNDSTANDARD_RDB]
	redisMutex.RUnlock()
	if !ok {
		redisMutex.Lock()
		// 拿到写锁后再查一次，避免并发首调各建一个客户端
		if rdb, ok = redisConn[GROUNDSTANDARD_RDB]; ok {
			redisMutex.Unlock()
			return rdb
		}
		opt := redis.Options{
			Addr:     fmt.Sprintf("%s:%d", conf.ServiceConf.RedisDB.Host, conf.ServiceConf.RedisDB.Port),
			Password: conf.ServiceConf.RedisDB.PassWord,
			DB:       conf.ServiceConf.RedisDB.DB,
		}
		rdb = redis.NewClient(&opt)
		redisConn[GROUNDSTANDARD_RDB] = rdb
		redisMutex.Unlock()
	}
	return rdb
}
