package db

import (
	"fmt"
	"strconv"
	"sync"

	conf "github.com/teDdyMucho/groundstandard/pkg/config"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const STORE_DB_RESEARCH = "research"

var logger *zap.Logger

func init() {
	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Unable to initialize logger: %v", err))
	}
}

var gormConn = make(map[string]*gorm.DB)
var gormMutex sync.RWMutex

// GetStoreConn 获取托管文章库连接 (懒加载，按库名缓存)
// Supabase 一类的托管库走 postgres 驱动，自建库可配 mysql
// 连接失败返回错误且不缓存，下次调用重新拨号
func GetStoreConn(db string) (*gorm.DB, error) {
	gormMutex.RLock()
	conn, ok := gormConn[db]
	gormMutex.RUnlock()
	if !ok {
		gormMutex.Lock()
		// 拿到写锁后再查一次，避免并发首调各拨一条连接
		if conn, ok = gormConn[db]; ok {
			gormMutex.Unlock()
			return conn, nil
		}
		driver := conf.ServiceConf.DB.Driver
		userName := conf.ServiceConf.DB.User
		userPwd := conf.ServiceConf.DB.Password
		host := conf.ServiceConf.DB.Host
		port := strconv.Itoa(conf.ServiceConf.DB.Port)
		dbName := conf.ServiceConf.DB.DbName
		if dbName == "" {
			dbName = db
		}
		envLogLevel := conf.ServiceConf.DB.LogLevel

		var gormlevel gormLogger.LogLevel
		switch envLogLevel {
		case "error", "fatal", "panic", "dpanic":
			gormlevel = gormLogger.Error
		case "warning":
			gormlevel = gormLogger.Warn
		default:
			gormlevel = gormLogger.Info
		}

		var dialector gorm.Dialector
		if driver == "mysql" {
			dsn := userName + ":" + userPwd + "@tcp(" + host + ":" + port + ")/" + dbName + "?charset=utf8mb4&parseTime=True&loc=Local"
			dialector = mysql.Open(dsn)
		} else {
			dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=require",
				host, userName, userPwd, dbName, port)
			dialector = postgres.Open(dsn)
		}

		dbConn, err := gorm.Open(dialector, &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormlevel),
		})
		if err != nil {
			logger.Error(err.Error())
			gormMutex.Unlock()
			return nil, err
		}

		pool, poolErr := dbConn.DB()
		if poolErr != nil {
			logger.Error(poolErr.Error())
		} else {
			pool.SetMaxOpenConns(30)
			pool.SetMaxIdleConns(15)
		}

		if envLogLevel == "debug" {
			dbConn = dbConn.Debug()
		}
		gormConn[db] = dbConn
		conn = dbConn
		gormMutex.Unlock()
	}

	return conn, nil
}
