package main

import (
	"context"
	"log"

	"github.com/teDdyMucho/groundstandard/internal/chat"
	"github.com/teDdyMucho/groundstandard/internal/conf"
	"github.com/teDdyMucho/groundstandard/internal/jobs"
	"github.com/teDdyMucho/groundstandard/internal/repo"
	"github.com/teDdyMucho/groundstandard/internal/server"
	"github.com/teDdyMucho/groundstandard/internal/service"
	"github.com/teDdyMucho/groundstandard/internal/watch"
	"github.com/teDdyMucho/groundstandard/internal/webhook"
	"github.com/teDdyMucho/groundstandard/pkg/db"
	"github.com/teDdyMucho/groundstandard/pkg/logger"
	"github.com/teDdyMucho/groundstandard/pkg/sensitive"
	"github.com/teDdyMucho/groundstandard/web"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️ .env not loaded: %v", err)
	}

	cfg, err := conf.LoadConfig("configs/config.yaml")
	if err != nil {
		logger.Fatal("❌ LoadConfig error", zap.Error(err))
	}

	articles := repo.NewArticleRepo()
	tags := repo.NewTagRepo()

	// 会话状态落 redis；连接故障在单条命令上暴露，状态层只记日志
	kv := jobs.NewRedisStore(db.GetRedisConn())

	state := jobs.NewState(kv)
	if err := state.Load(context.Background()); err != nil {
		log.Printf("⚠️ Pending state load failed: %v", err)
	}

	hooks := webhook.NewClient(webhook.Endpoints{
		Research:  cfg.Webhooks.Research,
		Write:     cfg.Webhooks.Write,
		Rewrite:   cfg.Webhooks.Rewrite,
		CreateTag: cfg.Webhooks.CreateTag,
		Chat:      cfg.Webhooks.Chat,
	})

	dashboard := service.NewDashboard(articles, tags, hooks, state, kv)

	watcher := watch.NewWatcher(articles.ListAll, cfg.Watch.Cron)
	watcher.Subscribe(dashboard.OnStoreChange)
	dashboard.SetPoker(watcher)
	if err := watcher.Start(); err != nil {
		logger.Fatal("❌ Watcher error", zap.Error(err))
	}
	defer watcher.Stop()

	chatSvc := buildChat(cfg, hooks)

	srv := server.NewServer(dashboard, chatSvc, watcher, web.StaticFiles)

	port := cfg.Server.Port
	if port == "" {
		port = ":8080"
	}

	log.Printf("🌐 Dashboard running at http://localhost%s", port)
	if err := srv.Run(port); err != nil {
		logger.Fatal("❌ Server error", zap.Error(err))
	}
}

// buildChat 聊天后端按配置逐件装配，缺哪件就少哪件能力
func buildChat(cfg *conf.Config, hooks *webhook.Client) *chat.Service {
	if cfg.Webhooks.Chat == "" {
		log.Printf("💬 Chat webhook not configured, chat disabled")
		return nil
	}

	var history chat.History
	if cfg.Chat.HistoryDB != "" {
		if client := db.GetMongoConn(); client != nil {
			history = chat.NewMongoHistory(client, cfg.Chat.HistoryDB)
		} else {
			log.Printf("⚠️ MongoDB unavailable, chat history disabled")
		}
	}

	var filter *sensitive.Word
	if cfg.Chat.SensitiveDict != "" {
		w, err := sensitive.NewWord(cfg.Chat.SensitiveDict)
		if err != nil {
			log.Printf("⚠️ Sensitive dict load failed: %v", err)
		} else {
			filter = w
		}
	}

	return chat.NewService(hooks, history, filter)
}
