package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/teDdyMucho/groundstandard/pkg/db/objects"
)

// ListFunc 全量拉取文章集合
type ListFunc func(ctx context.Context) ([]*objects.ResearchArticle, error)

// Callback 集合内容变化时收到最新全量快照
type Callback func(records []*objects.ResearchArticle)

// Watcher 托管库的变更订阅
// 托管库的实时推送在服务端不可用，这里用 cron 轮询 + 内容指纹模拟：
// 指纹变了才回调，等价于"任何 insert/update/delete 触发一次全量重取"
type Watcher struct {
	cron     *cron.Cron
	list     ListFunc
	cronSpec string
	Stats    *RefreshStats

	mu        sync.Mutex
	lastFP    string
	callbacks []Callback
}

func NewWatcher(list ListFunc, cronSpec string) *Watcher {
	return &Watcher{
		cron:     cron.New(),
		list:     list,
		cronSpec: cronSpec,
		Stats:    NewRefreshStats(),
	}
}

// Subscribe 注册变更回调，需在 Start 前调用
func (w *Watcher) Subscribe(cb Callback) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, cb)
	w.mu.Unlock()
}

func (w *Watcher) Start() error {
	if _, err := w.cron.AddFunc(w.cronSpec, w.poll); err != nil {
		return err
	}
	w.cron.Start()
	log.Printf("👀 [Watch] Store polling started [%s]", w.cronSpec)
	return nil
}

func (w *Watcher) Stop() {
	w.cron.Stop()
}

// Poke 手动触发一次轮询 (删除后、界面手动刷新)
func (w *Watcher) Poke() {
	go w.poll()
}

// poll 拉全量、算指纹、变了才广播
func (w *Watcher) poll() {
	w.Stats.begin()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	records, err := w.list(ctx)
	if err != nil {
		// 拉取失败只记状态，订阅方继续用旧数据
		w.Stats.fail(err)
		log.Printf("❌ [Watch] Store fetch failed: %v", err)
		return
	}

	fp := Fingerprint(records)

	w.mu.Lock()
	changed := fp != w.lastFP
	w.lastFP = fp
	cbs := append([]Callback(nil), w.callbacks...)
	w.mu.Unlock()

	w.Stats.ok(changed, len(records))

	if changed {
		log.Printf("🔄 [Watch] Store changed, notifying (%d rows)", len(records))
		for _, cb := range cbs {
			cb(records)
		}
	}
}

// Fingerprint 集合内容指纹
// 行序无关 (先按 id 排序拼接)，对账关心的字段全部参与
func Fingerprint(records []*objects.ResearchArticle) string {
	h := sha256.New()
	ordered := make([]*objects.ResearchArticle, len(records))
	copy(ordered, records)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j-1].ID > ordered[j].ID; j-- {
			ordered[j-1], ordered[j] = ordered[j], ordered[j-1]
		}
	}
	for _, r := range ordered {
		fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s\n",
			strconv.FormatInt(r.ID, 10), r.Title, r.Keyword,
			r.DocLinkValue(), r.ContentValue(), r.Status)
	}
	return hex.EncodeToString(h.Sum(nil))
}
