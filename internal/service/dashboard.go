// Package service 仪表盘的组装根：持有存取器、webhook 客户端、
// 任务跟踪状态与订阅，把用户意图派发出去，把对账结果收回来。
package service

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/teDdyMucho/groundstandard/internal/jobs"
	"github.com/teDdyMucho/groundstandard/internal/reconcile"
	"github.com/teDdyMucho/groundstandard/internal/webhook"
	"github.com/teDdyMucho/groundstandard/pkg/db/objects"
	gerrors "github.com/teDdyMucho/groundstandard/pkg/errors"
	"github.com/teDdyMucho/groundstandard/pkg/xerr"
)

// ArticleStore 托管库存取器
type ArticleStore interface {
	ListAll(ctx context.Context) ([]*objects.ResearchArticle, error)
	DeleteByIDs(ctx context.Context, ids []int64) error
}

// TagStore 标签表存取器
type TagStore interface {
	ListAll(ctx context.Context) ([]*objects.ArticleTag, error)
}

// Poker 订阅方手动触发一次轮询的口子
type Poker interface {
	Poke()
}

// Dashboard 仪表盘服务
// 真实记录缓存只在存储回调和手动刷新里更新；对账在每次更新后跑，
// 拉取失败时继续用旧数据，错误单独上浮
type Dashboard struct {
	store  ArticleStore
	tags   TagStore
	hooks  *webhook.Client
	state  *jobs.State
	poker  Poker
	notify *NoticeRing

	mu      sync.RWMutex
	records []*objects.ResearchArticle
	loaded  bool
	lastErr error

	rowTags *rowTags
}

func NewDashboard(store ArticleStore, tags TagStore, hooks *webhook.Client, state *jobs.State, kv jobs.Store) *Dashboard {
	return &Dashboard{
		store:   store,
		tags:    tags,
		hooks:   hooks,
		state:   state,
		notify:  NewNoticeRing(50),
		rowTags: newRowTags(kv),
	}
}

// SetPoker 注入手动触发器 (watcher)，可选
func (d *Dashboard) SetPoker(p Poker) {
	d.poker = p
}

// OnStoreChange 存储变更回调：换缓存，跑一轮对账
func (d *Dashboard) OnStoreChange(records []*objects.ResearchArticle) {
	d.mu.Lock()
	d.records = records
	d.loaded = true
	d.lastErr = nil
	d.mu.Unlock()

	d.reconcilePass(records)
}

// Refresh 同步全量拉取 (初始加载 + 手动刷新按钮)
// 失败时缓存不动，错误记下来给整页重试界面
func (d *Dashboard) Refresh(ctx context.Context) error {
	records, err := d.store.ListAll(ctx)
	if err != nil {
		d.mu.Lock()
		d.lastErr = err
		d.mu.Unlock()
		return gerrors.Wrap(xerr.ErrStoreUnavailable, "store fetch failed", err)
	}
	d.OnStoreChange(records)
	return nil
}

// reconcilePass 对账：完成判定、占位裁剪、超龄清扫，每项独立
func (d *Dashboard) reconcilePass(records []*objects.ResearchArticle) {
	// 1. 快照比对，清掉已完成的标记并发通知
	done := reconcile.ResolveMarkers(d.state.AllMarkers(), records)
	if len(done) > 0 {
		d.state.Remove(done)
		for _, m := range done {
			log.Printf("✅ [Reconcile] %s finished: %s", m.Kind, m.Title)
			d.notify.Push(Notice{
				Kind:    string(m.Kind),
				Title:   m.Title,
				Message: "Article " + string(m.Kind) + " completed",
				At:      time.Now(),
			})
		}
	}

	// 2. 关键词计数裁剪乐观占位
	if drop := reconcile.PrunePlaceholders(d.state.Placeholders(), records); len(drop) > 0 {
		d.state.RemovePlaceholders(drop)
		log.Printf("🧹 [Reconcile] Pruned %d optimistic rows", len(drop))
	}

	// 3. 超龄强制清扫，界面永远不会卡在转圈
	if expired := d.state.DropExpired(time.Now()); len(expired) > 0 {
		for _, m := range expired {
			log.Printf("⏰ [Reconcile] %s marker timed out: %s", m.Kind, m.Title)
		}
	}
}

// View 合并视图：缓存从未加载成功且有错时走整页重试，否则用 (可能过期的) 缓存
func (d *Dashboard) View(ctx context.Context, f reconcile.Filter, page int) (reconcile.Page, error) {
	d.mu.RLock()
	loaded := d.loaded
	d.mu.RUnlock()

	// 从未加载成功过才把存储错误上浮成整页重试；有旧数据就继续用
	if !loaded {
		if err := d.Refresh(ctx); err != nil {
			return reconcile.Page{}, err
		}
	}

	// 每次出视图前先清扫超龄条目
	d.state.DropExpired(time.Now())

	d.mu.RLock()
	records := d.records
	d.mu.RUnlock()

	rows := reconcile.MergeView(records, f,
		d.state.Placeholders(),
		d.state.Markers(jobs.KindWriting),
		d.state.Markers(jobs.KindRewriting),
		time.Now())
	return reconcile.Paginate(rows, page), nil
}

// Stats 统计卡数据，同样容忍过期缓存
func (d *Dashboard) Stats(ctx context.Context) (reconcile.Stats, error) {
	d.mu.RLock()
	loaded := d.loaded
	d.mu.RUnlock()

	if !loaded {
		if err := d.Refresh(ctx); err != nil {
			return reconcile.Stats{}, err
		}
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	return reconcile.ComputeStats(d.records), nil
}

// Tags 标签表全量
func (d *Dashboard) Tags(ctx context.Context) ([]*objects.ArticleTag, error) {
	list, err := d.tags.ListAll(ctx)
	if err != nil {
		return nil, gerrors.Wrap(xerr.ErrStoreUnavailable, "tag fetch failed", err)
	}
	return list, nil
}

// Notifications 排空完成通知
func (d *Dashboard) Notifications() []Notice {
	return d.notify.Drain()
}

// findRecord 在缓存里按 id 或 title 找行 (title 是创建后拿不到 id 时的兜底)
func (d *Dashboard) findRecord(id, title string) *objects.ResearchArticle {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, r := range d.records {
		if id != "" && recordID(r) == id {
			return r
		}
		if title != "" && r.Title == title {
			return r
		}
	}
	return nil
}

func recordID(r *objects.ResearchArticle) string {
	return strconv.FormatInt(r.ID, 10)
}
