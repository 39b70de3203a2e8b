package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/teDdyMucho/groundstandard/internal/jobs"
	"github.com/teDdyMucho/groundstandard/pkg/logger"
	"go.uber.org/zap"
)

// rowTags 行到标签的指派，持久化在会话状态存储里
// 和浏览器端的 local storage 一个地位：丢了可重建
type rowTags struct {
	mu     sync.Mutex
	kv     jobs.Store
	cache  map[string]string
	loaded bool
}

func newRowTags(kv jobs.Store) *rowTags {
	return &rowTags{kv: kv, cache: map[string]string{}}
}

func (t *rowTags) load(ctx context.Context) {
	if t.loaded {
		return
	}
	t.loaded = true
	raw, err := t.kv.Get(ctx, jobs.KeyRowTags)
	if err != nil || raw == "" {
		return
	}
	if err := json.Unmarshal([]byte(raw), &t.cache); err != nil {
		t.cache = map[string]string{}
	}
}

func (t *rowTags) set(ctx context.Context, rowID, tag string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.load(ctx)
	if tag == "" {
		delete(t.cache, rowID)
	} else {
		t.cache[rowID] = tag
	}
	raw, _ := json.Marshal(t.cache)
	if err := t.kv.Set(ctx, jobs.KeyRowTags, string(raw)); err != nil {
		logger.Warn("persist row tags", zap.Error(err))
	}
}

func (t *rowTags) all(ctx context.Context) map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.load(ctx)
	out := make(map[string]string, len(t.cache))
	for k, v := range t.cache {
		out[k] = v
	}
	return out
}

// AssignTag 给某行指派标签，空标签表示摘除
func (d *Dashboard) AssignTag(ctx context.Context, rowID, tag string) {
	d.rowTags.set(ctx, rowID, tag)
}

// RowTags 所有行的标签指派
func (d *Dashboard) RowTags(ctx context.Context) map[string]string {
	return d.rowTags.all(ctx)
}
