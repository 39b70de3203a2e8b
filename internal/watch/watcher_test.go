package watch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teDdyMucho/groundstandard/pkg/db/objects"
)

func strPtr(s string) *string { return &s }

// 测试内容指纹：行序无关，对账字段任一变化指纹就变
func TestFingerprint(t *testing.T) {
	a := &objects.ResearchArticle{ID: 1, Title: "A", Keyword: "seo", Status: "new"}
	b := &objects.ResearchArticle{ID: 2, Title: "B", Keyword: "crm", Status: "Used"}

	t.Run("行序无关", func(t *testing.T) {
		fp1 := Fingerprint([]*objects.ResearchArticle{a, b})
		fp2 := Fingerprint([]*objects.ResearchArticle{b, a})
		assert.Equal(t, fp1, fp2)
	})

	t.Run("content 变化指纹变", func(t *testing.T) {
		before := Fingerprint([]*objects.ResearchArticle{a})
		changed := &objects.ResearchArticle{ID: 1, Title: "A", Keyword: "seo", Status: "new",
			Content: strPtr("<p>x</p>")}
		assert.NotEqual(t, before, Fingerprint([]*objects.ResearchArticle{changed}))
	})

	t.Run("增删行指纹变", func(t *testing.T) {
		assert.NotEqual(t,
			Fingerprint([]*objects.ResearchArticle{a}),
			Fingerprint([]*objects.ResearchArticle{a, b}))
	})

	t.Run("空集合稳定", func(t *testing.T) {
		assert.Equal(t, Fingerprint(nil), Fingerprint(nil))
	})
}

// 测试轮询广播：指纹变了才回调，拉取失败不回调且旧指纹保留
func TestWatcherPoll(t *testing.T) {
	var mu sync.Mutex
	var records []*objects.ResearchArticle
	var listErr error

	w := NewWatcher(func(ctx context.Context) ([]*objects.ResearchArticle, error) {
		mu.Lock()
		defer mu.Unlock()
		return records, listErr
	}, "@every 1h")

	var got [][]*objects.ResearchArticle
	w.Subscribe(func(rs []*objects.ResearchArticle) {
		got = append(got, rs)
	})

	// 首轮：空集合也算一次变化 (lastFP 从零值变为空集指纹)
	w.poll()
	require.Len(t, got, 1)

	// 同样内容不重复广播
	w.poll()
	assert.Len(t, got, 1)

	// 内容变化触发广播
	mu.Lock()
	records = []*objects.ResearchArticle{{ID: 1, Title: "A", Keyword: "seo", Status: "new"}}
	mu.Unlock()
	w.poll()
	require.Len(t, got, 2)
	assert.Len(t, got[1], 1)

	// 拉取失败：不广播，状态转 Error
	mu.Lock()
	listErr = errors.New("store down")
	mu.Unlock()
	w.poll()
	assert.Len(t, got, 2)
	assert.Equal(t, "Error", w.Stats.View().Status)

	// 恢复后同指纹仍不重复广播
	mu.Lock()
	listErr = nil
	mu.Unlock()
	w.poll()
	assert.Len(t, got, 2)
	assert.Equal(t, "Idle", w.Stats.View().Status)
}

// 测试运行统计的计数
func TestRefreshStats(t *testing.T) {
	s := NewRefreshStats()
	assert.Equal(t, "Idle", s.View().Status)
	assert.Equal(t, "Pending", s.View().LastResult)

	s.begin()
	assert.Equal(t, "Running", s.View().Status)

	s.ok(true, 12)
	v := s.View()
	assert.Equal(t, "Success", v.LastResult)
	assert.Equal(t, int64(1), v.RunCount)
	assert.Equal(t, int64(1), v.ChangeCount)
	assert.Equal(t, 12, v.RowCount)

	s.begin()
	s.ok(false, 12)
	v = s.View()
	assert.Equal(t, int64(2), v.RunCount)
	assert.Equal(t, int64(1), v.ChangeCount, "无变化不应累计变更数")
}
