package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试标记登记与清除：id 与 title 都能命中
func TestMarkAndClearPending(t *testing.T) {
	s := NewState(NewMemoryStore())

	m := s.MarkPending(KindWriting, "7", "Some Title", Snapshot{DocLink: "https://x"})
	require.NotEmpty(t, m.CorrelationID, "标记应带客户端生成的 correlation id")

	assert.True(t, s.IsPending(KindWriting, "7", ""), "按 id 应命中")
	assert.True(t, s.IsPending(KindWriting, "", "Some Title"), "按 title 应命中")
	assert.False(t, s.IsPending(KindRewriting, "7", ""), "类型不同不应命中")

	s.ClearPending(KindWriting, "7", "")
	assert.False(t, s.IsPending(KindWriting, "7", "Some Title"))
}

// 测试同一行多个标记时 ClearPending 全清
func TestClearPendingRemovesAllMatches(t *testing.T) {
	s := NewState(NewMemoryStore())
	s.MarkPending(KindWriting, "7", "T", Snapshot{})
	s.MarkPending(KindWriting, "7", "T", Snapshot{})
	require.Len(t, s.Markers(KindWriting), 2)

	s.ClearPending(KindWriting, "7", "")
	assert.Empty(t, s.Markers(KindWriting))
}

// 测试超龄清扫：writing 2 小时，rewriting 30 秒
func TestDropExpired(t *testing.T) {
	s := NewState(NewMemoryStore())
	s.MarkPending(KindWriting, "1", "W", Snapshot{})
	s.MarkPending(KindRewriting, "2", "R", Snapshot{})

	t.Run("未超龄不清", func(t *testing.T) {
		dropped := s.DropExpired(time.Now())
		assert.Empty(t, dropped)
	})

	t.Run("重写先超龄", func(t *testing.T) {
		dropped := s.DropExpired(time.Now().Add(time.Minute))
		require.Len(t, dropped, 1)
		assert.Equal(t, KindRewriting, dropped[0].Kind)
		assert.True(t, s.IsPending(KindWriting, "1", ""), "写作标记 1 分钟后应仍在")
	})

	t.Run("写作最终超龄", func(t *testing.T) {
		dropped := s.DropExpired(time.Now().Add(3 * time.Hour))
		require.Len(t, dropped, 1)
		assert.Equal(t, KindWriting, dropped[0].Kind)
	})
}

// 测试乐观占位的增删与排序 (最新在前)
func TestPlaceholders(t *testing.T) {
	s := NewState(NewMemoryStore())

	first := s.AddPlaceholders("seo", "c1", 2)
	require.Len(t, first, 2)
	time.Sleep(5 * time.Millisecond)
	second := s.AddPlaceholders("crm", "c2", 1)

	all := s.Placeholders()
	require.Len(t, all, 3)
	assert.Equal(t, "crm", all[0].Keyword, "最新批次应排在前面")

	s.RemovePlaceholders([]string{first[0].ID, second[0].ID})
	assert.Len(t, s.Placeholders(), 1)
}

// 测试占位超龄清扫
func TestPlaceholderExpiry(t *testing.T) {
	s := NewState(NewMemoryStore())
	s.AddPlaceholders("seo", "c1", 1)

	s.DropExpired(time.Now().Add(PlaceholderMaxAge + time.Minute))
	assert.Empty(t, s.Placeholders(), "超过最大存活时间的占位应被清扫")
}

// 测试持久化往返：重载后标记和占位都在，超龄条目被丢弃
func TestPersistAndLoad(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	s := NewState(store)
	fresh := s.MarkPending(KindWriting, "1", "Fresh", Snapshot{Content: "old"})
	s.AddPlaceholders("seo", "c1", 2)

	// 手工塞一条超龄标记进存储，模拟跨会话的陈旧状态
	stale := &Marker{Kind: KindWriting, ArticleID: "2", Title: "Stale",
		CorrelationID: "stale-id", StartedAt: time.Now().Add(-3 * time.Hour)}
	s.mu.Lock()
	s.markers[KindWriting][stale.CorrelationID] = stale
	s.mu.Unlock()
	s.persist()

	reloaded := NewState(store)
	require.NoError(t, reloaded.Load(ctx))

	markers := reloaded.Markers(KindWriting)
	require.Len(t, markers, 1, "超龄标记不应被重载")
	assert.Equal(t, fresh.CorrelationID, markers[0].CorrelationID)
	assert.Equal(t, "old", markers[0].Snapshot.Content, "快照应随标记持久化")
	assert.Len(t, reloaded.Placeholders(), 2)
}

// 测试坏数据容忍：损坏的持久化内容当作没有
func TestLoadCorruptState(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, KeyWritingPending, "{not json"))

	s := NewState(store)
	assert.NoError(t, s.Load(ctx), "坏数据不应让加载失败")
	assert.Empty(t, s.Markers(KindWriting))
}
