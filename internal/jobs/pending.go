package jobs

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teDdyMucho/groundstandard/pkg/logger"
	"go.uber.org/zap"
)

// Kind 待处理任务类型
type Kind string

const (
	KindWriting   Kind = "writing"
	KindRewriting Kind = "rewriting"
)

const (
	// WritingTimeout 写作标记的最大存活时间，超龄视为废弃，不重试
	WritingTimeout = 2 * time.Hour

	// RewritePollTimeout 重写后的轮询兜底窗口
	// 超时强制清除，保证界面不会卡在永久转圈
	RewritePollTimeout = 30 * time.Second

	// PlaceholderMaxAge 乐观占位行的最大存活时间
	PlaceholderMaxAge = 2 * time.Hour
)

// Timeout 各类型的超龄阈值
func (k Kind) Timeout() time.Duration {
	if k == KindRewriting {
		return RewritePollTimeout
	}
	return WritingTimeout
}

// Snapshot 任务启动前的 doc_link/content 快照
// 完成判定靠与库里当前值做 diff，nil 统一归一为空串存储
type Snapshot struct {
	DocLink string `json:"doc_link"`
	Content string `json:"content"`
}

// Marker 待处理任务标记
// 内部以客户端生成的 correlation id 作主键，id/title 仅作对库匹配的别名
// (外部工作流目前不会回显 correlation id，见 DESIGN.md)
type Marker struct {
	Kind          Kind      `json:"kind"`
	ArticleID     string    `json:"article_id"` // 可能为空：刚创建还拿不到 id 时用 title 兜底
	Title         string    `json:"title"`
	CorrelationID string    `json:"correlation_id"`
	StartedAt     time.Time `json:"started_at"`
	Snapshot      Snapshot  `json:"snapshot"`
}

// Expired 是否超过本类型的存活阈值
func (m *Marker) Expired(now time.Time) bool {
	return now.Sub(m.StartedAt) > m.Kind.Timeout()
}

// Matches 按 id 或 title 匹配一行
// title 兜底是启发式：两行同名时会误匹配，已知局限
func (m *Marker) Matches(id, title string) bool {
	if m.ArticleID != "" && id != "" && m.ArticleID == id {
		return true
	}
	return m.Title != "" && title != "" && m.Title == title
}

// PlaceholderTitle 乐观占位行的固定标题
const PlaceholderTitle = "Processing… article is being created"

// Placeholder 创建请求发出后、库里还没有对应行时的本地合成行
type Placeholder struct {
	ID            string    `json:"id"` // 客户端生成的合成 id
	Keyword       string    `json:"keyword"`
	CorrelationID string    `json:"correlation_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// State 会话内的任务跟踪状态
// 单写多读，全部访问经由互斥锁；持久化到 Store，重载时丢弃超龄条目
type State struct {
	mu           sync.RWMutex
	markers      map[Kind]map[string]*Marker // correlation id -> marker
	placeholders []*Placeholder
	store        Store
}

func NewState(store Store) *State {
	if store == nil {
		store = NewMemoryStore()
	}
	return &State{
		markers: map[Kind]map[string]*Marker{
			KindWriting:   {},
			KindRewriting: {},
		},
		store: store,
	}
}

// MarkPending 登记一个待处理任务，返回生成的标记
func (s *State) MarkPending(kind Kind, id, title string, snap Snapshot) *Marker {
	s.mu.Lock()
	m := &Marker{
		Kind:          kind,
		ArticleID:     id,
		Title:         title,
		CorrelationID: uuid.NewString(),
		StartedAt:     time.Now(),
		Snapshot:      snap,
	}
	s.markers[kind][m.CorrelationID] = m
	s.mu.Unlock()

	s.persist()
	return m
}

// ClearPending 清除 id 或 title 命中的所有标记
func (s *State) ClearPending(kind Kind, id, title string) {
	s.mu.Lock()
	for key, m := range s.markers[kind] {
		if m.Matches(id, title) {
			delete(s.markers[kind], key)
		}
	}
	s.mu.Unlock()

	s.persist()
}

// IsPending 该行是否有未超龄的标记
func (s *State) IsPending(kind Kind, id, title string) bool {
	now := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.markers[kind] {
		if m.Matches(id, title) && !m.Expired(now) {
			return true
		}
	}
	return false
}

// Remove 按 correlation id 删除标记 (对账完成后调用)
func (s *State) Remove(markers []*Marker) {
	if len(markers) == 0 {
		return
	}
	s.mu.Lock()
	for _, m := range markers {
		delete(s.markers[m.Kind], m.CorrelationID)
	}
	s.mu.Unlock()

	s.persist()
}

// Markers 返回某类型标记的副本，按启动时间倒序
func (s *State) Markers(kind Kind) []*Marker {
	s.mu.RLock()
	list := make([]*Marker, 0, len(s.markers[kind]))
	for _, m := range s.markers[kind] {
		list = append(list, m)
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].StartedAt.After(list[j].StartedAt)
	})
	return list
}

// AllMarkers 两类标记合并副本
func (s *State) AllMarkers() []*Marker {
	return append(s.Markers(KindWriting), s.Markers(KindRewriting)...)
}

// AddPlaceholders 为一次创建请求登记 n 个乐观占位行
func (s *State) AddPlaceholders(keyword, correlationID string, n int) []*Placeholder {
	now := time.Now()
	added := make([]*Placeholder, 0, n)
	s.mu.Lock()
	for i := 0; i < n; i++ {
		added = append(added, &Placeholder{
			ID:            uuid.NewString(),
			Keyword:       keyword,
			CorrelationID: correlationID,
			CreatedAt:     now,
		})
	}
	s.placeholders = append(s.placeholders, added...)
	s.mu.Unlock()

	s.persist()
	return added
}

// Placeholders 占位行副本，创建时间倒序 (最新在前)
func (s *State) Placeholders() []*Placeholder {
	s.mu.RLock()
	list := make([]*Placeholder, len(s.placeholders))
	copy(list, s.placeholders)
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}

// RemovePlaceholders 按合成 id 删除占位行
func (s *State) RemovePlaceholders(ids []string) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	s.mu.Lock()
	kept := s.placeholders[:0]
	for _, p := range s.placeholders {
		if !drop[p.ID] {
			kept = append(kept, p)
		}
	}
	s.placeholders = kept
	s.mu.Unlock()

	s.persist()
}

// DropExpired 清除超龄的标记与占位行，每次对账都会跑
// 返回被强制清除的标记，调用方负责记日志/通知
func (s *State) DropExpired(now time.Time) []*Marker {
	var dropped []*Marker
	s.mu.Lock()
	for _, kind := range []Kind{KindWriting, KindRewriting} {
		for key, m := range s.markers[kind] {
			if m.Expired(now) {
				dropped = append(dropped, m)
				delete(s.markers[kind], key)
			}
		}
	}
	kept := s.placeholders[:0]
	for _, p := range s.placeholders {
		if now.Sub(p.CreatedAt) <= PlaceholderMaxAge {
			kept = append(kept, p)
		}
	}
	s.placeholders = kept
	s.mu.Unlock()

	if len(dropped) > 0 {
		s.persist()
	}
	return dropped
}

// persistedState 持久化载荷
type persistedState struct {
	Markers      []*Marker      `json:"markers"`
	Placeholders []*Placeholder `json:"placeholders"`
}

// persist 全量写回三个存储键，失败只记日志不中断
func (s *State) persist() {
	ctx := context.Background()

	s.mu.RLock()
	writing := persistedState{Markers: mapValues(s.markers[KindWriting])}
	rewriting := persistedState{Markers: mapValues(s.markers[KindRewriting])}
	rows := persistedState{Placeholders: append([]*Placeholder(nil), s.placeholders...)}
	s.mu.RUnlock()

	save := func(key string, v persistedState) {
		raw, err := json.Marshal(v)
		if err != nil {
			logger.Error("marshal pending state", zap.Error(err))
			return
		}
		if err := s.store.Set(ctx, key, string(raw)); err != nil {
			logger.Warn("persist pending state", zap.String("key", key), zap.Error(err))
		}
	}
	save(KeyWritingPending, writing)
	save(KeyRewritingPending, rewriting)
	save(KeyOptimisticRows, rows)
}

// Load 从持久化存储重建状态，超龄条目直接丢弃
func (s *State) Load(ctx context.Context) error {
	now := time.Now()

	loadMarkers := func(key string, kind Kind) error {
		raw, err := s.store.Get(ctx, key)
		if err != nil {
			return err
		}
		if raw == "" {
			return nil
		}
		var ps persistedState
		if err := json.Unmarshal([]byte(raw), &ps); err != nil {
			// 坏数据当作没有，下一次 persist 会覆盖
			logger.Warn("discard corrupt pending state", zap.String("key", key), zap.Error(err))
			return nil
		}
		s.mu.Lock()
		for _, m := range ps.Markers {
			m.Kind = kind
			if !m.Expired(now) {
				s.markers[kind][m.CorrelationID] = m
			}
		}
		s.mu.Unlock()
		return nil
	}

	if err := loadMarkers(KeyWritingPending, KindWriting); err != nil {
		return err
	}
	if err := loadMarkers(KeyRewritingPending, KindRewriting); err != nil {
		return err
	}

	raw, err := s.store.Get(ctx, KeyOptimisticRows)
	if err != nil {
		return err
	}
	if raw != "" {
		var ps persistedState
		if err := json.Unmarshal([]byte(raw), &ps); err == nil {
			s.mu.Lock()
			for _, p := range ps.Placeholders {
				if now.Sub(p.CreatedAt) <= PlaceholderMaxAge {
					s.placeholders = append(s.placeholders, p)
				}
			}
			s.mu.Unlock()
		}
	}
	return nil
}

func mapValues(m map[string]*Marker) []*Marker {
	list := make([]*Marker, 0, len(m))
	for _, v := range m {
		list = append(list, v)
	}
	return list
}
