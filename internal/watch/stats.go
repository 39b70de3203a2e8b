package watch

import (
	"fmt"
	"sync"
	"time"
)

// StatsView 轮询运行时状态，仪表盘展示用
type StatsView struct {
	Status      string `json:"status"` // Idle, Running, Error
	LastRunTime string `json:"last_run"`
	LastResult  string `json:"last_result"`
	RunCount    int64  `json:"run_count"`
	ChangeCount int64  `json:"change_count"`
	RowCount    int    `json:"row_count"`
}

type RefreshStats struct {
	mu   sync.RWMutex
	view StatsView
}

func NewRefreshStats() *RefreshStats {
	return &RefreshStats{view: StatsView{Status: "Idle", LastResult: "Pending"}}
}

func (s *RefreshStats) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Status = "Running"
	s.view.LastRunTime = time.Now().Format("2006-01-02 15:04:05")
	s.view.RunCount++
}

func (s *RefreshStats) ok(changed bool, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Status = "Idle"
	s.view.LastResult = "Success"
	s.view.RowCount = rows
	if changed {
		s.view.ChangeCount++
	}
}

func (s *RefreshStats) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Status = "Error"
	s.view.LastResult = fmt.Sprintf("Error: %v", err)
}

// View 加锁拷贝一份给 handler 返回
func (s *RefreshStats) View() StatsView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}
