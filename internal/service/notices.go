package service

import (
	"sync"
	"time"
)

// Notice 完成通知，界面拉走即清
type Notice struct {
	Kind    string    `json:"kind"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// NoticeRing 容量封顶的通知队列，溢出丢最老的
type NoticeRing struct {
	mu    sync.Mutex
	cap   int
	items []Notice
}

func NewNoticeRing(capacity int) *NoticeRing {
	return &NoticeRing{cap: capacity}
}

func (r *NoticeRing) Push(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
	if len(r.items) > r.cap {
		r.items = r.items[len(r.items)-r.cap:]
	}
}

func (r *NoticeRing) Drain() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.items
	r.items = nil
	return out
}
