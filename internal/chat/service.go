package chat

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teDdyMucho/groundstandard/internal/webhook"
	gerrors "github.com/teDdyMucho/groundstandard/pkg/errors"
	"github.com/teDdyMucho/groundstandard/pkg/logger"
	"github.com/teDdyMucho/groundstandard/pkg/sensitive"
	"github.com/teDdyMucho/groundstandard/pkg/xerr"
	"go.uber.org/zap"
)

// Reply 一次聊天往返的结果
type Reply struct {
	Message   string `json:"message"`
	Article   string `json:"article,omitempty"`
	SessionID string `json:"session_id"`
}

// Service 聊天小组件的后端
// 会话标识是随机令牌，挂载时生成，显式重置换新；服务端不做校验
type Service struct {
	client  *webhook.Client
	history History         // 可为 nil，不落库
	filter  *sensitive.Word // 可为 nil，不筛查

	mu        sync.Mutex
	sessionID string
}

func NewService(client *webhook.Client, history History, filter *sensitive.Word) *Service {
	return &Service{
		client:    client,
		history:   history,
		filter:    filter,
		sessionID: uuid.NewString(),
	}
}

// SessionID 当前会话令牌
func (s *Service) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Reset 清会话：换新令牌，历史留在库里不动
func (s *Service) Reset() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = uuid.NewString()
	log.Printf("💬 [Chat] Session reset: %s", s.sessionID)
	return s.sessionID
}

// Send 发一条消息，返回抽取后的机器人文本和可选文章
func (s *Service) Send(ctx context.Context, message string) (*Reply, error) {
	if message == "" {
		return nil, gerrors.New(xerr.ErrMissingParameter, "message is required")
	}

	// 敏感词前置筛查
	if s.filter != nil {
		if ok, word := s.filter.Validate(message); !ok {
			return nil, gerrors.New(xerr.ErrInvalidInput, fmt.Sprintf("message contains blocked word: %s", word))
		}
	}

	sessionID := s.SessionID()
	s.record(ctx, Message{SessionID: sessionID, Role: "user", Text: message, Ts: time.Now()})

	status, body, err := s.client.Chat(ctx, message, sessionID)
	if err != nil {
		return nil, gerrors.Wrap(xerr.ErrWebhookFailed, "chat webhook unreachable", err)
	}

	botText, article := ExtractReply(string(body))
	if status < 200 || status >= 300 {
		msg := botText
		if msg == "" {
			msg = string(body)
		}
		return nil, gerrors.New(xerr.ErrWebhookFailed, fmt.Sprintf("chat error: %d %s", status, msg))
	}

	s.record(ctx, Message{SessionID: sessionID, Role: "bot", Text: botText, Ts: time.Now()})

	return &Reply{Message: botText, Article: article, SessionID: sessionID}, nil
}

// History 当前会话的历史记录
func (s *Service) History(ctx context.Context) ([]Message, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.BySession(ctx, s.SessionID())
}

// record 落库失败只记日志，聊天本身照常
func (s *Service) record(ctx context.Context, msg Message) {
	if s.history == nil {
		return
	}
	if err := s.history.Append(ctx, msg); err != nil {
		logger.Warn("chat history append failed", zap.Error(err))
	}
}
