// Package webhook 对外部工作流端点的薄客户端。
// 所有端点都是黑盒：请求只表示"去做"，结果之后经由托管库异步浮现。
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	gerrors "github.com/teDdyMucho/groundstandard/pkg/errors"
	"github.com/teDdyMucho/groundstandard/pkg/logger"
	"github.com/teDdyMucho/groundstandard/pkg/xerr"
	"go.uber.org/zap"
)

// Command 命令名
type Command string

const (
	CmdCreate    Command = "create"
	CmdWrite     Command = "write"
	CmdRewrite   Command = "rewrite"
	CmdCreateTag Command = "create-tag"
)

// Endpoints 各命令对应的 URL
type Endpoints struct {
	Research  string
	Write     string
	Rewrite   string
	CreateTag string
	Chat      string
}

type Client struct {
	http      *http.Client
	endpoints Endpoints
}

// NewClient 超时交给传输层默认值，是接受的局限不是设计选择
func NewClient(eps Endpoints) *Client {
	return &Client{
		http:      &http.Client{},
		endpoints: eps,
	}
}

// MentionRange 每个关键词的提及次数区间
type MentionRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// CreatePayload 创建文章命令
type CreatePayload struct {
	Keyword       string `json:"keyword"`
	Count         int    `json:"count"`
	BusinessName  string `json:"business_name,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	CallToAction  string `json:"call_to_action,omitempty"`
	CorrelationID string `json:"correlation_id"`
}

// WritePayload 写作命令
type WritePayload struct {
	ID                 string       `json:"id"`
	Title              string       `json:"title"`
	Model              string       `json:"model,omitempty"`
	WordLimit          int          `json:"word_limit"`
	AdditionalKeywords string       `json:"additional_keywords"`
	Mentions           MentionRange `json:"mentions_per_keyword"`
	Instructions       string       `json:"instructions,omitempty"`
	Website            string       `json:"website,omitempty"`
	CorrelationID      string       `json:"correlation_id"`
}

// RewritePayload 重写命令最完整的形态
type RewritePayload struct {
	ID                 string       `json:"id"`
	Title              string       `json:"title"`
	Keyword            string       `json:"keyword"`
	DocLink            string       `json:"doc_link"`
	Content            string       `json:"content"`
	Status             string       `json:"status"`
	WordLimit          int          `json:"word_limit"`
	AdditionalKeywords string       `json:"additional_keywords"`
	Mentions           MentionRange `json:"mentions_per_keyword"`
	Action             string       `json:"action"`
	Source             string       `json:"source"`
	Instructions       string       `json:"instructions,omitempty"`
	Model              string       `json:"model,omitempty"`
	CorrelationID      string       `json:"correlation_id"`
}

// TagPayload 建标签命令
type TagPayload struct {
	Tag   string `json:"tag"`
	Color string `json:"color"`
}

// Send 单发一条命令，非 2xx 视为失败，不自动重试
func (c *Client) Send(ctx context.Context, cmd Command, payload any) error {
	url, err := c.endpoint(cmd)
	if err != nil {
		return err
	}
	status, body, err := c.post(ctx, url, payload)
	if err != nil {
		return gerrors.Wrap(xerr.ErrWebhookFailed, fmt.Sprintf("webhook %s unreachable", cmd), err)
	}
	if status < 200 || status >= 300 {
		// 响应体带回去做表单内联展示
		return gerrors.New(xerr.ErrWebhookFailed, fmt.Sprintf("webhook %s: %d %s", cmd, status, string(body)))
	}
	return nil
}

// SendRewrite 重写端点对字段集挑剔，最多按三种载荷形态依次尝试，
// 任何一种成功即成功；全部失败时把三个错误拼起来返回
func (c *Client) SendRewrite(ctx context.Context, p RewritePayload) error {
	if p.Action == "" {
		p.Action = "rewrite"
	}

	full := p

	// 去掉来源行快照字段的形态
	trimmed := map[string]any{
		"id":                   p.ID,
		"title":                p.Title,
		"keyword":              p.Keyword,
		"word_limit":           p.WordLimit,
		"additional_keywords":  p.AdditionalKeywords,
		"mentions_per_keyword": p.Mentions,
		"action":               p.Action,
		"correlation_id":       p.CorrelationID,
	}

	// 最小形态
	minimal := map[string]any{
		"id":     p.ID,
		"title":  p.Title,
		"action": p.Action,
	}

	var errs []error
	for i, payload := range []any{full, trimmed, minimal} {
		err := c.Send(ctx, CmdRewrite, payload)
		if err == nil {
			if i > 0 {
				logger.Info("rewrite webhook accepted fallback shape", zap.Int("variant", i+1))
			}
			return nil
		}
		errs = append(errs, err)
	}
	return gerrors.Wrap(xerr.ErrWebhookFailed, "rewrite webhook rejected all payload shapes", errors.Join(errs...))
}

// Chat 聊天端点；响应体无论成败都带回，上层从中抽取文本
func (c *Client) Chat(ctx context.Context, message, sessionID string) (int, []byte, error) {
	body := map[string]string{
		"message":    message,
		"session_id": sessionID,
	}
	return c.post(ctx, c.endpoints.Chat, body)
}

func (c *Client) endpoint(cmd Command) (string, error) {
	var url string
	switch cmd {
	case CmdCreate:
		url = c.endpoints.Research
	case CmdWrite:
		url = c.endpoints.Write
	case CmdRewrite:
		url = c.endpoints.Rewrite
	case CmdCreateTag:
		url = c.endpoints.CreateTag
	}
	if url == "" {
		return "", gerrors.New(xerr.ErrMissingParameter, fmt.Sprintf("no endpoint configured for command %q", cmd))
	}
	return url, nil
}

func (c *Client) post(ctx context.Context, url string, payload any) (int, []byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body, nil
}
