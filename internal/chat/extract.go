package chat

import (
	"encoding/json"
	"html"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"
)

// replyShape 聊天端点已知的响应结构
// 字段可能平铺，也可能包在 output 里，还可能是它们组成的数组
type replyShape struct {
	Message string      `json:"message"`
	Article string      `json:"article"`
	Output  *replyShape `json:"output"`
}

func (r *replyShape) flatten() (string, string) {
	msg, art := r.Message, r.Article
	if r.Output != nil {
		if msg == "" {
			msg = r.Output.Message
		}
		if art == "" {
			art = r.Output.Article
		}
	}
	return msg, art
}

// ExtractReply 从响应体抽取机器人文本和可选的文章文本
// 先按已知结构严格解析；解析不动才把整个响应体当纯文本，
// 不做递归的无类型遍历
func ExtractReply(raw string) (botText, article string) {
	trimmed := strings.TrimSpace(raw)

	var single replyShape
	if err := json.Unmarshal([]byte(trimmed), &single); err == nil {
		botText, article = single.flatten()
	} else {
		var list []replyShape
		if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
			for _, item := range list {
				m, a := item.flatten()
				if botText == "" {
					botText = m
				}
				if article == "" {
					article = a
				}
			}
		}
	}

	// 纯文本兜底：JSON 没解出内容就原样用
	if botText == "" {
		botText = raw
	}

	botText = Normalize(botText)
	if article != "" {
		article = Normalize(article)
	}
	return botText, article
}

var iframeSrcdoc = regexp.MustCompile(`(?i)<iframe[^>]*srcdoc=("|')([\s\S]*?)("|')[\s\S]*?>`)

// Normalize HTML 响应归一为纯文本：
// 解 iframe srcdoc 包裹、去首尾引号、解实体、剥标签
func Normalize(raw string) string {
	text := strings.TrimSpace(raw)

	if m := iframeSrcdoc.FindStringSubmatch(text); m != nil {
		text = m[2]
	}

	if len(text) >= 2 {
		if (strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`)) ||
			(strings.HasPrefix(text, "'") && strings.HasSuffix(text, "'")) {
			text = text[1 : len(text)-1]
		}
	}

	text = html.UnescapeString(text)
	return stripTags(text)
}

// stripTags 用 tokenizer 剥掉所有标签，只留文本节点
func stripTags(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	var b strings.Builder
	tz := xhtml.NewTokenizer(strings.NewReader(s))
	for {
		tt := tz.Next()
		if tt == xhtml.ErrorToken {
			break
		}
		if tt == xhtml.TextToken {
			b.Write(tz.Text())
		}
	}
	return b.String()
}
