package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// 测试已知结构抽取：output 包裹的消息和文章
func TestExtractReplyOutputShape(t *testing.T) {
	bot, article := ExtractReply(`{"output":{"message":"hi there","article":"<p>Hello <b>World</b></p>"}}`)
	assert.Equal(t, "hi there", bot)
	assert.Equal(t, "Hello World", article, "文章应剥掉 HTML 标签")
}

func TestExtractReplyFlatShape(t *testing.T) {
	bot, article := ExtractReply(`{"message":"done","article":""}`)
	assert.Equal(t, "done", bot)
	assert.Empty(t, article)
}

// 测试数组形态：取第一个非空的 message/article
func TestExtractReplyArrayShape(t *testing.T) {
	bot, article := ExtractReply(`[{"message":""},{"message":"second","article":"<p>A</p>"}]`)
	assert.Equal(t, "second", bot)
	assert.Equal(t, "A", article)
}

// 测试纯文本兜底：不是 JSON 就原样归一后返回
func TestExtractReplyPlainText(t *testing.T) {
	bot, article := ExtractReply("Sure, I can help with that.")
	assert.Equal(t, "Sure, I can help with that.", bot)
	assert.Empty(t, article)
}

// 测试 JSON 解析成功但字段全空时也走纯文本兜底
func TestExtractReplyEmptyJSON(t *testing.T) {
	bot, _ := ExtractReply(`{"unknown_field":"x"}`)
	assert.Equal(t, `{"unknown_field":"x"}`, bot)
}

func TestNormalize(t *testing.T) {
	t.Run("解实体", func(t *testing.T) {
		assert.Equal(t, "Tom & Jerry", Normalize("Tom &amp; Jerry"))
	})

	t.Run("去首尾引号", func(t *testing.T) {
		assert.Equal(t, "quoted", Normalize(`"quoted"`))
	})

	t.Run("iframe srcdoc 解包裹", func(t *testing.T) {
		raw := `<iframe srcdoc="&lt;p&gt;Inner text&lt;/p&gt;" width="100%"></iframe>`
		assert.Equal(t, "Inner text", Normalize(raw))
	})

	t.Run("剥嵌套标签", func(t *testing.T) {
		assert.Equal(t, "one two", Normalize("<div><span>one </span><em>two</em></div>"))
	})

	t.Run("无标签原样返回", func(t *testing.T) {
		assert.Equal(t, "plain", Normalize("  plain  "))
	})
}
