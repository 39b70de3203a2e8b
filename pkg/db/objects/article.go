package objects

// ResearchArticle 对应托管库的 Research 表
// 由外部工作流负责写入与更新，本服务只读 + 删除
type ResearchArticle struct {
	// ID 主键，由托管库创建行时分配
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	// 标题
	Title string `gorm:"type:varchar(512);not null" json:"title"`

	// 关键词 (创建请求回显)
	Keyword string `gorm:"type:varchar(255);index" json:"keyword"`

	// 文档链接
	// nil 表示尚未生成；空串或 "EMPTY" 表示生成过但没有链接；URL 表示就绪
	DocLink *string `gorm:"type:varchar(1024)" json:"doc_link"`

	// 正文，nil/空串 表示尚未写作
	Content *string `gorm:"type:text" json:"content"`

	// 状态：new / writing / Used / error
	// 外部工作流随意更新，与 doc_link/content 只有松散关联，客户端不做校验
	Status string `gorm:"type:varchar(32)" json:"status"`

	BusinessName *string `gorm:"type:varchar(255)" json:"business_name,omitempty"`
	Website      *string `gorm:"type:varchar(512)" json:"website,omitempty"`
}

// TableName 指定表名 (托管库里就叫 Research，大写开头)
func (ResearchArticle) TableName() string {
	return "Research"
}

// DocLinkValue doc_link 解引用，nil 归一为空串
func (a *ResearchArticle) DocLinkValue() string {
	if a.DocLink == nil {
		return ""
	}
	return *a.DocLink
}

// ContentValue content 解引用，nil 归一为空串
func (a *ResearchArticle) ContentValue() string {
	if a.Content == nil {
		return ""
	}
	return *a.Content
}
