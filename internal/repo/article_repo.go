package repo

import (
	"context"

	"github.com/teDdyMucho/groundstandard/pkg/db"
	"github.com/teDdyMucho/groundstandard/pkg/db/objects"
)

type ArticleRepo struct{}

func NewArticleRepo() *ArticleRepo { return &ArticleRepo{} }

// ListAll 全量拉取 Research 表，不分页不增量
// 连接失败作为普通错误上浮，上层映射成可重试的存储错误
func (r *ArticleRepo) ListAll(ctx context.Context) ([]*objects.ResearchArticle, error) {
	conn, err := db.GetStoreConn(db.STORE_DB_RESEARCH)
	if err != nil {
		return nil, err
	}
	var list []*objects.ResearchArticle
	err = conn.WithContext(ctx).Find(&list).Error
	return list, err
}

// DeleteByIDs 按 id 集合删行
// 原子性交给托管库自身语义，客户端不包事务
func (r *ArticleRepo) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	conn, err := db.GetStoreConn(db.STORE_DB_RESEARCH)
	if err != nil {
		return err
	}
	return conn.WithContext(ctx).
		Where("id IN ?", ids).Delete(&objects.ResearchArticle{}).Error
}
