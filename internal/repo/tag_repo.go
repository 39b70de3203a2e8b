package repo

import (
	"context"

	"github.com/teDdyMucho/groundstandard/pkg/db"
	"github.com/teDdyMucho/groundstandard/pkg/db/objects"
)

type TagRepo struct{}

func NewTagRepo() *TagRepo { return &TagRepo{} }

// ListAll 标签表全量，新建在前
func (r *TagRepo) ListAll(ctx context.Context) ([]*objects.ArticleTag, error) {
	conn, err := db.GetStoreConn(db.STORE_DB_RESEARCH)
	if err != nil {
		return nil, err
	}
	var list []*objects.ArticleTag
	err = conn.WithContext(ctx).
		Order("created_at DESC").Find(&list).Error
	return list, err
}
