package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teDdyMucho/groundstandard/internal/jobs"
	"github.com/teDdyMucho/groundstandard/internal/reconcile"
	"github.com/teDdyMucho/groundstandard/internal/webhook"
	"github.com/teDdyMucho/groundstandard/pkg/db/objects"
	gerrors "github.com/teDdyMucho/groundstandard/pkg/errors"
	"github.com/teDdyMucho/groundstandard/pkg/xerr"
)

type fakeArticleStore struct {
	records   []*objects.ResearchArticle
	listErr   error
	deleteErr error
	deleted   []int64
}

func (f *fakeArticleStore) ListAll(ctx context.Context) ([]*objects.ResearchArticle, error) {
	return f.records, f.listErr
}

func (f *fakeArticleStore) DeleteByIDs(ctx context.Context, ids []int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, ids...)
	return nil
}

type fakeTagStore struct {
	tags []*objects.ArticleTag
}

func (f *fakeTagStore) ListAll(ctx context.Context) ([]*objects.ArticleTag, error) {
	return f.tags, nil
}

type fakePoker struct{ poked int }

func (f *fakePoker) Poke() { f.poked++ }

func strPtr(s string) *string { return &s }

// webhookServer 固定状态码的假工作流端点
func webhookServer(t *testing.T, status int) (*httptest.Server, *webhook.Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	client := webhook.NewClient(webhook.Endpoints{
		Research: srv.URL, Write: srv.URL, Rewrite: srv.URL, CreateTag: srv.URL,
	})
	return srv, client
}

func newTestDashboard(t *testing.T, store *fakeArticleStore, hooks *webhook.Client) (*Dashboard, *jobs.State) {
	t.Helper()
	state := jobs.NewState(jobs.NewMemoryStore())
	d := NewDashboard(store, &fakeTagStore{}, hooks, state, jobs.NewMemoryStore())
	return d, state
}

// 测试创建失败回滚：webhook 报错后乐观占位应消失
func TestCreateRollbackOnWebhookFailure(t *testing.T) {
	_, hooks := webhookServer(t, 500)
	d, state := newTestDashboard(t, &fakeArticleStore{}, hooks)

	err := d.CreateArticles(context.Background(), CreateRequest{Keyword: "seo", Count: 3})
	require.Error(t, err)
	assert.Empty(t, state.Placeholders(), "webhook 失败后占位应全部回滚")
}

func TestCreateSuccessKeepsPlaceholders(t *testing.T) {
	_, hooks := webhookServer(t, 200)
	d, state := newTestDashboard(t, &fakeArticleStore{}, hooks)

	require.NoError(t, d.CreateArticles(context.Background(), CreateRequest{Keyword: "seo", Count: 2}))
	assert.Len(t, state.Placeholders(), 2)
}

// 测试写作失败回滚标记
func TestWriteRollbackOnWebhookFailure(t *testing.T) {
	_, hooks := webhookServer(t, 502)
	d, state := newTestDashboard(t, &fakeArticleStore{}, hooks)

	err := d.WriteArticle(context.Background(), WriteRequest{ID: "7", Title: "T"})
	require.Error(t, err)
	assert.False(t, state.IsPending(jobs.KindWriting, "7", "T"), "失败后标记应回滚")
}

// 测试同一行写作/重写互斥
func TestWriteRewriteMutualExclusion(t *testing.T) {
	_, hooks := webhookServer(t, 200)
	d, state := newTestDashboard(t, &fakeArticleStore{}, hooks)

	require.NoError(t, d.WriteArticle(context.Background(), WriteRequest{ID: "7", Title: "T"}))
	require.True(t, state.IsPending(jobs.KindWriting, "7", ""))

	err := d.RewriteArticle(context.Background(), RewriteRequest{ID: "7", Title: "T"})
	require.Error(t, err)
	var cm *gerrors.CodeMsg
	require.ErrorAs(t, err, &cm)
	assert.Equal(t, xerr.ErrJobConflict, cm.Code)
}

// 测试完成判定闭环：写作 -> 存储变更 content 出现 -> 标记清除 + 通知
func TestWriteResolvedByStoreChange(t *testing.T) {
	_, hooks := webhookServer(t, 200)
	store := &fakeArticleStore{records: []*objects.ResearchArticle{
		{ID: 7, Title: "T", Keyword: "seo", Status: "new"},
	}}
	d, state := newTestDashboard(t, store, hooks)
	require.NoError(t, d.Refresh(context.Background()))

	require.NoError(t, d.WriteArticle(context.Background(), WriteRequest{ID: "7", Title: "T"}))
	require.True(t, state.IsPending(jobs.KindWriting, "7", ""))

	// 库里该行长出了 content
	d.OnStoreChange([]*objects.ResearchArticle{
		{ID: 7, Title: "T", Keyword: "seo", Status: "writing", Content: strPtr("<p>done</p>")},
	})

	assert.False(t, state.IsPending(jobs.KindWriting, "7", ""), "content 出现后标记应清除")
	notices := d.Notifications()
	require.Len(t, notices, 1)
	assert.Equal(t, "writing", notices[0].Kind)
	assert.Empty(t, d.Notifications(), "通知拉走即清")
}

// 测试占位裁剪闭环：创建两条 -> 库里长出两条同关键词真实行 -> 占位消失
func TestPlaceholdersPrunedByStoreChange(t *testing.T) {
	_, hooks := webhookServer(t, 200)
	store := &fakeArticleStore{}
	d, state := newTestDashboard(t, store, hooks)

	require.NoError(t, d.CreateArticles(context.Background(), CreateRequest{Keyword: "seo", Count: 2}))
	require.Len(t, state.Placeholders(), 2)

	d.OnStoreChange([]*objects.ResearchArticle{
		{ID: 1, Title: "A", Keyword: "seo", Status: "new"},
		{ID: 2, Title: "B", Keyword: "seo", Status: "new"},
	})

	assert.Empty(t, state.Placeholders(), "真实行补齐后占位应被裁掉")
}

// 测试删除：成功清掉该行标记并踢轮询；失败时状态原样保留
func TestDeleteArticles(t *testing.T) {
	_, hooks := webhookServer(t, 200)

	t.Run("成功", func(t *testing.T) {
		store := &fakeArticleStore{records: []*objects.ResearchArticle{
			{ID: 7, Title: "T", Keyword: "seo", Status: "new"},
		}}
		d, state := newTestDashboard(t, store, hooks)
		require.NoError(t, d.Refresh(context.Background()))
		poker := &fakePoker{}
		d.SetPoker(poker)

		require.NoError(t, d.WriteArticle(context.Background(), WriteRequest{ID: "7", Title: "T"}))
		require.NoError(t, d.DeleteArticles(context.Background(), []string{"7"}))

		assert.Equal(t, []int64{7}, store.deleted)
		assert.False(t, state.IsPending(jobs.KindWriting, "7", "T"), "删除成功应清掉标记")
		assert.Equal(t, 1, poker.poked, "删除后应踢一脚轮询")
	})

	t.Run("失败保留状态", func(t *testing.T) {
		store := &fakeArticleStore{deleteErr: errors.New("connection reset")}
		d, state := newTestDashboard(t, store, hooks)

		require.NoError(t, d.WriteArticle(context.Background(), WriteRequest{ID: "7", Title: "T"}))
		err := d.DeleteArticles(context.Background(), []string{"7"})
		require.Error(t, err)

		var cm *gerrors.CodeMsg
		require.ErrorAs(t, err, &cm)
		assert.Equal(t, xerr.ErrDeleteFailed, cm.Code)
		assert.True(t, state.IsPending(jobs.KindWriting, "7", "T"), "删除失败标记应原样保留")
	})

	t.Run("非法 id", func(t *testing.T) {
		d, _ := newTestDashboard(t, &fakeArticleStore{}, hooks)
		assert.Error(t, d.DeleteArticles(context.Background(), []string{"pending-abc"}))
	})
}

// 测试视图：拉取失败且从未加载成功时上浮整页重试错误；有旧缓存时继续用
func TestViewStaleCacheTolerance(t *testing.T) {
	_, hooks := webhookServer(t, 200)

	t.Run("首次加载失败", func(t *testing.T) {
		store := &fakeArticleStore{listErr: errors.New("store down")}
		d, _ := newTestDashboard(t, store, hooks)

		_, err := d.View(context.Background(), reconcile.Filter{}, 1)
		require.Error(t, err)
		var cm *gerrors.CodeMsg
		require.ErrorAs(t, err, &cm)
		assert.Equal(t, xerr.ErrStoreUnavailable, cm.Code)
	})

	t.Run("旧缓存可用", func(t *testing.T) {
		store := &fakeArticleStore{records: []*objects.ResearchArticle{
			{ID: 1, Title: "A", Keyword: "seo", Status: "new"},
		}}
		d, _ := newTestDashboard(t, store, hooks)
		require.NoError(t, d.Refresh(context.Background()))

		// 之后存储挂了，视图仍应出旧数据
		store.listErr = errors.New("store down")
		page, err := d.View(context.Background(), reconcile.Filter{}, 1)
		require.NoError(t, err)
		require.Len(t, page.Rows, 1)
		assert.Equal(t, "1", page.Rows[0].ID)
	})
}

// 测试行标签指派的持久化往返
func TestRowTags(t *testing.T) {
	_, hooks := webhookServer(t, 200)
	kv := jobs.NewMemoryStore()
	state := jobs.NewState(jobs.NewMemoryStore())
	d := NewDashboard(&fakeArticleStore{}, &fakeTagStore{}, hooks, state, kv)
	ctx := context.Background()

	d.AssignTag(ctx, "7", "Priority")
	assert.Equal(t, map[string]string{"7": "Priority"}, d.RowTags(ctx))

	// 新实例从同一存储重建
	d2 := NewDashboard(&fakeArticleStore{}, &fakeTagStore{}, hooks, state, kv)
	assert.Equal(t, map[string]string{"7": "Priority"}, d2.RowTags(ctx))

	d2.AssignTag(ctx, "7", "")
	assert.Empty(t, d2.RowTags(ctx), "空标签应摘除指派")
}
