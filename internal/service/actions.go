package service

import (
	"context"
	"log"
	"strconv"

	"github.com/google/uuid"
	"github.com/teDdyMucho/groundstandard/internal/jobs"
	"github.com/teDdyMucho/groundstandard/internal/webhook"
	gerrors "github.com/teDdyMucho/groundstandard/pkg/errors"
	"github.com/teDdyMucho/groundstandard/pkg/xerr"
)

// CreateRequest 创建文章意图
type CreateRequest struct {
	Keyword      string `json:"keyword"`
	Count        int    `json:"count"`
	BusinessName string `json:"business_name"`
	City         string `json:"city"`
	State        string `json:"state"`
	CallToAction string `json:"call_to_action"`
}

// WriteRequest 写作意图
type WriteRequest struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	Model              string `json:"model"`
	WordLimit          int    `json:"word_limit"`
	AdditionalKeywords string `json:"additional_keywords"`
	MentionsMin        int    `json:"mentions_min"`
	MentionsMax        int    `json:"mentions_max"`
	Instructions       string `json:"instructions"`
	Website            string `json:"website"`
}

// RewriteRequest 重写意图
type RewriteRequest struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	Model              string `json:"model"`
	WordLimit          int    `json:"word_limit"`
	AdditionalKeywords string `json:"additional_keywords"`
	MentionsMin        int    `json:"mentions_min"`
	MentionsMax        int    `json:"mentions_max"`
	Instructions       string `json:"instructions"`
	Source             string `json:"source"`
}

// CreateArticles 创建命令：先挂乐观占位再发 webhook，失败回滚占位
func (d *Dashboard) CreateArticles(ctx context.Context, req CreateRequest) error {
	if req.Keyword == "" {
		return gerrors.New(xerr.ErrMissingParameter, "keyword is required")
	}
	if req.Count <= 0 {
		req.Count = 1
	}

	correlationID := uuid.NewString()
	added := d.state.AddPlaceholders(req.Keyword, correlationID, req.Count)

	err := d.hooks.Send(ctx, webhook.CmdCreate, webhook.CreatePayload{
		Keyword:       req.Keyword,
		Count:         req.Count,
		BusinessName:  req.BusinessName,
		City:          req.City,
		State:         req.State,
		CallToAction:  req.CallToAction,
		CorrelationID: correlationID,
	})
	if err != nil {
		// Webhook 失败，乐观状态回滚
		ids := make([]string, 0, len(added))
		for _, p := range added {
			ids = append(ids, p.ID)
		}
		d.state.RemovePlaceholders(ids)
		return err
	}

	log.Printf("📝 [Dispatch] Create sent: keyword=%s count=%d", req.Keyword, req.Count)
	return nil
}

// WriteArticle 写作命令：登记 writing 标记 (含任务前快照)，失败回滚
func (d *Dashboard) WriteArticle(ctx context.Context, req WriteRequest) error {
	if req.ID == "" && req.Title == "" {
		return gerrors.New(xerr.ErrMissingParameter, "id or title is required")
	}
	// 同一行写作/重写互斥，界面层约定，这里再兜一道
	if d.state.IsPending(jobs.KindWriting, req.ID, req.Title) ||
		d.state.IsPending(jobs.KindRewriting, req.ID, req.Title) {
		return gerrors.New(xerr.ErrJobConflict, "a job is already in flight for this row")
	}

	marker := d.state.MarkPending(jobs.KindWriting, req.ID, req.Title, d.snapshotFor(req.ID, req.Title))

	err := d.hooks.Send(ctx, webhook.CmdWrite, webhook.WritePayload{
		ID:                 req.ID,
		Title:              req.Title,
		Model:              req.Model,
		WordLimit:          req.WordLimit,
		AdditionalKeywords: req.AdditionalKeywords,
		Mentions:           webhook.MentionRange{Min: req.MentionsMin, Max: req.MentionsMax},
		Instructions:       req.Instructions,
		Website:            req.Website,
		CorrelationID:      marker.CorrelationID,
	})
	if err != nil {
		d.state.Remove([]*jobs.Marker{marker})
		return err
	}

	log.Printf("✍️ [Dispatch] Write sent: id=%s title=%s", req.ID, req.Title)
	return nil
}

// RewriteArticle 重写命令：三种载荷形态兜底，失败回滚标记
func (d *Dashboard) RewriteArticle(ctx context.Context, req RewriteRequest) error {
	if req.ID == "" && req.Title == "" {
		return gerrors.New(xerr.ErrMissingParameter, "id or title is required")
	}
	if d.state.IsPending(jobs.KindWriting, req.ID, req.Title) ||
		d.state.IsPending(jobs.KindRewriting, req.ID, req.Title) {
		return gerrors.New(xerr.ErrJobConflict, "a job is already in flight for this row")
	}

	rec := d.findRecord(req.ID, req.Title)
	snap := d.snapshotFor(req.ID, req.Title)

	marker := d.state.MarkPending(jobs.KindRewriting, req.ID, req.Title, snap)

	payload := webhook.RewritePayload{
		ID:                 req.ID,
		Title:              req.Title,
		DocLink:            snap.DocLink,
		Content:            snap.Content,
		WordLimit:          req.WordLimit,
		AdditionalKeywords: req.AdditionalKeywords,
		Mentions:           webhook.MentionRange{Min: req.MentionsMin, Max: req.MentionsMax},
		Action:             "rewrite",
		Source:             req.Source,
		Instructions:       req.Instructions,
		Model:              req.Model,
		CorrelationID:      marker.CorrelationID,
	}
	if rec != nil {
		payload.Keyword = rec.Keyword
		payload.Status = rec.Status
		if payload.Title == "" {
			payload.Title = rec.Title
		}
	}

	if err := d.hooks.SendRewrite(ctx, payload); err != nil {
		d.state.Remove([]*jobs.Marker{marker})
		return err
	}

	log.Printf("🔁 [Dispatch] Rewrite sent: id=%s title=%s", req.ID, req.Title)
	return nil
}

// DeleteArticles 同步等托管库删完，成功才清相关标记
// 失败时本地状态原样保留 (选中/标记都要还原)
func (d *Dashboard) DeleteArticles(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return gerrors.New(xerr.ErrMissingParameter, "ids are required")
	}

	numeric := make([]int64, 0, len(ids))
	for _, id := range ids {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return gerrors.New(xerr.ErrInvalidInput, "invalid article id: "+id)
		}
		numeric = append(numeric, n)
	}

	// 清标记要用到 title，删之前先从缓存里记下来
	titles := make(map[string]string, len(ids))
	for _, id := range ids {
		if rec := d.findRecord(id, ""); rec != nil {
			titles[id] = rec.Title
		}
	}

	if err := d.store.DeleteByIDs(ctx, numeric); err != nil {
		return gerrors.Wrap(xerr.ErrDeleteFailed, "delete failed", err)
	}

	for _, id := range ids {
		d.state.ClearPending(jobs.KindWriting, id, titles[id])
		d.state.ClearPending(jobs.KindRewriting, id, titles[id])
	}

	log.Printf("🗑️ [Dispatch] Deleted %d rows", len(numeric))
	if d.poker != nil {
		d.poker.Poke()
	}
	return nil
}

// CreateTag 建标签命令，标签行由外部工作流写回 Tags 表
func (d *Dashboard) CreateTag(ctx context.Context, tag, color string) error {
	if tag == "" {
		return gerrors.New(xerr.ErrMissingParameter, "tag is required")
	}
	return d.hooks.Send(ctx, webhook.CmdCreateTag, webhook.TagPayload{Tag: tag, Color: color})
}

// snapshotFor 任务前快照：缓存里找不到该行时快照为空
// (创建后立即写作的场景)，空快照 + 之后出现值同样算完成
func (d *Dashboard) snapshotFor(id, title string) jobs.Snapshot {
	rec := d.findRecord(id, title)
	if rec == nil {
		return jobs.Snapshot{}
	}
	return jobs.Snapshot{
		DocLink: rec.DocLinkValue(),
		Content: rec.ContentValue(),
	}
}
