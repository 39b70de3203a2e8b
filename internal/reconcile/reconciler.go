// Package reconcile 把库里的真实记录、乐观占位行和待处理标记
// 合并成仪表盘渲染的唯一有序列表，并决定占位/标记何时消失。
//
// 这里全部是纯状态变换：不做 IO，不会失败，协作方的错误由上层兜。
// 关键词计数裁剪是近似算法：同一关键词的两批创建请求在时间上交叠时，
// 新到的真实行可能被算到错误的批次头上，属于已知局限。
package reconcile

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/teDdyMucho/groundstandard/internal/jobs"
	"github.com/teDdyMucho/groundstandard/pkg/db/objects"
)

// PageSize 固定分页大小
const PageSize = 10

// Filter 搜索词 + 状态过滤
// Status 为 "all" 或空串时不过滤；比较区分大小写 (库里就是 new/writing/Used/error)
type Filter struct {
	Search string
	Status string
}

// matches 标题或关键词包含搜索词 (不区分大小写)，且状态命中
func (f Filter) matches(title, keyword, status string) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(title), needle) &&
			!strings.Contains(strings.ToLower(keyword), needle) {
			return false
		}
	}
	if f.Status != "" && f.Status != "all" && status != f.Status {
		return false
	}
	return true
}

// Row 合并视图里的一行
// Synthetic 标记非权威行 (占位)；Pending 标记真实行上转圈中的任务类型
type Row struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Keyword      string  `json:"keyword"`
	DocLink      *string `json:"doc_link"`
	Content      *string `json:"content,omitempty"`
	Status       string  `json:"status"`
	BusinessName *string `json:"business_name,omitempty"`
	Website      *string `json:"website,omitempty"`
	Synthetic    bool    `json:"synthetic"`
	Pending      string  `json:"pending,omitempty"`
}

// Page 分页后的合并视图
type Page struct {
	Rows       []Row `json:"rows"`
	Total      int   `json:"total"`
	Page       int   `json:"page"`
	TotalPages int   `json:"total_pages"`
}

// StatusProcessing 占位行展示的状态
const StatusProcessing = "processing"

// MergeView 合并算法 (见包注释)，产出未分页的完整有序列表
func MergeView(records []*objects.ResearchArticle, f Filter,
	placeholders []*jobs.Placeholder, writing, rewriting []*jobs.Marker,
	now time.Time) []Row {

	// 1. 过滤真实记录
	var real []*objects.ResearchArticle
	for _, r := range records {
		if f.matches(r.Title, r.Keyword, r.Status) {
			real = append(real, r)
		}
	}

	// 2. 真实记录按数字 id 降序
	sort.Slice(real, func(i, j int) bool {
		return real[i].ID > real[j].ID
	})

	// 3. 写作标记里找不到对应真实行的，合成一条处理中占位
	//    多个写作同时在途时只展示启动最晚的一条，其余只影响按钮态，避免刷屏
	var writingRows []Row
	if m := latestUnmatched(writing, records, now); m != nil {
		title := m.Title
		if title == "" {
			title = jobs.PlaceholderTitle
		}
		writingRows = append(writingRows, Row{
			ID:        "pending-" + m.CorrelationID,
			Title:     title,
			Status:    StatusProcessing,
			Synthetic: true,
			Pending:   string(jobs.KindWriting),
		})
	}

	// 4. 乐观占位行走同一套过滤，创建时间倒序 (调用方已排好)
	var phRows []Row
	for _, p := range placeholders {
		if now.Sub(p.CreatedAt) > jobs.PlaceholderMaxAge {
			continue
		}
		if !f.matches(jobs.PlaceholderTitle, p.Keyword, StatusProcessing) {
			continue
		}
		phRows = append(phRows, Row{
			ID:        p.ID,
			Keyword:   p.Keyword,
			Title:     jobs.PlaceholderTitle,
			Status:    StatusProcessing,
			Synthetic: true,
		})
	}

	// 5. 拼接：写作占位 -> 乐观占位 -> 真实记录
	rows := make([]Row, 0, len(writingRows)+len(phRows)+len(real))
	rows = append(rows, writingRows...)
	rows = append(rows, phRows...)
	for _, r := range real {
		rows = append(rows, realRow(r, writing, rewriting, now))
	}
	return rows
}

// Paginate 固定页长切片，page 越界收敛到合法区间
func Paginate(rows []Row, page int) Page {
	total := len(rows)
	totalPages := (total + PageSize - 1) / PageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * PageSize
	end := start + PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return Page{
		Rows:       rows[start:end],
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	}
}

// realRow 真实记录转视图行，带上在途任务的按钮态
func realRow(r *objects.ResearchArticle, writing, rewriting []*jobs.Marker, now time.Time) Row {
	row := Row{
		ID:           strconv.FormatInt(r.ID, 10),
		Title:        r.Title,
		Keyword:      r.Keyword,
		DocLink:      r.DocLink,
		Content:      r.Content,
		Status:       r.Status,
		BusinessName: r.BusinessName,
		Website:      r.Website,
	}
	id := row.ID
	for _, m := range writing {
		if m.Matches(id, r.Title) && !m.Expired(now) {
			row.Pending = string(jobs.KindWriting)
			return row
		}
	}
	for _, m := range rewriting {
		if m.Matches(id, r.Title) && !m.Expired(now) {
			row.Pending = string(jobs.KindRewriting)
			return row
		}
	}
	return row
}

// latestUnmatched 启动最晚、且库里还没有对应行的写作标记
func latestUnmatched(markers []*jobs.Marker, records []*objects.ResearchArticle, now time.Time) *jobs.Marker {
	var latest *jobs.Marker
	for _, m := range markers {
		if m.Expired(now) || matchedByRecord(m, records) {
			continue
		}
		if latest == nil || m.StartedAt.After(latest.StartedAt) {
			latest = m
		}
	}
	return latest
}

func matchedByRecord(m *jobs.Marker, records []*objects.ResearchArticle) bool {
	for _, r := range records {
		if m.Matches(strconv.FormatInt(r.ID, 10), r.Title) {
			return true
		}
	}
	return false
}

// PrunePlaceholders 关键词计数裁剪：每个关键词最多裁掉
// 与该关键词真实行数相等的占位行，最老的先走。返回应删除的占位 id。
// 对相同输入重复执行结果一致 (幂等)。
func PrunePlaceholders(placeholders []*jobs.Placeholder, records []*objects.ResearchArticle) []string {
	if len(placeholders) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Keyword]++
	}

	// 最老优先
	ordered := append([]*jobs.Placeholder(nil), placeholders...)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	var drop []string
	for _, p := range ordered {
		if counts[p.Keyword] > 0 {
			counts[p.Keyword]--
			drop = append(drop, p.ID)
		}
	}
	return drop
}

// ResolveMarkers 快照比对：库里该行的 doc_link 或 content 相对任务启动时
// 的快照发生变化 (或快照为空而现在有值) 即视为完成。返回已完成的标记。
func ResolveMarkers(markers []*jobs.Marker, records []*objects.ResearchArticle) []*jobs.Marker {
	var done []*jobs.Marker
	for _, m := range markers {
		for _, r := range records {
			if !m.Matches(strconv.FormatInt(r.ID, 10), r.Title) {
				continue
			}
			if r.DocLinkValue() != m.Snapshot.DocLink || r.ContentValue() != m.Snapshot.Content {
				done = append(done, m)
			}
			break
		}
	}
	return done
}

// Stats 仪表盘顶部统计卡
type Stats struct {
	Total        int `json:"total"`
	New          int `json:"new"`
	WithLinks    int `json:"with_links"`
	WithoutLinks int `json:"without_links"`
}

// ComputeStats 全量统计，doc_link 去空格后非空才算有链接
func ComputeStats(records []*objects.ResearchArticle) Stats {
	s := Stats{Total: len(records)}
	for _, r := range records {
		if r.Status == "new" {
			s.New++
		}
		if strings.TrimSpace(r.DocLinkValue()) != "" {
			s.WithLinks++
		}
	}
	s.WithoutLinks = s.Total - s.WithLinks
	return s
}
