package article

import (
	"context"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"tech-news-api/internal/domain"
	"tech-news-api/internal/feature/content"
	"tech-news-api/internal/feature/media"
	"tech-news-api/pkg/utils"
)

// Media media.Manager 中用到的部分
type Media interface {
	Store(ctx context.Context, r io.Reader, originalName string, area media.Area) (string, error)
	Delete(ctx context.Context, rawURL string, area media.Area)
	Owns(rawURL string, area media.Area) (string, bool)
}

type Upload struct {
	Name string
	Body io.Reader
}

type CreateInput struct {
	Title       string
	Content     string
	ContentType string
	Category    string
	Image       string // 没有上传文件时可直接给 URL
	ImageFile   *Upload
}

// Patch nil 表示不修改
type Patch struct {
	Title       *string
	Content     *string
	ContentType *string
	Category    *string
	ImageFile   *Upload
}

type ListOptions struct {
	Category string
	Newest   bool // true 时按创建倒序，默认保持持久化顺序
}

type Store struct {
	repo  domain.ArticleRepository
	media Media
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

func NewStore(repo domain.ArticleRepository, m Media, l *zap.Logger) *Store {
	if l == nil {
		l = zap.NewNop()
	}
	return &Store{repo: repo, media: m, log: l, now: time.Now, newID: utils.NewID}
}

func (s *Store) ListAll(ctx context.Context) []domain.Article {
	return s.repo.LoadAll(ctx)
}

func (s *Store) List(ctx context.Context, opt ListOptions) []domain.Article {
	all := s.repo.LoadAll(ctx)
	cat := strings.TrimSpace(opt.Category)
	out := make([]domain.Article, 0, len(all))
	for _, a := range all {
		if cat != "" && !strings.EqualFold(a.Category, cat) {
			continue
		}
		out = append(out, a)
	}
	if opt.Newest {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

func (s *Store) Get(ctx context.Context, id string) (domain.Article, error) {
	for _, a := range s.repo.LoadAll(ctx) {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Article{}, errNotFound
}

var errNotFound = domain.NotFound("article not found")

func requireAdmin(actor domain.Actor) error {
	if !actor.IsAdmin() {
		return domain.Forbidden("admin access required")
	}
	return nil
}

func (s *Store) Create(ctx context.Context, actor domain.Actor, in CreateInput) (domain.Article, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Article{}, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return domain.Article{}, domain.Validation("title is required")
	}
	body, err := content.Parse(in.ContentType, in.Content)
	if err != nil {
		return domain.Article{}, err
	}
	articles, err := s.repo.Load(ctx)
	if err != nil {
		return domain.Article{}, domain.Internal("load articles", err)
	}

	image := strings.TrimSpace(in.Image)
	stored := ""
	if in.ImageFile != nil {
		u, err := s.media.Store(ctx, in.ImageFile.Body, in.ImageFile.Name, media.HeroImages)
		if err != nil {
			return domain.Article{}, err
		}
		image, stored = u, u
	}

	now := s.now().UTC()
	a := domain.Article{
		ID:          s.newID(),
		Title:       in.Title,
		Image:       image,
		Content:     body.Body,
		ContentType: string(body.Kind),
		Category:    in.Category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	articles = append(articles, a)
	if err := s.repo.SaveAll(ctx, articles); err != nil {
		if stored != "" {
			s.media.Delete(ctx, stored, media.HeroImages)
		}
		return domain.Article{}, domain.Internal("save articles", err)
	}
	mutations.WithLabelValues("create").Inc()
	s.log.Info("article created", zap.String("id", a.ID), zap.String("by", actor.ID))
	return a, nil
}

func (s *Store) Update(ctx context.Context, actor domain.Actor, id string, p Patch) (domain.Article, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Article{}, err
	}
	articles, err := s.repo.Load(ctx)
	if err != nil {
		return domain.Article{}, domain.Internal("load articles", err)
	}
	idx := indexOf(articles, id)
	if idx < 0 {
		return domain.Article{}, errNotFound
	}
	prev := articles[idx]
	next := prev

	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return domain.Article{}, domain.Validation("title is required")
		}
		next.Title = *p.Title
	}
	if p.Category != nil {
		next.Category = *p.Category
	}
	if p.Content != nil || p.ContentType != nil {
		body, hint := prev.Content, ""
		if p.Content != nil {
			body = *p.Content
		}
		if p.ContentType != nil {
			hint = *p.ContentType
		}
		c, err := content.Parse(hint, body)
		if err != nil {
			return domain.Article{}, err
		}
		next.Content, next.ContentType = c.Body, string(c.Kind)
	}

	stored := ""
	if p.ImageFile != nil {
		u, err := s.media.Store(ctx, p.ImageFile.Body, p.ImageFile.Name, media.HeroImages)
		if err != nil {
			return domain.Article{}, err
		}
		next.Image, stored = u, u
	}
	next.UpdatedAt = s.now().UTC()

	articles[idx] = next
	if err := s.repo.SaveAll(ctx, articles); err != nil {
		if stored != "" {
			s.media.Delete(ctx, stored, media.HeroImages)
		}
		return domain.Article{}, domain.Internal("save articles", err)
	}
	mutations.WithLabelValues("update").Inc()

	// 旧封面、被移出正文的内嵌图：没有其它文章引用时清掉
	var dropped []string
	if stored != "" && prev.Image != next.Image {
		dropped = append(dropped, prev.Image)
	}
	if prev.Content != next.Content {
		kept := toSet(content.References(content.Of(next)))
		for _, ref := range content.References(content.Of(prev)) {
			if _, ok := kept[ref]; !ok {
				dropped = append(dropped, ref)
			}
		}
	}
	s.release(ctx, dropped, articles)
	return next, nil
}

func (s *Store) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	articles, err := s.repo.Load(ctx)
	if err != nil {
		return domain.Internal("load articles", err)
	}
	idx := indexOf(articles, id)
	if idx < 0 {
		return errNotFound
	}
	gone := articles[idx]
	rest := append(articles[:idx:idx], articles[idx+1:]...)
	if err := s.repo.SaveAll(ctx, rest); err != nil {
		return domain.Internal("save articles", err)
	}
	mutations.WithLabelValues("delete").Inc()
	s.log.Info("article deleted", zap.String("id", id), zap.String("by", actor.ID))

	s.release(ctx, append([]string{gone.Image}, content.References(content.Of(gone))...), rest)
	return nil
}

// release 只删除本服务托管、且 remaining 中没有任何文章再引用的文件
func (s *Store) release(ctx context.Context, urls []string, remaining []domain.Article) {
	if len(urls) == 0 {
		return
	}
	inUse := make(map[string]struct{})
	for _, a := range remaining {
		if a.Image != "" {
			inUse[a.Image] = struct{}{}
		}
		for _, ref := range content.References(content.Of(a)) {
			inUse[ref] = struct{}{}
		}
	}
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, ok := inUse[u]; ok {
			continue
		}
		for _, area := range media.Areas {
			if _, ok := s.media.Owns(u, area); ok {
				s.media.Delete(ctx, u, area)
				break
			}
		}
	}
}

func indexOf(articles []domain.Article, id string) int {
	for i := range articles {
		if articles[i].ID == id {
			return i
		}
	}
	return -1
}

func toSet(ss []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ss))
	for _, s := range ss {
		m[s] = struct{}{}
	}
	return m
}
