package app

import (
	"context"
	"log"
	"strings"
	"time"

	"online-shopping/internal/model"
	"online-shopping/internal/repository"
)

type BlogService struct {
	postRepo  *repository.PostRepository
	listCache PostListCache
	publisher SoldOutPublisher
}

// PostListCache stores listings per generation; Invalidate starts a new one.
type PostListCache interface {
	Generation(ctx context.Context) (int64, error)
	GetPosts(ctx context.Context, generation int64) ([]model.PostView, bool, error)
	SetPosts(ctx context.Context, generation int64, posts []model.PostView) error
	Invalidate(ctx context.Context) error
}

type SoldOutPublisher interface {
	PublishSoldOut(ctx context.Context, event model.SoldOutEvent) error
}

type CreatePostInput struct {
	AuthorID uint
	Title    string
	Body     string
}

type UpdatePostInput struct {
	PostID uint
	UserID uint
	Title  string
	Body   string
}

// NewBlogService wires the post store. listCache and publisher may be nil.
func NewBlogService(postRepo *repository.PostRepository, listCache PostListCache, publisher SoldOutPublisher) *BlogService {
	return &BlogService{
		postRepo:  postRepo,
		listCache: listCache,
		publisher: publisher,
	}
}

// ListPosts returns every post newest first. The cache generation is read
// before the database so a listing loaded across a mutation is stored under
// a generation no reader asks for again.
func (s *BlogService) ListPosts(ctx context.Context) ([]model.PostView, error) {
	useCache := s.listCache != nil
	var generation int64
	if useCache {
		gen, err := s.listCache.Generation(ctx)
		if err != nil {
			log.Printf("read post list cache generation failed: %v", err)
			useCache = false
		}
		generation = gen
	}
	if useCache {
		cached, hit, err := s.listCache.GetPosts(ctx, generation)
		if err != nil {
			log.Printf("read post list cache failed: %v", err)
		} else if hit {
			return cached, nil
		}
	}

	posts, err := s.postRepo.ListViews(ctx)
	if err != nil {
		return nil, err
	}
	if useCache {
		if err := s.listCache.SetPosts(ctx, generation, posts); err != nil {
			log.Printf("store post list cache failed: %v", err)
		}
	}
	return posts, nil
}

// Search returns the newest post whose title contains term, or nil when
// term is blank or nothing matches. Matching is case-sensitive.
func (s *BlogService) Search(ctx context.Context, term string) (*model.PostView, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}

	posts, err := s.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if strings.Contains(posts[i].Title, term) {
			return &posts[i], nil
		}
	}
	return nil, nil
}

// GetPost loads a post for userID. With checkAuthor set, only the author may see it.
func (s *BlogService) GetPost(ctx context.Context, postID, userID uint, checkAuthor bool) (*model.PostView, error) {
	if postID == 0 {
		return nil, ErrPostNotFound
	}
	post, err := s.postRepo.GetViewByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if checkAuthor && post.AuthorID != userID {
		return nil, ErrForbidden
	}
	return post, nil
}

func (s *BlogService) CreatePost(ctx context.Context, input CreatePostInput) (*model.Post, error) {
	if input.AuthorID == 0 {
		return nil, ErrInvalidInput
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	post := &model.Post{
		AuthorID: input.AuthorID,
		Title:    title,
		Body:     input.Body,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return post, nil
}

func (s *BlogService) UpdatePost(ctx context.Context, input UpdatePostInput) error {
	if _, err := s.GetPost(ctx, input.PostID, input.UserID, true); err != nil {
		return err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return ErrTitleRequired
	}

	if err := s.postRepo.Update(ctx, input.PostID, title, input.Body); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *BlogService) DeletePost(ctx context.Context, postID, userID uint) error {
	if _, err := s.GetPost(ctx, postID, userID, true); err != nil {
		return err
	}
	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// MarkSoldOut appends the sold-out marker to each listed post that lacks it
// and reports how many posts changed. Unknown ids are skipped.
func (s *BlogService) MarkSoldOut(ctx context.Context, userID uint, postIDs []uint) (int, error) {
	if userID == 0 {
		return 0, ErrInvalidInput
	}

	marked := 0
	for _, id := range postIDs {
		post, err := s.postRepo.GetByID(ctx, id)
		if err != nil {
			return marked, err
		}
		if post == nil {
			continue
		}

		body, changed := model.MarkSoldOut(post.Body)
		if !changed {
			continue
		}
		if err := s.postRepo.UpdateBody(ctx, post.ID, body); err != nil {
			return marked, err
		}
		marked++
		s.publishSoldOut(ctx, post.ID, userID)
	}

	if marked > 0 {
		s.invalidate(ctx)
	}
	return marked, nil
}

func (s *BlogService) publishSoldOut(ctx context.Context, postID, userID uint) {
	if s.publisher == nil {
		return
	}
	event := model.SoldOutEvent{PostID: postID, UserID: userID, MarkedAt: time.Now()}
	if err := s.publisher.PublishSoldOut(ctx, event); err != nil {
		log.Printf("publish sold out event for post %d failed: %v", postID, err)
	}
}

func (s *BlogService) invalidate(ctx context.Context) {
	if s.listCache == nil {
		return
	}
	if err := s.listCache.Invalidate(ctx); err != nil {
		log.Printf("invalidate post list cache failed: %v", err)
	}
}
