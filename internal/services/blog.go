// ABOUTME: Blog post and comment endpoints
// ABOUTME: Post creation is multipart so an image can ride along

package services

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/adeebazad/react-homoeo/internal/client"
	"github.com/adeebazad/react-homoeo/internal/models"
)

const (
	postsPath    = "/api/blog/posts/"
	commentsPath = "/api/blog/comments/"

	// MaxImageSize is the largest cover image accepted for upload
	MaxImageSize = 5 * 1024 * 1024
)

// ErrImageTooLarge is returned before upload when the image exceeds MaxImageSize
var ErrImageTooLarge = errors.New("image size should be less than 5MB")

// BlogService wraps /api/blog/
type BlogService struct {
	c *client.Client
}

// PostQuery filters the post listing. Zero values are left out of the query.
type PostQuery struct {
	PageSize int
	Status   string
	Ordering string
	Author   int64
}

func (q PostQuery) values() url.Values {
	v := url.Values{}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	if q.Status != "" && q.Status != "all" {
		v.Set("status", q.Status)
	}
	if q.Ordering != "" {
		v.Set("ordering", q.Ordering)
	}
	if q.Author > 0 {
		v.Set("author", strconv.FormatInt(q.Author, 10))
	}
	return v
}

// PostInput is a new blog post
type PostInput struct {
	Title   string
	Content string
	Summary string
	Status  string
	// ImageName and Image are optional
	ImageName string
	Image     []byte
}

func (s *BlogService) Posts(ctx context.Context, q PostQuery) (*models.List[models.BlogPost], error) {
	var list models.List[models.BlogPost]
	if err := s.c.Get(ctx, postsPath, q.values(), &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (s *BlogService) Post(ctx context.Context, slug string) (*models.BlogPost, error) {
	var p models.BlogPost
	if err := s.c.Get(ctx, postsPath+url.PathEscape(slug)+"/", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePost uploads a post as multipart/form-data
func (s *BlogService) CreatePost(ctx context.Context, in PostInput) (*models.BlogPost, error) {
	if len(in.Image) > MaxImageSize {
		return nil, ErrImageTooLarge
	}
	if in.Status == "" {
		in.Status = models.PostDraft
	}

	form := &client.Multipart{Fields: map[string]string{
		"title":   in.Title,
		"content": in.Content,
		"summary": in.Summary,
		"status":  in.Status,
	}}
	if len(in.Image) > 0 {
		form.Files = []client.FilePart{{Field: "image", Filename: in.ImageName, Data: in.Image}}
	}

	var p models.BlogPost
	if err := s.c.Do(ctx, &client.Request{Method: http.MethodPost, Path: postsPath, Multipart: form}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Comments lists the comments on one post
func (s *BlogService) Comments(ctx context.Context, postID int64) ([]models.Comment, error) {
	var list models.List[models.Comment]
	q := url.Values{"post": {strconv.FormatInt(postID, 10)}}
	if err := s.c.Get(ctx, commentsPath, q, &list); err != nil {
		return nil, err
	}
	return list.Items(), nil
}

func (s *BlogService) CreateComment(ctx context.Context, postID int64, content string) (*models.Comment, error) {
	var cm models.Comment
	if err := s.c.Post(ctx, commentsPath, models.CommentInput{Post: postID, Content: content}, &cm); err != nil {
		return nil, err
	}
	return &cm, nil
}
