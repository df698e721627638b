// ABOUTME: Blog post and comment types for /api/blog/
// ABOUTME: Posts are authored by doctors and addressed by slug

package models

// Blog post publication states
const (
	PostDraft     = "DRAFT"
	PostPublished = "PUBLISHED"
)

// BlogPost is an entry of /api/blog/posts/
type BlogPost struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Summary   string    `json:"summary,omitempty"`
	Content   string    `json:"content,omitempty"`
	Image     string    `json:"image,omitempty"`
	Status    string    `json:"status,omitempty"`
	Author    *User     `json:"author,omitempty"`
	Comments  []Comment `json:"comments,omitempty"`
	CreatedAt string    `json:"created_at,omitempty"`
}

// AuthorName returns a display name for the post author, "Dr." prefixed for doctors
func (p *BlogPost) AuthorName() string {
	if p.Author == nil {
		return ""
	}
	if p.Author.IsDoctor() {
		return "Dr. " + p.Author.FullName()
	}
	return p.Author.FullName()
}

// Comment is an entry of /api/blog/comments/
type Comment struct {
	ID         int64  `json:"id"`
	Post       int64  `json:"post"`
	Content    string `json:"content"`
	AuthorName string `json:"author_name,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// CommentInput is the body of POST /api/blog/comments/
type CommentInput struct {
	Post    int64  `json:"post"`
	Content string `json:"content"`
}
