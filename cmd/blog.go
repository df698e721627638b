// ABOUTME: Blog commands: list, show, create and comment
// ABOUTME: Reading is public; creating posts is for doctors and commenting needs a login

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adeebazad/react-homoeo/internal/models"
	"github.com/adeebazad/react-homoeo/internal/services"
	"github.com/adeebazad/react-homoeo/internal/tui/styles"
)

var (
	blogStatus string
	blogOldest bool
	blogMine   bool
	blogLimit  int

	postInput services.PostInput
	postImage string

	commentContent string
)

var blogCmd = &cobra.Command{
	Use:   "blog",
	Short: "Read and write blog posts",
}

var blogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List blog posts",
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, a *app, w io.Writer) int {
			return runBlogList(ctx, a, w, blogStatus, blogOldest, blogMine, blogLimit)
		})
	},
}

var blogShowCmd = &cobra.Command{
	Use:   "show SLUG",
	Short: "Show a blog post with its comments",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, a *app, w io.Writer) int {
			return runBlogShow(ctx, a, w, args[0])
		})
	},
}

var blogCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Publish a blog post (doctors only)",
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, a *app, w io.Writer) int {
			return runBlogCreate(ctx, a, w, postInput, postImage)
		})
	},
}

var blogCommentCmd = &cobra.Command{
	Use:   "comment POST_ID",
	Short: "Comment on a blog post",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, a *app, w io.Writer) int {
			return runBlogComment(ctx, a, w, args[0], commentContent)
		})
	},
}

func init() {
	rootCmd.AddCommand(blogCmd)
	blogCmd.AddCommand(blogListCmd, blogShowCmd, blogCreateCmd, blogCommentCmd)

	lf := blogListCmd.Flags()
	lf.StringVar(&blogStatus, "status", "all", "Filter by status: all, DRAFT, PUBLISHED")
	lf.BoolVar(&blogOldest, "oldest", false, "Oldest posts first")
	lf.BoolVar(&blogMine, "mine", false, "Only your own posts (doctors)")
	lf.IntVar(&blogLimit, "limit", 10, "Page size")

	cf := blogCreateCmd.Flags()
	cf.StringVar(&postInput.Title, "title", "", "Post title")
	cf.StringVar(&postInput.Content, "content", "", "Post body")
	cf.StringVar(&postInput.Summary, "summary", "", "Short summary")
	cf.StringVar(&postInput.Status, "status", models.PostDraft, "DRAFT or PUBLISHED")
	cf.StringVar(&postImage, "image", "", "Cover image file (max 5MB)")

	blogCommentCmd.Flags().StringVarP(&commentContent, "message", "m", "", "Comment text")
}

func runBlogList(ctx context.Context, a *app, w io.Writer, status string, oldest, mine bool, limit int) int {
	q := services.PostQuery{PageSize: limit, Status: status, Ordering: "-created_at"}
	if oldest {
		q.Ordering = "created_at"
	}
	if status != "all" {
		q.Status = strings.ToUpper(status)
	}
	if mine {
		if code, ok := authorize(ctx, a, w, "/blog/create"); !ok {
			return code
		}
		q.Author = a.session.User().ID
	}

	list, err := a.svc.Blog.Posts(ctx, q)
	if err != nil {
		return reportError(w, err)
	}
	posts := list.Items()

	if a.IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(posts))
	} else {
		fmt.Fprintln(w, formatPostsHuman(posts))
	}
	return exitOK
}

// formatPostsHuman renders a post listing as a table
func formatPostsHuman(posts []models.BlogPost) string {
	if len(posts) == 0 {
		return "No blog posts found."
	}
	rows := make([][]string, 0, len(posts))
	for i := range posts {
		p := &posts[i]
		rows = append(rows, []string{strconv.FormatInt(p.ID, 10), p.Slug, p.Title, p.AuthorName(), styles.StatusBadge(p.Status)})
	}
	return styles.Table([]string{"ID", "Slug", "Title", "Author", "Status"}, rows)
}

func runBlogShow(ctx context.Context, a *app, w io.Writer, slug string) int {
	post, err := a.svc.Blog.Post(ctx, slug)
	if err != nil {
		return reportError(w, err)
	}
	if a.IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(post))
	} else {
		fmt.Fprintln(w, formatPostHuman(post))
	}
	return exitOK
}

// formatPostHuman formats a post and its comments for reading
func formatPostHuman(p *models.BlogPost) string {
	var b strings.Builder
	b.WriteString(styles.Title.Render(p.Title))
	b.WriteString("\n")
	meta := p.AuthorName()
	if p.CreatedAt != "" {
		meta += "  " + p.CreatedAt
	}
	b.WriteString(styles.Subtitle.Render(strings.TrimSpace(meta)))
	b.WriteString("\n")
	if p.Summary != "" {
		b.WriteString(p.Summary + "\n\n")
	}
	b.WriteString(p.Content)
	b.WriteString("\n")

	fmt.Fprintf(&b, "\nComments (%d)\n", len(p.Comments))
	for _, c := range p.Comments {
		fmt.Fprintf(&b, "  %s: %s\n", c.AuthorName, c.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

func runBlogCreate(ctx context.Context, a *app, w io.Writer, in services.PostInput, imagePath string) int {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Summary = strings.TrimSpace(in.Summary)
	in.Status = strings.ToUpper(in.Status)
	if in.Title == "" {
		fmt.Fprintln(w, "Error: title is required")
		return exitError
	}
	if in.Content == "" {
		fmt.Fprintln(w, "Error: content is required")
		return exitError
	}
	if in.Status != models.PostDraft && in.Status != models.PostPublished {
		fmt.Fprintf(w, "Error: --status must be %s or %s\n", models.PostDraft, models.PostPublished)
		return exitError
	}

	if imagePath != "" {
		info, err := os.Stat(imagePath)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return exitError
		}
		if info.Size() > services.MaxImageSize {
			fmt.Fprintf(w, "Error: %v\n", services.ErrImageTooLarge)
			return exitError
		}
		data, err := os.ReadFile(imagePath)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return exitError
		}
		in.Image, in.ImageName = data, filepath.Base(imagePath)
	}

	if code, ok := authorize(ctx, a, w, "/blog/create"); !ok {
		return code
	}
	post, err := a.svc.Blog.CreatePost(ctx, in)
	if err != nil {
		return reportError(w, err)
	}
	if a.IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(post))
	} else {
		fmt.Fprintf(w, "Blog post %q created (%s)\n", post.Title, post.Slug)
	}
	return exitOK
}

func runBlogComment(ctx context.Context, a *app, w io.Writer, rawID, content string) int {
	id, err := parseID(rawID)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	if strings.TrimSpace(content) == "" {
		fmt.Fprintln(w, "Error: --message is required")
		return exitError
	}
	if code, ok := authorize(ctx, a, w, "/dashboard"); !ok {
		return code
	}

	c, err := a.svc.Blog.CreateComment(ctx, id, strings.TrimSpace(content))
	if err != nil {
		return reportError(w, err)
	}
	if a.IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(c))
	} else {
		fmt.Fprintln(w, "Comment posted")
	}
	return exitOK
}
