package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/goblog/blog/domain"
	"github.com/dfryer1193/goblog/shared/db"
)

var _ domain.PostRepository = (*SQLitePostRepository)(nil)

var ErrPostNotIndexed = errors.New("post not indexed")

const dateLayout = "2006-01-02"

// SQLitePostRepository implements domain.PostRepository using SQL database (SQLite)
type SQLitePostRepository struct {
	db *sql.DB
}

// NewPostRepository creates a new SQLitePostRepository from a standard sql.DB
func NewPostRepository(db *sql.DB) *SQLitePostRepository {
	return &SQLitePostRepository{
		db: db,
	}
}

const upsertPostQuery = `
	INSERT INTO posts (number, slug, title, author, description, post_date, rendered_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(number) DO UPDATE SET
		slug = excluded.slug,
		title = excluded.title,
		author = excluded.author,
		description = excluded.description,
		post_date = excluded.post_date,
		rendered_at = excluded.rendered_at
`

// UpsertPost inserts or replaces the index entry for a post number.
func (r *SQLitePostRepository) UpsertPost(ctx context.Context, p *domain.PostRecord) error {
	if p == nil {
		return fmt.Errorf("post cannot be nil")
	}

	return db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		var renderedAt any
		if !p.RenderedAt.IsZero() {
			renderedAt = p.RenderedAt
		}

		executor := db.GetExecutor(txCtx, r.db)
		_, err := executor.ExecContext(txCtx, upsertPostQuery,
			p.Number,
			p.Slug,
			p.Title,
			p.Author,
			p.Description,
			p.Date.Format(dateLayout),
			renderedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert post: %w", err)
		}
		return nil
	})
}

const getPostQuery = `
		SELECT number, slug, title, author, description, post_date, rendered_at
		FROM posts
		WHERE number = ?
`

// GetPost retrieves a single index entry by post number
func (r *SQLitePostRepository) GetPost(ctx context.Context, number uint64) (*domain.PostRecord, error) {
	var row postRow
	err := r.db.QueryRowContext(ctx, getPostQuery, number).Scan(
		&row.Number,
		&row.Slug,
		&row.Title,
		&row.Author,
		&row.Description,
		&row.PostDate,
		&row.RenderedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrPostNotIndexed, number)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return row.toDomain()
}

const listPostsQuery = `
	SELECT number, slug, title, author, description, post_date, rendered_at
	FROM posts
	ORDER BY post_date DESC, number DESC
	LIMIT ? OFFSET ?
`

// ListPosts retrieves index entries ordered by post date descending
func (r *SQLitePostRepository) ListPosts(ctx context.Context, limit, offset int) ([]*domain.PostRecord, error) {
	if limit <= 0 {
		limit = 10 // Default limit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx, listPostsQuery, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*domain.PostRecord, 0)
	for rows.Next() {
		var row postRow
		err := rows.Scan(
			&row.Number,
			&row.Slug,
			&row.Title,
			&row.Author,
			&row.Description,
			&row.PostDate,
			&row.RenderedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		post, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}

	return posts, nil
}

// postRow is a private struct used to scan database rows
type postRow struct {
	Number      int64        `db:"number"`
	Slug        string       `db:"slug"`
	Title       string       `db:"title"`
	Author      string       `db:"author"`
	Description string       `db:"description"`
	PostDate    string       `db:"post_date"`
	RenderedAt  sql.NullTime `db:"rendered_at"`
}

func (pr *postRow) toDomain() (*domain.PostRecord, error) {
	date, err := time.Parse(dateLayout, pr.PostDate)
	if err != nil {
		return nil, fmt.Errorf("invalid post_date %q for post %d: %w", pr.PostDate, pr.Number, err)
	}

	post := &domain.PostRecord{
		Number:      uint64(pr.Number),
		Slug:        pr.Slug,
		Title:       pr.Title,
		Author:      pr.Author,
		Description: pr.Description,
		Date:        date,
	}
	if pr.RenderedAt.Valid {
		post.RenderedAt = pr.RenderedAt.Time
	}

	return post, nil
}
