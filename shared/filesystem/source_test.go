package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dfryer1193/goblog/blog/domain"
)

func tempSite(t *testing.T, files map[string]string) *SourceRepository {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, postsDir), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, postsDir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	repo, err := NewSourceRepository(dir)
	if err != nil {
		t.Fatalf("NewSourceRepository: %v", err)
	}
	return repo
}

func TestGetPostSource(t *testing.T) {
	repo := tempSite(t, map[string]string{
		"1-hello.md":  "hello",
		"4.md":        "four",
		"6-b-side.md": "six b",
		"6-a-side.md": "six a",
		"7-.md":       "seven",
		"7-other.md":  "seven other",
	})

	tests := []struct {
		name    string
		id      domain.PostID
		want    string
		wantErr error
	}{
		{name: "number and slug", id: domain.PostID{Number: 1, Slug: "hello"}, want: "hello"},
		{name: "slug mismatch", id: domain.PostID{Number: 1, Slug: "bye"}, wantErr: domain.ErrNotFound},
		{name: "bare number file", id: domain.PostID{Number: 4}, want: "four"},
		{name: "first slugged file", id: domain.PostID{Number: 6}, want: "six a"},
		{name: "empty slug file wins", id: domain.PostID{Number: 7}, want: "seven"},
		{name: "missing number", id: domain.PostID{Number: 42}, wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.GetPostSource(context.Background(), tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetPostSource() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("content = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetPostSourceReadsCurrentContent(t *testing.T) {
	repo := tempSite(t, map[string]string{"2-live.md": "before"})

	id := domain.PostID{Number: 2, Slug: "live"}
	if err := os.WriteFile(filepath.Join(repo.root, postsDir, "2-live.md"), []byte("after"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	got, err := repo.GetPostSource(context.Background(), id)
	if err != nil {
		t.Fatalf("GetPostSource() error = %v", err)
	}
	if string(got) != "after" {
		t.Errorf("content = %q, want %q", got, "after")
	}
}

func TestNewSourceRepositoryRejectsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "site.md")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewSourceRepository(file); err == nil {
		t.Error("expected error for non-directory root")
	}
	if _, err := NewSourceRepository(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestSafePath(t *testing.T) {
	repo := tempSite(t, nil)
	if _, err := repo.safePath("../etc/passwd"); err == nil {
		t.Error("traversal should be rejected")
	}
	if _, err := repo.safePath("/etc/passwd"); err == nil {
		t.Error("absolute path should be rejected")
	}
	if _, err := repo.safePath("posts/1-a.md"); err != nil {
		t.Errorf("safePath() error = %v", err)
	}
}

func TestGetImage(t *testing.T) {
	repo := tempSite(t, nil)
	if err := os.MkdirAll(filepath.Join(repo.root, imagesDir), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	if err := os.WriteFile(filepath.Join(repo.root, imagesDir, "cat.png"), png, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	img, err := repo.GetImage(context.Background(), "cat.png")
	if err != nil {
		t.Fatalf("GetImage() error = %v", err)
	}
	if img.ContentType != "image/png" {
		t.Errorf("ContentType = %q, want %q", img.ContentType, "image/png")
	}
	if string(img.Content) != string(png) {
		t.Error("content mismatch")
	}

	if _, err := repo.GetImage(context.Background(), "dog.png"); !errors.Is(err, domain.ErrImageNotFound) {
		t.Errorf("error = %v, want ErrImageNotFound", err)
	}
	if _, err := repo.GetImage(context.Background(), "../posts/1-a.md"); !errors.Is(err, domain.ErrInvalidImageName) {
		t.Errorf("error = %v, want ErrInvalidImageName", err)
	}
}
