package api

// Post is the body returned for a rendered post.
type Post struct {
	HTML     string       `json:"html"`
	Metadata PostMetadata `json:"metadata"`
}

type PostMetadata struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

// PostSummary is one entry of the post index.
type PostSummary struct {
	ID          string `json:"id"`
	Number      uint64 `json:"number"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

type PostList struct {
	Posts  []PostSummary `json:"posts"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// Error is the body of every non-2xx response. Error holds the machine
// readable kind, Message the human readable text.
type Error struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
