package model

// PostTitleMaxLen bounds post titles. Blank titles are allowed.
const PostTitleMaxLen = 255

// Post is the list/write shape: related items and tags are referenced by id.
// Image holds the object storage key and is exposed only as a URL.
type Post struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Items  []int64 `json:"items"`
	Tags   []int64 `json:"tags"`
	UserID int64   `json:"-"`
	Image  *string `json:"-"`
}

// PostDetail is the retrieve shape with related rows expanded.
type PostDetail struct {
	ID       int64       `json:"id"`
	Title    string      `json:"title"`
	Items    []Attribute `json:"items"`
	Tags     []Attribute `json:"tags"`
	ImageURL *string     `json:"image"`
}

// PostImage is returned after an image upload.
type PostImage struct {
	ID       int64  `json:"id"`
	ImageURL string `json:"image"`
}
