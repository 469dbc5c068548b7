package model

// AttributeKind distinguishes the user-owned labels that can be attached to a post.
type AttributeKind string

const (
	KindTag  AttributeKind = "tag"
	KindItem AttributeKind = "item"
)

// AttributeNameMaxLen bounds tag and item names.
const AttributeNameMaxLen = 255

// Attribute is a tag or an item owned by a single user.
type Attribute struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	UserID int64  `json:"-"`
}
