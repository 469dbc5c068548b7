package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"outfitted/internal/model"
	"outfitted/internal/repository"
	"outfitted/internal/storage"
)

// PostImagePrefix is the object key prefix for uploaded post images.
const PostImagePrefix = "upload/post/"

// PostInput is the full write payload used by create and update.
type PostInput struct {
	Title string  `json:"title"`
	Items []int64 `json:"items"`
	Tags  []int64 `json:"tags"`
}

// PostPatch is a partial update; nil fields are left unchanged.
type PostPatch struct {
	Title *string  `json:"title"`
	Items *[]int64 `json:"items"`
	Tags  *[]int64 `json:"tags"`
}

// UnmarshalJSON keeps omitted fields nil and rejects an explicit null.
func (p *PostPatch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, field := range []string{"title", "items", "tags"} {
		if v, ok := raw[field]; ok && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return invalid(field, "this field may not be null")
		}
	}
	type plain PostPatch
	return json.Unmarshal(data, (*plain)(p))
}

// ImageOptions bound image uploads and the lifetime of download URLs.
type ImageOptions struct {
	MaxBytes      int64
	PresignExpiry time.Duration
}

// PostService defines the use cases for posts owned by the authenticated user.
type PostService interface {
	List(ctx context.Context, userID int64) ([]model.Post, error)

	// Get returns the detail shape with items and tags expanded.
	Get(ctx context.Context, userID, id int64) (*model.PostDetail, error)

	Create(ctx context.Context, userID int64, in PostInput) (*model.Post, error)

	// Update replaces title, items and tags.
	Update(ctx context.Context, userID, id int64, in PostInput) (*model.Post, error)

	// Patch replaces only the fields present in the payload.
	Patch(ctx context.Context, userID, id int64, in PostPatch) (*model.Post, error)

	// Delete removes the stored image, then the post.
	Delete(ctx context.Context, userID, id int64) error

	// UploadImage validates and stores an image, then points the post at it.
	// The object is removed again if the post cannot be updated.
	UploadImage(ctx context.Context, userID, id int64, r io.Reader, filename string) (*model.PostImage, error)

	// Image streams the stored image of a post.
	Image(ctx context.Context, userID, id int64) (io.ReadCloser, storage.ObjectInfo, error)
}

type postService struct {
	posts repository.PostRepository
	items repository.AttributeRepository
	tags  repository.AttributeRepository
	store storage.Storage
	opts  ImageOptions
	log   *zap.Logger
}

// NewPostService constructs a new PostService.
func NewPostService(
	posts repository.PostRepository,
	items repository.AttributeRepository,
	tags repository.AttributeRepository,
	store storage.Storage,
	opts ImageOptions,
	log *zap.Logger,
) PostService {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 5 << 20
	}
	if opts.PresignExpiry <= 0 {
		opts.PresignExpiry = 15 * time.Minute
	}
	return &postService{
		posts: posts,
		items: items,
		tags:  tags,
		store: store,
		opts:  opts,
		log:   log.With(zap.String("component", "post_service")),
	}
}

func (s *postService) List(ctx context.Context, userID int64) ([]model.Post, error) {
	return s.posts.List(ctx, userID)
}

func (s *postService) Get(ctx context.Context, userID, id int64) (*model.PostDetail, error) {
	p, err := s.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	items, err := s.posts.Attributes(ctx, p.ID, model.KindItem)
	if err != nil {
		return nil, err
	}
	tags, err := s.posts.Attributes(ctx, p.ID, model.KindTag)
	if err != nil {
		return nil, err
	}

	detail := &model.PostDetail{ID: p.ID, Title: p.Title, Items: items, Tags: tags}
	if p.Image != nil {
		u, err := s.store.PresignGet(ctx, *p.Image, s.opts.PresignExpiry)
		if err != nil {
			return nil, fmt.Errorf("presign image: %w", err)
		}
		detail.ImageURL = &u
	}
	return detail, nil
}

func (s *postService) Create(ctx context.Context, userID int64, in PostInput) (*model.Post, error) {
	if err := s.validate(ctx, userID, in); err != nil {
		return nil, err
	}
	p, err := s.posts.Create(ctx, &model.Post{
		UserID: userID,
		Title:  strings.TrimSpace(in.Title),
		Items:  in.Items,
		Tags:   in.Tags,
	})
	if err != nil {
		if vErr := relationValidation(err); vErr != nil {
			return nil, vErr
		}
		return nil, fmt.Errorf("create post: %w", err)
	}
	return p, nil
}

func (s *postService) Update(ctx context.Context, userID, id int64, in PostInput) (*model.Post, error) {
	return s.Patch(ctx, userID, id, PostPatch{Title: &in.Title, Items: &in.Items, Tags: &in.Tags})
}

func (s *postService) Patch(ctx context.Context, userID, id int64, in PostPatch) (*model.Post, error) {
	current, err := s.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	merged := PostInput{Title: current.Title, Items: current.Items, Tags: current.Tags}
	if in.Title != nil {
		merged.Title = strings.TrimSpace(*in.Title)
	}
	if in.Items != nil {
		merged.Items = *in.Items
	}
	if in.Tags != nil {
		merged.Tags = *in.Tags
	}
	if err := s.validate(ctx, userID, merged); err != nil {
		return nil, err
	}

	p, err := s.posts.Update(ctx, &model.Post{
		ID:     id,
		UserID: userID,
		Title:  merged.Title,
		Items:  merged.Items,
		Tags:   merged.Tags,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if vErr := relationValidation(err); vErr != nil {
			return nil, vErr
		}
		return nil, fmt.Errorf("update post: %w", err)
	}
	return p, nil
}

func (s *postService) Delete(ctx context.Context, userID, id int64) error {
	p, err := s.find(ctx, userID, id)
	if err != nil {
		return err
	}
	if p.Image != nil {
		if err := s.store.Delete(ctx, *p.Image); err != nil {
			return fmt.Errorf("delete storage: %w", err)
		}
	}
	if err := s.posts.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *postService) UploadImage(ctx context.Context, userID, id int64, r io.Reader, filename string) (*model.PostImage, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	p, err := s.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, s.opts.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > s.opts.MaxBytes {
		return nil, ErrImageTooLarge
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImage
	}

	key := imageKey(filename, format)
	if _, err := s.store.Put(ctx, key, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: "image/" + format,
		Metadata: map[string]string{
			"original-filename": filename,
			"post-id":           strconv.FormatInt(id, 10),
		},
	}); err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	if err := s.posts.SetImage(ctx, userID, id, key); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	if p.Image != nil && *p.Image != key {
		if err := s.store.Delete(ctx, *p.Image); err != nil {
			s.log.Warn("old image not removed", zap.Int64("post_id", id), zap.String("key", *p.Image), zap.Error(err))
		}
	}

	u, err := s.store.PresignGet(ctx, key, s.opts.PresignExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign image: %w", err)
	}
	return &model.PostImage{ID: id, ImageURL: u}, nil
}

func (s *postService) Image(ctx context.Context, userID, id int64) (io.ReadCloser, storage.ObjectInfo, error) {
	p, err := s.find(ctx, userID, id)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	if p.Image == nil {
		return nil, storage.ObjectInfo{}, ErrNotFound
	}
	rc, info, err := s.store.Get(ctx, *p.Image)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, storage.ObjectInfo{}, ErrNotFound
	}
	return rc, info, err
}

func (s *postService) find(ctx context.Context, userID, id int64) (*model.Post, error) {
	p, err := s.posts.FindByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *postService) validate(ctx context.Context, userID int64, in PostInput) error {
	if err := rejectNUL("title", in.Title); err != nil {
		return err
	}
	if utf8.RuneCountInString(in.Title) > model.PostTitleMaxLen {
		return invalid("title", "ensure this field has no more than %d characters", model.PostTitleMaxLen)
	}
	if err := requireOwned(ctx, s.items, userID, "items", in.Items); err != nil {
		return err
	}
	return requireOwned(ctx, s.tags, userID, "tags", in.Tags)
}

// requireOwned fails on the first id that does not exist for userID.
func requireOwned(ctx context.Context, repo repository.AttributeRepository, userID int64, field string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := repo.FindOwned(ctx, userID, ids)
	if err != nil {
		return fmt.Errorf("check %s: %w", field, err)
	}
	owned := make(map[int64]struct{}, len(found))
	for _, a := range found {
		owned[a.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := owned[id]; !ok {
			return missingPK(field, id)
		}
	}
	return nil
}

// extensionsByFormat lists the file extensions accepted for each decoded format.
var extensionsByFormat = map[string][]string{
	"jpeg": {".jpg", ".jpeg", ".jpe"},
	"png":  {".png"},
	"gif":  {".gif"},
}

// imageKey builds upload/post/<uuid><ext>. The client's extension is kept
// when it matches the decoded format, otherwise the format name is used.
func imageKey(filename, format string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if !slices.Contains(extensionsByFormat[format], ext) {
		ext = "." + format
	}
	return path.Join(PostImagePrefix, uuid.NewString()+ext)
}
