package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"outfitted/internal/model"
	"outfitted/internal/repository"
)

// MinPasswordLen applies to self-service registration and password changes.
const MinPasswordLen = 5

// unusablePasswordPrefix marks hashes that can never verify.
const unusablePasswordPrefix = "!"

var bcryptCost = bcrypt.DefaultCost

// NewUser carries the fields needed to create an account.
type NewUser struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	Surname   string `json:"surname"`
	Password  string `json:"password"`
}

// ProfileUpdate holds the optional fields of a partial profile update.
type ProfileUpdate struct {
	FirstName *string `json:"first_name"`
	Surname   *string `json:"surname"`
	Password  *string `json:"password"`
}

// UserService covers account creation, login and token resolution.
type UserService interface {
	// CreateUser stores a regular account. Only the email is mandatory.
	CreateUser(ctx context.Context, in NewUser) (*model.User, error)

	// CreateSuperuser stores an account with staff and superuser rights.
	CreateSuperuser(ctx context.Context, in NewUser) (*model.User, error)

	// Register validates a public sign-up and then calls CreateUser.
	Register(ctx context.Context, in NewUser) (*model.User, error)

	// Authenticate checks credentials and returns the user's token, creating it on first login.
	Authenticate(ctx context.Context, email, password string) (*model.Token, error)

	// UserForToken resolves an Authorization token to an active user.
	UserForToken(ctx context.Context, key string) (*model.User, error)

	UpdateProfile(ctx context.Context, userID int64, in ProfileUpdate) (*model.User, error)
}

type userService struct {
	users  repository.UserRepository
	tokens repository.TokenRepository
	now    func() time.Time
}

// NewUserService constructs a new UserService.
func NewUserService(users repository.UserRepository, tokens repository.TokenRepository) UserService {
	return &userService{users: users, tokens: tokens, now: func() time.Time { return time.Now().UTC() }}
}

// NormalizeEmail trims the address and lowercases its domain part.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// HashPassword returns a bcrypt hash, or an unusable marker for a blank password.
func HashPassword(raw string) (string, error) {
	if raw == "" {
		b := make([]byte, 20)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}
		return unusablePasswordPrefix + hex.EncodeToString(b), nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(raw), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword reports whether raw matches the user's stored hash.
func CheckPassword(u *model.User, raw string) bool {
	if u == nil || raw == "" || strings.HasPrefix(u.PasswordHash, unusablePasswordPrefix) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(raw)) == nil
}

func (s *userService) CreateUser(ctx context.Context, in NewUser) (*model.User, error) {
	return s.create(ctx, in, false)
}

func (s *userService) CreateSuperuser(ctx context.Context, in NewUser) (*model.User, error) {
	return s.create(ctx, in, true)
}

func (s *userService) create(ctx context.Context, in NewUser, superuser bool) (*model.User, error) {
	email := NormalizeEmail(in.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.Create(ctx, &model.User{
		Email:        email,
		FirstName:    in.FirstName,
		Surname:      in.Surname,
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      superuser,
		IsSuperuser:  superuser,
		CreatedAt:    s.now(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *userService) Register(ctx context.Context, in NewUser) (*model.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.Surname = strings.TrimSpace(in.Surname)

	if in.Email == "" {
		return nil, ErrEmailRequired
	}
	if !validEmail(in.Email) {
		return nil, invalid("email", "enter a valid email address")
	}
	if err := requireName("first_name", in.FirstName); err != nil {
		return nil, err
	}
	if err := requireName("surname", in.Surname); err != nil {
		return nil, err
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}
	return s.CreateUser(ctx, in)
}

// validEmail accepts a bare addr-spec only. Display names and angle
// brackets parse under RFC 5322 but are not storable addresses.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Name == "" && addr.Address == email
}

func requireName(field, v string) error {
	if v == "" {
		return invalid(field, "this field may not be blank")
	}
	return rejectNUL(field, v)
}

func checkPassword(raw string) error {
	if utf8.RuneCountInString(raw) < MinPasswordLen {
		return invalid("password", "ensure this field has at least %d characters", MinPasswordLen)
	}
	return rejectNUL("password", raw)
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*model.Token, error) {
	u, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.IsActive || !CheckPassword(u, password) {
		return nil, ErrInvalidCredentials
	}

	if err := s.users.TouchLastLogin(ctx, u.ID, s.now()); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	return s.tokenFor(ctx, u.ID)
}

// tokenFor returns the existing token or creates one. A concurrent login
// that wins the insert race is resolved by reading its token back.
func (s *userService) tokenFor(ctx context.Context, userID int64) (*model.Token, error) {
	tok, err := s.tokens.FindByUserID(ctx, userID)
	if err == nil {
		return tok, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	key, err := newTokenKey()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	tok, err = s.tokens.Create(ctx, &model.Token{Key: key, UserID: userID, CreatedAt: s.now()})
	if errors.Is(err, repository.ErrDuplicate) {
		return s.tokens.FindByUserID(ctx, userID)
	}
	return tok, err
}

func (s *userService) UserForToken(ctx context.Context, key string) (*model.User, error) {
	if key == "" {
		return nil, ErrInvalidToken
	}
	u, err := s.tokens.FindUserByKey(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}
	return u, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int64, in ProfileUpdate) (*model.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if in.FirstName != nil {
		v := strings.TrimSpace(*in.FirstName)
		if err := requireName("first_name", v); err != nil {
			return nil, err
		}
		u.FirstName = v
	}
	if in.Surname != nil {
		v := strings.TrimSpace(*in.Surname)
		if err := requireName("surname", v); err != nil {
			return nil, err
		}
		u.Surname = v
	}
	if in.Password != nil {
		if err := checkPassword(*in.Password); err != nil {
			return nil, err
		}
		hash, err := HashPassword(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}

	return s.users.Update(ctx, u)
}

// newTokenKey returns 40 hex characters of crypto randomness.
var newTokenKey = func() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
