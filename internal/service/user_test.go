package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"outfitted/internal/model"
	"outfitted/internal/repository"
	repoMocks "outfitted/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// storeCreatedUser makes the mock echo back the user passed to Create.
func storeCreatedUser(mUsers *repoMocks.MockUserRepository) *model.User {
	stored := &model.User{}
	mUsers.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).
		Run(func(args mock.Arguments) {
			*stored = *args.Get(1).(*model.User)
			stored.ID = 1
		}).
		Return(stored, nil).Once()
	return stored
}

func TestUserService_CreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("create user with email successful", func(t *testing.T) {
		mUsers := new(repoMocks.MockUserRepository)
		svc := NewUserService(mUsers, nil)
		storeCreatedUser(mUsers)

		u, err := svc.CreateUser(ctx, NewUser{
			Email:     "test@outfitted.com",
			FirstName: "Test",
			Surname:   "von Account",
			Password:  "Testpass123",
		})

		require.NoError(t, err)
		assert.Equal(t, "test@outfitted.com", u.Email)
		assert.True(t, CheckPassword(u, "Testpass123"))
		assert.False(t, CheckPassword(u, "wrong"))
		assert.True(t, u.IsActive)
		assert.False(t, u.IsStaff)
		assert.False(t, u.IsSuperuser)
		mUsers.AssertExpectations(t)
	})

	t.Run("new user email normalized", func(t *testing.T) {
		mUsers := new(repoMocks.MockUserRepository)
		svc := NewUserService(mUsers, nil)
		storeCreatedUser(mUsers)

		u, err := svc.CreateUser(ctx, NewUser{Email: "test@OUTFITTED.com", FirstName: "Test", Surname: "von Account", Password: "test1234"})

		require.NoError(t, err)
		assert.Equal(t, "test@outfitted.com", u.Email)
	})

	t.Run("new user without email fails", func(t *testing.T) {
		mUsers := new(repoMocks.MockUserRepository)
		svc := NewUserService(mUsers, nil)

		u, err := svc.CreateUser(ctx, NewUser{FirstName: "Test", Surname: "von Account", Password: "test1234"})

		assert.ErrorIs(t, err, ErrEmailRequired)
		assert.Nil(t, u)
		mUsers.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("blank password is unusable", func(t *testing.T) {
		mUsers := new(repoMocks.MockUserRepository)
		svc := NewUserService(mUsers, nil)
		storeCreatedUser(mUsers)

		u, err := svc.CreateUser(ctx, NewUser{Email: "nopass@outfitted.com"})

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(u.PasswordHash, "!"))
		assert.False(t, CheckPassword(u, ""))
		assert.False(t, CheckPassword(u, u.PasswordHash[1:]))
	})

	t.Run("duplicate email", func(t *testing.T) {
		mUsers := new(repoMocks.MockUserRepository)
		svc := NewUserService(mUsers, nil)
		mUsers.On("Create", mock.Anything, mock.Anything).Return(nil, repository.ErrDuplicate)

		_, err := svc.CreateUser(ctx, NewUser{Email: "test@outfitted.com", Password: "test1234"})

		assert.ErrorIs(t, err, ErrEmailTaken)
	})
}

func TestUserService_CreateSuperuser(t *testing.T) {
	mUsers := new(repoMocks.MockUserRepository)
	svc := NewUserService(mUsers, nil)
	storeCreatedUser(mUsers)

	u, err := svc.CreateSuperuser(context.Background(), NewUser{
		Email:     "test@outfitted.com",
		FirstName: "Test",
		Surname:   "von Account",
		Password:  "Testpass123",
	})

	require.NoError(t, err)
	assert.True(t, u.IsSuperuser)
	assert.True(t, u.IsStaff)
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		in        NewUser
		wantField string
		wantErr   error
	}{
		{name: "missing email", in: NewUser{FirstName: "A", Surname: "B", Password: "secret"}, wantErr: ErrEmailRequired},
		{name: "malformed email", in: NewUser{Email: "not-an-email", FirstName: "A", Surname: "B", Password: "secret"}, wantField: "email"},
		{name: "blank first name", in: NewUser{Email: "a@b.co", Surname: "B", Password: "secret"}, wantField: "first_name"},
		{name: "blank surname", in: NewUser{Email: "a@b.co", FirstName: "A", Password: "secret"}, wantField: "surname"},
		{name: "short password", in: NewUser{Email: "a@b.co", FirstName: "A", Surname: "B", Password: "pw"}, wantField: "password"},
		{name: "display-name email", in: NewUser{Email: "Ada <ada@Example.com>", FirstName: "A", Surname: "B", Password: "secret"}, wantField: "email"},
		{name: "bracketed email", in: NewUser{Email: "<ada@example.com>", FirstName: "A", Surname: "B", Password: "secret"}, wantField: "email"},
		{name: "password counted in characters", in: NewUser{Email: "a@b.co", FirstName: "A", Surname: "B", Password: "äää"}, wantField: "password"},
		{name: "null character in first name", in: NewUser{Email: "a@b.co", FirstName: "A\x00", Surname: "B", Password: "secret"}, wantField: "first_name"},
		{name: "null character in surname", in: NewUser{Email: "a@b.co", FirstName: "A", Surname: "B\x00B", Password: "secret"}, wantField: "surname"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mUsers := new(repoMocks.MockUserRepository)
			svc := NewUserService(mUsers, nil)

			u, err := svc.Register(ctx, tt.in)

			assert.Nil(t, u)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				var vErr *ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, tt.wantField, vErr.Field)
			}
			mUsers.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}

	t.Run("valid", func(t *testing.T) {
		mUsers := new(repoMocks.MockUserRepository)
		svc := NewUserService(mUsers, nil)
		storeCreatedUser(mUsers)

		u, err := svc.Register(ctx, NewUser{Email: " test@Outfitted.COM ", FirstName: "Test", Surname: "von Account", Password: "test123"})

		require.NoError(t, err)
		assert.Equal(t, "test@outfitted.com", u.Email)
	})

	t.Run("five multibyte characters is long enough", func(t *testing.T) {
		mUsers := new(repoMocks.MockUserRepository)
		svc := NewUserService(mUsers, nil)
		storeCreatedUser(mUsers)

		u, err := svc.Register(ctx, NewUser{Email: "a@b.co", FirstName: "A", Surname: "B", Password: "äöüßé"})

		require.NoError(t, err)
		assert.True(t, CheckPassword(u, "äöüßé"))
	})
}

func TestUserService_Authenticate(t *testing.T) {
	ctx := context.Background()
	hash, err := HashPassword("test123")
	require.NoError(t, err)
	active := &model.User{ID: 1, Email: "test@outfitted.com", PasswordHash: hash, IsActive: true}

	t.Run("existing token returned", func(t *testing.T) {
		mUsers := new(repoMocks.MockUserRepository)
		mTokens := new(repoMocks.MockTokenRepository)
		svc := NewUserService(mUsers, mTokens)

		mUsers.On("FindByEmail", ctx, "test@outfitted.com").Return(active, nil)
		mUsers.On("TouchLastLogin", ctx, int64(1), mock.Anything).Return(nil)
		mTokens.On("FindByUserID", ctx, int64(1)).Return(&model.Token{Key: "abc", UserID: 1}, nil)

		tok, err := svc.Authenticate(ctx, "test@OUTFITTED.com", "test123")

		require.NoError(t, err)
		assert.Equal(t, "abc", tok.Key)
		mUsers.AssertExpectations(t)
		mTokens.AssertExpectations(t)
	})

	t.Run("token created on first login", func(t *testing.T) {
		mUsers := new(repoMocks.MockUserRepository)
		mTokens := new(repoMocks.MockTokenRepository)
		svc := NewUserService(mUsers, mTokens)

		mUsers.On("FindByEmail", ctx, "test@outfitted.com").Return(active, nil)
		mUsers.On("TouchLastLogin", ctx, int64(1), mock.Anything).Return(nil)
		mTokens.On("FindByUserID", ctx, int64(1)).Return(nil, sql.ErrNoRows)
		mTokens.On("Create", ctx, mock.MatchedBy(func(tk *model.Token) bool {
			return len(tk.Key) == 40 && tk.UserID == 1
		})).Return(&model.Token{Key: strings.Repeat("a", 40), UserID: 1}, nil)

		tok, err := svc.Authenticate(ctx, "test@outfitted.com", "test123")

		require.NoError(t, err)
		assert.Len(t, tok.Key, 40)
		mTokens.AssertExpectations(t)
	})

	t.Run("concurrent token creation", func(t *testing.T) {
		mUsers := new(repoMocks.MockUserRepository)
		mTokens := new(repoMocks.MockTokenRepository)
		svc := NewUserService(mUsers, mTokens)

		mUsers.On("FindByEmail", ctx, "test@outfitted.com").Return(active, nil)
		mUsers.On("TouchLastLogin", ctx, int64(1), mock.Anything).Return(nil)
		mTokens.On("FindByUserID", ctx, int64(1)).Return(nil, sql.ErrNoRows).Once()
		mTokens.On("Create", ctx, mock.Anything).Return(nil, repository.ErrDuplicate)
		mTokens.On("FindByUserID", ctx, int64(1)).Return(&model.Token{Key: "winner", UserID: 1}, nil).Once()

		tok, err := svc.Authenticate(ctx, "test@outfitted.com", "test123")

		require.NoError(t, err)
		assert.Equal(t, "winner", tok.Key)
	})

	t.Run("wrong password", func(t *testing.T) {
		mUsers := new(repoMocks.MockUserRepository)
		svc := NewUserService(mUsers, nil)
		mUsers.On("FindByEmail", ctx, "test@outfitted.com").Return(active, nil)

		_, err := svc.Authenticate(ctx, "test@outfitted.com", "nope")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		mUsers := new(repoMocks.MockUserRepository)
		svc := NewUserService(mUsers, nil)
		mUsers.On("FindByEmail", ctx, "ghost@outfitted.com").Return(nil, sql.ErrNoRows)

		_, err := svc.Authenticate(ctx, "ghost@outfitted.com", "test123")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive user", func(t *testing.T) {
		mUsers := new(repoMocks.MockUserRepository)
		svc := NewUserService(mUsers, nil)
		inactive := *active
		inactive.IsActive = false
		mUsers.On("FindByEmail", ctx, "test@outfitted.com").Return(&inactive, nil)

		_, err := svc.Authenticate(ctx, "test@outfitted.com", "test123")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestUserService_UserForToken(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		key     string
		setup   func(m *repoMocks.MockTokenRepository)
		wantErr error
	}{
		{
			name: "valid",
			key:  "k1",
			setup: func(m *repoMocks.MockTokenRepository) {
				m.On("FindUserByKey", ctx, "k1").Return(&model.User{ID: 1, IsActive: true}, nil)
			},
		},
		{
			name:    "empty key",
			setup:   func(m *repoMocks.MockTokenRepository) {},
			wantErr: ErrInvalidToken,
		},
		{
			name: "unknown key",
			key:  "k2",
			setup: func(m *repoMocks.MockTokenRepository) {
				m.On("FindUserByKey", ctx, "k2").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "inactive owner",
			key:  "k3",
			setup: func(m *repoMocks.MockTokenRepository) {
				m.On("FindUserByKey", ctx, "k3").Return(&model.User{ID: 3, IsActive: false}, nil)
			},
			wantErr: ErrInactiveUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mTokens := new(repoMocks.MockTokenRepository)
			svc := NewUserService(nil, mTokens)
			tt.setup(mTokens)

			u, err := svc.UserForToken(ctx, tt.key)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, u)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, u)
			}
			mTokens.AssertExpectations(t)
		})
	}
}

func TestUserService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	name := "Renamed"
	blank := "  "
	pw := "newpass"

	t.Run("partial update keeps other fields", func(t *testing.T) {
		mUsers := new(repoMocks.MockUserRepository)
		svc := NewUserService(mUsers, nil)
		mUsers.On("FindByID", ctx, int64(1)).Return(&model.User{ID: 1, FirstName: "Test", Surname: "von Account", PasswordHash: "old"}, nil)
		mUsers.On("Update", ctx, mock.MatchedBy(func(u *model.User) bool {
			return u.FirstName == "Renamed" && u.Surname == "von Account" && u.PasswordHash != "old" && CheckPassword(u, "newpass")
		})).Return(&model.User{ID: 1, FirstName: "Renamed"}, nil)

		u, err := svc.UpdateProfile(ctx, 1, ProfileUpdate{FirstName: &name, Password: &pw})

		require.NoError(t, err)
		assert.Equal(t, "Renamed", u.FirstName)
		mUsers.AssertExpectations(t)
	})

	t.Run("blank surname rejected", func(t *testing.T) {
		mUsers := new(repoMocks.MockUserRepository)
		svc := NewUserService(mUsers, nil)
		mUsers.On("FindByID", ctx, int64(1)).Return(&model.User{ID: 1}, nil)

		_, err := svc.UpdateProfile(ctx, 1, ProfileUpdate{Surname: &blank})

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "surname", vErr.Field)
	})

	t.Run("invalid fields rejected", func(t *testing.T) {
		shortPW := "äää"
		nulName := "Re\x00named"
		for field, in := range map[string]ProfileUpdate{
			"password":   {Password: &shortPW},
			"first_name": {FirstName: &nulName},
		} {
			mUsers := new(repoMocks.MockUserRepository)
			svc := NewUserService(mUsers, nil)
			mUsers.On("FindByID", ctx, int64(1)).Return(&model.User{ID: 1}, nil)

			_, err := svc.UpdateProfile(ctx, 1, in)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr, field)
			assert.Equal(t, field, vErr.Field)
			mUsers.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		mUsers := new(repoMocks.MockUserRepository)
		svc := NewUserService(mUsers, nil)
		mUsers.On("FindByID", ctx, int64(9)).Return(nil, sql.ErrNoRows)

		_, err := svc.UpdateProfile(ctx, 9, ProfileUpdate{})

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("repository error", func(t *testing.T) {
		mUsers := new(repoMocks.MockUserRepository)
		svc := NewUserService(mUsers, nil)
		mUsers.On("FindByID", ctx, int64(1)).Return(nil, errors.New("db fail"))

		_, err := svc.UpdateProfile(ctx, 1, ProfileUpdate{})

		assert.EqualError(t, err, "db fail")
	})
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "Test@outfitted.com", NormalizeEmail(" Test@OUTFITTED.com "))
	assert.Equal(t, "", NormalizeEmail("   "))
	assert.Equal(t, "no-at-sign", NormalizeEmail("no-at-sign"))
}
