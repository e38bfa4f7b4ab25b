package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/task-graphql-api/internal/models"
	"github.com/yukikurage/task-graphql-api/internal/security"
	"gorm.io/gorm"
)

type UserServiceTestSuite struct {
	serviceSuite
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}

func (s *UserServiceTestSuite) TestCreateUser() {
	user, err := s.users.CreateUser(s.ctx, CreateUserInput{
		Username: "  carol ",
		Email:    "carol@example.com",
		Password: "supersecret",
	})
	s.Require().NoError(err)
	s.Equal("carol", user.Username)
	s.True(user.IsActive)
	s.NotEqual("supersecret", user.PasswordHash)
	s.NoError(security.CheckPassword(user.PasswordHash, "supersecret"))

	loaded, err := s.users.GetUser(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Empty(loaded.Groups)
}

func (s *UserServiceTestSuite) TestCreateUserWith_IssuesTokensAtomically() {
	var pair *TokenPair
	user, err := s.users.CreateUserWith(s.ctx, CreateUserInput{
		Username: "dana",
		Email:    "dana@example.com",
		Password: "supersecret",
	}, func(tx *gorm.DB, user *models.User) error {
		var err error
		pair, err = s.auth.IssueTokenPairTx(s.ctx, tx, user)
		return err
	})
	s.Require().NoError(err)
	s.Require().NotNil(pair)

	var stored int64
	s.Require().NoError(s.db.Model(&models.RefreshToken{}).Where("user_id = ?", user.ID).Count(&stored).Error)
	s.Equal(int64(1), stored)

	_, err = s.auth.Refresh(s.ctx, pair.RefreshToken)
	s.NoError(err)
}

func (s *UserServiceTestSuite) TestCreateUserWith_RollsBackOnFailure() {
	failure := errors.New("token store unavailable")
	input := CreateUserInput{
		Username: "erin",
		Email:    "erin@example.com",
		Password: "supersecret",
	}

	_, err := s.users.CreateUserWith(s.ctx, input, func(tx *gorm.DB, user *models.User) error {
		if _, err := s.auth.IssueTokenPairTx(s.ctx, tx, user); err != nil {
			return err
		}
		return failure
	})
	s.ErrorIs(err, failure)

	var users, tokens int64
	s.Require().NoError(s.db.Model(&models.User{}).Where("username = ?", "erin").Count(&users).Error)
	s.Require().NoError(s.db.Model(&models.RefreshToken{}).Count(&tokens).Error)
	s.Zero(users)
	s.Zero(tokens)

	// the username is free for a retry
	_, err = s.users.CreateUser(s.ctx, input)
	s.NoError(err)
}

func (s *UserServiceTestSuite) TestCreateUser_Conflicts() {
	s.createUser("carol")

	_, err := s.users.CreateUser(s.ctx, CreateUserInput{
		Username: "carol",
		Email:    "other@example.com",
		Password: "supersecret",
	})
	s.ErrorIs(err, ErrUsernameTaken)

	_, err = s.users.CreateUser(s.ctx, CreateUserInput{
		Username: "carol2",
		Email:    "carol@example.com",
		Password: "supersecret",
	})
	s.ErrorIs(err, ErrEmailTaken)
}

func (s *UserServiceTestSuite) TestCreateUser_Validation() {
	tests := []struct {
		name  string
		input CreateUserInput
		field string
	}{
		{"blank username", CreateUserInput{Username: "   ", Email: "a@example.com", Password: "supersecret"}, "username"},
		{"bad email", CreateUserInput{Username: "dave", Email: "not-an-email", Password: "supersecret"}, "email"},
		{"short password", CreateUserInput{Username: "dave", Email: "d@example.com", Password: "short"}, "password"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.users.CreateUser(s.ctx, tt.input)
			var verr *ValidationError
			s.Require().ErrorAs(err, &verr)
			s.Equal(tt.field, verr.Fields[0].Field)
		})
	}
}

func (s *UserServiceTestSuite) TestUpdateUser() {
	user := s.createUser("carol")
	id := s.identity(user)

	updated, err := s.users.UpdateUser(s.ctx, id, UpdateUserInput{
		FirstName:      ptr("Carol"),
		Gender:         ptr("Female"),
		Department:     ptr("Ops"),
		ProfilePicture: ptr("https://example.com/carol.png"),
		Password:       ptr(""),
	})
	s.Require().NoError(err)
	s.Equal("Carol", updated.FirstName)
	s.Equal("Female", string(updated.Gender))
	s.Equal("Ops", updated.Department)
	s.Require().NotNil(updated.ProfilePicture)
	s.Equal("https://example.com/carol.png", *updated.ProfilePicture)

	// empty password keeps the old one
	s.NoError(security.CheckPassword(updated.PasswordHash, testPassword))

	cleared, err := s.users.UpdateUser(s.ctx, id, UpdateUserInput{ProfilePicture: ptr("")})
	s.Require().NoError(err)
	s.Nil(cleared.ProfilePicture)
}

func (s *UserServiceTestSuite) TestUpdateUser_Password() {
	user := s.createUser("carol")

	updated, err := s.users.UpdateUser(s.ctx, s.identity(user), UpdateUserInput{Password: ptr("brand-new-pass")})
	s.Require().NoError(err)
	s.NoError(security.CheckPassword(updated.PasswordHash, "brand-new-pass"))

	_, _, err = s.auth.Login(s.ctx, "carol", testPassword)
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *UserServiceTestSuite) TestUpdateUser_EmailConflict() {
	s.createUser("alice")
	carol := s.createUser("carol")

	_, err := s.users.UpdateUser(s.ctx, s.identity(carol), UpdateUserInput{Email: ptr("alice@example.com")})
	s.ErrorIs(err, ErrEmailTaken)

	// keeping your own address is not a conflict
	updated, err := s.users.UpdateUser(s.ctx, s.identity(carol), UpdateUserInput{Email: ptr("carol@example.com")})
	s.Require().NoError(err)
	s.Equal("carol@example.com", updated.Email)
}

func (s *UserServiceTestSuite) TestUpdateUser_Invalid() {
	carol := s.createUser("carol")

	_, err := s.users.UpdateUser(s.ctx, s.identity(carol), UpdateUserInput{Gender: ptr("Robot")})
	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal("gender", verr.Fields[0].Field)

	_, err = s.users.UpdateUser(s.ctx, nil, UpdateUserInput{FirstName: ptr("x")})
	s.ErrorIs(err, ErrAuthenticationRequired)
}

func (s *UserServiceTestSuite) TestWhoamiAndGetUser() {
	boss := s.createManager("boss")

	me, err := s.users.Whoami(s.ctx, s.identity(boss))
	s.Require().NoError(err)
	s.Equal("boss", me.Username)
	s.Equal([]string{"Managers"}, me.GroupNames())

	_, err = s.users.Whoami(s.ctx, nil)
	s.ErrorIs(err, ErrAuthenticationRequired)

	_, err = s.users.GetUser(s.ctx, 9999)
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *UserServiceTestSuite) TestEnsureUser() {
	existing := s.createUser("carol")

	got, err := s.users.EnsureUser(s.ctx, CreateUserInput{Username: "carol"})
	s.Require().NoError(err)
	s.Equal(existing.ID, got.ID)

	created, err := s.users.EnsureUser(s.ctx, CreateUserInput{
		Username: "dave",
		Email:    "dave@example.com",
		Password: "supersecret",
	})
	s.Require().NoError(err)
	s.NotZero(created.ID)
}
