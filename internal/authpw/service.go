// Package authpw provides email/password authentication and throwaway guest
// accounts.
package authpw

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"jobtrack/api/internal/jobs"
	"jobtrack/api/internal/store"
	"jobtrack/api/internal/util"
)

const MinPasswordLength = 8

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Service provides email/password authentication
type Service struct {
	store UserStore
	jobs  JobSeeder
	cost  int
	now   func() time.Time
}

// UserStore defines the storage interface for auth
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	GetUserByID(ctx context.Context, id string) (store.User, error)
	CreateUser(ctx context.Context, user store.User) (store.User, error)
	UserNameTaken(ctx context.Context, userName string) (bool, error)
}

// JobSeeder inserts the demo applications a guest account starts with.
type JobSeeder interface {
	InsertMany(ctx context.Context, ownerID string, items []jobs.Job) error
}

// NewService creates a new auth service. seeder may be nil, in which case
// guest accounts start with an empty board.
func NewService(users UserStore, seeder JobSeeder) *Service {
	return &Service{
		store: users,
		jobs:  seeder,
		cost:  bcrypt.DefaultCost,
		now:   time.Now,
	}
}

// SignUpRequest contains sign-up parameters
type SignUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	UserName  string `json:"userName"`
}

func (r SignUpRequest) normalize() SignUpRequest {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.UserName = strings.TrimSpace(r.UserName)
	return r
}

func (r SignUpRequest) validate() error {
	if r.Email == "" || r.Password == "" || r.UserName == "" {
		return fmt.Errorf("%w: email, password, and username are required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}
	if len(r.Password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	return nil
}

// SignUp creates a new user account with its profile fields.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (store.User, error) {
	req = req.normalize()
	if err := req.validate(); err != nil {
		return store.User{}, err
	}

	if _, err := s.store.GetUserByEmail(ctx, req.Email); err == nil {
		return store.User{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return store.User{}, err
	}
	taken, err := s.store.UserNameTaken(ctx, req.UserName)
	if err != nil {
		return store.User{}, err
	}
	if taken {
		return store.User{}, ErrUserNameTaken
	}

	return s.create(ctx, store.User{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		UserName:  req.UserName,
	}, req.Password)
}

func (s *Service) create(ctx context.Context, user store.User, password string) (store.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	created, err := s.store.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return store.User{}, ErrEmailTaken
		}
		return store.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

// SignInRequest contains sign-in parameters
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn authenticates a user. Unknown email and wrong password are not
// distinguished.
func (s *Service) SignIn(ctx context.Context, req SignInRequest) (store.User, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return store.User{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.User{}, ErrInvalidCredentials
		}
		return store.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return store.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// GuestAccount is returned once; the password is not recoverable later.
type GuestAccount struct {
	User     store.User
	Email    string
	Password string
}

// CreateGuest registers a throwaway account and seeds its board with a few
// demo applications, one of them rejected so restore can be tried.
func (s *Service) CreateGuest(ctx context.Context) (GuestAccount, error) {
	suffix := util.ShortID(8)
	email := fmt.Sprintf("guest_%s@demo.local", suffix)
	password := "G_" + util.NewID("") + "!"

	user, err := s.create(ctx, store.User{
		Email:     email,
		FirstName: "Guest",
		UserName:  "guest-" + suffix,
		IsGuest:   true,
	}, password)
	if err != nil {
		return GuestAccount{}, err
	}

	if s.jobs != nil {
		if err := s.jobs.InsertMany(ctx, user.ID, jobs.GuestJobs(user.ID, s.now())); err != nil {
			return GuestAccount{}, fmt.Errorf("seed guest jobs: %w", err)
		}
	}
	return GuestAccount{User: user, Email: email, Password: password}, nil
}
