package authpw

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"jobtrack/api/internal/jobs"
	"jobtrack/api/internal/store"
	"jobtrack/api/internal/util"
)

// mockUserStore is an in-memory UserStore for testing
type mockUserStore struct {
	users      map[string]store.User
	emailIndex map[string]string
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		users:      make(map[string]store.User),
		emailIndex: make(map[string]string),
	}
}

func (m *mockUserStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	if userID, ok := m.emailIndex[strings.ToLower(strings.TrimSpace(email))]; ok {
		return m.users[userID], nil
	}
	return store.User{}, store.ErrNotFound
}

func (m *mockUserStore) GetUserByID(_ context.Context, id string) (store.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return store.User{}, store.ErrNotFound
}

func (m *mockUserStore) CreateUser(_ context.Context, user store.User) (store.User, error) {
	if _, ok := m.emailIndex[user.Email]; ok {
		return store.User{}, store.ErrDuplicate
	}
	user.ID = util.NewID("")
	m.users[user.ID] = user
	m.emailIndex[user.Email] = user.ID
	return user, nil
}

func (m *mockUserStore) UserNameTaken(_ context.Context, userName string) (bool, error) {
	for _, user := range m.users {
		if strings.EqualFold(user.UserName, userName) {
			return true, nil
		}
	}
	return false, nil
}

type fakeSeeder struct {
	ownerID string
	items   []jobs.Job
	err     error
}

func (f *fakeSeeder) InsertMany(_ context.Context, ownerID string, items []jobs.Job) error {
	f.ownerID = ownerID
	f.items = items
	return f.err
}

func newTestService(users UserStore, seeder JobSeeder) *Service {
	svc := NewService(users, seeder)
	svc.cost = bcrypt.MinCost
	return svc
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMockUserStore(), nil)

	t.Run("successful sign up", func(t *testing.T) {
		user, err := svc.SignUp(ctx, SignUpRequest{
			Email:     " Ada@Example.com ",
			Password:  "password123",
			FirstName: "Ada",
			LastName:  "Lovelace",
			UserName:  "ada",
		})
		if err != nil {
			t.Fatalf("SignUp() error = %v", err)
		}
		if user.ID == "" || user.Email != "ada@example.com" || user.UserName != "ada" {
			t.Fatalf("unexpected user %+v", user)
		}
		if user.PasswordHash == "password123" {
			t.Fatal("password stored in clear text")
		}
	})

	cases := []struct {
		name string
		req  SignUpRequest
		want error
	}{
		{"duplicate email", SignUpRequest{Email: "ada@example.com", Password: "password123", UserName: "ada2"}, ErrEmailTaken},
		{"duplicate username", SignUpRequest{Email: "new@example.com", Password: "password123", UserName: "ADA"}, ErrUserNameTaken},
		{"short password", SignUpRequest{Email: "x@example.com", Password: "short", UserName: "x"}, ErrInvalidInput},
		{"bad email", SignUpRequest{Email: "not-an-email", Password: "password123", UserName: "y"}, ErrInvalidInput},
		{"missing fields", SignUpRequest{}, ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.SignUp(ctx, tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("SignUp() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMockUserStore(), nil)
	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "ada@example.com", Password: "password123", UserName: "ada"}); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	t.Run("successful sign in", func(t *testing.T) {
		user, err := svc.SignIn(ctx, SignInRequest{Email: "ada@example.com", Password: "password123"})
		if err != nil {
			t.Fatalf("SignIn() error = %v", err)
		}
		if user.Email != "ada@example.com" {
			t.Fatalf("expected email ada@example.com, got %s", user.Email)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.SignIn(ctx, SignInRequest{Email: "ada@example.com", Password: "wrongpassword"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("SignIn() error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("non-existent user", func(t *testing.T) {
		_, err := svc.SignIn(ctx, SignInRequest{Email: "nobody@example.com", Password: "password123"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("SignIn() error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		if _, err := svc.SignIn(ctx, SignInRequest{}); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("SignIn() error = %v, want ErrInvalidInput", err)
		}
	})
}

func TestCreateGuest(t *testing.T) {
	ctx := context.Background()
	users := newMockUserStore()
	seeder := &fakeSeeder{}
	svc := newTestService(users, seeder)

	guest, err := svc.CreateGuest(ctx)
	if err != nil {
		t.Fatalf("CreateGuest() error = %v", err)
	}
	if !strings.HasPrefix(guest.Email, "guest_") || !strings.HasSuffix(guest.Email, "@demo.local") {
		t.Fatalf("unexpected guest email %q", guest.Email)
	}
	if !strings.HasPrefix(guest.User.UserName, "guest-") || !guest.User.IsGuest {
		t.Fatalf("unexpected guest user %+v", guest.User)
	}
	if seeder.ownerID != guest.User.ID || len(seeder.items) != 3 {
		t.Fatalf("guest board seeded for %q with %d jobs", seeder.ownerID, len(seeder.items))
	}

	user, err := svc.SignIn(ctx, SignInRequest{Email: guest.Email, Password: guest.Password})
	if err != nil {
		t.Fatalf("SignIn() with guest credentials error = %v", err)
	}
	if user.ID != guest.User.ID {
		t.Fatalf("signed in as %s, want %s", user.ID, guest.User.ID)
	}
}

func TestCreateGuestSeedFailure(t *testing.T) {
	svc := newTestService(newMockUserStore(), &fakeSeeder{err: errors.New("db down")})
	if _, err := svc.CreateGuest(context.Background()); err == nil {
		t.Fatal("expected seed failure to surface")
	}
}
