package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/storefront-labs/storefront-backend/internal/users"
	pkgAuth "github.com/storefront-labs/storefront-backend/pkg/auth"
	"github.com/storefront-labs/storefront-backend/pkg/config"
	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/security"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 30}

type stubUserRepo struct {
	byEmail    map[string]*models.User
	lastLogins map[uuid.UUID]time.Time
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byEmail: map[string]*models.User{}, lastLogins: map[uuid.UUID]time.Time{}}
}

func (s *stubUserRepo) Create(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if _, exists := s.byEmail[user.Email]; exists {
		return nil, users.ErrEmailTaken
	}
	s.byEmail[user.Email] = user
	return user, nil
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, users.ErrNotFound
}

func (s *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	for _, user := range s.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, users.ErrNotFound
}

func (s *stubUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	s.lastLogins[id] = at
	return nil
}

func buildTestService(t *testing.T, repo *stubUserRepo) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:  repo,
		Hasher:    security.NewPasswordHasher(config.PasswordConfig{ArgonMemoryKB: 64, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}),
		JWTConfig: testJWT,
		Now:       func() time.Time { return time.Now() },
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestRegisterIssuesCustomerToken(t *testing.T) {
	repo := newStubUserRepo()
	svc := buildTestService(t, repo)

	resp, err := svc.Register(context.Background(), RegisterRequest{Name: "Ada", Email: "Ada@Example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.Email != "ada@example.com" || resp.User.Role != enums.UserRoleCustomer {
		t.Fatalf("unexpected user %+v", resp.User)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != resp.User.ID || claims.IsAdmin() {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if resp.TokenType != "Bearer" {
		t.Fatalf("unexpected token type %q", resp.TokenType)
	}

	_, err = svc.Register(context.Background(), RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "correct-horse"})
	expectCode(t, err, pkgerrors.CodeConflict)
}

func TestRegisterValidatesInput(t *testing.T) {
	svc := buildTestService(t, newStubUserRepo())

	_, err := svc.Register(context.Background(), RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "short"})
	expectCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Register(context.Background(), RegisterRequest{Name: " ", Email: "ada@example.com", Password: "long-enough"})
	expectCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Register(context.Background(), RegisterRequest{Name: "Ada", Email: "not-an-email", Password: "long-enough"})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestLoginChecksPasswordAndRecordsLogin(t *testing.T) {
	repo := newStubUserRepo()
	svc := buildTestService(t, repo)
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "correct-horse"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	resp, err := svc.Login(ctx, LoginRequest{Email: " ADA@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, ok := repo.lastLogins[resp.User.ID]; !ok {
		t.Fatal("expected last login to be recorded")
	}
	if resp.User.LastLoginAt == nil {
		t.Fatal("expected last login on response")
	}

	_, err = svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "wrong-horse"})
	expectCode(t, err, pkgerrors.CodeUnauthorized)

	_, err = svc.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "correct-horse"})
	expectCode(t, err, pkgerrors.CodeUnauthorized)

	repo.byEmail["ada@example.com"].IsActive = false
	_, err = svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	expectCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	repo := newStubUserRepo()
	svc := buildTestService(t, repo)
	ctx := context.Background()
	account := AdminAccount{Email: "ops@example.com", Password: "admin-password"}

	first, err := svc.EnsureAdmin(ctx, account)
	if err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if first.Role != enums.UserRoleAdmin || first.Name != "Administrator" {
		t.Fatalf("unexpected admin %+v", first)
	}
	second, err := svc.EnsureAdmin(ctx, account)
	if err != nil {
		t.Fatalf("ensure admin again: %v", err)
	}
	if first.ID != second.ID {
		t.Fatal("expected existing admin to be reused")
	}

	resp, err := svc.Login(ctx, LoginRequest{Email: "ops@example.com", Password: "admin-password"})
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil || !claims.IsAdmin() {
		t.Fatalf("expected admin claims, got %+v (%v)", claims, err)
	}

	if _, err := svc.Register(ctx, RegisterRequest{Name: "Cust", Email: "cust@example.com", Password: "customer-pass"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err = svc.EnsureAdmin(ctx, AdminAccount{Email: "cust@example.com", Password: "whatever-long"})
	expectCode(t, err, pkgerrors.CodeConflict)
}

func TestProfile(t *testing.T) {
	repo := newStubUserRepo()
	svc := buildTestService(t, repo)
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	profile, err := svc.Profile(ctx, resp.User.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Email != "ada@example.com" || profile.Role != enums.UserRoleCustomer {
		t.Fatalf("unexpected profile %+v", profile)
	}

	_, err = svc.Profile(ctx, uuid.New())
	expectCode(t, err, pkgerrors.CodeUnauthorized)

	repo.byEmail["ada@example.com"].IsActive = false
	_, err = svc.Profile(ctx, resp.User.ID)
	expectCode(t, err, pkgerrors.CodeForbidden)
}
