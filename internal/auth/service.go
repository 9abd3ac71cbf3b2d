package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/prephub/prephub-api/internal/token"
	"github.com/prephub/prephub-api/internal/utils"
	"github.com/samber/oops"
	"golang.org/x/text/cases"
)

const (
	minPasswordLen = 6
	maxUsernameLen = 64
)

// Recorder counts auth outcomes. observability.Metrics satisfies it.
type Recorder interface {
	AuthEvent(event, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) AuthEvent(string, string) {}

type Options struct {
	// IssueTokenOnRegister makes Register log the new user in.
	IssueTokenOnRegister bool
	// HashConcurrency caps concurrent bcrypt operations.
	HashConcurrency int
	Logger          *slog.Logger
	Recorder        Recorder
}

// Service runs the registration and login flows.
type Service struct {
	store     UserStore
	hasher    PasswordHasher
	tokens    *token.Manager
	pool      *hashPool
	opts      Options
	log       *slog.Logger
	rec       Recorder
	dummyHash func() string
}

func NewService(store UserStore, hasher PasswordHasher, tokens *token.Manager, opts Options) *Service {
	s := &Service{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		pool:   newHashPool(opts.HashConcurrency),
		opts:   opts,
		log:    opts.Logger,
		rec:    opts.Recorder,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.rec == nil {
		s.rec = nopRecorder{}
	}
	// Unknown emails are verified against this hash so a miss costs as much
	// as a wrong password.
	s.dummyHash = sync.OnceValue(func() string {
		h, err := hasher.Hash("prephub-dummy-password")
		if err != nil {
			return ""
		}
		return h
	})
	return s
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type RegisterResult struct {
	User  *User
	Token string
}

type LoginResult struct {
	User  *User
	Token string
}

// NormalizeEmail trims and case-folds an address for storage and lookup.
func NormalizeEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}

func validateRegistration(in *RegisterInput) error {
	in.Username = strings.TrimSpace(in.Username)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = NormalizeEmail(in.Email)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))

	switch {
	case in.Username == "":
		return invalid("username", "is required")
	case utf8.RuneCountInString(in.Username) > maxUsernameLen:
		return invalid("username", "is too long")
	case in.Email == "":
		return invalid("email", "is required")
	}

	addr, err := mail.ParseAddress(in.Email)
	if err != nil || addr.Address != in.Email {
		return invalid("email", "is not a valid address")
	}

	switch {
	case utf8.RuneCountInString(in.Password) < minPasswordLen:
		return invalid("password", "must be at least 6 characters")
	case len(in.Password) > MaxPasswordBytes:
		return invalid("password", "must be at most 72 bytes")
	}

	if in.Role == "" {
		in.Role = token.RoleStudent
	}
	if !token.ValidRole(in.Role) {
		return invalid("role", "must be student or admin")
	}
	return nil
}

// Register creates a student account, or an admin account when actor is an
// admin. With IssueTokenOnRegister set the result also carries a token.
func (s *Service) Register(ctx context.Context, in RegisterInput, actor *utils.Identity) (*RegisterResult, error) {
	if err := validateRegistration(&in); err != nil {
		s.rec.AuthEvent("register", "invalid")
		return nil, oops.Code("AUTH_VALIDATION").With("field", fieldOf(err)).Wrap(err)
	}

	if in.Role == token.RoleAdmin {
		if err := s.requireAdmin(ctx, actor); err != nil {
			s.rec.AuthEvent("register", "forbidden")
			return nil, err
		}
	}

	var (
		hash    string
		hashErr error
	)
	if err := s.pool.do(ctx, func() { hash, hashErr = s.hasher.Hash(in.Password) }); err != nil {
		return nil, err
	}
	if hashErr != nil {
		return nil, oops.Code("AUTH_HASH_FAILED").Wrap(hashErr)
	}

	u := &User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Role:         in.Role,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicateAccount) {
			s.rec.AuthEvent("register", "duplicate")
			return nil, oops.Code("AUTH_DUPLICATE_ACCOUNT").With("username", in.Username).Wrap(err)
		}
		s.rec.AuthEvent("register", "error")
		return nil, err
	}

	s.rec.AuthEvent("register", "success")
	s.log.InfoContext(ctx, "user registered", "user_id", u.ID, "role", u.Role)

	res := &RegisterResult{User: u}
	if s.opts.IssueTokenOnRegister {
		tok, err := s.tokens.Issue(u.ID, u.Username, u.Role)
		if err != nil {
			return nil, err
		}
		res.Token = tok
	}
	return res, nil
}

func (s *Service) requireAdmin(ctx context.Context, actor *utils.Identity) error {
	if actor == nil || actor.UserID == 0 {
		return oops.Code("AUTH_FORBIDDEN_ROLE").Wrap(ErrForbiddenRole)
	}
	caller, err := s.store.FindByID(ctx, actor.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return oops.Code("AUTH_FORBIDDEN_ROLE").With("actor_id", actor.UserID).Wrap(ErrForbiddenRole)
	}
	if err != nil {
		return err
	}
	if caller.Role != token.RoleAdmin {
		return oops.Code("AUTH_FORBIDDEN_ROLE").With("actor_id", actor.UserID).Wrap(ErrForbiddenRole)
	}
	return nil
}

// Login checks the credentials and issues a session token. Unknown email and
// wrong password both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		s.rec.AuthEvent("login", "invalid")
		return nil, oops.Code("AUTH_VALIDATION").Wrap(invalid("credentials", "email and password are required"))
	}

	u, err := s.store.FindByEmail(ctx, email)
	var target string
	switch {
	case err == nil:
		target = u.PasswordHash
	case errors.Is(err, ErrUserNotFound):
		u = nil
		target = s.dummyHash()
	default:
		s.rec.AuthEvent("login", "error")
		return nil, oops.Code("AUTH_LOGIN_FAILED").Wrap(err)
	}

	var match bool
	if err := s.pool.do(ctx, func() { match = s.hasher.Verify(password, target) }); err != nil {
		return nil, err
	}

	if u == nil || !match {
		s.rec.AuthEvent("login", "invalid_credentials")
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	tok, err := s.tokens.Issue(u.ID, u.Username, u.Role)
	if err != nil {
		s.rec.AuthEvent("login", "error")
		return nil, err
	}

	s.rec.AuthEvent("login", "success")
	s.log.InfoContext(ctx, "user logged in", "user_id", u.ID)
	return &LoginResult{User: u, Token: tok}, nil
}

// Profile returns the stored account for id.
func (s *Service) Profile(ctx context.Context, id uint) (*User, error) {
	return s.store.FindByID(ctx, id)
}

func fieldOf(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Field
	}
	return ""
}
