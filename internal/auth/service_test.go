package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prephub/prephub-api/internal/token"
	"github.com/prephub/prephub-api/internal/utils"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// memStore is an in-memory UserStore enforcing the same uniqueness rules as
// the database indexes.
type memStore struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*User
	err    error
}

func newMemStore() *memStore {
	return &memStore{users: make(map[uint]*User)}
}

func (m *memStore) CreateUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return ErrDuplicateAccount
		}
	}
	m.nextID++
	u.ID = m.nextID
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) FindByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *memStore) FindByID(_ context.Context, id uint) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (e *eventLog) AuthEvent(event, outcome string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event+":"+outcome)
}

func newTestService(store UserStore, opts Options) *Service {
	if opts.HashConcurrency == 0 {
		opts.HashConcurrency = 4
	}
	return NewService(store, NewBcryptHasher(bcrypt.MinCost), token.NewManager(testSecret, 24*time.Hour), opts)
}

func alice() RegisterInput {
	return RegisterInput{Username: "alice", Email: "a@x.com", Password: "pw123456", FullName: "Alice A"}
}

func TestRegister_CreatesStudent(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, Options{})

	res, err := svc.Register(context.Background(), alice(), nil)
	require.NoError(t, err)

	assert.Equal(t, uint(1), res.User.ID)
	assert.Equal(t, token.RoleStudent, res.User.Role)
	assert.Empty(t, res.Token, "no token unless auto-login is enabled")
	assert.NotEqual(t, "pw123456", res.User.PasswordHash)
	assert.True(t, NewBcryptHasher(bcrypt.MinCost).Verify("pw123456", res.User.PasswordHash))
}

func TestRegister_NormalizesEmail(t *testing.T) {
	svc := newTestService(newMemStore(), Options{})

	in := alice()
	in.Email = "  A@X.COM "
	res, err := svc.Register(context.Background(), in, nil)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", res.User.Email)

	_, err = svc.Login(context.Background(), "A@x.com", "pw123456")
	assert.NoError(t, err)
}

func TestRegister_IssueTokenOnRegister(t *testing.T) {
	svc := newTestService(newMemStore(), Options{IssueTokenOnRegister: true})

	res, err := svc.Register(context.Background(), alice(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)

	claims, err := token.NewManager(testSecret, time.Hour).Validate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(newMemStore(), Options{})

	tests := []struct {
		name  string
		mod   func(*RegisterInput)
		field string
	}{
		{"missing username", func(in *RegisterInput) { in.Username = " " }, "username"},
		{"missing email", func(in *RegisterInput) { in.Email = "" }, "email"},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, "email"},
		{"display-name email", func(in *RegisterInput) { in.Email = "Alice <a@x.com>" }, "email"},
		{"short password", func(in *RegisterInput) { in.Password = "12345" }, "password"},
		{"long password", func(in *RegisterInput) { in.Password = string(make([]byte, 73)) }, "password"},
		{"unknown role", func(in *RegisterInput) { in.Role = "superuser" }, "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := alice()
			tt.mod(&in)

			_, err := svc.Register(context.Background(), in, nil)
			require.ErrorIs(t, err, ErrValidation)

			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.field, fe.Field)

			oopsErr, ok := oops.AsOops(err)
			require.True(t, ok)
			assert.Equal(t, "AUTH_VALIDATION", oopsErr.Code())
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	rec := &eventLog{}
	svc := newTestService(newMemStore(), Options{Recorder: rec})

	_, err := svc.Register(context.Background(), alice(), nil)
	require.NoError(t, err)

	sameEmail := alice()
	sameEmail.Username = "alice2"
	_, err = svc.Register(context.Background(), sameEmail, nil)
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	sameName := alice()
	sameName.Email = "other@x.com"
	_, err = svc.Register(context.Background(), sameName, nil)
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	assert.Equal(t, []string{"register:success", "register:duplicate", "register:duplicate"}, rec.events)
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	svc := newTestService(newMemStore(), Options{})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := alice()
			in.Username = []string{"alice", "alicia"}[i]
			_, errs[i] = svc.Register(context.Background(), in, nil)
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicateAccount):
			dup++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, dup)
}

func TestRegister_AdminRoleRequiresAdminCaller(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, Options{})

	in := alice()
	in.Role = "admin"
	_, err := svc.Register(context.Background(), in, nil)
	assert.ErrorIs(t, err, ErrForbiddenRole, "anonymous caller")

	student, err := svc.Register(context.Background(), RegisterInput{
		Username: "stu", Email: "stu@x.com", Password: "pw123456",
	}, nil)
	require.NoError(t, err)

	// A token claiming admin is not enough; the stored role decides.
	forged := &utils.Identity{UserID: student.User.ID, Username: "stu", Role: token.RoleAdmin}
	_, err = svc.Register(context.Background(), in, forged)
	assert.ErrorIs(t, err, ErrForbiddenRole)

	_, err = svc.Register(context.Background(), in, &utils.Identity{UserID: 999, Role: token.RoleAdmin})
	assert.ErrorIs(t, err, ErrForbiddenRole, "unknown caller")
}

func TestRegister_AdminCreatesAdmin(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.CreateUser(context.Background(), &User{
		Username: "root", Email: "root@x.com", PasswordHash: "x", Role: token.RoleAdmin,
	}))
	svc := newTestService(store, Options{})

	in := alice()
	in.Role = "Admin"
	res, err := svc.Register(context.Background(), in, &utils.Identity{UserID: 1, Username: "root", Role: token.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, token.RoleAdmin, res.User.Role)
}

func TestLogin_Success(t *testing.T) {
	svc := newTestService(newMemStore(), Options{})
	_, err := svc.Register(context.Background(), alice(), nil)
	require.NoError(t, err)

	res, err := svc.Login(context.Background(), "a@x.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", res.User.Email)

	claims, err := token.NewManager(testSecret, time.Hour).Validate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, token.RoleStudent, claims.Role)
}

func TestLogin_UnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	svc := newTestService(newMemStore(), Options{})
	_, err := svc.Register(context.Background(), alice(), nil)
	require.NoError(t, err)

	_, wrongPw := svc.Login(context.Background(), "a@x.com", "wrong-password")
	_, unknown := svc.Login(context.Background(), "b@x.com", "pw123456")

	require.ErrorIs(t, wrongPw, ErrInvalidCredentials)
	require.ErrorIs(t, unknown, ErrInvalidCredentials)
	assert.Equal(t, wrongPw.Error(), unknown.Error())

	a, ok := oops.AsOops(wrongPw)
	require.True(t, ok)
	b, ok := oops.AsOops(unknown)
	require.True(t, ok)
	assert.Equal(t, a.Code(), b.Code())
}

func TestLogin_MissingFields(t *testing.T) {
	svc := newTestService(newMemStore(), Options{})

	_, err := svc.Login(context.Background(), "", "pw")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLogin_StoreFailure(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("connection refused")
	svc := newTestService(store, Options{})

	_, err := svc.Login(context.Background(), "a@x.com", "pw123456")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidCredentials))
}

func TestLogin_RecordsOutcomes(t *testing.T) {
	rec := &eventLog{}
	svc := newTestService(newMemStore(), Options{Recorder: rec})
	_, err := svc.Register(context.Background(), alice(), nil)
	require.NoError(t, err)

	_, _ = svc.Login(context.Background(), "a@x.com", "nope-nope")
	_, _ = svc.Login(context.Background(), "a@x.com", "pw123456")

	assert.Equal(t, []string{"register:success", "login:invalid_credentials", "login:success"}, rec.events)
}

func TestProfile(t *testing.T) {
	svc := newTestService(newMemStore(), Options{})
	res, err := svc.Register(context.Background(), alice(), nil)
	require.NoError(t, err)

	u, err := svc.Profile(context.Background(), res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, Profile{ID: 1, Username: "alice", Email: "a@x.com", Role: token.RoleStudent}, u.Profile())

	_, err = svc.Profile(context.Background(), 42)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
