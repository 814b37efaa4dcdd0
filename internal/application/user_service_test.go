package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videotube/internal/domain/entity"
	repo "videotube/internal/domain/repository"
	"videotube/pkg/apperr"
	"videotube/pkg/helpers"
)

type memRepo struct {
	users         map[string]*entity.User
	watch         map[string][]entity.WatchEntry
	seq           int
	createCalls   int
	failSanitized bool
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[string]*entity.User{}, watch: map[string][]entity.WatchEntry{}}
}

func (m *memRepo) Create(_ context.Context, u *entity.User) error {
	m.createCalls++
	for _, ex := range m.users {
		if ex.Username == u.Username || ex.Email == u.Email {
			return repo.ErrDuplicate
		}
	}
	m.seq++
	u.ID = strconv.Itoa(m.seq)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) GetSanitizedByID(ctx context.Context, id string) (*entity.SanitizedUser, error) {
	if m.failSanitized {
		return nil, repo.ErrNotFound
	}
	u, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Sanitized(), nil
}

func (m *memRepo) GetByUsernameOrEmail(_ context.Context, username, email string) (*entity.User, error) {
	username = strings.ToLower(username)
	email = strings.ToLower(email)
	for _, u := range m.users {
		if u.Username == username || u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memRepo) UpdateAccount(_ context.Context, id, fullName, email string) error {
	email = strings.ToLower(email)
	for oid, other := range m.users {
		if oid != id && other.Email == email {
			return repo.ErrDuplicate
		}
	}
	u, ok := m.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.FullName, u.Email = fullName, email
	return nil
}

func (m *memRepo) UpdateAvatar(_ context.Context, id, url string) error {
	return m.set(id, func(u *entity.User) { u.AvatarURL = url })
}

func (m *memRepo) UpdateCoverImage(_ context.Context, id, url string) error {
	return m.set(id, func(u *entity.User) { u.CoverImageURL = url })
}

func (m *memRepo) UpdatePassword(_ context.Context, id, hash string) error {
	return m.set(id, func(u *entity.User) { u.Password = hash })
}

func (m *memRepo) UpdateRefreshToken(_ context.Context, id, token string) error {
	return m.set(id, func(u *entity.User) { u.RefreshToken = token })
}

func (m *memRepo) set(id string, fn func(*entity.User)) error {
	u, ok := m.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now()
	return nil
}

func (m *memRepo) AddWatchEntry(_ context.Context, userID, videoID string) error {
	m.watch[userID] = append([]entity.WatchEntry{{VideoID: videoID, WatchedAt: time.Now()}}, m.watch[userID]...)
	return nil
}

func (m *memRepo) WatchHistory(_ context.Context, userID string) ([]entity.WatchEntry, error) {
	return m.watch[userID], nil
}

type fakeUploader struct {
	calls []string
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, localPath string) (string, error) {
	f.calls = append(f.calls, localPath)
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example.com/" + strings.TrimPrefix(localPath, "/tmp/"), nil
}

func newTestService(t *testing.T) (*Service, *memRepo, *fakeUploader) {
	t.Helper()
	r := newMemRepo()
	up := &fakeUploader{}
	jwt, err := helpers.NewJWTManager(helpers.TokenConfig{
		AccessSecret:  "access-secret",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    240 * time.Hour,
	})
	require.NoError(t, err)
	return NewService(r, jwt, up, nil, nil, nil, "", nil, false), r, up
}

func validInput() RegisterInput {
	return RegisterInput{
		Username:   "Alice",
		Email:      "a@x.com",
		FullName:   "Alice A",
		Password:   "pw123",
		AvatarPath: "/tmp/a.png",
	}
}

func TestRegisterMissingFields(t *testing.T) {
	cases := map[string]func(*RegisterInput){
		"no username":         func(in *RegisterInput) { in.Username = "" },
		"no email":            func(in *RegisterInput) { in.Email = "" },
		"no fullname":         func(in *RegisterInput) { in.FullName = "" },
		"no password":         func(in *RegisterInput) { in.Password = "" },
		"whitespace username": func(in *RegisterInput) { in.Username = "   " },
		"whitespace password": func(in *RegisterInput) { in.Password = "\t\n" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			svc, r, up := newTestService(t)
			in := validInput()
			mutate(&in)

			_, err := svc.Register(context.Background(), in)

			var ae *apperr.Error
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, 400, ae.Status)
			assert.Equal(t, "all fields are required", ae.Message)
			assert.Empty(t, up.calls, "no upload may happen for invalid input")
			assert.Zero(t, r.createCalls, "no create may happen for invalid input")
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc, r, _ := newTestService(t)
	_, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)
	creates := r.createCalls

	for name, in := range map[string]RegisterInput{
		"same username": {Username: "alice", Email: "other@x.com", FullName: "B", Password: "pw", AvatarPath: "/tmp/b.png"},
		"same email":    {Username: "bob", Email: "A@X.com", FullName: "B", Password: "pw", AvatarPath: "/tmp/b.png"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), in)
			var ae *apperr.Error
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, 409, ae.Status)
			assert.Equal(t, creates, r.createCalls, "duplicate must not reach create")
		})
	}
}

func TestRegisterDuplicateLostRace(t *testing.T) {
	// Pre-check passes but the storage-level unique index rejects the
	// insert; the workflow must still answer 409.
	svc, r, _ := newTestService(t)
	_, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	// Drive the race through Create directly: a duplicate that slipped past
	// a stale pre-check is rejected by the store itself.
	u := &entity.User{Username: "alice", Email: "a@x.com", FullName: "Alice A", AvatarURL: "x", Password: "h"}
	err = r.Create(context.Background(), u)
	assert.ErrorIs(t, err, repo.ErrDuplicate)
}

func TestRegisterAvatarRequired(t *testing.T) {
	svc, r, up := newTestService(t)
	in := validInput()
	in.AvatarPath = ""

	_, err := svc.Register(context.Background(), in)

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 400, ae.Status)
	assert.Equal(t, "avatar is required", ae.Message)
	assert.Empty(t, up.calls, "missing avatar must be caught before any upload")
	assert.Zero(t, r.createCalls)
}

func TestRegisterUploadFailureLeavesNoRecord(t *testing.T) {
	svc, r, up := newTestService(t)
	up.err = errors.New("bucket unreachable")

	_, err := svc.Register(context.Background(), validInput())

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 502, ae.Status)
	assert.Zero(t, r.createCalls, "failed avatar upload must not persist a user")
}

func TestRegisterWithCoverImage(t *testing.T) {
	svc, _, up := newTestService(t)
	in := validInput()
	in.CoverImagePath = "/tmp/cover.jpg"

	created, err := svc.Register(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, up.calls, 2)
	assert.Equal(t, "https://cdn.example.com/cover.jpg", created.CoverImageURL,
		"cover image url must round-trip from the uploader into the record")
	assert.Equal(t, "https://cdn.example.com/a.png", created.AvatarURL)
}

func TestRegisterWithoutCoverImage(t *testing.T) {
	svc, _, up := newTestService(t)

	created, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	require.Len(t, up.calls, 1)
	assert.Empty(t, created.CoverImageURL)
}

func TestRegisterSanitizedResponse(t *testing.T) {
	svc, r, _ := newTestService(t)

	created, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	b, err := json.Marshal(created)
	require.NoError(t, err)
	body := string(b)
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "refresh_token")
	assert.NotContains(t, body, "pw123")

	stored := r.users[created.ID]
	require.NotNil(t, stored)
	assert.NotEqual(t, "pw123", stored.Password, "plaintext must never be stored")
	assert.True(t, helpers.CheckPassword(stored.Password, "pw123"))
}

func TestRegisterLowercasesUsername(t *testing.T) {
	svc, r, _ := newTestService(t)

	created, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, "alice", r.users[created.ID].Username)
	assert.Equal(t, "a@x.com", created.Email)
}

func TestRegisterReFetchMiss(t *testing.T) {
	svc, r, _ := newTestService(t)
	r.failSanitized = true

	_, err := svc.Register(context.Background(), validInput())

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 500, ae.Status)
	assert.Equal(t, "something went wrong while registering the user", ae.Message)
}

func TestLoginAndRefresh(t *testing.T) {
	svc, r, _ := newTestService(t)
	created, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	u, pair, err := svc.Login(context.Background(), "alice", "pw123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, pair.RefreshToken, r.users[created.ID].RefreshToken,
		"latest refresh token must be persisted on the user row")

	claims, err := svc.JWT.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "Alice A", claims.FullName)
	assert.Equal(t, "a@x.com", claims.Email)

	// Login by email works too.
	_, _, err = svc.Login(context.Background(), "a@x.com", "pw123")
	require.NoError(t, err)

	rotated, uid, err := svc.Refresh(context.Background(), r.users[created.ID].RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, uid)
	assert.Equal(t, rotated.RefreshToken, r.users[created.ID].RefreshToken)

	// The pre-rotation token is no longer accepted.
	_, _, err = svc.Refresh(context.Background(), pair.RefreshToken)
	if pair.RefreshToken != rotated.RefreshToken {
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
}

func TestLogoutClearsRefreshToken(t *testing.T) {
	svc, r, _ := newTestService(t)
	created, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)
	_, _, err = svc.Login(context.Background(), "alice", "pw123")
	require.NoError(t, err)
	require.NotEmpty(t, r.users[created.ID].RefreshToken)

	require.NoError(t, svc.Logout(context.Background(), created.ID))
	assert.Empty(t, r.users[created.ID].RefreshToken)
}

func TestChangePassword(t *testing.T) {
	svc, r, _ := newTestService(t)
	created, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)
	oldHash := r.users[created.ID].Password

	err = svc.ChangePassword(context.Background(), created.ID, "nope", "newpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, oldHash, r.users[created.ID].Password)

	require.NoError(t, svc.ChangePassword(context.Background(), created.ID, "pw123", "newpassword"))
	assert.True(t, helpers.CheckPassword(r.users[created.ID].Password, "newpassword"))
	assert.False(t, helpers.CheckPassword(r.users[created.ID].Password, "pw123"))
}

func TestUpdateAccountConflict(t *testing.T) {
	svc, _, _ := newTestService(t)
	a, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	other := validInput()
	other.Username = "bob"
	other.Email = "b@x.com"
	_, err = svc.Register(context.Background(), other)
	require.NoError(t, err)

	_, err = svc.UpdateAccount(context.Background(), a.ID, "Alice A", "B@x.com")
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 409, ae.Status)
}

func TestWatchHistoryOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		require.NoError(t, svc.AddWatchEntry(context.Background(), created.ID, fmt.Sprintf("video-%d", i)))
	}
	entries, err := svc.WatchHistory(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "video-3", entries[0].VideoID, "most recent first")

	err = svc.AddWatchEntry(context.Background(), created.ID, "  ")
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 400, ae.Status)
}

var _ repo.UserRepository = (*memRepo)(nil)
