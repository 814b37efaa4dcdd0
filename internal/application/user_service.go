package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"videotube/internal/domain/entity"
	repo "videotube/internal/domain/repository"
	"videotube/pkg/apperr"
	"videotube/pkg/helpers"
	"videotube/pkg/mailer"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

// Service orchestrates the user workflows: registration, credential
// management and token issuance.
type Service struct {
	Repo         repo.UserRepository
	JWT          *helpers.JWTManager
	Uploader     helpers.MediaUploader
	Redis        *redis.Client
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESUsersIndex string
	Mail         *helpers.RabbitPublisher
	MailEnabled  bool
}

func NewService(repo repo.UserRepository, jwt *helpers.JWTManager, uploader helpers.MediaUploader, rdb *redis.Client, logger *logrus.Logger, es *elasticsearch.Client, esUsersIndex string, mail *helpers.RabbitPublisher, mailEnabled bool) *Service {
	return &Service{
		Repo:         repo,
		JWT:          jwt,
		Uploader:     uploader,
		Redis:        rdb,
		Logger:       logger,
		ES:           es,
		ESUsersIndex: esUsersIndex,
		Mail:         mail,
		MailEnabled:  mailEnabled,
	}
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func sessionKey(userID string) string {
	return "user:session:" + userID
}

func profileKey(userID string) string {
	return "user:profile:" + userID
}

const profileCacheTTL = 5 * time.Minute

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// RegisterInput carries the form fields plus the local paths of the files
// the HTTP layer already received. CoverImagePath may be empty.
type RegisterInput struct {
	Username       string
	Email          string
	FullName       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

// Register runs the registration pipeline. Each stage short-circuits on
// failure and the record is only created after every validation and upload
// succeeded, so no partial user is ever persisted.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.SanitizedUser, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))
	fullName := strings.TrimSpace(in.FullName)
	password := strings.TrimSpace(in.Password)

	if username == "" || email == "" || fullName == "" || password == "" {
		return nil, apperr.Validation("all fields are required")
	}

	// Pre-check for a fast 409. The unique indexes remain the source of
	// truth; a race here surfaces as ErrDuplicate at create time.
	existing, err := s.Repo.GetByUsernameOrEmail(ctx, username, email)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("user with the username or email already exists")
	}

	if in.AvatarPath == "" {
		return nil, apperr.Validation("avatar is required")
	}

	avatarURL, err := s.Uploader.Upload(ctx, in.AvatarPath)
	if err != nil {
		s.logWarn("avatar upload failed", err, logrus.Fields{"username": username})
		return nil, apperr.Upload("avatar upload failed")
	}
	if avatarURL == "" {
		return nil, apperr.Upload("avatar upload returned no url")
	}

	coverImageURL := ""
	if in.CoverImagePath != "" {
		url, err := s.Uploader.Upload(ctx, in.CoverImagePath)
		if err != nil {
			s.logWarn("cover image upload failed", err, logrus.Fields{"username": username})
			return nil, apperr.Upload("cover image upload failed")
		}
		coverImageURL = url
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &entity.User{
		Username:      username,
		Email:         email,
		FullName:      fullName,
		AvatarURL:     avatarURL,
		CoverImageURL: coverImageURL,
		Password:      hash,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, apperr.Conflict("user with the username or email already exists")
		}
		return nil, err
	}

	created, err := s.Repo.GetSanitizedByID(ctx, u.ID)
	if err != nil {
		return nil, apperr.Internal("something went wrong while registering the user")
	}

	s.indexUser(ctx, created)
	s.enqueueEmail(ctx, mailer.TemplateWelcome, created)
	return created, nil
}

// Login verifies credentials against the stored hash, issues a token pair,
// persists the refresh token on the user row and records a Redis session.
func (s *Service) Login(ctx context.Context, identifier, password string) (*entity.SanitizedUser, TokenPair, error) {
	u, err := s.Repo.GetByUsernameOrEmail(ctx, identifier, identifier)
	if err != nil || u == nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if !helpers.CheckPassword(u.Password, password) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	pair, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u.Sanitized(), pair, nil
}

func (s *Service) issueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, u.Username, u.FullName, u.Email)
	if err != nil {
		s.logWarn("generate access token failed", err, logrus.Fields{"user_id": u.ID})
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID)
	if err != nil {
		s.logWarn("generate refresh token failed", err, logrus.Fields{"user_id": u.ID})
		return TokenPair{}, err
	}

	if err := s.Repo.UpdateRefreshToken(ctx, u.ID, refresh); err != nil {
		return TokenPair{}, err
	}

	if s.Redis != nil {
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    u.ID,
			"username":   u.Username,
			"email":      u.Email,
			"fullname":   u.FullName,
			"avatar_url": u.AvatarURL,
			"sid":        uuid.NewString(),
			"created_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, 24*time.Hour)
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			s.logWarn("redis pipeline failed", rErr, logrus.Fields{"key": key})
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// Refresh rotates the token pair. The presented refresh token must match
// the one stored on the user row, which invalidates older tokens.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	if u.RefreshToken == "" || u.RefreshToken != refreshToken {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	pair, err := s.issueTokens(ctx, u)
	if err != nil {
		return TokenPair{}, "", err
	}
	return pair, u.ID, nil
}

// Logout clears the stored refresh token and drops the session.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.Repo.UpdateRefreshToken(ctx, userID, ""); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	if s.Redis != nil {
		if err := s.Redis.Del(ctx, sessionKey(userID)).Err(); err != nil {
			s.logWarn("session delete failed", err, logrus.Fields{"user_id": userID})
		}
	}
	return nil
}

// ChangePassword verifies the old password and stores a fresh hash. This is
// the only path besides Register that writes the password column.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return ErrUserNotFound
	}
	if !helpers.CheckPassword(u.Password, oldPassword) {
		return ErrInvalidCredentials
	}
	hash, err := helpers.HashPassword(strings.TrimSpace(newPassword))
	if err != nil {
		return apperr.Validation("new password must not be empty")
	}
	if err := s.Repo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	s.enqueueEmail(ctx, mailer.TemplatePasswordChanged, u.Sanitized())
	return nil
}

// CurrentUser returns the sanitized profile, served from the Redis cache
// when a fresh copy is available.
func (s *Service) CurrentUser(ctx context.Context, userID string) (*entity.SanitizedUser, error) {
	if s.Redis != nil {
		var cached entity.SanitizedUser
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, profileKey(userID), &cached); err == nil && ok {
			return &cached, nil
		}
	}
	u, err := s.Repo.GetSanitizedByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	s.cacheProfile(ctx, u)
	return u, nil
}

func (s *Service) cacheProfile(ctx context.Context, u *entity.SanitizedUser) {
	if s.Redis == nil || u == nil {
		return
	}
	if err := helpers.RedisSetJSON(ctx, s.Redis, profileKey(u.ID), u, profileCacheTTL); err != nil {
		s.logWarn("profile cache write failed", err, logrus.Fields{"user_id": u.ID})
	}
}

// UpdateAccount changes fullname and email, keeping email uniqueness.
func (s *Service) UpdateAccount(ctx context.Context, userID, fullName, email string) (*entity.SanitizedUser, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" {
		return nil, apperr.Validation("all fields are required")
	}
	if err := s.Repo.UpdateAccount(ctx, userID, fullName, email); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, apperr.Conflict("email already in use")
		}
		return nil, err
	}
	u, err := s.Repo.GetSanitizedByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	s.cacheProfile(ctx, u)
	s.indexUser(ctx, u)
	return u, nil
}

// UpdateAvatar uploads a replacement avatar and stores its URL.
func (s *Service) UpdateAvatar(ctx context.Context, userID, localPath string) (*entity.SanitizedUser, error) {
	if localPath == "" {
		return nil, apperr.Validation("avatar is required")
	}
	url, err := s.Uploader.Upload(ctx, localPath)
	if err != nil || url == "" {
		return nil, apperr.Upload("avatar upload failed")
	}
	if err := s.Repo.UpdateAvatar(ctx, userID, url); err != nil {
		return nil, err
	}
	u, err := s.Repo.GetSanitizedByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if s.Redis != nil {
		s.Redis.HSet(ctx, sessionKey(userID), map[string]any{
			"avatar_url": url,
			"updated_at": nowRFC3339(),
		})
	}
	s.cacheProfile(ctx, u)
	s.indexUser(ctx, u)
	return u, nil
}

// UpdateCoverImage uploads a replacement cover image and stores its URL.
func (s *Service) UpdateCoverImage(ctx context.Context, userID, localPath string) (*entity.SanitizedUser, error) {
	if localPath == "" {
		return nil, apperr.Validation("cover image is required")
	}
	url, err := s.Uploader.Upload(ctx, localPath)
	if err != nil || url == "" {
		return nil, apperr.Upload("cover image upload failed")
	}
	if err := s.Repo.UpdateCoverImage(ctx, userID, url); err != nil {
		return nil, err
	}
	u, err := s.Repo.GetSanitizedByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	s.cacheProfile(ctx, u)
	return u, nil
}

// AddWatchEntry appends a video reference to the user's history.
func (s *Service) AddWatchEntry(ctx context.Context, userID, videoID string) error {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return apperr.Validation("video id is required")
	}
	return s.Repo.AddWatchEntry(ctx, userID, videoID)
}

// WatchHistory returns the user's history, most recent first.
func (s *Service) WatchHistory(ctx context.Context, userID string) ([]entity.WatchEntry, error) {
	return s.Repo.WatchHistory(ctx, userID)
}

func (s *Service) indexUser(ctx context.Context, u *entity.SanitizedUser) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return
	}
	doc := map[string]any{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"fullname":   u.FullName,
		"avatar_url": u.AvatarURL,
		"created_at": u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": u.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.logWarn("es index failed", err, logrus.Fields{"user_id": u.ID})
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		s.logWarn("es index response error", nil, logrus.Fields{"status": res.Status(), "user_id": u.ID})
	}
}

// SearchUsers performs a multi_match search on username and fullname.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"username^2", "fullname"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESUsersIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func (s *Service) enqueueEmail(ctx context.Context, template string, u *entity.SanitizedUser) {
	if s.Mail == nil || !s.MailEnabled {
		return
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: template,
		Data: map[string]any{
			"Username": u.Username,
			"FullName": u.FullName,
		},
	}
	if err := s.Mail.PublishJSON(ctx, job); err != nil {
		s.logWarn("email enqueue failed", err, logrus.Fields{"template": template, "user_id": u.ID})
	}
}

func (s *Service) logWarn(msg string, err error, fields logrus.Fields) {
	if s.Logger == nil {
		return
	}
	entry := s.Logger.WithFields(fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn(msg)
}
