package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/projectfocus/focus-api/internal/domain/entity"
	repo "github.com/projectfocus/focus-api/internal/domain/repository"
	"github.com/projectfocus/focus-api/pkg/helpers"
	"github.com/projectfocus/focus-api/pkg/mailer"
	"github.com/projectfocus/focus-api/pkg/mailer/templates"
	"github.com/projectfocus/focus-api/pkg/validation"
)

const (
	DefaultSessionTTL   = 2 * time.Hour
	DefaultStoreTimeout = 2 * time.Second
	maxNameLength       = 100
)

// Hasher is implemented by *helpers.PasswordHasher.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
	DummyHash() string
}

// TokenIssuer is implemented by *helpers.TokenManager.
type TokenIssuer interface {
	Issue(subject string, ttl time.Duration) (helpers.SessionToken, error)
	Verify(token string) (*helpers.Claims, error)
}

// AttemptLimiter is implemented by *cache.AttemptLimiter.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
	Release(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// RevocationStore is implemented by *cache.RevocationList.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// EventPublisher is implemented by *helpers.RabbitPublisher.
type EventPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Directory is implemented by *search.UserIndex.
type Directory interface {
	Index(ctx context.Context, u entity.PublicUser, createdAt time.Time) error
}

// AuthDeps are the collaborators of AuthService. Limiter, Revocations,
// Events and Directory are optional.
type AuthDeps struct {
	Users       repo.UserRepository
	Hasher      Hasher
	Tokens      TokenIssuer
	Limiter     AttemptLimiter
	Revocations RevocationStore
	Events      EventPublisher
	Directory   Directory
	Logger      *logrus.Logger
}

type AuthConfig struct {
	Policy       PasswordPolicy
	SessionTTL   time.Duration
	StoreTimeout time.Duration
	RetryBackoff time.Duration
	Brand        templates.Brand
}

type AuthService struct {
	deps AuthDeps
	cfg  AuthConfig
}

func NewAuthService(deps AuthDeps, cfg AuthConfig) *AuthService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultStoreTimeout
	}
	if cfg.Policy.MinLength <= 0 {
		cfg.Policy.MinLength = 8
	}
	if deps.Logger == nil {
		deps.Logger = helpers.NewDiscardLogger()
	}
	return &AuthService{deps: deps, cfg: cfg}
}

// SessionTTL is the lifetime given to every issued token.
func (s *AuthService) SessionTTL() time.Duration { return s.cfg.SessionTTL }

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

type LoginInput struct {
	Email     string
	Password  string
	ClientIP  string
	UserAgent string
}

type LoginResult struct {
	User  entity.PublicUser
	Token helpers.SessionToken
}

// Session is the verified content of a session token.
type Session struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

func loginEmailKey(email string) string { return "login:email:" + email }
func loginIPKey(ip string) string       { return "login:ip:" + ip }

// Signup registers a new account. Uniqueness is decided by the store; the
// lookup beforehand only gives the common case a friendlier answer.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*entity.PublicUser, error) {
	name := strings.TrimSpace(in.Name)
	email := entity.NormalizeEmail(in.Email)

	details := map[string]string{}
	switch {
	case name == "":
		details["name"] = "is required"
	case len([]rune(name)) > maxNameLength:
		details["name"] = "must be at most 100 characters long"
	}
	if !validation.IsEmail(email) {
		details["email"] = "must be a valid email"
	}
	if v := s.cfg.Policy.Check(in.Password); len(v) > 0 {
		details["password"] = strings.Join(v, "; ")
	}
	if len(details) > 0 {
		e := newError(KindInvalidInput, nil)
		e.Details = details
		return nil, e
	}

	existing, err := s.lookup(ctx, "find_by_email", func(c context.Context) (*entity.User, error) {
		return s.deps.Users.FindByEmail(c, email)
	})
	switch {
	case err == nil && existing != nil:
		return nil, newError(KindEmailTaken, nil)
	case err != nil && !errors.Is(err, repo.ErrNotFound):
		s.deps.Logger.WithError(err).Error("signup lookup failed")
		return nil, newError(KindServiceUnavailable, err)
	}

	hash, err := s.deps.Hasher.Hash(in.Password)
	if err != nil {
		s.deps.Logger.WithError(err).Error("hash password failed")
		return nil, newError(KindServiceUnavailable, err)
	}

	u := &entity.User{Name: name, Email: email, PasswordHash: hash}
	// inserts are not retried: a timed out insert may still have committed
	c, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	err = s.deps.Users.Create(c, u)
	cancel()
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, newError(KindDuplicateEmail, err)
		}
		s.deps.Logger.WithError(err).Error("create user failed")
		return nil, newError(KindServiceUnavailable, err)
	}

	pub := u.Public()
	s.afterSignup(ctx, u)
	return &pub, nil
}

func (s *AuthService) afterSignup(ctx context.Context, u *entity.User) {
	log := s.deps.Logger.WithField("user_id", u.ID)
	if s.deps.Directory != nil {
		if err := s.deps.Directory.Index(ctx, u.Public(), u.CreatedAt); err != nil {
			log.WithError(err).Warn("directory index failed")
		}
	}
	s.publish(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: templates.Welcome,
		Data:     templates.NewWelcomeData(s.cfg.Brand, u.Name, u.Email),
	}, log)
}

// Login checks credentials and issues a session token. Unknown email and
// wrong password take the same path through one bcrypt comparison.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := entity.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, newError(KindInvalidCredentials, nil)
	}

	if err := s.checkLimits(ctx, email, in.ClientIP); err != nil {
		return nil, err
	}

	u, err := s.lookup(ctx, "find_by_email", func(c context.Context) (*entity.User, error) {
		return s.deps.Users.FindByEmail(c, email)
	})
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		s.deps.Logger.WithError(err).Error("login lookup failed")
		return nil, newError(KindServiceUnavailable, err)
	}

	hash := s.deps.Hasher.DummyHash()
	if u != nil {
		hash = u.PasswordHash
	}
	ok := s.deps.Hasher.Verify(in.Password, hash)
	if u == nil || !ok {
		return nil, newError(KindInvalidCredentials, nil)
	}

	s.forgiveAttempt(ctx, email, in.ClientIP)

	tok, err := s.deps.Tokens.Issue(u.ID, s.cfg.SessionTTL)
	if err != nil {
		s.deps.Logger.WithError(err).WithField("user_id", u.ID).Error("issue session token failed")
		return nil, newError(KindServiceUnavailable, err)
	}

	opts := []templates.Option{templates.WithTime(tok.IssuedAt)}
	if in.ClientIP != "" {
		opts = append(opts, templates.WithIP(in.ClientIP))
	}
	if in.UserAgent != "" {
		opts = append(opts, templates.WithUserAgent(in.UserAgent))
	}
	s.publish(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: templates.LoginNotification,
		Data:     templates.NewLoginNotificationData(s.cfg.Brand, u.Name, u.Email, opts...),
	}, s.deps.Logger.WithField("user_id", u.ID))

	return &LoginResult{User: u.Public(), Token: tok}, nil
}

// checkLimits records the attempt against the email and the client IP.
// Limiter failures let the attempt through.
func (s *AuthService) checkLimits(ctx context.Context, email, ip string) error {
	if s.deps.Limiter == nil {
		return nil
	}
	keys := []string{loginEmailKey(email)}
	if ip != "" {
		keys = append(keys, loginIPKey(ip))
	}
	var wait time.Duration
	limited := false
	for _, k := range keys {
		ok, retry, err := s.deps.Limiter.Allow(ctx, k)
		if err != nil {
			s.deps.Logger.WithError(err).WithField("key", k).Warn("login limiter unavailable")
			continue
		}
		if !ok {
			limited = true
			if retry > wait {
				wait = retry
			}
		}
	}
	if limited {
		e := newError(KindRateLimited, nil)
		e.RetryAfter = wait
		return e
	}
	return nil
}

// forgiveAttempt takes a successful login off the failure counters: the
// email counter starts over and the IP gets its attempt back, so a shared
// address is limited by failures only.
func (s *AuthService) forgiveAttempt(ctx context.Context, email, ip string) {
	if s.deps.Limiter == nil {
		return
	}
	if err := s.deps.Limiter.Reset(ctx, loginEmailKey(email)); err != nil {
		s.deps.Logger.WithError(err).Warn("reset login limiter failed")
	}
	if ip == "" {
		return
	}
	if err := s.deps.Limiter.Release(ctx, loginIPKey(ip)); err != nil {
		s.deps.Logger.WithError(err).Warn("release login limiter failed")
	}
}

// Authenticate verifies a session token and checks it has not been revoked.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, newError(KindTokenInvalid, nil)
	}
	claims, err := s.deps.Tokens.Verify(token)
	if err != nil {
		if errors.Is(err, helpers.ErrTokenExpired) {
			return nil, newError(KindTokenExpired, err)
		}
		return nil, newError(KindTokenInvalid, err)
	}
	if s.deps.Revocations != nil {
		revoked, err := s.deps.Revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			s.deps.Logger.WithError(err).Error("revocation lookup failed")
			return nil, newError(KindServiceUnavailable, err)
		}
		if revoked {
			return nil, newError(KindTokenInvalid, nil)
		}
	}
	sess := &Session{UserID: claims.UserID(), TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

// Logout revokes token until it would have expired anyway. Tokens that
// do not verify are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" || s.deps.Revocations == nil {
		return nil
	}
	claims, err := s.deps.Tokens.Verify(token)
	if err != nil || claims.ExpiresAt == nil {
		return nil
	}
	if err := s.deps.Revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.deps.Logger.WithError(err).Error("revoke session failed")
		return newError(KindServiceUnavailable, err)
	}
	return nil
}

// Me returns the public identity behind an authenticated session.
func (s *AuthService) Me(ctx context.Context, userID string) (*entity.PublicUser, error) {
	u, err := s.lookup(ctx, "find_by_id", func(c context.Context) (*entity.User, error) {
		return s.deps.Users.FindByID(c, userID)
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, newError(KindTokenInvalid, err)
		}
		s.deps.Logger.WithError(err).Error("load user failed")
		return nil, newError(KindServiceUnavailable, err)
	}
	pub := u.Public()
	return &pub, nil
}

// lookup runs a read under the store timeout and retries it once when the
// store timed out or dropped the connection.
func (s *AuthService) lookup(ctx context.Context, op string, fn func(context.Context) (*entity.User, error)) (*entity.User, error) {
	for attempt := 1; ; attempt++ {
		c, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
		u, err := fn(c)
		cancel()
		if err == nil || attempt == 2 || !retryable(err) || ctx.Err() != nil {
			return u, err
		}
		s.deps.Logger.WithError(err).WithField("op", op).Warn("store call failed, retrying")
		if s.cfg.RetryBackoff > 0 {
			select {
			case <-time.After(s.cfg.RetryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
}

func retryable(err error) bool {
	return errors.Is(err, repo.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded)
}

func (s *AuthService) publish(ctx context.Context, job mailer.EmailJob, log *logrus.Entry) {
	if s.deps.Events == nil {
		return
	}
	c, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.deps.Events.PublishJSON(c, job); err != nil {
		log.WithError(err).WithField("template", job.Template).Warn("publish email job failed")
	}
}
