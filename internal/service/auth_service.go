package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tokenauth/token-service/internal/auth"
	"github.com/tokenauth/token-service/internal/config"
	"github.com/tokenauth/token-service/internal/domain"
	"github.com/tokenauth/token-service/internal/events"
	"github.com/tokenauth/token-service/internal/repository"
	apperrors "github.com/tokenauth/token-service/pkg/util/errorutil"
)

// TokenType is the scheme clients send back in the Authorization header.
const TokenType = "Bearer"

var (
	validate      = newValidator()
	phonePattern  = regexp.MustCompile(`^\+?[0-9][0-9-]{6,19}$`)
	usernameChars = regexp.MustCompile(`^[a-zA-Z0-9._]+$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameChars.MatchString(fl.Field().String())
	})
	return v
}

// SignUpInput carries registration fields. PhoneOrEmail is stored as an
// email when it contains "@" and as a phone number otherwise.
type SignUpInput struct {
	PhoneOrEmail string `validate:"required,max=254"`
	Name         string `validate:"required,max=100"`
	Username     string `validate:"required,min=3,max=30,username"`
	Password     string `validate:"required,min=8,max=72"`
}

// IssuedToken is the result of a successful sign-in.
type IssuedToken struct {
	Token     string
	TokenType string
	ExpiresAt time.Time
	Username  string
}

// AuthService coordinates registration and sign-in flows.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenService
	principals *PrincipalService
	events     events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Tokens     *auth.TokenService
	Principals *PrincipalService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher()
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokens:     deps.Tokens,
		principals: deps.Principals,
		events:     dispatcher,
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// SignUp registers a user with the ROLE_USER authority.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*domain.User, error) {
	in.PhoneOrEmail = strings.TrimSpace(in.PhoneOrEmail)
	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)

	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	user := &domain.User{Username: in.Username, Name: in.Name}
	contact := in.PhoneOrEmail
	if strings.Contains(contact, "@") {
		if err := validate.Var(contact, "email"); err != nil {
			return nil, apperrors.NewValidationError("invalid email", map[string]any{"phoneOrEmail": "email"})
		}
		email := strings.ToLower(contact)
		user.Email = &email
	} else {
		if err := validate.Var(contact, "phone"); err != nil {
			return nil, apperrors.NewValidationError("invalid phone number", map[string]any{"phoneOrEmail": "phone"})
		}
		user.Phone = &contact
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	if err := s.users.Create(ctx, user, []domain.Authority{domain.AuthorityUser}); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventUserRegistered, user.Username, events.UserRegisteredPayload{
		UserID:   user.ID,
		HasEmail: user.Email != nil,
		HasPhone: user.Phone != nil,
	}))
	return user, nil
}

// SignIn checks the password of the account identified by phone, email or
// username and issues a token for that login id.
func (s *AuthService) SignIn(ctx context.Context, loginID, password string) (IssuedToken, error) {
	loginID = strings.TrimSpace(loginID)
	if loginID == "" || password == "" {
		return IssuedToken{}, apperrors.NewValidationError("phoneOrEmail and password required", nil)
	}

	user, err := s.findAccount(ctx, loginID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return IssuedToken{}, domain.ErrInvalidCredentials
		}
		return IssuedToken{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return IssuedToken{}, err
	}

	token, expiresAt, err := s.tokens.IssueToken(ctx, loginID)
	if err != nil {
		return IssuedToken{}, err
	}

	s.publish(ctx, events.NewEvent(events.EventTokenIssued, user.Username, events.TokenIssuedPayload{
		LoginID:   loginID,
		ExpiresAt: expiresAt,
	}))
	return IssuedToken{Token: token, TokenType: TokenType, ExpiresAt: expiresAt, Username: user.Username}, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, username, currentPassword, newPassword string) error {
	if currentPassword == "" {
		return apperrors.NewValidationError("current password required", nil)
	}
	if err := validate.Var(newPassword, "required,min=8,max=72"); err != nil {
		return apperrors.NewValidationError("new password must be 8 to 72 characters", nil)
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	if err := s.principals.Evict(ctx, username); err != nil {
		s.logger.Warn("principal cache evict failed", zap.String("username", username), zap.Error(err))
	}
	return nil
}

// IsAuthenticated reports whether the Authorization header value carries a valid token.
func (s *AuthService) IsAuthenticated(authorization string) bool {
	return s.tokens.ValidateToken(s.tokens.StripAuthPrefix(authorization))
}

// TokenService exposes the underlying token service for middleware usage.
func (s *AuthService) TokenService() *auth.TokenService {
	return s.tokens
}

func (s *AuthService) findAccount(ctx context.Context, loginID string) (*domain.User, error) {
	finders := []func(context.Context, string) (*domain.User, error){
		s.users.FindByPhone,
		s.users.FindByEmail,
		s.users.FindByUsername,
	}
	for _, find := range finders {
		user, err := find(ctx, loginID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[lowerFirst(fe.Field())] = fe.Tag()
	}
	return apperrors.NewValidationError("invalid sign-up request", details)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
