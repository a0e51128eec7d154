package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/joao-fontenele/storefront/internal/domain"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

const (
	maxUsernameLength = 150
	minPasswordLength = 8
	// bcrypt only hashes the first 72 bytes and rejects longer input.
	maxPasswordBytes = 72
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// ValidationError collects per-field messages from a rejected registration.
type ValidationError struct {
	Fields map[string][]string `json:"errors"`
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "invalid registration: " + strings.Join(fields, ", ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

type Registration struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

type Repository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type Service struct {
	repo       Repository
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, bcryptCost: bcrypt.DefaultCost, logger: logger}
}

// Register validates reg and stores the new user with a hashed password.
func (s *Service) Register(ctx context.Context, reg Registration) (*domain.User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)

	if verr := validate(reg); verr != nil {
		return nil, verr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password1), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{Username: reg.Username, Email: reg.Email, PasswordHash: string(hash)}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			verr := &ValidationError{}
			verr.add("username", "A user with that username already exists.")
			return nil, verr
		}
		return nil, err
	}

	s.logger.Info("user registered", "user_id", u.ID, "username", u.Username)
	return u, nil
}

func (s *Service) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func validate(reg Registration) *ValidationError {
	verr := &ValidationError{}

	switch {
	case reg.Username == "":
		verr.add("username", "This field is required.")
	case len(reg.Username) > maxUsernameLength:
		verr.add("username", fmt.Sprintf("Ensure this value has at most %d characters.", maxUsernameLength))
	case !usernamePattern.MatchString(reg.Username):
		verr.add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}

	if reg.Email == "" {
		verr.add("email", "This field is required.")
	} else if addr, err := mail.ParseAddress(reg.Email); err != nil || addr.Address != reg.Email {
		verr.add("email", "Enter a valid email address.")
	}

	if reg.Password1 == "" {
		verr.add("password1", "This field is required.")
	}
	if reg.Password2 == "" {
		verr.add("password2", "This field is required.")
	}
	if reg.Password1 != "" && reg.Password2 != "" && reg.Password1 != reg.Password2 {
		verr.add("password2", "The two password fields didn't match.")
	}

	if reg.Password1 != "" && reg.Password1 == reg.Password2 {
		if len(reg.Password1) < minPasswordLength {
			verr.add("password2", fmt.Sprintf("This password is too short. It must contain at least %d characters.", minPasswordLength))
		}
		if len(reg.Password1) > maxPasswordBytes {
			verr.add("password2", fmt.Sprintf("This password is too long. It must contain at most %d bytes.", maxPasswordBytes))
		}
		if isNumeric(reg.Password1) {
			verr.add("password2", "This password is entirely numeric.")
		}
		if strings.EqualFold(reg.Password1, reg.Username) {
			verr.add("password2", "The password is too similar to the username.")
		}
	}

	if len(verr.Fields) == 0 {
		return nil
	}
	return verr
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
