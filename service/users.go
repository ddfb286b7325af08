package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nickyhof/BotDesk/core"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// Users manages accounts and the tokens issued to them. Returned users never
// carry the password hash.
type Users struct {
	users  crud[core.User]
	tokens crud[core.AuthToken]
	auth   AuthConfig
}

func redact(user *core.User) *core.User {
	if user != nil {
		user.PasswordHash = ""
	}
	return user
}

func (s *Users) GetByID(ctx context.Context, id string) (*core.User, error) {
	user, err := s.users.GetByID(ctx, id)
	return redact(user), err
}

func (s *Users) GetByEmail(ctx context.Context, email string) (*core.User, error) {
	user, err := s.byEmail(ctx, email)
	return redact(user), err
}

func (s *Users) byEmail(ctx context.Context, email string) (*core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	users, err := s.users.where(ctx, "email", email)
	if err != nil || len(users) == 0 {
		return nil, err
	}
	return &users[0], nil
}

// Register creates an account with a bcrypt-hashed password.
func (s *Users) Register(ctx context.Context, email, password, name string) (*core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validEmail(email) {
		return nil, invalid("%q is not a valid email", email)
	}
	if len(password) < minPasswordLength {
		return nil, invalid("password must be at least %d characters", minPasswordLength)
	}

	existing, err := s.byEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, invalid("email %s is already registered", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.insert(ctx, &core.User{
		Email:        email,
		Name:         name,
		Role:         "user",
		PasswordHash: string(hash),
	})
	return redact(user), err
}

// Login checks the password and issues a signed token, recorded in auth_tokens
// so that Logout can revoke it.
func (s *Users) Login(ctx context.Context, email, password string) (string, *core.User, error) {
	if s.auth.JWTSecret == "" {
		return "", nil, errors.New("token signing secret not configured")
	}

	user, err := s.byEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}

	now := s.users.facade.clock()
	expiresAt := now.Add(s.auth.TokenTTL)
	tokenID := uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"jti":   tokenID,
		"sub":   user.ID,
		"iss":   s.auth.Issuer,
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
		"name":  user.Name,
		"email": user.Email,
	})
	signed, err := token.SignedString([]byte(s.auth.JWTSecret))
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	_, err = s.tokens.insert(ctx, &core.AuthToken{
		ID:        tokenID,
		UserID:    user.ID,
		Token:     signed,
		ExpiresAt: core.Timestamp(expiresAt),
	})
	if err != nil {
		return "", nil, err
	}
	return signed, redact(user), nil
}

// VerifyToken validates the signature, expiry and issuer of token and checks
// that it has not been revoked. It returns the token's user.
func (s *Users) VerifyToken(ctx context.Context, token string) (*core.User, error) {
	claims := jwt.MapClaims{}
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(s.users.facade.clock),
	}
	if s.auth.Issuer != "" {
		options = append(options, jwt.WithIssuer(s.auth.Issuer))
	}

	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(s.auth.JWTSecret), nil
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	issued, err := s.tokens.where(ctx, "token", token)
	if err != nil {
		return nil, err
	}
	if len(issued) == 0 {
		return nil, fmt.Errorf("%w: token revoked", ErrUnauthorized)
	}

	subject, _ := claims.GetSubject()
	user, err := s.GetByID(ctx, subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: unknown user", ErrUnauthorized)
	}
	return user, nil
}

// Logout revokes token.
func (s *Users) Logout(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	_, err := s.tokens.deleteWhere(ctx, "token", token)
	return err
}

// Update changes profile fields. A "password" change is re-hashed; the hash
// column cannot be set directly.
func (s *Users) Update(ctx context.Context, id string, changes map[string]any) (*core.User, error) {
	set := make(map[string]any, len(changes))
	for key, value := range changes {
		switch core.SnakeCase(key) {
		case "password_hash":
			continue
		case "password":
			password := core.AsString(value)
			if len(password) < minPasswordLength {
				return nil, invalid("password must be at least %d characters", minPasswordLength)
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(password), s.auth.BcryptCost)
			if err != nil {
				return nil, fmt.Errorf("failed to hash password: %w", err)
			}
			set["password_hash"] = string(hash)
		case "email":
			email := strings.ToLower(strings.TrimSpace(core.AsString(value)))
			if !validEmail(email) {
				return nil, invalid("%q is not a valid email", email)
			}
			set["email"] = email
		default:
			set[key] = value
		}
	}

	user, err := s.users.Update(ctx, id, set)
	return redact(user), err
}

// Delete removes the user and every token issued to them.
func (s *Users) Delete(ctx context.Context, id string) error {
	if id == "" {
		return invalid("user delete requires id")
	}
	if _, err := s.tokens.deleteWhere(ctx, "user_id", id); err != nil {
		return err
	}
	return s.users.Delete(ctx, id)
}
