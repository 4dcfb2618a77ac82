package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"qrtag-service/internal/models"
	"qrtag-service/internal/store"
	"qrtag-service/internal/util"

	"github.com/golang-jwt/jwt"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const referralCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// AuthSettings configures token issuing and account defaults
type AuthSettings struct {
	JWTSecret   string
	TokenTTL    time.Duration
	DefaultRate float64
}

// Claims are carried in issued access tokens
type Claims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

// RegisterRequest represents a sign-up
type RegisterRequest struct {
	Name         string `json:"name" validate:"required,max=120"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"omitempty,min=6,max=20"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
	Role         string `json:"role" validate:"omitempty,oneof=user partner"`
	ReferralCode string `json:"referral_code" validate:"omitempty,max=20"`
}

// LoginResponse carries the issued token
type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Account   *models.Account `json:"account"`
}

// AccountService handles registration, login and token parsing
type AccountService struct {
	store    AccountStore
	settings AuthSettings
	now      func() time.Time
	logger   *zap.Logger
}

// NewAccountService creates a new account service
func NewAccountService(store AccountStore, settings AuthSettings) *AccountService {
	return &AccountService{
		store:    store,
		settings: settings,
		now:      time.Now,
		logger:   util.GetLogger(),
	}
}

// Register creates a user or partner account. A referral code links the new
// account to the partner who issued it; partners receive their own code.
func (s *AccountService) Register(ctx context.Context, req *RegisterRequest) (*models.Account, error) {
	ctx, span := util.StartSpan(ctx, "AccountService.Register")
	defer span.End()

	if err := validateStruct(req); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	return s.create(ctx, req.Name, req.Email, req.Phone, req.Password, role, req.ReferralCode)
}

// CreateAdmin creates an administrator account
func (s *AccountService) CreateAdmin(ctx context.Context, name, email, password string) (*models.Account, error) {
	req := &RegisterRequest{Name: name, Email: email, Password: password}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	return s.create(ctx, name, email, "", password, models.RoleAdmin, "")
}

func (s *AccountService) create(ctx context.Context, name, email, phone, password, role, referralCode string) (*models.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		Name:           strings.TrimSpace(name),
		Email:          strings.ToLower(strings.TrimSpace(email)),
		Phone:          phone,
		PasswordHash:   string(hash),
		Role:           role,
		CommissionRate: s.settings.DefaultRate,
	}

	if code := strings.ToUpper(strings.TrimSpace(referralCode)); code != "" {
		referrer, err := s.store.GetAccountByReferralCode(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown referral code %s", ErrValidation, code)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve referral code: %w", err)
		}
		if !referrer.IsPartner() {
			return nil, fmt.Errorf("%w: referral code %s is not a partner code", ErrValidation, code)
		}
		account.ReferredBy = sql.NullInt64{Int64: referrer.ID, Valid: true}
	}

	const attempts = 5
	for i := 0; i < attempts; i++ {
		if account.Role == models.RolePartner {
			account.ReferralCode = sql.NullString{String: newReferralCode(), Valid: true}
		}

		err = s.store.CreateAccount(ctx, account)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrAlreadyExists) {
			return nil, fmt.Errorf("failed to create account: %w", err)
		}
		// email clash is final; a referral code clash is retried with a new code
		if _, lookupErr := s.store.GetAccountByEmail(ctx, account.Email); lookupErr == nil || account.Role != models.RolePartner {
			return nil, fmt.Errorf("%w: email %s is already registered", ErrConflict, account.Email)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to allocate referral code: %w", translateStoreErr(err))
	}

	s.logger.Info("Account registered",
		zap.Int64("account_id", account.ID),
		zap.String("role", account.Role),
		zap.Bool("referred", account.ReferredBy.Valid))
	return account, nil
}

// Login checks credentials and issues an access token
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	account, err := s.store.GetAccountByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	token, expiresAt, err := s.IssueToken(account)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{Token: token, ExpiresAt: expiresAt, Account: account}, nil
}

// IssueToken signs an HS256 token for the account
func (s *AccountService) IssueToken(account *models.Account) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.settings.TokenTTL)

	claims := &Claims{
		UserID: account.ID,
		Email:  account.Email,
		Role:   account.Role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: expiresAt.Unix(),
			Issuer:    util.ServiceName,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.settings.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

// ParseToken validates a token and returns its claims
func (s *AccountService) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.settings.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}
	return claims, nil
}

// Get loads an account
func (s *AccountService) Get(ctx context.Context, id int64) (*models.Account, error) {
	account, err := s.store.GetAccountByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return account, nil
}

func newReferralCode() string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = referralCodeChars[rand.Intn(len(referralCodeChars))]
	}
	return "PTR-" + string(b)
}
