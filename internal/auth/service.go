package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/finlit-quiz/internal/auth/jwt"
	"github.com/gokatarajesh/finlit-quiz/internal/db/queries"
)

const defaultAllowedDomain = "@micamail.in"

type studentStore interface {
	Create(ctx context.Context, params queries.CreateStudentParams) (queries.Student, error)
	GetByEmail(ctx context.Context, email string) (queries.Student, error)
	GetByID(ctx context.Context, id uuid.UUID) (queries.Student, error)
	GetByStudentID(ctx context.Context, studentID string) (queries.Student, error)
}

type adminStore interface {
	GetByUsername(ctx context.Context, username string) (queries.Admin, error)
	Upsert(ctx context.Context, username, passwordHash string) (queries.Admin, error)
}

type otpStore interface {
	Issue(ctx context.Context, email string) (string, error)
	Consume(ctx context.Context, email, code string) (bool, error)
}

// Service handles student and admin authentication.
type Service struct {
	students      studentStore
	admins        adminStore
	otps          otpStore
	tokenMgr      *jwt.Manager
	allowedDomain string
	logger        zerolog.Logger
}

// ServiceOptions configures the auth service.
type ServiceOptions struct {
	TokenConfig   jwt.TokenConfig
	AllowedDomain string
}

// NewService creates an authentication service.
func NewService(students studentStore, admins adminStore, otps otpStore, opts ServiceOptions, logger zerolog.Logger) *Service {
	domain := strings.ToLower(strings.TrimSpace(opts.AllowedDomain))
	if domain == "" {
		domain = defaultAllowedDomain
	}
	return &Service{
		students:      students,
		admins:        admins,
		otps:          otps,
		tokenMgr:      jwt.NewManager(opts.TokenConfig),
		allowedDomain: domain,
		logger:        logger.With().Str("component", "auth").Logger(),
	}
}

// AllowedDomain is the required email suffix for students.
func (s *Service) AllowedDomain() string {
	return s.allowedDomain
}

func (s *Service) checkDomain(email string) error {
	if !strings.HasSuffix(strings.ToLower(email), s.allowedDomain) {
		return fmt.Errorf("%w: only %s addresses can register", ErrEmailDomain, s.allowedDomain)
	}
	return nil
}

// Register creates a student account and issues a first OTP.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Student, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if req.Password == "" {
		return nil, ErrPasswordRequired
	}
	if err := s.checkDomain(email); err != nil {
		return nil, err
	}

	_, err := s.students.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lookup student: %w", err)
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	row, err := s.students.Create(ctx, queries.CreateStudentParams{
		Email:        email,
		PasswordHash: passwordHash,
		Mobile:       optionalText(req.Mobile),
		StudentID:    optionalText(req.StudentID),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create student: %w", err)
	}

	student := studentFromRow(row)
	s.logger.Info().Str("user_id", student.ID.String()).Str("email", email).Msg("student registered")

	if _, err := s.IssueOTP(ctx, email); err != nil {
		s.logger.Warn().Err(err).Str("email", email).Msg("failed to issue registration otp")
	}
	return &student, nil
}

// IssueOTP generates a one-time code for a known student. The code is logged, not delivered.
func (s *Service) IssueOTP(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrEmailRequired
	}
	if _, err := s.students.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrStudentNotFound
		}
		return "", fmt.Errorf("lookup student: %w", err)
	}

	code, err := s.otps.Issue(ctx, email)
	if err != nil {
		return "", err
	}
	s.logger.Info().Str("email", email).Str("otp", code).Msg("otp issued")
	return code, nil
}

// Login authenticates a student with a password or a one-time code.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Student, *TokenPair, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, nil, ErrEmailRequired
	}
	if req.Password == "" && req.OTP == "" {
		return nil, nil, ErrCredentialRequired
	}

	row, err := s.students.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("lookup student: %w", err)
	}

	if req.Password != "" {
		if err := VerifyPassword(row.PasswordHash, req.Password); err != nil {
			return nil, nil, ErrInvalidCredentials
		}
	} else {
		ok, err := s.otps.Consume(ctx, email, req.OTP)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, ErrInvalidCredentials
		}
	}

	student := studentFromRow(row)
	tokens, err := s.generateTokenPair(studentSubject(student))
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().Str("user_id", student.ID.String()).Msg("student logged in")
	return &student, tokens, nil
}

// AdminLogin authenticates a dashboard operator.
func (s *Service) AdminLogin(ctx context.Context, req AdminLoginRequest) (*Admin, *TokenPair, error) {
	if req.Username == "" || req.Password == "" {
		return nil, nil, ErrInvalidCredentials
	}
	row, err := s.admins.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("lookup admin: %w", err)
	}
	if err := VerifyPassword(row.PasswordHash, req.Password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	admin := &Admin{ID: uuid.UUID(row.ID.Bytes), Username: row.Username}
	tokens, err := s.generateTokenPair(jwt.Subject{ID: admin.ID, Username: admin.Username, Role: jwt.RoleAdmin})
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().Str("admin", admin.Username).Msg("admin logged in")
	return admin, tokens, nil
}

// SeedAdmin creates the admin or resets its password.
func (s *Service) SeedAdmin(ctx context.Context, username, password string) (*Admin, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	row, err := s.admins.Upsert(ctx, username, hash)
	if err != nil {
		return nil, fmt.Errorf("upsert admin: %w", err)
	}
	return &Admin{ID: uuid.UUID(row.ID.Bytes), Username: row.Username}, nil
}

// AttemptedLevels returns the levels a student has already saved a session for.
func (s *Service) AttemptedLevels(ctx context.Context, lookup AttemptLookup) ([]int, error) {
	var (
		row queries.Student
		err error
	)
	switch {
	case lookup.UserID != uuid.Nil:
		row, err = s.students.GetByID(ctx, lookup.UserID)
	case lookup.Email != "":
		row, err = s.students.GetByEmail(ctx, lookup.Email)
	case lookup.StudentID != "":
		row, err = s.students.GetByStudentID(ctx, lookup.StudentID)
	default:
		return nil, ErrEmailRequired
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("lookup student: %w", err)
	}
	return studentFromRow(row).AttemptedLevels, nil
}

// GetOrCreateOAuthStudent finds a student by email or creates one with an unusable password.
func (s *Service) GetOrCreateOAuthStudent(ctx context.Context, info *OAuthUserInfo) (*Student, *TokenPair, error) {
	if info == nil || info.Email == "" {
		return nil, nil, fmt.Errorf("OAuth provider did not return email")
	}
	if err := s.checkDomain(info.Email); err != nil {
		return nil, nil, err
	}

	row, err := s.students.GetByEmail(ctx, info.Email)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fmt.Errorf("lookup student: %w", err)
		}
		password, err := RandomPassword()
		if err != nil {
			return nil, nil, fmt.Errorf("generate password: %w", err)
		}
		hash, err := HashPassword(password)
		if err != nil {
			return nil, nil, err
		}
		row, err = s.students.Create(ctx, queries.CreateStudentParams{Email: info.Email, PasswordHash: hash})
		if err != nil {
			return nil, nil, fmt.Errorf("create OAuth student: %w", err)
		}
		s.logger.Info().Str("email", info.Email).Msg("OAuth student created")
	}

	student := studentFromRow(row)
	tokens, err := s.generateTokenPair(studentSubject(student))
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}
	return &student, tokens, nil
}

// RefreshToken generates a new token pair from a refresh token.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokenMgr.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	if claims.IsAdmin() {
		row, err := s.admins.GetByUsername(ctx, claims.Username)
		if err != nil {
			return nil, ErrInvalidCredentials
		}
		return s.generateTokenPair(jwt.Subject{ID: uuid.UUID(row.ID.Bytes), Username: row.Username, Role: jwt.RoleAdmin})
	}

	row, err := s.students.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrStudentNotFound
	}
	return s.generateTokenPair(studentSubject(studentFromRow(row)))
}

// ValidateToken validates an access token and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*jwt.Claims, error) {
	return s.tokenMgr.ValidateAccessToken(tokenString)
}

func (s *Service) generateTokenPair(sub jwt.Subject) (*TokenPair, error) {
	accessToken, err := s.tokenMgr.GenerateAccessToken(sub)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokenMgr.GenerateRefreshToken(sub)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokenMgr.AccessTTL().Seconds()),
	}, nil
}

func studentSubject(st Student) jwt.Subject {
	return jwt.Subject{
		ID:        st.ID,
		Email:     st.Email,
		StudentID: st.StudentID,
		Mobile:    st.Mobile,
		Role:      jwt.RoleStudent,
	}
}

func studentFromRow(row queries.Student) Student {
	levels := make([]int, 0, len(row.AttemptedLevels))
	for _, l := range row.AttemptedLevels {
		levels = append(levels, int(l))
	}
	return Student{
		ID:              uuid.UUID(row.ID.Bytes),
		Email:           row.Email,
		Mobile:          row.Mobile.String,
		StudentID:       row.StudentID.String,
		AttemptedLevels: levels,
		CreatedAt:       row.CreatedAt.Time,
	}
}

func optionalText(v string) pgtype.Text {
	v = strings.TrimSpace(v)
	return pgtype.Text{String: v, Valid: v != ""}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
