package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"jobtrack/api/internal/auth"
	"jobtrack/api/internal/authpw"
	"jobtrack/api/internal/board"
	"jobtrack/api/internal/config"
	"jobtrack/api/internal/export"
	"jobtrack/api/internal/search"
	"jobtrack/api/internal/store"
	"jobtrack/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Email        string
	IsGuest      bool
	JTI          string
	ExpiresAt    time.Time
}

func (s Session) board() board.Session {
	return board.Session{OwnerID: s.UserID, UserName: s.UserName}
}

type userStore interface {
	authpw.UserStore
	Ping(ctx context.Context) error
}

// sessionStore is implemented by both the Postgres store and the Redis
// session store.
type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
	RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error
	IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error)
}

type searcher interface {
	Search(ctx context.Context, q search.Query) search.Response
	IndexJobs(records ...search.JobRecord)
	DeleteJobs(ids ...string)
}

type exporter interface {
	Export(ctx context.Context, req export.Request) (*export.Result, error)
}

type archiver interface {
	Store(ctx context.Context, ownerID string, result *export.Result) (string, error)
}

// Deps are the collaborators New wires around the Postgres store. Nil
// fields fall back: sessions to Postgres, search to a no-op, archive off.
type Deps struct {
	Sessions sessionStore
	Search   *search.Service
	Export   *export.Service
	Archive  *export.Archive
	Logger   *slog.Logger
}

type Service struct {
	cfg       config.Config
	users     userStore
	sessions  sessionStore
	passwords *authpw.Service
	boards    *board.Registry
	search    searcher
	exporter  exporter
	archive   archiver
	logger    *slog.Logger
	now       func() time.Time
}

func New(cfg config.Config, dataStore *store.PostgresStore, deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		cfg:      cfg,
		users:    dataStore,
		sessions: dataStore,
		logger:   logger,
		now:      time.Now,
	}
	if deps.Sessions != nil {
		s.sessions = deps.Sessions
	}
	if deps.Search != nil {
		s.search = deps.Search
	} else {
		s.search = noopSearch{}
	}
	if deps.Export != nil {
		s.exporter = deps.Export
	} else {
		s.exporter = export.NewService()
	}
	if deps.Archive != nil {
		s.archive = deps.Archive
	}

	adapter := search.NewIndexedAdapter(dataStore.Jobs(), s.search)
	s.passwords = authpw.NewService(dataStore, adapter)
	s.boards = board.NewRegistry(adapter, logger.With(slog.String("component", "board")))
	return s
}

func (s *Service) SignUp(ctx context.Context, req authpw.SignUpRequest) (Session, error) {
	user, err := s.passwords.SignUp(ctx, req)
	if err != nil {
		return Session{}, err
	}
	s.logger.Info("user registered", slog.String("owner_id", user.ID))
	return s.issueSession(ctx, user)
}

func (s *Service) SignIn(ctx context.Context, req authpw.SignInRequest) (Session, error) {
	user, err := s.passwords.SignIn(ctx, req)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

// Guest creates a throwaway account with a few demo applications and signs
// it in. The generated credentials are returned so the client can show them.
func (s *Service) Guest(ctx context.Context) (authpw.GuestAccount, Session, error) {
	account, err := s.passwords.CreateGuest(ctx)
	if err != nil {
		return authpw.GuestAccount{}, Session{}, err
	}
	session, err := s.issueSession(ctx, account.User)
	if err != nil {
		return authpw.GuestAccount{}, Session{}, err
	}
	s.logger.Info("guest created", slog.String("owner_id", account.User.ID))
	return account, session, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return Session{}, auth.ErrInvalidToken
	}
	tokenHash := auth.HashToken(refreshToken)
	owner, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	user, err := s.users.GetUserByID(ctx, owner.ID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:   user.ID,
		Name:  user.DisplayName(),
		Email: user.Email,
		Guest: user.IsGuest,
		JTI:   jti,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName(),
		Email:        user.Email,
		IsGuest:      user.IsGuest,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.sessions.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.users.GetUserByID(ctx, claims.Sub)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, auth.ErrInvalidToken
		}
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName(),
		Email:     user.Email,
		IsGuest:   user.IsGuest,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

// Logout revokes both tokens and ends the owner's board controller.
func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		if err := s.sessions.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt); err != nil {
			s.logger.Warn("revoke access token", slog.String("error", err.Error()))
		}
	}
	if refreshToken != "" {
		if err := s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken)); err != nil {
			s.logger.Warn("revoke refresh session", slog.String("error", err.Error()))
		}
	}
	if session.UserID != "" {
		s.boards.Drop(session.UserID)
	}
	return nil
}

func (s *Service) Profile(ctx context.Context, session Session) (store.User, error) {
	return s.users.GetUserByID(ctx, session.UserID)
}

// Board returns the signed-in owner's controller, loading it on first use.
func (s *Service) Board(ctx context.Context, session Session) (*board.Controller, error) {
	return s.boards.Get(ctx, session.board())
}

func (s *Service) Search(ctx context.Context, session Session, q search.Query) search.Response {
	q.OwnerID = session.UserID
	return s.search.Search(ctx, q)
}

// ExportOutput is a rendered board, plus a download link when it was
// archived.
type ExportOutput struct {
	Result *export.Result
	URL    string
}

func (s *Service) Export(ctx context.Context, session Session, format export.Format, archive bool) (ExportOutput, error) {
	if archive && s.archive == nil {
		return ExportOutput{}, export.ErrArchiveDisabled
	}
	ctrl, err := s.Board(ctx, session)
	if err != nil {
		return ExportOutput{}, err
	}
	result, err := s.exporter.Export(ctx, export.Request{
		Format:      format,
		OwnerName:   session.UserName,
		Jobs:        ctrl.Jobs(),
		GeneratedAt: s.now(),
	})
	if err != nil {
		return ExportOutput{}, err
	}
	out := ExportOutput{Result: result}
	if archive {
		url, err := s.archive.Store(ctx, session.UserID, result)
		if err != nil {
			return ExportOutput{}, err
		}
		out.URL = url
	}
	s.logger.Info("board exported",
		slog.String("owner_id", session.UserID),
		slog.String("format", string(format)),
		slog.Int("jobs", len(ctrl.Jobs())),
		slog.Bool("archived", archive),
	)
	return out, nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.users.Ping(ctx)
}

type noopSearch struct{}

func (noopSearch) Search(_ context.Context, q search.Query) search.Response {
	return search.Response{Results: []search.Result{}, Query: q.Text}
}
func (noopSearch) IndexJobs(...search.JobRecord) {}
func (noopSearch) DeleteJobs(...string)          {}
