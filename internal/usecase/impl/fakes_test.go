package impl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"arcana/internal/domain/entity"
	"arcana/internal/domain/repository"
	"arcana/internal/domain/service"

	"github.com/google/uuid"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeHasher is a transparent stand-in for bcrypt so tests stay fast.
type fakeHasher struct{}

func (fakeHasher) Hash(secret string) (string, error) { return "hashed:" + secret, nil }

func (fakeHasher) Check(secret, hash string) bool { return hash == "hashed:"+secret }

// fakeCodec mints inspectable tokens and tracks expiry in memory.
type fakeCodec struct {
	mu            sync.Mutex
	seq           int
	clientClaims  map[string]*service.ClientClaims
	sessionClaims map[string]*service.SessionClaims
	expiries      map[string]time.Time
}

func newFakeCodec() *fakeCodec {
	return &fakeCodec{
		clientClaims:  make(map[string]*service.ClientClaims),
		sessionClaims: make(map[string]*service.SessionClaims),
		expiries:      make(map[string]time.Time),
	}
}

func (c *fakeCodec) SignClientToken(claims service.ClientClaims, ttl time.Duration) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	token := fmt.Sprintf("client-token-%d", c.seq)
	c.clientClaims[token] = &claims
	c.expiries[token] = time.Now().Add(ttl)

	return token, nil
}

func (c *fakeCodec) VerifyClientToken(token string) (*service.ClientClaims, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	claims, ok := c.clientClaims[token]
	if !ok {
		return nil, service.ErrTokenInvalidSignature
	}
	if time.Now().After(c.expiries[token]) {
		return nil, service.ErrTokenExpired
	}

	return claims, nil
}

func (c *fakeCodec) SignSessionToken(claims service.SessionClaims, ttl time.Duration) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	token := fmt.Sprintf("session-token-%d", c.seq)
	c.sessionClaims[token] = &claims
	c.expiries[token] = time.Now().Add(ttl)

	return token, nil
}

func (c *fakeCodec) VerifySessionToken(token string) (*service.SessionClaims, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	claims, ok := c.sessionClaims[token]
	if !ok {
		return nil, service.ErrTokenInvalidSignature
	}
	if time.Now().After(c.expiries[token]) {
		return nil, service.ErrTokenExpired
	}

	return claims, nil
}

// expire backdates a minted token so verification fails.
func (c *fakeCodec) expire(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.expiries[token] = time.Now().Add(-time.Minute)
}

// fakeGenerator hands out deterministic secrets, optionally from a script.
type fakeGenerator struct {
	mu    sync.Mutex
	seq   int
	codes []string
}

func (g *fakeGenerator) next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.seq++

	return fmt.Sprintf("%s-%d", prefix, g.seq)
}

func (g *fakeGenerator) OpaqueToken() (string, error) { return g.next("opaque"), nil }

func (g *fakeGenerator) VerificationCode() (string, error) {
	g.mu.Lock()
	if len(g.codes) > 0 {
		code := g.codes[0]
		g.codes = g.codes[1:]
		g.mu.Unlock()

		return code, nil
	}
	g.mu.Unlock()

	return g.next("123"), nil
}

func (g *fakeGenerator) ClientID() (string, error) { return g.next("client"), nil }

func (g *fakeGenerator) ClientSecret() (string, error) { return g.next("secret"), nil }

// fakeMailer records deliveries instead of sending them.
type fakeMailer struct {
	mu    sync.Mutex
	sent  []string
	codes []string
	fail  error
}

func (m *fakeMailer) SendVerificationCode(_ context.Context, email, code string, _ time.Time, _ service.VerificationPurpose) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, email)
	m.codes = append(m.codes, code)

	return nil
}

// memClientRepo is an in-memory ClientRepository.
type memClientRepo struct {
	mu      sync.Mutex
	clients map[string]*entity.Client
}

func newMemClientRepo() *memClientRepo {
	return &memClientRepo{clients: make(map[string]*entity.Client)}
}

func (r *memClientRepo) Create(_ context.Context, client *entity.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[client.ClientID]; ok {
		return repository.ErrClientExists
	}
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	client.CreatedAt = time.Now()
	r.clients[client.ClientID] = client

	return nil
}

func (r *memClientRepo) FindByClientID(_ context.Context, clientID string) (*entity.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[clientID]
	if !ok {
		return nil, repository.ErrClientNotFound
	}
	copied := *client

	return &copied, nil
}

func (r *memClientRepo) List(_ context.Context) ([]*entity.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*entity.Client, 0, len(r.clients))
	for _, client := range r.clients {
		copied := *client
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })

	return out, nil
}

func (r *memClientRepo) UpdateSecretHash(_ context.Context, clientID, secretHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[clientID]
	if !ok {
		return repository.ErrClientNotFound
	}
	client.SecretHash = secretHash

	return nil
}

func (r *memClientRepo) SetActive(_ context.Context, clientID string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[clientID]
	if !ok {
		return repository.ErrClientNotFound
	}
	client.IsActive = active

	return nil
}

func (r *memClientRepo) TouchLastUsed(_ context.Context, clientID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[clientID]
	if !ok {
		return repository.ErrClientNotFound
	}
	client.LastUsedAt = &at

	return nil
}

func (r *memClientRepo) Delete(_ context.Context, clientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[clientID]; !ok {
		return repository.ErrClientNotFound
	}
	delete(r.clients, clientID)

	return nil
}

// memSessionRepo is an in-memory SessionRepository.
type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entity.UserSession
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[uuid.UUID]*entity.UserSession)}
}

func (r *memSessionRepo) Create(_ context.Context, session *entity.UserSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.CreatedAt = time.Now()
	copied := *session
	r.sessions[session.ID] = &copied

	return nil
}

func (r *memSessionRepo) FindByID(_ context.Context, id, userID uuid.UUID) (*entity.UserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok || session.UserID != userID {
		return nil, repository.ErrSessionNotFound
	}
	copied := *session

	return &copied, nil
}

func (r *memSessionRepo) FindActiveByRefreshToken(_ context.Context, refreshToken string) (*entity.UserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, session := range r.sessions {
		if session.RefreshToken == refreshToken && session.IsActive &&
			session.KeepMeLoggedIn && session.ExpiresAt.After(now) {
			copied := *session

			return &copied, nil
		}
	}

	return nil, repository.ErrSessionNotFound
}

func (r *memSessionRepo) FindActiveByUserID(_ context.Context, userID uuid.UUID) ([]*entity.UserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var out []*entity.UserSession
	for _, session := range r.sessions {
		if session.UserID == userID && session.IsActive && session.ExpiresAt.After(now) {
			copied := *session
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastUsedAt.After(out[j].LastUsedAt)
	})

	return out, nil
}

func (r *memSessionRepo) CountActiveByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	sessions, err := r.FindActiveByUserID(ctx, userID)

	return len(sessions), err
}

func (r *memSessionRepo) Deactivate(_ context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok || session.UserID != userID {
		return repository.ErrSessionNotFound
	}
	session.IsActive = false

	return nil
}

func (r *memSessionRepo) DeactivateAllByUserID(_ context.Context, userID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, session := range r.sessions {
		if session.UserID == userID && session.IsActive {
			session.IsActive = false
			count++
		}
	}

	return count, nil
}

func (r *memSessionRepo) TouchLastUsed(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	session.LastUsedAt = at

	return nil
}

func (r *memSessionRepo) ExtendExpiry(_ context.Context, id uuid.UUID, expiresAt, lastUsedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	session.ExpiresAt = expiresAt
	session.LastUsedAt = lastUsedAt

	return nil
}

func (r *memSessionRepo) DeleteExpiredByUserID(_ context.Context, userID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	count := 0
	for id, session := range r.sessions {
		if session.UserID == userID && (!session.IsActive || !session.ExpiresAt.After(now)) {
			delete(r.sessions, id)
			count++
		}
	}

	return count, nil
}

func (r *memSessionRepo) DeleteExpired(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	count := 0
	for id, session := range r.sessions {
		if !session.IsActive || !session.ExpiresAt.After(now) {
			delete(r.sessions, id)
			count++
		}
	}

	return count, nil
}

// memVerificationRepo is an in-memory VerificationRepository.
type memVerificationRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*entity.EmailVerification
}

func newMemVerificationRepo() *memVerificationRepo {
	return &memVerificationRepo{records: make(map[uuid.UUID]*entity.EmailVerification)}
}

func (r *memVerificationRepo) Create(_ context.Context, verification *entity.EmailVerification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if verification.ID == uuid.Nil {
		verification.ID = uuid.New()
	}
	if verification.CreatedAt.IsZero() {
		verification.CreatedAt = time.Now()
	}
	copied := *verification
	r.records[verification.ID] = &copied

	return nil
}

func (r *memVerificationRepo) FindLatestByEmail(_ context.Context, email string) (*entity.EmailVerification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *entity.EmailVerification
	for _, rec := range r.records {
		if rec.Email != email {
			continue
		}
		if latest == nil || rec.CreatedAt.After(latest.CreatedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, repository.ErrVerificationNotFound
	}
	copied := *latest

	return &copied, nil
}

func (r *memVerificationRepo) FindUnverifiedByEmail(_ context.Context, email string) (*entity.EmailVerification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, rec := range r.records {
		if rec.Email == email && !rec.Verified && rec.ExpiresAt.After(now) {
			copied := *rec

			return &copied, nil
		}
	}

	return nil, repository.ErrVerificationNotFound
}

func (r *memVerificationRepo) IncrementAttempts(_ context.Context, id uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return 0, repository.ErrVerificationNotFound
	}
	rec.Attempts++

	return rec.Attempts, nil
}

func (r *memVerificationRepo) DeleteByEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, rec := range r.records {
		if rec.Email == email {
			delete(r.records, id)
		}
	}

	return nil
}

func (r *memVerificationRepo) DeleteExpired(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	count := 0
	for id, rec := range r.records {
		if !rec.ExpiresAt.After(now) {
			delete(r.records, id)
			count++
		}
	}

	return count, nil
}

// backdate shifts the latest record for the email so rate-limit windows can
// be crossed without sleeping.
func (r *memVerificationRepo) backdate(email string, by time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		if rec.Email == email {
			rec.CreatedAt = rec.CreatedAt.Add(-by)
		}
	}
}

// memUserRepo is an in-memory UserRepository.
type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *user

	return &copied, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			copied := *user

			return &copied, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repository.ErrUserExists
		}
		if user.Handle != "" && strings.EqualFold(existing.Handle, user.Handle) {
			return repository.ErrUserExists
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	copied := *user
	r.users[user.ID] = &copied

	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	copied := *user
	r.users[user.ID] = &copied

	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.users, id)

	return nil
}

// memPendingRepo is an in-memory PendingSignupRepository.
type memPendingRepo struct {
	mu      sync.Mutex
	pending map[string]*entity.PendingSignup
}

func newMemPendingRepo() *memPendingRepo {
	return &memPendingRepo{pending: make(map[string]*entity.PendingSignup)}
}

func (r *memPendingRepo) Upsert(_ context.Context, pending *entity.PendingSignup) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pending.ID == uuid.Nil {
		pending.ID = uuid.New()
	}
	copied := *pending
	r.pending[pending.Email] = &copied

	return nil
}

func (r *memPendingRepo) FindByEmail(_ context.Context, email string) (*entity.PendingSignup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending, ok := r.pending[email]
	if !ok {
		return nil, repository.ErrPendingSignupNotFound
	}
	copied := *pending

	return &copied, nil
}

func (r *memPendingRepo) DeleteByEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.pending, email)

	return nil
}
