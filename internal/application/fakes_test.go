package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"shopsheet-sync/internal/domain"
)

// calls is a shared ordered log of port invocations, used to assert
// happens-before requirements like refresh-before-extraction.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) record(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) index(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, c := range l.calls {
		if c == name {
			return i
		}
	}
	return -1
}

type fakeConnectorRepo struct {
	log       *callLog
	records   map[string]*domain.Connector
	upsertErr error
}

func newFakeConnectorRepo(log *callLog) *fakeConnectorRepo {
	return &fakeConnectorRepo{log: log, records: make(map[string]*domain.Connector)}
}

func connectorKey(shopDomain string, provider domain.Provider) string {
	return shopDomain + "|" + string(provider)
}

func (r *fakeConnectorRepo) put(c *domain.Connector) {
	r.records[connectorKey(c.ShopDomain, c.Provider)] = c
}

func (r *fakeConnectorRepo) Get(ctx context.Context, shopDomain string, provider domain.Provider) (*domain.Connector, error) {
	c, ok := r.records[connectorKey(shopDomain, provider)]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (r *fakeConnectorRepo) Upsert(ctx context.Context, shopDomain string, provider domain.Provider, fields domain.ConnectorUpdate) (*domain.Connector, error) {
	if r.log != nil {
		r.log.record("upsert:" + string(provider))
	}
	if r.upsertErr != nil {
		return nil, r.upsertErr
	}

	key := connectorKey(shopDomain, provider)
	c, ok := r.records[key]
	if !ok {
		c = &domain.Connector{
			ID:         fmt.Sprintf("conn-%d", len(r.records)+1),
			ShopDomain: shopDomain,
			Provider:   provider,
			CreatedAt:  time.Now(),
		}
		r.records[key] = c
	}

	if fields.AccessToken != nil {
		c.AccessToken = *fields.AccessToken
	}
	if fields.RefreshToken != nil {
		c.RefreshToken = *fields.RefreshToken
	}
	if fields.TokenType != nil {
		c.TokenType = *fields.TokenType
	}
	if fields.ExpiresAt != nil {
		c.ExpiresAt = *fields.ExpiresAt
	}
	if fields.SpreadsheetURL != nil {
		c.SpreadsheetURL = *fields.SpreadsheetURL
	}
	c.UpdatedAt = time.Now()

	copied := *c
	return &copied, nil
}

func (r *fakeConnectorRepo) Delete(ctx context.Context, shopDomain string, provider domain.Provider) (int64, error) {
	key := connectorKey(shopDomain, provider)
	if _, ok := r.records[key]; !ok {
		return 0, nil
	}
	delete(r.records, key)
	return 1, nil
}

type fakeStateRepo struct {
	sessions map[string]*domain.StateSession
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{sessions: make(map[string]*domain.StateSession)}
}

func (r *fakeStateRepo) Create(ctx context.Context, session *domain.StateSession) error {
	r.sessions[session.State] = session
	return nil
}

func (r *fakeStateRepo) Consume(ctx context.Context, state string) (*domain.StateSession, error) {
	session, ok := r.sessions[state]
	if !ok {
		return nil, nil
	}
	delete(r.sessions, state)
	if time.Now().After(session.ExpiresAt) {
		return nil, nil
	}
	return session, nil
}

type fakeGoogleOAuth struct {
	log          *callLog
	exchanged    *domain.OAuthToken
	refreshed    *domain.OAuthToken
	refreshErr   error
	refreshCalls int
}

func (g *fakeGoogleOAuth) AuthURL(state string) string {
	return "https://accounts.example.com/o/oauth2/auth?state=" + state
}

func (g *fakeGoogleOAuth) Exchange(ctx context.Context, code string) (*domain.OAuthToken, error) {
	if g.exchanged == nil {
		return nil, errors.New("no token configured")
	}
	return g.exchanged, nil
}

func (g *fakeGoogleOAuth) Refresh(ctx context.Context, refreshToken string) (*domain.OAuthToken, error) {
	if g.log != nil {
		g.log.record("refresh")
	}
	g.refreshCalls++
	if g.refreshErr != nil {
		return nil, g.refreshErr
	}
	return g.refreshed, nil
}

type fakeShopifyOAuth struct {
	token     string
	verifyErr error
}

func (s *fakeShopifyOAuth) AuthURL(shopDomain, state string) string {
	return "https://" + shopDomain + "/admin/oauth/authorize?state=" + state
}

func (s *fakeShopifyOAuth) Exchange(ctx context.Context, shopDomain, code string) (string, error) {
	return s.token, nil
}

func (s *fakeShopifyOAuth) VerifyToken(ctx context.Context, shopDomain, accessToken string) error {
	return s.verifyErr
}

type fakeCatalogSource struct {
	log         *callLog
	pages       []domain.CatalogPage
	cursors     []string
	pageErr     error
	calls       int
	cancelAfter int
	cancel      context.CancelFunc
}

func (c *fakeCatalogSource) Page(ctx context.Context, shopDomain, accessToken, cursor string, pageSize int) (*domain.CatalogPage, error) {
	if c.log != nil {
		c.log.record("page")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.cursors = append(c.cursors, cursor)
	if c.pageErr != nil {
		return nil, c.pageErr
	}
	if c.calls >= len(c.pages) {
		return nil, errors.New("no more pages configured")
	}
	page := c.pages[c.calls]
	c.calls++
	if c.cancel != nil && c.calls == c.cancelAfter {
		c.cancel()
	}
	return &page, nil
}

type fakeSpreadsheetClient struct {
	log       *callLog
	snapshot  domain.SheetSnapshot
	createdID string
	createErr error
	readErr   error
	applyErr  error
	applied   [][]domain.SheetOp
	creates   int
}

func (s *fakeSpreadsheetClient) Create(ctx context.Context, accessToken, title string) (string, string, error) {
	if s.log != nil {
		s.log.record("create")
	}
	s.creates++
	if s.createErr != nil {
		return "", "", s.createErr
	}
	return s.createdID, "https://docs.google.com/spreadsheets/d/" + s.createdID + "/edit", nil
}

func (s *fakeSpreadsheetClient) ReadSnapshot(ctx context.Context, accessToken, spreadsheetID string) (domain.SheetSnapshot, error) {
	if s.log != nil {
		s.log.record("read")
	}
	if s.readErr != nil {
		return nil, s.readErr
	}
	if s.snapshot == nil {
		return domain.SheetSnapshot{}, nil
	}
	return s.snapshot, nil
}

func (s *fakeSpreadsheetClient) ApplyBatch(ctx context.Context, accessToken, spreadsheetID string, ops []domain.SheetOp) error {
	if s.log != nil {
		s.log.record("apply")
	}
	if s.applyErr != nil {
		return s.applyErr
	}
	s.applied = append(s.applied, ops)
	return nil
}

func (s *fakeSpreadsheetClient) SpreadsheetIDFromURL(rawURL string) (string, error) {
	const marker = "/spreadsheets/d/"
	idx := strings.Index(rawURL, marker)
	if idx < 0 {
		return "", errors.New("not a spreadsheet URL")
	}
	id := rawURL[idx+len(marker):]
	if end := strings.IndexAny(id, "/?#"); end >= 0 {
		id = id[:end]
	}
	return id, nil
}

type fakeLocker struct {
	busy      bool
	onAcquire func()
	acquired  int
	released  int
}

func (l *fakeLocker) Acquire(ctx context.Context, shopDomain string) (func(), error) {
	if l.busy {
		return nil, domain.ErrSyncInProgress
	}
	if l.onAcquire != nil {
		l.onAcquire()
	}
	l.acquired++
	return func() { l.released++ }, nil
}
