package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hafizmfadli/movies-api/internal/auth"
	"github.com/hafizmfadli/movies-api/internal/data"
	"github.com/hafizmfadli/movies-api/internal/jsonlog"
)

const testSecret = "a-test-secret-of-sufficient-length"

// memoryMovies is an in-memory stand-in for data.MovieModel.
type memoryMovies struct {
	mu     sync.Mutex
	movies map[int64]*data.Movie
	nextID int64
	err    error
}

func newMemoryMovies() *memoryMovies {
	return &memoryMovies{movies: make(map[int64]*data.Movie)}
}

func references(names []string) []data.Reference {
	refs := make([]data.Reference, len(names))
	for i, name := range names {
		refs[i] = data.Reference{ID: int64(i + 1), Name: name}
	}
	return refs
}

func (m *memoryMovies) Insert(_ context.Context, input data.MovieInput) (*data.Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	m.nextID++
	movie := &data.Movie{
		ID:           m.nextID,
		Title:        input.Title,
		OpeningCrawl: input.OpeningCrawl,
		ReleaseDate:  input.ReleaseDate,
		Directors:    references(input.DirectorsNames),
		Producers:    references(input.ProducersNames),
		Franchise:    data.Reference{ID: 1, Name: input.FranchiseName},
		Version:      1,
	}
	m.movies[movie.ID] = movie
	return movie, nil
}

func (m *memoryMovies) Get(_ context.Context, id int64) (*data.Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	movie, ok := m.movies[id]
	if !ok {
		return nil, data.ErrRecordNotFound
	}
	return movie, nil
}

func (m *memoryMovies) GetAll(_ context.Context, filters data.Filters) ([]*data.Movie, data.Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]*data.Movie, 0, len(m.movies))
	for _, movie := range m.movies {
		all = append(all, movie)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	if len(all) == 0 {
		return all, data.Metadata{}, nil
	}

	start := min(filters.Offset, len(all))
	end := min(start+filters.Limit, len(all))

	return all[start:end], data.Metadata{
		Limit:        filters.Limit,
		Offset:       filters.Offset,
		TotalRecords: len(all),
	}, nil
}

func (m *memoryMovies) Update(_ context.Context, update data.MovieUpdate) (*data.Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	movie, ok := m.movies[update.ID]
	if !ok {
		return nil, data.ErrRecordNotFound
	}
	if update.Title != nil {
		movie.Title = *update.Title
	}
	if update.OpeningCrawl != nil {
		movie.OpeningCrawl = *update.OpeningCrawl
	}
	if update.ReleaseDate != nil {
		movie.ReleaseDate = *update.ReleaseDate
	}
	if update.DirectorsNames != nil {
		movie.Directors = references(update.DirectorsNames)
	}
	if update.ProducersNames != nil {
		movie.Producers = references(update.ProducersNames)
	}
	if update.FranchiseName != nil {
		movie.Franchise = data.Reference{ID: 1, Name: *update.FranchiseName}
	}
	movie.Version++
	return movie, nil
}

func (m *memoryMovies) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.movies[id]; !ok {
		return data.ErrRecordNotFound
	}
	delete(m.movies, id)
	return nil
}

// memoryUsers is an in-memory stand-in for data.UserModel.
type memoryUsers struct {
	mu     sync.Mutex
	users  map[string]*data.User
	nextID int64
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[string]*data.User)}
}

func (m *memoryUsers) Insert(_ context.Context, user *data.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.Email]; ok {
		return data.ErrDuplicateEmail
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	m.users[user.Email] = user
	return nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*data.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[email]
	if !ok {
		return nil, data.ErrRecordNotFound
	}
	return user, nil
}

type stubSeeder struct {
	movies []*data.Movie
	err    error
	calls  int
}

func (s *stubSeeder) Run(context.Context) ([]*data.Movie, error) {
	s.calls++
	return s.movies, s.err
}

type sentMail struct {
	recipient string
	template  string
	data      any
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) Send(recipient, templateFile string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{recipient: recipient, template: templateFile, data: data})
	return nil
}

type testApp struct {
	*application
	movies     *memoryMovies
	users      *memoryUsers
	fakeSeeder *stubSeeder
	sentMails  *recordingMailer
}

func newTestApplication(t *testing.T) *testApp {
	t.Helper()

	tokens, err := auth.NewTokens(auth.Config{Secret: []byte(testSecret), TokenTTL: time.Hour})
	require.NoError(t, err)

	movies := newMemoryMovies()
	users := newMemoryUsers()
	seeder := &stubSeeder{}
	mailer := &recordingMailer{}

	var cfg config
	cfg.env = "testing"

	app := &application{
		config:  cfg,
		logger:  jsonlog.NewLogger(io.Discard, jsonlog.LevelOff),
		models:  data.Models{Movies: movies, Users: users},
		tokens:  tokens,
		gate:    auth.NewGate(tokens, routeRequirements),
		seeder:  seeder,
		mailer:  mailer,
		metrics: newMetrics(),
	}

	return &testApp{application: app, movies: movies, users: users, fakeSeeder: seeder, sentMails: mailer}
}

// captureLogs redirects the application logger to a buffer and returns a
// function decoding every INFO-or-above entry written so far.
func (ta *testApp) captureLogs(t *testing.T) func() []logEntry {
	t.Helper()

	var buf bytes.Buffer
	ta.logger = jsonlog.NewLogger(&buf, jsonlog.LevelInfo)

	return func() []logEntry {
		var entries []logEntry
		for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
			if len(line) == 0 {
				continue
			}
			var e logEntry
			require.NoError(t, json.Unmarshal(line, &e))
			entries = append(entries, e)
		}
		return entries
	}
}

type logEntry struct {
	Level      string            `json:"level"`
	Message    string            `json:"message"`
	Properties map[string]string `json:"properties"`
}

// tokenFor issues a valid access token for a user with the given role.
func (ta *testApp) tokenFor(t *testing.T, role data.Role) string {
	t.Helper()

	token, err := ta.tokens.Issue(&data.User{ID: 42, Email: "user@example.com", Role: role})
	require.NoError(t, err)
	return token
}

// do sends a request through the full middleware chain. body is marshalled
// to JSON unless it is nil; token is sent as a bearer token unless empty.
func (ta *testApp) do(t *testing.T, method, target string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			js, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(js)
		}
	}

	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ta.routes().ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body
}

func mustReleaseDate(t *testing.T, s string) data.ReleaseDate {
	t.Helper()

	d, err := data.ParseReleaseDate(s)
	require.NoError(t, err)
	return d
}

func (ta *testApp) addMovie(t *testing.T, title string) *data.Movie {
	t.Helper()

	movie, err := ta.movies.Insert(context.Background(), data.MovieInput{
		Title:          title,
		OpeningCrawl:   "It is a period of civil war.",
		ReleaseDate:    mustReleaseDate(t, "1977-05-25"),
		DirectorsNames: []string{"George Lucas"},
		ProducersNames: []string{"Gary Kurtz", "Rick McCallum"},
		FranchiseName:  "Star Wars",
	})
	require.NoError(t, err)
	return movie
}
