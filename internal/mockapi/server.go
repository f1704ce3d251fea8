// Package mockapi is an in-process fake of the NeuroPassword REST API used by
// tests and by the npass-mock-api development server.
package mockapi

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"

	"github.com/neuropassword/npass/internal/logging"
)

// DefaultSeedPhrase is accepted by every new server.
const DefaultSeedPhrase = "apple banana cherry date elderberry fig grape kiwi lemon mango orange pear plum raspberry strawberry tomato watermelon"

// Token lifetimes for issued JWTs.
const (
	AccessTokenTTL  = time.Hour
	RefreshTokenTTL = 24 * time.Hour
)

var seedWords = []string{
	"apple", "banana", "cherry", "date", "elderberry", "fig", "grape", "kiwi",
	"lemon", "mango", "orange", "pear", "plum", "raspberry", "strawberry",
	"tomato", "watermelon", "apricot", "blueberry", "coconut", "lime", "melon",
	"papaya", "peach", "quince",
}

type folder struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type failure struct {
	method string // "" matches any method
	status int
	body   string
}

// Server holds the fake backend's state. All methods are safe for
// concurrent use.
type Server struct {
	mu         sync.Mutex
	router     *mux.Router
	secret     []byte
	generation int
	phrases    map[string]bool
	folders    []folder
	nextID     int
	failures   []failure
	calls      map[string]int
	omitID     bool
	logger     *logging.Logger
}

// New creates a server seeded with the "Personal" and "Work" folders and
// DefaultSeedPhrase.
func New(logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	now := time.Now().UTC().Truncate(time.Second)
	s := &Server{
		secret:  []byte(randomString(32)),
		phrases: map[string]bool{DefaultSeedPhrase: true},
		folders: []folder{
			{ID: 1, Title: "Personal", CreatedAt: now, UpdatedAt: now},
			{ID: 2, Title: "Work", CreatedAt: now, UpdatedAt: now},
		},
		nextID: 3,
		calls:  make(map[string]int),
		logger: logger,
	}
	s.router = s.newRouter()
	return s
}

func (s *Server) newRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.countCalls, s.injectFailures)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/user/generate-pass-phrase/", s.handleGeneratePassPhrase).Methods("POST")
	api.HandleFunc("/user/generate-token/", s.handleGenerateToken).Methods("POST")

	folders := api.PathPrefix("/folders").Subrouter()
	folders.Use(s.requireBearer)
	folders.HandleFunc("/", s.handleListFolders).Methods("GET")
	folders.HandleFunc("/", s.handleCreateFolder).Methods("POST")
	folders.HandleFunc("/{id}/", s.handleUpdateFolder).Methods("PUT", "PATCH")
	folders.HandleFunc("/{id}/", s.handleDeleteFolder).Methods("DELETE")

	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// FailNext makes the next request, whatever its endpoint, fail with status.
func (s *Server) FailNext(status int) {
	s.FailNextWith("", status, "")
}

// FailNextWith queues one failure for the next request with the given
// method ("" for any). A non-empty body is sent verbatim as JSON, which
// also allows faking malformed 2xx responses.
func (s *Server) FailNextWith(method string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, status: status, body: body})
}

// OmitCreatedID makes folder creation answer without an id.
func (s *Server) OmitCreatedID(omit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.omitID = omit
}

// RevokeTokens invalidates every token issued so far.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
}

// Calls returns how many requests hit "METHOD /path".
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// TotalCalls returns the number of requests served, health checks excluded.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for key, n := range s.calls {
		if key != "GET /health" {
			total += n
		}
	}
	return total
}

// FolderTitles returns the server-side titles in order.
func (s *Server) FolderTitles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	titles := make([]string, len(s.folders))
	for i, f := range s.folders {
		titles[i] = f.Title
	}
	return titles
}

// AddFolder inserts a folder directly, bypassing the API. Returns its id.
func (s *Server) AddFolder(title string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC().Truncate(time.Second)
	f := folder{ID: s.nextID, Title: title, CreatedAt: now, UpdatedAt: now}
	s.nextID++
	s.folders = append(s.folders, f)
	return strconv.Itoa(f.ID)
}

// RemoveFolder deletes a folder directly, bypassing the API.
func (s *Server) RemoveFolder(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	s.folders = append(s.folders[:idx], s.folders[idx+1:]...)
	return true
}

// IssueToken returns a valid access token without going through login.
func (s *Server) IssueToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, _ := s.sign("access", AccessTokenTTL)
	return token
}

func (s *Server) indexOf(id string) int {
	n, err := strconv.Atoi(id)
	if err != nil {
		return -1
	}
	for i, f := range s.folders {
		if f.ID == n {
			return i
		}
	}
	return -1
}

// sign issues an HS256 token; callers hold s.mu.
func (s *Server) sign(kind string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  "mock-user",
		"type": kind,
		"gen":  s.generation,
		"jti":  randomString(12),
		"exp":  time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func randomString(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	var b strings.Builder
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			panic(fmt.Sprintf("crypto/rand failed: %v", err))
		}
		b.WriteByte(alphabet[idx.Int64()])
	}
	return b.String()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
