package mockapi

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
)

func (s *Server) countCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()

		s.logger.Debug().Str("method", r.Method).Str("path", r.URL.Path).
			Str("request_id", r.Header.Get("X-Request-ID")).Msg("mock api request")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		s.mu.Lock()
		var injected *failure
		for i, f := range s.failures {
			if f.method == "" || f.method == r.Method {
				f := f
				injected = &f
				s.failures = append(s.failures[:i], s.failures[i+1:]...)
				break
			}
		}
		s.mu.Unlock()

		if injected == nil {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(injected.status)
		if injected.body != "" {
			w.Write([]byte(injected.body))
		}
	})
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		s.mu.Lock()
		secret := s.secret
		generation := s.generation
		s.mu.Unlock()

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			writeDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || claims["type"] != "access" {
			writeDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
			return
		}
		if gen, ok := claims["gen"].(float64); !ok || int(gen) != generation {
			writeDetail(w, http.StatusUnauthorized, "Token is blacklisted")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleGeneratePassPhrase(w http.ResponseWriter, r *http.Request) {
	words := make([]string, 12)
	for i := range words {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(seedWords))))
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "could not generate pass phrase")
			return
		}
		words[i] = seedWords[idx.Int64()]
	}
	phrase := strings.Join(words, " ")

	s.mu.Lock()
	s.phrases[phrase] = true
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]string{"pass_phrase": phrase})
}

func (s *Server) handleGenerateToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PassPhrase string `json:"pass_phrase"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	phrase := strings.Join(strings.Fields(req.PassPhrase), " ")
	if phrase == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"pass_phrase": {"This field may not be blank."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.phrases[phrase] {
		writeDetail(w, http.StatusBadRequest, "Invalid pass phrase.")
		return
	}

	access, err := s.sign("access", AccessTokenTTL)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	refresh, err := s.sign("refresh", RefreshTokenTTL)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "could not issue token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access": access, "refresh": refresh})
}

func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]folder, len(s.folders))
	copy(out, s.folders)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title     string     `json:"title"`
		CreatedAt *time.Time `json:"created_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"title": {"This field may not be blank."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Truncate(time.Second)
	created := now
	if req.CreatedAt != nil {
		created = req.CreatedAt.UTC()
	}
	f := folder{ID: s.nextID, Title: title, CreatedAt: created, UpdatedAt: now}
	s.nextID++
	s.folders = append(s.folders, f)

	if s.omitID {
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"title":      f.Title,
			"created_at": f.CreatedAt,
			"updated_at": f.UpdatedAt,
		})
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) handleUpdateFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title *string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"title": {"This field may not be blank."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(mux.Vars(r)["id"])
	if idx < 0 {
		writeDetail(w, http.StatusNotFound, "No Folder matches the given query.")
		return
	}
	if req.Title != nil {
		s.folders[idx].Title = strings.TrimSpace(*req.Title)
	}
	s.folders[idx].UpdatedAt = time.Now().UTC().Truncate(time.Second)

	writeJSON(w, http.StatusOK, s.folders[idx])
}

func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(mux.Vars(r)["id"])
	if idx < 0 {
		writeDetail(w, http.StatusNotFound, "No Folder matches the given query.")
		return
	}
	s.folders = append(s.folders[:idx], s.folders[idx+1:]...)
	w.WriteHeader(http.StatusNoContent)
}
