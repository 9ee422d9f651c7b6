package refservice

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Service) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.loggingMiddleware)

	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)
	r.HandleFunc("/checkAuth", s.requireAuth(s.handleCheckAuth)).Methods(http.MethodGet)

	users := r.PathPrefix("/users").Subrouter()
	users.HandleFunc("", s.requireAuth(s.handleListUsers)).Methods(http.MethodGet)
	users.HandleFunc("", s.handleCreateUser).Methods(http.MethodPost)
	users.HandleFunc("/search", s.requireAuth(s.handleSearchUsers)).Methods(http.MethodGet)
	users.HandleFunc("/profile/{username}", s.handleGetProfile).Methods(http.MethodGet)
	users.HandleFunc("/{userId}", s.requireAuth(s.handleGetUser)).Methods(http.MethodGet)
	users.HandleFunc("/{userId}", s.requireAuth(s.handleUpdateUser)).Methods(http.MethodPatch)

	r.HandleFunc("/testData/seed", s.handleSeed).Methods(http.MethodPost)
	r.HandleFunc("/testData/{entity}", s.handleTestData).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found")
	})
	return r
}
