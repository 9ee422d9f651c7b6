package refservice

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

type contextKey int

const currentUserKey contextKey = iota

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Service) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Debug("Handled request")
	})
}

// requireAuth rejects requests without a logged-in session, and otherwise makes the session's
// user available through currentUser.
func (s *Service) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.sessions.Get(r, sessionCookieName)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		id, _ := session.Values[sessionUserIDKey].(string)
		if id == "" {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		user, err := s.users.GetByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				writeMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			s.internalError(w, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), currentUserKey, user)))
	}
}

func currentUser(r *http.Request) userRecord {
	u, _ := r.Context().Value(currentUserKey).(userRecord)
	return u
}

func (s *Service) internalError(w http.ResponseWriter, err error) {
	s.log.WithError(err).Error("Request failed")
	writeMessage(w, http.StatusInternalServerError, "Internal server error")
}
