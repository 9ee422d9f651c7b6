package refservice

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/realworldapp/api-contract-tests/servicedef"
)

var privacyLevels = map[string]bool{"public": true, "private": true, "contacts": true}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var params servicedef.LoginParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	user, err := s.users.GetByUsername(r.Context(), params.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		s.internalError(w, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(params.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	session, _ := s.sessions.Get(r, sessionCookieName)
	session.Values[sessionUserIDKey] = user.ID
	if err := session.Save(r, w); err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, servicedef.UserResponse{User: user.public()})
}

func (s *Service) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessions.Get(r, sessionCookieName)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		s.internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, servicedef.UserResponse{User: currentUser(r).public()})
}

func (s *Service) handleListUsers(w http.ResponseWriter, r *http.Request) {
	all, err := s.users.List(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, servicedef.UsersResponse{Results: publicUsersExcept(all, currentUser(r).ID)})
}

func (s *Service) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	found, err := s.users.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, servicedef.UsersResponse{Results: publicUsersExcept(found, currentUser(r).ID)})
}

func (s *Service) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetByUsername(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, servicedef.ProfileResponse{User: user.Profile()})
}

func (s *Service) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	user, err := s.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, servicedef.UserResponse{User: user.public()})
}

type createUserBody struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Avatar      string `json:"avatar"`
	Balance     *int64 `json:"balance"`
}

func (s *Service) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var body createUserBody
	if errs := decodeUserBody(r, servicedef.UserFields, &body); len(errs) != 0 {
		writeErrors(w, http.StatusUnprocessableEntity, errs...)
		return
	}
	if errs := requireFields(map[string]string{
		"firstName": body.FirstName,
		"lastName":  body.LastName,
		"username":  body.Username,
		"password":  body.Password,
	}); len(errs) != 0 {
		writeErrors(w, http.StatusUnprocessableEntity, errs...)
		return
	}

	hash, err := s.hashPassword(body.Password)
	if err != nil {
		s.internalError(w, err)
		return
	}
	id := uuid.New().String()
	user := userRecord{
		User: servicedef.User{
			ID:          id,
			UUID:        uuid.New().String(),
			FirstName:   body.FirstName,
			LastName:    body.LastName,
			Username:    body.Username,
			Email:       body.Email,
			PhoneNumber: body.PhoneNumber,
			Avatar:      body.Avatar,
		},
		PasswordHash: hash,
	}
	if body.Balance != nil {
		user.Balance = *body.Balance
	}
	if err := s.users.Create(r.Context(), &user); err != nil {
		if errors.Is(err, ErrUserExists) {
			writeErrors(w, http.StatusUnprocessableEntity, servicedef.ValidationError{
				Value: body.Username, Msg: "Username is already taken", Param: "username", Location: "body",
			})
			return
		}
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, servicedef.UserResponse{User: user.public()})
}

type updateUserBody struct {
	FirstName           *string `json:"firstName"`
	LastName            *string `json:"lastName"`
	Password            *string `json:"password"`
	Email               *string `json:"email"`
	PhoneNumber         *string `json:"phoneNumber"`
	Avatar              *string `json:"avatar"`
	DefaultPrivacyLevel *string `json:"defaultPrivacyLevel"`
}

func (s *Service) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	var body updateUserBody
	if errs := decodeUserBody(r, servicedef.UpdatableUserFields, &body); len(errs) != 0 {
		writeErrors(w, http.StatusUnprocessableEntity, errs...)
		return
	}
	if body.DefaultPrivacyLevel != nil && !privacyLevels[*body.DefaultPrivacyLevel] {
		writeErrors(w, http.StatusUnprocessableEntity, servicedef.ValidationError{
			Value: *body.DefaultPrivacyLevel, Msg: "Invalid value", Param: "defaultPrivacyLevel", Location: "body",
		})
		return
	}

	upd := userUpdate{
		FirstName:           body.FirstName,
		LastName:            body.LastName,
		Email:               body.Email,
		PhoneNumber:         body.PhoneNumber,
		Avatar:              body.Avatar,
		DefaultPrivacyLevel: body.DefaultPrivacyLevel,
	}
	if body.Password != nil {
		hash, err := s.hashPassword(*body.Password)
		if err != nil {
			s.internalError(w, err)
			return
		}
		upd.PasswordHash = &hash
	}
	if err := s.users.Update(r.Context(), id, upd); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		s.internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleSeed(w http.ResponseWriter, r *http.Request) {
	if err := s.Seed(r.Context()); err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"users": s.cfg.SeedUsers})
}

// handleTestData returns raw records, including password hashes and balances, so that tests
// can find seeded data without going through the public API.
func (s *Service) handleTestData(w http.ResponseWriter, r *http.Request) {
	entity := mux.Vars(r)["entity"]
	if entity != "users" {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("Unknown entity %q", entity))
		return
	}
	all, err := s.users.List(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	records := make([]servicedef.User, 0, len(all))
	for _, u := range all {
		records = append(records, u.testData())
	}
	writeJSON(w, http.StatusOK, servicedef.UsersResponse{Results: records})
}

// userIDParam validates the userId path parameter, writing a 422 response if it is not a
// valid id.
func userIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := mux.Vars(r)["userId"]
	if _, err := uuid.Parse(id); err != nil {
		writeErrors(w, http.StatusUnprocessableEntity, servicedef.ValidationError{
			Value: id, Msg: "Invalid value", Param: "userId", Location: "params",
		})
		return "", false
	}
	return id, true
}

// decodeUserBody decodes a JSON object into target. Properties that are not in allowed
// produce a single error naming all of them, and no further validation is done.
func decodeUserBody(r *http.Request, allowed []string, target interface{}) []servicedef.ValidationError {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return []servicedef.ValidationError{{Msg: "Unreadable request body", Location: "body"}}
	}
	var props map[string]json.RawMessage
	if err := json.Unmarshal(data, &props); err != nil {
		return []servicedef.ValidationError{{Msg: "Request body must be a JSON object", Location: "body"}}
	}

	known := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		known[f] = true
	}
	var unknown []string
	for name := range props {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) != 0 {
		sort.Strings(unknown)
		return []servicedef.ValidationError{{
			Value:    unknown,
			Msg:      "Unknown field(s): " + strings.Join(unknown, ", "),
			Location: "body",
		}}
	}

	if err := json.Unmarshal(data, target); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return []servicedef.ValidationError{{
				Value: typeErr.Value, Msg: "Invalid value", Param: typeErr.Field, Location: "body",
			}}
		}
		return []servicedef.ValidationError{{Msg: "Invalid request body", Location: "body"}}
	}
	return nil
}

func requireFields(fields map[string]string) []servicedef.ValidationError {
	var names []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	errs := make([]servicedef.ValidationError, 0, len(names))
	for _, name := range names {
		errs = append(errs, servicedef.ValidationError{Msg: "Required", Param: name, Location: "body"})
	}
	return errs
}

func publicUsersExcept(users []userRecord, excludeID string) []servicedef.User {
	ret := make([]servicedef.User, 0, len(users))
	for _, u := range users {
		if u.ID != excludeID {
			ret = append(ret, u.public())
		}
	}
	return ret
}
