package refservice

import (
	"encoding/json"
	"net/http"

	"github.com/realworldapp/api-contract-tests/servicedef"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrors(w http.ResponseWriter, status int, errs ...servicedef.ValidationError) {
	writeJSON(w, status, servicedef.ErrorsResponse{Errors: errs})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeErrors(w, status, servicedef.ValidationError{Msg: msg})
}
