package servicedef

type UserResponse struct {
	User User `json:"user"`
}

type ProfileResponse struct {
	User ProfileUser `json:"user"`
}

type UsersResponse struct {
	Results []User `json:"results"`
}

// ValidationError is one entry of the errors array returned with a 422 status.
type ValidationError struct {
	Value    interface{} `json:"value,omitempty"`
	Msg      string      `json:"msg"`
	Param    string      `json:"param,omitempty"`
	Location string      `json:"location,omitempty"`
}

type ErrorsResponse struct {
	Errors []ValidationError `json:"errors"`
}
