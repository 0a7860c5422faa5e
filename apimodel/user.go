package apimodel

// CreateUserRequest is the body of POST /admin/users.
type CreateUserRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Role      Role    `json:"role"`
	PatientID *string `json:"patientId,omitempty"`
}

// BlockUserRequest is the body of PUT /admin/users/{id}/blocked.
type BlockUserRequest struct {
	Blocked bool `json:"blocked"`
}
