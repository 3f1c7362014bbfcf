package httpapi

import "github.com/dmitrijs2005/barangayconnect/internal/server/models"

type loginRequest struct {
	Contact  string `json:"contact"`
	Password string `json:"password"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// userResponse is the identity sent to clients; the password hash and the
// photo object key never leave the server.
type userResponse struct {
	ID          int64   `json:"id"`
	FirstName   string  `json:"firstName"`
	MiddleName  *string `json:"middleName"`
	LastName    string  `json:"lastName"`
	DOB         string  `json:"dob"`
	Gender      string  `json:"gender"`
	CivilStatus string  `json:"civilStatus"`
	Contact     string  `json:"contact"`
	Purok       string  `json:"purok"`
	Barangay    string  `json:"barangay"`
	City        string  `json:"city"`
	Province    string  `json:"province"`
	PostalCode  string  `json:"postalCode"`
	Photo       string  `json:"photo"`
	Role        string  `json:"role"`
	Status      string  `json:"status"`
	AccessToken string  `json:"accessToken,omitempty"`
}

func toUserResponse(u *models.User) userResponse {
	r := userResponse{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		DOB:         u.DOB,
		Gender:      u.Gender,
		CivilStatus: u.CivilStatus,
		Contact:     u.Contact,
		Purok:       u.Purok,
		Barangay:    u.Barangay,
		City:        u.City,
		Province:    u.Province,
		PostalCode:  u.PostalCode,
		Photo:       u.Photo,
		Role:        u.Role,
		Status:      u.Status,
	}
	if u.MiddleName != "" {
		m := u.MiddleName
		r.MiddleName = &m
	}
	return r
}
