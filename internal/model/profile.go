package model

// CompanyProfile is the company's own profile.
type CompanyProfile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Sector      string `json:"sector"`
	Description string `json:"description"`
	Address     string `json:"address"`
	Website     string `json:"website"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	AvatarURL   string `json:"avatar_url"`
}

// ProfileCompletion is the derived completion view over profile fields. It is
// computed server-side and invalidated whenever a profile field or the avatar
// changes.
type ProfileCompletion struct {
	Percent       int      `json:"percent"`
	MissingFields []string `json:"missing_fields"`
}

// UpdateProfileRequest is the request to update profile fields.
type UpdateProfileRequest struct {
	Name        string `json:"name,omitempty"`
	Sector      string `json:"sector,omitempty"`
	Description string `json:"description,omitempty"`
	Address     string `json:"address,omitempty"`
	Website     string `json:"website,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}
