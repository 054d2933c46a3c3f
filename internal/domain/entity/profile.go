package entity

const RoleAdmin = "admin"

// Profile links an authenticated user to the company they belong to.
type Profile struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
}

func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}
