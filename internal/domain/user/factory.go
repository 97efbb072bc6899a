package user

// Draft is a create payload that already passed ValidateCreate.
type Draft struct {
	Name  string
	Email string
}

func NewWithID(id string, d Draft) User {
	return User{
		UserID: id,
		Name:   d.Name,
		Email:  d.Email,
	}
}
