package dto

import "github.com/yigit/kebele/internal/app/models"

// RegisterRequest represents an open registration. Accepted as JSON or as
// multipart form data when a profile_picture file is attached.
type RegisterRequest struct {
	Username    string  `json:"username" form:"username" binding:"required,min=3,max=150"`
	Email       string  `json:"email" form:"email" binding:"required,email"`
	Password    string  `json:"password" form:"password" binding:"required,min=8"`
	FullName    string  `json:"full_name" form:"full_name" binding:"required,max=255"`
	PhoneNumber *string `json:"phone_number" form:"phone_number" binding:"omitempty,max=20"`
	Address     *string `json:"address" form:"address" binding:"omitempty,max=255"`
}

// UpdateUserRequest is a partial user update; omitted fields are left unchanged
type UpdateUserRequest struct {
	Username    *string `json:"username" form:"username" binding:"omitempty,min=3,max=150"`
	Email       *string `json:"email" form:"email" binding:"omitempty,email"`
	Password    *string `json:"password" form:"password" binding:"omitempty,min=8"`
	FullName    *string `json:"full_name" form:"full_name" binding:"omitempty,max=255"`
	PhoneNumber *string `json:"phone_number" form:"phone_number" binding:"omitempty,max=20"`
	Address     *string `json:"address" form:"address" binding:"omitempty,max=255"`
}

// UserResponse is the public representation of a user. The password is
// never included.
type UserResponse struct {
	ID             int64   `json:"id" example:"1"`
	Username       string  `json:"username" example:"abebe"`
	Email          string  `json:"email" example:"abebe@example.com"`
	FullName       string  `json:"full_name" example:"Abebe Kebede"`
	PhoneNumber    *string `json:"phone_number" example:"+251911000000"`
	Address        *string `json:"address" example:"Kebele 04"`
	ProfilePicture *string `json:"profile_picture" example:"/api/v1/files/profiles/abc.jpg"`
	IsAdmin        bool    `json:"is_admin" example:"false"`
}

// NewUserResponse builds a UserResponse, resolving the profile picture key
// through fileURL when one is set.
func NewUserResponse(u *models.User, fileURL func(string) string) *UserResponse {
	if u == nil {
		return nil
	}
	resp := &UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName,
		PhoneNumber: u.PhoneNumber,
		Address:     u.Address,
		IsAdmin:     u.IsAdmin,
	}
	if u.ProfilePicture != nil && *u.ProfilePicture != "" {
		pic := *u.ProfilePicture
		if fileURL != nil {
			pic = fileURL(pic)
		}
		resp.ProfilePicture = &pic
	}
	return resp
}
