package dto

import (
	"github.com/google/uuid"
	"github.com/yigit/collegeerp/internal/app/models"
)

// ProfileFields are the editable personal fields shared by create and update.
type ProfileFields struct {
	FirstName         string     `json:"firstName" binding:"required,max=100"`
	LastName          string     `json:"lastName" binding:"required,max=100"`
	Username          string     `json:"username" binding:"max=100"`
	EmployeeID        string     `json:"employeeId" binding:"max=50"`
	RollNumber        string     `json:"rollNumber" binding:"max=50"`
	DepartmentID      *uuid.UUID `json:"departmentId"`
	Year              string     `json:"year" binding:"max=20"`
	Designation       string     `json:"designation" binding:"max=100"`
	HouseNo           string     `json:"houseNo"`
	StreetName        string     `json:"streetName"`
	CityName          string     `json:"cityName"`
	DistrictName      string     `json:"districtName"`
	StateName         string     `json:"stateName"`
	CountryName       string     `json:"countryName"`
	TenthSchoolName   string     `json:"tenthSchoolName"`
	TenthMarkScore    *int       `json:"tenthMarkScore" binding:"omitempty,gte=0,lte=100"`
	TwelfthSchoolName string     `json:"twelfthSchoolName"`
	TwelfthMarkScore  *int       `json:"twelfthMarkScore" binding:"omitempty,gte=0,lte=100"`
	PhoneNumber       string     `json:"phoneNumber" binding:"max=20"`
	ParentPhoneNumber string     `json:"parentPhoneNumber" binding:"max=20"`
	HighestDegree     string     `json:"highestDegree"`
	YearsOfExperience *int       `json:"yearsOfExperience" binding:"omitempty,gte=0"`
	Specialization    string     `json:"specialization"`
}

// CreateTeacherRequest creates a TEACHER credential and profile.
type CreateTeacherRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	ProfileFields
}

// CreateStudentRequest creates a STUDENT credential and profile.
type CreateStudentRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	ProfileFields
}

// UpdateUserRequest replaces a profile's fields, including its role.
type UpdateUserRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,erprole"`
	ProfileFields
}

// ProfileResponse is a profile as returned by the API.
type ProfileResponse struct {
	*models.Profile
}

// UserListResponse represents a list of users with pagination
type UserListResponse struct {
	Users []*models.Profile `json:"users"`
	PaginationInfo
}

// StudentFilterRequest filters the student directory.
type StudentFilterRequest struct {
	DepartmentID *uuid.UUID `form:"departmentId"`
	Year         string     `form:"year"`
}
