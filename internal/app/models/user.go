package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/yigit/collegeerp/internal/app/session"
)

// User is a sign-in credential. Its id is the subject carried by sessions.
type User struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Email       string     `json:"email" db:"email"`
	Password    string     `json:"-" db:"password"`
	IsActive    bool       `json:"isActive" db:"is_active"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// Profile extends a user with the role and personal data. It shares the
// user's id.
type Profile struct {
	ID                uuid.UUID    `json:"id" db:"id"`
	FirstName         string       `json:"firstName" db:"first_name"`
	LastName          string       `json:"lastName" db:"last_name"`
	Username          *string      `json:"username,omitempty" db:"username"`
	Email             *string      `json:"email,omitempty" db:"email"`
	Role              session.Role `json:"role" db:"role"`
	EmployeeID        *string      `json:"employeeId,omitempty" db:"employee_id"`
	RollNumber        *string      `json:"rollNumber,omitempty" db:"roll_number"`
	DepartmentID      *uuid.UUID   `json:"departmentId,omitempty" db:"department_id"`
	Year              *string      `json:"year,omitempty" db:"year"`
	Designation       *string      `json:"designation,omitempty" db:"designation"`
	AvatarURL         *string      `json:"avatarUrl,omitempty" db:"avatar_url"`
	HouseNo           *string      `json:"houseNo,omitempty" db:"house_no"`
	StreetName        *string      `json:"streetName,omitempty" db:"street_name"`
	CityName          *string      `json:"cityName,omitempty" db:"city_name"`
	DistrictName      *string      `json:"districtName,omitempty" db:"district_name"`
	StateName         *string      `json:"stateName,omitempty" db:"state_name"`
	CountryName       *string      `json:"countryName,omitempty" db:"country_name"`
	TenthSchoolName   *string      `json:"tenthSchoolName,omitempty" db:"tenth_school_name"`
	TenthMarkScore    *int         `json:"tenthMarkScore,omitempty" db:"tenth_mark_score"`
	TwelfthSchoolName *string      `json:"twelfthSchoolName,omitempty" db:"twelfth_school_name"`
	TwelfthMarkScore  *int         `json:"twelfthMarkScore,omitempty" db:"twelfth_mark_score"`
	PhoneNumber       *string      `json:"phoneNumber,omitempty" db:"phone_number"`
	ParentPhoneNumber *string      `json:"parentPhoneNumber,omitempty" db:"parent_phone_number"`
	HighestDegree     *string      `json:"highestDegree,omitempty" db:"highest_degree"`
	YearsOfExperience *int         `json:"yearsOfExperience,omitempty" db:"years_of_experience"`
	Specialization    *string      `json:"specialization,omitempty" db:"specialization"`
	CreatedAt         time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time    `json:"updatedAt" db:"updated_at"`

	// Joined
	DepartmentName *string `json:"departmentName,omitempty"`
}

// FullName joins first and last name.
func (p *Profile) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
