package dto

import "github.com/google/uuid"

// CreateDepartmentRequest represents department creation data
type CreateDepartmentRequest struct {
	Name string `json:"name" binding:"required,max=100"`
	Code string `json:"code" binding:"required,deptcode"`
}

// CreateCourseRequest represents course creation data
type CreateCourseRequest struct {
	Name         string    `json:"name" binding:"required,max=150"`
	Code         string    `json:"code" binding:"required,max=20"`
	DepartmentID uuid.UUID `json:"departmentId" binding:"required"`
	Credits      int       `json:"credits" binding:"required,gt=0,lte=20"`
}
