package dto

import (
	"time"

	"github.com/collabhub/backend/internal/models"
	"github.com/collabhub/backend/internal/utils"
)

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID          uint64    `json:"id"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsPublic    bool      `json:"is_public"`
	IsArchived  bool      `json:"is_archived"`
	OwnerID     uint64    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectDetailDTO adds the caller's resolved role
type ProjectDetailDTO struct {
	ProjectDTO
	YourRole models.ProjectRole `json:"your_role"`
}

// ProjectMemberDTO represents a member in a project
type ProjectMemberDTO struct {
	User     UserDTO            `json:"user"`
	Role     models.ProjectRole `json:"role"`
	JoinedAt time.Time          `json:"joined_at"`
}

// MemberListDTO is a paginated member listing
type MemberListDTO struct {
	Members    []ProjectMemberDTO       `json:"members"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToProjectDTO converts a project model to DTO
func ToProjectDTO(project models.Project) ProjectDTO {
	return ProjectDTO{
		ID:          project.ID,
		Key:         project.Key,
		Name:        project.Name,
		Description: project.Description,
		IsPublic:    project.IsPublic,
		IsArchived:  project.IsArchived,
		OwnerID:     project.OwnerID,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}

// ToProjectDetailDTO converts a project plus the caller's role to DTO
func ToProjectDetailDTO(project models.Project, role models.ProjectRole) ProjectDetailDTO {
	return ProjectDetailDTO{
		ProjectDTO: ToProjectDTO(project),
		YourRole:   role,
	}
}

// ToProjectMemberDTO converts a member to DTO
func ToProjectMemberDTO(member models.ProjectMember) ProjectMemberDTO {
	return ProjectMemberDTO{
		User:     ToUserDTO(member.User),
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
}

// ToMemberListDTO converts members plus pagination metadata to DTO
func ToMemberListDTO(members []models.ProjectMember, params utils.PaginationParams, total int64) MemberListDTO {
	memberDTOs := make([]ProjectMemberDTO, len(members))
	for i, member := range members {
		memberDTOs[i] = ToProjectMemberDTO(member)
	}

	return MemberListDTO{
		Members: memberDTOs,
		Pagination: utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	}
}
