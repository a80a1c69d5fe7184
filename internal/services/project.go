package services

import (
	"strings"

	"gorm.io/gorm"

	"teamboard/internal/access"
	"teamboard/internal/models"
	"teamboard/pkg/response"
)

// ProjectService runs the mutation pipeline for projects and their member
// sets: validate, resolve, authorize, apply, commit, publish.
type ProjectService struct {
	db  *gorm.DB
	pub Publisher
}

func NewProjectService(db *gorm.DB, pub Publisher) *ProjectService {
	return &ProjectService{db: db, pub: pub}
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required,min=3,max=100"`
	Description string `json:"description" binding:"omitempty,max=500"`
}

// UpdateProjectRequest uses pointers so an omitted field keeps its prior
// value while an explicitly supplied empty description is still applied.
type UpdateProjectRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=3,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Status      *string `json:"status" binding:"omitempty,oneof=active completed archived"`
}

type AddMemberRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// List returns the projects the actor is a member of, newest first, each
// with resolved owner, members and a read-time task count.
func (s *ProjectService) List(actorID uint) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.
		Joins("JOIN project_members ON project_members.project_id = projects.id").
		Where("project_members.user_id = ?", actorID).
		Preload("Owner").
		Order("projects.created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}

	for i := range projects {
		if err := s.resolveMembers(&projects[i]); err != nil {
			return nil, err
		}
		// Computed on demand, never cached
		if err := s.db.Model(&models.Task{}).
			Where("project_id = ?", projects[i].ID).
			Count(&projects[i].TaskCount).Error; err != nil {
			return nil, err
		}
	}
	return projects, nil
}

// Get returns the project with its tasks. Reading requires membership.
func (s *ProjectService) Get(id, actorID uint) (*models.Project, []models.Task, error) {
	project, err := s.resolve(id)
	if err != nil {
		return nil, nil, err
	}
	if err := access.ViewProject(project, actorID); err != nil {
		return nil, nil, guardError(err)
	}

	var tasks []models.Task
	err = s.db.Where("project_id = ?", id).
		Preload("AssignedTo").
		Preload("CreatedBy").
		Preload("Comments").
		Preload("Comments.User").
		Order("created_at DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, nil, err
	}
	return project, tasks, nil
}

// Create builds a new project through the invariant-enforcing constructor,
// committing the project row and the owner's membership row together.
func (s *ProjectService) Create(req *CreateProjectRequest, actorID uint) (*models.Project, error) {
	name, err := trimProjectName(req.Name)
	if err != nil {
		return nil, err
	}

	var owner models.User
	if err := s.db.First(&owner, actorID).Error; err != nil {
		return nil, notFoundOr(err, "user not found")
	}

	project, ownerMembership := models.NewProject(name, strings.TrimSpace(req.Description), actorID)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		ownerMembership.ProjectID = project.ID
		return tx.Create(ownerMembership).Error
	})
	if err != nil {
		return nil, err
	}

	project.Owner = &owner
	if err := s.resolveMembers(project); err != nil {
		return nil, err
	}

	s.publish(Event{Type: EventProjectCreated, Payload: project})
	return project, nil
}

// Update applies a partial update of name, description and status. Only the
// owner may update.
func (s *ProjectService) Update(id uint, req *UpdateProjectRequest, actorID uint) (*models.Project, error) {
	var name string
	if req.Name != nil {
		var err error
		if name, err = trimProjectName(*req.Name); err != nil {
			return nil, err
		}
	}

	project, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	if err := access.ManageProject(project, actorID); err != nil {
		return nil, guardError(err)
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}

	if len(updates) > 0 {
		if err := s.db.Model(project).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	// Re-read the committed state so the response and the event agree
	project, err = s.resolve(id)
	if err != nil {
		return nil, err
	}

	s.publish(Event{Type: EventProjectUpdated, ProjectID: project.ID, Payload: project})
	return project, nil
}

// Delete removes the project and cascades to everything it owns. The
// children go first: comments, then tasks, then memberships, then the
// project row, so a task never remains reachable under a deleted project.
func (s *ProjectService) Delete(id, actorID uint) error {
	project, err := s.resolve(id)
	if err != nil {
		return err
	}
	if err := access.ManageProject(project, actorID); err != nil {
		return guardError(err)
	}

	var taskIDs []uint
	if err := s.db.Model(&models.Task{}).Where("project_id = ?", id).Pluck("id", &taskIDs).Error; err != nil {
		return err
	}
	if len(taskIDs) > 0 {
		if err := s.db.Where("task_id IN ?", taskIDs).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
	}
	if err := s.db.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
		return err
	}
	if err := s.db.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
		return err
	}
	if err := s.db.Delete(&models.Project{}, id).Error; err != nil {
		return err
	}

	s.publish(Event{Type: EventProjectDeleted, ProjectID: id, Payload: ProjectDeletedPayload{ProjectID: id}})
	return nil
}

// AddMember inserts a user into the member set. Owner only; duplicates are a
// conflict, with the unique membership index as the backstop under races.
func (s *ProjectService) AddMember(id uint, req *AddMemberRequest, actorID uint) (*models.Project, error) {
	project, err := s.resolve(id)
	if err != nil {
		return nil, err
	}

	var target models.User
	if err := s.db.First(&target, req.UserID).Error; err != nil {
		return nil, notFoundOr(err, "user not found")
	}

	if err := access.AddMember(project, actorID, req.UserID); err != nil {
		return nil, guardError(err)
	}

	membership := &models.ProjectMember{ProjectID: id, UserID: req.UserID}
	if err := s.db.Create(membership).Error; err != nil {
		// A concurrent add can win the race; the index keeps the set unique
		if isDuplicateKey(err) {
			return nil, response.NewConflict(access.ErrAlreadyMember.Error())
		}
		return nil, err
	}

	if err := s.resolveMembers(project); err != nil {
		return nil, err
	}

	s.publish(Event{Type: EventMemberAdded, ProjectID: id, Payload: MemberPayload{ProjectID: id, UserID: req.UserID}})
	return project, nil
}

// RemoveMember deletes a membership edge. Owner only; the owner itself can
// never be removed. Tasks already assigned to the removed member keep their
// assignment.
func (s *ProjectService) RemoveMember(id, targetID, actorID uint) (*models.Project, error) {
	project, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	if err := access.RemoveMember(project, actorID, targetID); err != nil {
		return nil, guardError(err)
	}

	if err := s.db.Where("project_id = ? AND user_id = ?", id, targetID).
		Delete(&models.ProjectMember{}).Error; err != nil {
		return nil, err
	}

	if err := s.resolveMembers(project); err != nil {
		return nil, err
	}

	s.publish(Event{Type: EventMemberRemoved, ProjectID: id, Payload: MemberPayload{ProjectID: id, UserID: targetID}})
	return project, nil
}

// MemberProjectIDs returns the ids of every project the user belongs to,
// used to derive a subscriber's channel set.
func (s *ProjectService) MemberProjectIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := s.db.Model(&models.ProjectMember{}).
		Where("user_id = ?", userID).
		Pluck("project_id", &ids).Error
	return ids, err
}

// resolve fetches the project with its owner and member set materialized,
// ready for an authorization decision.
func (s *ProjectService) resolve(id uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.Preload("Owner").First(&project, id).Error; err != nil {
		return nil, notFoundOr(err, "project not found")
	}
	if err := s.resolveMembers(&project); err != nil {
		return nil, err
	}
	return &project, nil
}

// resolveMembers loads the member set in insertion order.
func (s *ProjectService) resolveMembers(p *models.Project) error {
	var members []models.User
	err := s.db.
		Joins("JOIN project_members ON project_members.user_id = users.id").
		Where("project_members.project_id = ?", p.ID).
		Order("project_members.id ASC").
		Find(&members).Error
	if err != nil {
		return err
	}
	p.Members = members
	return nil
}

// publish hands the event to the router after commit. Fire and forget: a
// publish problem never rolls back or fails the mutation.
func (s *ProjectService) publish(ev Event) {
	if s.pub == nil {
		return
	}
	s.pub.Publish(ev)
}

// trimProjectName trims the name and re-checks the length bound. Binding
// validates the raw value, so a whitespace-padded name can shrink below the
// minimum once trimmed.
func trimProjectName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if len(name) < 3 || len(name) > 100 {
		return "", response.NewValidation("name must be 3 to 100 characters")
	}
	return name, nil
}

// isDuplicateKey detects unique-constraint violations across the supported
// drivers without importing each one.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
