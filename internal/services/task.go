package services

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"teamboard/internal/access"
	"teamboard/internal/models"
	"teamboard/pkg/response"
)

// TaskService runs the mutation pipeline for tasks and their comments.
type TaskService struct {
	db       *gorm.DB
	projects *ProjectService
	pub      Publisher
}

func NewTaskService(db *gorm.DB, pub Publisher) *TaskService {
	return &TaskService{db: db, projects: NewProjectService(db, pub), pub: pub}
}

type CreateTaskRequest struct {
	Title        string  `json:"title" binding:"required,min=3,max=200"`
	Description  string  `json:"description" binding:"omitempty,max=1000"`
	ProjectID    uint    `json:"project_id" binding:"required"`
	AssignedToID *uint   `json:"assigned_to_id"`
	Status       string  `json:"status" binding:"omitempty,oneof=todo in-progress done"`
	Priority     string  `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate      *string `json:"due_date"`
}

// UpdateTaskRequest is a partial update: nil means "keep the prior value".
// An assignee of 0 clears the assignment; an empty due date string clears
// the due date. The project reference itself is immutable and has no field
// here.
type UpdateTaskRequest struct {
	Title        *string `json:"title" binding:"omitempty,min=3,max=200"`
	Description  *string `json:"description" binding:"omitempty,max=1000"`
	AssignedToID *uint   `json:"assigned_to_id"`
	Status       *string `json:"status" binding:"omitempty,oneof=todo in-progress done"`
	Priority     *string `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate      *string `json:"due_date"`
}

type AddCommentRequest struct {
	Text string `json:"text" binding:"required,max=500"`
}

// ListForUser returns every task the actor created or is assigned to.
func (s *TaskService) ListForUser(actorID uint) ([]models.Task, error) {
	var tasks []models.Task
	err := s.db.
		Where("assigned_to_id = ? OR created_by_id = ?", actorID, actorID).
		Preload("Project").
		Preload("AssignedTo").
		Preload("CreatedBy").
		Preload("Comments").
		Preload("Comments.User").
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

// ListForProject returns the project's tasks. Reading requires membership.
func (s *TaskService) ListForProject(projectID, actorID uint) ([]models.Task, error) {
	project, err := s.projects.resolve(projectID)
	if err != nil {
		return nil, err
	}
	if err := access.ViewProject(project, actorID); err != nil {
		return nil, guardError(err)
	}

	var tasks []models.Task
	err = s.db.Where("project_id = ?", projectID).
		Preload("AssignedTo").
		Preload("CreatedBy").
		Preload("Comments").
		Preload("Comments.User").
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

// Get returns one task with its references resolved.
func (s *TaskService) Get(id, actorID uint) (*models.Task, error) {
	task, project, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	if err := access.ViewTask(project, actorID); err != nil {
		return nil, guardError(err)
	}
	return task, nil
}

// Create adds a task to a project. Any current member may create; an
// assignee, if given, must exist and be a member right now.
func (s *TaskService) Create(req *CreateTaskRequest, actorID uint) (*models.Task, error) {
	title, err := trimTaskTitle(req.Title)
	if err != nil {
		return nil, err
	}
	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	project, err := s.projects.resolve(req.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := access.CreateTask(project, actorID); err != nil {
		return nil, guardError(err)
	}

	task := models.NewTask(title, strings.TrimSpace(req.Description), req.ProjectID, actorID)
	if req.Status != "" {
		task.Status = req.Status
	}
	if req.Priority != "" {
		task.Priority = req.Priority
	}
	task.DueDate = dueDate

	if req.AssignedToID != nil && *req.AssignedToID != 0 {
		if err := s.checkAssignee(project, *req.AssignedToID); err != nil {
			return nil, err
		}
		task.AssignedToID = req.AssignedToID
	}

	if err := s.db.Create(task).Error; err != nil {
		return nil, err
	}

	task, _, err = s.resolve(task.ID)
	if err != nil {
		return nil, err
	}

	s.publish(Event{Type: EventTaskCreated, ProjectID: task.ProjectID, Payload: task})
	return task, nil
}

// Update applies a partial update. Any current member of the task's project
// may change any field, including handing the task to someone else.
func (s *TaskService) Update(id uint, req *UpdateTaskRequest, actorID uint) (*models.Task, error) {
	// Structural validation first, before any resolution or guard
	var title string
	if req.Title != nil {
		var err error
		if title, err = trimTaskTitle(*req.Title); err != nil {
			return nil, err
		}
	}
	var dueDate *time.Time
	if req.DueDate != nil && *req.DueDate != "" {
		var err error
		if dueDate, err = parseDueDate(req.DueDate); err != nil {
			return nil, err
		}
	}

	task, project, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	if err := access.ViewTask(project, actorID); err != nil {
		return nil, guardError(err)
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = title
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.AssignedToID != nil {
		if *req.AssignedToID == 0 {
			updates["assigned_to_id"] = nil
		} else {
			// Membership is checked now, not re-checked later
			if err := s.checkAssignee(project, *req.AssignedToID); err != nil {
				return nil, err
			}
			updates["assigned_to_id"] = *req.AssignedToID
		}
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			updates["due_date"] = nil
		} else {
			updates["due_date"] = dueDate
		}
	}

	if len(updates) > 0 {
		if err := s.db.Model(task).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	task, _, err = s.resolve(id)
	if err != nil {
		return nil, err
	}

	s.publish(Event{Type: EventTaskUpdated, ProjectID: task.ProjectID, Payload: task})
	return task, nil
}

// Delete removes a task and its comments. Only the task creator or the
// project owner may delete.
func (s *TaskService) Delete(id, actorID uint) error {
	task, project, err := s.resolve(id)
	if err != nil {
		return err
	}
	if err := access.DeleteTask(task, project, actorID); err != nil {
		return guardError(err)
	}

	// Comments belong to the task and go with it
	if err := s.db.Where("task_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	if err := s.db.Delete(&models.Task{}, id).Error; err != nil {
		return err
	}

	s.publish(Event{Type: EventTaskDeleted, ProjectID: task.ProjectID, Payload: TaskDeletedPayload{TaskID: id}})
	return nil
}

// AddComment appends an immutable comment to the task's discussion.
func (s *TaskService) AddComment(id uint, req *AddCommentRequest, actorID uint) (*models.Task, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, response.NewValidation("comment text is required")
	}

	task, project, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	if err := access.AddComment(project, actorID); err != nil {
		return nil, guardError(err)
	}

	comment := &models.Comment{
		TaskID: id,
		UserID: actorID,
		Text:   text,
	}
	if err := s.db.Create(comment).Error; err != nil {
		return nil, err
	}
	if err := s.db.Preload("User").First(comment, comment.ID).Error; err != nil {
		return nil, err
	}

	task, _, err = s.resolve(id)
	if err != nil {
		return nil, err
	}

	s.publish(Event{Type: EventCommentAdded, ProjectID: task.ProjectID, Payload: CommentAddedPayload{TaskID: id, Comment: comment}})
	return task, nil
}

// resolve fetches the task with its references materialized plus the owning
// project with its member set, ready for an authorization decision.
func (s *TaskService) resolve(id uint) (*models.Task, *models.Project, error) {
	var task models.Task
	err := s.db.
		Preload("AssignedTo").
		Preload("CreatedBy").
		Preload("Comments").
		Preload("Comments.User").
		First(&task, id).Error
	if err != nil {
		return nil, nil, notFoundOr(err, "task not found")
	}

	project, err := s.projects.resolve(task.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return &task, project, nil
}

func (s *TaskService) checkAssignee(project *models.Project, assigneeID uint) error {
	var assignee models.User
	if err := s.db.First(&assignee, assigneeID).Error; err != nil {
		return notFoundOr(err, "user not found")
	}
	if err := access.AssignTask(project, assigneeID); err != nil {
		return guardError(err)
	}
	return nil
}

func (s *TaskService) publish(ev Event) {
	if s.pub == nil {
		return
	}
	s.pub.Publish(ev)
}

// trimTaskTitle trims the title and re-checks the length bound. Binding
// validates the raw value, so a whitespace-padded title can shrink below the
// minimum once trimmed.
func trimTaskTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if len(title) < 3 || len(title) > 200 {
		return "", response.NewValidation("title must be 3 to 200 characters")
	}
	return title, nil
}

// parseDueDate accepts RFC 3339 timestamps or plain dates. nil or empty
// input yields no due date.
func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, *raw); err == nil {
		return &t, nil
	}
	if t, err := time.Parse("2006-01-02", *raw); err == nil {
		return &t, nil
	}
	return nil, response.NewValidation("invalid due date format")
}
