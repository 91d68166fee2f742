package server

import (
	"net/http"

	"github.com/billfold/billfold/internal/model"
	"github.com/labstack/echo/v4"
)

// handleTaskList returns the user's tasks, newest first
func (s *Server) handleTaskList(c echo.Context) error {
	userID := c.Get("user_id").(string)

	rows, err := s.db.Query(`
		SELECT id, user_id, title, description, priority, status, done, created_at, updated_at
		FROM tasks WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Priority,
			&t.Status, &t.Done, &t.CreatedAt, &t.UpdatedAt); err != nil {
			c.Logger().Error("scan error:", err)
			continue
		}
		tasks = append(tasks, t)
	}

	return c.JSON(http.StatusOK, tasks)
}

// handleTaskCreate inserts a task and echoes the stored row
func (s *Server) handleTaskCreate(c echo.Context) error {
	userID := c.Get("user_id").(string)

	var t model.Task
	if err := c.Bind(&t); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if t.Title == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title required"})
	}
	if !model.ValidPriority(t.Priority) {
		t.Priority = model.PriorityMedium
	}
	if !model.ValidStatus(t.Status) {
		t.Status = model.StatusPending
	}

	var out model.Task
	err := s.db.QueryRow(`
		INSERT INTO tasks (user_id, title, description, priority, status, done)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, title, description, priority, status, done, created_at, updated_at`,
		userID, t.Title, t.Description, t.Priority, t.Status, t.Done,
	).Scan(&out.ID, &out.UserID, &out.Title, &out.Description, &out.Priority,
		&out.Status, &out.Done, &out.CreatedAt, &out.UpdatedAt)

	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	s.publish(c, "tasks", "insert", out)
	return c.JSON(http.StatusOK, out)
}

// handleTaskUpdate patches a task and echoes the authoritative row
func (s *Server) handleTaskUpdate(c echo.Context) error {
	userID := c.Get("user_id").(string)
	id := c.Param("id")

	var t model.Task
	if err := c.Bind(&t); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if !model.ValidPriority(t.Priority) {
		t.Priority = model.PriorityMedium
	}
	if !model.ValidStatus(t.Status) {
		t.Status = model.StatusPending
	}

	var out model.Task
	err := s.db.QueryRow(`
		UPDATE tasks
		SET title = $1, description = $2, priority = $3, status = $4, done = $5, updated_at = NOW()
		WHERE id = $6 AND user_id = $7
		RETURNING id, user_id, title, description, priority, status, done, created_at, updated_at`,
		t.Title, t.Description, t.Priority, t.Status, t.Done, id, userID,
	).Scan(&out.ID, &out.UserID, &out.Title, &out.Description, &out.Priority,
		&out.Status, &out.Done, &out.CreatedAt, &out.UpdatedAt)

	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "task not found"})
	}

	s.publish(c, "tasks", "update", out)
	return c.JSON(http.StatusOK, out)
}

// handleTaskDelete removes a task by id
func (s *Server) handleTaskDelete(c echo.Context) error {
	userID := c.Get("user_id").(string)
	id := c.Param("id")

	result, err := s.db.Exec(`DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "task not found"})
	}

	s.publish(c, "tasks", "delete", map[string]string{"id": id})
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}
