package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var buckets = map[string]bool{
	"invoice-images": true,
	"avatars":        true,
}

// bucketPath resolves an object path under the data directory, refusing
// anything that would escape the bucket.
func (s *Server) bucketPath(bucket, name string) (string, error) {
	if !buckets[bucket] {
		return "", fmt.Errorf("unknown bucket %q", bucket)
	}
	if name != filepath.Base(name) || name == "." || name == "" {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	return filepath.Join(s.dataDir, bucket, name), nil
}

// handleStorageUpload stores an uploaded object under a generated name
// and returns its public URL.
func (s *Server) handleStorageUpload(c echo.Context) error {
	bucket := c.Param("bucket")
	if !buckets[bucket] {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown bucket"})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "file required"})
	}

	src, err := file.Open()
	if err != nil {
		c.Logger().Error("upload open error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	defer src.Close()

	// Object names are generated: uploads never collide or overwrite
	name := uuid.New().String() + filepath.Ext(file.Filename)
	path, err := s.bucketPath(bucket, name)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		c.Logger().Error("bucket mkdir error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	dst, err := os.Create(path)
	if err != nil {
		c.Logger().Error("upload create error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		c.Logger().Error("upload write error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"name": name,
		"url":  "/storage/" + bucket + "/" + name,
	})
}

// handleStorageRemove deletes an object from a bucket
func (s *Server) handleStorageRemove(c echo.Context) error {
	path, err := s.bucketPath(c.Param("bucket"), c.Param("name"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "object not found"})
		}
		c.Logger().Error("remove error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "removed"})
}

// handleStorageGet serves an object publicly
func (s *Server) handleStorageGet(c echo.Context) error {
	path, err := s.bucketPath(c.Param("bucket"), c.Param("name"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if _, err := os.Stat(path); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "object not found"})
	}

	return c.File(path)
}
