package emulator

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type documentHandler struct {
	docs   DocumentStore
	tokens *TokenService
	logger *zap.Logger
}

// pathParts extracts the document path segments, stripping the ".json"
// suffix the wire contract puts on the final one.
func pathParts(c *gin.Context) []string {
	parts := []string{c.Param("collection"), c.Param("user")}
	for _, name := range []string{"a", "b"} {
		if v := c.Param(name); v != "" {
			parts = append(parts, v)
		}
	}
	last := len(parts) - 1
	parts[last] = strings.TrimSuffix(parts[last], ".json")
	return parts
}

// authorize validates the auth query token and pins it to the user namespace
// in the path. Every document route is per-user; a valid token for another
// user is still a 401.
func (h *documentHandler) authorize(c *gin.Context, parts []string) bool {
	claims, err := h.tokens.ParseAccess(c.Query("auth"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Permission denied"})
		return false
	}
	if claims.UserID != parts[1] {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Permission denied"})
		return false
	}
	return true
}

func readDocument(c *gin.Context) (json.RawMessage, bool) {
	raw, err := c.GetRawData()
	if err != nil || !json.Valid(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return nil, false
	}
	return raw, true
}

// createDocument handles POST on a collection: a push key is generated and
// returned as {"name": <key>}. Repeating a create always yields a new
// record; the backend never deduplicates.
func (h *documentHandler) createDocument(c *gin.Context) {
	parts := pathParts(c)
	if !h.authorize(c, parts) {
		return
	}
	doc, ok := readDocument(c)
	if !ok {
		return
	}

	parent := strings.Join(parts, "/")
	id := newPushID(time.Now())
	if err := h.docs.Put(c.Request.Context(), parent, id, doc); err != nil {
		h.logger.Error("store document", zap.String("parent", parent), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": id})
}

// listCollection handles GET on a collection: the key-to-document mapping,
// or JSON null when nothing is stored there.
func (h *documentHandler) listCollection(c *gin.Context) {
	parts := pathParts(c)
	if !h.authorize(c, parts) {
		return
	}

	parent := strings.Join(parts, "/")
	docs, err := h.docs.List(c.Request.Context(), parent)
	if err != nil {
		h.logger.Error("list documents", zap.String("parent", parent), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	if len(docs) == 0 {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// putDocument handles PUT on a single document: a full-field replace,
// idempotent.
func (h *documentHandler) putDocument(c *gin.Context) {
	parts := pathParts(c)
	if !h.authorize(c, parts) {
		return
	}
	doc, ok := readDocument(c)
	if !ok {
		return
	}

	parent := strings.Join(parts[:len(parts)-1], "/")
	id := parts[len(parts)-1]
	if err := h.docs.Put(c.Request.Context(), parent, id, doc); err != nil {
		h.logger.Error("replace document", zap.String("parent", parent), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	c.Data(http.StatusOK, "application/json", doc)
}

// deleteDocument handles DELETE on a single document, idempotent.
func (h *documentHandler) deleteDocument(c *gin.Context) {
	parts := pathParts(c)
	if !h.authorize(c, parts) {
		return
	}

	parent := strings.Join(parts[:len(parts)-1], "/")
	id := parts[len(parts)-1]
	if err := h.docs.Delete(c.Request.Context(), parent, id); err != nil {
		h.logger.Error("delete document", zap.String("parent", parent), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(http.StatusOK, nil)
}
