package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"partsflow/internal/core/id"
	"partsflow/internal/domain"
)

// DocumentReader is the read side every document service provides.
type DocumentReader[T any, F any] interface {
	GetByID(ctx context.Context, id id.ID) (T, error)
	List(ctx context.Context, filter F) (domain.ListResult[T], error)
}

// ListQuery is a bound query string that converts to a domain filter.
type ListQuery[F any] interface {
	ToFilter() (F, error)
}

// BaseDocumentHandler provides the generic Get and List endpoints of a document.
type BaseDocumentHandler[T any, F any, Q ListQuery[F]] struct {
	*BaseHandler
	reader   DocumentReader[T, F]
	mapToDTO func(ctx context.Context, entity T) any
}

// NewBaseDocumentHandler creates a new base document handler. mapToDTO may be nil.
func NewBaseDocumentHandler[T any, F any, Q ListQuery[F]](
	base *BaseHandler,
	reader DocumentReader[T, F],
	mapToDTO func(ctx context.Context, entity T) any,
) *BaseDocumentHandler[T, F, Q] {
	if mapToDTO == nil {
		mapToDTO = func(_ context.Context, entity T) any { return entity }
	}
	return &BaseDocumentHandler[T, F, Q]{
		BaseHandler: base,
		reader:      reader,
		mapToDTO:    mapToDTO,
	}
}

// Get handles GET /{entity}/:id
func (h *BaseDocumentHandler[T, F, Q]) Get(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	doc, err := h.reader.GetByID(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, h.mapToDTO(ctx, doc))
}

// List handles GET /{entity}
func (h *BaseDocumentHandler[T, F, Q]) List(c *gin.Context) {
	var q Q
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	result, err := h.reader.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, doc := range result.Items {
		items[i] = h.mapToDTO(ctx, doc)
	}
	h.OK(c, domain.ListResult[any]{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// respond maps a single document the same way Get does.
func (h *BaseDocumentHandler[T, F, Q]) respond(c *gin.Context, status int, doc T) {
	c.JSON(status, h.mapToDTO(c.Request.Context(), doc))
}
