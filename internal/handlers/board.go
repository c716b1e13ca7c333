package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-api/internal/dto"
	"github.com/yukikurage/kanban-api/internal/services"
)

// BoardHandler serves boards and columns
type BoardHandler struct {
	boardService *services.BoardService
	now          func() time.Time
}

func NewBoardHandler(boardService *services.BoardService) *BoardHandler {
	return &BoardHandler{boardService: boardService, now: time.Now}
}

type boardRequest struct {
	Title string `json:"title" binding:"required,max=255"`
}

type columnRequest struct {
	Title    *string `json:"title" binding:"omitempty,max=255"`
	WipLimit *int    `json:"wip_limit" binding:"omitempty,min=0"`
}

// ListBoards returns the boards of a project with their columns
func (h *BoardHandler) ListBoards(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}

	boards, err := h.boardService.ListBoards(actor, projectID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.ToBoardDTOs(boards, h.now())})
}

// CreateBoard creates a board with the default columns
func (h *BoardHandler) CreateBoard(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}

	var req boardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	board, err := h.boardService.CreateBoard(actor, projectID, req.Title)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Board created successfully",
		"data":    dto.ToBoardDTO(*board, h.now()),
	})
}

// GetBoard returns a board with its columns and tasks
func (h *BoardHandler) GetBoard(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	boardID, ok := parseID(c, "id", "board")
	if !ok {
		return
	}

	board, err := h.boardService.GetBoard(actor, boardID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.ToBoardDTO(*board, h.now())})
}

// UpdateBoard renames a board
func (h *BoardHandler) UpdateBoard(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	boardID, ok := parseID(c, "id", "board")
	if !ok {
		return
	}

	var req boardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	board, err := h.boardService.UpdateBoard(actor, boardID, req.Title)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Board updated successfully",
		"data":    dto.ToBoardDTO(*board, h.now()),
	})
}

// DeleteBoard deletes a board with its columns and tasks
func (h *BoardHandler) DeleteBoard(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	boardID, ok := parseID(c, "id", "board")
	if !ok {
		return
	}

	if err := h.boardService.DeleteBoard(actor, boardID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Board deleted successfully"})
}

// CreateColumn appends a column to a board
func (h *BoardHandler) CreateColumn(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	boardID, ok := parseID(c, "id", "board")
	if !ok {
		return
	}

	var req columnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	column, err := h.boardService.CreateColumn(actor, boardID, services.ColumnInput{
		Title:    req.Title,
		WipLimit: req.WipLimit,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Column created successfully",
		"data":    dto.ToColumnDTO(*column),
	})
}

// UpdateColumn changes a column's title or WIP limit
func (h *BoardHandler) UpdateColumn(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	columnID, ok := parseID(c, "id", "column")
	if !ok {
		return
	}

	var req columnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	column, err := h.boardService.UpdateColumn(actor, columnID, services.ColumnInput{
		Title:    req.Title,
		WipLimit: req.WipLimit,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Column updated successfully",
		"data":    dto.ToColumnDTO(*column),
	})
}

// DeleteColumn deletes an empty column
func (h *BoardHandler) DeleteColumn(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	columnID, ok := parseID(c, "id", "column")
	if !ok {
		return
	}

	if err := h.boardService.DeleteColumn(actor, columnID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Column deleted successfully"})
}

// ReorderColumns rewrites the column order of a board
func (h *BoardHandler) ReorderColumns(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	boardID, ok := parseID(c, "id", "board")
	if !ok {
		return
	}

	type ReorderRequest struct {
		ColumnIDs []uint64 `json:"column_ids" binding:"required"`
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	columns, err := h.boardService.ReorderColumns(actor, boardID, req.ColumnIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Columns reordered successfully",
		"data":    dto.ToColumnDTOs(columns),
	})
}
