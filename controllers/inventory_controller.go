// controllers/inventory_controller.go
package controllers

import (
	"net/http"
	"time"

	"theater_inventory/app"
	"theater_inventory/db"
	"theater_inventory/models"

	"github.com/gin-gonic/gin"
)

type InventoryController struct{ *Srv }

func NewInventoryController(s *Srv) *InventoryController { return &InventoryController{Srv: s} }

// 可用数量
func (ic *InventoryController) Availability(c *gin.Context) {
	v, err := ic.Repo.GetAvailability(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// 预检：只返回冲突和警告，不落库
func (ic *InventoryController) Validate(c *gin.Context) {
	var in struct {
		AllocationID string                  `json:"allocationId"`
		Status       models.AllocationStatus `json:"status" binding:"required"`
		Quantity     int                     `json:"quantity"`
		EventID      string                  `json:"eventId"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	res, err := ic.Repo.ValidateTransition(c.Request.Context(), db.ValidateInput{
		ItemID:       c.Param("id"),
		AllocationID: in.AllocationID,
		Status:       in.Status,
		Quantity:     in.Quantity,
		EventID:      in.EventID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (ic *InventoryController) History(c *gin.Context) {
	entries, err := ic.Repo.GetHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": entries})
}

// 分配到地点
func (ic *InventoryController) Allocate(c *gin.Context) {
	uid, ok := actor(c)
	if !ok {
		return
	}
	var in struct {
		LocationID       string                  `json:"locationId" binding:"required"`
		EventID          *string                 `json:"eventId"`
		Quantity         int                     `json:"quantity" binding:"required"`
		Kind             models.AllocationKind   `json:"kind"`
		Status           models.AllocationStatus `json:"status"`
		Notes            string                  `json:"notes"`
		ExpectedReturnAt *time.Time              `json:"expectedReturnAt"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	la, warnings, err := ic.Repo.Allocate(c.Request.Context(), db.AllocateInput{
		ItemID:           c.Param("id"),
		LocationID:       in.LocationID,
		EventID:          in.EventID,
		Quantity:         in.Quantity,
		Kind:             in.Kind,
		Status:           in.Status,
		Actor:            uid,
		Notes:            in.Notes,
		ExpectedReturnAt: in.ExpectedReturnAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"allocation": la, "warnings": warnings})
}

// 活动需求登记
func (ic *InventoryController) RequestForEvent(c *gin.Context) {
	uid, ok := actor(c)
	if !ok {
		return
	}
	var in struct {
		EventID        string `json:"eventId" binding:"required"`
		QuantityNeeded int    `json:"quantityNeeded" binding:"required"`
		Notes          string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	ea, warnings, err := ic.Repo.RequestEventAllocation(c.Request.Context(), db.RequestInput{
		ItemID:         c.Param("id"),
		EventID:        in.EventID,
		QuantityNeeded: in.QuantityNeeded,
		Actor:          uid,
		Notes:          in.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"allocation": ea, "warnings": warnings})
}

type notesReq struct {
	Notes string `json:"notes"`
}

// 归还（幂等）
func (ic *InventoryController) Return(c *gin.Context) {
	uid, ok := actor(c)
	if !ok {
		return
	}
	var in notesReq
	_ = c.ShouldBindJSON(&in)

	rec, err := ic.Repo.Return(c.Request.Context(), c.Param("id"), uid, in.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (ic *InventoryController) Move(c *gin.Context) {
	uid, ok := actor(c)
	if !ok {
		return
	}
	var in struct {
		LocationID string `json:"locationId" binding:"required"`
		Notes      string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	la, err := ic.Repo.Move(c.Request.Context(), c.Param("id"), in.LocationID, uid, in.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, la)
}

// 状态流转
func (ic *InventoryController) Transition(c *gin.Context) {
	uid, ok := actor(c)
	if !ok {
		return
	}
	var in struct {
		Status   models.AllocationStatus `json:"status" binding:"required"`
		Quantity int                     `json:"quantity"`
		Notes    string                  `json:"notes"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	rec, warnings, err := ic.Repo.TransitionStatus(c.Request.Context(), db.TransitionInput{
		AllocationID: c.Param("id"),
		Status:       in.Status,
		Quantity:     in.Quantity,
		Actor:        uid,
		Notes:        in.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"allocation": rec, "warnings": warnings})
}

func (ic *InventoryController) Rerequest(c *gin.Context) {
	uid, ok := actor(c)
	if !ok {
		return
	}
	ea, warnings, err := ic.Repo.Rerequest(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"allocation": ea, "warnings": warnings})
}

// 某地点当前在库
func (ic *InventoryController) LocationInventory(c *gin.Context) {
	lines, err := ic.Repo.GetLocationInventory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": lines})
}
