// controllers/registry_controller.go
package controllers

import (
	"net/http"
	"strconv"
	"time"

	"theater_inventory/app"
	"theater_inventory/db"
	"theater_inventory/models"

	"github.com/gin-gonic/gin"
)

type RegistryController struct{ *Srv }

func NewRegistryController(s *Srv) *RegistryController { return &RegistryController{Srv: s} }

// 管理员登记物品
func (rc *RegistryController) CreateItem(c *gin.Context) {
	var in struct {
		Name                   string                  `json:"name" binding:"required"`
		Serial                 string                  `json:"serial" binding:"required"`
		TotalQuantity          int                     `json:"totalQuantity" binding:"required"`
		Status                 models.ItemStatus       `json:"status"`
		InstallationKind       models.InstallationKind `json:"installationKind"`
		InstallationQuantity   int                     `json:"installationQuantity"`
		InstallationLocationID *string                 `json:"installationLocationId"`
		LocationID             *string                 `json:"locationId"`
		LocationName           string                  `json:"locationName"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	it := &models.Item{
		Name:                   in.Name,
		Serial:                 in.Serial,
		TotalQuantity:          in.TotalQuantity,
		Status:                 in.Status,
		InstallationKind:       in.InstallationKind,
		InstallationQuantity:   in.InstallationQuantity,
		InstallationLocationID: in.InstallationLocationID,
		LocationID:             in.LocationID,
		LocationName:           in.LocationName,
	}
	if err := rc.Repo.CreateItem(c.Request.Context(), it); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, it)
}

// 列表 ?q=&status=&page=&size=
func (rc *RegistryController) ListItems(c *gin.Context) {
	q := db.ItemsQuery{
		Q:      c.Query("q"),
		Status: models.ItemStatus(c.Query("status")),
	}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.Size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := rc.Repo.ListItems(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (rc *RegistryController) GetItem(c *gin.Context) {
	it, err := rc.Repo.FindItemByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

// 设置位置/安装信息，状态由服务端推导
func (rc *RegistryController) SetPlacement(c *gin.Context) {
	uid, ok := actor(c)
	if !ok {
		return
	}
	var in struct {
		Status                 *models.ItemStatus       `json:"status"`
		InstallationKind       *models.InstallationKind `json:"installationKind"`
		InstallationQuantity   *int                     `json:"installationQuantity"`
		InstallationLocationID *string                  `json:"installationLocationId"`
		LocationID             *string                  `json:"locationId"`
		LocationName           *string                  `json:"locationName"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	it, err := rc.Repo.SetItemPlacement(c.Request.Context(), db.PlacementInput{
		ItemID:                 c.Param("id"),
		Status:                 in.Status,
		InstallationKind:       in.InstallationKind,
		InstallationQuantity:   in.InstallationQuantity,
		InstallationLocationID: in.InstallationLocationID,
		LocationID:             in.LocationID,
		LocationName:           in.LocationName,
		Actor:                  uid,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

func (rc *RegistryController) CreateLocation(c *gin.Context) {
	var in struct {
		Name             string `json:"name" binding:"required"`
		IsDefaultStorage bool   `json:"isDefaultStorage"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	l := &models.Location{Name: in.Name, IsDefaultStorage: in.IsDefaultStorage}
	if err := rc.Repo.CreateLocation(c.Request.Context(), l); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (rc *RegistryController) CreateEvent(c *gin.Context) {
	var in struct {
		Name     string     `json:"name" binding:"required"`
		StartsAt *time.Time `json:"startsAt"`
		EndsAt   *time.Time `json:"endsAt"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	e := &models.Event{Name: in.Name, StartsAt: in.StartsAt, EndsAt: in.EndsAt}
	if err := rc.Repo.CreateEvent(c.Request.Context(), e); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}
