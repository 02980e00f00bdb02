package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mmcrisostomo/lrt-density/backend/internal/comments"
	"github.com/mmcrisostomo/lrt-density/backend/internal/crowd"
	"github.com/mmcrisostomo/lrt-density/backend/internal/models"
	"github.com/mmcrisostomo/lrt-density/backend/internal/notify"
)

type StationHandler struct {
	db     *gorm.DB
	svc    *comments.Service
	live   *crowd.LiveStore
	alerts *notify.AlertNotifier
}

func NewStationHandler(db *gorm.DB, svc *comments.Service, live *crowd.LiveStore, alerts *notify.AlertNotifier) *StationHandler {
	return &StationHandler{db: db, svc: svc, live: live, alerts: alerts}
}

// levelFor resolves a platform's crowd level: a fresh operator report from
// the live cache wins, otherwise the historical profile for "now".
func (h *StationHandler) levelFor(c *gin.Context, station *models.Station, direction string, now time.Time) string {
	if h.live != nil {
		level, ok, err := h.live.Level(c.Request.Context(), station.ID, direction)
		if err != nil {
			log.Printf("Live crowd lookup failed for station %d: %v", station.ID, err)
		} else if ok {
			return level
		}
	}

	if direction == crowd.DirectionNB {
		return crowd.EstimateAt(station.HistoricalNB, now)
	}
	return crowd.EstimateAt(station.HistoricalSB, now)
}

// GetStations returns the line map: stations in geographic order with the
// current crowd level per direction, plus the latest comments across the
// line for the home feed.
func (h *StationHandler) GetStations(c *gin.Context) {
	var stations []models.Station
	if err := h.db.Order("line_order asc").Find(&stations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stations"})
		return
	}

	now := time.Now()

	northbound := make([]gin.H, 0, len(stations))
	for i := range stations {
		northbound = append(northbound, gin.H{
			"id":          stations[i].ID,
			"name":        stations[i].Name,
			"crowd_level": h.levelFor(c, &stations[i], crowd.DirectionNB, now),
		})
	}

	// Southbound renders in reverse so both lists read in travel direction
	southbound := make([]gin.H, 0, len(stations))
	for i := len(stations) - 1; i >= 0; i-- {
		southbound = append(southbound, gin.H{
			"id":          stations[i].ID,
			"name":        stations[i].Name,
			"crowd_level": h.levelFor(c, &stations[i], crowd.DirectionSB, now),
		})
	}

	recent, err := h.svc.Recent(c.Request.Context(), 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stations_nb": northbound,
		"stations_sb": southbound,
		"comments":    comments.Project(recent, viewerFrom(c)),
	})
}

// GetStation returns one station's detail page data: live levels,
// historical profiles and the comment thread annotated for the viewer.
func (h *StationHandler) GetStation(c *gin.Context) {
	stationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var station models.Station
	if err := h.db.First(&station, stationID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Station not found"})
		return
	}

	thread, err := h.svc.ForStation(c.Request.Context(), station.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	now := time.Now()
	c.JSON(http.StatusOK, gin.H{
		"station":        station,
		"live_status_nb": h.levelFor(c, &station, crowd.DirectionNB, now),
		"live_status_sb": h.levelFor(c, &station, crowd.DirectionSB, now),
		"comments":       comments.Project(thread, viewerFrom(c)),
	})
}

// SearchStations finds a station by case-insensitive name fragment.
func (h *StationHandler) SearchStations(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search query is required"})
		return
	}

	var station models.Station
	if err := h.db.Where("name ILIKE ?", "%"+query+"%").Order("line_order asc").First(&station).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No station was found matching your search."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"station": station})
}

var validLevels = map[string]bool{
	crowd.LevelLight:    true,
	crowd.LevelModerate: true,
	crowd.LevelHeavy:    true,
}

// UpdateStationStatus lets an admin set the live status text and current
// crowd levels. The live cache is refreshed and a status change away from
// normal operation fans out as an SMS alert.
func (h *StationHandler) UpdateStationStatus(c *gin.Context) {
	viewer := viewerFrom(c)
	if viewer.IsAnonymous() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	if !viewer.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}

	stationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input struct {
		LiveStatus   string `json:"live_status"`
		CrowdLevelNB string `json:"crowd_level_nb"`
		CrowdLevelSB string `json:"crowd_level_sb"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if (input.CrowdLevelNB != "" && !validLevels[input.CrowdLevelNB]) ||
		(input.CrowdLevelSB != "" && !validLevels[input.CrowdLevelSB]) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Crowd level must be light, moderate or heavy"})
		return
	}

	var station models.Station
	if err := h.db.First(&station, stationID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Station not found"})
		return
	}

	previousStatus := station.LiveStatus
	if input.LiveStatus != "" {
		station.LiveStatus = input.LiveStatus
	}
	if input.CrowdLevelNB != "" {
		station.CrowdLevelNB = input.CrowdLevelNB
	}
	if input.CrowdLevelSB != "" {
		station.CrowdLevelSB = input.CrowdLevelSB
	}

	if err := h.db.Save(&station).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update station"})
		return
	}

	if h.live != nil {
		if input.CrowdLevelNB != "" {
			if err := h.live.SetLevel(c.Request.Context(), station.ID, crowd.DirectionNB, input.CrowdLevelNB); err != nil {
				log.Printf("Failed to cache live level for station %d: %v", station.ID, err)
			}
		}
		if input.CrowdLevelSB != "" {
			if err := h.live.SetLevel(c.Request.Context(), station.ID, crowd.DirectionSB, input.CrowdLevelSB); err != nil {
				log.Printf("Failed to cache live level for station %d: %v", station.ID, err)
			}
		}
	}

	if input.LiveStatus != "" && input.LiveStatus != previousStatus && input.LiveStatus != "Normal Operation" {
		h.alerts.StationAlert(station.Name, input.LiveStatus)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "station": station})
}
