package handler

import "github.com/gin-gonic/gin"

// Routes groups the API handlers mounted under /api/v1
type Routes struct {
	CheckIn    *CheckInHandler
	Stream     *StreamHandler
	Validation *ValidationHandler
	Alert      *AlertHandler
}

// Register mounts the API on rg. adminOnly guards revert and the alert
// endpoints; scanLimit wraps the admit endpoint. Either may be nil.
func (r *Routes) Register(rg *gin.RouterGroup, adminOnly, scanLimit gin.HandlerFunc) {
	admin := chain(adminOnly)

	checkin := rg.Group("/checkin")
	{
		checkin.POST("", append(chain(scanLimit), r.CheckIn.CheckIn)...)
		checkin.GET("/:code", r.CheckIn.Inspect)
		checkin.DELETE("/:code", append(admin, r.CheckIn.Revert)...)
	}

	sessions := rg.Group("/sessions/:id")
	{
		sessions.GET("/checkin-stats", r.CheckIn.SessionStats)
		sessions.GET("/checkins", r.CheckIn.RecentAdmissions)
		if r.Stream != nil {
			sessions.GET("/checkins/stream", r.Stream.Stream)
		}
	}

	venues := rg.Group("/venues/:id")
	{
		venues.GET("/validation/capacity", r.Validation.Capacity)
		venues.GET("/validation/schedule", r.Validation.Schedule)
		venues.GET("/validation/stock", r.Validation.Stock)
		venues.POST("/alerts/evaluate", append(admin, r.Alert.Evaluate)...)
	}

	rg.POST("/alerts/:id/trigger", append(admin, r.Alert.Trigger)...)
}

func chain(mw gin.HandlerFunc) []gin.HandlerFunc {
	if mw == nil {
		return nil
	}
	return []gin.HandlerFunc{mw}
}
