package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yoockh/intake/internal/api/handlers"
)

type Deps struct {
	Intake *handlers.IntakeHandler
	Meta   *handlers.MetaHandler
	WS     *handlers.WSHandler // nil without Redis
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/health", d.Meta.Health)
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	api := r.Group("/api")
	api.GET("/catalog", d.Meta.Catalog)

	api.POST("/session/start", d.Intake.StartSession)
	api.GET("/session/state", d.Intake.State)
	api.POST("/video/upload", d.Intake.UploadVideo)

	api.POST("/transcribe/all", d.Intake.TranscribeAll)
	api.POST("/transcribe/queue", d.Intake.QueueTranscription)
	api.POST("/transcribe/:question_id", d.Intake.Transcribe)

	api.POST("/analyze", d.Intake.Analyze)
	api.GET("/summary", d.Intake.Summary)
	api.GET("/analyses", d.Intake.History)

	if d.WS != nil {
		r.GET("/ws/session", d.WS.SessionWS)
	}
}
