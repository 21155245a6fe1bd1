package devbackend

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/better-hash/ai-video-generator/internal/entity"
	"github.com/better-hash/ai-video-generator/internal/logging"
)

// DefaultStep is the per-step render time when Options.StepInterval is zero.
const DefaultStep = 1500 * time.Millisecond

// maxImageBytes mirrors the client-side upload limit.
const maxImageBytes = 5 << 20

// Options configures the simulated backend.
type Options struct {
	// StepInterval is how long each progress step takes. Negative values
	// complete jobs immediately.
	StepInterval time.Duration
	Logger       *slog.Logger
	// AllowOrigins lists browser origins allowed by CORS. Empty uses the
	// usual local frontend dev servers.
	AllowOrigins []string
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Server handles the backend routes.
type Server struct {
	engine *gin.Engine
	jobs   *jobStore
	logger *slog.Logger
}

// New builds the router.
func New(opts Options) *Server {
	step := opts.StepInterval
	if step == 0 {
		step = DefaultStep
	}
	if step < 0 {
		step = 0
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	origins := opts.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:3000"}
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		engine: gin.New(),
		jobs:   newJobStore(step, now),
		logger: logging.NewComponentLogger(opts.Logger, "devbackend"),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger(), cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))
	s.engine.MaxMultipartMemory = 8 << 20

	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api := s.engine.Group("/api")
	{
		api.POST("/scripts/parse", s.parseScript)
		api.POST("/characters/generate", s.generateCharacter)
		api.POST("/characters/generate-with-image", s.generateCharacterWithImage)
		api.POST("/scenes/generate", s.generateScene)
		api.POST("/videos/generate", s.generateVideo)
		api.GET("/status/:task_id", s.taskStatus)
		api.GET("/videos/:task_id/status", s.taskStatus)
		api.GET("/videos/:task_id/download", s.downloadInfo)
	}
	s.engine.GET("/videos/:task_id/output.mp4", s.serveVideo)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request served",
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", c.Writer.Status()),
			logging.Int64("duration_ms", time.Since(start).Milliseconds()),
			logging.String(logging.FieldRequestID, c.GetHeader("X-Request-ID")),
		)
	}
}

type scriptRequest struct {
	ScriptText string `json:"script_text"`
}

type describeRequest struct {
	Description string `json:"description"`
}

type videoRequest struct {
	ScriptText string               `json:"script_text"`
	Characters []entity.Character   `json:"characters"`
	Scenes     []entity.Scene       `json:"scenes"`
	Settings   entity.VideoSettings `json:"settings"`
}

func badRequest(c *gin.Context, detail string) {
	c.JSON(http.StatusBadRequest, gin.H{"detail": detail})
}

func (s *Server) parseScript(c *gin.Context) {
	var req scriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ScriptText) == "" {
		badRequest(c, "script_text is required")
		return
	}
	c.JSON(http.StatusOK, ParseScript(req.ScriptText))
}

func (s *Server) generateCharacter(c *gin.Context) {
	var req describeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Description) == "" {
		badRequest(c, "description is required")
		return
	}
	c.JSON(http.StatusOK, inventCharacter(req.Description, ""))
}

func (s *Server) generateCharacterWithImage(c *gin.Context) {
	description := strings.TrimSpace(c.PostForm("description"))
	if description == "" {
		badRequest(c, "description is required")
		return
	}
	header, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "image is required")
		return
	}
	if header.Size >= maxImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"detail": "image must be smaller than 5MB"})
		return
	}
	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		badRequest(c, "image must be an image file")
		return
	}
	c.JSON(http.StatusOK, inventCharacter(description, header.Filename))
}

func (s *Server) generateScene(c *gin.Context) {
	var req describeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Description) == "" {
		badRequest(c, "description is required")
		return
	}
	c.JSON(http.StatusOK, inventScene(req.Description))
}

func (s *Server) generateVideo(c *gin.Context) {
	var req videoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ScriptText) == "" {
		badRequest(c, "script_text is required")
		return
	}
	if err := req.Settings.Validate(); err != nil {
		badRequest(c, err.Error())
		return
	}
	j := s.jobs.create(req.ScriptText, req.Settings)
	s.logger.Info("video job accepted",
		logging.String(logging.FieldTaskID, j.id),
		logging.Int("characters", len(req.Characters)),
		logging.Int("scenes", len(req.Scenes)),
		logging.String("resolution", string(req.Settings.Resolution)),
	)
	c.JSON(http.StatusOK, gin.H{
		"task_id": j.id,
		"status":  string(entity.TaskProcessing),
		"message": "video generation started",
	})
}

func (s *Server) lookup(c *gin.Context) (*job, bool) {
	j, ok := s.jobs.get(c.Param("task_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "task not found"})
	}
	return j, ok
}

func (s *Server) taskStatus(c *gin.Context) {
	j, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.jobs.status(j))
}

func (s *Server) downloadInfo(c *gin.Context) {
	j, ok := s.lookup(c)
	if !ok {
		return
	}
	task := s.jobs.status(j)
	if task.Status != entity.TaskCompleted {
		c.JSON(http.StatusConflict, gin.H{"detail": "video is not ready", "status": task.Status})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"task_id":   j.id,
		"video_url": task.VideoURL,
		"message":   "video ready for download",
	})
}

func (s *Server) serveVideo(c *gin.Context) {
	j, ok := s.jobs.get(c.Param("task_id"))
	if !ok || s.jobs.status(j).Status != entity.TaskCompleted {
		c.Status(http.StatusNotFound)
		return
	}
	data := placeholderVideo(j)
	c.DataFromReader(http.StatusOK, int64(len(data)), "video/mp4", bytes.NewReader(data), nil)
}
