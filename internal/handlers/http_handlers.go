package handlers

import (
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"

	"secretsanta/internal/events"
	"secretsanta/internal/models"
	"secretsanta/internal/services"
)

// Options tune the HTTP surface.
type Options struct {
	// AdminToken enables the admin routes when non-empty.
	AdminToken string
	// ShowPasswords exposes every participant's password to admins.
	ShowPasswords bool
	// BaseURL is encoded in the share QR code; derived from the request when empty.
	BaseURL string
	Version string
}

// HTTPHandler holds the dependencies for the HTTP handlers, like the santa service.
type HTTPHandler struct {
	service *services.SantaService
	broker  *events.Broker
	opts    Options
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(service *services.SantaService, broker *events.Broker, opts Options) *HTTPHandler {
	return &HTTPHandler{
		service: service,
		broker:  broker,
		opts:    opts,
	}
}

// NewRouter builds a gin engine with every route registered.
func (h *HTTPHandler) NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	h.RegisterPublicRoutes(r)

	tenantRoutes := r.Group("/")
	tenantRoutes.Use(h.TenantMiddleware())
	h.RegisterTenantRoutes(tenantRoutes)

	return r
}

// RegisterPublicRoutes registers routes that need no tenant.
func (h *HTTPHandler) RegisterPublicRoutes(router *gin.Engine) {
	router.GET("/healthz", h.HealthCheck)
	router.GET("/version", h.ShowVersion)
	router.GET("/api/qr", h.ShareQRCode)
}

// RegisterTenantRoutes registers the routes scoped to one draw instance.
func (h *HTTPHandler) RegisterTenantRoutes(rg *gin.RouterGroup) {
	rg.GET("/ws", h.ServeEvents)

	api := rg.Group("/api")
	api.GET("/state", h.ShowState)
	api.POST("/participants", h.AddParticipant)
	api.DELETE("/participants/:name", h.RemoveParticipant)
	api.POST("/participants/csv", h.UploadParticipantsCSV)
	api.POST("/draw", h.PerformDraw)
	api.DELETE("/draw", h.ResetDraw)
	api.DELETE("/state", h.ResetAll)
	api.POST("/seed", h.Seed)
	api.POST("/login", h.Login)
	api.POST("/logout", h.Logout)
	api.GET("/me/recipient", h.ShowRecipient)

	admin := api.Group("/admin")
	admin.Use(h.AdminMiddleware())
	admin.GET("/audit", h.AuditDraw)
	admin.GET("/export.csv", h.ExportDrawCSV)
	admin.GET("/passwords", h.ShowPasswords)
}

// HealthCheck reports liveness.
func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "Ok\n")
}

// ShowVersion prints the running version.
func (h *HTTPHandler) ShowVersion(c *gin.Context) {
	c.String(http.StatusOK, "secretsanta v%s\n", h.opts.Version)
}

// ShowState returns the participants, the draw status and who is logged in.
func (h *HTTPHandler) ShowState(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context(), tenantFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

type participantRequest struct {
	Name     string `json:"name" form:"participantName"`
	Password string `json:"password" form:"participantPassword"`
}

// AddParticipant handles the submission of a new participant.
func (h *HTTPHandler) AddParticipant(c *gin.Context) {
	var req participantRequest
	if err := c.ShouldBind(&req); err != nil {
		failWith(c, http.StatusBadRequest, "invalid participant: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	if err := h.service.AddParticipant(ctx, tenantFrom(c), req.Name, req.Password); err != nil {
		fail(c, err)
		return
	}
	participants, err := h.service.GetParticipants(ctx, tenantFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"participants": participants})
}

// RemoveParticipant deletes a participant by name.
func (h *HTTPHandler) RemoveParticipant(c *gin.Context) {
	if err := h.service.RemoveParticipant(c.Request.Context(), tenantFrom(c), c.Param("name")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadParticipantsCSV imports participants from "name[,password]" rows.
func (h *HTTPHandler) UploadParticipantsCSV(c *gin.Context) {
	file, _, err := c.Request.FormFile("participantCSV")
	if err != nil {
		failWith(c, http.StatusBadRequest, "error retrieving file: "+err.Error())
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	tenantID := tenantFrom(c)
	added, skipped := 0, 0

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			failWith(c, http.StatusBadRequest, "error reading CSV: "+err.Error())
			return
		}

		if len(record) < 1 || len(record) > 2 {
			logger.Infof("Skipping malformed participant CSV record: %v", record)
			skipped++
			continue
		}

		password := ""
		if len(record) == 2 {
			password = record[1]
		}
		if err := h.service.AddParticipant(ctx, tenantID, record[0], password); err != nil {
			var verr *models.ValidationError
			if !errors.As(err, &verr) {
				fail(c, err)
				return
			}
			logger.Infof("Skipping participant CSV record %v: %v", record, err)
			skipped++
			continue
		}
		added++
	}

	participants, err := h.service.GetParticipants(ctx, tenantID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"added":        added,
		"skipped":      skipped,
		"participants": participants,
	})
}

// PerformDraw runs the draw. The response never reveals the pairs.
func (h *HTTPHandler) PerformDraw(c *gin.Context) {
	result, err := h.service.PerformDraw(c.Request.Context(), tenantFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"hasDrawn": true, "pairs": len(result)})
}

// ResetDraw discards the draw.
func (h *HTTPHandler) ResetDraw(c *gin.Context) {
	if err := h.service.ResetDraw(c.Request.Context(), tenantFrom(c)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ResetAll wipes the tenant.
func (h *HTTPHandler) ResetAll(c *gin.Context) {
	if err := h.service.ResetAll(c.Request.Context(), tenantFrom(c)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Seed loads the demo participants; ?force=true overwrites existing data.
func (h *HTTPHandler) Seed(c *gin.Context) {
	force := false
	if raw := c.Query("force"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			failWith(c, http.StatusBadRequest, "invalid force value")
			return
		}
		force = parsed
	}

	seeded, err := h.service.Seed(c.Request.Context(), tenantFrom(c), force)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"seeded": seeded})
}

type loginRequest struct {
	Name     string `json:"name" form:"name" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// Login authenticates a participant.
func (h *HTTPHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		failWith(c, http.StatusBadRequest, "name and password are required")
		return
	}

	name, err := h.service.Login(c.Request.Context(), tenantFrom(c), req.Name, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"currentUser": name})
}

// Logout forgets the logged-in participant.
func (h *HTTPHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), tenantFrom(c)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ShowRecipient reveals the logged-in participant's own recipient.
func (h *HTTPHandler) ShowRecipient(c *gin.Context) {
	giver, to, err := h.service.Recipient(c.Request.Context(), tenantFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.Pair{From: giver, To: to})
}

// AuditDraw reports on the integrity of the stored draw.
func (h *HTTPHandler) AuditDraw(c *gin.Context) {
	report, err := h.service.Audit(c.Request.Context(), tenantFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportDrawCSV handles the request to download the draw as a CSV file.
func (h *HTTPHandler) ExportDrawCSV(c *gin.Context) {
	result, err := h.service.GetDraw(c.Request.Context(), tenantFrom(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment;filename=secret_santa_draw.csv")

	// BOM keeps accented names intact in Excel
	c.Writer.Write([]byte("\xef\xbb\xbf"))

	w := csv.NewWriter(c.Writer)
	if err := w.Write([]string{"giver", "receiver"}); err != nil {
		logger.Infof("Error writing CSV header: %v", err)
		return
	}
	for _, p := range result {
		if err := w.Write([]string{p.From, p.To}); err != nil {
			logger.Infof("Error writing CSV row: %v", err)
			return
		}
	}
	w.Flush()

	if err := w.Error(); err != nil {
		logger.Infof("Error flushing CSV writer: %v", err)
	}
}

// ShowPasswords lists every participant's password when enabled.
func (h *HTTPHandler) ShowPasswords(c *gin.Context) {
	if !h.opts.ShowPasswords {
		failWith(c, http.StatusNotFound, "password display is disabled")
		return
	}
	passwords, err := h.service.Passwords(c.Request.Context(), tenantFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, passwords)
}

// ShareQRCode renders a PNG QR code pointing at the app.
func (h *HTTPHandler) ShareQRCode(c *gin.Context) {
	url := h.opts.BaseURL
	if url == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		url = scheme + "://" + c.Request.Host
	}
	url = strings.TrimSuffix(url, "/") + "/"

	const qrSize = 320
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		failWith(c, http.StatusInternalServerError, "qr generation failed")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeEvents streams the tenant's state changes over a websocket. The
// first message is a snapshot of the current state.
func (h *HTTPHandler) ServeEvents(c *gin.Context) {
	if h.broker == nil {
		failWith(c, http.StatusNotFound, "live updates are disabled")
		return
	}
	tenantID := tenantFrom(c)
	overview, err := h.service.Overview(c.Request.Context(), tenantID)
	if err != nil {
		fail(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("Websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.broker.Subscribe(tenantID)
	defer cancel()

	snapshot := models.Event{
		Type:         models.EventSnapshot,
		Participants: len(overview.Participants),
		HasDrawn:     overview.HasDrawn,
	}
	if err := conn.WriteJSON(snapshot); err != nil {
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
