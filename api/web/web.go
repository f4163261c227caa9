package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/killallgit/delivery-api/api/history"
	"github.com/killallgit/delivery-api/api/types"
	"github.com/killallgit/delivery-api/internal/models"
	"github.com/killallgit/delivery-api/internal/services/exporters"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type formatOption struct {
	Name    string
	Checked bool
}

type indexPage struct {
	Formats   []formatOption
	Platforms []models.Platform
	Queueing  bool
}

type historyPage struct {
	Batches []types.Batch
	Error   string
}

// RegisterRoutes serves the browser pages at the engine root
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies) {
	engine.GET("/", Index(deps))
	engine.GET("/history", History(deps))
}

// Index renders the batch submission form. The form posts to /api/v1/jobs
// and polls the job until its files are ready.
func Index(deps *types.Dependencies) gin.HandlerFunc {
	defaults := map[exporters.Format]bool{exporters.FormatWord: true}

	return func(c *gin.Context) {
		page := indexPage{
			Platforms: []models.Platform{models.PlatformAuto, models.PlatformDouyin, models.PlatformBilibili},
			Queueing:  deps.JobService != nil,
		}
		for _, f := range exporters.Formats() {
			page.Formats = append(page.Formats, formatOption{Name: string(f), Checked: defaults[f]})
		}
		c.Render(http.StatusOK, render.HTML{Template: pages, Name: "index.html", Data: page})
	}
}

// History renders the delivered batches with download links
func History(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		batches, err := history.ListBatches(deps.OutputRoot)
		page := historyPage{Batches: batches}
		status := http.StatusOK
		if err != nil {
			page.Error = err.Error()
			status = http.StatusInternalServerError
		}
		c.Render(status, render.HTML{Template: pages, Name: "history.html", Data: page})
	}
}
