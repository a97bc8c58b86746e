package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/addinfi/makemyposts-be/internal/core/payment"
	"github.com/gofiber/fiber/v2"
)

//go:embed templates/*.html
var templateFS embed.FS

// Site describes what the public pages show
type Site struct {
	AppName string
	Company string
	AppURL  string
}

type pageData struct {
	Site
	Title         string
	Year          int
	Topups        []payment.Plan
	Subscriptions []payment.Plan
}

// Pages renders the landing, privacy and terms pages
type Pages struct {
	site    Site
	catalog *payment.Catalog
	pages   map[string]*template.Template
	now     func() time.Time
}

func NewPages(site Site, catalog *payment.Catalog) (*Pages, error) {
	p := &Pages{
		site:    site,
		catalog: catalog,
		pages:   make(map[string]*template.Template),
		now:     time.Now,
	}
	for _, name := range []string{"index", "privacy", "terms"} {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		p.pages[name] = tmpl
	}
	return p, nil
}

func (p *Pages) RegisterRoutes(app fiber.Router) {
	app.Get("/", p.page("index", "Home"))
	app.Get("/privacy", p.page("privacy", "Privacy Policy"))
	app.Get("/terms", p.page("terms", "Terms of Service"))
}

func (p *Pages) page(name, title string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data := pageData{
			Site:  p.site,
			Title: title,
			Year:  p.now().Year(),
		}
		if name == "index" {
			data.Topups = p.catalog.List(payment.KindTopup)
			data.Subscriptions = p.catalog.List(payment.KindSubscription)
		}

		var buf bytes.Buffer
		if err := p.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		c.Type("html", "utf-8")
		return c.Send(buf.Bytes())
	}
}
