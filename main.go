package main

import (
	"log"
	"net/http"
	"os"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"windquote/collections"
	"windquote/config"
	"windquote/handlers"
	"windquote/services"
)

func main() {
	conf, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	app := pocketbase.New()

	levelOverride := ""
	if app.IsDev() {
		levelOverride = "debug"
	}
	logger, err := config.NewLogger(conf.Logging, levelOverride)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	slopePolicy := conf.Calculator.SlopeParsePolicy()
	exportOpts := services.ExportOptions{
		Company:  conf.Export.Company,
		Currency: conf.Export.Currency,
	}

	// Create collections, seed data and migrate on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if conf.Seed.PriceItems {
			if err := collections.SeedPriceItems(app); err != nil {
				zap.L().Warn("price item seed failed", zap.Error(err))
			}
		}
		if conf.Seed.Demo {
			if err := collections.SeedDemoProject(app); err != nil {
				zap.L().Warn("demo project seed failed", zap.Error(err))
			}
		}
		if err := collections.MigrateLineQuantityVariants(app); err != nil {
			zap.L().Warn("line quantity migration failed", zap.Error(err))
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		se.Router.GET("/static/{path...}", apis.Static(os.DirFS("./static"), false))

		se.Router.BindFunc(handlers.RequestLogger())

		// ── Projects ─────────────────────────────────────────────
		se.Router.GET("/projects", handlers.HandleProjectList(app))
		se.Router.POST("/projects", handlers.HandleProjectCreate(app))
		se.Router.PATCH("/projects/{id}", handlers.HandleProjectUpdate(app))
		se.Router.DELETE("/projects/{id}", handlers.HandleProjectDelete(app))

		// ── Quotes ───────────────────────────────────────────────
		se.Router.GET("/projects/{projectId}/quotes", handlers.HandleQuoteList(app))
		se.Router.POST("/projects/{projectId}/quotes", handlers.HandleQuoteCreate(app))
		se.Router.GET("/quotes/{id}", handlers.HandleQuoteView(app, exportOpts.Currency))
		se.Router.POST("/quotes/{id}/duplicate", handlers.HandleQuoteDuplicate(app))
		se.Router.DELETE("/quotes/{id}", handlers.HandleQuoteDelete(app))
		se.Router.GET("/quotes/{id}/export/{format}", handlers.HandleQuoteExport(app, exportOpts))

		// ── Calculator & variables ───────────────────────────────
		se.Router.GET("/quotes/{id}/calculator", handlers.HandleCalculatorGet(app))
		se.Router.PUT("/quotes/{id}/calculator", handlers.HandleCalculatorPut(app, slopePolicy))
		se.Router.POST("/quotes/{id}/calculator/edits", handlers.HandleCalculatorEdit(app, slopePolicy))
		se.Router.GET("/quotes/{id}/variables", handlers.HandleVariables(app))
		se.Router.GET("/quotes/{id}/variables/suggest", handlers.HandleVariableSuggest(app))
		se.Router.POST("/formula/classify", handlers.HandleFormulaClassify())

		// ── Lots, sections & lines ───────────────────────────────
		se.Router.POST("/quotes/{id}/lots", handlers.HandleLotCreate(app))
		se.Router.DELETE("/lots/{id}", handlers.HandleLotDelete(app))
		se.Router.GET("/lots/{id}/lines", handlers.HandleLineList(app))
		se.Router.POST("/lots/{id}/sections", handlers.HandleSectionCreate(app))
		se.Router.DELETE("/sections/{id}", handlers.HandleSectionDelete(app))
		se.Router.POST("/sections/{id}/lines", handlers.HandleLineCreate(app))
		se.Router.POST("/sections/{id}/import", handlers.HandleLineImport(app))
		se.Router.PATCH("/lines/{id}", handlers.HandleLineUpdate(app))
		se.Router.PATCH("/lines/{id}/quantity", handlers.HandleLineQuantity(app))
		se.Router.DELETE("/lines/{id}", handlers.HandleLineDelete(app))

		// ── Unit-price database ──────────────────────────────────
		se.Router.GET("/price-items", handlers.HandlePriceItemList(app))
		se.Router.POST("/price-items", handlers.HandlePriceItemCreate(app))
		se.Router.POST("/price-items/import", handlers.HandlePriceItemImport(app))
		se.Router.PATCH("/price-items/{id}", handlers.HandlePriceItemUpdate(app))
		se.Router.DELETE("/price-items/{id}", handlers.HandlePriceItemDelete(app))

		// Redirect home to projects list
		se.Router.GET("/{$}", func(e *core.RequestEvent) error {
			return e.Redirect(http.StatusFound, "/projects")
		})

		return se.Next()
	})

	if err := app.Start(); err != nil {
		zap.L().Fatal("server stopped", zap.Error(err))
	}
}
