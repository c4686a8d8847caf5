package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"gohan/storage/contexts"
	gam "gohan/storage/middleware"
	"gohan/storage/models"
	"gohan/storage/mvc/annotation"
	"gohan/storage/mvc/partitions"
	serviceInfoMvc "gohan/storage/mvc/service-info"
	variantsMvc "gohan/storage/mvc/variants"
	"gohan/storage/repositories"
	"gohan/storage/services"
	annotationService "gohan/storage/services/annotation"
	partitionsService "gohan/storage/services/partitions"
	"gohan/storage/services/sanitation"
	"gohan/storage/utils"

	es7 "github.com/elastic/go-elasticsearch/v7"
	"github.com/kelseyhightower/envconfig"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
)

func main() {
	// Gather environment variables
	var cfg models.Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	logger := utils.NewLogger("gohan", cfg.Debug)

	logger.Infof("Using : \n"+
		"\tDebug : %t \n"+
		"\tMetadata Backend : %s \n"+
		"\tMetadata Db Name : %s \n"+
		"\tIngestion Sink : %s \n"+
		"\tIngestion Workers : %d \n"+
		"\tIngestion Batch Size : %d \n"+
		"\tElasticsearch Url : %s \n"+
		"\tElasticsearch Username : %s\n"+
		"Running on Port : %s\n",
		cfg.Debug,
		cfg.Metadata.Backend, cfg.Metadata.DbName,
		cfg.Ingestion.Sink, cfg.Ingestion.WorkerCount, cfg.Ingestion.BatchSize,
		cfg.Elasticsearch.Url, cfg.Elasticsearch.Username,
		cfg.Api.Port)

	ctx := context.Background()

	// Service Connections:
	// -- Elasticsearch
	var es *es7.Client
	if cfg.Metadata.Backend == repositories.BackendElasticsearch || cfg.Ingestion.Sink == repositories.BackendElasticsearch {
		es, err = utils.CreateEsConnection(&cfg, logger)
		if err != nil {
			logger.Fatal(err)
		}
	}

	partitionStore, annotationStore, err := repositories.NewMetadataStores(ctx, &cfg, es, logger)
	if err != nil {
		logger.Fatal(err)
	}
	sink, err := repositories.NewMutationSink(ctx, &cfg, es, logger)
	if err != nil {
		logger.Fatal(err)
	}

	// Service Singletons
	pz := partitionsService.NewPartitionsService(&cfg, partitionStore, utils.NewLogger("partitions", cfg.Debug))
	az := annotationService.NewAnnotationService(&cfg, annotationStore, utils.NewLogger("annotation", cfg.Debug))
	iz := services.NewIngestionService(&cfg, sink, nil, utils.NewLogger("ingestion", cfg.Debug))
	sz := sanitation.NewSanitationService(&cfg, partitionStore, pz, utils.NewLogger("sanitation", cfg.Debug))
	if err := sz.Init(); err != nil {
		logger.Fatal(err)
	}

	// Instantiate Server
	e := echo.New()
	e.Logger = logger

	// Configure Server
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.PUT, echo.POST, echo.DELETE},
	}))

	// -- Override handlers with "custom Gohan" context
	//		to be able to provide variables and global singletons
	e.Use(func(h echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &contexts.GohanContext{
				Context:           c,
				Es7Client:         es,
				Config:            &cfg,
				PartitionsService: pz,
				AnnotationService: az,
				IngestionService:  iz,
			}
			return h(cc)
		}
	})

	// Begin MVC Routes
	// -- Root
	e.GET("/", serviceInfoMvc.GetWelcome)

	// -- Service Info
	e.GET("/service-info", serviceInfoMvc.GetServiceInfo)

	// -- Partitions
	e.POST("/partitions/:project", partitions.RegisterPartition,
		// middleware
		gam.MandateProjectPathParam)
	e.GET("/partitions/:project", partitions.GetPartitions,
		// middleware
		gam.MandateProjectPathParam)
	e.GET("/partitions/:project/lookup", partitions.LookupPartition,
		// middleware
		gam.MandateProjectPathParam)
	e.GET("/partitions/:project/route", partitions.RoutePartition,
		// middleware
		gam.MandateProjectPathParam)

	// -- Annotation
	e.GET("/annotation/:project", annotation.GetAnnotationMetadata,
		// middleware
		gam.MandateProjectPathParam)
	e.POST("/annotation/:project/check", annotation.CheckCurrentAnnotation,
		// middleware
		gam.MandateProjectPathParam,
		gam.ValidateOptionalOverwriteParam)
	e.POST("/annotation/:project/commit", annotation.CommitAnnotation,
		// middleware
		gam.MandateProjectPathParam,
		gam.ValidateOptionalOverwriteParam)
	e.POST("/annotation/:project/snapshots/:name", annotation.RegisterSnapshot,
		// middleware
		gam.MandateProjectPathParam)
	e.DELETE("/annotation/:project/snapshots/:name", annotation.RemoveSnapshot,
		// middleware
		gam.MandateProjectPathParam)

	// -- Variants
	e.POST("/variants/ingestion/run", variantsMvc.VariantsIngest)
	e.GET("/variants/ingestion/requests", variantsMvc.GetAllVariantIngestionRequests)
	e.GET("/variants/ingestion/requests/:id", variantsMvc.GetVariantIngestionRequest)
	e.GET("/variants/ingestion/stats", variantsMvc.VariantsIngestionStats)

	// Run
	go func() {
		if err := e.Start(":" + cfg.Api.Port); err != nil {
			e.Logger.Info("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	sz.Stop()
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Error(err)
	}
	if err := sink.Close(shutdownCtx); err != nil {
		e.Logger.Error(err)
	}
}
