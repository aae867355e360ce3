package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"waggle/api/handlers"
	"waggle/api/middleware"
	"waggle/api/routes"
	"waggle/config"
	"waggle/db"
	"waggle/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	if err := config.LoadConfig(configPath); err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	log.Println("Starting server...")

	if err := db.ConnectDB(); err != nil {
		panic("Failed to connect to the database: " + err.Error())
	}
	if err := db.SeedParks(db.ORM); err != nil {
		log.Printf("Park seeding failed: %v", err)
	}

	// Redis is advisory: unread counts recount from the database when the
	// cache is unavailable.
	if err := services.InitRedis(); err != nil {
		log.Printf("Redis unavailable, unread counters fall back to recounts: %v", err)
	}
	defer services.CloseRedis()

	handlers.Setup(config.AppConfig.Push.GatewayURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := services.InitRabbitMQ(); err != nil {
		log.Printf("RabbitMQ unavailable, insert events will not fan out: %v", err)
	} else {
		defer services.CloseRabbitMQ()
		if err := services.StartFanoutConsumer(ctx, "fanout_worker", handlers.Fanout()); err != nil {
			log.Printf("Failed to start fan-out consumer: %v", err)
		}
	}

	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.PrometheusMiddleware("waggle-api"))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	routes.PublicApi(router)
	routes.AuthenticatedApi(router, false)

	addr := fmt.Sprintf("%s:%d", config.AppConfig.Backend.Host, config.AppConfig.Backend.Port)
	if addr == ":0" {
		addr = ":8080"
	}
	if err := router.Run(addr); err != nil {
		panic(err)
	}
}
