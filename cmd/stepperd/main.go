package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/nikitakuklev/stepperd/internal/api"
	"github.com/nikitakuklev/stepperd/internal/config"
	"github.com/nikitakuklev/stepperd/internal/hal"
	applog "github.com/nikitakuklev/stepperd/internal/logger"
	"github.com/nikitakuklev/stepperd/internal/metrics"
	"github.com/nikitakuklev/stepperd/internal/websocket"
	"github.com/nikitakuklev/stepperd/pkg/motion"
)

var Version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Printf("║       stepperd v%-22s║\n", Version)
	fmt.Println("║   bipolar stepper motion controller    ║")
	fmt.Println("╚═══════════════════════════════════════╝")

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: malformed document: %v\n", err)
		os.Exit(4)
	}
	cfg.CheckCompatibility()

	if err := applog.Init(applog.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		LogDir:     "./logs",
		MaxSizeMB:  50,
		MaxBackups: 5,
		MaxAgeDays: 7,
		Compress:   true,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer applog.Sync()

	halInstance := initHAL()
	hal.SetGlobalHAL(halInstance)

	global := motion.NewGlobal(halInstance)
	registry := motion.NewRegistry()

	names, descriptors := cfg.Descriptors()
	// Motors are instantiated in ascending uuid order.
	sort.SliceStable(names, func(i, j int) bool {
		return descriptors[names[i]].UUID < descriptors[names[j]].UUID
	})
	for _, name := range names {
		d := descriptors[name]
		m, err := motion.NewMotor(d, global)
		if err != nil {
			applog.Error("motor construction failed", zap.String("short_name", name), zap.Error(err))
			os.Exit(4)
		}
		if err := registry.Register(m); err != nil {
			applog.Error("motor registration failed", zap.String("short_name", name), zap.Error(err))
			os.Exit(4)
		}
		applog.Info("motor registered", zap.String("short_name", name), zap.String("uuid", d.UUID))
	}

	wsHub := websocket.NewHub()
	go wsHub.Run()
	applog.SetBroadcaster(func(level, message, source string, fields map[string]interface{}) {
		wsHub.Broadcast(websocket.MessageTypeLog, map[string]interface{}{
			"level":   level,
			"message": message,
			"source":  source,
			"fields":  fields,
		})
	})

	m := metrics.NewMetrics()
	service := api.NewService(registry, global, halInstance, wsHub, m)
	handler := api.NewHandler(service)

	app := fiber.New(fiber.Config{
		AppName: "stepperd v" + Version,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(metrics.Middleware(m))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "stepperd motion controller",
			"version": Version,
			"status":  "running",
			"motors":  registry.Count(),
		})
	})

	handler.SetupRoutes(app)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		applog.Info("signal received, shutting down")
		service.Shutdown()
		_ = app.Shutdown()
	}()

	applog.Info("server starting",
		zap.String("addr", addr),
		zap.Int("motors", registry.Count()),
	)

	if err := app.Listen(addr); err != nil {
		applog.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
