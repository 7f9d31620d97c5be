package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	v1 "cylindertrack/internal/api/v1"
	"cylindertrack/internal/config"
	"cylindertrack/internal/idgen"
	"cylindertrack/internal/service/ledger"
	"cylindertrack/internal/service/settings"
	"cylindertrack/internal/service/staff"
	"cylindertrack/internal/store"
)

// Server HTTP服务器
type Server struct {
	cfg     *config.AppConfig
	logger  *logrus.Logger
	dataDir string
	router  *gin.Engine
	kv      store.KV
	v1      *v1.Handler
	http    *http.Server
}

// NewServer 创建服务器：打开存储、组装服务并注册路由
func NewServer(cfg *config.AppConfig, logger *logrus.Logger) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("prepare data dir: %w", err)
	}

	kv, err := openStore(cfg, dataDir)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Driver, err)
	}

	ids, err := idgen.New(cfg.Business.NodeID)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	loc, err := cfg.Business.Location()
	if err != nil {
		logger.WithError(err).Warn("unknown timezone, using local time")
	}

	prices := settings.NewManager(kv, logger, decimal.NewFromFloat(cfg.Business.DefaultCylinderPrice))
	registry := staff.NewRegistry(kv, logger)
	book := ledger.New(kv, prices, ids, logger, ledger.Options{
		KeyPrefix: cfg.Business.DeliveryKeyPrefix,
		Location:  loc,
	})

	// 启动时预热：初始化默认单价、加载员工与今天的记录
	prices.Load()
	registry.Load()
	if _, err := book.LoadDeliveriesByDate(book.Today()); err != nil {
		logger.WithError(err).Warn("load today's deliveries")
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		dataDir: dataDir,
		router:  gin.New(),
		kv:      kv,
		v1: v1.NewHandler(v1.Dependencies{
			Settings:  prices,
			Staff:     registry,
			Ledger:    book,
			Logger:    logger,
			Driver:    cfg.Storage.Driver,
			ExportDir: filepath.Join(dataDir, "exports"),
		}),
	}

	s.setupRoutes()
	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// openStore 按配置打开键值存储
func openStore(cfg *config.AppConfig, dataDir string) (store.KV, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return store.NewMemoryStore(), nil
	case config.DriverFile:
		return store.NewFileStore(filepath.Join(dataDir, "kv"))
	case config.DriverMongo:
		return store.NewMongoStore(store.MongoOptions{
			URI:        cfg.Storage.MongoURI,
			Database:   cfg.Storage.MongoDatabase,
			Collection: cfg.Storage.MongoCollection,
			Timeout:    cfg.Storage.Timeout(),
		})
	case config.DriverSQLite, "":
		return store.New(filepath.Join(dataDir, cfg.Storage.SQLiteFile))
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(accessLog(s.logger))

	// CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	s.router.Use(cors.New(corsConfig))

	// V1 API 路由
	api := s.router.Group("/api")
	{
		s.v1.RegisterRoutes(api)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, v1.ErrorResponse{Error: "not found"})
	})
}

// Handler 返回路由（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器，直到 Shutdown 被调用
func (s *Server) Run(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 停止接收请求，等待进行中的请求结束
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// SaveNow 开启 auto_backup 时把全部键导出到 backups/
func (s *Server) SaveNow() error {
	if !s.cfg.Data.AutoBackup {
		return nil
	}
	path, err := store.WriteBackup(s.kv, filepath.Join(s.dataDir, "backups"), time.Now())
	if err != nil {
		return err
	}
	s.logger.WithField("path", path).Info("backup written")
	return nil
}

// Close 关闭存储
func (s *Server) Close() error {
	return s.kv.Close()
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() store.KV {
	return s.kv
}
