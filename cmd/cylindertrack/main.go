package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"cylindertrack/internal/config"
	"cylindertrack/internal/logging"
	"cylindertrack/internal/server"
)

var (
	port        = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode     = flag.Bool("dev", false, "开发模式")
	dataDir     = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
	storeName   = flag.String("store", "", "存储驱动 sqlite|file|memory|mongo (覆盖配置文件)")
	writeConfig = flag.Bool("writeConfig", false, "将生效配置写入可执行文件同目录的 config.toml 后退出")
)

func main() {
	flag.Parse()

	fmt.Println("==========================================")
	fmt.Println("  CylinderTrack - Gas cylinder delivery ledger")
	fmt.Println("==========================================")

	// 加载配置；配置文件损坏或环境变量非法时直接退出
	cfg, info, err := config.LoadConfigWithInfo()
	if err != nil {
		logging.New("info", "text", os.Stderr).
			WithError(err).
			WithField("path", info.Path).
			Fatal("load configuration")
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}
	if *storeName != "" {
		cfg.Storage.Driver = *storeName
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	if *writeConfig {
		path, err := config.SaveConfig(cfg)
		if err != nil {
			logger.WithError(err).Fatal("write configuration")
		}
		logger.WithField("path", path).Info("configuration written")
		return
	}

	// 创建服务器
	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("server init failed")
	}
	logger.WithFields(map[string]any{
		"dataDir": config.ResolveDataDir(cfg),
		"store":   cfg.Storage.Driver,
	}).Info("server ready")

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	// 启动服务器
	go func() {
		logger.Infof("listening on http://localhost:%d", cfg.Server.Port)
		if err := srv.Run(addr); err != nil {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	fmt.Println("\n按 Ctrl+C 停止服务...")

	// 等待信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("graceful shutdown failed")
	}
	if err := srv.SaveNow(); err != nil {
		logger.WithError(err).Error("backup before exit failed")
	}
	if err := srv.Close(); err != nil {
		logger.WithError(err).Warn("close store")
	}
}
