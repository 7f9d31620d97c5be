package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New 按配置创建 logger；format 为 json 或 text
func New(level, format string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	if out == nil {
		out = os.Stdout
	}
	logger.SetOutput(out)

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	return logger
}

// Discard 丢弃所有输出（测试用）
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// StorageFallback 记录存储失败并已回退到默认值
func StorageFallback(logger *logrus.Logger, module, funcName, key string, err error) {
	logger.WithFields(logrus.Fields{
		"module":   module,
		"funcName": funcName,
		"key":      key,
	}).WithError(err).Warn("storage failure, falling back to default")
}
