package main

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/gunnermanx/positionrelay/config"
	"github.com/gunnermanx/positionrelay/server"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   "logs/server.log",
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     7, // days
	}))

	conf, err := config.LoadServerConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %s", err.Error())
	}
	if conf.DebugMode {
		logger.SetLevel(logrus.DebugLevel)
	}

	ps := server.New(conf, logger)
	if err := ps.Start(); err != nil {
		logger.Fatalf("server terminated: %s", err.Error())
	}
}
