package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"

	"github.com/embarkmaps/regiond"
)

var (
	regionPath = flag.String("region", "", "region file path")
	port       = flag.Int("port", 0, "listen port (0 means any available)")
	tileKey    = flag.String("tile-key", "", "map tile provider credential")
	tileProxy  = flag.String("tile-proxy", "", "tile forwarding endpoint URL (empty disables tile serving)")
	logLevel   = flag.String("log-level", "info", "log level [debug, info, warn, error, fatal, panic]")

	benchmark = flag.Bool("benchmark", false, "benchmark mode")
	pprofAddr = flag.String("pprof", "localhost:52112", "debug listening address for pprof and metrics (empty disables)")

	LOG_LEVELS = map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"info":  logrus.InfoLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"fatal": logrus.FatalLevel,
		"panic": logrus.PanicLevel,
	}
)

var log = logrus.WithField("module", "main")

func main() {
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	flag.Parse()
	if level, ok := LOG_LEVELS[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		logrus.Fatalf("invalid log level: %s", *logLevel)
	}
	if *regionPath == "" {
		logrus.Fatal("missing -region")
	}

	srv := regiond.New(regiond.Config{
		RegionPath:     *regionPath,
		Port:           *port,
		TileCredential: *tileKey,
		TileProxyURL:   *tileProxy,
	})

	if *pprofAddr != "" {
		startHTTPDebugger(*pprofAddr)
	}

	boundPort, err := srv.Start()
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}

	if *benchmark {
		runBenchmark(boundPort)
		srv.Stop()
		return
	}

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	<-signalCh
	log.Info("stopping...")
	go func() {
		<-signalCh
		os.Exit(1) // second signal forces exit
	}()
	srv.Stop()
	log.Info("regiond closes")
}
