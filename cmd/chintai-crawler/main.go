package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"chintai-crawler/pkg/config"
	"chintai-crawler/pkg/crawl"
	"chintai-crawler/pkg/export"
	"chintai-crawler/pkg/fetch"
	"chintai-crawler/pkg/metrics"
	"chintai-crawler/pkg/polite"
	"chintai-crawler/pkg/stations"
)

func main() {
	// --- Early Initialization & Flags ---
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel) // Default level

	configFileFlag := flag.String("config", "config.yaml", "Path to YAML config file")
	stationsFlag := flag.String("stations", "", "Comma-separated station names (e.g. 'shinjuku,shibuya')")
	yamanoteFlag := flag.Bool("yamanote", false, "Crawl every Yamanote line station")
	listStationsFlag := flag.Bool("list-stations", false, "Print supported station names and exit")
	countFlag := flag.Int("count", 0, "Total number of rooms to collect across all stations (0 = config default)")
	prefectureFlag := flag.String("prefecture", "", "Prefecture override (tokyo, kanagawa, saitama, chiba)")
	politeFlag := flag.Bool("polite", false, "Use the extra-conservative pacing preset")
	outputDirFlag := flag.String("output", "", "Output directory override for JSON/CSV exports")
	metricsAddrFlag := flag.String("metrics", "", "Prometheus /metrics listen address (overrides config, empty = config value)")
	logLevelFlag := flag.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	flag.Parse()

	// --- Logger Configuration ---
	level, err := logrus.ParseLevel(*logLevelFlag)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", *logLevelFlag, err)
	} else {
		log.SetLevel(level)
	}

	if *listStationsFlag {
		printStations()
		os.Exit(0)
	}

	// --- Load Application Configuration ---
	appCfg, err := loadConfig(*configFileFlag, log)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// --- Apply Flag Overrides ---
	if *politeFlag {
		log.Info("Polite mode enabled: using conservative pacing preset")
		appCfg.RateLimit = config.PoliteRateLimits()
	}
	if *prefectureFlag != "" {
		appCfg.Crawl.Prefecture = *prefectureFlag
	}
	if *outputDirFlag != "" {
		appCfg.Crawl.OutputDir = *outputDirFlag
	}
	if *metricsAddrFlag != "" {
		appCfg.MetricsAddr = *metricsAddrFlag
	}

	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logAppConfig(appCfg, log)

	// --- Select Stations ---
	stationList, err := selectStations(*stationsFlag, *yamanoteFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}

	quota := *countFlag
	if quota <= 0 {
		quota = appCfg.Crawl.DefaultQuota
	}

	// --- Metrics Endpoint (Optional) ---
	if appCfg.MetricsAddr != "" {
		go metrics.Serve(appCfg.MetricsAddr, logrus.NewEntry(log))
	}

	// --- Global Context & Signal Handling ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		sig := <-sigChan
		log.Warnf("Received signal: %v. Finishing current request and exporting partial results...", sig)
		cancel()
		select {
		case sig = <-sigChan:
			log.Warnf("Received second signal: %v. Forcing exit.", sig)
			os.Exit(1)
		case <-time.After(60 * time.Second):
			log.Warn("Graceful shutdown period exceeded after signal. Forcing exit.")
			os.Exit(1)
		}
	}()

	// --- Initialize Components ---
	log.Info("Initializing components...")
	logEntry := logrus.NewEntry(log)

	gate := polite.NewGate(appCfg.RateLimit, appCfg.Browser.UserAgents, polite.SystemClock, logEntry)

	fetcher := fetch.NewBrowserFetcher(appCfg.Browser, config.GetEffectiveHeadless(appCfg), gate.UserAgent, polite.SystemClock, logEntry)
	defer fetcher.Close()

	var robots crawl.RobotsPolicy
	if config.GetEffectiveRespectRobots(appCfg) {
		httpClient := fetch.NewClient(appCfg.HTTPClientSettings, logEntry)
		robots = fetch.NewRobotsChecker(httpClient, logEntry)
	} else {
		log.Warn("robots.txt checking disabled by configuration")
	}

	controller := crawl.NewController(appCfg.Crawl, gate, fetcher, robots, logEntry)

	// --- Run Session ---
	res, runErr := controller.Run(ctx, stationList, quota)

	// --- Export (partial results included on cancellation) ---
	base := export.DefaultBasename(stationList, time.Now())
	jsonPath := filepath.Join(appCfg.Crawl.OutputDir, base+".json")
	csvPath := filepath.Join(appCfg.Crawl.OutputDir, base+".csv")

	exportFailed := false
	if err := export.WriteJSON(res, jsonPath, logEntry); err != nil {
		log.Errorf("JSON export failed: %v", err)
		exportFailed = true
	}
	if err := export.WriteCSV(res.Records, csvPath, logEntry); err != nil {
		log.Errorf("CSV export failed: %v", err)
		exportFailed = true
	}

	if avg, ok := res.AverageRentYen(); ok {
		log.Infof("Collected %d rooms, average rent %.0f yen", len(res.Records), avg)
	} else {
		log.Infof("Collected %d rooms", len(res.Records))
	}

	// --- Exit ---
	switch {
	case exportFailed:
		os.Exit(1)
	case runErr == nil:
		log.Info("Crawl completed successfully.")
		os.Exit(0)
	case errors.Is(runErr, context.Canceled):
		log.Warn("Crawl cancelled gracefully, partial results exported.")
		os.Exit(0)
	default:
		log.Errorf("Crawl finished with error: %v", runErr)
		os.Exit(1)
	}
}

// loadConfig reads the YAML config file. A missing file at the default path
// is not an error; explicit paths must exist.
func loadConfig(path string, log *logrus.Logger) (*config.AppConfig, error) {
	var cfg config.AppConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && path == "config.yaml" {
			log.Info("No config file found, using built-in defaults")
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config file '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file '%s': %w", path, err)
	}
	log.Infof("Loaded configuration from %s", path)
	return &cfg, nil
}

// selectStations resolves the -stations / -yamanote flags into the ordered
// station list for the session.
func selectStations(csvList string, yamanote bool) ([]string, error) {
	if yamanote {
		return stations.Yamanote(), nil
	}
	if csvList == "" {
		return nil, errors.New("no stations selected: pass -stations or -yamanote (use -list-stations to see supported names)")
	}
	var out []string
	for _, s := range strings.Split(csvList, ",") {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no stations selected: -stations was empty")
	}
	return out, nil
}

func printStations() {
	names := stations.Supported()
	sort.Strings(names)
	fmt.Println("Supported stations:")
	for _, n := range names {
		marker := " "
		if stations.IsYamanote(n) {
			marker = "*"
		}
		fmt.Printf("  %s %s\n", marker, n)
	}
	fmt.Println("(* = Yamanote line, included by -yamanote)")
}

// logAppConfig logs the effective configuration after defaults and overrides.
func logAppConfig(cfg *config.AppConfig, log *logrus.Logger) {
	log.Infof("Rate Limits: MinDelay:%v, MaxDelay:%v, PageDelay:%v, StationDelay:%v",
		cfg.RateLimit.MinDelay, cfg.RateLimit.MaxDelay, cfg.RateLimit.PageDelay, cfg.RateLimit.StationDelay)
	log.Infof("Retries: Max:%d, BaseDelay:%v, Concurrency:%d",
		cfg.RateLimit.MaxRetries, cfg.RateLimit.RetryBaseDelay, cfg.RateLimit.ConcurrencyLimit)
	log.Infof("Crawl: Prefecture:%s, MaxPagesPerStation:%d, DefaultQuota:%d, OutputDir:%s, RespectRobots:%t",
		cfg.Crawl.Prefecture, cfg.Crawl.MaxPagesPerStation, cfg.Crawl.DefaultQuota,
		cfg.Crawl.OutputDir, config.GetEffectiveRespectRobots(cfg))
	log.Infof("Browser: Headless:%t, NavigationTimeout:%v, Settle:[%v,%v], UserAgents:%d",
		config.GetEffectiveHeadless(cfg), cfg.Browser.NavigationTimeout,
		cfg.Browser.SettleMinDelay, cfg.Browser.SettleMaxDelay, len(cfg.Browser.UserAgents))
}
