package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/robfig/cron"
	"go.uber.org/zap"

	"PricingIntelligence/src/config"
	"PricingIntelligence/src/datapush"
	"PricingIntelligence/src/datasource/email"
	"PricingIntelligence/src/datasource/file"
	"PricingIntelligence/src/metrics"
	"PricingIntelligence/src/processor"
	"PricingIntelligence/src/report"
	"PricingIntelligence/src/storage"
	"PricingIntelligence/src/utils"
)

// app carries everything a pipeline run needs. Runs are serialised.
type app struct {
	cfg       *config.Config
	mcfg      *config.ModelConfig
	logger    *storage.Logger
	collector *metrics.Collector
	pusher    *datapush.DingTalkPusher
	saver     *email.XLSXAttachmentHandler
	mailer    func(cfg *config.Config, attachmentPath string, lines []string) error
	out       io.Writer
	mu        sync.Mutex
}

func main() {
	configDir := flag.String("config", "./config", "folder holding config.json and modelconfig.json")
	input := flag.String("input", "", "fare file to process, overrides input_file")
	watch := flag.Bool("watch", false, "rerun whenever a fare file in data_dir changes")
	mailMode := flag.Bool("mail", false, "pull the newest fare attachment from the mailbox")
	flag.Parse()

	cfg, mcfg, err := config.LoadConfig(*configDir, "config.json", "modelconfig.json")
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}
	if *input != "" {
		cfg.InputFile = *input
	}

	logger, err := storage.NewLogger(cfg.LogName)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Close()
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		logger.Warning("keeping default log level", zap.Error(err))
	}

	a := &app{
		cfg:       cfg,
		mcfg:      mcfg,
		logger:    logger,
		collector: metrics.NewCollector(),
		pusher:    datapush.NewDingTalkPusher(cfg, logger),
		saver:     email.NewXLSXAttachmentHandler(cfg.Email.TargetSubject, cfg.DataDir, logger),
		mailer:    email.SendReport,
		out:       os.Stdout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	file.SetupSignalHandler(cancel)

	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: a.routes()}
		go func() {
			logger.Info("serving /metrics and /logs", zap.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server stopped", zap.Error(err))
			}
		}()
		defer srv.Shutdown(context.Background())
	}

	job := func() {
		if *mailMode {
			a.checkMail(ctx)
			return
		}
		path, err := a.inputPath()
		if err != nil {
			logger.Error("no input file", zap.Error(err))
			return
		}
		if _, err := a.processFile(ctx, path); err != nil {
			logger.Error("run failed", zap.String("file", path), zap.Error(err))
		}
	}

	schedule := cfg.Schedule
	if schedule == "" && *mailMode && cfg.Email.CheckInterval > 0 {
		schedule = "@every " + time.Duration(cfg.Email.CheckInterval).String()
	}

	if schedule == "" && !*watch {
		job()
		return
	}

	if schedule != "" {
		c := cron.New()
		if err := c.AddFunc(schedule, job); err != nil {
			logger.Error("invalid schedule", zap.String("schedule", schedule), zap.Error(err))
			return
		}
		c.Start()
		defer c.Stop()
		logger.Info("scheduled runs started", zap.String("schedule", schedule))
	}

	if *watch {
		if err := file.EnsureDir(cfg.DataDir); err != nil {
			logger.Fatal("data dir", zap.Error(err))
		}
		monitor, err := file.NewFileMonitor(cfg.DataDir)
		if err != nil {
			logger.Fatal("file monitor", zap.Error(err))
		}
		defer monitor.Close()
		go func() {
			err := monitor.Watch(ctx, func(path string) {
				if _, err := a.processFile(ctx, path); err != nil {
					logger.Error("run failed", zap.String("file", path), zap.Error(err))
				}
			})
			if err != nil {
				logger.Error("file monitoring error", zap.Error(err))
			}
		}()
		logger.Info("watching for fare files", zap.String("dir", cfg.DataDir))
	}

	<-ctx.Done()
	logger.Info("shutting down")
}

// inputPath is input_file, or the newest fare file in data_dir.
func (a *app) inputPath() (string, error) {
	if a.cfg.InputFile != "" {
		return a.cfg.InputFile, nil
	}
	latest, err := file.FindLatest(a.cfg.DataDir, "")
	if err != nil {
		return "", err
	}
	return latest.FullPath, nil
}

func (a *app) processFile(ctx context.Context, path string) (*processor.RunResult, error) {
	raw, err := file.Load(path, a.cfg.SheetName, a.cfg.HeaderRow)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	a.logger.Info("fare table loaded", zap.String("file", path), zap.Int("rows", raw.Nrow()))
	return a.process(ctx, raw, filepath.Base(path))
}

// process runs the pipeline, prints the tables, writes the workbooks and
// delivers the summary.
func (a *app) process(ctx context.Context, raw dataframe.DataFrame, source string) (*processor.RunResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	defer a.logger.CheckRotate(a.cfg.LogMaxSize)

	result, err := processor.Run(raw, processor.OptionsFromConfig(a.mcfg), a.logger, a.collector)
	if err != nil {
		return nil, err
	}

	display := a.mcfg.Display
	report.PrintOverview(a.out, processor.Summarize(result.Features), display)
	report.PrintAnalysis(a.out, result.Analysis, display)
	report.PrintModel(a.out, result.Model, display)

	outDir := a.cfg.OutputDir
	if outDir == "" {
		outDir = "."
	}
	if err := file.EnsureDir(outDir); err != nil {
		return result, err
	}
	stamp := result.StartedAt.Format("20060102_150405") + "_" + result.RunID[:8]
	featurePath := filepath.Join(outDir, "features_"+stamp+".xlsx")
	reportPath := filepath.Join(outDir, "report_"+stamp+".xlsx")

	if err := utils.SaveToExcel(result.Features, featurePath); err != nil {
		return result, fmt.Errorf("feature table: %w", err)
	}
	if err := report.WriteWorkbook(reportPath, result, display); err != nil {
		return result, fmt.Errorf("report: %w", err)
	}
	a.logger.Info("report written",
		zap.String("run_id", result.RunID),
		zap.String("features", featurePath),
		zap.String("report", reportPath))

	lines := report.ExecutiveSummary(result)
	for _, l := range lines {
		fmt.Fprintln(a.out, "- "+l)
	}

	if len(a.cfg.SendEmail.Recipients) > 0 && a.mailer != nil {
		if err := a.mailer(a.cfg, reportPath, lines); err != nil {
			a.logger.Error("report mail failed", zap.Error(err))
		}
	}
	if err := a.pusher.Push(ctx, "Fare drivers: "+source, lines); err != nil {
		a.logger.Error("report push failed", zap.Error(err))
	}
	return result, nil
}

// checkMail pulls the newest fare mail, keeps its attachment in data_dir
// and runs the pipeline on it.
func (a *app) checkMail(ctx context.Context) {
	client := email.NewEmailClient(a.cfg, a.logger)
	msg, err := email.CheckAndProcessEmails(client, a.cfg.Email.TargetSubject, a.logger)
	if err != nil {
		a.logger.Error("mail check failed", zap.Error(err))
		return
	}
	if msg == nil {
		return
	}
	a.runMail(ctx, msg)
}

func (a *app) runMail(ctx context.Context, msg *email.Email) {
	if err := a.saver.Handle(msg); err != nil {
		a.logger.Error("save attachment failed", zap.Uint32("uid", msg.UID), zap.Error(err))
	}

	var dfw email.DataFrameWrapper
	if err := dfw.LoadAttachment(msg, a.cfg.SheetName, a.cfg.HeaderRow); err != nil {
		a.logger.Error("attachment not loaded", zap.Uint32("uid", msg.UID), zap.Error(err))
		return
	}
	if _, err := a.process(ctx, dfw.GetDF(), dfw.Source()); err != nil {
		a.logger.Error("run failed", zap.String("source", dfw.Source()), zap.Error(err))
	}
}

func (a *app) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.collector.Handler())
	mux.HandleFunc("/logs", logsHandler(a.logger))
	return mux
}

// logsHandler streams log lines to the client until it disconnects.
func logsHandler(logger *storage.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		logChan := logger.Subscribe()
		defer logger.Unsubscribe(logChan)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		for {
			select {
			case msg, ok := <-logChan:
				if !ok {
					return
				}
				if _, err := fmt.Fprint(w, msg); err != nil {
					return
				}
				if f, ok := w.(http.Flusher); ok {
					f.Flush()
				}
			case <-r.Context().Done():
				return
			}
		}
	}
}
