package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"

	"ticker-plant/config"
	"ticker-plant/infrastructure/logger"
	"ticker-plant/metrics"
	"ticker-plant/sink"
	"ticker-plant/source"
)

const (
	exitOK      = 0
	exitUsage   = 1 // 未知参数
	exitInvalid = 2 // 源或记录端取值非法
	exitRuntime = 3
)

// sinkFlags 可重复的 -sink type:path[:trades|quotes]。invalid 记录是否出现过非法取值。
type sinkFlags struct {
	list    []config.SinkConfig
	invalid bool
}

func (s *sinkFlags) String() string {
	parts := make([]string, 0, len(s.list))
	for _, sc := range s.list {
		parts = append(parts, sc.Type+":"+sc.Path)
	}
	return strings.Join(parts, ",")
}

func (s *sinkFlags) Set(v string) error {
	sc, err := config.ParseSink(v)
	if err != nil {
		s.invalid = true
		return err
	}
	s.list = append(s.list, sc)
	return nil
}

type options struct {
	configPath  string
	source      string
	sinks       sinkFlags
	metricsAddr string
	logLevel    string
	progress    int64
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (options, int) {
	var opts options
	fs := flag.NewFlagSet("tickerplant", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "YAML 配置文件，留空则使用默认配置")
	fs.StringVar(&opts.source, "source", "", "行情源 type:path（"+typeList()+"），也可作为位置参数")
	fs.Var(&opts.sinks, "sink", "记录端 type:path[:trades|quotes]，可重复（flat, ldb, log, nats, influx）")
	fs.StringVar(&opts.metricsAddr, "metricsAddr", "", "Prometheus metrics 监听地址，留空则关闭")
	fs.StringVar(&opts.logLevel, "logLevel", "", "日志级别 debug/info/warn/error")
	fs.Int64Var(&opts.progress, "progress", -1, "每 N 个 tick 打印进度，0 关闭")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: tickerplant [flags] [type:path]\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, exitOK
		}
		if opts.sinks.invalid {
			return opts, exitInvalid
		}
		return opts, exitUsage
	}
	// -1 表示未指定
	if opts.progress < -1 {
		fmt.Fprintf(stderr, "invalid -progress %d: must be >= 0\n", opts.progress)
		return opts, exitInvalid
	}
	switch fs.NArg() {
	case 0:
	case 1:
		if opts.source != "" {
			fmt.Fprintln(stderr, "source given twice")
			return opts, exitUsage
		}
		opts.source = fs.Arg(0)
	default:
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args()[1:])
		return opts, exitUsage
	}
	return opts, -1
}

func typeList() string {
	types := source.Types()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// buildConfig 合并配置文件、环境变量与命令行参数，命令行优先。
func buildConfig(opts options) (config.AppConfig, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.LoadWithEnvOverrides(opts.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	} else {
		config.ApplyEnv(&cfg)
	}
	if opts.source != "" {
		cfg.Source = opts.source
	}
	cfg.Sinks = append(cfg.Sinks, opts.sinks.list...)
	if opts.metricsAddr != "" {
		cfg.MetricsAddr = opts.metricsAddr
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.progress >= 0 {
		cfg.Progress.Every = uint64(opts.progress)
	}
	return cfg, config.Validate(cfg)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	opts, code := parseFlags(args, stderr)
	if code >= 0 {
		return code
	}
	cfg, err := buildConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return exitInvalid
	}
	path, err := source.ParsePath(cfg.Source)
	if err != nil {
		fmt.Fprintf(stderr, "invalid source: %v\n", err)
		return exitInvalid
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(stderr, "init logger: %v\n", err)
		return exitInvalid
	}
	defer log.Close()

	if cfg.MetricsAddr != "" {
		metrics.StartMetricsServer(cfg.MetricsAddr)
		log.Info("metrics server started", zap.String("addr", cfg.MetricsAddr))
	}

	subscribe := make([][]byte, 0, len(cfg.Feed.Subscribe))
	for _, s := range cfg.Feed.Subscribe {
		subscribe = append(subscribe, []byte(s))
	}
	src, err := source.New(path, source.Options{
		Logger:    log.Logger,
		PongWait:  time.Duration(cfg.Feed.PongWaitMs) * time.Millisecond,
		ReadLimit: cfg.Feed.ReadLimit,
		Subscribe: subscribe,
	})
	if err != nil {
		log.Error("build source failed", zap.Error(err))
		return exitInvalid
	}

	sinks, err := sink.BuildAll(cfg, src.Name(), log)
	if err != nil {
		log.Error("build sinks failed", zap.Error(err))
		return exitRuntime
	}
	defer sink.CloseAll(sinks, log)

	progress := sink.NewProgress(log, src.Name(), cfg.Progress.Every)
	src.AddHandler(progress)
	for _, s := range sinks {
		src.AddHandler(s)
	}

	if opts.configPath != "" {
		w, err := config.NewWatcher(opts.configPath, 2*time.Second, log.Logger)
		if err != nil {
			log.Warn("config watcher disabled", zap.Error(err))
		} else {
			w.OnUpdate(func(next config.AppConfig) {
				if err := log.SetLevel(next.Log.Level); err != nil {
					log.Warn("reload log level rejected", zap.Error(err))
				}
				progress.SetEvery(next.Progress.Every)
				_ = log.LogEvent("config_reload", map[string]interface{}{
					"path":     opts.configPath,
					"logLevel": next.Log.Level,
					"progress": next.Progress.Every,
				})
			})
			if err := w.Start(ctx); err != nil {
				log.Warn("config watcher disabled", zap.Error(err))
			}
			defer w.Stop()
		}
	}

	log.Info("ticker plant starting",
		zap.String("source", path.String()),
		zap.Int("sinks", len(sinks)),
	)
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Debug("sd_notify ready failed", zap.Error(err))
	}

	runErr := src.Run(ctx)

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	st := src.Stats()
	_ = log.LogEvent("source_stopped", map[string]interface{}{
		"source":     src.Name(),
		"read":       st.Read,
		"skipped":    st.Skipped,
		"dispatched": st.Dispatched,
	})
	return exitCode(runErr, path.Type, log)
}

// exitCode 回放源的读失败属于不完整完成，已分发的 tick 有效，按成功退出。
func exitCode(err error, typ source.Type, log *logger.Logger) int {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return exitOK
	case errors.Is(err, source.ErrMediumRead) && !isLive(typ):
		log.Warn("replay ended early", zap.Error(err))
		return exitOK
	default:
		log.LogError(err, map[string]interface{}{"source": string(typ)})
		return exitRuntime
	}
}

func isLive(t source.Type) bool {
	return t == source.TypeWSMtGox || t == source.TypeWSBinance
}
