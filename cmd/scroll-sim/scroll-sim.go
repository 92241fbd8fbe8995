// package main implements a scroll stress tool
// it builds a synthetic compressed corpus and drives concurrent
// scrolling sessions over it, verifying every rendered doc
package main

import (
	"context"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/ozontech/seq-view/buildinfo"
	"github.com/ozontech/seq-view/chunk"
	"github.com/ozontech/seq-view/consts"
	"github.com/ozontech/seq-view/debugserver"
	"github.com/ozontech/seq-view/logger"
	"github.com/ozontech/seq-view/metric"
	"github.com/ozontech/seq-view/session"
	"github.com/ozontech/seq-view/tracing"
	"github.com/ozontech/seq-view/util"
)

const statsTickerInterval = time.Second * 2

func main() {
	logger.Info("hi, I am scroll-sim",
		zap.String("version", buildinfo.Version),
		zap.String("build_time", buildinfo.BuildTime),
	)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := os.Setenv("TZ", "UTC"); err != nil {
		logger.Fatal("can't set timezone to UTC", zap.Error(err))
	}

	kingpin.Parse()
	kingpin.Version(buildinfo.Version)

	runtime.SetMutexProfileFraction(5)

	if *flagSessions <= 0 || *flagDocs <= 0 || *flagViewSize <= 0 || *flagChunkDocs <= 0 {
		logger.Fatal("sessions, docs, view-size and chunk-docs must be positive")
	}
	if *flagSourceErrPercentage < 0 || *flagSourceErrPercentage > 100 {
		logger.Fatal("source-err-percentage must be in [0, 100]")
	}

	codec, err := chunk.ParseCodec(*flagCodec)
	if err != nil {
		logger.Fatal("bad codec", zap.Error(err))
	}

	scenario, err := loadScenario(*flagScenario)
	if err != nil {
		logger.Fatal("bad scenario", zap.Error(err))
	}

	seed := *flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var serviceReady atomic.Bool
	debugServer := debugserver.New(*flagDebugAddr, &serviceReady)
	go debugServer.Start()

	if err := tracing.Start(*flagTracingProbability); err != nil {
		logger.Error("error initializing tracing", zap.Error(err))
	}

	start := time.Now()
	corp := buildCorpus(codec, *flagZstdCompressLevel, *flagDocs, *flagChunkDocs, seed)
	logger.Info("corpus built",
		zap.Int("docs", corp.docsTotal),
		zap.Int("chunks", len(corp.chunks)),
		zap.Stringer("codec", codec),
		util.ZapUint64AsSizeStr("size", corp.sizeBytes()),
		zap.Int64("seed", seed),
		zap.Duration("took", time.Since(start)),
	)

	manager := session.NewManager[[]byte](session.Config{
		Name:          "scroll-sim",
		FetchWorkers:  *flagFetchWorkers,
		MaxFetchBatch: *flagMaxFetchBatch,
	})

	source := &simSource{
		corpus:  corp,
		latency: *flagSourceLatency,
		errPct:  uint32(*flagSourceErrPercentage),
	}

	var (
		runCtx  context.Context
		stopRun context.CancelFunc
	)
	if *flagDuration > 0 {
		runCtx, stopRun = context.WithTimeout(ctx, *flagDuration)
	} else {
		runCtx, stopRun = context.WithCancel(ctx)
	}
	defer stopRun()

	var cacheWG *sync.WaitGroup
	if codec != chunk.CodecNone {
		cacheWG = startChunkCache(runCtx.Done(), corp, uint64(*flagCacheSize))
	}

	stats := &scrollerStats{}
	sessions := make([]*session.Session[[]byte], 0, *flagSessions)
	scrollers := make([]*scroller, 0, *flagSessions)
	for i := 0; i < *flagSessions; i++ {
		sess, err := manager.Open(source, corp.docsTotal)
		if err != nil {
			logger.Fatal("opening session", zap.Error(err))
		}
		sessions = append(sessions, sess)
		scrollers = append(scrollers, newScroller(sess, scenario, stats, seed+int64(i)+1, *flagViewSize, corp.docsTotal))
	}

	go runStatsTicker(runCtx, stats, sessions)

	serviceReady.Store(true)

	var (
		errsMu sync.Mutex
		errs   []error
		wg     sync.WaitGroup
	)
	for _, s := range scrollers {
		wg.Add(1)
		go func(s *scroller) {
			defer wg.Done()
			if err := s.run(runCtx); err != nil {
				errsMu.Lock()
				errs = append(errs, err)
				errsMu.Unlock()
				stopRun()
			}
		}(s)
	}
	wg.Wait()

	switch {
	case ctx.Err() != nil:
		logger.Info("got signal to quit")
	case len(errs) > 0:
		logger.Error("stopping after scroller failure")
	default:
		logger.Info("run duration elapsed")
	}

	stopRun()
	if err := manager.Stop(); err != nil {
		logger.Error("stopping session manager", zap.Error(err))
	}
	if cacheWG != nil {
		cacheWG.Wait()
	}
	debugServer.Stop(consts.DebugServerShutdownTimeout)

	total := sumSessionStats(sessions)
	logger.Info("totals",
		zap.Uint64("views_set", stats.viewsSet.Load()),
		zap.Uint64("rows_rendered", stats.rowsRendered.Load()),
		zap.Uint64("docs_seen", stats.docsSeen.Load()),
		zap.Uint64("gaps", stats.gaps.Load()),
		zap.Uint64("verify_errors", stats.verifyErrors.Load()),
		zap.Uint64("fetches", total.Fetches),
		zap.Uint64("fetch_errors", total.FetchErrors),
	)

	if err := util.CollapseErrors(errs); err != nil {
		logger.Fatal("scrollers failed", zap.Error(err))
	}

	logger.Info("quit")
}

func runStatsTicker(ctx context.Context, stats *scrollerStats, sessions []*session.Session[[]byte]) {
	fetchRate := metric.NewRollingAverage(15)
	lastFetches := uint64(0)

	util.RunEvery(ctx.Done(), statsTickerInterval, func() {
		total := sumSessionStats(sessions)
		fetchDelta := total.Fetches - lastFetches
		lastFetches = total.Fetches
		fetchRate.Append(int(fetchDelta))

		logger.Info("progress",
			zap.Uint64("views_set", stats.viewsSet.Load()),
			zap.Uint64("rows_rendered", stats.rowsRendered.Load()),
			zap.Uint64("docs_seen", stats.docsSeen.Load()),
			zap.Uint64("gaps", stats.gaps.Load()),
			zap.Uint64("verify_errors", stats.verifyErrors.Load()),
			zap.Uint64("fetches", total.Fetches),
			util.ZapFloat64WithPrec("fetches_per_tick", float64(fetchRate.Get()), 2),
			zap.Uint64("fetch_errors", total.FetchErrors),
			zap.Int("docs_resident", total.Resident),
			zap.Int("loads_pending", total.Pending),
		)
	})
}

func sumSessionStats(sessions []*session.Session[[]byte]) session.Stats {
	var total session.Stats
	for _, s := range sessions {
		st := s.Stats()
		total.Resident += st.Resident
		total.Pending += st.Pending
		total.ViewsSet += st.ViewsSet
		total.Fetches += st.Fetches
		total.FetchErrors += st.FetchErrors
	}
	return total
}
