package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lintang-b-s/navmatch/pkg/concurrent"
	"github.com/lintang-b-s/navmatch/pkg/engine"
	"github.com/lintang-b-s/navmatch/pkg/logger"
	"github.com/lintang-b-s/navmatch/pkg/mapmatcher/online"
	"github.com/lintang-b-s/navmatch/pkg/trace"
	"github.com/lintang-b-s/navmatch/pkg/util"
	"go.uber.org/zap"
)

var (
	traceFiles = flag.String("trace", "", "comma separated trace files (.json or .json.bz2)")
	outDir     = flag.String("out", "./data/replay", "output directory for the matched geojson files")
	numWorkers = flag.Int("workers", 4, "number of traces matched in parallel")
)

type replayResult struct {
	name       string
	fixes      int
	locations  int
	deadReckon int
	meanConf   float64
	out        string
	err        error
}

func main() {
	flag.Parse()
	if err := util.ReadConfig(); err != nil {
		panic(err)
	}
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	files := splitFiles(*traceFiles)
	if len(files) == 0 {
		logger.Fatal("no trace file given, use -trace")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		logger.Fatal("create output directory", zap.Error(err))
	}

	profiles, err := online.LoadProfiles()
	if err != nil {
		logger.Fatal("invalid map matcher profiles", zap.Error(err))
	}
	mapMatchEngine, err := engine.NewEngine(1, profiles, logger)
	if err != nil {
		logger.Fatal("create map matching engine", zap.Error(err))
	}
	defer mapMatchEngine.Close()

	results := concurrent.Run(*numWorkers, files, func(filename string) replayResult {
		return replay(mapMatchEngine, filename, *outDir)
	})

	failed := 0
	for _, res := range results {
		if res.err != nil {
			failed++
			logger.Error("replay failed", zap.String("trace", res.name), zap.Error(res.err))
			continue
		}
		logger.Info("trace replayed",
			zap.String("trace", res.name),
			zap.Int("fixes", res.fixes),
			zap.Int("locations", res.locations),
			zap.Int("dead_reckoned", res.deadReckon),
			zap.Float64("mean_confidence", res.meanConf),
			zap.String("geojson", res.out))
	}
	logger.Info("replay done", zap.Int("traces", len(results)), zap.Int("failed", failed))
	if failed > 0 {
		os.Exit(1)
	}
}

func replay(e *engine.Engine, filename, dir string) replayResult {
	res := replayResult{name: filename}
	tr, err := trace.ReadTrace(filename)
	if err != nil {
		res.err = err
		return res
	}
	res.name = tr.Name

	route, err := tr.Route.ToRoute()
	if err != nil {
		res.err = err
		return res
	}
	fixes := trace.ToGPSPoints(tr.Fixes)
	locations, err := e.MatchTrace(route, fixes)
	if err != nil {
		res.err = err
		return res
	}

	res.fixes = len(fixes)
	res.locations = len(locations)
	sum := 0.0
	for _, loc := range locations {
		sum += loc.Confidence
		if loc.DeadReckoned {
			res.deadReckon++
		}
	}
	if len(locations) > 0 {
		res.meanConf = util.RoundFloat(sum/float64(len(locations)), 3)
	}

	res.out = filepath.Join(dir, fmt.Sprintf("%s.geojson", tr.Name))
	res.err = trace.WriteGeoJSON(res.out, trace.FeatureCollection(route, fixes, locations))
	return res
}

func splitFiles(s string) []string {
	files := make([]string, 0)
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	return files
}
