package main

import (
	"context"
	"flag"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/joho/godotenv"

	"github.com/northlightlabs/arspatial/core"
	"github.com/northlightlabs/arspatial/fixes"
	"github.com/northlightlabs/arspatial/framectrl"
	"github.com/northlightlabs/arspatial/internal/fixsim"
	"github.com/northlightlabs/arspatial/internal/logging"
	"github.com/northlightlabs/arspatial/internal/observability"
	"github.com/northlightlabs/arspatial/model"
)

// ISS TLE used by the ground-track demo source.
const (
	demoTLE1 = "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990"
	demoTLE2 = "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760"
)

func main() {
	// .env is optional; the system environment still applies when absent.
	_ = godotenv.Load()

	tick := flag.Duration("tick", 16*time.Millisecond, "frame tick interval")
	duration := flag.Duration("duration", 30*time.Second, "total run duration (0 = until interrupted)")
	renderDistance := flag.Float64("render-distance", 50, "render-distance sphere radius in metres")
	accuracy := flag.Float64("fix-accuracy", 20, "worst accepted horizontal fix accuracy in metres")
	httpAddr := flag.String("http", ":8080", "status/metrics listen address (empty to disable)")
	lat := flag.Float64("lat", 47.6205, "walk center latitude")
	lon := flag.Float64("lon", -122.3493, "walk center longitude")
	elev := flag.Float64("elev", 56, "walk center elevation in metres")
	flag.Parse()

	ctx := context.Background()
	log := logging.NewFromEnv()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "tracing init failed", logging.String("error", err.Error()))
		return
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	collector, err := observability.NewSceneCollector(nil)
	if err != nil {
		log.Error(ctx, "metrics init failed", logging.String("error", err.Error()))
		return
	}

	// ==== Fix delivery (the one asynchronous boundary) ====

	history := fixes.NewHistory(fixes.Config{MaxHorizontalAccuracyM: *accuracy})
	unsubscribe := history.Subscribe(func(ev fixes.Event) {
		collector.ObserveFix(ev.Type == fixes.EventFixAccepted, history.Len())
	})
	defer unsubscribe()

	start := time.Now()
	center := model.GeodeticCoordinate{Latitude: *lat, Longitude: *lon, Elevation: *elev}
	walk := fixsim.NewWalkSource(center, 25, 1.4, 5, start)

	stopFixes := make(chan struct{})
	fixesDone := fixsim.Run(walk, history.Append, 500*time.Millisecond, stopFixes)

	// ==== Scene graph ====

	tracker := core.NewReferenceTracker(history, log)
	engine := core.NewSceneEngine(tracker, *renderDistance, log, collector)

	user := core.NewNode()
	engine.Register("user", user)

	poi := &model.WorldLocation{Transform: mgl64.Translate3D(8, 0, -12)}
	gaze := core.NewNode()
	gaze.SetParent(user)
	gaze.SetHeading(core.LookAtHeading(poi))
	engine.Register("gaze", gaze)

	marker := core.NewNode()
	marker.SetLocalTransform(mgl64.Translate3D(8, 0, -12))
	marker.SetHeading(core.FixedAbsoluteHeading(90)) // face east
	engine.Register("poi-marker", marker)

	trail := core.NewPath(
		mgl64.Vec3{0, 0, 0},
		mgl64.Vec3{10, 0, -10},
		mgl64.Vec3{25, 0, -30},
		mgl64.Vec3{120, 0, -160},
	)
	engine.AddPath(trail)

	// Distant moving location for the great-circle branch of Distance.
	iss := fixsim.NewGroundTrackSource(demoTLE1, demoTLE2, 100)

	// ==== Frame loop ====

	var snapMu sync.RWMutex
	var latest core.Snapshot

	controller := framectrl.NewFrameController(start, *tick, framectrl.RealTime)
	controller.AddListener(func(frame uint64, now time.Time) {
		// Stand-in for the AR tracking transform: drift slowly east.
		device := mgl64.Translate3D(0.02*float64(frame), 0, 0)
		engine.Tick(ctx, device)

		snapMu.Lock()
		latest = engine.Snapshot()
		snapMu.Unlock()

		if frame%600 == 0 {
			if ref, ok := tracker.Reference(); ok {
				nadir := iss.FixAt(now)
				sat := core.WorldLocationFromGeodetic(
					nadir.Coordinate.Latitude, nadir.Coordinate.Longitude, 0, ref)
				log.Info(ctx, "distance to sub-satellite point",
					logging.Frame(frame),
					logging.Float("meters", core.Distance(ref, sat)),
				)
			}
		}
	})

	if *httpAddr != "" {
		go serveStatus(*httpAddr, collector, func() core.Snapshot {
			snapMu.RLock()
			defer snapMu.RUnlock()
			return latest
		}, log)
	}

	log.Info(ctx, "arsim started",
		logging.Any("tick", tick.String()),
		logging.Float("render_distance_m", *renderDistance),
	)

	<-controller.Start(*duration)
	close(stopFixes)
	<-fixesDone

	log.Info(ctx, "arsim finished", logging.Any("frames", engine.Frame()))
}

func serveStatus(addr string, collector *observability.SceneCollector, snapshot func() core.Snapshot, log logging.Logger) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, snapshot())
	})
	r.GET("/metrics", gin.WrapH(collector.Handler()))

	if err := r.Run(addr); err != nil {
		log.Error(context.Background(), "status server stopped", logging.String("error", err.Error()))
	}
}
