// Package profilers implements helper functions to set up profiling for the
// simulation-budget sweep run by cmd/fairpomcp.
//
// A sweep runs NumSimulations doubling across many episodes, so a single
// CPU profile spans every budget in the run rather than one planner call;
// Label tags the printed HTTP-profiler instructions with which budget
// sweep is currently live, since the sweep can sit on the HTTP profiler
// for several minutes of wall clock and a bare port number doesn't say
// which run left it open.
package profilers

import (
	"context"
	"flag"
	"fmt"
	"k8s.io/klog/v2"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"runtime/pprof"
)

var (
	flagProfiler   = flag.Int("prof", -1, "If set, runs the profile at the given port.")
	flagCPUProfile = flag.String("cpu_profile", "", "write cpu profile to `file`")
	profilerAddr   string

	// Label identifies the running sweep in printed profiler messages
	// (e.g. "problem=rocksample"). Empty by default.
	Label string

	// globalCtx is set on the call to Setup.
	globalCtx context.Context
)

// Setup starts the HTTP (flag -prof) and CPU profilers (flag -cpu_profile), if they were configured.
// You should follow with a deferred call to OnQuit.
func Setup(ctx context.Context) {
	globalCtx = ctx
	if *flagProfiler >= 0 {
		setupHTTPProfiler()
	}
	if *flagCPUProfile != "" {
		createCPUProfile()
	}
}

// OnQuit should be called before the exit of the main() function, typically this is setup as a deferred call
// just after Setup.
func OnQuit() {
	if *flagCPUProfile != "" {
		pprof.StopCPUProfile()
	}
	if *flagProfiler >= 0 {
		httpProfilerOnQuit()
	}
}

// createCPUProfile creates the file pointed by *flagCPUProfile and starts the CPU profiling there.
// OnQuit stops it.
func createCPUProfile() {
	f, err := os.Create(*flagCPUProfile)
	if err != nil {
		klog.Fatal("could not create CPU profile: ", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		klog.Fatal("could not start CPU profile: ", err)
	}
	return
}

// setupHTTPProfiler starts the HTTP profiler on the -prof port. Setup calls
// it only when -prof is set.
func setupHTTPProfiler() {
	profilerAddr = fmt.Sprintf("localhost:%d", *flagProfiler)
	tag := Label
	if tag == "" {
		tag = "sweep"
	}
	fmt.Printf("Starting profiler for %s on %s/debug/pprof\n", tag, profilerAddr)
	fmt.Printf("- You can access it with: $ go tool pprof %s/debug/pprof/heap\n", profilerAddr)
	fmt.Printf("- The %s sweep is kept alive after its last budget completes; interrupt it (Ctrl+C) to exit\n", tag)
	go func() {
		klog.Fatal(http.ListenAndServe(profilerAddr, nil))
	}()
}

// httpProfilerOnQuit is a deferred function called on exit if the profiler is configured:
// it keeps the program alive until interrupt is called.
//
// If the profiler was not enabled (-prof), it is a No-op.
func httpProfilerOnQuit() {
	if *flagProfiler < 0 {
		return
	}
	// Don't freeze on panic.
	if err := recover(); err != nil {
		panic(err)
	}
	if globalCtx.Err() != nil {
		// Already interrupted.
		return
	}

	// Garbage collect, to see if there is anything leaking: the TSV rows
	// already printed are never retained, and every finished episode's
	// planner (with its arena free list and belief trees) is unreachable
	// by now, so none of it should survive these collections.
	for _ = range 10 {
		runtime.GC()
	}
	tag := Label
	if tag == "" {
		tag = "sweep"
	}
	fmt.Printf("- %s sweep finished: kept alive with profiler opened at %s/debug/pprof\n", tag, profilerAddr)
	fmt.Printf("- Interrupt (Ctrl+C) to exit\n")
	<-globalCtx.Done()
	fmt.Printf("... exiting ...\n")
}
