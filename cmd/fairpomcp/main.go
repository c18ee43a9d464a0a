// Command fairpomcp runs the Fair-POMCP planner against one of the four
// bundled problems across a range of simulation budgets, reporting
// averaged return, welfare, and timing statistics to a TSV file.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"text/tabwriter"
	"time"

	"k8s.io/klog/v2"

	"github.com/fairpomcp/planner/config"
	"github.com/fairpomcp/planner/env"
	"github.com/fairpomcp/planner/envs/mlu"
	"github.com/fairpomcp/planner/envs/mwa"
	"github.com/fairpomcp/planner/envs/rocksample"
	"github.com/fairpomcp/planner/envs/tworandom"
	"github.com/fairpomcp/planner/history"
	"github.com/fairpomcp/planner/internal/profilers"
	"github.com/fairpomcp/planner/internal/ui/spinning"
	"github.com/fairpomcp/planner/lpsolve"
	"github.com/fairpomcp/planner/planner"
	"github.com/fairpomcp/planner/stats"
	"github.com/fairpomcp/planner/welfare"
)

var (
	flagProblem     = flag.String("problem", "random", "Problem: rocksample, mlu, mwa, or random")
	flagSize        = flag.Int("size", 7, "Grid size (rocksample only; mlu's maze size follows -number)")
	flagNumber      = flag.Int("number", 8, "Rock count (rocksample) or unload-point count (mlu)")
	flagNumProducts = flag.Int("numproducts", 5, "Number of products/objectives (mwa)")

	flagStrategy        = flag.String("strategy", "GGF", "Welfare scalarization: GGF or WS")
	flagConsiderPast    = flag.Bool("considerpast", true, "Fold already-accumulated episode reward into Q-values")
	flagMinDoubles      = flag.Int("mindoubles", 4, "Smallest simulation budget is 2^mindoubles")
	flagMaxDoubles      = flag.Int("maxdoubles", 10, "Largest simulation budget is 2^maxdoubles")
	flagRuns            = flag.Int("runs", 20, "Episodes averaged per simulation budget")
	flagTimeout         = flag.Duration("timeout", 60*time.Second, "Wall-clock budget per episode")
	flagMaxDepth        = flag.Int("maxdepth", 50, "Maximum tree/rollout depth")
	flagHorizon         = flag.Int("horizon", 100, "Undiscounted episode horizon fallback")
	flagAccuracy        = flag.Float64("accuracy", 1e-3, "Discounted-horizon accuracy threshold")
	flagUseTransforms   = flag.Bool("usetransforms", true, "Enable belief transformation on every Update")
	flagTransformDouble = flag.Int("transformdoubles", 2, "Transform budget per Update is 2^transformdoubles")
	flagTransformTries  = flag.Int("transformattempts", 100, "Max local-move attempts per Update")
	flagExploration     = flag.Float64("exploration", 1, "UCB exploration constant")
	flagAutoExplore     = flag.Bool("autoexploration", true, "Derive the exploration constant from RewardRange")
	flagDisableTree     = flag.Bool("disabletree", false, "Use rollout-only search instead of UCT")
	flagActionSelector  = flag.String("actionselector", "greedy", "Root action choice: greedy (UCB argmax) or lpsolve (GGF-maximizing LP distribution)")
	flagVerbose         = flag.Bool("verbose", false, "Alias for -v=1")
	flagOutputFile      = flag.String("outputfile", "", "TSV output path (defaults to stdout)")
	flagSeed            = flag.Uint64("seed", 42, "RNG seed")
)

func buildEnv() env.Environment {
	rng := rand.New(rand.NewPCG(*flagSeed, *flagSeed^0x9e3779b9))
	switch *flagProblem {
	case "rocksample":
		return rocksample.New(rng, *flagSize, *flagNumber)
	case "mlu":
		return mlu.New(*flagNumber)
	case "mwa":
		return mwa.New(*flagNumProducts)
	case "random":
		return tworandom.New()
	default:
		klog.Exitf("unrecognized -problem=%q (expected rocksample, mlu, mwa, or random)", *flagProblem)
		return nil
	}
}

func buildParams() config.Params {
	p := make(config.Params)
	p["strategy"] = *flagStrategy
	if *flagConsiderPast {
		p["considerpast"] = "true"
	} else {
		p["considerpast"] = "false"
	}
	p["maxdepth"] = fmt.Sprint(*flagMaxDepth)
	if *flagUseTransforms {
		p["usetransforms"] = "true"
	} else {
		p["usetransforms"] = "false"
	}
	p["numtransforms"] = fmt.Sprint(1 << uint(*flagTransformDouble))
	p["maxattempts"] = fmt.Sprint(*flagTransformTries)
	p["exploration"] = fmt.Sprint(*flagExploration)
	if *flagAutoExplore {
		p["autoexploration"] = "true"
	} else {
		p["autoexploration"] = "false"
	}
	if *flagDisableTree {
		p["disabletree"] = "true"
	} else {
		p["disabletree"] = "false"
	}
	return p
}

// episodeResult holds one completed episode's reported statistics.
type episodeResult struct {
	undiscounted []float64
	discounted   []float64
	timesteps    int
}

func runEpisode(e env.Environment, cfg planner.Config, rng *rand.Rand) episodeResult {
	numObjectives := e.NumObjectives()
	p, err := planner.New(e, cfg, rng)
	if err != nil {
		klog.Exitf("planner.New: %+v", err)
	}

	trueState := e.CreateStartState(rng)
	defer e.FreeState(trueState)

	undiscounted := make([]float64, numObjectives)
	discounted := make([]float64, numObjectives)
	pastReward := make([]float64, numObjectives)
	discountAcc := 1.0
	discount := e.Discount()

	horizon := e.GetHorizon(*flagAccuracy, *flagHorizon)
	starved := false
	localHist := history.New()
	status := env.NewStatus()

	deadline := time.Now().Add(*flagTimeout)
	steps := 0
	for ; steps < horizon && time.Now().Before(deadline); steps++ {
		var action int
		if !starved {
			action, err = p.SelectAction(pastReward)
			if err != nil {
				klog.Exitf("SelectAction: %+v", err)
			}
		} else {
			action = e.SelectRandom(rng, trueState, localHist, status)
		}

		obs, reward, terminal := e.Step(rng, trueState, action)
		for i := range undiscounted {
			undiscounted[i] += reward[i]
			discounted[i] += discountAcc * reward[i]
			pastReward[i] += discountAcc * reward[i]
		}
		discountAcc *= discount
		localHist.Add(action, obs)

		if terminal {
			steps++
			break
		}

		if !starved {
			ok, uerr := p.Update(action, obs, reward)
			if uerr != nil {
				klog.Exitf("Update: %+v", uerr)
			}
			if !ok {
				klog.V(1).Infof("particle starvation at step %d, switching to random rollout", steps)
				starved = true
			}
		}
	}

	return episodeResult{undiscounted: undiscounted, discounted: discounted, timesteps: steps}
}

// budgetRow is one line of the output TSV.
type budgetRow struct {
	simulations int
	runs        int

	undiscounted    *stats.VectorAccumulator
	discounted      *stats.VectorAccumulator
	undiscountedCV  *stats.Accumulator
	discountedCV    *stats.Accumulator
	timesteps       *stats.Accumulator
	welfare         *stats.Accumulator
	elapsed         time.Duration
}

func runBudget(e env.Environment, baseCfg planner.Config, simulations int, seed uint64) budgetRow {
	row := budgetRow{
		simulations:    simulations,
		runs:           *flagRuns,
		undiscounted:   stats.NewVectorAccumulator(e.NumObjectives()),
		discounted:     stats.NewVectorAccumulator(e.NumObjectives()),
		undiscountedCV: stats.NewAccumulator(),
		discountedCV:   stats.NewAccumulator(),
		timesteps:      stats.NewAccumulator(),
		welfare:        stats.NewAccumulator(),
	}

	cfg := baseCfg
	cfg.NumSimulations = simulations

	start := time.Now()
	for run := 0; run < *flagRuns; run++ {
		rng := rand.New(rand.NewPCG(seed, uint64(run)+1))
		result := runEpisode(e, cfg, rng)

		row.undiscounted.Add(result.undiscounted)
		row.discounted.Add(result.discounted)
		row.undiscountedCV.Add(welfare.CV(result.undiscounted))
		row.discountedCV.Add(welfare.CV(result.discounted))
		row.timesteps.Add(float64(result.timesteps))
		row.welfare.Add(welfare.GGF(result.discounted))
	}
	row.elapsed = time.Since(start)
	return row
}

func formatVector(v []float64) string {
	s := "["
	for i, x := range v {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%.4f", x)
	}
	return s + "]"
}

func writeHeader(w *tabwriter.Writer) {
	fmt.Fprintln(w, "Simulations\tRuns\tUndiscounted return\tUndiscounted error\tDiscounted return\tDiscounted error\tTime\tUndiscounted CV\tUndiscounted CV err\tDiscounted CV\tDiscounted CV err\tTimesteps\tTimesteps err\tWelfare score\tWelfare score err")
}

func writeRow(w *tabwriter.Writer, row budgetRow) {
	fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\t%.3fs\t%.4f\t%.4f\t%.4f\t%.4f\t%.2f\t%.4f\t%.4f\t%.4f\n",
		row.simulations, row.runs,
		formatVector(row.undiscounted.Mean()), formatVector(row.undiscounted.StdErr()),
		formatVector(row.discounted.Mean()), formatVector(row.discounted.StdErr()),
		row.elapsed.Seconds(),
		row.undiscountedCV.Mean(), row.undiscountedCV.StdErr(),
		row.discountedCV.Mean(), row.discountedCV.StdErr(),
		row.timesteps.Mean(), row.timesteps.StdErr(),
		row.welfare.Mean(), row.welfare.StdErr(),
	)
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *flagVerbose {
		flag.Set("v", "1")
	}

	ctx, cancel := context.WithCancel(context.Background())
	spinning.SafeInterrupt(cancel, 3*time.Second)
	profilers.Label = fmt.Sprintf("problem=%s", *flagProblem)
	profilers.Setup(ctx)
	defer profilers.OnQuit()
	defer cancel()

	e := buildEnv()
	params := buildParams()
	baseCfg, err := planner.NewConfigFromParams(params)
	if err != nil {
		klog.Exitf("invalid planner configuration: %+v", err)
	}
	baseCfg.NumStartStates = 200
	switch *flagActionSelector {
	case "greedy":
		// baseCfg.ActionSelector stays nil: SelectAction keeps using the
		// deterministic greedy-UCB argmax.
	case "lpsolve":
		baseCfg.ActionSelector = lpsolve.Select
	default:
		klog.Exitf("unrecognized -actionselector=%q (expected greedy or lpsolve)", *flagActionSelector)
	}

	out := os.Stdout
	toFile := *flagOutputFile != ""
	if toFile {
		f, err := os.Create(*flagOutputFile)
		if err != nil {
			klog.Exitf("creating -outputfile=%q: %+v", *flagOutputFile, err)
		}
		defer f.Close()
		out = f
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	writeHeader(w)

	for doubles := *flagMinDoubles; doubles <= *flagMaxDoubles; doubles++ {
		if ctx.Err() != nil {
			break
		}
		simulations := 1 << uint(doubles)

		// Writing the TSV to stdout keeps the terminal output machine-
		// readable, so the spinner only runs when it won't interleave
		// with a row being printed.
		var spinner *spinning.Spinning
		if toFile {
			spinner = spinning.New(ctx, fmt.Sprintf("simulations=%d", simulations))
		}
		row := runBudget(e, baseCfg, simulations, *flagSeed)
		if spinner != nil {
			spinner.Done()
		}

		writeRow(w, row)
		w.Flush()
		klog.Infof("budget %d: %d runs complete in %s", simulations, *flagRuns, row.elapsed)
	}
}
