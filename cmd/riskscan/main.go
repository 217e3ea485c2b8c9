// Command riskscan runs an early-intervention sweep over a JSON dataset
// of evaluation templates and responses, printing every flag it raises.
// It is the batch form of the per-person scan the application runs
// online.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/realizewhoitis/training-tracker-sub001/infrastructure/memstore"
	"github.com/realizewhoitis/training-tracker-sub001/internal/application"
	"github.com/realizewhoitis/training-tracker-sub001/internal/domain"
)

type dataset struct {
	Templates []domain.Template `json:"templates"`
	Responses []domain.Response `json:"responses"`
}

func main() {
	var (
		dataPath   = flag.String("data", "", "Path to a JSON dataset of templates and responses")
		configPath = flag.String("config", "", "Optional YAML engine config; defaults are used when omitted")
	)
	flag.Parse()

	if *dataPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := application.DefaultEngineConfig()
	if *configPath != "" {
		loaded, err := application.LoadEngineConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	raw, err := os.ReadFile(*dataPath)
	if err != nil {
		log.Fatalf("Failed to read dataset: %v", err)
	}
	var ds dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		log.Fatalf("Failed to parse dataset: %v", err)
	}

	store := memstore.New()
	for _, tpl := range ds.Templates {
		store.PutTemplate(tpl)
	}
	for _, resp := range ds.Responses {
		store.AddResponse(resp)
	}

	evaluator, err := application.NewRiskEvaluator(cfg, store, store, store)
	if err != nil {
		log.Fatalf("Failed to build evaluator: %v", err)
	}

	trainees := store.Trainees()
	flags, err := evaluator.ScanPopulation(context.Background(), trainees)
	if err != nil {
		log.Fatalf("Sweep aborted: %v", err)
	}

	fmt.Printf("Scanned %d trainees, raised %d flags\n", len(trainees), len(flags))
	for _, f := range flags {
		fmt.Printf("- trainee %d: %s %s: %s\n", f.PersonID, f.Severity, f.Type, f.Description)
	}
}
