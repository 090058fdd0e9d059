package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"odolog/pkg/odometer"
)

func main() {
	file := flag.String("file", "", "cluster photo to process")
	preset := flag.String("preset", "thorough", "extraction preset: thorough|minimal")
	trace := flag.Bool("trace", false, "dump the full debug trace as JSON")
	flag.Parse()
	if *file == "" {
		log.Fatalf("-file required")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read: %v", err)
	}
	src, err := odometer.Decode(*file, "image/*", data)
	if err != nil {
		log.Fatalf("decode: %v", err)
	}

	cfg := odometer.ThoroughConfig()
	if *preset == "minimal" {
		cfg = odometer.MinimalConfig()
	}
	res, err := odometer.New(cfg, odometer.NewTesseractEngine()).Run(context.Background(), src)
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}

	if *trace {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.Report()); err != nil {
			log.Fatalf("encode: %v", err)
		}
		return
	}
	if !res.Found() {
		fmt.Println("no odometer candidate")
		for _, p := range res.Passes {
			if p.Err != "" {
				fmt.Printf("  pass %s/%s failed: %s\n", p.Variant, p.Mode, p.Err)
			}
		}
		os.Exit(1)
	}
	fmt.Printf("odo=%d text=%q\n", *res.Value, res.Text)
	for i, a := range res.Ranked {
		if i >= 5 {
			break
		}
		fmt.Printf("  #%d value=%d count=%d score=%.2f\n", i+1, a.Value, a.Count, a.RankScore)
	}
}
