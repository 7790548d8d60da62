// Command smoketest exercises a running prediction server: health first,
// then one prediction with the canonical sample record.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"studytime/client"
	"studytime/study"
)

func main() {
	addr := flag.String("addr", "http://127.0.0.1:8000", "base URL of the prediction server")
	timeout := flag.Duration("timeout", 10*time.Second, "request timeout")
	flag.Parse()

	c := client.New(*addr, *timeout)
	ctx := context.Background()

	health, err := c.Health(ctx)
	if err != nil {
		log.Fatalf("health check failed: %v (is the server running?)", err)
	}
	fmt.Printf("health: status=%s model_loaded=%v model_file_exists=%v\n",
		health.Status, health.ModelLoaded, health.ModelFileExists)

	pred, err := c.Predict(ctx, sampleRecord())
	if err != nil {
		log.Fatalf("predict failed: %v", err)
	}

	fmt.Println("prediction:")
	fmt.Printf("  study time:     %s\n", pred.PredictedStudyTime)
	fmt.Printf("  confidence:     %s\n", pred.ConfidenceLevel)
	fmt.Printf("  key factors:    %s\n", strings.Join(pred.KeyFactors, ", "))
	fmt.Printf("  recommendation: %s\n", pred.Recommendation)
}

func intPtr(v int) *int { return &v }

func sampleRecord() study.FeatureRecord {
	return study.FeatureRecord{
		Failures:   intPtr(0),
		Higher:     intPtr(1),
		Absences:   intPtr(3),
		Freetime:   intPtr(2),
		Goout:      intPtr(3),
		Famrel:     intPtr(4),
		Famsup:     intPtr(1),
		Schoolsup:  intPtr(0),
		Paid:       intPtr(1),
		Traveltime: intPtr(2),
		Health:     intPtr(5),
		Internet:   intPtr(1),
		Age:        intPtr(17),
	}
}
