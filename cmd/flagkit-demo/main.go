// Command flagkit-demo shows the minimal Init/BuildContext/Feature/Run
// flow against a live GrowthBook-compatible CDN endpoint.
package main

import (
	"fmt"
	"log"
	"time"

	"github.com/flagkit/flagkit"
	"github.com/flagkit/flagkit/internal/value"
)

func main() {
	client, err := flagkit.Init(
		flagkit.WithClientKey("sdk-demo"),
		flagkit.WithSWRTTL(60*time.Second),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Shutdown()

	if err := client.AwaitInitialization(5 * time.Second); err != nil {
		log.Printf("starting with a cold cache: %v", err)
	}

	ctx := client.BuildContext(flagkit.Attributes{
		"id":      value.Str("user-123"),
		"country": value.Str("US"),
	})

	if client.Feature(ctx, "my-feature").On {
		fmt.Println("my-feature is on")
	}

	color := client.Feature(ctx, "signup-button-color").Value
	fmt.Println("signup-button-color:", color.String())

	experiment := flagkit.NewExperiment("my-experiment").
		WithVariations(value.Str("A"), value.Str("B"))

	result := client.Run(ctx, experiment)
	fmt.Println("my-experiment variation:", result.Value.String())
}
