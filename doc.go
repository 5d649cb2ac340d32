/*
Package flagkit is a client-side feature-flag and A/B-testing SDK. It
evaluates GrowthBook-compatible feature and experiment definitions
against per-request user attributes, using deterministic hashing so
the same user consistently lands in the same bucket without any
server round trip at evaluation time.

A process constructs one Client via Init, which starts a Repository
fetching and periodically refreshing feature definitions from a CDN in
the background. Each request then derives a Context from
Client.BuildContext and calls Client.Feature or Client.Run to evaluate.

	client, err := flagkit.Init(
		flagkit.WithClientKey("sdk-abc123"),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Shutdown()

	ctx := client.BuildContext(flagkit.Attributes{
		"id": value.Str("user-42"),
	})
	result := client.Feature(ctx, "my-feature")
	if result.On {
		// ...
	}

Error handling:

Evaluation never returns an error (spec §7): a malformed condition, an
unknown operator, a missing attribute or a cyclic prerequisite all
resolve to a well-defined FeatureResult or ExperimentResult rather than
a panic or an error return. This lets application code treat
evaluation as total. Go errors come only from operations with a real
external failure mode or from decoding input: repository construction
(ConfigError), AwaitInitialization (TimeoutError, or the FetchError or
DecryptionError of a failed first fetch), the sticky bucket helpers
(StickyBucketError) and the JSON decoding entry points. Every failed
fetch or decryption, first or later, is also logged through the
configurable Logger interface; the other errors are only returned.
*/
package flagkit
