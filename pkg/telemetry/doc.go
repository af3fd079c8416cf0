// Package telemetry records breadcrumbs: small, fire-and-forget events that
// describe what a dispatch did.
//
// A Sink must never influence the operation it observes. Record has no error
// return, and Safe wraps any sink so that a panic inside it is recovered and
// logged instead of propagating to the caller.
//
//	sink := telemetry.Safe(telemetry.Multi(
//		telemetry.NewLogSink(log),
//		metrics,
//	), log)
//	sink.Record(ctx, telemetry.Breadcrumb{
//		Category: "test_send",
//		Message:  "dispatched",
//		Level:    telemetry.LevelInfo,
//		Data:     map[string]any{"stage": "dispatch", "outcome": "ok"},
//	})
package telemetry
