// Package record provides an in-memory [gpucore.Device].
//
// The recording device keeps buffers as byte slices, validates every ID
// it is handed and logs each operation as a typed [Command] instead of
// executing it. It is used for headless runs, for tooling that inspects
// what a frame would draw, and as the device in tests.
//
// Pass commands are staged until Submit and dropped by Discard, so the
// command log of an aborted frame contains none of its draws:
//
//	dev := record.New()
//	r, _ := render.NewRenderer(dev)
//	_ = r.RenderFrame(ctx, build)
//	for _, c := range dev.Commands() {
//		fmt.Println(c)
//	}
//
// Faults can be injected with [Device.FailNext].
package record
