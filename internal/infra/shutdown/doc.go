// Package shutdown runs cleanup hooks when the process is interrupted.
//
//	h := shutdown.NewHandler(5*time.Second, logger)
//	h.OnShutdown("realtime", func(context.Context) error { mgr.Close(); return nil })
//	ctx, stop := shutdown.Context(context.Background())
//	defer stop()
//	err := h.Wait(ctx)
package shutdown
