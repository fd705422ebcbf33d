// Package manager loads rule documents into an engine and keeps them
// fresh. It binds a rule source (local files or a git checkout) to an
// engine, installing compiled programs atomically and watching the
// source for changes.
//
// # Basic Usage
//
//	eng, _ := engine.New(nil)
//	mgr, err := manager.New(&cfg.Rules, eng, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := mgr.Load(ctx); err != nil {
//		log.Fatal(err)
//	}
//
// # Watching
//
// Watch blocks until the context is cancelled, reloading the engine
// whenever the source changes:
//
//	go func() {
//		if err := mgr.Watch(ctx); err != nil {
//			logger.Error("rule watch ended", "error", err)
//		}
//	}()
//
// File mode watches the configured paths with fsnotify, debouncing
// editor save bursts. Git mode polls the remote on the configured
// interval and reloads when rule files change, rolling the checkout
// back if the new revision fails to compile.
//
// # Fail-Safe Reloads
//
// A reload that fails to parse or compile never disturbs sampling:
// the engine keeps evaluating the previous program, the error is
// logged, and the next change triggers another attempt.
package manager
