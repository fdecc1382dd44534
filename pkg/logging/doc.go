// Package logging provides a process-wide structured logger for heapstore.
//
// It wraps [go.uber.org/zap]. Subsystems log through the package-level
// logger returned by GetLogger; the CLI configures its level, encoding and
// destination once at startup.
//
// # Initialisation
//
// Call Init (or InitDefault for sensible defaults) once at program startup,
// before any goroutines that might call GetLogger are spawned:
//
//	if err := logging.Init(logging.Config{Level: logging.LevelDebug, Format: "json"}); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Close()
//
// If GetLogger is called before Init, the InitDefault logger is installed
// on first use.
//
// # Context helpers
//
// Several helpers return child loggers pre-populated with structured fields:
//
//	log := logging.WithTx(tid)          // adds tx_id
//	log := logging.WithPage(pid)        // adds table_id and page_no
//	log := logging.WithLock(tid, pid)   // adds all three
//	log := logging.WithComponent("buffer_pool")
package logging
